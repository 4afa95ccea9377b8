package domain

// Candidate is a transient per-query retrieval result. A candidate seen by
// only one channel keeps a zero score for the missing channel, never a
// sentinel.
type Candidate struct {
	DocumentID   string   `json:"document_id"`
	Text         string   `json:"text"`
	Type         DocType  `json:"type"`
	Metadata     Metadata `json:"metadata"`
	DenseScore   float64  `json:"dense_score"`
	SparseScore  float64  `json:"sparse_score"`
	LexicalScore float64  `json:"lexical_score"`
	HybridScore  float64  `json:"hybrid_score"`
}

// Draft is one generated answer variant. Err is recorded in place when a
// single draft fails so the remaining drafts survive.
type Draft struct {
	Number      int     `json:"number"`
	Temperature float64 `json:"temperature"`
	Text        string  `json:"text"`
	Err         string  `json:"error,omitempty"`
}

type Answer struct {
	Query   string      `json:"query"`
	Text    string      `json:"text"`
	Context string      `json:"context"`
	Sources []Candidate `json:"sources"`
	Drafts  []Draft     `json:"drafts,omitempty"`
	Model   string      `json:"model"`
	Cached  bool        `json:"cached"`
}
