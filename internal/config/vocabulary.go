package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Vocabulary holds the domain term tables used by query expansion and the
// sparse tokenizer. It is data, not code: growing the domain vocabulary
// never touches retrieval logic.
type Vocabulary struct {
	Synonyms       map[string][]string `yaml:"synonyms"`
	StopWords      []string            `yaml:"stop_words"`
	ImportantTerms []string            `yaml:"important_terms"`
}

// LoadVocabulary reads the YAML vocabulary file, or returns the built-in
// table when path is empty.
func LoadVocabulary(path string) (Vocabulary, error) {
	if path == "" {
		return DefaultVocabulary(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("read vocabulary file: %w", err)
	}

	var vocab Vocabulary
	if err := yaml.Unmarshal(data, &vocab); err != nil {
		return Vocabulary{}, fmt.Errorf("parse vocabulary yaml: %w", err)
	}
	if vocab.Synonyms == nil {
		vocab.Synonyms = map[string][]string{}
	}
	return vocab, nil
}

// DefaultVocabulary is the car-detailing support table the corpus was
// indexed with. Terms are Italian with English variants because the ticket
// archive mixes both.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Synonyms: map[string][]string{
			"ppf":           {"pellicola", "film", "protection film", "paint protection", "pellicola protettiva"},
			"pellicola":     {"ppf", "film", "protection film", "paint protection"},
			"ingiallita":    {"yellowed", "yellowing", "gialla", "ingiallimento"},
			"carteggiatura": {"sanding", "sand", "levigare", "levigatura"},
			"bug":           {"insetto", "insetti", "moscerini", "bug remover"},
			"insetti":       {"bug", "bugs", "moscerini", "insect"},
			"vetro":         {"vetri", "glass", "windshield", "parabrezza", "cristallo"},
			"parabrezza":    {"windshield", "vetro", "glass", "windscreen"},
			"interni":       {"interno", "interior", "abitacolo", "cruscotto"},
			"lucidatura":    {"polish", "polishing", "lucidare", "correzione"},
		},
		StopWords: []string{
			"il", "lo", "la", "le", "gli", "un", "una", "uno", "di", "da",
			"in", "con", "su", "per", "tra", "fra", "che", "come", "del",
			"della", "dei", "delle", "mia", "mio", "sono", "the", "a", "an",
			"of", "to", "for", "and", "or", "is", "are", "my", "how", "what",
		},
		ImportantTerms: []string{
			"ppf", "pellicola", "ingiallita", "carteggiatura", "bug",
			"vetro", "parabrezza",
		},
	}
}
