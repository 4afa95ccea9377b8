package httpadapter

import (
	"net/http"

	"github.com/lmoretti/support-rag/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := mapErrorToHTTPStatus(err)
	body := map[string]string{"error": err.Error()}
	if domain.IsKind(err, domain.ErrBackendUnavailable) {
		body["hint"] = "a retrieval or generation backend is unreachable; check qdrant and the llm endpoint, then retry"
	}
	writeJSON(w, status, body)
}
