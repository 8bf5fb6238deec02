package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rlowe/countback/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// withStorageWarning attaches a storage_warning field when err is a
// persistence failure. Mutations are memory-first, so a failed write is a
// non-fatal notification on an otherwise successful response, never a
// rollback.
func withStorageWarning(payload map[string]any, err error) map[string]any {
	var se *store.StorageError
	if errors.As(err, &se) {
		payload["storage_warning"] = "changes saved in memory only: " + se.Error()
	}
	return payload
}
