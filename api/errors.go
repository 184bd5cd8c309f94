package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nossahistoria/romantic/auth"
	"github.com/nossahistoria/romantic/content"
	"github.com/nossahistoria/romantic/media"
	"github.com/nossahistoria/romantic/storage"
)

const (
	maxAuthBodySize    = 4 << 10
	maxContentBodySize = 64 << 10
	// Multipart framing on top of the image itself.
	uploadOverhead = 1 << 20
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeResult writes an admin action result. A failed result carries the
// message shown to the admin.
func writeResult(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ActionResult{OK: status < 400, Message: msg})
}

func writeInternalError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	writeError(w, http.StatusInternalServerError, msg)
}

func mapError(w http.ResponseWriter, err error) {
	var verr *content.ValidationError
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		writeResult(w, http.StatusUnauthorized, "Nao autorizado.")
	case errors.As(err, &verr):
		writeResult(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, storage.ErrNotFound):
		writeResult(w, http.StatusNotFound, "Nao encontrado.")
	case errors.Is(err, media.ErrTooLarge):
		writeResult(w, http.StatusRequestEntityTooLarge, "Arquivo muito grande.")
	case errors.Is(err, media.ErrUnsupportedType):
		writeResult(w, http.StatusUnsupportedMediaType, "Formato de imagem nao suportado.")
	case errors.Is(err, media.ErrEmpty):
		writeResult(w, http.StatusBadRequest, "Arquivo vazio.")
	default:
		slog.Error("request failed", "error", err)
		writeResult(w, http.StatusInternalServerError, "Erro interno.")
	}
}

// decodeJSON reads a size-limited JSON body into T. On failure it writes a
// 400 (or 413) response and returns false.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request, limit int64) (T, bool) {
	var v T
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return v, false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return v, false
	}
	return v, true
}
