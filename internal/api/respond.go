package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"cardoctor/server/internal/store"
)

type envelope struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeEnvelope is the structured error used by the authorization gate and
// the hardened not-found answer.
func writeEnvelope(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Error: true, Message: message})
}

// fail answers a store or handler failure with the raw error text.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed",
		"request_id", RequestIDFromContext(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"err", err,
	)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = io.WriteString(w, err.Error())
}

// notFound handles a missing appointment on the delete and approve paths.
// Unless hardened, nothing is written and the handler holds the request
// until the caller or the server gives up on it.
func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	if s.hardened {
		writeEnvelope(w, http.StatusNotFound, "not found")
		return
	}
	s.logger.Warn("appointment not found, leaving request unanswered",
		"request_id", RequestIDFromContext(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
	)
	<-r.Context().Done()
}

// decodeDocument reads a JSON object body. Bodies that are not declared as
// JSON, and empty bodies, decode to an empty document.
func (s *Server) decodeDocument(w http.ResponseWriter, r *http.Request) (store.Document, bool) {
	if !isJSON(r.Header.Get("Content-Type")) {
		return store.Document{}, true
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.bodyLimit)
	var v any
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return store.Document{}, true
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request entity too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	doc, ok := v.(map[string]any)
	if !ok {
		http.Error(w, "request body must be a JSON object", http.StatusBadRequest)
		return nil, false
	}
	return store.Document(doc), true
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json"
}
