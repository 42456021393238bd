package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cardoctor/server/internal/store"
)

func (s *Server) listServices(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.Services.Find(r.Context(), nil)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// getService answers null, not 404, when no service has the id.
func (s *Server) getService(w http.ResponseWriter, r *http.Request) {
	id, err := store.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var projection []string
	if s.projection {
		projection = serviceProjection
	}
	doc, err := s.store.Services.FindOne(r.Context(), store.ByID(id), projection...)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) createService(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.decodeDocument(w, r)
	if !ok {
		return
	}
	res, err := s.store.Services.InsertOne(r.Context(), doc)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}
