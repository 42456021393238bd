package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cardoctor/server/internal/store"
)

func (s *Server) listAllAppointments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.Appointments.Find(r.Context(), nil)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// listAppointmentsByEmail runs behind requireToken. The email claim must
// equal the email query parameter.
func (s *Server) listAppointmentsByEmail(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	claimed, hasClaim := claims["email"]
	values, hasQuery := r.URL.Query()["email"]

	claimedEmail, isString := claimed.(string)

	// Both absent still compare equal; the filter then matches appointments
	// without an email.
	same := (!hasClaim && !hasQuery) || (hasQuery && isString && claimedEmail == values[0])
	if !same {
		writeEnvelope(w, http.StatusForbidden, "forbidden")
		return
	}
	var email any
	if hasQuery {
		email = values[0]
	}

	docs, err := s.store.Appointments.Find(r.Context(), store.Document{"email": email})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// createAppointment always stores approved=false, whatever the caller sent.
func (s *Server) createAppointment(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.decodeDocument(w, r)
	if !ok {
		return
	}
	doc["approved"] = false
	res, err := s.store.Appointments.InsertOne(r.Context(), doc)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) deleteAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := store.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	filter := store.ByID(id)

	found, err := s.store.Appointments.FindOne(r.Context(), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if found == nil {
		s.notFound(w, r)
		return
	}
	res, err := s.store.Appointments.DeleteOne(r.Context(), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// approveAppointment sets approved=true. Outside hardened mode it looks the
// appointment up first and then upserts, so an appointment deleted between
// the two calls comes back holding only _id and approved.
func (s *Server) approveAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := store.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	filter := store.ByID(id)
	set := store.Document{"approved": true}

	if s.hardened {
		res, err := s.store.Appointments.UpdateOne(r.Context(), filter, set, false)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if res.MatchedCount == 0 {
			s.notFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, res)
		return
	}

	found, err := s.store.Appointments.FindOne(r.Context(), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if found == nil {
		s.notFound(w, r)
		return
	}
	res, err := s.store.Appointments.UpdateOne(r.Context(), filter, set, true)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
