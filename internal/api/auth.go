package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"cardoctor/server/internal/token"
)

type ctxKey int

const (
	ctxKeyClaims ctxKey = iota
	ctxKeyRequestID
)

func ClaimsFromContext(ctx context.Context) (jwt.MapClaims, bool) {
	claims, ok := ctx.Value(ctxKeyClaims).(jwt.MapClaims)
	return claims, ok
}

// requireToken takes the second whitespace-separated field of the
// Authorization header as the token. The scheme label is not checked.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeEnvelope(w, http.StatusUnauthorized, "unauthorized access")
			return
		}

		var raw string
		if parts := strings.Fields(authHeader); len(parts) > 1 {
			raw = parts[1]
		}

		claims, err := s.tokens.Verify(raw)
		if err != nil {
			s.logger.Debug("token rejected",
				"request_id", RequestIDFromContext(r.Context()),
				"path", r.URL.Path,
				"err", err,
			)
			writeEnvelope(w, http.StatusUnauthorized, token.Reason(err))
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyClaims, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// issueToken signs whatever JSON object the caller posts.
func (s *Server) issueToken(w http.ResponseWriter, r *http.Request) {
	payload, ok := s.decodeDocument(w, r)
	if !ok {
		return
	}
	signed, err := s.tokens.Issue(map[string]any(payload))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": signed})
}
