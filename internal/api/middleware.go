package api

import (
	"net/http"
	"strings"

	apperrors "github.com/pvaldez/taskstack/internal/platform/errors"
	"github.com/pvaldez/taskstack/internal/platform/requestctx"
)

// requireAuth guards a handler behind a bearer access token. Every failure
// mode answers with the same 401 so callers learn nothing about why.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			writeError(w, apperrors.New(apperrors.CodeUnauthorized, "missing bearer token"))
			return
		}
		userID, err := s.auth.VerifyAccess(raw)
		if err != nil {
			writeError(w, apperrors.New(apperrors.CodeUnauthorized, "invalid or expired token"))
			return
		}
		next(w, r.WithContext(requestctx.WithUserID(r.Context(), userID)))
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
