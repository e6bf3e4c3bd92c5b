package claims

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/odyssey-hr/odyssey-hr/internal/platform/httpx"
)

var errMissingToken = errors.New("claims: missing bearer token")

// Authenticator verifies bearer tokens on incoming requests.
type Authenticator struct {
	Verifier *Verifier
	Logger   *slog.Logger
}

// Authenticate rejects requests without a valid bearer token and stores the
// verified claim in the request context.
func (a Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := BearerToken(r)
		if err == nil {
			var claim SessionClaim
			claim, err = a.Verifier.Verify(token)
			if err == nil {
				next.ServeHTTP(w, r.WithContext(ContextWithClaim(r.Context(), claim)))
				return
			}
		}
		if a.Logger != nil {
			a.Logger.Info("authentication rejected", slog.String("path", r.URL.Path), slog.Any("error", err))
		}
		w.Header().Set("WWW-Authenticate", `Bearer realm="odyssey-hr"`)
		detail := "invalid or missing token"
		if errors.Is(err, ErrExpired) {
			detail = "token expired"
		}
		httpx.ProblemFor(w, r, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized), detail)
	})
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errMissingToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errMissingToken
	}
	return token, nil
}
