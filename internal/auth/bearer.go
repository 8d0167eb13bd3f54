package auth

import (
	"strings"

	"github.com/pressroom/pressroom/internal/model"
)

const bearerPrefix = "Bearer "

// ExtractBearer returns the token from an "Authorization: Bearer <token>" header value.
// Any other shape reports false.
func ExtractBearer(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

// ResolveOptional resolves an identity from an Authorization header value on a
// best-effort basis. A missing, malformed, or unverifiable credential yields nil,
// never an error: the caller is treated as anonymous.
func ResolveOptional(header string, verifier Verifier) *model.Identity {
	token, ok := ExtractBearer(header)
	if !ok || verifier == nil {
		return nil
	}
	identity, err := verifier.Verify(token)
	if err != nil {
		return nil
	}
	return identity
}
