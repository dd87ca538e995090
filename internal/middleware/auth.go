package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/MikhailRaia/menu-scraper/internal/auth"
	"github.com/MikhailRaia/menu-scraper/internal/model"
)

type contextKey string

// ClientKey is the context key used to store the authenticated client name.
const ClientKey contextKey = "client"

// AuthMiddleware guards write endpoints with bearer JWT tokens.
type AuthMiddleware struct {
	jwtService *auth.JWTService
}

// NewAuthMiddleware creates an AuthMiddleware with the provided JWT service.
func NewAuthMiddleware(jwtService *auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
	}
}

// RequireAuth rejects requests without a valid "Authorization: Bearer" token.
func (a *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := BearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
			return
		}

		claims, err := a.jwtService.ValidateToken(token)
		if err != nil {
			log.Debug().Err(err).Msg("Rejected bearer token")
			writeError(w, http.StatusUnauthorized, "Unauthorized", err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), ClientKey, claims.Client)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// GetClientFromContext extracts the authenticated client name from context.
func GetClientFromContext(ctx context.Context) (string, bool) {
	client, ok := ctx.Value(ClientKey).(string)
	return client, ok
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.ErrorResponse{Error: kind, Message: message})
}
