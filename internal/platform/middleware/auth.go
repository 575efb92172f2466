package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	id "agora/pkg/domain"
	"agora/pkg/platform/httputil"
	"agora/pkg/requestcontext"
)

// JWTValidator defines the interface for validating JWT tokens
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator
type JWTClaims struct {
	MemberID id.MemberID
	TokenID  string
}

// GetMemberID retrieves the authenticated member ID from the context.
func GetMemberID(r *http.Request) id.MemberID {
	return requestcontext.MemberID(r.Context())
}

// RequireAuth resolves the bearer token to the acting member. The member is
// only identified here; whether it exists and may act is decided by the core.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthenticated(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthenticated(w, "Invalid or expired token")
				return
			}

			ctx = requestcontext.WithMemberID(ctx, claims.MemberID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeUnauthenticated answers 401. Domain "unauthorized" denials are 403 and
// go through httputil.WriteError instead.
func writeUnauthenticated(w http.ResponseWriter, description string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	httputil.WriteJSON(w, http.StatusUnauthorized, map[string]string{
		"error":             "unauthenticated",
		"error_description": description,
	})
}
