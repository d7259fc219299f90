package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"orderline/internal/config"
	"orderline/internal/domain"
)

// Principal is the authenticated actor for one request.
type Principal struct {
	ActorID string
	Role    domain.Role
}

type principalKey struct{}

// IssueToken mints an actor bearer token. The CLI uses this so clients
// and executors can talk to the API without sharing the admin key.
func IssueToken(secret, actorID string, role domain.Role, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("server.jwt_secret is not configured")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  actorID,
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parseToken(secret, token string) (Principal, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return Principal{}, fmt.Errorf("invalid token")
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, fmt.Errorf("invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if sub == "" {
		return Principal{}, fmt.Errorf("token has no subject")
	}
	switch domain.Role(role) {
	case domain.RoleClient, domain.RoleExecutor, domain.RoleAdmin:
	default:
		return Principal{}, fmt.Errorf("token has unknown role %q", role)
	}
	return Principal{ActorID: sub, Role: domain.Role(role)}, nil
}

// newAuthMiddleware authenticates every request under basePath except
// the health endpoint. X-Api-Key matching the admin key acts as the
// operator; otherwise a bearer JWT names the actor and role.
func newAuthMiddleware(basePath string, cfg *config.Config) func(http.Handler) http.Handler {
	healthPath := strings.TrimSuffix(basePath, "/") + "/health"
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == healthPath || !strings.HasPrefix(r.URL.Path, basePath) {
				next.ServeHTTP(w, r)
				return
			}
			var p Principal
			if key := r.Header.Get("X-Api-Key"); key != "" && cfg.Server.AdminKey != "" && key == cfg.Server.AdminKey {
				p = Principal{ActorID: cfg.Operator.ID, Role: domain.RoleAdmin}
			} else if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				var err error
				p, err = parseToken(cfg.Server.JWTSecret, strings.TrimPrefix(auth, "Bearer "))
				if err != nil {
					writeUnauthorized(w, err.Error())
					return
				}
			} else {
				writeUnauthorized(w, "missing credentials")
				return
			}
			ctx := context.WithValue(r.Context(), principalKey{}, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"error":{"code":"unauthorized","message":%q}}`, msg)
}

func principalFromContext(ctx context.Context) (Principal, error) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	if !ok {
		return Principal{}, fmt.Errorf("unauthenticated")
	}
	return p, nil
}
