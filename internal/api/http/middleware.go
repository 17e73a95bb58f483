package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"carshare-ledger/internal/config"
	"carshare-ledger/internal/domain"
	"carshare-ledger/internal/logger"
	"carshare-ledger/internal/security"
)

const requestIDHeader = "X-Request-ID"

type callerKey struct{}

func withCaller(ctx context.Context, account domain.Account) context.Context {
	return context.WithValue(ctx, callerKey{}, account)
}

// callerFrom returns the account authenticated for this request.
func callerFrom(ctx context.Context) (domain.Account, error) {
	account, ok := ctx.Value(callerKey{}).(domain.Account)
	if !ok || account.IsZero() {
		return "", domain.ErrUnauthenticated
	}
	return account, nil
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.FromContext(r.Context()).Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

type AuthMiddleware struct {
	tokenManager security.TokenManager
}

func NewAuthMiddleware(tm security.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokenManager: tm}
}

// Handler authenticates requests to routes that need an access token and
// puts the token's account on the request context.
func (a *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := ""
		if current := mux.CurrentRoute(r); current != nil {
			route, _ = current.GetPathTemplate()
		}

		if config.GetSecurityLevel(r.Method, route) == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			writeError(w, r, domain.ErrUnauthenticated)
			return
		}
		claims, err := a.tokenManager.ValidateToken(token)
		if err != nil {
			logger.FromContext(r.Context()).Debug("Rejected token", "error", err)
			writeError(w, r, domain.ErrUnauthenticated)
			return
		}

		next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), claims.Account)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	// Remove Bearer prefix if present
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}
