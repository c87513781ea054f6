package auth

import (
	"context"
	"net/http"

	"github.com/xela07ax/fraudwatch-console/internal/domain"
	"go.uber.org/zap"
)

// TokenValidator — всё, что нужно middleware от сервиса авторизации
type TokenValidator interface {
	VerifyToken(tokenStr string) (*domain.CustomClaims, error)
}

type ctxKey string

const claimsKey ctxKey = "operator_claims"

// NewMiddleware проверяет Bearer токен и кладёт claims оператора в контекст.
func NewMiddleware(v TokenValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := v.VerifyToken(authHeader)
			if err != nil {
				logger.Warn("auth failure", zap.Error(err))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireScope пропускает запрос, только если в токене есть нужный скоуп.
// Без middleware авторизации (auth.enabled=false) claims в контексте нет и проверка не выполняется.
func RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFrom(r.Context())
			if ok && !claims.Scopes[scope] {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithClaims(ctx context.Context, claims *domain.CustomClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func ClaimsFrom(ctx context.Context) (*domain.CustomClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(*domain.CustomClaims)
	return claims, ok && claims != nil
}

// OperatorID возвращает идентификатор оператора для журнала, "anonymous" — если авторизация выключена.
func OperatorID(ctx context.Context) string {
	if claims, ok := ClaimsFrom(ctx); ok && claims.OperatorID != "" {
		return claims.OperatorID
	}
	return "anonymous"
}
