package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/maynagashev/roomkeeper/internal/services"
)

// Тип для ключа контекста.
type contextKey string

// AccountIDKey - ключ для хранения ID учетной записи в контексте.
const AccountIDKey contextKey = "accountID"

// MsgUnauthorized - тело ответа при отказе в доступе.
const MsgUnauthorized = "Unauthorized!"

// TokenValidator проверяет токены доступа.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) services.TokenState
}

// Authenticator проверяет токен из заголовка Authorization.
// Заголовок содержит либо сам токен, либо "Bearer <токен>".
func Authenticator(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromHeader(r.Header.Get("Authorization"))
			if token == "" {
				log.Printf("[AuthMiddleware] Токен отсутствует: %s %s", r.Method, r.URL.Path)
				unauthorized(w)
				return
			}

			state := validator.ValidateToken(r.Context(), token)
			if !state.Valid {
				log.Printf("[AuthMiddleware] Невалидный токен: %s %s", r.Method, r.URL.Path)
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), AccountIDKey, state.AccountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAccountIDFromContext извлекает ID учетной записи из контекста запроса.
func GetAccountIDFromContext(ctx context.Context) (string, bool) {
	accountID, ok := ctx.Value(AccountIDKey).(string)
	return accountID, ok
}

func tokenFromHeader(header string) string {
	header = strings.TrimSpace(header)
	parts := strings.Fields(header)
	switch {
	case len(parts) == 1 && !strings.EqualFold(parts[0], "bearer"):
		return parts[0]
	case len(parts) == 2 && strings.EqualFold(parts[0], "bearer"):
		return parts[1]
	default:
		return ""
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	if err := json.NewEncoder(w).Encode(MsgUnauthorized); err != nil {
		log.Printf("[AuthMiddleware] Ошибка записи ответа: %v", err)
	}
}
