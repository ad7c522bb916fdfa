package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/maynagashev/roomkeeper/internal/models"
	"github.com/maynagashev/roomkeeper/internal/services"
)

// Тексты ответов обработчика аутентификации.
const (
	MsgEmptyCredentials   = "User name and password must not be empty!"
	MsgUsernameTaken      = "User name already taken!"
	MsgInvalidCredentials = "Wrong user name or password!"
)

// AuthService определяет интерфейс сервиса аутентификации, нужный обработчику.
// Это позволяет легко подменять реализацию в тестах.
type AuthService interface {
	RegisterUser(ctx context.Context, userName, password string) (string, error)
	Login(ctx context.Context, userName, password string) (string, error)
}

// AuthHandler обрабатывает регистрацию и вход.
type AuthHandler struct {
	service AuthService
}

// NewAuthHandler создает новый экземпляр AuthHandler.
func NewAuthHandler(s AuthService) *AuthHandler {
	return &AuthHandler{service: s}
}

// Register обрабатывает POST /register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	creds, ok := decodeCredentials(w, r, "Register")
	if !ok {
		return
	}

	// Базовая валидация
	if creds.UserName == "" || creds.Password == "" {
		log.Printf("[AuthHandler:Register] Пустое имя пользователя или пароль")
		writeMessage(w, http.StatusBadRequest, MsgEmptyCredentials)
		return
	}

	log.Printf("[AuthHandler] Попытка регистрации пользователя: %s", creds.UserName)

	// Вызываем сервис регистрации
	id, err := h.service.RegisterUser(r.Context(), creds.UserName, creds.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUsernameTaken):
			writeMessage(w, http.StatusConflict, MsgUsernameTaken)
		case errors.Is(err, services.ErrEmptyCredentials):
			writeMessage(w, http.StatusBadRequest, MsgEmptyCredentials)
		default:
			log.Printf("[AuthHandler] Внутренняя ошибка при регистрации '%s': %v", creds.UserName, err)
			writeMessage(w, http.StatusInternalServerError, MsgInternalError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, models.RegisterResponse{UserID: id})
}

// Login обрабатывает POST /login. Успешный вход отвечает 201: создается новый токен.
// Пустые имя или пароль считаются неудачной попыткой входа.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	creds, ok := decodeCredentials(w, r, "Login")
	if !ok {
		return
	}

	if creds.UserName == "" || creds.Password == "" {
		log.Printf("[AuthHandler:Login] Пустое имя пользователя или пароль")
		writeMessage(w, http.StatusUnauthorized, MsgInvalidCredentials)
		return
	}

	log.Printf("[AuthHandler] Попытка входа пользователя: %s", creds.UserName)

	// Вызываем сервис входа, он же выдает токен
	token, err := h.service.Login(r.Context(), creds.UserName, creds.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeMessage(w, http.StatusUnauthorized, MsgInvalidCredentials)
		} else {
			log.Printf("[AuthHandler] Внутренняя ошибка при входе '%s': %v", creds.UserName, err)
			writeMessage(w, http.StatusInternalServerError, MsgInternalError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, models.LoginResponse{Token: token})
}

func decodeCredentials(w http.ResponseWriter, r *http.Request, op string) (models.Credentials, bool) {
	var creds models.Credentials
	if err := decodeJSON(w, r, &creds); err != nil {
		log.Printf("[AuthHandler:%s] Ошибка декодирования запроса: %v", op, err)
		writeMessage(w, http.StatusBadRequest, MsgInvalidBody)
		return creds, false
	}
	return creds, true
}
