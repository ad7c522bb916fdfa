package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/maynagashev/roomkeeper/internal/models"
	"github.com/maynagashev/roomkeeper/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// AuthService определяет интерфейс сервиса аутентификации (Authorizer).
type AuthService interface {
	RegisterUser(ctx context.Context, userName, password string) (string, error) // Возвращает ID учетной записи
	Login(ctx context.Context, userName, password string) (string, error)        // Возвращает токен
	ValidateToken(ctx context.Context, token string) TokenState
	Close()
}

// TokenState - результат проверки токена.
type TokenState struct {
	Valid     bool
	AccountID string
}

const tokenIssuer = "roomkeeper-server"

// Структура для пользовательских данных в токене (claims).
// Срок жизни не задается: токен живет, пока его помнит сервис.
type tokenClaims struct {
	AccountID string `json:"account_id"`
	jwt.RegisteredClaims
}

// Убедимся, что authService удовлетворяет интерфейсу AuthService.
var _ AuthService = (*authService)(nil)

type authService struct {
	accounts repository.AccountRepository
	secret   []byte

	mu     sync.RWMutex
	tokens map[string]string // токен -> ID учетной записи
}

// NewAuthService создает новый экземпляр сервиса аутентификации.
func NewAuthService(accounts repository.AccountRepository, secret []byte) AuthService {
	return &authService{
		accounts: accounts,
		secret:   secret,
		tokens:   make(map[string]string),
	}
}

// RegisterUser регистрирует новую учетную запись.
func (s *authService) RegisterUser(ctx context.Context, userName, password string) (string, error) {
	if userName == "" || password == "" {
		return "", ErrEmptyCredentials
	}

	// Хешируем пароль
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[AuthService] Ошибка хеширования пароля для '%s': %v", userName, err)
		return "", fmt.Errorf("ошибка хеширования пароля: %w", err)
	}

	// Сохраняем учетную запись, репозиторий проверит уникальность имени
	id, err := s.accounts.CreateAccount(ctx, models.Account{
		UserName:     userName,
		PasswordHash: string(hashedPassword),
	})
	if err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			log.Printf("[AuthService] Попытка регистрации с занятым именем: %s", userName)
			return "", ErrUsernameTaken
		}
		log.Printf("[AuthService] Непредвиденная ошибка репозитория при регистрации '%s': %v", userName, err)
		return "", fmt.Errorf("ошибка создания учетной записи: %w", err)
	}

	log.Printf("[AuthService] Пользователь '%s' успешно зарегистрирован", userName)
	return id, nil
}

// Login проверяет имя и пароль и выдает новый токен.
func (s *authService) Login(ctx context.Context, userName, password string) (string, error) {
	// Ищем учетную запись по имени
	account, err := s.accounts.GetAccountByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			log.Printf("[AuthService] Попытка входа несуществующего пользователя: %s", userName)
			return "", ErrInvalidCredentials
		}
		log.Printf("[AuthService] Ошибка репозитория при поиске '%s': %v", userName, err)
		return "", fmt.Errorf("ошибка поиска учетной записи: %w", err)
	}

	// Сравниваем хеш пароля
	if err = bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		log.Printf("[AuthService] Неверный пароль для пользователя: %s", userName)
		return "", ErrInvalidCredentials
	}

	// Генерируем JWT токен
	token, err := s.issueToken(account.ID)
	if err != nil {
		log.Printf("[AuthService] Ошибка генерации токена для '%s': %v", userName, err)
		return "", err
	}

	// Запоминаем выданный токен
	s.mu.Lock()
	s.tokens[token] = account.ID
	s.mu.Unlock()

	log.Printf("[AuthService] Пользователь '%s' успешно аутентифицирован", userName)
	return token, nil
}

// ValidateToken проверяет подпись токена, то, что он был выдан этим сервисом,
// и что учетная запись владельца все еще существует.
func (s *authService) ValidateToken(ctx context.Context, token string) TokenState {
	if token == "" {
		return TokenState{}
	}

	// Проверяем подпись и издателя
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil || !parsed.Valid {
		log.Printf("[AuthService] Невалидный токен: %v", err)
		return TokenState{}
	}

	// Токен должен быть выдан этим сервисом и тому же пользователю
	s.mu.RLock()
	accountID, issued := s.tokens[token]
	s.mu.RUnlock()

	if !issued || accountID != claims.AccountID {
		log.Printf("[AuthService] Токен не выдавался этим сервером (account %s)", claims.AccountID)
		return TokenState{}
	}

	if _, err = s.accounts.GetAccountByID(ctx, accountID); err != nil {
		log.Printf("[AuthService] Учетная запись токена недоступна (account %s): %v", accountID, err)
		return TokenState{}
	}
	return TokenState{Valid: true, AccountID: accountID}
}

// Close забывает все выданные токены.
func (s *authService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]string)
}

func (s *authService) issueToken(accountID string) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи токена: %w", err)
	}
	return signed, nil
}

// Кастомные ошибки сервиса.
var (
	ErrInvalidCredentials = errors.New("неверное имя пользователя или пароль")
	ErrUsernameTaken      = errors.New("имя пользователя уже занято")
	ErrEmptyCredentials   = errors.New("имя пользователя и пароль не могут быть пустыми")
)
