// Package server собирает обработчики, сервис аутентификации и хранилища в HTTP-сервер.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/maynagashev/roomkeeper/internal/handlers"
	appmiddleware "github.com/maynagashev/roomkeeper/internal/middleware"
	"github.com/maynagashev/roomkeeper/internal/models"
	"github.com/maynagashev/roomkeeper/internal/repository"
	"github.com/maynagashev/roomkeeper/internal/services"
	"github.com/maynagashev/roomkeeper/internal/storage"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 10 * time.Second
	defaultIdleTimeout  = 30 * time.Second
)

// Config хранит параметры HTTP-сервера.
type Config struct {
	Addr        string // Адрес для прослушивания, например ":8080"
	CertFile    string // TLS включается, только если заданы и сертификат, и ключ
	KeyFile     string
	TokenSecret []byte // Ключ подписи токенов

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// TLSEnabled сообщает, задана ли пара сертификат/ключ.
func (c Config) TLSEnabled() bool {
	return c.CertFile != "" && c.KeyFile != ""
}

// Server владеет сервисом аутентификации и хранилищами на все время своей жизни.
type Server struct {
	cfg Config

	accountStore     *storage.MemoryStore[models.Account]
	reservationStore *storage.MemoryStore[models.Reservation]
	auth             services.AuthService
	reservations     repository.ReservationRepository
	router           chi.Router

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	errs       chan error
}

// New создает сервер и все его зависимости. Listener не открывается до Start.
func New(cfg Config) *Server {
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}

	s := &Server{
		cfg:              cfg,
		accountStore:     storage.NewMemoryStore[models.Account](),
		reservationStore: storage.NewMemoryStore[models.Reservation](),
		errs:             make(chan error, 1),
	}
	s.auth = services.NewAuthService(repository.NewMemoryAccountRepository(s.accountStore), cfg.TokenSecret)
	s.reservations = repository.NewMemoryReservationRepository(s.reservationStore)

	s.router = setupRouter(
		handlers.NewAuthHandler(s.auth),
		handlers.NewReservationHandler(s.reservations),
		s.auth,
	)
	return s
}

// Handler возвращает корневой HTTP-обработчик.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Authorizer возвращает сервис аутентификации сервера.
func (s *Server) Authorizer() services.AuthService {
	return s.auth
}

// Reservations возвращает репозиторий бронирований сервера.
func (s *Server) Reservations() repository.ReservationRepository {
	return s.reservations
}

// Start открывает listener и начинает обслуживать запросы в фоне.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer != nil {
		return ErrAlreadyStarted
	}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("ошибка открытия порта %s: %w", s.cfg.Addr, err)
	}

	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}
	s.httpServer = srv
	s.listener = ln

	go func() {
		var serveErr error
		if s.cfg.TLSEnabled() {
			log.Printf("[Server] Запуск HTTPS-сервера на %s", ln.Addr())
			serveErr = srv.ServeTLS(ln, s.cfg.CertFile, s.cfg.KeyFile)
		} else {
			log.Printf("[Server] Запуск HTTP-сервера на %s", ln.Addr())
			serveErr = srv.Serve(ln)
		}
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			log.Printf("[Server] Ошибка работы сервера: %v", serveErr)
			s.errs <- serveErr
		}
		close(s.errs)
	}()
	return nil
}

// Addr возвращает фактический адрес listener или пустую строку, если сервер не запущен.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Errors возвращает канал, в который попадает ошибка работы сервера.
// Канал закрывается после остановки сервера.
func (s *Server) Errors() <-chan error {
	return s.errs
}

// Stop останавливает сервер, дожидаясь завершения активных запросов,
// и освобождает выданные токены и данные хранилищ.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	if srv == nil {
		return ErrNotStarted
	}

	log.Println("[Server] Остановка сервера...")
	err := srv.Shutdown(ctx)

	s.auth.Close()
	s.accountStore.Clear()
	s.reservationStore.Clear()

	if err != nil {
		return fmt.Errorf("ошибка остановки сервера: %w", err)
	}
	log.Println("[Server] Сервер остановлен")
	return nil
}

// setupRouter настраивает и возвращает роутер chi.
func setupRouter(
	authHandler *handlers.AuthHandler,
	reservationHandler *handlers.ReservationHandler,
	validator appmiddleware.TokenValidator,
) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.UnsupportedMethod)

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong\n"))
	})

	// Публичные маршруты
	r.Post("/register", authHandler.Register)
	r.Post("/login", authHandler.Login)

	// Бронирования требуют токен; проверка идет до выбора маршрута внутри группы
	r.Route("/reservations", func(r chi.Router) {
		r.Use(appmiddleware.Authenticator(validator))
		r.NotFound(handlers.NotFound)
		r.MethodNotAllowed(handlers.UnsupportedMethod)

		r.Post("/", reservationHandler.Create)
		r.Get("/", reservationHandler.MissingID)
		r.Put("/", reservationHandler.MissingID)
		r.Delete("/", reservationHandler.MissingID)
		r.Get("/all", reservationHandler.GetAll)
		r.Get("/{id}", reservationHandler.Get)
		r.Put("/{id}", reservationHandler.Update)
		r.Delete("/{id}", reservationHandler.Delete)
	})
	return r
}

// Ошибки жизненного цикла сервера.
var (
	ErrAlreadyStarted = errors.New("сервер уже запущен")
	ErrNotStarted     = errors.New("сервер не запущен")
)
