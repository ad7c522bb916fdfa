package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maynagashev/roomkeeper/internal/seed"
	"github.com/maynagashev/roomkeeper/internal/server"
)

const (
	shutdownTimeout = 10 * time.Second
	secretLength    = 32
)

// main - точка входа. Вызывает run и обрабатывает ошибку.
func main() {
	cfg, err := parseFlags()
	if err != nil {
		log.Printf("Ошибка конфигурации: %v", err)
		os.Exit(1)
	}
	if err = run(cfg); err != nil {
		log.Printf("Ошибка выполнения сервера: %v", err)
		os.Exit(1)
	}
}

// run запускает сервер и ждет сигнала остановки или ошибки сервера.
func run(cfg *config) error {
	log.Println("Запуск сервера бронирований...")

	srv, err := newServer(cfg)
	if err != nil {
		return err
	}

	if err = srv.Start(); err != nil {
		return fmt.Errorf("ошибка запуска сервера: %w", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("Получен сигнал %s", sig)
	case serveErr := <-srv.Errors():
		if serveErr != nil {
			return fmt.Errorf("ошибка работы сервера: %w", serveErr)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Stop(ctx)
}

// newServer создает сервер по конфигурации и загружает начальные данные, если они заданы.
func newServer(cfg *config) (*server.Server, error) {
	secret, err := tokenSecret(cfg.TokenSecret)
	if err != nil {
		return nil, err
	}

	srv := server.New(server.Config{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		CertFile:    cfg.CertFile,
		KeyFile:     cfg.KeyFile,
		TokenSecret: secret,
	})

	if cfg.SeedFile != "" {
		data, loadErr := seed.LoadFile(cfg.SeedFile)
		if loadErr != nil {
			return nil, fmt.Errorf("ошибка загрузки начальных данных: %w", loadErr)
		}
		if _, loadErr = seed.Apply(context.Background(), srv.Authorizer(), srv.Reservations(), data); loadErr != nil {
			return nil, fmt.Errorf("ошибка применения начальных данных: %w", loadErr)
		}
	}
	return srv, nil
}

// tokenSecret возвращает заданный ключ или генерирует случайный.
func tokenSecret(configured string) ([]byte, error) {
	if configured != "" {
		return []byte(configured), nil
	}
	log.Println("Ключ подписи токенов не задан, используется случайный")
	secret := make([]byte, secretLength)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("ошибка генерации ключа подписи: %w", err)
	}
	return secret, nil
}
