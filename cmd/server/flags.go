package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
)

const (
	defaultServerPort = "8080"

	// Переменные окружения.
	envServerPort  = "SERVER_PORT"
	envTLSCertFile = "TLS_CERT_FILE"
	envTLSKeyFile  = "TLS_KEY_FILE"
	envTokenSecret = "TOKEN_SECRET" //nolint:gosec // Это имя переменной окружения, а не секрет
	envSeedFile    = "SEED_FILE"
)

// config хранит конфигурацию сервера.
type config struct {
	Port        string
	CertFile    string
	KeyFile     string
	TokenSecret string
	SeedFile    string
}

// parseFlags разбирает флаги и переменные окружения, возвращает config или ошибку.
// Флаги имеют приоритет над переменными окружения.
func parseFlags() (*config, error) {
	cfg := &config{}

	flag.StringVar(&cfg.Port, "port", "",
		fmt.Sprintf("Порт для запуска сервера (env: %s, default: %s)", envServerPort, defaultServerPort))
	flag.StringVar(&cfg.CertFile, "cert-file", "",
		fmt.Sprintf("Путь к файлу TLS-сертификата, без него сервер работает по HTTP (env: %s)", envTLSCertFile))
	flag.StringVar(&cfg.KeyFile, "key-file", "",
		fmt.Sprintf("Путь к файлу TLS-ключа (env: %s)", envTLSKeyFile))
	flag.StringVar(&cfg.TokenSecret, "token-secret", "",
		fmt.Sprintf("Ключ подписи токенов, по умолчанию случайный (env: %s)", envTokenSecret))
	flag.StringVar(&cfg.SeedFile, "seed-file", "",
		fmt.Sprintf("YAML-файл с начальными учетными записями и бронированиями (env: %s)", envSeedFile))

	flag.Parse()

	if cfg.Port == "" {
		cfg.Port = lookupEnv(envServerPort, defaultServerPort)
	}
	if cfg.CertFile == "" {
		cfg.CertFile = lookupEnv(envTLSCertFile, "")
	}
	if cfg.KeyFile == "" {
		cfg.KeyFile = lookupEnv(envTLSKeyFile, "")
	}
	if cfg.TokenSecret == "" {
		cfg.TokenSecret = lookupEnv(envTokenSecret, "")
	}
	if cfg.SeedFile == "" {
		cfg.SeedFile = lookupEnv(envSeedFile, "")
	}

	// Сертификат и ключ задаются только вместе
	if (cfg.CertFile == "") != (cfg.KeyFile == "") {
		return nil, errors.New("сертификат и ключ TLS нужно указывать вместе (--cert-file и --key-file)")
	}

	return cfg, nil
}

func lookupEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
