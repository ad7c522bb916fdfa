// Package seed загружает начальные учетные записи и бронирования из YAML-файла.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/maynagashev/roomkeeper/internal/models"
	"github.com/maynagashev/roomkeeper/internal/services"
	"gopkg.in/yaml.v3"
)

// Account - учетная запись в файле начальных данных.
type Account struct {
	UserName string `yaml:"userName"`
	Password string `yaml:"password"`
}

// Data - содержимое файла начальных данных.
type Data struct {
	Accounts     []Account            `yaml:"accounts"`
	Reservations []models.Reservation `yaml:"reservations"`
}

// Result - сколько записей добавлено и пропущено.
type Result struct {
	Accounts     int
	Reservations int
	Skipped      int
}

// Registrar регистрирует учетные записи.
type Registrar interface {
	RegisterUser(ctx context.Context, userName, password string) (string, error)
}

// ReservationCreator создает бронирования.
type ReservationCreator interface {
	CreateReservation(ctx context.Context, reservation models.Reservation) (string, error)
}

// LoadFile читает и разбирает YAML-файл.
func LoadFile(path string) (*Data, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла %s: %w", path, err)
	}
	return Parse(b)
}

// Parse разбирает YAML с начальными данными.
func Parse(b []byte) (*Data, error) {
	var data Data
	if err := yaml.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("ошибка разбора YAML: %w", err)
	}
	return &data, nil
}

// Apply регистрирует учетные записи и создает бронирования.
// Неполные записи и уже занятые имена пропускаются с записью в лог.
func Apply(ctx context.Context, registrar Registrar, creator ReservationCreator, data *Data) (Result, error) {
	var res Result
	if data == nil {
		return res, nil
	}

	for _, a := range data.Accounts {
		if a.UserName == "" || a.Password == "" {
			log.Printf("[Seed] Пропуск неполной учетной записи: %q", a.UserName)
			res.Skipped++
			continue
		}
		if _, err := registrar.RegisterUser(ctx, a.UserName, a.Password); err != nil {
			if errors.Is(err, services.ErrUsernameTaken) {
				log.Printf("[Seed] Пропуск учетной записи '%s': %v", a.UserName, err)
				res.Skipped++
				continue
			}
			return res, fmt.Errorf("ошибка регистрации '%s': %w", a.UserName, err)
		}
		res.Accounts++
	}

	for i, r := range data.Reservations {
		if r.StartDate == "" || r.EndDate == "" || r.Room == "" || r.User == "" {
			log.Printf("[Seed] Пропуск неполного бронирования #%d", i+1)
			res.Skipped++
			continue
		}
		if _, err := creator.CreateReservation(ctx, r); err != nil {
			return res, fmt.Errorf("ошибка создания бронирования #%d: %w", i+1, err)
		}
		res.Reservations++
	}

	log.Printf("[Seed] Загружено учетных записей: %d, бронирований: %d, пропущено: %d",
		res.Accounts, res.Reservations, res.Skipped)
	return res, nil
}
