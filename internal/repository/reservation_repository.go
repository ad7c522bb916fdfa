package repository

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/maynagashev/roomkeeper/internal/models"
	"github.com/maynagashev/roomkeeper/internal/storage"
)

// ReservationRepository определяет методы для работы с бронированиями.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation models.Reservation) (string, error)
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)
	GetAllReservations(ctx context.Context) ([]models.Reservation, error)
	UpdateReservation(ctx context.Context, id, field, value string) error
	DeleteReservation(ctx context.Context, id string) error
}

// memoryReservationRepository реализует ReservationRepository поверх MemoryStore.
type memoryReservationRepository struct {
	store *storage.MemoryStore[models.Reservation]
}

// NewMemoryReservationRepository создает репозиторий бронирований в памяти.
func NewMemoryReservationRepository(store *storage.MemoryStore[models.Reservation]) ReservationRepository {
	return &memoryReservationRepository{store: store}
}

// CreateReservation сохраняет бронирование и возвращает назначенный ID.
func (r *memoryReservationRepository) CreateReservation(
	ctx context.Context,
	reservation models.Reservation,
) (string, error) {
	id, err := r.store.Insert(ctx, reservation)
	if err != nil {
		log.Printf("[Repo] Ошибка создания бронирования комнаты '%s': %v", reservation.Room, err)
		return "", fmt.Errorf("ошибка создания бронирования: %w", err)
	}

	log.Printf("[Repo] Бронирование %s создано (комната '%s')", id, reservation.Room)
	return id, nil
}

// GetReservation находит бронирование по ID.
func (r *memoryReservationRepository) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	reservation, err := r.store.GetBy(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Printf("[Repo] Бронирование %s не найдено", id)
			return nil, ErrReservationNotFound
		}
		log.Printf("[Repo] Ошибка при поиске бронирования %s: %v", id, err)
		return nil, fmt.Errorf("ошибка получения бронирования: %w", err)
	}
	return &reservation, nil
}

// GetAllReservations возвращает все бронирования.
func (r *memoryReservationRepository) GetAllReservations(ctx context.Context) ([]models.Reservation, error) {
	reservations, err := r.store.GetAll(ctx)
	if err != nil {
		log.Printf("[Repo] Ошибка получения списка бронирований: %v", err)
		return nil, fmt.Errorf("ошибка получения списка бронирований: %w", err)
	}
	return reservations, nil
}

// UpdateReservation меняет одно поле бронирования.
func (r *memoryReservationRepository) UpdateReservation(ctx context.Context, id, field, value string) error {
	if err := r.store.Update(ctx, id, field, value); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Printf("[Repo] Обновление: бронирование %s не найдено", id)
			return ErrReservationNotFound
		}
		log.Printf("[Repo] Ошибка обновления поля '%s' бронирования %s: %v", field, id, err)
		return fmt.Errorf("ошибка обновления бронирования: %w", err)
	}

	log.Printf("[Repo] Поле '%s' бронирования %s обновлено", field, id)
	return nil
}

// DeleteReservation удаляет бронирование.
func (r *memoryReservationRepository) DeleteReservation(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Printf("[Repo] Удаление: бронирование %s не найдено", id)
			return ErrReservationNotFound
		}
		log.Printf("[Repo] Ошибка удаления бронирования %s: %v", id, err)
		return fmt.Errorf("ошибка удаления бронирования: %w", err)
	}

	log.Printf("[Repo] Бронирование %s удалено", id)
	return nil
}
