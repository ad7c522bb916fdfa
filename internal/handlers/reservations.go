package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/maynagashev/roomkeeper/internal/middleware"
	"github.com/maynagashev/roomkeeper/internal/models"
	"github.com/maynagashev/roomkeeper/internal/repository"
)

// Тексты ответов обработчика бронирований.
const (
	MsgIncompleteReservation = "Incomplete reservation!"
	MsgMissingID             = "Please provide an ID!"
	MsgNoValidFields         = "Please provide valid fields to update!"
)

// ReservationStore определяет доступ к данным, нужный обработчику бронирований.
type ReservationStore interface {
	CreateReservation(ctx context.Context, reservation models.Reservation) (string, error)
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)
	GetAllReservations(ctx context.Context) ([]models.Reservation, error)
	UpdateReservation(ctx context.Context, id, field, value string) error
	DeleteReservation(ctx context.Context, id string) error
}

// ReservationHandler обрабатывает HTTP-запросы к ресурсу /reservations.
type ReservationHandler struct {
	store ReservationStore
}

// NewReservationHandler создает новый экземпляр ReservationHandler.
func NewReservationHandler(s ReservationStore) *ReservationHandler {
	return &ReservationHandler{store: s}
}

func notFoundMessage(id string) string {
	return fmt.Sprintf("Reservation with id %s not found", id)
}

// requestAccount возвращает ID учетной записи, от имени которой выполняется запрос.
func requestAccount(r *http.Request) string {
	if accountID, ok := middleware.GetAccountIDFromContext(r.Context()); ok {
		return accountID
	}
	return "-"
}

// Create обрабатывает POST /reservations.
// Тело должно содержать ровно поля startDate, endDate, room и user; id игнорируется.
func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	account := requestAccount(r)

	// Декодируем тело запроса
	body, err := decodeObject(w, r)
	if err != nil {
		log.Printf("[ReservationHandler:Create] Ошибка декодирования запроса: %v", err)
		writeMessage(w, http.StatusBadRequest, MsgInvalidBody)
		return
	}

	// Собираем бронирование, проверяя полноту набора полей
	reservation, ok := reservationFromBody(body)
	if !ok {
		log.Printf("[ReservationHandler:Create] Неполное бронирование от %s", account)
		writeMessage(w, http.StatusBadRequest, MsgIncompleteReservation)
		return
	}

	id, err := h.store.CreateReservation(r.Context(), reservation)
	if err != nil {
		log.Printf("[ReservationHandler:Create] Ошибка создания бронирования: %v", err)
		writeMessage(w, http.StatusInternalServerError, MsgInternalError)
		return
	}

	log.Printf("[ReservationHandler:Create] Бронирование %s создано пользователем %s", id, account)
	writeJSON(w, http.StatusCreated, models.CreateReservationResponse{ReservationID: id})
}

// GetAll обрабатывает GET /reservations/all.
func (h *ReservationHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	reservations, err := h.store.GetAllReservations(r.Context())
	if err != nil {
		log.Printf("[ReservationHandler:GetAll] Ошибка получения бронирований: %v", err)
		writeMessage(w, http.StatusInternalServerError, MsgInternalError)
		return
	}
	// Пустой список отдаем как [], а не null
	if reservations == nil {
		reservations = []models.Reservation{}
	}

	writeJSON(w, http.StatusOK, reservations)
}

// Get обрабатывает GET /reservations/{id}.
func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.MissingID(w, r)
		return
	}

	reservation, err := h.store.GetReservation(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, "Get", id, err)
		return
	}

	writeJSON(w, http.StatusOK, reservation)
}

// Update обрабатывает PUT /reservations/{id}.
// Каждое допустимое поле из тела обновляется отдельным вызовом хранилища.
func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.MissingID(w, r)
		return
	}

	// Сначала убеждаемся, что бронирование существует
	if _, err := h.store.GetReservation(r.Context(), id); err != nil {
		h.writeStoreError(w, "Update", id, err)
		return
	}

	body, err := decodeObject(w, r)
	if err != nil {
		log.Printf("[ReservationHandler:Update] Ошибка декодирования запроса: %v", err)
		writeMessage(w, http.StatusBadRequest, MsgInvalidBody)
		return
	}

	// Оставляем только поля бронирования со строковыми значениями
	fields, values := updatableFields(body)
	if len(fields) == 0 {
		log.Printf("[ReservationHandler:Update] Нет допустимых полей для бронирования %s", id)
		writeMessage(w, http.StatusBadRequest, MsgNoValidFields)
		return
	}

	// Обновляем по одному полю за вызов
	for i, field := range fields {
		if err = h.store.UpdateReservation(r.Context(), id, field, values[i]); err != nil {
			h.writeStoreError(w, "Update", id, err)
			return
		}
	}

	log.Printf("[ReservationHandler:Update] Пользователь %s обновил %v бронирования %s", requestAccount(r), fields, id)
	writeMessage(w, http.StatusOK, fmt.Sprintf("Updated %s of reservation %s", strings.Join(fields, ","), id))
}

// Delete обрабатывает DELETE /reservations/{id}.
func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.MissingID(w, r)
		return
	}

	if err := h.store.DeleteReservation(r.Context(), id); err != nil {
		h.writeStoreError(w, "Delete", id, err)
		return
	}

	log.Printf("[ReservationHandler:Delete] Пользователь %s удалил бронирование %s", requestAccount(r), id)
	writeMessage(w, http.StatusOK, fmt.Sprintf("Deleted reservation with id %s", id))
}

// MissingID отвечает на GET, PUT и DELETE /reservations без ID.
func (h *ReservationHandler) MissingID(w http.ResponseWriter, r *http.Request) {
	log.Printf("[ReservationHandler] %s без ID бронирования", r.Method)
	writeMessage(w, http.StatusBadRequest, MsgMissingID)
}

func (h *ReservationHandler) writeStoreError(w http.ResponseWriter, op, id string, err error) {
	if errors.Is(err, repository.ErrReservationNotFound) {
		writeMessage(w, http.StatusNotFound, notFoundMessage(id))
		return
	}
	log.Printf("[ReservationHandler:%s] Внутренняя ошибка для бронирования %s: %v", op, id, err)
	// Детали ошибки наружу не отдаем
	writeMessage(w, http.StatusInternalServerError, MsgInternalError)
}

// reservationFromBody собирает бронирование из тела запроса.
// Любое отсутствующее, лишнее или нестроковое поле делает бронирование неполным.
func reservationFromBody(body map[string]json.RawMessage) (models.Reservation, bool) {
	var reservation models.Reservation
	seen := 0
	for name, raw := range body {
		if name == models.FieldID {
			continue
		}
		if !models.IsReservationField(name) {
			return models.Reservation{}, false
		}
		value, ok := stringValue(raw)
		if !ok {
			return models.Reservation{}, false
		}
		var err error
		if reservation, err = reservation.WithField(name, value); err != nil {
			return models.Reservation{}, false
		}
		seen++
	}
	return reservation, seen == len(models.ReservationFields)
}

// updatableFields возвращает поля тела, которые можно обновить, в каноническом порядке.
// Неизвестные поля, id и нестроковые значения отбрасываются.
func updatableFields(body map[string]json.RawMessage) ([]string, []string) {
	var fields, values []string
	for _, name := range models.ReservationFields {
		raw, ok := body[name]
		if !ok {
			continue
		}
		value, isString := stringValue(raw)
		if !isString {
			continue
		}
		fields = append(fields, name)
		values = append(values, value)
	}
	return fields, values
}

// stringValue декодирует JSON-строку. null, числа и объекты строками не считаются.
func stringValue(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return "", false
	}
	var value string
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return "", false
	}
	return value, true
}
