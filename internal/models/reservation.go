package models

import "errors"

// Имена полей бронирования в JSON.
const (
	FieldID        = "id"
	FieldStartDate = "startDate"
	FieldEndDate   = "endDate"
	FieldRoom      = "room"
	FieldUser      = "user"
)

// ReservationFields - поля бронирования, которые задает клиент, в каноническом порядке.
// ID сюда не входит: он назначается хранилищем.
var ReservationFields = []string{FieldStartDate, FieldEndDate, FieldRoom, FieldUser}

// ErrUnknownField возвращается при попытке изменить несуществующее поле записи.
var ErrUnknownField = errors.New("unknown field")

// Reservation представляет бронирование комнаты.
type Reservation struct {
	ID        string `json:"id" yaml:"id"`
	StartDate string `json:"startDate" yaml:"startDate"`
	EndDate   string `json:"endDate" yaml:"endDate"`
	Room      string `json:"room" yaml:"room"`
	User      string `json:"user" yaml:"user"`
}

// IsReservationField сообщает, является ли name изменяемым полем бронирования.
func IsReservationField(name string) bool {
	for _, f := range ReservationFields {
		if f == name {
			return true
		}
	}
	return false
}

// WithID возвращает копию бронирования с назначенным ID.
func (r Reservation) WithID(id string) Reservation {
	r.ID = id
	return r
}

// WithField возвращает копию бронирования с одним измененным полем.
func (r Reservation) WithField(name, value string) (Reservation, error) {
	switch name {
	case FieldStartDate:
		r.StartDate = value
	case FieldEndDate:
		r.EndDate = value
	case FieldRoom:
		r.Room = value
	case FieldUser:
		r.User = value
	default:
		return r, ErrUnknownField
	}
	return r, nil
}

// CreateReservationResponse представляет тело ответа на создание бронирования.
type CreateReservationResponse struct {
	ReservationID string `json:"reservationId"`
}
