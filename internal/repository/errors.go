package repository

import "errors"

// Кастомные ошибки репозитория.
var (
	ErrReservationNotFound = errors.New("бронирование не найдено")
	ErrUserNotFound        = errors.New("пользователь не найден")
	ErrUsernameTaken       = errors.New("имя пользователя уже занято")
)
