package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
)

// Лимит размера тела запроса.
const maxBodyBytes = 1 << 20

// Тексты ответов, общие для всех обработчиков.
const (
	MsgInvalidBody       = "Invalid request body!"
	MsgInternalError     = "Internal server error!"
	MsgNotFound          = "Not found!"
	MsgUnsupportedMethod = "Unsupported method!"
)

// writeJSON отправляет v в JSON с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Статус уже отправлен, остается только залогировать
		log.Printf("[Handlers] Ошибка кодирования ответа: %v", err)
	}
}

// writeMessage отправляет строку, закодированную как JSON-строка.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, msg)
}

// errTrailingData - после JSON-значения в теле есть что-то еще.
var errTrailingData = errors.New("лишние данные после JSON-значения")

// decodeJSON читает из тела запроса ровно одно JSON-значение в v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return err
	}

	// Тело должно закончиться сразу после значения
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err != nil {
			return fmt.Errorf("%w: %w", errTrailingData, err)
		}
		return errTrailingData
	}
	return nil
}

// decodeObject читает тело запроса как JSON-объект, сохраняя исходные значения полей.
func decodeObject(w http.ResponseWriter, r *http.Request) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := decodeJSON(w, r, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// NotFound отвечает 404 на неизвестный путь.
func NotFound(w http.ResponseWriter, r *http.Request) {
	log.Printf("[Handlers] Неизвестный путь: %s %s", r.Method, r.URL.Path)
	writeMessage(w, http.StatusNotFound, MsgNotFound)
}

// UnsupportedMethod отвечает 400 на метод, который ресурс не поддерживает.
func UnsupportedMethod(w http.ResponseWriter, r *http.Request) {
	log.Printf("[Handlers] Неподдерживаемый метод: %s %s", r.Method, r.URL.Path)
	writeMessage(w, http.StatusBadRequest, MsgUnsupportedMethod)
}
