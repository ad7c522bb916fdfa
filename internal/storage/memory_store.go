package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Record описывает запись, которую умеет хранить MemoryStore.
// Методы работают с копиями, поэтому хранилище никогда не отдает наружу свои значения по ссылке.
type Record[T any] interface {
	WithID(id string) T
	WithField(name, value string) (T, error)
}

// Option настраивает MemoryStore.
type Option func(*options)

type options struct {
	newID func() string
}

// WithIDGenerator подменяет генератор идентификаторов (по умолчанию uuid v4).
func WithIDGenerator(gen func() string) Option {
	return func(o *options) {
		o.newID = gen
	}
}

// MemoryStore - потокобезопасная коллекция записей в памяти с ключом-строкой.
// Порядок вставки сохраняется для GetAll.
type MemoryStore[T Record[T]] struct {
	mu    sync.RWMutex
	items map[string]T
	order []string
	newID func() string
}

// NewMemoryStore создает пустое хранилище.
func NewMemoryStore[T Record[T]](opts ...Option) *MemoryStore[T] {
	o := options{newID: uuid.NewString}
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore[T]{
		items: make(map[string]T),
		newID: o.newID,
	}
}

// Insert сохраняет копию записи под новым идентификатором и возвращает его.
func (s *MemoryStore[T]) Insert(ctx context.Context, record T) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	if _, exists := s.items[id]; exists {
		return "", fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	s.items[id] = record.WithID(id)
	s.order = append(s.order, id)
	return id, nil
}

// GetBy возвращает запись по идентификатору.
func (s *MemoryStore[T]) GetBy(ctx context.Context, id string) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.items[id]
	if !ok {
		return zero, ErrNotFound
	}
	return record, nil
}

// GetAll возвращает снимок всех записей в порядке вставки.
// Пустое хранилище дает пустой срез, а не nil.
func (s *MemoryStore[T]) GetAll(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]T, 0, len(s.order))
	for _, id := range s.order {
		records = append(records, s.items[id])
	}
	return records, nil
}

// Find возвращает первую (в порядке вставки) запись, для которой match вернул true.
func (s *MemoryStore[T]) Find(ctx context.Context, match func(T) bool) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		if record := s.items[id]; match(record) {
			return record, nil
		}
	}
	return zero, ErrNotFound
}

// InsertUnique атомарно проверяет, что ни одна запись не совпадает с conflict, и вставляет record.
func (s *MemoryStore[T]) InsertUnique(ctx context.Context, record T, conflict func(T) bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.order {
		if conflict(s.items[id]) {
			return "", ErrConflict
		}
	}

	id := s.newID()
	if _, exists := s.items[id]; exists {
		return "", fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	s.items[id] = record.WithID(id)
	s.order = append(s.order, id)
	return id, nil
}

// Update меняет одно поле существующей записи. Новых записей не создает.
func (s *MemoryStore[T]) Update(ctx context.Context, id, field, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.items[id]
	if !ok {
		return ErrNotFound
	}
	updated, err := record.WithField(field, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidField, field, err)
	}
	s.items[id] = updated
	return nil
}

// Delete удаляет запись по идентификатору.
func (s *MemoryStore[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len возвращает количество записей.
func (s *MemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Clear удаляет все записи.
func (s *MemoryStore[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]T)
	s.order = nil
}

// Ошибки хранилища.
var (
	ErrNotFound     = errors.New("запись не найдена")
	ErrDuplicateID  = errors.New("идентификатор уже используется")
	ErrConflict     = errors.New("запись конфликтует с существующей")
	ErrInvalidField = errors.New("недопустимое поле")
)
