package repository

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/maynagashev/roomkeeper/internal/models"
	"github.com/maynagashev/roomkeeper/internal/storage"
)

// AccountRepository определяет методы для работы с учетными записями.
type AccountRepository interface {
	CreateAccount(ctx context.Context, account models.Account) (string, error)
	GetAccountByUserName(ctx context.Context, userName string) (*models.Account, error)
	GetAccountByID(ctx context.Context, id string) (*models.Account, error)
}

// memoryAccountRepository реализует AccountRepository поверх MemoryStore.
type memoryAccountRepository struct {
	store *storage.MemoryStore[models.Account]
}

// NewMemoryAccountRepository создает репозиторий учетных записей в памяти.
func NewMemoryAccountRepository(store *storage.MemoryStore[models.Account]) AccountRepository {
	return &memoryAccountRepository{store: store}
}

func byUserName(userName string) func(models.Account) bool {
	return func(a models.Account) bool {
		return a.UserName == userName
	}
}

// CreateAccount сохраняет учетную запись, если имя пользователя еще свободно.
// Проверка и вставка выполняются под одной блокировкой хранилища.
func (r *memoryAccountRepository) CreateAccount(ctx context.Context, account models.Account) (string, error) {
	id, err := r.store.InsertUnique(ctx, account, byUserName(account.UserName))
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			log.Printf("[Repo] Ошибка создания учетной записи: имя '%s' уже занято", account.UserName)
			return "", ErrUsernameTaken
		}
		log.Printf("[Repo] Непредвиденная ошибка при создании учетной записи '%s': %v", account.UserName, err)
		return "", fmt.Errorf("ошибка создания учетной записи: %w", err)
	}

	log.Printf("[Repo] Учетная запись '%s' создана с ID %s", account.UserName, id)
	return id, nil
}

// GetAccountByUserName находит учетную запись по имени пользователя.
func (r *memoryAccountRepository) GetAccountByUserName(ctx context.Context, userName string) (*models.Account, error) {
	account, err := r.store.Find(ctx, byUserName(userName))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Printf("[Repo] Учетная запись '%s' не найдена", userName)
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка поиска учетной записи: %w", err)
	}
	return &account, nil
}

// GetAccountByID находит учетную запись по ID.
func (r *memoryAccountRepository) GetAccountByID(ctx context.Context, id string) (*models.Account, error) {
	account, err := r.store.GetBy(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка получения учетной записи: %w", err)
	}
	return &account, nil
}
