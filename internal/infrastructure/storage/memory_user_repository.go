package storage

import (
	"context"
	"sync"

	"card-scanner/internal/domain/entity"
	"card-scanner/internal/domain/port"
)

// MemoryUserRepository in-memory хранилище пользователей.
// Наружу отдаются копии, поэтому вызывающие не делят изменяемое состояние.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[int64]*entity.User
}

// NewMemoryUserRepository создаёт новое in-memory хранилище
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[int64]*entity.User),
	}
}

// Get возвращает пользователя по ID, создаёт нового если не найден
func (r *MemoryUserRepository) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	user, exists := r.users[userID]
	r.mu.RUnlock()

	if exists {
		return user.Clone(), nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Пока ждали блокировку, пользователя мог создать другой обработчик
	if user, exists := r.users[userID]; exists {
		return user.Clone(), nil
	}

	newUser := entity.NewUser(userID, chatID)
	r.users[userID] = newUser

	return newUser.Clone(), nil
}

// Save сохраняет состояние пользователя
func (r *MemoryUserRepository) Save(ctx context.Context, user *entity.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	r.users[user.ID] = user.Clone()
	r.mu.Unlock()

	return nil
}

// UpdateState обновляет состояние пользователя
func (r *MemoryUserRepository) UpdateState(ctx context.Context, userID int64, state entity.FlowState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if user, exists := r.users[userID]; exists {
		user.SetState(state)
	}

	return nil
}

// Проверка реализации интерфейса
var _ port.UserRepository = (*MemoryUserRepository)(nil)
