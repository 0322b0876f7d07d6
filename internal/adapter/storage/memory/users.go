package memory

import (
	"context"
	"fmt"

	"ecommerce-backend/internal/core/domain"
	"ecommerce-backend/internal/core/ports"

	"github.com/google/uuid"
)

// UserRepo implements ports.UserRepository.
type UserRepo struct {
	s *Store
}

// NewUserRepo creates a UserRepo over s.
func NewUserRepo(s *Store) *UserRepo {
	return &UserRepo{s: s}
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[u.ID]; ok {
		return fmt.Errorf("insert user: %w (users_pkey)", ports.ErrDuplicate)
	}
	for _, existing := range r.s.users {
		if existing.Username == u.Username {
			return fmt.Errorf("insert user: %w (users_username_key)", ports.ErrDuplicate)
		}
		if existing.Email == u.Email {
			return fmt.Errorf("insert user: %w (users_email_key)", ports.ErrDuplicate)
		}
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, nil
}

// Update writes the mutable profile fields.
func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.users[u.ID]
	if !ok {
		return fmt.Errorf("user not found: %s", u.ID)
	}
	stored.FirstName = u.FirstName
	stored.LastName = u.LastName
	stored.PhoneNumber = u.PhoneNumber
	stored.UpdatedAt = u.UpdatedAt
	r.s.users[u.ID] = stored
	return nil
}
