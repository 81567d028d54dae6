package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
	"github.com/nityanand123gupta/felicity-event-management/internal/repository"
)

var (
	ErrUserEmailExists = repository.ErrUserEmailExists
	ErrWrongPassword   = domain.ErrWrongCredentials

	errAdminEmailTaken = domain.NewError(domain.KindConflict, "admin email belongs to a non-admin account")
)

type AuthUserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	CountByRole(ctx context.Context, role domain.Role) (int, error)
}

type AuthService struct {
	repo AuthUserRepository
}

func NewAuthService(repo AuthUserRepository) *AuthService {
	return &AuthService{
		repo: repo,
	}
}

// Signup creates a participant or organizer. Admin accounts are never created
// through signup.
func (s *AuthService) Signup(ctx context.Context, user domain.User) (domain.User, error) {
	if user.Role != domain.RoleParticipant && user.Role != domain.RoleOrganizer {
		return domain.User{}, domain.Invalid("role must be participant or organizer")
	}

	hash, err := hashPassword(user.Password)
	if err != nil {
		return domain.User{}, err
	}
	user.Password = hash

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

// EnsureAdmin creates the admin account when the platform has none yet. It
// reports whether an account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	count, err := s.repo.CountByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("s.repo.CountByRole -> %w", err)
	}
	if count > 0 {
		return false, nil
	}
	if email == "" || password == "" {
		return false, domain.Invalid("admin email and password are required to create the admin account")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return false, err
	}

	_, err = s.repo.Create(ctx, domain.User{
		Email:    email,
		Password: hash,
		Name:     "Admin",
		Role:     domain.RoleAdmin,
	})
	if errors.Is(err, repository.ErrUserEmailExists) {
		// Another instance may have won the race on first boot.
		existing, findErr := s.repo.FindByEmail(ctx, email)
		if findErr != nil {
			return false, fmt.Errorf("s.repo.FindByEmail -> %w", findErr)
		}
		if existing.Role != domain.RoleAdmin {
			return false, errAdminEmailTaken
		}

		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return true, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domain.User{}, ErrWrongPassword
		}

		return domain.User{}, fmt.Errorf("s.repo.FindByEmail -> %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return domain.User{}, ErrWrongPassword
	}

	return user, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}
