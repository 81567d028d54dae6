package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
	"github.com/nityanand123gupta/felicity-event-management/internal/repository"
)

var (
	ErrUserNotFound = repository.ErrUserNotFound
)

type UserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
	UpdateProfile(ctx context.Context, id uint, name, discordWebhook string) (domain.User, error)
}

type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{
		repo: repo,
	}
}

func (s *UserService) GetUser(ctx context.Context, id uint) (domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return user, nil
}

// UpdateProfile changes the display name and, for organizers, the Discord
// webhook used for publish announcements. Nil fields are left unchanged.
func (s *UserService) UpdateProfile(ctx context.Context, id uint, name, discordWebhook *string) (domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	newName, webhook := user.Name, user.DiscordWebhook
	if name != nil {
		if strings.TrimSpace(*name) == "" {
			return domain.User{}, domain.Invalid("name cannot be empty")
		}
		newName = strings.TrimSpace(*name)
	}
	if discordWebhook != nil {
		if !user.Is(domain.RoleOrganizer) {
			return domain.User{}, domain.Invalid("only organizers can set a discord webhook")
		}
		webhook = strings.TrimSpace(*discordWebhook)
	}

	updated, err := s.repo.UpdateProfile(ctx, id, newName, webhook)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.UpdateProfile -> %w", err)
	}

	return updated, nil
}
