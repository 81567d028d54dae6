package repository

import (
	"context"
	"fmt"

	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
	"github.com/nityanand123gupta/felicity-event-management/internal/repository/dao"
)

var (
	ErrUserEmailExists = dao.ErrUserEmailExists
	ErrUserNotFound    = dao.ErrUserNotFound
)

type UserDAO interface {
	Insert(ctx context.Context, user dao.User) (dao.User, error)
	FindByID(ctx context.Context, id uint) (dao.User, error)
	FindByIDs(ctx context.Context, ids []uint) ([]dao.User, error)
	FindByEmail(ctx context.Context, email string) (dao.User, error)
	CountByRole(ctx context.Context, role string) (int64, error)
	UpdateProfile(ctx context.Context, id uint, name, discordWebhook string) (dao.User, error)
}

type UserRepository struct {
	dao UserDAO
}

func NewUserRepository(dao UserDAO) *UserRepository {
	return &UserRepository{
		dao: dao,
	}
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	created, err := r.dao.Insert(ctx, dao.User{
		Email:          user.Email,
		Password:       user.Password,
		Name:           user.Name,
		Role:           string(user.Role),
		DiscordWebhook: user.DiscordWebhook,
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (domain.User, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

// FindByIDs returns the users keyed by id. Unknown ids are skipped.
func (r *UserRepository) FindByIDs(ctx context.Context, ids []uint) (map[uint]domain.User, error) {
	found, err := r.dao.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByIDs -> %w", err)
	}

	users := make(map[uint]domain.User, len(found))
	for _, u := range found {
		users[u.ID] = r.daoToDomain(u)
	}

	return users, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	found, err := r.dao.FindByEmail(ctx, email)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.FindByEmail -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *UserRepository) CountByRole(ctx context.Context, role domain.Role) (int, error) {
	count, err := r.dao.CountByRole(ctx, string(role))
	if err != nil {
		return 0, fmt.Errorf("r.dao.CountByRole -> %w", err)
	}

	return int(count), nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id uint, name, discordWebhook string) (domain.User, error) {
	updated, err := r.dao.UpdateProfile(ctx, id, name, discordWebhook)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.UpdateProfile -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *UserRepository) daoToDomain(u dao.User) domain.User {
	return domain.User{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		Role:           domain.Role(u.Role),
		DiscordWebhook: u.DiscordWebhook,
		Password:       u.Password,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}
