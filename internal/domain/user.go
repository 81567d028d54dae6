package domain

import "time"

type Role string

const (
	RoleParticipant Role = "participant"
	RoleOrganizer   Role = "organizer"
	RoleAdmin       Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleParticipant || r == RoleOrganizer || r == RoleAdmin
}

type User struct {
	ID             uint      `json:"id"`
	Email          string    `json:"email"`
	Password       string    `json:"-"`
	Name           string    `json:"name"`
	Role           Role      `json:"role"`
	DiscordWebhook string    `json:"discord_webhook,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (u User) Is(role Role) bool {
	return u.Role == role
}
