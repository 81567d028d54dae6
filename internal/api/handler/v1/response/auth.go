package response

import "github.com/nityanand123gupta/felicity-event-management/internal/domain"

type LoginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}
