package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

type UpdateProfileRequest struct {
	Name           *string `json:"name"`
	DiscordWebhook *string `json:"discord_webhook"`
}

func (req *UpdateProfileRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&req.DiscordWebhook, is.URL),
	)
}
