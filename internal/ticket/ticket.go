// Package ticket issues ticket identifiers and renders them as QR images.
package ticket

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
)

const DefaultPrefix = "TICKET-"

type Issuer struct {
	prefix string
}

func NewIssuer(prefix string) *Issuer {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	return &Issuer{prefix: prefix}
}

// NewTicketID returns a globally unique ticket id.
func (i *Issuer) NewTicketID() string {
	return i.prefix + strings.ToUpper(uuid.NewString())
}

// Renderer encodes a ticket payload as a PNG QR code.
type Renderer struct {
	size  int
	level qrcode.RecoveryLevel
}

func NewRenderer(size int) *Renderer {
	if size <= 0 {
		size = 256
	}

	return &Renderer{size: size, level: qrcode.Medium}
}

func (r *Renderer) Render(payload domain.TicketPayload) ([]byte, error) {
	content, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal -> %w", err)
	}

	png, err := qrcode.Encode(string(content), r.level, r.size)
	if err != nil {
		return nil, fmt.Errorf("qrcode.Encode -> %w", err)
	}

	return png, nil
}
