package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("s.ledger.TryReserve -> %w", ErrCapacityExceeded)

	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, KindCapacityExceeded, KindOf(wrapped))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindInvalidInput, KindOf(Invalid("bad")))
}

func TestReasonOf(t *testing.T) {
	assert.Equal(t, "registration limit reached", ReasonOf(fmt.Errorf("x -> %w", ErrCapacityExceeded)))
	assert.Equal(t, "internal server error", ReasonOf(errors.New("pq: connection refused")))
	assert.Equal(t, "internal server error", ReasonOf(NewError(KindInternal, "leaky detail")))
}
