package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoginLimiter_LocksAfterMaxAttempts(t *testing.T) {
	now := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	l := NewLoginLimiter(DefaultLockout)
	l.now = func() time.Time { return now }

	for i := 4; i >= 1; i-- {
		assert.Equal(t, i, l.Fail("10.0.0.1"))
		assert.Zero(t, l.Locked("10.0.0.1"))
	}
	assert.Equal(t, 0, l.Fail("10.0.0.1"))
	assert.Equal(t, 10*time.Minute, l.Locked("10.0.0.1"))
	assert.Zero(t, l.Locked("10.0.0.2"))

	now = now.Add(10 * time.Minute)
	assert.Zero(t, l.Locked("10.0.0.1"))
}

func TestLoginLimiter_WindowResets(t *testing.T) {
	now := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	l := NewLoginLimiter(LockoutConfig{})
	l.now = func() time.Time { return now }

	l.Fail("ip")
	l.Fail("ip")
	now = now.Add(16 * time.Minute)
	assert.Equal(t, 4, l.Fail("ip"))

	l.Reset("ip")
	assert.Equal(t, 4, l.Fail("ip"))
}
