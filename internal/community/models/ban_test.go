package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "agora/pkg/domain"
	dErrors "agora/pkg/domain-errors"
)

func newTestBan(t *testing.T, d *time.Duration, now time.Time) *Ban {
	t.Helper()
	b, err := NewBan(id.NewBanID(), id.NewCommunityID(), id.NewMemberID(), id.NewMemberID(), "spam", d, now)
	require.NoError(t, err)
	return b
}

func TestNewBan(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	t.Run("nil duration is permanent", func(t *testing.T) {
		b := newTestBan(t, nil, now)
		assert.True(t, b.IsPermanent())
		assert.True(t, b.IsActive(now.AddDate(10, 0, 0)))
	})

	t.Run("temporary ban expires at bannedAt plus duration", func(t *testing.T) {
		d := 24 * time.Hour
		b := newTestBan(t, &d, now)
		require.NotNil(t, b.ExpiresAt)
		assert.Equal(t, now.Add(d), *b.ExpiresAt)
	})

	t.Run("non-positive duration is rejected", func(t *testing.T) {
		for _, d := range []time.Duration{0, -time.Second} {
			_, err := NewBan(id.NewBanID(), id.NewCommunityID(), id.NewMemberID(), id.NewMemberID(), "spam", &d, now)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		}
	})
}

func TestBanActivity(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	d := time.Hour

	t.Run("expired ban is inactive even when never lifted", func(t *testing.T) {
		b := newTestBan(t, &d, now)
		assert.True(t, b.IsActive(now.Add(59*time.Minute)))
		assert.False(t, b.IsActive(now.Add(time.Hour)))
		assert.Nil(t, b.LiftedAt)
	})

	t.Run("lifted ban is inactive regardless of expiry", func(t *testing.T) {
		b := newTestBan(t, nil, now)
		liftedBy := id.NewMemberID()
		assert.True(t, b.Lift(liftedBy, now))
		assert.False(t, b.IsActive(now))
		assert.Equal(t, liftedBy, *b.LiftedBy)
	})

	t.Run("lift is idempotent", func(t *testing.T) {
		b := newTestBan(t, &d, now)
		first := id.NewMemberID()
		require.True(t, b.Lift(first, now))
		assert.False(t, b.Lift(id.NewMemberID(), now.Add(time.Minute)))
		assert.Equal(t, first, *b.LiftedBy)
		assert.Equal(t, now, *b.LiftedAt)
	})

	t.Run("lifting an expired ban changes nothing", func(t *testing.T) {
		b := newTestBan(t, &d, now)
		assert.False(t, b.Lift(id.NewMemberID(), now.Add(2*time.Hour)))
		assert.Nil(t, b.LiftedAt)
	})
}

func TestBanExtend(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	d := time.Hour

	t.Run("extends temporary ban", func(t *testing.T) {
		b := newTestBan(t, &d, now)
		require.NoError(t, b.Extend(30*time.Minute, now))
		assert.Equal(t, now.Add(90*time.Minute), *b.ExpiresAt)
	})

	t.Run("permanent ban cannot be extended", func(t *testing.T) {
		b := newTestBan(t, nil, now)
		err := b.Extend(time.Hour, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeStatusTransitionForbidden))
		assert.Nil(t, b.ExpiresAt)
	})

	t.Run("lifted ban cannot be extended", func(t *testing.T) {
		b := newTestBan(t, &d, now)
		b.Lift(id.NewMemberID(), now)
		assert.True(t, dErrors.HasCode(b.Extend(time.Hour, now), dErrors.CodeStatusTransitionForbidden))
	})

	t.Run("extension must be positive", func(t *testing.T) {
		b := newTestBan(t, &d, now)
		assert.True(t, dErrors.HasCode(b.Extend(0, now), dErrors.CodeValidation))
	})
}

func TestBanReason(t *testing.T) {
	r, err := NewBanReason("  repeated spam  ")
	require.NoError(t, err)
	assert.Equal(t, BanReason("repeated spam"), r)

	_, err = NewBanReason(" ")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = NewBanReason(strings.Repeat("é", MaxBanReasonLength))
	assert.NoError(t, err)
	_, err = NewBanReason(strings.Repeat("é", MaxBanReasonLength+1))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestCommunityNameKey(t *testing.T) {
	k, err := NewCommunityNameKey(" GoLang_Users ")
	require.NoError(t, err)
	assert.Equal(t, CommunityNameKey("golang_users"), k)

	for _, bad := range []string{"ab", "_lead", "has space", "emoji🙂", strings.Repeat("a", 33)} {
		_, err := NewCommunityNameKey(bad)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), bad)
	}

	c, err := NewCommunity(id.NewCommunityID(), k, "", "", id.NewMemberID(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, "golang_users", c.DisplayName)
}
