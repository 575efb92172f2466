package models

import (
	"strings"
	"time"
	"unicode/utf8"

	id "agora/pkg/domain"
	dErrors "agora/pkg/domain-errors"
)

// MaxBanReasonLength is counted in runes.
const MaxBanReasonLength = 512

// BanReason is the moderator-facing explanation recorded with a ban.
type BanReason string

func NewBanReason(s string) (BanReason, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "ban reason is required")
	}
	if utf8.RuneCountInString(s) > MaxBanReasonLength {
		return "", dErrors.New(dErrors.CodeValidation, "ban reason must be at most 512 characters")
	}
	return BanReason(s), nil
}

// Ban restricts one member from creating or editing content in one community.
// Activity is derived from the timestamps and never stored.
//
// Invariants:
//   - active ⇔ LiftedAt == nil && (ExpiresAt == nil || now < ExpiresAt)
//   - ExpiresAt == nil means permanent; otherwise ExpiresAt > BannedAt
//   - LiftedAt and LiftedBy are set together, once
//   - lifted bans are kept for history
type Ban struct {
	ID          id.BanID       `json:"id"`
	CommunityID id.CommunityID `json:"community_id"`
	MemberID    id.MemberID    `json:"banned_member_id"`
	ProcessorID id.MemberID    `json:"processor_id"`
	Reason      BanReason      `json:"reason"`
	BannedAt    time.Time      `json:"banned_at"`
	ExpiresAt   *time.Time     `json:"expires_at,omitempty"`
	LiftedAt    *time.Time     `json:"lifted_at,omitempty"`
	LiftedBy    *id.MemberID   `json:"lifted_by,omitempty"`
	Version     int64          `json:"version"`
}

// NewBan creates a ban. A nil duration makes it permanent; a non-nil duration
// must be strictly positive.
func NewBan(banID id.BanID, communityID id.CommunityID, memberID, processorID id.MemberID, reason BanReason, duration *time.Duration, now time.Time) (*Ban, error) {
	if banID.IsNil() || communityID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "ban and community ids are required")
	}
	if memberID.IsNil() || processorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "banned member and processor are required")
	}
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "ban reason is required")
	}
	b := &Ban{
		ID:          banID,
		CommunityID: communityID,
		MemberID:    memberID,
		ProcessorID: processorID,
		Reason:      reason,
		BannedAt:    now,
	}
	if duration != nil {
		if *duration <= 0 {
			return nil, dErrors.New(dErrors.CodeValidation, "ban duration must be positive")
		}
		expires := now.Add(*duration)
		b.ExpiresAt = &expires
	}
	return b, nil
}

func (b *Ban) IsPermanent() bool { return b.ExpiresAt == nil }
func (b *Ban) IsLifted() bool    { return b.LiftedAt != nil }

// IsActive evaluates the ban at now. An expired ban is inactive even when never
// lifted; a lifted ban is inactive regardless of expiry.
func (b *Ban) IsActive(now time.Time) bool {
	if b.LiftedAt != nil {
		return false
	}
	return b.ExpiresAt == nil || now.Before(*b.ExpiresAt)
}

// Lift ends an active ban. Lifting an inactive ban is a no-op; the returned
// flag reports whether anything changed.
func (b *Ban) Lift(actorID id.MemberID, now time.Time) bool {
	if !b.IsActive(now) {
		return false
	}
	by := actorID
	b.LiftedAt = &now
	b.LiftedBy = &by
	return true
}

// CanExtend rejects permanent, lifted and expired bans.
func (b *Ban) CanExtend(d time.Duration, now time.Time) error {
	if d <= 0 {
		return dErrors.New(dErrors.CodeValidation, "extension must be positive")
	}
	if b.IsPermanent() {
		return dErrors.New(dErrors.CodeStatusTransitionForbidden, "permanent bans cannot be extended")
	}
	if !b.IsActive(now) {
		return dErrors.New(dErrors.CodeStatusTransitionForbidden, "only active bans can be extended")
	}
	return nil
}

// ApplyExtend pushes ExpiresAt later by d.
func (b *Ban) ApplyExtend(d time.Duration) {
	expires := b.ExpiresAt.Add(d)
	b.ExpiresAt = &expires
}

func (b *Ban) Extend(d time.Duration, now time.Time) error {
	if err := b.CanExtend(d, now); err != nil {
		return err
	}
	b.ApplyExtend(d)
	return nil
}
