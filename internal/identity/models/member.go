package models

import (
	"net/mail"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	id "agora/pkg/domain"
	dErrors "agora/pkg/domain-errors"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "invalid role")
	}
}

type MemberStatus string

const (
	MemberStatusActive    MemberStatus = "ACTIVE"
	MemberStatusSuspended MemberStatus = "SUSPENDED"
	MemberStatusDeleted   MemberStatus = "DELETED"
)

// CanTransitionTo encodes ACTIVE ↔ SUSPENDED with DELETED reachable from both
// and terminal.
func (s MemberStatus) CanTransitionTo(next MemberStatus) bool {
	switch s {
	case MemberStatusActive:
		return next == MemberStatusSuspended || next == MemberStatusDeleted
	case MemberStatusSuspended:
		return next == MemberStatusActive || next == MemberStatusDeleted
	default:
		return false
	}
}

const maxHandleLength = 32

// Member is the identity facts the core authorizes against. Authentication
// happens elsewhere; by the time a Member reaches the core it is resolved.
//
// Invariants:
//   - Roles always contains USER
//   - Status transitions: ACTIVE ↔ SUSPENDED, either → DELETED, DELETED is terminal
//   - A DELETED member's profile (handle, email) is never changed again
type Member struct {
	ID            id.MemberID  `json:"id"`
	Handle        string       `json:"handle"`
	Email         string       `json:"email"`
	EmailVerified bool         `json:"email_verified"`
	Roles         []Role       `json:"roles"`
	Status        MemberStatus `json:"status"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	Version       int64        `json:"version"`
}

func NewMember(memberID id.MemberID, handle, email string, verified bool, roles []Role, now time.Time) (*Member, error) {
	if memberID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "member id is required")
	}
	handle = strings.TrimSpace(handle)
	if handle == "" || utf8.RuneCountInString(handle) > maxHandleLength {
		return nil, dErrors.New(dErrors.CodeValidation, "handle must be 1-32 characters")
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid email address")
	}
	set := []Role{RoleUser}
	for _, r := range roles {
		if r != RoleUser && r != RoleAdmin {
			return nil, dErrors.New(dErrors.CodeValidation, "invalid role")
		}
		if !slices.Contains(set, r) {
			set = append(set, r)
		}
	}
	return &Member{
		ID:            memberID,
		Handle:        handle,
		Email:         strings.ToLower(addr.Address),
		EmailVerified: verified,
		Roles:         set,
		Status:        MemberStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (m *Member) HasRole(r Role) bool { return slices.Contains(m.Roles, r) }
func (m *Member) IsAdmin() bool       { return m.HasRole(RoleAdmin) }
func (m *Member) IsActive() bool      { return m.Status == MemberStatusActive }
func (m *Member) IsDeleted() bool     { return m.Status == MemberStatusDeleted }

// IsActiveVerified is the precondition for every content mutation and for
// moderator eligibility.
func (m *Member) IsActiveVerified() bool {
	return m.IsActive() && m.EmailVerified
}

func (m *Member) canTransition(next MemberStatus) error {
	if !m.Status.CanTransitionTo(next) {
		return dErrors.New(dErrors.CodeStatusTransitionForbidden,
			"member cannot move from "+string(m.Status)+" to "+string(next))
	}
	return nil
}

// CanSuspend checks ACTIVE → SUSPENDED.
func (m *Member) CanSuspend() error {
	return m.canTransition(MemberStatusSuspended)
}

func (m *Member) ApplySuspend(now time.Time) {
	m.Status = MemberStatusSuspended
	m.UpdatedAt = now
}

func (m *Member) Suspend(now time.Time) error {
	if err := m.CanSuspend(); err != nil {
		return err
	}
	m.ApplySuspend(now)
	return nil
}

// CanReactivate checks SUSPENDED → ACTIVE.
func (m *Member) CanReactivate() error {
	return m.canTransition(MemberStatusActive)
}

func (m *Member) ApplyReactivate(now time.Time) {
	m.Status = MemberStatusActive
	m.UpdatedAt = now
}

func (m *Member) Reactivate(now time.Time) error {
	if err := m.CanReactivate(); err != nil {
		return err
	}
	m.ApplyReactivate(now)
	return nil
}

// MarkDeleted is terminal.
func (m *Member) MarkDeleted(now time.Time) error {
	if err := m.canTransition(MemberStatusDeleted); err != nil {
		return err
	}
	m.Status = MemberStatusDeleted
	m.UpdatedAt = now
	return nil
}

// VerifyEmail records a completed email verification.
func (m *Member) VerifyEmail(now time.Time) error {
	if m.IsDeleted() {
		return dErrors.New(dErrors.CodeDeletedModificationForbidden, "deleted members cannot be modified")
	}
	if m.EmailVerified {
		return nil
	}
	m.EmailVerified = true
	m.UpdatedAt = now
	return nil
}
