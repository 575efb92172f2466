package models

import (
	"strings"
	"time"
	"unicode/utf8"

	id "agora/pkg/domain"
	dErrors "agora/pkg/domain-errors"
)

const (
	minNameKeyLength     = 3
	maxNameKeyLength     = 32
	maxDisplayNameLength = 100
	maxDescriptionLength = 500
)

// CommunityNameKey is the case-folded unique handle of a community, e.g. "golang".
type CommunityNameKey string

// NewCommunityNameKey lowercases s and accepts [a-z0-9_-], 3-32 characters,
// starting with a letter or digit.
func NewCommunityNameKey(s string) (CommunityNameKey, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if len(key) < minNameKeyLength || len(key) > maxNameKeyLength {
		return "", dErrors.New(dErrors.CodeValidation, "community name must be 3-32 characters")
	}
	for i, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case (r == '_' || r == '-') && i > 0:
		default:
			return "", dErrors.New(dErrors.CodeValidation, "community name may only contain letters, digits, '_' and '-'")
		}
	}
	return CommunityNameKey(key), nil
}

func (k CommunityNameKey) String() string { return string(k) }

// Community is the scope for moderator grants, bans and posts. It carries no
// state machine of its own.
//
// Invariants:
//   - NameKey is unique across communities (enforced by the store)
//   - DisplayName is non-blank
type Community struct {
	ID          id.CommunityID   `json:"id"`
	NameKey     CommunityNameKey `json:"name"`
	DisplayName string           `json:"display_name"`
	Description string           `json:"description"`
	CreatedBy   id.MemberID      `json:"created_by"`
	CreatedAt   time.Time        `json:"created_at"`
}

func NewCommunity(communityID id.CommunityID, nameKey CommunityNameKey, displayName, description string, createdBy id.MemberID, now time.Time) (*Community, error) {
	if communityID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "community id is required")
	}
	if createdBy.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "creator is required")
	}
	if nameKey == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "community name is required")
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = nameKey.String()
	}
	if utf8.RuneCountInString(displayName) > maxDisplayNameLength {
		return nil, dErrors.New(dErrors.CodeValidation, "display name must be at most 100 characters")
	}
	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return nil, dErrors.New(dErrors.CodeValidation, "description must be at most 500 characters")
	}
	return &Community{
		ID:          communityID,
		NameKey:     nameKey,
		DisplayName: displayName,
		Description: description,
		CreatedBy:   createdBy,
		CreatedAt:   now,
	}, nil
}

// ModeratorGrant scopes elevated permissions to one community.
type ModeratorGrant struct {
	CommunityID id.CommunityID `json:"community_id"`
	MemberID    id.MemberID    `json:"member_id"`
	GrantedBy   id.MemberID    `json:"granted_by"`
	GrantedAt   time.Time      `json:"granted_at"`
}
