package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "agora/pkg/domain-errors"
)

// Typed identifiers. Each wraps a UUID so the compiler rejects passing a PostID
// where a CommentID is expected.
type (
	MemberID    uuid.UUID
	CommunityID uuid.UUID
	PostID      uuid.UUID
	CommentID   uuid.UUID
	BanID       uuid.UUID
	MediaID     uuid.UUID
)

// maxIDInputLength bounds parsing work on untrusted input. A canonical UUID is 36
// characters; the urn form is 45.
const maxIDInputLength = 64

func parseUUID(kind, s string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, kind+" cannot be empty")
	}
	if len(s) > maxIDInputLength || !utf8.ValidString(s) {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "invalid "+kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, kind+" cannot be nil")
	}
	return u, nil
}

func ParseMemberID(s string) (MemberID, error) {
	u, err := parseUUID("member id", s)
	return MemberID(u), err
}

func ParseCommunityID(s string) (CommunityID, error) {
	u, err := parseUUID("community id", s)
	return CommunityID(u), err
}

func ParsePostID(s string) (PostID, error) {
	u, err := parseUUID("post id", s)
	return PostID(u), err
}

func ParseCommentID(s string) (CommentID, error) {
	u, err := parseUUID("comment id", s)
	return CommentID(u), err
}

func ParseBanID(s string) (BanID, error) {
	u, err := parseUUID("ban id", s)
	return BanID(u), err
}

func ParseMediaID(s string) (MediaID, error) {
	u, err := parseUUID("media id", s)
	return MediaID(u), err
}

func NewMemberID() MemberID       { return MemberID(uuid.New()) }
func NewCommunityID() CommunityID { return CommunityID(uuid.New()) }
func NewPostID() PostID           { return PostID(uuid.New()) }
func NewCommentID() CommentID     { return CommentID(uuid.New()) }
func NewBanID() BanID             { return BanID(uuid.New()) }
func NewMediaID() MediaID         { return MediaID(uuid.New()) }

func (id MemberID) String() string    { return uuid.UUID(id).String() }
func (id CommunityID) String() string { return uuid.UUID(id).String() }
func (id PostID) String() string      { return uuid.UUID(id).String() }
func (id CommentID) String() string   { return uuid.UUID(id).String() }
func (id BanID) String() string       { return uuid.UUID(id).String() }
func (id MediaID) String() string     { return uuid.UUID(id).String() }

func (id MemberID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id CommunityID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id PostID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id CommentID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id BanID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id MediaID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }

// Text encoding keeps IDs as canonical strings in JSON bodies and map keys.

func (id MemberID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id CommunityID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id PostID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id CommentID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id BanID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id MediaID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }

func (id *MemberID) UnmarshalText(b []byte) error {
	v, err := ParseMemberID(string(b))
	if err != nil {
		return err
	}
	*id = v
	return nil
}

func (id *CommunityID) UnmarshalText(b []byte) error {
	v, err := ParseCommunityID(string(b))
	if err != nil {
		return err
	}
	*id = v
	return nil
}

func (id *PostID) UnmarshalText(b []byte) error {
	v, err := ParsePostID(string(b))
	if err != nil {
		return err
	}
	*id = v
	return nil
}

func (id *CommentID) UnmarshalText(b []byte) error {
	v, err := ParseCommentID(string(b))
	if err != nil {
		return err
	}
	*id = v
	return nil
}

func (id *BanID) UnmarshalText(b []byte) error {
	v, err := ParseBanID(string(b))
	if err != nil {
		return err
	}
	*id = v
	return nil
}

func (id *MediaID) UnmarshalText(b []byte) error {
	v, err := ParseMediaID(string(b))
	if err != nil {
		return err
	}
	*id = v
	return nil
}
