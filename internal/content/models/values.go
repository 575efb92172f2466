package models

import (
	"strings"
	"unicode/utf8"

	dErrors "agora/pkg/domain-errors"
)

// Length bounds for user-authored text, counted in runes.
const (
	MaxTitleLength       = 300
	MaxContentLength     = 40000
	MaxCommentBodyLength = 10000
)

// Title is a post title. Construct via NewTitle; it is never blank and never
// longer than MaxTitleLength runes.
type Title string

func NewTitle(s string) (Title, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "title cannot be blank")
	}
	if utf8.RuneCountInString(s) > MaxTitleLength {
		return "", dErrors.New(dErrors.CodeValidation, "title is too long")
	}
	return Title(s), nil
}

func (t Title) String() string { return string(t) }

// Content is a post body. Leading and trailing whitespace is preserved apart from
// the blank check so code blocks survive.
type Content string

func NewContent(s string) (Content, error) {
	if strings.TrimSpace(s) == "" {
		return "", dErrors.New(dErrors.CodeValidation, "content cannot be blank")
	}
	if utf8.RuneCountInString(s) > MaxContentLength {
		return "", dErrors.New(dErrors.CodeValidation, "content is too long")
	}
	return Content(s), nil
}

func (c Content) String() string { return string(c) }

// CommentBody is the text of a comment.
type CommentBody string

func NewCommentBody(s string) (CommentBody, error) {
	if strings.TrimSpace(s) == "" {
		return "", dErrors.New(dErrors.CodeValidation, "comment body cannot be blank")
	}
	if utf8.RuneCountInString(s) > MaxCommentBodyLength {
		return "", dErrors.New(dErrors.CodeValidation, "comment body is too long")
	}
	return CommentBody(s), nil
}

func (b CommentBody) String() string { return string(b) }

// Page selects a window of a listing. Zero values mean "first page, default size".
type Page struct {
	Offset int
	Limit  int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize clamps the page into supported bounds.
func (p Page) Normalize() Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}
