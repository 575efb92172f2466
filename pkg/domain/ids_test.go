package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "agora/pkg/domain-errors"
)

func TestParseMemberID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseMemberID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseMemberID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		u := uuid.New()
		id, err := ParseMemberID(u.String())
		require.NoError(t, err)
		assert.Equal(t, MemberID(u), id)
		assert.Equal(t, u.String(), id.String())
	})
}

func TestParseID_RejectsHostileInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"SQL injection attempt", "'; DROP TABLE posts;--"},
		{"Path traversal", "../../../etc/passwd"},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000"},
		{"Oversized input", strings.Repeat("a", 1000)},
		{"Whitespace only", "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errPost := ParsePostID(tt.input)
			_, errComment := ParseCommentID(tt.input)
			_, errCommunity := ParseCommunityID(tt.input)
			_, errBan := ParseBanID(tt.input)
			require.Error(t, errPost)
			require.Error(t, errComment)
			require.Error(t, errCommunity)
			require.Error(t, errBan)
		})
	}
}

func TestNewIDs_AreNotNil(t *testing.T) {
	assert.False(t, NewPostID().IsNil())
	assert.False(t, NewCommentID().IsNil())
	assert.True(t, PostID{}.IsNil())
}
