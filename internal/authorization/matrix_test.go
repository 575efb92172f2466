package authorization

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identity "agora/internal/identity/models"
	id "agora/pkg/domain"
	dErrors "agora/pkg/domain-errors"
)

func member(t *testing.T, roles ...identity.Role) *identity.Member {
	t.Helper()
	m, err := identity.NewMember(id.NewMemberID(), "m", "m@example.com", true, roles, time.Now())
	require.NoError(t, err)
	return m
}

func TestDecideMatrix(t *testing.T) {
	type actorKind int
	const (
		author actorKind = iota
		moderator
		admin
		stranger
	)
	communityID := id.NewCommunityID()

	// Rows follow the published matrix; "stranger" is a plain member with no grant.
	tests := []struct {
		action Action
		want   map[actorKind]bool
	}{
		{ActionPublishPost, map[actorKind]bool{author: true, moderator: false, admin: false, stranger: false}},
		{ActionArchivePost, map[actorKind]bool{author: true, moderator: true, admin: true, stranger: false}},
		{ActionRestorePost, map[actorKind]bool{author: false, moderator: true, admin: true, stranger: false}},
		{ActionEditPost, map[actorKind]bool{author: true, moderator: false, admin: false, stranger: false}},
		{ActionEditComment, map[actorKind]bool{author: true, moderator: false, admin: false, stranger: false}},
		{ActionDeleteComment, map[actorKind]bool{author: true, moderator: true, admin: true, stranger: false}},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			authorMember := member(t)
			target := Target{CommunityID: communityID, AuthorID: authorMember.ID}
			facts := map[actorKind]Facts{
				author:    {Actor: authorMember},
				moderator: {Actor: member(t), IsModerator: true},
				admin:     {Actor: member(t, identity.RoleAdmin)},
				stranger:  {Actor: member(t)},
			}
			for kind, allowed := range tt.want {
				d := Decide(facts[kind], tt.action, target)
				assert.Equal(t, allowed, d.Allowed, "actor kind %d", kind)
				if !allowed {
					assert.Equal(t, dErrors.CodeUnauthorized, d.Code)
				}
			}
		})
	}
}

func TestDecideActorPreconditions(t *testing.T) {
	target := Target{CommunityID: id.NewCommunityID()}

	t.Run("missing actor", func(t *testing.T) {
		d := Decide(Facts{}, ActionVote, target)
		assert.Equal(t, dErrors.CodeUnauthorized, d.Code)
	})

	t.Run("unverified actor", func(t *testing.T) {
		m, err := identity.NewMember(id.NewMemberID(), "u", "u@example.com", false, nil, time.Now())
		require.NoError(t, err)
		d := Decide(Facts{Actor: m}, ActionCreatePost, target)
		assert.Equal(t, dErrors.CodeMemberNotActive, d.Code)
	})

	t.Run("suspended admin is still blocked", func(t *testing.T) {
		m := member(t, identity.RoleAdmin)
		require.NoError(t, m.Suspend(time.Now()))
		d := Decide(Facts{Actor: m}, ActionRestorePost, target)
		assert.Equal(t, dErrors.CodeMemberNotActive, d.Code)
	})
}

func TestDecideBans(t *testing.T) {
	banned := member(t)
	communityID := id.NewCommunityID()
	own := Target{CommunityID: communityID, AuthorID: banned.ID}
	facts := Facts{Actor: banned, Banned: true}

	for _, action := range []Action{ActionCreatePost, ActionCreateComment, ActionEditPost, ActionEditComment} {
		d := Decide(facts, action, own)
		assert.Equal(t, dErrors.CodeMemberBanned, d.Code, action)
	}
	for _, action := range []Action{ActionPublishPost, ActionArchivePost, ActionDeleteComment, ActionVote} {
		assert.True(t, Decide(facts, action, own).Allowed, action)
	}

	t.Run("ownership is checked before the ban", func(t *testing.T) {
		other := Target{CommunityID: communityID, AuthorID: id.NewMemberID()}
		d := Decide(facts, ActionEditPost, other)
		assert.Equal(t, dErrors.CodeUnauthorized, d.Code)
	})
}

func TestGovernanceActions(t *testing.T) {
	target := Target{CommunityID: id.NewCommunityID()}
	assert.True(t, Decide(Facts{Actor: member(t, identity.RoleAdmin)}, ActionGrantModerator, target).Allowed)
	assert.False(t, Decide(Facts{Actor: member(t), IsModerator: true}, ActionGrantModerator, target).Allowed)
	assert.True(t, Decide(Facts{Actor: member(t), IsModerator: true}, ActionModerate, target).Allowed)
	assert.False(t, Decide(Facts{Actor: member(t)}, ActionModerate, target).Allowed)
}

func TestFactSelection(t *testing.T) {
	plain := member(t)
	admin := member(t, identity.RoleAdmin)
	own := Target{AuthorID: plain.ID}
	other := Target{AuthorID: id.NewMemberID()}

	assert.False(t, needsModeratorFact(ActionArchivePost, plain, own))
	assert.True(t, needsModeratorFact(ActionArchivePost, plain, other))
	assert.False(t, needsModeratorFact(ActionRestorePost, admin, other))
	assert.False(t, needsModeratorFact(ActionEditPost, plain, other))

	assert.True(t, needsBanFact(ActionCreatePost, plain, Target{}))
	assert.True(t, needsBanFact(ActionEditComment, plain, own))
	assert.False(t, needsBanFact(ActionEditComment, plain, other))
	assert.False(t, needsBanFact(ActionDeleteComment, plain, own))
	assert.False(t, needsBanFact(ActionPublishPost, plain, own))
}

func TestPredicates(t *testing.T) {
	assert.NoError(t, RequireAdmin(member(t, identity.RoleAdmin)))
	assert.True(t, dErrors.HasCode(RequireAdmin(member(t)), dErrors.CodeUnauthorized))

	unverified, err := identity.NewMember(id.NewMemberID(), "u", "u@example.com", false, nil, time.Now())
	require.NoError(t, err)
	assert.True(t, dErrors.HasCode(RequireEligibleAsModerator(unverified), dErrors.CodeMemberNotActive))
	assert.NoError(t, RequireEligibleAsModerator(member(t)))
}
