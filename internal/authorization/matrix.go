// Package authorization decides whether a member may perform a mutation.
//
// Decide is a pure function over Facts; the Authorizer gathers those facts
// (moderator grant, active ban) from the stores and then calls it. Every
// mutation service goes through the Authorizer so the precedence below is
// applied the same way everywhere:
//
//  1. the actor must exist, be ACTIVE and have a verified email
//  2. ownership is checked before roles
//  3. ADMIN, then the community moderator grant
//  4. an active ban blocks creating and editing content, never deleting,
//     archiving or voting
package authorization

import (
	identity "agora/internal/identity/models"
	id "agora/pkg/domain"
	dErrors "agora/pkg/domain-errors"
)

type Action string

const (
	ActionCreatePost     Action = "create_post"
	ActionEditPost       Action = "edit_post"
	ActionPublishPost    Action = "publish_post"
	ActionArchivePost    Action = "archive_post"
	ActionRestorePost    Action = "restore_post"
	ActionCreateComment  Action = "create_comment"
	ActionEditComment    Action = "edit_comment"
	ActionDeleteComment  Action = "delete_comment"
	ActionVote           Action = "vote"
	ActionModerate       Action = "moderate"
	ActionGrantModerator Action = "grant_moderator"
)

// policy groups actions that share one row of the matrix.
type policy int

const (
	policyCreate policy = iota
	policyAuthorEdit
	policyAuthorOnly
	policyAuthorOrModerator
	policyModeratorOnly
	policyAdminOnly
	policyAnyMember
)

var policies = map[Action]policy{
	ActionCreatePost:     policyCreate,
	ActionCreateComment:  policyCreate,
	ActionEditPost:       policyAuthorEdit,
	ActionEditComment:    policyAuthorEdit,
	ActionPublishPost:    policyAuthorOnly,
	ActionArchivePost:    policyAuthorOrModerator,
	ActionDeleteComment:  policyAuthorOrModerator,
	ActionRestorePost:    policyModeratorOnly,
	ActionModerate:       policyModeratorOnly,
	ActionGrantModerator: policyAdminOnly,
	ActionVote:           policyAnyMember,
}

// Target is the content (or community) an action touches. AuthorID is zero
// for creation, voting and governance actions.
type Target struct {
	CommunityID id.CommunityID
	AuthorID    id.MemberID
}

// Facts is everything Decide looks at.
type Facts struct {
	Actor       *identity.Member
	IsModerator bool
	Banned      bool
}

// Decision is Allow or Deny with the error code the caller will see.
type Decision struct {
	Allowed bool
	Code    dErrors.Code
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(code dErrors.Code, reason string) Decision {
	return Decision{Code: code, Reason: reason}
}

// Err returns nil for Allow and a domain error for Deny.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return dErrors.New(d.Code, d.Reason)
}

// Decide applies the matrix. It performs no I/O.
func Decide(f Facts, action Action, target Target) Decision {
	if err := RequireActiveVerifiedMember(f.Actor); err != nil {
		return deny(dErrors.CodeOf(err), dErrors.MessageOf(err))
	}
	actor := f.Actor
	isAuthor := !target.AuthorID.IsNil() && target.AuthorID == actor.ID
	elevated := actor.IsAdmin() || f.IsModerator

	p, ok := policies[action]
	if !ok {
		return deny(dErrors.CodeUnauthorized, "unknown action")
	}

	switch p {
	case policyCreate:
		if f.Banned {
			return deny(dErrors.CodeMemberBanned, "member is banned from this community")
		}
		return allow()

	case policyAuthorEdit:
		if !isAuthor {
			return deny(dErrors.CodeUnauthorized, "only the author may do this")
		}
		if f.Banned {
			return deny(dErrors.CodeMemberBanned, "member is banned from this community")
		}
		return allow()

	case policyAuthorOnly:
		if !isAuthor {
			return deny(dErrors.CodeUnauthorized, "only the author may do this")
		}
		return allow()

	case policyAuthorOrModerator:
		if isAuthor || elevated {
			return allow()
		}
		return deny(dErrors.CodeUnauthorized, "requires the author, a moderator or an admin")

	case policyModeratorOnly:
		if elevated {
			return allow()
		}
		return deny(dErrors.CodeUnauthorized, "requires a moderator or an admin")

	case policyAdminOnly:
		if actor.IsAdmin() {
			return allow()
		}
		return deny(dErrors.CodeUnauthorized, "requires an admin")

	default:
		return allow()
	}
}

// needsModeratorFact reports whether the grant lookup can change the outcome.
func needsModeratorFact(action Action, actor *identity.Member, target Target) bool {
	if actor == nil || actor.IsAdmin() {
		return false
	}
	switch policies[action] {
	case policyAuthorOrModerator:
		return target.AuthorID != actor.ID
	case policyModeratorOnly:
		return true
	default:
		return false
	}
}

// needsBanFact reports whether an active ban can change the outcome.
func needsBanFact(action Action, actor *identity.Member, target Target) bool {
	switch policies[action] {
	case policyCreate:
		return true
	case policyAuthorEdit:
		return actor != nil && target.AuthorID == actor.ID
	default:
		return false
	}
}

// RequireActiveVerifiedMember fails with member_not_active unless the actor is
// ACTIVE with a verified email.
func RequireActiveVerifiedMember(actor *identity.Member) error {
	if actor == nil {
		return dErrors.New(dErrors.CodeUnauthorized, "actor is required")
	}
	if !actor.IsActiveVerified() {
		return dErrors.New(dErrors.CodeMemberNotActive, "member must be active with a verified email")
	}
	return nil
}

// RequireAdmin fails with unauthorized unless the actor holds ADMIN.
func RequireAdmin(actor *identity.Member) error {
	if err := RequireActiveVerifiedMember(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return dErrors.New(dErrors.CodeUnauthorized, "requires an admin")
	}
	return nil
}

// RequireEligibleAsModerator checks the member about to receive a grant.
func RequireEligibleAsModerator(target *identity.Member) error {
	if target == nil || !target.IsActiveVerified() {
		return dErrors.New(dErrors.CodeMemberNotActive, "moderators must be active with a verified email")
	}
	return nil
}
