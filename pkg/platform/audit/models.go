package audit

import (
	"context"
	"time"

	id "agora/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose so relays can
// route them to different topics and retention policies.
type EventCategory string

const (
	// CategoryGovernance covers moderation acts: bans, moderator grants,
	// member status changes. Kept for the life of the community.
	CategoryGovernance EventCategory = "governance"

	// CategoryContent covers routine authoring and voting activity.
	CategoryContent EventCategory = "content"
)

// Event is emitted by services after a successful mutation. It is transport
// agnostic; stores and relays decide where it goes.
type Event struct {
	Category    EventCategory
	Timestamp   time.Time
	ActorID     id.MemberID
	Action      string
	SubjectType string // "post", "comment", "member", "ban", "community"
	Subject     string // ID of the affected aggregate
	CommunityID string
	Reason      string
	RequestID   string
}

type AuditEvent string

const (
	// Identity events
	EventMemberRegistered    AuditEvent = "member_registered"
	EventMemberEmailVerified AuditEvent = "member_email_verified"
	EventMemberSuspended     AuditEvent = "member_suspended"
	EventMemberReactivated   AuditEvent = "member_reactivated"
	EventMemberDeleted       AuditEvent = "member_deleted"

	// Community governance events
	EventCommunityCreated AuditEvent = "community_created"
	EventModeratorGranted AuditEvent = "moderator_granted"
	EventModeratorRevoked AuditEvent = "moderator_revoked"
	EventMemberBanned     AuditEvent = "member_banned"
	EventMemberUnbanned   AuditEvent = "member_unbanned"
	EventBanExtended      AuditEvent = "ban_extended"

	// Post events
	EventPostCreated       AuditEvent = "post_created"
	EventPostMediaAttached AuditEvent = "post_media_attached"
	EventPostRenamed       AuditEvent = "post_renamed"
	EventPostRewritten     AuditEvent = "post_rewritten"
	EventPostPublished     AuditEvent = "post_published"
	EventPostArchived      AuditEvent = "post_archived"
	EventPostRestored      AuditEvent = "post_restored"

	// Comment events
	EventCommentCreated AuditEvent = "comment_created"
	EventCommentEdited  AuditEvent = "comment_edited"
	EventCommentDeleted AuditEvent = "comment_deleted"

	// Vote events
	EventPostVoted    AuditEvent = "post_voted"
	EventCommentVoted AuditEvent = "comment_voted"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventMemberRegistered:    CategoryGovernance,
	EventMemberEmailVerified: CategoryGovernance,
	EventMemberSuspended:     CategoryGovernance,
	EventMemberReactivated:   CategoryGovernance,
	EventMemberDeleted:       CategoryGovernance,
	EventCommunityCreated:    CategoryGovernance,
	EventModeratorGranted:    CategoryGovernance,
	EventModeratorRevoked:    CategoryGovernance,
	EventMemberBanned:        CategoryGovernance,
	EventMemberUnbanned:      CategoryGovernance,
	EventBanExtended:         CategoryGovernance,
	EventPostArchived:        CategoryGovernance,
	EventPostRestored:        CategoryGovernance,
	EventCommentDeleted:      CategoryGovernance,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryContent.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryContent
}

// Store persists audit events. Postgres writes go to the outbox inside the
// caller's transaction.
type Store interface {
	Append(ctx context.Context, event Event) error
}
