package admin

import (
	"time"

	audit "agora/pkg/platform/audit"
)

// AuditEventResponse is the HTTP response DTO for one audit event.
type AuditEventResponse struct {
	Action      string    `json:"action"`
	Category    string    `json:"category"`
	ActorID     string    `json:"actor_id,omitempty"`
	SubjectType string    `json:"subject_type"`
	Subject     string    `json:"subject"`
	CommunityID string    `json:"community_id,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// AuditTrailResponse wraps the history of one subject for HTTP response.
type AuditTrailResponse struct {
	Subject string                `json:"subject"`
	Events  []*AuditEventResponse `json:"events"`
	Total   int                   `json:"total"`
}

func toAuditTrailResponse(subject string, events []audit.Event) *AuditTrailResponse {
	out := &AuditTrailResponse{Subject: subject, Events: make([]*AuditEventResponse, 0, len(events)), Total: len(events)}
	for _, e := range events {
		category := e.Category
		if category == "" {
			category = audit.AuditEvent(e.Action).Category()
		}
		resp := &AuditEventResponse{
			Action:      e.Action,
			Category:    string(category),
			SubjectType: e.SubjectType,
			Subject:     e.Subject,
			CommunityID: e.CommunityID,
			Reason:      e.Reason,
			RequestID:   e.RequestID,
			Timestamp:   e.Timestamp,
		}
		if !e.ActorID.IsNil() {
			resp.ActorID = e.ActorID.String()
		}
		out.Events = append(out.Events, resp)
	}
	return out
}
