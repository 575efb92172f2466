package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "agora/pkg/domain"
	audit "agora/pkg/platform/audit"
	txcontext "agora/pkg/platform/tx"
)

// Store implements audit.Store using the transactional outbox pattern.
// Events are written to the outbox table in the caller's transaction and
// published to Kafka by the relay.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store that writes to the outbox.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Payload is the JSON document stored in the outbox and published to Kafka.
type Payload struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	Timestamp   string `json:"timestamp"`
	ActorID     string `json:"actor_id,omitempty"`
	Action      string `json:"action"`
	SubjectType string `json:"subject_type,omitempty"`
	Subject     string `json:"subject,omitempty"`
	CommunityID string `json:"community_id,omitempty"`
	Reason      string `json:"reason,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}

// Append writes an audit event to the outbox table for Kafka publishing.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	entryID := uuid.New()

	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	payload := Payload{
		ID:          entryID.String(),
		Category:    string(category),
		Timestamp:   ts.UTC().Format(time.RFC3339Nano),
		Action:      event.Action,
		SubjectType: event.SubjectType,
		Subject:     event.Subject,
		CommunityID: event.CommunityID,
		Reason:      event.Reason,
		RequestID:   event.RequestID,
	}
	if !event.ActorID.IsNil() {
		payload.ActorID = event.ActorID.String()
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	aggregateType := event.SubjectType
	aggregateID := event.Subject
	if aggregateType == "" {
		aggregateType = "audit"
		aggregateID = entryID.String()
	}

	query := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, category, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = txcontext.Conn(ctx, s.db).ExecContext(ctx, query,
		entryID,
		aggregateType,
		aggregateID,
		event.Action,
		string(category),
		payloadBytes,
		ts,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// OutboxEntry is an unpublished outbox row.
type OutboxEntry struct {
	ID          uuid.UUID
	AggregateID string
	EventType   string
	Category    audit.EventCategory
	Payload     []byte
	CreatedAt   time.Time
}

// FetchUnpublished returns up to limit unpublished entries, oldest first. Rows
// are locked with SKIP LOCKED so parallel relays do not publish the same entry.
// Must be called inside a transaction carried by ctx for the lock to hold.
func (s *Store) FetchUnpublished(ctx context.Context, limit int) ([]OutboxEntry, error) {
	query := `
		SELECT id, aggregate_id, event_type, category, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	rows, err := txcontext.Conn(ctx, s.db).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var entries []OutboxEntry
	for rows.Next() {
		var (
			e        OutboxEntry
			category string
		)
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &category, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		e.Category = audit.EventCategory(category)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return entries, nil
}

// MarkPublished stamps the given entries as published.
func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE outbox SET published_at = $2 WHERE id = ANY($1::uuid[])`
	strIDs := make([]string, len(ids))
	for i, v := range ids {
		strIDs[i] = v.String()
	}
	if _, err := txcontext.Conn(ctx, s.db).ExecContext(ctx, query, pq.Array(strIDs), at); err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

// ListBySubject returns outbox payloads for one aggregate, oldest first.
func (s *Store) ListBySubject(ctx context.Context, subject string) ([]audit.Event, error) {
	query := `
		SELECT payload FROM outbox
		WHERE aggregate_id = $1
		ORDER BY created_at
	`
	rows, err := txcontext.Conn(ctx, s.db).QueryContext(ctx, query, subject)
	if err != nil {
		return nil, fmt.Errorf("query outbox by subject: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan outbox payload: %w", err)
		}
		event, err := decodePayload(raw)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox payloads: %w", err)
	}
	return events, nil
}

func decodePayload(raw []byte) (audit.Event, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return audit.Event{}, fmt.Errorf("decode outbox payload: %w", err)
	}
	event := audit.Event{
		Category:    audit.EventCategory(p.Category),
		Action:      p.Action,
		SubjectType: p.SubjectType,
		Subject:     p.Subject,
		CommunityID: p.CommunityID,
		Reason:      p.Reason,
		RequestID:   p.RequestID,
	}
	if ts, err := time.Parse(time.RFC3339Nano, p.Timestamp); err == nil {
		event.Timestamp = ts
	}
	if p.ActorID != "" {
		actor, err := id.ParseMemberID(p.ActorID)
		if err == nil {
			event.ActorID = actor
		}
	}
	return event, nil
}
