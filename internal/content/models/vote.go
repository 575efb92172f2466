package models

import (
	"time"

	id "agora/pkg/domain"
	dErrors "agora/pkg/domain-errors"
)

// VoteValue is a stored or desired vote. A stored vote is only ever VoteUp or
// VoteDown; VoteNone means "no ledger row".
type VoteValue int

const (
	VoteDown VoteValue = -1
	VoteNone VoteValue = 0
	VoteUp   VoteValue = 1
)

// ParseVoteValue validates a desired vote from external input.
func ParseVoteValue(v int) (VoteValue, error) {
	switch VoteValue(v) {
	case VoteDown, VoteNone, VoteUp:
		return VoteValue(v), nil
	default:
		return VoteNone, dErrors.New(dErrors.CodeVoteValueInvalid, "vote value must be -1, 0 or 1")
	}
}

func (v VoteValue) Int() int { return int(v) }

// DecideVote is the toggle rule. It is not "set to desired":
//   - desired 0 always cancels
//   - repeating the stored direction cancels it
//   - any other non-zero desire replaces the stored value
func DecideVote(old, desired VoteValue) VoteValue {
	switch desired {
	case VoteUp:
		if old == VoteUp {
			return VoteNone
		}
		return VoteUp
	case VoteDown:
		if old == VoteDown {
			return VoteNone
		}
		return VoteDown
	default:
		return VoteNone
	}
}

// LedgerOp is the single ledger mutation implied by an (old, new) pair.
type LedgerOp int

const (
	LedgerNoop LedgerOp = iota
	LedgerInsert
	LedgerUpdate
	LedgerDelete
)

func (op LedgerOp) String() string {
	switch op {
	case LedgerInsert:
		return "insert"
	case LedgerUpdate:
		return "update"
	case LedgerDelete:
		return "delete"
	default:
		return "noop"
	}
}

// PlanLedgerOp maps a transition to exactly one of insert, update, delete or no-op.
func PlanLedgerOp(old, next VoteValue) LedgerOp {
	switch {
	case old == VoteNone && next == VoteNone:
		return LedgerNoop
	case old == VoteNone:
		return LedgerInsert
	case next == VoteNone:
		return LedgerDelete
	case old == next:
		return LedgerNoop
	default:
		return LedgerUpdate
	}
}

// VoteDelta is the counter change implied by an (old, new) pair.
type VoteDelta struct {
	Up   int64
	Down int64
}

func ComputeVoteDelta(old, next VoteValue) VoteDelta {
	return VoteDelta{
		Up:   indicator(next == VoteUp) - indicator(old == VoteUp),
		Down: indicator(next == VoteDown) - indicator(old == VoteDown),
	}
}

func indicator(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// VoteCounters is the denormalized up/down tally shared by posts and comments.
type VoteCounters struct {
	UpCount   int64 `json:"up_count"`
	DownCount int64 `json:"down_count"`
}

// Score is up minus down.
func (c VoteCounters) Score() int64 { return c.UpCount - c.DownCount }

func (c *VoteCounters) apply(old, next VoteValue) error {
	d := ComputeVoteDelta(old, next)
	up, down := c.UpCount+d.Up, c.DownCount+d.Down
	if up < 0 || down < 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "vote counters would become negative")
	}
	c.UpCount, c.DownCount = up, down
	return nil
}

// PostVote is a ledger row: one per (post, voter).
type PostVote struct {
	PostID    id.PostID
	VoterID   id.MemberID
	Value     VoteValue
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CommentVote is a ledger row: one per (comment, voter).
type CommentVote struct {
	CommentID id.CommentID
	VoterID   id.MemberID
	Value     VoteValue
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MyVote is the read projection of one voter's current vote on one target.
type MyVote interface {
	Value() VoteValue
}

// MyPostVote is a voter's current vote on a post. Value is VoteNone when no row exists.
type MyPostVote struct {
	PostID id.PostID
	Vote   VoteValue
}

func (v MyPostVote) Value() VoteValue { return v.Vote }

// MyCommentVote is a voter's current vote on a comment.
type MyCommentVote struct {
	CommentID id.CommentID
	Vote      VoteValue
}

func (v MyCommentVote) Value() VoteValue { return v.Vote }

// VoteOutcome describes what one ApplyVote call did.
type VoteOutcome struct {
	Previous VoteValue
	Current  VoteValue
	Op       LedgerOp
	Counters VoteCounters
}
