package domain

import "time"

// AuditFields holds creation and last-update stamps for persisted entities.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
}

// Audit actions recorded for group mutations.
const (
	AuditGroupCreated     = "group.created"
	AuditMemberJoined     = "member.joined"
	AuditMemberLeft       = "member.left"
	AuditMemberRemoved    = "member.removed"
	AuditMemberReinstated = "member.reinstated"
	AuditGroupActivated   = "group.activated"
	AuditGroupFrozen      = "group.frozen"
	AuditGroupUnfrozen    = "group.unfrozen"
	AuditContribution     = "contribution.recorded"
	AuditPayoutRequested  = "payout.requested"
	AuditPayoutCompleted  = "payout.completed"
	AuditPayoutFailed     = "payout.release_failed"
	AuditRoundOverdue     = "round.overdue"
)

// AuditEntry is one record handed to the audit log collaborator.
type AuditEntry struct {
	AuditID    string         `json:"auditID"`
	Action     string         `json:"action"`
	ActorID    string         `json:"actorID"`
	ResourceID string         `json:"resourceID"`
	Changes    map[string]any `json:"changes,omitempty"`
	RecordedAt time.Time      `json:"recordedAt"`
}

// GroupEvent is published to subscribers (notifications, analytics) after a
// mutation commits. Delivery is best effort.
type GroupEvent struct {
	Type        string         `json:"type"`
	GroupID     string         `json:"groupID"`
	ActorID     string         `json:"actorID"`
	RoundNumber int            `json:"roundNumber,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
	OccurredAt  time.Time      `json:"occurredAt"`
}
