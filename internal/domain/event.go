package domain

import "encoding/json"

// Priority controls delivery order. Lower ordinal is delivered first.
type Priority int

const (
	PriorityCritical Priority = 1
	PriorityHigh     Priority = 2
	PriorityNormal   Priority = 3
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityNormal:
		return true
	}
	return false
}

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	}
	return "unknown"
}

// ParsePriority maps the API's priority names to their ordinals.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "critical":
		return PriorityCritical, nil
	case "high":
		return PriorityHigh, nil
	case "normal":
		return PriorityNormal, nil
	}
	return 0, ErrInvalidPriority
}

// Event is one pending outbound telemetry record. Its five JSON fields are
// exactly the persisted record shape; there is no version field, so a format
// change means either a migration or accepting that the load-time validator
// drops everything.
type Event struct {
	ID        string          `json:"id"`
	Timestamp int64           `json:"timestamp"` // unix milliseconds
	Data      json.RawMessage `json:"data"`
	Priority  Priority        `json:"priority"`
	Retries   int             `json:"retries"`
}

// DropReason names why an event left the queue without being delivered.
// Surfaced through the manager's OnDrop hook so operators and tests can
// observe what the queue would otherwise discard silently.
type DropReason string

const (
	DropRetryLimit DropReason = "retry_limit"
	DropEvicted    DropReason = "evicted"
	DropCorrupt    DropReason = "corrupt"
)

// EnqueueRequest is the inbound payload for a single event.
type EnqueueRequest struct {
	Data     json.RawMessage `json:"data"`
	Priority string          `json:"priority"`
}

func (r *EnqueueRequest) Validate() error {
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return ErrMissingData
	}
	if _, err := ParsePriority(r.Priority); err != nil {
		return err
	}
	return nil
}

// EnqueueBatchRequest wraps a slice of event requests.
type EnqueueBatchRequest struct {
	Events []EnqueueRequest `json:"events"`
}

// QueueStats is the JSON depth snapshot served by the API.
type QueueStats struct {
	Depth    int `json:"depth"`
	Critical int `json:"critical"`
	High     int `json:"high"`
	Normal   int `json:"normal"`
}
