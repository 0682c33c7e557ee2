package api

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// HealthStatusStatus is the overall health verdict.
type HealthStatusStatus string

const (
	Healthy   HealthStatusStatus = "healthy"
	Degraded  HealthStatusStatus = "degraded"
	Unhealthy HealthStatusStatus = "unhealthy"
)

// HealthStatusChecksDatabase is the state of the snapshot database.
type HealthStatusChecksDatabase string

const (
	Up   HealthStatusChecksDatabase = "up"
	Down HealthStatusChecksDatabase = "down"
)

// HealthStatus is returned by the liveness and readiness probes.
type HealthStatus struct {
	Status    HealthStatusStatus `json:"status"`
	Timestamp time.Time          `json:"timestamp"`
	Version   *string            `json:"version,omitempty"`
	Checks    *HealthChecks      `json:"checks,omitempty"`
}

// HealthChecks lists the dependency checks that were run.
type HealthChecks struct {
	Database *HealthStatusChecksDatabase `json:"database,omitempty"`
}

// Error is the body of every non-2xx response.
type Error struct {
	Error        string  `json:"error"`
	Message      string  `json:"message"`
	BusinessCode *string `json:"business_code,omitempty"`
	Context      any     `json:"context,omitempty"`
}

// Message is a relay message as sent over HTTP and the stream.
type Message struct {
	To      *string `json:"to,omitempty"`
	Message string  `json:"message"`
	Payload any     `json:"payload,omitempty"`
}

// PublishResponse tells the caller how a message was routed.
type PublishResponse struct {
	DispatchKey string  `json:"dispatchKey"`
	ForwardedTo *string `json:"forwardedTo,omitempty"`
}

// ConnectionList is the set of addressable endpoints.
type ConnectionList struct {
	Connections []string `json:"connections"`
}

// CreateForwardRequest installs a forwarding rule.
type CreateForwardRequest struct {
	Topic     string `json:"topic"`
	Recipient string `json:"recipient"`
}

// ForwardRule is an installed forwarding rule.
type ForwardRule struct {
	Id        openapi_types.UUID `json:"id"`
	Topic     string             `json:"topic"`
	Recipient string             `json:"recipient"`
	CreatedAt time.Time          `json:"createdAt"`
}

// ForwardRuleList wraps ForwardRule listings.
type ForwardRuleList struct {
	Rules []ForwardRule `json:"rules"`
}

// Snapshot is one captured set of queries, mutations and cache.
type Snapshot struct {
	Id         openapi_types.UUID `json:"id"`
	Queries    any                `json:"queries"`
	Mutations  any                `json:"mutations"`
	Cache      any                `json:"cache"`
	CapturedAt time.Time          `json:"capturedAt"`
}

// SnapshotList wraps Snapshot listings.
type SnapshotList struct {
	Snapshots []Snapshot `json:"snapshots"`
}

// PanelState is what the inspection panel renders.
type PanelState struct {
	Theme    string    `json:"theme"`
	Query    string    `json:"query"`
	Snapshot *Snapshot `json:"snapshot,omitempty"`
}

// ThemeRequest selects the panel theme.
type ThemeRequest struct {
	Theme string `json:"theme"`
}

// QueryRequest replaces the query editor text.
type QueryRequest struct {
	Query string `json:"query"`
}

// StreamFrameType distinguishes frames pushed on the stream.
type StreamFrameType string

const (
	StreamFrameMessage StreamFrameType = "message"
	StreamFrameError   StreamFrameType = "error"
)

// StreamFrame is one websocket frame sent by the server.
type StreamFrame struct {
	Type    StreamFrameType `json:"type"`
	Message *Message        `json:"message,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// ListSnapshotsParams defines parameters for ListSnapshots.
type ListSnapshotsParams struct {
	Limit *int `form:"limit,omitempty" json:"limit,omitempty"`
}

// StreamMessagesParams defines parameters for StreamMessages.
type StreamMessagesParams struct {
	// Key is a topic, or "@name" to attach as the connection name.
	Key string `form:"key" json:"key"`
}
