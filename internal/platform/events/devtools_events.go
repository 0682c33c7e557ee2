package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics exchanged between the background context and the inspection panel.
const (
	SnapshotTopic     = "devtools.snapshot"
	ThemeTopic        = "devtools.theme"
	QueryTopic        = "devtools.query"
	StateRequestTopic = "devtools.state.request"
	StateTopic        = "devtools.state"
)

// Well-known connection names.
const (
	BackgroundConnection = "background"
	PanelConnection      = "panel"
	TabConnection        = "tab"
)

// SnapshotPayload carries one capture of the client's queries, mutations and
// cache. The three fields are forwarded without interpretation.
type SnapshotPayload struct {
	Queries   any `json:"queries"`
	Mutations any `json:"mutations"`
	Cache     any `json:"cache"`
}

// ThemePayload selects the panel color theme.
type ThemePayload struct {
	Theme string `json:"theme"`
}

// QueryPayload replaces the text of the panel's query editor.
type QueryPayload struct {
	Query string `json:"query"`
}

// StatePayload answers a StateRequestTopic message.
type StatePayload struct {
	SnapshotID *uuid.UUID `json:"snapshotId,omitempty"`
	CapturedAt *time.Time `json:"capturedAt,omitempty"`
	Queries    any        `json:"queries,omitempty"`
	Mutations  any        `json:"mutations,omitempty"`
	Cache      any        `json:"cache,omitempty"`
	Theme      string     `json:"theme"`
	Query      string     `json:"query"`
}
