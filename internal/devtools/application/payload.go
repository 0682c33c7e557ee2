package application

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/philly/devtools-relay/internal/platform/events"
)

var errEmptyPayload = errors.New("payload is empty")

// decodePayload fills dst from a relay payload. In-process senders pass the
// typed payload structs; HTTP and websocket senders pass decoded JSON, which
// is re-encoded into dst. A bare string is accepted for theme and query.
func decodePayload(payload any, dst any) error {
	if payload == nil {
		return errEmptyPayload
	}

	switch dst := dst.(type) {
	case *events.SnapshotPayload:
		switch p := payload.(type) {
		case events.SnapshotPayload:
			*dst = p
			return nil
		case *events.SnapshotPayload:
			*dst = *p
			return nil
		}
	case *events.ThemePayload:
		switch p := payload.(type) {
		case events.ThemePayload:
			*dst = p
			return nil
		case *events.ThemePayload:
			*dst = *p
			return nil
		case string:
			dst.Theme = p
			return nil
		}
	case *events.QueryPayload:
		switch p := payload.(type) {
		case events.QueryPayload:
			*dst = p
			return nil
		case *events.QueryPayload:
			*dst = *p
			return nil
		case string:
			dst.Query = p
			return nil
		}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
