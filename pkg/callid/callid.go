// Package callid parses the composite call identifiers the video
// provider puts in webhook payloads. A call cid has the form
// "namespace:meetingID", e.g. "default:2f4a...". Malformed composites
// are rejected instead of silently yielding an empty meeting id.
package callid

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// CallID is a parsed composite call identifier
type CallID struct {
	Namespace string
	MeetingID uuid.UUID
}

// Parse splits and validates a composite call identifier
func Parse(cid string) (CallID, error) {
	parts := strings.SplitN(cid, ":", 2)
	if len(parts) != 2 {
		return CallID{}, fmt.Errorf("malformed call cid %q: expected namespace:meetingID", cid)
	}
	if parts[0] == "" {
		return CallID{}, fmt.Errorf("malformed call cid %q: empty namespace", cid)
	}
	if parts[1] == "" {
		return CallID{}, fmt.Errorf("malformed call cid %q: empty meeting id", cid)
	}

	meetingID, err := uuid.Parse(parts[1])
	if err != nil {
		return CallID{}, fmt.Errorf("malformed call cid %q: %w", cid, err)
	}

	return CallID{Namespace: parts[0], MeetingID: meetingID}, nil
}

// String reassembles the composite form
func (c CallID) String() string {
	return c.Namespace + ":" + c.MeetingID.String()
}
