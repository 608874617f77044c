// Package webhook declares the payload shapes delivered by the video
// provider. Each event is unmarshalled a second time from the raw body
// after the envelope's type field has been dispatched.
package webhook

// Envelope carries only the discriminator; the concrete payload is
// decoded per type.
type Envelope struct {
	Type string `json:"type" validate:"required"`
}

// Event type discriminators
const (
	EventSessionStarted     = "call.session_started"
	EventParticipantLeft    = "call.session_participant_left"
	EventSessionEnded       = "call.session_ended"
	EventTranscriptionReady = "call.transcription_ready"
	EventRecordingReady     = "call.recording_ready"
)

// CallInfo is the embedded call object; the meeting id travels in the
// caller-supplied custom map set at call creation.
type CallInfo struct {
	CID    string                 `json:"cid"`
	Custom map[string]interface{} `json:"custom"`
}

// MeetingID extracts the custom meetingId, returning "" when absent or
// not a string.
func (c CallInfo) MeetingID() string {
	v, ok := c.Custom["meetingId"]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// SessionStartedEvent announces that the first participant joined
type SessionStartedEvent struct {
	Type string   `json:"type"`
	Call CallInfo `json:"call" validate:"required"`
}

// ParticipantLeftEvent announces that a participant disconnected. Only
// the composite call id is delivered.
type ParticipantLeftEvent struct {
	Type    string `json:"type"`
	CallCID string `json:"call_cid" validate:"required"`
}

// SessionEndedEvent announces that the call finished
type SessionEndedEvent struct {
	Type string   `json:"type"`
	Call CallInfo `json:"call" validate:"required"`
}

// TranscriptionArtifact points at the finished transcript blob
type TranscriptionArtifact struct {
	URL string `json:"url" validate:"required"`
}

// TranscriptionReadyEvent announces that the provider finished
// rendering the call transcript.
type TranscriptionReadyEvent struct {
	Type          string                `json:"type"`
	CallCID       string                `json:"call_cid" validate:"required"`
	Transcription TranscriptionArtifact `json:"call_transcription" validate:"required"`
}

// RecordingArtifact points at the finished recording blob
type RecordingArtifact struct {
	URL string `json:"url" validate:"required"`
}

// RecordingReadyEvent announces that the provider finished rendering
// the call recording.
type RecordingReadyEvent struct {
	Type      string            `json:"type"`
	CallCID   string            `json:"call_cid" validate:"required"`
	Recording RecordingArtifact `json:"call_recording" validate:"required"`
}
