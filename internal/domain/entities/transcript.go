package entities

// TranscriptItem is one time-stamped utterance from the provider's
// newline-delimited JSON transcript blob. Order is call-chronological
// and must be preserved through the pipeline.
type TranscriptItem struct {
	SpeakerID string   `json:"speaker_id"`
	StartTs   float64  `json:"start_ts"`
	EndTs     *float64 `json:"end_ts,omitempty"`
	Text      string   `json:"text"`
	Language  *string  `json:"language,omitempty"`
}

// Speaker is the resolved identity attached to a transcript item
type Speaker struct {
	Name  string  `json:"name"`
	Image *string `json:"image,omitempty"`
}

// UnknownSpeakerName labels identifiers that resolve to neither the
// user nor the agent namespace.
const UnknownSpeakerName = "Unknown Speaker"

// EnrichedTranscriptItem is a TranscriptItem with its speaker resolved
type EnrichedTranscriptItem struct {
	TranscriptItem
	Speaker Speaker `json:"user"`
}
