package workflow

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/meetingloop/backend/internal/domain/entities"
)

// ParseTranscript decodes a JSONL transcript, one utterance per line,
// preserving line order. Blank lines are skipped; any line that is not
// a valid JSON object is an error, the document is rejected rather
// than partially parsed.
func ParseTranscript(raw string) ([]entities.TranscriptItem, error) {
	items := make([]entities.TranscriptItem, 0, 64)

	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var item entities.TranscriptItem
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			return nil, fmt.Errorf("transcript line %d: %w", lineNo, err)
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}

	return items, nil
}
