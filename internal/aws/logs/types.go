package logs

import (
	"fmt"
	"strings"
	"time"
)

// LogEvent represents a single CloudWatch log event.
type LogEvent struct {
	Timestamp time.Time
	Message   string
}

// Line formats the event for terminal output.
func (e LogEvent) Line() string {
	return fmt.Sprintf("%s  %s", e.Timestamp.UTC().Format(time.RFC3339), strings.TrimRight(e.Message, "\n"))
}
