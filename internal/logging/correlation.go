package logging

import "github.com/google/uuid"

// NewCorrelationID generates an opaque id for tagging a batch of related
// log lines (e.g. one stdin line ingested by serve, one CLI send).
func NewCorrelationID() string {
	return uuid.New().String()
}
