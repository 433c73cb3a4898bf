// Package performance provides lightweight operation timing markers used by
// the collector's ingest path.
package performance

import "time"

// Marker represents a single performance measurement for an operation.
type Marker struct {
	Operation string         `json:"operation"` // e.g., "collector:ingest"
	StartTime time.Time      `json:"startTime"`
	EndTime   time.Time      `json:"endTime"`
	Duration  time.Duration  `json:"duration"`
	Success   bool           `json:"success"`
	Error     string         `json:"error,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Completed bool           `json:"completed"`
}

// StartMarker begins timing an operation.
func StartMarker(operation string) *Marker {
	return &Marker{Operation: operation, StartTime: time.Now(), Success: true}
}

// Complete marks the operation as finished and calculates final metrics.
func (m *Marker) Complete() {
	if m.Completed {
		return // Prevent double completion
	}
	m.EndTime = time.Now()
	m.Duration = m.EndTime.Sub(m.StartTime)
	m.Completed = true
}

// SetError records an error message and marks the operation as failed.
func (m *Marker) SetError(err error) {
	if err != nil {
		m.Error = err.Error()
		m.Success = false
	}
}

// AddMetadata adds key-value metadata to the marker.
func (m *Marker) AddMetadata(key string, value any) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]any)
	}
	m.Metadata[key] = value
}
