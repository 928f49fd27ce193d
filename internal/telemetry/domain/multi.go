package telemetry

import "context"

// MultiRecorder fans a record out to several recorders.
type MultiRecorder struct {
	recorders []Recorder
}

// NewMultiRecorder creates a recorder that writes to all given recorders.
func NewMultiRecorder(recorders ...Recorder) *MultiRecorder {
	return &MultiRecorder{recorders: recorders}
}

// Append writes the record to every recorder and returns the first error.
func (m *MultiRecorder) Append(ctx context.Context, rec Record) error {
	var firstErr error
	for _, r := range m.recorders {
		if err := r.Append(ctx, rec); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
