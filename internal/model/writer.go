package model

// Writer defines a generic interface for persisting a finished bin series.
type Writer interface {
	// Write takes a data payload and persists it.
	// The implementation is expected to know how to handle the payload type it receives.
	Write(payload interface{}, timestamp string) error

	// Name returns the registered writer type.
	Name() string
}
