package model

// RecordSource yields flow records one at a time.
//
// Next returns io.EOF once the stream is exhausted. An error wrapping
// ErrBadRecord means only the current record was unusable; any other error
// terminates the stream.
type RecordSource interface {
	Next() (*FlowRecord, error)
	Close() error
}
