package model

import "errors"

// ErrBadRecord marks a record-level error. Consumers skip the record and
// keep reading from the same source.
var ErrBadRecord = errors.New("bad flow record")

// FlowRecord is one summarized network conversation.
// Times are milliseconds since the UNIX epoch.
type FlowRecord struct {
	StartTime int64
	EndTime   int64
	Bytes     uint64
	Packets   uint64
}

// Elapsed returns the duration of the flow in milliseconds.
func (r *FlowRecord) Elapsed() int64 {
	return r.EndTime - r.StartTime
}
