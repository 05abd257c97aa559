package probe

import (
	"Go2FlowCount/internal/model"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the FlowRecord message:
//
//	message FlowRecord {
//	  sint64 start_time = 1;
//	  sint64 end_time   = 2;
//	  uint64 bytes      = 3;
//	  uint64 packets    = 4;
//	}
const (
	fieldStartTime protowire.Number = 1
	fieldEndTime   protowire.Number = 2
	fieldBytes     protowire.Number = 3
	fieldPackets   protowire.Number = 4
)

// MarshalRecord encodes rec in protobuf wire format.
func MarshalRecord(rec *model.FlowRecord) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldStartTime, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(rec.StartTime))
	b = protowire.AppendTag(b, fieldEndTime, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(rec.EndTime))
	b = protowire.AppendTag(b, fieldBytes, protowire.VarintType)
	b = protowire.AppendVarint(b, rec.Bytes)
	b = protowire.AppendTag(b, fieldPackets, protowire.VarintType)
	b = protowire.AppendVarint(b, rec.Packets)
	return b
}

// UnmarshalRecord decodes a FlowRecord message. Unknown fields are skipped.
func UnmarshalRecord(b []byte) (*model.FlowRecord, error) {
	rec := &model.FlowRecord{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("invalid tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		if typ != protowire.VarintType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("invalid field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}

		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return nil, fmt.Errorf("invalid varint in field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]
		switch num {
		case fieldStartTime:
			rec.StartTime = protowire.DecodeZigZag(v)
		case fieldEndTime:
			rec.EndTime = protowire.DecodeZigZag(v)
		case fieldBytes:
			rec.Bytes = v
		case fieldPackets:
			rec.Packets = v
		}
	}
	if rec.EndTime < rec.StartTime {
		return nil, fmt.Errorf("end time %d before start time %d", rec.EndTime, rec.StartTime)
	}
	return rec, nil
}
