package pcap

import (
	"Go2FlowCount/internal/engine/protocol"
	"Go2FlowCount/internal/model"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcapgo"
)

// DefaultFlowTimeout ends a flow after this long without a packet.
const DefaultFlowTimeout = 30 * time.Second

type flow struct {
	start, end time.Time
	bytes      uint64
	packets    uint64
}

// Reader assembles the packets of a pcap capture into flow records keyed by
// 5-tuple. A flow is emitted once it has been idle for the flow timeout,
// measured in capture time, or when the capture ends.
type Reader struct {
	file    *os.File
	source  *gopacket.PacketSource
	timeout time.Duration

	active    map[string]*flow
	ready     []*model.FlowRecord
	lastSweep time.Time
	done      bool
	skipped   int
}

// NewReader creates a new pcap reader for the given file path.
func NewReader(filePath string, timeout time.Duration) (*Reader, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open pcap file: %w", err)
	}
	r, err := newReader(f, timeout)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.file = f
	return r, nil
}

func newReader(in io.Reader, timeout time.Duration) (*Reader, error) {
	pr, err := pcapgo.NewReader(in)
	if err != nil {
		return nil, fmt.Errorf("failed to read pcap header: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultFlowTimeout
	}
	return &Reader{
		source:  gopacket.NewPacketSource(pr, pr.LinkType()),
		timeout: timeout,
		active:  make(map[string]*flow),
	}, nil
}

// Close closes the capture file.
func (r *Reader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// Skipped returns the number of packets that could not be attributed to a flow.
func (r *Reader) Skipped() int {
	return r.skipped
}

// Next returns the next finished flow.
func (r *Reader) Next() (*model.FlowRecord, error) {
	for len(r.ready) == 0 {
		if r.done {
			return nil, io.EOF
		}
		if err := r.readPacket(); err != nil {
			return nil, err
		}
	}
	rec := r.ready[0]
	r.ready = r.ready[1:]
	return rec, nil
}

func (r *Reader) readPacket() error {
	packet, err := r.source.NextPacket()
	if errors.Is(err, io.EOF) {
		r.flush(func(*flow) bool { return true })
		r.done = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read packet: %w", err)
	}

	info, err := protocol.ParsePacket(packet)
	if err != nil {
		r.skipped++
		return nil
	}

	key := info.FiveTuple.Key()
	if f, ok := r.active[key]; ok && info.Timestamp.Sub(f.end) <= r.timeout {
		if info.Timestamp.After(f.end) {
			f.end = info.Timestamp
		}
		if info.Timestamp.Before(f.start) {
			f.start = info.Timestamp
		}
		f.packets++
		f.bytes += uint64(info.Length)
	} else {
		if ok {
			r.emit(f)
		}
		r.active[key] = &flow{start: info.Timestamp, end: info.Timestamp, packets: 1, bytes: uint64(info.Length)}
	}

	if info.Timestamp.Sub(r.lastSweep) > r.timeout {
		now := info.Timestamp
		r.flush(func(f *flow) bool { return now.Sub(f.end) > r.timeout })
		r.lastSweep = now
	}
	return nil
}

// flush emits every active flow matching expired, oldest first.
func (r *Reader) flush(expired func(*flow) bool) {
	var out []*flow
	for key, f := range r.active {
		if expired(f) {
			out = append(out, f)
			delete(r.active, key)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].start.Before(out[j].start) })
	for _, f := range out {
		r.emit(f)
	}
}

func (r *Reader) emit(f *flow) {
	r.ready = append(r.ready, &model.FlowRecord{
		StartTime: f.start.UnixMilli(),
		EndTime:   f.end.UnixMilli(),
		Bytes:     f.bytes,
		Packets:   f.packets,
	})
}
