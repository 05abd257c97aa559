package bins

import "fmt"

// Restore rebuilds a store holding a copy of the snapshot's bins. The
// restored store has no upper bound.
func (sn Snapshot) Restore() (*Store, error) {
	s, err := newStore(sn.WindowMin, sn.Size, nil)
	if err != nil {
		return nil, err
	}
	if !s.fits(int64(len(sn.Bins))) {
		return nil, fmt.Errorf("snapshot of %d bins from %d overflows the time range", len(sn.Bins), sn.WindowMin)
	}
	s.bins = make([]Bin, len(sn.Bins))
	copy(s.bins, sn.Bins)
	return s, nil
}

// Totals sums every bin of the snapshot.
func (sn Snapshot) Totals() Bin {
	var t Bin
	for _, b := range sn.Bins {
		t.Flows += b.Flows
		t.Bytes += b.Bytes
		t.Packets += b.Packets
	}
	return t
}
