package clickhouse

import (
	"Go2FlowCount/internal/engine/bins"
	"Go2FlowCount/internal/engine/counter"
	"testing"
	"time"
)

func TestRows_SkipsEmptyBins(t *testing.T) {
	res := counter.Result{
		Scheme: "start",
		Series: bins.Snapshot{
			WindowMin: 60000,
			Size:      30000,
			Bins: []bins.Bin{
				{},
				{Flows: 2, Bytes: 300, Packets: 4},
				{},
				{Flows: 1, Bytes: 10, Packets: 1},
			},
		},
	}

	rows := Rows(res)
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if want := time.UnixMilli(90000).UTC(); !rows[0].BinStart.Equal(want) {
		t.Errorf("Expected first row at %v, got %v", want, rows[0].BinStart)
	}
	if want := time.UnixMilli(150000).UTC(); !rows[1].BinStart.Equal(want) {
		t.Errorf("Expected second row at %v, got %v", want, rows[1].BinStart)
	}
	if rows[0].Bytes != 300 || rows[0].BinSize != 30000 {
		t.Errorf("Unexpected first row: %+v", rows[0])
	}
}
