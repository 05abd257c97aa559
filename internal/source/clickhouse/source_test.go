package clickhouse

import (
	"Go2FlowCount/internal/model"
	"errors"
	"testing"
	"time"
)

func TestToRecord(t *testing.T) {
	first := time.Date(2025, 9, 12, 15, 10, 0, 0, time.UTC)
	rec, err := toRecord(first, first.Add(90*time.Second), 1500, 3)
	if err != nil {
		t.Fatalf("toRecord failed: %v", err)
	}
	if rec.StartTime != first.UnixMilli() {
		t.Errorf("Expected start %d, got %d", first.UnixMilli(), rec.StartTime)
	}
	if rec.Elapsed() != 90000 {
		t.Errorf("Expected 90000 ms elapsed, got %d", rec.Elapsed())
	}
	if rec.Bytes != 1500 || rec.Packets != 3 {
		t.Errorf("Unexpected counters: %+v", *rec)
	}
}

func TestToRecord_RejectsReversedTimes(t *testing.T) {
	first := time.Date(2025, 9, 12, 15, 10, 0, 0, time.UTC)
	rec, err := toRecord(first, first.Add(-time.Second), 1, 1)
	if !errors.Is(err, model.ErrBadRecord) {
		t.Errorf("Expected ErrBadRecord, got %v", err)
	}
	if rec != nil {
		t.Errorf("Expected no record, got %+v", *rec)
	}

	if _, err := toRecord(first, first, 1, 1); err != nil {
		t.Errorf("A zero-length flow should be accepted, got %v", err)
	}
}
