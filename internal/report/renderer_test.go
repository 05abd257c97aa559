package report

import (
	"Go2FlowCount/internal/engine/bins"
	"Go2FlowCount/internal/engine/scheme"
	"fmt"
	"strings"
	"testing"
)

func render(t *testing.T, st *bins.Store, rng scheme.Range, opts Options) string {
	t.Helper()
	var sb strings.Builder
	if err := New(&sb, opts).Render(st, rng); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	return sb.String()
}

func storeWith(t *testing.T, vals map[int]bins.Bin) *bins.Store {
	t.Helper()
	st, err := bins.NewAt(0, 1000)
	if err != nil {
		t.Fatalf("NewAt failed: %v", err)
	}
	for i, b := range vals {
		*st.At(i) = b
	}
	return st
}

func TestRender_IndexLabels(t *testing.T) {
	st := storeWith(t, map[int]bins.Bin{
		0: {Flows: 0.25, Bytes: 50, Packets: 0.5},
		1: {Flows: 0.5, Bytes: 100, Packets: 1},
		2: {Flows: 0.25, Bytes: 50, Packets: 0.5},
	})
	got := render(t, st, scheme.Range{}, Options{Labels: LabelIndex, NoColumns: true})
	want := "Bin|Records|Bytes|Packets|\n" +
		"0|0.25|50.00|0.50|\n" +
		"1|0.50|100.00|1.00|\n" +
		"2|0.25|50.00|0.50|\n"
	if got != want {
		t.Errorf("Unexpected report:\n%s\nwant:\n%s", got, want)
	}
}

func TestRender_VisibleRangeAndSkipZeroes(t *testing.T) {
	st := storeWith(t, map[int]bins.Bin{
		3: {Flows: 1, Bytes: 10, Packets: 1},
		7: {Flows: 2, Bytes: 20, Packets: 2},
	})
	start, end, ok := VisibleRange(st, scheme.Range{})
	if !ok || start != 3 || end != 8 {
		t.Fatalf("VisibleRange = %d, %d, %v; want 3, 8, true", start, end, ok)
	}

	opts := Options{Labels: LabelIndex, NoColumns: true, NoTitles: true}
	if n := strings.Count(render(t, st, scheme.Range{}, opts), "\n"); n != 5 {
		t.Errorf("Expected 5 rows, got %d", n)
	}

	opts.SkipZeroes = true
	got := render(t, st, scheme.Range{}, opts)
	want := "3|1.00|10.00|1.00|\n7|2.00|20.00|2.00|\n"
	if got != want {
		t.Errorf("Unexpected report:\n%s\nwant:\n%s", got, want)
	}
}

func TestRender_ExplicitBoundsAreForced(t *testing.T) {
	st, err := bins.NewExact(0, 9999, 1000)
	if err != nil {
		t.Fatalf("NewExact failed: %v", err)
	}
	*st.At(4) = bins.Bin{Flows: 1, Bytes: 5, Packets: 1}
	rng := scheme.Range{Start: 0, End: 9999, HasStart: true, HasEnd: true}

	start, end, ok := VisibleRange(st, rng)
	if !ok || start != 0 || end != 10 {
		t.Fatalf("VisibleRange = %d, %d, %v; want 0, 10, true", start, end, ok)
	}

	opts := Options{Labels: LabelIndex, NoColumns: true, NoTitles: true, SkipZeroes: true}
	got := render(t, st, rng, opts)
	want := "0|0.00|0.00|0.00|\n4|1.00|5.00|1.00|\n9|0.00|0.00|0.00|\n"
	if got != want {
		t.Errorf("Unexpected report:\n%s\nwant:\n%s", got, want)
	}
}

func TestVisibleRange_Empty(t *testing.T) {
	st := storeWith(t, nil)
	if _, _, ok := VisibleRange(st, scheme.Range{}); ok {
		t.Error("An empty store without bounds should have nothing visible")
	}
	start, end, ok := VisibleRange(st, scheme.Range{Start: 5000, HasStart: true})
	if !ok || start != 5 || end != 6 {
		t.Errorf("VisibleRange = %d, %d, %v; want 5, 6, true", start, end, ok)
	}
}

func TestRender_TitleOnly(t *testing.T) {
	opts := Options{Labels: LabelIndex, NoColumns: true}
	want := "Bin|Records|Bytes|Packets|\n"
	if got := render(t, nil, scheme.Range{}, opts); got != want {
		t.Errorf("nil store: got %q, want %q", got, want)
	}
	if got := render(t, storeWith(t, nil), scheme.Range{}, opts); got != want {
		t.Errorf("empty store: got %q, want %q", got, want)
	}
}

func TestRender_Columns(t *testing.T) {
	st := storeWith(t, map[int]bins.Bin{0: {Flows: 1, Bytes: 1500, Packets: 3}})
	got := render(t, st, scheme.Range{}, Options{Labels: LabelIndex})
	want := fmt.Sprintf("%10s|%10s|%20s|%17s|\n", "Bin", "Records", "Bytes", "Packets") +
		fmt.Sprintf("%10s|%10s|%20s|%17s|\n", "0", "1.00", "1500.00", "3.00")
	if got != want {
		t.Errorf("Unexpected report:\n%q\nwant:\n%q", got, want)
	}
}

func TestRender_DelimiterOptions(t *testing.T) {
	st := storeWith(t, map[int]bins.Bin{0: {Flows: 1, Bytes: 2, Packets: 3}})
	opts := Options{Labels: LabelIndex, NoColumns: true, Delimiter: ",", NoFinalDelimiter: true}
	want := "Bin,Records,Bytes,Packets\n0,1.00,2.00,3.00\n"
	if got := render(t, st, scheme.Range{}, opts); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRender_TimestampLabels(t *testing.T) {
	st := storeWith(t, map[int]bins.Bin{1: {Flows: 1, Bytes: 2, Packets: 3}})
	got := render(t, st, scheme.Range{}, Options{NoColumns: true})
	want := "Date|Records|Bytes|Packets|\n1970/01/01T00:00:01|1.00|2.00|3.00|\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	// Sub-second bins force milliseconds.
	st, err := bins.NewAt(0, 1500)
	if err != nil {
		t.Fatalf("NewAt failed: %v", err)
	}
	*st.At(1) = bins.Bin{Flows: 1, Bytes: 2, Packets: 3}
	got = render(t, st, scheme.Range{}, Options{NoColumns: true, NoTitles: true, TimeFormat: TimeISO})
	if want := "1970-01-01 00:00:01.500|1.00|2.00|3.00|\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatTime(t *testing.T) {
	cases := []struct {
		t      int64
		f      TimeFormat
		millis bool
		want   string
	}{
		{1_700_000_000_000, TimeDefault, false, "2023/11/14T22:13:20"},
		{1_700_000_000_250, TimeISO, true, "2023-11-14 22:13:20.250"},
		{1_700_000_000_250, TimeEpoch, false, "1700000000"},
		{1_700_000_000_250, TimeEpoch, true, "1700000000.250"},
		{-1, TimeEpoch, false, "-1"},
		{-1, TimeEpoch, true, "-1.999"},
	}
	for _, c := range cases {
		if got := FormatTime(c.t, c.f, c.millis); got != c.want {
			t.Errorf("FormatTime(%d, %d, %v) = %q, want %q", c.t, c.f, c.millis, got, c.want)
		}
	}
}

func TestParseOptions(t *testing.T) {
	if m, err := ParseLabelMode("INDEX"); err != nil || m != LabelIndex {
		t.Errorf("ParseLabelMode(INDEX) = %v, %v", m, err)
	}
	if _, err := ParseLabelMode("row"); err == nil {
		t.Error("Expected error for unknown label mode")
	}
	if f, err := ParseTimeFormat("epoch"); err != nil || f != TimeEpoch {
		t.Errorf("ParseTimeFormat(epoch) = %v, %v", f, err)
	}
	if _, err := ParseTimeFormat("unix"); err == nil {
		t.Error("Expected error for unknown time format")
	}
}
