package report

import (
	"Go2FlowCount/internal/engine/bins"
	"Go2FlowCount/internal/engine/scheme"
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// Column widths of the numeric columns.
const (
	indexWidth   = 10
	flowsWidth   = 10
	bytesWidth   = 20
	packetsWidth = 17
)

// Options controls the layout of the report table.
type Options struct {
	Labels           LabelMode
	TimeFormat       TimeFormat
	Millis           bool // always print milliseconds in timestamp labels
	SkipZeroes       bool
	Delimiter        string
	NoColumns        bool
	NoFinalDelimiter bool
	NoTitles         bool
}

// Renderer prints a finished bin store as a text table with one row per bin.
type Renderer struct {
	w    io.Writer
	opts Options
}

// New creates a Renderer writing to w.
func New(w io.Writer, opts Options) *Renderer {
	if opts.Delimiter == "" {
		opts.Delimiter = "|"
	}
	return &Renderer{w: w, opts: opts}
}

// Render prints the title row and every visible bin of st. A nil store
// prints the title only.
func (r *Renderer) Render(st *bins.Store, rng scheme.Range) error {
	bw := bufio.NewWriter(r.w)

	millis := r.opts.Millis
	if st != nil && st.Size()%1000 != 0 {
		millis = true
	}
	labelW := indexWidth
	labelTitle := "Bin"
	if r.opts.Labels == LabelTimestamp {
		labelW = labelWidth(r.opts.TimeFormat, millis)
		labelTitle = "Date"
	}

	if !r.opts.NoTitles {
		r.writeRow(bw, labelW, labelTitle, "Records", "Bytes", "Packets")
	}

	if st != nil {
		start, end, ok := VisibleRange(st, rng)
		_, explicitEnd := st.IndexOf(rng.End)
		explicitEnd = explicitEnd && rng.HasEnd
		for i := start; ok && i < end; i++ {
			forced := (rng.HasStart && i == start) || (explicitEnd && i == end-1)
			var b bins.Bin
			if i >= 0 && i < st.Count() {
				b = st.Bin(i)
			}
			if r.opts.SkipZeroes && b.Flows == 0 && !forced {
				continue
			}

			label := strconv.Itoa(i)
			if r.opts.Labels == LabelTimestamp {
				label = FormatTime(st.BinStart(i), r.opts.TimeFormat, millis)
			}
			r.writeRow(bw, labelW, label,
				strconv.FormatFloat(b.Flows, 'f', 2, 64),
				strconv.FormatFloat(b.Bytes, 'f', 2, 64),
				strconv.FormatFloat(b.Packets, 'f', 2, 64))
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func (r *Renderer) writeRow(w *bufio.Writer, labelW int, label, flows, bytes, packets string) {
	widths := [4]int{labelW, flowsWidth, bytesWidth, packetsWidth}
	if r.opts.NoColumns {
		widths = [4]int{}
	}
	for i, col := range [4]string{label, flows, bytes, packets} {
		fmt.Fprintf(w, "%*s", widths[i], col)
		if i < 3 || !r.opts.NoFinalDelimiter {
			w.WriteString(r.opts.Delimiter)
		}
	}
	w.WriteByte('\n')
}

// VisibleRange returns the bins [start, end) to print. An explicit start
// selects its own bin; otherwise the range begins at the first bin holding
// bytes. An explicit end inside the window selects its own bin; otherwise the
// range stops after the last bin holding bytes. Bins at explicit boundaries
// are printed even when empty. ok is false when there is nothing to print.
func VisibleRange(st *bins.Store, rng scheme.Range) (start, end int, ok bool) {
	count := st.Count()

	if rng.HasStart {
		start = int(st.GridIndex(rng.Start))
	} else {
		start = -1
		for i := 0; i < count; i++ {
			if st.Bin(i).Bytes != 0 {
				start = i
				break
			}
		}
		if start < 0 {
			return 0, 0, false
		}
	}

	if i, in := st.IndexOf(rng.End); rng.HasEnd && in {
		end = i + 1
	} else {
		end = -1
		for i := count - 1; i >= start && i >= 0; i-- {
			if st.Bin(i).Bytes != 0 {
				end = i + 1
				break
			}
		}
		if end < 0 {
			if !rng.HasStart {
				return 0, 0, false
			}
			end = start + 1
		}
	}

	if end <= start {
		return 0, 0, false
	}
	return start, end, true
}
