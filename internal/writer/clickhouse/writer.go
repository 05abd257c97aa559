package clickhouse

import (
	"Go2FlowCount/internal/config"
	"Go2FlowCount/internal/engine/counter"
	"Go2FlowCount/internal/factory"
	"Go2FlowCount/internal/model"
	"Go2FlowCount/internal/report"
	source "Go2FlowCount/internal/source/clickhouse"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

func init() {
	factory.RegisterWriter("clickhouse", func(def config.WriterDef, _ report.Options) (model.Writer, error) {
		return NewWriter(def.ClickHouse)
	})
}

const createTableStatement = `
CREATE TABLE IF NOT EXISTS bin_counts (
    Timestamp   DateTime,
    LoadScheme  String,
    BinStart    DateTime64(3),
    BinSize     Int64,
    Flows       Float64,
    Bytes       Float64,
    Packets     Float64
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(BinStart)
ORDER BY (LoadScheme, BinStart);
`

// Row is one bin as stored in bin_counts.
type Row struct {
	BinStart time.Time
	BinSize  int64
	Flows    float64
	Bytes    float64
	Packets  float64
}

// Writer inserts finished series into the ClickHouse bin_counts table.
type Writer struct {
	conn driver.Conn
}

// NewWriter creates a new ClickHouse writer.
func NewWriter(cfg config.ClickHouseConfig) (*Writer, error) {
	conn, err := source.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	if err := conn.Exec(context.Background(), createTableStatement); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	log.Println("Successfully connected to ClickHouse and ensured table exists.")

	return &Writer{conn: conn}, nil
}

// Name returns the writer type.
func (w *Writer) Name() string {
	return "clickhouse"
}

// Write inserts every non-empty bin of the series.
func (w *Writer) Write(payload interface{}, timestamp string) error {
	res, ok := payload.(counter.Result)
	if !ok {
		return fmt.Errorf("invalid payload type for ClickHouse Writer: expected counter.Result, got %T", payload)
	}

	rows := Rows(res)
	if len(rows) == 0 {
		return nil // Nothing to write
	}

	batch, err := w.conn.PrepareBatch(context.Background(), "INSERT INTO bin_counts")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	snapshotTime, _ := time.Parse("2006-01-02_15-04-05", timestamp)
	for _, row := range rows {
		err = batch.Append(snapshotTime, res.Scheme, row.BinStart, row.BinSize, row.Flows, row.Bytes, row.Packets)
		if err != nil {
			return fmt.Errorf("failed to append bin to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	log.Printf("Wrote %d bins to ClickHouse for load scheme '%s'", len(rows), res.Scheme)
	return nil
}

// Rows converts the non-empty bins of a result to table rows.
func Rows(res counter.Result) []Row {
	var rows []Row
	for i, b := range res.Series.Bins {
		if b.Flows == 0 {
			continue
		}
		start := res.Series.WindowMin + int64(i)*res.Series.Size
		rows = append(rows, Row{
			BinStart: time.UnixMilli(start).UTC(),
			BinSize:  res.Series.Size,
			Flows:    b.Flows,
			Bytes:    b.Bytes,
			Packets:  b.Packets,
		})
	}
	return rows
}

// Close closes the connection.
func (w *Writer) Close() error {
	return w.conn.Close()
}
