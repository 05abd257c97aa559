package clickhouse

import (
	"Go2FlowCount/internal/config"
	"Go2FlowCount/internal/model"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// flowQuery collapses the periodic snapshots of flow_metrics into one row per
// flow, keeping the latest counters.
const flowQuery = `
	SELECT
		min(StartTime) AS FirstSeen,
		max(EndTime) AS LastSeen,
		argMax(ByteCount, Timestamp) AS Bytes,
		argMax(PacketCount, Timestamp) AS Packets
	FROM flow_metrics
	WHERE TaskName = ?
	GROUP BY SrcIP, DstIP, SrcPort, DstPort, Protocol
`

// Source reads flow records from the flow_metrics table.
type Source struct {
	conn driver.Conn
	rows driver.Rows
}

// NewSource connects to ClickHouse and starts the flow query.
func NewSource(ctx context.Context, cfg config.ClickHouseConfig) (*Source, error) {
	conn, err := Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	rows, err := conn.Query(ctx, flowQuery, cfg.TaskName)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return &Source{conn: conn, rows: rows}, nil
}

// Connect opens and pings a ClickHouse connection.
func Connect(cfg config.ClickHouseConfig) (driver.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}
	return conn, nil
}

// Next returns the next flow.
func (s *Source) Next() (*model.FlowRecord, error) {
	if !s.rows.Next() {
		if err := s.rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to iterate flows: %w", err)
		}
		return nil, io.EOF
	}
	var (
		firstSeen, lastSeen time.Time
		bytes, packets      uint64
	)
	if err := s.rows.Scan(&firstSeen, &lastSeen, &bytes, &packets); err != nil {
		return nil, fmt.Errorf("%w: failed to scan flow: %v", model.ErrBadRecord, err)
	}
	return toRecord(firstSeen, lastSeen, bytes, packets)
}

func toRecord(firstSeen, lastSeen time.Time, bytes, packets uint64) (*model.FlowRecord, error) {
	rec := &model.FlowRecord{
		StartTime: firstSeen.UnixMilli(),
		EndTime:   lastSeen.UnixMilli(),
		Bytes:     bytes,
		Packets:   packets,
	}
	if rec.EndTime < rec.StartTime {
		return nil, fmt.Errorf("%w: flow ends at %d before it starts at %d", model.ErrBadRecord, rec.EndTime, rec.StartTime)
	}
	return rec, nil
}

// Close releases the result set and the connection.
func (s *Source) Close() error {
	s.rows.Close()
	return s.conn.Close()
}
