package manager

import (
	"Go2FlowCount/internal/config"
	"Go2FlowCount/internal/model"
	"Go2FlowCount/internal/probe"
	"Go2FlowCount/internal/source/clickhouse"
	"Go2FlowCount/internal/source/text"
	"Go2FlowCount/pkg/pcap"
	"context"
	"fmt"
	"time"
)

// OpenSource opens the record source selected by cfg.Input.
func OpenSource(ctx context.Context, cfg config.InputConfig) (model.RecordSource, error) {
	switch cfg.Type {
	case "", "text":
		return text.Open(cfg.Path, cfg.Delimiter)
	case "pcap":
		var timeout time.Duration
		if cfg.FlowTimeout != "" {
			d, err := time.ParseDuration(cfg.FlowTimeout)
			if err != nil {
				return nil, fmt.Errorf("invalid flow_timeout: %w", err)
			}
			timeout = d
		}
		return pcap.NewReader(cfg.Path, timeout)
	case "nats":
		return probe.NewSubscriber(ctx, cfg.NATS)
	case "clickhouse":
		return clickhouse.NewSource(ctx, cfg.ClickHouse)
	}
	return nil, fmt.Errorf("unknown input type: %q", cfg.Type)
}
