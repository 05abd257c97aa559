package manager

import (
	"Go2FlowCount/internal/config"
	"Go2FlowCount/internal/source/text"
	textwriter "Go2FlowCount/internal/writer/text"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testConfig(root string) *config.Config {
	cfg := config.Default()
	cfg.Count.BinSize = "1s"
	cfg.Count.BinLabels = "index"
	cfg.Output.NoColumns = true
	cfg.Writers = []config.WriterDef{
		{Type: "text", Enabled: true, Text: config.TextConfig{RootPath: root}},
		{Type: "gob", Enabled: false},
	}
	return cfg
}

func TestManager_RunRenderFlush(t *testing.T) {
	root := t.TempDir()
	m, err := NewManager(testConfig(root))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	src, err := text.NewReader(strings.NewReader("500|2500|200|2\nbad|line|1|1\n"), "|")
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	if err := m.Run(src); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if read, skipped := m.Counter().Stats(); read != 1 || skipped != 1 {
		t.Errorf("Expected 1 read and 1 skipped, got %d and %d", read, skipped)
	}

	var sb strings.Builder
	if err := m.Render(&sb); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	rows := strings.Split(strings.TrimSpace(sb.String()), "\n")
	if len(rows) != 4 || rows[0] != "Bin|Records|Bytes|Packets|" || !strings.HasSuffix(rows[2], "|0.50|100.00|1.00|") {
		t.Errorf("Unexpected report:\n%s", sb.String())
	}

	if err := m.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	matches, err := filepath.Glob(filepath.Join(root, "*", textwriter.ReportFile))
	if err != nil || len(matches) != 1 {
		t.Fatalf("Expected one report file, got %v (%v)", matches, err)
	}
	written, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}
	if string(written) != sb.String() {
		t.Errorf("Written report differs from rendered one:\n%s\nvs\n%s", written, sb.String())
	}
}

func TestNewManager_UnknownWriter(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Writers = append(cfg.Writers, config.WriterDef{Type: "parquet", Enabled: true})
	if _, err := NewManager(cfg); err == nil {
		t.Error("Expected error for an unknown writer type")
	}
}

func TestNewCounter_Range(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Count.StartTime = "2024/03/01"
	cfg.Count.EndTime = "2024/03/01T00:01:00"
	c, err := NewCounter(cfg)
	if err != nil {
		t.Fatalf("NewCounter failed: %v", err)
	}
	rng := c.Range()
	if !rng.HasStart || !rng.HasEnd || rng.End-rng.Start != 60_000 {
		t.Errorf("Unexpected range %+v", rng)
	}
}

func TestOpenSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flows.txt")
	if err := os.WriteFile(path, []byte("0|1000|5|1\n"), 0644); err != nil {
		t.Fatalf("Failed to write records: %v", err)
	}
	src, err := OpenSource(context.Background(), config.InputConfig{Type: "text", Path: path, Delimiter: "|"})
	if err != nil {
		t.Fatalf("OpenSource failed: %v", err)
	}
	defer src.Close()
	if rec, err := src.Next(); err != nil || rec.Bytes != 5 {
		t.Errorf("Next() = %+v, %v", rec, err)
	}

	if _, err := OpenSource(context.Background(), config.InputConfig{Type: "kafka"}); err == nil {
		t.Error("Expected error for an unknown input type")
	}
}
