package text

import (
	"Go2FlowCount/internal/config"
	"Go2FlowCount/internal/engine/bins"
	"Go2FlowCount/internal/engine/counter"
	"Go2FlowCount/internal/factory"
	"Go2FlowCount/internal/model"
	"Go2FlowCount/internal/report"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

func init() {
	factory.RegisterWriter("text", func(def config.WriterDef, opts report.Options) (model.Writer, error) {
		if def.Text.RootPath == "" {
			return nil, fmt.Errorf("text writer needs a root_path")
		}
		return NewWriter(def.Text.RootPath, opts), nil
	})
}

// ReportFile is the name of the rendered table inside a snapshot directory.
const ReportFile = "report.txt"

// Writer renders a finished series to a text file.
type Writer struct {
	rootPath string
	opts     report.Options
}

// NewWriter creates a new text writer.
func NewWriter(rootPath string, opts report.Options) *Writer {
	return &Writer{rootPath: rootPath, opts: opts}
}

// Name returns the writer type.
func (w *Writer) Name() string {
	return "text"
}

// Write renders the payload, a counter.Result, to <root>/<timestamp>/report.txt.
func (w *Writer) Write(payload interface{}, timestamp string) error {
	res, ok := payload.(counter.Result)
	if !ok {
		return fmt.Errorf("invalid payload type for TextWriter: expected counter.Result, got %T", payload)
	}

	dir := filepath.Join(w.rootPath, timestamp)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	filePath := filepath.Join(dir, ReportFile)
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create report file '%s': %w", filePath, err)
	}
	defer file.Close()

	var store *bins.Store
	if len(res.Series.Bins) > 0 {
		if store, err = res.Series.Restore(); err != nil {
			return fmt.Errorf("failed to restore series: %w", err)
		}
	}
	if err := report.New(file, w.opts).Render(store, res.Range); err != nil {
		return err
	}

	log.Printf("Successfully wrote report to %s", filePath)
	return nil
}
