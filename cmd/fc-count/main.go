package main

import (
	"Go2FlowCount/internal/config"
	"Go2FlowCount/internal/engine/manager"
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file (optional).")
	binSize := flag.String("bin-size", "", "Bin width as a duration, e.g. 30s or 500ms.")
	loadScheme := flag.String("load-scheme", "", "How flows are spread over bins: start, end, middle, mean, duration, maximum, minimum.")
	startTime := flag.String("start-time", "", "First bin to print (YYYY/MM/DD[:HH[:MM[:SS[.sss]]]], RFC3339 or epoch ms).")
	endTime := flag.String("end-time", "", "Last bin to print.")
	binLabels := flag.String("bin-labels", "", "Row labels: timestamp or index.")
	tsFormat := flag.String("timestamp-format", "", "Timestamp labels: default, iso or epoch.")
	inputType := flag.String("input", "", "Record source: text, pcap, nats or clickhouse.")
	skipZeroes := flag.Bool("skip-zeroes", false, "Do not print bins without flows.")
	noTitles := flag.Bool("no-titles", false, "Do not print the title row.")
	noColumns := flag.Bool("no-columns", false, "Do not align columns.")
	noFinal := flag.Bool("no-final-delimiter", false, "Do not print a delimiter after the last column.")
	delimiter := flag.String("delimiter", "", "Column delimiter of the report.")
	output := flag.String("output-path", "", "Write the report to this file instead of stdout.")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: fc-count [flags] [record-file]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	// 1. Load configuration
	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		log.Println("Configuration loaded successfully.")
	}

	// 2. Apply command-line overrides
	override(&cfg.Count.BinSize, *binSize)
	override(&cfg.Count.LoadScheme, *loadScheme)
	override(&cfg.Count.StartTime, *startTime)
	override(&cfg.Count.EndTime, *endTime)
	override(&cfg.Count.BinLabels, *binLabels)
	override(&cfg.Count.TimestampFormat, *tsFormat)
	override(&cfg.Input.Type, *inputType)
	override(&cfg.Output.Delimiter, *delimiter)
	override(&cfg.Output.Path, *output)
	cfg.Count.SkipZeroes = cfg.Count.SkipZeroes || *skipZeroes
	cfg.Output.NoTitles = cfg.Output.NoTitles || *noTitles
	cfg.Output.NoColumns = cfg.Output.NoColumns || *noColumns
	cfg.Output.NoFinalDelimiter = cfg.Output.NoFinalDelimiter || *noFinal
	if flag.NArg() > 0 {
		cfg.Input.Path = flag.Arg(0)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// 3. Initialize modules
	mgr, err := manager.NewManager(cfg)
	if err != nil {
		log.Fatalf("Failed to create manager: %v", err)
	}
	src, err := manager.OpenSource(context.Background(), cfg.Input)
	if err != nil {
		log.Fatalf("Failed to open %s record source: %v", cfg.Input.Type, err)
	}
	defer src.Close()

	// 4. Count
	if err := mgr.Run(src); err != nil {
		log.Fatalf("Counting failed: %v", err)
	}

	// 5. Render and write
	out := os.Stdout
	if cfg.Output.Path != "" && cfg.Output.Path != "-" {
		f, err := os.Create(cfg.Output.Path)
		if err != nil {
			log.Fatalf("Failed to create output file: %v", err)
		}
		defer f.Close()
		out = f
	}
	w := bufio.NewWriter(out)
	if err := mgr.Render(w); err != nil {
		log.Fatalf("Failed to render report: %v", err)
	}
	if err := w.Flush(); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}
	if err := mgr.Flush(); err != nil {
		log.Fatalf("Failed to write series: %v", err)
	}
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
