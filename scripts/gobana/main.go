package main

import (
	"Go2FlowCount/internal/engine/bins"
	"Go2FlowCount/internal/report"
	"Go2FlowCount/internal/writer/snapshot"
	"flag"
	"fmt"
	"log"
	"os"
)

func main() {
	labels := flag.String("labels", "timestamp", "Row labels: 'timestamp' or 'index'.")
	skipZeroes := flag.Bool("skip-zeroes", true, "Skip bins without flows.")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: go run ./scripts/gobana/main.go [-labels index] <snapshot_dir>")
		os.Exit(1)
	}
	mode, err := report.ParseLabelMode(*labels)
	if err != nil {
		log.Fatal(err)
	}

	res, err := snapshot.Load(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to load snapshot: %v", err)
	}

	tot := res.Series.Totals()
	fmt.Printf("Scheme: %s  Bin size: %d ms  Bins: %d  Records: %d (%d skipped)\n",
		res.Scheme, res.Series.Size, len(res.Series.Bins), res.Records, res.Skipped)
	fmt.Printf("Totals: %.2f flows, %.2f bytes, %.2f packets\n\n", tot.Flows, tot.Bytes, tot.Packets)

	var store *bins.Store
	if len(res.Series.Bins) > 0 {
		if store, err = res.Series.Restore(); err != nil {
			log.Fatalf("Failed to restore series: %v", err)
		}
	}
	r := report.New(os.Stdout, report.Options{Labels: mode, SkipZeroes: *skipZeroes})
	if err := r.Render(store, res.Range); err != nil {
		log.Fatal(err)
	}
}
