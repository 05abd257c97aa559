package main

import (
	"Go2FlowCount/pkg/pcap"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
)

// Prints the flow records assembled from a capture in the text record
// format, ready to be fed to fc-count.
func main() {
	timeout := flag.Duration("flow-timeout", pcap.DefaultFlowTimeout, "Idle time that ends a flow.")
	limit := flag.Int("n", 0, "Stop after this many records (0 for all).")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: go run ./scripts/pcapana/main.go [-flow-timeout 30s] [-n 5] <path_to_pcap_file>")
		os.Exit(1)
	}

	reader, err := pcap.NewReader(flag.Arg(0), *timeout)
	if err != nil {
		log.Fatal(err)
	}
	defer reader.Close()

	fmt.Println("sTime|eTime|bytes|packets")
	i := 0
	for *limit == 0 || i < *limit {
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Fatalf("Failed to read capture: %v", err)
		}
		fmt.Printf("%d|%d|%d|%d\n", rec.StartTime, rec.EndTime, rec.Bytes, rec.Packets)
		i++
	}
	log.Printf("%d records, %d packets skipped.", i, reader.Skipped())
}
