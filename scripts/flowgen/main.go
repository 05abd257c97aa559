package main

import (
	"Go2FlowCount/internal/config"
	"Go2FlowCount/internal/model"
	"Go2FlowCount/internal/probe"
	"bufio"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"
)

func main() {
	mode := flag.String("mode", "text", "Output mode: 'text' writes records to -o, 'nats' publishes them.")
	outputFile := flag.String("o", "-", "Output file for text mode ('-' for stdout).")
	count := flag.Int("c", 1000, "Number of records to generate.")
	span := flag.Duration("span", time.Hour, "Records start within this long after -start.")
	maxDur := flag.Duration("max-duration", 5*time.Minute, "Longest flow duration.")
	start := flag.String("start", "", "Earliest start time (default: one span ago).")
	natsURL := flag.String("nats-url", "nats://127.0.0.1:4222", "NATS server URL.")
	subject := flag.String("subject", "flows", "NATS subject.")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed.")
	flag.Parse()

	base := time.Now().Add(-*span).UnixMilli()
	if *start != "" {
		t, err := config.ParseTime(*start)
		if err != nil {
			log.Fatalf("Invalid start time: %v", err)
		}
		base = t
	}
	rng := rand.New(rand.NewSource(*seed))

	next := func() *model.FlowRecord {
		s := base + rng.Int63n(span.Milliseconds()+1)
		d := rng.Int63n(maxDur.Milliseconds() + 1)
		packets := uint64(1 + rng.Intn(1000))
		return &model.FlowRecord{
			StartTime: s,
			EndTime:   s + d,
			Packets:   packets,
			Bytes:     packets * uint64(40+rng.Intn(1460)),
		}
	}

	log.Printf("Generating %d records...", *count)
	switch *mode {
	case "text":
		out := os.Stdout
		if *outputFile != "-" {
			f, err := os.Create(*outputFile)
			if err != nil {
				log.Fatalf("Failed to create output file: %v", err)
			}
			defer f.Close()
			out = f
		}
		w := bufio.NewWriter(out)
		fmt.Fprintln(w, "sTime|eTime|bytes|packets")
		for i := 0; i < *count; i++ {
			rec := next()
			fmt.Fprintf(w, "%d|%d|%d|%d\n", rec.StartTime, rec.EndTime, rec.Bytes, rec.Packets)
		}
		if err := w.Flush(); err != nil {
			log.Fatalf("Failed to write records: %v", err)
		}
	case "nats":
		pub, err := probe.NewPublisher(config.NATSConfig{URL: *natsURL, Subject: *subject})
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer pub.Close()
		for i := 0; i < *count; i++ {
			if err := pub.Publish(next()); err != nil {
				log.Fatalf("Failed to publish record: %v", err)
			}
		}
		if err := pub.Finish(); err != nil {
			log.Fatalf("Failed to publish end of stream: %v", err)
		}
	default:
		log.Fatalf("Invalid mode: %s. Use 'text' or 'nats'.", *mode)
	}
	log.Println("Done.")
}
