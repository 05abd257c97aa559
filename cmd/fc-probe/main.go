package main

import (
	"Go2FlowCount/internal/config"
	"Go2FlowCount/internal/model"
	"Go2FlowCount/internal/probe"
	"Go2FlowCount/pkg/pcap"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
)

const defaultSubject = "fc.flows.records"

func main() {
	// --- Command-Line Flag Parsing ---
	mode := flag.String("mode", "sub", "Operating mode: 'pub' to assemble a capture and publish its flows, 'sub' to subscribe and print.")
	pcapFile := flag.String("pcap", "", "Capture file to read flows from (required for pub mode).")
	timeout := flag.Duration("flow-timeout", pcap.DefaultFlowTimeout, "Idle time that ends a flow.")
	natsURL := flag.String("nats-url", nats.DefaultURL, "NATS server URL.")
	subject := flag.String("subject", defaultSubject, "NATS subject.")
	flag.Parse()

	cfg := config.NATSConfig{URL: *natsURL, Subject: *subject}

	// --- Mode Dispatch ---
	switch *mode {
	case "pub":
		runProbe(*pcapFile, *timeout, cfg)
	case "sub":
		runSubscriber(cfg)
	default:
		fmt.Fprintf(os.Stderr, "Invalid mode: %s\n", *mode)
		flag.Usage()
		os.Exit(1)
	}
}

// runProbe assembles the flows of a capture file and publishes them to NATS.
func runProbe(path string, timeout time.Duration, cfg config.NATSConfig) {
	if path == "" {
		log.Println("Error: -pcap flag is required for probe mode.")
		flag.Usage()
		os.Exit(1)
	}
	log.Printf("Starting fc-probe in PROBE mode on capture: %s", path)

	pub, err := probe.NewPublisher(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer pub.Close()

	reader, err := pcap.NewReader(path, timeout)
	if err != nil {
		log.Fatalf("Error opening capture %s: %v", path, err)
	}
	defer reader.Close()

	published := 0
	for {
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Fatalf("Failed to read capture: %v", err)
		}
		if err := pub.Publish(rec); err != nil {
			log.Printf("Failed to publish record: %v", err)
			continue
		}
		published++
		if published%1000 == 0 {
			log.Printf("%d records published...", published)
		}
	}
	if err := pub.Finish(); err != nil {
		log.Fatalf("Failed to publish end of stream: %v", err)
	}
	log.Printf("Published %d flow records (%d packets skipped).", published, reader.Skipped())
}

// runSubscriber prints records from NATS as text lines until the end of the
// stream or a shutdown signal.
func runSubscriber(cfg config.NATSConfig) {
	log.Println("Starting fc-probe in SUBSCRIBER mode...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := probe.NewSubscriber(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create subscriber: %v", err)
	}
	defer sub.Close()

	records := make(chan *model.FlowRecord)
	done := make(chan error, 1)
	go func() {
		for {
			rec, err := sub.Next()
			if errors.Is(err, model.ErrBadRecord) {
				log.Printf("Error decoding record, skipping: %v", err)
				continue
			}
			if err != nil {
				done <- err
				return
			}
			records <- rec
		}
	}()

	// Set up a channel to handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	fmt.Println("sTime|eTime|bytes|packets")
	for {
		select {
		case rec := <-records:
			fmt.Printf("%d|%d|%d|%d\n", rec.StartTime, rec.EndTime, rec.Bytes, rec.Packets)
		case err := <-done:
			if !errors.Is(err, io.EOF) {
				log.Printf("Subscriber stopped: %v", err)
			}
			return
		case <-sigChan:
			log.Println("Shutdown signal received, cleaning up...")
			return
		}
	}
}
