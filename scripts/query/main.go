package main

import (
	"Go2FlowCount/internal/config"
	source "Go2FlowCount/internal/source/clickhouse"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

func main() {
	// Define command-line flags
	mode := flag.String("mode", "api", "Query mode: 'api' to bin a record file via the HTTP API, 'direct' to read bin_counts from ClickHouse.")
	apiURL := flag.String("api", "http://localhost:8080/api/v1/count", "Count endpoint of fc-api.")
	records := flag.String("f", "", "Record file to post in api mode.")
	binSize := flag.String("bin-size", "", "Bin size override, e.g. 1m (api mode).")
	loadScheme := flag.String("scheme", "", "Load scheme (api mode override, direct mode filter).")
	startStr := flag.String("start", "", "Earliest bin start (direct mode) or start_time override (api mode).")
	endStr := flag.String("end", "", "Latest bin start (direct mode) or end_time override (api mode).")
	chHost := flag.String("ch-host", "localhost", "ClickHouse host.")
	chPort := flag.Int("ch-port", 9000, "ClickHouse native port.")
	chUser := flag.String("ch-user", "default", "ClickHouse user.")
	chPassword := flag.String("ch-password", "", "ClickHouse password.")
	flag.Parse()

	log.Printf("Running in '%s' mode.", *mode)

	switch *mode {
	case "api":
		params := url.Values{}
		for key, v := range map[string]string{
			"bin_size": *binSize, "load_scheme": *loadScheme,
			"start_time": *startStr, "end_time": *endStr,
		} {
			if v != "" {
				params.Set(key, v)
			}
		}
		queryViaAPI(*apiURL, *records, params)
	case "direct":
		cfg := config.ClickHouseConfig{
			Host: *chHost, Port: *chPort, Database: "default",
			Username: *chUser, Password: *chPassword,
		}
		directQueryClickHouse(cfg, *loadScheme, *startStr, *endStr)
	default:
		log.Fatalf("Invalid mode: %s. Use 'api' or 'direct'.", *mode)
	}
}

// --- API Query Logic ---
func queryViaAPI(endpoint, path string, params url.Values) {
	if path == "" {
		log.Fatalf("-f is required in api mode")
	}
	body, err := os.Open(path)
	if err != nil {
		log.Fatalf("Error opening record file: %v", err)
	}
	defer body.Close()

	target := endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	log.Printf("Posting %s to %s", path, target)

	resp, err := http.Post(target, "text/plain", body)
	if err != nil {
		log.Fatalf("Error sending request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Error reading response body: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("API returned non-200 status code: %d\nResponse: %s", resp.StatusCode, string(respBody))
	}

	log.Printf("Records read: %s, skipped: %s", resp.Header.Get("X-Records-Read"), resp.Header.Get("X-Records-Skipped"))
	fmt.Print(string(respBody))
}

// --- Direct ClickHouse Query Logic ---
func directQueryClickHouse(cfg config.ClickHouseConfig, loadScheme, startStr, endStr string) {
	var whereClauses []string
	args := []interface{}{}

	if loadScheme != "" {
		whereClauses = append(whereClauses, "LoadScheme = ?")
		args = append(args, loadScheme)
	}
	for _, bound := range []struct {
		value, op string
	}{{startStr, ">="}, {endStr, "<="}} {
		if bound.value == "" {
			continue
		}
		ms, err := config.ParseTime(bound.value)
		if err != nil {
			log.Fatalf("Invalid time %q: %v", bound.value, err)
		}
		whereClauses = append(whereClauses, "BinStart "+bound.op+" ?")
		args = append(args, time.UnixMilli(ms).UTC())
	}

	var queryBuilder strings.Builder
	queryBuilder.WriteString("SELECT Timestamp, LoadScheme, BinStart, BinSize, Flows, Bytes, Packets FROM bin_counts")
	if len(whereClauses) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(whereClauses, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY Timestamp, LoadScheme, BinStart")

	conn, err := source.Connect(cfg)
	if err != nil {
		log.Fatalf("Error connecting to ClickHouse: %v", err)
	}
	defer conn.Close()

	log.Println("Successfully connected to ClickHouse.")

	rows, err := conn.Query(context.Background(), queryBuilder.String(), args...)
	if err != nil {
		log.Fatalf("Error executing query: %v", err)
	}
	defer rows.Close()

	var found int
	for rows.Next() {
		var (
			runAt    time.Time
			scheme   string
			binStart time.Time
			binSize  int64
			flows    float64
			bytes    float64
			packets  float64
		)
		if err := rows.Scan(&runAt, &scheme, &binStart, &binSize, &flows, &bytes, &packets); err != nil {
			log.Printf("Error scanning row: %v", err)
			continue
		}
		found++
		fmt.Printf("%s|%s|%s|%d|%.2f|%.2f|%.2f|\n",
			runAt.UTC().Format("2006-01-02 15:04:05"), scheme,
			binStart.UTC().Format("2006/01/02T15:04:05.000"), binSize, flows, bytes, packets)
	}

	if found == 0 {
		log.Println("No data found for the specified criteria.")
	}
	if err := rows.Err(); err != nil {
		log.Printf("An error occurred during row iteration: %v", err)
	}
}
