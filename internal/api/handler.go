package api

import (
	"Go2FlowCount/internal/config"
	"Go2FlowCount/internal/engine/bins"
	"Go2FlowCount/internal/engine/manager"
	"Go2FlowCount/internal/engine/scheme"
	"Go2FlowCount/internal/report"
	"Go2FlowCount/internal/source/text"
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// maxBodyBytes bounds the size of a posted record file.
const maxBodyBytes = 64 << 20

// Handler serves binning requests. Every request is an independent run
// configured from the base config and the request's query parameters.
type Handler struct {
	base config.Config
}

// NewRouter returns the API routes.
func NewRouter(base *config.Config) *mux.Router {
	h := &Handler{base: *base}
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/count", h.countHandler).Methods("POST")
	r.HandleFunc("/api/v1/schemes", h.schemesHandler).Methods("GET")
	return r
}

func (h *Handler) schemesHandler(w http.ResponseWriter, r *http.Request) {
	names := make([]string, len(scheme.All))
	for i, s := range scheme.All {
		names[i] = s.String()
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]string{"load_schemes": names})
}

// countHandler bins the records in the request body and returns the table.
func (h *Handler) countHandler(w http.ResponseWriter, r *http.Request) {
	cfg := h.base
	if err := applyQuery(&cfg, r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := cfg.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c, err := manager.NewCounter(&cfg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	opts, err := manager.ReportOptions(&cfg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	src, err := text.NewReader(http.MaxBytesReader(w, r.Body, maxBodyBytes), cfg.Input.Delimiter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := c.Run(src); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, bins.ErrAllocation) {
			status = http.StatusUnprocessableEntity
		}
		log.Printf("Error counting posted records: %v", err)
		http.Error(w, err.Error(), status)
		return
	}

	var buf bytes.Buffer
	if err := report.New(&buf, opts).Render(c.Store(), c.Range()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	read, skipped := c.Stats()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Records-Read", strconv.FormatUint(read, 10))
	w.Header().Set("X-Records-Skipped", strconv.FormatUint(skipped, 10))
	w.Write(buf.Bytes())
}

// applyQuery overrides count and output settings from query parameters.
func applyQuery(cfg *config.Config, r *http.Request) error {
	q := r.URL.Query()
	strs := map[string]*string{
		"bin_size":         &cfg.Count.BinSize,
		"load_scheme":      &cfg.Count.LoadScheme,
		"start_time":       &cfg.Count.StartTime,
		"end_time":         &cfg.Count.EndTime,
		"bin_labels":       &cfg.Count.BinLabels,
		"timestamp_format": &cfg.Count.TimestampFormat,
		"delimiter":        &cfg.Output.Delimiter,
		"input_delimiter":  &cfg.Input.Delimiter,
	}
	for key, dst := range strs {
		if v := q.Get(key); v != "" {
			*dst = v
		}
	}

	flags := map[string]*bool{
		"skip_zeroes":        &cfg.Count.SkipZeroes,
		"millis":             &cfg.Count.Millis,
		"no_columns":         &cfg.Output.NoColumns,
		"no_final_delimiter": &cfg.Output.NoFinalDelimiter,
		"no_titles":          &cfg.Output.NoTitles,
	}
	for key, dst := range flags {
		v := q.Get(key)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.New("invalid boolean for " + key + ": " + v)
		}
		*dst = b
	}
	return nil
}
