package config

import (
	"Go2FlowCount/internal/engine/scheme"
	"Go2FlowCount/internal/report"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// CountConfig holds the binning parameters of a run.
type CountConfig struct {
	BinSize         string `yaml:"bin_size"`    // Go duration, e.g. "30s"
	LoadScheme      string `yaml:"load_scheme"` // start|end|middle|mean|duration|maximum|minimum
	StartTime       string `yaml:"start_time"`
	EndTime         string `yaml:"end_time"`
	BinLabels       string `yaml:"bin_labels"`       // timestamp|index
	TimestampFormat string `yaml:"timestamp_format"` // default|iso|epoch
	Millis          bool   `yaml:"millis"`
	SkipZeroes      bool   `yaml:"skip_zeroes"`
}

// OutputConfig holds the layout of the report table.
type OutputConfig struct {
	Path             string `yaml:"path"` // empty or "-" means stdout
	Delimiter        string `yaml:"delimiter"`
	NoColumns        bool   `yaml:"no_columns"`
	NoFinalDelimiter bool   `yaml:"no_final_delimiter"`
	NoTitles         bool   `yaml:"no_titles"`
}

// NATSConfig holds the connection settings for the NATS record stream.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
	Buffer  int    `yaml:"buffer"`
}

// ClickHouseConfig holds the connection settings for ClickHouse.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	TaskName string `yaml:"task_name"` // flow_metrics task to read records from
}

// InputConfig selects where flow records come from.
type InputConfig struct {
	Type        string           `yaml:"type"` // text|pcap|nats|clickhouse
	Path        string           `yaml:"path"`
	Delimiter   string           `yaml:"delimiter"`
	FlowTimeout string           `yaml:"flow_timeout"`
	NATS        NATSConfig       `yaml:"nats"`
	ClickHouse  ClickHouseConfig `yaml:"clickhouse"`
}

// GobConfig holds settings for the gob snapshot writer.
type GobConfig struct {
	RootPath string `yaml:"root_path"`
}

// TextConfig holds settings for the text report writer.
type TextConfig struct {
	RootPath string `yaml:"root_path"`
}

// SMTPConfig holds the mail server used for alert notifications.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"` // comma-separated
}

// AlertRule fires when a bin's field exceeds the threshold.
type AlertRule struct {
	Name      string  `yaml:"name"`
	Field     string  `yaml:"field"` // flows|bytes|packets
	Threshold float64 `yaml:"threshold"`
}

// AlertConfig holds settings for the threshold alert writer.
type AlertConfig struct {
	Rules []AlertRule `yaml:"rules"`
	SMTP  SMTPConfig  `yaml:"smtp"`
}

// WriterDef defines one output writer.
type WriterDef struct {
	Type       string           `yaml:"type"`
	Enabled    bool             `yaml:"enabled"`
	Gob        GobConfig        `yaml:"gob"`
	Text       TextConfig       `yaml:"text"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	Alert      AlertConfig      `yaml:"alert"`
}

// APIConfig holds the settings of the HTTP API.
type APIConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Count   CountConfig  `yaml:"count"`
	Output  OutputConfig `yaml:"output"`
	Input   InputConfig  `yaml:"input"`
	Writers []WriterDef  `yaml:"writers"`
	API     APIConfig    `yaml:"api"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Count: CountConfig{
			BinSize:         "30s",
			LoadScheme:      "duration",
			BinLabels:       "timestamp",
			TimestampFormat: "default",
		},
		Output: OutputConfig{Delimiter: "|"},
		Input: InputConfig{
			Type:        "text",
			Delimiter:   "|",
			FlowTimeout: "30s",
		},
		API: APIConfig{ListenAddr: ":8080"},
	}
}

// LoadConfig reads the configuration from a YAML file on top of Default.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields that must be usable before a run starts.
func (c *Config) Validate() error {
	size, err := c.Count.BinSizeMillis()
	if err != nil {
		return err
	}
	if size <= 0 {
		return fmt.Errorf("bin size must be positive, got %s", c.Count.BinSize)
	}

	if _, err := scheme.Parse(c.Count.LoadScheme); err != nil {
		return err
	}
	if _, err := report.ParseLabelMode(c.Count.BinLabels); err != nil {
		return err
	}
	if _, err := report.ParseTimeFormat(c.Count.TimestampFormat); err != nil {
		return err
	}

	start, hasStart, err := c.Count.Start()
	if err != nil {
		return err
	}
	end, hasEnd, err := c.Count.End()
	if err != nil {
		return err
	}
	if hasStart && hasEnd && end < start {
		return fmt.Errorf("end time %q is before start time %q", c.Count.EndTime, c.Count.StartTime)
	}

	switch c.Input.Type {
	case "text", "pcap", "nats", "clickhouse":
	default:
		return fmt.Errorf("unknown input type: %q", c.Input.Type)
	}
	if c.Input.FlowTimeout != "" {
		if _, err := time.ParseDuration(c.Input.FlowTimeout); err != nil {
			return fmt.Errorf("invalid flow_timeout: %w", err)
		}
	}

	for i, w := range c.Writers {
		if w.Type == "" {
			return fmt.Errorf("writer %d must have a type", i)
		}
		for _, rule := range w.Alert.Rules {
			switch rule.Field {
			case "flows", "bytes", "packets":
			default:
				return fmt.Errorf("alert rule %q: unknown field %q", rule.Name, rule.Field)
			}
		}
	}
	return nil
}

// BinSizeMillis returns the bin size in milliseconds.
func (c CountConfig) BinSizeMillis() (int64, error) {
	d, err := time.ParseDuration(c.BinSize)
	if err != nil {
		return 0, fmt.Errorf("invalid bin_size %q: %w", c.BinSize, err)
	}
	return d.Milliseconds(), nil
}

// Start returns the explicit start time, if configured.
func (c CountConfig) Start() (int64, bool, error) {
	return optionalTime("start_time", c.StartTime)
}

// End returns the explicit end time, if configured.
func (c CountConfig) End() (int64, bool, error) {
	return optionalTime("end_time", c.EndTime)
}

func optionalTime(field, s string) (int64, bool, error) {
	if s == "" {
		return 0, false, nil
	}
	t, err := ParseTime(s)
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s: %w", field, err)
	}
	return t, true, nil
}
