// Package config loads the ticketd configuration.
//
// Values come from, in increasing precedence: built-in defaults, a YAML file
// and TICKETS_* environment variables. ${VAR} references inside the file are
// expanded.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jacentio/tickets/internal/httpapi"
	"github.com/jacentio/tickets/store"
	"github.com/jacentio/tickets/ticket"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendDynamoDB = "dynamodb"
	BackendNeo4j    = "neo4j"
)

// Config holds the application configuration.
type Config struct {
	Backend string `yaml:"backend"`

	Server struct {
		Addr       string        `yaml:"addr"`
		Timeout    time.Duration `yaml:"timeout"`
		Retries    int           `yaml:"retries"`
		RetryDelay time.Duration `yaml:"retry_delay"`
		PageSize   int           `yaml:"page_size"`
	} `yaml:"server"`

	Engine struct {
		MaxDepth         int `yaml:"max_depth"`
		BatchSize        int `yaml:"batch_size"`
		ReadConcurrency  int `yaml:"read_concurrency"`
		WriteConcurrency int `yaml:"write_concurrency"`
	} `yaml:"engine"`

	DynamoDB struct {
		Region            string `yaml:"region"`
		Endpoint          string `yaml:"endpoint"`
		TicketTable       string `yaml:"ticket_table"`
		RelationshipTable string `yaml:"relationship_table"`
		CounterTable      string `yaml:"counter_table"`
		RootIndex         string `yaml:"root_index"`
		NumShards         int    `yaml:"num_shards"`
	} `yaml:"dynamodb"`

	Neo4j struct {
		URI      string `yaml:"uri"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		Database string `yaml:"database"`
	} `yaml:"neo4j"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Telemetry struct {
		ServiceName   string `yaml:"service_name"`
		TraceExporter string `yaml:"trace_exporter"`
	} `yaml:"telemetry"`
}

// Default returns a Config with the built-in defaults.
func Default() *Config {
	c := &Config{Backend: BackendMemory}

	opts := httpapi.DefaultOptions()
	c.Server.Addr = ":8080"
	c.Server.Timeout = opts.Timeout
	c.Server.Retries = opts.Retries
	c.Server.RetryDelay = opts.RetryDelay
	c.Server.PageSize = opts.PageSize

	engine := ticket.DefaultConfig()
	c.Engine.MaxDepth = engine.MaxDepth
	c.Engine.BatchSize = engine.BatchSize
	c.Engine.ReadConcurrency = engine.ReadConcurrency
	c.Engine.WriteConcurrency = engine.WriteConcurrency

	tables := store.DefaultConfig()
	c.DynamoDB.TicketTable = tables.TicketTable
	c.DynamoDB.RelationshipTable = tables.RelationshipTable
	c.DynamoDB.CounterTable = tables.CounterTable
	c.DynamoDB.RootIndex = tables.RootIndex
	c.DynamoDB.NumShards = tables.NumShards

	c.Neo4j.URI = "neo4j://localhost:7687"
	c.Neo4j.Username = "neo4j"

	c.Log.Level = "info"
	c.Log.Format = "text"

	c.Telemetry.ServiceName = "ticketd"
	c.Telemetry.TraceExporter = "none"
	return c
}

// Load reads path on top of the defaults and applies environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from TICKETS_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"TICKETS_BACKEND":           &c.Backend,
		"TICKETS_ADDR":              &c.Server.Addr,
		"TICKETS_DYNAMODB_REGION":   &c.DynamoDB.Region,
		"TICKETS_DYNAMODB_ENDPOINT": &c.DynamoDB.Endpoint,
		"TICKETS_TICKET_TABLE":      &c.DynamoDB.TicketTable,
		"TICKETS_NEO4J_URI":         &c.Neo4j.URI,
		"TICKETS_NEO4J_USERNAME":    &c.Neo4j.Username,
		"TICKETS_NEO4J_PASSWORD":    &c.Neo4j.Password,
		"TICKETS_NEO4J_DATABASE":    &c.Neo4j.Database,
		"TICKETS_LOG_LEVEL":         &c.Log.Level,
		"TICKETS_LOG_FORMAT":        &c.Log.Format,
		"TICKETS_TRACE_EXPORTER":    &c.Telemetry.TraceExporter,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"TICKETS_NUM_SHARDS": &c.DynamoDB.NumShards,
		"TICKETS_MAX_DEPTH":  &c.Engine.MaxDepth,
		"TICKETS_RETRIES":    &c.Server.Retries,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
	}

	if v, ok := lookup("TICKETS_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TICKETS_TIMEOUT: %w", err)
		}
		c.Server.Timeout = d
	}
	return nil
}

// Validate checks the fields that have no usable fallback.
func (c *Config) Validate() error {
	var errs []error
	switch c.Backend {
	case BackendMemory, BackendDynamoDB:
	case BackendNeo4j:
		if c.Neo4j.URI == "" {
			errs = append(errs, errors.New("neo4j.uri is required for the neo4j backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// EngineConfig returns the tree engine settings.
func (c *Config) EngineConfig() ticket.Config {
	return ticket.Config{
		MaxDepth:         c.Engine.MaxDepth,
		BatchSize:        c.Engine.BatchSize,
		ReadConcurrency:  c.Engine.ReadConcurrency,
		WriteConcurrency: c.Engine.WriteConcurrency,
	}
}

// StoreConfig returns the DynamoDB table settings.
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		TicketTable:       c.DynamoDB.TicketTable,
		RelationshipTable: c.DynamoDB.RelationshipTable,
		CounterTable:      c.DynamoDB.CounterTable,
		RootIndex:         c.DynamoDB.RootIndex,
		NumShards:         c.DynamoDB.NumShards,
	}
}

// HTTPOptions returns the request handling settings.
func (c *Config) HTTPOptions() httpapi.Options {
	return httpapi.Options{
		Timeout:    c.Server.Timeout,
		Retries:    c.Server.Retries,
		RetryDelay: c.Server.RetryDelay,
		PageSize:   c.Server.PageSize,
	}
}

// Logger builds the process logger writing to w.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
