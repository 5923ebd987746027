// Package config loads the lightdao YAML configuration and validates it
// against an embedded CUE schema.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"

	"github.com/syssam/lightdao/query/naming"
	"github.com/syssam/lightdao/schema"
	"github.com/syssam/lightdao/schema/field"
)

//go:embed schema.cue
var schemaSource string

// Config is the file configuration.
type Config struct {
	Dialect       string   `json:"dialect" yaml:"dialect"`
	DSN           string   `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	MySQL         *MySQL   `json:"mysql,omitempty" yaml:"mysql,omitempty"`
	Templates     []string `json:"templates,omitempty" yaml:"templates,omitempty"`
	Watch         bool     `json:"watch" yaml:"watch"`
	SlowThreshold string   `json:"slow_threshold" yaml:"slow_threshold"`
	LogLevel      string   `json:"log_level" yaml:"log_level"`
	Cache         Cache    `json:"cache" yaml:"cache"`
	Entities      []Entity `json:"entities,omitempty" yaml:"entities,omitempty"`
}

// MySQL holds the parts of a MySQL DSN.
type MySQL struct {
	User     string            `json:"user,omitempty" yaml:"user,omitempty"`
	Password string            `json:"password,omitempty" yaml:"password,omitempty"`
	Addr     string            `json:"addr" yaml:"addr"`
	Database string            `json:"database" yaml:"database"`
	Params   map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// Cache configures the result cache.
type Cache struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	TTL     string `json:"ttl" yaml:"ttl"`
}

// Entity declares a table and its field-to-column overrides.
type Entity struct {
	Name       string  `json:"name" yaml:"name"`
	Table      string  `json:"table,omitempty" yaml:"table,omitempty"`
	PrimaryKey string  `json:"primary_key" yaml:"primary_key"`
	Fields     []Field `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Field maps an entity field to a column. An empty column applies the
// snake_case rule.
type Field struct {
	Name   string `json:"name" yaml:"name"`
	Column string `json:"column,omitempty" yaml:"column,omitempty"`
}

// Load reads, validates and decodes the file at path. Relative template
// directories are resolved against the directory of path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	base := filepath.Dir(path)
	for i, dir := range cfg.Templates {
		if !filepath.IsAbs(dir) {
			cfg.Templates[i] = filepath.Join(base, dir)
		}
	}
	return cfg, nil
}

// Parse validates YAML data against the schema and decodes it, filling
// schema defaults.
func Parse(data []byte) (*Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	v, err := validate(raw)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &cfg, nil
}

func validate(raw map[string]any) (cue.Value, error) {
	ctx := cuecontext.New()
	schemaVal := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schemaVal.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile schema: %w", err)
	}
	def := schemaVal.LookupPath(cue.ParsePath("#Config"))
	v := def.Unify(ctx.Encode(raw))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return cue.Value{}, fmt.Errorf("validate: %w", err)
	}
	return v, nil
}

// DataSource returns the DSN, rendering the mysql section when no dsn is
// set.
func (c *Config) DataSource() (string, error) {
	switch {
	case c.DSN != "":
		return c.DSN, nil
	case c.MySQL != nil:
		mc := mysql.NewConfig()
		mc.User = c.MySQL.User
		mc.Passwd = c.MySQL.Password
		mc.Net = "tcp"
		mc.Addr = c.MySQL.Addr
		mc.DBName = c.MySQL.Database
		mc.ParseTime = true
		if len(c.MySQL.Params) > 0 {
			mc.Params = c.MySQL.Params
		}
		return mc.FormatDSN(), nil
	}
	return "", fmt.Errorf("config: neither dsn nor mysql is set")
}

// DriverName returns the database/sql driver name of the dialect.
func (c *Config) DriverName() string {
	return c.Dialect
}

// Slow returns the slow statement threshold.
func (c *Config) Slow() time.Duration {
	d, _ := time.ParseDuration(c.SlowThreshold)
	return d
}

// CacheTTL returns the cache entry lifetime. Zero never expires.
func (c *Config) CacheTTL() time.Duration {
	d, _ := time.ParseDuration(c.Cache.TTL)
	return d
}

// Level returns the configured log level.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Schema returns the configured entities keyed by name.
func (c *Config) Schema() map[string]*schema.Entity {
	out := make(map[string]*schema.Entity, len(c.Entities))
	for _, e := range c.Entities {
		ent := &schema.Entity{
			Name:       e.Name,
			Table:      e.Table,
			PrimaryKey: e.PrimaryKey,
		}
		if ent.Table == "" {
			ent.Table = naming.Snake(e.Name)
		}
		ds := make([]field.Descriptor, len(e.Fields))
		for i, f := range e.Fields {
			ds[i] = field.Descriptor{FieldName: f.Name, Column: f.Column}
		}
		ent.Fields = schema.Fields(ds...)
		out[e.Name] = ent
	}
	return out
}
