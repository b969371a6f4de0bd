package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"datafill/internal/binding"
	"datafill/internal/domain"
	"datafill/internal/etl"
	"datafill/internal/service"
)

// Config holds all datafill configuration.
type Config struct {
	DataDir     string                      `yaml:"data_dir"`
	DBPath      string                      `yaml:"db_path"`
	ConfigKey   string                      `yaml:"config_key"`
	Mode        string                      `yaml:"mode"` // iterate | direct
	Locale      string                      `yaml:"locale"`
	FontDirs    []string                    `yaml:"font_dirs"`
	FontWorkers int                         `yaml:"font_workers"`
	Connections []domain.DatabaseConnection `yaml:"connections"`
	Jobs        []JobConfig                 `yaml:"jobs"`
}

// JobConfig describes a fill that the watch command runs on a schedule or
// when its data file changes.
type JobConfig struct {
	Name      string         `yaml:"name"`
	DataFile  string         `yaml:"data_file"`
	Source    string         `yaml:"source"`
	SourceCfg map[string]any `yaml:"source_config"`
	Document  string         `yaml:"document"`
	Output    string         `yaml:"output"`
	Selection []string       `yaml:"selection"`
	Mode      string         `yaml:"mode"`
	Schedule  string         `yaml:"schedule"`
	Watch     bool           `yaml:"watch"`
}

// DefaultDataDir is ~/.local/share/datafill.
func DefaultDataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "datafill")
}

// DefaultPath is where Load looks when no file is given.
func DefaultPath() string {
	return filepath.Join(DefaultDataDir(), "config.yaml")
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir()
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "datafill.db")
	}
	if c.ConfigKey == "" {
		c.ConfigKey = service.DefaultConfigKey
	}
	if c.Mode == "" {
		c.Mode = binding.ModeIterate.String()
	}
	if c.Locale == "" {
		c.Locale = os.Getenv("LANG")
	}
	if c.FontWorkers <= 0 {
		c.FontWorkers = runtime.NumCPU()
	}
	for i := range c.Jobs {
		if c.Jobs[i].Name == "" {
			c.Jobs[i].Name = fmt.Sprintf("job-%d", i+1)
		}
		if c.Jobs[i].Mode == "" {
			c.Jobs[i].Mode = c.Mode
		}
	}
}

// Validate reports configuration mistakes that would only surface later.
func (c *Config) Validate() error {
	var errs []error
	validMode := func(m string) bool {
		_, err := binding.LookupMode(m)
		return err == nil
	}
	if !validMode(c.Mode) {
		errs = append(errs, fmt.Errorf("mode %q: want iterate or direct", c.Mode))
	}
	seen := map[string]bool{}
	for _, conn := range c.Connections {
		if conn.Name == "" {
			errs = append(errs, errors.New("connection without a name"))
			continue
		}
		if seen[conn.Name] {
			errs = append(errs, fmt.Errorf("duplicate connection %q", conn.Name))
		}
		seen[conn.Name] = true
	}
	for _, j := range c.Jobs {
		if j.Document == "" {
			errs = append(errs, fmt.Errorf("job %s: document is required", j.Name))
		}
		if j.DataFile == "" && j.Source == "" {
			errs = append(errs, fmt.Errorf("job %s: data_file or source is required", j.Name))
		}
		if !validMode(j.Mode) {
			errs = append(errs, fmt.Errorf("job %s: mode %q: want iterate or direct", j.Name, j.Mode))
		}
		if j.Watch && j.DataFile == "" {
			errs = append(errs, fmt.Errorf("job %s: watch needs a data_file", j.Name))
		}
	}
	return errors.Join(errs...)
}

// Load reads a YAML config file. A missing file at the default path is not
// an error: the defaults are returned.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WatchJobs converts the configured jobs for the watch service.
func (c *Config) WatchJobs() []service.WatchJob {
	jobs := make([]service.WatchJob, 0, len(c.Jobs))
	for _, j := range c.Jobs {
		jobs = append(jobs, service.WatchJob{
			Name:         j.Name,
			DataFile:     j.DataFile,
			SourceType:   j.Source,
			SourceConfig: etl.SourceConfig(j.SourceCfg),
			Document:     j.Document,
			Output:       j.Output,
			Selection:    j.Selection,
			Mode:         binding.ParseMode(j.Mode),
			Schedule:     j.Schedule,
			Watch:        j.Watch,
		})
	}
	return jobs
}
