package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gorhill/cronexpr"
	"gopkg.in/yaml.v2"

	"github.com/vango-dev/resume/internal/errors"
	"github.com/vango-dev/resume/pkg/resume"
)

const (
	// ConfigFileName is the preferred configuration file name.
	ConfigFileName = "resume.yaml"

	// DefaultPort is the default dev server port.
	DefaultPort = 3000

	// DefaultHost is the default dev server host.
	DefaultHost = "localhost"

	// DefaultCheckpointSchedule pushes a full checkpoint every minute.
	DefaultCheckpointSchedule = "* * * * *"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "resume"
)

// fileNames are tried in order by Load.
var fileNames = []string{ConfigFileName, "resume.yml", "resume.json"}

// Config represents resume.yaml.
type Config struct {
	// Snapshot configures the producing side.
	Snapshot SnapshotConfig `yaml:"snapshot" json:"snapshot"`

	// Resume configures the consuming side.
	Resume ResumeConfig `yaml:"resume" json:"resume"`

	// Metrics configures the Prometheus collectors.
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Dev configures the preview server.
	Dev DevConfig `yaml:"dev" json:"dev"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// SnapshotConfig contains snapshot construction settings.
type SnapshotConfig struct {
	// Version is written into every snapshot.
	Version string `yaml:"version,omitempty" json:"version,omitempty"`

	// MaxSize is the snapshot size limit in bytes. Zero means the default;
	// a negative value disables the limit.
	MaxSize int `yaml:"maxSize,omitempty" json:"maxSize,omitempty"`

	// SerializeSource keeps handler source in snapshots.
	SerializeSource bool `yaml:"serializeSource,omitempty" json:"serializeSource,omitempty"`
}

// ResumeConfig contains resume settings.
type ResumeConfig struct {
	// Strategy is one of strict, compatible or ignore.
	Strategy string `yaml:"strategy,omitempty" json:"strategy,omitempty"`

	// Timeout is a Go duration string such as "5s". "0" disables it.
	Timeout string `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	// FallbackToHydration defaults to true.
	FallbackToHydration *bool `yaml:"fallbackToHydration,omitempty" json:"fallbackToHydration,omitempty"`

	// AllowSource lets resume compile handler source found in snapshots.
	AllowSource bool `yaml:"allowSource,omitempty" json:"allowSource,omitempty"`
}

// MetricsConfig contains metrics settings.
type MetricsConfig struct {
	Namespace string `yaml:"namespace,omitempty" json:"namespace,omitempty"`

	// Labels are constant labels added to every HTTP series of the preview
	// server.
	Labels map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`

	// Buckets replace the default request duration buckets, in seconds.
	// They must be strictly increasing.
	Buckets []float64 `yaml:"buckets,omitempty" json:"buckets,omitempty"`
}

// DevConfig contains preview server settings.
type DevConfig struct {
	// Host is the host to bind to.
	Host string `yaml:"host,omitempty" json:"host,omitempty"`

	// Port is the port to listen on.
	Port int `yaml:"port,omitempty" json:"port,omitempty"`

	// CheckpointSchedule is a cron expression for full checkpoints pushed to
	// connected clients.
	CheckpointSchedule string `yaml:"checkpointSchedule,omitempty" json:"checkpointSchedule,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	fallback := true
	return &Config{
		Snapshot: SnapshotConfig{
			Version: resume.SnapshotVersion,
			MaxSize: resume.DefaultMaxSize,
		},
		Resume: ResumeConfig{
			Strategy:            string(resume.StrategyCompatible),
			Timeout:             resume.DefaultTimeout.String(),
			FallbackToHydration: &fallback,
		},
		Metrics: MetricsConfig{
			Namespace: DefaultNamespace,
		},
		Dev: DevConfig{
			Host:               DefaultHost,
			Port:               DefaultPort,
			CheckpointSchedule: DefaultCheckpointSchedule,
		},
	}
}

// Load reads configuration from dir, trying resume.yaml, resume.yml and
// resume.json in that order.
func Load(dir string) (*Config, error) {
	for _, name := range fileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("E100").
		WithDetail("No resume.yaml found in " + dir).
		WithSuggestion("Create resume.yaml or run without a config file to use the defaults")
}

// LoadFile reads configuration from path. JSON files are accepted since
// they are valid YAML.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E100").WithDetail("No config file at " + path)
		}
		return nil, errors.New("E101").Wrap(err)
	}

	cfg := New()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E101").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithLocationFromError(path, err).
			WithSuggestion("Check the indentation and quoting in " + filepath.Base(path))
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads the config in dir, or returns the defaults when dir
// has none.
func LoadOrDefault(dir string) (*Config, error) {
	cfg, err := Load(dir)
	if errors.Code(err) == "E100" {
		return New(), nil
	}
	return cfg, err
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Snapshot.Version == "" {
		c.Snapshot.Version = resume.SnapshotVersion
	}
	if c.Snapshot.MaxSize == 0 {
		c.Snapshot.MaxSize = resume.DefaultMaxSize
	}

	if c.Resume.Strategy == "" {
		c.Resume.Strategy = string(resume.StrategyCompatible)
	}
	if c.Resume.Timeout == "" {
		c.Resume.Timeout = resume.DefaultTimeout.String()
	}
	if c.Resume.FallbackToHydration == nil {
		fallback := true
		c.Resume.FallbackToHydration = &fallback
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}

	if c.Dev.Host == "" {
		c.Dev.Host = DefaultHost
	}
	if c.Dev.Port == 0 {
		c.Dev.Port = DefaultPort
	}
	if c.Dev.CheckpointSchedule == "" {
		c.Dev.CheckpointSchedule = DefaultCheckpointSchedule
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !resume.Strategy(c.Resume.Strategy).Valid() {
		return errors.New("E102").
			WithDetailf("resume.strategy is %q", c.Resume.Strategy).
			WithSuggestion("Use one of: strict, compatible, ignore")
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return errors.New("E102").
			WithDetailf("resume.timeout %q is not a duration", c.Resume.Timeout).
			WithSuggestion(`Use a Go duration such as "500ms" or "5s"`)
	}
	if err := resume.CheckVersion(resume.StrategyCompatible, resume.SnapshotVersion, c.Snapshot.Version); errors.Code(err) == "E031" {
		return errors.New("E102").WithDetailf("snapshot.version %q is not a semantic version", c.Snapshot.Version)
	}
	for i := 1; i < len(c.Metrics.Buckets); i++ {
		if c.Metrics.Buckets[i] <= c.Metrics.Buckets[i-1] {
			return errors.New("E102").
				WithDetailf("metrics.buckets %v are not strictly increasing", c.Metrics.Buckets)
		}
	}
	if c.Dev.Port < 0 || c.Dev.Port > 65535 {
		return errors.New("E102").
			WithDetail("dev.port must be between 0 and 65535")
	}
	if _, err := cronexpr.Parse(c.Dev.CheckpointSchedule); err != nil {
		return errors.New("E102").
			WithDetailf("dev.checkpointSchedule %q", c.Dev.CheckpointSchedule).
			Wrap(err)
	}
	return nil
}

// TimeoutDuration parses Resume.Timeout.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.Resume.Timeout == "" || c.Resume.Timeout == "0" {
		return 0, nil
	}
	return time.ParseDuration(c.Resume.Timeout)
}

// Fallback reports whether a failed resume should fall back to hydration.
func (c *Config) Fallback() bool {
	return c.Resume.FallbackToHydration == nil || *c.Resume.FallbackToHydration
}

// SerializerOptions returns the options for resume.NewSerializer.
func (c *Config) SerializerOptions() []resume.Option {
	return []resume.Option{
		resume.WithVersion(c.Snapshot.Version),
		resume.WithMaxSize(c.Snapshot.MaxSize),
		resume.WithSourceSerialization(c.Snapshot.SerializeSource),
	}
}

// BootstrapOptions returns the options for resume.NewBootstrap.
func (c *Config) BootstrapOptions() ([]resume.Option, error) {
	timeout, err := c.TimeoutDuration()
	if err != nil {
		return nil, errors.New("E102").WithDetailf("resume.timeout %q", c.Resume.Timeout).Wrap(err)
	}
	return []resume.Option{
		resume.WithVersion(c.Snapshot.Version),
		resume.WithStrategy(resume.Strategy(c.Resume.Strategy)),
		resume.WithTimeout(timeout),
		resume.WithFallbackToHydration(c.Fallback()),
		resume.WithAllowSource(c.Resume.AllowSource),
	}, nil
}

// Schedule parses the checkpoint schedule.
func (c *Config) Schedule() (*cronexpr.Expression, error) {
	return cronexpr.Parse(c.Dev.CheckpointSchedule)
}

// DevAddress returns the address string for the dev server.
func (c *Config) DevAddress() string {
	return c.Dev.Host + ":" + strconv.Itoa(c.Dev.Port)
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
