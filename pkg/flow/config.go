package flow

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/askiada/go-stepflow/internal/packaging"
	"github.com/askiada/go-stepflow/pkg/flow/backend"
)

// Config selects the backends of a runner at run start. Enums mirror the
// available implementations: datastore "local" or "badger", metadata "local"
// or "service", environment "local".
type Config struct {
	Datastore   string `yaml:"datastore"`
	Metadata    string `yaml:"metadata"`
	Environment string `yaml:"environment"`

	// BadgerDir is the database directory of the badger datastore.
	BadgerDir string `yaml:"badger_dir"`
	// MetadataURL is the endpoint of the service metadata backend.
	MetadataURL string `yaml:"metadata_url"`

	// PackagingSuffixes is the comma-separated suffix list used by bundle
	// steps. Empty means the default ".py,.R,.RDS".
	PackagingSuffixes string `yaml:"packaging_suffixes"`

	// MaxConcurrent caps the number of tasks running at once. Zero means
	// no cap.
	MaxConcurrent int `yaml:"max_concurrent"`
}

var (
	ErrUnknownDatastore   = errors.New("unknown datastore backend")
	ErrUnknownMetadata    = errors.New("unknown metadata backend")
	ErrUnknownEnvironment = errors.New("unknown environment backend")
)

// DefaultConfig returns a config running everything locally.
func DefaultConfig() *Config {
	return &Config{
		Datastore:         "local",
		Metadata:          "local",
		Environment:       "local",
		PackagingSuffixes: packaging.DefaultPatterns,
	}
}

// LoadConfig reads a yaml config file. Unset enums fall back to "local".
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read config %s", path)
	}

	cfg := DefaultConfig()

	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to parse config %s", path)
	}

	if cfg.Datastore == "" {
		cfg.Datastore = "local"
	}
	if cfg.Metadata == "" {
		cfg.Metadata = "local"
	}
	if cfg.Environment == "" {
		cfg.Environment = "local"
	}

	return cfg, nil
}

// Runner builds a runner for the flow with the configured backends
// injected, plus any extra options.
func (c *Config) Runner(fl *Flow, opts ...RunnerOption) (*Runner, error) {
	var ds backend.Datastore

	switch c.Datastore {
	case "", "local":
		ds = backend.NewLocalDatastore()
	case "badger":
		var err error
		ds, err = backend.NewBadgerDatastore(c.BadgerDir)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.Wrapf(ErrUnknownDatastore, "%q", c.Datastore)
	}

	var meta backend.Metadata

	switch c.Metadata {
	case "", "local":
		meta = backend.NewLocalMetadata()
	case "service":
		meta = backend.NewServiceMetadata(c.MetadataURL, nil)
	default:
		return nil, errors.Wrapf(ErrUnknownMetadata, "%q", c.Metadata)
	}

	switch c.Environment {
	case "", "local":
	default:
		return nil, errors.Wrapf(ErrUnknownEnvironment, "%q", c.Environment)
	}

	base := []RunnerOption{
		WithDatastore(ds),
		WithMetadata(meta),
		WithEnvironment(backend.NewLocalEnvironment()),
		WithMaxConcurrent(c.MaxConcurrent),
	}

	return NewRunner(fl, append(base, opts...)...)
}
