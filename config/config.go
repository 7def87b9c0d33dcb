// Package config loads skipproof.yaml: the trusted genesis, the collective
// signature policy, block storage backends, logging and verifier settings.
//
// Precedence, lowest first: defaults, the YAML file, SKIPPROOF_* environment
// variables. The result is validated before it is returned.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"xdao.co/skipproof/cosi"
	"xdao.co/skipproof/internal/logging"
	"xdao.co/skipproof/storage"
)

// DefaultFile is the file name looked up when no path is given.
const DefaultFile = "skipproof.yaml"

type Config struct {
	Genesis GenesisConfig `yaml:"genesis,omitempty"`
	Policy  PolicyConfig  `yaml:"policy,omitempty"`
	Storage StorageConfig `yaml:"storage,omitempty"`
	Log     LogConfig     `yaml:"log,omitempty"`
	Verify  VerifyConfig  `yaml:"verify,omitempty"`

	// dir resolves relative paths; it is the directory of the loaded file.
	dir string
}

// GenesisConfig names the trusted genesis: either a block file (a JSON
// block document) or a block id with a roster file.
type GenesisConfig struct {
	BlockFile  string `yaml:"block_file,omitempty"`
	ID         string `yaml:"id,omitempty"`
	RosterFile string `yaml:"roster_file,omitempty"`
}

type PolicyConfig struct {
	// Kind is byzantine (default), complete or threshold.
	Kind      string `yaml:"kind,omitempty"`
	Threshold int    `yaml:"threshold,omitempty"`
}

type StorageConfig struct {
	// WritePolicy is "first" (default) or "all".
	WritePolicy string          `yaml:"write_policy,omitempty"`
	Backends    []BackendConfig `yaml:"backends,omitempty"`
}

type BackendConfig struct {
	// Name is the registered backend (localfs, sqlite, grpc).
	Name string `yaml:"name"`
	// ID is an optional alias used in error messages and PutAll results.
	// If empty, Name is used.
	ID     string            `yaml:"id,omitempty"`
	Config map[string]string `yaml:"config,omitempty"`
}

func (b BackendConfig) id() string {
	if b.ID != "" {
		return b.ID
	}
	return b.Name
}

type LogConfig struct {
	Level string `yaml:"level,omitempty"`
	JSON  bool   `yaml:"json,omitempty"`
}

type VerifyConfig struct {
	// Concurrency bounds batch verification; 0 means unbounded.
	Concurrency int `yaml:"concurrency,omitempty"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Policy:  PolicyConfig{Kind: "byzantine"},
		Storage: StorageConfig{WritePolicy: string(storage.WriteFirst)},
		Log:     LogConfig{Level: "info"},
		Verify:  VerifyConfig{Concurrency: 4},
	}
}

// Load reads path on top of the defaults and applies environment overrides.
// An empty path loads DefaultFile from the working directory if it exists.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.dir = filepath.Dir(path)
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML on top of the defaults without consulting the
// environment. Relative paths resolve against dir.
func Parse(data []byte, dir string) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.dir = dir
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v, ok := lookup(name)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
		*dst = n
		return nil
	}

	str("SKIPPROOF_GENESIS_BLOCK_FILE", &c.Genesis.BlockFile)
	str("SKIPPROOF_GENESIS_ID", &c.Genesis.ID)
	str("SKIPPROOF_GENESIS_ROSTER_FILE", &c.Genesis.RosterFile)
	str("SKIPPROOF_POLICY", &c.Policy.Kind)
	if err := num("SKIPPROOF_POLICY_THRESHOLD", &c.Policy.Threshold); err != nil {
		return err
	}
	str("SKIPPROOF_WRITE_POLICY", &c.Storage.WritePolicy)
	if dir, ok := lookup("SKIPPROOF_STORE_DIR"); ok && dir != "" {
		c.Storage.Backends = []BackendConfig{{Name: "localfs", Config: map[string]string{"dir": dir}}}
	}
	str("SKIPPROOF_LOG_LEVEL", &c.Log.Level)
	if v, ok := lookup("SKIPPROOF_LOG_JSON"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: SKIPPROOF_LOG_JSON: %w", err)
		}
		c.Log.JSON = b
	}
	return num("SKIPPROOF_VERIFY_CONCURRENCY", &c.Verify.Concurrency)
}

// Validate checks internal consistency. Backend-specific settings are checked
// when the backend is opened.
func (c *Config) Validate() error {
	if _, err := c.CosiPolicy(); err != nil {
		return fmt.Errorf("config: policy: %w", err)
	}
	if c.Genesis.BlockFile != "" && (c.Genesis.ID != "" || c.Genesis.RosterFile != "") {
		return errors.New("config: genesis: block_file excludes id and roster_file")
	}
	if (c.Genesis.ID == "") != (c.Genesis.RosterFile == "") {
		return errors.New("config: genesis: id and roster_file go together")
	}
	if _, err := storage.ParseWritePolicy(c.Storage.WritePolicy); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	seen := make(map[string]struct{}, len(c.Storage.Backends))
	for _, b := range c.Storage.Backends {
		if b.Name == "" {
			return errors.New("config: storage: backend name is required")
		}
		if _, ok := seen[b.id()]; ok {
			return fmt.Errorf("config: storage: duplicate backend id %q", b.id())
		}
		seen[b.id()] = struct{}{}
	}
	if c.Verify.Concurrency < 0 {
		return errors.New("config: verify: concurrency must not be negative")
	}
	return nil
}

// CosiPolicy returns the configured collective signature policy.
func (c *Config) CosiPolicy() (cosi.Policy, error) {
	return cosi.ParsePolicy(c.Policy.Kind, c.Policy.Threshold)
}

// LoggingOptions maps the log section to logging.Options.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{Level: c.Log.Level, JSON: c.Log.JSON}
}

func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.dir == "" {
		return path
	}
	return filepath.Join(c.dir, path)
}
