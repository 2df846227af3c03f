package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/craftctl/internal/model"
)

// Default values applied when the configuration file omits a field.
// The image default is the de-facto standard community server image;
// 25565 is the Minecraft Java Edition default port.
const (
	DefaultImage       = "itzg/minecraft-server:latest"
	DefaultPort        = 25565
	DefaultMemoryMB    = 2048
	DefaultStopTimeout = 30
)

// searchNames lists the configuration file names probed in the working
// directory, in priority order, when --config is not given.
var searchNames = []string{
	"craftctl.yml",
	"craftctl.yaml",
	"craftctl.jsonc",
	"craftctl.json",
}

// Config is the parsed craftctl configuration. Field tags cover both
// supported formats; the YAML and JSON key names are identical.
type Config struct {
	// Server declares the container itself.
	Server ServerConfig `yaml:"server" json:"server"`

	// Worlds declares where the worlds data directory comes from.
	Worlds WorldsConfig `yaml:"worlds" json:"worlds"`

	// Plugins declares the local plugin tree copied into the data dir.
	Plugins PluginsConfig `yaml:"plugins" json:"plugins"`

	// DataDir is the host directory bind-mounted into the container at
	// /data. Relative paths are resolved against the config file's
	// directory, because Docker bind mounts require absolute paths.
	DataDir string `yaml:"dataDir" json:"dataDir"`
}

// ServerConfig declares the managed server container.
type ServerConfig struct {
	// Name is the server name, used verbatim as the container name.
	Name string `yaml:"name" json:"name"`

	// Image is the container image reference to run.
	Image string `yaml:"image" json:"image"`

	// Port is the game port inside the container.
	Port int `yaml:"port" json:"port"`

	// HostPort is the host port published for the game port.
	// Defaults to Port when omitted.
	HostPort int `yaml:"hostPort" json:"hostPort"`

	// MemoryMB is the container memory limit in megabytes.
	MemoryMB int `yaml:"memoryMb" json:"memoryMb"`

	// StopTimeoutSeconds is how long Docker waits for a graceful stop
	// before killing the server process.
	StopTimeoutSeconds int `yaml:"stopTimeoutSeconds" json:"stopTimeoutSeconds"`

	// Env is extra environment passed to the container. EULA=TRUE is
	// always set because the server image refuses to boot without it.
	Env map[string]string `yaml:"env" json:"env"`
}

// WorldsConfig declares the remote source of the worlds directory.
type WorldsConfig struct {
	// URL is an http(s) URL of a zip archive holding the worlds
	// directory contents. Empty disables the download step.
	URL string `yaml:"url" json:"url"`
}

// PluginsConfig declares the local plugin file tree.
type PluginsConfig struct {
	// Source is a local directory whose contents are copied into
	// <dataDir>/plugins before every start. Empty disables the copy.
	Source string `yaml:"source" json:"source"`
}

// Load reads the configuration from the given path, or, when path is
// empty, probes the working directory for the standard file names.
//
// Returns a model.CLIError with ExitConfigNotFound when no configuration
// file exists, so the CLI exits with a distinct code scripts can detect.
func Load(path string) (*Config, error) {
	if path == "" {
		found, err := discover(".")
		if err != nil {
			return nil, err
		}
		path = found
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(model.ExitConfigNotFound,
				fmt.Sprintf("configuration file %q not found", path), err)
		}
		return nil, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to read configuration file %q", path), err)
	}

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("failed to parse %q", path), err)
		}
	case ".json", ".jsonc":
		// jsonc.ToJSON strips comments and trailing commas, producing
		// plain JSON the standard library can parse.
		if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
			return nil, model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("failed to parse %q", path), err)
		}
	default:
		return nil, model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("unsupported configuration format %q (expected .yml, .yaml, .json or .jsonc)", filepath.Ext(path)))
	}

	cfg.applyDefaults()

	// Resolve the data directory against the config file location so
	// the bind mount path is absolute regardless of the working dir.
	if !filepath.IsAbs(cfg.DataDir) {
		base := filepath.Dir(path)
		abs, err := filepath.Abs(filepath.Join(base, cfg.DataDir))
		if err != nil {
			return nil, model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("failed to resolve data directory %q", cfg.DataDir), err)
		}
		cfg.DataDir = abs
	}
	if cfg.Plugins.Source != "" && !filepath.IsAbs(cfg.Plugins.Source) {
		abs, err := filepath.Abs(filepath.Join(filepath.Dir(path), cfg.Plugins.Source))
		if err != nil {
			return nil, model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("failed to resolve plugin source %q", cfg.Plugins.Source), err)
		}
		cfg.Plugins.Source = abs
	}

	if err := cfg.Validate(); err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("invalid configuration in %q", path), err)
	}

	return cfg, nil
}

// discover probes dir for the standard configuration file names and
// returns the first one that exists.
func discover(dir string) (string, error) {
	for _, name := range searchNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", model.NewCLIError(model.ExitConfigNotFound,
		fmt.Sprintf("no configuration file found (looked for %s) — create one or pass --config",
			strings.Join(searchNames, ", ")))
}

// applyDefaults fills in zero-valued fields with the package defaults.
func (c *Config) applyDefaults() {
	if c.Server.Image == "" {
		c.Server.Image = DefaultImage
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.HostPort == 0 {
		c.Server.HostPort = c.Server.Port
	}
	if c.Server.MemoryMB == 0 {
		c.Server.MemoryMB = DefaultMemoryMB
	}
	if c.Server.StopTimeoutSeconds == 0 {
		c.Server.StopTimeoutSeconds = DefaultStopTimeout
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.Server.Env == nil {
		c.Server.Env = map[string]string{}
	}
	// The server image requires explicit EULA acceptance. Users can
	// still override it to FALSE, which makes the server refuse to
	// boot — that is their call, not ours.
	if _, ok := c.Server.Env["EULA"]; !ok {
		c.Server.Env["EULA"] = "TRUE"
	}
}

// Validate checks the configuration for values that would fail later in
// less obvious ways (Docker API errors, unroutable ports).
func (c *Config) Validate() error {
	if err := model.ValidateName(c.Server.Name); err != nil {
		return err
	}
	if c.Server.Image == "" {
		return fmt.Errorf("server image must not be empty")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range (1-65535)", c.Server.Port)
	}
	if c.Server.HostPort < 1 || c.Server.HostPort > 65535 {
		return fmt.Errorf("host port %d out of range (1-65535)", c.Server.HostPort)
	}
	if c.Server.MemoryMB < 0 {
		return fmt.Errorf("memory limit must not be negative")
	}
	if c.Worlds.URL != "" &&
		!strings.HasPrefix(c.Worlds.URL, "http://") &&
		!strings.HasPrefix(c.Worlds.URL, "https://") {
		return fmt.Errorf("worlds url %q must be an http(s) URL", c.Worlds.URL)
	}
	return nil
}

// WorldsDir returns the path of the worlds directory inside the data dir.
func (c *Config) WorldsDir() string {
	return filepath.Join(c.DataDir, "worlds")
}

// PluginsDir returns the path of the plugins directory inside the data dir.
func (c *Config) PluginsDir() string {
	return filepath.Join(c.DataDir, "plugins")
}
