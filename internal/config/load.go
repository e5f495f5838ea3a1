package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/qjebbs/go-jsons"
)

// Load reads the global config, the global data config and the project
// configs of workingDir, in that order, merging later files over earlier
// ones.
func Load(workingDir string, debug bool) (*Config, error) {
	cfg, err := loadFromConfigPaths(lookupConfigs(workingDir))
	if err != nil {
		return nil, fmt.Errorf("failed to load config from paths: %w", err)
	}
	cfg.setDefaults(workingDir)
	if debug {
		cfg.Options.Debug = true
	}
	cfg.dataConfigDir = GlobalConfigData()
	return cfg, nil
}

// Defaults returns a configuration built from defaults only. It has no data
// config file, so SetConfigField fails on it.
func Defaults(workingDir string) *Config {
	cfg := &Config{}
	cfg.setDefaults(workingDir)
	return cfg
}

func lookupConfigs(cwd string) []string {
	return []string{
		GlobalConfig(),
		GlobalConfigData(),
		filepath.Join(cwd, fmt.Sprintf("%s.json", appName)),
		filepath.Join(cwd, fmt.Sprintf(".%s.json", appName)),
	}
}

func loadFromConfigPaths(configPaths []string) (*Config, error) {
	var configs []io.Reader

	for _, path := range configPaths {
		fd, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
		}
		defer fd.Close()

		slog.Debug("Loading config", "path", path)
		configs = append(configs, fd)
	}

	return loadFromReaders(configs)
}

func loadFromReaders(readers []io.Reader) (*Config, error) {
	if len(readers) == 0 {
		return &Config{}, nil
	}

	merged, err := jsons.Merge(readers)
	if err != nil {
		return nil, fmt.Errorf("failed to merge configuration readers: %w", err)
	}

	return LoadReader(bytes.NewReader(merged))
}

// LoadReader decodes a single configuration document.
func LoadReader(fd io.Reader) (*Config, error) {
	data, err := io.ReadAll(fd)
	if err != nil {
		return nil, err
	}

	var config Config
	err = json.Unmarshal(data, &config)
	if err != nil {
		return nil, err
	}
	return &config, err
}

func (c *Config) setDefaults(workingDir string) {
	c.workingDir = workingDir
	if c.Options == nil {
		c.Options = &Options{}
	}
	if c.Surface == nil {
		c.Surface = &SurfaceOptions{}
	}
	if c.Demo == nil {
		c.Demo = &DemoOptions{}
	}
	if c.Options.DataDirectory == "" {
		c.Options.DataDirectory = filepath.Join(workingDir, defaultDataDirectory)
	} else if !filepath.IsAbs(c.Options.DataDirectory) {
		c.Options.DataDirectory = filepath.Join(workingDir, c.Options.DataDirectory)
	}
	if c.Surface.Overscan <= 0 {
		c.Surface.Overscan = defaultOverscan
	}
	if c.Demo.File != "" && !filepath.IsAbs(c.Demo.File) {
		c.Demo.File = filepath.Join(workingDir, c.Demo.File)
	}
}

// GlobalConfig returns the global configuration file path for the
// application.
func GlobalConfig() string {
	if p := os.Getenv("VSTACK_GLOBAL_CONFIG"); p != "" {
		return filepath.Join(p, fmt.Sprintf("%s.json", appName))
	}
	xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, appName, fmt.Sprintf("%s.json", appName))
	}

	// return the path to the main config directory
	// for windows, it should be in `%LOCALAPPDATA%/vstack/`
	// for linux and macOS, it should be in `$HOME/.config/vstack/`
	if runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Local")
		}
		return filepath.Join(localAppData, appName, fmt.Sprintf("%s.json", appName))
	}

	return filepath.Join(homeDir(), ".config", appName, fmt.Sprintf("%s.json", appName))
}

// GlobalConfigData returns the path to the main data directory for the
// application. This is where settings changed from inside the application
// are written.
func GlobalConfigData() string {
	if p := os.Getenv("VSTACK_GLOBAL_DATA"); p != "" {
		return filepath.Join(p, fmt.Sprintf("%s.json", appName))
	}
	xdgDataHome := os.Getenv("XDG_DATA_HOME")
	if xdgDataHome != "" {
		return filepath.Join(xdgDataHome, appName, fmt.Sprintf("%s.json", appName))
	}

	if runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Local")
		}
		return filepath.Join(localAppData, appName, fmt.Sprintf("%s.json", appName))
	}

	return filepath.Join(homeDir(), ".local", "share", appName, fmt.Sprintf("%s.json", appName))
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return home
}
