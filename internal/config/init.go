package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	InitFlagFilename = "init"
)

// DataDirNeedsInitialization reports whether the data directory of cfg has
// not been prepared yet.
func DataDirNeedsInitialization(cfg *Config) (bool, error) {
	if cfg == nil {
		return false, fmt.Errorf("config not loaded")
	}

	flagFilePath := filepath.Join(cfg.Options.DataDirectory, InitFlagFilename)

	_, err := os.Stat(flagFilePath)
	if err == nil {
		return false, nil
	}

	if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to check init flag file: %w", err)
	}
	return true, nil
}

// InitDataDirectory creates the data directory with a catch-all .gitignore
// and marks it initialized. It is a no-op on an initialized directory.
func InitDataDirectory(cfg *Config) error {
	needs, err := DataDirNeedsInitialization(cfg)
	if err != nil || !needs {
		return err
	}
	dir := cfg.Options.DataDirectory
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create data directory: %q %w", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("*\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write .gitignore: %w", err)
	}

	flagFilePath := filepath.Join(dir, InitFlagFilename)
	file, err := os.Create(flagFilePath)
	if err != nil {
		return fmt.Errorf("failed to create init flag file: %w", err)
	}
	defer file.Close()

	return nil
}

// LogFile is where the application log of cfg is written.
func LogFile(cfg *Config) string {
	return filepath.Join(cfg.Options.DataDirectory, "logs", fmt.Sprintf("%s.log", appName))
}

// HasInitialDataConfig reports whether settings were ever written from
// inside the application.
func HasInitialDataConfig(cfg *Config) bool {
	if cfg == nil {
		return false
	}
	if _, err := os.Stat(cfg.dataConfigDir); err != nil {
		return false
	}
	return true
}
