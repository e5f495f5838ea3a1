package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"
	"github.com/tidwall/sjson"
)

const (
	appName              = "vstack"
	defaultDataDirectory = ".vstack"
	defaultOverscan      = 2
)

// SurfaceOptions configure every render surface the application builds.
type SurfaceOptions struct {
	Gap           int  `json:"gap,omitempty" jsonschema:"description=Blank lines between items,minimum=0"`
	SectionGap    int  `json:"section_gap,omitempty" jsonschema:"description=Blank lines between sections,minimum=0"`
	Overscan      int  `json:"overscan,omitempty" jsonschema:"description=Rows beyond each edge that keep their containers,minimum=0,default=2"`
	Headers       bool `json:"headers,omitempty" jsonschema:"description=Show a header above each section"`
	StrictDiff    bool `json:"strict_diff,omitempty" jsonschema:"description=Reconcile every snapshot even when its hash is unchanged"`
	DisableSettle bool `json:"disable_settle,omitempty" jsonschema:"description=Skip the settle pass after the first render"`
	DisableAnim   bool `json:"disable_animation,omitempty" jsonschema:"description=Disable animated scrolls and edit highlights"`
	Mouse         bool `json:"mouse,omitempty" jsonschema:"description=Enable mouse wheel and drag scrolling"`
}

// DemoOptions configure the interactive demo.
type DemoOptions struct {
	File     string `json:"file,omitempty" jsonschema:"description=YAML file of sections to show and watch"`
	Inverted bool   `json:"inverted,omitempty" jsonschema:"description=Start the second surface inverted"`
}

type Options struct {
	Debug         bool   `json:"debug,omitempty" jsonschema:"description=Enable debug logging"`
	DataDirectory string `json:"data_directory,omitempty" jsonschema:"description=Directory for logs and state relative to the working directory,default=.vstack"` // Relative to the cwd
}

// Config holds the configuration for vstack.
type Config struct {
	Options *Options        `json:"options,omitempty"`
	Surface *SurfaceOptions `json:"surface,omitempty"`
	Demo    *DemoOptions    `json:"demo,omitempty"`

	// Internal
	workingDir    string `json:"-"`
	dataConfigDir string `json:"-"`
}

func (c *Config) WorkingDir() string {
	return c.workingDir
}

// SetInverted records the inverted state of the demo's second surface.
func (c *Config) SetInverted(enabled bool) error {
	if c.Demo == nil {
		c.Demo = &DemoOptions{}
	}
	c.Demo.Inverted = enabled
	return c.SetConfigField("demo.inverted", enabled)
}

// SetConfigField writes value at the dotted key of the data config file,
// leaving every other field untouched.
func (c *Config) SetConfigField(key string, value any) error {
	if c.dataConfigDir == "" {
		return fmt.Errorf("failed to set config field %s: no data config file", key)
	}
	// read the data
	data, err := os.ReadFile(c.dataConfigDir)
	if err != nil {
		if os.IsNotExist(err) {
			data = []byte("{}")
		} else {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	newValue, err := sjson.Set(string(data), key, value)
	if err != nil {
		return fmt.Errorf("failed to set config field %s: %w", key, err)
	}
	if err := os.MkdirAll(filepath.Dir(c.dataConfigDir), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(c.dataConfigDir, []byte(newValue), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Schema returns the JSON schema of the configuration file.
func Schema() ([]byte, error) {
	reflector := new(jsonschema.Reflector)
	bts, err := json.MarshalIndent(reflector.Reflect(&Config{}), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return bts, nil
}
