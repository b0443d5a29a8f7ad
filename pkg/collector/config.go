package collector

import (
	"fmt"
	"os"
	"strings"

	"github.com/entrhq/materials/pkg/artifact"
	"github.com/entrhq/materials/pkg/browser"
	"github.com/entrhq/materials/pkg/snapshot"
	"gopkg.in/yaml.v3"
)

// Defaults applied by DefaultConfig.
const (
	DefaultCDPPort    = 9222
	DefaultOutputDir  = "./materials"
	DefaultConfigFile = "collect-materials-config.json"
)

// Config describes one capture run. Files may be YAML or JSON; JSON is read
// as YAML.
type Config struct {
	ProjectName string `yaml:"projectName" json:"projectName"`
	Description string `yaml:"description" json:"description"`

	// Driver selects the browser driver: playwright or rod.
	Driver    string `yaml:"driver" json:"driver"`
	CDPPort   int    `yaml:"cdpPort" json:"cdpPort"`
	OutputDir string `yaml:"outputDir" json:"outputDir"`
	Timezone  string `yaml:"timezone" json:"timezone"`

	CollectOptions   CollectOptions    `yaml:"collectOptions" json:"collectOptions"`
	Pages            []PageTarget      `yaml:"pages" json:"pages"`
	InteractiveFlows []InteractiveFlow `yaml:"interactiveFlows" json:"interactiveFlows"`

	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// ConfigFilePath is set by LoadConfig.
	ConfigFilePath string `yaml:"-" json:"-"`
}

// CollectOptions selects the artifacts captured for every page.
type CollectOptions struct {
	AriaSnapshot     bool `yaml:"ariaSnapshot" json:"ariaSnapshot"`
	Screenshot       bool `yaml:"screenshot" json:"screenshot"`
	CodegenRecording bool `yaml:"codegenRecording" json:"codegenRecording"`
	HTMLSource       bool `yaml:"htmlSource" json:"htmlSource"`
	// SanitizeHTML strips scripts, event handlers and form values from the
	// saved markup.
	SanitizeHTML bool `yaml:"sanitizeHtml" json:"sanitizeHtml"`
	IframeDepth  int  `yaml:"iframeDepth" json:"iframeDepth"`
}

// PageTarget is one configured page.
type PageTarget struct {
	Name        string       `yaml:"name" json:"name"`
	URL         string       `yaml:"url" json:"url"`
	Description string       `yaml:"description" json:"description"`
	WaitFor     string       `yaml:"waitFor" json:"waitFor"`
	Actions     []PageAction `yaml:"actions" json:"actions"`
}

// Action types.
const (
	ActionClick    = "click"
	ActionType     = "type"
	ActionWait     = "wait"
	ActionNavigate = "navigate"
	ActionDownload = "download"
)

// PageAction is a step run on a page before it is captured.
type PageAction struct {
	Type        string `yaml:"type" json:"type"`
	Selector    string `yaml:"selector,omitempty" json:"selector,omitempty"`
	Text        string `yaml:"text,omitempty" json:"text,omitempty"`
	URL         string `yaml:"url,omitempty" json:"url,omitempty"`
	WaitMs      int    `yaml:"waitMs,omitempty" json:"waitMs,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// InteractiveFlow is a flow recorded with codegen after the configured pages.
type InteractiveFlow struct {
	Name         string `yaml:"name" json:"name"`
	Description  string `yaml:"description" json:"description"`
	StartURL     string `yaml:"startUrl" json:"startUrl"`
	Instructions string `yaml:"instructions" json:"instructions"`
}

// LoggingConfig defines console verbosity.
type LoggingConfig struct {
	// Verbosity controls console output: quiet, normal, verbose, debug
	Verbosity string `yaml:"verbosity" json:"verbosity"`
}

// DefaultConfig returns the configuration used when a field is absent from
// the file.
func DefaultConfig() *Config {
	return &Config{
		Driver:    browser.DriverPlaywright,
		CDPPort:   DefaultCDPPort,
		OutputDir: DefaultOutputDir,
		Timezone:  artifact.DefaultTimezone,
		CollectOptions: CollectOptions{
			AriaSnapshot:     true,
			Screenshot:       true,
			CodegenRecording: true,
			HTMLSource:       false,
			SanitizeHTML:     true,
			IframeDepth:      snapshot.DefaultMaxDepth,
		},
		Logging: LoggingConfig{Verbosity: "normal"},
	}
}

// LoadConfig reads a configuration file on top of DefaultConfig and
// validates it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.ConfigFilePath = path

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration and fills derived defaults.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ProjectName) == "" {
		return fmt.Errorf("projectName is required")
	}

	if c.CDPPort < 1024 || c.CDPPort > 65535 {
		return fmt.Errorf("invalid cdpPort: %d (must be between 1024 and 65535)", c.CDPPort)
	}

	if c.Driver == "" {
		c.Driver = browser.DriverPlaywright
	}
	if c.Driver != browser.DriverPlaywright && c.Driver != browser.DriverRod {
		return fmt.Errorf("invalid driver: %s (must be '%s' or '%s')", c.Driver, browser.DriverPlaywright, browser.DriverRod)
	}

	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.Timezone == "" {
		c.Timezone = artifact.DefaultTimezone
	}
	c.CollectOptions.IframeDepth = snapshot.ClampDepth(c.CollectOptions.IframeDepth)

	for i, p := range c.Pages {
		if p.Name == "" {
			return fmt.Errorf("pages[%d]: name is required", i)
		}
		if p.WaitFor != "" {
			if _, ok := browser.ParseWaitUntil(p.WaitFor); !ok {
				return fmt.Errorf("pages[%d]: invalid waitFor: %s", i, p.WaitFor)
			}
		}
		for j, a := range p.Actions {
			switch a.Type {
			case ActionClick, ActionType, ActionWait, ActionNavigate, ActionDownload:
			default:
				return fmt.Errorf("pages[%d].actions[%d]: unknown action type: %q", i, j, a.Type)
			}
		}
	}

	if c.Logging.Verbosity == "" {
		c.Logging.Verbosity = "normal"
	}
	if _, ok := ParseVerbosity(c.Logging.Verbosity); !ok {
		return fmt.Errorf("invalid logging verbosity: %s (must be 'quiet', 'normal', 'verbose', or 'debug')", c.Logging.Verbosity)
	}

	return nil
}

// RedactedForLog returns a copy safe to write to the run log: text typed by
// actions is masked.
func (c *Config) RedactedForLog() *Config {
	clone := *c
	clone.Pages = make([]PageTarget, len(c.Pages))
	for i, p := range c.Pages {
		p.Actions = append([]PageAction(nil), p.Actions...)
		for j := range p.Actions {
			if p.Actions[j].Type == ActionType && p.Actions[j].Text != "" {
				p.Actions[j].Text = "***"
			}
		}
		clone.Pages[i] = p
	}
	return &clone
}
