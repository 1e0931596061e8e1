package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const templateHeader = `# SecureDocs end-to-end suite configuration.
#
# Every key can be overridden from the environment with the SECUREDOCS_ prefix,
# e.g. SECUREDOCS_TARGET_BASE_URL or SECUREDOCS_BROWSER_HEADLESS=false.
`

// yaml.v3 renders time.Duration as integer nanoseconds, so durations go
// through these string-typed mirrors.
type browserTemplate struct {
	Engine         string `yaml:"engine"`
	Headless       bool   `yaml:"headless"`
	ViewportWidth  int    `yaml:"viewport_width"`
	ViewportHeight int    `yaml:"viewport_height"`
	Locale         string `yaml:"locale"`
	SlowMo         string `yaml:"slow_mo"`
	ActionTimeout  string `yaml:"action_timeout"`
}

type timeoutsTemplate struct {
	Element      string `yaml:"element"`
	Landing      string `yaml:"landing"`
	Navigation   string `yaml:"navigation"`
	PollInterval string `yaml:"poll_interval"`
	Case         string `yaml:"case"`
}

type fileTemplate struct {
	Target      TargetConfig      `yaml:"target"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Browser     browserTemplate   `yaml:"browser"`
	Timeouts    timeoutsTemplate  `yaml:"timeouts"`
	Runner      RunnerConfig      `yaml:"runner"`
	Report      ReportConfig      `yaml:"report"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// RenderYAML renders c in the config file format.
func (c *Config) RenderYAML() ([]byte, error) {
	doc := fileTemplate{
		Target:      c.Target,
		Credentials: c.Credentials,
		Browser: browserTemplate{
			Engine:         c.Browser.Engine,
			Headless:       c.Browser.Headless,
			ViewportWidth:  c.Browser.ViewportWidth,
			ViewportHeight: c.Browser.ViewportHeight,
			Locale:         c.Browser.Locale,
			SlowMo:         c.Browser.SlowMo.String(),
			ActionTimeout:  c.Browser.ActionTimeout.String(),
		},
		Timeouts: timeoutsTemplate{
			Element:      c.Timeouts.Element.String(),
			Landing:      c.Timeouts.Landing.String(),
			Navigation:   c.Timeouts.Navigation.String(),
			PollInterval: c.Timeouts.PollInterval.String(),
			Case:         c.Timeouts.Case.String(),
		},
		Runner:  c.Runner,
		Report:  c.Report,
		Logging: c.Logging,
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteTemplate writes the default configuration to path. It refuses to
// overwrite an existing file unless force is set.
func WriteTemplate(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
	}

	body, err := DefaultConfig().RenderYAML()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, append([]byte(templateHeader), body...), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
