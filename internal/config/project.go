package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectConfigDir is the per-project configuration directory name.
const ProjectConfigDir = ".reachy-mini"

// ProjectConfigFile is the configuration file name inside ProjectConfigDir.
const ProjectConfigFile = "config.yaml"

// ProjectConfig holds per-project settings for a Reachy Mini app workspace.
type ProjectConfig struct {
	// AppName is the app's package name (snake_case).
	AppName string `yaml:"app_name,omitempty"`

	// Template is the template the app was created from.
	Template string `yaml:"template,omitempty"`

	// DaemonURL overrides the daemon endpoint for this project.
	DaemonURL string `yaml:"daemon_url,omitempty"`

	// Spaces maps app names to their Hugging Face Space ids, recorded
	// on publish so `app check` can point at the live Space.
	Spaces map[string]string `yaml:"spaces,omitempty"`

	// Env holds extra environment variables passed to `app dev` runs.
	Env map[string]string `yaml:"env,omitempty"`
}

// configHeader is prepended to config.yaml on write.
const configHeader = `# Reachy Mini project configuration
# Managed by the reachy-mini CLI. Edit by hand if you like.
`

// LoadProjectConfig reads the project config from dir/.reachy-mini/config.yaml.
// A missing file is not an error: an empty config is returned so callers
// never need to nil-check. Map fields are always non-nil.
//
// Parameters:
//   - dir: The project root directory
//
// Returns:
//   - *ProjectConfig: The loaded (or empty) configuration
//   - error: An error if the file exists but cannot be parsed
func LoadProjectConfig(dir string) (*ProjectConfig, error) {
	cfg := &ProjectConfig{
		Spaces: map[string]string{},
		Env:    map[string]string{},
	}

	path := filepath.Join(dir, ProjectConfigDir, ProjectConfigFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if cfg.Spaces == nil {
		cfg.Spaces = map[string]string{}
	}
	if cfg.Env == nil {
		cfg.Env = map[string]string{}
	}
	return cfg, nil
}

// WriteProjectConfig writes the project config to dir/.reachy-mini/config.yaml,
// creating the directory if needed.
//
// Parameters:
//   - dir: The project root directory
//   - cfg: The configuration to write
//
// Returns:
//   - error: An error if the directory or file cannot be written
func WriteProjectConfig(dir string, cfg *ProjectConfig) error {
	configDir := filepath.Join(dir, ProjectConfigDir)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", configDir, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(configDir, ProjectConfigFile)
	if err := os.WriteFile(path, append([]byte(configHeader), data...), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// FindProjectRoot walks up from start looking for a directory containing
// .reachy-mini/ or pyproject.toml. Returns start itself when neither is
// found so commands still operate on the current directory.
func FindProjectRoot(start string) string {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, ProjectConfigDir)); err == nil {
			return dir
		}
		if _, err := os.Stat(filepath.Join(dir, "pyproject.toml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}
