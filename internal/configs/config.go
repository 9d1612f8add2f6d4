package configs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const defaultServerURL = "https://app.koru.dev/api"

type UserConfig struct {
	Server Server `toml:"server"`
	User   User   `toml:"user"`
}

type Server struct {
	URL string `toml:"url"`
}

type User struct {
	Email string `toml:"email"`
}

type ProjectConfig struct {
	Project Project `toml:"project"`
}

type Project struct {
	WorkspaceID        string `toml:"workspace_id"`
	Name               string `toml:"name"`
	DefaultEnvironment string `toml:"default_environment"`
}

var (
	GlobalUserConfig    *UserConfig
	GlobalProjectConfig *ProjectConfig
)

// Both config files are TOML. loadTOML and saveTOML are the only places the
// encoding is touched; saveTOML creates the parent directory as needed.

func loadTOML(path string, out interface{}) error {
	_, err := toml.DecodeFile(path, out)
	return err
}

func saveTOML(path string, data interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

// LoadUserConfig loads the user configuration from the config file.
func LoadUserConfig() (*UserConfig, error) {
	configPath := filepath.Join(UserKoruSettings.UserConfigsPath, "config.toml")

	config := &UserConfig{}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config.Server.URL = defaultServerURL
		return config, nil
	}

	if err := loadTOML(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	if config.Server.URL == "" {
		config.Server.URL = defaultServerURL
	}

	return config, nil
}

// SaveUserConfig saves the user configuration to the config file.
func SaveUserConfig(config *UserConfig) error {
	configPath := filepath.Join(UserKoruSettings.UserConfigsPath, "config.toml")

	if err := saveTOML(configPath, config); err != nil {
		return fmt.Errorf("failed to save user config: %w", err)
	}

	return nil
}

// LoadProjectConfig loads the project configuration from the linked .koru
// directory.
// Note: Caller should ensure InitProjectSettings is called before calling this function.
func LoadProjectConfig() (*ProjectConfig, error) {
	configPath := filepath.Join(ProjectKoruSettings.KoruPath, "config.toml")

	config := &ProjectConfig{}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return config, nil
	}

	if err := loadTOML(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to load project config: %w", err)
	}

	return config, nil
}

// SaveProjectConfig saves the project configuration to the linked .koru
// directory.
// Note: Caller should ensure InitProjectSettings is called before calling this function.
func SaveProjectConfig(config *ProjectConfig) error {
	configPath := filepath.Join(ProjectKoruSettings.KoruPath, "config.toml")

	if err := saveTOML(configPath, config); err != nil {
		return fmt.Errorf("failed to save project config: %w", err)
	}

	return nil
}

// Environment returns the environment to operate on: the flag value if the
// user passed one, otherwise the project default, otherwise "dev".
func (pc *ProjectConfig) Environment(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if pc.Project.DefaultEnvironment != "" {
		return pc.Project.DefaultEnvironment
	}
	return "dev"
}
