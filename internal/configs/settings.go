package configs

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	koruerrors "github.com/korulabs/koru/internal/errors"
)

type UserSettings struct {
	UserConfigsPath string
	UserDataPath    string
}

type ProjectSettings struct {
	ProjectName string
	ProjectPath string
	KoruPath    string
}

var (
	UserKoruSettings    *UserSettings
	ProjectKoruSettings *ProjectSettings
)

func init() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("error getting home directory: %s", err)
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		log.Fatalf("error getting config directory: %s", err)
	}

	dataDir := os.Getenv("XDG_DATA_HOME")

	if dataDir == "" {
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	// This is independent of what repo you are in, so it is ok to init here
	UserKoruSettings = &UserSettings{
		UserConfigsPath: filepath.Join(configDir, "koru"),
		UserDataPath:    filepath.Join(dataDir, "koru"),
	}
	ProjectKoruSettings = &ProjectSettings{
		ProjectName: "",
		ProjectPath: "",
		KoruPath:    "",
	}
}

// InitProjectSettings locates the linked project root for the current
// working directory and populates ProjectKoruSettings.
func InitProjectSettings() error {
	projectPath, err := FindProjectRoot()
	if err != nil {
		return fmt.Errorf("error getting project root: %w", err)
	}

	ProjectKoruSettings = &ProjectSettings{
		ProjectName: filepath.Base(projectPath),
		ProjectPath: projectPath,
		KoruPath:    filepath.Join(projectPath, ".koru"),
	}

	return nil
}

// FindProjectRoot walks up from the current directory looking for a .koru
// directory. Returns ErrProjectNotLinked when the walk reaches the
// filesystem root without finding one.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	for {
		info, err := os.Stat(filepath.Join(dir, ".koru"))
		if err == nil && info.IsDir() {
			return dir, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("failed to probe %s: %w", dir, err)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", koruerrors.ErrProjectNotLinked
		}
		dir = parent
	}
}
