package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

var AppFs = afero.NewOsFs()

// FileName is the config file base name searched for in the working
// directory, the home directory and ~/.config/xcodegen.
const FileName = ".xcodegen"

// Config holds the application configuration
type Config struct {
	Descriptor    string
	Mode          string
	User          string
	ToolPath      string
	MinIDEVersion string
	LogFormat     string
	Debug         bool
	Stats         bool
}

// LoadConfig loads configuration from various sources
func LoadConfig() (*Config, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}

	viper.SetFs(AppFs)
	viper.SetConfigName(FileName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath(home)
	viper.AddConfigPath(filepath.Join(home, ".config", "xcodegen"))

	viper.SetEnvPrefix("XCODEGEN")
	viper.AutomaticEnv()

	viper.SetDefault("descriptor", "xcodegen.yaml")
	viper.SetDefault("mode", "")
	viper.SetDefault("user", os.Getenv("USER"))
	viper.SetDefault("tool_path", "")
	viper.SetDefault("min_ide_version", "")
	viper.SetDefault("log_format", "text")
	viper.SetDefault("debug", false)
	viper.SetDefault("stats", false)

	// A missing config file is fine.
	_ = viper.ReadInConfig()

	if _, err := AppFs.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	// .env.local wins over .env.
	if _, err := AppFs.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}

	return &Config{
		Descriptor:    viper.GetString("descriptor"),
		Mode:          viper.GetString("mode"),
		User:          viper.GetString("user"),
		ToolPath:      viper.GetString("tool_path"),
		MinIDEVersion: viper.GetString("min_ide_version"),
		LogFormat:     viper.GetString("log_format"),
		Debug:         viper.GetBool("debug"),
		Stats:         viper.GetBool("stats"),
	}, nil
}

// SaveConfig writes cfg to dir/.xcodegen.yaml. An empty dir selects
// ~/.config/xcodegen.
func SaveConfig(cfg *Config, dir string) (string, error) {
	viper.Set("descriptor", cfg.Descriptor)
	viper.Set("mode", cfg.Mode)
	viper.Set("tool_path", cfg.ToolPath)
	viper.Set("min_ide_version", cfg.MinIDEVersion)

	if dir == "" {
		home, err := homedir.Dir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".config", "xcodegen")
	}
	if err := AppFs.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, FileName+".yaml")
	viper.SetFs(AppFs)
	return path, viper.WriteConfigAs(path)
}
