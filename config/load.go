package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/ByLCY/prompter/log"
)

// EnvPrefix prefixes environment overrides, e.g. PROMPTER_RENDER_FPS.
const EnvPrefix = "PROMPTER"

// LocalPath is the project-local config file.
const LocalPath = ".prompter/config.yaml"

// SetDefaults registers every default on v so env overrides work without a file.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("font.family", d.Font.Family)
	v.SetDefault("surface.width", d.Surface.Width)
	v.SetDefault("surface.height", d.Surface.Height)
	v.SetDefault("render.fps", d.Render.FPS)
	v.SetDefault("scroll.reset_on_script_change", d.Scroll.ResetOnScriptChange)
	v.SetDefault("play.speed_step", d.Play.SpeedStep)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.debug", d.Log.Debug)
}

// Load reads configuration into a Config.
// Lookup order: explicit path, .prompter/config.yaml, ~/.config/prompter/config.yaml.
// A missing file is not an error; defaults and environment still apply.
func Load(v *viper.Viper, path string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	switch {
	case path != "":
		v.SetConfigFile(path)
	case fileExists(LocalPath):
		v.SetConfigFile(LocalPath)
	default:
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "prompter"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		log.Debug(log.CatConfig, "No config file, using defaults")
	} else {
		log.Debug(log.CatConfig, "Loaded config", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
