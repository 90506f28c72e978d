// Package config provides configuration types, defaults, and persistence for prompter.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ByLCY/prompter/fonts"
	"github.com/ByLCY/prompter/log"
)

// Config is the full configuration, populated by viper.
type Config struct {
	DBPath  string        `mapstructure:"db_path"`
	Font    FontConfig    `mapstructure:"font"`
	Surface SurfaceConfig `mapstructure:"surface"`
	Render  RenderConfig  `mapstructure:"render"`
	Scroll  ScrollConfig  `mapstructure:"scroll"`
	Play    PlayConfig    `mapstructure:"play"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
}

// FontConfig selects the built-in font family for raster and PDF output.
type FontConfig struct {
	Family string `mapstructure:"family"` // sans (default), serif, mono
}

// SurfaceConfig is the offscreen surface size in px.
type SurfaceConfig struct {
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
}

// RenderConfig controls the frame loop.
type RenderConfig struct {
	FPS int `mapstructure:"fps"`
}

// ScrollConfig controls what happens to the offset when the script changes.
type ScrollConfig struct {
	ResetOnScriptChange bool `mapstructure:"reset_on_script_change"`
}

// PlayConfig holds interactive player options.
type PlayConfig struct {
	SpeedStep float64 `mapstructure:"speed_step"`
}

// ServerConfig holds REST API options.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig enables the debug log file.
type LogConfig struct {
	File  string `mapstructure:"file"`
	Debug bool   `mapstructure:"debug"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		DBPath:  "prompter.db",
		Font:    FontConfig{Family: fonts.FamilySans},
		Surface: SurfaceConfig{Width: 1280, Height: 720},
		Render:  RenderConfig{FPS: 60},
		Scroll:  ScrollConfig{ResetOnScriptChange: true},
		Play:    PlayConfig{SpeedStep: 10},
		Server:  ServerConfig{Addr: "127.0.0.1:8000"},
		Log:     LogConfig{File: "debug.log"},
	}
}

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Frame rate bounds accepted for render.fps and the --fps flag.
const (
	MinFPS = 1
	MaxFPS = 240
)

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.DBPath == "" {
		errs = append(errs, fmt.Errorf("%w: db_path is empty", ErrInvalidConfig))
	}
	if c.Font.Family != "" && !slices.Contains(fonts.Families(), c.Font.Family) {
		errs = append(errs, fmt.Errorf("%w: font.family %q (want one of %v)", ErrInvalidConfig, c.Font.Family, fonts.Families()))
	}
	if c.Surface.Width <= 0 || c.Surface.Height <= 0 {
		errs = append(errs, fmt.Errorf("%w: surface size %gx%g", ErrInvalidConfig, c.Surface.Width, c.Surface.Height))
	}
	if c.Render.FPS < MinFPS || c.Render.FPS > MaxFPS {
		errs = append(errs, fmt.Errorf("%w: render.fps %d out of range [%d, %d]", ErrInvalidConfig, c.Render.FPS, MinFPS, MaxFPS))
	}
	if c.Play.SpeedStep <= 0 {
		errs = append(errs, fmt.Errorf("%w: play.speed_step must be positive", ErrInvalidConfig))
	}
	if c.Server.Addr == "" {
		errs = append(errs, fmt.Errorf("%w: server.addr is empty", ErrInvalidConfig))
	}
	return errors.Join(errs...)
}

// WriteDefaultConfig writes a commented default config to path.
func WriteDefaultConfig(path string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", path)

	data, err := DefaultConfigYAML()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", path)
		return fmt.Errorf("writing config file: %w", err)
	}
	log.Info(log.CatConfig, "Created default config", "path", path)
	return nil
}

// DefaultConfigYAML renders Defaults as commented YAML.
func DefaultConfigYAML() ([]byte, error) {
	d := Defaults()
	root := mapping(
		entry("db_path", "SQLite file holding saved scripts", str(d.DBPath)),
		entry("font", "", mapping(
			entry("family", "sans, serif or mono", str(d.Font.Family)),
		)),
		entry("surface", "offscreen surface size in px for render", mapping(
			entry("width", "", num(d.Surface.Width)),
			entry("height", "", num(d.Surface.Height)),
		)),
		entry("render", "", mapping(
			entry("fps", "frames per second", integer(d.Render.FPS)),
		)),
		entry("scroll", "", mapping(
			entry("reset_on_script_change", "rewind to the top when the script text changes", boolean(d.Scroll.ResetOnScriptChange)),
		)),
		entry("play", "", mapping(
			entry("speed_step", "speed change per +/- key press", num(d.Play.SpeedStep)),
		)),
		entry("server", "", mapping(
			entry("addr", "listen address of prompter serve", str(d.Server.Addr)),
		)),
		entry("log", "", mapping(
			entry("file", "", str(d.Log.File)),
			entry("debug", "write debug log to log.file", boolean(d.Log.Debug)),
		)),
	)
	root.HeadComment = "prompter configuration"
	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	_ = enc.Close()
	return buf.Bytes(), nil
}

type kv struct {
	key   *yaml.Node
	value *yaml.Node
}

func entry(key, comment string, value *yaml.Node) kv {
	return kv{key: &yaml.Node{Kind: yaml.ScalarNode, Value: key, HeadComment: comment}, value: value}
}

func mapping(entries ...kv) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range entries {
		n.Content = append(n.Content, e.key, e.value)
	}
	return n
}

func str(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func num(v float64) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: strconv.FormatFloat(v, 'f', -1, 64)}
}

func integer(v int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: strconv.Itoa(v)}
}

func boolean(v bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: strconv.FormatBool(v)}
}
