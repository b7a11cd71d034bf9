package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/pawnls/internal/parser"
)

const (
	// FileName is the optional project config file at a workspace root
	FileName = ".pawnls.toml"
	// Section is the editor configuration section holding the toggles
	Section = "pawn.language"

	// DefaultDBPath is where the extraction cache lives unless
	// PAWNLS_DB_PATH says otherwise
	DefaultDBPath = "~/.pawnls/cache"
)

// Settings is the full analyzer configuration
type Settings struct {
	Language Language `toml:"language" json:"language"`
	Color    Color    `toml:"color" json:"color"`
	Format   Format   `toml:"format" json:"format"`
	Index    Index    `toml:"index" json:"index"`
}

// Language holds the extraction toggles. Names match the editor settings.
type Language struct {
	AllowDefine         bool `toml:"allowDefine" json:"allowDefine"`
	AllowDefineFunction bool `toml:"allowDefineFunction" json:"allowDefineFunction"`
	AllowFunction       bool `toml:"allowFunction" json:"allowFunction"`
	AllowNatives        bool `toml:"allowNatives" json:"allowNatives"`
	AllowWords          bool `toml:"allowWords" json:"allowWords"`
	AllowCustomSnip     bool `toml:"allowCustomSnip" json:"allowCustomSnip"`
}

type Color struct {
	EnableColorPicker    bool `toml:"enableColorPicker" json:"enableColorPicker"`
	EnableGameTextColors bool `toml:"enableGameTextColors" json:"enableGameTextColors"`
}

type Format struct {
	BraceStyle string `toml:"braceStyle" json:"braceStyle"`
	Command    string `toml:"command" json:"command"` // external beautifier
	IndentSize int    `toml:"indentSize" json:"indentSize"`
}

type Index struct {
	Workers    int `toml:"workers" json:"workers"`
	DebounceMs int `toml:"debounceMs" json:"debounceMs"`
}

// Default returns the settings used when nothing is configured
func Default() Settings {
	return Settings{
		Language: Language{
			AllowDefine:         true,
			AllowDefineFunction: true,
			AllowFunction:       true,
			AllowNatives:        true,
			AllowWords:          true,
			AllowCustomSnip:     true,
		},
		Color: Color{
			EnableColorPicker:    true,
			EnableGameTextColors: false,
		},
		Format: Format{
			BraceStyle: "collapse",
			Command:    "js-beautify",
			IndentSize: 4,
		},
		Index: Index{
			Workers:    runtime.NumCPU(),
			DebounceMs: 300,
		},
	}
}

// LoadFile overlays the TOML file at path on the defaults. A missing file
// is not an error.
func LoadFile(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("failed to read config: %w", err)
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return Default(), fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return s, s.Validate()
}

// Load reads the project config file from a workspace root
func Load(root string) (Settings, error) {
	return LoadFile(filepath.Join(root, FileName))
}

// ValidBraceStyle reports whether style is one the beautifier accepts
func ValidBraceStyle(style string) bool {
	switch style {
	case "collapse", "expand", "end-expand", "none", "collapse-preserve-inline":
		return true
	}
	return false
}

// Validate checks values that have a restricted range
func (s Settings) Validate() error {
	if !ValidBraceStyle(s.Format.BraceStyle) {
		return fmt.Errorf("invalid brace style %q", s.Format.BraceStyle)
	}
	if s.Index.Workers < 1 {
		return errors.New("index workers must be at least 1")
	}
	if s.Index.DebounceMs < 0 {
		return errors.New("debounce must not be negative")
	}
	return nil
}

// ParserOptions maps the toggles onto extraction passes
func (s Settings) ParserOptions() parser.Options {
	return parser.Options{
		Natives:         s.Language.AllowNatives,
		Functions:       s.Language.AllowFunction,
		CustomSnippets:  s.Language.AllowCustomSnip,
		DefineFunctions: s.Language.AllowDefineFunction,
		Defines:         s.Language.AllowDefine,
		Words:           s.Language.AllowWords,
	}
}

// DBPath returns the cache directory, expanding a leading "~"
func DBPath() (string, error) {
	p := os.Getenv("PAWNLS_DB_PATH")
	if p == "" {
		p = DefaultDBPath
	}
	if p == "~" || len(p) > 1 && p[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		p = filepath.Join(home, p[1:])
	}
	return p, nil
}
