package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"richtext/internal/editor"
	"richtext/pkg/richtext"
)

var ErrConfigFormat = errors.New("app: config must be .toml, .yaml or .yml")

// Config is the document defaults and renderer settings read from a TOML or
// YAML file.
type Config struct {
	Alignment         string                       `toml:"alignment" yaml:"alignment"`
	DecimalPercent    int                          `toml:"decimal_percent" yaml:"decimal_percent"`
	AllowMultiLine    *bool                        `toml:"allow_multi_line" yaml:"allow_multi_line"`
	AllowMarkdownMode *bool                        `toml:"allow_markdown_mode" yaml:"allow_markdown_mode"`
	Styles            map[string]map[string]string `toml:"styles" yaml:"styles"`
	MarkdownTags      richtext.MarkdownTags        `toml:"markdown_tags" yaml:"markdown_tags"`
	Mentions          []MentionEntry               `toml:"mentions" yaml:"mentions"`
	Render            RenderConfig                 `toml:"render" yaml:"render"`
	LogLevel          string                       `toml:"log_level" yaml:"log_level"`
}

// MentionEntry is one directory entry offered while typing a mention.
type MentionEntry struct {
	Text    string            `toml:"text" yaml:"text"`
	Label   string            `toml:"label" yaml:"label"`
	Payload map[string]string `toml:"payload" yaml:"payload"`
}

type RenderConfig struct {
	Width  int    `toml:"width" yaml:"width"`
	Height int    `toml:"height" yaml:"height"`
	Border bool   `toml:"border" yaml:"border"`
	Status bool   `toml:"status" yaml:"status"`
	Color  string `toml:"color" yaml:"color"`
}

func DefaultConfig() Config {
	return Config{
		DecimalPercent: 50,
		Render:         RenderConfig{Width: 80, Height: 24, Color: "auto"},
		LogLevel:       "info",
	}
}

// LoadConfig reads path over DefaultConfig. An empty path yields the
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(b, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	default:
		return cfg, fmt.Errorf("%w: %s", ErrConfigFormat, path)
	}
	if err != nil {
		return cfg, fmt.Errorf("app: config %s: %w", path, err)
	}
	return cfg, nil
}

// Props turns the config into document defaults.
func (c Config) Props() (richtext.Props, error) {
	p := richtext.DefaultProps()
	a, err := richtext.ParseAlignment(c.Alignment)
	if err != nil {
		return p, err
	}
	p.Alignment = a
	if c.DecimalPercent != 0 {
		p.DecimalPercent = min(max(c.DecimalPercent, 0), 100)
	}
	if c.AllowMultiLine != nil {
		p.AllowMultiLine = *c.AllowMultiLine
	}
	if c.AllowMarkdownMode != nil {
		p.AllowMarkdownMode = *c.AllowMarkdownMode
	}
	for tag, decl := range c.Styles {
		p.Styles[tag] = richtext.Style(decl)
	}
	p.MarkdownTags = c.MarkdownTags.WithDefaults()
	return p, nil
}

// Lookup serves mention candidates from the configured directory. Entries
// match when their text or label starts with the typed token, ignoring case
// and the sigil.
func (c Config) Lookup() editor.LookupFunc {
	if len(c.Mentions) == 0 {
		return nil
	}
	entries := append([]MentionEntry(nil), c.Mentions...)
	return func(ctx context.Context, token string) ([]editor.Candidate, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q := strings.ToLower(strings.TrimPrefix(token, richtext.MentionSigil))
		var out []editor.Candidate
		for _, e := range entries {
			text := strings.ToLower(strings.TrimPrefix(e.Text, richtext.MentionSigil))
			if strings.HasPrefix(text, q) || strings.HasPrefix(strings.ToLower(e.Label), q) {
				out = append(out, editor.Candidate{Text: e.Text, Label: e.Label, Payload: e.Payload})
			}
		}
		return out, nil
	}
}
