package ui

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"
)

var hexColorRegex = regexp.MustCompile(`^#([0-9A-Fa-f]{3}|[0-9A-Fa-f]{6})$`)

// TokensFile is the YAML document that overrides built in tokens.
//
//	version: "1"
//	taskStatus:
//	  review: {name: purple, foreground: "#6d28d9", background: "#ede9fe"}
type TokensFile struct {
	Version       string           `yaml:"version"`
	TaskStatus    map[string]Token `yaml:"taskStatus,omitempty"`
	ProjectStatus map[string]Token `yaml:"projectStatus,omitempty"`
	Health        map[string]Token `yaml:"health,omitempty"`
}

// LoadTokensFile reads and validates a tokens file.
func LoadTokensFile(path string) (*TokensFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tokens file: %w", err)
	}

	var f TokensFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing tokens file: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tokens file: %w", err)
	}
	return &f, nil
}

// Validate checks the version and every colour.
func (f *TokensFile) Validate() error {
	if f.Version == "" {
		return errors.New("tokens version is required")
	}
	if f.Version != "1" {
		return fmt.Errorf("unsupported tokens version: %s (supported: 1)", f.Version)
	}
	groups := []struct {
		name   string
		tokens map[string]Token
	}{
		{"taskStatus", f.TaskStatus},
		{"projectStatus", f.ProjectStatus},
		{"health", f.Health},
	}
	for _, g := range groups {
		keys := make([]string, 0, len(g.tokens))
		for k := range g.tokens {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			t := g.tokens[k]
			if t.Name == "" {
				return fmt.Errorf("token '%s.%s' needs a name", g.name, k)
			}
			for _, c := range []string{t.Foreground, t.Background} {
				if c != "" && !hexColorRegex.MatchString(c) {
					return fmt.Errorf("token '%s.%s' has invalid colour: %s (expected #RGB or #RRGGBB)", g.name, k, c)
				}
			}
		}
	}
	return nil
}

// Apply returns base with the file's tokens layered on top.
func (f *TokensFile) Apply(base TokenSet) TokenSet {
	return TokenSet{
		TaskStatus:    merge(base.TaskStatus, f.TaskStatus),
		ProjectStatus: merge(base.ProjectStatus, f.ProjectStatus),
		Health:        merge(base.Health, f.Health),
	}
}

func merge(base, over map[string]Token) map[string]Token {
	out := make(map[string]Token, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// LoadTokens returns the default tokens, overridden by path when set.
func LoadTokens(path string) (TokenSet, error) {
	ts := DefaultTokens()
	if path == "" {
		return ts, nil
	}
	f, err := LoadTokensFile(path)
	if err != nil {
		return TokenSet{}, err
	}
	return f.Apply(ts), nil
}
