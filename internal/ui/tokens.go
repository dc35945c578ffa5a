// Package ui holds the presentational layer: style tokens for status and
// health values, project card view models and loading indicators. Cards
// and indicators render to a terminal through lipgloss; the web frontend
// consumes the same view models as JSON.
package ui

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

// Token is a named colour pair for one enumerated value.
type Token struct {
	Name       string `json:"name" yaml:"name"`
	Foreground string `json:"foreground" yaml:"foreground"`
	Background string `json:"background" yaml:"background"`
}

// Style returns a lipgloss style painting text with the token colours.
func (t Token) Style() lipgloss.Style {
	s := lipgloss.NewStyle()
	if t.Foreground != "" {
		s = s.Foreground(lipgloss.Color(t.Foreground))
	}
	if t.Background != "" {
		s = s.Background(lipgloss.Color(t.Background))
	}
	return s
}

// Neutral is used for values without a token of their own.
var Neutral = Token{Name: "neutral", Foreground: "#374151", Background: "#f3f4f6"}

// TokenSet maps task status codes, project statuses and health flags to
// tokens.
type TokenSet struct {
	TaskStatus    map[string]Token `json:"taskStatus"`
	ProjectStatus map[string]Token `json:"projectStatus"`
	Health        map[string]Token `json:"health"`
}

// DefaultTokens returns the built in token set.
func DefaultTokens() TokenSet {
	return TokenSet{
		TaskStatus: map[string]Token{
			"todo":        {Name: "slate", Foreground: "#334155", Background: "#e2e8f0"},
			"in_progress": {Name: "blue", Foreground: "#1d4ed8", Background: "#dbeafe"},
			"blocked":     {Name: "red", Foreground: "#b91c1c", Background: "#fee2e2"},
			"completed":   {Name: "green", Foreground: "#047857", Background: "#d1fae5"},
			"done":        {Name: "green", Foreground: "#047857", Background: "#d1fae5"},
		},
		ProjectStatus: map[string]Token{
			"active":    {Name: "blue", Foreground: "#1d4ed8", Background: "#dbeafe"},
			"on_hold":   {Name: "amber", Foreground: "#b45309", Background: "#fef3c7"},
			"completed": {Name: "green", Foreground: "#047857", Background: "#d1fae5"},
			"archived":  {Name: "gray", Foreground: "#4b5563", Background: "#e5e7eb"},
		},
		Health: map[string]Token{
			"on_track":  {Name: "green", Foreground: "#047857", Background: "#d1fae5"},
			"at_risk":   {Name: "amber", Foreground: "#b45309", Background: "#fef3c7"},
			"off_track": {Name: "red", Foreground: "#b91c1c", Background: "#fee2e2"},
		},
	}
}

func lookup(m map[string]Token, key string) Token {
	if t, ok := m[strings.ToLower(strings.TrimSpace(key))]; ok {
		return t
	}
	return Neutral
}

// ForTaskStatus returns the token of a task status code.
func (ts TokenSet) ForTaskStatus(code string) Token { return lookup(ts.TaskStatus, code) }

// ForProjectStatus returns the token of a project status.
func (ts TokenSet) ForProjectStatus(status string) Token { return lookup(ts.ProjectStatus, status) }

// ForHealth returns the token of a project health flag.
func (ts TokenSet) ForHealth(health string) Token { return lookup(ts.Health, health) }

// HumanLabel turns "in_progress" into "In progress".
func HumanLabel(code string) string {
	s := strings.ReplaceAll(strings.TrimSpace(code), "_", " ")
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
