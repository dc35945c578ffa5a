package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"pmtrack/internal/models"
)

// ProjectCard is the view model of one project tile.
type ProjectCard struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Color          string `json:"color"`
	Status         string `json:"status"`
	StatusLabel    string `json:"statusLabel"`
	StatusToken    Token  `json:"statusToken"`
	Health         string `json:"health"`
	HealthLabel    string `json:"healthLabel"`
	HealthToken    Token  `json:"healthToken"`
	TotalTasks     int    `json:"totalTasks"`
	CompletedTasks int    `json:"completedTasks"`
	Progress       int    `json:"progress"`
	DueDate        string `json:"dueDate,omitempty"`
}

// NewProjectCard builds the card of p from its task counters.
func NewProjectCard(p models.Project, stats models.ProjectStats, ts TokenSet) ProjectCard {
	c := ProjectCard{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Color:          p.Color,
		Status:         p.Status,
		StatusLabel:    HumanLabel(p.Status),
		StatusToken:    ts.ForProjectStatus(p.Status),
		Health:         p.Health,
		HealthLabel:    HumanLabel(p.Health),
		HealthToken:    ts.ForHealth(p.Health),
		TotalTasks:     stats.Total,
		CompletedTasks: stats.Done,
	}
	if stats.Total > 0 {
		c.Progress = stats.Done * 100 / stats.Total
	}
	if p.EndDate != nil {
		c.DueDate = p.EndDate.Format("2006-01-02")
	}
	return c
}

// BuildProjectCards pairs projects with their counters.
func BuildProjectCards(projects []models.Project, stats map[int64]models.ProjectStats, ts TokenSet) []ProjectCard {
	out := make([]ProjectCard, 0, len(projects))
	for _, p := range projects {
		out = append(out, NewProjectCard(p, stats[p.ID], ts))
	}
	return out
}

const barWidth = 20

var (
	cardTitle = lipgloss.NewStyle().Bold(true)
	cardMuted = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	badge     = lipgloss.NewStyle().Padding(0, 1)
)

// ProgressBar draws pct as a fixed width bar.
func ProgressBar(pct, width int) string {
	if width <= 0 {
		width = barWidth
	}
	pct = max(0, min(100, pct))
	filled := pct * width / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// Render draws the card as a bordered terminal box.
func (c ProjectCard) Render(width int) string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)
	if c.Color != "" {
		border = border.BorderForeground(lipgloss.Color(c.Color))
	}
	if width > 0 {
		border = border.Width(width)
	}

	lines := []string{
		cardTitle.Render(c.Name),
		badge.Inherit(c.StatusToken.Style()).Render(c.StatusLabel) + " " +
			badge.Inherit(c.HealthToken.Style()).Render(c.HealthLabel),
		fmt.Sprintf("%s %3d%%", ProgressBar(c.Progress, barWidth), c.Progress),
		cardMuted.Render(fmt.Sprintf("%d/%d tasks done", c.CompletedTasks, c.TotalTasks)),
	}
	if c.DueDate != "" {
		lines = append(lines, cardMuted.Render("due "+c.DueDate))
	}
	return border.Render(strings.Join(lines, "\n"))
}

// RenderCards lays cards out in rows of perRow.
func RenderCards(cards []ProjectCard, width, perRow int) string {
	if len(cards) == 0 {
		return cardMuted.Render("no projects")
	}
	if perRow <= 0 {
		perRow = 1
	}
	var rows []string
	for i := 0; i < len(cards); i += perRow {
		end := min(i+perRow, len(cards))
		boxes := make([]string, 0, end-i)
		for _, c := range cards[i:end] {
			boxes = append(boxes, c.Render(width))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
