package store

import (
	"strings"
	"time"

	"phoenix/internal/scenario"
)

type ScenarioInput struct {
	Code       string
	Name       string
	SourceFile string
	SourceHash string
	Scenes     []scenario.Scene
}

type Scenario struct {
	Code         string
	Name         string
	SourceFile   string
	SourceHash   string
	Scenes       []scenario.Scene
	LastIngested time.Time
}

type ScenarioSummary struct {
	Code         string
	Name         string
	SourceFile   string
	SceneCount   int
	OptionCount  int
	LastIngested time.Time
}

type SearchResult struct {
	ScenarioCode string
	SceneID      string
	Title        string
	Score        float64
	Snippet      string
}

// SceneRow is one scene flattened for the search index.
type SceneRow struct {
	Position int
	SceneID  string
	Title    string
	Content  string
	Script   string
	// Answers holds the scene's choice answers, one per line.
	Answers string
}

func SceneRows(scenes []scenario.Scene) []SceneRow {
	rows := make([]SceneRow, 0, len(scenes))
	for i, scene := range scenes {
		rows = append(rows, SceneRow{
			Position: i,
			SceneID:  scene.ID,
			Title:    scene.Title,
			Content:  scene.Content,
			Script:   scene.Script,
			Answers:  joinAnswers(scene.Options),
		})
	}
	return rows
}

func joinAnswers(options []scenario.Choice) string {
	answers := make([]string, 0, len(options))
	for _, option := range options {
		if option.Answer != "" {
			answers = append(answers, option.Answer)
		}
	}
	return strings.Join(answers, "\n")
}

func CountOptions(scenes []scenario.Scene) int {
	total := 0
	for _, scene := range scenes {
		total += len(scene.Options)
	}
	return total
}
