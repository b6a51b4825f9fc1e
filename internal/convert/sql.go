// Package convert turns scenario data files into MySQL INSERT scripts for
// the training backend.
package convert

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"
	"unicode/utf8"

	"phoenix/internal/scenario"
)

const (
	DefaultTeamID    = 1
	DefaultCreatedBy = 1

	scenarioPrefix = "SCEN"
	eventPrefix    = "EVENT"
	optionPrefix   = "OPT"
	eventType      = "CHOICE"
	previewRunes   = 30
)

var funcs = template.FuncMap{"sql": escapeSQL}

var scenarioTmpl = template.Must(template.New("scenario").Funcs(funcs).Parse(
	`-- Create scenario
INSERT INTO scenario (team_id, scenario_code, title, description, disaster_type, risk_level, difficulty, status, approval_status, created_by, created_at)
VALUES ({{.TeamID}}, '{{sql .Code}}', '{{sql .Title}}', '{{sql .Content}}', '{{sql .DisasterType}}', '{{sql .RiskLevel}}', '{{sql .Difficulty}}', 'ACTIVE', 'APPROVED', {{.CreatedBy}}, NOW());
SET @scenario_id = LAST_INSERT_ID();`))

var eventTmpl = template.Must(template.New("event").Funcs(funcs).Parse(
	`-- Decision event ({{sql .Title}})
INSERT INTO decision_event (scenario_id, event_code, title, content, event_script, event_order, event_type, created_by, created_at)
VALUES (@scenario_id, '{{.Code}}', '{{sql .Title}}', '{{sql .Content}}', '{{sql .Script}}', {{.Order}}, '{{.Type}}', {{.CreatedBy}}, NOW());
SET @event_id_{{.Index}} = LAST_INSERT_ID();`))

var optionTmpl = template.Must(template.New("option").Funcs(funcs).Parse(
	`-- Choice option ({{sql .Preview}})
INSERT INTO choice_option (event_id, option_code, option_text, reaction_text, next_event_id, points_speed, points_accuracy, exp_reward, is_correct, created_by, created_at)
VALUES (@event_id_{{.EventIndex}}, '{{.Code}}', '{{sql .Answer}}', '{{sql .Reaction}}', {{.NextEventID}}, {{.Speed}}, {{.Accuracy}}, {{.EXP}}, {{.IsCorrect}}, {{.CreatedBy}}, NOW());`))

type Options struct {
	TeamID    int
	CreatedBy int
	// Now stamps generated scenario codes; it defaults to time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.TeamID == 0 {
		o.TeamID = DefaultTeamID
	}
	if o.CreatedBy == 0 {
		o.CreatedBy = DefaultCreatedBy
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// ToMySQL renders one scenario insert taken from the first scene, then one
// decision event per scene followed by its choice options. Statements are
// separated by blank lines.
func ToMySQL(scenes []scenario.Scene, opts Options) (string, error) {
	if len(scenes) == 0 {
		return "", fmt.Errorf("converting scenes: nothing to convert")
	}
	opts = opts.withDefaults()

	var statements []string
	add := func(tmpl *template.Template, data any) error {
		var b strings.Builder
		if err := tmpl.Execute(&b, data); err != nil {
			return fmt.Errorf("rendering %s: %w", tmpl.Name(), err)
		}
		statements = append(statements, b.String())
		return nil
	}

	first := scenes[0]
	code := first.ScenarioCode
	if code == "" {
		code = fmt.Sprintf("%s_%d", scenarioPrefix, opts.Now().UnixMilli())
	}
	err := add(scenarioTmpl, map[string]any{
		"TeamID":       opts.TeamID,
		"Code":         code,
		"Title":        first.Title,
		"Content":      first.Content,
		"DisasterType": orDefault(first.DisasterType, "fire"),
		"RiskLevel":    orDefault(first.RiskLevel, "MEDIUM"),
		"Difficulty":   orDefault(first.Difficulty, "easy"),
		"CreatedBy":    opts.CreatedBy,
	})
	if err != nil {
		return "", err
	}

	for i, scene := range scenes {
		err := add(eventTmpl, map[string]any{
			"Code":      GenerateID(eventPrefix, i+1, 3),
			"Title":     scene.Title,
			"Content":   scene.Content,
			"Script":    scene.Script,
			"Order":     i + 1,
			"Type":      eventType,
			"Index":     i,
			"CreatedBy": opts.CreatedBy,
		})
		if err != nil {
			return "", err
		}

		for j, option := range scene.Options {
			err := add(optionTmpl, map[string]any{
				"Preview":     preview(option.Answer),
				"EventIndex":  i,
				"Code":        fmt.Sprintf("%s_%03d_%02d", optionPrefix, i+1, j+1),
				"Answer":      option.Answer,
				"Reaction":    option.Reaction,
				"NextEventID": nextEventID(option.Next),
				"Speed":       formatNumber(option.Points.Speed),
				"Accuracy":    formatNumber(option.Points.Accuracy),
				"EXP":         formatNumber(option.EXP),
				"IsCorrect":   isCorrect(option),
				"CreatedBy":   opts.CreatedBy,
			})
			if err != nil {
				return "", err
			}
		}
	}

	return strings.Join(statements, "\n\n") + "\n", nil
}

// isCorrect follows the backend's notion, which needs both speed and
// accuracy points. The player itself only looks at accuracy.
func isCorrect(option scenario.Choice) int {
	if option.Points.Speed > 0 && option.Points.Accuracy > 0 {
		return 1
	}
	return 0
}

func nextEventID(next scenario.Next) string {
	raw := next.Raw()
	if raw == "" {
		return "NULL"
	}
	return "'" + escapeSQL(raw) + "'"
}

func preview(answer string) string {
	if utf8.RuneCountInString(answer) <= previewRunes {
		return answer
	}
	runes := []rune(answer)
	return string(runes[:previewRunes]) + "..."
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
