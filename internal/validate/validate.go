package validate

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"phoenix/internal/config"
	"phoenix/internal/scenario"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeInvalidJSON       = "invalid_json"
	codeNotArray          = "not_array"
	codeEmptyData         = "empty_data"
	codeNotObject         = "not_object"
	codeMissingRequired   = "missing_required_field"
	codeTypeMismatch      = "type_mismatch"
	codeTooLong           = "value_too_long"
	codeValueNotAllowed   = "value_not_allowed"
	codeNoOptions         = "no_options"
	codeInvalidPoints     = "invalid_points"
	codeInvalidEXP        = "invalid_exp"
	codeDuplicateSceneID  = "duplicate_scene_id"
	codeDuplicateAnswerID = "duplicate_answer_id"
	codeSceneIDFormat     = "scene_id_format"
	codeDanglingNext      = "dangling_next_id"
	codeUnreachableScene  = "unreachable_scene"
	codeNoTerminal        = "no_reachable_terminal"
	codeGraphOutOfSync    = "graph_out_of_sync"
)

var sceneRequired = []string{"sceneId", "title", "content", "options"}

var optionRequired = []string{"answerId", "answer", "reaction"}

var sceneTypes = []struct {
	field string
	kind  string
}{
	{"sceneId", "string"},
	{"title", "string"},
	{"content", "string"},
	{"sceneScript", "string"},
	{"options", "array"},
	{"disasterType", "string"},
	{"difficulty", "string"},
	{"riskLevel", "string"},
}

type Issue struct {
	Severity Severity
	Code     string
	Message  string
	Scene    string
	Option   string
	FilePath string
}

type Stats struct {
	TotalScenes    int
	TotalOptions   int
	AverageOptions float64
	DisasterTypes  []string
	Difficulties   []string
	RiskLevels     []string
}

type Report struct {
	Issues []Issue
	Stats  Stats
}

func (r *Report) Errors() []Issue {
	return r.filter(SeverityError)
}

func (r *Report) Warnings() []Issue {
	return r.filter(SeverityWarn)
}

func (r *Report) filter(severity Severity) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			out = append(out, issue)
		}
	}
	return out
}

// Valid reports whether the data can be played and converted. In strict
// mode warnings count against it too.
func (r *Report) Valid(strict bool) bool {
	if strict {
		return len(r.Issues) == 0
	}
	return len(r.Errors()) == 0
}

func (r *Report) add(severity Severity, code, scene, option, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{
		Severity: severity,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Scene:    scene,
		Option:   option,
	})
}

// File reads and validates a scenario data file. Only a read failure is
// returned as an error; everything wrong with the content ends up in the
// report.
func File(path string, rules *config.Rules) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	report := Data(data, rules)
	for i := range report.Issues {
		report.Issues[i].FilePath = path
	}
	return report, nil
}

// Data runs the field rules over the raw JSON and, when the document is a
// usable scene array, the graph rules over the decoded scenes.
func Data(data []byte, rules *config.Rules) *Report {
	if rules == nil {
		rules = config.DefaultRules()
	}
	report := &Report{}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		report.add(SeverityError, codeInvalidJSON, "", "", "invalid JSON: %v", err)
		return report
	}
	items, ok := raw.([]any)
	if !ok {
		report.add(SeverityError, codeNotArray, "", "", "data must be a JSON array of scenes")
		return report
	}
	if len(items) == 0 {
		report.add(SeverityError, codeEmptyData, "", "", "data is empty")
		return report
	}

	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			report.add(SeverityError, codeNotObject, sceneLabel(nil, i), "", "scene %d must be an object", i+1)
			continue
		}
		checkScene(report, rules, obj, i)
	}

	scenes, err := scenario.Decode(data)
	if err != nil {
		if len(report.Errors()) == 0 {
			report.add(SeverityError, codeTypeMismatch, "", "", "scenes do not decode: %v", err)
		}
		return report
	}
	report.Stats = StatsFor(scenes)
	checkGraph(report, scenes)
	return report
}

// Scenes runs only the graph rules, for scenes that were already decoded.
func Scenes(scenes []scenario.Scene) *Report {
	report := &Report{Stats: StatsFor(scenes)}
	if len(scenes) == 0 {
		report.add(SeverityError, codeEmptyData, "", "", "data is empty")
		return report
	}
	checkGraph(report, scenes)
	return report
}

func checkScene(report *Report, rules *config.Rules, obj map[string]any, index int) {
	label := sceneLabel(obj, index)
	n := index + 1

	for _, field := range sceneRequired {
		if isFalsy(obj[field]) {
			report.add(SeverityError, codeMissingRequired, label, "", "scene %d: required field '%s' is missing", n, field)
		}
	}

	for _, expected := range sceneTypes {
		value, present := obj[expected.field]
		if !present {
			continue
		}
		if actual := jsonKind(value); actual != expected.kind {
			report.add(SeverityError, codeTypeMismatch, label, "", "scene %d: field '%s' has the wrong type (expected %s, got %s)", n, expected.field, expected.kind, actual)
		}
	}

	for _, rule := range rules.Fields {
		value, ok := obj[rule.Name].(string)
		if !ok || value == "" {
			continue
		}
		if rule.MaxLength > 0 {
			if length := utf8.RuneCountInString(value); length > rule.MaxLength {
				report.add(SeverityWarn, codeTooLong, label, "", "scene %d: field '%s' is too long (%d/%d)", n, rule.Name, length, rule.MaxLength)
			}
		}
		if !rules.Allowed(rule.Name, value) {
			report.add(SeverityWarn, codeValueNotAllowed, label, "", "scene %d: field '%s' has a value that is not allowed (%s)", n, rule.Name, value)
		}
	}

	options, ok := obj["options"].([]any)
	if !ok {
		return
	}
	if len(options) == 0 {
		report.add(SeverityError, codeNoOptions, label, "", "scene %d: at least one option is required", n)
	}
	for j, item := range options {
		checkOption(report, item, label, n, j+1)
	}
}

func checkOption(report *Report, item any, label string, sceneN, optionN int) {
	option, ok := item.(map[string]any)
	if !ok {
		report.add(SeverityError, codeNotObject, label, "", "scene %d option %d must be an object", sceneN, optionN)
		return
	}
	answerID, _ := option["answerId"].(string)

	for _, field := range optionRequired {
		if isFalsy(option[field]) {
			report.add(SeverityError, codeMissingRequired, label, answerID, "scene %d option %d: required field '%s' is missing", sceneN, optionN, field)
		}
	}
	for _, field := range []string{"answer", "reaction"} {
		value, present := option[field]
		if present && !isFalsy(value) && jsonKind(value) != "string" {
			report.add(SeverityError, codeTypeMismatch, label, answerID, "scene %d option %d: '%s' must be a string", sceneN, optionN, field)
		}
	}

	if points, present := option["points"]; present && !isFalsy(points) {
		obj, _ := points.(map[string]any)
		for _, field := range []string{"speed", "accuracy"} {
			if !nonNegativeNumber(obj[field]) {
				report.add(SeverityError, codeInvalidPoints, label, answerID, "scene %d option %d: 'points.%s' must be a number >= 0", sceneN, optionN, field)
			}
		}
	}

	if exp, present := option["exp"]; present && !nonNegativeNumber(exp) {
		report.add(SeverityError, codeInvalidEXP, label, answerID, "scene %d option %d: 'exp' must be a number >= 0", sceneN, optionN)
	}
}

func checkGraph(report *Report, scenes []scenario.Scene) {
	set := scenario.NewSet(scenes)

	seen := make(map[string]int, len(scenes))
	for i, scene := range scenes {
		if scene.ID == "" {
			continue
		}
		if first, ok := seen[scene.ID]; ok {
			report.add(SeverityError, codeDuplicateSceneID, scene.ID, "", "scene %d reuses id %s from scene %d", i+1, scene.ID, first+1)
			continue
		}
		seen[scene.ID] = i
		if !scenario.IsValidSceneID(scene.ID) {
			report.add(SeverityWarn, codeSceneIDFormat, scene.ID, "", "scene id %s does not follow the #<scenario>-<scene> format", scene.ID)
		}
	}

	for _, scene := range scenes {
		answers := make(map[string]struct{}, len(scene.Options))
		for _, option := range scene.Options {
			if option.AnswerID != "" {
				if _, dup := answers[option.AnswerID]; dup {
					report.add(SeverityError, codeDuplicateAnswerID, scene.ID, option.AnswerID, "scene %s has more than one option %s", scene.ID, option.AnswerID)
				}
				answers[option.AnswerID] = struct{}{}
			}
			if option.Next.Kind != scenario.NextScene {
				continue
			}
			if _, ok := set.Resolve(option.Next); !ok {
				report.add(SeverityWarn, codeDanglingNext, scene.ID, option.AnswerID, "option %s of scene %s points at unknown scene %s and ends the run there", option.AnswerID, scene.ID, option.Next.SceneID)
			}
		}
	}

	reachable := Reachable(set)
	terminal := false
	for i, scene := range scenes {
		if !reachable[i] {
			report.add(SeverityWarn, codeUnreachableScene, scene.ID, "", "scene %s cannot be reached from the first scene", scene.ID)
			continue
		}
		if set.IsTerminal(scene) {
			terminal = true
		}
	}
	if !terminal {
		report.add(SeverityWarn, codeNoTerminal, "", "", "no terminal scene can be reached from the first scene")
	}
}

// Reachable marks the scenes a run can visit starting from the first one.
func Reachable(set *scenario.Set) []bool {
	visited := make([]bool, set.Len())
	if set.Len() == 0 {
		return visited
	}
	queue := []int{0}
	visited[0] = true
	for len(queue) > 0 {
		index := queue[0]
		queue = queue[1:]
		scene, _ := set.Scene(index)
		for _, option := range scene.Options {
			next, ok := set.Resolve(option.Next)
			if !ok || visited[next] {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}
	return visited
}

// StatsFor summarises a scene list. Vocabulary lists keep first-seen order.
func StatsFor(scenes []scenario.Scene) Stats {
	stats := Stats{TotalScenes: len(scenes)}
	for _, scene := range scenes {
		stats.TotalOptions += len(scene.Options)
		stats.DisasterTypes = appendUnique(stats.DisasterTypes, scene.DisasterType)
		stats.Difficulties = appendUnique(stats.Difficulties, scene.Difficulty)
		stats.RiskLevels = appendUnique(stats.RiskLevels, scene.RiskLevel)
	}
	if stats.TotalScenes > 0 {
		avg := float64(stats.TotalOptions) / float64(stats.TotalScenes)
		stats.AverageOptions = math.Round(avg*10) / 10
	}
	return stats
}

func appendUnique(values []string, value string) []string {
	if value == "" {
		return values
	}
	for _, v := range values {
		if v == value {
			return values
		}
	}
	return append(values, value)
}

func sceneLabel(obj map[string]any, index int) string {
	if id, ok := obj["sceneId"].(string); ok && strings.TrimSpace(id) != "" {
		return id
	}
	return fmt.Sprintf("scene %d", index+1)
}

func jsonKind(value any) string {
	switch value.(type) {
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case nil:
		return "null"
	default:
		return "object"
	}
}

func isFalsy(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case float64:
		return v == 0
	case bool:
		return !v
	default:
		return false
	}
}

func nonNegativeNumber(value any) bool {
	n, ok := value.(float64)
	return ok && n >= 0
}
