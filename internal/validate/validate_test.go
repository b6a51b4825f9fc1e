package validate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"phoenix/internal/config"
	"phoenix/internal/scenario"
)

const validScenes = `[
  {"sceneId":"#1-1","title":"Alarm","content":"An alarm rings.","sceneScript":"Smoke drifts in.",
   "disasterType":"fire","difficulty":"easy","riskLevel":"MEDIUM",
   "options":[
     {"answerId":"A","answer":"Evacuate","reaction":"Good call.","nextId":"#1-2","points":{"speed":10,"accuracy":10},"exp":10},
     {"answerId":"B","answer":"Wait","reaction":"Too slow.","nextId":"#1-2","points":{"speed":0,"accuracy":0}}]},
  {"sceneId":"#1-2","title":"Stairs","content":"You reach the stairs.",
   "options":[
     {"answerId":"A","answer":"Review the training","reaction":"Again.","nextId":"#REVIEW"},
     {"answerId":"B","answer":"Next scenario","reaction":"Done.","nextId":"#SCENARIO_SELECT"}]}
]`

func TestData_Valid(t *testing.T) {
	report := Data([]byte(validScenes), nil)
	if len(report.Issues) != 0 {
		t.Fatalf("expected no issues, got %+v", report.Issues)
	}
	if !report.Valid(true) {
		t.Fatalf("expected report to be valid in strict mode")
	}

	want := Stats{
		TotalScenes:    2,
		TotalOptions:   4,
		AverageOptions: 2,
		DisasterTypes:  []string{"fire"},
		Difficulties:   []string{"easy"},
		RiskLevels:     []string{"MEDIUM"},
	}
	if !reflect.DeepEqual(report.Stats, want) {
		t.Fatalf("unexpected stats: %+v", report.Stats)
	}
}

func TestData_DocumentShape(t *testing.T) {
	cases := []struct {
		name string
		data string
		code string
	}{
		{"invalid json", `[{`, codeInvalidJSON},
		{"object instead of array", `{"sceneId":"#1-1"}`, codeNotArray},
		{"empty array", `[]`, codeEmptyData},
		{"scene not an object", `["#1-1"]`, codeNotObject},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			report := Data([]byte(tc.data), nil)
			if !hasIssueCode(report.Issues, tc.code) {
				t.Fatalf("expected %s, got %+v", tc.code, report.Issues)
			}
			if report.Valid(false) {
				t.Fatalf("expected report to be invalid")
			}
		})
	}
}

func TestData_SceneFields(t *testing.T) {
	report := Data([]byte(`[{"sceneId":"#1-1","title":5,"options":[]}]`), nil)

	for _, code := range []string{codeMissingRequired, codeTypeMismatch, codeNoOptions} {
		if !hasIssueCode(report.Errors(), code) {
			t.Fatalf("expected error %s, got %+v", code, report.Issues)
		}
	}
	if report.Issues[0].Scene != "#1-1" {
		t.Fatalf("expected issues to name the scene, got %q", report.Issues[0].Scene)
	}
}

func TestData_RuleWarnings(t *testing.T) {
	title := strings.Repeat("가", 201)
	data := `[{"sceneId":"#1-1","title":"` + title + `","content":"c","disasterType":"volcano",
	  "options":[{"answerId":"A","answer":"a","reaction":"r","nextId":"#SCENARIO_SELECT"}]}]`

	report := Data([]byte(data), nil)
	if !hasIssueCode(report.Warnings(), codeTooLong) {
		t.Fatalf("expected too-long warning, got %+v", report.Issues)
	}
	if !hasIssueCode(report.Warnings(), codeValueNotAllowed) {
		t.Fatalf("expected value-not-allowed warning, got %+v", report.Issues)
	}
	if !report.Valid(false) {
		t.Fatalf("warnings alone must not invalidate the report")
	}
	if report.Valid(true) {
		t.Fatalf("strict mode must count warnings")
	}
}

func TestData_CustomRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	contents := `version: 1
fields:
  - { name: title, type: string, max_length: 3 }
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	rules, err := config.LoadRules(path)
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}

	report := Data([]byte(validScenes), rules)
	if !hasIssueCode(report.Warnings(), codeTooLong) {
		t.Fatalf("expected custom max length to apply, got %+v", report.Issues)
	}
}

func TestData_OptionFields(t *testing.T) {
	data := `[{"sceneId":"#1-1","title":"t","content":"c","options":[
	  {"answer":"a","reaction":"r","points":{"speed":-1,"accuracy":5}},
	  {"answerId":"B","answer":"b","reaction":"r","exp":"lots"}]}]`

	report := Data([]byte(data), nil)
	for _, code := range []string{codeMissingRequired, codeInvalidPoints, codeInvalidEXP} {
		if !hasIssueCode(report.Errors(), code) {
			t.Fatalf("expected error %s, got %+v", code, report.Issues)
		}
	}
	if hasIssueCode(report.Issues, codeTypeMismatch) {
		t.Fatalf("decode failure must not be reported twice: %+v", report.Issues)
	}
}

func TestData_GraphRules(t *testing.T) {
	data := `[
	  {"sceneId":"#1-1","title":"t","content":"c","options":[
	    {"answerId":"A","answer":"a","reaction":"r","nextId":"#1-2"},
	    {"answerId":"A","answer":"b","reaction":"r","nextId":"#9-9"}]},
	  {"sceneId":"#1-2","title":"t","content":"c","options":[
	    {"answerId":"A","answer":"a","reaction":"r","nextId":"#1-1"}]},
	  {"sceneId":"lobby","title":"t","content":"c","options":[
	    {"answerId":"A","answer":"a","reaction":"r","nextId":"#1-1"}]}
	]`

	report := Data([]byte(data), nil)
	if !hasIssueCode(report.Errors(), codeDuplicateAnswerID) {
		t.Fatalf("expected duplicate answer id error, got %+v", report.Issues)
	}
	for _, code := range []string{codeDanglingNext, codeSceneIDFormat, codeUnreachableScene, codeNoTerminal} {
		if !hasIssueCode(report.Warnings(), code) {
			t.Fatalf("expected warning %s, got %+v", code, report.Issues)
		}
	}
	if hasIssueCode(report.Errors(), codeDanglingNext) {
		t.Fatalf("dangling next ids must never be errors")
	}
}

func TestScenes_DuplicateSceneID(t *testing.T) {
	scenes := []scenario.Scene{
		{ID: "#1-1", Options: []scenario.Choice{{AnswerID: "A", Next: scenario.EndNext()}}},
		{ID: "#1-1", Options: []scenario.Choice{{AnswerID: "A", Next: scenario.EndNext()}}},
	}
	report := Scenes(scenes)
	if !hasIssueCode(report.Errors(), codeDuplicateSceneID) {
		t.Fatalf("expected duplicate scene id, got %+v", report.Issues)
	}

	if report := Scenes(nil); !hasIssueCode(report.Issues, codeEmptyData) {
		t.Fatalf("expected empty data issue")
	}
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fire.json")
	if err := os.WriteFile(path, []byte(`[]`), 0o600); err != nil {
		t.Fatalf("write data: %v", err)
	}

	report, err := File(path, nil)
	if err != nil {
		t.Fatalf("file: %v", err)
	}
	if len(report.Issues) != 1 || report.Issues[0].FilePath != path {
		t.Fatalf("expected issue tagged with path, got %+v", report.Issues)
	}

	if _, err := File(filepath.Join(t.TempDir(), "missing.json"), nil); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

type mockMirror struct {
	deadEnds []string
	err      error
}

func (m *mockMirror) DeadEnds(ctx context.Context, code string) ([]string, error) {
	return m.deadEnds, m.err
}

func TestCompareMirror(t *testing.T) {
	scenes, err := scenario.Decode([]byte(validScenes))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := DeadEnds(scenes); !reflect.DeepEqual(got, []string{"#1-2"}) {
		t.Fatalf("unexpected dead ends: %v", got)
	}

	t.Run("in sync", func(t *testing.T) {
		report := &Report{}
		if err := CompareMirror(context.Background(), report, "FIRE_001", scenes, &mockMirror{deadEnds: []string{"#1-2"}}); err != nil {
			t.Fatalf("compare: %v", err)
		}
		if len(report.Issues) != 0 {
			t.Fatalf("expected no issues, got %+v", report.Issues)
		}
	})

	t.Run("out of sync", func(t *testing.T) {
		report := &Report{}
		if err := CompareMirror(context.Background(), report, "FIRE_001", scenes, &mockMirror{deadEnds: []string{"#1-1"}}); err != nil {
			t.Fatalf("compare: %v", err)
		}
		if len(report.Issues) != 2 || !hasIssueCode(report.Issues, codeGraphOutOfSync) {
			t.Fatalf("expected two out-of-sync warnings, got %+v", report.Issues)
		}
	})

	t.Run("mirror error", func(t *testing.T) {
		boom := errors.New("boom")
		err := CompareMirror(context.Background(), &Report{}, "FIRE_001", scenes, &mockMirror{err: boom})
		if !errors.Is(err, boom) {
			t.Fatalf("expected wrapped error, got %v", err)
		}
	})
}

func hasIssueCode(issues []Issue, code string) bool {
	for _, issue := range issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}
