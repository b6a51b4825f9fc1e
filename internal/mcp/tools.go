package mcp

import (
	"context"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"phoenix/internal/player"
	"phoenix/internal/progress"
	"phoenix/internal/scenario"
	"phoenix/internal/store"
	"phoenix/internal/validate"
)

type ListScenariosInput struct{}

type StartRunInput struct {
	Code    string `json:"code" jsonschema:"scenario code"`
	Session string `json:"session,omitempty" jsonschema:"session key; the default key when empty"`
}

type SessionInput struct {
	Session string `json:"session,omitempty" jsonschema:"session key; the default key when empty"`
}

type SelectChoiceInput struct {
	Session  string `json:"session,omitempty" jsonschema:"session key; the default key when empty"`
	AnswerID string `json:"answer_id" jsonschema:"answer id of the choice to select"`
}

type ValidateScenarioInput struct {
	Code string `json:"code" jsonschema:"scenario code"`
}

type SearchScenesInput struct {
	Query string `json:"query" jsonschema:"search terms"`
	Code  string `json:"code,omitempty" jsonschema:"restrict to one scenario"`
}

type ScenarioSummaryOutput struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	SceneCount  int    `json:"scene_count"`
	OptionCount int    `json:"option_count"`
}

type ListScenariosOutput struct {
	Scenarios []ScenarioSummaryOutput `json:"scenarios"`
}

type OptionOutput struct {
	AnswerID string `json:"answer_id"`
	Answer   string `json:"answer"`
}

type SceneOutput struct {
	ID      string         `json:"id"`
	Title   string         `json:"title"`
	Content string         `json:"content"`
	Script  string         `json:"script,omitempty"`
	Options []OptionOutput `json:"options"`
}

type ViewOutput struct {
	Code         string      `json:"code"`
	Session      string      `json:"session"`
	Index        int         `json:"index"`
	Total        int         `json:"total"`
	Scene        SceneOutput `json:"scene"`
	Pending      string      `json:"pending,omitempty"`
	Reaction     string      `json:"reaction,omitempty"`
	Tone         string      `json:"tone,omitempty"`
	EXP          int         `json:"exp"`
	Level        int         `json:"level"`
	TotalCorrect int         `json:"total_correct"`
	Needed       int         `json:"needed"`
	Percent      int         `json:"percent"`
	Status       string      `json:"status"`
	Outcome      string      `json:"outcome"`
	Message      string      `json:"message,omitempty"`
	CanBack      bool        `json:"can_back"`
	CanNext      bool        `json:"can_next"`
	Terminal     bool        `json:"terminal"`
}

type StepOutput struct {
	Kind         string `json:"kind"`
	Correct      bool   `json:"correct"`
	Awarded      bool   `json:"awarded"`
	Bonus        int    `json:"bonus,omitempty"`
	LevelsGained int    `json:"levels_gained,omitempty"`
	Outcome      string `json:"outcome"`
	Celebrate    bool   `json:"celebrate"`
	Message      string `json:"message,omitempty"`
	Path         string `json:"path,omitempty"`
}

type RunOutput struct {
	Step StepOutput `json:"step"`
	View ViewOutput `json:"view"`
}

type ProgressOutput struct {
	Session      string `json:"session"`
	EXP          int    `json:"exp"`
	Level        int    `json:"level"`
	TotalCorrect int    `json:"total_correct"`
	Needed       int    `json:"needed"`
	Percent      int    `json:"percent"`
}

type IssueOutput struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Scene   string `json:"scene,omitempty"`
	Option  string `json:"option,omitempty"`
}

type ValidateScenarioOutput struct {
	Valid          bool          `json:"valid"`
	Errors         []IssueOutput `json:"errors"`
	Warnings       []IssueOutput `json:"warnings"`
	TotalScenes    int           `json:"total_scenes"`
	TotalOptions   int           `json:"total_options"`
	AverageOptions float64       `json:"average_options"`
}

type SearchResultOutput struct {
	Code    string  `json:"code"`
	SceneID string  `json:"scene_id"`
	Title   string  `json:"title"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet"`
}

type SearchScenesOutput struct {
	Results []SearchResultOutput `json:"results"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_scenarios",
		Description: "List the scenarios available for training",
	}, s.handleListScenarios)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "start_run",
		Description: "Start a run of a scenario from its first scene",
	}, s.handleStartRun)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_scene",
		Description: "Show the current scene of the active run",
	}, s.handleGetScene)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "select_choice",
		Description: "Select a choice in the current scene",
	}, s.handleSelectChoice)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "next_scene",
		Description: "Follow the selected choice to the next scene",
	}, s.handleNextScene)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "previous_scene",
		Description: "Go back to the previously visited scene",
	}, s.handlePreviousScene)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "retry_run",
		Description: "Restart the run from the first scene, keeping experience and level",
	}, s.handleRetryRun)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_progress",
		Description: "Return the experience, level and correct answer count of a session",
	}, s.handleGetProgress)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "validate_scenario",
		Description: "Validate a stored scenario and report errors and warnings",
	}, s.handleValidateScenario)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "search_scenes",
		Description: "Search scene titles, content and scripts",
	}, s.handleSearchScenes)
}

func (s *Server) handleListScenarios(ctx context.Context, req *sdk.CallToolRequest, input ListScenariosInput) (*sdk.CallToolResult, ListScenariosOutput, error) {
	items, err := s.catalog.ListScenarios(ctx)
	if err != nil {
		return nil, ListScenariosOutput{}, err
	}

	output := make([]ScenarioSummaryOutput, 0, len(items))
	for _, item := range items {
		output = append(output, ScenarioSummaryOutput{
			Code:        item.Code,
			Name:        item.Name,
			SceneCount:  item.SceneCount,
			OptionCount: item.OptionCount,
		})
	}
	return nil, ListScenariosOutput{Scenarios: output}, nil
}

func (s *Server) handleStartRun(ctx context.Context, req *sdk.CallToolRequest, input StartRunInput) (*sdk.CallToolResult, RunOutput, error) {
	if input.Code == "" {
		return nil, RunOutput{}, fmt.Errorf("code is required")
	}
	run, err := s.runs.Start(ctx, input.Code, input.Session)
	if err != nil {
		return nil, RunOutput{}, err
	}
	step, view, _ := run.Do(func(e *player.Engine) (player.Step, error) {
		return player.Step{Scene: e.CurrentIndex(), Outcome: e.Outcome()}, nil
	})
	return nil, RunOutput{Step: stepOutput(step), View: viewOutput(run.Code(), run.Key(), view)}, nil
}

func (s *Server) handleGetScene(ctx context.Context, req *sdk.CallToolRequest, input SessionInput) (*sdk.CallToolResult, ViewOutput, error) {
	run, err := s.runs.Get(input.Session)
	if err != nil {
		return nil, ViewOutput{}, err
	}
	return nil, viewOutput(run.Code(), run.Key(), run.View()), nil
}

func (s *Server) handleSelectChoice(ctx context.Context, req *sdk.CallToolRequest, input SelectChoiceInput) (*sdk.CallToolResult, RunOutput, error) {
	if input.AnswerID == "" {
		return nil, RunOutput{}, fmt.Errorf("answer_id is required")
	}
	return s.drive(input.Session, func(e *player.Engine) (player.Step, error) {
		return e.Select(ctx, input.AnswerID)
	})
}

func (s *Server) handleNextScene(ctx context.Context, req *sdk.CallToolRequest, input SessionInput) (*sdk.CallToolResult, RunOutput, error) {
	return s.drive(input.Session, func(e *player.Engine) (player.Step, error) {
		return e.Next(ctx)
	})
}

func (s *Server) handlePreviousScene(ctx context.Context, req *sdk.CallToolRequest, input SessionInput) (*sdk.CallToolResult, RunOutput, error) {
	return s.drive(input.Session, func(e *player.Engine) (player.Step, error) {
		step, _ := e.Back(ctx)
		return step, nil
	})
}

func (s *Server) handleRetryRun(ctx context.Context, req *sdk.CallToolRequest, input SessionInput) (*sdk.CallToolResult, RunOutput, error) {
	return s.drive(input.Session, func(e *player.Engine) (player.Step, error) {
		return e.Retry(ctx), nil
	})
}

func (s *Server) drive(key string, fn func(e *player.Engine) (player.Step, error)) (*sdk.CallToolResult, RunOutput, error) {
	run, err := s.runs.Get(key)
	if err != nil {
		return nil, RunOutput{}, err
	}
	step, view, err := run.Do(fn)
	if err != nil {
		return nil, RunOutput{}, err
	}
	return nil, RunOutput{Step: stepOutput(step), View: viewOutput(run.Code(), run.Key(), view)}, nil
}

func (s *Server) handleGetProgress(ctx context.Context, req *sdk.CallToolRequest, input SessionInput) (*sdk.CallToolResult, ProgressOutput, error) {
	handle := s.runs.Session(input.Session)
	p := progress.New()
	if run, err := s.runs.Get(input.Session); err == nil {
		p = run.View().Progress
	} else if snap, ok := handle.Load(ctx); ok {
		p = snap.Progress()
	}
	return nil, ProgressOutput{
		Session:      handle.Key(),
		EXP:          p.EXP,
		Level:        p.Level,
		TotalCorrect: p.TotalCorrect,
		Needed:       progress.EXPForNextLevel(p.Level),
		Percent:      progress.Percent(float64(p.EXP), p.Level),
	}, nil
}

func (s *Server) handleValidateScenario(ctx context.Context, req *sdk.CallToolRequest, input ValidateScenarioInput) (*sdk.CallToolResult, ValidateScenarioOutput, error) {
	if input.Code == "" {
		return nil, ValidateScenarioOutput{}, fmt.Errorf("code is required")
	}
	sc, err := s.catalog.GetScenario(ctx, input.Code)
	if err != nil {
		return nil, ValidateScenarioOutput{}, err
	}
	data, err := scenario.Encode(sc.Scenes)
	if err != nil {
		return nil, ValidateScenarioOutput{}, err
	}

	report := validate.Data(data, s.rules)
	return nil, ValidateScenarioOutput{
		Valid:          report.Valid(false),
		Errors:         issueOutputs(report.Errors()),
		Warnings:       issueOutputs(report.Warnings()),
		TotalScenes:    report.Stats.TotalScenes,
		TotalOptions:   report.Stats.TotalOptions,
		AverageOptions: report.Stats.AverageOptions,
	}, nil
}

func (s *Server) handleSearchScenes(ctx context.Context, req *sdk.CallToolRequest, input SearchScenesInput) (*sdk.CallToolResult, SearchScenesOutput, error) {
	if input.Query == "" {
		return nil, SearchScenesOutput{}, fmt.Errorf("query is required")
	}
	results, err := s.catalog.SearchScenes(ctx, input.Query, input.Code)
	if err != nil {
		return nil, SearchScenesOutput{}, err
	}

	output := make([]SearchResultOutput, 0, len(results))
	for _, result := range results {
		output = append(output, searchResultOutputFromStore(result))
	}
	return nil, SearchScenesOutput{Results: output}, nil
}

func viewOutput(code, key string, view player.View) ViewOutput {
	out := ViewOutput{
		Code:         code,
		Session:      key,
		Index:        view.Index,
		Total:        view.Total,
		Scene:        sceneOutput(view.Scene),
		Pending:      view.PendingID,
		Reaction:     view.Reaction,
		EXP:          view.Progress.EXP,
		Level:        view.Progress.Level,
		TotalCorrect: view.Progress.TotalCorrect,
		Needed:       view.Needed,
		Percent:      view.Percent,
		Status:       view.Status.String(),
		Outcome:      view.Outcome.String(),
		Message:      view.Message,
		CanBack:      view.CanBack,
		CanNext:      view.CanNext,
		Terminal:     view.Terminal,
	}
	if view.Tone != player.ToneNone {
		out.Tone = view.Tone.String()
	}
	return out
}

func sceneOutput(scene scenario.Scene) SceneOutput {
	out := SceneOutput{
		ID:      scene.ID,
		Title:   scene.Title,
		Content: scene.Content,
		Script:  scene.Script,
		Options: make([]OptionOutput, 0, len(scene.Options)),
	}
	for _, option := range scene.Options {
		out.Options = append(out.Options, OptionOutput{AnswerID: option.AnswerID, Answer: option.Answer})
	}
	return out
}

func stepOutput(step player.Step) StepOutput {
	out := StepOutput{
		Kind:      step.Kind.String(),
		Correct:   step.Correct,
		Outcome:   step.Outcome.String(),
		Celebrate: step.Celebrate,
		Message:   step.Message,
		Path:      step.Path,
	}
	if step.Award != nil {
		out.Awarded = true
		out.Bonus = step.Award.Bonus
		out.LevelsGained = step.Award.LevelsGained
	}
	return out
}

func issueOutputs(issues []validate.Issue) []IssueOutput {
	out := make([]IssueOutput, 0, len(issues))
	for _, issue := range issues {
		out = append(out, IssueOutput{
			Code:    issue.Code,
			Message: issue.Message,
			Scene:   issue.Scene,
			Option:  issue.Option,
		})
	}
	return out
}

func searchResultOutputFromStore(result store.SearchResult) SearchResultOutput {
	return SearchResultOutput{
		Code:    result.ScenarioCode,
		SceneID: result.SceneID,
		Title:   result.Title,
		Score:   result.Score,
		Snippet: result.Snippet,
	}
}
