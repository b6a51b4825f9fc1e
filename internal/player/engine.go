// Package player walks a scenario set one scene at a time, tracking the
// selections of a single visitor and the experience they earn.
//
// An Engine is not safe for concurrent use. Surfaces that share one across
// requests serialize access themselves.
package player

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"phoenix/internal/logger"
	"phoenix/internal/progress"
	"phoenix/internal/scenario"
	"phoenix/internal/session"
)

const (
	DefaultSelectPath = "/training"
	DefaultSetName    = "화재 대응"
)

var (
	ErrNoSelection   = errors.New("no choice selected")
	ErrUnknownChoice = errors.New("unknown choice")
	ErrRunOver       = errors.New("run is over")
)

type Status int

const (
	StatusAwaitingSelection Status = iota
	StatusSelectionMade
	StatusSuccess
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusSelectionMade:
		return "selection_made"
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	default:
		return "awaiting_selection"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeSuccess
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	default:
		return "none"
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

type StepKind int

const (
	// StepNone means the call changed nothing, e.g. Back with no history.
	StepNone StepKind = iota
	StepSelected
	StepMoved
	StepFinished
	StepReset
	StepExit
)

func (k StepKind) String() string {
	switch k {
	case StepSelected:
		return "selected"
	case StepMoved:
		return "moved"
	case StepFinished:
		return "finished"
	case StepReset:
		return "reset"
	case StepExit:
		return "exit"
	default:
		return "none"
	}
}

func (k StepKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Step reports what a single operation did.
type Step struct {
	Kind    StepKind         `json:"kind"`
	Scene   int              `json:"scene"`
	Choice  *scenario.Choice `json:"-"`
	Correct bool             `json:"correct"`
	Award   *progress.Result `json:"award,omitempty"`
	Outcome Outcome          `json:"outcome"`
	// Celebrate is set on the step that enters a successful outcome.
	Celebrate bool   `json:"celebrate"`
	Message   string `json:"message,omitempty"`
	Path      string `json:"path,omitempty"`
}

// Observer receives engine events. Calls happen synchronously on the
// goroutine driving the engine.
type Observer interface {
	ChoiceMade(scene scenario.Scene, choice scenario.Choice, correct bool)
	ExperienceAwarded(before progress.Progress, result progress.Result)
	RunFinished(outcome Outcome)
	RunReset()
}

type Option func(*Engine)

func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger.OrNop(log).Named("player")
	}
}

func WithObserver(obs ...Observer) Option {
	return func(e *Engine) {
		for _, o := range obs {
			if o != nil {
				e.observers = append(e.observers, o)
			}
		}
	}
}

func WithBaseAward(amount int) Option {
	return func(e *Engine) {
		if amount > 0 {
			e.baseAward = amount
		}
	}
}

func WithLevelUpBonus(bonus int) Option {
	return func(e *Engine) {
		if bonus >= 0 {
			e.bonus = func(int) int { return bonus }
		}
	}
}

func WithSelectPath(path string) Option {
	return func(e *Engine) {
		if path != "" {
			e.selectPath = path
		}
	}
}

// WithTextFallback lets answers mentioning a review or the next scenario act
// as the matching control choice.
func WithTextFallback(on bool) Option {
	return func(e *Engine) { e.textFallback = on }
}

func WithSetName(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.setName = name
		}
	}
}

type Engine struct {
	set       *scenario.Set
	sess      *session.Handle
	logger    *zap.Logger
	observers []Observer

	baseAward    int
	bonus        func(next int) int
	selectPath   string
	setName      string
	textFallback bool

	current int
	history []int
	pending *scenario.Choice

	wrongTriedInThisScene bool
	awardedExpThisScene   bool
	failedThisRun         bool
	endShown              bool
	finished              bool
	outcome               Outcome
	justFinished          bool
	lastAward             *progress.Result

	progress progress.Progress
}

// New starts a run at the first scene of set, restoring lifetime progress
// from sess. A nil sess keeps progress in memory only.
func New(ctx context.Context, set *scenario.Set, sess *session.Handle, opts ...Option) (*Engine, error) {
	if set.Len() == 0 {
		return nil, fmt.Errorf("starting run: %w", scenario.ErrUnavailable)
	}

	e := &Engine{
		set:        set,
		sess:       sess,
		logger:     zap.NewNop(),
		baseAward:  progress.BaseAward,
		bonus:      progress.BonusForLevel,
		selectPath: DefaultSelectPath,
		setName:    DefaultSetName,
		progress:   progress.New(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if snap, ok := sess.Load(ctx); ok {
		e.progress = snap.Progress()
	}

	e.land(0)
	e.justFinished = false
	return e, nil
}

// Status reports a terminal status only while the visitor stands on the
// scene that ended the run.
func (e *Engine) Status() Status {
	if e.pending != nil {
		return StatusSelectionMade
	}
	if e.outcome != OutcomeNone && (e.finished || e.set.IsTerminalScene(e.current)) {
		if e.outcome == OutcomeSuccess {
			return StatusSuccess
		}
		return StatusFailure
	}
	return StatusAwaitingSelection
}

func (e *Engine) Progress() progress.Progress {
	return e.progress
}

func (e *Engine) Outcome() Outcome {
	return e.outcome
}

func (e *Engine) FailedThisRun() bool {
	return e.failedThisRun
}

func (e *Engine) CurrentIndex() int {
	return e.current
}

// History returns a copy of the visited scene indices, oldest first.
func (e *Engine) History() []int {
	out := make([]int, len(e.history))
	copy(out, e.history)
	return out
}

// Select records a choice on the current scene. Review and exit choices act
// immediately, even once the run is over; any other choice becomes the
// pending selection.
func (e *Engine) Select(ctx context.Context, answerID string) (Step, error) {
	scene, _ := e.set.Scene(e.current)
	choice, ok := scene.Choice(answerID)
	if !ok {
		return Step{}, fmt.Errorf("%w: %q in scene %s", ErrUnknownChoice, answerID, scene.ID)
	}

	switch choice.Route(e.textFallback).Kind {
	case scenario.NextReview:
		return e.Retry(ctx), nil
	case scenario.NextExit:
		return e.exit(), nil
	}
	if e.finished {
		return Step{}, ErrRunOver
	}

	correct := choice.Correct()
	e.pending = &choice
	e.lastAward = nil
	if !correct {
		e.wrongTriedInThisScene = true
		e.failedThisRun = true
	}

	step := Step{Kind: StepSelected, Scene: e.current, Choice: &choice, Correct: correct}

	for _, o := range e.observers {
		o.ChoiceMade(scene, choice, correct)
	}

	if !e.awardedExpThisScene && correct && !e.wrongTriedInThisScene {
		before := e.progress
		result := progress.AwardWith(e.progress.EXP, e.progress.Level, e.baseAward, e.bonus)
		e.progress.EXP = result.EXP
		e.progress.Level = result.Level
		e.progress.TotalCorrect++
		e.awardedExpThisScene = true
		e.lastAward = &result
		step.Award = &result

		e.logger.Debug("experience awarded",
			zap.String("scene", scene.ID),
			zap.Int("exp", result.EXP),
			zap.Int("level", result.Level),
			zap.Int("bonus", result.Bonus),
		)
		for _, o := range e.observers {
			o.ExperienceAwarded(before, result)
		}
		e.persist(ctx)
	}

	return step, nil
}

// Next follows the pending choice. An edge that does not resolve to a scene
// in the set ends the run.
func (e *Engine) Next(ctx context.Context) (Step, error) {
	if e.finished {
		return Step{}, ErrRunOver
	}
	if e.pending == nil {
		return Step{}, ErrNoSelection
	}

	switch e.pending.Route(e.textFallback).Kind {
	case scenario.NextReview:
		return e.Retry(ctx), nil
	case scenario.NextExit:
		return e.exit(), nil
	}

	if target, ok := e.set.Resolve(e.pending.Next); ok {
		e.history = append(e.history, e.current)
		e.resetSceneFlags()
		step := Step{Kind: StepMoved}
		e.land(target)
		return e.withOutcome(step), nil
	}

	e.resetSceneFlags()
	e.finished = true
	first := !e.endShown
	e.endShown = true
	e.finish(first)
	return e.withOutcome(Step{Kind: StepFinished}), nil
}

// Back returns to the previously visited scene. It never undoes progress or
// clears the failure flag of the run.
func (e *Engine) Back(ctx context.Context) (Step, bool) {
	if len(e.history) == 0 {
		return Step{Kind: StepNone, Scene: e.current}, false
	}
	prev := e.history[len(e.history)-1]
	e.history = e.history[:len(e.history)-1]
	e.resetSceneFlags()
	e.finished = false
	e.land(prev)
	return e.withOutcome(Step{Kind: StepMoved}), true
}

// Retry resets the run to the first scene. Lifetime progress is kept.
func (e *Engine) Retry(ctx context.Context) Step {
	e.history = nil
	e.resetSceneFlags()
	e.failedThisRun = false
	e.endShown = false
	e.finished = false
	e.outcome = OutcomeNone

	for _, o := range e.observers {
		o.RunReset()
	}
	e.logger.Debug("run reset")

	e.land(0)
	return e.withOutcome(Step{Kind: StepReset})
}

func (e *Engine) exit() Step {
	return Step{Kind: StepExit, Scene: e.current, Path: e.selectPath}
}

// land moves to index and, the first time a run reaches a terminal scene,
// settles the outcome.
func (e *Engine) land(index int) {
	e.current = index
	if e.endShown || !e.set.IsTerminalScene(index) {
		return
	}
	e.endShown = true
	e.finish(true)
}

// finish classifies the run. Observers hear about it once per run.
func (e *Engine) finish(notify bool) {
	if e.failedThisRun {
		e.outcome = OutcomeFailure
	} else {
		e.outcome = OutcomeSuccess
	}
	scene, _ := e.set.Scene(e.current)
	e.justFinished = true
	if !notify {
		return
	}
	e.logger.Info("run finished",
		zap.String("scene", scene.ID),
		zap.Stringer("outcome", e.outcome),
	)
	for _, o := range e.observers {
		o.RunFinished(e.outcome)
	}
}

func (e *Engine) withOutcome(step Step) Step {
	step.Scene = e.current
	if e.justFinished {
		step.Outcome = e.outcome
		step.Celebrate = e.outcome == OutcomeSuccess
		step.Message = e.message()
		e.justFinished = false
	}
	return step
}

func (e *Engine) resetSceneFlags() {
	e.pending = nil
	e.lastAward = nil
	e.wrongTriedInThisScene = false
	e.awardedExpThisScene = false
}

func (e *Engine) persist(ctx context.Context) {
	if err := e.sess.Save(ctx, session.FromProgress(e.progress)); err != nil {
		e.logger.Warn("persisting progress", zap.Error(err))
	}
}

func (e *Engine) message() string {
	return OutcomeMessage(e.outcome, e.setName)
}

// OutcomeMessage is the text shown when a run over setName ends.
func OutcomeMessage(outcome Outcome, setName string) string {
	switch outcome {
	case OutcomeSuccess:
		return fmt.Sprintf("축하합니다! %s 시나리오를 모두 클리어하였습니다.", setName)
	case OutcomeFailure:
		return fmt.Sprintf("%s 시나리오를 클리어하지 못했습니다. 다시 도전해보세요!", setName)
	default:
		return ""
	}
}
