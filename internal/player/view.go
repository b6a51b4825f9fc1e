package player

import (
	"phoenix/internal/progress"
	"phoenix/internal/scenario"
)

// Tone grades the feedback banner shown after a selection.
type Tone int

const (
	ToneNone Tone = iota
	ToneGood
	ToneOK
	ToneBad
)

func (t Tone) String() string {
	switch t {
	case ToneGood:
		return "good"
	case ToneOK:
		return "ok"
	case ToneBad:
		return "bad"
	default:
		return ""
	}
}

func (t Tone) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ToneFor grades a choice by its accuracy points.
func ToneFor(choice scenario.Choice) Tone {
	switch {
	case choice.Points.Accuracy >= 10:
		return ToneGood
	case choice.Points.Accuracy > 0:
		return ToneOK
	default:
		return ToneBad
	}
}

// View is a read-only picture of the engine for rendering.
type View struct {
	Scene        scenario.Scene    `json:"scene"`
	Index        int               `json:"index"`
	Total        int               `json:"total"`
	HistoryDepth int               `json:"historyDepth"`
	Pending      *scenario.Choice  `json:"-"`
	PendingID    string            `json:"pending,omitempty"`
	Reaction     string            `json:"reaction,omitempty"`
	Tone         Tone              `json:"tone,omitempty"`
	Progress     progress.Progress `json:"progress"`
	Needed       int               `json:"needed"`
	Percent      int               `json:"percent"`
	LastAward    *progress.Result  `json:"lastAward,omitempty"`
	Status       Status            `json:"status"`
	Outcome      Outcome           `json:"outcome"`
	Message      string            `json:"message,omitempty"`
	CanBack      bool              `json:"canBack"`
	CanNext      bool              `json:"canNext"`
	Terminal     bool              `json:"terminal"`
}

func (e *Engine) Snapshot() View {
	scene, _ := e.set.Scene(e.current)
	v := View{
		Scene:        scene,
		Index:        e.current,
		Total:        e.set.Len(),
		HistoryDepth: len(e.history),
		Progress:     e.progress,
		Needed:       progress.EXPForNextLevel(e.progress.Level),
		Percent:      progress.Percent(float64(e.progress.EXP), e.progress.Level),
		Status:       e.Status(),
		Outcome:      e.outcome,
		CanBack:      len(e.history) > 0,
		CanNext:      e.pending != nil && !e.finished,
		Terminal:     e.set.IsTerminalScene(e.current),
	}
	if e.pending != nil {
		pending := *e.pending
		v.Pending = &pending
		v.PendingID = pending.AnswerID
		v.Reaction = pending.Reaction
		v.Tone = ToneFor(pending)
	}
	if e.lastAward != nil {
		award := *e.lastAward
		v.LastAward = &award
	}
	if e.outcome != OutcomeNone {
		v.Message = e.message()
	}
	return v
}
