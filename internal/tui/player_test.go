package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phoenix/internal/player"
	"phoenix/internal/progress"
	"phoenix/internal/scenario"
	"phoenix/internal/session"
)

func alarmSet() *scenario.Set {
	return scenario.NewSet([]scenario.Scene{
		{ID: "#1-1", Title: "Alarm", Content: "The fire alarm rings.", Script: "Stay calm.", Options: []scenario.Choice{
			{AnswerID: "A", Answer: "Take the lift", Reaction: "Lifts are unsafe.", Next: scenario.ToScene("#1-2")},
			{AnswerID: "B", Answer: "Use the stairs", Reaction: "Good call.", Next: scenario.ToScene("#1-2"), Points: scenario.Points{Speed: 5, Accuracy: 10}},
		}},
		{ID: "#1-2", Title: "Outside", Options: []scenario.Choice{
			{AnswerID: "A", Answer: "Review", Next: scenario.ReviewNext()},
			{AnswerID: "B", Answer: "Next scenario", Next: scenario.ParseNext(scenario.TokenExit)},
		}},
	})
}

func newPlayer(t *testing.T, set *scenario.Set, sess *session.Handle, animate bool) *Player {
	t.Helper()
	engine, err := player.New(context.Background(), set, sess)
	require.NoError(t, err)
	return New(context.Background(), engine, animate)
}

// enter types line into the prompt and submits it.
func enter(p *Player, line string) tea.Cmd {
	for _, r := range line {
		p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestPlayer_SelectByNumberThenNext(t *testing.T) {
	p := newPlayer(t, alarmSet(), nil, false)

	view := p.View()
	assert.Contains(t, view, "[#1-1] Alarm")
	assert.Contains(t, view, "(1/2)")
	assert.Contains(t, view, "1) Take the lift")
	assert.Contains(t, view, "2) Use the stairs")
	assert.Contains(t, view, `"Stay calm."`)

	assert.Nil(t, enter(p, "2"))
	assert.Equal(t, "B", p.Engine().Snapshot().PendingID)
	view = p.View()
	assert.Contains(t, view, "✓ Good call.")
	assert.Contains(t, view, "+10 EXP")
	assert.Contains(t, view, "Enter n to continue.")
	assert.Contains(t, view, "Lv.1")
	assert.Contains(t, view, "10/100 EXP")
	assert.Empty(t, p.input.Value())

	enter(p, "n")
	assert.Equal(t, 1, p.Engine().CurrentIndex())
	view = p.View()
	assert.Contains(t, view, "[#1-2] Outside")
	assert.Contains(t, view, player.OutcomeMessage(player.OutcomeSuccess, player.DefaultSetName))
	assert.NotContains(t, view, "Good call.")
}

func TestPlayer_Notices(t *testing.T) {
	p := newPlayer(t, alarmSet(), nil, false)

	enter(p, "n")
	assert.Equal(t, "Pick a choice first.", p.notice)

	enter(p, "Z")
	assert.Equal(t, `No choice "Z" here.`, p.notice)

	enter(p, "9")
	assert.Equal(t, `No choice "9" here.`, p.notice)

	enter(p, "b")
	assert.Equal(t, "Nothing to go back to.", p.notice)

	enter(p, "a")
	assert.Equal(t, `No choice "a" here.`, p.notice, "answer ids are matched exactly")

	enter(p, "A")
	assert.Empty(t, p.notice)
	assert.Contains(t, p.View(), "✗ Lifts are unsafe.")

	enter(p, "B")
	assert.Equal(t, "B", p.Engine().Snapshot().PendingID, "upper-case ids are answers, not commands")
	assert.Contains(t, p.View(), "✓ Good call.")
	assert.Equal(t, 0, p.Engine().Progress().EXP, "no award after a wrong try in the same scene")

	enter(p, "n")
	assert.Contains(t, p.View(), player.OutcomeMessage(player.OutcomeFailure, player.DefaultSetName))
	assert.Contains(t, p.View(), "Enter r to retry or q to quit.")
}

func TestPlayer_RunOverNotice(t *testing.T) {
	set := scenario.NewSet([]scenario.Scene{
		{ID: "#1-1", Title: "Alarm", Options: []scenario.Choice{
			{AnswerID: "A", Answer: "Leave", Next: scenario.ToScene("#1-2"), Points: scenario.Points{Accuracy: 10}},
		}},
		{ID: "#1-2", Title: "Corridor", Options: []scenario.Choice{
			{AnswerID: "A", Answer: "Follow the signs", Next: scenario.ToScene("#9-9"), Points: scenario.Points{Accuracy: 10}},
			{AnswerID: "B", Answer: "Go back", Next: scenario.ToScene("#1-1")},
		}},
	})
	p := newPlayer(t, set, nil, false)

	enter(p, "1")
	enter(p, "n")
	enter(p, "1")
	enter(p, "n")
	assert.Equal(t, player.OutcomeSuccess, p.Engine().Outcome())

	enter(p, "n")
	assert.Equal(t, "The run is over. Enter r to retry, b to go back or q to quit.", p.notice)

	enter(p, "r")
	assert.Empty(t, p.notice)
	assert.Equal(t, player.OutcomeNone, p.Engine().Outcome())
}

func TestPlayer_ReviewChoiceRestarts(t *testing.T) {
	p := newPlayer(t, alarmSet(), nil, false)
	enter(p, "2")
	enter(p, "n")

	assert.False(t, isQuit(enter(p, "1")))
	assert.Equal(t, 0, p.Engine().CurrentIndex())
	assert.Empty(t, p.feedback)
	assert.NotContains(t, p.View(), player.DefaultSetName)
	assert.Equal(t, 10, p.Engine().Progress().EXP, "progress survives a review")
}

func TestPlayer_ExitChoiceQuits(t *testing.T) {
	p := newPlayer(t, alarmSet(), nil, false)
	enter(p, "2")
	enter(p, "n")

	assert.True(t, isQuit(enter(p, "2")))
	assert.Equal(t, player.DefaultSelectPath, p.ExitPath())
	assert.NoError(t, p.Err())
}

func TestPlayer_QuitKeys(t *testing.T) {
	p := newPlayer(t, alarmSet(), nil, false)

	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd, "an empty line does nothing")

	assert.True(t, isQuit(enter(p, "q")))

	_, cmd = p.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, isQuit(cmd))

	_, cmd = p.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, isQuit(cmd))
	assert.Empty(t, p.ExitPath())
}

func TestPlayer_LevelUpQueuesBarPhases(t *testing.T) {
	ctx := context.Background()
	sess := session.New(session.NewMemoryKV())
	require.NoError(t, sess.Save(ctx, session.Snapshot{EXP: 95, Level: 1}))
	p := newPlayer(t, alarmSet(), sess, true)
	assert.NotNil(t, p.Init())

	cmd := enter(p, "2")
	require.NotNil(t, cmd, "the first phase starts the bar animation")
	assert.Contains(t, p.View(), "Level up! Lv.2 (+20 bonus EXP)")

	// The old level fills first.
	assert.Equal(t, 1, p.barLevel)
	assert.Equal(t, 100.0, p.barEXP)
	require.Len(t, p.phases, 1)
	assert.Equal(t, progress.Phase{Level: 2, From: 0, To: 25}, p.phases[0])
	assert.Contains(t, p.View(), "Lv.1")

	require.NotNil(t, p.nextPhase())
	assert.Equal(t, 2, p.barLevel)
	assert.Equal(t, 25.0, p.barEXP)
	assert.Empty(t, p.phases)
	assert.Contains(t, p.View(), "25/200 EXP")

	assert.Equal(t, progress.Progress{EXP: 25, Level: 2, TotalCorrect: 1}, p.Engine().Progress())
}

func TestPlayer_StaticBarWithoutAnimation(t *testing.T) {
	ctx := context.Background()
	sess := session.New(session.NewMemoryKV())
	require.NoError(t, sess.Save(ctx, session.Snapshot{EXP: 95, Level: 1}))
	p := newPlayer(t, alarmSet(), sess, false)

	assert.Nil(t, enter(p, "2"))
	assert.Empty(t, p.phases)
	assert.Contains(t, p.View(), "Lv.2")
	assert.Contains(t, p.View(), "25/200 EXP")
}
