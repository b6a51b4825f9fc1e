// Package tui renders the training player as a Bubble Tea program.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	expbar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"phoenix/internal/player"
	"phoenix/internal/progress"
)

const barWidth = 20

const helpLine = "number or answer id to choose · n next · b back · r retry · q quit"

// stepMsg is the result of one engine command.
type stepMsg struct {
	input  string
	before progress.Progress
	step   player.Step
	err    error
}

// Player is the interactive model behind `phoenix play`. Engine commands run
// inside Update so they apply in the order keys arrive.
type Player struct {
	ctx     context.Context
	engine  *player.Engine
	input   textinput.Model
	bar     expbar.Model
	animate bool

	// Level and EXP the bar is heading for while phases play out.
	barLevel int
	barEXP   float64
	phases   []progress.Phase

	notice   string
	feedback []string
	exitPath string
	err      error
}

func New(ctx context.Context, engine *player.Engine, animate bool) *Player {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "1"
	ti.Focus()

	current := engine.Progress()
	return &Player{
		ctx:      ctx,
		engine:   engine,
		input:    ti,
		bar:      newBar(),
		animate:  animate,
		barLevel: current.Level,
		barEXP:   float64(current.EXP),
	}
}

func newBar() expbar.Model {
	return expbar.New(
		expbar.WithDefaultGradient(),
		expbar.WithWidth(barWidth),
		expbar.WithoutPercentage(),
	)
}

// ExitPath is the selection path the run left for, if it ended on an exit
// choice.
func (p *Player) ExitPath() string { return p.exitPath }

func (p *Player) Err() error { return p.err }

func (p *Player) Engine() *player.Engine { return p.engine }

func (p *Player) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if p.animate {
		cmds = append(cmds, p.bar.SetPercent(progress.Phase{Level: p.barLevel, To: p.barEXP}.Fraction()))
	}
	return tea.Batch(cmds...)
}

func (p *Player) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return p, tea.Quit
		case tea.KeyEnter, tea.KeyCtrlJ:
			value := strings.TrimSpace(p.input.Value())
			p.input.Reset()
			if value == "" {
				return p, nil
			}
			return p, p.command(value)
		}

	case expbar.FrameMsg:
		model, cmd := p.bar.Update(msg)
		p.bar = model.(expbar.Model)
		if !p.bar.IsAnimating() && len(p.phases) > 0 {
			return p, p.nextPhase()
		}
		return p, cmd
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

// command runs one prompt command against the engine. Commands are lower
// case so upper-case answer ids such as B or R stay selectable.
func (p *Player) command(value string) tea.Cmd {
	before := p.engine.Progress()
	msg := stepMsg{input: value, before: before}

	switch value {
	case "q", "quit":
		return tea.Quit
	case "n", "next":
		msg.step, msg.err = p.engine.Next(p.ctx)
	case "b", "back":
		var moved bool
		msg.step, moved = p.engine.Back(p.ctx)
		if !moved {
			p.notice = "Nothing to go back to."
			return nil
		}
	case "r", "retry":
		msg.step = p.engine.Retry(p.ctx)
	default:
		msg.step, msg.err = p.engine.Select(p.ctx, p.answerID(value))
	}
	return p.apply(msg)
}

func (p *Player) apply(msg stepMsg) tea.Cmd {
	switch {
	case errors.Is(msg.err, player.ErrNoSelection):
		p.notice = "Pick a choice first."
		return nil
	case errors.Is(msg.err, player.ErrUnknownChoice):
		p.notice = fmt.Sprintf("No choice %q here.", msg.input)
		return nil
	case errors.Is(msg.err, player.ErrRunOver):
		p.notice = "The run is over. Enter r to retry, b to go back or q to quit."
		return nil
	case msg.err != nil:
		p.err = msg.err
		return tea.Quit
	}

	p.notice = ""
	p.feedback = nil
	step := msg.step
	if step.Kind == player.StepExit {
		p.exitPath = step.Path
		return tea.Quit
	}

	var cmd tea.Cmd
	if step.Kind == player.StepSelected {
		view := p.engine.Snapshot()
		p.feedback = append(p.feedback, toneStyle(view.Tone).Render(marker(step.Correct)+" "+view.Reaction))
		if step.Award != nil {
			p.feedback = append(p.feedback, awardLine(msg.before, *step.Award))
			cmd = p.startAward(msg.before, *step.Award)
		}
		if view.CanNext {
			p.feedback = append(p.feedback, dimStyle.Render("Enter n to continue."))
		}
	}
	return cmd
}

// startAward queues the bar phases for an award. Without animation the bar
// simply shows the new values.
func (p *Player) startAward(before progress.Progress, result progress.Result) tea.Cmd {
	if !p.animate {
		p.barLevel, p.barEXP = result.Level, float64(result.EXP)
		return nil
	}
	p.phases = progress.Plan(float64(before.EXP), before.Level, result)
	return p.nextPhase()
}

func (p *Player) nextPhase() tea.Cmd {
	if len(p.phases) == 0 {
		return nil
	}
	phase := p.phases[0]
	p.phases = p.phases[1:]
	if phase.Level != p.barLevel {
		// A new level sweeps up from an empty bar.
		p.bar = newBar()
	}
	p.barLevel, p.barEXP = phase.Level, phase.To
	return p.bar.SetPercent(phase.Fraction())
}

// answerID maps a 1-based choice number onto the answer id of the current
// scene. Anything else is taken as an answer id.
func (p *Player) answerID(input string) string {
	n, err := strconv.Atoi(input)
	if err != nil {
		return input
	}
	scene := p.engine.Snapshot().Scene
	if n < 1 || n > len(scene.Options) {
		return input
	}
	return scene.Options[n-1].AnswerID
}

func (p *Player) View() string {
	view := p.engine.Snapshot()
	scene := view.Scene

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render(fmt.Sprintf("[%s] %s", scene.ID, scene.Title)),
		dimStyle.Render(fmt.Sprintf("(%d/%d)", view.Index+1, view.Total)))
	if scene.Content != "" {
		b.WriteString(scene.Content + "\n")
	}
	if scene.Script != "" {
		b.WriteString(scriptStyle.Render(fmt.Sprintf("%q", scene.Script)) + "\n")
	}
	for i, option := range scene.Options {
		fmt.Fprintf(&b, "  %d) %s\n", i+1, option.Answer)
	}

	for _, line := range p.feedback {
		b.WriteString(line + "\n")
	}
	if view.Message != "" {
		b.WriteString("\n")
		if view.Outcome == player.OutcomeSuccess {
			b.WriteString(celebrateStyle.Render("🎉 "+view.Message) + "\n")
		} else {
			b.WriteString(badStyle.Render(view.Message) + "\n")
		}
		b.WriteString(dimStyle.Render("Enter r to retry or q to quit.") + "\n")
	}
	if p.notice != "" {
		b.WriteString(okStyle.Render(p.notice) + "\n")
	}

	b.WriteString("\n" + p.barLine(view.Progress) + "\n")
	b.WriteString(p.input.View() + "\n")
	b.WriteString(dimStyle.Render(helpLine) + "\n")
	return b.String()
}

func (p *Player) barLine(current progress.Progress) string {
	level, exp := current.Level, float64(current.EXP)
	rendered := p.bar.ViewAs(progress.Phase{Level: level, To: exp}.Fraction())
	if p.animate {
		level, exp = p.barLevel, p.barEXP
		rendered = p.bar.View()
	}
	return fmt.Sprintf("Lv.%d %s %d/%d EXP", level, rendered, int(exp), progress.EXPForNextLevel(level))
}

func awardLine(before progress.Progress, result progress.Result) string {
	if result.LeveledUp() {
		return goodStyle.Render(fmt.Sprintf("Level up! Lv.%d (+%d bonus EXP)", result.Level, result.Bonus))
	}
	return goodStyle.Render(fmt.Sprintf("+%d EXP", result.EXP-before.EXP))
}

func marker(correct bool) string {
	if correct {
		return "✓"
	}
	return "✗"
}

func toneStyle(tone player.Tone) lipgloss.Style {
	switch tone {
	case player.ToneGood:
		return goodStyle
	case player.ToneOK:
		return okStyle
	default:
		return badStyle
	}
}
