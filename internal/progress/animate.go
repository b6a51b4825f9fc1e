package progress

// Phase is one leg of the progress bar animation at a fixed level.
type Phase struct {
	Level int
	From  float64
	To    float64
}

// Fraction is the bar fill the phase ends at, in [0,1].
func (p Phase) Fraction() float64 {
	need := float64(EXPForNextLevel(p.Level))
	if need <= 0 || p.To <= 0 {
		return 0
	}
	if p.To >= need {
		return 1
	}
	return p.To / need
}

// Plan lays out how a display should move from displayed to the result of an
// award made at level before. Without a level-up it is a single sweep; with
// one it fills the old bar, then sweeps the new level from zero.
func Plan(displayed float64, before int, result Result) []Phase {
	if !result.LeveledUp() {
		return []Phase{{Level: result.Level, From: displayed, To: float64(result.EXP)}}
	}
	return []Phase{
		{Level: before, From: displayed, To: float64(EXPForNextLevel(before))},
		{Level: result.Level, From: 0, To: float64(result.EXP)},
	}
}
