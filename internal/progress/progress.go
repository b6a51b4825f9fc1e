// Package progress implements experience and level arithmetic. Everything
// here is pure; rendering layers decide how to animate toward the results.
package progress

const (
	BaseAward    = 10
	LevelUpBonus = 20
	StartLevel   = 1
)

// Progress is the lifetime progression carried between runs.
type Progress struct {
	EXP          int `json:"exp"`
	Level        int `json:"level"`
	TotalCorrect int `json:"totalCorrect"`
}

func New() Progress {
	return Progress{Level: StartLevel}
}

// Normalize repairs values restored from storage.
func (p Progress) Normalize() Progress {
	if p.Level < StartLevel {
		p.Level = StartLevel
	}
	if p.EXP < 0 {
		p.EXP = 0
	}
	if p.TotalCorrect < 0 {
		p.TotalCorrect = 0
	}
	return p
}

// EXPForNextLevel is the experience needed to advance from level to level+1.
func EXPForNextLevel(level int) int {
	return level * 100
}

// BonusForLevel is added to the carry-over on reaching next.
func BonusForLevel(next int) int {
	return LevelUpBonus
}

type Result struct {
	EXP          int `json:"exp"`
	Level        int `json:"level"`
	Bonus        int `json:"bonus"`
	LevelsGained int `json:"levelsGained"`
}

func (r Result) LeveledUp() bool {
	return r.LevelsGained > 0
}

// Award adds amount to exp and resolves level-ups. Each level-up subtracts
// the threshold, adds the level bonus to the carry and re-checks, so one
// award can cascade across several levels.
func Award(exp, level, amount int) Result {
	return AwardWith(exp, level, amount, BonusForLevel)
}

// AwardWith is Award with a custom bonus schedule.
func AwardWith(exp, level, amount int, bonus func(next int) int) Result {
	if level < StartLevel {
		level = StartLevel
	}
	next := Result{EXP: exp + amount, Level: level}
	for next.EXP >= EXPForNextLevel(next.Level) {
		next.EXP -= EXPForNextLevel(next.Level)
		next.Level++
		gained := bonus(next.Level)
		next.Bonus += gained
		next.EXP += gained
		next.LevelsGained++
	}
	return next
}

// Percent is the filled share of the current level bar, clamped to 0..100.
func Percent(display float64, level int) int {
	needed := EXPForNextLevel(level)
	if needed <= 0 {
		return 0
	}
	pct := int(display/float64(needed)*100 + 0.5)
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
