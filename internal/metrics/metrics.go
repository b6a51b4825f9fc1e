// Package metrics counts player activity on a dedicated prometheus registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"phoenix/internal/player"
	"phoenix/internal/progress"
	"phoenix/internal/scenario"
)

type Metrics struct {
	registry *prometheus.Registry

	choices    *prometheus.CounterVec
	experience prometheus.Counter
	levelUps   prometheus.Counter
	finished   *prometheus.CounterVec
	resets     prometheus.Counter
}

var _ player.Observer = (*Metrics)(nil)

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		choices: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "phoenix_choices_total",
				Help: "Total number of choices made, partitioned by result.",
			},
			[]string{"result"},
		),
		experience: factory.NewCounter(prometheus.CounterOpts{
			Name: "phoenix_experience_awarded_total",
			Help: "Total experience awarded, including level-up bonuses.",
		}),
		levelUps: factory.NewCounter(prometheus.CounterOpts{
			Name: "phoenix_level_ups_total",
			Help: "Total number of levels gained.",
		}),
		finished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "phoenix_runs_finished_total",
				Help: "Total number of runs that reached an outcome, partitioned by outcome.",
			},
			[]string{"outcome"},
		),
		resets: factory.NewCounter(prometheus.CounterOpts{
			Name: "phoenix_runs_reset_total",
			Help: "Total number of run resets from retry or review.",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ChoiceMade(scene scenario.Scene, choice scenario.Choice, correct bool) {
	result := "wrong"
	if correct {
		result = "correct"
	}
	m.choices.WithLabelValues(result).Inc()
}

func (m *Metrics) ExperienceAwarded(before progress.Progress, result progress.Result) {
	gained := result.EXP - before.EXP
	for level := before.Level; level < result.Level; level++ {
		gained += progress.EXPForNextLevel(level)
	}
	if gained > 0 {
		m.experience.Add(float64(gained))
	}
	if result.LevelsGained > 0 {
		m.levelUps.Add(float64(result.LevelsGained))
	}
}

func (m *Metrics) RunFinished(outcome player.Outcome) {
	m.finished.WithLabelValues(outcome.String()).Inc()
}

func (m *Metrics) RunReset() {
	m.resets.Inc()
}
