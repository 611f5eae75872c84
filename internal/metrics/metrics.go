package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Счетчики движка. Регистрируются в DefaultRegisterer,
// /metrics отдается через promhttp в cmd/server.
var (
	GamesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gamebook_games_started_total",
		Help: "Number of game sessions started (preview included).",
	})

	GamesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gamebook_games_completed_total",
		Help: "Number of game sessions that reached an ending.",
	})

	GamesAbandoned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gamebook_games_abandoned_total",
		Help: "Number of game sessions abandoned by players.",
	})

	// DiceRolls считает броски по исходу: success / failure.
	DiceRolls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamebook_dice_rolls_total",
		Help: "Number of dice gate resolutions by outcome.",
	}, []string{"outcome"})

	StoriesPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gamebook_stories_published_total",
		Help: "Number of stories published by authors.",
	})
)
