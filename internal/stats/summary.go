// Package stats derives summary statistics from completed sessions and
// writes the on-disk artifacts consumed by external analysis tooling.
package stats

import (
	"github.com/AllenNeuralDynamics/aind-behavior-gym/internal/session"
)

// Summary condenses one session for indexes and CLI listings.
type Summary struct {
	SessionID      string    `json:"session_id"`
	Task           string    `json:"task"`
	Seed           int64     `json:"seed"`
	NumTrials      int       `json:"num_trials"`
	TotalReward    float64   `json:"total_reward"`
	RewardRate     float64   `json:"reward_rate"`
	ChoiceFraction []float64 `json:"choice_fraction"`
	NumBlocks      int       `json:"num_blocks"`
	CreatedAtUTC   string    `json:"created_at_utc"`
}

// countBlocks treats any change in the ground-truth probability vector as a
// block boundary.
func countBlocks(trials []session.TrialRecord) int {
	if len(trials) == 0 {
		return 0
	}
	blocks := 1
	for i := 1; i < len(trials); i++ {
		if probsDiffer(trials[i-1].PReward, trials[i].PReward) {
			blocks++
		}
	}
	return blocks
}

func probsDiffer(a, b []float64) bool {
	if len(a) != len(b) {
		return true
	}
	for i := range a {
		if a[i] != b[i] {
			return true
		}
	}
	return false
}

// Summarize computes per-session statistics. numActions sizes the choice
// fraction vector; actions recorded outside it are ignored.
func Summarize(s session.Session, numActions int) Summary {
	counts := make([]float64, numActions)
	total := 0.0
	for _, tr := range s.Trials {
		if tr.Action >= 0 && tr.Action < numActions {
			counts[tr.Action]++
		}
		total += tr.Reward
	}

	fractions := make([]float64, numActions)
	if len(s.Trials) > 0 {
		for i, c := range counts {
			fractions[i] = c / float64(len(s.Trials))
		}
	}

	rate := 0.0
	if len(s.Trials) > 0 {
		rate = total / float64(len(s.Trials))
	}

	return Summary{
		SessionID:      s.ID,
		Task:           s.Task,
		Seed:           s.Seed,
		NumTrials:      len(s.Trials),
		TotalReward:    total,
		RewardRate:     rate,
		ChoiceFraction: fractions,
		NumBlocks:      countBlocks(s.Trials),
		CreatedAtUTC:   s.CreatedAtUTC,
	}
}
