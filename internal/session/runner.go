// Package session drives agents against environments and owns the episode
// log. The environment never sees the agent; the runner is the only
// component talking to both.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AllenNeuralDynamics/aind-behavior-gym/internal/agent"
	"github.com/AllenNeuralDynamics/aind-behavior-gym/internal/env"
)

// TrialRecord is one row of the episode log: the action taken, the reward
// delivered, and the ground-truth probabilities in effect on that trial.
type TrialRecord struct {
	Trial     int       `json:"trial"`
	Action    int       `json:"action"`
	Reward    float64   `json:"reward"`
	PReward   []float64 `json:"p_reward"`
	Effective []float64 `json:"p_effective,omitempty"`
}

// Session is the complete record of one episode. It is read-only once the
// runner returns it.
type Session struct {
	ID           string        `json:"id"`
	Task         string        `json:"task"`
	Seed         int64         `json:"seed"`
	NumTrials    int           `json:"num_trials"`
	NumActions   int           `json:"num_actions"`
	CreatedAtUTC string        `json:"created_at_utc"`
	TotalReward  float64       `json:"total_reward"`
	Trials       []TrialRecord `json:"trials"`
}

// Runner runs one episode of Env under Agent. Agents implementing
// agent.Learner receive every accepted step result.
type Runner struct {
	Env   *env.Bandit
	Agent agent.Agent
	Seed  int64
}

// Run resets the environment and loops until the episode terminates. Any
// agent or environment error aborts the episode; the partial log is
// discarded and the error returned.
func (r Runner) Run(ctx context.Context) (Session, error) {
	if r.Env == nil {
		return Session{}, fmt.Errorf("%w: runner has no environment", env.ErrConfig)
	}
	if r.Agent == nil {
		return Session{}, fmt.Errorf("%w: runner has no agent", env.ErrConfig)
	}

	obs, _, err := r.Env.Reset(r.Seed)
	if err != nil {
		return Session{}, fmt.Errorf("reset: %w", err)
	}

	trials := make([]TrialRecord, 0, r.Env.NumTrials())
	total := 0.0
	for {
		if err := ctx.Err(); err != nil {
			return Session{}, err
		}

		action, err := r.Agent.Act(obs)
		if err != nil {
			return Session{}, fmt.Errorf("agent act on trial %d: %w", obs.Trial, err)
		}
		res, err := r.Env.Step(action)
		if err != nil {
			return Session{}, fmt.Errorf("trial %d: %w", obs.Trial, err)
		}

		trials = append(trials, TrialRecord{
			Trial:     res.Trial,
			Action:    res.Action,
			Reward:    res.Reward,
			PReward:   res.Info.PReward,
			Effective: res.Info.Effective,
		})
		total += res.Reward

		if learner, ok := r.Agent.(agent.Learner); ok {
			learner.Learn(res)
		}

		obs = res.Observation
		if res.Terminated || res.Truncated {
			break
		}
	}

	return Session{
		ID:           uuid.NewString(),
		Task:         r.Env.Task(),
		Seed:         r.Seed,
		NumTrials:    len(trials),
		NumActions:   r.Env.NumActions(),
		CreatedAtUTC: time.Now().UTC().Format(time.RFC3339),
		TotalReward:  total,
		Trials:       trials,
	}, nil
}
