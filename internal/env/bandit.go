// Package env implements the trial-loop state machine of a dynamic bandit
// environment. The environment owns no randomness of its own: every draw
// goes through the schedule, which holds the seeded source, so a fixed seed
// and action sequence reproduce an identical episode bit for bit.
package env

import (
	"fmt"

	"github.com/AllenNeuralDynamics/aind-behavior-gym/internal/rng"
	"github.com/AllenNeuralDynamics/aind-behavior-gym/internal/task"
)

// Config describes a bandit environment. Task names a registered schedule;
// Schedule carries its parameters.
type Config struct {
	Task        string
	Schedule    task.Config
	NumTrials   int
	AllowIgnore bool
}

// Observation is everything the agent sees before choosing. Reward
// probabilities stay hidden; the trial index is the only observable state.
type Observation struct {
	Trial int
}

// Info reveals the ground truth for offline analysis. It must never be fed
// back to an agent as an observation.
type Info struct {
	Trial     int
	PReward   []float64
	Effective []float64
}

// StepResult is returned for every accepted step. Trial is the index of the
// trial the action was applied to; Observation belongs to the next trial.
type StepResult struct {
	Observation Observation
	Trial       int
	Action      int
	Reward      float64
	Terminated  bool
	Truncated   bool
	Info        Info
}

type lifecycle int

const (
	stateUninitialized lifecycle = iota
	stateReady
	stateTerminated
)

// Bandit is a sequential foraging environment. Lifecycle: Reset moves it to
// ready, Step runs trials until the configured episode length, after which
// only Reset is accepted again.
type Bandit struct {
	cfg        Config
	numOptions int
	sched      task.Schedule
	state      lifecycle
	trial      int

	choices  []int
	rewards  []float64
	pHistory [][]float64
}

func New(cfg Config) (*Bandit, error) {
	if cfg.NumTrials < 1 {
		return nil, fmt.Errorf("%w: number of trials %d must be at least 1", ErrConfig, cfg.NumTrials)
	}
	// Build a schedule once so configuration errors surface at
	// construction, not at the first reset.
	sched, err := task.New(cfg.Task, cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return &Bandit{cfg: cfg, numOptions: sched.NumOptions()}, nil
}

// NumOptions is the size of the fixed option set.
func (b *Bandit) NumOptions() int { return b.numOptions }

// NumActions includes the ignore action when enabled.
func (b *Bandit) NumActions() int {
	n := b.NumOptions()
	if b.cfg.AllowIgnore {
		n++
	}
	return n
}

// IgnoreAction returns the index of the ignore action, or -1 when disabled.
func (b *Bandit) IgnoreAction() int {
	if !b.cfg.AllowIgnore {
		return -1
	}
	return b.NumOptions()
}

func (b *Bandit) NumTrials() int { return b.cfg.NumTrials }

// Task is the registered schedule name this environment runs.
func (b *Bandit) Task() string { return b.cfg.Task }

// Reset starts a fresh episode: a new seeded source, a newly initialized
// schedule, trial index 0, empty histories. Resetting twice with the same
// seed reproduces identical state.
func (b *Bandit) Reset(seed int64) (Observation, Info, error) {
	sched, err := task.New(b.cfg.Task, b.cfg.Schedule)
	if err != nil {
		return Observation{}, Info{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if err := sched.Init(rng.New(seed)); err != nil {
		return Observation{}, Info{}, fmt.Errorf("reset: %w", err)
	}

	b.sched = sched
	b.state = stateReady
	b.trial = 0
	b.choices = b.choices[:0]
	b.rewards = b.rewards[:0]
	b.pHistory = b.pHistory[:0]

	return Observation{Trial: 0}, b.info(), nil
}

// Step applies an action to the current trial. Invalid actions and calls in
// the wrong lifecycle state fail without mutating anything.
func (b *Bandit) Step(action int) (StepResult, error) {
	switch b.state {
	case stateUninitialized:
		return StepResult{}, fmt.Errorf("step: %w", ErrNotReady)
	case stateTerminated:
		return StepResult{}, fmt.Errorf("step: %w", ErrTerminated)
	}
	if action < 0 || action >= b.NumActions() {
		return StepResult{}, fmt.Errorf("step: action %d with %d actions declared: %w", action, b.NumActions(), ErrInvalidAction)
	}

	trial := b.trial
	// Snapshot before dynamics move on.
	pSnapshot := b.sched.PReward()
	info := b.info()

	var reward float64
	ignored := b.cfg.AllowIgnore && action == b.IgnoreAction()
	if !ignored {
		r, err := b.sched.ResolveReward(action)
		if err != nil {
			return StepResult{}, fmt.Errorf("step: %w", err)
		}
		reward = r
	}

	b.choices = append(b.choices, action)
	b.rewards = append(b.rewards, reward)
	b.pHistory = append(b.pHistory, pSnapshot)

	terminated := trial == b.cfg.NumTrials-1
	if terminated {
		b.state = stateTerminated
	} else {
		chosen := action
		if ignored {
			chosen = -1
		}
		if err := b.sched.Advance(chosen, reward > 0); err != nil {
			return StepResult{}, fmt.Errorf("step: %w", err)
		}
		b.trial++
	}

	return StepResult{
		Observation: Observation{Trial: b.trial},
		Trial:       trial,
		Action:      action,
		Reward:      reward,
		Terminated:  terminated,
		Info:        info,
	}, nil
}

// ChoiceHistory returns the actions accepted so far, one per trial.
func (b *Bandit) ChoiceHistory() []int {
	out := make([]int, len(b.choices))
	copy(out, b.choices)
	return out
}

// RewardHistory returns the rewards delivered so far, one per trial.
func (b *Bandit) RewardHistory() []float64 {
	out := make([]float64, len(b.rewards))
	copy(out, b.rewards)
	return out
}

// PRewardHistory returns the base probability snapshot of every played
// trial.
func (b *Bandit) PRewardHistory() [][]float64 {
	out := make([][]float64, len(b.pHistory))
	for i, p := range b.pHistory {
		out[i] = append([]float64(nil), p...)
	}
	return out
}

func (b *Bandit) info() Info {
	return Info{
		Trial:     b.trial,
		PReward:   b.sched.PReward(),
		Effective: b.sched.Effective(),
	}
}
