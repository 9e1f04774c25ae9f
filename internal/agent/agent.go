// Package agent defines the capability contract a decision policy must
// satisfy to be driven by the session runner, plus the reference agents
// used for task validation. Agents own their randomness: each carries its
// own seeded source, never the environment's.
package agent

import (
	"fmt"

	"github.com/AllenNeuralDynamics/aind-behavior-gym/internal/env"
	"github.com/AllenNeuralDynamics/aind-behavior-gym/internal/rng"
)

// Agent chooses an action for the current trial.
type Agent interface {
	Act(obs env.Observation) (int, error)
}

// Learner is implemented by agents that update on trial outcomes. The
// runner feeds every accepted step result to learning agents; stateless
// policies simply omit the method.
type Learner interface {
	Learn(res env.StepResult)
}

// Random chooses uniformly over the action set.
type Random struct {
	src        *rng.Source
	numActions int
}

func NewRandom(numActions int, seed int64) (*Random, error) {
	if numActions < 1 {
		return nil, fmt.Errorf("random agent needs at least 1 action, got %d", numActions)
	}
	return &Random{src: rng.New(seed), numActions: numActions}, nil
}

func (a *Random) Act(env.Observation) (int, error) {
	return a.src.Intn(a.numActions)
}

// BiasedIgnore models a lateralized animal on a two-option task with an
// ignore action, choosing left/right/ignore at odds 100:20:1.
type BiasedIgnore struct {
	src *rng.Source
}

func NewBiasedIgnore(seed int64) *BiasedIgnore {
	return &BiasedIgnore{src: rng.New(seed)}
}

func (a *BiasedIgnore) Act(env.Observation) (int, error) {
	draw, err := a.src.Intn(121)
	if err != nil {
		return 0, err
	}
	switch {
	case draw < 100:
		return 0, nil
	case draw < 120:
		return 1, nil
	default:
		return 2, nil
	}
}

// EpsilonGreedyQ keeps a per-action value estimate updated with a constant
// learning rate and explores uniformly with probability epsilon. Ties go to
// the lowest action index so behavior is deterministic for a fixed seed.
type EpsilonGreedyQ struct {
	src     *rng.Source
	q       []float64
	alpha   float64
	epsilon float64
}

func NewEpsilonGreedyQ(numActions int, alpha, epsilon float64, seed int64) (*EpsilonGreedyQ, error) {
	if numActions < 1 {
		return nil, fmt.Errorf("q agent needs at least 1 action, got %d", numActions)
	}
	if alpha <= 0 || alpha > 1 {
		return nil, fmt.Errorf("learning rate %g outside (0, 1]", alpha)
	}
	if epsilon < 0 || epsilon > 1 {
		return nil, fmt.Errorf("epsilon %g outside [0, 1]", epsilon)
	}
	return &EpsilonGreedyQ{
		src:     rng.New(seed),
		q:       make([]float64, numActions),
		alpha:   alpha,
		epsilon: epsilon,
	}, nil
}

func (a *EpsilonGreedyQ) Act(env.Observation) (int, error) {
	if a.epsilon > 0 {
		u, err := a.src.Uniform()
		if err != nil {
			return 0, err
		}
		if u < a.epsilon {
			return a.src.Intn(len(a.q))
		}
	}

	best := 0
	for i, v := range a.q {
		if v > a.q[best] {
			best = i
		}
	}
	return best, nil
}

func (a *EpsilonGreedyQ) Learn(res env.StepResult) {
	if res.Action < 0 || res.Action >= len(a.q) {
		return
	}
	a.q[res.Action] += a.alpha * (res.Reward - a.q[res.Action])
}

// Values returns a copy of the current action-value estimates.
func (a *EpsilonGreedyQ) Values() []float64 {
	out := make([]float64, len(a.q))
	copy(out, a.q)
	return out
}
