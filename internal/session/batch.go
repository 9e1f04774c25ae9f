package session

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/AllenNeuralDynamics/aind-behavior-gym/internal/agent"
	"github.com/AllenNeuralDynamics/aind-behavior-gym/internal/env"
)

// BatchConfig describes N independent episodes. Every episode gets its own
// freshly built environment and agent, so no random source is ever shared
// across concurrently running episodes.
type BatchConfig struct {
	Episodes int

	// BaseSeed seeds episode i with BaseSeed+i; Seeds, when set, must list
	// one explicit seed per episode and takes precedence.
	BaseSeed int64
	Seeds    []int64

	// Workers bounds episode parallelism; <= 1 runs sequentially.
	Workers int

	BuildEnv   func() (*env.Bandit, error)
	BuildAgent func(numActions int, seed int64) (agent.Agent, error)
}

// EpisodeError records which episode of a batch failed and why.
type EpisodeError struct {
	Episode int
	Seed    int64
	Err     error
}

func (e EpisodeError) Error() string {
	return fmt.Sprintf("episode %d (seed %d): %v", e.Episode, e.Seed, e.Err)
}

func (e EpisodeError) Unwrap() error { return e.Err }

// BatchResult keeps completed sessions indexed by episode; failed episodes
// leave a nil slot and an entry in Errors.
type BatchResult struct {
	Sessions []Session
	Errors   []EpisodeError
}

// Completed returns the sessions that finished, in episode order.
func (r BatchResult) Completed() []Session {
	out := make([]Session, 0, len(r.Sessions))
	for _, s := range r.Sessions {
		if s.ID != "" {
			out = append(out, s)
		}
	}
	return out
}

// RunBatch runs the configured episodes. A failing episode aborts only
// itself: completed sessions are kept and the failure is reported in the
// result. The returned error covers configuration problems and context
// cancellation only.
func RunBatch(ctx context.Context, cfg BatchConfig) (BatchResult, error) {
	if cfg.Episodes < 1 {
		return BatchResult{}, fmt.Errorf("%w: batch needs at least 1 episode, got %d", env.ErrConfig, cfg.Episodes)
	}
	if cfg.BuildEnv == nil || cfg.BuildAgent == nil {
		return BatchResult{}, fmt.Errorf("%w: batch needs environment and agent builders", env.ErrConfig)
	}
	if len(cfg.Seeds) > 0 && len(cfg.Seeds) != cfg.Episodes {
		return BatchResult{}, fmt.Errorf("%w: %d explicit seeds for %d episodes", env.ErrConfig, len(cfg.Seeds), cfg.Episodes)
	}

	seedFor := func(i int) int64 {
		if len(cfg.Seeds) > 0 {
			return cfg.Seeds[i]
		}
		return cfg.BaseSeed + int64(i)
	}

	sessions := make([]Session, cfg.Episodes)
	failures := make([]error, cfg.Episodes)

	g, gctx := errgroup.WithContext(ctx)
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for i := 0; i < cfg.Episodes; i++ {
		i := i
		g.Go(func() error {
			seed := seedFor(i)
			b, err := cfg.BuildEnv()
			if err != nil {
				failures[i] = err
				return nil
			}
			a, err := cfg.BuildAgent(b.NumActions(), seed)
			if err != nil {
				failures[i] = err
				return nil
			}
			s, err := Runner{Env: b, Agent: a, Seed: seed}.Run(gctx)
			if err != nil {
				failures[i] = err
				return nil
			}
			sessions[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BatchResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return BatchResult{}, err
	}

	result := BatchResult{Sessions: sessions}
	for i, err := range failures {
		if err != nil {
			result.Errors = append(result.Errors, EpisodeError{Episode: i, Seed: seedFor(i), Err: err})
		}
	}
	return result, nil
}
