package task

import (
	"fmt"

	"github.com/AllenNeuralDynamics/aind-behavior-gym/internal/rng"
)

const UncoupledBaitingName = "uncoupled-baiting"

func init() {
	Register(UncoupledBaitingName, func(cfg Config) (Schedule, error) {
		return NewUncoupledBaiting(cfg)
	})
}

// DefaultPRewardSet is the standard pool of base probabilities for the
// uncoupled task.
func DefaultPRewardSet() []float64 {
	return []float64{0.1, 0.5, 0.9}
}

// UncoupledBaiting gives every option its own base probability drawn from a
// shared pool and its own block clock, so the options switch independently.
// Baiting is the defining dynamic of this task and is always on.
type UncoupledBaiting struct {
	pool   []float64
	clocks []blockClock
	bait   baiting

	src   *rng.Source
	trial int
	base  []float64
}

func NewUncoupledBaiting(cfg Config) (*UncoupledBaiting, error) {
	if cfg.NumOptions == 0 {
		cfg.NumOptions = 2
	}
	if cfg.NumOptions < 2 {
		return nil, fmt.Errorf("%w: need at least 2 options, got %d", ErrConfig, cfg.NumOptions)
	}
	pool := cfg.PRewardSet
	if len(pool) == 0 {
		pool = DefaultPRewardSet()
	}
	for _, p := range pool {
		if p < 0 || p > 1 {
			return nil, fmt.Errorf("%w: probability %g outside [0, 1]", ErrConfig, p)
		}
	}
	if cfg.BlockLen == 0 && cfg.BlockMin == 0 && cfg.BlockMax == 0 && cfg.BlockBeta == 0 {
		cfg.BlockMin, cfg.BlockMax, cfg.BlockBeta = 20, 100, 30
	}
	if err := validateBlockConfig(cfg); err != nil {
		return nil, err
	}

	clocks := make([]blockClock, cfg.NumOptions)
	for i := range clocks {
		clocks[i] = blockClock{
			fixedLen: cfg.BlockLen,
			min:      cfg.BlockMin,
			max:      cfg.BlockMax,
			beta:     cfg.BlockBeta,
		}
	}

	return &UncoupledBaiting{
		pool:   append([]float64(nil), pool...),
		clocks: clocks,
		bait:   baiting{enabled: true},
		base:   make([]float64, cfg.NumOptions),
	}, nil
}

func (s *UncoupledBaiting) Name() string    { return UncoupledBaitingName }
func (s *UncoupledBaiting) NumOptions() int { return len(s.base) }
func (s *UncoupledBaiting) Trial() int      { return s.trial }

func (s *UncoupledBaiting) Init(src *rng.Source) error {
	if src == nil {
		return rng.ErrUnseeded
	}
	s.src = src
	s.trial = 0

	for i := range s.base {
		if err := s.clocks[i].start(src); err != nil {
			return err
		}
		p, err := s.drawBase(s.base[i], true)
		if err != nil {
			return err
		}
		s.base[i] = p
	}
	s.bait.reset(s.base)
	return nil
}

func (s *UncoupledBaiting) PReward() []float64 {
	out := make([]float64, len(s.base))
	copy(out, s.base)
	return out
}

func (s *UncoupledBaiting) Effective() []float64 {
	if s.src == nil {
		return s.PReward()
	}
	return s.bait.snapshot()
}

func (s *UncoupledBaiting) ResolveReward(chosen int) (float64, error) {
	if s.src == nil {
		return 0, fmt.Errorf("resolve reward: %w", rng.ErrUnseeded)
	}
	if err := checkChosen(chosen, len(s.base)); err != nil {
		return 0, fmt.Errorf("resolve reward: %w", err)
	}
	hit, err := s.src.Bernoulli(s.bait.eff[chosen])
	if err != nil {
		return 0, err
	}
	if hit {
		return 1, nil
	}
	return 0, nil
}

func (s *UncoupledBaiting) Advance(chosen int, rewarded bool) error {
	if s.src == nil {
		return fmt.Errorf("advance: %w", rng.ErrUnseeded)
	}
	if chosen != -1 {
		if err := checkChosen(chosen, len(s.base)); err != nil {
			return fmt.Errorf("advance: %w", err)
		}
	}

	s.trial++
	for i := range s.base {
		due, err := s.clocks[i].due(s.trial, s.src)
		if err != nil {
			return err
		}
		if !due {
			continue
		}
		p, err := s.drawBase(s.base[i], false)
		if err != nil {
			return err
		}
		s.base[i] = p
	}
	s.bait.advance(chosen, rewarded, s.base)
	return nil
}

// drawBase picks a probability from the pool; on a block switch it must
// differ from the current one so every switch is observable. A pool with no
// value other than current (single entry, or all entries equal) accepts any
// draw, otherwise the redraw loop could never exit.
func (s *UncoupledBaiting) drawBase(current float64, initial bool) (float64, error) {
	mustDiffer := !initial
	if mustDiffer {
		mustDiffer = false
		for _, q := range s.pool {
			if q != current {
				mustDiffer = true
				break
			}
		}
	}
	for {
		idx, err := s.src.Intn(len(s.pool))
		if err != nil {
			return 0, err
		}
		p := s.pool[idx]
		if !mustDiffer || p != current {
			return p, nil
		}
	}
}
