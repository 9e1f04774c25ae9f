package task

import (
	"fmt"
	"sort"

	"github.com/AllenNeuralDynamics/aind-behavior-gym/internal/rng"
)

const CoupledBlockName = "coupled-block"

func init() {
	Register(CoupledBlockName, func(cfg Config) (Schedule, error) {
		return NewCoupledBlock(cfg)
	})
}

// DefaultPRewardPairs is the standard family of coupled probability pairs
// (reward contrasts 8:1, 6:1, 3:1 and 1:1 at a fixed total of 0.45).
func DefaultPRewardPairs() [][]float64 {
	return [][]float64{
		{0.4, 0.05},
		{0.3857, 0.0643},
		{0.3375, 0.1125},
		{0.225, 0.225},
	}
}

// CoupledBlock couples both options to one probability pair: at every block
// switch a new contrast is drawn from the configured family and the rich
// side swaps. Block boundaries depend on trial index only.
type CoupledBlock struct {
	pairs [][]float64
	clock blockClock
	bait  baiting

	src     *rng.Source
	trial   int
	base    []float64
	richer  int
	pairIdx int
}

func NewCoupledBlock(cfg Config) (*CoupledBlock, error) {
	if cfg.NumOptions == 0 {
		cfg.NumOptions = 2
	}
	if cfg.NumOptions != 2 {
		return nil, fmt.Errorf("%w: coupled-block requires exactly 2 options, got %d", ErrConfig, cfg.NumOptions)
	}
	pairs := cfg.PRewardPairs
	if len(pairs) == 0 {
		pairs = DefaultPRewardPairs()
	}
	for i, pair := range pairs {
		if len(pair) != 2 {
			return nil, fmt.Errorf("%w: probability pair %d has %d entries, want 2", ErrConfig, i, len(pair))
		}
		for _, p := range pair {
			if p < 0 || p > 1 {
				return nil, fmt.Errorf("%w: probability %g outside [0, 1]", ErrConfig, p)
			}
		}
	}
	if cfg.BlockLen == 0 && cfg.BlockMin == 0 && cfg.BlockMax == 0 && cfg.BlockBeta == 0 {
		cfg.BlockMin, cfg.BlockMax, cfg.BlockBeta = 40, 80, 20
	}
	if err := validateBlockConfig(cfg); err != nil {
		return nil, err
	}

	// Rich side first, so pair[0] always goes to the current richer option.
	sorted := make([][]float64, len(pairs))
	for i, pair := range pairs {
		sorted[i] = []float64{pair[0], pair[1]}
		sort.Sort(sort.Reverse(sort.Float64Slice(sorted[i])))
	}

	return &CoupledBlock{
		pairs: sorted,
		clock: blockClock{
			fixedLen: cfg.BlockLen,
			min:      cfg.BlockMin,
			max:      cfg.BlockMax,
			beta:     cfg.BlockBeta,
		},
		bait: baiting{enabled: cfg.Baiting},
		base: make([]float64, 2),
	}, nil
}

func (s *CoupledBlock) Name() string    { return CoupledBlockName }
func (s *CoupledBlock) NumOptions() int { return 2 }
func (s *CoupledBlock) Trial() int      { return s.trial }

func (s *CoupledBlock) Init(src *rng.Source) error {
	if src == nil {
		return rng.ErrUnseeded
	}
	s.src = src
	s.trial = 0

	if err := s.clock.start(src); err != nil {
		return err
	}
	idx, err := src.Intn(len(s.pairs))
	if err != nil {
		return err
	}
	richer, err := src.Intn(2)
	if err != nil {
		return err
	}
	s.pairIdx = idx
	s.richer = richer
	s.assignBase()
	s.bait.reset(s.base)
	return nil
}

func (s *CoupledBlock) PReward() []float64 {
	out := make([]float64, len(s.base))
	copy(out, s.base)
	return out
}

func (s *CoupledBlock) Effective() []float64 {
	if s.src == nil {
		return s.PReward()
	}
	return s.bait.snapshot()
}

func (s *CoupledBlock) ResolveReward(chosen int) (float64, error) {
	if s.src == nil {
		return 0, fmt.Errorf("resolve reward: %w", rng.ErrUnseeded)
	}
	if err := checkChosen(chosen, 2); err != nil {
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

func (s *CoupledBlock) Advance(chosen int, rewarded bool) error {
	if s.src == nil {
		return fmt.Errorf("advance: %w", rng.ErrUnseeded)
	}
	if chosen != -1 {
		if err := checkChosen(chosen, 2); err != nil {
			return fmt.Errorf("advance: %w", err)
		}
	}

	s.trial++
	due, err := s.clock.due(s.trial, s.src)
	if err != nil {
		return err
	}
	if due {
		idx, err := s.src.Intn(len(s.pairs))
		if err != nil {
			return err
		}
		s.pairIdx = idx
		s.richer = 1 - s.richer
		s.assignBase()
	}
	s.bait.advance(chosen, rewarded, s.base)
	return nil
}

// BlockStarts lists the trial index opening each block so far.
func (s *CoupledBlock) BlockStarts() []int {
	out := make([]int, len(s.clock.starts))
	copy(out, s.clock.starts)
	return out
}

func (s *CoupledBlock) assignBase() {
	pair := s.pairs[s.pairIdx]
	s.base[s.richer] = pair[0]
	s.base[1-s.richer] = pair[1]
}
