package task

import (
	"fmt"

	"github.com/AllenNeuralDynamics/aind-behavior-gym/internal/rng"
)

const RandomWalkName = "random-walk"

func init() {
	Register(RandomWalkName, func(cfg Config) (Schedule, error) {
		return NewRandomWalk(cfg)
	})
}

// RandomWalk evolves every option's probability as an independent Gaussian
// random walk absorbed at per-option bounds (Miller et al. 2021).
type RandomWalk struct {
	pMin, pMax  []float64
	sigma, mean []float64
	bait        baiting

	src   *rng.Source
	trial int
	base  []float64
}

func NewRandomWalk(cfg Config) (*RandomWalk, error) {
	if cfg.NumOptions == 0 {
		cfg.NumOptions = 2
	}
	if cfg.NumOptions < 2 {
		return nil, fmt.Errorf("%w: need at least 2 options, got %d", ErrConfig, cfg.NumOptions)
	}

	pMin, err := perOption(cfg.PMin, cfg.NumOptions, 0)
	if err != nil {
		return nil, err
	}
	pMax, err := perOption(cfg.PMax, cfg.NumOptions, 1)
	if err != nil {
		return nil, err
	}
	sigma, err := perOption(cfg.Sigma, cfg.NumOptions, 0.15)
	if err != nil {
		return nil, err
	}
	mean, err := perOption(cfg.Mean, cfg.NumOptions, 0)
	if err != nil {
		return nil, err
	}
	for i := range pMin {
		if pMin[i] < 0 || pMax[i] > 1 || pMin[i] > pMax[i] {
			return nil, fmt.Errorf("%w: probability bounds [%g, %g] for option %d", ErrConfig, pMin[i], pMax[i], i)
		}
		if sigma[i] < 0 {
			return nil, fmt.Errorf("%w: sigma %g for option %d is negative", ErrConfig, sigma[i], i)
		}
	}

	return &RandomWalk{
		pMin:  pMin,
		pMax:  pMax,
		sigma: sigma,
		mean:  mean,
		bait:  baiting{enabled: cfg.Baiting},
		base:  make([]float64, cfg.NumOptions),
	}, nil
}

func (s *RandomWalk) Name() string    { return RandomWalkName }
func (s *RandomWalk) NumOptions() int { return len(s.base) }
func (s *RandomWalk) Trial() int      { return s.trial }

func (s *RandomWalk) Init(src *rng.Source) error {
	if src == nil {
		return rng.ErrUnseeded
	}
	s.src = src
	s.trial = 0

	for i := range s.base {
		p, err := src.UniformRange(s.pMin[i], s.pMax[i])
		if err != nil {
			return err
		}
		s.base[i] = p
	}
	s.bait.reset(s.base)
	return nil
}

func (s *RandomWalk) PReward() []float64 {
	out := make([]float64, len(s.base))
	copy(out, s.base)
	return out
}

func (s *RandomWalk) Effective() []float64 {
	if s.src == nil {
		return s.PReward()
	}
	return s.bait.snapshot()
}

func (s *RandomWalk) ResolveReward(chosen int) (float64, error) {
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

func (s *RandomWalk) Advance(chosen int, rewarded bool) error {
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
		p, err := s.src.Normal(s.base[i]+s.mean[i], s.sigma[i])
		if err != nil {
			return err
		}
		s.base[i] = clamp(p, s.pMin[i], s.pMax[i])
	}
	s.bait.advance(chosen, rewarded, s.base)
	return nil
}

// perOption expands a scalar or per-option slice to exactly n entries.
func perOption(values []float64, n int, def float64) ([]float64, error) {
	out := make([]float64, n)
	switch len(values) {
	case 0:
		for i := range out {
			out[i] = def
		}
	case 1:
		for i := range out {
			out[i] = values[0]
		}
	case n:
		copy(out, values)
	default:
		return nil, fmt.Errorf("%w: got %d parameter entries for %d options", ErrConfig, len(values), n)
	}
	return out, nil
}
