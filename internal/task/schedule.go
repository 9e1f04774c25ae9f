// Package task implements the reward-generating processes of dynamic
// foraging tasks. A Schedule owns the per-option reward probabilities and
// evolves them across trials; the environment resolves rewards through it
// and never draws randomness on its own.
package task

import (
	"errors"
	"fmt"
	"sort"

	"golang.org/x/exp/maps"

	"github.com/AllenNeuralDynamics/aind-behavior-gym/internal/rng"
)

// ErrConfig marks a schedule configuration that cannot produce a valid task.
var ErrConfig = errors.New("invalid schedule configuration")

// Schedule is the reward-generating process behind a bandit environment.
// Init must be called with a seeded source before any other method; all
// randomness is drawn from that source.
type Schedule interface {
	Name() string
	NumOptions() int

	Init(src *rng.Source) error

	// Trial is the index of the current trial, starting at 0.
	Trial() int

	// PReward returns a copy of the current base reward probabilities.
	PReward() []float64

	// Effective returns a copy of the probabilities actually used for
	// reward resolution (base probabilities compounded by baiting).
	Effective() []float64

	// ResolveReward decides whether choosing the given option delivers a
	// reward on the current trial.
	ResolveReward(chosen int) (float64, error)

	// Advance applies post-trial dynamics and moves to the next trial.
	// chosen may be -1 when the agent ignored the trial.
	Advance(chosen int, rewarded bool) error
}

// Config carries the recognized options for every schedule kind; each
// builder reads the fields it understands and validates them.
type Config struct {
	NumOptions int

	// Block structure (coupled-block and uncoupled-baiting). BlockLen > 0
	// selects fixed-length blocks; otherwise lengths are drawn from a
	// truncated exponential on [BlockMin, BlockMax] with scale BlockBeta.
	BlockLen  int
	BlockMin  int
	BlockMax  int
	BlockBeta float64

	// PRewardPairs is the family of probability sets for the coupled-block
	// schedule; each entry is sorted rich-to-lean and assigned to sides at
	// block switches.
	PRewardPairs [][]float64

	// PRewardSet is the pool of per-option base probabilities for the
	// uncoupled-baiting schedule.
	PRewardSet []float64

	// Random-walk parameters, one entry per option (or a single entry
	// applied to all).
	PMin  []float64
	PMax  []float64
	Sigma []float64
	Mean  []float64

	// Baiting compounds the effective probability of options that go
	// uncollected, capped at 1.
	Baiting bool
}

type Builder func(cfg Config) (Schedule, error)

var builders = map[string]Builder{}

func Register(name string, b Builder) {
	if _, dup := builders[name]; dup {
		panic(fmt.Sprintf("task: duplicate schedule %q", name))
	}
	builders[name] = b
}

func New(name string, cfg Config) (Schedule, error) {
	b, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown schedule %q", ErrConfig, name)
	}
	return b(cfg)
}

func Names() []string {
	names := maps.Keys(builders)
	sort.Strings(names)
	return names
}

func clamp01(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

func clamp(p, lo, hi float64) float64 {
	if p < lo {
		return lo
	}
	if p > hi {
		return hi
	}
	return p
}

// baiting tracks the effective reward probabilities. With baiting disabled
// the effective probabilities mirror the base ones; enabled, an option that
// was not collected this trial compounds p <- p + (1-p)*base toward 1, and
// a collected option drops back to base.
type baiting struct {
	enabled bool
	eff     []float64
}

func (b *baiting) reset(base []float64) {
	b.eff = append(b.eff[:0], base...)
}

func (b *baiting) advance(chosen int, rewarded bool, base []float64) {
	if !b.enabled {
		b.reset(base)
		return
	}
	for i := range base {
		if i == chosen && rewarded {
			b.eff[i] = base[i]
			continue
		}
		b.eff[i] = clamp01(b.eff[i] + (1-b.eff[i])*base[i])
	}
}

func (b *baiting) snapshot() []float64 {
	out := make([]float64, len(b.eff))
	copy(out, b.eff)
	return out
}

// blockClock decides block boundaries. Boundaries depend only on the trial
// index and the draws made at switch time, never on reward outcomes, so the
// switch cadence is reproducible for a fixed seed.
type blockClock struct {
	fixedLen int
	min, max int
	beta     float64

	nextSwitch int
	starts     []int
}

func (c *blockClock) start(src *rng.Source) error {
	c.starts = append(c.starts[:0], 0)
	length, err := c.drawLen(src)
	if err != nil {
		return err
	}
	c.nextSwitch = length
	return nil
}

// due reports whether the given trial opens a new block and advances the
// clock when it does.
func (c *blockClock) due(trial int, src *rng.Source) (bool, error) {
	if trial < c.nextSwitch {
		return false, nil
	}
	length, err := c.drawLen(src)
	if err != nil {
		return false, err
	}
	c.starts = append(c.starts, trial)
	c.nextSwitch = trial + length
	return true, nil
}

func (c *blockClock) drawLen(src *rng.Source) (int, error) {
	if c.fixedLen > 0 {
		return c.fixedLen, nil
	}
	x, err := src.TruncExp(c.beta, float64(c.min), float64(c.max))
	if err != nil {
		return 0, err
	}
	return int(x), nil
}

func validateBlockConfig(cfg Config) error {
	if cfg.BlockLen < 0 {
		return fmt.Errorf("%w: block length %d is negative", ErrConfig, cfg.BlockLen)
	}
	if cfg.BlockLen > 0 {
		return nil
	}
	if cfg.BlockMin < 1 {
		return fmt.Errorf("%w: minimum block length %d must be at least 1", ErrConfig, cfg.BlockMin)
	}
	if cfg.BlockMax < cfg.BlockMin {
		return fmt.Errorf("%w: block length bounds [%d, %d] are inverted", ErrConfig, cfg.BlockMin, cfg.BlockMax)
	}
	return nil
}

func checkChosen(chosen, numOptions int) error {
	if chosen < 0 || chosen >= numOptions {
		return fmt.Errorf("option %d outside [0, %d)", chosen, numOptions)
	}
	return nil
}
