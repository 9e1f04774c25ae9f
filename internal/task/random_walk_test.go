package task

import (
	"errors"
	"testing"

	"github.com/AllenNeuralDynamics/aind-behavior-gym/internal/rng"
)

func newWalk(t *testing.T, cfg Config, seed int64) *RandomWalk {
	t.Helper()
	s, err := NewRandomWalk(cfg)
	if err != nil {
		t.Fatalf("new random walk: %v", err)
	}
	if err := s.Init(rng.New(seed)); err != nil {
		t.Fatalf("init: %v", err)
	}
	return s
}

func TestRandomWalkRejectsBadConfig(t *testing.T) {
	cases := []Config{
		{NumOptions: 1},
		{Sigma: []float64{-0.1}},
		{PMin: []float64{0.9}, PMax: []float64{0.1}},
		{PMax: []float64{1.5}},
		{Sigma: []float64{0.1, 0.1, 0.1}},
	}
	for i, cfg := range cases {
		if _, err := NewRandomWalk(cfg); !errors.Is(err, ErrConfig) {
			t.Fatalf("case %d: expected ErrConfig, got %v", i, err)
		}
	}
}

func TestRandomWalkAbsorbsAtBounds(t *testing.T) {
	s := newWalk(t, Config{
		PMin:  []float64{0.1, 0.2},
		PMax:  []float64{0.9, 0.8},
		Sigma: []float64{0.3},
	}, 42)

	for i := 0; i < 2000; i++ {
		if err := s.Advance(i%2, false); err != nil {
			t.Fatalf("advance: %v", err)
		}
		p := s.PReward()
		if p[0] < 0.1 || p[0] > 0.9 {
			t.Fatalf("option 0 probability %g outside [0.1, 0.9]", p[0])
		}
		if p[1] < 0.2 || p[1] > 0.8 {
			t.Fatalf("option 1 probability %g outside [0.2, 0.8]", p[1])
		}
	}
}

func TestRandomWalkActuallyWalks(t *testing.T) {
	s := newWalk(t, Config{}, 7)

	start := s.PReward()
	moved := false
	for i := 0; i < 20 && !moved; i++ {
		if err := s.Advance(0, false); err != nil {
			t.Fatalf("advance: %v", err)
		}
		p := s.PReward()
		if p[0] != start[0] || p[1] != start[1] {
			moved = true
		}
	}
	if !moved {
		t.Fatal("probabilities never moved over 20 trials")
	}
}

func TestRandomWalkScalarParamsApplyToAllOptions(t *testing.T) {
	s, err := NewRandomWalk(Config{
		NumOptions: 4,
		Sigma:      []float64{0.05},
		PMin:       []float64{0.1},
		PMax:       []float64{0.9},
	})
	if err != nil {
		t.Fatalf("new random walk: %v", err)
	}
	if err := s.Init(rng.New(1)); err != nil {
		t.Fatalf("init: %v", err)
	}
	if got := s.NumOptions(); got != 4 {
		t.Fatalf("num options = %d, want 4", got)
	}
	for _, p := range s.PReward() {
		if p < 0.1 || p > 0.9 {
			t.Fatalf("initial probability %g outside [0.1, 0.9]", p)
		}
	}
}

func TestRandomWalkDeterministicForSeed(t *testing.T) {
	run := func() [][]float64 {
		s := newWalk(t, Config{}, 42)
		var probs [][]float64
		for i := 0; i < 200; i++ {
			probs = append(probs, s.PReward())
			if err := s.Advance(i%2, false); err != nil {
				t.Fatalf("advance: %v", err)
			}
		}
		return probs
	}

	p1 := run()
	p2 := run()
	for i := range p1 {
		for j := range p1[i] {
			if p1[i][j] != p2[i][j] {
				t.Fatalf("trial %d: probabilities diverged", i)
			}
		}
	}
}
