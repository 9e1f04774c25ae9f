package env

import "fmt"

// HistoryWindow wraps a Bandit and exposes the recent choice/reward history
// as a flat observation vector, most recent pair first, zero-padded to a
// fixed window. Intended for value-network agents that need a state richer
// than the trial index.
type HistoryWindow struct {
	bandit *Bandit
	window int

	history [][2]float64
}

func NewHistoryWindow(bandit *Bandit, window int) (*HistoryWindow, error) {
	if bandit == nil {
		return nil, fmt.Errorf("%w: bandit is required", ErrConfig)
	}
	if window < 1 {
		return nil, fmt.Errorf("%w: history window %d must be at least 1", ErrConfig, window)
	}
	return &HistoryWindow{bandit: bandit, window: window}, nil
}

func (w *HistoryWindow) Window() int     { return w.window }
func (w *HistoryWindow) Bandit() *Bandit { return w.bandit }

// Reset resets the wrapped environment and clears the history.
func (w *HistoryWindow) Reset(seed int64) ([]float64, Info, error) {
	_, info, err := w.bandit.Reset(seed)
	if err != nil {
		return nil, Info{}, err
	}
	w.history = w.history[:0]
	return w.State(), info, nil
}

// Step forwards to the wrapped environment and records the (action, reward)
// pair on success.
func (w *HistoryWindow) Step(action int) ([]float64, StepResult, error) {
	res, err := w.bandit.Step(action)
	if err != nil {
		return nil, StepResult{}, err
	}
	w.history = append(w.history, [2]float64{float64(action), res.Reward})
	return w.State(), res, nil
}

// State flattens the last Window (action, reward) pairs, newest first.
func (w *HistoryWindow) State() []float64 {
	out := make([]float64, 2*w.window)
	for i := 0; i < w.window && i < len(w.history); i++ {
		pair := w.history[len(w.history)-1-i]
		out[2*i] = pair[0]
		out[2*i+1] = pair[1]
	}
	return out
}
