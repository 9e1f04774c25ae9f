package stats

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/AllenNeuralDynamics/aind-behavior-gym/internal/session"
)

const sessionIndexFile = "session_index.json"

// IndexEntry is one line of the session index kept at the artifacts root.
type IndexEntry struct {
	SessionID    string  `json:"session_id"`
	Task         string  `json:"task"`
	Seed         int64   `json:"seed"`
	NumTrials    int     `json:"num_trials"`
	TotalReward  float64 `json:"total_reward"`
	CreatedAtUTC string  `json:"created_at_utc"`
}

// WriteSessionArtifacts writes one directory per session under baseDir:
// trials.csv with the full per-trial log and summary.json with the derived
// statistics. Returns the session directory.
func WriteSessionArtifacts(baseDir string, s session.Session, numActions int) (string, error) {
	if s.ID == "" {
		return "", fmt.Errorf("session id is required")
	}

	dir := filepath.Join(baseDir, s.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	if err := writeTrialsCSV(filepath.Join(dir, "trials.csv"), s); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(dir, "summary.json"), Summarize(s, numActions)); err != nil {
		return "", err
	}
	if err := AppendSessionIndex(baseDir, IndexEntry{
		SessionID:    s.ID,
		Task:         s.Task,
		Seed:         s.Seed,
		NumTrials:    len(s.Trials),
		TotalReward:  s.TotalReward,
		CreatedAtUTC: s.CreatedAtUTC,
	}); err != nil {
		return "", err
	}
	return dir, nil
}

// AppendSessionIndex upserts an entry into the index, keyed by session id.
func AppendSessionIndex(baseDir string, entry IndexEntry) error {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	entries, err := ListSessionIndex(baseDir)
	if err != nil {
		return err
	}
	replaced := false
	for i := range entries {
		if entries[i].SessionID == entry.SessionID {
			entries[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, entry)
	}
	return writeJSON(filepath.Join(baseDir, sessionIndexFile), entries)
}

// ListSessionIndex reads the index; a missing file is an empty index.
func ListSessionIndex(baseDir string) ([]IndexEntry, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, sessionIndexFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var entries []IndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", sessionIndexFile, err)
	}
	return entries, nil
}

// ReadSummary loads the summary.json of one session directory.
func ReadSummary(baseDir, sessionID string) (Summary, bool, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, sessionID, "summary.json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Summary{}, false, nil
		}
		return Summary{}, false, err
	}
	var summary Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return Summary{}, false, err
	}
	return summary, true, nil
}

func writeTrialsCSV(path string, s session.Session) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	numOptions := 0
	if len(s.Trials) > 0 {
		numOptions = len(s.Trials[0].PReward)
	}

	header := []string{"trial", "action", "reward"}
	for i := 0; i < numOptions; i++ {
		header = append(header, "p_reward_"+strconv.Itoa(i))
	}
	for i := 0; i < numOptions; i++ {
		header = append(header, "p_effective_"+strconv.Itoa(i))
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, tr := range s.Trials {
		row := []string{
			strconv.Itoa(tr.Trial),
			strconv.Itoa(tr.Action),
			strconv.FormatFloat(tr.Reward, 'g', -1, 64),
		}
		for i := 0; i < numOptions; i++ {
			row = append(row, formatProb(tr.PReward, i))
		}
		for i := 0; i < numOptions; i++ {
			row = append(row, formatProb(tr.Effective, i))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func formatProb(probs []float64, i int) string {
	if i >= len(probs) {
		return ""
	}
	return strconv.FormatFloat(probs[i], 'g', -1, 64)
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
