// Package behaviorgym is the public facade over the task environments,
// session runner, storage, and artifact export.
package behaviorgym

import (
	"context"
	"fmt"

	"github.com/AllenNeuralDynamics/aind-behavior-gym/internal/agent"
	"github.com/AllenNeuralDynamics/aind-behavior-gym/internal/env"
	"github.com/AllenNeuralDynamics/aind-behavior-gym/internal/session"
	"github.com/AllenNeuralDynamics/aind-behavior-gym/internal/stats"
	"github.com/AllenNeuralDynamics/aind-behavior-gym/internal/storage"
	"github.com/AllenNeuralDynamics/aind-behavior-gym/internal/task"
)

const (
	defaultExportsDir = "exports"
	defaultDBPath     = "behavior.db"

	AgentRandom       = "random"
	AgentBiasedIgnore = "biased-ignore"
	AgentQLearner     = "q-learner"
)

type Options struct {
	StoreKind  string
	DBPath     string
	ExportsDir string
}

type Client struct {
	store      storage.Store
	exportsDir string
}

// RunRequest configures one session. Zero values fall back to the task
// defaults; AgentSeed 0 derives from Seed.
type RunRequest struct {
	Task        string  `json:"task"`
	NumOptions  int     `json:"num_options,omitempty"`
	NumTrials   int     `json:"num_trials"`
	AllowIgnore bool    `json:"allow_ignore,omitempty"`
	Baiting     bool    `json:"baiting,omitempty"`
	BlockLen    int     `json:"block_len,omitempty"`
	BlockMin    int     `json:"block_min,omitempty"`
	BlockMax    int     `json:"block_max,omitempty"`
	BlockBeta   float64 `json:"block_beta,omitempty"`
	Seed        int64   `json:"seed"`

	PRewardPairs [][]float64 `json:"p_reward_pairs,omitempty"`
	PRewardSet   []float64   `json:"p_reward_set,omitempty"`
	PMin         []float64   `json:"p_min,omitempty"`
	PMax         []float64   `json:"p_max,omitempty"`
	Sigma        []float64   `json:"sigma,omitempty"`
	Mean         []float64   `json:"mean,omitempty"`

	Agent        string  `json:"agent,omitempty"`
	AgentSeed    int64   `json:"agent_seed,omitempty"`
	Epsilon      float64 `json:"epsilon,omitempty"`
	LearningRate float64 `json:"learning_rate,omitempty"`
}

// BatchRequest runs Episodes independent sessions. Seeds, when set, must
// list one seed per episode; otherwise episode i uses Seed+i.
type BatchRequest struct {
	Run      RunRequest `json:"run"`
	Episodes int        `json:"episodes"`
	Seeds    []int64    `json:"seeds,omitempty"`
	Workers  int        `json:"workers,omitempty"`
}

type RunSummary struct {
	SessionID   string
	Task        string
	Seed        int64
	NumTrials   int
	TotalReward float64
	RewardRate  float64
}

type BatchSummary struct {
	Completed []RunSummary
	Failed    []session.EpisodeError
}

type ExportSummary struct {
	SessionID string
	Directory string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(context.Background()); err != nil {
		return nil, err
	}

	return &Client{store: store, exportsDir: exportsDir}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Tasks lists the registered schedule names.
func (c *Client) Tasks() []string {
	return task.Names()
}

// Run executes one session and persists it.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	b, err := buildEnv(req)
	if err != nil {
		return RunSummary{}, err
	}
	a, err := buildAgent(req, b.NumActions(), agentSeed(req, req.Seed))
	if err != nil {
		return RunSummary{}, err
	}

	s, err := session.Runner{Env: b, Agent: a, Seed: req.Seed}.Run(ctx)
	if err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveSession(ctx, s); err != nil {
		return RunSummary{}, fmt.Errorf("save session: %w", err)
	}
	return summarize(s), nil
}

// RunBatch executes independent episodes, persisting every completed one.
// Failed episodes are reported in the summary, not as an error.
func (c *Client) RunBatch(ctx context.Context, req BatchRequest) (BatchSummary, error) {
	result, err := session.RunBatch(ctx, session.BatchConfig{
		Episodes: req.Episodes,
		BaseSeed: req.Run.Seed,
		Seeds:    req.Seeds,
		Workers:  req.Workers,
		BuildEnv: func() (*env.Bandit, error) {
			return buildEnv(req.Run)
		},
		BuildAgent: func(numActions int, seed int64) (agent.Agent, error) {
			return buildAgent(req.Run, numActions, agentSeed(req.Run, seed))
		},
	})
	if err != nil {
		return BatchSummary{}, err
	}

	var summary BatchSummary
	for _, s := range result.Completed() {
		if err := c.store.SaveSession(ctx, s); err != nil {
			return BatchSummary{}, fmt.Errorf("save session %s: %w", s.ID, err)
		}
		summary.Completed = append(summary.Completed, summarize(s))
	}
	summary.Failed = result.Errors
	return summary, nil
}

// Sessions lists persisted sessions, oldest first.
func (c *Client) Sessions(ctx context.Context) ([]RunSummary, error) {
	sessions, err := c.store.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RunSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, summarize(s))
	}
	return out, nil
}

// Export writes the trial table and summary of a stored session under the
// exports directory.
func (c *Client) Export(ctx context.Context, sessionID string) (ExportSummary, error) {
	s, ok, err := c.store.GetSession(ctx, sessionID)
	if err != nil {
		return ExportSummary{}, err
	}
	if !ok {
		return ExportSummary{}, fmt.Errorf("session %s not found", sessionID)
	}

	// Older records predate the stored action count; the probability
	// vector then covers every action (no ignore was recorded).
	numActions := s.NumActions
	if numActions == 0 && len(s.Trials) > 0 {
		numActions = len(s.Trials[0].PReward)
	}
	dir, err := stats.WriteSessionArtifacts(c.exportsDir, s, numActions)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{SessionID: sessionID, Directory: dir}, nil
}

func buildEnv(req RunRequest) (*env.Bandit, error) {
	taskName := req.Task
	if taskName == "" {
		taskName = task.CoupledBlockName
	}
	return env.New(env.Config{
		Task: taskName,
		Schedule: task.Config{
			NumOptions: req.NumOptions,
			BlockLen:   req.BlockLen,
			BlockMin:   req.BlockMin,
			BlockMax:   req.BlockMax,
			BlockBeta:  req.BlockBeta,
			Baiting:    req.Baiting,

			PRewardPairs: req.PRewardPairs,
			PRewardSet:   req.PRewardSet,
			PMin:         req.PMin,
			PMax:         req.PMax,
			Sigma:        req.Sigma,
			Mean:         req.Mean,
		},
		NumTrials:   req.NumTrials,
		AllowIgnore: req.AllowIgnore,
	})
}

func buildAgent(req RunRequest, numActions int, seed int64) (agent.Agent, error) {
	switch req.Agent {
	case "", AgentRandom:
		return agent.NewRandom(numActions, seed)
	case AgentBiasedIgnore:
		if numActions != 3 {
			return nil, fmt.Errorf("%s agent needs a 2-option task with ignore enabled", AgentBiasedIgnore)
		}
		return agent.NewBiasedIgnore(seed), nil
	case AgentQLearner:
		alpha := req.LearningRate
		if alpha == 0 {
			alpha = 0.1
		}
		epsilon := req.Epsilon
		if epsilon == 0 {
			epsilon = 0.1
		}
		return agent.NewEpsilonGreedyQ(numActions, alpha, epsilon, seed)
	default:
		return nil, fmt.Errorf("unknown agent: %s", req.Agent)
	}
}

// agentSeed keeps the agent's draw stream disjoint from the environment's.
func agentSeed(req RunRequest, envSeed int64) int64 {
	if req.AgentSeed != 0 {
		return req.AgentSeed
	}
	return envSeed + 1_000_003
}

func summarize(s session.Session) RunSummary {
	rate := 0.0
	if len(s.Trials) > 0 {
		rate = s.TotalReward / float64(len(s.Trials))
	}
	return RunSummary{
		SessionID:   s.ID,
		Task:        s.Task,
		Seed:        s.Seed,
		NumTrials:   len(s.Trials),
		TotalReward: s.TotalReward,
		RewardRate:  rate,
	}
}
