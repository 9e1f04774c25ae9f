package behaviorgym

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AllenNeuralDynamics/aind-behavior-gym/internal/stats"
	"github.com/AllenNeuralDynamics/aind-behavior-gym/internal/task"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(Options{
		StoreKind:  "memory",
		ExportsDir: filepath.Join(t.TempDir(), "exports"),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func TestClientRunPersistsAndExports(t *testing.T) {
	client := newTestClient(t)

	summary, err := client.Run(context.Background(), RunRequest{
		Task:      task.CoupledBlockName,
		NumTrials: 50,
		Seed:      42,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.SessionID == "" {
		t.Fatal("expected a session id")
	}
	if summary.NumTrials != 50 {
		t.Fatalf("num trials = %d, want 50", summary.NumTrials)
	}
	if summary.Task != task.CoupledBlockName {
		t.Fatalf("task = %q", summary.Task)
	}

	listed, err := client.Sessions(context.Background())
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if len(listed) != 1 || listed[0].SessionID != summary.SessionID {
		t.Fatalf("sessions = %+v", listed)
	}

	exported, err := client.Export(context.Background(), summary.SessionID)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if _, err := os.Stat(filepath.Join(exported.Directory, "trials.csv")); err != nil {
		t.Fatalf("trials.csv missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(exported.Directory, "summary.json")); err != nil {
		t.Fatalf("summary.json missing: %v", err)
	}
}

func TestClientRunIsReproducible(t *testing.T) {
	client := newTestClient(t)

	req := RunRequest{
		Task:      task.UncoupledBaitingName,
		NumTrials: 200,
		Seed:      7,
		Agent:     AgentQLearner,
	}
	first, err := client.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := client.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first.TotalReward != second.TotalReward {
		t.Fatalf("total reward diverged: %v vs %v", first.TotalReward, second.TotalReward)
	}
}

func TestClientRunBatch(t *testing.T) {
	client := newTestClient(t)

	summary, err := client.RunBatch(context.Background(), BatchRequest{
		Run: RunRequest{
			Task:      task.RandomWalkName,
			NumTrials: 30,
			Seed:      100,
		},
		Episodes: 4,
		Workers:  2,
	})
	if err != nil {
		t.Fatalf("run batch: %v", err)
	}
	if len(summary.Completed) != 4 {
		t.Fatalf("completed = %d, want 4", len(summary.Completed))
	}
	if len(summary.Failed) != 0 {
		t.Fatalf("failed = %+v", summary.Failed)
	}

	listed, err := client.Sessions(context.Background())
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if len(listed) != 4 {
		t.Fatalf("stored sessions = %d, want 4", len(listed))
	}
}

func TestClientBiasedIgnoreNeedsIgnoreAction(t *testing.T) {
	client := newTestClient(t)

	_, err := client.Run(context.Background(), RunRequest{
		Task:      task.CoupledBlockName,
		NumTrials: 10,
		Seed:      1,
		Agent:     AgentBiasedIgnore,
	})
	if err == nil {
		t.Fatal("expected an error without ignore enabled")
	}

	summary, err := client.Run(context.Background(), RunRequest{
		Task:        task.CoupledBlockName,
		NumTrials:   10,
		Seed:        1,
		Agent:       AgentBiasedIgnore,
		AllowIgnore: true,
	})
	if err != nil {
		t.Fatalf("run with ignore: %v", err)
	}
	if summary.NumTrials != 10 {
		t.Fatalf("num trials = %d", summary.NumTrials)
	}
}

func TestClientExportCountsIgnoreAction(t *testing.T) {
	exportsDir := filepath.Join(t.TempDir(), "exports")
	client, err := New(Options{StoreKind: "memory", ExportsDir: exportsDir})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})

	summary, err := client.Run(context.Background(), RunRequest{
		Task:        task.CoupledBlockName,
		NumTrials:   200,
		Seed:        11,
		Agent:       AgentBiasedIgnore,
		AllowIgnore: true,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := client.Export(context.Background(), summary.SessionID); err != nil {
		t.Fatalf("export: %v", err)
	}

	exported, ok, err := stats.ReadSummary(exportsDir, summary.SessionID)
	if err != nil || !ok {
		t.Fatalf("read summary: ok=%v err=%v", ok, err)
	}
	if len(exported.ChoiceFraction) != 3 {
		t.Fatalf("choice fraction length = %d, want 3 with ignore", len(exported.ChoiceFraction))
	}
	sum := 0.0
	for _, f := range exported.ChoiceFraction {
		sum += f
	}
	if sum < 0.999 || sum > 1.001 {
		t.Fatalf("choice fractions sum to %g, lost trials", sum)
	}
}

func TestClientRejectsUnknownAgentAndTask(t *testing.T) {
	client := newTestClient(t)

	if _, err := client.Run(context.Background(), RunRequest{
		Task:      task.CoupledBlockName,
		NumTrials: 5,
		Seed:      1,
		Agent:     "oracle",
	}); err == nil || !strings.Contains(err.Error(), "unknown agent") {
		t.Fatalf("err = %v", err)
	}

	if _, err := client.Run(context.Background(), RunRequest{
		Task:      "no-such-task",
		NumTrials: 5,
		Seed:      1,
	}); err == nil {
		t.Fatal("expected an error for an unknown task")
	}
}

func TestClientTasks(t *testing.T) {
	client := newTestClient(t)

	names := client.Tasks()
	want := map[string]bool{
		task.CoupledBlockName:     false,
		task.UncoupledBaitingName: false,
		task.RandomWalkName:       false,
	}
	for _, name := range names {
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Fatalf("task %q not listed", name)
		}
	}
}

func TestClientExportUnknownSession(t *testing.T) {
	client := newTestClient(t)

	if _, err := client.Export(context.Background(), "missing"); err == nil {
		t.Fatal("expected an error for a missing session")
	}
}
