package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/AllenNeuralDynamics/aind-behavior-gym/internal/storage"
	gym "github.com/AllenNeuralDynamics/aind-behavior-gym/pkg/behaviorgym"
)

const exportsDir = "exports"

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "batch":
		return runBatch(ctx, args[1:])
	case "tasks":
		return runTasks(ctx, args[1:])
	case "sessions":
		return runSessions(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "behavior.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.NewStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()

	if err := store.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "behavior.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.NewStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()

	if err := store.Init(ctx); err != nil {
		return err
	}
	sessions, err := store.ListSessions(ctx)
	if err != nil {
		return err
	}
	for _, s := range sessions {
		if err := store.DeleteSession(ctx, s.ID); err != nil {
			return err
		}
	}

	fmt.Printf("reset store=%s sessions_removed=%d\n", *storeKind, len(sessions))
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config path (JSON or YAML)")
	taskName := fs.String("task", "", "task name (see 'tasks')")
	numTrials := fs.Int("trials", 1000, "trial count per session")
	numOptions := fs.Int("options", 0, "option count (0 uses the task default)")
	allowIgnore := fs.Bool("allow-ignore", false, "expose an explicit ignore action")
	baiting := fs.Bool("baiting", false, "enable reward baiting")
	blockLen := fs.Int("block-len", 0, "fixed block length (0 uses random lengths)")
	seed := fs.Int64("seed", 1, "rng seed")
	agentName := fs.String("agent", gym.AgentRandom, "agent: random|biased-ignore|q-learner")
	epsilon := fs.Float64("epsilon", 0.0, "exploration rate for the q-learner")
	learningRate := fs.Float64("learning-rate", 0.0, "learning rate for the q-learner")
	export := fs.Bool("export", false, "write trial table and summary after the run")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "behavior.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	req := gym.RunRequest{
		Task:         *taskName,
		NumTrials:    *numTrials,
		NumOptions:   *numOptions,
		AllowIgnore:  *allowIgnore,
		Baiting:      *baiting,
		BlockLen:     *blockLen,
		Seed:         *seed,
		Agent:        *agentName,
		Epsilon:      *epsilon,
		LearningRate: *learningRate,
	}
	if *configPath != "" {
		loaded, err := loadRunRequest(*configPath)
		if err != nil {
			return err
		}
		req = mergeRunRequest(loaded, req, setFlags)
	}

	client, err := gym.New(gym.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPath,
		ExportsDir: exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}
	printRunSummary(summary)

	if *export {
		exported, err := client.Export(ctx, summary.SessionID)
		if err != nil {
			return err
		}
		fmt.Printf("exported dir=%s\n", exported.Directory)
	}
	return nil
}

func runBatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	configPath := fs.String("config", "", "batch config path (JSON or YAML)")
	episodes := fs.Int("episodes", 0, "episode count (overrides the config)")
	workers := fs.Int("workers", 0, "worker count (overrides the config)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "behavior.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *configPath == "" {
		return usageError("batch requires -config")
	}

	req, err := loadBatchRequest(*configPath)
	if err != nil {
		return err
	}
	if *episodes > 0 {
		req.Episodes = *episodes
	}
	if *workers > 0 {
		req.Workers = *workers
	}

	client, err := gym.New(gym.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPath,
		ExportsDir: exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.RunBatch(ctx, req)
	if err != nil {
		return err
	}
	for _, s := range summary.Completed {
		printRunSummary(s)
	}
	for _, f := range summary.Failed {
		fmt.Printf("episode=%d seed=%d failed: %v\n", f.Episode, f.Seed, f.Err)
	}
	fmt.Printf("batch completed=%d failed=%d\n", len(summary.Completed), len(summary.Failed))
	return nil
}

func runTasks(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("tasks", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := gym.New(gym.Options{StoreKind: "memory"})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	for _, name := range client.Tasks() {
		fmt.Println(name)
	}
	return nil
}

func runSessions(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sessions", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "behavior.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := gym.New(gym.Options{
		StoreKind: *storeKind,
		DBPath:    *dbPath,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	sessions, err := client.Sessions(ctx)
	if err != nil {
		return err
	}
	for _, s := range sessions {
		printRunSummary(s)
	}
	fmt.Printf("sessions total=%d\n", len(sessions))
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	sessionID := fs.String("session-id", "", "session id to export")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "behavior.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *sessionID == "" {
		return usageError("export requires -session-id")
	}

	client, err := gym.New(gym.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPath,
		ExportsDir: exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	exported, err := client.Export(ctx, *sessionID)
	if err != nil {
		return err
	}
	fmt.Printf("exported session=%s dir=%s\n", exported.SessionID, exported.Directory)
	return nil
}

func printRunSummary(s gym.RunSummary) {
	fmt.Printf("session=%s task=%s seed=%d trials=%s reward=%.1f rate=%.3f\n",
		s.SessionID, s.Task, s.Seed, humanize.Comma(int64(s.NumTrials)), s.TotalReward, s.RewardRate)
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: foragectl <init|reset|run|batch|tasks|sessions|export> [flags]", msg)
}
