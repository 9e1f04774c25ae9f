package main

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"

	gym "github.com/AllenNeuralDynamics/aind-behavior-gym/pkg/behaviorgym"
)

// loadRunRequest reads a run config from a JSON or YAML file. YAML is a
// superset of JSON here, so a single decode path covers both.
func loadRunRequest(path string) (gym.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return gym.RunRequest{}, err
	}
	var req gym.RunRequest
	if err := yaml.UnmarshalStrict(data, &req); err != nil {
		return gym.RunRequest{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return req, nil
}

func loadBatchRequest(path string) (gym.BatchRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return gym.BatchRequest{}, err
	}
	var req gym.BatchRequest
	if err := yaml.UnmarshalStrict(data, &req); err != nil {
		return gym.BatchRequest{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if req.Episodes <= 0 {
		return gym.BatchRequest{}, fmt.Errorf("%s: episodes must be positive", path)
	}
	return req, nil
}

// mergeRunRequest starts from the config file and lets explicitly set
// command-line flags win.
func mergeRunRequest(fromConfig, fromFlags gym.RunRequest, setFlags map[string]bool) gym.RunRequest {
	merged := fromConfig
	if setFlags["task"] {
		merged.Task = fromFlags.Task
	}
	if setFlags["trials"] {
		merged.NumTrials = fromFlags.NumTrials
	}
	if setFlags["options"] {
		merged.NumOptions = fromFlags.NumOptions
	}
	if setFlags["allow-ignore"] {
		merged.AllowIgnore = fromFlags.AllowIgnore
	}
	if setFlags["baiting"] {
		merged.Baiting = fromFlags.Baiting
	}
	if setFlags["block-len"] {
		merged.BlockLen = fromFlags.BlockLen
	}
	if setFlags["seed"] {
		merged.Seed = fromFlags.Seed
	}
	if setFlags["agent"] {
		merged.Agent = fromFlags.Agent
	}
	if setFlags["epsilon"] {
		merged.Epsilon = fromFlags.Epsilon
	}
	if setFlags["learning-rate"] {
		merged.LearningRate = fromFlags.LearningRate
	}
	return merged
}
