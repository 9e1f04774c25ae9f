package env

import "errors"

var (
	// ErrConfig marks construction with parameters that cannot form a
	// valid environment.
	ErrConfig = errors.New("invalid environment configuration")

	// ErrNotReady is returned when Step is called before Reset.
	ErrNotReady = errors.New("environment is not ready")

	// ErrTerminated is returned when Step is called after the episode
	// ended; the environment must be Reset first.
	ErrTerminated = errors.New("episode is terminated")

	// ErrInvalidAction is returned for actions outside the declared
	// option set. The environment state is unchanged afterwards.
	ErrInvalidAction = errors.New("action outside the declared option set")
)
