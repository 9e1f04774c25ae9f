package storage

import (
	"context"

	"github.com/AllenNeuralDynamics/aind-behavior-gym/internal/session"
)

// Store persists completed sessions for later analysis and export.
type Store interface {
	Init(ctx context.Context) error
	SaveSession(ctx context.Context, s session.Session) error
	GetSession(ctx context.Context, id string) (session.Session, bool, error)
	ListSessions(ctx context.Context) ([]session.Session, error)
	DeleteSession(ctx context.Context, id string) error
}
