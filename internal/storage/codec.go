package storage

import (
	"encoding/json"

	"github.com/AllenNeuralDynamics/aind-behavior-gym/internal/session"
)

func EncodeSession(s session.Session) ([]byte, error) {
	return json.Marshal(s)
}

func DecodeSession(data []byte) (session.Session, error) {
	var s session.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return session.Session{}, err
	}
	return s, nil
}
