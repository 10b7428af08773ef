package creds

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/gofrs/flock"
)

// State is what the credentials file holds: Credentials, DoNotAsk or
// AskAgain. A nil State means the file is missing or unusable.
type State interface {
	isState()
}

// DoNotAsk records that the user declined to save credentials and should not
// be asked again.
type DoNotAsk struct{}

// AskAgain records that the user wants the save question on the next run.
type AskAgain struct{}

func (Credentials) isState() {}
func (DoNotAsk) isState()    {}
func (AskAgain) isState()    {}

type fileContent struct {
	Username         *string `json:"username,omitempty"`
	PasswordHash     *string `json:"passwordHash,omitempty"`
	ShouldAskForSave *bool   `json:"shouldAskForSave,omitempty"`
}

// ReadState loads the persisted state from path. A missing file or any shape
// other than the three known variants yields a nil State.
func ReadState(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	return decodeState(data), nil
}

func decodeState(data []byte) State {
	var content fileContent
	if err := json.Unmarshal(data, &content); err != nil {
		return nil
	}
	if content.Username != nil && content.PasswordHash != nil {
		return Credentials{Username: *content.Username, PasswordHash: *content.PasswordHash}
	}
	if content.ShouldAskForSave != nil {
		if *content.ShouldAskForSave {
			return AskAgain{}
		}
		return DoNotAsk{}
	}
	return nil
}

// WriteState replaces the credentials file with state while holding an
// exclusive lock on it.
func WriteState(path string, state State) error {
	var content fileContent
	switch s := state.(type) {
	case Credentials:
		content.Username = &s.Username
		content.PasswordHash = &s.PasswordHash
	case DoNotAsk:
		ask := false
		content.ShouldAskForSave = &ask
	case AskAgain:
		ask := true
		content.ShouldAskForSave = &ask
	default:
		return fmt.Errorf("write credentials file: unsupported state %T", state)
	}

	data, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	lock := flock.New(path)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock credentials file: %w", err)
	}
	defer lock.Unlock()

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write credentials file: %w", err)
	}
	return nil
}
