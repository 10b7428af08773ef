package creds

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Credentials are handed verbatim to the subtitle service. PasswordHash is
// the hex MD5 digest the legacy API expects in place of the password.
type Credentials struct {
	Username     string
	PasswordHash string
}

func (c Credentials) complete() bool {
	return c.Username != "" && c.PasswordHash != ""
}

// Prompter is the subset of user interaction the store needs.
type Prompter interface {
	Input(ctx context.Context, message, initial string) (string, error)
	Password(ctx context.Context, message string) (string, error)
	Toggle(ctx context.Context, message string, initial bool, active, inactive string) (bool, error)
}

// Store loads credentials from Path, falling back to asking the user.
type Store struct {
	Path   string
	Prompt Prompter
	Log    logrus.FieldLogger
}

// HashPassword returns the hex MD5 digest of password.
func HashPassword(password string) string {
	sum := md5.Sum([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Load returns saved credentials when the file holds a complete pair.
// Otherwise it asks for username and password and, unless the user asked
// never to be bothered again, whether to save them.
func (s *Store) Load(ctx context.Context) (Credentials, error) {
	state, err := ReadState(s.Path)
	if err != nil {
		return Credentials{}, err
	}

	askSave := true
	switch st := state.(type) {
	case Credentials:
		if st.complete() {
			s.logger().WithField("path", s.Path).Debug("using saved credentials")
			return st, nil
		}
	case DoNotAsk:
		askSave = false
	case AskAgain, nil:
	default:
		return Credentials{}, fmt.Errorf("unsupported credentials state %T", state)
	}

	username, err := s.Prompt.Input(ctx, "Username", "")
	if err != nil {
		return Credentials{}, err
	}
	password, err := s.Prompt.Password(ctx, "Password")
	if err != nil {
		return Credentials{}, err
	}
	creds := Credentials{Username: username, PasswordHash: HashPassword(password)}

	if !askSave {
		return creds, nil
	}

	save, err := s.Prompt.Toggle(ctx, fmt.Sprintf("Save credentials in %s?", s.Path), false, "Yes", "No, and don't ask again")
	if err != nil {
		return Credentials{}, err
	}
	var next State = DoNotAsk{}
	if save {
		next = creds
	}
	if err := WriteState(s.Path, next); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

func (s *Store) logger() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}
