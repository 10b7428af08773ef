// Package prompttest provides a scripted prompt.Prompter for tests.
package prompttest

import (
	"context"
	"fmt"
)

// Call records one question asked through the Fake.
type Call struct {
	Kind    string
	Message string
	Items   []string
}

// Fake answers prompts from pre-recorded queues. A question with no queued
// answer fails with an error naming it. When Err is set every question
// returns it.
type Fake struct {
	Selects      []int
	MultiSelects [][]int
	Inputs       []string
	Passwords    []string
	Toggles      []bool
	Err          error

	Calls []Call
}

// Asked reports how many questions of the given kind were asked.
func (f *Fake) Asked(kind string) int {
	n := 0
	for _, c := range f.Calls {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

func (f *Fake) record(kind, message string, items []string) error {
	f.Calls = append(f.Calls, Call{Kind: kind, Message: message, Items: items})
	return f.Err
}

func unexpected(kind, message string) error {
	return fmt.Errorf("prompttest: unexpected %s %q", kind, message)
}

func (f *Fake) Select(_ context.Context, message string, items []string) (int, error) {
	if err := f.record("select", message, items); err != nil {
		return 0, err
	}
	if len(f.Selects) == 0 {
		return 0, unexpected("select", message)
	}
	answer := f.Selects[0]
	f.Selects = f.Selects[1:]
	return answer, nil
}

func (f *Fake) MultiSelect(_ context.Context, message string, items []string) ([]int, error) {
	if err := f.record("multiselect", message, items); err != nil {
		return nil, err
	}
	if len(f.MultiSelects) == 0 {
		return nil, unexpected("multiselect", message)
	}
	answer := f.MultiSelects[0]
	f.MultiSelects = f.MultiSelects[1:]
	return answer, nil
}

func (f *Fake) Input(_ context.Context, message, initial string) (string, error) {
	if err := f.record("input", message, nil); err != nil {
		return "", err
	}
	if len(f.Inputs) == 0 {
		return "", unexpected("input", message)
	}
	answer := f.Inputs[0]
	f.Inputs = f.Inputs[1:]
	if answer == "" {
		return initial, nil
	}
	return answer, nil
}

func (f *Fake) Password(_ context.Context, message string) (string, error) {
	if err := f.record("password", message, nil); err != nil {
		return "", err
	}
	if len(f.Passwords) == 0 {
		return "", unexpected("password", message)
	}
	answer := f.Passwords[0]
	f.Passwords = f.Passwords[1:]
	return answer, nil
}

func (f *Fake) Toggle(_ context.Context, message string, _ bool, _, _ string) (bool, error) {
	if err := f.record("toggle", message, nil); err != nil {
		return false, err
	}
	if len(f.Toggles) == 0 {
		return false, unexpected("toggle", message)
	}
	answer := f.Toggles[0]
	f.Toggles = f.Toggles[1:]
	return answer, nil
}
