// Package generationtest provides a scripted Generator for tests.
package generationtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Rule answers any prompt containing Contains with Text, or fails with Err.
type Rule struct {
	Contains string
	Text     string
	Err      error
}

// Stub is a Generator whose answers come from a function. It records every
// prompt it receives and is safe for concurrent use.
type Stub struct {
	respond func(prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

func New(respond func(prompt string) (string, error)) *Stub {
	return &Stub{respond: respond}
}

// Fixed answers every prompt with text.
func Fixed(text string) *Stub {
	return New(func(string) (string, error) { return text, nil })
}

// Failing fails every call with err.
func Failing(err error) *Stub {
	return New(func(string) (string, error) { return "", err })
}

// Rules answers with the first rule whose Contains appears in the prompt.
// A prompt matching no rule is an error.
func Rules(rules ...Rule) *Stub {
	return New(func(prompt string) (string, error) {
		for _, r := range rules {
			if strings.Contains(prompt, r.Contains) {
				if r.Err != nil {
					return "", r.Err
				}
				return r.Text, nil
			}
		}
		return "", fmt.Errorf("generationtest: no rule matches prompt %.60q", prompt)
	})
}

func (s *Stub) Generate(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.respond(prompt)
}

// Calls returns how many prompts the stub has received.
func (s *Stub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

// Prompts returns a copy of every prompt received, in order.
func (s *Stub) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.prompts))
	copy(out, s.prompts)
	return out
}

// CallsContaining counts prompts that contain substr.
func (s *Stub) CallsContaining(substr string) int {
	n := 0
	for _, p := range s.Prompts() {
		if strings.Contains(p, substr) {
			n++
		}
	}
	return n
}
