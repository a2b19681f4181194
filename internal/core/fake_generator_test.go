package core

import "context"

// fakeGenerator scripts model replies for tests and records every prompt it
// receives.
type fakeGenerator struct {
	replies []string
	err     error
	calls   [][]PromptMessage
}

func (f *fakeGenerator) Generate(ctx context.Context, messages []PromptMessage) (string, error) {
	prompt := make([]PromptMessage, len(messages))
	copy(prompt, messages)
	f.calls = append(f.calls, prompt)

	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "ok", nil
	}
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return reply, nil
}
