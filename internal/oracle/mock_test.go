package oracle

import "context"

// mockLLM returns a canned response and records the last prompt.
type mockLLM struct {
	response   string
	err        error
	lastPrompt string
	calls      int
}

func (m *mockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.calls++
	m.lastPrompt = prompt
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

// mockEmbedder maps exact input text to a fixed vector and counts calls.
type mockEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.vectors[text], nil
}
