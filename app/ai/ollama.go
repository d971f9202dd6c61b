package ai

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// OllamaClient runs a local model through the ollama CLI. The prompt is
// written to stdin and the process is killed when the context deadline
// expires, so a hung model never blocks a scan past its timeout.
type OllamaClient struct {
	model string
}

func NewOllamaClient(model string) *OllamaClient {
	return &OllamaClient{model: model}
}

func (c *OllamaClient) Complete(ctx context.Context, prompt string) (string, error) {
	cmd := exec.CommandContext(ctx, "ollama", "run", c.model)
	cmd.Stdin = strings.NewReader(prompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() != nil {
		return "", fmt.Errorf("ollama timed out: %w", ctx.Err())
	}
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("ollama failed: %s", msg)
	}

	response := cleanResponse(stdout.String())
	slog.Debug("Ollama completion finished", "model", c.model, "response_length", len(response))

	return response, nil
}

// cleanResponse drops the interactive prompt echo lines the ollama CLI
// emits alongside the actual completion.
func cleanResponse(response string) string {
	lines := strings.Split(strings.TrimSpace(response), "\n")
	cleaned := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ">>>") || strings.HasPrefix(line, "...") {
			continue
		}
		cleaned = append(cleaned, line)
	}

	return strings.Join(cleaned, "\n")
}
