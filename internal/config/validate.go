package config

import (
	"fmt"
)

var knownBackends = map[string]bool{
	"":          true, // no external backend; cascade starts at phrase match
	"openai":    true,
	"gemini":    true,
	"ollama":    true,
	"embedding": true,
	"onnx":      true,
}

// Validate rejects administrative misconfiguration synchronously, before
// anything is initialized. The classification path itself never fails hard.
func (c *Config) Validate() error {
	if c.Threshold < 0 || c.Threshold > 100 {
		return fmt.Errorf("threshold must be within [0,100], got %v", c.Threshold)
	}
	if !knownBackends[c.Backend.Active] {
		return fmt.Errorf("unknown backend %q (expected openai, gemini, ollama, embedding or onnx)", c.Backend.Active)
	}
	if c.Backend.AcceptThreshold < 0 || c.Backend.AcceptThreshold > 100 {
		return fmt.Errorf("backend accept_threshold must be within [0,100], got %v", c.Backend.AcceptThreshold)
	}
	if c.Backend.MaxRetries < 1 {
		return fmt.Errorf("backend max_retries must be at least 1, got %d", c.Backend.MaxRetries)
	}
	if c.Paths.Database == "" {
		return fmt.Errorf("paths.database cannot be empty")
	}
	return nil
}
