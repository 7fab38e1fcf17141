// Package advisory hosts the model-backed marketplace intelligence:
// price suggestions, buyer recommendations, voice search parsing and
// the multilingual assistant. Every operation degrades to a
// deterministic fallback when the model is unavailable or returns
// garbage, so the endpoints never fail because of the model.
package advisory

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"farm2market/gemini"
	"farm2market/store"
)

// Model generates text from a prompt. *gemini.Client satisfies it; a
// nil Model means every call goes straight to the fallback path.
type Model interface {
	Generate(ctx context.Context, prompt string, cfg gemini.GenerationConfig) (string, error)
}

// Service bundles the model with the entity store the fallbacks and
// catalogue joins read from.
type Service struct {
	Model Model
	Store *store.Store
}

func NewService(m Model, s *store.Store) *Service {
	return &Service{Model: m, Store: s}
}

// cleanJSON strips the markdown code fences the model tends to wrap
// JSON answers in.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// askJSON prompts the model up to attempts times and decodes the reply
// into out. Only model-call failures are retried; a reply that cannot
// be decoded, or that validate rejects, fails immediately so the
// caller's deterministic fallback takes over.
func askJSON(ctx context.Context, m Model, prompt string, cfg gemini.GenerationConfig, attempts int, out interface{}, validate func() error) error {
	if m == nil {
		return fmt.Errorf("no model configured")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		text, err := m.Generate(ctx, prompt, cfg)
		if err != nil {
			lastErr = err
			log.Printf("Model call failed (attempt %d/%d): %v", attempt, attempts, err)
			continue
		}
		if err := json.Unmarshal([]byte(cleanJSON(text)), out); err != nil {
			log.Printf("Model reply was not valid JSON: %v", err)
			return fmt.Errorf("decode model reply: %w", err)
		}
		if validate != nil {
			if err := validate(); err != nil {
				log.Printf("Model reply rejected: %v", err)
				return err
			}
		}
		return nil
	}
	return lastErr
}
