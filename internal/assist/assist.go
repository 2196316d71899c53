// Package assist turns a free-text prompt into a partial invoice.
package assist

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/MrJamesThe3rd/invoicer/internal/invoice"
)

//go:generate mockgen -source=assist.go -destination=assist_mock.go -package=assist

var ErrMissingPrompt = errors.New("missing prompt")

// HeuristicProvider names results produced by the local fallback.
const HeuristicProvider = "heuristic"

// Provider proposes a patch for inv from prompt.
type Provider interface {
	Name() string
	Propose(ctx context.Context, prompt string, inv invoice.Invoice) (invoice.Patch, error)
}

// Result is what Fill hands back to the caller. Filled is a proposal; the
// caller decides whether to merge it.
type Result struct {
	Provider string        `json:"provider"`
	Filled   invoice.Patch `json:"filled"`
}

type Service struct {
	provider Provider
}

// NewService returns a Service backed by provider. A nil provider means
// every call is answered by the heuristic.
func NewService(provider Provider) *Service {
	return &Service{provider: provider}
}

func (s *Service) Fill(ctx context.Context, prompt string, inv invoice.Invoice) (Result, error) {
	if strings.TrimSpace(prompt) == "" {
		return Result{}, ErrMissingPrompt
	}

	if s.provider == nil {
		return heuristicResult(prompt, inv), nil
	}

	patch, err := s.provider.Propose(ctx, prompt, inv)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}

		slog.Warn("assist provider failed, falling back to heuristic", "provider", s.provider.Name(), "error", err)

		return heuristicResult(prompt, inv), nil
	}

	if err := patch.Validate(); err != nil {
		slog.Warn("assist provider proposed an invalid patch, falling back to heuristic", "provider", s.provider.Name(), "error", err)

		return heuristicResult(prompt, inv), nil
	}

	return Result{Provider: s.provider.Name(), Filled: patch}, nil
}

func heuristicResult(prompt string, inv invoice.Invoice) Result {
	return Result{Provider: HeuristicProvider, Filled: Heuristic(prompt, inv)}
}
