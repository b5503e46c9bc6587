// Package judge holds the correctness judge consulted for AI-assisted
// guessing. It is a pure function of the guess text, kept behind a
// provider interface so a model-backed implementation can slot in.
package judge

import (
	"context"
	"strings"

	"github.com/agnivade/levenshtein"
)

type Result struct {
	IsCorrect bool   `json:"isCorrect"`
	Message   string `json:"message"`
}

type Provider interface {
	Judge(ctx context.Context, text string) (Result, error)
}

const (
	hitMessage  = "AI判定：命中词汇！"
	missMessage = "AI判定：未命中，可尝试更具体描述"
)

// Heuristic judges by keyword containment, with a levenshtein near-miss
// fallback for almost-right standalone guesses.
type Heuristic struct {
	keywords []string
}

func New() *Heuristic {
	return &Heuristic{keywords: []string{"苹果", "彩虹", "吉他", "长颈鹿"}}
}

func (h *Heuristic) Judge(_ context.Context, text string) (Result, error) {
	t := strings.TrimSpace(text)
	for _, kw := range h.keywords {
		if strings.Contains(t, kw) || levenshtein.ComputeDistance(strings.ToLower(t), kw) <= 1 {
			return Result{IsCorrect: true, Message: hitMessage}, nil
		}
	}
	return Result{IsCorrect: false, Message: missMessage}, nil
}
