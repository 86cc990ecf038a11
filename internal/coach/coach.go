// Package coach turns tracked patterns into coaching text. Text generation
// sits behind Generator so the pipeline never depends on a particular model
// provider.
package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/pable/go-lol-coach/internal/model"
)

const (
	DefaultModel     = "claude-haiku-4-5-20251001"
	DefaultMaxTokens = 1500
)

const systemPrompt = `You are a League of Legends coach. You are given the recurring death
patterns detected in a player's recent ranked games and one priority pattern.

Rules:
- Coach ONLY from the data provided. Never invent statistics.
- Focus on the priority pattern; mention others only if they share a cause.
- Give two or three concrete habits the player can practise next game.
- If the priority pattern is improving, acknowledge the streak first.
- Keep it under 250 words.`

// Request is the input for one coaching message.
type Request struct {
	RiotID   string
	Opener   string
	Priority *model.Pattern
	Patterns []model.Pattern
	Question string
}

// Generator produces coaching text.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

type patternView struct {
	Pattern           string  `json:"pattern"`
	Category          string  `json:"category"`
	Description       string  `json:"description"`
	Occurrences       int     `json:"occurrences"`
	Status            string  `json:"status"`
	GamesSinceLast    int     `json:"games_since_last"`
	ImprovementStreak int     `json:"improvement_streak"`
	Priority          float64 `json:"priority_score"`
}

func viewOf(p *model.Pattern) patternView {
	return patternView{
		Pattern:           p.Label(),
		Category:          p.Category,
		Description:       p.Description,
		Occurrences:       p.Occurrences,
		Status:            string(p.Status),
		GamesSinceLast:    p.GamesSinceLast,
		ImprovementStreak: p.ImprovementStreak,
		Priority:          p.PriorityScore(),
	}
}

// UserMessage renders req as the data block sent to the model.
func UserMessage(req Request) (string, error) {
	data := struct {
		Player   string        `json:"player"`
		Priority *patternView  `json:"priority_pattern"`
		Others   []patternView `json:"other_patterns"`
	}{Player: req.RiotID, Others: []patternView{}}

	if req.Priority != nil {
		v := viewOf(req.Priority)
		data.Priority = &v
	}
	for i := range req.Patterns {
		p := &req.Patterns[i]
		if p.Status == model.StatusBroken {
			continue
		}
		if req.Priority != nil && p.Key == req.Priority.Key && p.Subject == req.Priority.Subject {
			continue
		}
		data.Others = append(data.Others, viewOf(p))
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode coaching data: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "DATA:\n%s\n", b)
	if req.Opener != "" {
		fmt.Fprintf(&sb, "\nSESSION OPENER (already shown to the player): %s\n", req.Opener)
	}
	q := req.Question
	if q == "" {
		q = "What should I work on next game?"
	}
	fmt.Fprintf(&sb, "\nQUESTION: %s", q)
	return sb.String(), nil
}

// Anthropic generates coaching text with the Anthropic Messages API. When
// Out is set, text is streamed to it as it arrives.
type Anthropic struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	Out       io.Writer
	logger    *zap.Logger
}

// NewAnthropic returns a generator for the given key and model.
func NewAnthropic(apiKey, modelID string, maxTokens int, logger *zap.Logger) (*Anthropic, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("no API key: set ANTHROPIC_API_KEY or anthropic.api_key")
	}
	if modelID == "" {
		modelID = DefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Anthropic{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     modelID,
		maxTokens: int64(maxTokens),
		logger:    logger,
	}, nil
}

// Generate streams a coaching message for req and returns the full text.
func (a *Anthropic) Generate(ctx context.Context, req Request) (string, error) {
	userMsg, err := UserMessage(req)
	if err != nil {
		return "", err
	}

	stream := a.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMsg)),
		},
	})

	var sb strings.Builder
	for stream.Next() {
		evt := stream.Current()
		if evt.Type == "content_block_delta" {
			delta := evt.AsContentBlockDelta()
			if delta.Delta.Type == "text_delta" {
				text := delta.Delta.AsTextDelta().Text
				sb.WriteString(text)
				if a.Out != nil {
					fmt.Fprint(a.Out, text)
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "authentication") {
			return "", fmt.Errorf("API authentication failed: check your API key")
		}
		return "", fmt.Errorf("streaming error: %w", err)
	}
	a.logger.Debug("coaching generated", zap.String("model", a.model), zap.Int("chars", sb.Len()))
	return sb.String(), nil
}
