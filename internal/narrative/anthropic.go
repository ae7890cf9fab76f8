package narrative

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dynasty/internal/config"
	"github.com/cory-johannsen/dynasty/internal/game/sim"
)

const systemPrompt = "You are the court chronicler of a multi-faction strategy " +
	"simulation. Summarize the tick's events in two or three vivid sentences. " +
	"Mention only what happened; invent nothing."

// Chronicler narrates ticks through the Anthropic Messages API.
type Chronicler struct {
	client anthropic.Client
	model  anthropic.Model
	logger *zap.Logger
}

// NewChronicler creates an API-backed narrator. The client reads
// ANTHROPIC_API_KEY from the environment.
//
// Precondition: model must be non-empty; logger must be non-nil.
func NewChronicler(model string, logger *zap.Logger) *Chronicler {
	return &Chronicler{
		client: anthropic.NewClient(),
		model:  anthropic.Model(model),
		logger: logger,
	}
}

// Summarize asks the model for a short narration of the tick record.
//
// Postcondition: Returns the model's text, or a non-nil error on API failure
// or an empty completion.
func (c *Chronicler) Summarize(ctx context.Context, res sim.TickResult) (string, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 256,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt(res))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("narrating tick %d: %w", res.Tick, err)
	}

	var b strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("narrating tick %d: empty completion", res.Tick)
	}
	return text, nil
}

// New selects a narrator for the given configuration: the Chronicler when
// narration is enabled and an API key is present, the Template otherwise.
func New(cfg config.NarrativeConfig, logger *zap.Logger) sim.Narrator {
	if cfg.Enabled && os.Getenv("ANTHROPIC_API_KEY") != "" {
		return NewChronicler(cfg.Model, logger)
	}
	if cfg.Enabled {
		logger.Warn("narrative enabled but ANTHROPIC_API_KEY is not set, using template narrator")
	}
	return Template{}
}
