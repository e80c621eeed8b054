package debate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"shelfscan_backend/platform/ai/gemini"
	"shelfscan_backend/platform/ai/llmjson"
	"shelfscan_backend/platform/ai/openaicompat"
	"shelfscan_backend/platform/config"
	"shelfscan_backend/platform/logger"
)

// Agent is one independent evaluator in the debate panel.
type Agent interface {
	Name() string
	Evaluate(ctx context.Context, in Input) (Round, error)
}

// textModel is the single-turn completion slice an agent needs from its
// underlying provider client.
type textModel interface {
	Complete(ctx context.Context, system, user string, temperature float32) (string, error)
}

// geminiModel adapts the Gemini client to the textModel interface.
type geminiModel struct {
	client *gemini.Client
}

func (m geminiModel) Complete(ctx context.Context, system, user string, temperature float32) (string, error) {
	return m.client.GenerateText(ctx, system, user, temperature)
}

// NewAgents builds the debate panel from the roster. Archetypes on an
// OpenAI-compatible provider fall back to Gemini when no API key is
// configured for that provider, so the panel size never depends on which
// optional keys are present.
func NewAgents(ctx context.Context, roster Roster, cfg config.DebateConfig, log *logger.Logger) ([]Agent, error) {
	agents := make([]Agent, 0, len(roster.Archetypes))
	for _, arch := range roster.Archetypes {
		model, modelName, err := buildModel(ctx, arch, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("debate agent %s: %w", arch.Name, err)
		}
		agents = append(agents, &modelAgent{
			archetype: arch,
			modelName: modelName,
			model:     model,
			retries:   cfg.GetDebateAgentRetries(),
		})
	}
	return agents, nil
}

func buildModel(ctx context.Context, arch Archetype, cfg config.DebateConfig, log *logger.Logger) (textModel, string, error) {
	switch arch.Provider {
	case ProviderOpenAICompat:
		if cfg.GetOpenAICompatAPIKey() != "" {
			client := openaicompat.NewClient(openaicompat.Config{
				APIKey:  cfg.GetOpenAICompatAPIKey(),
				BaseURL: cfg.GetOpenAICompatBaseURL(),
				Model:   arch.Model,
			})
			return client, arch.Model, nil
		}
		log.Warn("no openai-compatible api key, agent falls back to gemini", "agent", arch.Name)
		fallthrough
	case ProviderGemini:
		modelName := arch.Model
		if arch.Provider != ProviderGemini {
			modelName = "gemini-2.0-flash"
		}
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKey: cfg.GetGeminiAPIKey(),
			Model:  modelName,
		})
		if err != nil {
			return nil, "", err
		}
		return geminiModel{client: client}, modelName, nil
	default:
		return nil, "", fmt.Errorf("unknown provider %q", arch.Provider)
	}
}

// modelAgent is an Agent backed by an LLM provider with bounded retry.
type modelAgent struct {
	archetype Archetype
	modelName string
	model     textModel
	retries   int
}

func (a *modelAgent) Name() string { return a.archetype.Name }

type agentPayload struct {
	Recommendation string `json:"recommendation"`
	Reasoning      string `json:"reasoning"`
	Confidence     int    `json:"confidence"`
}

// Evaluate calls the underlying model and parses its JSON verdict. Transient
// call failures are retried with exponential backoff; a malformed verdict is
// not retried because the model is unlikely to fix itself within the budget.
func (a *modelAgent) Evaluate(ctx context.Context, in Input) (Round, error) {
	system := systemPrompt(a.archetype)
	user := userPrompt(in)

	var raw string
	backoff := retry.WithMaxRetries(uint64(a.retries), retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		out, err := a.model.Complete(ctx, system, user, a.archetype.Temperature)
		if err != nil {
			return retry.RetryableError(err)
		}
		raw = out
		return nil
	})
	if err != nil {
		return Round{}, fmt.Errorf("agent %s: %w", a.archetype.Name, err)
	}

	var payload agentPayload
	if err := llmjson.Unmarshal(raw, &payload); err != nil {
		return Round{}, fmt.Errorf("agent %s returned unparseable verdict: %w", a.archetype.Name, err)
	}
	if strings.TrimSpace(payload.Recommendation) == "" {
		return Round{}, fmt.Errorf("agent %s returned an empty recommendation", a.archetype.Name)
	}

	confidence := payload.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}

	return Round{
		Agent:          a.archetype.Name,
		Perspective:    a.archetype.Perspective,
		Model:          a.modelName,
		Recommendation: strings.TrimSpace(payload.Recommendation),
		Reasoning:      strings.TrimSpace(payload.Reasoning),
		Confidence:     confidence,
	}, nil
}
