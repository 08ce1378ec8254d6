package distractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"github.com/abhisek/timestables/internal/llm"
	"github.com/abhisek/timestables/internal/logger"
)

// LLMStrategy asks a language model for wrong answers a learner with a
// typical misconception would give. Any failure yields no candidates.
type LLMStrategy struct {
	provider llm.Provider
	timeout  time.Duration
	log      *logger.Logger
}

// NewLLMStrategy wraps a provider. A timeout <= 0 leaves the caller's
// context as the only bound.
func NewLLMStrategy(provider llm.Provider, timeout time.Duration, log *logger.Logger) *LLMStrategy {
	return &LLMStrategy{provider: provider, timeout: timeout, log: log}
}

func (s *LLMStrategy) Name() string { return NameLLM }

type llmOutput struct {
	Distractors []struct {
		Value         int    `json:"value"`
		Misconception string `json:"misconception"`
	} `json:"distractors"`
}

func (s *LLMStrategy) Generate(ctx context.Context, c *Context) []int {
	if s.provider == nil {
		return nil
	}
	ctx = llm.WithPurpose(ctx, "distractors")
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	msg, err := buildDistractorMessage(c)
	if err != nil {
		s.log.Warn("build distractor prompt", "error", err)
		return nil
	}

	resp, err := s.provider.Generate(ctx, llm.Request{
		System:      distractorSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: msg}},
		Schema:      DistractorSchema,
		MaxTokens:   256,
		Temperature: 0.7,
	})
	if err != nil {
		s.log.Debug("llm distractors unavailable", "fact", c.Fact.ID, "error", err)
		return nil
	}

	var out llmOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		s.log.Debug("llm distractors unparseable", "fact", c.Fact.ID, "error", err)
		return nil
	}
	values := make([]int, 0, len(out.Distractors))
	for _, d := range out.Distractors {
		if d.Value != c.Correct {
			values = append(values, d.Value)
		}
	}
	return values
}

// DistractorSchema is the structured output requested from the model.
var DistractorSchema = &llm.Schema{
	Name:        "multiplication-distractors",
	Description: "Plausible wrong answers to a multiplication fact, each tied to a misconception",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"distractors": map[string]any{
				"type":     "array",
				"minItems": 1,
				"maxItems": 6,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"value": map[string]any{
							"type":        "integer",
							"description": "The wrong answer",
						},
						"misconception": map[string]any{
							"type":        "string",
							"description": "The slip that produces this answer, in a few words",
						},
					},
					"required":             []any{"value", "misconception"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"distractors"},
		"additionalProperties": false,
	},
}

const distractorSystemPrompt = `You write wrong answer choices for a children's times-tables quiz.

Instructions:
- Each wrong answer must be one a child could plausibly give through a specific slip.
- Never return the correct product.
- Stay between the minimum and maximum values given.
- Name the slip behind each value in a few words.`

var distractorUserTemplate = template.Must(template.New("distractors").Parse(`Fact: {{.Fact.Text}}
Correct answer: {{.Correct}}
Stage: {{.StageType}} ({{.Mode}})
Allowed range: {{.MinValue}} to {{.MaxValue}}`))

func buildDistractorMessage(c *Context) (string, error) {
	var buf bytes.Buffer
	if err := distractorUserTemplate.Execute(&buf, c); err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	return buf.String(), nil
}
