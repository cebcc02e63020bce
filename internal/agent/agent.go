// Package agent answers free-text questions about a dataset by letting a
// Gemini model call the analysis tools.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/auditai-dev/auditai/internal/logger"
	"github.com/auditai-dev/auditai/internal/tools"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// DefaultMaxSteps bounds the model round trips per question.
const DefaultMaxSteps = 5

var (
	// ErrTooManySteps is returned when the model keeps calling tools past the step limit.
	ErrTooManySteps = errors.New("agent exceeded maximum steps without answering")
	// ErrNoAnswer is returned when the model replies with neither text nor tool calls.
	ErrNoAnswer = errors.New("agent returned no answer")
)

const inputParam = "input"

const systemPrompt = "You are a financial auditing assistant. " +
	"Answer questions about the user's uploaded transactions. " +
	"Use the available tools to detect potentially fraudulent transactions and to check compliance rules " +
	"instead of guessing, and base your answer on their output. " +
	"If a tool reports that no data is loaded, tell the user to upload a file first. " +
	"Keep answers short and quote transaction IDs where relevant."

// Generator produces model responses. *genai.Models satisfies it.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Agent runs the function-calling loop.
type Agent struct {
	gen      Generator
	model    string
	maxSteps int
}

// New returns an agent. Empty model and non-positive maxSteps fall back to defaults.
func New(gen Generator, model string, maxSteps int) *Agent {
	if model == "" {
		model = DefaultModel
	}
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return &Agent{gen: gen, model: model, maxSteps: maxSteps}
}

// NewGemini builds an agent backed by the Gemini API.
func NewGemini(ctx context.Context, apiKey, model string, maxSteps int) (*Agent, error) {
	if apiKey == "" {
		return nil, errors.New("no API key configured")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return New(client.Models, model, maxSteps), nil
}

// Model returns the model name in use.
func (a *Agent) Model() string { return a.model }

// Ask answers question, executing tool calls from reg until the model
// replies with text.
func (a *Agent) Ask(ctx context.Context, reg *tools.Registry, question string) (string, error) {
	log := logger.FromContext(ctx)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
		Tools:             []*genai.Tool{{FunctionDeclarations: declarations(reg)}},
	}
	contents := []*genai.Content{genai.NewContentFromText(question, genai.RoleUser)}

	for step := 1; step <= a.maxSteps; step++ {
		resp, err := a.gen.GenerateContent(ctx, a.model, contents, cfg)
		if err != nil {
			return "", fmt.Errorf("generating content (step %d): %w", step, err)
		}

		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			answer := strings.TrimSpace(resp.Text())
			if answer == "" {
				return "", ErrNoAnswer
			}
			log.Debug().Int("steps", step).Msg("agent answered")
			return answer, nil
		}

		contents = append(contents, resp.Candidates[0].Content)
		parts := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			parts = append(parts, a.runCall(ctx, reg, call))
		}
		contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))
	}
	return "", ErrTooManySteps
}

func (a *Agent) runCall(ctx context.Context, reg *tools.Registry, call *genai.FunctionCall) *genai.Part {
	input, _ := call.Args[inputParam].(string)
	logger.FromContext(ctx).Debug().Str("tool", call.Name).Str("input", input).Msg("tool call")

	result := map[string]any{}
	out, err := reg.Call(ctx, call.Name, input)
	if err != nil {
		result["error"] = err.Error()
	} else {
		result["output"] = out
	}

	part := genai.NewPartFromFunctionResponse(call.Name, result)
	part.FunctionResponse.ID = call.ID
	return part
}

func declarations(reg *tools.Registry) []*genai.FunctionDeclaration {
	all := reg.All()
	decls := make([]*genai.FunctionDeclaration, len(all))
	for i, t := range all {
		decls[i] = &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					inputParam: {Type: genai.TypeString, Description: "Optional free-text input for the tool."},
				},
			},
		}
	}
	return decls
}
