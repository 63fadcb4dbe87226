// Package agent runs a tool-using controller loop for query answering. The
// loop is an explicit bounded state machine — ToolSelection, ToolExecution,
// FinalAnswer — with a hard step budget, so a controller that never
// converges fails with ErrBudgetExceeded instead of looping indefinitely.
package agent

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
	"go.uber.org/zap"
)

// ErrBudgetExceeded signals that the controller did not reach a final answer
// within its step budget.
var ErrBudgetExceeded = errors.New("agent step budget exceeded")

// DefaultMaxSteps is the default iteration budget of the controller loop.
const DefaultMaxSteps = 8

// Tool is a capability the controller can select during the loop.
type Tool interface {
	Name() string
	Description() string
	Call(ctx context.Context, input string) (string, error)
}

// ExecutorConfig configures an Executor.
type ExecutorConfig struct {
	MaxSteps int
}

// Executor drives the react-style loop: ask the controller model for the
// next action, execute the chosen tool, feed the observation back, and stop
// on a final answer.
type Executor struct {
	llm      llms.Model
	tools    []Tool
	prompt   prompts.PromptTemplate
	maxSteps int
	logger   *zap.Logger
}

// Result is the outcome of a terminated loop.
type Result struct {
	Answer string
	Steps  int
}

// NewExecutor creates an Executor over the given tools.
func NewExecutor(model llms.Model, tools []Tool, promptTemplate prompts.PromptTemplate, config ExecutorConfig, logger *zap.Logger) *Executor {
	if config.MaxSteps <= 0 {
		config.MaxSteps = DefaultMaxSteps
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		llm:      model,
		tools:    tools,
		prompt:   promptTemplate,
		maxSteps: config.MaxSteps,
		logger:   logger,
	}
}

var actionPattern = regexp.MustCompile(`(?s)Action:\s*(.+?)\s*Action Input:\s*(.+)`)

// Run executes the loop for one question. A tool failure aborts the run; an
// exhausted budget returns ErrBudgetExceeded.
func (e *Executor) Run(ctx context.Context, question string) (Result, error) {
	var scratchpad strings.Builder

	for step := 1; step <= e.maxSteps; step++ {
		formatted, err := e.prompt.Format(map[string]any{
			"tools":            e.renderTools(),
			"tool_names":       e.renderToolNames(),
			"input":            question,
			"agent_scratchpad": scratchpad.String(),
		})
		if err != nil {
			return Result{}, fmt.Errorf("format agent prompt: %w", err)
		}

		out, err := llms.GenerateFromSinglePrompt(ctx, e.llm, formatted,
			llms.WithTemperature(0),
			llms.WithStopWords([]string{"\nObservation:"}))
		if err != nil {
			return Result{}, fmt.Errorf("agent controller: %w", err)
		}

		if answer, ok := parseFinalAnswer(out); ok {
			e.logger.Debug("agent finished",
				zap.Int("steps", step),
				zap.Int("tools", len(e.tools)))
			return Result{Answer: answer, Steps: step}, nil
		}

		action, input, err := parseAction(out)
		if err != nil {
			return Result{}, err
		}

		observation := e.execute(ctx, action, input)
		if observation.err != nil {
			return Result{}, fmt.Errorf("tool %s: %w", action, observation.err)
		}

		scratchpad.WriteString(strings.TrimRight(out, "\n"))
		scratchpad.WriteString("\nObservation: ")
		scratchpad.WriteString(observation.text)
		scratchpad.WriteString("\nThought:")
	}

	return Result{}, ErrBudgetExceeded
}

type observation struct {
	text string
	err  error
}

func (e *Executor) execute(ctx context.Context, action, input string) observation {
	for _, tool := range e.tools {
		if strings.EqualFold(tool.Name(), action) {
			text, err := tool.Call(ctx, input)
			return observation{text: text, err: err}
		}
	}
	// An unknown tool name is recoverable: tell the controller what exists
	// and let it choose again within the budget.
	return observation{
		text: fmt.Sprintf("%s is not a valid tool, try one of [%s]", action, e.renderToolNames()),
	}
}

func (e *Executor) renderTools() string {
	lines := make([]string, len(e.tools))
	for i, tool := range e.tools {
		lines[i] = fmt.Sprintf("%s: %s", tool.Name(), tool.Description())
	}
	return strings.Join(lines, "\n")
}

func (e *Executor) renderToolNames() string {
	names := make([]string, len(e.tools))
	for i, tool := range e.tools {
		names[i] = tool.Name()
	}
	return strings.Join(names, ", ")
}

func parseFinalAnswer(out string) (string, bool) {
	if idx := strings.Index(out, "Final Answer:"); idx >= 0 {
		return strings.TrimSpace(out[idx+len("Final Answer:"):]), true
	}
	return "", false
}

func parseAction(out string) (action, input string, err error) {
	match := actionPattern.FindStringSubmatch(out)
	if match == nil {
		return "", "", fmt.Errorf("could not parse agent output: %q", out)
	}
	action = strings.TrimSpace(match[1])
	input = strings.TrimSpace(strings.Trim(strings.TrimSpace(match[2]), `"`))
	return action, input, nil
}
