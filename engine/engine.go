// Package engine drives the bounded model/tool generation loop. One Run
// turns a conversation context into an ordered event stream, interleaving
// model output with concurrent tool invocations, and hands the assembled
// assistant message to a finish hook once the stream ends.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ftthdiag/diagchat/adapters"
	"github.com/ftthdiag/diagchat/models"
)

const (
	DefaultMaxSteps    = 5
	DefaultMaxDuration = 120 * time.Second
)

// Engine is the reusable generation pipeline. The many assistant variants
// of this service are configurations of one engine: a system prompt, an
// adapter map and the step/duration bounds.
type Engine struct {
	Model        ModelClient
	ModelID      string
	SystemPrompt string
	Adapters     adapters.Map
	MaxSteps     int
	MaxDuration  time.Duration
	Logger       *log.Logger
}

// New creates an engine with defaults applied.
func New(model ModelClient, modelID, systemPrompt string, adapterMap adapters.Map) *Engine {
	return &Engine{
		Model:        model,
		ModelID:      modelID,
		SystemPrompt: systemPrompt,
		Adapters:     adapterMap,
		MaxSteps:     DefaultMaxSteps,
		MaxDuration:  DefaultMaxDuration,
		Logger:       log.New(os.Stdout, "[ENGINE] ", log.LstdFlags),
	}
}

// Run executes one generation over the given context messages and returns
// the run's event stream. The run is deliberately detached from any
// request context: a client disconnect must not cancel it, because a
// resuming client still expects the full result. Only MaxDuration bounds
// the run.
//
// onFinish receives the assembled assistant parts after the model is done
// and before the terminal event is emitted; an error from it turns the
// terminal event into a storage error. It may be nil.
func (e *Engine) Run(history []models.Message, onFinish func(parts []models.Part) error) <-chan models.Event {
	events := make(chan models.Event, 16)
	go e.run(history, onFinish, events)
	return events
}

func (e *Engine) run(history []models.Message, onFinish func(parts []models.Part) error, events chan<- models.Event) {
	defer close(events)

	maxSteps := e.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	maxDuration := e.MaxDuration
	if maxDuration <= 0 {
		maxDuration = DefaultMaxDuration
	}

	ctx, cancel := context.WithTimeout(context.Background(), maxDuration)
	defer cancel()

	convo := make([]models.Message, len(history))
	copy(convo, history)

	var assembled []models.Part

	for step := 1; step <= maxSteps; step++ {
		// The final allowed step runs without tools so the model must
		// answer with whatever context has accumulated.
		var tools []models.FunctionDeclaration
		if step < maxSteps {
			tools = e.Adapters.Declarations()
		}

		e.Logger.Printf("Step %d/%d (%d context messages)", step, maxSteps, len(convo))

		stepParts, calls, err := e.streamStep(ctx, convo, tools, events)
		if err != nil {
			e.emitAbort(events, err)
			return
		}
		assembled = append(assembled, stepParts...)

		if len(calls) == 0 {
			reason := models.FinishStop
			if step == maxSteps {
				reason = models.FinishMaxSteps
			}
			e.finish(events, assembled, reason, onFinish)
			return
		}

		results := e.dispatchTools(ctx, calls)
		for i := range results {
			events <- models.Event{Type: models.EventToolResult, ToolResult: &results[i]}
			assembled = append(assembled, models.Part{Type: models.PartToolResult, ToolResult: &results[i]})
		}

		// Extend the model context: the step's output as an assistant
		// turn, then the tool results as the answering turn.
		convo = append(convo, models.Message{Role: models.RoleAssistant, Parts: stepParts})
		resultParts := make([]models.Part, 0, len(results))
		for i := range results {
			resultParts = append(resultParts, models.Part{Type: models.PartToolResult, ToolResult: &results[i]})
		}
		convo = append(convo, models.Message{Role: models.RoleUser, Parts: resultParts})
	}

	// The step budget ran out while the model was still calling tools.
	e.finish(events, assembled, models.FinishMaxSteps, onFinish)
}

// streamStep consumes one model step, forwarding deltas as events and
// collecting the step's parts and tool calls.
func (e *Engine) streamStep(ctx context.Context, convo []models.Message, tools []models.FunctionDeclaration, events chan<- models.Event) ([]models.Part, []models.ToolCall, error) {
	chunkChan, errChan := e.Model.StreamStep(ctx, models.StepRequest{
		Model:        e.ModelID,
		SystemPrompt: e.SystemPrompt,
		Messages:     convo,
		Tools:        tools,
	})

	var text, reasoning string
	var calls []models.ToolCall
	var callParts []models.Part

	for {
		select {
		case chunk, ok := <-chunkChan:
			if !ok {
				chunkChan = nil
				break
			}
			switch {
			case chunk.TextDelta != "":
				events <- models.Event{Type: models.EventTextDelta, Delta: chunk.TextDelta}
				text += chunk.TextDelta
			case chunk.ReasoningDelta != "":
				events <- models.Event{Type: models.EventReasoningDelta, Delta: chunk.ReasoningDelta}
				reasoning += chunk.ReasoningDelta
			case chunk.ToolCall != nil:
				call := *chunk.ToolCall
				if call.ID == "" {
					call.ID = uuid.NewString()
				}
				calls = append(calls, call)
				callParts = append(callParts, models.Part{Type: models.PartToolCall, ToolCall: &calls[len(calls)-1]})
				events <- models.Event{Type: models.EventToolCall, ToolCall: &calls[len(calls)-1]}
			}
		case err, ok := <-errChan:
			if ok && err != nil {
				return nil, nil, err
			}
			if !ok {
				errChan = nil
			}
		}
		if chunkChan == nil && errChan == nil {
			break
		}
	}

	// Assemble the step's parts in their canonical order: reasoning,
	// then text, then the tool calls of the step.
	var parts []models.Part
	if reasoning != "" {
		parts = append(parts, models.Part{Type: models.PartReasoning, Text: reasoning})
	}
	if text != "" {
		parts = append(parts, models.NewTextPart(text))
	}
	parts = append(parts, callParts...)
	return parts, calls, nil
}

// dispatchTools runs all of a step's tool calls concurrently and waits for
// every one before the next step starts. Adapter failures and unknown tool
// names become error payloads inside the results; they never abort the run,
// the model is allowed to recover from them.
func (e *Engine) dispatchTools(ctx context.Context, calls []models.ToolCall) []models.ToolResult {
	results := make([]models.ToolResult, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call models.ToolCall) {
			defer wg.Done()
			results[i] = e.invoke(ctx, call)
		}(i, call)
	}
	wg.Wait()
	return results
}

func (e *Engine) invoke(ctx context.Context, call models.ToolCall) models.ToolResult {
	result := models.ToolResult{ID: call.ID, Name: call.Name}

	adapter, ok := e.Adapters[call.Name]
	if !ok {
		e.Logger.Printf("Unknown tool requested: %s", call.Name)
		result.Error = fmt.Sprintf("tool_not_found: unknown or unavailable tool %q", call.Name)
		return result
	}

	started := time.Now()
	output, err := adapter.Invoke(ctx, call.Args)
	if err != nil {
		e.Logger.Printf("Tool %s failed after %v: %v", call.Name, time.Since(started), err)
		result.Error = err.Error()
		return result
	}
	e.Logger.Printf("Tool %s completed in %v (%d bytes)", call.Name, time.Since(started), len(output))
	result.Output = output
	return result
}

func (e *Engine) finish(events chan<- models.Event, assembled []models.Part, reason string, onFinish func(parts []models.Part) error) {
	if onFinish != nil {
		if err := onFinish(assembled); err != nil {
			e.Logger.Printf("Finish hook failed: %v", err)
			ce := models.AsChatError(err)
			events <- models.Event{Type: models.EventError, ErrorCode: ce.Code, ErrorMessage: ce.Message}
			return
		}
	}
	events <- models.Event{Type: models.EventFinish, FinishReason: reason}
}

func (e *Engine) emitAbort(events chan<- models.Event, err error) {
	e.Logger.Printf("Run aborted: %v", err)
	code := models.ErrInternal
	message := "generation failed"
	if errors.Is(err, context.DeadlineExceeded) {
		code = models.ErrTimeout
		message = "generation exceeded the configured duration"
	}
	events <- models.Event{Type: models.EventError, ErrorCode: code, ErrorMessage: message}
}
