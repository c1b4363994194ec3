package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/agentloop/conversation"
	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/format"
	"github.com/hupe1980/agentloop/logging"
	"github.com/hupe1980/agentloop/model"
	"github.com/hupe1980/agentloop/tool"
)

// Delivery selects how a turn's final text reaches the caller.
type Delivery int

const (
	// DeliveryBuffered returns the full answer as decoded blocks.
	DeliveryBuffered Delivery = iota
	// DeliveryStreaming forwards text deltas to the turn's OnDelta sink when
	// the provider and the turn shape allow it.
	DeliveryStreaming
)

// Options configure an Engine instance.
type Options struct {
	// MaxRounds bounds the completion rounds within one turn.
	MaxRounds int
	// SystemMessage seeds new conversations as the first history entry.
	SystemMessage string
	// ResponseSchema, when set, is declared to the provider so the final
	// answer arrives as a structured block document. Structured turns are
	// always buffered.
	ResponseSchema map[string]any
	// Delivery is the default delivery mode; overridable per turn.
	Delivery Delivery
	// MaxParallelTools caps concurrent tool executions per batch. Zero means
	// one goroutine per call.
	MaxParallelTools int
	// OnPhase receives coarse progress transitions; overridable per turn.
	OnPhase PhaseFunc

	Logger logging.Logger
}

// Engine coordinates a model, a tool registry and a conversation store to run
// bounded tool-calling turns. Construct once, reuse across turns; the engine
// itself holds no per-turn state.
type Engine struct {
	model    model.Model
	registry *tool.Registry
	store    conversation.Store
	opts     Options
}

// New creates an Engine. The registry may be empty for tool-less agents.
func New(m model.Model, registry *tool.Registry, store conversation.Store, optFns ...func(o *Options)) *Engine {
	opts := Options{
		MaxRounds: 20,
		Delivery:  DeliveryBuffered,
		Logger:    logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if registry == nil {
		registry = tool.NewRegistry()
	}
	return &Engine{model: m, registry: registry, store: store, opts: opts}
}

// TurnOptions tune a single turn. Fields start from the engine's defaults.
type TurnOptions struct {
	// Delivery overrides the engine's default delivery mode.
	Delivery Delivery
	// OnDelta receives streamed text deltas. Streaming without a sink is
	// silently downgraded to buffered delivery.
	OnDelta func(text string)
	// OnPhase overrides the engine's phase hook for this turn.
	OnPhase PhaseFunc
}

// TurnResult is the outcome of a successful turn.
type TurnResult struct {
	ConversationID string
	// Blocks holds the decoded final answer. Empty when Streamed is true.
	Blocks []format.Block
	// Text is the raw final assistant text.
	Text string
	// Streamed reports that Text was fully delivered through OnDelta and must
	// not be rendered again from Blocks.
	Streamed bool
	// Rounds is the number of completion rounds the turn used.
	Rounds int
}

// Turn runs one user message through the completion loop and returns the
// final answer. History is loaded (or seeded with the configured system
// message), extended append-only, and saved after every round.
func (e *Engine) Turn(ctx context.Context, conversationID, message string, optFns ...func(o *TurnOptions)) (*TurnResult, error) {
	turnOpts := TurnOptions{
		Delivery: e.opts.Delivery,
		OnPhase:  e.opts.OnPhase,
	}
	for _, fn := range optFns {
		fn(&turnOpts)
	}

	log := e.opts.Logger
	start := time.Now()

	conv, err := e.loadOrSeed(conversationID)
	if err != nil {
		return nil, err
	}
	conv.Append(core.NewUserContent(message))

	turnOpts.OnPhase.emit(PhaseProcessing)
	log.Info("engine.turn.start", "conversation_id", conversationID, "delivery", turnOpts.Delivery)

	streaming := turnOpts.Delivery == DeliveryStreaming &&
		turnOpts.OnDelta != nil &&
		e.opts.ResponseSchema == nil
	defs := e.toolDefinitions()

	for round := 0; ; round++ {
		if round >= e.opts.MaxRounds {
			e.save(conv)
			log.Error("engine.turn.max_rounds", "conversation_id", conversationID, "max_rounds", e.opts.MaxRounds)
			return nil, &MaxRoundsExceededError{Rounds: e.opts.MaxRounds}
		}
		if err := ctx.Err(); err != nil {
			e.save(conv)
			return nil, err
		}

		req := model.Request{
			Contents:       conv.Messages(),
			Tools:          defs,
			ResponseSchema: e.opts.ResponseSchema,
			Stream:         streaming,
		}
		final, streamedText, err := e.completeRound(ctx, req, turnOpts)
		if err != nil {
			e.save(conv)
			log.Error("engine.round.provider_error", "conversation_id", conversationID, "round", round, "error", err.Error())
			return nil, &ProviderError{Err: err}
		}

		calls := final.FunctionCalls()
		if len(calls) == 0 {
			conv.Append(final)
			if err := e.store.Save(conv); err != nil {
				return nil, fmt.Errorf("save conversation %q: %w", conversationID, err)
			}
			turnOpts.OnPhase.emit(PhaseGeneratingResponse)

			res := &TurnResult{
				ConversationID: conversationID,
				Text:           final.Text(),
				Rounds:         round + 1,
			}
			switch {
			case streaming && streamedText == res.Text && res.Text != "":
				res.Streamed = true
			case e.opts.ResponseSchema != nil:
				res.Blocks = format.Parse(res.Text)
			default:
				res.Blocks = []format.Block{format.TextBlock{Text: res.Text}}
			}
			log.Info("engine.turn.complete",
				"conversation_id", conversationID,
				"rounds", res.Rounds,
				"streamed", res.Streamed,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return res, nil
		}

		// Tool round. The attempted calls are persisted even when a call
		// fails, so history shows what the model asked for.
		conv.Append(final)
		turnOpts.OnPhase.emit(PhaseFetchingData)

		responses, err := e.executeCalls(ctx, calls)
		if err != nil {
			e.save(conv)
			return nil, err
		}
		parts := make([]core.Part, len(responses))
		for i, fr := range responses {
			parts[i] = core.FunctionResponsePart{FunctionResponse: fr}
		}
		conv.Append(core.Content{Role: core.RoleTool, Parts: parts})

		if err := e.store.Save(conv); err != nil {
			return nil, fmt.Errorf("save conversation %q: %w", conversationID, err)
		}
		log.Debug("engine.round.tools", "conversation_id", conversationID, "round", round, "calls", len(calls))
	}
}

// Reset deletes the stored history for a conversation.
func (e *Engine) Reset(conversationID string) error {
	return e.store.Reset(conversationID)
}

// AppendAssistant records an assistant message outside a turn, for proactive
// messages the transport sends without user input. The conversation is seeded
// the same way Turn seeds it.
func (e *Engine) AppendAssistant(conversationID, text string) error {
	conv, err := e.loadOrSeed(conversationID)
	if err != nil {
		return err
	}
	conv.Append(core.NewAssistantContent(text))
	if err := e.store.Save(conv); err != nil {
		return fmt.Errorf("save conversation %q: %w", conversationID, err)
	}
	return nil
}

// loadOrSeed loads the conversation or creates a fresh one seeded with the
// configured system message. The store never fabricates content itself.
func (e *Engine) loadOrSeed(conversationID string) (*conversation.Conversation, error) {
	conv, err := e.store.Load(conversationID)
	switch {
	case errors.Is(err, conversation.ErrNotFound):
		conv = conversation.New(conversationID)
		if e.opts.SystemMessage != "" {
			conv.Append(core.NewSystemContent(e.opts.SystemMessage))
		}
		return conv, nil
	case err != nil:
		return nil, fmt.Errorf("load conversation %q: %w", conversationID, err)
	default:
		return conv, nil
	}
}

// save persists best-effort on failure paths where the primary error must win.
func (e *Engine) save(conv *conversation.Conversation) {
	if err := e.store.Save(conv); err != nil {
		e.opts.Logger.Error("engine.save.failed", "conversation_id", conv.ID, "error", err.Error())
	}
}

func (e *Engine) toolDefinitions() []model.ToolDefinition {
	defs := e.registry.Definitions()
	out := make([]model.ToolDefinition, len(defs))
	for i, d := range defs {
		out[i] = model.ToolDefinition{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.Parameters,
		}
	}
	return out
}

// completeRound issues one model call and drains its channels. While
// streaming, text deltas are forwarded to OnDelta until the first tool-call
// delta appears; a round that ends in tool calls reports no streamed text
// since its content is tool-bearing, not the final answer.
func (e *Engine) completeRound(ctx context.Context, req model.Request, turnOpts TurnOptions) (core.Content, string, error) {
	respCh, errCh := e.model.Generate(ctx, req)

	var (
		final     core.Content
		gotFinal  bool
		forwarded strings.Builder
		suppress  bool
	)

	for respCh != nil || errCh != nil {
		select {
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if resp.Partial {
				if !req.Stream {
					continue
				}
				if len(resp.Content.FunctionCalls()) > 0 {
					suppress = true
					continue
				}
				if suppress {
					continue
				}
				if delta := resp.Content.Text(); delta != "" {
					turnOpts.OnDelta(delta)
					forwarded.WriteString(delta)
				}
				continue
			}
			final = resp.Content
			gotFinal = true
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return core.Content{}, "", err
			}
		case <-ctx.Done():
			return core.Content{}, "", ctx.Err()
		}
	}

	if !gotFinal {
		return core.Content{}, "", fmt.Errorf("model closed the stream without a final response")
	}
	if len(final.FunctionCalls()) > 0 {
		return final, "", nil
	}
	return final, forwarded.String(), nil
}

// executeCalls runs a batch of tool calls, possibly in parallel, and returns
// one response per call in the order the model emitted them. The first fatal
// error in emission order wins.
func (e *Engine) executeCalls(ctx context.Context, calls []core.FunctionCall) ([]core.FunctionResponse, error) {
	n := len(calls)
	results := make([]core.FunctionResponse, n)
	errs := make([]error, n)

	if n == 1 {
		results[0], errs[0] = e.executeCall(ctx, calls[0])
	} else {
		maxPar := e.opts.MaxParallelTools
		if maxPar <= 0 || maxPar > n {
			maxPar = n
		}
		sem := make(chan struct{}, maxPar)
		var wg sync.WaitGroup
		for i := range calls {
			wg.Add(1)
			sem <- struct{}{}
			go func(idx int, fc core.FunctionCall) {
				defer wg.Done()
				defer func() { <-sem }()
				results[idx], errs[idx] = e.executeCall(ctx, fc)
			}(i, calls[i])
		}
		wg.Wait()
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// executeCall runs a single tool call. Recoverable failures (unparseable or
// invalid arguments, domain validation) come back inside the response so the
// model can react; unknown tools, handler errors and panics are fatal.
func (e *Engine) executeCall(ctx context.Context, fc core.FunctionCall) (fr core.FunctionResponse, fatal error) {
	log := e.opts.Logger
	fr = core.FunctionResponse{ID: fc.ID, Name: fc.Name}

	impl, err := e.registry.Resolve(fc.Name)
	if err != nil {
		log.Error("engine.tool.unknown", "tool", fc.Name)
		return fr, &ToolNotFoundError{Name: fc.Name}
	}

	args, err := tool.ParseArguments(fc.Arguments)
	if err != nil {
		fr.Error = fmt.Sprintf("Error: invalid tool arguments: %v", err)
		return fr, nil
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("engine.tool.panic", "tool", fc.Name, "recover", fmt.Sprint(r))
			fatal = &ToolExecutionError{Tool: fc.Name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	start := time.Now()
	result, err := impl.Call(ctx, args)
	log.Info("engine.tool.executed",
		"tool", fc.Name,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err != nil,
	)

	if err != nil {
		var terr *tool.ToolError
		if errors.As(err, &terr) && terr.Recoverable() {
			fr.Error = terr.Error()
			return fr, nil
		}
		return fr, &ToolExecutionError{Tool: fc.Name, Err: err}
	}

	fr.Response = result
	return fr, nil
}
