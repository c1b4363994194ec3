// Package agentloop provides a high-level façade over the completion engine,
// tool registry and conversation store for building tool-calling
// conversational agents. Most applications interact with this package by:
//  1. Creating an Agent via New() with a model provider
//  2. Registering tools (explicit-schema or typed)
//  3. Running turns with Chat, rendering the returned blocks
//
// The façade delegates the bounded tool-calling loop to engine.Engine while
// keeping setup ergonomics concise. Defaults are safe for local development
// and testing; production deployments typically supply a durable conversation
// store (e.g. conversation.BoltStore) and a structured logger.
package agentloop

import (
	"context"

	"github.com/hupe1980/agentloop/conversation"
	"github.com/hupe1980/agentloop/engine"
	"github.com/hupe1980/agentloop/format"
	"github.com/hupe1980/agentloop/logging"
	"github.com/hupe1980/agentloop/model"
	"github.com/hupe1980/agentloop/tool"
)

// Options configures the Agent instance.
type Options struct {
	// Store persists conversation histories (defaults to in-memory).
	Store conversation.Store

	// SystemMessage seeds every new conversation.
	SystemMessage string

	// MaxRounds bounds the tool-calling loop per turn.
	MaxRounds int

	// StructuredOutput declares format.ResponseSchema() to the provider so
	// final answers arrive as typed content blocks.
	StructuredOutput bool

	// Delivery selects the default delivery mode for turns.
	Delivery engine.Delivery

	// MaxParallelTools caps concurrent tool executions per batch.
	MaxParallelTools int

	// OnPhase receives coarse progress transitions.
	OnPhase engine.PhaseFunc

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Agent is the high-level façade aggregating the engine, its tool registry
// and the conversation store.
type Agent struct {
	opts     Options
	registry *tool.Registry
	engine   *engine.Engine
}

// New creates a new Agent around the given model provider.
func New(m model.Model, optFns ...func(o *Options)) *Agent {
	opts := Options{
		Store:     conversation.NewInMemoryStore(),
		MaxRounds: 20,
		Logger:    logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	registry := tool.NewRegistry()

	eng := engine.New(m, registry, opts.Store, func(o *engine.Options) {
		o.MaxRounds = opts.MaxRounds
		o.SystemMessage = opts.SystemMessage
		o.Delivery = opts.Delivery
		o.MaxParallelTools = opts.MaxParallelTools
		o.OnPhase = opts.OnPhase
		o.Logger = opts.Logger
		if opts.StructuredOutput {
			o.ResponseSchema = format.ResponseSchema()
		}
	})

	return &Agent{opts: opts, registry: registry, engine: eng}
}

// RegisterTool adds a tool to the agent's registry.
func (a *Agent) RegisterTool(t tool.Tool) error {
	return a.registry.Register(t)
}

// MustRegisterTool registers a tool and panics on duplicate names. Intended
// for construction-time wiring.
func (a *Agent) MustRegisterTool(t tool.Tool) *Agent {
	a.registry.MustRegister(t)
	return a
}

// Chat runs one user message through the completion loop.
func (a *Agent) Chat(ctx context.Context, conversationID, message string, optFns ...func(o *engine.TurnOptions)) (*engine.TurnResult, error) {
	return a.engine.Turn(ctx, conversationID, message, optFns...)
}

// Reset deletes the stored history for a conversation.
func (a *Agent) Reset(conversationID string) error {
	return a.engine.Reset(conversationID)
}

// Notify records a proactive assistant message without running a turn.
func (a *Agent) Notify(conversationID, text string) error {
	return a.engine.AppendAssistant(conversationID, text)
}
