// Package tools defines the business actions the assistant can take on a
// caller's behalf and the executor that gates and runs them. The registry is
// constructed explicitly and passed in by the caller, so different tenants
// can carry different tool sets.
package tools

import (
	"context"
	"sort"
	"sync"

	"concierge/pkg/persistence"
	"concierge/pkg/proto"
)

// Property describes a single parameter in a tool's input schema.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// InputSchema describes a tool's parameters in JSON-schema shape.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// ToolDefinition is the registry-facing description of one tool.
type ToolDefinition struct {
	Name                 string
	Description          string
	InputSchema          InputSchema
	RequiresConfirmation bool
	// ConfirmationTemplate holds per-locale questions with {placeholder}
	// substitution from merged entities and parameters. Only set when
	// RequiresConfirmation is true.
	ConfirmationTemplate map[proto.Locale]string
}

// ExecContext carries the per-turn identifiers and data access every tool
// receives alongside its parameters.
type ExecContext struct {
	TenantID string
	CallID   string
	Locale   proto.Locale
	Store    *persistence.Store
	Entities map[string]string
}

// Tool is one executable business action.
type Tool interface {
	// Name returns the tool identifier.
	Name() string
	// Definition returns the tool's registry description.
	Definition() ToolDefinition
	// Exec runs the action. Failures are returned as unsuccessful results
	// with a voice message; the error return is for infrastructure
	// problems only and is normalized by the executor either way.
	Exec(ctx context.Context, params map[string]any, ec ExecContext) (*proto.ToolExecutionResult, error)
}

// Registry resolves tool names. Implementations must be safe for concurrent
// lookup.
type Registry interface {
	Lookup(name string) (Tool, bool)
	Has(name string) bool
	List() []string
}

type registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry builds a registry from an explicit tool list. Later duplicates
// replace earlier ones.
func NewRegistry(toolList ...Tool) Registry {
	r := &registry{tools: make(map[string]Tool, len(toolList))}
	for _, t := range toolList {
		r.tools[t.Name()] = t
	}
	return r
}

func (r *registry) Lookup(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

func (r *registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

func (r *registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry builds the standard tool set every tenant starts with.
func DefaultRegistry() Registry {
	return NewRegistry(
		NewCreateReservationTool(),
		NewCancelReservationTool(),
		NewModifyReservationTool(),
		NewCreateOrderTool(),
		NewTransferCallTool(),
		NewTakeMessageTool(),
	)
}
