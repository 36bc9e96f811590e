package graph

import (
	"fmt"

	"concierge/pkg/proto"
)

// ValidTransitions defines the allowed next hops for each node. The guard
// functions below pick one edge out of this set; ValidateGraph checks at
// startup that they can never pick anything else.
var ValidTransitions = map[proto.NodeName][]proto.NodeName{
	proto.NodeRouter: {
		proto.NodeConfirmation,
		proto.NodeToolExecutor,
		proto.NodeRAG,
		proto.NodeResponseGenerator,
	},
	proto.NodeRAG:               {proto.NodeResponseGenerator},
	proto.NodeToolExecutor:      {proto.NodeResponseGenerator},
	proto.NodeConfirmation:      {proto.NodeToolExecutor, proto.NodeResponseGenerator},
	proto.NodeResponseGenerator: {proto.NodeEnd},
}

// IsValidTransition checks whether an edge is allowed by the table.
func IsValidTransition(from, to proto.NodeName) bool {
	for _, allowed := range ValidTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// routerEdge picks the node after classification. It is total: every
// combination of intent and confirmation status maps to a valid hop, and a
// panic in a guard is downgraded to response_generator by the runner.
func routerEdge(state *proto.TurnState) proto.NodeName {
	if state.Intent == proto.IntentConfirm {
		// Orphan confirm (nothing queued) has nothing to act on.
		if state.PendingTool != nil && state.ConfirmationStatus == proto.ConfirmationPending {
			return proto.NodeConfirmation
		}
		return proto.NodeResponseGenerator
	}

	switch state.Intent {
	case proto.IntentTool, proto.IntentTransfer:
		return proto.NodeToolExecutor
	case proto.IntentRAG:
		return proto.NodeRAG
	default:
		return proto.NodeResponseGenerator
	}
}

// ragEdge always continues to synthesis.
func ragEdge(*proto.TurnState) proto.NodeName {
	return proto.NodeResponseGenerator
}

// toolExecutorEdge always continues to synthesis. When the executor
// produced a confirmation prompt, the prompt is delivered through the
// response generator this turn and the next turn resumes via the
// confirmation path.
func toolExecutorEdge(*proto.TurnState) proto.NodeName {
	return proto.NodeResponseGenerator
}

// confirmationEdge resumes the queued tool when the answer was yes.
func confirmationEdge(state *proto.TurnState) proto.NodeName {
	if state.ConfirmationStatus == proto.ConfirmationConfirmed && state.PendingTool != nil {
		return proto.NodeToolExecutor
	}
	return proto.NodeResponseGenerator
}

// responseEdge terminates the turn.
func responseEdge(*proto.TurnState) proto.NodeName {
	return proto.NodeEnd
}

type edgeFunc func(*proto.TurnState) proto.NodeName

var edges = map[proto.NodeName]edgeFunc{
	proto.NodeRouter:            routerEdge,
	proto.NodeRAG:               ragEdge,
	proto.NodeToolExecutor:      toolExecutorEdge,
	proto.NodeConfirmation:      confirmationEdge,
	proto.NodeResponseGenerator: responseEdge,
}

// nextNode evaluates the current node's edge with panic containment: an
// exploding guard defaults to response_generator rather than aborting the
// turn. There is no error state, only the safe terminal fallback.
func nextNode(state *proto.TurnState) (next proto.NodeName) {
	defer func() {
		if rec := recover(); rec != nil {
			next = proto.NodeResponseGenerator
		}
	}()

	edge, ok := edges[state.CurrentNode]
	if !ok {
		return proto.NodeResponseGenerator
	}
	next = edge(state)
	if !next.Valid() || !IsValidTransition(state.CurrentNode, next) {
		return proto.NodeResponseGenerator
	}
	return next
}

// ValidateGraph checks the transition table at startup: every non-terminal
// node has an edge function, every listed hop is a known node, and every
// node can reach the terminal. An invalid table is a construction-time
// error, not a runtime surprise.
func ValidateGraph() error {
	for node, targets := range ValidTransitions {
		if !node.Valid() {
			return fmt.Errorf("transition table references unknown node %q", node)
		}
		if _, ok := edges[node]; !ok {
			return fmt.Errorf("node %q has transitions but no edge function", node)
		}
		if len(targets) == 0 {
			return fmt.Errorf("node %q has no outgoing transitions", node)
		}
		for _, target := range targets {
			if !target.Valid() {
				return fmt.Errorf("node %q lists unknown target %q", node, target)
			}
		}
	}

	for node := range edges {
		if _, ok := ValidTransitions[node]; !ok {
			return fmt.Errorf("edge function for %q has no transition entry", node)
		}
	}

	// Every node must reach __end__.
	for start := range ValidTransitions {
		if !reaches(start, proto.NodeEnd, map[proto.NodeName]bool{}) {
			return fmt.Errorf("node %q cannot reach the terminal node", start)
		}
	}
	return nil
}

func reaches(from, goal proto.NodeName, seen map[proto.NodeName]bool) bool {
	if from == goal {
		return true
	}
	if seen[from] {
		return false
	}
	seen[from] = true
	for _, next := range ValidTransitions[from] {
		if reaches(next, goal, seen) {
			return true
		}
	}
	return false
}
