package proto

// NodeName identifies a node in the turn graph. The same names key the
// transition table, the latency map, and the visited-node logs.
type NodeName string

const (
	// NodeRouter classifies the utterance. Sole entry point.
	NodeRouter NodeName = "router"
	// NodeRAG retrieves knowledge-base context.
	NodeRAG NodeName = "rag"
	// NodeToolExecutor gates and runs side-effecting actions.
	NodeToolExecutor NodeName = "tool_executor"
	// NodeConfirmation interprets a yes/no answer.
	NodeConfirmation NodeName = "confirmation"
	// NodeResponseGenerator synthesizes the final spoken reply.
	NodeResponseGenerator NodeName = "response_generator"
	// NodeEnd is the terminal marker.
	NodeEnd NodeName = "__end__"
)

// AllNodes lists every node name in the graph, terminal included.
func AllNodes() []NodeName {
	return []NodeName{
		NodeRouter,
		NodeRAG,
		NodeToolExecutor,
		NodeConfirmation,
		NodeResponseGenerator,
		NodeEnd,
	}
}

// Valid reports whether the name is a member of the node enum.
func (n NodeName) Valid() bool {
	switch n {
	case NodeRouter, NodeRAG, NodeToolExecutor, NodeConfirmation, NodeResponseGenerator, NodeEnd:
		return true
	default:
		return false
	}
}
