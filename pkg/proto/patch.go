package proto

import "time"

// StatePatch is the partial update a graph node returns. Nil fields leave the
// corresponding state field untouched. Merge rules, per field:
//
//   - scalars and pointers: last write wins when the patch field is set
//   - Messages, Errors: append-only
//   - NodeLatency: per-key merge, last write wins per key
//   - PendingTool / LastToolResult / RAGResult: set via the pointer, cleared
//     via the explicit Clear* flag (a nil pointer alone means "untouched")
//
//nolint:govet // fieldalignment: grouped to mirror TurnState
type StatePatch struct {
	NormalizedInput *string

	Intent     *Intent
	Confidence *float64
	SubIntent  *string
	Entities   map[string]string

	PendingTool      *PendingTool
	ClearPendingTool bool

	LastToolResult *ToolExecutionResult

	ConfirmationStatus   *ConfirmationStatus
	ConfirmationAttempts *int

	RAGResult *RAGResult
	UsedRAG   *bool

	Response      *string
	ResponseKind  *ResponseKind
	EndCall       *bool
	EndCallReason *string

	AppendMessages []Message
	AppendErrors   []GraphError
	NodeLatency    map[NodeName]time.Duration

	CurrentNode *NodeName
	Done        *bool
}

// Apply merges a patch into the state in place and returns the state for
// chaining. Append-only fields are never truncated here; callers that need a
// fresh turn build a new TurnState instead.
func Apply(s *TurnState, p *StatePatch) *TurnState {
	if p == nil {
		return s
	}

	if p.NormalizedInput != nil {
		s.NormalizedInput = *p.NormalizedInput
	}
	if p.Intent != nil {
		s.Intent = *p.Intent
		if !s.Intent.Valid() {
			s.Intent = IntentUnknown
		}
	}
	if p.Confidence != nil {
		s.Confidence = *p.Confidence
	}
	if p.SubIntent != nil {
		s.SubIntent = *p.SubIntent
	}
	for k, v := range p.Entities {
		if s.Entities == nil {
			s.Entities = make(map[string]string)
		}
		s.Entities[k] = v
	}

	switch {
	case p.ClearPendingTool:
		s.PendingTool = nil
	case p.PendingTool != nil:
		s.PendingTool = p.PendingTool
	}

	if p.LastToolResult != nil {
		s.LastToolResult = p.LastToolResult
	}
	if p.ConfirmationStatus != nil {
		s.ConfirmationStatus = *p.ConfirmationStatus
	}
	if p.ConfirmationAttempts != nil {
		s.ConfirmationAttempts = *p.ConfirmationAttempts
	}
	if p.RAGResult != nil {
		s.RAGResult = p.RAGResult
	}
	if p.UsedRAG != nil {
		s.UsedRAG = *p.UsedRAG
	}

	if p.Response != nil {
		s.Response = *p.Response
	}
	if p.ResponseKind != nil {
		s.ResponseKind = *p.ResponseKind
	}
	if p.EndCall != nil {
		s.EndCall = *p.EndCall
	}
	if p.EndCallReason != nil {
		s.EndCallReason = *p.EndCallReason
	}

	s.Messages = append(s.Messages, p.AppendMessages...)
	s.Errors = append(s.Errors, p.AppendErrors...)
	for k, v := range p.NodeLatency {
		if s.NodeLatency == nil {
			s.NodeLatency = make(map[NodeName]time.Duration)
		}
		s.NodeLatency[k] = v
	}

	if p.CurrentNode != nil {
		s.CurrentNode = *p.CurrentNode
	}
	if p.Done != nil {
		s.Done = *p.Done
	}

	return s
}

// Ptr returns a pointer to v. Keeps patch construction readable.
func Ptr[T any](v T) *T { return &v }

// RecoverableError builds a GraphError for the append-only log.
func RecoverableError(node NodeName, msg string) GraphError {
	return GraphError{Node: node, Message: msg, Timestamp: time.Now().UTC(), Recoverable: true}
}

// FatalError builds a non-recoverable GraphError. Reserved for genuinely
// unrecoverable conditions such as missing required configuration.
func FatalError(node NodeName, msg string) GraphError {
	return GraphError{Node: node, Message: msg, Timestamp: time.Now().UTC(), Recoverable: false}
}
