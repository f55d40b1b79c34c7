package relay

import (
	"context"
)

// Workflow is the closed set of client-driven group operations.
type Workflow int

const (
	WorkflowCreate Workflow = iota
	WorkflowAddMember
	WorkflowDelete
	WorkflowFind
	WorkflowRetrieve
)

func (w Workflow) String() string {
	switch w {
	case WorkflowCreate:
		return "createPrivacyGroup"
	case WorkflowAddMember:
		return "addToPrivacyGroup"
	case WorkflowDelete:
		return "deletePrivacyGroup"
	case WorkflowFind:
		return "findPrivacyGroup"
	case WorkflowRetrieve:
		return "retrievePrivacyGroup"
	}
	return "unknown"
}

// Dispatch routes a typed request to its workflow. The request type must
// match the workflow tag; anything else is a bad request.
func (s *Service) Dispatch(ctx context.Context, w Workflow, req interface{}) (interface{}, error) {
	switch w {
	case WorkflowCreate:
		if r, ok := req.(*CreateRequest); ok {
			return s.CreatePrivacyGroup(ctx, r)
		}
	case WorkflowAddMember:
		if r, ok := req.(*AddMemberRequest); ok {
			return s.AddToPrivacyGroup(ctx, r)
		}
	case WorkflowDelete:
		if r, ok := req.(*DeleteRequest); ok {
			return s.DeletePrivacyGroup(ctx, r)
		}
	case WorkflowFind:
		if r, ok := req.(*FindRequest); ok {
			return s.FindPrivacyGroup(r)
		}
	case WorkflowRetrieve:
		if r, ok := req.(*RetrieveRequest); ok {
			return s.RetrievePrivacyGroup(r)
		}
	}
	return nil, newError(CodeBadRequest, "request type does not match workflow %s", w)
}
