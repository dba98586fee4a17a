// Package policy decides document access with an OPA rego policy.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Decisions returned by the document access policy.
const (
	DecisionAllow = "allow"
	DecisionDeny  = "deny"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// Input is the document access question handed to the policy.
type Input struct {
	UserID   string        `json:"user_id"`
	Document DocumentInput `json:"document"`
}

// DocumentInput carries the ownership facts of the requested document.
type DocumentInput struct {
	ID            string   `json:"id"`
	OwnerID       string   `json:"owner_id"`
	Collaborators []string `json:"collaborators"`
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.document_access.decision"),
		rego.Module("document_access.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate returns the access decision for input. Anything other than an
// explicit allow from the policy is a deny.
func (e *Engine) Evaluate(ctx context.Context, input Input) (string, error) {
	if input.Document.Collaborators == nil {
		input.Document.Collaborators = []string{}
	}

	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return DecisionDeny, nil
	}

	if s, ok := results[0].Expressions[0].Value.(string); ok && s == DecisionAllow {
		return DecisionAllow, nil
	}
	return DecisionDeny, nil
}

// DefaultPolicy grants read access to the owner and listed collaborators.
const DefaultPolicy = `
package document_access

default decision = "deny"

decision = "allow" {
	input.user_id != ""
	input.user_id == input.document.owner_id
}

decision = "allow" {
	input.user_id != ""
	input.document.collaborators[_] == input.user_id
}
`
