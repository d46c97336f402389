// Package strategy decides the outcome of a negotiation turn. Strategies are
// pure with respect to their inputs and private configuration; they never
// touch the deal store or the chain.
package strategy

import (
	"context"
	"errors"
)

// ErrUnavailable reports that the selected strategy could not produce a
// decision, typically a failed call to an external model.
var ErrUnavailable = errors.New("strategy unavailable")

// Item is the catalog view a strategy evaluates against. FloorPrice is
// visible to the strategy but must never surface in any caller-visible field
// of the Decision it returns.
type Item struct {
	ID         string
	Name       string
	BasePrice  float64
	FloorPrice float64
}

// Decision is the outcome of one evaluation. Exactly one variant is
// produced per turn.
type Decision interface {
	isDecision()
}

// Accepted closes the negotiation at FinalPrice.
type Accepted struct {
	FinalPrice float64
}

func (Accepted) isDecision() {}

// Countered proposes a different price.
type Countered struct {
	ProposedPrice float64
	ReasonCode    string
	Message       string
}

func (Countered) isDecision() {}

// Rejected ends the negotiation.
type Rejected struct {
	ReasonCode string
}

func (Rejected) isDecision() {}

// UIRequired defers the outcome to an out-of-band confirmation.
type UIRequired struct {
	TemplateID string
	Context    map[string]string
}

func (UIRequired) isDecision() {}

// PricingStrategy evaluates one negotiation turn.
type PricingStrategy interface {
	Evaluate(ctx context.Context, item Item, bid, reputation float64, requestID string) (Decision, error)
}

// Config selects and parameterizes the process-wide strategy. Name is either
// "rule" or an LLM model tag; the selection is fixed for the process
// lifetime.
type Config struct {
	Name               string
	HighValueThreshold float64
	LLM                LLMConfig
}

// New builds the configured strategy.
func New(cfg Config) (PricingStrategy, error) {
	if cfg.HighValueThreshold <= 0 {
		cfg.HighValueThreshold = 1000
	}
	if cfg.Name == "" || cfg.Name == "rule" {
		return &RuleStrategy{HighValueThreshold: cfg.HighValueThreshold}, nil
	}
	llm := cfg.LLM
	llm.Model = cfg.Name
	llm.HighValueThreshold = cfg.HighValueThreshold
	return NewLLMStrategy(llm)
}
