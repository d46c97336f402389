package strategy

import (
	"context"
	"strconv"
)

// RuleStrategy is the deterministic built-in: counter below the floor,
// accept up to the high-value threshold, and punt anything above it to a
// human confirmation.
type RuleStrategy struct {
	HighValueThreshold float64
}

// Evaluate implements PricingStrategy.
func (s *RuleStrategy) Evaluate(_ context.Context, item Item, bid, _ float64, _ string) (Decision, error) {
	switch {
	case bid < item.FloorPrice:
		return Countered{
			ProposedPrice: item.FloorPrice,
			ReasonCode:    "BELOW_FLOOR",
			Message:       "We cannot go that low, but here is our best price.",
		}, nil
	case bid <= s.HighValueThreshold:
		return Accepted{FinalPrice: bid}, nil
	default:
		return UIRequired{
			TemplateID: "high_value_confirm",
			Context: map[string]string{
				"item_name": item.Name,
				"price":     strconv.FormatFloat(bid, 'f', -1, 64),
			},
		}, nil
	}
}
