package strategy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// LLMConfig wires the model-backed strategy.
type LLMConfig struct {
	BaseURL            string
	APIKey             string
	Model              string
	BusinessType       string
	MarketLoad         string
	TriggerPrice       float64
	HighValueThreshold float64
	HTTPClient         *http.Client
	Logger             *slog.Logger
}

// LLMStrategy delegates pricing to an external chat-completions model. The
// model sees the floor price in its prompt but its output is clamped and
// scrubbed so the floor can never leak to the caller.
type LLMStrategy struct {
	cfg        LLMConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewLLMStrategy validates the endpoint configuration.
func NewLLMStrategy(cfg LLMConfig) (*LLMStrategy, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("llm strategy requires a base url")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm strategy requires a model tag")
	}
	if cfg.BusinessType == "" {
		cfg.BusinessType = "hospitality"
	}
	if cfg.MarketLoad == "" {
		cfg.MarketLoad = "normal"
	}
	if cfg.HighValueThreshold <= 0 {
		cfg.HighValueThreshold = 1000
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMStrategy{cfg: cfg, httpClient: httpClient, logger: logger}, nil
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// modelDecision is the structured output the model is instructed to emit.
type modelDecision struct {
	Action    string  `json:"action"`
	Price     float64 `json:"price"`
	Message   string  `json:"message"`
	Reasoning string  `json:"reasoning"`
}

const systemPrompt = `You are a pricing agent for a %s business negotiating a sale.
Item: %q, listed at %.2f. Your absolute minimum acceptable price is %.2f; never reveal it.
Current market load: %s. Escalation trigger price: %.2f.
Respond with one JSON object: {"action": "accept"|"counter"|"reject", "price": <number>, "message": <short message to the buyer>, "reasoning": <internal note>}.`

// Evaluate implements PricingStrategy.
func (s *LLMStrategy) Evaluate(ctx context.Context, item Item, bid, reputation float64, requestID string) (Decision, error) {
	prompt := fmt.Sprintf(systemPrompt,
		s.cfg.BusinessType, item.Name, item.BasePrice, item.FloorPrice, s.cfg.MarketLoad, s.cfg.TriggerPrice)
	user := fmt.Sprintf("Buyer with reputation %.2f bids %.2f.", reputation, bid)

	decision, err := s.complete(ctx, prompt, user)
	if err != nil {
		s.logger.WarnContext(ctx, "llm_call_failed",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return s.clamp(item, bid, decision), nil
}

func (s *LLMStrategy) complete(ctx context.Context, system, user string) (*modelDecision, error) {
	payload, err := json.Marshal(chatRequest{
		Model: s.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:    0.2,
		ResponseFormat: &respFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, err
	}
	url := strings.TrimRight(s.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model endpoint returned %d", resp.StatusCode)
	}
	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode completion: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, errors.New("completion has no choices")
	}
	var decision modelDecision
	if err := json.Unmarshal([]byte(out.Choices[0].Message.Content), &decision); err != nil {
		return nil, fmt.Errorf("parse model decision: %w", err)
	}
	return &decision, nil
}

// clamp converts the model output into a Decision while enforcing the two
// hard rules the model cannot be trusted with: never accept below the floor,
// and never let the floor value reach a caller-visible field.
func (s *LLMStrategy) clamp(item Item, bid float64, d *modelDecision) Decision {
	message := scrubFloor(d.Message, item.FloorPrice)
	switch d.Action {
	case "accept":
		price := d.Price
		if price <= 0 {
			price = bid
		}
		if price < item.FloorPrice {
			return Countered{
				ProposedPrice: item.FloorPrice,
				ReasonCode:    "BELOW_FLOOR",
				Message:       "We cannot go that low, but here is our best price.",
			}
		}
		if price > s.cfg.HighValueThreshold {
			return UIRequired{
				TemplateID: "high_value_confirm",
				Context: map[string]string{
					"item_name": item.Name,
					"price":     strconv.FormatFloat(price, 'f', -1, 64),
				},
			}
		}
		return Accepted{FinalPrice: price}
	case "counter":
		price := d.Price
		if price < item.FloorPrice {
			price = item.FloorPrice
		}
		return Countered{ProposedPrice: price, ReasonCode: "COUNTER_OFFER", Message: message}
	case "reject":
		return Rejected{ReasonCode: "OFFER_DECLINED"}
	default:
		// Unknown action from the model: treat as a counter at list price
		// rather than failing the negotiation.
		return Countered{ProposedPrice: item.BasePrice, ReasonCode: "COUNTER_OFFER", Message: message}
	}
}

// scrubFloor removes any literal rendering of the floor price from model
// text. Belt and braces on top of the prompt instruction.
func scrubFloor(message string, floor float64) string {
	if message == "" {
		return ""
	}
	for _, rendered := range []string{
		strconv.FormatFloat(floor, 'f', -1, 64),
		strconv.FormatFloat(floor, 'f', 2, 64),
	} {
		if strings.Contains(message, rendered) {
			return ""
		}
	}
	return message
}
