package strategy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

var testItem = Item{ID: "room-101", Name: "Standard Room", BasePrice: 200, FloorPrice: 150}

func TestRuleStrategy(t *testing.T) {
	s := &RuleStrategy{HighValueThreshold: 1000}
	ctx := context.Background()

	cases := []struct {
		name string
		bid  float64
		want Decision
	}{
		{"below_floor", 100, Countered{ProposedPrice: 150, ReasonCode: "BELOW_FLOOR", Message: "We cannot go that low, but here is our best price."}},
		{"at_floor", 150, Accepted{FinalPrice: 150}},
		{"acceptable", 160, Accepted{FinalPrice: 160}},
		{"at_threshold", 1000, Accepted{FinalPrice: 1000}},
		{"high_value", 1200, UIRequired{TemplateID: "high_value_confirm", Context: map[string]string{"item_name": "Standard Room", "price": "1200"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.Evaluate(ctx, testItem, tc.bid, 0.9, "req_x")
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestFactorySelection(t *testing.T) {
	s, err := New(Config{Name: "rule"})
	require.NoError(t, err)
	require.IsType(t, &RuleStrategy{}, s)

	s, err = New(Config{})
	require.NoError(t, err)
	require.IsType(t, &RuleStrategy{}, s)

	s, err = New(Config{Name: "gpt-4o-mini", LLM: LLMConfig{BaseURL: "http://localhost:1"}})
	require.NoError(t, err)
	require.IsType(t, &LLMStrategy{}, s)

	_, err = New(Config{Name: "gpt-4o-mini"})
	require.Error(t, err)
}

func llmServer(t *testing.T, decision map[string]any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		content, err := json.Marshal(decision)
		require.NoError(t, err)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": string(content)}},
			},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func newLLM(t *testing.T, baseURL string) *LLMStrategy {
	t.Helper()
	s, err := NewLLMStrategy(LLMConfig{BaseURL: baseURL, Model: "gpt-4o-mini", HighValueThreshold: 1000})
	require.NoError(t, err)
	return s
}

func TestLLMStrategyAccept(t *testing.T) {
	server := llmServer(t, map[string]any{"action": "accept", "price": 160.0, "message": "Deal!"})
	s := newLLM(t, server.URL)

	got, err := s.Evaluate(context.Background(), testItem, 160, 0.9, "req_x")
	require.NoError(t, err)
	require.Equal(t, Accepted{FinalPrice: 160}, got)
}

func TestLLMStrategyClampsBelowFloorAccept(t *testing.T) {
	// The model tries to accept under the floor; the engine refuses and
	// counters at the floor instead.
	server := llmServer(t, map[string]any{"action": "accept", "price": 120.0, "message": "ok"})
	s := newLLM(t, server.URL)

	got, err := s.Evaluate(context.Background(), testItem, 120, 0.9, "req_x")
	require.NoError(t, err)
	countered, ok := got.(Countered)
	require.True(t, ok)
	require.Equal(t, 150.0, countered.ProposedPrice)
	require.Equal(t, "BELOW_FLOOR", countered.ReasonCode)
}

func TestLLMStrategyScrubsFloorFromMessage(t *testing.T) {
	server := llmServer(t, map[string]any{
		"action": "counter", "price": 170.0,
		"message": "Our minimum is 150 but let's say 170.",
	})
	s := newLLM(t, server.URL)

	got, err := s.Evaluate(context.Background(), testItem, 140, 0.9, "req_x")
	require.NoError(t, err)
	countered, ok := got.(Countered)
	require.True(t, ok)
	require.NotContains(t, countered.Message, strconv.FormatFloat(testItem.FloorPrice, 'f', -1, 64))
}

func TestLLMStrategyCounterBelowFloorRaisedToFloor(t *testing.T) {
	server := llmServer(t, map[string]any{"action": "counter", "price": 120.0, "message": "How about this"})
	s := newLLM(t, server.URL)

	got, err := s.Evaluate(context.Background(), testItem, 110, 0.9, "req_x")
	require.NoError(t, err)
	countered, ok := got.(Countered)
	require.True(t, ok)
	require.Equal(t, 150.0, countered.ProposedPrice)
}

func TestLLMStrategyReject(t *testing.T) {
	server := llmServer(t, map[string]any{"action": "reject"})
	s := newLLM(t, server.URL)

	got, err := s.Evaluate(context.Background(), testItem, 10, 0.1, "req_x")
	require.NoError(t, err)
	require.Equal(t, Rejected{ReasonCode: "OFFER_DECLINED"}, got)
}

func TestLLMStrategyUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)
	s := newLLM(t, server.URL)

	_, err := s.Evaluate(context.Background(), testItem, 160, 0.9, "req_x")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestLLMStrategyMalformedDecision(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "not json"}},
			},
		})
	}))
	t.Cleanup(server.Close)
	s := newLLM(t, server.URL)

	_, err := s.Evaluate(context.Background(), testItem, 160, 0.9, "req_x")
	require.ErrorIs(t, err, ErrUnavailable)
}
