package chain

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFeedPollerUpdatesOracle(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"price": 142.5}`))
	}))
	t.Cleanup(good.Close)
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(bad.Close)

	oracle := NewOracle(time.Minute)
	poller := NewFeedPoller(oracle, []Feed{
		{Token: "SOL", Name: "primary", URL: good.URL},
		{Token: "SOL", Name: "backup", URL: bad.URL},
	}, time.Minute, nil, nil)

	// A cancelled context still permits the initial poll.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	poller.Run(ctx)

	price, err := oracle.Price("SOL", time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, 142.5, price)
}

func TestFeedPollerRejectsBadPayloads(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"price": -1}`))
	}))
	t.Cleanup(server.Close)

	oracle := NewOracle(time.Minute)
	poller := NewFeedPoller(oracle, []Feed{{Token: "SOL", Name: "primary", URL: server.URL}}, time.Minute, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	poller.Run(ctx)

	_, err := oracle.Price("SOL", time.Now().UTC())
	require.ErrorIs(t, err, ErrPriceUnavailable)
}
