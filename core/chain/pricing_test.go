package chain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConverterFixedRates(t *testing.T) {
	conv, err := NewConverter(ConverterConfig{UseFixedRates: true, USDPerNative: 100, USDPerStable: 1}, nil)
	require.NoError(t, err)

	sol, err := conv.Convert(160, "SOL")
	require.NoError(t, err)
	require.InDelta(t, 1.6, sol, 1e-9)

	usdc, err := conv.Convert(160, "USDC")
	require.NoError(t, err)
	require.InDelta(t, 160, usdc, 1e-9)

	_, err = conv.Convert(160, "DOGE")
	require.Error(t, err)

	_, err = conv.Convert(-5, "SOL")
	require.Error(t, err)
}

func TestConverterDefaults(t *testing.T) {
	conv, err := NewConverter(ConverterConfig{UseFixedRates: true}, nil)
	require.NoError(t, err)

	sol, err := conv.Convert(100, "SOL")
	require.NoError(t, err)
	require.InDelta(t, 1.0, sol, 1e-9)
}

func TestConverterLiveRequiresSource(t *testing.T) {
	_, err := NewConverter(ConverterConfig{UseFixedRates: false}, nil)
	require.Error(t, err)
}

func TestConverterLiveRates(t *testing.T) {
	now := time.Unix(1717171717, 0)
	oracle := NewOracle(time.Minute)
	oracle.Update("SOL", "feed-a", 98, now)
	oracle.Update("SOL", "feed-b", 100, now)
	oracle.Update("SOL", "feed-c", 102, now)

	conv, err := NewConverter(ConverterConfig{Source: oracle}, func() time.Time { return now })
	require.NoError(t, err)

	sol, err := conv.Convert(200, "SOL")
	require.NoError(t, err)
	require.InDelta(t, 2.0, sol, 1e-9)
}

func TestOracleMedianAndTTL(t *testing.T) {
	now := time.Unix(1717171717, 0)
	oracle := NewOracle(time.Minute)

	_, err := oracle.Price("SOL", now)
	require.ErrorIs(t, err, ErrPriceUnavailable)

	oracle.Update("SOL", "feed-a", 90, now.Add(-2*time.Minute))
	_, err = oracle.Price("SOL", now)
	require.ErrorIs(t, err, ErrPriceUnavailable)

	oracle.Update("SOL", "feed-b", 100, now)
	oracle.Update("SOL", "feed-c", 110, now)
	price, err := oracle.Price("SOL", now)
	require.NoError(t, err)
	require.InDelta(t, 105, price, 1e-9)
}
