package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	return store
}

func testDeal(memo string) *Deal {
	return &Deal{
		ID:               uuid.New(),
		ItemID:           "room-101",
		ItemName:         "Standard Room",
		BuyerDID:         "did:key:aa",
		FinalPrice:       160,
		CryptoAmount:     1.6,
		Currency:         "SOL",
		PaymentMemo:      memo,
		WalletAddress:    "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin",
		Network:          "devnet",
		SecretCiphertext: []byte("ciphertext"),
		Status:           StatusPending,
		ExpiresAt:        time.Now().Add(time.Hour),
	}
}

func TestItemRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	missing, err := store.GetItem(ctx, "nope")
	require.NoError(t, err)
	require.Nil(t, missing)

	require.NoError(t, store.UpsertItem(ctx, &Item{
		ID: "room-101", Name: "Standard Room", BasePrice: 200, FloorPrice: 150, Active: true,
	}))
	item, err := store.GetItem(ctx, "room-101")
	require.NoError(t, err)
	require.Equal(t, 150.0, item.FloorPrice)
	require.True(t, item.Active)
}

func TestCreateDealRejectsDuplicateMemo(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateDeal(ctx, testDeal("memo-one")))
	err := store.CreateDeal(ctx, testDeal("memo-one"))
	require.ErrorIs(t, err, ErrDuplicateMemo)
}

func TestMarkPaidIsAtMostOnce(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	deal := testDeal("memo-two")
	require.NoError(t, store.CreateDeal(ctx, deal))

	const racers = 8
	var wins int32
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := store.MarkPaid(ctx, deal.ID, "5sig", "271828", "4Nd1", time.Now())
			if err != nil {
				return
			}
			if won {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), wins)

	stored, err := store.GetDeal(ctx, deal.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, stored.Status)
	require.Equal(t, "5sig", *stored.TransactionHash)
}

func TestMarkExpiredDoesNotTouchPaid(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	deal := testDeal("memo-three")
	require.NoError(t, store.CreateDeal(ctx, deal))

	won, err := store.MarkPaid(ctx, deal.ID, "5sig", "271828", "4Nd1", time.Now())
	require.NoError(t, err)
	require.True(t, won)

	expired, err := store.MarkExpired(ctx, deal.ID)
	require.NoError(t, err)
	require.False(t, expired)

	stored, err := store.GetDeal(ctx, deal.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, stored.Status)
}

func TestMarkExpiredIdempotent(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	deal := testDeal("memo-four")
	require.NoError(t, store.CreateDeal(ctx, deal))

	won, err := store.MarkExpired(ctx, deal.ID)
	require.NoError(t, err)
	require.True(t, won)

	again, err := store.MarkExpired(ctx, deal.ID)
	require.NoError(t, err)
	require.False(t, again)

	stored, err := store.GetDeal(ctx, deal.ID)
	require.NoError(t, err)
	require.Equal(t, StatusExpired, stored.Status)
}

func TestGetDealMissing(t *testing.T) {
	store := testStore(t)
	deal, err := store.GetDeal(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Nil(t, deal)
}
