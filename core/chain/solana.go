// Package chain verifies settlement payments against a Solana RPC node and
// converts fiat prices into on-chain amounts.
package chain

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/btcsuite/btcutil/base58"
)

const (
	lamportsPerSol  = 1e9
	signatureLimit  = 100
	amountTolerance = 1e-4 // 0.01% relative

	memoProgram = "spl-memo"
)

// PaymentProof is the on-chain evidence for a matched transfer.
type PaymentProof struct {
	TransactionHash string
	BlockNumber     string
	FromAddress     string
	ConfirmedAt     time.Time
}

// WatcherConfig wires a Watcher.
type WatcherConfig struct {
	RPCURL          string
	Network         string
	WalletKey       string // base58 secret key, 64 or 32 bytes decoded
	StableTokenMint string
	HTTPClient      *http.Client
	Logger          *slog.Logger
}

// Watcher polls the chain for transfers that settle pending deals. It holds
// only the receiving address; the secret key never leaves config parsing.
type Watcher struct {
	httpClient *http.Client
	endpoint   string
	network    string
	address    string
	stableMint string
	logger     *slog.Logger
}

// NewWatcher derives the receiving address from the configured wallet key.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("chain rpc url required")
	}
	address, err := addressFromKey(cfg.WalletKey)
	if err != nil {
		return nil, err
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		httpClient: httpClient,
		endpoint:   cfg.RPCURL,
		network:    cfg.Network,
		address:    address,
		stableMint: cfg.StableTokenMint,
		logger:     logger,
	}, nil
}

// addressFromKey accepts either a 64-byte secret key (seed plus public key)
// or a bare 32-byte seed, both base58.
func addressFromKey(encoded string) (string, error) {
	raw := base58.Decode(encoded)
	switch len(raw) {
	case ed25519.PrivateKeySize:
		return base58.Encode(raw[ed25519.SeedSize:]), nil
	case ed25519.SeedSize:
		priv := ed25519.NewKeyFromSeed(raw)
		return base58.Encode(priv.Public().(ed25519.PublicKey)), nil
	default:
		return "", fmt.Errorf("wallet key decodes to %d bytes, want %d or %d", len(raw), ed25519.SeedSize, ed25519.PrivateKeySize)
	}
}

// Address returns the base58 receiving address.
func (w *Watcher) Address() string { return w.address }

// Network returns the configured network tag.
func (w *Watcher) Network() string { return w.network }

// VerifyPayment scans recent finalized transactions to the receiving address
// for one that carries the exact memo and credits the expected amount of the
// given currency, within tolerance. It returns (nil, nil) when no matching
// transfer exists yet.
func (w *Watcher) VerifyPayment(ctx context.Context, amount float64, memo, currency string) (*PaymentProof, error) {
	signatures, err := w.recentSignatures(ctx)
	if err != nil {
		return nil, err
	}
	for _, entry := range signatures {
		if len(entry.Err) > 0 && !bytes.Equal(entry.Err, []byte("null")) {
			continue
		}
		tx, err := w.getTransaction(ctx, entry.Signature)
		if err != nil {
			return nil, err
		}
		if tx == nil || !tx.succeeded() {
			continue
		}
		if !tx.hasMemo(memo) {
			continue
		}
		var from string
		var ok bool
		switch currency {
		case "SOL":
			from, ok = tx.matchSolTransfer(w.address, amount)
		case "USDC":
			from, ok = tx.matchTokenTransfer(w.address, w.stableMint, amount)
		default:
			return nil, fmt.Errorf("unsupported settlement currency %q", currency)
		}
		if !ok {
			continue
		}
		confirmedAt := time.Unix(0, 0)
		if tx.BlockTime != nil {
			confirmedAt = time.Unix(*tx.BlockTime, 0).UTC()
		}
		return &PaymentProof{
			TransactionHash: entry.Signature,
			BlockNumber:     fmt.Sprintf("%d", tx.Slot),
			FromAddress:     from,
			ConfirmedAt:     confirmedAt,
		}, nil
	}
	return nil, nil
}

type signatureEntry struct {
	Signature string          `json:"signature"`
	Err       json.RawMessage `json:"err"`
}

func (w *Watcher) recentSignatures(ctx context.Context) ([]signatureEntry, error) {
	params := []any{w.address, map[string]any{"limit": signatureLimit, "commitment": "finalized"}}
	var out []signatureEntry
	if err := w.call(ctx, "getSignaturesForAddress", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (w *Watcher) getTransaction(ctx context.Context, signature string) (*parsedTransaction, error) {
	params := []any{signature, map[string]any{
		"encoding":                       "jsonParsed",
		"commitment":                     "finalized",
		"maxSupportedTransactionVersion": 0,
	}}
	var out *parsedTransaction
	if err := w.call(ctx, "getTransaction", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type jsonRPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type jsonRPCResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *jsonRPCError   `json:"error"`
}

// call performs one JSON-RPC request with a single retry on transport
// failure, jittered to avoid lockstep across replicas.
func (w *Watcher) call(ctx context.Context, method string, params []any, out any) error {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(200+rand.Intn(300)) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		lastErr = w.callOnce(ctx, method, params, out)
		if lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("chain rpc %s: %w", method, lastErr)
}

func (w *Watcher) callOnce(ctx context.Context, method string, params []any, out any) error {
	payload, err := json.Marshal(jsonRPCRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	var rpcResp jsonRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if out == nil || len(rpcResp.Result) == 0 {
		return nil
	}
	return json.Unmarshal(rpcResp.Result, out)
}

type parsedTransaction struct {
	Slot      uint64 `json:"slot"`
	BlockTime *int64 `json:"blockTime"`
	Meta      struct {
		Err               json.RawMessage `json:"err"`
		PreBalances       []uint64        `json:"preBalances"`
		PostBalances      []uint64        `json:"postBalances"`
		PreTokenBalances  []tokenBalance  `json:"preTokenBalances"`
		PostTokenBalances []tokenBalance  `json:"postTokenBalances"`
	} `json:"meta"`
	Transaction struct {
		Message struct {
			AccountKeys  []accountKey        `json:"accountKeys"`
			Instructions []parsedInstruction `json:"instructions"`
		} `json:"message"`
	} `json:"transaction"`
}

type accountKey struct {
	Pubkey string `json:"pubkey"`
}

type parsedInstruction struct {
	Program string          `json:"program"`
	Parsed  json.RawMessage `json:"parsed"`
}

func (t *parsedTransaction) succeeded() bool {
	return len(t.Meta.Err) == 0 || bytes.Equal(t.Meta.Err, []byte("null"))
}

// hasMemo reports whether any memo instruction carries exactly the token.
func (t *parsedTransaction) hasMemo(memo string) bool {
	for _, inst := range t.Transaction.Message.Instructions {
		if inst.Program != memoProgram {
			continue
		}
		var text string
		if err := json.Unmarshal(inst.Parsed, &text); err != nil {
			continue
		}
		if text == memo {
			return true
		}
	}
	return false
}

// matchSolTransfer checks the receiving address gained the expected SOL,
// within tolerance, via the pre/post lamport balances. The sender is
// attributed to the account with the largest balance decrease, which covers
// single-payer transactions and degrades to the fee payer otherwise.
func (t *parsedTransaction) matchSolTransfer(address string, amount float64) (string, bool) {
	keys := t.Transaction.Message.AccountKeys
	if len(t.Meta.PreBalances) != len(keys) || len(t.Meta.PostBalances) != len(keys) {
		return "", false
	}
	received := 0.0
	from := ""
	largestDrop := 0.0
	for i, key := range keys {
		delta := (float64(t.Meta.PostBalances[i]) - float64(t.Meta.PreBalances[i])) / lamportsPerSol
		if key.Pubkey == address {
			received = delta
		} else if delta < largestDrop {
			largestDrop = delta
			from = key.Pubkey
		}
	}
	if !amountMatches(received, amount) {
		return "", false
	}
	return from, true
}

type tokenBalance struct {
	AccountIndex  int    `json:"accountIndex"`
	Mint          string `json:"mint"`
	Owner         string `json:"owner"`
	UITokenAmount struct {
		UIAmount *float64 `json:"uiAmount"`
	} `json:"uiTokenAmount"`
}

func (b tokenBalance) uiAmount() float64 {
	if b.UITokenAmount.UIAmount == nil {
		return 0
	}
	return *b.UITokenAmount.UIAmount
}

// matchTokenTransfer checks the net stable-token credit to the receiving
// owner via the pre/post token balances, the token analogue of the lamport
// check. Only balance deltas count; a transfer instruction paying some other
// account never settles a deal. The sender is the owner with the largest
// balance decrease.
func (t *parsedTransaction) matchTokenTransfer(owner, mint string, amount float64) (string, bool) {
	pre := make(map[int]tokenBalance, len(t.Meta.PreTokenBalances))
	for _, balance := range t.Meta.PreTokenBalances {
		if mint != "" && balance.Mint != mint {
			continue
		}
		pre[balance.AccountIndex] = balance
	}
	received := 0.0
	from := ""
	largestDrop := 0.0
	seen := make(map[int]bool, len(t.Meta.PostTokenBalances))
	for _, post := range t.Meta.PostTokenBalances {
		if mint != "" && post.Mint != mint {
			continue
		}
		seen[post.AccountIndex] = true
		delta := post.uiAmount() - pre[post.AccountIndex].uiAmount()
		if post.Owner == owner {
			received += delta
		} else if delta < largestDrop {
			largestDrop = delta
			from = post.Owner
		}
	}
	// Accounts closed by the transaction appear only in the pre balances.
	for idx, balance := range pre {
		if seen[idx] {
			continue
		}
		delta := -balance.uiAmount()
		if balance.Owner == owner {
			received += delta
		} else if delta < largestDrop {
			largestDrop = delta
			from = balance.Owner
		}
	}
	if !amountMatches(received, amount) {
		return "", false
	}
	return from, true
}

// amountMatches reports whether the credit equals the expected amount within
// a 0.01% relative tolerance, in either direction.
func amountMatches(received, expected float64) bool {
	if expected <= 0 {
		return false
	}
	return math.Abs(received-expected)/expected <= amountTolerance
}
