package contracts

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/mr-tron/base58"
	"golang.org/x/time/rate"

	"ariya-backend/config"
	"ariya-backend/metrics"
)

// scanPageSize is the page size for history scans; the node caps it at 50.
const scanPageSize = 50

var (
	ErrFinalityTimeout = errors.New("transaction not confirmed before timeout")
	ErrNoCoin          = errors.New("no coin with sufficient balance")
)

// TransportError is a failed call to the full node, as opposed to a call
// that succeeded and found nothing.
type TransportError struct {
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("rpc %s: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Client talks JSON-RPC to a Sui full node. It is safe for concurrent use.
type Client struct {
	rpc             *rpc.Client
	limiter         *rate.Limiter
	timeout         time.Duration
	scanWindow      int
	finalityTimeout time.Duration
	pollInterval    time.Duration

	// initial shared versions never change, so they are cached
	sharedVersions sync.Map
}

// Dial connects to the node configured in cfg.
func Dial(ctx context.Context, cfg config.ChainConfig) (*Client, error) {
	c, err := rpc.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sui node: %w", err)
	}
	return NewClient(c, cfg), nil
}

// NewClient wraps an existing rpc client, e.g. an in-process one in tests.
// A zero RPSLimit leaves the client unthrottled.
func NewClient(c *rpc.Client, cfg config.ChainConfig) *Client {
	limit := rate.Inf
	if cfg.RPSLimit > 0 {
		limit = rate.Limit(cfg.RPSLimit)
	}
	return &Client{
		rpc:             c,
		limiter:         rate.NewLimiter(limit, cfg.Burst),
		timeout:         cfg.RequestTimeout,
		scanWindow:      cfg.ScanWindow,
		finalityTimeout: cfg.FinalityTimeout,
		pollInterval:    cfg.PollInterval,
	}
}

func (c *Client) Close() { c.rpc.Close() }

func (c *Client) call(ctx context.Context, result any, method string, args ...any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		metrics.RPCRequests.WithLabelValues(method, "throttled").Inc()
		return &TransportError{Method: method, Err: err}
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	err := c.rpc.CallContext(ctx, result, method, args...)
	metrics.RPCDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RPCRequests.WithLabelValues(method, "error").Inc()
		return &TransportError{Method: method, Err: err}
	}
	metrics.RPCRequests.WithLabelValues(method, "ok").Inc()
	return nil
}

// GetObject fetches one object. A missing or deleted object is not an
// error; the response carries Error instead of Data.
func (c *Client) GetObject(ctx context.Context, id Address, opts ObjectDataOptions) (*ObjectResponse, error) {
	var out ObjectResponse
	if err := c.call(ctx, &out, "sui_getObject", id.String(), opts); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetMoveObject fetches an object and returns its Move fields, or
// ErrNotFound when it is missing or not a Move object.
func (c *Client) GetMoveObject(ctx context.Context, id Address) (*ObjectData, MoveFields, error) {
	resp, err := c.GetObject(ctx, id, FullObjectOptions)
	if err != nil {
		return nil, nil, err
	}
	data, fields, ok := resp.MoveObject()
	if !ok {
		if resp.Error != nil {
			return nil, nil, fmt.Errorf("%w: object %s: %s", ErrNotFound, id, resp.Error.Code)
		}
		return nil, nil, fmt.Errorf("%w: object %s has no move content", ErrNotFound, id)
	}
	return data, fields, nil
}

func (c *Client) GetTransactionBlock(ctx context.Context, digest string, opts TransactionBlockOptions) (*TransactionBlock, error) {
	var out TransactionBlock
	if err := c.call(ctx, &out, "sui_getTransactionBlock", digest, opts); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) QueryTransactionBlocks(ctx context.Context, q TransactionBlockQuery, cursor *string, limit int, descending bool) (*TransactionBlockPage, error) {
	var out TransactionBlockPage
	if err := c.call(ctx, &out, "suix_queryTransactionBlocks", q, cursor, limit, descending); err != nil {
		return nil, err
	}
	return &out, nil
}

// ScanFunction walks transactions that called pkg::module::function, newest
// first, until the scan window is used up or visit returns false.
func (c *Client) ScanFunction(ctx context.Context, pkg Address, module, function string, opts TransactionBlockOptions, visit func(TransactionBlock) bool) error {
	q := TransactionBlockQuery{
		Filter: TransactionFilter{MoveFunction: &MoveFunctionFilter{
			Package:  pkg.String(),
			Module:   module,
			Function: function,
		}},
		Options: opts,
	}

	var cursor *string
	seen := 0
	for seen < c.scanWindow {
		limit := scanPageSize
		if left := c.scanWindow - seen; left < limit {
			limit = left
		}
		page, err := c.QueryTransactionBlocks(ctx, q, cursor, limit, true)
		if err != nil {
			return err
		}
		metrics.ScannedTransactions.WithLabelValues(module + "::" + function).Add(float64(len(page.Data)))
		for _, tx := range page.Data {
			seen++
			if !visit(tx) {
				return nil
			}
		}
		if !page.HasNextPage || page.NextCursor == nil || len(page.Data) == 0 {
			return nil
		}
		cursor = page.NextCursor
	}
	return nil
}

// ScanEvents is ScanFunction over the events of matching transactions.
func (c *Client) ScanEvents(ctx context.Context, pkg Address, module, function string, visit func(TransactionBlock, SuiEvent) bool) error {
	return c.ScanFunction(ctx, pkg, module, function, TransactionBlockOptions{ShowEvents: true, ShowInput: true}, func(tx TransactionBlock) bool {
		for _, ev := range tx.Events {
			if !visit(tx, ev) {
				return false
			}
		}
		return true
	})
}

func (c *Client) GetOwnedObjects(ctx context.Context, owner Address, q OwnedObjectsQuery, cursor *string, limit int) (*OwnedObjectsPage, error) {
	var out OwnedObjectsPage
	if err := c.call(ctx, &out, "suix_getOwnedObjects", owner.String(), q, cursor, limit); err != nil {
		return nil, err
	}
	return &out, nil
}

// OwnedObjectsOfType lists the owner's objects of one struct type, reading
// at most the scan window.
func (c *Client) OwnedObjectsOfType(ctx context.Context, owner Address, structType string) ([]ObjectResponse, error) {
	q := OwnedObjectsQuery{
		Filter:  &ObjectFilter{StructType: structType},
		Options: FullObjectOptions,
	}
	out := []ObjectResponse{}
	var cursor *string
	for len(out) < c.scanWindow {
		page, err := c.GetOwnedObjects(ctx, owner, q, cursor, scanPageSize)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Data...)
		if !page.HasNextPage || page.NextCursor == nil || len(page.Data) == 0 {
			break
		}
		cursor = page.NextCursor
	}
	return out, nil
}

func (c *Client) GetCoins(ctx context.Context, owner Address, coinType string, cursor *string, limit int) (*CoinPage, error) {
	var out CoinPage
	if err := c.call(ctx, &out, "suix_getCoins", owner.String(), coinType, cursor, limit); err != nil {
		return nil, err
	}
	return &out, nil
}

// SUICoinType is the native gas coin.
const SUICoinType = "0x2::sui::SUI"

// SelectCoin returns the owner's first SUI coin holding at least minBalance.
func (c *Client) SelectCoin(ctx context.Context, owner Address, minBalance uint64) (Coin, error) {
	var cursor *string
	for {
		page, err := c.GetCoins(ctx, owner, SUICoinType, cursor, scanPageSize)
		if err != nil {
			return Coin{}, err
		}
		for _, coin := range page.Data {
			if uint64(coin.Balance) >= minBalance {
				return coin, nil
			}
		}
		if !page.HasNextPage || page.NextCursor == nil {
			return Coin{}, fmt.Errorf("%w: need %d MIST", ErrNoCoin, minBalance)
		}
		cursor = page.NextCursor
	}
}

// ResolveObject implements ObjectResolver against the node.
func (c *Client) ResolveObject(ctx context.Context, id Address) (ObjectOwnership, error) {
	if v, ok := c.sharedVersions.Load(id); ok {
		return ObjectOwnership{ID: id, Shared: true, InitialSharedVersion: v.(uint64)}, nil
	}

	resp, err := c.GetObject(ctx, id, ObjectDataOptions{ShowOwner: true})
	if err != nil {
		return ObjectOwnership{}, err
	}
	if resp.Data == nil {
		return ObjectOwnership{}, fmt.Errorf("%w: object %s", ErrNotFound, id)
	}

	own := ObjectOwnership{ID: id, Version: uint64(resp.Data.Version)}
	if resp.Data.Owner != nil && resp.Data.Owner.Shared != nil {
		own.Shared = true
		own.InitialSharedVersion = uint64(resp.Data.Owner.Shared.InitialSharedVersion)
		c.sharedVersions.Store(id, own.InitialSharedVersion)
		return own, nil
	}
	digest, err := base58.Decode(resp.Data.Digest)
	if err != nil {
		return ObjectOwnership{}, fmt.Errorf("failed to decode digest of %s: %w", id, err)
	}
	own.Digest = digest
	return own, nil
}

// DevInspect simulates tx as sender without committing anything.
func (c *Client) DevInspect(ctx context.Context, sender Address, tx *Transaction) (*DevInspectResults, error) {
	kind, err := tx.EncodeKindBase64(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode inspect transaction: %w", err)
	}
	var out DevInspectResults
	if err := c.call(ctx, &out, "sui_devInspectTransactionBlock", sender.String(), kind, nil, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfirmedOptions is what flows need from a finalized transaction.
var ConfirmedOptions = TransactionBlockOptions{ShowEffects: true, ShowEvents: true, ShowObjectChanges: true}

// WaitForTransaction polls until the node knows the transaction or the
// finality timeout passes. A transaction that executed but failed returns
// the block together with an *AbortError.
func (c *Client) WaitForTransaction(ctx context.Context, digest string) (*TransactionBlock, error) {
	ctx, cancel := context.WithTimeout(ctx, c.finalityTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		tx, err := c.GetTransactionBlock(ctx, digest, ConfirmedOptions)
		if err == nil {
			if tx.Effects != nil && !tx.Effects.Status.Success() {
				return tx, ParseAbort(tx.Effects.Status.Error)
			}
			return tx, nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			log.Printf("Transaction %s not confirmed: %v", digest, lastErr)
			return nil, fmt.Errorf("%w: %s: %v", ErrFinalityTimeout, digest, lastErr)
		case <-ticker.C:
		}
	}
}
