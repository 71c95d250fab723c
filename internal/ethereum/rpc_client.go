package ethereum

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// DefaultTimeout bounds a single JSON-RPC round trip.
const DefaultTimeout = 30 * time.Second

// HTTPClient implements Reader and Writer over HTTP JSON-RPC 2.0.
// Failed calls surface to the caller as-is; re-sync on the next block is the
// recovery path, so the client never retries.
type HTTPClient struct {
	endpoint     string
	client       *http.Client
	auctionHouse common.Address
	curator      common.Address
	requestID    atomic.Uint64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a JSON-RPC client bound to the auction house and
// curator contract addresses.
func NewHTTPClient(endpoint string, auctionHouse, curator common.Address, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:     endpoint,
		client:       &http.Client{Timeout: DefaultTimeout},
		auctionHouse: auctionHouse,
		curator:      curator,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call performs a single JSON-RPC round trip.
func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: HTTP %d", method, resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("unmarshal result: %w", err)
		}
	}
	return nil
}

// firstVal returns the sole unpacked value, or nil when the arity is off.
func firstVal(vals []interface{}) interface{} {
	if len(vals) != 1 {
		return nil
	}
	return vals[0]
}

// blockParam encodes a block reference; 0 selects the latest block.
func blockParam(block uint64) string {
	if block == 0 {
		return "latest"
	}
	return hexutil.EncodeUint64(block)
}

// ethCall executes a read-only contract call at the given block and returns
// the raw return data.
func (c *HTTPClient) ethCall(ctx context.Context, to common.Address, input []byte, block uint64) ([]byte, error) {
	msg := map[string]string{
		"to":   to.Hex(),
		"data": hexutil.Encode(input),
	}

	var result string
	if err := c.call(ctx, "eth_call", []interface{}{msg, blockParam(block)}, &result); err != nil {
		return nil, err
	}
	out, err := hexutil.Decode(result)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTuple, err)
	}
	return out, nil
}

// BlockNumber returns the node's latest block number.
func (c *HTTPClient) BlockNumber(ctx context.Context) (uint64, error) {
	var result string
	if err := c.call(ctx, "eth_blockNumber", nil, &result); err != nil {
		return 0, err
	}
	return hexutil.DecodeUint64(result)
}

// GetAuction retrieves and decodes the raw auction tuple.
func (c *HTTPClient) GetAuction(ctx context.Context, id uint64, block uint64) (*RawAuction, error) {
	input, err := houseABI.Pack("getAuction", new(big.Int).SetUint64(id))
	if err != nil {
		return nil, fmt.Errorf("pack getAuction: %w", err)
	}

	out, err := c.ethCall(ctx, c.auctionHouse, input, block)
	if err != nil {
		return nil, err
	}

	vals, err := houseABI.Unpack("getAuction", out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTuple, err)
	}
	return decodeRawAuction(vals)
}

// GetAuctionsCount retrieves the total number of auctions at a block.
func (c *HTTPClient) GetAuctionsCount(ctx context.Context, block uint64) (uint64, error) {
	input, err := houseABI.Pack("getAuctionsCount")
	if err != nil {
		return 0, fmt.Errorf("pack getAuctionsCount: %w", err)
	}

	out, err := c.ethCall(ctx, c.auctionHouse, input, block)
	if err != nil {
		return 0, err
	}

	vals, err := houseABI.Unpack("getAuctionsCount", out)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedTuple, err)
	}
	count, ok := asBigInt(firstVal(vals), true)
	if !ok || !count.IsUint64() {
		return 0, fmt.Errorf("%w: bad count", ErrMalformedTuple)
	}
	return count.Uint64(), nil
}

// GetBid retrieves the amount escrowed for an account on an auction.
func (c *HTTPClient) GetBid(ctx context.Context, id uint64, account common.Address, block uint64) (*big.Int, error) {
	input, err := houseABI.Pack("getBid", new(big.Int).SetUint64(id), account)
	if err != nil {
		return nil, fmt.Errorf("pack getBid: %w", err)
	}

	out, err := c.ethCall(ctx, c.auctionHouse, input, block)
	if err != nil {
		return nil, err
	}

	vals, err := houseABI.Unpack("getBid", out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTuple, err)
	}
	amount, ok := asBigInt(firstVal(vals), true)
	if !ok {
		return nil, fmt.Errorf("%w: bad bid amount", ErrMalformedTuple)
	}
	return amount, nil
}

// AssetData resolves a token id to its metadata content identifier.
func (c *HTTPClient) AssetData(ctx context.Context, tokenID *big.Int, block uint64) (string, error) {
	input, err := assetsABI.Pack("assetData", tokenID)
	if err != nil {
		return "", fmt.Errorf("pack assetData: %w", err)
	}

	out, err := c.ethCall(ctx, c.curator, input, block)
	if err != nil {
		return "", err
	}

	vals, err := assetsABI.Unpack("assetData", out)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedTuple, err)
	}
	data, ok := firstVal(vals).(string)
	if !ok {
		return "", fmt.Errorf("%w: bad asset data", ErrMalformedTuple)
	}
	return data, nil
}

// sendTransaction submits a node-signed transaction and returns its hash.
func (c *HTTPClient) sendTransaction(ctx context.Context, method string, input []byte, opts TxOpts) (common.Hash, error) {
	msg := map[string]string{
		"from": opts.From.Hex(),
		"to":   c.auctionHouse.Hex(),
		"data": hexutil.Encode(input),
	}
	if opts.Value != nil && opts.Value.Sign() > 0 {
		msg["value"] = hexutil.EncodeBig(opts.Value)
	}

	var result string
	if err := c.call(ctx, "eth_sendTransaction", []interface{}{msg}, &result); err != nil {
		return common.Hash{}, fmt.Errorf("%w: %s: %v", ErrTransactionRejected, method, err)
	}
	return common.HexToHash(result), nil
}

// Bid submits a value-bearing bid transaction.
func (c *HTTPClient) Bid(ctx context.Context, id uint64, opts TxOpts) (common.Hash, error) {
	input, err := houseABI.Pack("bid", new(big.Int).SetUint64(id))
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack bid: %w", err)
	}
	return c.sendTransaction(ctx, "bid", input, opts)
}

// WithdrawBalance submits a zero-value withdrawal transaction.
func (c *HTTPClient) WithdrawBalance(ctx context.Context, id uint64, opts TxOpts) (common.Hash, error) {
	input, err := houseABI.Pack("withdrawBalance", new(big.Int).SetUint64(id))
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack withdrawBalance: %w", err)
	}
	return c.sendTransaction(ctx, "withdrawBalance", input, opts)
}
