package blockwatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WatcherConfig configures head watcher transport behavior.
type WatcherConfig struct {
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is the maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// ReadTimeout is the timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is the timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultWatcherConfig returns the default transport configuration.
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// HeadWatcher subscribes to the node's newHeads feed over WebSocket and
// publishes every observed block number into a Subject. It is the single
// writer of the subject.
type HeadWatcher struct {
	endpoint string
	config   WatcherConfig
	subject  *Subject
	logger   *zap.Logger

	conn   *websocket.Conn
	connMu sync.Mutex

	requestID atomic.Uint64
	closed    atomic.Bool
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewHeadWatcher connects to the WebSocket endpoint, subscribes to newHeads
// and starts feeding the subject.
func NewHeadWatcher(ctx context.Context, endpoint string, subject *Subject, logger *zap.Logger, config *WatcherConfig) (*HeadWatcher, error) {
	cfg := DefaultWatcherConfig()
	if config != nil {
		cfg = *config
	}

	w := &HeadWatcher{
		endpoint: endpoint,
		config:   cfg,
		subject:  subject,
		logger:   logger,
		done:     make(chan struct{}),
	}

	if err := w.connect(ctx); err != nil {
		return nil, err
	}

	w.wg.Add(1)
	go w.readLoop()

	return w, nil
}

// connect dials the endpoint and sends the newHeads subscribe request.
func (w *HeadWatcher) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}

	conn, _, err := dialer.DialContext(ctx, w.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	req := wsRequest{
		JSONRPC: "2.0",
		ID:      w.requestID.Add(1),
		Method:  "eth_subscribe",
		Params:  []interface{}{"newHeads"},
	}
	conn.SetWriteDeadline(time.Now().Add(w.config.WriteTimeout))
	if err := conn.WriteJSON(req); err != nil {
		conn.Close()
		return fmt.Errorf("write subscribe: %w", err)
	}

	w.connMu.Lock()
	w.conn = conn
	w.connMu.Unlock()
	return nil
}

// Close stops the watcher. Idempotent.
func (w *HeadWatcher) Close() error {
	if w.closed.Swap(true) {
		return nil
	}

	close(w.done)

	w.connMu.Lock()
	if w.conn != nil {
		w.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		w.conn.Close()
	}
	w.connMu.Unlock()

	w.wg.Wait()
	return nil
}

// readLoop reads subscription messages and reconnects on transport errors.
func (w *HeadWatcher) readLoop() {
	defer w.wg.Done()

	delay := w.config.ReconnectDelay

	for !w.closed.Load() {
		w.connMu.Lock()
		conn := w.conn
		w.connMu.Unlock()

		if conn == nil {
			if !w.reconnect(delay) {
				return
			}
			delay = minDuration(delay*2, w.config.MaxReconnectDelay)
			continue
		}

		conn.SetReadDeadline(time.Now().Add(w.config.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if w.closed.Load() {
				return
			}
			w.logger.Warn("head subscription read failed", zap.Error(err))
			w.connMu.Lock()
			w.conn.Close()
			w.conn = nil
			w.connMu.Unlock()
			continue
		}

		delay = w.config.ReconnectDelay
		w.handleMessage(message)
	}
}

// reconnect waits and re-dials; returns false when the watcher is closed.
func (w *HeadWatcher) reconnect(delay time.Duration) bool {
	select {
	case <-w.done:
		return false
	case <-time.After(delay):
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := w.connect(ctx); err != nil {
		w.logger.Warn("head subscription reconnect failed", zap.Error(err))
	}
	return true
}

func (w *HeadWatcher) handleMessage(message []byte) {
	var notif headNotification
	if err := json.Unmarshal(message, &notif); err != nil || notif.Method != "eth_subscription" {
		// Subscription confirmations and stray responses land here.
		return
	}
	if notif.Params == nil {
		return
	}

	number, err := hexutil.DecodeUint64(notif.Params.Result.Number)
	if err != nil {
		w.logger.Warn("malformed head number", zap.String("number", notif.Params.Result.Number))
		return
	}

	w.subject.Set(number)
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

// WebSocket message types

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type headNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  *headParams `json:"params"`
}

type headParams struct {
	Subscription string     `json:"subscription"`
	Result       headResult `json:"result"`
}

type headResult struct {
	Number string `json:"number"`
	Hash   string `json:"hash"`
}
