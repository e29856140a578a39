// Package stream maintains the persistent websocket channel to the analysis
// backend for low-latency capture/analysis exchange.
package stream

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/user20357/screensage-cloud/internal/capture"
	"github.com/user20357/screensage-cloud/internal/model"
)

// State is the connection state of the channel.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

// Sentinel errors surfaced to callers of Send.
var (
	ErrNotConnected = errors.New("stream: not connected")
	ErrBusy         = errors.New("stream: a request is already in flight")
)

// MessageType tags for the wire protocol.
const (
	typeScreenCapture  = "screen_capture"
	typeAnalysisResult = "analysis_result"
	typeError          = "error"
)

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type capturePayload struct {
	Image     string `json:"image"`
	Timestamp string `json:"timestamp"`
}

// Result is one resolved exchange delivered to the subscriber.
type Result struct {
	Analysis   *model.AnalysisResult
	CapturedAt time.Time
	Err        error
}

// Coordinator owns the websocket channel. There is no automatic reconnect:
// after a close or error the state is disconnected until Connect is called
// again. Results arriving with no matching in-flight request are discarded.
type Coordinator struct {
	url    string
	dialer *websocket.Dialer
	logger *log.Logger

	mu         sync.Mutex
	state      State
	conn       *websocket.Conn
	gen        int // channel generation; bumped on every successful connect
	inFlight   bool
	capturedAt time.Time

	results chan Result
}

// New creates a disconnected coordinator for the given ws:// URL.
func New(url string, logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = log.New(log.Writer(), "stream: ", log.LstdFlags)
	}
	return &Coordinator{
		url:     url,
		dialer:  websocket.DefaultDialer,
		logger:  logger,
		state:   StateDisconnected,
		results: make(chan Result, 16),
	}
}

// State returns the current connection state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Results delivers resolved exchanges in request order for a given channel
// generation.
func (c *Coordinator) Results() <-chan Result {
	return c.results
}

// Connect establishes the channel. Any previous connection is torn down
// first; its in-flight request, if any, is dropped.
func (c *Coordinator) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.state = StateConnecting
	c.inFlight = false
	c.mu.Unlock()

	conn, resp, err := c.dialer.DialContext(ctx, c.url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
		return fmt.Errorf("dial %s: %w", c.url, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.state = StateConnected
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	go c.readLoop(conn, gen)
	return nil
}

// Close tears the channel down. An in-flight request is not aborted remotely;
// its result is discarded on arrival.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateDisconnected
	c.inFlight = false
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// InFlight reports whether a submitted frame is still awaiting its result.
func (c *Coordinator) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Submit transmits a frame tagged with its capture timestamp. It returns
// ErrNotConnected when the channel is down and ErrBusy when a request is
// already outstanding; either way the frame is dropped, never queued.
func (c *Coordinator) Submit(ctx context.Context, frame capture.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateConnected || c.conn == nil {
		return ErrNotConnected
	}
	if c.inFlight {
		return ErrBusy
	}

	data, err := json.Marshal(capturePayload{
		Image:     base64.StdEncoding.EncodeToString(frame.Image),
		Timestamp: frame.CapturedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("encode capture: %w", err)
	}
	msg := envelope{Type: typeScreenCapture, Data: data}
	if err := c.conn.WriteJSON(msg); err != nil {
		// Write failure implies the channel is gone; the read loop
		// observes the same error and flips the state.
		return fmt.Errorf("send capture: %w", err)
	}

	c.inFlight = true
	c.capturedAt = frame.CapturedAt
	return nil
}

func (c *Coordinator) readLoop(conn *websocket.Conn, gen int) {
	for {
		var msg envelope
		if err := conn.ReadJSON(&msg); err != nil {
			c.handleDisconnect(gen, err)
			return
		}
		c.route(gen, msg)
	}
}

func (c *Coordinator) handleDisconnect(gen int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return // an old connection's read loop winding down
	}
	c.state = StateDisconnected
	c.inFlight = false
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		c.logger.Printf("channel closed: %v", err)
	}
}

func (c *Coordinator) route(gen int, msg envelope) {
	switch msg.Type {
	case typeAnalysisResult:
		var result model.AnalysisResult
		if err := json.Unmarshal(msg.Data, &result); err != nil {
			c.logger.Printf("malformed analysis_result: %v", err)
			return
		}
		if err := result.Validate(); err != nil {
			c.logger.Printf("invalid analysis_result: %v", err)
			return
		}
		c.resolve(gen, Result{Analysis: &result})
	case typeError:
		var payload struct {
			Detail string `json:"detail"`
		}
		json.Unmarshal(msg.Data, &payload)
		c.resolve(gen, Result{Err: fmt.Errorf("analysis failed: %s", payload.Detail)})
	default:
		// Unknown message types are ignored.
	}
}

// resolve clears the in-flight marker and hands the result to the subscriber.
// Results with no matching in-flight request (stale generation, duplicate,
// post-disconnect arrival) are discarded without mutating any state.
func (c *Coordinator) resolve(gen int, r Result) {
	c.mu.Lock()
	if gen != c.gen || !c.inFlight {
		c.mu.Unlock()
		c.logger.Printf("discarding result with no in-flight request")
		return
	}
	c.inFlight = false
	r.CapturedAt = c.capturedAt
	c.mu.Unlock()

	select {
	case c.results <- r:
	default:
		// Subscriber is not draining; dropping is preferable to
		// stalling the read loop.
		c.logger.Printf("subscriber slow, dropping result")
	}
}
