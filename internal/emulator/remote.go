package emulator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jwebster45206/questline/pkg/gamemap"
	"github.com/jwebster45206/questline/pkg/grid"
)

const (
	defaultCallTimeout = 15 * time.Second
	keepAliveInterval  = 30 * time.Second
	reconnectDelay     = 5 * time.Second
)

// wsRequest is one command frame sent to the bridge.
type wsRequest struct {
	ID     string         `json:"id"`
	Type   string         `json:"type"` // "command" or "ping"
	Action string         `json:"action,omitempty"`
	Params map[string]any `json:"params,omitempty"`
}

// wsResponse is one frame received from the bridge.
type wsResponse struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"` // "response", "pong" or "error"
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Remote talks to an emulator bridge over a websocket. Commands are
// request/response frames correlated by id; the bridge may interleave
// responses, so replies are routed through per-request channels.
type Remote struct {
	url     string
	logger  *slog.Logger
	timeout time.Duration

	mu        sync.RWMutex // protects conn and connected
	conn      *websocket.Conn
	connected bool

	pendingMu sync.Mutex
	pending   map[string]chan wsResponse

	done chan struct{} // closed by Close; stops reconnects
}

var _ Driver = (*Remote)(nil)

// NewRemote creates a remote driver for the bridge at url. Connect must
// be called before use.
func NewRemote(url string, logger *slog.Logger) *Remote {
	return &Remote{
		url:     url,
		logger:  logger,
		timeout: defaultCallTimeout,
		pending: make(map[string]chan wsResponse),
		done:    make(chan struct{}),
	}
}

// Connect dials the bridge and starts the read and keep-alive loops.
func (r *Remote) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, r.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to emulator bridge: %w", err)
	}

	r.mu.Lock()
	r.conn = conn
	r.connected = true
	r.mu.Unlock()

	r.logger.Info("Connected to emulator bridge", "url", r.url)

	go r.listen()
	go r.keepAlive()
	return nil
}

// Close tears down the connection and stops reconnect attempts.
func (r *Remote) Close() error {
	select {
	case <-r.done:
	default:
		close(r.done)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.connected = false
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// IsConnected reports whether the bridge connection is up.
func (r *Remote) IsConnected() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.connected
}

func (r *Remote) listen() {
	for {
		r.mu.RLock()
		conn := r.conn
		r.mu.RUnlock()
		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-r.done:
				return
			default:
			}
			r.logger.Warn("Bridge read failed", "url", r.url, "error", err)
			go r.reconnect()
			return
		}

		var resp wsResponse
		if err := json.Unmarshal(message, &resp); err != nil {
			r.logger.Warn("Failed to parse bridge frame", "error", err)
			continue
		}

		switch resp.Type {
		case "response", "error":
			r.dispatch(resp)
		case "pong":
			// Heartbeat reply, nothing to route.
		default:
			r.logger.Debug("Dropping unknown bridge frame", "type", resp.Type)
		}
	}
}

// dispatch routes a correlated response to its waiting caller.
func (r *Remote) dispatch(resp wsResponse) {
	if resp.ID == "" {
		if resp.Type == "error" {
			r.logger.Warn("Bridge error", "message", resp.Message)
		}
		return
	}

	r.pendingMu.Lock()
	ch, ok := r.pending[resp.ID]
	if ok {
		delete(r.pending, resp.ID)
	}
	r.pendingMu.Unlock()

	if ok {
		ch <- resp
	}
}

func (r *Remote) keepAlive() {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
		}

		r.mu.Lock()
		conn := r.conn
		var err error
		if conn != nil {
			err = conn.WriteJSON(wsRequest{Type: "ping"})
		}
		r.mu.Unlock()

		if err != nil {
			r.logger.Warn("Bridge ping failed", "error", err)
			return
		}
	}
}

func (r *Remote) reconnect() {
	r.mu.Lock()
	r.connected = false
	if r.conn != nil {
		r.conn.Close()
	}
	r.mu.Unlock()

	for {
		select {
		case <-r.done:
			return
		case <-time.After(reconnectDelay):
		}

		conn, _, err := websocket.DefaultDialer.Dial(r.url, nil)
		if err != nil {
			r.logger.Warn("Bridge reconnect failed", "url", r.url, "error", err)
			continue
		}

		r.mu.Lock()
		r.conn = conn
		r.connected = true
		r.mu.Unlock()

		r.logger.Info("Reconnected to emulator bridge", "url", r.url)

		go r.listen()
		go r.keepAlive()
		return
	}
}

// call sends one command and decodes its response data into out. A nil
// out discards the data.
func (r *Remote) call(ctx context.Context, action string, params map[string]any, out any) error {
	if !r.IsConnected() {
		return fmt.Errorf("%s: not connected to emulator bridge", action)
	}

	req := wsRequest{
		ID:     uuid.NewString(),
		Type:   "command",
		Action: action,
		Params: params,
	}

	ch := make(chan wsResponse, 1)
	r.pendingMu.Lock()
	r.pending[req.ID] = ch
	r.pendingMu.Unlock()

	unregister := func() {
		r.pendingMu.Lock()
		delete(r.pending, req.ID)
		r.pendingMu.Unlock()
	}

	r.mu.Lock()
	err := r.conn.WriteJSON(req)
	r.mu.Unlock()
	if err != nil {
		unregister()
		return fmt.Errorf("%s: write failed: %w", action, err)
	}

	select {
	case resp := <-ch:
		if resp.Type == "error" || !resp.Success {
			return fmt.Errorf("%s: bridge error: %s", action, resp.Message)
		}
		if out == nil || len(resp.Data) == 0 {
			return nil
		}
		if err := json.Unmarshal(resp.Data, out); err != nil {
			return fmt.Errorf("%s: failed to decode response: %w", action, err)
		}
		return nil
	case <-ctx.Done():
		unregister()
		return fmt.Errorf("%s: %w", action, ctx.Err())
	case <-time.After(r.timeout):
		unregister()
		return fmt.Errorf("%s: timeout waiting for bridge response", action)
	}
}

func (r *Remote) ReadByte(ctx context.Context, addr uint16) (byte, error) {
	var data struct {
		Value int `json:"value"`
	}
	if err := r.call(ctx, "read_byte", map[string]any{"addr": addr}, &data); err != nil {
		return 0, err
	}
	return byte(data.Value), nil
}

func (r *Remote) ReadBytes(ctx context.Context, addr uint16, n int) ([]byte, error) {
	var data struct {
		Values []int `json:"values"`
	}
	if err := r.call(ctx, "read_bytes", map[string]any{"addr": addr, "n": n}, &data); err != nil {
		return nil, err
	}
	if len(data.Values) != n {
		return nil, fmt.Errorf("read_bytes: expected %d bytes, got %d", n, len(data.Values))
	}
	out := make([]byte, n)
	for i, v := range data.Values {
		out[i] = byte(v)
	}
	return out, nil
}

func (r *Remote) TileMap(ctx context.Context) (*[grid.NativeRows][grid.NativeCols]byte, error) {
	return r.screenBytes(ctx, "tile_map")
}

func (r *Remote) SpriteTiles(ctx context.Context) (*[grid.NativeRows][grid.NativeCols]byte, error) {
	return r.screenBytes(ctx, "sprite_tiles")
}

func (r *Remote) screenBytes(ctx context.Context, action string) (*[grid.NativeRows][grid.NativeCols]byte, error) {
	var data struct {
		Rows [][]int `json:"rows"`
	}
	if err := r.call(ctx, action, nil, &data); err != nil {
		return nil, err
	}
	var out [grid.NativeRows][grid.NativeCols]byte
	if len(data.Rows) != grid.NativeRows {
		return nil, fmt.Errorf("%s: expected %d rows, got %d", action, grid.NativeRows, len(data.Rows))
	}
	for y, row := range data.Rows {
		if len(row) != grid.NativeCols {
			return nil, fmt.Errorf("%s: row %d: expected %d cols, got %d", action, y, grid.NativeCols, len(row))
		}
		for x, v := range row {
			out[y][x] = byte(v)
		}
	}
	return &out, nil
}

func (r *Remote) WalkableTiles(ctx context.Context) ([]byte, error) {
	var data struct {
		Tiles []int `json:"tiles"`
	}
	if err := r.call(ctx, "walkable_tiles", nil, &data); err != nil {
		return nil, err
	}
	out := make([]byte, len(data.Tiles))
	for i, v := range data.Tiles {
		out[i] = byte(v)
	}
	return out, nil
}

func (r *Remote) Sprites(ctx context.Context) ([]Sprite, error) {
	var data struct {
		Sprites []Sprite `json:"sprites"`
	}
	if err := r.call(ctx, "sprites", nil, &data); err != nil {
		return nil, err
	}
	return data.Sprites, nil
}

func (r *Remote) CurrentMap(ctx context.Context) (gamemap.ID, error) {
	var data struct {
		Map int `json:"map"`
	}
	if err := r.call(ctx, "current_map", nil, &data); err != nil {
		return 0, err
	}
	return gamemap.ID(data.Map), nil
}

func (r *Remote) DialogText(ctx context.Context) (string, error) {
	var data struct {
		Text string `json:"text"`
	}
	if err := r.call(ctx, "dialog_text", nil, &data); err != nil {
		return "", err
	}
	return data.Text, nil
}

func (r *Remote) EventFlag(ctx context.Context, name string) (bool, error) {
	var data struct {
		Set bool `json:"set"`
	}
	if err := r.call(ctx, "event_flag", map[string]any{"name": name}, &data); err != nil {
		return false, err
	}
	return data.Set, nil
}

func (r *Remote) StepFrames(ctx context.Context, n int) error {
	return r.call(ctx, "step_frames", map[string]any{"n": n}, nil)
}

func (r *Remote) Press(ctx context.Context, b Button) error {
	return r.call(ctx, "press", map[string]any{"button": string(b)}, nil)
}
