package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/bullsgame/internal/api/socket"
)

// Client is an HTTP client for the API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError represents an error response from the API
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an API error
type ErrorResponse struct {
	Error APIError `json:"error"`
}

func (e *APIError) String() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Get performs a GET request and decodes the JSON response into result
func (c *Client) Get(path string, result any) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	// Check for error responses
	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Code != "" {
			return fmt.Errorf("%s", errResp.Error.String())
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// Dial opens a websocket to the server's socket endpoint
func (c *Client) Dial(ctx context.Context) (*SocketClient, error) {
	u, err := url.Parse(c.baseURL + "/socket")
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("connection failed: %w", err)
	}

	sc := &SocketClient{
		conn:     conn,
		messages: make(chan socket.Message, 16),
		done:     make(chan struct{}),
	}
	go sc.readLoop()
	return sc, nil
}

// SocketClient is a websocket connection to the server
type SocketClient struct {
	conn     *websocket.Conn
	messages chan socket.Message
	done     chan struct{}
	err      error

	mu  sync.Mutex
	ref int64
}

// Send writes a request and returns its ref
func (s *SocketClient) Send(typ string, payload any) (int64, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal payload: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ref++
	if err := s.conn.WriteJSON(socket.Request{Ref: s.ref, Type: typ, Payload: raw}); err != nil {
		return 0, fmt.Errorf("send failed: %w", err)
	}
	return s.ref, nil
}

// Messages delivers every message from the server. It is closed when
// the connection ends.
func (s *SocketClient) Messages() <-chan socket.Message {
	return s.messages
}

// Err returns the error that ended the connection, once Messages is closed
func (s *SocketClient) Err() error {
	<-s.done
	return s.err
}

// Close closes the connection
func (s *SocketClient) Close() error {
	s.mu.Lock()
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.mu.Unlock()
	return s.conn.Close()
}

func (s *SocketClient) readLoop() {
	defer close(s.done)
	defer close(s.messages)

	for {
		var msg socket.Message
		if err := s.conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				s.err = err
			}
			return
		}
		s.messages <- msg
	}
}
