package display

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/muurk/netclock/internal/bus"
	"github.com/muurk/netclock/internal/version"
)

// Client is a display-side connection to the bridge.
type Client struct {
	conn *websocket.Conn

	writeMu sync.Mutex
}

// URL returns the websocket URL of a bridge listening on hostport.
func URL(hostport string) string {
	u := url.URL{Scheme: "ws", Host: hostport, Path: Path}
	return u.String()
}

// Dial connects to the bridge at rawURL. token may be empty when the bridge
// runs without authentication.
func Dial(ctx context.Context, rawURL, token string) (*Client, error) {
	header := http.Header{}
	header.Set("User-Agent", version.UserAgent())
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, rawURL, header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("failed to connect to %s: %w", rawURL, ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to connect to %s: %w", rawURL, err)
	}
	return &Client{conn: conn}, nil
}

// Next blocks until the bridge sends a frame.
func (c *Client) Next() (Frame, error) {
	var f Frame
	if err := c.conn.ReadJSON(&f); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// SetReadDeadline bounds the next Next call. A zero t clears it.
func (c *Client) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

// SendCommand asks the bridge to enqueue cmd. Delivery is not confirmed;
// the bridge answers with an error frame only when the command is refused.
func (c *Client) SendCommand(cmd bus.Command) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(CommandFrame(cmd)); err != nil {
		return fmt.Errorf("failed to send %s: %w", cmd, err)
	}
	return nil
}

// Close sends a close frame and closes the connection.
func (c *Client) Close() error {
	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return c.conn.Close()
}
