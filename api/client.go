package api

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
)

// Client talks to the IPC server of a running editor.
type Client struct {
	conn   *websocket.Conn
	nextID int
}

// Dial connects to the editor listening on addr and waits for its greeting.
func Dial(ctx context.Context, addr string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, "ws://"+addr+"/ws", nil)
	if err != nil {
		return nil, err
	}
	c := &Client{conn: conn}
	hello, err := c.read(ctx)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if hello.Type != MessageTypeAck {
		conn.Close()
		return nil, fmt.Errorf("unexpected greeting %q", hello.Type)
	}
	return c, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) read(ctx context.Context) (WSMessage, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(10 * time.Second)
	}
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return WSMessage{}, err
	}
	var m WSMessage
	err := c.conn.ReadJSON(&m)
	return m, err
}

// request sends a message and waits for the answer carrying the same id.
func (c *Client) request(ctx context.Context, typ MessageType, data interface{}) (WSMessage, error) {
	c.nextID++
	id := strconv.Itoa(c.nextID)
	if err := c.conn.WriteJSON(WSMessage{Type: typ, RequestID: id, Data: data, Timestamp: time.Now()}); err != nil {
		return WSMessage{}, err
	}
	for {
		m, err := c.read(ctx)
		if err != nil {
			return WSMessage{}, err
		}
		if m.RequestID != id {
			continue
		}
		if m.Type == MessageTypeError {
			return m, fmt.Errorf("%s: %s", typ, m.Error)
		}
		return m, nil
	}
}

// OpenFiles asks the editor to open the given scene files.
func (c *Client) OpenFiles(ctx context.Context, paths []string) error {
	abs := make([]string, 0, len(paths))
	for _, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		abs = append(abs, a)
	}
	_, err := c.request(ctx, MessageTypeOpenFiles, OpenFilesData{Paths: abs})
	return err
}

// Generate asks the editor for the generated code of a scene file.
func (c *Client) Generate(ctx context.Context, path string) (string, error) {
	m, err := c.request(ctx, MessageTypeGenerate, GenerateData{Path: path})
	if err != nil {
		return "", err
	}
	var data CodeData
	if err := parseMessageData(m.Data, &data); err != nil {
		return "", err
	}
	return data.Code, nil
}

// ForwardFiles hands paths to the editor at addr, for a second instance
// that is about to exit.
func ForwardFiles(ctx context.Context, addr string, paths []string) error {
	c, err := Dial(ctx, addr)
	if err != nil {
		return fmt.Errorf("connect to running editor: %w", err)
	}
	defer c.Close()
	return c.OpenFiles(ctx, paths)
}
