package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultAddr is where the primary instance listens.
const DefaultAddr = "127.0.0.1:42069"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Only local tools connect; browsers always send an Origin.
		return r.Header.Get("Origin") == ""
	},
}

// NewServer creates the IPC server and starts its hub. generate may be nil,
// in which case generate requests are refused.
func NewServer(generate GenerateFunc) *Server {
	s := &Server{
		clients:    make(map[*WSClient]bool),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
		handlers:   make(map[MessageType]MessageHandler),
		files:      make(chan []string, 16),
		generate:   generate,
		done:       make(chan struct{}),
	}

	// Register message handlers
	s.registerHandlers()

	go s.run()
	return s
}

// Files delivers the paths forwarded by other instances. The editor drains
// it from its update loop.
func (s *Server) Files() <-chan []string {
	return s.files
}

// Handler returns the HTTP handler serving the websocket endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// Start listens on addr and serves in the background. It fails when the
// address is taken, which usually means another instance owns it.
func (s *Server) Start(addr string) (net.Addr, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	s.mu.Lock()
	s.closers = append(s.closers, srv.Close)
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[IPC] server stopped: %v", err)
		}
	}()
	log.Printf("[IPC] listening on ws://%s/ws", l.Addr())
	return l.Addr(), nil
}

// Close stops the hub and any listener started with Start.
func (s *Server) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	s.mu.Lock()
	closers := s.closers
	s.closers = nil
	s.mu.Unlock()

	var errs []error
	for _, c := range closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// run handles the main WebSocket hub logic
func (s *Server) run() {
	for {
		select {
		case client := <-s.register:
			s.clients[client] = true

			// Send acknowledgment
			if !client.trySend(WSMessage{
				Type:      MessageTypeAck,
				Data:      "Connected to editor",
				Timestamp: time.Now(),
			}) {
				client.close()
				delete(s.clients, client)
				continue
			}
			log.Printf("[IPC] client %s connected", client.id)

		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				client.close()
				log.Printf("[IPC] client %s disconnected", client.id)
			}

		case <-s.done:
			for client := range s.clients {
				delete(s.clients, client)
				client.close()
			}
			return
		}
	}
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[IPC] websocket upgrade failed: %v", err)
		return
	}

	client := &WSClient{
		conn:   conn,
		send:   make(chan WSMessage, 64),
		server: s,
		id:     fmt.Sprintf("%d", s.nextID.Add(1)),
	}

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}

	// Start goroutines for reading and writing
	go client.writePump()
	go client.readPump()
}

// trySend queues a message without blocking. It reports false when the
// client is gone or its queue is full.
func (c *WSClient) trySend(message WSMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

func (c *WSClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *WSClient) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				log.Printf("[IPC] error writing to client %s: %v", c.id, err)
				return
			}

		case <-ticker.C:
			// Send ping to keep connection alive
			if err := c.conn.WriteJSON(WSMessage{
				Type:      MessageTypePing,
				Timestamp: time.Now(),
			}); err != nil {
				return
			}
		}
	}
}

// readPump pumps messages from the websocket connection to the hub
func (c *WSClient) readPump() {
	defer func() {
		select {
		case c.server.unregister <- c:
		case <-c.server.done:
		}
		c.conn.Close()
	}()

	for {
		var message WSMessage
		if err := c.conn.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[IPC] websocket error: %v", err)
			}
			break
		}

		// Set timestamp if not provided
		if message.Timestamp.IsZero() {
			message.Timestamp = time.Now()
		}

		// Handle the message
		if err := c.handleMessage(message); err != nil {
			if !c.trySend(WSMessage{
				Type:      MessageTypeError,
				RequestID: message.RequestID,
				Error:     err.Error(),
				Timestamp: time.Now(),
			}) {
				return
			}
		}
	}
}

// handleMessage processes incoming messages from clients
func (c *WSClient) handleMessage(message WSMessage) error {
	handler, exists := c.server.handlers[message.Type]
	if !exists {
		return fmt.Errorf("unknown message type: %s", message.Type)
	}

	return handler(c, message)
}

// registerHandlers registers all message handlers
func (s *Server) registerHandlers() {
	s.handlers[MessageTypeOpenFiles] = s.handleOpenFiles
	s.handlers[MessageTypeGenerate] = s.handleGenerate
}

func (s *Server) reply(client *WSClient, request WSMessage, typ MessageType, data interface{}) error {
	if !client.trySend(WSMessage{
		Type:      typ,
		RequestID: request.RequestID,
		Data:      data,
		Timestamp: time.Now(),
	}) {
		return fmt.Errorf("client %s is not accepting messages", client.id)
	}
	return nil
}

func (s *Server) handleOpenFiles(client *WSClient, message WSMessage) error {
	var data OpenFilesData
	if err := parseMessageData(message.Data, &data); err != nil {
		return err
	}
	if len(data.Paths) == 0 {
		return fmt.Errorf("no files to open")
	}
	for _, p := range data.Paths {
		if !filepath.IsAbs(p) {
			return fmt.Errorf("path %q is not absolute", p)
		}
	}

	select {
	case s.files <- data.Paths:
	case <-s.done:
		return fmt.Errorf("editor is shutting down")
	}
	log.Printf("[IPC] client %s forwarded %d file(s)", client.id, len(data.Paths))
	return s.reply(client, message, MessageTypeAck, len(data.Paths))
}

func (s *Server) handleGenerate(client *WSClient, message WSMessage) error {
	if s.generate == nil {
		return fmt.Errorf("code generation is not available")
	}
	var data GenerateData
	if err := parseMessageData(message.Data, &data); err != nil {
		return err
	}
	if data.Path == "" {
		return fmt.Errorf("missing path")
	}
	code, err := s.generate(data.Path)
	if err != nil {
		return err
	}
	return s.reply(client, message, MessageTypeCode, CodeData{Path: data.Path, Code: code})
}

// parseMessageData parses message data into the specified struct
func parseMessageData(data interface{}, target interface{}) error {
	// Convert to JSON and back to ensure proper type conversion
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %v", err)
	}

	if err := json.Unmarshal(jsonData, target); err != nil {
		return fmt.Errorf("failed to unmarshal data: %v", err)
	}

	return nil
}
