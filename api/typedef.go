package api

import (
	"sync"
	"sync/atomic"
	"time"
)

// WebSocket message types
type MessageType string

const (
	// Outgoing message types (server to client)
	MessageTypeAck   MessageType = "ack"
	MessageTypeError MessageType = "error"
	MessageTypePing  MessageType = "ping"
	MessageTypeCode  MessageType = "code"

	// Incoming message types (client to server)
	MessageTypeOpenFiles MessageType = "open_files"
	MessageTypeGenerate  MessageType = "generate"
)

// Base WebSocket message structure
type WSMessage struct {
	Type      MessageType `json:"type"`
	RequestID string      `json:"request_id,omitempty"` // For correlating responses
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// OpenFilesData asks the primary instance to open scene files.
type OpenFilesData struct {
	Paths []string `json:"paths"`
}

// GenerateData asks for the code of a scene file.
type GenerateData struct {
	Path string `json:"path"`
}

// CodeData answers a generate request.
type CodeData struct {
	Path string `json:"path"`
	Code string `json:"code"`
}

// GenerateFunc produces the code of the scene file at path.
type GenerateFunc func(path string) (string, error)

// Server is the IPC endpoint of the primary editor instance.
type Server struct {
	clients    map[*WSClient]bool
	register   chan *WSClient
	unregister chan *WSClient
	handlers   map[MessageType]MessageHandler
	files      chan []string
	generate   GenerateFunc
	done       chan struct{}
	closeOnce  sync.Once
	nextID     atomic.Uint64

	mu      sync.Mutex
	closers []func() error
}

// WebSocket client representation
type WSClient struct {
	conn   WSConnection
	send   chan WSMessage
	server *Server
	id     string

	mu     sync.Mutex
	closed bool
}

// Interface for WebSocket connection (for easier testing)
type WSConnection interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
	Close() error
}

// Message handler function type
type MessageHandler func(*WSClient, WSMessage) error
