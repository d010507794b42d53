package connection

import "errors"

var (
	ErrNotFound      = errors.New("connection not found")
	ErrAlreadyExists = errors.New("connection already exists")
)

// Conn is the part of *websocket.Conn the repository needs.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}
