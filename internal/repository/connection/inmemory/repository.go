package inmemory

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/sharetube/scrollfeed/internal/repository/connection"
)

type entry struct {
	conn connection.Conn
	// gorilla/websocket allows one concurrent writer per connection.
	writeMu sync.Mutex
}

type repo struct {
	connList map[connection.Conn]string
	idList   map[string]*entry
	mu       sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		connList: make(map[connection.Conn]string),
		idList:   make(map[string]*entry),
	}
}

func (r *repo) Add(conn connection.Conn, sessionID string) error {
	funcName := "connection.inmemory.Add"
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Debug(funcName, "session_id", sessionID)
	if _, ok := r.connList[conn]; ok {
		slog.Info(funcName, "error", connection.ErrAlreadyExists)
		return connection.ErrAlreadyExists
	}
	if _, ok := r.idList[sessionID]; ok {
		slog.Info(funcName, "error", connection.ErrAlreadyExists)
		return connection.ErrAlreadyExists
	}

	r.connList[conn] = sessionID
	r.idList[sessionID] = &entry{conn: conn}

	slog.Debug(funcName, "result", "OK")
	return nil
}

func (r *repo) RemoveBySessionID(sessionID string) error {
	funcName := "connection.inmemory.RemoveBySessionID"
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Debug(funcName, "session_id", sessionID)
	e, ok := r.idList[sessionID]
	if !ok {
		slog.Info(funcName, "error", connection.ErrNotFound)
		return connection.ErrNotFound
	}
	e.conn.Close()

	delete(r.connList, e.conn)
	delete(r.idList, sessionID)

	slog.Debug(funcName, "result", "OK")
	return nil
}

// Send writes v to the session's connection, serialized with other writers.
func (r *repo) Send(sessionID string, v any) error {
	r.mu.RLock()
	e, ok := r.idList[sessionID]
	r.mu.RUnlock()
	if !ok {
		return connection.ErrNotFound
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	if err := e.conn.WriteJSON(v); err != nil {
		return fmt.Errorf("failed to write to session %s: %w", sessionID, err)
	}

	return nil
}

// Count reports how many connections this instance holds.
func (r *repo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.idList)
}
