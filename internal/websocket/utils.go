package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds how long one outgoing frame may block.
	writeWait = 10 * time.Second
	// readWait is generous: proctor consoles sit idle between actions and
	// the periodic snapshot pushes keep the connection busy anyway.
	readWait = 5 * time.Minute
)

// WriteTyped sends one typed payload with a write deadline applied.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// WriteError sends an ErrorResponse frame.
func WriteError(conn *websocket.Conn, errMsg string) error {
	return WriteTyped(conn, ErrorResponse{Event: EventError, Error: errMsg})
}

// ReadJSON decodes the next incoming frame with a read deadline applied.
func ReadJSON(conn *websocket.Conn, v interface{}) error {
	conn.SetReadDeadline(time.Now().Add(readWait))
	return conn.ReadJSON(v)
}
