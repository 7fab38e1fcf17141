// Package chat carries buyer-farmer messaging: live delivery over
// websockets when the receiver is connected, with every message
// persisted regardless.
package chat

import (
	"log"
	"sync"
	"time"

	"farm2market/models"
	"farm2market/store"
)

// Conn is the writable half of a client connection. *websocket.Conn
// satisfies it.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// client pairs a connection with the mutex that serializes writes to
// it. Websocket connections tolerate at most one concurrent writer.
type client struct {
	conn Conn
	wmu  sync.Mutex
}

func (c *client) writeJSON(v interface{}) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.conn.WriteJSON(v)
}

// Dispatcher tracks one live connection per user and routes messages
// between them.
type Dispatcher struct {
	store *store.Store

	mu    sync.Mutex
	conns map[string]*client
}

func NewDispatcher(s *store.Store) *Dispatcher {
	return &Dispatcher{store: s, conns: make(map[string]*client)}
}

// Register binds a user to a connection. A newer connection replaces
// and closes any older one for the same user.
func (d *Dispatcher) Register(userID string, c Conn) {
	d.mu.Lock()
	old := d.conns[userID]
	d.conns[userID] = &client{conn: c}
	d.mu.Unlock()

	if old != nil && old.conn != c {
		old.conn.Close()
	}
}

// Disconnect removes the user's connection, but only if it is still the
// one passed in. A replacement registered meanwhile stays.
func (d *Dispatcher) Disconnect(userID string, c Conn) {
	d.mu.Lock()
	if cl := d.conns[userID]; cl != nil && cl.conn == c {
		delete(d.conns, userID)
	}
	d.mu.Unlock()
}

// Send persists the message and then delivers it to the receiver's live
// connection if one exists. An offline receiver is not an error: the
// message waits in history. Concurrent sends to the same receiver are
// serialized on the connection's write mutex.
func (d *Dispatcher) Send(senderID, receiverID, content string) models.Message {
	msg := models.Message{
		MessageID:  d.store.NewID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		Timestamp:  d.store.Now(),
	}
	d.store.Messages.Insert(msg.MessageID, msg)

	d.mu.Lock()
	cl := d.conns[receiverID]
	d.mu.Unlock()

	if cl != nil {
		payload := map[string]interface{}{
			"sender_id": senderID,
			"content":   content,
			"timestamp": msg.Timestamp.Format(time.RFC3339),
		}
		if err := cl.writeJSON(payload); err != nil {
			log.Printf("Failed to deliver message to %s: %v", receiverID, err)
		}
	}

	return msg
}
