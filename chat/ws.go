package chat

import (
	"log"
	"net/http"

	"farm2market/middleware"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type wsFrame struct {
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
}

// ServeWS upgrades the request and pumps inbound frames through the
// dispatcher until the client goes away.
func (d *Dispatcher) ServeWS(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := ps.ByName("userid")
	if userID == "" {
		http.Error(w, "Missing user id", http.StatusBadRequest)
		return
	}

	tokenString := r.Header.Get("Authorization")
	if tokenString == "" {
		// Browser websocket clients cannot set headers; accept the
		// token as a query parameter instead.
		tokenString = "Bearer " + r.URL.Query().Get("token")
	}
	claims, err := middleware.ValidateJWT(tokenString)
	if err != nil || claims.UserID != userID {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Websocket upgrade failed for %s: %v", userID, err)
		return
	}

	d.Register(userID, conn)
	defer func() {
		d.Disconnect(userID, conn)
		conn.Close()
	}()

	for {
		var frame wsFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Websocket read error for %s: %v", userID, err)
			}
			return
		}
		if frame.ReceiverID == "" || frame.Content == "" {
			continue
		}
		d.Send(userID, frame.ReceiverID, frame.Content)
	}
}
