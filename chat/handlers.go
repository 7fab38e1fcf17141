package chat

import (
	"net/http"
	"sort"

	"farm2market/globals"
	"farm2market/models"
	"farm2market/store"
	"farm2market/utils"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	Store      *store.Store
	Dispatcher *Dispatcher
}

func NewHandler(s *store.Store, d *Dispatcher) *Handler {
	return &Handler{Store: s, Dispatcher: d}
}

// SendMessage is the HTTP fallback for clients without a live socket.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	senderID, ok := r.Context().Value(globals.UserIDKey).(string)
	if !ok || senderID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseForm(); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid form")
		return
	}
	receiverID := r.FormValue("receiver_id")
	content := r.FormValue("content")
	if receiverID == "" || content == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "receiver_id and content are required")
		return
	}

	msg := h.Dispatcher.Send(senderID, receiverID, content)
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"success": true, "data": msg})
}

// GetConversation returns every message exchanged between the caller
// and the other user, oldest first.
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := r.Context().Value(globals.UserIDKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	otherID := ps.ByName("userid")

	messages := h.Store.Messages.Scan(func(m models.Message) bool {
		return (m.SenderID == userID && m.ReceiverID == otherID) ||
			(m.SenderID == otherID && m.ReceiverID == userID)
	})
	sort.Slice(messages, func(i, j int) bool { return messages[i].Timestamp.Before(messages[j].Timestamp) })

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "messages": messages})
}
