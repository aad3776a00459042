package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"plp_smartgrade/backend/internal/gateway/util"
	"plp_smartgrade/backend/internal/messaging"
	"plp_smartgrade/backend/internal/shared"
)

// MessageService is the part of messaging.Service the handlers call
type MessageService interface {
	Send(ctx context.Context, senderID string, in messaging.SendInput) (*shared.Message, error)
	Conversation(ctx context.Context, userID, peerID string, limit int) ([]shared.Message, error)
	MarkRead(ctx context.Context, userID, peerID string) (int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	Inbox(ctx context.Context, userID string) ([]messaging.InboxEntry, error)
}

// MessageHandler serves the /messages routes for both roles
type MessageHandler struct {
	Messages MessageService
}

// Send handles POST /messages
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	var in messaging.SendInput
	if err := util.DecodeJSON(w, r, &in); err != nil {
		util.HandleError(w, err)
		return
	}
	msg, err := h.Messages.Send(r.Context(), actorID(r), in)
	respond(w, http.StatusCreated, msg, err)
}

// Inbox handles GET /messages/inbox
func (h *MessageHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Messages.Inbox(r.Context(), actorID(r))
	respond(w, http.StatusOK, entries, err)
}

// Unread handles GET /messages/unread
func (h *MessageHandler) Unread(w http.ResponseWriter, r *http.Request) {
	n, err := h.Messages.UnreadCount(r.Context(), actorID(r))
	respond(w, http.StatusOK, map[string]int64{"unread": n}, err)
}

// Conversation handles GET /messages/{peer_id}?limit=
func (h *MessageHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	limit, err := util.QueryInt(r, "limit")
	if err != nil {
		util.HandleError(w, err)
		return
	}
	msgs, err := h.Messages.Conversation(r.Context(), actorID(r), chi.URLParam(r, "peer_id"), limit)
	respond(w, http.StatusOK, msgs, err)
}

// MarkRead handles POST /messages/{peer_id}/read
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.Messages.MarkRead(r.Context(), actorID(r), chi.URLParam(r, "peer_id"))
	respond(w, http.StatusOK, map[string]int64{"marked": n}, err)
}
