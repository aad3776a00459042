// Package messaging is the polling inbox between students and administrators.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"plp_smartgrade/backend/internal/activity"
	"plp_smartgrade/backend/internal/shared"
)

const (
	// DefaultConversationLimit bounds a conversation page when none is given
	DefaultConversationLimit = 50
	// MaxConversationLimit is the largest page a caller may ask for
	MaxConversationLimit = 200

	inboxScanLimit = 500
)

// Service sends and lists messages
type Service struct {
	store    Store
	recorder activity.Recorder
	timeout  time.Duration
	now      func() time.Time
}

// NewService creates a messaging Service
func NewService(store Store, recorder activity.Recorder) *Service {
	return &Service{
		store:    store,
		recorder: recorder,
		timeout:  5 * time.Second,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SendInput is a new message
type SendInput struct {
	RecipientID string `json:"recipient_id" validate:"required"`
	Body        string `json:"body" validate:"required,max=2000"`
}

// InboxEntry is the latest message exchanged with one peer
type InboxEntry struct {
	PeerID      string         `json:"peer_id"`
	PeerName    string         `json:"peer_name"`
	PeerRole    string         `json:"peer_role"`
	LastMessage shared.Message `json:"last_message"`
	Unread      int            `json:"unread"`
}

// Send stores a message from sender. Students may only write to administrators.
func (s *Service) Send(ctx context.Context, senderID string, in SendInput) (*shared.Message, error) {
	in.Body = strings.TrimSpace(in.Body)
	if err := shared.ValidateInput(in); err != nil {
		return nil, err
	}
	if in.RecipientID == senderID {
		return nil, fmt.Errorf("%w: cannot message yourself", shared.ErrInvalidInput)
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	sender, err := s.store.GetUser(queryCtx, senderID)
	if err != nil {
		return nil, fmt.Errorf("loading sender: %w", err)
	}
	recipient, err := s.store.GetUser(queryCtx, in.RecipientID)
	if err != nil {
		return nil, fmt.Errorf("loading recipient: %w", err)
	}
	if err := canMessage(sender, recipient); err != nil {
		return nil, err
	}

	msg := &shared.Message{
		ID:          shared.GenerateID("msg"),
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
		Body:        in.Body,
		CreatedAt:   s.now(),
	}
	if err := s.store.InsertMessage(queryCtx, msg); err != nil {
		return nil, fmt.Errorf("storing message: %w", err)
	}

	activity.Log(ctx, s.recorder, sender.ID, shared.ActionMessageSend, msg.ID, map[string]interface{}{
		"recipient_id": recipient.ID,
	})
	return msg, nil
}

// Conversation returns the latest messages between user and peer in
// chronological order
func (s *Service) Conversation(ctx context.Context, userID, peerID string, limit int) ([]shared.Message, error) {
	if peerID == "" {
		return nil, fmt.Errorf("%w: peer is required", shared.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = DefaultConversationLimit
	}
	if limit > MaxConversationLimit {
		limit = MaxConversationLimit
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	msgs, err := s.store.Conversation(queryCtx, userID, peerID, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("loading conversation: %w", err)
	}

	// newest first from the store
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// MarkRead marks every unread message from peer to user as read
func (s *Service) MarkRead(ctx context.Context, userID, peerID string) (int64, error) {
	if peerID == "" {
		return 0, fmt.Errorf("%w: peer is required", shared.ErrInvalidInput)
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.store.MarkRead(queryCtx, userID, peerID, s.now())
	if err != nil {
		return 0, fmt.Errorf("marking messages read: %w", err)
	}
	return n, nil
}

// UnreadCount counts unread messages addressed to user
func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.store.CountUnread(queryCtx, userID)
	if err != nil {
		return 0, fmt.Errorf("counting unread messages: %w", err)
	}
	return n, nil
}

// Inbox lists one entry per peer, most recent conversation first
func (s *Service) Inbox(ctx context.Context, userID string) ([]InboxEntry, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	recent, err := s.store.Recent(queryCtx, userID, inboxScanLimit)
	if err != nil {
		return nil, fmt.Errorf("loading inbox: %w", err)
	}

	var entries []InboxEntry
	index := map[string]int{}
	for _, m := range recent {
		peer := m.RecipientID
		if peer == userID {
			peer = m.SenderID
		}

		i, seen := index[peer]
		if !seen {
			i = len(entries)
			index[peer] = i
			entries = append(entries, InboxEntry{PeerID: peer, LastMessage: m})
		}
		if m.RecipientID == userID && !m.IsRead() {
			entries[i].Unread++
		}
	}

	for i := range entries {
		u, err := s.store.GetUser(queryCtx, entries[i].PeerID)
		if errors.Is(err, shared.ErrNotFound) {
			entries[i].PeerName = "Deleted user"
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loading peer: %w", err)
		}
		entries[i].PeerName = u.Name
		entries[i].PeerRole = u.Role
	}
	return entries, nil
}

func canMessage(sender, recipient *shared.User) error {
	if !sender.IsActive {
		return fmt.Errorf("%w: account is inactive", shared.ErrForbidden)
	}
	if sender.Role == shared.RoleStudent && recipient.Role != shared.RoleAdmin {
		return fmt.Errorf("%w: students may only message administrators", shared.ErrForbidden)
	}
	return nil
}
