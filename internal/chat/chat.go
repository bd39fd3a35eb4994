// Package chat implements direct messages between members of an org.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hrdesk/internal/models"
	"hrdesk/internal/query"
	"hrdesk/internal/store"
)

var (
	ErrEmptyBody   = errors.New("message body is empty")
	ErrSelf        = errors.New("cannot message yourself")
	ErrUnknownPeer = errors.New("receiver is not a member of this organization")
	ErrNotSender   = errors.New("only the sender can delete a message")
	ErrBodyTooLong = fmt.Errorf("message longer than %d bytes", MaxBodyLen)
)

const (
	DefaultPage = 50
	MaxPage     = 200
	MaxBodyLen  = 4000
)

type Service struct {
	Messages *store.Table[models.Message]
	Members  *store.Table[models.Member]
	Now      func() time.Time
}

func New(t *store.Tables) *Service {
	return &Service{Messages: t.Messages, Members: t.Members, Now: time.Now}
}

func (s *Service) Send(ctx context.Context, orgID, senderID, receiverID int64, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}
	if len(body) > MaxBodyLen {
		return nil, ErrBodyTooLong
	}
	if receiverID == senderID {
		return nil, ErrSelf
	}
	if _, err := s.Members.Get(ctx, store.Scope{OrgID: orgID, All: true}, receiverID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnknownPeer
		}
		return nil, err
	}
	msg := &models.Message{SenderID: senderID, ReceiverID: receiverID, Body: body}
	if err := s.Messages.Create(ctx, store.Scope{OrgID: orgID, MemberID: senderID}, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Conversation returns up to limit messages exchanged with peer, oldest
// first. A positive beforeID pages backwards from that message.
func (s *Service) Conversation(ctx context.Context, orgID, me, peer, beforeID int64, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = DefaultPage
	}
	if limit > MaxPage {
		limit = MaxPage
	}
	db := s.Messages.Scoped(ctx, store.Scope{OrgID: orgID, All: true}).
		Where("((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))", me, peer, peer, me)
	if beforeID > 0 {
		db = db.Where("id < ?", beforeID)
	}
	var rows []models.Message
	if err := db.Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("conversation: %w", err)
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	if rows == nil {
		rows = []models.Message{}
	}
	return rows, nil
}

// Unread maps each sender to the number of unread messages it sent me.
func (s *Service) Unread(ctx context.Context, orgID, me int64) (map[int64]int64, error) {
	var counts []struct {
		SenderID int64
		N        int64
	}
	err := s.Messages.Scoped(ctx, store.Scope{OrgID: orgID, All: true}).
		Select("sender_id, COUNT(*) AS n").
		Where("receiver_id = ? AND is_read = ?", me, false).
		Group("sender_id").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("unread counts: %w", err)
	}
	out := make(map[int64]int64, len(counts))
	for _, c := range counts {
		out[c.SenderID] = c.N
	}
	return out, nil
}

// MarkRead marks everything peer sent me as read and returns how many
// messages changed.
func (s *Service) MarkRead(ctx context.Context, orgID, me, peer int64) (int64, error) {
	q := query.Query{}.Eq("receiver_id", me).Eq("sender_id", peer).Eq("is_read", false)
	return s.Messages.UpdateWhere(ctx, store.Scope{OrgID: orgID, MemberID: me}, q, map[string]any{
		"is_read": true,
		"read_at": s.Now(),
	})
}

// Delete removes a message I sent.
func (s *Service) Delete(ctx context.Context, orgID, me, id int64) error {
	scope := store.Scope{OrgID: orgID, MemberID: me}
	msg, err := s.Messages.Get(ctx, scope, id)
	if err != nil {
		return err
	}
	if msg.SenderID != me {
		return ErrNotSender
	}
	return s.Messages.Delete(ctx, scope, id)
}
