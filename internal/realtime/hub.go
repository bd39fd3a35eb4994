package realtime

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"hrdesk/internal/rbac"
)

var (
	ErrUnknownTable = errors.New("unknown table")
	ErrClosed       = errors.New("session closed")
)

// Visibility decides whether a member without the manage capability may see
// a row.
type Visibility func(row map[string]any, memberID int64) bool

// OwnedBy admits rows where any owner column equals the member. When shared
// is set, rows with that column null are visible to everyone.
func OwnedBy(shared string, owners ...string) Visibility {
	return func(row map[string]any, memberID int64) bool {
		if row == nil {
			return false
		}
		me := fmt.Sprint(memberID)
		if shared != "" {
			if v, ok := row[shared]; ok && v == nil {
				return true
			}
		}
		for _, col := range owners {
			if stringify(row[col]) == me {
				return true
			}
		}
		return false
	}
}

// Everyone admits every row of the org.
func Everyone(map[string]any, int64) bool { return true }

type tablePolicy struct {
	manageCap string
	visible   Visibility
}

// Frame is a server to client message.
type Frame struct {
	Op    string       `json:"op"`
	ID    string       `json:"id,omitempty"`
	Event *ChangeEvent `json:"event,omitempty"`
	Error string       `json:"error,omitempty"`
}

// Hub routes change events to the sessions subscribed to them.
type Hub struct {
	mu       sync.RWMutex
	sessions map[*Session]struct{}
	tables   map[string]tablePolicy
	buffer   int
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[*Session]struct{}),
		tables:   make(map[string]tablePolicy),
		buffer:   64,
	}
}

// Register makes a table subscribable.
func (h *Hub) Register(table, manageCap string, visible Visibility) {
	if visible == nil {
		visible = Everyone
	}
	h.mu.Lock()
	h.tables[table] = tablePolicy{manageCap: manageCap, visible: visible}
	h.mu.Unlock()
}

// Attach opens a session for an authenticated member.
func (h *Hub) Attach(orgID, memberID int64, caps rbac.Set) *Session {
	s := &Session{
		ID:       uuid.NewString(),
		OrgID:    orgID,
		MemberID: memberID,
		caps:     caps,
		hub:      h,
		subs:     make(map[string]subscription),
		send:     make(chan Frame, h.buffer),
	}
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Detach removes the session and closes its outbound channel.
func (h *Hub) Detach(s *Session) {
	h.mu.Lock()
	delete(h.sessions, s)
	h.mu.Unlock()
	s.close()
}

// DetachMember closes every session of a member, so the client has to
// reconnect and authenticate again with its current capabilities. It returns
// the number of sessions closed.
func (h *Hub) DetachMember(orgID, memberID int64) int {
	h.mu.Lock()
	var gone []*Session
	for s := range h.sessions {
		if s.OrgID == orgID && s.MemberID == memberID {
			gone = append(gone, s)
			delete(h.sessions, s)
		}
	}
	h.mu.Unlock()
	for _, s := range gone {
		s.close()
	}
	return len(gone)
}

// Sessions reports the number of attached sessions.
func (h *Hub) Sessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Dispatch delivers ev to every matching subscription.
func (h *Hub) Dispatch(ev ChangeEvent) {
	h.mu.RLock()
	policy, ok := h.tables[ev.Table]
	if !ok {
		h.mu.RUnlock()
		return
	}
	targets := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		if s.OrgID == ev.OrgID {
			targets = append(targets, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range targets {
		if !s.caps.Has(policy.manageCap) && !policy.visible(ev.row(), s.MemberID) {
			continue
		}
		s.deliver(ev)
	}
}

func (h *Hub) known(table string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.tables[table]
	return ok
}

type subscription struct {
	table  string
	filter Filter
}

// Session is one client connection with its subscriptions.
type Session struct {
	ID       string
	OrgID    int64
	MemberID int64

	caps rbac.Set
	hub  *Hub

	mu     sync.Mutex
	subs   map[string]subscription
	send   chan Frame
	closed bool
}

func (s *Session) Subscribe(id, table, filter string) error {
	if id == "" {
		return errors.New("subscription id required")
	}
	if !s.hub.known(table) {
		return fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	f, err := ParseFilter(filter)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.subs[id] = subscription{table: table, filter: f}
	return nil
}

func (s *Session) Unsubscribe(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.subs[id]
	delete(s.subs, id)
	return ok
}

// Frames is closed when the session is detached.
func (s *Session) Frames() <-chan Frame { return s.send }

// Send queues a frame without blocking; it reports false when dropped.
func (s *Session) Send(f Frame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offer(f)
}

func (s *Session) offer(f Frame) bool {
	if s.closed {
		return false
	}
	select {
	case s.send <- f:
		return true
	default:
		log.Printf("⚠️ realtime session %s buffer full, dropping %s frame", s.ID, f.Op)
		return false
	}
}

func (s *Session) deliver(ev ChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := ev.row()
	for id, sub := range s.subs {
		if sub.table != ev.Table || !sub.filter.Match(row) {
			continue
		}
		e := ev
		s.offer(Frame{Op: "change", ID: id, Event: &e})
	}
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.subs = nil
	close(s.send)
}
