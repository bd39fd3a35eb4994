package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrdesk/internal/rbac"
)

type msg struct {
	ID         int64 `json:"id"`
	SenderID   int64 `json:"sender_id"`
	ReceiverID int64 `json:"receiver_id"`
	IsRead     bool  `json:"is_read"`
}

func newTestHub() *Hub {
	h := NewHub()
	h.Register("messages", "messages:manage", OwnedBy("", "sender_id", "receiver_id"))
	h.Register("events", "events:manage", OwnedBy("member_id", "member_id"))
	return h
}

func mustEvent(t *testing.T, table string, typ EventType, org int64, rec, old any) ChangeEvent {
	t.Helper()
	ev, err := NewEvent(table, typ, org, rec, old)
	require.NoError(t, err)
	return ev
}

func drain(s *Session) []Frame {
	var out []Frame
	for {
		select {
		case f := <-s.Frames():
			out = append(out, f)
		default:
			return out
		}
	}
}

func TestFilterParsing(t *testing.T) {
	f, err := ParseFilter("receiver_id=eq.5")
	require.NoError(t, err)
	assert.Equal(t, Filter{Column: "receiver_id", Value: "5"}, f)

	f, err = ParseFilter("")
	require.NoError(t, err)
	assert.True(t, f.Empty())

	_, err = ParseFilter("receiver_id=gt.5")
	assert.Error(t, err)
	_, err = ParseFilter("=eq.5")
	assert.Error(t, err)
}

func TestDispatchHonoursFilterOrgAndVisibility(t *testing.T) {
	h := newTestHub()
	alice := h.Attach(1, 10, nil)
	bob := h.Attach(1, 20, nil)
	admin := h.Attach(1, 99, rbac.Set{"messages:manage": {}})
	other := h.Attach(2, 10, nil)

	require.NoError(t, alice.Subscribe("inbox", "messages", "receiver_id=eq.10"))
	require.NoError(t, bob.Subscribe("all", "messages", ""))
	require.NoError(t, admin.Subscribe("all", "messages", ""))
	require.NoError(t, other.Subscribe("all", "messages", ""))

	h.Dispatch(mustEvent(t, "messages", Insert, 1, msg{ID: 1, SenderID: 20, ReceiverID: 10}, nil))
	h.Dispatch(mustEvent(t, "messages", Insert, 1, msg{ID: 2, SenderID: 30, ReceiverID: 31}, nil))

	got := drain(alice)
	require.Len(t, got, 1)
	assert.Equal(t, "inbox", got[0].ID)
	assert.Equal(t, "1", stringify(got[0].Event.Record["id"]))

	assert.Len(t, drain(bob), 1, "bob sees his own sent message only")
	assert.Len(t, drain(admin), 2, "manage capability sees every row")
	assert.Empty(t, drain(other), "other orgs never receive events")
}

func TestDeleteMatchesOldRecord(t *testing.T) {
	h := newTestHub()
	s := h.Attach(1, 10, nil)
	require.NoError(t, s.Subscribe("inbox", "messages", "receiver_id=eq.10"))

	h.Dispatch(mustEvent(t, "messages", Delete, 1, nil, msg{ID: 3, SenderID: 20, ReceiverID: 10}))
	got := drain(s)
	require.Len(t, got, 1)
	assert.Equal(t, Delete, got[0].Event.Type)
}

func TestSharedRowsVisibleToEveryone(t *testing.T) {
	h := newTestHub()
	s := h.Attach(1, 10, nil)
	require.NoError(t, s.Subscribe("cal", "events", ""))

	h.Dispatch(mustEvent(t, "events", Insert, 1, map[string]any{"id": 1, "member_id": nil}, nil))
	h.Dispatch(mustEvent(t, "events", Insert, 1, map[string]any{"id": 2, "member_id": 10}, nil))
	h.Dispatch(mustEvent(t, "events", Insert, 1, map[string]any{"id": 3, "member_id": 11}, nil))
	assert.Len(t, drain(s), 2)
}

func TestSubscribeErrorsAndDetach(t *testing.T) {
	h := newTestHub()
	s := h.Attach(1, 10, nil)
	assert.ErrorIs(t, s.Subscribe("x", "salaries", ""), ErrUnknownTable)
	assert.Error(t, s.Subscribe("", "messages", ""))
	assert.Error(t, s.Subscribe("x", "messages", "receiver_id"))

	require.NoError(t, s.Subscribe("x", "messages", ""))
	assert.True(t, s.Unsubscribe("x"))
	assert.False(t, s.Unsubscribe("x"))

	assert.Equal(t, 1, h.Sessions())
	h.Detach(s)
	assert.Equal(t, 0, h.Sessions())
	_, open := <-s.Frames()
	assert.False(t, open)
	assert.ErrorIs(t, s.Subscribe("y", "messages", ""), ErrClosed)
	assert.False(t, s.Send(Frame{Op: "pong"}))
	h.Detach(s) // second detach is a no-op
}

func TestDetachMemberClosesOnlyTheirSessions(t *testing.T) {
	h := newTestHub()
	phone := h.Attach(1, 10, rbac.Set{"messages:manage": {}})
	laptop := h.Attach(1, 10, rbac.Set{"messages:manage": {}})
	peer := h.Attach(1, 11, nil)
	sameIDOtherOrg := h.Attach(2, 10, nil)
	require.NoError(t, phone.Subscribe("m", "messages", ""))

	assert.Equal(t, 2, h.DetachMember(1, 10))
	assert.Equal(t, 2, h.Sessions())
	for _, s := range []*Session{phone, laptop} {
		_, open := <-s.Frames()
		assert.False(t, open)
	}

	h.Dispatch(mustEvent(t, "messages", Insert, 1, msg{ID: 1, SenderID: 11, ReceiverID: 12}, nil))
	assert.False(t, phone.Send(Frame{Op: "pong"}))
	assert.True(t, peer.Send(Frame{Op: "pong"}))
	assert.True(t, sameIDOtherOrg.Send(Frame{Op: "pong"}))
	assert.Zero(t, h.DetachMember(1, 10))
}

func TestSlowSessionDropsInsteadOfBlocking(t *testing.T) {
	h := newTestHub()
	h.buffer = 2
	s := h.Attach(1, 10, nil)
	require.NoError(t, s.Subscribe("x", "messages", ""))

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			h.Dispatch(mustEvent(t, "messages", Insert, 1, msg{ID: int64(i), ReceiverID: 10}, nil))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch blocked on a slow session")
	}
	assert.Len(t, drain(s), 2)
}

func TestBufferFlushPreservesOrder(t *testing.T) {
	h := newTestHub()
	s := h.Attach(1, 10, nil)
	require.NoError(t, s.Subscribe("x", "messages", ""))

	var buf Buffer
	for i := 1; i <= 3; i++ {
		require.NoError(t, buf.Publish(context.Background(), mustEvent(t, "messages", Insert, 1, msg{ID: int64(i), ReceiverID: 10}, nil)))
	}
	assert.Empty(t, drain(s), "nothing is delivered before flush")
	assert.Equal(t, 3, buf.Len())

	require.NoError(t, buf.Flush(context.Background(), Local{Hub: h}))
	got := drain(s)
	require.Len(t, got, 3)
	for i, f := range got {
		assert.Equal(t, stringify(int64(i+1)), stringify(f.Event.Record["id"]))
	}
	assert.Equal(t, 0, buf.Len())
}

func TestDecodeEventKeepsIntegers(t *testing.T) {
	ev := mustEvent(t, "messages", Insert, 1, msg{ID: 1234567, ReceiverID: 10}, nil)
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	back, err := decodeEvent(b)
	require.NoError(t, err)
	assert.Equal(t, "1234567", stringify(back.Record["id"]))
	assert.True(t, Filter{Column: "receiver_id", Value: "10"}.Match(back.Record))
}
