package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"hrdesk/internal/db/dbtest"
	"hrdesk/internal/models"
	"hrdesk/internal/query"
	"hrdesk/internal/realtime"
)

type recorder struct {
	mu     sync.Mutex
	events []realtime.ChangeEvent
}

func (r *recorder) Publish(_ context.Context, ev realtime.ChangeEvent) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return nil
}

func (r *recorder) types() []realtime.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]realtime.EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

func TestTableScopesByOrgAndOwner(t *testing.T) {
	gdb := dbtest.New(t)
	rec := &recorder{}
	tbl := New[models.Message](gdb, rec, MessageSpec)
	ctx := context.Background()

	org1 := Scope{OrgID: 1, All: true}
	for _, m := range []models.Message{
		{SenderID: 1, ReceiverID: 2, Body: "hi"},
		{SenderID: 2, ReceiverID: 1, Body: "hello"},
		{SenderID: 3, ReceiverID: 4, Body: "private"},
	} {
		m := m
		require.NoError(t, tbl.Create(ctx, org1, &m))
		assert.Equal(t, int64(1), m.OrgID)
	}
	other := models.Message{SenderID: 1, ReceiverID: 2, Body: "other org"}
	require.NoError(t, tbl.Create(ctx, Scope{OrgID: 2}, &other))

	all, err := tbl.List(ctx, org1, query.Query{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := tbl.List(ctx, Scope{OrgID: 1, MemberID: 1}, query.Query{})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	n, err := tbl.Count(ctx, Scope{OrgID: 1, MemberID: 4}, query.Query{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = tbl.Get(ctx, Scope{OrgID: 1, MemberID: 1}, all[2].ID)
	assert.ErrorIs(t, err, ErrNotFound, "rows of other members are invisible")
	_, err = tbl.Get(ctx, org1, other.ID)
	assert.ErrorIs(t, err, ErrNotFound, "rows of other orgs are invisible")

	assert.Equal(t, []realtime.EventType{realtime.Insert, realtime.Insert, realtime.Insert, realtime.Insert}, rec.types())
}

func TestTableUpdateDelete(t *testing.T) {
	gdb := dbtest.New(t)
	rec := &recorder{}
	tbl := New[models.Message](gdb, rec, MessageSpec)
	ctx := context.Background()
	s := Scope{OrgID: 1, All: true}

	m := models.Message{SenderID: 1, ReceiverID: 2, Body: "hi"}
	require.NoError(t, tbl.Create(ctx, s, &m))

	updated, err := tbl.Update(ctx, s, m.ID, map[string]any{"is_read": true})
	require.NoError(t, err)
	assert.True(t, updated.IsRead)

	_, err = tbl.Update(ctx, s, 999, map[string]any{"is_read": true})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, tbl.Delete(ctx, s, m.ID))
	assert.ErrorIs(t, tbl.Delete(ctx, s, m.ID), ErrNotFound)

	evs := rec.events
	require.Len(t, evs, 3)
	assert.Equal(t, realtime.Update, evs[1].Type)
	assert.Equal(t, false, evs[1].Old["is_read"])
	assert.Equal(t, true, evs[1].Record["is_read"])
	assert.Equal(t, realtime.Delete, evs[2].Type)
	assert.Nil(t, evs[2].Record)
	assert.NotNil(t, evs[2].Old)
}

func TestTableBulkOperations(t *testing.T) {
	gdb := dbtest.New(t)
	rec := &recorder{}
	tbl := New[models.Message](gdb, rec, MessageSpec)
	ctx := context.Background()
	s := Scope{OrgID: 1, All: true}

	for i := 0; i < 3; i++ {
		require.NoError(t, tbl.Create(ctx, s, &models.Message{SenderID: 5, ReceiverID: 6, Body: "x"}))
	}
	require.NoError(t, tbl.Create(ctx, s, &models.Message{SenderID: 6, ReceiverID: 5, Body: "y"}))

	n, err := tbl.UpdateWhere(ctx, s, query.Query{}.Eq("sender_id", 5), map[string]any{"is_read": true})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	unread, err := tbl.Count(ctx, s, query.Query{}.Eq("is_read", false))
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	n, err = tbl.DeleteWhere(ctx, s, query.Query{}.Eq("sender_id", 6))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = tbl.UpdateWhere(ctx, s, query.Query{}.Eq("sender_id", 42), map[string]any{"is_read": true})
	require.NoError(t, err)
	assert.Zero(t, n)

	types := rec.types()
	assert.Len(t, types, 4+3+1)
}

func TestWithTxBuffersUntilFlush(t *testing.T) {
	gdb := dbtest.New(t)
	rec := &recorder{}
	tbl := New[models.Project](gdb, rec, ProjectSpec)
	ctx := context.Background()
	s := Scope{OrgID: 1, All: true}

	var buf realtime.Buffer
	err := gdb.Transaction(func(tx *gorm.DB) error {
		return tbl.WithTx(tx, &buf).Create(ctx, s, &models.Project{Name: "Apollo"})
	})
	require.NoError(t, err)
	assert.Empty(t, rec.types())
	require.NoError(t, buf.Flush(ctx, rec))
	assert.Equal(t, []realtime.EventType{realtime.Insert}, rec.types())

	first, err := tbl.First(ctx, s, query.Query{}.Eq("name", "Apollo"))
	require.NoError(t, err)
	assert.Equal(t, "Apollo", first.Name)
	_, err = tbl.First(ctx, s, query.Query{}.Eq("name", "Gemini"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSharedRowsVisibleToAll(t *testing.T) {
	gdb := dbtest.New(t)
	tbl := New[models.Event](gdb, nil, EventSpec)
	ctx := context.Background()
	s := Scope{OrgID: 1, All: true}
	mine, theirs := int64(1), int64(2)

	require.NoError(t, tbl.Create(ctx, s, &models.Event{Title: "All hands"}))
	require.NoError(t, tbl.Create(ctx, s, &models.Event{Title: "1:1", MemberID: &mine}))
	require.NoError(t, tbl.Create(ctx, s, &models.Event{Title: "Review", MemberID: &theirs}))

	rows, err := tbl.List(ctx, Scope{OrgID: 1, MemberID: mine}, query.Query{})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestTablesTxPublishesOnlyOnCommit(t *testing.T) {
	gdb := dbtest.New(t)
	rec := &recorder{}
	tables := NewTables(gdb, rec)
	ctx := context.Background()
	s := Scope{OrgID: 1, All: true}

	err := tables.Tx(ctx, func(tx *Tables) error {
		if err := tx.Projects.Create(ctx, s, &models.Project{Name: "Rollback"}); err != nil {
			return err
		}
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, rec.types())
	n, err := tables.Projects.Count(ctx, s, query.Query{})
	require.NoError(t, err)
	assert.Zero(t, n)

	err = tables.Tx(ctx, func(tx *Tables) error {
		p := models.Project{Name: "Commit"}
		if err := tx.Projects.Create(ctx, s, &p); err != nil {
			return err
		}
		return tx.ProjectTeam.Create(ctx, s, &models.ProjectTeam{ProjectID: p.ID, MemberID: 7})
	})
	require.NoError(t, err)
	assert.Equal(t, []realtime.EventType{realtime.Insert, realtime.Insert}, rec.types())
}
