package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrdesk/internal/db/dbtest"
)

func TestRecordAndPage(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.New(t)

	for i := 0; i < 5; i++ {
		Record(ctx, gdb, Entry{OrgID: 1, MemberID: 2, Initiator: "Alice", Action: fmt.Sprintf("leave.approve.%d", i), ResourceType: "leave_request", ResourceID: int64(i)})
	}
	Record(ctx, gdb, Entry{OrgID: 1, Initiator: "kiosk", Action: "device.register", ResourceType: "device", Meta: map[string]any{"name": "lobby"}})
	Record(ctx, gdb, Entry{OrgID: 2, Action: "project.delete"})

	page, next, err := List(ctx, gdb, 1, 0, 4, "")
	require.NoError(t, err)
	require.Len(t, page, 4)
	require.NotNil(t, next)
	assert.Equal(t, "device.register", page[0].Action)
	var meta map[string]any
	require.NoError(t, json.Unmarshal(page[0].Metadata, &meta))
	assert.Equal(t, "lobby", meta["name"])

	rest, next, err := List(ctx, gdb, 1, *next, 4, "")
	require.NoError(t, err)
	assert.Len(t, rest, 2)
	assert.Nil(t, next)
	assert.Less(t, rest[0].ID, page[3].ID)

	found, _, err := List(ctx, gdb, 1, 0, 0, "device")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	none, _, err := List(ctx, gdb, 3, 0, 10, "")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
