package activity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plp_smartgrade/backend/internal/shared"
)

func TestMemoryRecorderList(t *testing.T) {
	ctx := context.Background()
	rec := &MemoryRecorder{}
	base := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, rec.Record(ctx, shared.ActivityLog{UserID: "admin-1", Action: shared.ActionSubjectCreate, Timestamp: base}))
	require.NoError(t, rec.Record(ctx, shared.ActivityLog{UserID: "stud-1", Action: shared.ActionLogin, Timestamp: base.Add(time.Minute)}))
	require.NoError(t, rec.Record(ctx, shared.ActivityLog{UserID: "admin-1", Action: shared.ActionScoreRecord, Timestamp: base.Add(2 * time.Minute)}))

	all, err := rec.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, shared.ActionScoreRecord, all[0].Action, "newest first")
	assert.NotEmpty(t, all[0].ID)

	admin, err := rec.List(ctx, Filter{UserID: "admin-1", Limit: 1})
	require.NoError(t, err)
	require.Len(t, admin, 1)
	assert.Equal(t, shared.ActionScoreRecord, admin[0].Action)

	logins, err := rec.List(ctx, Filter{Action: shared.ActionLogin})
	require.NoError(t, err)
	assert.Len(t, logins, 1)
}

func TestLogNilRecorder(t *testing.T) {
	assert.NotPanics(t, func() {
		Log(context.Background(), nil, "u", shared.ActionLogin, "auth", nil)
	})

	rec := &MemoryRecorder{}
	Log(context.Background(), rec, "u", shared.ActionLogout, "auth", nil)
	assert.Equal(t, []string{shared.ActionLogout}, rec.Actions())
}
