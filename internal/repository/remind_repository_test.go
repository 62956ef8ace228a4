package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/action-trace/internal/model"
)

func upsertLike(t *testing.T, repo RemindRepository, traceID, sender, receiver string) {
	t.Helper()
	require.NoError(t, repo.Upsert(context.Background(), traceID, model.KindLike, sender, receiver, model.ResourcePost, ""))
}

func remindStatus(t *testing.T, repo *remindRepository, traceID string) int8 {
	t.Helper()
	var rm model.Remind
	require.NoError(t, repo.db.Where("trace_id = ?", traceID).First(&rm).Error)
	return rm.Status
}

func TestRemindUpsertSelfNoop(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRemindRepository(db)

	require.NoError(t, repo.Upsert(context.Background(), "t1", model.KindLike, "u1", "u1", model.ResourcePost, ""))

	var cnt int64
	require.NoError(t, db.Model(&model.Remind{}).Count(&cnt).Error)
	require.Zero(t, cnt)
}

func TestRemindUpsertAndReflip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRemindRepository(db).(*remindRepository)
	ctx := context.Background()

	upsertLike(t, repo, "t1", "u1", "u2")
	require.Equal(t, model.RemindStatusUnread, remindStatus(t, repo, "t1"))

	// 已读后再次 upsert 翻回未读
	_, err := repo.MarkRead(ctx, RemindFilter{Kind: model.KindLike, ReceiverID: "u2"})
	require.NoError(t, err)
	require.Equal(t, model.RemindStatusRead, remindStatus(t, repo, "t1"))

	upsertLike(t, repo, "t1", "u1", "u2")
	require.Equal(t, model.RemindStatusUnread, remindStatus(t, repo, "t1"))

	// 每条 trace 只有一条提醒
	var cnt int64
	require.NoError(t, db.Model(&model.Remind{}).Count(&cnt).Error)
	require.EqualValues(t, 1, cnt)
}

func TestRemindClear(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRemindRepository(db).(*remindRepository)
	ctx := context.Background()

	upsertLike(t, repo, "t1", "u1", "u2")

	// 错误的 receiver 收窄后不删
	require.NoError(t, repo.Clear(ctx, "t1", "u9"))
	has, err := repo.Has(ctx, "t1", "")
	require.NoError(t, err)
	require.True(t, has)

	require.NoError(t, repo.Clear(ctx, "t1", "u2"))
	has, err = repo.Has(ctx, "t1", "")
	require.NoError(t, err)
	require.False(t, has)
	require.Equal(t, model.RemindStatusDeleted, remindStatus(t, repo, "t1"))
}

func TestRemindCountsAndMarkRead(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRemindRepository(db)
	ctx := context.Background()

	upsertLike(t, repo, "t1", "u1", "r1")
	upsertLike(t, repo, "t2", "u2", "r1")
	require.NoError(t, repo.Upsert(ctx, "t3", model.KindFollow, "u3", "r1", model.ResourceUser, ""))
	upsertLike(t, repo, "t4", "u1", "r2")

	f := RemindFilter{Kind: model.KindLike, ReceiverID: "r1"}
	cnt, err := repo.Count(ctx, f)
	require.NoError(t, err)
	require.EqualValues(t, 2, cnt)

	unread, err := repo.CountUnread(ctx, f)
	require.NoError(t, err)
	require.EqualValues(t, 2, unread)

	// 按资源类型过滤
	cnt, err = repo.Count(ctx, RemindFilter{Kind: model.KindFollow, ReceiverID: "r1", ResourceType: model.ResourceUser})
	require.NoError(t, err)
	require.EqualValues(t, 1, cnt)

	// 批量已读：未读归零，总数不变
	n, err := repo.MarkRead(ctx, f)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	unread, err = repo.CountUnread(ctx, f)
	require.NoError(t, err)
	require.Zero(t, unread)

	cnt, err = repo.Count(ctx, f)
	require.NoError(t, err)
	require.EqualValues(t, 2, cnt)

	// 其他接收者不受影响
	unread, err = repo.CountUnread(ctx, RemindFilter{Kind: model.KindLike, ReceiverID: "r2"})
	require.NoError(t, err)
	require.EqualValues(t, 1, unread)
}

func TestRemindList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRemindRepository(db)
	ctx := context.Background()

	upsertLike(t, repo, "t1", "u1", "r1")
	upsertLike(t, repo, "t2", "u2", "r1")
	require.NoError(t, repo.Clear(ctx, "t2", "r1"))

	rows, total, err := repo.List(ctx, RemindFilter{Kind: model.KindLike, ReceiverID: "r1"}, 0, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, rows, 1)
	require.Equal(t, "t1", rows[0].TraceID)
}
