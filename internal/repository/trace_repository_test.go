package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/action-trace/internal/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.Trace{}, &model.Remind{}))
	return db
}

func likeTuple(creator, post string) TraceTuple {
	return TraceTuple{Kind: model.KindLike, CreatorID: creator, ResourceType: model.ResourcePost, ResourceID: post}
}

func record(t *testing.T, repo TraceRepository, creator, post string) string {
	t.Helper()
	id, err := repo.Record(context.Background(), &model.Trace{
		Kind: model.KindLike, CreatorID: creator, ResourceType: model.ResourcePost, ResourceID: post,
	})
	require.NoError(t, err)
	return id
}

func TestTraceRecordAndDuplicate(t *testing.T) {
	repo := NewTraceRepository(setupTestDB(t))
	ctx := context.Background()

	id := record(t, repo, "u1", "p1")
	require.NotEmpty(t, id)

	// 重复 do：报错但带回既有 id
	dupID, err := repo.Record(ctx, &model.Trace{
		Kind: model.KindLike, CreatorID: "u1", ResourceType: model.ResourcePost, ResourceID: "p1",
	})
	require.ErrorIs(t, err, ErrDuplicateTrace)
	require.Equal(t, id, dupID)

	// 不同 secondary 是另一个元组
	_, err = repo.Record(ctx, &model.Trace{
		Kind: model.KindLike, CreatorID: "u1", ResourceType: model.ResourcePost, ResourceID: "p1", SecondaryID: "x",
	})
	require.NoError(t, err)
}

func TestTraceRevokeAndReactivate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTraceRepository(db)
	ctx := context.Background()

	id := record(t, repo, "u1", "p1")

	revoked, err := repo.Revoke(ctx, likeTuple("u1", "p1"))
	require.NoError(t, err)
	require.Equal(t, id, revoked.ID)
	require.Equal(t, model.TraceStatusDeleted, revoked.Status)
	require.Equal(t, "p1", revoked.ResourceID)

	// 二次撤销
	_, err = repo.Revoke(ctx, likeTuple("u1", "p1"))
	require.ErrorIs(t, err, ErrTraceNotFound)

	// 复活：复用原行，不新增
	again, err := repo.Record(ctx, &model.Trace{
		Kind: model.KindLike, CreatorID: "u1", ResourceType: model.ResourcePost, ResourceID: "p1", Anonymous: true,
	})
	require.NoError(t, err)
	require.Equal(t, id, again)

	var rows []model.Trace
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, model.TraceStatusActive, rows[0].Status)
	require.True(t, rows[0].Anonymous)
}

func TestTraceHasAndCount(t *testing.T) {
	repo := NewTraceRepository(setupTestDB(t))
	ctx := context.Background()

	record(t, repo, "u1", "p1")
	record(t, repo, "u2", "p1")
	record(t, repo, "u1", "p2")

	has, err := repo.Has(ctx, TraceFilter{Kind: model.KindLike, CreatorID: "u1", ResourceType: model.ResourcePost, ResourceID: "p1"})
	require.NoError(t, err)
	require.True(t, has)

	// creator 省略 = 任何人点过没有
	has, err = repo.Has(ctx, TraceFilter{Kind: model.KindLike, ResourceType: model.ResourcePost, ResourceID: "p1"})
	require.NoError(t, err)
	require.True(t, has)

	has, err = repo.Has(ctx, TraceFilter{Kind: model.KindLike, CreatorID: "u3", ResourceType: model.ResourcePost, ResourceID: "p1"})
	require.NoError(t, err)
	require.False(t, has)

	cnt, err := repo.Count(ctx, TraceFilter{Kind: model.KindLike, ResourceType: model.ResourcePost, ResourceID: "p1"})
	require.NoError(t, err)
	require.EqualValues(t, 2, cnt)

	// 撤销后 Active 过滤生效
	_, err = repo.Revoke(ctx, likeTuple("u2", "p1"))
	require.NoError(t, err)
	cnt, err = repo.Count(ctx, TraceFilter{Kind: model.KindLike, ResourceType: model.ResourcePost, ResourceID: "p1"})
	require.NoError(t, err)
	require.EqualValues(t, 1, cnt)
}

func TestTraceList(t *testing.T) {
	repo := NewTraceRepository(setupTestDB(t))
	ctx := context.Background()

	for _, u := range []string{"u1", "u2", "u3"} {
		record(t, repo, u, "p1")
	}

	rows, total, err := repo.List(ctx,
		TraceFilter{Kind: model.KindLike, ResourceType: model.ResourcePost, ResourceID: "p1"},
		ListOptions{Limit: 2, SortBy: "id", SortOrder: "asc"})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, rows, 2)
	require.Less(t, rows[0].ID, rows[1].ID)

	rows, _, err = repo.List(ctx,
		TraceFilter{Kind: model.KindLike, ResourceType: model.ResourcePost, ResourceID: "p1"},
		ListOptions{Offset: 2, Limit: 2, SortBy: "id", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestTraceUpdateAnonymous(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTraceRepository(db)
	ctx := context.Background()

	id := record(t, repo, "u1", "p1")
	require.NoError(t, repo.UpdateAnonymous(ctx, id, true))

	got, err := repo.Get(ctx, likeTuple("u1", "p1"))
	require.NoError(t, err)
	require.True(t, got.Anonymous)
}
