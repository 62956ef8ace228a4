package resource

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/d60-Lab/action-trace/internal/cache"
	"github.com/d60-Lab/action-trace/internal/model"
)

// contentRow 各内容表映射到的统一形状
type contentRow struct {
	ID       string
	AuthorID string
	ParentID string
	Title    string
	Content  string
	Status   int8
}

type contentLoader func(ctx context.Context, db *gorm.DB, id string) (*contentRow, error)

// contentProvider 内容类资源的通用 Provider；新增资源类型 = 新增一个 loader
type contentProvider struct {
	kind  model.ResourceType
	db    *gorm.DB
	snaps *cache.SnapshotCache
	load  contentLoader
}

func (p *contentProvider) Kind() model.ResourceType { return p.kind }

func (p *contentProvider) Check(ctx context.Context, id string) (*Meta, error) {
	row, err := p.load(ctx, p.db, id)
	if err != nil {
		return nil, err
	}
	if row == nil || row.Status != model.ContentStatusNormal {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, p.kind, id)
	}
	return &Meta{ID: row.ID, OwnerID: row.AuthorID, ParentID: row.ParentID}, nil
}

func (p *contentProvider) Externalize(ctx context.Context, id string) (*View, error) {
	var cached View
	if hit, err := p.snaps.Get(ctx, p.kind, id, &cached); err == nil && hit {
		return &cached, nil
	}
	row, err := p.load(ctx, p.db, id)
	if err != nil {
		return nil, err
	}
	if row == nil || row.Status != model.ContentStatusNormal {
		return deletedStub(p.kind, id), nil
	}
	title := row.Title
	if title == "" {
		title = excerpt(row.Content)
	}
	v := &View{
		ID:       row.ID,
		Type:     p.kind.String(),
		Title:    title,
		Excerpt:  excerpt(row.Content),
		AuthorID: row.AuthorID,
	}
	if err := p.snaps.Set(ctx, p.kind, id, v); err != nil {
		// 快照写失败不影响读路径
		_ = err
	}
	return v, nil
}

// Invalidate 资源状态变更时由归属服务调用，丢弃过期快照
func (p *contentProvider) Invalidate(ctx context.Context, id string) error {
	return p.snaps.Del(ctx, p.kind, id)
}

func loadOne[T any](ctx context.Context, db *gorm.DB, id string, conv func(*T) *contentRow) (*contentRow, error) {
	var rec T
	err := db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	return conv(&rec), nil
}

func NewPostProvider(db *gorm.DB, snaps *cache.SnapshotCache) Provider {
	return &contentProvider{kind: model.ResourcePost, db: db, snaps: snaps,
		load: func(ctx context.Context, db *gorm.DB, id string) (*contentRow, error) {
			return loadOne(ctx, db, id, func(p *model.Post) *contentRow {
				return &contentRow{ID: p.ID, AuthorID: p.AuthorID, Title: p.Title, Content: p.Content, Status: p.Status}
			})
		}}
}

func NewQuestionProvider(db *gorm.DB, snaps *cache.SnapshotCache) Provider {
	return &contentProvider{kind: model.ResourceQuestion, db: db, snaps: snaps,
		load: func(ctx context.Context, db *gorm.DB, id string) (*contentRow, error) {
			return loadOne(ctx, db, id, func(q *model.Question) *contentRow {
				return &contentRow{ID: q.ID, AuthorID: q.AuthorID, Title: q.Title, Content: q.Content, Status: q.Status}
			})
		}}
}

func NewReplyProvider(db *gorm.DB, snaps *cache.SnapshotCache) Provider {
	return &contentProvider{kind: model.ResourceReply, db: db, snaps: snaps,
		load: func(ctx context.Context, db *gorm.DB, id string) (*contentRow, error) {
			return loadOne(ctx, db, id, func(r *model.Reply) *contentRow {
				return &contentRow{ID: r.ID, AuthorID: r.AuthorID, ParentID: r.QuestionID, Content: r.Content, Status: r.Status}
			})
		}}
}

func NewDemandProvider(db *gorm.DB, snaps *cache.SnapshotCache) Provider {
	return &contentProvider{kind: model.ResourceDemand, db: db, snaps: snaps,
		load: func(ctx context.Context, db *gorm.DB, id string) (*contentRow, error) {
			return loadOne(ctx, db, id, func(d *model.Demand) *contentRow {
				return &contentRow{ID: d.ID, AuthorID: d.AuthorID, Title: d.Title, Content: d.Content, Status: d.Status}
			})
		}}
}

func NewConsultProvider(db *gorm.DB, snaps *cache.SnapshotCache) Provider {
	return &contentProvider{kind: model.ResourceConsult, db: db, snaps: snaps,
		load: func(ctx context.Context, db *gorm.DB, id string) (*contentRow, error) {
			return loadOne(ctx, db, id, func(c *model.Consult) *contentRow {
				return &contentRow{ID: c.ID, AuthorID: c.AuthorID, Title: c.Title, Content: c.Content, Status: c.Status}
			})
		}}
}

func NewCommentProvider(db *gorm.DB, snaps *cache.SnapshotCache) Provider {
	return &contentProvider{kind: model.ResourceComment, db: db, snaps: snaps,
		load: func(ctx context.Context, db *gorm.DB, id string) (*contentRow, error) {
			return loadOne(ctx, db, id, func(c *model.Comment) *contentRow {
				return &contentRow{ID: c.ID, AuthorID: c.AuthorID, ParentID: c.TargetID, Content: c.Content, Status: c.Status}
			})
		}}
}
