package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/action-trace/internal/model"
)

var (
	// ErrDuplicateTrace 同一元组已有 Active 行
	ErrDuplicateTrace = errors.New("trace already active")
	// ErrTraceNotFound 元组上没有 Active 行
	ErrTraceNotFound = errors.New("trace not found")
)

// TraceTuple 流水的逻辑主键
type TraceTuple struct {
	Kind         model.ActionKind
	CreatorID    string
	ResourceType model.ResourceType
	ResourceID   string
	SecondaryID  string
}

// TraceFilter 稀疏过滤条件；零值字段不参与过滤，恒定只查 Active
type TraceFilter struct {
	Kind         model.ActionKind
	CreatorID    string
	ResourceType model.ResourceType
	ResourceID   string
	SecondaryID  *string // nil 表示不过滤
}

// ListOptions 分页与排序；SortBy 走白名单，缺省 created_at desc
type ListOptions struct {
	Offset    int
	Limit     int
	SortBy    string
	SortOrder string
}

type TraceRepository interface {
	// Record 落一条流水：软删行复活（顺带改匿名位），Active 行报 ErrDuplicateTrace
	// 返回值始终带上既有/新建行的 id
	Record(ctx context.Context, t *model.Trace) (string, error)
	// Revoke 撤销并返回被撤销的行，便于调用方免二次查询
	Revoke(ctx context.Context, tuple TraceTuple) (*model.Trace, error)
	Get(ctx context.Context, tuple TraceTuple) (*model.Trace, error)
	Has(ctx context.Context, f TraceFilter) (bool, error)
	Count(ctx context.Context, f TraceFilter) (int64, error)
	List(ctx context.Context, f TraceFilter, opts ListOptions) ([]*model.Trace, int64, error)
	GetByIDs(ctx context.Context, ids []string) ([]*model.Trace, error)
	UpdateAnonymous(ctx context.Context, id string, anonymous bool) error
}

type traceRepository struct {
	db *gorm.DB
}

func NewTraceRepository(db *gorm.DB) TraceRepository { return &traceRepository{db: db} }

func (r *traceRepository) tupleQuery(ctx context.Context, tuple TraceTuple) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Trace{}).
		Where("kind = ? AND creator_id = ? AND resource_type = ? AND resource_id = ? AND secondary_id = ?",
			tuple.Kind, tuple.CreatorID, tuple.ResourceType, tuple.ResourceID, tuple.SecondaryID)
}

func (r *traceRepository) Record(ctx context.Context, t *model.Trace) (string, error) {
	tuple := TraceTuple{Kind: t.Kind, CreatorID: t.CreatorID, ResourceType: t.ResourceType, ResourceID: t.ResourceID, SecondaryID: t.SecondaryID}
	var existing model.Trace
	err := r.tupleQuery(ctx, tuple).First(&existing).Error
	switch {
	case err == nil:
		if existing.Status == model.TraceStatusActive {
			return existing.ID, ErrDuplicateTrace
		}
		// 复活软删行
		res := r.db.WithContext(ctx).Model(&model.Trace{}).
			Where("id = ? AND status = ?", existing.ID, model.TraceStatusDeleted).
			Updates(map[string]any{"status": model.TraceStatusActive, "anonymous": t.Anonymous})
		if res.Error != nil {
			return "", fmt.Errorf("reactivate trace: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// 并发下被别人先复活了
			return existing.ID, ErrDuplicateTrace
		}
		return existing.ID, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return "", fmt.Errorf("lookup trace: %w", err)
	}
	t.ID = uuid.NewString()
	t.Status = model.TraceStatusActive
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		// 唯一键冲突：并发插入输掉的一方视作重复动作
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", ErrDuplicateTrace
		}
		return "", fmt.Errorf("insert trace: %w", err)
	}
	return t.ID, nil
}

func (r *traceRepository) Revoke(ctx context.Context, tuple TraceTuple) (*model.Trace, error) {
	var existing model.Trace
	err := r.tupleQuery(ctx, tuple).Where("status = ?", model.TraceStatusActive).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTraceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup trace: %w", err)
	}
	res := r.db.WithContext(ctx).Model(&model.Trace{}).
		Where("id = ? AND status = ?", existing.ID, model.TraceStatusActive).
		Update("status", model.TraceStatusDeleted)
	if res.Error != nil {
		return nil, fmt.Errorf("revoke trace: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrTraceNotFound
	}
	existing.Status = model.TraceStatusDeleted
	return &existing, nil
}

func (r *traceRepository) Get(ctx context.Context, tuple TraceTuple) (*model.Trace, error) {
	var t model.Trace
	err := r.tupleQuery(ctx, tuple).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTraceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup trace: %w", err)
	}
	return &t, nil
}

func (r *traceRepository) filterQuery(ctx context.Context, f TraceFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Trace{}).Where("status = ?", model.TraceStatusActive)
	if f.Kind != 0 {
		q = q.Where("kind = ?", f.Kind)
	}
	if f.CreatorID != "" {
		q = q.Where("creator_id = ?", f.CreatorID)
	}
	if f.ResourceType != 0 {
		q = q.Where("resource_type = ?", f.ResourceType)
	}
	if f.ResourceID != "" {
		q = q.Where("resource_id = ?", f.ResourceID)
	}
	if f.SecondaryID != nil {
		q = q.Where("secondary_id = ?", *f.SecondaryID)
	}
	return q
}

func (r *traceRepository) Has(ctx context.Context, f TraceFilter) (bool, error) {
	var cnt int64
	if err := r.filterQuery(ctx, f).Limit(1).Count(&cnt).Error; err != nil {
		return false, fmt.Errorf("count trace: %w", err)
	}
	return cnt > 0, nil
}

func (r *traceRepository) Count(ctx context.Context, f TraceFilter) (int64, error) {
	var cnt int64
	if err := r.filterQuery(ctx, f).Count(&cnt).Error; err != nil {
		return 0, fmt.Errorf("count trace: %w", err)
	}
	return cnt, nil
}

// 排序字段白名单，防注入
var traceSortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"id":         "id",
}

func (r *traceRepository) List(ctx context.Context, f TraceFilter, opts ListOptions) ([]*model.Trace, int64, error) {
	var total int64
	if err := r.filterQuery(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count trace: %w", err)
	}
	col, ok := traceSortColumns[opts.SortBy]
	if !ok {
		col = "created_at"
	}
	order := "DESC"
	if opts.SortOrder == "asc" {
		order = "ASC"
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	var rows []*model.Trace
	err := r.filterQuery(ctx, f).
		Order(col + " " + order).
		Offset(opts.Offset).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list trace: %w", err)
	}
	return rows, total, nil
}

func (r *traceRepository) GetByIDs(ctx context.Context, ids []string) ([]*model.Trace, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []*model.Trace
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load traces: %w", err)
	}
	return rows, nil
}

func (r *traceRepository) UpdateAnonymous(ctx context.Context, id string, anonymous bool) error {
	err := r.db.WithContext(ctx).Model(&model.Trace{}).
		Where("id = ?", id).
		Update("anonymous", anonymous).Error
	if err != nil {
		return fmt.Errorf("update trace anonymous: %w", err)
	}
	return nil
}
