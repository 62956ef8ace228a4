package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/action-trace/internal/model"
)

// RemindFilter 接收方维度的过滤；ResourceType 为 0 表示全部
type RemindFilter struct {
	Kind         model.ActionKind
	ReceiverID   string
	ResourceType model.ResourceType
}

type RemindRepository interface {
	// Upsert 给自己发提醒直接无视；已有行无论读没读都翻回未读（重新点赞要重新提醒）
	Upsert(ctx context.Context, traceID string, kind model.ActionKind, senderID, receiverID string, rtype model.ResourceType, secondaryID string) error
	// Clear receiverID 非空时收窄查询，防止跨用户误删
	Clear(ctx context.Context, traceID, receiverID string) error
	Has(ctx context.Context, traceID, receiverID string) (bool, error)
	Count(ctx context.Context, f RemindFilter) (int64, error)
	CountUnread(ctx context.Context, f RemindFilter) (int64, error)
	List(ctx context.Context, f RemindFilter, offset, limit int) ([]*model.Remind, int64, error)
	// MarkRead 一条 UPDATE 批量未读转已读，并发投递下不丢更新
	MarkRead(ctx context.Context, f RemindFilter) (int64, error)
}

type remindRepository struct {
	db *gorm.DB
}

func NewRemindRepository(db *gorm.DB) RemindRepository { return &remindRepository{db: db} }

func (r *remindRepository) Upsert(ctx context.Context, traceID string, kind model.ActionKind, senderID, receiverID string, rtype model.ResourceType, secondaryID string) error {
	if senderID == receiverID {
		return nil
	}
	var existing model.Remind
	err := r.db.WithContext(ctx).Where("trace_id = ?", traceID).First(&existing).Error
	switch {
	case err == nil:
		return r.flipUnread(ctx, existing.ID)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("lookup remind: %w", err)
	}
	rm := &model.Remind{
		ID:           uuid.NewString(),
		TraceID:      traceID,
		Kind:         kind,
		SenderID:     senderID,
		ReceiverID:   receiverID,
		ResourceType: rtype,
		SecondaryID:  secondaryID,
		Status:       model.RemindStatusUnread,
	}
	if err := r.db.WithContext(ctx).Create(rm).Error; err != nil {
		// trace_id 唯一键并发冲突：退化为翻未读
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if lErr := r.db.WithContext(ctx).Where("trace_id = ?", traceID).First(&existing).Error; lErr != nil {
				return fmt.Errorf("lookup remind: %w", lErr)
			}
			return r.flipUnread(ctx, existing.ID)
		}
		return fmt.Errorf("insert remind: %w", err)
	}
	return nil
}

func (r *remindRepository) flipUnread(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Model(&model.Remind{}).
		Where("id = ?", id).
		Update("status", model.RemindStatusUnread).Error
	if err != nil {
		return fmt.Errorf("reset remind unread: %w", err)
	}
	return nil
}

func (r *remindRepository) Clear(ctx context.Context, traceID, receiverID string) error {
	q := r.db.WithContext(ctx).Model(&model.Remind{}).
		Where("trace_id = ? AND status <> ?", traceID, model.RemindStatusDeleted)
	if receiverID != "" {
		q = q.Where("receiver_id = ?", receiverID)
	}
	if err := q.Update("status", model.RemindStatusDeleted).Error; err != nil {
		return fmt.Errorf("clear remind: %w", err)
	}
	return nil
}

func (r *remindRepository) Has(ctx context.Context, traceID, receiverID string) (bool, error) {
	q := r.db.WithContext(ctx).Model(&model.Remind{}).
		Where("trace_id = ? AND status <> ?", traceID, model.RemindStatusDeleted)
	if receiverID != "" {
		q = q.Where("receiver_id = ?", receiverID)
	}
	var cnt int64
	if err := q.Limit(1).Count(&cnt).Error; err != nil {
		return false, fmt.Errorf("count remind: %w", err)
	}
	return cnt > 0, nil
}

func (r *remindRepository) filterQuery(ctx context.Context, f RemindFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Remind{}).Where("receiver_id = ?", f.ReceiverID)
	if f.Kind != 0 {
		q = q.Where("kind = ?", f.Kind)
	}
	if f.ResourceType != 0 {
		q = q.Where("resource_type = ?", f.ResourceType)
	}
	return q
}

func (r *remindRepository) Count(ctx context.Context, f RemindFilter) (int64, error) {
	var cnt int64
	err := r.filterQuery(ctx, f).
		Where("status IN ?", []int8{model.RemindStatusUnread, model.RemindStatusRead}).
		Count(&cnt).Error
	if err != nil {
		return 0, fmt.Errorf("count remind: %w", err)
	}
	return cnt, nil
}

func (r *remindRepository) CountUnread(ctx context.Context, f RemindFilter) (int64, error) {
	var cnt int64
	err := r.filterQuery(ctx, f).
		Where("status = ?", model.RemindStatusUnread).
		Count(&cnt).Error
	if err != nil {
		return 0, fmt.Errorf("count unread remind: %w", err)
	}
	return cnt, nil
}

func (r *remindRepository) List(ctx context.Context, f RemindFilter, offset, limit int) ([]*model.Remind, int64, error) {
	base := func() *gorm.DB {
		return r.filterQuery(ctx, f).
			Where("status IN ?", []int8{model.RemindStatusUnread, model.RemindStatusRead})
	}
	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count remind: %w", err)
	}
	if limit <= 0 {
		limit = 20
	}
	var rows []*model.Remind
	err := base().
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list remind: %w", err)
	}
	return rows, total, nil
}

func (r *remindRepository) MarkRead(ctx context.Context, f RemindFilter) (int64, error) {
	res := r.filterQuery(ctx, f).
		Where("status = ?", model.RemindStatusUnread).
		Update("status", model.RemindStatusRead)
	if res.Error != nil {
		return 0, fmt.Errorf("mark remind read: %w", res.Error)
	}
	return res.RowsAffected, nil
}
