package service

import (
	"context"
	"errors"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/action-trace/internal/cache"
	"github.com/d60-Lab/action-trace/internal/model"
	"github.com/d60-Lab/action-trace/internal/repository"
	"github.com/d60-Lab/action-trace/internal/resource"
	"github.com/d60-Lab/action-trace/pkg/logger"
)

// ActionRef 指向一次动作的目标资源
type ActionRef struct {
	Type model.ResourceType
	ID   string
	// SecondaryID 从属限定：Create 时是父资源 id，Invite 时是被邀请人 id
	SecondaryID string
	// ParentType SecondaryID 指向父资源时的类型（Create 用）
	ParentType model.ResourceType
	// Anonymous 仅 Create 有意义
	Anonymous bool
}

// PageOptions 列表分页
type PageOptions struct {
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

func (p PageOptions) normalize() (offset, limit int) {
	page := p.Page
	if page < 1 {
		page = 1
	}
	size := p.PageSize
	if size < 1 {
		size = 10
	}
	return (page - 1) * size, size
}

// receiverRule 提醒接收方的确定方式
type receiverRule int8

const (
	receiveOwner       receiverRule = iota + 1 // 资源作者
	receiveParentOwner                         // 父资源作者（回答/评论通知被回的人）
	receiveInvitee                             // SecondaryID 指向的用户
)

// counterRule 计数落点
type counterRule int8

const (
	counterSelf   counterRule = iota + 1 // 资源自身
	counterParent                        // 父资源（sub_count）
)

type actionOptions struct {
	// redoMerge 重复 do 不报错：View 静默合并，Create 改匿名位
	redoMerge bool
	// requireOwner do 必须由资源作者发起（Invite）
	requireOwner bool
	// ownerAggregate 同步作者个人维度的聚合计数
	ownerAggregate bool
	receiver       receiverRule
	counter        counterRule
}

// ActionItem 列表项：流水 + 资源外部投影
type ActionItem struct {
	TraceID   string         `json:"trace_id"`
	CreatorID string         `json:"creator_id"`
	Anonymous bool           `json:"anonymous,omitempty"`
	Resource  *resource.View `json:"resource"`
	CreatedAt int64          `json:"created_at"`
}

// RemindItem 提醒列表项
type RemindItem struct {
	ID       string         `json:"id"`
	Status   int8           `json:"status"`
	Sender   *resource.View `json:"sender,omitempty"`
	Resource *resource.View `json:"resource,omitempty"`
	CreatedAt int64         `json:"created_at"`
}

// ActionService 单一行为类型的门面：流水 + 提醒 + 计数 + 资源分发的编排。
// Create/Like/Follow/View/Invite 各实例化一份，差异全部收敛在 actionOptions。
type ActionService struct {
	kind     model.ActionKind
	db       *gorm.DB
	traces   repository.TraceRepository
	reminds  repository.RemindRepository
	counters *cache.CounterCache
	resolver *resource.Resolver
	opts     actionOptions
}

func newActionService(kind model.ActionKind, db *gorm.DB, counters *cache.CounterCache, resolver *resource.Resolver, opts actionOptions) *ActionService {
	return &ActionService{
		kind:     kind,
		db:       db,
		traces:   repository.NewTraceRepository(db),
		reminds:  repository.NewRemindRepository(db),
		counters: counters,
		resolver: resolver,
		opts:     opts,
	}
}

func (s *ActionService) Kind() model.ActionKind { return s.kind }

func (s *ActionService) tuple(actorID string, ref ActionRef) repository.TraceTuple {
	return repository.TraceTuple{
		Kind:         s.kind,
		CreatorID:    actorID,
		ResourceType: ref.Type,
		ResourceID:   ref.ID,
		SecondaryID:  ref.SecondaryID,
	}
}

// resolveReceiver 校验关联方并确定提醒接收者；返回空串表示本次不产生提醒
func (s *ActionService) resolveReceiver(ctx context.Context, ref ActionRef, meta *resource.Meta) (string, error) {
	switch s.opts.receiver {
	case receiveOwner:
		return meta.OwnerID, nil
	case receiveParentOwner:
		if ref.SecondaryID == "" || !ref.ParentType.Valid() {
			return "", nil
		}
		parent, err := s.resolver.Check(ctx, ref.ParentType, ref.SecondaryID)
		if err != nil {
			return "", err
		}
		return parent.OwnerID, nil
	case receiveInvitee:
		if _, err := s.resolver.Check(ctx, model.ResourceUser, ref.SecondaryID); err != nil {
			return "", err
		}
		return ref.SecondaryID, nil
	}
	return "", nil
}

// Do 执行一次动作。事务内落流水和提醒，提交后尽力而为推计数。
func (s *ActionService) Do(ctx context.Context, actorID string, ref ActionRef) (string, error) {
	meta, err := s.resolver.Check(ctx, ref.Type, ref.ID)
	if err != nil {
		return "", translate(err)
	}
	if s.opts.requireOwner && meta.OwnerID != actorID {
		return "", ErrPermissionDenied
	}
	receiver, err := s.resolveReceiver(ctx, ref, meta)
	if err != nil {
		return "", translate(err)
	}

	var traceID string
	var merged bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		traces := repository.NewTraceRepository(tx)
		id, err := traces.Record(ctx, &model.Trace{
			Kind:         s.kind,
			CreatorID:    actorID,
			ResourceType: ref.Type,
			ResourceID:   ref.ID,
			SecondaryID:  ref.SecondaryID,
			Anonymous:    ref.Anonymous,
		})
		if err != nil {
			if !errors.Is(err, repository.ErrDuplicateTrace) {
				return err
			}
			if !s.opts.redoMerge {
				return ErrAlreadyRecorded
			}
			// 合并：View 不动账本；Create 把既有流水的匿名位改过来
			merged = true
			traceID = id
			if s.kind == model.KindCreate {
				return traces.UpdateAnonymous(ctx, id, ref.Anonymous)
			}
			return nil
		}
		traceID = id
		if receiver == "" || receiver == actorID {
			return nil
		}
		return repository.NewRemindRepository(tx).Upsert(ctx, traceID, s.kind, actorID, receiver, ref.Type, ref.SecondaryID)
	})
	if err != nil {
		return "", translate(err)
	}

	s.bumpCounters(ctx, ref, meta, +1, merged)
	return traceID, nil
}

// Undo 撤销动作：事务内软删流水、作废提醒，提交后回退计数。
func (s *ActionService) Undo(ctx context.Context, actorID string, ref ActionRef) error {
	meta, err := s.resolver.Check(ctx, ref.Type, ref.ID)
	if err != nil {
		return translate(err)
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		revoked, err := repository.NewTraceRepository(tx).Revoke(ctx, s.tuple(actorID, ref))
		if err != nil {
			if errors.Is(err, repository.ErrTraceNotFound) {
				return ErrNotRecorded
			}
			return err
		}
		return repository.NewRemindRepository(tx).Clear(ctx, revoked.ID, "")
	})
	if err != nil {
		return translate(err)
	}

	s.bumpCounters(ctx, ref, meta, -1, false)
	return nil
}

// bumpCounters 提交后的计数补偿。账本里动作已成事实，这里失败只降级为
// 计数少一，记日志并上报，不回滚、不上抛。
func (s *ActionService) bumpCounters(ctx context.Context, ref ActionRef, meta *resource.Meta, delta int64, merged bool) {
	report := func(key, field string, err error) {
		if err == nil {
			return
		}
		logger.Warn("counter increment dropped",
			zap.String("kind", s.kind.String()),
			zap.String("key", key),
			zap.String("field", field),
			zap.Int64("delta", delta),
			zap.Error(err))
		sentry.CaptureException(err)
	}

	field := s.kind.CounterField()
	switch {
	case s.kind == model.KindView:
		key := cache.StatKey(ref.Type, ref.ID)
		if delta > 0 {
			// 浏览计数无条件自增：重复浏览也算数，账本没法重建它
			report(key, field, s.counters.IncrView(ctx, key))
		} else {
			report(key, field, s.counters.Increment(ctx, key, field, delta))
		}
	case s.opts.counter == counterParent:
		if merged || ref.SecondaryID == "" || !ref.ParentType.Valid() {
			return
		}
		key := cache.StatKey(ref.ParentType, ref.SecondaryID)
		report(key, field, s.counters.Increment(ctx, key, field, delta))
	default:
		if merged {
			return
		}
		key := cache.StatKey(ref.Type, ref.ID)
		report(key, field, s.counters.Increment(ctx, key, field, delta))
		if s.opts.ownerAggregate && meta.OwnerID != "" && ref.Type != model.ResourceUser {
			aggKey := cache.StatKey(model.ResourceUser, meta.OwnerID)
			report(aggKey, field, s.counters.Increment(ctx, aggKey, field, delta))
		}
	}
}

// Has 操作者是否对该资源有 Active 动作
func (s *ActionService) Has(ctx context.Context, actorID string, ref ActionRef) (bool, error) {
	f := repository.TraceFilter{Kind: s.kind, CreatorID: actorID, ResourceType: ref.Type, ResourceID: ref.ID}
	if ref.SecondaryID != "" {
		f.SecondaryID = &ref.SecondaryID
	}
	ok, err := s.traces.Has(ctx, f)
	if err != nil {
		return false, translate(err)
	}
	return ok, nil
}

// HasRemind 操作者这次动作派生的提醒是否仍然有效
func (s *ActionService) HasRemind(ctx context.Context, actorID string, ref ActionRef) (bool, error) {
	t, err := s.traces.Get(ctx, s.tuple(actorID, ref))
	if err != nil {
		if errors.Is(err, repository.ErrTraceNotFound) {
			return false, nil
		}
		return false, translate(err)
	}
	ok, err := s.reminds.Has(ctx, t.ID, "")
	if err != nil {
		return false, translate(err)
	}
	return ok, nil
}

// Count 计数。按资源维度走计数缓存（miss 时回落账本重算），按操作者维度直查账本。
func (s *ActionService) Count(ctx context.Context, actorID string, ref ActionRef) (int64, error) {
	if actorID != "" {
		n, err := s.traces.Count(ctx, repository.TraceFilter{Kind: s.kind, CreatorID: actorID, ResourceType: ref.Type})
		if err != nil {
			return 0, translate(err)
		}
		return n, nil
	}

	key, fallback := s.counterScope(ref)
	var (
		n   int64
		err error
	)
	if s.kind == model.KindView {
		n, err = s.counters.ReadView(ctx, key, fallback)
	} else {
		n, err = s.counters.Read(ctx, key, s.kind.CounterField(), fallback)
	}
	if err != nil {
		return 0, translate(err)
	}
	return n, nil
}

// counterScope 资源维度计数的缓存 key 与账本回落
func (s *ActionService) counterScope(ref ActionRef) (string, func(context.Context) (int64, error)) {
	if s.opts.counter == counterParent && ref.SecondaryID != "" && ref.ParentType.Valid() {
		sec := ref.SecondaryID
		return cache.StatKey(ref.ParentType, sec), func(ctx context.Context) (int64, error) {
			return s.traces.Count(ctx, repository.TraceFilter{Kind: s.kind, ResourceType: ref.Type, SecondaryID: &sec})
		}
	}
	return cache.StatKey(ref.Type, ref.ID), func(ctx context.Context) (int64, error) {
		return s.traces.Count(ctx, repository.TraceFilter{Kind: s.kind, ResourceType: ref.Type, ResourceID: ref.ID})
	}
}

// List 流水列表；资源已删时给残根，不失败整页
func (s *ActionService) List(ctx context.Context, actorID string, ref ActionRef, page PageOptions) ([]*ActionItem, int64, error) {
	f := repository.TraceFilter{Kind: s.kind, CreatorID: actorID, ResourceType: ref.Type, ResourceID: ref.ID}
	if ref.SecondaryID != "" {
		f.SecondaryID = &ref.SecondaryID
	}
	offset, limit := page.normalize()
	rows, total, err := s.traces.List(ctx, f, repository.ListOptions{
		Offset: offset, Limit: limit, SortBy: page.SortBy, SortOrder: page.SortOrder,
	})
	if err != nil {
		return nil, 0, translate(err)
	}
	items := make([]*ActionItem, 0, len(rows))
	for _, t := range rows {
		view, err := s.resolver.Externalize(ctx, t.ResourceType, t.ResourceID)
		if err != nil {
			return nil, 0, translate(err)
		}
		items = append(items, &ActionItem{
			TraceID:   t.ID,
			CreatorID: t.CreatorID,
			Anonymous: t.Anonymous,
			Resource:  view,
			CreatedAt: t.CreatedAt.Unix(),
		})
	}
	return items, total, nil
}

// RemindCount 已读+未读的提醒总数
func (s *ActionService) RemindCount(ctx context.Context, receiverID string, rtype model.ResourceType) (int64, error) {
	n, err := s.reminds.Count(ctx, repository.RemindFilter{Kind: s.kind, ReceiverID: receiverID, ResourceType: rtype})
	if err != nil {
		return 0, translate(err)
	}
	return n, nil
}

// UnreadRemindCount 未读提醒数
func (s *ActionService) UnreadRemindCount(ctx context.Context, receiverID string, rtype model.ResourceType) (int64, error) {
	n, err := s.reminds.CountUnread(ctx, repository.RemindFilter{Kind: s.kind, ReceiverID: receiverID, ResourceType: rtype})
	if err != nil {
		return 0, translate(err)
	}
	return n, nil
}

// RemindList 提醒列表：批量回查流水，再经 Resolver 投影发送者与资源
func (s *ActionService) RemindList(ctx context.Context, receiverID string, rtype model.ResourceType, page PageOptions) ([]*RemindItem, int64, error) {
	offset, limit := page.normalize()
	rows, total, err := s.reminds.List(ctx, repository.RemindFilter{Kind: s.kind, ReceiverID: receiverID, ResourceType: rtype}, offset, limit)
	if err != nil {
		return nil, 0, translate(err)
	}
	traceIDs := make([]string, len(rows))
	for i, rm := range rows {
		traceIDs[i] = rm.TraceID
	}
	traces, err := s.traces.GetByIDs(ctx, traceIDs)
	if err != nil {
		return nil, 0, translate(err)
	}
	byID := make(map[string]*model.Trace, len(traces))
	for _, t := range traces {
		byID[t.ID] = t
	}
	items := make([]*RemindItem, 0, len(rows))
	for _, rm := range rows {
		item := &RemindItem{ID: rm.ID, Status: rm.Status, CreatedAt: rm.CreatedAt.Unix()}
		if sender, err := s.resolver.Externalize(ctx, model.ResourceUser, rm.SenderID); err == nil {
			item.Sender = sender
		}
		if t, ok := byID[rm.TraceID]; ok {
			if view, err := s.resolver.Externalize(ctx, t.ResourceType, t.ResourceID); err == nil {
				item.Resource = view
			}
		}
		items = append(items, item)
	}
	return items, total, nil
}

// MarkRead 批量已读，返回翻转条数
func (s *ActionService) MarkRead(ctx context.Context, receiverID string, rtype model.ResourceType) (int64, error) {
	n, err := s.reminds.MarkRead(ctx, repository.RemindFilter{Kind: s.kind, ReceiverID: receiverID, ResourceType: rtype})
	if err != nil {
		return 0, translate(err)
	}
	return n, nil
}

// translate 把协作方/存储层错误映射到对外错误族
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, resource.ErrNotFound), errors.Is(err, resource.ErrUnknownType):
		return ErrNotFound
	case errors.Is(err, repository.ErrTraceNotFound):
		return ErrNotRecorded
	case errors.Is(err, repository.ErrDuplicateTrace):
		return ErrAlreadyRecorded
	}
	return err
}
