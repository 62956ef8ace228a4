package service

import (
	"gorm.io/gorm"

	"github.com/d60-Lab/action-trace/internal/cache"
	"github.com/d60-Lab/action-trace/internal/model"
	"github.com/d60-Lab/action-trace/internal/resource"
)

// NewCreateService 创建类流水：重复 do 合并为改匿名位，提醒发给父资源作者，
// 计数落在父资源的 sub_count 上
func NewCreateService(db *gorm.DB, counters *cache.CounterCache, resolver *resource.Resolver) *ActionService {
	return newActionService(model.KindCreate, db, counters, resolver, actionOptions{
		redoMerge: true,
		receiver:  receiveParentOwner,
		counter:   counterParent,
	})
}

// NewLikeService 点赞：重复点报 ErrAlreadyRecorded，同步作者的被赞聚合数
func NewLikeService(db *gorm.DB, counters *cache.CounterCache, resolver *resource.Resolver) *ActionService {
	return newActionService(model.KindLike, db, counters, resolver, actionOptions{
		receiver:       receiveOwner,
		counter:        counterSelf,
		ownerAggregate: true,
	})
}

// NewFollowService 关注：可作用于用户或内容资源
func NewFollowService(db *gorm.DB, counters *cache.CounterCache, resolver *resource.Resolver) *ActionService {
	return newActionService(model.KindFollow, db, counters, resolver, actionOptions{
		receiver:       receiveOwner,
		counter:        counterSelf,
		ownerAggregate: true,
	})
}

// NewViewService 浏览：重复浏览静默合并（账本只留一行），
// 但浏览计数无条件自增——这条不对称是有意为之，别改成和点赞一致
func NewViewService(db *gorm.DB, counters *cache.CounterCache, resolver *resource.Resolver) *ActionService {
	return newActionService(model.KindView, db, counters, resolver, actionOptions{
		redoMerge: true,
		receiver:  receiveOwner,
		counter:   counterSelf,
	})
}

// NewInviteService 邀请回答：只有资源作者能发起，提醒发给被邀请人
func NewInviteService(db *gorm.DB, counters *cache.CounterCache, resolver *resource.Resolver) *ActionService {
	return newActionService(model.KindInvite, db, counters, resolver, actionOptions{
		requireOwner: true,
		receiver:     receiveInvitee,
		counter:      counterSelf,
	})
}
