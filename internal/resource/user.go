package resource

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/d60-Lab/action-trace/internal/cache"
	"github.com/d60-Lab/action-trace/internal/model"
)

// userProvider 用户也是可被关注/邀请的资源，owner 就是自己
type userProvider struct {
	db    *gorm.DB
	snaps *cache.SnapshotCache
}

func NewUserProvider(db *gorm.DB, snaps *cache.SnapshotCache) Provider {
	return &userProvider{db: db, snaps: snaps}
}

func (p *userProvider) Kind() model.ResourceType { return model.ResourceUser }

func (p *userProvider) Check(ctx context.Context, id string) (*Meta, error) {
	var u model.User
	err := p.db.WithContext(ctx).Select("id", "status").Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u.Status != model.UserStatusNormal {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	return &Meta{ID: u.ID, OwnerID: u.ID}, nil
}

func (p *userProvider) Externalize(ctx context.Context, id string) (*View, error) {
	var cached View
	if hit, err := p.snaps.Get(ctx, model.ResourceUser, id, &cached); err == nil && hit {
		return &cached, nil
	}
	var u model.User
	err := p.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return deletedStub(model.ResourceUser, id), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u.Status != model.UserStatusNormal {
		return deletedStub(model.ResourceUser, id), nil
	}
	v := &View{ID: u.ID, Type: model.ResourceUser.String(), Title: u.Username, AuthorID: u.ID}
	_ = p.snaps.Set(ctx, model.ResourceUser, id, v)
	return v, nil
}
