// Package resource implements the polymorphic resource dispatch table: one
// Provider per resource type, looked up by the trace's resource_type tag.
package resource

import (
	"context"
	"errors"
	"fmt"

	"github.com/d60-Lab/action-trace/internal/model"
)

var (
	// ErrNotFound 资源不存在或不在可用状态
	ErrNotFound = errors.New("resource not found")
	// ErrUnknownType 没有注册对应类型的 Provider
	ErrUnknownType = errors.New("unknown resource type")
)

// Meta 行为引擎需要的最小资源信息
type Meta struct {
	ID      string
	OwnerID string
	// ParentID 从属资源的父 id（回答→问题，评论→目标）
	ParentID string
}

// View 对外投影；已删除的资源返回只带 Deleted 位的残根，不让整页列表失败
type View struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title,omitempty"`
	Excerpt  string `json:"excerpt,omitempty"`
	AuthorID string `json:"author_id,omitempty"`
	Deleted  bool   `json:"deleted,omitempty"`
}

// Provider 单一资源类型的外部协作方
type Provider interface {
	Kind() model.ResourceType
	// Check 校验资源存在且可用，返回行为引擎需要的元信息
	Check(ctx context.Context, id string) (*Meta, error)
	// Externalize 宽容版读取：软删资源返回残根而不是报错
	Externalize(ctx context.Context, id string) (*View, error)
}

// Resolver 按 resource_type 分发到 Provider
type Resolver struct {
	providers map[model.ResourceType]Provider
}

func NewResolver(ps ...Provider) *Resolver {
	m := make(map[model.ResourceType]Provider, len(ps))
	for _, p := range ps {
		m[p.Kind()] = p
	}
	return &Resolver{providers: m}
}

func (r *Resolver) Provider(t model.ResourceType) (Provider, error) {
	p, ok := r.providers[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
	return p, nil
}

func (r *Resolver) Check(ctx context.Context, t model.ResourceType, id string) (*Meta, error) {
	p, err := r.Provider(t)
	if err != nil {
		return nil, err
	}
	return p.Check(ctx, id)
}

func (r *Resolver) Externalize(ctx context.Context, t model.ResourceType, id string) (*View, error) {
	p, err := r.Provider(t)
	if err != nil {
		return nil, err
	}
	return p.Externalize(ctx, id)
}

// deletedStub 残根视图
func deletedStub(t model.ResourceType, id string) *View {
	return &View{ID: id, Type: t.String(), Deleted: true}
}

// excerpt 取正文前 120 个字符做摘要
func excerpt(s string) string {
	const max = 120
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
