package model

// ResourceType 资源类型标签（多态分发的 key）
type ResourceType int8

const (
	ResourcePost ResourceType = iota + 1
	ResourceQuestion
	ResourceReply
	ResourceDemand
	ResourceConsult
	ResourceComment
	ResourceUser
)

var resourceNames = map[ResourceType]string{
	ResourcePost:     "post",
	ResourceQuestion: "question",
	ResourceReply:    "reply",
	ResourceDemand:   "demand",
	ResourceConsult:  "consult",
	ResourceComment:  "comment",
	ResourceUser:     "user",
}

func (t ResourceType) String() string {
	if s, ok := resourceNames[t]; ok {
		return s
	}
	return "unknown"
}

func (t ResourceType) Valid() bool {
	_, ok := resourceNames[t]
	return ok
}

// ParseResourceType 按名称解析资源类型（API 层绑定用）
func ParseResourceType(s string) (ResourceType, bool) {
	for t, name := range resourceNames {
		if name == s {
			return t, true
		}
	}
	return 0, false
}

// ActionKind 行为类型；每种 kind 逻辑上是一本独立的流水账
type ActionKind int8

const (
	KindCreate ActionKind = iota + 1
	KindLike
	KindFollow
	KindView
	KindInvite
)

var kindNames = map[ActionKind]string{
	KindCreate: "create",
	KindLike:   "like",
	KindFollow: "follow",
	KindView:   "view",
	KindInvite: "invite",
}

func (k ActionKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// CounterField 该行为在计数缓存里对应的字段名
func (k ActionKind) CounterField() string {
	switch k {
	case KindCreate:
		return "sub_count"
	case KindLike:
		return "like_count"
	case KindFollow:
		return "follow_count"
	case KindView:
		return "view_count"
	case KindInvite:
		return "invite_count"
	}
	return ""
}
