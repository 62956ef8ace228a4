package model

import "time"

// Trace 行为流水：一个用户对一个资源的一次动作
// 复合唯一键，同一 (kind, creator, resource, secondary) 至多一行
// idx_trace_tuple = (kind, creator_id, resource_type, resource_id, secondary_id)
// 软删除：撤销只翻 status，重做复用原行
type Trace struct {
	ID           string       `gorm:"primaryKey;type:varchar(36)"`
	Kind         ActionKind   `gorm:"not null;index:idx_trace_tuple,unique,priority:1"`
	CreatorID    string       `gorm:"type:varchar(36);not null;index:idx_trace_creator;index:idx_trace_tuple,unique,priority:2"`
	ResourceType ResourceType `gorm:"not null;index:idx_trace_res;index:idx_trace_tuple,unique,priority:3"`
	ResourceID   string       `gorm:"type:varchar(36);not null;index:idx_trace_res;index:idx_trace_tuple,unique,priority:4"`
	SecondaryID  string       `gorm:"type:varchar(36);not null;default:'';index:idx_trace_tuple,unique,priority:5"`
	Anonymous    bool         `gorm:"not null;default:false"`
	Status       int8         `gorm:"not null;default:1;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Trace) TableName() string { return "traces" }

const (
	TraceStatusActive  int8 = 1
	TraceStatusDeleted int8 = 2
)
