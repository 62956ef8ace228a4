package model

import "time"

// Remind 提醒：由 Trace 派生的接收方通知，每条 trace 至多一条
// sender == receiver 时不落行（不给自己发提醒）
type Remind struct {
	ID           string       `gorm:"primaryKey;type:varchar(36)"`
	TraceID      string       `gorm:"type:varchar(36);not null;uniqueIndex:ux_remind_trace"`
	Kind         ActionKind   `gorm:"not null;index:idx_remind_receiver,priority:2"`
	SenderID     string       `gorm:"type:varchar(36);not null"`
	ReceiverID   string       `gorm:"type:varchar(36);not null;index:idx_remind_receiver,priority:1"`
	ResourceType ResourceType `gorm:"not null;index:idx_remind_receiver,priority:3"`
	SecondaryID  string       `gorm:"type:varchar(36);not null;default:''"`
	Status       int8         `gorm:"not null;default:1;index:idx_remind_receiver,priority:4"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Remind) TableName() string { return "reminds" }

const (
	RemindStatusUnread  int8 = 1
	RemindStatusRead    int8 = 2
	RemindStatusDeleted int8 = 3
)
