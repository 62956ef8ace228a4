package model

import "time"

// 内容类资源的通用状态
const (
	ContentStatusNormal  int8 = 1
	ContentStatusDeleted int8 = 2
)

// Post 帖子
type Post struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	AuthorID  string `gorm:"type:varchar(36);not null;index:idx_post_author"`
	Title     string `gorm:"type:varchar(255)"`
	Content   string `gorm:"type:text"`
	Status    int8   `gorm:"not null;default:1;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Post) TableName() string { return "posts" }

// Question 问题
type Question struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	AuthorID  string `gorm:"type:varchar(36);not null;index:idx_question_author"`
	Title     string `gorm:"type:varchar(255)"`
	Content   string `gorm:"type:text"`
	Status    int8   `gorm:"not null;default:1;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Question) TableName() string { return "questions" }

// Reply 回答（挂在问题下）
type Reply struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	AuthorID   string `gorm:"type:varchar(36);not null;index:idx_reply_author"`
	QuestionID string `gorm:"type:varchar(36);not null;index:idx_reply_question"`
	Content    string `gorm:"type:text"`
	Status     int8   `gorm:"not null;default:1;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Reply) TableName() string { return "replies" }

// Demand 需求
type Demand struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	AuthorID  string `gorm:"type:varchar(36);not null;index:idx_demand_author"`
	Title     string `gorm:"type:varchar(255)"`
	Content   string `gorm:"type:text"`
	Status    int8   `gorm:"not null;default:1;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Demand) TableName() string { return "demands" }

// Consult 咨询
type Consult struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	AuthorID  string `gorm:"type:varchar(36);not null;index:idx_consult_author"`
	Title     string `gorm:"type:varchar(255)"`
	Content   string `gorm:"type:text"`
	Status    int8   `gorm:"not null;default:1;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Consult) TableName() string { return "consults" }

// Comment 评论（可挂任意内容资源下）
type Comment struct {
	ID         string       `gorm:"primaryKey;type:varchar(36)"`
	AuthorID   string       `gorm:"type:varchar(36);not null;index:idx_comment_author"`
	TargetType ResourceType `gorm:"not null;index:idx_comment_target"`
	TargetID   string       `gorm:"type:varchar(36);not null;index:idx_comment_target"`
	Content    string       `gorm:"type:text"`
	Status     int8         `gorm:"not null;default:1;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Comment) TableName() string { return "comments" }
