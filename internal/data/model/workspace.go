package model

import "time"

// Workspace 工作空间模型 (本服务只维护 subscription_status 字段)
type Workspace struct {
	ID                 string    `gorm:"primaryKey;column:workspace_id;type:varchar(36)"`
	DisplayName        string    `gorm:"column:display_name"`
	SubscriptionStatus string    `gorm:"column:subscription_status"`
	CreatedAt          time.Time `gorm:"column:created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at"`
}

func (Workspace) TableName() string { return "workspace" }

// UserWorkspace 工作空间成员关系, 用于统计成员数
type UserWorkspace struct {
	ID          string    `gorm:"primaryKey;column:user_workspace_id;type:varchar(36)"`
	UserID      string    `gorm:"column:user_id;type:varchar(36);uniqueIndex:idx_user_workspace"`
	WorkspaceID string    `gorm:"column:workspace_id;type:varchar(36);uniqueIndex:idx_user_workspace;index"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (UserWorkspace) TableName() string { return "user_workspace" }
