package data

import (
	"context"
	"fmt"

	"xinyuan_tech/billing-service/internal/biz"
	"xinyuan_tech/billing-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
)

// workspaceRepo 工作空间仓库实现
type workspaceRepo struct {
	data *Data
	log  *log.Helper
}

// NewWorkspaceRepo 创建工作空间仓库
func NewWorkspaceRepo(data *Data, logger log.Logger) biz.WorkspaceRepo {
	return &workspaceRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// UpdateSubscriptionStatus 同步订阅状态到工作空间
func (r *workspaceRepo) UpdateSubscriptionStatus(ctx context.Context, workspaceID, status string) error {
	result := r.data.db.WithContext(ctx).
		Model(&model.Workspace{}).
		Where("workspace_id = ?", workspaceID).
		Update("subscription_status", status)
	if result.Error != nil {
		r.log.Errorf("Failed to update subscription status for workspace %s: %v", workspaceID, result.Error)
		return result.Error
	}
	return nil
}

// CountMembers 统计工作空间成员数, 无成员视为查询失败 (调用方回退默认值)
func (r *workspaceRepo) CountMembers(ctx context.Context, workspaceID string) (int64, error) {
	var total int64
	if err := r.data.db.WithContext(ctx).
		Model(&model.UserWorkspace{}).
		Where("workspace_id = ?", workspaceID).
		Count(&total).Error; err != nil {
		r.log.Errorf("Failed to count members for workspace %s: %v", workspaceID, err)
		return 0, err
	}
	if total == 0 {
		return 0, fmt.Errorf("no members found for workspace %s", workspaceID)
	}
	return total, nil
}
