package repo

import (
	"gorm.io/gorm"

	"crm-pipeline/internal/domain"
)

// applyScope 把角色 scope 翻译成 owner 过滤条件
func applyScope(q *gorm.DB, s domain.Scope, ownerCol string) *gorm.DB {
	if s.All() {
		return q
	}
	return q.Where(ownerCol+" = ?", s.OwnerID)
}
