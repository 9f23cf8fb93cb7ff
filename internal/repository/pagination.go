package repository

import "gorm.io/gorm"

const maxPageSize = 100

// applyPagination 应用分页参数，统一处理非法页码与过大的分页尺寸。
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if page < 1 {
		page = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}
