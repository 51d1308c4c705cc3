package repository

import "gorm.io/gorm"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// NormalizePage clamps page to >= 1 and size to [1, MaxPageSize].
func NormalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

func paginate(q *gorm.DB, page, size int) *gorm.DB {
	page, size = NormalizePage(page, size)
	return q.Offset((page - 1) * size).Limit(size)
}
