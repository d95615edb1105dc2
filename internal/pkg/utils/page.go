package utils

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// NormalizePage 修正分页参数，page 从 1 开始
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}
