package dto

// 换班列表分页边界
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PaginationRequest 列表分页参数；page_size 超过上限时按上限截断而非报错
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1"`
}

// GetPage 页码，默认第 1 页
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 每页条数，落在 [1, MaxPageSize]
func (p *PaginationRequest) GetPageSize() int {
	switch {
	case p.PageSize <= 0:
		return DefaultPageSize
	case p.PageSize > MaxPageSize:
		return MaxPageSize
	default:
		return p.PageSize
	}
}

// Window 返回仓储查询使用的 offset 与 limit
func (p *PaginationRequest) Window() (offset, limit int) {
	limit = p.GetPageSize()
	return (p.GetPage() - 1) * limit, limit
}
