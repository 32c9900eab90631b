package domain

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Pagination struct {
	Page  int
	Limit int
}

// Normalize clamps page to ≥1 and limit to [1, MaxPageSize].
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

func (p Pagination) Skip() int64 {
	n := p.Normalize()
	return int64((n.Page - 1) * n.Limit)
}

type PageInfo struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

func NewPageInfo(p Pagination, total int64) PageInfo {
	n := p.Normalize()
	pages := int((total + int64(n.Limit) - 1) / int64(n.Limit))
	return PageInfo{Page: n.Page, Limit: n.Limit, Total: total, Pages: pages}
}

// SortSpec names a whitelisted document field and a direction.
type SortSpec struct {
	Field      string
	Descending bool
}
