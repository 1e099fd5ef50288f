package repository

import "gorm.io/gorm"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page 分页参数，Number 从 1 开始
type Page struct {
	Number int
	Size   int
}

// Normalize 修正非法的页码与页大小
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset 偏移量
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// paginate 统计总数并取出当前页，预加载只作用于取数查询
func paginate[T any](q *gorm.DB, page Page, order string, preloads ...string) ([]T, int64, error) {
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page = page.Normalize()
	items := make([]T, 0, page.Size)
	find := q.Order(order).Offset(page.Offset()).Limit(page.Size)
	for _, p := range preloads {
		find = find.Preload(p)
	}
	err := find.Find(&items).Error
	return items, total, err
}
