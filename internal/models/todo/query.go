package todo

const DefaultPageLimit = 20
const MaxPageLimit = 100

// Filter - nil означает "без ограничения"
type Filter struct {
	Completed *bool
	Priority  *Priority
	Tag       string
	Overdue   *bool
}

type PageRequest struct {
	Page  int
	Limit int
}

func NewPageRequest(page, limit int) PageRequest {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return PageRequest{Page: page, Limit: limit}
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

type Page struct {
	Content []*Task
	Total   int64
	Page    int
	Limit   int
}

func (p Page) TotalPages() int {
	if p.Limit <= 0 {
		return 0
	}
	return int((p.Total + int64(p.Limit) - 1) / int64(p.Limit))
}
