package discovery

// Page is one window of a listing plus its pagination metadata.
type Page[T any] struct {
	Items       []T
	TotalCount  int64
	TotalPages  int
	CurrentPage int
	PageSize    int
	HasNextPage bool
	// Seed is set for sampled listings so clients can request later pages
	// of the same sample.
	Seed string
}

// NewPage assembles a page. Nil items become an empty slice so that an empty
// listing serialises as [].
func NewPage[T any](items []T, total int64, w Window) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := TotalPages(total, w.PageSize)
	return Page[T]{
		Items:       items,
		TotalCount:  total,
		TotalPages:  pages,
		CurrentPage: w.Page,
		PageSize:    w.PageSize,
		HasNextPage: w.Page < pages,
	}
}

// TotalPages is ceil(total / pageSize).
func TotalPages(total int64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	size := int64(pageSize)
	return int((total + size - 1) / size)
}
