package service

const (
	minPage  = 1
	maxLimit = 100
)

// clampPagination normalizes pagination inputs: page >= 1, 1 <= limit <= 100.
func clampPagination(page, limit int) (int, int) {
	if page < minPage {
		page = minPage
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}
