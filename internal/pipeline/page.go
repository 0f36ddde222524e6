package pipeline

// PageMeta is the pagination state a renderer draws controls from.
type PageMeta struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalPages int  `json:"total_pages"`
	TotalCount int  `json:"total_count"`
	HasPrev    bool `json:"has_prev"`
	HasNext    bool `json:"has_next"`
}

// TotalPages returns ceil(totalCount / limit), or zero for a non-positive limit.
func TotalPages(totalCount, limit int) int {
	if limit <= 0 || totalCount <= 0 {
		return 0
	}
	return (totalCount + limit - 1) / limit
}

// NewPageMeta computes pagination metadata. "Previous" is disabled on page 1
// and "Next" once page reaches the last page.
func NewPageMeta(page, limit, totalCount int) PageMeta {
	if page < 1 {
		page = 1
	}
	total := TotalPages(totalCount, limit)
	return PageMeta{
		Page:       page,
		Limit:      limit,
		TotalPages: total,
		TotalCount: totalCount,
		HasPrev:    page > 1,
		HasNext:    page < total,
	}
}

// clampPage keeps page within [1, max(totalPages, 1)].
func clampPage(page, totalPages int) int {
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// bounds returns the half-open slice range of page within n rows.
func bounds(page, limit, n int) (int, int) {
	start := (page - 1) * limit
	if start > n {
		start = n
	}
	end := start + limit
	if end > n {
		end = n
	}
	return start, end
}
