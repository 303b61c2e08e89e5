package query

// TotalPages returns how many pages of pageSize hold total records.
// A non-positive pageSize yields 0.
func TotalPages(pageSize, total int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// HasMore reports whether records exist past the given page.
func HasMore(page, pageSize, total int) bool {
	if pageSize <= 0 || page < 1 {
		return false
	}
	return total > page*pageSize
}
