package steps

// PageWindow maps a printed page range onto extracted-page indexes [start, end).
// Without a page range the window is the single page at offset.
func PageWindow(offset int, pageFrom, pageTo *int) (start, end int) {
	if pageFrom == nil {
		return offset, offset + 1
	}
	to := *pageFrom
	if pageTo != nil {
		to = *pageTo
	}
	start = offset + *pageFrom - 1
	if start < 0 {
		start = 0
	}
	return start, offset + to + 1
}

// SlicePages joins pages[start:end], clamped to the available pages.
func SlicePages(pages []string, start, end int) []string {
	if end > len(pages) {
		end = len(pages)
	}
	if start >= end {
		return nil
	}
	return pages[start:end]
}
