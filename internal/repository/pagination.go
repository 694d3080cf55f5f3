package repository

// pageWindow clamps list paging to sane bounds and returns the SQL limit and offset.
func pageWindow(page, size int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return size, (page - 1) * size
}
