package query

import "fmt"

// DefaultMaxPageSize caps the page size when the caller does not configure
// its own limit.
const DefaultMaxPageSize = 100

// PageRequest carries the caller's 1-based page selection.
type PageRequest struct {
	Page int
	Size int
}

// PageInfo describes the window that was returned relative to the whole
// sequence. It is serialized as-is in list and report responses.
type PageInfo struct {
	Page        int  `json:"page"`
	Size        int  `json:"size"`
	TotalCount  int  `json:"total_count"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// Paginate slices the window [(page-1)*size, page*size) out of seq and
// reports the page metadata. The input order is the caller's
// responsibility; the engine never sorts. A page past the end of the
// sequence yields an empty slice with metadata still populated, so clients
// walking pages see a consistent total instead of an error. A non-positive
// page or size fails with ErrInvalidPagination; a size above maxSize is
// silently capped (maxSize defaults to DefaultMaxPageSize when not
// positive).
func Paginate[T any](seq []T, req PageRequest, maxSize int) ([]T, PageInfo, error) {
	if req.Page < 1 {
		return nil, PageInfo{}, fmt.Errorf("%w: page must be at least 1, got %d", ErrInvalidPagination, req.Page)
	}
	if req.Size < 1 {
		return nil, PageInfo{}, fmt.Errorf("%w: size must be at least 1, got %d", ErrInvalidPagination, req.Size)
	}
	if maxSize < 1 {
		maxSize = DefaultMaxPageSize
	}
	size := req.Size
	if size > maxSize {
		size = maxSize
	}

	total := len(seq)
	totalPages := (total + size - 1) / size
	info := PageInfo{
		Page:        req.Page,
		Size:        size,
		TotalCount:  total,
		TotalPages:  totalPages,
		HasNext:     req.Page < totalPages,
		HasPrevious: req.Page > 1,
	}

	start := (req.Page - 1) * size
	if start >= total {
		return make([]T, 0), info, nil
	}
	end := start + size
	if end > total {
		end = total
	}
	return seq[start:end], info, nil
}
