package service

import "github.com/Dnl30T/Avisos-FOA/internal/entity"

// FilterNotices keeps the notices matching every set predicate of filter, in their
// original order. An empty filter returns notices as is.
func FilterNotices(notices []*entity.Notice, filter entity.NoticeFilter) []*entity.Notice {
	if filter.IsEmpty() {
		return notices
	}

	out := make([]*entity.Notice, 0, len(notices))
	for _, n := range notices {
		if filter.Matches(n) {
			out = append(out, n)
		}
	}
	return out
}
