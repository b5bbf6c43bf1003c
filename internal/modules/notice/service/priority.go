package service

import (
	"cmp"
	"slices"

	"github.com/Dnl30T/Avisos-FOA/internal/entity"
)

// SortByPriority returns a copy of notices ordered for display: higher urgency first,
// then notices with a deadline (earliest first) before those without, then newest first.
// The input slice is not modified.
func SortByPriority(notices []*entity.Notice) []*entity.Notice {
	sorted := slices.Clone(notices)
	slices.SortStableFunc(sorted, comparePriority)
	return sorted
}

func comparePriority(a, b *entity.Notice) int {
	if c := cmp.Compare(b.Urgency.Weight(), a.Urgency.Weight()); c != 0 {
		return c
	}

	switch {
	case a.Deadline != nil && b.Deadline != nil:
		if c := a.Deadline.Compare(*b.Deadline); c != 0 {
			return c
		}
	case a.Deadline != nil:
		return -1
	case b.Deadline != nil:
		return 1
	}

	return b.CreatedAt.Compare(a.CreatedAt)
}
