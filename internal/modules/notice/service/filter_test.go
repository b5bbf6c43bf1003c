package service

import (
	"testing"

	"github.com/Dnl30T/Avisos-FOA/internal/entity"
	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T {
	return &v
}

func TestFilterNotices(t *testing.T) {
	a := &entity.Notice{Title: "A", Category: entity.CategoryExams, Urgency: entity.UrgencyHigh, Subject: "Math", Dependency: true}
	b := &entity.Notice{Title: "B", Category: entity.CategoryNews, Urgency: entity.UrgencyLow, Subject: "History"}
	c := &entity.Notice{Title: "C", Category: entity.CategoryExams, Urgency: entity.UrgencyLow, Subject: "Math"}
	all := []*entity.Notice{a, b, c}

	tests := []struct {
		name   string
		filter entity.NoticeFilter
		want   []string
	}{
		{name: "no predicate", filter: entity.NoticeFilter{}, want: []string{"A", "B", "C"}},
		{name: "empty subject ignored", filter: entity.NoticeFilter{Subject: ptr("")}, want: []string{"A", "B", "C"}},
		{name: "category", filter: entity.NoticeFilter{Category: ptr(entity.CategoryExams)}, want: []string{"A", "C"}},
		{name: "urgency", filter: entity.NoticeFilter{Urgency: ptr(entity.UrgencyLow)}, want: []string{"B", "C"}},
		{name: "dependency false", filter: entity.NoticeFilter{Dependency: ptr(false)}, want: []string{"B", "C"}},
		{
			name:   "conjunction",
			filter: entity.NoticeFilter{Category: ptr(entity.CategoryExams), Subject: ptr("Math"), Dependency: ptr(true)},
			want:   []string{"A"},
		},
		{name: "no match", filter: entity.NoticeFilter{Category: ptr(entity.CategoryPromotion)}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, titles(FilterNotices(all, tt.filter)))
		})
	}
}

func TestFilterNotices_EmptyFilterReturnsInput(t *testing.T) {
	in := []*entity.Notice{{Title: "A"}, {Title: "B"}}
	out := FilterNotices(in, entity.NoticeFilter{})
	assert.Same(t, in[0], out[0])
	assert.Len(t, out, 2)
}
