package entity

// Category groups notices on the board.
type Category string

const (
	CategoryExams         Category = "exams"
	CategoryAssignments   Category = "assignments"
	CategoryAnnouncements Category = "announcements"
	CategoryNews          Category = "news"
	CategoryPromotion     Category = "promotion"
)

var Categories = []Category{
	CategoryExams,
	CategoryAssignments,
	CategoryAnnouncements,
	CategoryNews,
	CategoryPromotion,
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Urgency is the administrator-assigned priority of a notice.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

var Urgencies = []Urgency{UrgencyLow, UrgencyMedium, UrgencyHigh}

func (u Urgency) Valid() bool {
	return u.Weight() > 0
}

// Weight orders urgencies: high(3) > medium(2) > low(1). Unknown values weigh 0.
func (u Urgency) Weight() int {
	switch u {
	case UrgencyHigh:
		return 3
	case UrgencyMedium:
		return 2
	case UrgencyLow:
		return 1
	default:
		return 0
	}
}

// Raise returns the next urgency level; high stays high.
func (u Urgency) Raise() Urgency {
	switch u {
	case UrgencyLow:
		return UrgencyMedium
	case UrgencyMedium:
		return UrgencyHigh
	default:
		return u
	}
}
