package readmodel

import (
	"sort"
	"strings"

	"github.com/mayor-schedule-api/internal/models"
)

// StatusBucket classifies appointments relative to today.
type StatusBucket string

const (
	BucketAll      StatusBucket = "all"
	BucketToday    StatusBucket = "today"
	BucketUpcoming StatusBucket = "upcoming"
	BucketPast     StatusBucket = "past"
)

// SortField selects the secondary sort key.
type SortField string

const (
	SortByDate    SortField = "date"
	SortByName    SortField = "name"
	SortBySubject SortField = "subject"
)

// FilterOptions are the purely local search filters a dashboard applies on
// top of its synchronized set. They never mutate the underlying data.
type FilterOptions struct {
	SearchTerm string
	DateFrom   string
	DateTo     string
	Status     StatusBucket
	SortBy     SortField
	SortDesc   bool
}

// ApplyFilter returns a new, filtered and re-sorted view of the set. The
// input slice is left untouched so aggregate counts derived from it stay
// stable while the user searches.
func ApplyFilter(appointments []*models.Appointment, opts FilterOptions, today string) []*models.Appointment {
	filtered := make([]*models.Appointment, 0, len(appointments))

	term := strings.ToLower(opts.SearchTerm)
	for _, a := range appointments {
		if term != "" && !matchesTerm(a, term) {
			continue
		}
		if opts.DateFrom != "" && a.Date < opts.DateFrom {
			continue
		}
		if opts.DateTo != "" && a.Date > opts.DateTo {
			continue
		}
		if !inBucket(a, opts.Status, today) {
			continue
		}
		filtered = append(filtered, a)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		ki, kj := sortKeyFor(filtered[i], opts.SortBy), sortKeyFor(filtered[j], opts.SortBy)
		if opts.SortDesc {
			return ki > kj
		}
		return ki < kj
	})

	return filtered
}

func matchesTerm(a *models.Appointment, term string) bool {
	return strings.Contains(strings.ToLower(a.VisitorName), term) ||
		strings.Contains(strings.ToLower(a.Subject), term) ||
		strings.Contains(strings.ToLower(a.Notes), term)
}

func inBucket(a *models.Appointment, bucket StatusBucket, today string) bool {
	switch bucket {
	case BucketToday:
		return a.Date == today
	case BucketUpcoming:
		return a.Date >= today
	case BucketPast:
		return a.Date < today
	}
	return true
}

func sortKeyFor(a *models.Appointment, field SortField) string {
	switch field {
	case SortByName:
		return strings.ToLower(a.VisitorName)
	case SortBySubject:
		return strings.ToLower(a.Subject)
	default:
		return a.Date + " " + a.Time
	}
}
