// SPDX-License-Identifier: Apache-2.0

package mapping

// DefaultMaxUnmappedRatio is the unmapped share above which a template is
// sent to manual review.
const DefaultMaxUnmappedRatio = 0.25

// Quality summarises a mapping run.
type Quality struct {
	MappedCount   int `json:"mapped_count"`
	UnmappedCount int `json:"unmapped_count"`
	// DuplicateCount counts repeated placeholders. They are neither mapped
	// nor unmapped: they share the resolution of their first occurrence.
	DuplicateCount int      `json:"duplicate_count"`
	AverageScore   float64  `json:"average_score"`
	UnmappedList   []string `json:"unmapped_list"`
}

// QualityOf aggregates results. AverageScore is taken over mapped
// placeholders only and is 0 when none mapped.
func QualityOf(results []Resolution) Quality {
	q := Quality{UnmappedList: []string{}}
	total := 0.0
	for _, r := range results {
		switch {
		case r.DuplicateOf >= 0:
			q.DuplicateCount++
		case r.Mapped():
			q.MappedCount++
			total += r.Score
		default:
			q.UnmappedCount++
			q.UnmappedList = append(q.UnmappedList, r.Placeholder)
		}
	}
	if q.MappedCount > 0 {
		q.AverageScore = total / float64(q.MappedCount)
	}
	return q
}

// UnmappedRatio is the unmapped share of distinct placeholders.
func (q Quality) UnmappedRatio() float64 {
	n := q.MappedCount + q.UnmappedCount
	if n == 0 {
		return 0
	}
	return float64(q.UnmappedCount) / float64(n)
}

// NeedsReview reports whether the unmapped share exceeds maxUnmappedRatio.
func (q Quality) NeedsReview(maxUnmappedRatio float64) bool {
	return q.UnmappedRatio() > maxUnmappedRatio
}
