// Package score reduces obligation snapshots into a 0-100 compliance score
// with per-category breakdowns.
package score

import (
	"math"
	"time"

	"github.com/turtacn/ComplianceSentinel/internal/domain/obligation"
)

// Baseline is the score of a category with no penalties.
const Baseline = 100

// CategoryScore is the breakdown for one category.
type CategoryScore struct {
	Category    obligation.Category     `json:"category"`
	Score       int                     `json:"score"`
	Entities    int                     `json:"entities"`
	Unscheduled int                     `json:"unscheduled"`
	ByTier      map[obligation.Tier]int `json:"-"`
}

// ComplianceScore is the derived, read-only score of one organization.
// Scored is false when the organization tracks no entities at all; Total is
// then 0 and must not be read as either compliant or non-compliant.
type ComplianceScore struct {
	OrganizationID string          `json:"organization_id"`
	Total          int             `json:"total"`
	Scored         bool            `json:"scored"`
	Categories     []CategoryScore `json:"categories"`
	ComputedAt     time.Time       `json:"computed_at"`
}

// Category returns the breakdown of c, if present.
func (s ComplianceScore) Category(c obligation.Category) (CategoryScore, bool) {
	for _, cs := range s.Categories {
		if cs.Category == c {
			return cs, true
		}
	}
	return CategoryScore{}, false
}

// Scorer applies a policy's penalties and weights.
type Scorer struct {
	policy obligation.Policy
}

// NewScorer returns a scorer for policy.
func NewScorer(policy obligation.Policy) *Scorer {
	return &Scorer{policy: policy}
}

// Score computes the compliance score. Each category starts at Baseline and
// loses the policy penalty for every entity at a non-ok tier or unscheduled,
// floored at 0. The total is the weighted average over categories that have
// at least one entity; empty categories are left out rather than counted as
// perfect.
func (s *Scorer) Score(organizationID string, snapshots []obligation.Snapshot, computedAt time.Time) ComplianceScore {
	type acc struct {
		penalty     int
		entities    int
		unscheduled int
		byTier      map[obligation.Tier]int
	}
	accs := make(map[obligation.Category]*acc)
	for _, snap := range snapshots {
		c := snap.Category()
		a := accs[c]
		if a == nil {
			a = &acc{byTier: make(map[obligation.Tier]int)}
			accs[c] = a
		}
		a.entities++
		if snap.Unscheduled {
			a.unscheduled++
			a.penalty += s.policy.Penalties.Unscheduled
			continue
		}
		a.byTier[snap.Severity]++
		a.penalty += s.policy.Penalties.For(snap.Severity)
	}

	out := ComplianceScore{OrganizationID: organizationID, ComputedAt: computedAt}
	var weighted, weights float64
	for _, c := range obligation.AllCategories() {
		a, ok := accs[c]
		if !ok {
			continue
		}
		sc := Baseline - a.penalty
		if sc < 0 {
			sc = 0
		}
		out.Categories = append(out.Categories, CategoryScore{
			Category:    c,
			Score:       sc,
			Entities:    a.entities,
			Unscheduled: a.unscheduled,
			ByTier:      a.byTier,
		})
		w := s.policy.Weight(c)
		weighted += w * float64(sc)
		weights += w
	}
	if weights > 0 {
		out.Scored = true
		out.Total = int(math.Round(weighted / weights))
	}
	return out
}

//Personal.AI order the ending
