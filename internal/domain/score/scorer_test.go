package score

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ComplianceSentinel/internal/domain/obligation"
)

var at = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func snapOf(kind obligation.Kind, id string, tier obligation.Tier) obligation.Snapshot {
	return obligation.Snapshot{Ref: obligation.EntityRef{Kind: kind, ID: id}, Severity: tier}
}

func TestScore_PenaltiesPerCategory(t *testing.T) {
	s := NewScorer(obligation.DefaultPolicy())
	snaps := []obligation.Snapshot{
		snapOf(obligation.KindMedicalExamination, "1", obligation.TierExpired),
		snapOf(obligation.KindMedicalExamination, "2", obligation.TierUrgent),
		snapOf(obligation.KindMedicalExamination, "3", obligation.TierOK),
		snapOf(obligation.KindTrainingAssignment, "4", obligation.TierWarning),
		snapOf(obligation.KindTrainingAssignment, "5", obligation.TierAttention),
		snapOf(obligation.KindTrainingAssignment, "6", obligation.TierInfo),
	}
	unsched := snapOf(obligation.KindEquipmentCheck, "7", obligation.TierOK)
	unsched.Unscheduled = true
	snaps = append(snaps, unsched)

	got := s.Score("org", snaps, at)
	require.True(t, got.Scored)

	med, ok := got.Category(obligation.CategoryMedical)
	require.True(t, ok)
	assert.Equal(t, 75, med.Score)
	assert.Equal(t, 3, med.Entities)

	tr, _ := got.Category(obligation.CategoryTraining)
	assert.Equal(t, 93, tr.Score)

	eq, _ := got.Category(obligation.CategoryEquipment)
	assert.Equal(t, 95, eq.Score)
	assert.Equal(t, 1, eq.Unscheduled)

	_, ok = got.Category(obligation.CategoryLegal)
	assert.False(t, ok, "empty categories are excluded")
	assert.Len(t, got.Categories, 3)

	// (75 + 93 + 95) / 3 = 87.67
	assert.Equal(t, 88, got.Total)
	assert.Equal(t, at, got.ComputedAt)
}

func TestScore_FloorsAtZero(t *testing.T) {
	s := NewScorer(obligation.DefaultPolicy())
	var snaps []obligation.Snapshot
	for i := 0; i < 10; i++ {
		snaps = append(snaps, snapOf(obligation.KindEquipmentCheck, fmt.Sprint(i), obligation.TierExpired))
	}
	got := s.Score("org", snaps, at)
	eq, _ := got.Category(obligation.CategoryEquipment)
	assert.Equal(t, 0, eq.Score)
	assert.Equal(t, 0, got.Total)
}

func TestScore_NoEntities(t *testing.T) {
	got := NewScorer(obligation.DefaultPolicy()).Score("org", nil, at)
	assert.False(t, got.Scored)
	assert.Equal(t, 0, got.Total)
	assert.Empty(t, got.Categories)
}

func TestScore_Weights(t *testing.T) {
	p := obligation.DefaultPolicy()
	p.CategoryWeights = map[obligation.Category]float64{obligation.CategoryMedical: 3}
	got := NewScorer(p).Score("org", []obligation.Snapshot{
		snapOf(obligation.KindMedicalExamination, "1", obligation.TierOK),
		snapOf(obligation.KindLegalObligation, "2", obligation.TierExpired),
	}, at)
	// (3*100 + 1*85) / 4 = 96.25
	assert.Equal(t, 96, got.Total)
}

func TestScore_Monotonic(t *testing.T) {
	s := NewScorer(obligation.DefaultPolicy())
	base := []obligation.Snapshot{
		snapOf(obligation.KindMedicalExamination, "1", obligation.TierWarning),
		snapOf(obligation.KindTrainingAssignment, "2", obligation.TierOK),
		snapOf(obligation.KindLegalObligation, "3", obligation.TierAttention),
	}
	ladder := []obligation.Tier{obligation.TierOK, obligation.TierInfo, obligation.TierAttention, obligation.TierWarning, obligation.TierUrgent, obligation.TierExpired}

	for idx := range base {
		prevTotal := 101
		prevCat := 101
		for _, tier := range ladder {
			snaps := append([]obligation.Snapshot(nil), base...)
			snaps[idx].Severity = tier
			got := s.Score("org", snaps, at)
			cat, _ := got.Category(snaps[idx].Category())
			assert.LessOrEqual(t, got.Total, prevTotal, "entity %d tier %s", idx, tier)
			assert.LessOrEqual(t, cat.Score, prevCat, "entity %d tier %s", idx, tier)
			prevTotal, prevCat = got.Total, cat.Score
		}
	}
}

func TestScore_AddingWorseEntityNeverRaisesCategory(t *testing.T) {
	s := NewScorer(obligation.DefaultPolicy())
	snaps := []obligation.Snapshot{snapOf(obligation.KindMedicalExamination, "1", obligation.TierWarning)}
	before, _ := s.Score("org", snaps, at).Category(obligation.CategoryMedical)

	snaps = append(snaps, snapOf(obligation.KindMedicalExamination, "2", obligation.TierUrgent))
	after, _ := s.Score("org", snaps, at).Category(obligation.CategoryMedical)
	assert.Less(t, after.Score, before.Score)
}

//Personal.AI order the ending
