// Package obligation models the regulatory obligations tracked per
// organization (medical examinations, trainings, equipment verifications and
// legal-obligation publishing) together with the deadline arithmetic and
// severity policy that classifies them.
package obligation

import (
	"fmt"
	"strings"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Kind
// ─────────────────────────────────────────────────────────────────────────────

// Kind is the tagged variant of a TrackedEntity.
type Kind string

const (
	KindMedicalExamination Kind = "medical_examination"
	KindTrainingAssignment Kind = "training_assignment"
	// KindEquipmentCheck covers ISCIR pressure-equipment verifications and PPE checks.
	KindEquipmentCheck  Kind = "equipment_check"
	KindLegalObligation Kind = "legal_obligation"
)

// AllKinds lists every supported variant in a stable order.
func AllKinds() []Kind {
	return []Kind{KindMedicalExamination, KindTrainingAssignment, KindEquipmentCheck, KindLegalObligation}
}

// IsValid reports whether k is a known variant.
func (k Kind) IsValid() bool {
	switch k {
	case KindMedicalExamination, KindTrainingAssignment, KindEquipmentCheck, KindLegalObligation:
		return true
	}
	return false
}

// Category maps the variant onto its scoring category.
func (k Kind) Category() Category {
	switch k {
	case KindMedicalExamination:
		return CategoryMedical
	case KindTrainingAssignment:
		return CategoryTraining
	case KindEquipmentCheck:
		return CategoryEquipment
	case KindLegalObligation:
		return CategoryLegal
	}
	return ""
}

// ─────────────────────────────────────────────────────────────────────────────
// Category
// ─────────────────────────────────────────────────────────────────────────────

// Category groups entities for the compliance score breakdown.
type Category string

const (
	CategoryMedical   Category = "medical"
	CategoryTraining  Category = "training"
	CategoryEquipment Category = "equipment"
	CategoryLegal     Category = "legal"
)

// AllCategories lists the score categories in report order.
func AllCategories() []Category {
	return []Category{CategoryMedical, CategoryTraining, CategoryEquipment, CategoryLegal}
}

// ─────────────────────────────────────────────────────────────────────────────
// EntityRef
// ─────────────────────────────────────────────────────────────────────────────

// EntityRef identifies one tracked entity across variants.
type EntityRef struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`
}

// String renders the ref as "<kind>:<id>".
func (r EntityRef) String() string {
	return string(r.Kind) + ":" + r.ID
}

// Less orders refs by kind, then id.
func (r EntityRef) Less(o EntityRef) bool {
	if r.Kind != o.Kind {
		return r.Kind < o.Kind
	}
	return r.ID < o.ID
}

// ParseEntityRef is the inverse of EntityRef.String.
func ParseEntityRef(s string) (EntityRef, error) {
	kind, id, ok := strings.Cut(s, ":")
	if !ok || id == "" || !Kind(kind).IsValid() {
		return EntityRef{}, fmt.Errorf("obligation: malformed entity ref %q", s)
	}
	return EntityRef{Kind: Kind(kind), ID: id}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// TrackedEntity
// ─────────────────────────────────────────────────────────────────────────────

// TrackedEntity is the projected shape shared by every obligation variant.
// The engine reads snapshots of it and only writes back the computed due date
// and severity caches.
type TrackedEntity struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Kind           Kind   `json:"kind"`
	Title          string `json:"title"`

	// OwnerID references the employee or equipment the obligation belongs to.
	OwnerID     string `json:"owner_id"`
	OwnerActive bool   `json:"owner_active"`

	// ReferenceDate is the last completed event (exam, training, verification).
	ReferenceDate *time.Time `json:"reference_date,omitempty"`
	// PeriodicityMonths is nil for one-time obligations.
	PeriodicityMonths *int `json:"periodicity_months,omitempty"`
	// DueDate is the explicitly stored deadline of one-time obligations.
	DueDate *time.Time `json:"due_date,omitempty"`

	// PublishedAt is set on legal-obligation instances only.
	PublishedAt *time.Time `json:"published_at,omitempty"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// Ref returns the entity's cross-variant identifier.
func (e TrackedEntity) Ref() EntityRef {
	return EntityRef{Kind: e.Kind, ID: e.ID}
}

// IsTrackable reports whether the entity participates in a sweep.
// Soft-deleted entities and entities of inactive owners are excluded.
func (e TrackedEntity) IsTrackable() bool {
	return e.DeletedAt == nil && e.OwnerActive
}

//Personal.AI order the ending
