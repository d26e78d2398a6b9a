package obligation

import "time"

// Snapshot is the normalized view of one entity at a given asOf instant.
// Unscheduled snapshots have no due date and carry TierOK; consumers must
// check Unscheduled before trusting Severity.
type Snapshot struct {
	Ref            EntityRef  `json:"entity_ref"`
	OrganizationID string     `json:"organization_id"`
	Title          string     `json:"title"`
	OwnerID        string     `json:"owner_id"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	DaysUntilDue   *int       `json:"days_until_due,omitempty"`
	Severity       Tier       `json:"severity"`
	Unscheduled    bool       `json:"unscheduled"`
}

// Category is the scoring category of the snapshot's entity.
func (s Snapshot) Category() Category {
	return s.Ref.Kind.Category()
}

// Snap classifies e as of asOf. Legal obligations published within the
// policy's info window are reported as info while their deadline is still ok.
func Snap(e TrackedEntity, asOf time.Time, policy Policy) (Snapshot, error) {
	s := Snapshot{
		Ref:            e.Ref(),
		OrganizationID: e.OrganizationID,
		Title:          e.Title,
		OwnerID:        e.OwnerID,
	}

	due, err := ResolveDueDate(e)
	if err != nil {
		return Snapshot{}, err
	}
	if due == nil {
		s.Unscheduled = true
		return s, nil
	}

	days := DaysUntil(*due, asOf)
	s.DueDate = due
	s.DaysUntilDue = &days
	s.Severity = tierForDays(days, policy)

	if s.Severity == TierOK && e.Kind == KindLegalObligation && e.PublishedAt != nil {
		if age := DaysUntil(asOf, *e.PublishedAt); age >= 0 && age <= policy.InfoWindowDays {
			s.Severity = TierInfo
		}
	}
	return s, nil
}

//Personal.AI order the ending
