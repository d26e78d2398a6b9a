package obligation

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Tier is the severity classification derived from days until due.
// The zero value is TierOK. Tiers are totally ordered:
// expired > urgent > warning > attention > info > ok.
type Tier int

const (
	TierOK Tier = iota
	TierInfo
	TierAttention
	TierWarning
	TierUrgent
	TierExpired
)

var tierNames = [...]string{"ok", "info", "attention", "warning", "urgent", "expired"}

// AllTiers returns every tier from least to most severe.
func AllTiers() []Tier {
	return []Tier{TierOK, TierInfo, TierAttention, TierWarning, TierUrgent, TierExpired}
}

func (t Tier) String() string {
	if t < TierOK || t > TierExpired {
		return fmt.Sprintf("tier(%d)", int(t))
	}
	return tierNames[t]
}

// IsAlertWorthy reports whether an entity at this tier needs an alert.
func (t Tier) IsAlertWorthy() bool {
	return t > TierOK && t <= TierExpired
}

// ParseTier accepts the lowercase tier name. "atentie" is accepted as an
// alias of attention since imported records use it.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ok":
		return TierOK, nil
	case "info":
		return TierInfo, nil
	case "attention", "atentie":
		return TierAttention, nil
	case "warning":
		return TierWarning, nil
	case "urgent":
		return TierUrgent, nil
	case "expired":
		return TierExpired, nil
	}
	return TierOK, fmt.Errorf("obligation: unknown severity tier %q", s)
}

// MarshalJSON encodes the tier by name.
func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a tier name.
func (t *Tier) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseTier(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Policy
// ─────────────────────────────────────────────────────────────────────────────

// Penalties are the points subtracted from a category's 100 baseline per
// entity at the given tier.
type Penalties struct {
	Expired     int `json:"expired" mapstructure:"expired"`
	Urgent      int `json:"urgent" mapstructure:"urgent"`
	Warning     int `json:"warning" mapstructure:"warning"`
	Attention   int `json:"attention" mapstructure:"attention"`
	Info        int `json:"info" mapstructure:"info"`
	Unscheduled int `json:"unscheduled" mapstructure:"unscheduled"`
}

// For returns the penalty of a scheduled entity at tier t.
func (p Penalties) For(t Tier) int {
	switch t {
	case TierExpired:
		return p.Expired
	case TierUrgent:
		return p.Urgent
	case TierWarning:
		return p.Warning
	case TierAttention:
		return p.Attention
	case TierInfo:
		return p.Info
	}
	return 0
}

// Policy is the single table of severity thresholds and score weights used by
// every obligation kind.
//
// Thresholds are exclusive upper bounds on daysUntilDue: a due date fewer
// than UrgentDays away is urgent, fewer than WarningDays is warning, fewer
// than AttentionDays is attention, anything further is ok. Negative distances
// are expired.
type Policy struct {
	UrgentDays    int `json:"urgent_days"`
	WarningDays   int `json:"warning_days"`
	AttentionDays int `json:"attention_days"`

	// InfoWindowDays is how long a newly published legal obligation is
	// reported at the info tier.
	InfoWindowDays int `json:"info_window_days"`

	Penalties Penalties `json:"penalties"`

	// CategoryWeights weigh categories in the total score. Missing
	// categories weigh 1.
	CategoryWeights map[Category]float64 `json:"category_weights,omitempty"`
}

// DefaultPolicy returns the standard thresholds (7/30/60 days) and penalties.
func DefaultPolicy() Policy {
	return Policy{
		UrgentDays:     7,
		WarningDays:    30,
		AttentionDays:  60,
		InfoWindowDays: 14,
		Penalties: Penalties{
			Expired:     15,
			Urgent:      10,
			Warning:     5,
			Attention:   2,
			Info:        0,
			Unscheduled: 5,
		},
	}
}

// Weight returns the score weight of category c.
func (p Policy) Weight(c Category) float64 {
	if w, ok := p.CategoryWeights[c]; ok {
		return w
	}
	return 1
}

// Validate checks threshold ordering and that penalties never decrease with
// severity, which keeps the score monotonic.
func (p Policy) Validate() error {
	if p.UrgentDays <= 0 || p.UrgentDays >= p.WarningDays || p.WarningDays >= p.AttentionDays {
		return fmt.Errorf("obligation: thresholds must satisfy 0 < urgent(%d) < warning(%d) < attention(%d)",
			p.UrgentDays, p.WarningDays, p.AttentionDays)
	}
	if p.InfoWindowDays < 0 {
		return fmt.Errorf("obligation: info_window_days must be >= 0, got %d", p.InfoWindowDays)
	}
	pen := p.Penalties
	if pen.Info < 0 || pen.Unscheduled < 0 {
		return fmt.Errorf("obligation: penalties must be non-negative")
	}
	if !(pen.Expired >= pen.Urgent && pen.Urgent >= pen.Warning && pen.Warning >= pen.Attention && pen.Attention >= pen.Info) {
		return fmt.Errorf("obligation: penalties must not decrease with severity")
	}
	for c, w := range p.CategoryWeights {
		if w <= 0 {
			return fmt.Errorf("obligation: weight for category %q must be positive", c)
		}
	}
	return nil
}

//Personal.AI order the ending
