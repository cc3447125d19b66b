package models

// IPOUpdate carries the operator-editable fields. A nil field is left untouched.
type IPOUpdate struct {
	Recommendation      *Recommendation `json:"Recommendation,omitempty"`
	ApplyForListingGain *bool           `json:"apply_for_listing_gain,omitempty"`

	// Source names the surface the edit came from, recorded in the audit trail
	Source string `json:"-"`
}

// IsEmpty reports whether no editable field is present
func (u IPOUpdate) IsEmpty() bool {
	return u.Recommendation == nil && u.ApplyForListingGain == nil
}

// Fields returns the column names of the provided fields
func (u IPOUpdate) Fields() []string {
	var fields []string
	if u.Recommendation != nil {
		fields = append(fields, "recommendation")
	}
	if u.ApplyForListingGain != nil {
		fields = append(fields, "apply_for_listing_gain")
	}
	return fields
}

// UpdateResult mirrors matched/modified counts of a single-record update
type UpdateResult struct {
	Matched       bool  `json:"-"`
	ModifiedCount int64 `json:"modifiedCount"`
}
