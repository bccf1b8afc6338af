package models

// FeatureFlag is one flag in admin responses.
type FeatureFlag struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
	// Default is true when no operator has set the flag.
	Default   bool       `json:"default"`
	UpdatedAt *Timestamp `json:"updatedAt,omitempty"`
	UpdatedBy string     `json:"updatedBy,omitempty"`
}

// FeatureFlagList is the response of GET /v1/admin/feature-flags.
type FeatureFlagList struct {
	Items []FeatureFlag `json:"items"`
}

// FeatureFlagUpdate is a single flag change.
type FeatureFlagUpdate struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// FeatureFlagUpdateRequest is the body of PUT /v1/admin/feature-flags.
type FeatureFlagUpdateRequest struct {
	Updates []FeatureFlagUpdate `json:"updates"`
	Reason  string              `json:"reason"`
}
