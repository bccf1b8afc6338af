package models

// Dashboard is the response of GET /v1/dashboard.
type Dashboard struct {
	EditMode bool  `json:"editMode"`
	Rows     []Row `json:"rows"`
}

// Row is one rendered dashboard row.
type Row struct {
	ServiceID string `json:"serviceId"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	IconRef   string `json:"iconRef,omitempty"`
	// Icon is base64 encoded by encoding/json.
	Icon     []byte `json:"icon,omitempty"`
	Position int    `json:"position"`

	// Glyph is one of none, spinner, checkmark, warning.
	Glyph   string  `json:"glyph"`
	Message *string `json:"message,omitempty"`
	Loading bool    `json:"loading"`

	StatusCode     *int       `json:"statusCode,omitempty"`
	ResponseTimeMs *int64     `json:"responseTimeMs,omitempty"`
	LastOnlineDate *Timestamp `json:"lastOnlineDate,omitempty"`
}

// EditModeRequest is the body of PUT /v1/dashboard/edit-mode.
type EditModeRequest struct {
	Enabled *bool `json:"enabled"`
}

// EditModeResponse reports the current edit mode.
type EditModeResponse struct {
	EditMode bool `json:"editMode"`
}

// PositionRequest is the body of PUT /v1/dashboard/rows/{serviceId}/position.
type PositionRequest struct {
	Position *int `json:"position"`
}
