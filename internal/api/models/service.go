package models

// Service is a catalogue entry.
type Service struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	URL            string     `json:"url"`
	IconRef        string     `json:"iconRef,omitempty"`
	Icon           []byte     `json:"icon,omitempty"`
	Position       int        `json:"position"`
	LastOnlineDate *Timestamp `json:"lastOnlineDate,omitempty"`
	CreatedAt      Timestamp  `json:"createdAt"`
	UpdatedAt      Timestamp  `json:"updatedAt"`
}

// ServiceList is the response of GET /v1/services.
type ServiceList struct {
	Items []Service `json:"items"`
}

// ServiceCreateRequest is the body of POST /v1/services.
type ServiceCreateRequest struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	IconRef string `json:"iconRef,omitempty"`
	Icon    []byte `json:"icon,omitempty"`
}

// Validate validates the create request.
func (r *ServiceCreateRequest) Validate() []FieldError {
	var errors []FieldError

	if r.Name == "" {
		errors = append(errors, FieldError{
			Field:   "name",
			Message: "name is required",
			Code:    "REQUIRED",
		})
	}
	if r.URL == "" {
		errors = append(errors, FieldError{
			Field:   "url",
			Message: "url is required",
			Code:    "REQUIRED",
		})
	}

	return errors
}

// ServiceUpdateRequest is the body of PUT /v1/services/{serviceId}.
// Omitted fields are left unchanged.
type ServiceUpdateRequest struct {
	Name    *string `json:"name,omitempty"`
	URL     *string `json:"url,omitempty"`
	IconRef *string `json:"iconRef,omitempty"`
	Icon    []byte  `json:"icon,omitempty"`
}
