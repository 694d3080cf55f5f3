package models

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// Actor identifies who performed a mutating operation.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// String returns the label stored in audit logs.
func (a Actor) String() string {
	if a.Name != "" && a.Name != a.ID {
		return a.ID + " (" + a.Name + ")"
	}
	return a.ID
}
