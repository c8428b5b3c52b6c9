package project

// Status is server-defined. Values outside the well-known set are kept as-is.
type Status string

const (
	StatusPlanned   Status = "planned"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Known reports whether s is one of the statuses this client has a name for.
// Unknown statuses are valid; callers must not reject them.
func (s Status) Known() bool {
	switch s {
	case StatusPlanned, StatusActive, StatusCompleted:
		return true
	}
	return false
}

type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Project is a cached copy of a remote project record. The remote data source
// owns it; EndDate >= StartDate is enforced there, not here.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	StartDate   Date   `json:"start_date"`
	EndDate     *Date  `json:"end_date"`
	Status      Status `json:"status"`
	Teams       []Team `json:"teams"`
}

// Ongoing reports whether the project has no end date.
func (p Project) Ongoing() bool { return p.EndDate == nil }

// TeamIDs returns the team identifiers in source order.
func (p Project) TeamIDs() []string {
	ids := make([]string, len(p.Teams))
	for i, t := range p.Teams {
		ids[i] = t.ID
	}
	return ids
}

// Clone returns a deep copy so cached records are never aliased by callers.
// A nil team list becomes an empty one.
func (p Project) Clone() Project {
	out := p
	out.Teams = make([]Team, len(p.Teams))
	copy(out.Teams, p.Teams)
	if p.EndDate != nil {
		d := *p.EndDate
		out.EndDate = &d
	}
	return out
}
