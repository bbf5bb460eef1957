package model

// Placeholders used when a job references a company or job type that the
// catalog does not contain.
const (
	UnknownCompany = "Unknown Company"
	UnknownJobType = "Unknown Job Type"
)

// Company is a hiring organization as served by the backend.
type Company struct {
	ID       ID     `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	LogoURL  string `json:"logoUrl,omitempty"`
}

// JobType is a job category.
type JobType struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// Job is a job posting referencing a company and a job type.
type Job struct {
	ID        ID     `json:"id"`
	CompanyID ID     `json:"companyId"`
	JobTypeID ID     `json:"jobTypeId"`
	Location  string `json:"location,omitempty"`
}

// EnrichedJob is a Job with display fields resolved from the catalog.
type EnrichedJob struct {
	Job
	CompanyName     string `json:"companyName"`
	CompanyLocation string `json:"companyLocation"`
	JobTypeName     string `json:"jobTypeName"`
}

// SearchResult holds at most a handful of matching companies and jobs.
type SearchResult struct {
	Companies []Company     `json:"companies"`
	Jobs      []EnrichedJob `json:"jobs"`
}

// HasResults reports whether either list is non-empty.
func (r SearchResult) HasResults() bool {
	return len(r.Companies) > 0 || len(r.Jobs) > 0
}
