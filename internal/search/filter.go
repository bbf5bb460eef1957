package search

import (
	"strings"

	"github.com/matheus3301/jobdesk/internal/model"
)

// MinQueryLength is the shortest trimmed query that triggers a search.
const MinQueryLength = 3

// MaxResults caps each result list.
const MaxResults = 5

// normalize returns the lower-cased trimmed query and whether it is long
// enough to search for.
func normalize(query string) (string, bool) {
	q := strings.TrimSpace(query)
	if len([]rune(q)) < MinQueryLength {
		return "", false
	}
	return strings.ToLower(q), true
}

// Enrich resolves display fields for every job from the catalog.
func Enrich(jobs []model.Job, companies []model.Company, jobTypes []model.JobType) []model.EnrichedJob {
	byCompany := make(map[model.ID]model.Company, len(companies))
	for _, c := range companies {
		if _, ok := byCompany[c.ID]; !ok {
			byCompany[c.ID] = c
		}
	}
	byType := make(map[model.ID]model.JobType, len(jobTypes))
	for _, jt := range jobTypes {
		if _, ok := byType[jt.ID]; !ok {
			byType[jt.ID] = jt
		}
	}

	out := make([]model.EnrichedJob, 0, len(jobs))
	for _, j := range jobs {
		ej := model.EnrichedJob{Job: j, CompanyName: model.UnknownCompany, JobTypeName: model.UnknownJobType}
		if c, ok := byCompany[j.CompanyID]; ok {
			ej.CompanyName = c.Name
			ej.CompanyLocation = c.Location
		}
		if jt, ok := byType[j.JobTypeID]; ok {
			ej.JobTypeName = jt.Name
		}
		out = append(out, ej)
	}
	return out
}

// Filter returns the first MaxResults companies and jobs matching query.
// Matching is a case-insensitive substring test. q must already be
// normalized.
func Filter(q string, companies []model.Company, jobs []model.EnrichedJob) model.SearchResult {
	res := model.SearchResult{Companies: []model.Company{}, Jobs: []model.EnrichedJob{}}
	for _, c := range companies {
		if len(res.Companies) == MaxResults {
			break
		}
		if contains(c.Name, q) || contains(c.Location, q) {
			res.Companies = append(res.Companies, c)
		}
	}
	for _, j := range jobs {
		if len(res.Jobs) == MaxResults {
			break
		}
		if contains(j.JobTypeName, q) || contains(j.CompanyName, q) ||
			contains(j.Location, q) || contains(j.CompanyLocation, q) {
			res.Jobs = append(res.Jobs, j)
		}
	}
	return res
}

func contains(field, q string) bool {
	return field != "" && strings.Contains(strings.ToLower(field), q)
}
