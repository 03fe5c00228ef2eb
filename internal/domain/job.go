package domain

import (
	"fmt"
	"strings"
	"time"
)

// Seniority levels as emitted by the scraper.
type Seniority string

const (
	SeniorityIntern    Seniority = "intern"
	SeniorityJunior    Seniority = "junior"
	SeniorityMid       Seniority = "mid"
	SenioritySenior    Seniority = "senior"
	SeniorityStaff     Seniority = "staff"
	SeniorityPrincipal Seniority = "principal"
	SeniorityUnknown   Seniority = "unknown"
)

func ParseSeniority(s string) (Seniority, error) {
	switch Seniority(strings.ToLower(strings.TrimSpace(s))) {
	case SeniorityIntern:
		return SeniorityIntern, nil
	case SeniorityJunior:
		return SeniorityJunior, nil
	case SeniorityMid:
		return SeniorityMid, nil
	case SenioritySenior:
		return SenioritySenior, nil
	case SeniorityStaff:
		return SeniorityStaff, nil
	case SeniorityPrincipal:
		return SeniorityPrincipal, nil
	case SeniorityUnknown, "":
		return SeniorityUnknown, nil
	}
	return SeniorityUnknown, fmt.Errorf("unknown seniority %q", s)
}

// StagedJobRow is one row of the scraper's staging snapshot.
// Rows are written once by the scraper and read-only here.
type StagedJobRow struct {
	Title     string
	Company   string
	Location  string
	URL       string
	Source    string // originating ATS: greenhouse/lever/ashby/workday/...
	Seniority Seniority
	Score     int // scraper's own relevance heuristic, 0..100
	FoundAt   time.Time
}

// CanonicalJob is the document-store shape of a job. One document per staged
// row; the document id is store-generated, never derived from row fields.
type CanonicalJob struct {
	Title     string    `json:"title"`
	Company   string    `json:"company"`
	Location  string    `json:"location"`
	URL       string    `json:"url"`
	Source    string    `json:"source"`
	Seniority Seniority `json:"seniority"`
	Score     int       `json:"score"`
	PostedAt  time.Time `json:"postedAt"`
	CreatedAt time.Time `json:"createdAt"`
	Indexed   bool      `json:"indexed"` // flipped later by the external search indexer
}

// CanonicalFromRow normalizes a staged row into its document shape.
// now becomes createdAt; found_at carries over as postedAt.
func CanonicalFromRow(row StagedJobRow, now time.Time) CanonicalJob {
	return CanonicalJob{
		Title:     strings.TrimSpace(row.Title),
		Company:   strings.TrimSpace(row.Company),
		Location:  strings.TrimSpace(row.Location),
		URL:       strings.TrimSpace(row.URL),
		Source:    strings.ToLower(strings.TrimSpace(row.Source)),
		Seniority: row.Seniority,
		Score:     row.Score,
		PostedAt:  row.FoundAt.UTC(),
		CreatedAt: now.UTC(),
		Indexed:   false,
	}
}

func (j CanonicalJob) ToDoc() map[string]any {
	return map[string]any{
		"title":     j.Title,
		"company":   j.Company,
		"location":  j.Location,
		"url":       j.URL,
		"source":    j.Source,
		"seniority": string(j.Seniority),
		"score":     j.Score,
		"postedAt":  j.PostedAt,
		"createdAt": j.CreatedAt,
		"indexed":   j.Indexed,
	}
}

// SearchText is the haystack keyword matching runs against.
func (j CanonicalJob) SearchText() string {
	return strings.ToLower(j.Title + " " + j.Company + " " + j.Location)
}
