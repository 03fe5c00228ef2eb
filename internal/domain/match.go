package domain

import "time"

// MatchRecord is a qualifying (user, job) score. At most one per pair: the
// document id is the pair key, so repeated runs upsert instead of duplicating.
type MatchRecord struct {
	UserID     string    `json:"userId"`
	JobID      string    `json:"jobId"`
	MatchScore int       `json:"matchScore"`
	CreatedAt  time.Time `json:"createdAt"`
}

func MatchPairKey(userID, jobID string) string {
	return userID + "_" + jobID
}

func (m MatchRecord) PairKey() string {
	return MatchPairKey(m.UserID, m.JobID)
}

func (m MatchRecord) ToDoc() map[string]any {
	return map[string]any{
		"userId":     m.UserID,
		"jobId":      m.JobID,
		"matchScore": m.MatchScore,
		"createdAt":  m.CreatedAt,
	}
}
