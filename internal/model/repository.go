package model

import "time"

// Repository statuses. New registrations start active; the background
// checker (a separate process) may flip a repository to inactive.
const (
	RepoStatusActive   = "active"
	RepoStatusInactive = "inactive"
)

// Repository is a GitHub repository registered for automated PR review.
//
// FullName is the canonical "owner/name" string with the casing the user
// submitted. Comparisons are always case-insensitive: a user cannot hold
// both "acme/widgets" and "ACME/widgets".
//
// LastCheckedAt is nil until the background checker first visits the
// repository; this service records it but never writes it.
type Repository struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	FullName      string     `json:"full_name"`
	URL           string     `json:"url"`
	Status        string     `json:"status"`
	AddedAt       time.Time  `json:"added_at"`
	LastCheckedAt *time.Time `json:"last_checked_at"`
}

// RepositoryDetail is a repository together with its review history,
// newest review first.
type RepositoryDetail struct {
	Repository
	Reviews []ReviewRecord `json:"reviews"`
}
