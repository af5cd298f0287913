package model

import "time"

// ReviewRecord is the stored result of one automated PR analysis.
//
// Records are written exclusively by the analysis worker after it pops a
// job off the queue; this service only ever reads them. A record always
// belongs to exactly one user and one repository full name, and survives
// deletion of the repository registration.
type ReviewRecord struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	RepoFullName  string    `json:"repo_full_name"`
	PRNumber      int       `json:"pr_number"`
	Language      string    `json:"language"`
	IssuesCount   int       `json:"issues_count"`
	ReviewComment string    `json:"review_comment"`
	CreatedAt     time.Time `json:"created_at"`
}

// DailyCount is one bucket of the dashboard chart: the number of reviews
// completed on a calendar day.
type DailyCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// DashboardStats is the aggregate payload behind GET /api/dashboard/stats.
//
// EstimatedLinterErrors is a derived heuristic (80% of total issues),
// not an independently measured quantity.
type DashboardStats struct {
	RepositoryCount       int          `json:"repositoryCount"`
	ReviewCount           int          `json:"reviewCount"`
	TotalIssues           int          `json:"totalIssues"`
	EstimatedLinterErrors int          `json:"estimatedLinterErrors"`
	DailySeries           []DailyCount `json:"dailySeries"`
}
