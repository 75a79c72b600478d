package github

// RepositorySummary is one entry of an organization's repository list.
type RepositorySummary struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	FullName        string  `json:"full_name"`
	Description     *string `json:"description"`
	StargazersCount int     `json:"stargazers_count"`
}

// GetDescription returns the description or "" when the repository has none.
func (r RepositorySummary) GetDescription() string {
	if r.Description == nil {
		return ""
	}
	return *r.Description
}

// RepositoryDetail is the full repository record fetched for a single
// selected summary.
type RepositoryDetail struct {
	RepositorySummary
	NetworkCount    int    `json:"network_count"`
	ForksCount      int    `json:"forks_count"`
	OpenIssuesCount int    `json:"open_issues_count"`
	Language        string `json:"language"`
	HTMLURL         string `json:"html_url"`
	DefaultBranch   string `json:"default_branch"`
}

// RepoInfo holds repository information for JSON export.
type RepoInfo struct {
	Date         string `json:"date"`
	Organization string `json:"organization"`
	Repository   string `json:"repository"`
	StarCount    int    `json:"starcount"`
}
