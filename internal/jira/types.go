package jira

// Project identifies a JIRA project by key.
type Project struct {
	Key string `json:"key"`
}

// IssueType names the kind of issue to create, for example Bug.
type IssueType struct {
	Name string `json:"name"`
}

// Priority names the priority assigned to a created issue.
type Priority struct {
	Name string `json:"name"`
}

// IssueFields is the payload for issue creation and the field subset decoded from searches.
type IssueFields struct {
	Project     Project   `json:"project"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	IssueType   IssueType `json:"issuetype"`
	Labels      []string  `json:"labels,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
}

// IssueStatus carries the workflow status of an existing issue.
type IssueStatus struct {
	Name string `json:"name"`
}

// Issue is an existing JIRA issue returned by search.
type Issue struct {
	ID  string `json:"id"`
	Key string `json:"key"`
	URL string `json:"self"`

	Fields struct {
		Summary string      `json:"summary"`
		Labels  []string    `json:"labels"`
		Status  IssueStatus `json:"status"`
	} `json:"fields"`
}

// CreatedIssue is the identifier set JIRA answers with after issue creation.
type CreatedIssue struct {
	ID  string `json:"id"`
	Key string `json:"key"`
	URL string `json:"self"`
}

type searchResponse struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
}
