package upstream

// Issue mirrors the upstream issue shape. Every field is optional because
// the upstream may omit any of them depending on the selection set.
type Issue struct {
	ID        *string `json:"id,omitempty"`
	Title     *string `json:"title,omitempty"`
	State     *string `json:"state,omitempty"`
	Body      *string `json:"body,omitempty"`
	URL       *string `json:"url,omitempty"`
	CreatedAt *string `json:"createdAt,omitempty"`
	UpdatedAt *string `json:"updatedAt,omitempty"`
	ClosedAt  *string `json:"closedAt,omitempty"`
}

// Label is a repository label as returned by the labels connection.
type Label struct {
	ID          *string `json:"id,omitempty"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Repository addresses a single issue in a repository.
type Repository struct {
	Owner       string
	RepoName    string
	IssueNumber string
}

// CreateIssue is the input of the createIssue operation.
type CreateIssue struct {
	Title        string
	RepositoryID string
	Body         string
}

// UpdateIssue is the input of the updateIssue operation. Nil fields are
// left untouched upstream.
type UpdateIssue struct {
	IssueID  string
	NewTitle *string
	NewBody  *string
}

// DeleteIssue is the input of the deleteIssue operation.
type DeleteIssue struct {
	IssueID string
}

// FetchIssue identifies an issue by node id (used by closeIssue).
type FetchIssue struct {
	IssueID string
}

// AddLabelsToLabelable is the input of the addLabelsToLabelable operation.
type AddLabelsToLabelable struct {
	IssueID  string
	LabelIDs []string
}

// ClientMutationID wraps the status string of an acknowledgement mutation.
type ClientMutationID struct {
	ClientMutationID string `json:"clientMutationId"`
}
