package upstream

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Operation is one upstream GraphQL request ready to be sent, together with
// the path at which the mapper finds its result. Name identifies the
// operation in logs, spans and metrics.
type Operation struct {
	Name        string
	Description string
	Query       string
	Variables   map[string]interface{}
	ResultPath  string
}

// Payload returns the JSON body for the upstream request. Operations without
// variables are sent as {query} alone.
func (op Operation) Payload() map[string]interface{} {
	p := map[string]interface{}{"query": op.Query}
	if len(op.Variables) > 0 {
		p["variables"] = op.Variables
	}
	return p
}

const fetchIssueQuery = `
query {
  repository(owner: %s, name: %s) {
    issue(number: %d) {
      id
      body
      title
      state
      url
    }
  }
}`

const listIssuesQuery = `
query GetIssues($owner: String!, $repoName: String!, $last: Int!) {
  repository(owner: $owner, name: $repoName) {
    issues(last: $last) {
      nodes {
        id
        title
        body
        state
        createdAt
        updatedAt
        closedAt
        url
      }
    }
  }
}`

const listLabelsQuery = `
query GetLabels($owner: String!, $repoName: String!, $first: Int!) {
  repository(owner: $owner, name: $repoName) {
    labels(first: $first) {
      nodes {
        id
        name
        description
      }
    }
  }
}`

const createIssueMutation = `
mutation CreateIssue($repositoryId: ID!, $title: String!, $body: String) {
  createIssue(input: {repositoryId: $repositoryId, title: $title, body: $body}) {
    issue {
      id
      title
      body
      state
      url
    }
  }
}`

const updateIssueMutation = `
mutation UpdateIssue($id: ID!, $title: String, $body: String) {
  updateIssue(input: {id: $id, title: $title, body: $body}) {
    issue {
      id
      title
      body
      state
      url
    }
  }
}`

const deleteIssueMutation = `
mutation DeleteIssue($issueId: ID!) {
  deleteIssue(input: {issueId: $issueId}) {
    clientMutationId
  }
}`

const closeIssueMutation = `
mutation CloseIssue($issueId: ID!) {
  closeIssue(input: {issueId: $issueId}) {
    clientMutationId
  }
}`

const addLabelsMutation = `
mutation AddLabelsToLabelable($labelableId: ID!, $labelIds: [ID!]!) {
  addLabelsToLabelable(input: {labelableId: $labelableId, labelIds: $labelIds}) {
    labelable {
      ... on Issue {
        id
        title
        labels(first: 5) {
          nodes {
            name
          }
        }
      }
    }
  }
}`

// Builder turns typed inputs into upstream operations. It is immutable and
// safe for concurrent use.
type Builder struct {
	issuesLimit int
	labelsLimit int
}

// NewBuilder returns a Builder using the list limits from cfg.
func NewBuilder(cfg Config) *Builder {
	b := &Builder{issuesLimit: cfg.IssuesLimit, labelsLimit: cfg.LabelsLimit}
	if b.issuesLimit <= 0 {
		b.issuesLimit = DefaultIssuesLimit
	}
	if b.labelsLimit <= 0 {
		b.labelsLimit = DefaultLabelsLimit
	}
	return b
}

// FetchIssue looks up one issue by repository and number. The arguments are
// written as GraphQL literals, so each one goes through literal encoding
// rather than plain formatting.
func (b *Builder) FetchIssue(in Repository) (Operation, error) {
	const desc = "get issue"
	number, err := strconv.Atoi(strings.TrimSpace(in.IssueNumber))
	if err != nil || number < 1 {
		return Operation{}, &InputError{Op: desc, Field: "issuenumber", Reason: fmt.Sprintf("%q is not a positive integer", in.IssueNumber)}
	}
	return Operation{
		Name:        "getIssue",
		Description: desc,
		Query:       fmt.Sprintf(fetchIssueQuery, stringLiteral(in.Owner), stringLiteral(in.RepoName), number),
		ResultPath:  "data.repository.issue",
	}, nil
}

// ListIssues returns the last n issues of a repository. n <= 0 selects the
// configured limit.
func (b *Builder) ListIssues(owner, name string, n int) Operation {
	return Operation{
		Name:        "getRepositoryIssues",
		Description: "get repository issues",
		Query:       listIssuesQuery,
		Variables: map[string]interface{}{
			"owner":    owner,
			"repoName": name,
			"last":     clampLimit(n, b.issuesLimit),
		},
		ResultPath: "data.repository.issues.nodes",
	}
}

// ListLabels returns the first n labels of a repository. n <= 0 selects the
// configured limit.
func (b *Builder) ListLabels(owner, name string, n int) Operation {
	return Operation{
		Name:        "getLabels",
		Description: "get labels",
		Query:       listLabelsQuery,
		Variables: map[string]interface{}{
			"owner":    owner,
			"repoName": name,
			"first":    clampLimit(n, b.labelsLimit),
		},
		ResultPath: "data.repository.labels.nodes",
	}
}

func (b *Builder) CreateIssue(in CreateIssue) Operation {
	return Operation{
		Name:        "createIssue",
		Description: "create issue",
		Query:       createIssueMutation,
		Variables: map[string]interface{}{
			"repositoryId": in.RepositoryID,
			"title":        in.Title,
			"body":         in.Body,
		},
		ResultPath: "data.createIssue.issue",
	}
}

// UpdateIssue omits absent optional fields from the variables so the
// upstream leaves them unchanged.
func (b *Builder) UpdateIssue(in UpdateIssue) Operation {
	vars := map[string]interface{}{"id": in.IssueID}
	if in.NewTitle != nil {
		vars["title"] = *in.NewTitle
	}
	if in.NewBody != nil {
		vars["body"] = *in.NewBody
	}
	return Operation{
		Name:        "updateIssue",
		Description: "update issue",
		Query:       updateIssueMutation,
		Variables:   vars,
		ResultPath:  "data.updateIssue.issue",
	}
}

func (b *Builder) DeleteIssue(in DeleteIssue) Operation {
	return Operation{
		Name:        "deleteIssue",
		Description: "delete issue",
		Query:       deleteIssueMutation,
		Variables:   map[string]interface{}{"issueId": in.IssueID},
		ResultPath:  "data.deleteIssue",
	}
}

func (b *Builder) CloseIssue(in FetchIssue) Operation {
	return Operation{
		Name:        "closeIssue",
		Description: "close issue",
		Query:       closeIssueMutation,
		Variables:   map[string]interface{}{"issueId": in.IssueID},
		ResultPath:  "data.closeIssue",
	}
}

// AddLabels binds the full label list; an empty list is rejected.
func (b *Builder) AddLabels(in AddLabelsToLabelable) (Operation, error) {
	const desc = "add label in issue"
	if len(in.LabelIDs) == 0 {
		return Operation{}, &InputError{Op: desc, Field: "labelIds", Reason: "at least one label id is required"}
	}
	ids := make([]string, len(in.LabelIDs))
	copy(ids, in.LabelIDs)
	return Operation{
		Name:        "addLabelsToLabelable",
		Description: desc,
		Query:       addLabelsMutation,
		Variables: map[string]interface{}{
			"labelableId": in.IssueID,
			"labelIds":    ids,
		},
		ResultPath: "data.addLabelsToLabelable",
	}, nil
}

// stringLiteral encodes s as a GraphQL string literal. JSON string escaping
// is a subset of the GraphQL string grammar.
func stringLiteral(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func clampLimit(n, def int) int {
	if n <= 0 {
		return def
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}
