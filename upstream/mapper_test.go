package upstream

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okResponse(body string) *Response {
	return &Response{StatusCode: 200, Body: []byte(body)}
}

func TestDecodeCreatedIssue(t *testing.T) {
	op := testBuilder().CreateIssue(CreateIssue{Title: "T", RepositoryID: "R", Body: "B"})
	resp := okResponse(`{"data":{"createIssue":{"issue":{"id":"I_1","title":"T","body":"B","state":"OPEN","url":"u"}}}}`)

	issue, err := DecodeIssue(op, resp)
	require.NoError(t, err)
	require.NotNil(t, issue.ID)
	assert.Equal(t, "I_1", *issue.ID)
	assert.Equal(t, "T", *issue.Title)
	assert.Equal(t, "B", *issue.Body)
	assert.Equal(t, "OPEN", *issue.State)
	assert.Equal(t, "u", *issue.URL)
	assert.Nil(t, issue.CreatedAt)
	assert.Nil(t, issue.ClosedAt)
}

func TestDecodeFetchedIssue(t *testing.T) {
	op, err := testBuilder().FetchIssue(Repository{Owner: "octo", RepoName: "hello-world", IssueNumber: "1"})
	require.NoError(t, err)
	assert.Contains(t, op.Query, `issue(number: 1)`)

	resp := okResponse(`{"data":{"repository":{"issue":{"id":"I_1","body":"b","title":"Test","state":"OPEN","url":"https://github.com/octo/hello-world/issues/1"}}}}`)
	issue, err := DecodeIssue(op, resp)
	require.NoError(t, err)
	assert.Equal(t, "I_1", *issue.ID)
	assert.Equal(t, "Test", *issue.Title)
	assert.Equal(t, "b", *issue.Body)
	assert.Equal(t, "OPEN", *issue.State)
	assert.Equal(t, "https://github.com/octo/hello-world/issues/1", *issue.URL)
	assert.Nil(t, issue.CreatedAt)
	assert.Nil(t, issue.UpdatedAt)
	assert.Nil(t, issue.ClosedAt)
}

func TestDecodeMissingFieldsAreAbsent(t *testing.T) {
	op := testBuilder().CreateIssue(CreateIssue{})
	issue, err := DecodeIssue(op, okResponse(`{"data":{"createIssue":{"issue":{"id":"I_1","body":null}}}}`))
	require.NoError(t, err)
	assert.Equal(t, "I_1", *issue.ID)
	assert.Nil(t, issue.Title)
	assert.Nil(t, issue.Body)
}

func TestDecodeIsIdempotent(t *testing.T) {
	op := testBuilder().ListIssues("o", "n", 0)
	resp := okResponse(`{"data":{"repository":{"issues":{"nodes":[{"id":"I_1","title":"a"},{"id":"I_2","title":"b","closedAt":"2024-01-01T00:00:00Z"}]}}}}`)

	first, err := DecodeIssues(op, resp)
	require.NoError(t, err)
	second, err := DecodeIssues(op, resp)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	require.Len(t, first, 2)
	assert.Equal(t, "2024-01-01T00:00:00Z", *first[1].ClosedAt)
}

func TestDecodeEmptyLists(t *testing.T) {
	issues, err := DecodeIssues(testBuilder().ListIssues("o", "n", 0),
		okResponse(`{"data":{"repository":{"issues":{"nodes":[]}}}}`))
	require.NoError(t, err)
	assert.NotNil(t, issues)
	assert.Empty(t, issues)

	labels, err := DecodeLabels(testBuilder().ListLabels("o", "n", 0),
		okResponse(`{"data":{"repository":{"labels":{"nodes":[{"id":"LA_1","name":"bug","description":null}]}}}}`))
	require.NoError(t, err)
	require.Len(t, labels, 1)
	assert.Equal(t, "bug", *labels[0].Name)
	assert.Nil(t, labels[0].Description)
}

func TestUpstreamStatusFailure(t *testing.T) {
	op := testBuilder().CreateIssue(CreateIssue{Title: "T", RepositoryID: "R", Body: "B"})
	_, err := DecodeIssue(op, &Response{StatusCode: 429, Body: []byte("rate limited")})

	var ue *UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, 429, ue.StatusCode)
	assert.Equal(t, "rate limited", ue.Body)
	assert.Contains(t, err.Error(), "create issue")
	assert.Contains(t, err.Error(), "rate limited")
	assert.Equal(t, "failed to create issue: rate limited", err.Error())
	assert.Equal(t, "upstream_error", Outcome(err))
}

func TestGraphQLErrorsInSuccessfulResponse(t *testing.T) {
	op := testBuilder().DeleteIssue(DeleteIssue{IssueID: "nope"})
	err := CheckAck(op, okResponse(`{"data":{"deleteIssue":null},"errors":[{"message":"Could not resolve to a node"},{"message":"second"}]}`))

	var ue *UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "Could not resolve to a node; second", ue.Body)
	assert.Contains(t, err.Error(), "delete issue")
}

func TestMappingErrors(t *testing.T) {
	op := testBuilder().CreateIssue(CreateIssue{})

	cases := map[string]*Response{
		"not json":     okResponse(`<html>oops</html>`),
		"missing path": okResponse(`{"data":{}}`),
		"null result":  okResponse(`{"data":{"createIssue":null}}`),
		"wrong type":   okResponse(`{"data":{"createIssue":{"issue":"I_1"}}}`),
		"bad field":    okResponse(`{"data":{"createIssue":{"issue":{"id":5}}}}`),
		"no response":  nil,
	}
	for name, resp := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeIssue(op, resp)
			var me *MappingError
			require.True(t, errors.As(err, &me), "got %v", err)
			assert.Equal(t, "data.createIssue.issue", me.Path)
			assert.Equal(t, "mapping_error", Outcome(err))
		})
	}

	_, err := DecodeIssues(testBuilder().ListIssues("o", "n", 0),
		okResponse(`{"data":{"repository":{"issues":{"nodes":{"id":"x"}}}}}`))
	var me *MappingError
	assert.True(t, errors.As(err, &me))
}

func TestCheckAck(t *testing.T) {
	op := testBuilder().CloseIssue(FetchIssue{IssueID: "I_1"})
	assert.NoError(t, CheckAck(op, okResponse(`{"data":{"closeIssue":{"clientMutationId":null}}}`)))

	err := CheckAck(op, okResponse(`{"data":{"closeIssue":"done"}}`))
	var me *MappingError
	assert.True(t, errors.As(err, &me))
}
