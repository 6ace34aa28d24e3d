package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sockerless/issuehub/internal/ghsim"
)

const testToken = "ghp_test"

type recordingObserver struct {
	mu       sync.Mutex
	outcomes map[string][]string
}

func (o *recordingObserver) ObserveUpstream(operation, outcome string, dur time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.outcomes == nil {
		o.outcomes = make(map[string][]string)
	}
	o.outcomes[operation] = append(o.outcomes[operation], outcome)
}

func (o *recordingObserver) get(op string) []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.outcomes[op]
}

// newSimClient starts a simulator with one repository "octo/hello-world"
// and returns a client pointed at it.
func newSimClient(t *testing.T, opts ...Option) (*Client, *ghsim.Server, *ghsim.Repo) {
	t.Helper()
	sim := ghsim.NewServer(testToken, zerolog.Nop())
	ts := httptest.NewServer(sim)
	t.Cleanup(ts.Close)

	repo := sim.Store().CreateRepo("octo", "hello-world")

	cfg := DefaultConfig()
	cfg.Endpoint = ts.URL + "/graphql"
	cfg.Token = testToken
	cfg.Timeout = 5 * time.Second

	c, err := NewClient(cfg, opts...)
	require.NoError(t, err)
	return c, sim, repo
}

func TestClientSendsAuthAndUserAgent(t *testing.T) {
	c, sim, repo := newSimClient(t)

	_, err := c.CreateIssue(context.Background(), CreateIssue{Title: "T", RepositoryID: repo.NodeID, Body: "B"})
	require.NoError(t, err)

	req := sim.LastRequest()
	assert.Equal(t, "Bearer "+testToken, req.Authorization)
	assert.Equal(t, DefaultUserAgent, req.UserAgent)
	assert.True(t, req.HasVariables)
	assert.Len(t, req.Variables, 3)
}

func TestClientEndToEnd(t *testing.T) {
	ctx := context.Background()
	c, sim, repo := newSimClient(t)
	bug := sim.Store().CreateLabel(repo.NodeID, "bug", "Something is wrong", "d73a4a")
	docs := sim.Store().CreateLabel(repo.NodeID, "docs", "", "0075ca")

	created, err := c.CreateIssue(ctx, CreateIssue{Title: "e2e", RepositoryID: repo.NodeID, Body: "Test"})
	require.NoError(t, err)
	assert.Equal(t, "I_1", *created.ID)
	assert.Equal(t, "e2e", *created.Title)
	assert.Equal(t, "Test", *created.Body)
	assert.Equal(t, "OPEN", *created.State)
	assert.Equal(t, "https://github.com/octo/hello-world/issues/1", *created.URL)

	fetched, err := c.GetIssue(ctx, Repository{Owner: "octo", RepoName: "hello-world", IssueNumber: "1"})
	require.NoError(t, err)
	assert.Equal(t, *created.ID, *fetched.ID)
	assert.False(t, sim.LastRequest().HasVariables)

	newTitle := "renamed"
	updated, err := c.UpdateIssue(ctx, UpdateIssue{IssueID: *created.ID, NewTitle: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "renamed", *updated.Title)
	assert.Equal(t, "Test", *updated.Body, "absent body leaves it unchanged")

	msg, err := c.AddLabels(ctx, AddLabelsToLabelable{IssueID: *created.ID, LabelIDs: []string{bug.NodeID, docs.NodeID}})
	require.NoError(t, err)
	assert.Equal(t, "Add label successfully", msg)
	assert.Len(t, sim.Store().GetIssueByNodeID(*created.ID).LabelIDs, 2)

	labels, err := c.ListLabels(ctx, "octo", "hello-world", 0)
	require.NoError(t, err)
	require.Len(t, labels, 2)
	assert.Equal(t, "bug", *labels[0].Name)

	msg, err = c.CloseIssue(ctx, FetchIssue{IssueID: *created.ID})
	require.NoError(t, err)
	assert.Equal(t, "Issue closed successfully", msg)

	issues, err := c.ListIssues(ctx, "octo", "hello-world", 0)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "CLOSED", *issues[0].State)
	assert.NotNil(t, issues[0].ClosedAt)
	assert.NotNil(t, issues[0].CreatedAt)

	ack, err := c.DeleteIssue(ctx, DeleteIssue{IssueID: *created.ID})
	require.NoError(t, err)
	assert.Equal(t, "deleted", ack.ClientMutationID)

	issues, err = c.ListIssues(ctx, "octo", "hello-world", 0)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestClientListIssuesLast(t *testing.T) {
	c, sim, repo := newSimClient(t)
	for _, title := range []string{"one", "two", "three"} {
		sim.Store().CreateIssue(repo.NodeID, title, "")
	}

	issues, err := c.ListIssues(context.Background(), "octo", "hello-world", 2)
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, "two", *issues[0].Title)
	assert.Equal(t, "three", *issues[1].Title)
	assert.Equal(t, 2, int(sim.LastRequest().Variables["last"].(float64)))
}

func TestClientUpstreamFailures(t *testing.T) {
	obs := &recordingObserver{}
	c, sim, repo := newSimClient(t, WithObserver(obs))

	sim.FailNext(http.StatusTooManyRequests, "rate limited")
	_, err := c.CreateIssue(context.Background(), CreateIssue{Title: "T", RepositoryID: repo.NodeID, Body: "B"})
	var ue *UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusTooManyRequests, ue.StatusCode)
	assert.Equal(t, "failed to create issue: rate limited", err.Error())

	_, err = c.GetIssue(context.Background(), Repository{Owner: "octo", RepoName: "hello-world", IssueNumber: "99"})
	require.True(t, errors.As(err, &ue))
	assert.Contains(t, err.Error(), "Could not resolve to an Issue with the number of 99.")

	_, err = c.DeleteIssue(context.Background(), DeleteIssue{IssueID: "I_404"})
	require.True(t, errors.As(err, &ue))

	assert.Equal(t, []string{"upstream_error"}, obs.get("createIssue"))
	assert.Equal(t, []string{"upstream_error"}, obs.get("getIssue"))
	assert.Equal(t, []string{"upstream_error"}, obs.get("deleteIssue"))
}

func TestClientBadCredentials(t *testing.T) {
	sim := ghsim.NewServer("other", zerolog.Nop())
	ts := httptest.NewServer(sim)
	defer ts.Close()

	cfg := DefaultConfig()
	cfg.Endpoint = ts.URL + "/graphql"
	cfg.Token = testToken
	c, err := NewClient(cfg)
	require.NoError(t, err)

	_, err = c.ListLabels(context.Background(), "octo", "hello-world", 0)
	var ue *UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusUnauthorized, ue.StatusCode)
	assert.Contains(t, ue.Body, "Bad credentials")
}

func TestClientTransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	endpoint := ts.URL + "/graphql"
	ts.Close()

	obs := &recordingObserver{}
	cfg := DefaultConfig()
	cfg.Endpoint = endpoint
	cfg.Token = testToken
	c, err := NewClient(cfg, WithObserver(obs))
	require.NoError(t, err)

	_, err = c.ListIssues(context.Background(), "octo", "hello-world", 0)
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Contains(t, err.Error(), "failed to get repository issues")
	assert.Equal(t, []string{"transport_error"}, obs.get("getRepositoryIssues"))
}

func TestClientInputErrorsSkipNetwork(t *testing.T) {
	obs := &recordingObserver{}
	c, sim, _ := newSimClient(t, WithObserver(obs))

	_, err := c.GetIssue(context.Background(), Repository{Owner: "octo", RepoName: "hello-world", IssueNumber: "abc"})
	var ie *InputError
	require.True(t, errors.As(err, &ie))

	_, err = c.AddLabels(context.Background(), AddLabelsToLabelable{IssueID: "I_1"})
	require.True(t, errors.As(err, &ie))

	assert.Empty(t, sim.Requests())
	assert.Equal(t, []string{"invalid_input"}, obs.get("getIssue"))
	assert.Equal(t, []string{"invalid_input"}, obs.get("addLabelsToLabelable"))
}

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient(DefaultConfig())
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = NewTransport(DefaultConfig())
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Token = "x"
	require.NoError(t, cfg.Validate())

	cfg.IssuesLimit = 101
	var ce *ConfigError
	require.True(t, errors.As(cfg.Validate(), &ce))
	assert.Equal(t, "upstream.issues_limit", ce.Field)

	cfg = DefaultConfig()
	cfg.Token = "x"
	cfg.Endpoint = ""
	require.True(t, errors.As(cfg.Validate(), &ce))
	assert.Equal(t, "upstream.endpoint", ce.Field)
}

func TestClientConcurrentUse(t *testing.T) {
	c, sim, repo := newSimClient(t)
	sim.Store().CreateIssue(repo.NodeID, "shared", "")

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.GetIssue(context.Background(), Repository{Owner: "octo", RepoName: "hello-world", IssueNumber: "1"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Len(t, sim.Requests(), 16)
}

func TestTransportTimeoutIsOptIn(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Token = testToken
	assert.Zero(t, cfg.Timeout)

	tr, err := NewTransport(cfg)
	require.NoError(t, err)
	assert.Zero(t, tr.client.Timeout, "no client-side deadline unless configured")

	cfg.Timeout = 2 * time.Second
	tr, err = NewTransport(cfg)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, tr.client.Timeout)
}
