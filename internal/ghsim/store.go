package ghsim

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Repo is a simulated repository.
type Repo struct {
	ID     int
	NodeID string
	Owner  string
	Name   string
}

// FullName returns owner/name.
func (r *Repo) FullName() string { return r.Owner + "/" + r.Name }

// Label is a simulated repository label.
type Label struct {
	ID          int
	NodeID      string
	RepoID      int
	Name        string
	Description string
	Color       string
}

// Issue is a simulated issue.
type Issue struct {
	ID        int
	NodeID    string
	Number    int // per-repo sequential
	RepoID    int
	Title     string
	Body      string
	State     string // "OPEN", "CLOSED"
	LabelIDs  []int
	CreatedAt time.Time
	UpdatedAt time.Time
	ClosedAt  *time.Time
}

// Store holds all simulated state behind one lock.
type Store struct {
	mu          sync.RWMutex
	Repos       map[int]*Repo
	Issues      map[int]*Issue
	Labels      map[int]*Label
	nextRepo    int
	nextIssue   int
	nextLabel   int
	issueNumber map[int]int // repo id -> last issue number
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		Repos:       make(map[int]*Repo),
		Issues:      make(map[int]*Issue),
		Labels:      make(map[int]*Label),
		issueNumber: make(map[int]int),
	}
}

// CreateRepo adds a repository and returns it.
func (st *Store) CreateRepo(owner, name string) *Repo {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.nextRepo++
	r := &Repo{
		ID:     st.nextRepo,
		NodeID: fmt.Sprintf("R_%d", st.nextRepo),
		Owner:  owner,
		Name:   name,
	}
	st.Repos[r.ID] = r
	return r
}

// LookupRepo finds a repository by owner and name.
func (st *Store) LookupRepo(owner, name string) *Repo {
	st.mu.RLock()
	defer st.mu.RUnlock()
	for _, r := range st.Repos {
		if r.Owner == owner && r.Name == name {
			return r
		}
	}
	return nil
}

func (st *Store) repoByNodeID(nodeID string) *Repo {
	for _, r := range st.Repos {
		if r.NodeID == nodeID {
			return r
		}
	}
	return nil
}

// CreateLabel adds a label to the repository with the given node id.
// It returns nil if the repository does not exist or the name is taken.
func (st *Store) CreateLabel(repoNodeID, name, description, color string) *Label {
	st.mu.Lock()
	defer st.mu.Unlock()

	repo := st.repoByNodeID(repoNodeID)
	if repo == nil {
		return nil
	}
	for _, l := range st.Labels {
		if l.RepoID == repo.ID && l.Name == name {
			return nil
		}
	}

	st.nextLabel++
	l := &Label{
		ID:          st.nextLabel,
		NodeID:      fmt.Sprintf("LA_%d", st.nextLabel),
		RepoID:      repo.ID,
		Name:        name,
		Description: description,
		Color:       color,
	}
	st.Labels[l.ID] = l
	return l
}

// ListLabels returns the repository's labels ordered by id.
func (st *Store) ListLabels(repoID int) []*Label {
	st.mu.RLock()
	defer st.mu.RUnlock()

	var out []*Label
	for _, l := range st.Labels {
		if l.RepoID == repoID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

// CreateIssue opens an issue in the repository with the given node id.
func (st *Store) CreateIssue(repoNodeID, title, body string) *Issue {
	st.mu.Lock()
	defer st.mu.Unlock()

	repo := st.repoByNodeID(repoNodeID)
	if repo == nil {
		return nil
	}

	st.nextIssue++
	st.issueNumber[repo.ID]++
	now := time.Now().UTC()
	i := &Issue{
		ID:        st.nextIssue,
		NodeID:    fmt.Sprintf("I_%d", st.nextIssue),
		Number:    st.issueNumber[repo.ID],
		RepoID:    repo.ID,
		Title:     title,
		Body:      body,
		State:     "OPEN",
		CreatedAt: now,
		UpdatedAt: now,
	}
	st.Issues[i.ID] = i
	return i
}

// GetIssueByNumber returns the issue with the per-repo number, or nil.
func (st *Store) GetIssueByNumber(repoID, number int) *Issue {
	st.mu.RLock()
	defer st.mu.RUnlock()
	for _, i := range st.Issues {
		if i.RepoID == repoID && i.Number == number {
			return i
		}
	}
	return nil
}

// GetIssueByNodeID returns the issue with the given node id, or nil.
func (st *Store) GetIssueByNodeID(nodeID string) *Issue {
	st.mu.RLock()
	defer st.mu.RUnlock()
	for _, i := range st.Issues {
		if i.NodeID == nodeID {
			return i
		}
	}
	return nil
}

// ListIssues returns the repository's issues ordered by number.
func (st *Store) ListIssues(repoID int) []*Issue {
	st.mu.RLock()
	defer st.mu.RUnlock()

	var out []*Issue
	for _, i := range st.Issues {
		if i.RepoID == repoID {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Number < out[b].Number })
	return out
}

// UpdateIssue applies fn to the issue under the write lock.
func (st *Store) UpdateIssue(id int, fn func(*Issue)) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	i, ok := st.Issues[id]
	if !ok {
		return false
	}
	fn(i)
	i.UpdatedAt = time.Now().UTC()
	return true
}

// DeleteIssue removes the issue.
func (st *Store) DeleteIssue(id int) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.Issues[id]; !ok {
		return false
	}
	delete(st.Issues, id)
	return true
}

// AddLabels attaches labels by node id, skipping ones already present.
// It returns false if any label id cannot be resolved.
func (st *Store) AddLabels(issueID int, labelNodeIDs []string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	i, ok := st.Issues[issueID]
	if !ok {
		return false
	}
	var ids []int
	for _, nodeID := range labelNodeIDs {
		var found *Label
		for _, l := range st.Labels {
			if l.NodeID == nodeID && l.RepoID == i.RepoID {
				found = l
				break
			}
		}
		if found == nil {
			return false
		}
		ids = append(ids, found.ID)
	}
	for _, id := range ids {
		if !containsInt(i.LabelIDs, id) {
			i.LabelIDs = append(i.LabelIDs, id)
		}
	}
	i.UpdatedAt = time.Now().UTC()
	return true
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
