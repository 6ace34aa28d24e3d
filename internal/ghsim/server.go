// Package ghsim is an in-memory stand-in for the GitHub GraphQL API. It
// implements the repository, issue and label fields and the issue mutations
// the gateway sends, so tests can run real documents end to end.
package ghsim

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/graphql-go/graphql"
	"github.com/rs/zerolog"
)

// Request is a recorded upstream call.
type Request struct {
	Authorization string
	UserAgent     string
	Query         string
	Variables     map[string]interface{}
	HasVariables  bool
}

type failure struct {
	status int
	body   string
}

// Server serves POST /graphql against a Store.
type Server struct {
	store  *Store
	token  string
	logger zerolog.Logger
	schema graphql.Schema
	mux    *http.ServeMux

	mu       sync.Mutex
	failures []failure
	requests []Request
}

// NewServer creates a simulator that accepts only the given bearer token.
func NewServer(token string, logger zerolog.Logger) *Server {
	s := &Server{
		store:  NewStore(),
		token:  token,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.schema = s.buildSchema()
	s.mux.HandleFunc("POST /graphql", s.handleGraphQL)
	s.mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "ghsim"})
	})
	return s
}

// Store returns the simulator state.
func (s *Server) Store() *Store { return s.store }

// FailNext makes the next request answer with status and a raw text body.
// Calls queue up.
func (s *Server) FailNext(status int, body string) {
	s.mu.Lock()
	s.failures = append(s.failures, failure{status: status, body: body})
	s.mu.Unlock()
}

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent request, or the zero value.
func (s *Server) LastRequest() Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}
	}
	return s.requests[len(s.requests)-1]
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-GitHub-Request-Id", uuid.New().String())
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query         string                 `json:"query"`
		Variables     map[string]interface{} `json:"variables"`
		OperationName string                 `json:"operationName"`
	}
	decodeErr := json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Authorization: r.Header.Get("Authorization"),
		UserAgent:     r.Header.Get("User-Agent"),
		Query:         req.Query,
		Variables:     req.Variables,
		HasVariables:  req.Variables != nil,
	})
	var fail *failure
	if len(s.failures) > 0 {
		fail = &s.failures[0]
		s.failures = s.failures[1:]
	}
	s.mu.Unlock()

	if fail != nil {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(fail.status)
		w.Write([]byte(fail.body))
		return
	}

	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.token {
		writeGHError(w, http.StatusUnauthorized, "Bad credentials")
		return
	}
	if decodeErr != nil {
		writeGHError(w, http.StatusBadRequest, "Problems parsing JSON")
		return
	}

	result := graphql.Do(graphql.Params{
		Schema:         s.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        r.Context(),
	})
	if len(result.Errors) > 0 {
		s.logger.Debug().Interface("errors", result.Errors).Msg("graphql errors")
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeGHError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"message":           message,
		"documentation_url": "https://docs.github.com/graphql",
	})
}
