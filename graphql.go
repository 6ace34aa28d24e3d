package issuehub

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
)

// initGraphQLSchema builds the GraphQL schema with all types and resolvers.
func (s *Server) initGraphQLSchema() {
	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Query",
		Fields: graphql.Fields{},
	})
	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Mutation",
		Fields: graphql.Fields{},
	})

	// Issue and label types, queries and mutations (schema_issues.go)
	s.addIssueFieldsToSchema(queryType, mutationType)

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to create graphql schema: %v", err))
	}
	s.graphqlSchema = schema
}

func (s *Server) registerGraphQLRoutes() {
	s.mux.HandleFunc("POST /graphql", s.handleGraphQL)
	s.mux.HandleFunc("GET /graphql", s.handleGraphQLGet)
}

type graphQLRequest struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

// handleGraphQL executes a GraphQL request sent as a JSON body.
func (s *Server) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	var req graphQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.metrics.RecordGraphQL("error")
		writeGraphQLError(w, http.StatusBadRequest, "Problems parsing JSON")
		return
	}
	s.execute(w, r, req)
}

// handleGraphQLGet executes a query passed in the URL. Only query
// operations run over GET; mutations must be POSTed.
func (s *Server) handleGraphQLGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := graphQLRequest{
		Query:         q.Get("query"),
		OperationName: q.Get("operationName"),
	}
	if req.Query == "" {
		s.metrics.RecordGraphQL("error")
		writeGraphQLError(w, http.StatusBadRequest, "Must provide query string")
		return
	}
	if op, ok := selectedOperation(req.Query, req.OperationName); ok && op != "query" {
		s.metrics.RecordGraphQL("error")
		w.Header().Set("Allow", http.MethodPost)
		writeGraphQLError(w, http.StatusMethodNotAllowed, "Can only perform a "+op+" operation from a POST request")
		return
	}
	if v := q.Get("variables"); v != "" {
		if err := json.Unmarshal([]byte(v), &req.Variables); err != nil {
			s.metrics.RecordGraphQL("error")
			writeGraphQLError(w, http.StatusBadRequest, "Variables are invalid JSON")
			return
		}
	}
	s.execute(w, r, req)
}

// selectedOperation returns the type of the operation that would execute:
// the one named operationName, or the only one in the document. ok is false
// when the document does not parse or the selection is ambiguous; graphql.Do
// then reports the problem itself.
func selectedOperation(query, operationName string) (op string, ok bool) {
	doc, err := parser.Parse(parser.ParseParams{Source: query})
	if err != nil {
		return "", false
	}
	var found *ast.OperationDefinition
	for _, def := range doc.Definitions {
		od, isOp := def.(*ast.OperationDefinition)
		if !isOp {
			continue
		}
		if operationName == "" {
			if found != nil {
				return "", false
			}
			found = od
			continue
		}
		if od.Name != nil && od.Name.Value == operationName {
			found = od
			break
		}
	}
	if found == nil {
		return "", false
	}
	return found.Operation, true
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request, req graphQLRequest) {
	result := graphql.Do(graphql.Params{
		Schema:         s.graphqlSchema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        r.Context(),
	})

	if result.HasErrors() {
		s.metrics.RecordGraphQL("error")
		s.logger.Debug().
			Str("request_id", requestIDFromContext(r.Context())).
			Str("operation", req.OperationName).
			Interface("errors", result.Errors).
			Msg("graphql errors")
	} else {
		s.metrics.RecordGraphQL("ok")
	}

	writeJSON(w, http.StatusOK, result)
}

func writeGraphQLError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"errors": []map[string]string{{"message": message}},
	})
}
