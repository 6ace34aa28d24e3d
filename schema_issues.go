package issuehub

import (
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/sockerless/issuehub/upstream"
)

// addIssueFieldsToSchema adds the issue and label types, the three queries
// and the five mutations. Root fields are nullable so a failing operation
// is reported as a field error without nulling its siblings.
func (s *Server) addIssueFieldsToSchema(queryType, mutationType *graphql.Object) {
	issueType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Issue",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.String},
			"title":     &graphql.Field{Type: graphql.String},
			"state":     &graphql.Field{Type: graphql.String},
			"body":      &graphql.Field{Type: graphql.String},
			"url":       &graphql.Field{Type: graphql.String},
			"createdAt": &graphql.Field{Type: graphql.String},
			"updatedAt": &graphql.Field{Type: graphql.String},
			"closedAt":  &graphql.Field{Type: graphql.String},
		},
	})

	labelType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Label",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
		},
	})

	clientMutationIDType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ClientMutationId",
		Fields: graphql.Fields{
			"clientMutationId": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	// --- Inputs ---

	repositoryInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "Repository",
		Fields: graphql.InputObjectConfigFieldMap{
			"owner":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"reponame":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"issuenumber": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	createIssueInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CreateIssue",
		Fields: graphql.InputObjectConfigFieldMap{
			"title":        &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"repositoryid": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"body":         &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	updateIssueInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "UpdateIssue",
		Fields: graphql.InputObjectConfigFieldMap{
			"newtitle": &graphql.InputObjectFieldConfig{Type: graphql.String},
			"issueid":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"newbody":  &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})

	deleteIssueInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "DeleteIssue",
		Fields: graphql.InputObjectConfigFieldMap{
			"issueId": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	fetchIssueInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "FetchIssue",
		Fields: graphql.InputObjectConfigFieldMap{
			"issueId": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	addLabelsInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "AddLabelsToLabelable",
		Fields: graphql.InputObjectConfigFieldMap{
			"issueId":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"labelIds": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.String)))},
		},
	})

	// --- Queries ---

	queryType.AddFieldConfig("getIssueId", &graphql.Field{
		Type:        issueType,
		Description: "Fetch a single issue by repository owner, name and issue number.",
		Args: graphql.FieldConfigArgument{
			"repository": &graphql.ArgumentConfig{Type: graphql.NewNonNull(repositoryInput)},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			in := inputArg(p, "repository")
			issue, err := s.client.GetIssue(p.Context, upstream.Repository{
				Owner:       stringField(in, "owner"),
				RepoName:    stringField(in, "reponame"),
				IssueNumber: stringField(in, "issuenumber"),
			})
			if err != nil {
				return nil, err
			}
			return issueToGQL(issue), nil
		},
	})

	queryType.AddFieldConfig("getRepositoryIssues", &graphql.Field{
		Type:        graphql.NewList(graphql.NewNonNull(issueType)),
		Description: "List the most recent issues of a repository.",
		Args: graphql.FieldConfigArgument{
			"owner": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			"name":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			"last":  &graphql.ArgumentConfig{Type: graphql.Int},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			owner, _ := p.Args["owner"].(string)
			name, _ := p.Args["name"].(string)
			last, _ := p.Args["last"].(int)

			issues, err := s.client.ListIssues(p.Context, owner, name, last)
			if err != nil {
				return nil, err
			}
			nodes := make([]map[string]interface{}, 0, len(issues))
			for i := range issues {
				nodes = append(nodes, issueToGQL(&issues[i]))
			}
			return nodes, nil
		},
	})

	queryType.AddFieldConfig("getLabels", &graphql.Field{
		Type:        graphql.NewList(graphql.NewNonNull(labelType)),
		Description: "List the labels of a repository.",
		Args: graphql.FieldConfigArgument{
			"owner": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			"name":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			"first": &graphql.ArgumentConfig{Type: graphql.Int},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			owner, _ := p.Args["owner"].(string)
			name, _ := p.Args["name"].(string)
			first, _ := p.Args["first"].(int)

			labels, err := s.client.ListLabels(p.Context, owner, name, first)
			if err != nil {
				return nil, err
			}
			nodes := make([]map[string]interface{}, 0, len(labels))
			for i := range labels {
				nodes = append(nodes, labelToGQL(&labels[i]))
			}
			return nodes, nil
		},
	})

	// --- Mutations ---

	mutationType.AddFieldConfig("createIssue", &graphql.Field{
		Type: issueType,
		Args: graphql.FieldConfigArgument{
			"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(createIssueInput)},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			in := inputArg(p, "input")
			issue, err := s.client.CreateIssue(p.Context, upstream.CreateIssue{
				Title:        stringField(in, "title"),
				RepositoryID: stringField(in, "repositoryid"),
				Body:         stringField(in, "body"),
			})
			if err != nil {
				return nil, err
			}
			return issueToGQL(issue), nil
		},
	})

	mutationType.AddFieldConfig("updateIssue", &graphql.Field{
		Type: issueType,
		Args: graphql.FieldConfigArgument{
			"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(updateIssueInput)},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			in := inputArg(p, "input")
			issue, err := s.client.UpdateIssue(p.Context, upstream.UpdateIssue{
				IssueID:  stringField(in, "issueid"),
				NewTitle: optionalStringField(in, "newtitle"),
				NewBody:  optionalStringField(in, "newbody"),
			})
			if err != nil {
				return nil, err
			}
			return issueToGQL(issue), nil
		},
	})

	mutationType.AddFieldConfig("deleteIssue", &graphql.Field{
		Type: clientMutationIDType,
		Args: graphql.FieldConfigArgument{
			"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(deleteIssueInput)},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			in := inputArg(p, "input")
			ack, err := s.client.DeleteIssue(p.Context, upstream.DeleteIssue{
				IssueID: stringField(in, "issueId"),
			})
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{"clientMutationId": ack.ClientMutationID}, nil
		},
	})

	mutationType.AddFieldConfig("closeIssue", &graphql.Field{
		Type: graphql.String,
		Args: graphql.FieldConfigArgument{
			"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(fetchIssueInput)},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			in := inputArg(p, "input")
			msg, err := s.client.CloseIssue(p.Context, upstream.FetchIssue{
				IssueID: stringField(in, "issueId"),
			})
			if err != nil {
				return nil, err
			}
			return msg, nil
		},
	})

	mutationType.AddFieldConfig("addLabelToIssue", &graphql.Field{
		Type: graphql.String,
		Args: graphql.FieldConfigArgument{
			"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(addLabelsInput)},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			in := inputArg(p, "input")
			var labelIDs []string
			if raw, ok := in["labelIds"].([]interface{}); ok {
				for _, v := range raw {
					labelIDs = append(labelIDs, fmt.Sprintf("%v", v))
				}
			}
			msg, err := s.client.AddLabels(p.Context, upstream.AddLabelsToLabelable{
				IssueID:  stringField(in, "issueId"),
				LabelIDs: labelIDs,
			})
			if err != nil {
				return nil, err
			}
			return msg, nil
		},
	})
}

// --- GraphQL converter helpers ---

func inputArg(p graphql.ResolveParams, name string) map[string]interface{} {
	in, _ := p.Args[name].(map[string]interface{})
	return in
}

func stringField(in map[string]interface{}, key string) string {
	v, _ := in[key].(string)
	return v
}

func optionalStringField(in map[string]interface{}, key string) *string {
	v, ok := in[key].(string)
	if !ok {
		return nil
	}
	return &v
}

func issueToGQL(i *upstream.Issue) map[string]interface{} {
	return map[string]interface{}{
		"id":        deref(i.ID),
		"title":     deref(i.Title),
		"state":     deref(i.State),
		"body":      deref(i.Body),
		"url":       deref(i.URL),
		"createdAt": deref(i.CreatedAt),
		"updatedAt": deref(i.UpdatedAt),
		"closedAt":  deref(i.ClosedAt),
	}
}

func labelToGQL(l *upstream.Label) map[string]interface{} {
	return map[string]interface{}{
		"id":          deref(l.ID),
		"name":        deref(l.Name),
		"description": deref(l.Description),
	}
}

// deref turns a nil pointer into an untyped nil so graphql-go renders null.
func deref(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
