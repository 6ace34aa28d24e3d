package ghsim

import (
	"fmt"
	"time"

	"github.com/graphql-go/graphql"
)

// buildSchema builds the subset of the GitHub schema the gateway uses.
func (s *Server) buildSchema() graphql.Schema {
	labelType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Label",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"name":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"description": &graphql.Field{Type: graphql.String},
			"color":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	labelConnectionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "LabelConnection",
		Fields: graphql.Fields{
			"nodes":      &graphql.Field{Type: graphql.NewList(labelType)},
			"totalCount": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		},
	})

	var issueType *graphql.Object

	labelableType := graphql.NewInterface(graphql.InterfaceConfig{
		Name: "Labelable",
		Fields: graphql.Fields{
			"id": &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		},
		ResolveType: func(p graphql.ResolveTypeParams) *graphql.Object {
			return issueType
		},
	})

	issueType = graphql.NewObject(graphql.ObjectConfig{
		Name:       "Issue",
		Interfaces: []*graphql.Interface{labelableType},
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"number":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"title":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"body":      &graphql.Field{Type: graphql.String},
			"state":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"url":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"createdAt": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"updatedAt": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"closedAt":  &graphql.Field{Type: graphql.String},
			"labels": &graphql.Field{
				Type: labelConnectionType,
				Args: graphql.FieldConfigArgument{
					"first": &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					i := p.Source.(map[string]interface{})
					nodes, _ := i["labels"].([]map[string]interface{})
					first, _ := p.Args["first"].(int)
					return connection(nodes, first, false), nil
				},
			},
		},
	})

	issueConnectionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "IssueConnection",
		Fields: graphql.Fields{
			"nodes":      &graphql.Field{Type: graphql.NewList(issueType)},
			"totalCount": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		},
	})

	repoType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Repository",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"name":          &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"nameWithOwner": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"issue": &graphql.Field{
				Type: issueType,
				Args: graphql.FieldConfigArgument{
					"number": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					repo := p.Source.(map[string]interface{})
					repoID, _ := repo["databaseId"].(int)
					number, _ := p.Args["number"].(int)

					issue := s.store.GetIssueByNumber(repoID, number)
					if issue == nil {
						return nil, fmt.Errorf("Could not resolve to an Issue with the number of %d.", number)
					}
					return s.store.issueToGQL(issue.ID), nil
				},
			},
			"issues": &graphql.Field{
				Type: issueConnectionType,
				Args: graphql.FieldConfigArgument{
					"first": &graphql.ArgumentConfig{Type: graphql.Int},
					"last":  &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					repo := p.Source.(map[string]interface{})
					repoID, _ := repo["databaseId"].(int)

					issues := s.store.ListIssues(repoID)
					nodes := make([]map[string]interface{}, 0, len(issues))
					for _, i := range issues {
						nodes = append(nodes, s.store.issueToGQL(i.ID))
					}
					if last, ok := p.Args["last"].(int); ok && last > 0 {
						return connection(nodes, last, true), nil
					}
					first, _ := p.Args["first"].(int)
					return connection(nodes, first, false), nil
				},
			},
			"labels": &graphql.Field{
				Type: labelConnectionType,
				Args: graphql.FieldConfigArgument{
					"first": &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					repo := p.Source.(map[string]interface{})
					repoID, _ := repo["databaseId"].(int)

					labels := s.store.ListLabels(repoID)
					nodes := make([]map[string]interface{}, 0, len(labels))
					for _, l := range labels {
						nodes = append(nodes, labelToGQL(l))
					}
					first, _ := p.Args["first"].(int)
					return connection(nodes, first, false), nil
				},
			},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"repository": &graphql.Field{
				Type: repoType,
				Args: graphql.FieldConfigArgument{
					"owner": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"name":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					owner, _ := p.Args["owner"].(string)
					name, _ := p.Args["name"].(string)
					repo := s.store.LookupRepo(owner, name)
					if repo == nil {
						return nil, fmt.Errorf("Could not resolve to a Repository with the name '%s/%s'.", owner, name)
					}
					return repoToGQL(repo), nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Mutation",
		Fields: graphql.Fields{},
	})
	s.addIssueMutations(mutationType, issueType, labelableType)

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
	if err != nil {
		panic(fmt.Sprintf("ghsim: failed to create graphql schema: %v", err))
	}
	return schema
}

func (s *Server) addIssueMutations(mutationType, issueType *graphql.Object, labelableType *graphql.Interface) {
	issuePayload := func(name string) *graphql.Object {
		return graphql.NewObject(graphql.ObjectConfig{
			Name: name,
			Fields: graphql.Fields{
				"clientMutationId": &graphql.Field{Type: graphql.String},
				"issue":            &graphql.Field{Type: issueType},
			},
		})
	}

	createIssueInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CreateIssueInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"repositoryId":     &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.ID)},
			"title":            &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"body":             &graphql.InputObjectFieldConfig{Type: graphql.String},
			"clientMutationId": &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})

	mutationType.AddFieldConfig("createIssue", &graphql.Field{
		Type: issuePayload("CreateIssuePayload"),
		Args: graphql.FieldConfigArgument{
			"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(createIssueInput)},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			input, _ := p.Args["input"].(map[string]interface{})
			repoNodeID, _ := input["repositoryId"].(string)
			title, _ := input["title"].(string)
			body, _ := input["body"].(string)

			issue := s.store.CreateIssue(repoNodeID, title, body)
			if issue == nil {
				return nil, fmt.Errorf("Could not resolve to a Repository with the global id of '%s'.", repoNodeID)
			}
			return map[string]interface{}{
				"clientMutationId": input["clientMutationId"],
				"issue":            s.store.issueToGQL(issue.ID),
			}, nil
		},
	})

	updateIssueInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "UpdateIssueInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"id":               &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.ID)},
			"title":            &graphql.InputObjectFieldConfig{Type: graphql.String},
			"body":             &graphql.InputObjectFieldConfig{Type: graphql.String},
			"clientMutationId": &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})

	mutationType.AddFieldConfig("updateIssue", &graphql.Field{
		Type: issuePayload("UpdateIssuePayload"),
		Args: graphql.FieldConfigArgument{
			"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(updateIssueInput)},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			input, _ := p.Args["input"].(map[string]interface{})
			nodeID, _ := input["id"].(string)

			issue := s.store.GetIssueByNodeID(nodeID)
			if issue == nil {
				return nil, fmt.Errorf("Could not resolve to a node with the global id of '%s'.", nodeID)
			}
			s.store.UpdateIssue(issue.ID, func(i *Issue) {
				if v, ok := input["title"].(string); ok {
					i.Title = v
				}
				if v, ok := input["body"].(string); ok {
					i.Body = v
				}
			})
			return map[string]interface{}{
				"clientMutationId": input["clientMutationId"],
				"issue":            s.store.issueToGQL(issue.ID),
			}, nil
		},
	})

	issueIDInput := func(name string) *graphql.InputObject {
		return graphql.NewInputObject(graphql.InputObjectConfig{
			Name: name,
			Fields: graphql.InputObjectConfigFieldMap{
				"issueId":          &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.ID)},
				"clientMutationId": &graphql.InputObjectFieldConfig{Type: graphql.String},
			},
		})
	}

	mutationType.AddFieldConfig("closeIssue", &graphql.Field{
		Type: issuePayload("CloseIssuePayload"),
		Args: graphql.FieldConfigArgument{
			"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(issueIDInput("CloseIssueInput"))},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			input, _ := p.Args["input"].(map[string]interface{})
			nodeID, _ := input["issueId"].(string)

			issue := s.store.GetIssueByNodeID(nodeID)
			if issue == nil {
				return nil, fmt.Errorf("Could not resolve to a node with the global id of '%s'.", nodeID)
			}
			s.store.UpdateIssue(issue.ID, func(i *Issue) {
				now := time.Now().UTC()
				i.State = "CLOSED"
				i.ClosedAt = &now
			})
			return map[string]interface{}{
				"clientMutationId": input["clientMutationId"],
				"issue":            s.store.issueToGQL(issue.ID),
			}, nil
		},
	})

	mutationType.AddFieldConfig("deleteIssue", &graphql.Field{
		Type: graphql.NewObject(graphql.ObjectConfig{
			Name: "DeleteIssuePayload",
			Fields: graphql.Fields{
				"clientMutationId": &graphql.Field{Type: graphql.String},
			},
		}),
		Args: graphql.FieldConfigArgument{
			"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(issueIDInput("DeleteIssueInput"))},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			input, _ := p.Args["input"].(map[string]interface{})
			nodeID, _ := input["issueId"].(string)

			issue := s.store.GetIssueByNodeID(nodeID)
			if issue == nil || !s.store.DeleteIssue(issue.ID) {
				return nil, fmt.Errorf("Could not resolve to a node with the global id of '%s'.", nodeID)
			}
			return map[string]interface{}{
				"clientMutationId": input["clientMutationId"],
			}, nil
		},
	})

	addLabelsInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "AddLabelsToLabelableInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"labelableId":      &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.ID)},
			"labelIds":         &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.ID)))},
			"clientMutationId": &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})

	mutationType.AddFieldConfig("addLabelsToLabelable", &graphql.Field{
		Type: graphql.NewObject(graphql.ObjectConfig{
			Name: "AddLabelsToLabelablePayload",
			Fields: graphql.Fields{
				"clientMutationId": &graphql.Field{Type: graphql.String},
				"labelable":        &graphql.Field{Type: labelableType},
			},
		}),
		Args: graphql.FieldConfigArgument{
			"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(addLabelsInput)},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			input, _ := p.Args["input"].(map[string]interface{})
			nodeID, _ := input["labelableId"].(string)

			var labelIDs []string
			if raw, ok := input["labelIds"].([]interface{}); ok {
				for _, v := range raw {
					labelIDs = append(labelIDs, fmt.Sprintf("%v", v))
				}
			}

			issue := s.store.GetIssueByNodeID(nodeID)
			if issue == nil {
				return nil, fmt.Errorf("Could not resolve to a node with the global id of '%s'.", nodeID)
			}
			if !s.store.AddLabels(issue.ID, labelIDs) {
				return nil, fmt.Errorf("Could not resolve to a Label with the given ids.")
			}
			return map[string]interface{}{
				"clientMutationId": input["clientMutationId"],
				"labelable":        s.store.issueToGQL(issue.ID),
			}, nil
		},
	})
}

// connection slices nodes to n items from the front, or from the back when
// fromEnd is set. n <= 0 returns all nodes.
func connection(nodes []map[string]interface{}, n int, fromEnd bool) map[string]interface{} {
	total := len(nodes)
	if n > 0 && n < len(nodes) {
		if fromEnd {
			nodes = nodes[len(nodes)-n:]
		} else {
			nodes = nodes[:n]
		}
	}
	return map[string]interface{}{
		"nodes":      nodes,
		"totalCount": total,
	}
}

func repoToGQL(r *Repo) map[string]interface{} {
	return map[string]interface{}{
		"id":            r.NodeID,
		"databaseId":    r.ID,
		"name":          r.Name,
		"nameWithOwner": r.FullName(),
	}
}

func labelToGQL(l *Label) map[string]interface{} {
	return map[string]interface{}{
		"id":          l.NodeID,
		"name":        l.Name,
		"description": l.Description,
		"color":       l.Color,
	}
}

// issueToGQL converts an issue to resolver form under the read lock.
func (st *Store) issueToGQL(id int) map[string]interface{} {
	st.mu.RLock()
	defer st.mu.RUnlock()

	issue, ok := st.Issues[id]
	if !ok {
		return nil
	}

	labels := make([]map[string]interface{}, 0, len(issue.LabelIDs))
	for _, lid := range issue.LabelIDs {
		if l, ok := st.Labels[lid]; ok {
			labels = append(labels, labelToGQL(l))
		}
	}

	url := ""
	if repo := st.Repos[issue.RepoID]; repo != nil {
		url = fmt.Sprintf("https://github.com/%s/issues/%d", repo.FullName(), issue.Number)
	}

	var closedAt interface{}
	if issue.ClosedAt != nil {
		closedAt = issue.ClosedAt.Format(time.RFC3339)
	}

	return map[string]interface{}{
		"id":        issue.NodeID,
		"number":    issue.Number,
		"title":     issue.Title,
		"body":      issue.Body,
		"state":     issue.State,
		"url":       url,
		"createdAt": issue.CreatedAt.Format(time.RFC3339),
		"updatedAt": issue.UpdatedAt.Format(time.RFC3339),
		"closedAt":  closedAt,
		"labels":    labels,
	}
}
