package issuehub

import (
	_ "embed"
	"html/template"
	"net/http"
)

//go:embed playground.html
var playgroundHTML string

var playgroundTmpl = template.Must(template.New("playground").Parse(playgroundHTML))

type playgroundData struct {
	Title    string
	Endpoint string
}

// handlePlayground serves the interactive query explorer wired to /graphql.
func (s *Server) handlePlayground(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := playgroundTmpl.Execute(w, playgroundData{
		Title:    "issuehub GraphQL Playground",
		Endpoint: "/graphql",
	}); err != nil {
		s.logger.Error().Err(err).Msg("render playground")
	}
}
