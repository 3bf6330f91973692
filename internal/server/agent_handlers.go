package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"bizradar/internal/agent"
)

type agentInfo struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Tools       []agent.Capability `json:"tools"`
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	agents := s.registry.All()
	infos := make([]agentInfo, 0, len(agents))
	for _, ag := range agents {
		infos = append(infos, agentInfo{
			Name:        ag.Name(),
			Description: ag.Description(),
			Tools:       ag.Capabilities(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"agents": infos})
}

// handleRunTool executes one agent tool against an owned profile. The
// request body is the tool's argument object; an empty body means no
// arguments. The full output envelope is returned even when the tool
// reports failure, so callers see terminal audit results too.
func (s *Server) handleRunTool(w http.ResponseWriter, r *http.Request) {
	profile, ok := s.loadOwnedProfile(w, r)
	if !ok {
		return
	}

	args := map[string]any{}
	if r.ContentLength != 0 {
		if !readJSON(w, r, &args) {
			return
		}
	}

	in := agent.Input{
		Args:      args,
		UserID:    profile.UserID,
		ProfileID: profile.ID,
		RequestID: middleware.GetReqID(r.Context()),
	}

	out, err := s.registry.Execute(r.Context(), chi.URLParam(r, "agent"), chi.URLParam(r, "tool"), in)
	if err != nil {
		// Unknown agents and tools, and argument validation failures, are
		// request errors. Anything past that point is a run outcome and is
		// reported through the envelope.
		if out == nil || errors.Is(err, agent.ErrMissingRequiredArg) || errors.Is(err, agent.ErrInvalidArgType) {
			s.respondError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, out)
}
