package httpapi

import (
	"net/http"

	appCompilation "github.com/explore-with-me/ewm-service/internal/application/compilation"
	appEvent "github.com/explore-with-me/ewm-service/internal/application/event"
)

func (s *Server) createCompilation(w http.ResponseWriter, r *http.Request) {
	var req newCompilationRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	c, err := s.compilationSvc.Create(r.Context(), appCompilation.NewCompilation{
		Title:    req.Title,
		Pinned:   req.Pinned,
		EventIDs: req.Events,
	})
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondCompilation(w, r, http.StatusCreated, c)
}

func (s *Server) updateCompilation(w http.ResponseWriter, r *http.Request) {
	compID, err := parseIDParam(r, "compId")
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	var req updateCompilationRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	c, err := s.compilationSvc.Update(r.Context(), compID, req.patch())
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondCompilation(w, r, http.StatusOK, c)
}

func (s *Server) deleteCompilation(w http.ResponseWriter, r *http.Request) {
	compID, err := parseIDParam(r, "compId")
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	if err := s.compilationSvc.Delete(r.Context(), compID); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getCompilation(w http.ResponseWriter, r *http.Request) {
	compID, err := parseIDParam(r, "compId")
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	c, err := s.compilationSvc.Get(r.Context(), compID)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondCompilation(w, r, http.StatusOK, c)
}

func (s *Server) listCompilations(w http.ResponseWriter, r *http.Request) {
	pinned, err := parseBoolParam(r, "pinned")
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	from, size, err := parseFromSize(r)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	comps, err := s.compilationSvc.List(r.Context(), pinned, from, size)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s.toCompilationResponses(r, comps))
}

func (s *Server) respondCompilation(w http.ResponseWriter, r *http.Request, status int, c *appCompilation.Details) {
	respondJSON(w, status, s.toCompilationResponses(r, []*appCompilation.Details{c})[0])
}

// toCompilationResponses resolves category and initiator names once for
// every event of the page.
func (s *Server) toCompilationResponses(r *http.Request, comps []*appCompilation.Details) []compilationResponse {
	var all []*appEvent.Details
	for _, c := range comps {
		all = append(all, c.Events...)
	}
	names := s.resolveNames(r.Context(), all)
	out := make([]compilationResponse, 0, len(comps))
	for _, c := range comps {
		events := make([]eventResponse, 0, len(c.Events))
		for _, d := range c.Events {
			events = append(events, toEventResponse(d, names))
		}
		out = append(out, compilationResponse{ID: c.ID, Title: c.Title, Pinned: c.Pinned, Events: events})
	}
	return out
}
