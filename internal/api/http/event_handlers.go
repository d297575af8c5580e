package httpapi

import (
	"context"
	"net"
	"net/http"

	appEvent "github.com/explore-with-me/ewm-service/internal/application/event"
	"github.com/explore-with-me/ewm-service/internal/domain/event"
)

// nameBook carries display names for the ids referenced by events.
type nameBook struct {
	users      map[int64]string
	categories map[int64]string
}

func (s *Server) resolveNames(ctx context.Context, details []*appEvent.Details) nameBook {
	book := nameBook{users: map[int64]string{}, categories: map[int64]string{}}
	var userIDs []int64
	for _, d := range details {
		if _, ok := book.users[d.InitiatorID]; !ok {
			book.users[d.InitiatorID] = ""
			userIDs = append(userIDs, d.InitiatorID)
		}
		if _, ok := book.categories[d.CategoryID]; !ok {
			book.categories[d.CategoryID] = ""
			if c, err := s.categorySvc.Get(ctx, d.CategoryID); err == nil {
				book.categories[d.CategoryID] = c.Name
			}
		}
	}
	if len(userIDs) > 0 {
		users, err := s.userSvc.ListUsers(ctx, userIDs, 0, len(userIDs))
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to resolve initiator names")
		}
		for _, u := range users {
			book.users[u.ID] = u.Name
		}
	}
	return book
}

func (s *Server) respondEvent(w http.ResponseWriter, r *http.Request, status int, d *appEvent.Details) {
	names := s.resolveNames(r.Context(), []*appEvent.Details{d})
	respondJSON(w, status, toEventResponse(d, names))
}

func (s *Server) respondEvents(w http.ResponseWriter, r *http.Request, details []*appEvent.Details) {
	names := s.resolveNames(r.Context(), details)
	out := make([]eventResponse, 0, len(details))
	for _, d := range details {
		out = append(out, toEventResponse(d, names))
	}
	respondJSON(w, http.StatusOK, out)
}

// Owner handlers
func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userId")
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	var req newEventRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	d, err := s.eventSvc.Create(r.Context(), userID, req.toDomain())
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondEvent(w, r, http.StatusCreated, d)
}

func (s *Server) listOwnerEvents(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userId")
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	from, size, err := parseFromSize(r)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	list, err := s.eventSvc.ListForOwner(r.Context(), userID, from, size)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondEvents(w, r, list)
}

func (s *Server) getOwnerEvent(w http.ResponseWriter, r *http.Request) {
	userID, eventID, err := userAndEvent(r)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	d, err := s.eventSvc.GetForOwner(r.Context(), userID, eventID)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondEvent(w, r, http.StatusOK, d)
}

func (s *Server) ownerUpdateEvent(w http.ResponseWriter, r *http.Request) {
	userID, eventID, err := userAndEvent(r)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	var req updateEventUserRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	d, err := s.eventSvc.OwnerUpdate(r.Context(), userID, eventID, appEvent.OwnerUpdate{
		Patch:  req.patch(),
		Action: req.StateAction,
	})
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondEvent(w, r, http.StatusOK, d)
}

// Admin handlers
func (s *Server) listAdminEvents(w http.ResponseWriter, r *http.Request) {
	f := appEvent.AdminFilter{}
	var err error
	if f.UserIDs, err = parseIDList(r, "users"); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	if f.CategoryIDs, err = parseIDList(r, "categories"); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	for _, raw := range splitCSV(r.URL.Query()["states"]) {
		st, err := event.ParseState(raw)
		if err != nil {
			s.respondAppError(w, r, err)
			return
		}
		f.States = append(f.States, st)
	}
	if f.RangeStart, err = parseTimeParam(r, "rangeStart"); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	if f.RangeEnd, err = parseTimeParam(r, "rangeEnd"); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	if f.From, f.Size, err = parseFromSize(r); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	list, err := s.eventSvc.ListForAdmin(r.Context(), f)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondEvents(w, r, list)
}

func (s *Server) adminUpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseIDParam(r, "eventId")
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	var req updateEventAdminRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	d, err := s.eventSvc.AdminUpdate(r.Context(), eventID, appEvent.AdminUpdate{
		Patch:  req.patch(),
		Action: req.StateAction,
	})
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondEvent(w, r, http.StatusOK, d)
}

// Public handlers
func (s *Server) listPublicEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := appEvent.PublicFilter{}
	var err error
	if text := q.Get("text"); text != "" {
		f.Text = &text
	}
	if f.CategoryIDs, err = parseIDList(r, "categories"); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	if f.Paid, err = parseBoolParam(r, "paid"); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	if f.RangeStart, err = parseTimeParam(r, "rangeStart"); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	if f.RangeEnd, err = parseTimeParam(r, "rangeEnd"); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	available, err := parseBoolParam(r, "onlyAvailable")
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	f.OnlyAvailable = available != nil && *available
	if f.Sort, err = event.ParseSort(q.Get("sort")); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	if f.From, f.Size, err = parseFromSize(r); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	list, err := s.eventSvc.ListPublished(r.Context(), f)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.recordHit(r)
	s.respondEvents(w, r, list)
}

func (s *Server) getPublicEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseIDParam(r, "eventId")
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	d, err := s.eventSvc.GetPublished(r.Context(), eventID)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.recordHit(r)
	s.respondEvent(w, r, http.StatusOK, d)
}

func (s *Server) recordHit(r *http.Request) {
	if s.hits == nil {
		return
	}
	s.hits.RecordHit(r.URL.Path, clientIP(r))
}

// clientIP drops the port from RemoteAddr. RealIP leaves a bare address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func userAndEvent(r *http.Request) (int64, int64, error) {
	userID, err := parseIDParam(r, "userId")
	if err != nil {
		return 0, 0, err
	}
	eventID, err := parseIDParam(r, "eventId")
	if err != nil {
		return 0, 0, err
	}
	return userID, eventID, nil
}
