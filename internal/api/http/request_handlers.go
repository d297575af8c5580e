package httpapi

import (
	"net/http"
	"strconv"

	"github.com/explore-with-me/ewm-service/internal/domain/apperror"
)

func (s *Server) listUserRequests(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userId")
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	list, err := s.participationSvc.ListByRequester(r.Context(), userID)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toRequestResponses(list))
}

func (s *Server) createRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userId")
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	raw := r.URL.Query().Get("eventId")
	if raw == "" {
		s.respondAppError(w, r, apperror.Validation("Required parameter eventId is missing"))
		return
	}
	eventID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || eventID <= 0 {
		s.respondAppError(w, r, apperror.Validation("Invalid eventId: %s", raw))
		return
	}
	req, err := s.participationSvc.Create(r.Context(), userID, eventID)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toRequestResponse(req))
}

func (s *Server) cancelRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userId")
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	requestID, err := parseIDParam(r, "requestId")
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	req, err := s.participationSvc.Cancel(r.Context(), userID, requestID)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toRequestResponse(req))
}

func (s *Server) listEventRequests(w http.ResponseWriter, r *http.Request) {
	userID, eventID, err := userAndEvent(r)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	list, err := s.participationSvc.ListForEvent(r.Context(), userID, eventID)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toRequestResponses(list))
}

func (s *Server) updateRequestStatuses(w http.ResponseWriter, r *http.Request) {
	userID, eventID, err := userAndEvent(r)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	var req statusUpdateRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	res, err := s.participationSvc.UpdateStatuses(r.Context(), userID, eventID, req.RequestIDs, req.Status)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, statusUpdateResponse{
		ConfirmedRequests: toRequestResponses(res.Confirmed),
		RejectedRequests:  toRequestResponses(res.Rejected),
	})
}

func (s *Server) confirmRequest(w http.ResponseWriter, r *http.Request) {
	s.moderateRequest(w, r, true)
}

func (s *Server) rejectRequest(w http.ResponseWriter, r *http.Request) {
	s.moderateRequest(w, r, false)
}

func (s *Server) moderateRequest(w http.ResponseWriter, r *http.Request, confirm bool) {
	userID, eventID, err := userAndEvent(r)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	requestID, err := parseIDParam(r, "requestId")
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	moderate := s.participationSvc.Reject
	if confirm {
		moderate = s.participationSvc.Confirm
	}
	req, err := moderate(r.Context(), userID, eventID, requestID)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toRequestResponse(req))
}
