package httpapi

import (
	"net/http"

	appRating "github.com/explore-with-me/ewm-service/internal/application/rating"
	"github.com/explore-with-me/ewm-service/internal/domain/rating"
)

func (s *Server) rateEvent(w http.ResponseWriter, r *http.Request) {
	userID, eventID, err := userAndEvent(r)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	var req ratingRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	rt, err := s.ratingSvc.Rate(r.Context(), userID, eventID, *req.IsLike)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toRatingResponse(rt))
}

func (s *Server) updateRating(w http.ResponseWriter, r *http.Request) {
	userID, eventID, err := userAndEvent(r)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	var req ratingRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	rt, err := s.ratingSvc.Update(r.Context(), userID, eventID, *req.IsLike)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toRatingResponse(rt))
}

func (s *Server) removeRating(w http.ResponseWriter, r *http.Request) {
	userID, eventID, err := userAndEvent(r)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	if err := s.ratingSvc.Remove(r.Context(), userID, eventID); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getRating(w http.ResponseWriter, r *http.Request) {
	userID, eventID, err := userAndEvent(r)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	rt, err := s.ratingSvc.Get(r.Context(), userID, eventID)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toRatingResponse(rt))
}

func (s *Server) listUserRatings(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userId")
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	ratings, err := s.ratingSvc.ListByUser(r.Context(), userID)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toRatingResponses(ratings))
}

func toRatingResponses(ratings []*rating.Rating) []ratingResponse {
	out := make([]ratingResponse, 0, len(ratings))
	for _, rt := range ratings {
		out = append(out, toRatingResponse(rt))
	}
	return out
}

func (s *Server) eventRatingStats(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseIDParam(r, "eventId")
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	sum, err := s.ratingSvc.EventStats(r.Context(), eventID)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toEventStatsResponse(sum))
}

func (s *Server) topRatedEvents(w http.ResponseWriter, r *http.Request) {
	from, size, err := parseFromSize(r)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	top, err := s.ratingSvc.TopEvents(r.Context(), from, size)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	out := make([]ratingStatsResponse, 0, len(top))
	for _, sum := range top {
		out = append(out, toEventStatsResponse(sum))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) topRatedAuthors(w http.ResponseWriter, r *http.Request) {
	from, size, err := parseFromSize(r)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	top, err := s.ratingSvc.TopAuthors(r.Context(), from, size)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toAuthorStatsResponses(top))
}

func toAuthorStatsResponses(top []*appRating.AuthorSummary) []ratingStatsResponse {
	out := make([]ratingStatsResponse, 0, len(top))
	for _, sum := range top {
		out = append(out, ratingStatsResponse{AuthorID: sum.AuthorID, AuthorName: sum.AuthorName, Rating: sum.Rating})
	}
	return out
}
