package httpapi

import (
	"encoding/json"
	"strings"
	"time"

	appEvent "github.com/explore-with-me/ewm-service/internal/application/event"
	appRating "github.com/explore-with-me/ewm-service/internal/application/rating"
	"github.com/explore-with-me/ewm-service/internal/domain/apperror"
	"github.com/explore-with-me/ewm-service/internal/domain/compilation"
	"github.com/explore-with-me/ewm-service/internal/domain/event"
	"github.com/explore-with-me/ewm-service/internal/domain/rating"
	"github.com/explore-with-me/ewm-service/internal/domain/request"
)

const dateTimeLayout = "2006-01-02 15:04:05"

// dateTime is a UTC timestamp in "yyyy-MM-dd HH:mm:ss" form.
type dateTime time.Time

func (d dateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(d).UTC().Format(dateTimeLayout))
}

func (d *dateTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return apperror.Validation("Date must be a string in format %s", dateTimeLayout)
	}
	t, err := time.ParseInLocation(dateTimeLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return apperror.Validation("Invalid date %q, expected format %s", s, dateTimeLayout)
	}
	*d = dateTime(t)
	return nil
}

func optionalTime(d *dateTime) *time.Time {
	if d == nil {
		return nil
	}
	t := time.Time(*d)
	return &t
}

type locationDto struct {
	Lat *float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lon *float64 `json:"lon" validate:"required,min=-180,max=180"`
}

func (l *locationDto) toDomain() *event.Location {
	if l == nil {
		return nil
	}
	return &event.Location{Lat: *l.Lat, Lon: *l.Lon}
}

type newEventRequest struct {
	Title             string       `json:"title"`
	Annotation        string       `json:"annotation"`
	Description       string       `json:"description"`
	Category          int64        `json:"category" validate:"required,gt=0"`
	EventDate         *dateTime    `json:"eventDate" validate:"required"`
	Location          *locationDto `json:"location" validate:"required"`
	Paid              bool         `json:"paid"`
	ParticipantLimit  int          `json:"participantLimit"`
	RequestModeration *bool        `json:"requestModeration"`
}

func (req newEventRequest) toDomain() event.NewEvent {
	return event.NewEvent{
		Title:             req.Title,
		Annotation:        req.Annotation,
		Description:       req.Description,
		CategoryID:        req.Category,
		EventDate:         time.Time(*req.EventDate),
		Location:          *req.Location.toDomain(),
		Paid:              req.Paid,
		ParticipantLimit:  req.ParticipantLimit,
		RequestModeration: req.RequestModeration,
	}
}

type updateEventFields struct {
	Title             *string      `json:"title"`
	Annotation        *string      `json:"annotation"`
	Description       *string      `json:"description"`
	Category          *int64       `json:"category" validate:"omitempty,gt=0"`
	EventDate         *dateTime    `json:"eventDate"`
	Location          *locationDto `json:"location" validate:"omitempty"`
	Paid              *bool        `json:"paid"`
	ParticipantLimit  *int         `json:"participantLimit"`
	RequestModeration *bool        `json:"requestModeration"`
}

func (f updateEventFields) patch() event.Patch {
	return event.Patch{
		Title:             f.Title,
		Annotation:        f.Annotation,
		Description:       f.Description,
		CategoryID:        f.Category,
		EventDate:         optionalTime(f.EventDate),
		Location:          f.Location.toDomain(),
		Paid:              f.Paid,
		ParticipantLimit:  f.ParticipantLimit,
		RequestModeration: f.RequestModeration,
	}
}

type updateEventUserRequest struct {
	updateEventFields
	StateAction *event.UserStateAction `json:"stateAction"`
}

type updateEventAdminRequest struct {
	updateEventFields
	StateAction *event.AdminStateAction `json:"stateAction"`
}

type statusUpdateRequest struct {
	RequestIDs []int64          `json:"requestIds" validate:"required,min=1,dive,gt=0"`
	Status     request.Decision `json:"status" validate:"required"`
}

type newUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"required,email"`
}

type categoryRequest struct {
	Name string `json:"name"`
}

type idName struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

type eventResponse struct {
	ID                int64          `json:"id"`
	Title             string         `json:"title"`
	Annotation        string         `json:"annotation"`
	Description       string         `json:"description"`
	Category          idName         `json:"category"`
	Initiator         idName         `json:"initiator"`
	EventDate         dateTime       `json:"eventDate"`
	CreatedOn         dateTime       `json:"createdOn"`
	PublishedOn       *dateTime      `json:"publishedOn,omitempty"`
	State             event.State    `json:"state"`
	Paid              bool           `json:"paid"`
	ParticipantLimit  int            `json:"participantLimit"`
	RequestModeration bool           `json:"requestModeration"`
	Location          event.Location `json:"location"`
	ConfirmedRequests int            `json:"confirmedRequests"`
	Views             int64          `json:"views"`
}

func toEventResponse(d *appEvent.Details, names nameBook) eventResponse {
	resp := eventResponse{
		ID:                d.ID,
		Title:             d.Title,
		Annotation:        d.Annotation,
		Description:       d.Description,
		Category:          idName{ID: d.CategoryID, Name: names.categories[d.CategoryID]},
		Initiator:         idName{ID: d.InitiatorID, Name: names.users[d.InitiatorID]},
		EventDate:         dateTime(d.EventDate),
		CreatedOn:         dateTime(d.CreatedOn),
		State:             d.State,
		Paid:              d.Paid,
		ParticipantLimit:  d.ParticipantLimit,
		RequestModeration: d.RequestModeration,
		Location:          d.Location,
		ConfirmedRequests: d.ConfirmedRequests,
		Views:             d.Views,
	}
	if d.PublishedOn != nil {
		p := dateTime(*d.PublishedOn)
		resp.PublishedOn = &p
	}
	return resp
}

type requestResponse struct {
	ID        int64          `json:"id"`
	Event     int64          `json:"event"`
	Requester int64          `json:"requester"`
	Status    request.Status `json:"status"`
	Created   dateTime       `json:"created"`
}

func toRequestResponse(r *request.Request) requestResponse {
	return requestResponse{
		ID:        r.ID,
		Event:     r.EventID,
		Requester: r.RequesterID,
		Status:    r.Status,
		Created:   dateTime(r.Created),
	}
}

func toRequestResponses(reqs []*request.Request) []requestResponse {
	out := make([]requestResponse, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, toRequestResponse(r))
	}
	return out
}

type statusUpdateResponse struct {
	ConfirmedRequests []requestResponse `json:"confirmedRequests"`
	RejectedRequests  []requestResponse `json:"rejectedRequests"`
}

type ratingRequest struct {
	IsLike *bool `json:"isLike" validate:"required"`
}

type ratingResponse struct {
	ID      int64    `json:"id"`
	UserID  int64    `json:"userId"`
	EventID int64    `json:"eventId"`
	IsLike  bool     `json:"isLike"`
	Created dateTime `json:"created"`
}

func toRatingResponse(rt *rating.Rating) ratingResponse {
	return ratingResponse{
		ID:      rt.ID,
		UserID:  rt.UserID,
		EventID: rt.EventID,
		IsLike:  rt.IsLike,
		Created: dateTime(rt.Created),
	}
}

// ratingStatsResponse carries event fields only for event rankings.
type ratingStatsResponse struct {
	EventID    *int64  `json:"eventId,omitempty"`
	EventTitle *string `json:"eventTitle,omitempty"`
	AuthorID   int64   `json:"authorId"`
	AuthorName string  `json:"authorName"`
	Likes      *int64  `json:"likes,omitempty"`
	Dislikes   *int64  `json:"dislikes,omitempty"`
	Rating     int64   `json:"rating"`
}

func toEventStatsResponse(sum *appRating.EventSummary) ratingStatsResponse {
	return ratingStatsResponse{
		EventID:    &sum.EventID,
		EventTitle: &sum.EventTitle,
		AuthorID:   sum.AuthorID,
		AuthorName: sum.AuthorName,
		Likes:      &sum.Likes,
		Dislikes:   &sum.Dislikes,
		Rating:     sum.Rating,
	}
}

type newCompilationRequest struct {
	Title  string  `json:"title"`
	Pinned *bool   `json:"pinned"`
	Events []int64 `json:"events" validate:"omitempty,dive,gt=0"`
}

type updateCompilationRequest struct {
	Title  *string  `json:"title"`
	Pinned *bool    `json:"pinned"`
	Events *[]int64 `json:"events" validate:"omitempty,dive,gt=0"`
}

func (req updateCompilationRequest) patch() compilation.Patch {
	return compilation.Patch{Title: req.Title, Pinned: req.Pinned, EventIDs: req.Events}
}

type compilationResponse struct {
	ID     int64           `json:"id"`
	Title  string          `json:"title"`
	Pinned bool            `json:"pinned"`
	Events []eventResponse `json:"events"`
}
