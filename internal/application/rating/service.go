package rating

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	appAudit "github.com/explore-with-me/ewm-service/internal/application/audit"
	"github.com/explore-with-me/ewm-service/internal/domain/apperror"
	"github.com/explore-with-me/ewm-service/internal/domain/audit"
	"github.com/explore-with-me/ewm-service/internal/domain/event"
	domain "github.com/explore-with-me/ewm-service/internal/domain/rating"
	"github.com/explore-with-me/ewm-service/internal/domain/user"
)

// EventSummary is the public rating of one event.
type EventSummary struct {
	EventID    int64
	EventTitle string
	AuthorID   int64
	AuthorName string
	Likes      int64
	Dislikes   int64
	Rating     int64
}

// AuthorSummary is the accumulated rating of an event initiator.
type AuthorSummary struct {
	AuthorID   int64
	AuthorName string
	Rating     int64
}

// Service lets participants like or dislike published events and ranks
// events and their initiators by the result.
type Service struct {
	ratings  domain.Repository
	events   event.Repository
	users    user.Repository
	auditSvc *appAudit.Service
	now      func() time.Time
	logger   zerolog.Logger
}

func NewService(
	ratings domain.Repository,
	events event.Repository,
	users user.Repository,
	auditSvc *appAudit.Service,
	logger zerolog.Logger,
) *Service {
	return &Service{
		ratings:  ratings,
		events:   events,
		users:    users,
		auditSvc: auditSvc,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger.With().Str("service", "rating").Logger(),
	}
}

// Rate records userID's opinion of a published event. Initiators cannot
// rate their own events and every user rates an event once.
func (s *Service) Rate(ctx context.Context, userID, eventID int64, isLike bool) (*domain.Rating, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, apperror.NotFound("Event with id=%d was not found", eventID)
	}
	if ev.State != event.StatePublished {
		return nil, apperror.Conflict("Cannot rate unpublished event")
	}
	if ev.IsInitiator(userID) {
		return nil, apperror.Conflict("User cannot rate their own event")
	}
	existing, err := s.ratings.GetByUserAndEvent(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.Conflict("User has already rated this event")
	}

	rt := &domain.Rating{UserID: userID, EventID: eventID, IsLike: isLike, Created: s.now()}
	if err := s.ratings.Create(ctx, rt); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, apperror.Conflict("User has already rated this event")
		}
		return nil, err
	}

	s.record(ctx, rt, audit.ActionCreate, nil)
	s.logger.Info().Int64("userId", userID).Int64("eventId", eventID).Bool("like", isLike).Msg("event rated")
	return rt, nil
}

// Update flips an existing rating.
func (s *Service) Update(ctx context.Context, userID, eventID int64, isLike bool) (*domain.Rating, error) {
	rt, err := s.Get(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	if rt.IsLike == isLike {
		return rt, nil
	}
	previous := rt.IsLike
	rt.IsLike = isLike
	if err := s.ratings.Update(ctx, rt); err != nil {
		return nil, err
	}

	s.record(ctx, rt, audit.ActionUpdate, map[string]interface{}{"isLike": previous})
	s.logger.Info().Int64("userId", userID).Int64("eventId", eventID).Bool("like", isLike).Msg("rating updated")
	return rt, nil
}

// Remove deletes userID's rating of eventID.
func (s *Service) Remove(ctx context.Context, userID, eventID int64) error {
	rt, err := s.Get(ctx, userID, eventID)
	if err != nil {
		return err
	}
	if err := s.ratings.Delete(ctx, rt.ID); err != nil {
		return err
	}

	s.auditSvc.Log(ctx, &audit.AuditEntry{
		EntityType: audit.EntityTypeRating,
		EntityID:   rt.ID,
		Action:     audit.ActionDelete,
		Actor:      audit.UserActor(userID),
		OldValues:  map[string]interface{}{"eventId": eventID, "isLike": rt.IsLike},
	})
	s.logger.Info().Int64("userId", userID).Int64("eventId", eventID).Msg("rating removed")
	return nil
}

func (s *Service) Get(ctx context.Context, userID, eventID int64) (*domain.Rating, error) {
	rt, err := s.ratings.GetByUserAndEvent(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	if rt == nil {
		return nil, apperror.NotFound("Rating not found for user %d and event %d", userID, eventID)
	}
	return rt, nil
}

func (s *Service) ListByUser(ctx context.Context, userID int64) ([]*domain.Rating, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	ratings, err := s.ratings.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ratings == nil {
		ratings = []*domain.Rating{}
	}
	return ratings, nil
}

// EventStats summarizes the ratings of one event.
func (s *Service) EventStats(ctx context.Context, eventID int64) (*EventSummary, error) {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, apperror.NotFound("Event with id=%d was not found", eventID)
	}
	likes, dislikes, err := s.ratings.ScoreOfEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	names, err := s.names(ctx, []int64{ev.InitiatorID})
	if err != nil {
		return nil, err
	}
	return &EventSummary{
		EventID:    ev.ID,
		EventTitle: ev.Title,
		AuthorID:   ev.InitiatorID,
		AuthorName: names[ev.InitiatorID],
		Likes:      likes,
		Dislikes:   dislikes,
		Rating:     likes - dislikes,
	}, nil
}

// TopEvents ranks published events by likes minus dislikes.
func (s *Service) TopEvents(ctx context.Context, from, size int) ([]*EventSummary, error) {
	if err := event.ValidatePage(from, size); err != nil {
		return nil, err
	}
	scores, err := s.ratings.TopEvents(ctx, size, from)
	if err != nil {
		return nil, err
	}
	authorIDs := make([]int64, 0, len(scores))
	for _, sc := range scores {
		authorIDs = append(authorIDs, sc.InitiatorID)
	}
	names, err := s.names(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	out := make([]*EventSummary, 0, len(scores))
	for _, sc := range scores {
		out = append(out, &EventSummary{
			EventID:    sc.EventID,
			EventTitle: sc.Title,
			AuthorID:   sc.InitiatorID,
			AuthorName: names[sc.InitiatorID],
			Likes:      sc.Likes,
			Dislikes:   sc.Dislikes,
			Rating:     sc.Score(),
		})
	}
	return out, nil
}

// TopAuthors ranks initiators by the summed rating of their events.
func (s *Service) TopAuthors(ctx context.Context, from, size int) ([]*AuthorSummary, error) {
	if err := event.ValidatePage(from, size); err != nil {
		return nil, err
	}
	scores, err := s.ratings.TopAuthors(ctx, size, from)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(scores))
	for _, sc := range scores {
		ids = append(ids, sc.UserID)
	}
	names, err := s.names(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*AuthorSummary, 0, len(scores))
	for _, sc := range scores {
		out = append(out, &AuthorSummary{AuthorID: sc.UserID, AuthorName: names[sc.UserID], Rating: sc.Score})
	}
	return out, nil
}

func (s *Service) names(ctx context.Context, userIDs []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(userIDs))
	if len(userIDs) == 0 {
		return names, nil
	}
	users, err := s.users.List(ctx, userIDs, len(userIDs), 0)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names, nil
}

func (s *Service) ensureUser(ctx context.Context, userID int64) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return apperror.NotFound("User with id=%d was not found", userID)
	}
	return nil
}

func (s *Service) record(ctx context.Context, rt *domain.Rating, action audit.Action, old interface{}) {
	s.auditSvc.Log(ctx, &audit.AuditEntry{
		EntityType: audit.EntityTypeRating,
		EntityID:   rt.ID,
		Action:     action,
		Actor:      audit.UserActor(rt.UserID),
		OldValues:  old,
		NewValues:  map[string]interface{}{"eventId": rt.EventID, "isLike": rt.IsLike},
	})
}
