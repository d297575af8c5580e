package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	appAudit "github.com/explore-with-me/ewm-service/internal/application/audit"
	appCategory "github.com/explore-with-me/ewm-service/internal/application/category"
	appCompilation "github.com/explore-with-me/ewm-service/internal/application/compilation"
	appEvent "github.com/explore-with-me/ewm-service/internal/application/event"
	appParticipation "github.com/explore-with-me/ewm-service/internal/application/participation"
	appRating "github.com/explore-with-me/ewm-service/internal/application/rating"
	appUser "github.com/explore-with-me/ewm-service/internal/application/user"
	"github.com/explore-with-me/ewm-service/internal/domain/apperror"
	"github.com/explore-with-me/ewm-service/internal/domain/audit"
	"github.com/explore-with-me/ewm-service/internal/infrastructure/sse"
)

// HitRecorder receives page views of the public event endpoints.
type HitRecorder interface {
	RecordHit(uri, ip string)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	eventSvc         *appEvent.Service
	participationSvc *appParticipation.Service
	userSvc          *appUser.Service
	categorySvc      *appCategory.Service
	ratingSvc        *appRating.Service
	compilationSvc   *appCompilation.Service
	auditSvc         *appAudit.Service
	sseHub           *sse.Hub
	hits             HitRecorder
	validate         *validator.Validate
	logger           zerolog.Logger
}

func NewServer(
	eventSvc *appEvent.Service,
	participationSvc *appParticipation.Service,
	userSvc *appUser.Service,
	categorySvc *appCategory.Service,
	ratingSvc *appRating.Service,
	compilationSvc *appCompilation.Service,
	auditSvc *appAudit.Service,
	sseHub *sse.Hub,
	hits HitRecorder,
	logger zerolog.Logger,
) *Server {
	return &Server{
		eventSvc:         eventSvc,
		participationSvc: participationSvc,
		userSvc:          userSvc,
		categorySvc:      categorySvc,
		ratingSvc:        ratingSvc,
		compilationSvc:   compilationSvc,
		auditSvc:         auditSvc,
		sseHub:           sseHub,
		hits:             hits,
		validate:         validator.New(validator.WithRequiredStructEnabled()),
		logger:           logger.With().Str("component", "http").Logger(),
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(traceID)

	r.Get("/health", s.health)

	// The stream outlives any request timeout.
	r.Get("/users/{userId}/stream", s.sseEndpoint)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Route("/admin", func(r chi.Router) {
			r.Route("/users", func(r chi.Router) {
				r.Post("/", s.createUser)
				r.Get("/", s.listUsers)
				r.Delete("/{userId}", s.deleteUser)
			})
			r.Route("/categories", func(r chi.Router) {
				r.Post("/", s.createCategory)
				r.Patch("/{catId}", s.renameCategory)
				r.Delete("/{catId}", s.deleteCategory)
			})
			r.Route("/events", func(r chi.Router) {
				r.Get("/", s.listAdminEvents)
				r.Patch("/{eventId}", s.adminUpdateEvent)
			})
			r.Route("/compilations", func(r chi.Router) {
				r.Post("/", s.createCompilation)
				r.Patch("/{compId}", s.updateCompilation)
				r.Delete("/{compId}", s.deleteCompilation)
			})
			r.Get("/audit", s.queryAudit)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.listCategories)
			r.Get("/{catId}", s.getCategory)
		})

		r.Route("/compilations", func(r chi.Router) {
			r.Get("/", s.listCompilations)
			r.Get("/{compId}", s.getCompilation)
		})

		r.Route("/ratings", func(r chi.Router) {
			r.Get("/events/top", s.topRatedEvents)
			r.Get("/events/{eventId}", s.eventRatingStats)
			r.Get("/users/top", s.topRatedAuthors)
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", s.listPublicEvents)
			r.Get("/{eventId}", s.getPublicEvent)
		})

		r.Route("/users/{userId}", func(r chi.Router) {
			r.Route("/events", func(r chi.Router) {
				r.Post("/", s.createEvent)
				r.Get("/", s.listOwnerEvents)
				r.Get("/{eventId}", s.getOwnerEvent)
				r.Patch("/{eventId}", s.ownerUpdateEvent)
				r.Get("/{eventId}/requests", s.listEventRequests)
				r.Patch("/{eventId}/requests", s.updateRequestStatuses)
				r.Patch("/{eventId}/requests/{requestId}/confirm", s.confirmRequest)
				r.Patch("/{eventId}/requests/{requestId}/reject", s.rejectRequest)
			})
			r.Route("/ratings", func(r chi.Router) {
				r.Get("/", s.listUserRatings)
				r.Post("/events/{eventId}", s.rateEvent)
				r.Patch("/events/{eventId}", s.updateRating)
				r.Delete("/events/{eventId}", s.removeRating)
				r.Get("/events/{eventId}", s.getRating)
			})
			r.Route("/requests", func(r chi.Router) {
				r.Get("/", s.listUserRequests)
				r.Post("/", s.createRequest)
				r.Patch("/{requestId}/cancel", s.cancelRequest)
			})
		})
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "UP"})
}

// accessLog logs one line per request once the handler returns.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		evt := s.logger.Info()
		if status >= http.StatusInternalServerError {
			evt = s.logger.Error()
		}
		evt.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("requestId", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

func traceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := middleware.GetReqID(ctx); id != "" {
			ctx = audit.WithTraceID(ctx, id)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

// respondAppError maps business error kinds onto HTTP statuses.
func (s *Server) respondAppError(w http.ResponseWriter, r *http.Request, err error) {
	switch apperror.KindOf(err) {
	case apperror.KindNotFound:
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case apperror.KindValidation:
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
	case apperror.KindConflict:
		respondError(w, http.StatusConflict, "CONFLICT", err.Error())
	default:
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "request timed out")
			return
		}
		s.logger.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("requestId", middleware.GetReqID(r.Context())).
			Msg("request failed")
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// decodeBody reads a JSON payload into v and runs its validate tags.
func (s *Server) decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.Validation("Request body is required")
		}
		if apperror.KindOf(err) != "" {
			return err
		}
		return apperror.Validation("Malformed request body: %s", err.Error())
	}
	if err := s.validate.Struct(v); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return apperror.Validation("Invalid request body")
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		if fe.Param() != "" {
			parts = append(parts, "Field: "+fe.Field()+". Error: must satisfy "+fe.Tag()+"="+fe.Param())
			continue
		}
		parts = append(parts, "Field: "+fe.Field()+". Error: must satisfy "+fe.Tag())
	}
	return apperror.Validation("%s", strings.Join(parts, "; "))
}

func parseIDParam(r *http.Request, key string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.Validation("Invalid %s: %s", key, chi.URLParam(r, key))
	}
	return id, nil
}

// parseFromSize reads from/size paging with defaults 0 and 10.
func parseFromSize(r *http.Request) (int, int, error) {
	from, size := 0, 10
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, apperror.Validation("Invalid from: %s", v)
		}
		from = n
	}
	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, apperror.Validation("Invalid size: %s", v)
		}
		size = n
	}
	return from, size, nil
}

// parseIDList accepts repeated and comma separated values.
func parseIDList(r *http.Request, key string) ([]int64, error) {
	var ids []int64
	for _, raw := range splitCSV(r.URL.Query()[key]) {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, apperror.Validation("Invalid %s: %s", key, raw)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func splitCSV(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseBoolParam(r *http.Request, key string) (*bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, apperror.Validation("Invalid %s: %s", key, v)
	}
	return &b, nil
}

func parseTimeParam(r *http.Request, key string) (*time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateTimeLayout, v, time.UTC)
	if err != nil {
		return nil, apperror.Validation("Invalid %s: %s, expected format %s", key, v, dateTimeLayout)
	}
	return &t, nil
}
