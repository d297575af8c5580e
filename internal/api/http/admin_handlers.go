package httpapi

import (
	"net/http"

	appUser "github.com/explore-with-me/ewm-service/internal/application/user"
	"github.com/explore-with-me/ewm-service/internal/domain/audit"
)

// User handlers
func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req newUserRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	u, err := s.userSvc.CreateUser(r.Context(), appUser.CreateInput{Name: req.Name, Email: req.Email})
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, u)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	ids, err := parseIDList(r, "ids")
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	from, size, err := parseFromSize(r)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	users, err := s.userSvc.ListUsers(r.Context(), ids, from, size)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userId")
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	if err := s.userSvc.DeleteUser(r.Context(), userID); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Category handlers
func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	c, err := s.categorySvc.Create(r.Context(), req.Name)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

func (s *Server) renameCategory(w http.ResponseWriter, r *http.Request) {
	catID, err := parseIDParam(r, "catId")
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	var req categoryRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	c, err := s.categorySvc.Rename(r.Context(), catID, req.Name)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	catID, err := parseIDParam(r, "catId")
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	if err := s.categorySvc.Delete(r.Context(), catID); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	from, size, err := parseFromSize(r)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	list, err := s.categorySvc.List(r.Context(), from, size)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	catID, err := parseIDParam(r, "catId")
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	c, err := s.categorySvc.Get(r.Context(), catID)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// Audit handlers
func (s *Server) queryAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := audit.Filter{}
	if v := q.Get("entityType"); v != "" {
		et := audit.EntityType(v)
		filter.EntityType = &et
	}
	if v := q.Get("entityId"); v != "" {
		filter.EntityID = &v
	}
	if v := q.Get("action"); v != "" {
		a := audit.Action(v)
		filter.Action = &a
	}
	if v := q.Get("actor"); v != "" {
		filter.Actor = &v
	}
	from, size, err := parseFromSize(r)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	logs, err := s.auditSvc.List(r.Context(), filter, size, from)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	if logs == nil {
		logs = []*audit.AuditLog{}
	}
	if q.Get("verify") != "true" {
		respondJSON(w, http.StatusOK, logs)
		return
	}
	type verifiedLog struct {
		*audit.AuditLog
		Valid bool `json:"signatureValid"`
	}
	out := make([]verifiedLog, 0, len(logs))
	for _, l := range logs {
		res, err := s.auditSvc.Verify(l)
		if err != nil {
			s.respondAppError(w, r, err)
			return
		}
		out = append(out, verifiedLog{AuditLog: l, Valid: res.Verified})
	}
	respondJSON(w, http.StatusOK, out)
}
