package devserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/foxzi/disparo/internal/models"
)

const (
	maxUploadBytes    = 10 << 20
	defaultPageLimit  = 50
	maxPageLimit      = 500
	minDailyLimit     = 1
	maxDailyLimit     = 10000
	defaultDailyLimit = 4000
	recentSendDays    = 7
	recentCampaigns   = 5
)

// ErrorResponse is the error response
type ErrorResponse struct {
	Error string `json:"error"`
}

type campaignCreateRequest struct {
	Name       string    `json:"name"`
	TemplateID models.ID `json:"template_id"`
	ListID     models.ID `json:"list_id"`
	DailyLimit *int      `json:"daily_limit"`
}

type templateRequest struct {
	Name        string `json:"name"`
	Subject     string `json:"subject"`
	TextContent string `json:"text_content"`
	HTMLContent string `json:"html_content"`
}

func (s *Server) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) sendError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, ErrorResponse{Error: message})
}

// sendStoreError maps storage errors to responses
func (s *Server) sendStoreError(w http.ResponseWriter, err error, entity string) {
	if errors.Is(err, ErrNotFound) {
		s.sendError(w, http.StatusNotFound, entity+" not found")
		return
	}
	s.logger.Error("storage error", "entity", entity, "error", err)
	s.sendError(w, http.StatusInternalServerError, "internal error")
}

func idParam(r *http.Request) models.ID {
	return models.ID(chi.URLParam(r, "id"))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Dashboard

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := s.now()

	campaigns, err := s.store.ListCampaigns(ctx)
	if err != nil {
		s.sendStoreError(w, err, "campaigns")
		return
	}
	lists, err := s.store.ListLists(ctx)
	if err != nil {
		s.sendStoreError(w, err, "lists")
		return
	}
	templates, err := s.store.ListTemplates(ctx)
	if err != nil {
		s.sendStoreError(w, err, "templates")
		return
	}
	sentToday, err := s.store.SentOn(ctx, now, "")
	if err != nil {
		s.sendStoreError(w, err, "sends")
		return
	}
	recent, err := s.store.RecentSends(ctx, now, recentSendDays)
	if err != nil {
		s.sendStoreError(w, err, "sends")
		return
	}

	stats := models.DashboardStats{
		Templates:   models.TemplateCounts{Total: len(templates)},
		TodayQuota:  &models.DailyQuota{EmailsSent: sentToday, QuotaLimit: s.config.Quota},
		RecentSends: recent,
	}
	stats.Campaigns.Total = len(campaigns)
	for _, c := range campaigns {
		if c.Status == models.CampaignActive {
			stats.Campaigns.Active++
		}
	}
	stats.Lists.Total = len(lists)
	for _, l := range lists {
		stats.Lists.TotalContacts += l.ValidCount
	}
	stats.RecentCampaigns = campaigns[:min(len(campaigns), recentCampaigns)]
	if stats.RecentCampaigns == nil {
		stats.RecentCampaigns = []models.Campaign{}
	}

	s.sendJSON(w, http.StatusOK, stats)
}

// Campaigns

func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := s.store.ListCampaigns(r.Context())
	if err != nil {
		s.sendStoreError(w, err, "campaigns")
		return
	}
	if campaigns == nil {
		campaigns = []models.Campaign{}
	}
	s.sendJSON(w, http.StatusOK, map[string]any{"campaigns": campaigns})
}

func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.GetCampaign(r.Context(), idParam(r))
	if err != nil {
		s.sendStoreError(w, err, "campaign")
		return
	}
	s.sendJSON(w, http.StatusOK, models.CampaignDetail{
		Campaign: *c,
		Stats: &models.CampaignStats{
			Sent:    c.SentCount,
			Failed:  0,
			Pending: max(c.TotalRecipients-c.SentCount, 0),
		},
	})
}

func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req campaignCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		s.sendError(w, http.StatusBadRequest, "name is required")
		return
	}
	limit := defaultDailyLimit
	if req.DailyLimit != nil {
		limit = *req.DailyLimit
	}
	if limit < minDailyLimit || limit > maxDailyLimit {
		s.sendError(w, http.StatusBadRequest, "daily_limit must be between 1 and 10000")
		return
	}

	tmpl, err := s.store.GetTemplate(ctx, req.TemplateID)
	if errors.Is(err, ErrNotFound) {
		s.sendError(w, http.StatusBadRequest, "template not found")
		return
	} else if err != nil {
		s.sendStoreError(w, err, "template")
		return
	}
	list, err := s.store.GetList(ctx, req.ListID)
	if errors.Is(err, ErrNotFound) {
		s.sendError(w, http.StatusBadRequest, "list not found")
		return
	} else if err != nil {
		s.sendStoreError(w, err, "list")
		return
	}
	if list.Status != models.ListCompleted {
		s.sendError(w, http.StatusBadRequest, "list is not ready")
		return
	}

	c := &models.Campaign{
		ID:              models.ID(uuid.NewString()),
		Name:            req.Name,
		Status:          models.CampaignDraft,
		TemplateID:      tmpl.ID,
		TemplateName:    tmpl.Name,
		ListID:          list.ID,
		ListName:        list.Name,
		DailyLimit:      limit,
		TotalRecipients: list.ValidCount,
		CreatedAt:       s.now(),
	}
	if err := s.store.PutCampaign(ctx, c); err != nil {
		s.sendStoreError(w, err, "campaign")
		return
	}

	s.logger.Info("campaign created", "campaign_id", c.ID, "list_id", list.ID, "recipients", c.TotalRecipients)
	s.sendJSON(w, http.StatusCreated, map[string]any{"campaign": c})
}

var errInvalidTransition = errors.New("invalid transition")

func (s *Server) handleCampaignAction(w http.ResponseWriter, r *http.Request) {
	action := models.Action(chi.URLParam(r, "action"))
	switch action {
	case models.ActionStart, models.ActionPause, models.ActionResume:
	default:
		s.sendError(w, http.StatusNotFound, "unknown action")
		return
	}

	c, err := s.store.UpdateCampaign(r.Context(), idParam(r), func(c *models.Campaign) error {
		next, ok := c.Status.Next(action)
		if !ok {
			return errInvalidTransition
		}
		c.Status = next
		if action == models.ActionStart && c.StartedAt == nil {
			now := s.now()
			c.StartedAt = &now
		}
		return nil
	})
	if errors.Is(err, errInvalidTransition) {
		s.sendError(w, http.StatusConflict, "cannot "+string(action)+" campaign in its current status")
		return
	}
	if err != nil {
		s.sendStoreError(w, err, "campaign")
		return
	}

	s.logger.Info("campaign status changed", "campaign_id", c.ID, "action", action, "status", c.Status)
	s.sendJSON(w, http.StatusOK, map[string]any{"campaign": c})
}

func (s *Server) handleDeleteCampaign(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCampaign(r.Context(), idParam(r)); err != nil {
		s.sendStoreError(w, err, "campaign")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Lists

func (s *Server) handleListLists(w http.ResponseWriter, r *http.Request) {
	lists, err := s.store.ListLists(r.Context())
	if err != nil {
		s.sendStoreError(w, err, "lists")
		return
	}
	if lists == nil {
		lists = []models.List{}
	}
	s.sendJSON(w, http.StatusOK, map[string]any{"lists": lists})
}

func (s *Server) handleGetList(w http.ResponseWriter, r *http.Request) {
	l, err := s.store.GetList(r.Context(), idParam(r))
	if err != nil {
		s.sendStoreError(w, err, "list")
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]any{"list": l})
}

func (s *Server) handleUploadList(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		s.sendError(w, http.StatusBadRequest, "name is required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".txt", ".csv":
	default:
		s.sendError(w, http.StatusBadRequest, "file must be .txt or .csv")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	l := &models.List{
		ID:          models.ID(uuid.NewString()),
		Name:        name,
		Description: r.FormValue("description"),
		Status:      models.ListProcessing,
		CreatedAt:   s.now(),
	}
	if err := s.store.CreateList(r.Context(), l, data, header.Filename); err != nil {
		s.sendStoreError(w, err, "list")
		return
	}

	s.logger.Info("list uploaded", "list_id", l.ID, "file", header.Filename, "bytes", len(data))
	s.sendJSON(w, http.StatusCreated, map[string]any{"list": l})
}

func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := idParam(r)

	if _, err := s.store.GetList(ctx, id); err != nil {
		s.sendStoreError(w, err, "list")
		return
	}

	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := queryInt(r, "limit", defaultPageLimit)
	if limit < 1 || limit > maxPageLimit {
		limit = defaultPageLimit
	}

	contacts, total, err := s.store.ContactsPage(ctx, id, page, limit)
	if err != nil {
		s.sendStoreError(w, err, "contacts")
		return
	}

	s.sendJSON(w, http.StatusOK, map[string]any{
		"contacts": contacts,
		"pagination": models.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: (total + limit - 1) / limit,
		},
	})
}

func (s *Server) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteList(r.Context(), idParam(r)); err != nil {
		s.sendStoreError(w, err, "list")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Templates

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.store.ListTemplates(r.Context())
	if err != nil {
		s.sendStoreError(w, err, "templates")
		return
	}
	if templates == nil {
		templates = []models.Template{}
	}
	s.sendJSON(w, http.StatusOK, map[string]any{"templates": templates})
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.GetTemplate(r.Context(), idParam(r))
	if err != nil {
		s.sendStoreError(w, err, "template")
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]any{"template": t})
}

func decodeTemplate(r *http.Request) (*templateRequest, string) {
	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, "Invalid request body"
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, "name is required"
	}
	if strings.TrimSpace(req.Subject) == "" {
		return nil, "subject is required"
	}
	return &req, ""
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	req, msg := decodeTemplate(r)
	if req == nil {
		s.sendError(w, http.StatusBadRequest, msg)
		return
	}

	now := s.now()
	t := &models.Template{
		ID:          models.ID(uuid.NewString()),
		Name:        req.Name,
		Subject:     req.Subject,
		TextContent: req.TextContent,
		HTMLContent: req.HTMLContent,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.PutTemplate(r.Context(), t); err != nil {
		s.sendStoreError(w, err, "template")
		return
	}
	s.sendJSON(w, http.StatusCreated, map[string]any{"template": t})
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	t, err := s.store.GetTemplate(ctx, idParam(r))
	if err != nil {
		s.sendStoreError(w, err, "template")
		return
	}

	req, msg := decodeTemplate(r)
	if req == nil {
		s.sendError(w, http.StatusBadRequest, msg)
		return
	}

	t.Name = req.Name
	t.Subject = req.Subject
	t.TextContent = req.TextContent
	t.HTMLContent = req.HTMLContent
	t.UpdatedAt = s.now()
	if err := s.store.PutTemplate(ctx, t); err != nil {
		s.sendStoreError(w, err, "template")
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]any{"template": t})
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTemplate(r.Context(), idParam(r)); err != nil {
		s.sendStoreError(w, err, "template")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
