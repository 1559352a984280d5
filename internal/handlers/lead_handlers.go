package handlers

import (
	"errors"
	"leadchat-backend/internal/models"
	"leadchat-backend/internal/services"
	"leadchat-backend/pkg/httputil"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// LeadHandlers serves lead capture and the admin lead views.
type LeadHandlers struct {
	leadService    *services.LeadService
	meetingService *services.MeetingService
	logger         *slog.Logger
}

func NewLeadHandlers(leadService *services.LeadService, meetingService *services.MeetingService, logger *slog.Logger) *LeadHandlers {
	return &LeadHandlers{
		leadService:    leadService,
		meetingService: meetingService,
		logger:         logger.With("component", "LeadHandlers"),
	}
}

// HandleCreateLead handles POST /api/leads (contact form submissions).
func (h *LeadHandlers) HandleCreateLead(w http.ResponseWriter, r *http.Request) {
	var req models.LeadRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondJSON(w, http.StatusBadRequest, models.LeadMutationResponse{Error: "Invalid request payload"})
		return
	}

	source := req.Source
	if source == "" {
		source = models.LeadSourceDirect
	}
	res, err := h.leadService.UpsertLead(r.Context(), services.LeadCandidate{
		Email:     req.Email,
		Name:      req.Name,
		Phone:     req.Phone,
		Company:   req.Company,
		Website:   req.Website,
		Interests: req.Interests,
		Notes:     req.Notes,
		Source:    source,
	})
	if err != nil {
		status, message := statusForError(err, "Failed to save lead")
		if status >= http.StatusInternalServerError {
			h.logger.Error("Lead submission failed", "error", err)
		}
		httputil.RespondJSON(w, status, models.LeadMutationResponse{Error: message})
		return
	}

	lead := models.NewLeadResponse(res.Lead)
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	httputil.RespondJSON(w, status, models.LeadMutationResponse{
		Success: true,
		Lead:    &lead,
		Created: res.Created,
	})
}

// HandleListLeads handles GET /api/admin/leads. Optional ?limit= (default 50).
func (h *LeadHandlers) HandleListLeads(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", services.DefaultLeadListLimit)
	leads, err := h.leadService.ListLeads(r.Context(), limit)
	if err != nil {
		h.logger.Error("Listing leads failed", "error", err)
		respondServiceError(w, err, "Failed to fetch leads")
		return
	}

	resp := models.LeadsListResponse{Leads: make([]models.LeadResponse, 0, len(leads))}
	for i := range leads {
		resp.Leads = append(resp.Leads, models.NewLeadResponse(&leads[i]))
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleGetLead handles GET /api/admin/leads/{email}.
func (h *LeadHandlers) HandleGetLead(w http.ResponseWriter, r *http.Request) {
	lead, err := h.leadService.GetLeadByEmail(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		respondServiceError(w, err, "Failed to fetch lead")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, models.LeadResult{Lead: models.NewLeadResponse(lead)})
}

// HandleListConversations handles GET /api/admin/leads/{email}/conversations.
func (h *LeadHandlers) HandleListConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.leadService.ListConversations(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		respondServiceError(w, err, "Failed to fetch conversations")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, models.ConversationsListResponse{Conversations: conversations})
}

// HandleListLeadMeetings handles GET /api/admin/leads/{email}/meetings.
func (h *LeadHandlers) HandleListLeadMeetings(w http.ResponseWriter, r *http.Request) {
	meetings, err := h.meetingService.ListByLead(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		respondServiceError(w, err, "Failed to fetch meetings")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, toMeetingsList(meetings))
}

// HandleCreateLeadMeeting handles POST /api/admin/leads/{email}/meetings.
func (h *LeadHandlers) HandleCreateLeadMeeting(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMeetingRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	meeting, err := h.meetingService.CreateForLead(r.Context(), chi.URLParam(r, "email"), req)
	if err != nil {
		if !errors.Is(err, services.ErrLeadNotFound) {
			h.logger.Error("Creating meeting failed", "error", err)
		}
		respondServiceError(w, err, "Failed to create meeting")
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, models.MeetingResult{Success: true, Meeting: models.NewMeetingResponse(meeting)})
}

func toMeetingsList(meetings []models.Meeting) models.MeetingsListResponse {
	resp := models.MeetingsListResponse{Meetings: make([]models.MeetingResponse, 0, len(meetings))}
	for i := range meetings {
		resp.Meetings = append(resp.Meetings, models.NewMeetingResponse(&meetings[i]))
	}
	return resp
}
