package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-lead-outreach/internal/model"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/usecase"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/logger"
)

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondSuccess(w, http.StatusOK, "service is healthy", nil)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.readyCheck != nil {
		if err := s.readyCheck(r.Context()); err != nil {
			s.respondErrorMessage(w, http.StatusServiceUnavailable, "dependencies not ready")
			return
		}
	}
	s.respondSuccess(w, http.StatusOK, "service is ready", nil)
}

// --- Leads ---

func (s *Server) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	var input usecase.CreateLeadInput
	if err := decodeJSON(r, &input); err != nil {
		s.respondError(w, r, err)
		return
	}

	lead, err := s.svc.CreateLead(r.Context(), input)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondSuccess(w, http.StatusCreated, "lead created", lead)
}

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	status := r.URL.Query().Get("status")

	leads, err := s.svc.ListLeads(r.Context(), status, page, limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondSuccess(w, http.StatusOK, "leads retrieved", leads)
}

func (s *Server) handleGetLead(w http.ResponseWriter, r *http.Request) {
	lead, err := s.svc.GetLead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondSuccess(w, http.StatusOK, "lead retrieved", lead)
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	history, err := s.svc.GetConversation(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondSuccess(w, http.StatusOK, "conversation retrieved", history)
}

func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.GetSummary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondSuccess(w, http.StatusOK, "summary retrieved", summary)
}

func (s *Server) handleUpdateLead(w http.ResponseWriter, r *http.Request) {
	var input usecase.UpdateLeadInput
	if err := decodeJSON(r, &input); err != nil {
		s.respondError(w, r, err)
		return
	}

	lead, err := s.svc.UpdateLead(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondSuccess(w, http.StatusOK, "lead updated", lead)
}

func (s *Server) handleDeleteLead(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteLead(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondSuccess(w, http.StatusOK, "lead deleted", nil)
}

// --- Scraper / jobs ---

func (s *Server) handleRunScraper(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Count int `json:"count"`
	}
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &input); err != nil {
			s.respondError(w, r, err)
			return
		}
	}

	job, err := s.svc.StartScrape(r.Context(), input.Count)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	count := input.Count
	if err := s.dispatcher.Submit("scraper", func(ctx context.Context) {
		if err := s.svc.ExecuteScrape(ctx, job, count); err != nil {
			logger.FromContext(ctx).Error("Scraper run failed",
				zap.String("job_id", job.ID),
				zap.Error(err),
			)
		}
	}); err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondSuccess(w, http.StatusAccepted, "scraper job started", map[string]string{"jobId": job.ID})
}

func (s *Server) handleListScraperJobs(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	jobs, err := s.svc.ListJobs(r.Context(), model.JobTypeScraper, page, limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondSuccess(w, http.StatusOK, "scraper jobs retrieved", jobs)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	jobType := r.URL.Query().Get("type")

	jobs, err := s.svc.ListJobs(r.Context(), jobType, page, limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondSuccess(w, http.StatusOK, "jobs retrieved", jobs)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.svc.GetJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondSuccess(w, http.StatusOK, "job retrieved", job)
}

// --- Messaging ---

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var input usecase.SendMessageInput
	if err := decodeJSON(r, &input); err != nil {
		s.respondError(w, r, err)
		return
	}

	response, err := s.svc.SendToLead(r.Context(), input)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondSuccess(w, http.StatusOK, "message sent", response)
}

func (s *Server) handleReply(w http.ResponseWriter, r *http.Request) {
	var input usecase.ReplyInput
	if err := decodeJSON(r, &input); err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.svc.HandleReply(r.Context(), input)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondSuccess(w, http.StatusOK, "reply processed", result)
}

// handleWhatsAppIncoming is the gateway webhook. The gateway expects a fast
// acknowledgement, so a processed reply answers 202 rather than 200.
func (s *Server) handleWhatsAppIncoming(w http.ResponseWriter, r *http.Request) {
	var input usecase.ReplyInput
	if err := decodeJSON(r, &input); err != nil {
		s.respondError(w, r, err)
		return
	}
	input.Channel = model.ChannelWhatsApp

	result, err := s.svc.HandleReply(r.Context(), input)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondSuccess(w, http.StatusAccepted, "message accepted", result)
}

// --- AI ---

func (s *Server) handleGenerateMessage(w http.ResponseWriter, r *http.Request) {
	var input struct {
		LeadID    string            `json:"leadId"`
		Variables map[string]string `json:"variables"`
	}
	if err := decodeJSON(r, &input); err != nil {
		s.respondError(w, r, err)
		return
	}

	message, err := s.svc.GenerateMessage(r.Context(), input.LeadID, input.Variables)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondSuccess(w, http.StatusOK, "message generated", map[string]string{"message": message})
}

func (s *Server) handleSummarizeConversation(w http.ResponseWriter, r *http.Request) {
	var input struct {
		LeadID string `json:"leadId"`
	}
	if err := decodeJSON(r, &input); err != nil {
		s.respondError(w, r, err)
		return
	}

	summary, err := s.svc.SummarizeConversation(r.Context(), input.LeadID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondSuccess(w, http.StatusOK, "conversation summarized", summary)
}

func (s *Server) handleExtractKeyPoints(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &input); err != nil {
		s.respondError(w, r, err)
		return
	}

	points, err := s.svc.ExtractKeyPoints(r.Context(), input.Text)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondSuccess(w, http.StatusOK, "key points extracted", map[string][]string{"keyPoints": points})
}

// --- Scheduler ---

func (s *Server) handleStartDailyJob(w http.ResponseWriter, r *http.Request) {
	if err := s.dispatcher.Submit("daily-outreach", func(ctx context.Context) {
		if _, err := s.svc.RunDailyOutreach(ctx); err != nil {
			logger.FromContext(ctx).Error("Daily outreach run failed", zap.Error(err))
		}
	}); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondSuccess(w, http.StatusAccepted, "daily outreach job started", nil)
}

func (s *Server) handleSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	tracker := s.svc.Quota()

	var lastJob *model.Job
	if job, err := s.svc.GetLatestJob(r.Context(), model.JobTypeMessaging); err == nil {
		lastJob = job
	}

	s.respondSuccess(w, http.StatusOK, "scheduler status", map[string]interface{}{
		"schedulerStatus":     s.sched.Status(),
		"dailyLeadsSentToday": tracker.SentToday(),
		"dailyLimit":          tracker.Limit(),
		"lastDailyJob":        lastJob,
	})
}

func (s *Server) handleSchedulerStart(w http.ResponseWriter, r *http.Request) {
	if err := s.sched.Start(); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondSuccess(w, http.StatusOK, "scheduler started", map[string]string{"schedulerStatus": s.sched.Status()})
}

func (s *Server) handleSchedulerStop(w http.ResponseWriter, r *http.Request) {
	s.sched.Stop()
	s.respondSuccess(w, http.StatusOK, "scheduler stopped", map[string]string{"schedulerStatus": s.sched.Status()})
}
