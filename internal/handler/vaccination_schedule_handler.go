package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uks-adp-api/internal/models"
	"github.com/noah-isme/uks-adp-api/internal/service"
	appErrors "github.com/noah-isme/uks-adp-api/pkg/errors"
	"github.com/noah-isme/uks-adp-api/pkg/response"
)

// VaccinationScheduleHandler exposes the campaign orchestration endpoints.
type VaccinationScheduleHandler struct {
	schedules *service.VaccinationScheduleService
	exports   *service.ExportService
}

// NewVaccinationScheduleHandler constructs VaccinationScheduleHandler.
func NewVaccinationScheduleHandler(schedules *service.VaccinationScheduleService, exports *service.ExportService) *VaccinationScheduleHandler {
	return &VaccinationScheduleHandler{schedules: schedules, exports: exports}
}

// Create godoc
// @Summary Create vaccination schedule and fan out to students
// @Tags VaccinationSchedules
// @Accept json
// @Produce json
// @Param payload body service.CreateScheduleRequest true "Schedule payload"
// @Success 201 {object} response.Envelope
// @Router /vaccination-schedules [post]
func (h *VaccinationScheduleHandler) Create(c *gin.Context) {
	var req service.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	summary, err := h.schedules.CreateSchedule(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, summary)
}

// List godoc
// @Summary List raw participation rows
// @Tags VaccinationSchedules
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /vaccination-schedules [get]
func (h *VaccinationScheduleHandler) List(c *gin.Context) {
	rows, err := h.schedules.ListSchedules(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Campaigns godoc
// @Summary List campaigns without aggregation
// @Tags VaccinationSchedules
// @Produce json
// @Param category query string false "Filter by category"
// @Param search query string false "Title substring match"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Param sort_by query string false "scheduled_date, title or created_at"
// @Param sort_order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /vaccination-schedules/campaigns [get]
func (h *VaccinationScheduleHandler) Campaigns(c *gin.Context) {
	filter := models.CampaignFilter{
		Category:  c.Query("category"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	rows, total, err := h.schedules.Campaigns(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total})
}

// Events godoc
// @Summary List campaigns with aggregated counts
// @Tags VaccinationSchedules
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /vaccination-schedules/events [get]
func (h *VaccinationScheduleHandler) Events(c *gin.Context) {
	rows, err := h.schedules.Events(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// EventDetail godoc
// @Summary Campaign aggregation with per-class breakdown
// @Tags VaccinationSchedules
// @Produce json
// @Param eventId path string true "Campaign ID"
// @Success 200 {object} response.Envelope
// @Router /vaccination-schedules/events/{eventId} [get]
func (h *VaccinationScheduleHandler) EventDetail(c *gin.Context) {
	detail, err := h.schedules.EventDetail(c.Request.Context(), c.Param("eventId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// ClassDetail godoc
// @Summary Participation rows of one class within a campaign
// @Tags VaccinationSchedules
// @Produce json
// @Param eventId path string true "Campaign ID"
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /vaccination-schedules/events/{eventId}/classes/{classId} [get]
func (h *VaccinationScheduleHandler) ClassDetail(c *gin.Context) {
	rows, err := h.schedules.ClassDetail(c.Request.Context(), c.Param("eventId"), c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// ExportEvent godoc
// @Summary Download campaign recap as CSV or PDF
// @Tags VaccinationSchedules
// @Produce text/csv
// @Produce application/pdf
// @Param eventId path string true "Campaign ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /vaccination-schedules/events/{eventId}/export [get]
func (h *VaccinationScheduleHandler) ExportEvent(c *gin.Context) {
	format := service.ExportFormat(strings.ToLower(c.DefaultQuery("format", "csv")))
	file, err := h.exports.EventRecap(c.Request.Context(), c.Param("eventId"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Payload)
}

// ExportClass godoc
// @Summary Download one class roster as CSV or PDF
// @Tags VaccinationSchedules
// @Produce text/csv
// @Produce application/pdf
// @Param eventId path string true "Campaign ID"
// @Param classId path string true "Class ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /vaccination-schedules/events/{eventId}/classes/{classId}/export [get]
func (h *VaccinationScheduleHandler) ExportClass(c *gin.Context) {
	format := service.ExportFormat(strings.ToLower(c.DefaultQuery("format", "csv")))
	classCampaignID, err := h.schedules.ResolveClassCampaign(c.Request.Context(), c.Param("eventId"), c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exports.ClassRoster(c.Request.Context(), classCampaignID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Payload)
}

// UpdateResult godoc
// @Summary Record vaccination result
// @Tags VaccinationSchedules
// @Accept json
// @Produce json
// @Param id path string true "Participation ID"
// @Param payload body service.UpdateResultRequest true "Result payload"
// @Success 200 {object} response.Envelope
// @Router /vaccination-schedules/{id}/result [put]
func (h *VaccinationScheduleHandler) UpdateResult(c *gin.Context) {
	var req service.UpdateResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.schedules.UpdateResult(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Approve godoc
// @Summary Approve a pending participation
// @Tags VaccinationSchedules
// @Produce json
// @Param id path string true "Participation ID"
// @Success 200 {object} response.Envelope
// @Router /vaccination-schedules/{id}/approve [put]
func (h *VaccinationScheduleHandler) Approve(c *gin.Context) {
	detail, err := h.schedules.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Cancel godoc
// @Summary Reject a pending participation
// @Tags VaccinationSchedules
// @Accept json
// @Produce json
// @Param id path string true "Participation ID"
// @Param payload body service.CancelScheduleRequest false "Rejection reason"
// @Success 200 {object} response.Envelope
// @Router /vaccination-schedules/{id}/cancel [put]
func (h *VaccinationScheduleHandler) Cancel(c *gin.Context) {
	var req service.CancelScheduleRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	detail, err := h.schedules.Cancel(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Delete godoc
// @Summary Delete one participation row
// @Tags VaccinationSchedules
// @Produce json
// @Param id path string true "Participation ID"
// @Success 200 {object} response.Envelope
// @Router /vaccination-schedules/{id} [delete]
func (h *VaccinationScheduleHandler) Delete(c *gin.Context) {
	if err := h.schedules.DeleteSchedule(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": true}, nil)
}

// DeleteEvent godoc
// @Summary Delete a whole campaign while all rows are still pending
// @Tags VaccinationSchedules
// @Produce json
// @Param eventId path string true "Campaign ID"
// @Success 200 {object} response.Envelope
// @Router /vaccination-schedules/events/{eventId} [delete]
func (h *VaccinationScheduleHandler) DeleteEvent(c *gin.Context) {
	if err := h.schedules.DeleteCampaign(c.Request.Context(), c.Param("eventId")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": true}, nil)
}

// ResultsByStudent godoc
// @Summary Completed participations of one student
// @Tags VaccinationSchedules
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /vaccination-schedules/results/student/{studentId} [get]
func (h *VaccinationScheduleHandler) ResultsByStudent(c *gin.Context) {
	rows, err := h.schedules.ResultsByStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// PendingByStudent godoc
// @Summary Participations of one student still awaiting a response
// @Tags VaccinationSchedules
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /vaccination-schedules/pending/student/{studentId} [get]
func (h *VaccinationScheduleHandler) PendingByStudent(c *gin.Context) {
	rows, err := h.schedules.PendingByStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}
