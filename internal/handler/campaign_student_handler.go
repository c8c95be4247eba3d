package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uks-adp-api/internal/models"
	"github.com/noah-isme/uks-adp-api/internal/service"
	appErrors "github.com/noah-isme/uks-adp-api/pkg/errors"
	"github.com/noah-isme/uks-adp-api/pkg/response"
)

// CampaignStudentHandler exposes participation row endpoints.
type CampaignStudentHandler struct {
	students *service.CampaignStudentService
}

// NewCampaignStudentHandler constructs CampaignStudentHandler.
func NewCampaignStudentHandler(students *service.CampaignStudentService) *CampaignStudentHandler {
	return &CampaignStudentHandler{students: students}
}

type updateStatusRequest struct {
	Status string  `json:"status" binding:"required"`
	Reason *string `json:"reason,omitempty"`
}

// Create godoc
// @Summary Register a student into a class campaign
// @Tags CampaignStudents
// @Accept json
// @Produce json
// @Param payload body service.CreateCampaignStudentRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Router /campaign-student [post]
func (h *CampaignStudentHandler) Create(c *gin.Context) {
	var req service.CreateCampaignStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.students.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// BatchCreate godoc
// @Summary Register many students at once, skipping duplicates
// @Tags CampaignStudents
// @Accept json
// @Produce json
// @Param payload body []service.CreateCampaignStudentRequest true "Batch payload"
// @Success 201 {object} response.Envelope
// @Router /campaign-student/batch [post]
func (h *CampaignStudentHandler) BatchCreate(c *gin.Context) {
	var reqs []service.CreateCampaignStudentRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.students.BatchCreate(c.Request.Context(), reqs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// List godoc
// @Summary List participation rows
// @Tags CampaignStudents
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /campaign-student [get]
func (h *CampaignStudentHandler) List(c *gin.Context) {
	rows, err := h.students.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Get godoc
// @Summary Get one participation row
// @Tags CampaignStudents
// @Produce json
// @Param id path string true "Participation ID"
// @Success 200 {object} response.Envelope
// @Router /campaign-student/{id} [get]
func (h *CampaignStudentHandler) Get(c *gin.Context) {
	detail, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// ByClassCampaign godoc
// @Summary Rows of one class campaign
// @Tags CampaignStudents
// @Produce json
// @Param id path string true "Class campaign ID"
// @Success 200 {object} response.Envelope
// @Router /campaign-student/class-campaign/{id} [get]
func (h *CampaignStudentHandler) ByClassCampaign(c *gin.Context) {
	rows, err := h.students.FindByClassCampaign(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// ByStudent godoc
// @Summary Rows of one student
// @Tags CampaignStudents
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /campaign-student/student/{studentId} [get]
func (h *CampaignStudentHandler) ByStudent(c *gin.Context) {
	rows, err := h.students.FindByStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// ByStatus godoc
// @Summary Rows classified under one status
// @Tags CampaignStudents
// @Produce json
// @Param status path string true "Participation status"
// @Success 200 {object} response.Envelope
// @Router /campaign-student/status/{status} [get]
func (h *CampaignStudentHandler) ByStatus(c *gin.Context) {
	status := models.ParticipationStatus(strings.ToUpper(c.Param("status")))
	rows, err := h.students.FindByStatus(c.Request.Context(), status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Update godoc
// @Summary Patch a participation row's free-form fields
// @Tags CampaignStudents
// @Accept json
// @Produce json
// @Param id path string true "Participation ID"
// @Param payload body models.CampaignStudentPatch true "Patch payload"
// @Success 200 {object} response.Envelope
// @Router /campaign-student/{id} [put]
func (h *CampaignStudentHandler) Update(c *gin.Context) {
	var patch models.CampaignStudentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.students.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// UpdateStatus godoc
// @Summary Transition a participation row's status
// @Tags CampaignStudents
// @Accept json
// @Produce json
// @Param id path string true "Participation ID"
// @Param payload body updateStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /campaign-student/{id}/status [put]
func (h *CampaignStudentHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	status := models.ParticipationStatus(strings.ToUpper(req.Status))
	detail, err := h.students.UpdateStatus(c.Request.Context(), c.Param("id"), status, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Delete godoc
// @Summary Delete one participation row
// @Tags CampaignStudents
// @Produce json
// @Param id path string true "Participation ID"
// @Success 200 {object} response.Envelope
// @Router /campaign-student/{id} [delete]
func (h *CampaignStudentHandler) Delete(c *gin.Context) {
	if err := h.students.Remove(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": true}, nil)
}

// DeleteByClassCampaign godoc
// @Summary Delete every row of one class campaign
// @Tags CampaignStudents
// @Produce json
// @Param id path string true "Class campaign ID"
// @Success 200 {object} response.Envelope
// @Router /campaign-student/class-campaign/{id} [delete]
func (h *CampaignStudentHandler) DeleteByClassCampaign(c *gin.Context) {
	count, err := h.students.RemoveByClassCampaign(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": count}, nil)
}

// DeleteByStudent godoc
// @Summary Delete every row of one student
// @Tags CampaignStudents
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /campaign-student/student/{studentId} [delete]
func (h *CampaignStudentHandler) DeleteByStudent(c *gin.Context) {
	count, err := h.students.RemoveByStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": count}, nil)
}
