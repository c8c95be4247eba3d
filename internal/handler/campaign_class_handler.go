package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uks-adp-api/internal/models"
	"github.com/noah-isme/uks-adp-api/internal/service"
	appErrors "github.com/noah-isme/uks-adp-api/pkg/errors"
	"github.com/noah-isme/uks-adp-api/pkg/response"
)

// CampaignClassHandler exposes class-campaign association endpoints.
type CampaignClassHandler struct {
	classes *service.CampaignClassService
}

// NewCampaignClassHandler constructs CampaignClassHandler.
func NewCampaignClassHandler(classes *service.CampaignClassService) *CampaignClassHandler {
	return &CampaignClassHandler{classes: classes}
}

// Create godoc
// @Summary Associate a class with a campaign
// @Tags CampaignClasses
// @Accept json
// @Produce json
// @Param payload body service.CreateClassCampaignRequest true "Association payload"
// @Success 201 {object} response.Envelope
// @Router /campaign-class [post]
func (h *CampaignClassHandler) Create(c *gin.Context) {
	var req service.CreateClassCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assoc, err := h.classes.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assoc)
}

// List godoc
// @Summary List class-campaign associations
// @Tags CampaignClasses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /campaign-class [get]
func (h *CampaignClassHandler) List(c *gin.Context) {
	rows, err := h.classes.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Get godoc
// @Summary Get one association
// @Tags CampaignClasses
// @Produce json
// @Param id path string true "Association ID"
// @Success 200 {object} response.Envelope
// @Router /campaign-class/{id} [get]
func (h *CampaignClassHandler) Get(c *gin.Context) {
	assoc, err := h.classes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assoc, nil)
}

// ByCampaign godoc
// @Summary Classes participating in one campaign
// @Tags CampaignClasses
// @Produce json
// @Param campaignId path string true "Campaign ID"
// @Success 200 {object} response.Envelope
// @Router /campaign-class/campaign/{campaignId} [get]
func (h *CampaignClassHandler) ByCampaign(c *gin.Context) {
	rows, err := h.classes.FindByCampaign(c.Request.Context(), c.Param("campaignId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// ByClass godoc
// @Summary Campaigns one class participates in
// @Tags CampaignClasses
// @Produce json
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /campaign-class/class/{classId} [get]
func (h *CampaignClassHandler) ByClass(c *gin.Context) {
	rows, err := h.classes.FindByClass(c.Request.Context(), c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Update godoc
// @Summary Patch an association's denormalized display fields
// @Tags CampaignClasses
// @Accept json
// @Produce json
// @Param id path string true "Association ID"
// @Param payload body models.ClassCampaignPatch true "Patch payload"
// @Success 200 {object} response.Envelope
// @Router /campaign-class/{id} [put]
func (h *CampaignClassHandler) Update(c *gin.Context) {
	var patch models.ClassCampaignPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assoc, err := h.classes.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assoc, nil)
}

// Delete godoc
// @Summary Delete one association
// @Tags CampaignClasses
// @Produce json
// @Param id path string true "Association ID"
// @Success 200 {object} response.Envelope
// @Router /campaign-class/{id} [delete]
func (h *CampaignClassHandler) Delete(c *gin.Context) {
	if err := h.classes.Remove(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": true}, nil)
}

// DeleteByCampaign godoc
// @Summary Delete every association of one campaign
// @Tags CampaignClasses
// @Produce json
// @Param campaignId path string true "Campaign ID"
// @Success 200 {object} response.Envelope
// @Router /campaign-class/campaign/{campaignId} [delete]
func (h *CampaignClassHandler) DeleteByCampaign(c *gin.Context) {
	count, err := h.classes.RemoveByCampaign(c.Request.Context(), c.Param("campaignId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": count}, nil)
}

// DeleteByClass godoc
// @Summary Delete every association of one class
// @Tags CampaignClasses
// @Produce json
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /campaign-class/class/{classId} [delete]
func (h *CampaignClassHandler) DeleteByClass(c *gin.Context) {
	count, err := h.classes.RemoveByClass(c.Request.Context(), c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": count}, nil)
}
