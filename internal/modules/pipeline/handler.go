package pipeline

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mukamba/internal/domain/lead"
	"mukamba/internal/logger"
	"mukamba/internal/pkg/response"
	"mukamba/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers pipeline routes under an admin-protected group.
// Base path is /api/v1/pipeline
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	p := rg.Group("/pipeline")
	{
		p.GET("", h.GetBoard)
		p.GET("/stages", h.GetStages)

		p.GET("/filter", h.GetFilter)
		p.PATCH("/filter", h.UpdateFilter)

		p.POST("/leads", h.CreateLead)
		p.GET("/leads/:id", h.GetLead)
		p.PATCH("/leads/:id", h.UpdateLead)
		p.DELETE("/leads/:id", h.DeleteLead)
		p.POST("/leads/:id/contacted", h.MarkContacted)
		p.POST("/leads/:id/follow-up", h.ScheduleFollowUp)

		p.GET("/drag", h.GetGesture)
		p.POST("/drag/start", h.StartDrag)
		p.POST("/drag/hover", h.Hover)
		p.POST("/drag/drop", h.Drop)
		p.POST("/drag/cancel", h.CancelDrag)

		p.GET("/selection", h.GetSelection)
		p.POST("/selection", h.Select)
		p.DELETE("/selection", h.Deselect)

		p.POST("/bulk", h.Bulk)
	}
}

func agentID(c *gin.Context) string {
	return c.GetString("agent_id")
}

// bindJSON binds and validates body; it writes the error response itself
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return false
	}
	if fields := validator.Validate(req); fields != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request", fields)
		return false
	}
	return true
}

// writeError maps domain errors onto status codes
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, lead.ErrLeadNotFound):
		response.Error(c, http.StatusNotFound, "LEAD_NOT_FOUND", err.Error())
	case errors.Is(err, lead.ErrLeadExists):
		response.Error(c, http.StatusConflict, "LEAD_EXISTS", err.Error())
	case errors.Is(err, lead.ErrStageFull):
		response.Error(c, http.StatusConflict, "STAGE_FULL", err.Error())
	case errors.Is(err, lead.ErrGestureActive):
		response.Error(c, http.StatusConflict, "GESTURE_ACTIVE", err.Error())
	case errors.Is(err, lead.ErrNoGesture):
		response.Error(c, http.StatusConflict, "NO_GESTURE", err.Error())
	case errors.Is(err, lead.ErrNameRequired),
		errors.Is(err, lead.ErrInvalidStatus),
		errors.Is(err, lead.ErrInvalidPriority),
		errors.Is(err, lead.ErrInvalidKYCStatus),
		errors.Is(err, lead.ErrScoreOutOfRange),
		errors.Is(err, lead.ErrInvalidBudget),
		errors.Is(err, lead.ErrInvalidTarget),
		errors.Is(err, lead.ErrUnknownAction),
		errors.Is(err, lead.ErrMoveNeedsTarget):
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.Is(err, ErrNotifyFailed):
		response.Error(c, http.StatusBadGateway, "NOTIFY_FAILED", ErrNotifyFailed.Error())
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal Server Error")
	}
}

// GetBoard returns the agent's filtered board
//
// @Summary Pipeline board
// @Description Filtered leads with derived fields, stage metrics and summary
// @Tags Pipeline
// @Produce json
// @Security BearerAuth
// @Param sort query string false "score|budget|last_contact|name|probability|created"
// @Param desc query bool false "Descending order"
// @Success 200 {object} map[string]interface{}
// @Router /pipeline [get]
func (h *Handler) GetBoard(c *gin.Context) {
	desc, _ := strconv.ParseBool(c.DefaultQuery("desc", "false"))
	view := h.service.View(agentID(c), lead.SortKey(c.Query("sort")), desc)
	response.Success(c, http.StatusOK, view)
}

// GetStages returns per-stage metrics of the filtered leads
//
// @Summary Stage metrics
// @Tags Pipeline
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /pipeline/stages [get]
func (h *Handler) GetStages(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"stages": h.service.Stages(agentID(c))})
}

// @Summary Current filter
// @Tags Pipeline
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /pipeline/filter [get]
func (h *Handler) GetFilter(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"filter": h.service.Filter(agentID(c))})
}

// UpdateFilter merges a partial filter update
//
// @Summary Update filter
// @Description Fields left out keep their value. Invalid bounds are coerced.
// @Tags Pipeline
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body FilterRequest true "Partial filter"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /pipeline/filter [patch]
func (h *Handler) UpdateFilter(c *gin.Context) {
	var req FilterRequest
	if !bindJSON(c, &req) {
		return
	}

	agent := agentID(c)
	if req.Reset {
		h.service.ResetFilter(agent)
	}
	f := h.service.SetFilter(agent, req.ToPatch(h.service.Filter(agent)))
	response.Success(c, http.StatusOK, gin.H{"filter": f})
}

// CreateLead adds a lead to the pipeline
//
// @Summary Create lead
// @Tags Pipeline
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateLeadRequest true "Lead"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /pipeline/leads [post]
func (h *Handler) CreateLead(c *gin.Context) {
	var req CreateLeadRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.service.CreateLead(c.Request.Context(), agentID(c), req.ToLead())
	if err != nil {
		writeError(c, err)
		return
	}
	logger.FromGin(c).Info("lead created")
	response.Success(c, http.StatusCreated, gin.H{"lead": view})
}

// @Summary Get lead
// @Tags Pipeline
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /pipeline/leads/{id} [get]
func (h *Handler) GetLead(c *gin.Context) {
	view, err := h.service.GetLead(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"lead": view})
}

// UpdateLead applies a field patch
//
// @Summary Patch lead
// @Tags Pipeline
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /pipeline/leads/{id} [patch]
func (h *Handler) UpdateLead(c *gin.Context) {
	var p lead.Patch
	if err := c.ShouldBindJSON(&p); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if p.IsEmpty() {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Nothing to update")
		return
	}

	view, err := h.service.PatchLead(c.Request.Context(), agentID(c), c.Param("id"), p)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"lead": view})
}

// @Summary Delete lead
// @Tags Pipeline
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /pipeline/leads/{id} [delete]
func (h *Handler) DeleteLead(c *gin.Context) {
	id := c.Param("id")
	if err := h.service.DeleteLead(c.Request.Context(), agentID(c), id); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": id})
}

// MarkContacted records a contact with the lead now
//
// @Summary Record contact
// @Tags Pipeline
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Success 200 {object} map[string]interface{}
// @Router /pipeline/leads/{id}/contacted [post]
func (h *Handler) MarkContacted(c *gin.Context) {
	view, err := h.service.MarkContacted(c.Request.Context(), agentID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"lead": view})
}

// ScheduleFollowUp sets or clears the next follow-up
//
// @Summary Schedule follow-up
// @Tags Pipeline
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Param request body FollowUpRequest true "Follow-up time, null clears"
// @Success 200 {object} map[string]interface{}
// @Router /pipeline/leads/{id}/follow-up [post]
func (h *Handler) ScheduleFollowUp(c *gin.Context) {
	var req FollowUpRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.service.ScheduleFollowUp(c.Request.Context(), agentID(c), c.Param("id"), req.At)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"lead": view})
}

// @Summary Current drag gesture
// @Tags Pipeline
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /pipeline/drag [get]
func (h *Handler) GetGesture(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"gesture": h.service.Gesture(agentID(c))})
}

// @Summary Start dragging a lead
// @Tags Pipeline
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body DragStartRequest true "Lead"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /pipeline/drag/start [post]
func (h *Handler) StartDrag(c *gin.Context) {
	var req DragStartRequest
	if !bindJSON(c, &req) {
		return
	}

	g, err := h.service.StartDrag(agentID(c), req.LeadID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"gesture": g})
}

// @Summary Hover over a stage
// @Tags Pipeline
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body DragStageRequest true "Stage"
// @Success 200 {object} map[string]interface{}
// @Router /pipeline/drag/hover [post]
func (h *Handler) Hover(c *gin.Context) {
	var req DragStageRequest
	if !bindJSON(c, &req) {
		return
	}

	g, err := h.service.Hover(agentID(c), req.Stage)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"gesture": g})
}

// Drop releases the dragged lead over a stage. An invalid stage cancels the
// gesture and is reported as a cancelled outcome, not an error.
//
// @Summary Drop on a stage
// @Tags Pipeline
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body DragStageRequest true "Stage"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /pipeline/drag/drop [post]
func (h *Handler) Drop(c *gin.Context) {
	var req DragStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	out, err := h.service.Drop(c.Request.Context(), agentID(c), req.Stage)
	if err != nil && !errors.Is(err, lead.ErrInvalidTarget) {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"outcome": out})
}

// @Summary Cancel the drag
// @Tags Pipeline
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /pipeline/drag/cancel [post]
func (h *Handler) CancelDrag(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"outcome": h.service.CancelDrag(agentID(c))})
}

// @Summary Current selection
// @Tags Pipeline
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /pipeline/selection [get]
func (h *Handler) GetSelection(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"selection": h.service.Selected(agentID(c))})
}

// @Summary Select leads
// @Tags Pipeline
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SelectionRequest true "Lead ids"
// @Success 200 {object} map[string]interface{}
// @Router /pipeline/selection [post]
func (h *Handler) Select(c *gin.Context) {
	var req SelectionRequest
	if !bindJSON(c, &req) {
		return
	}
	response.Success(c, http.StatusOK, gin.H{"selection": h.service.Select(agentID(c), req.IDs...)})
}

// Deselect removes ids from the selection; without a body it clears it
//
// @Summary Deselect leads
// @Tags Pipeline
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SelectionRequest false "Lead ids"
// @Success 200 {object} map[string]interface{}
// @Router /pipeline/selection [delete]
func (h *Handler) Deselect(c *gin.Context) {
	agent := agentID(c)
	if c.Request.ContentLength == 0 {
		h.service.ClearSelection(agent)
		response.Success(c, http.StatusOK, gin.H{"selection": []string{}})
		return
	}

	var req SelectionRequest
	if !bindJSON(c, &req) {
		return
	}
	response.Success(c, http.StatusOK, gin.H{"selection": h.service.Deselect(agent, req.IDs...)})
}

// Bulk applies an action to every selected lead
//
// @Summary Bulk action
// @Description email|sms|export hand ids to the notifier, move needs target, delete removes, deselect clears
// @Tags Pipeline
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BulkRequest true "Action"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /pipeline/bulk [post]
func (h *Handler) Bulk(c *gin.Context) {
	var req BulkRequest
	if !bindJSON(c, &req) {
		return
	}

	agent := agentID(c)
	res, err := h.service.Bulk(c.Request.Context(), agent, req.Action, req.Target)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, BulkResponse{
		Action:    res.Action,
		IDs:       nonNil(res.IDs),
		Moved:     len(res.Mutations),
		Deleted:   nonNil(res.DeletedIDs()),
		Selection: h.service.Selected(agent),
	})
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
