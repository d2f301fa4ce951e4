package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/SscSPs/rosca_app/internal/apperrors"
	portssvc "github.com/SscSPs/rosca_app/internal/core/ports/services"
	"github.com/SscSPs/rosca_app/internal/dto"
	"github.com/SscSPs/rosca_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// adminHandler handles operator requests: lifecycle, membership and payouts.
type adminHandler struct {
	groupService portssvc.GroupSvcFacade
	auditService portssvc.AuditSvc
}

func newAdminHandler(gs portssvc.GroupSvcFacade, as portssvc.AuditSvc) *adminHandler {
	return &adminHandler{
		groupService: gs,
		auditService: as,
	}
}

// registerAdminRoutes registers the admin-only routes under /admin/groups/:groupID.
func registerAdminRoutes(rg *gin.RouterGroup, groupService portssvc.GroupSvcFacade, auditService portssvc.AuditSvc) {
	h := newAdminHandler(groupService, auditService)

	admin := rg.Group("/admin/groups/:groupID", middleware.RequireAdmin())
	{
		admin.POST("/activate", h.activateGroup)
		admin.POST("/freeze", h.freezeGroup)
		admin.POST("/unfreeze", h.unfreezeGroup)
		admin.POST("/members/:userID/remove", h.removeMember)
		admin.POST("/members/:userID/reinstate", h.reinstateMember)
		admin.POST("/payouts", h.triggerPayout)
		admin.GET("/audit", h.listAudit)
	}
}

// activateGroup godoc
// @Summary Activate a group
// @Description Fixes the payout order and starts the first round.
// @Tags admin
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Success 200 {object} dto.GroupResponse
// @Failure 403 {object} handlers.ErrorResponse "Admin role required"
// @Failure 409 {object} handlers.ErrorResponse "Invalid transition"
// @Failure 422 {object} handlers.ErrorResponse "Insufficient members"
// @Security BearerAuth
// @Router /admin/groups/{groupID}/activate [post]
func (h *adminHandler) activateGroup(c *gin.Context) {
	actorID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	g, err := h.groupService.ActivateGroup(c.Request.Context(), c.Param("groupID"), actorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToGroupResponse(g, h.groupService.ResolveMembers(c.Request.Context(), g)))
}

// freezeGroup godoc
// @Summary Freeze a group
// @Description Pauses an active group. Contributions are rejected until it is unfrozen.
// @Tags admin
// @Accept  json
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Param   freeze body dto.FreezeGroupRequest true "Freeze reason"
// @Success 200 {object} dto.GroupResponse
// @Failure 409 {object} handlers.ErrorResponse "Invalid transition"
// @Security BearerAuth
// @Router /admin/groups/{groupID}/freeze [post]
func (h *adminHandler) freezeGroup(c *gin.Context) {
	var req dto.FreezeGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	actorID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	g, err := h.groupService.FreezeGroup(c.Request.Context(), c.Param("groupID"), req.Reason, actorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToGroupResponse(g, h.groupService.ResolveMembers(c.Request.Context(), g)))
}

// unfreezeGroup godoc
// @Summary Unfreeze a group
// @Description Releases a frozen group back to active, or closes it as completed.
// @Tags admin
// @Accept  json
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Param   unfreeze body dto.UnfreezeGroupRequest false "Target status"
// @Success 200 {object} dto.GroupResponse
// @Failure 409 {object} handlers.ErrorResponse "Invalid transition"
// @Security BearerAuth
// @Router /admin/groups/{groupID}/unfreeze [post]
func (h *adminHandler) unfreezeGroup(c *gin.Context) {
	var req dto.UnfreezeGroupRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}
	actorID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	g, err := h.groupService.UnfreezeGroup(c.Request.Context(), c.Param("groupID"), req, actorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToGroupResponse(g, h.groupService.ResolveMembers(c.Request.Context(), g)))
}

// removeMember godoc
// @Summary Remove a member
// @Description Marks a member removed. Payout positions and round recipients are left unchanged.
// @Tags admin
// @Accept  json
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Param   userID path string true "User ID"
// @Param   removal body dto.RemoveMemberRequest true "Removal reason"
// @Success 200 {object} dto.GroupResponse
// @Failure 404 {object} handlers.ErrorResponse "Not a member"
// @Failure 409 {object} handlers.ErrorResponse "Already removed"
// @Security BearerAuth
// @Router /admin/groups/{groupID}/members/{userID}/remove [post]
func (h *adminHandler) removeMember(c *gin.Context) {
	var req dto.RemoveMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	actorID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	g, err := h.groupService.RemoveMember(c.Request.Context(), c.Param("groupID"), c.Param("userID"), req.Reason, actorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToGroupResponse(g, h.groupService.ResolveMembers(c.Request.Context(), g)))
}

// reinstateMember godoc
// @Summary Reinstate a member
// @Description Reverses a removal.
// @Tags admin
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Param   userID path string true "User ID"
// @Success 200 {object} dto.GroupResponse
// @Failure 409 {object} handlers.ErrorResponse "Member is not removed"
// @Security BearerAuth
// @Router /admin/groups/{groupID}/members/{userID}/reinstate [post]
func (h *adminHandler) reinstateMember(c *gin.Context) {
	actorID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	g, err := h.groupService.ReinstateMember(c.Request.Context(), c.Param("groupID"), c.Param("userID"), actorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToGroupResponse(g, h.groupService.ResolveMembers(c.Request.Context(), g)))
}

// triggerPayout godoc
// @Summary Trigger a payout
// @Description Releases a round's escrow to its recipient. force pays an underfunded round.
// @Tags admin
// @Accept  json
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Param   payout body dto.TriggerPayoutRequest false "Round and force flag"
// @Success 200 {object} dto.PayoutResultResponse
// @Failure 409 {object} handlers.ErrorResponse "Round not funded or group not active"
// @Failure 502 {object} handlers.ErrorResponse "Ledger release failed, retry later"
// @Security BearerAuth
// @Router /admin/groups/{groupID}/payouts [post]
func (h *adminHandler) triggerPayout(c *gin.Context) {
	var req dto.TriggerPayoutRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}
	actorID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	logger.Info("Received payout request", slog.String("group_id", c.Param("groupID")),
		slog.Int("round_number", req.RoundNumber), slog.Bool("force", req.Force))

	res, err := h.groupService.TriggerPayout(c.Request.Context(), c.Param("groupID"), req.RoundNumber, req.Force, actorID)
	if err != nil {
		respondError(c, err)
		return
	}

	profiles := h.groupService.ResolveMembers(c.Request.Context(), res.Group)
	c.JSON(http.StatusOK, dto.PayoutResultResponse{
		Round:            dto.ToRoundResponse(*res.Group.Round(res.RoundNumber), res.Group.CurrencyCode, profiles),
		Group:            dto.ToGroupResponse(res.Group, profiles),
		AlreadyCompleted: res.AlreadyCompleted,
	})
}

// listAudit godoc
// @Summary List a group's audit trail
// @Description Returns recorded mutations of a group, newest first.
// @Tags admin
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Param   limit query int false "Maximum entries (default 50, max 500)"
// @Success 200 {array} domain.AuditEntry
// @Failure 404 {object} handlers.ErrorResponse "Group not found"
// @Security BearerAuth
// @Router /admin/groups/{groupID}/audit [get]
func (h *adminHandler) listAudit(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(c, apperrors.NewValidationFailedError("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	entries, err := h.auditService.ListGroupAudit(c.Request.Context(), c.Param("groupID"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
