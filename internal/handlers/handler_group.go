package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/rosca_app/internal/apperrors"
	"github.com/SscSPs/rosca_app/internal/core/domain"
	portssvc "github.com/SscSPs/rosca_app/internal/core/ports/services"
	"github.com/SscSPs/rosca_app/internal/dto"
	"github.com/SscSPs/rosca_app/internal/middleware"
	"github.com/SscSPs/rosca_app/internal/utils"
	"github.com/gin-gonic/gin"
)

// groupHandler handles member-facing HTTP requests for savings groups.
type groupHandler struct {
	groupService portssvc.GroupSvcFacade
}

func newGroupHandler(gs portssvc.GroupSvcFacade) *groupHandler {
	return &groupHandler{
		groupService: gs,
	}
}

// registerGroupRoutes registers the member routes under /groups.
func registerGroupRoutes(rg *gin.RouterGroup, groupService portssvc.GroupSvcFacade) {
	h := newGroupHandler(groupService)

	groups := rg.Group("/groups")
	{
		groups.POST("", h.createGroup)
		groups.GET("", h.listGroups)
		groups.POST("/join", h.joinGroup)
	}

	group := rg.Group("/groups/:groupID")
	{
		group.GET("", h.getGroup)
		group.POST("/leave", h.leaveGroup)
		group.POST("/contributions", h.contribute)
		group.GET("/rounds/:roundNumber", h.getRound)
	}
}

// createGroup godoc
// @Summary Create a savings group
// @Description Creates an open group. The caller joins as its first member.
// @Tags groups
// @Accept  json
// @Produce  json
// @Param   group body dto.CreateGroupRequest true "Group details"
// @Success 201 {object} dto.GroupResponse
// @Failure 400 {object} handlers.ErrorResponse "Invalid input"
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure 500 {object} handlers.ErrorResponse "Failed to create group"
// @Security BearerAuth
// @Router /groups [post]
func (h *groupHandler) createGroup(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	creatorID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	logger.Info("Received request to create group", slog.String("group_name", req.Name))
	g, err := h.groupService.CreateGroup(c.Request.Context(), req, creatorID)
	if err != nil {
		respondError(c, err)
		return
	}

	profiles := h.groupService.ResolveMembers(c.Request.Context(), g)
	c.JSON(http.StatusCreated, dto.ToGroupResponse(g, profiles))
}

// listGroups godoc
// @Summary List savings groups
// @Description Lists the caller's groups. Admins list every group and may filter by member.
// @Tags groups
// @Produce  json
// @Param   limit query int false "Page size (max 100)"
// @Param   nextToken query string false "Token from the previous page"
// @Param   status query string false "Filter by status" Enums(open, filled, active, frozen, completed)
// @Param   memberId query string false "Filter by member (admins only)"
// @Success 200 {object} dto.ListGroupsResponse
// @Failure 400 {object} handlers.ErrorResponse "Invalid query"
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Security BearerAuth
// @Router /groups [get]
func (h *groupHandler) listGroups(c *gin.Context) {
	var params dto.ListGroupsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	var (
		groups    []domain.Group
		nextToken *string
		err       error
	)
	if middleware.GetUserRoleFromContext(c) == utils.RoleAdmin {
		groups, nextToken, err = h.groupService.ListGroups(c.Request.Context(), params)
	} else {
		groups, nextToken, err = h.groupService.ListUserGroups(c.Request.Context(), userID, params)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	refs := make([]*domain.Group, len(groups))
	for i := range groups {
		refs[i] = &groups[i]
	}
	profiles := h.groupService.ResolveMembers(c.Request.Context(), refs...)
	c.JSON(http.StatusOK, dto.ToListGroupsResponse(groups, nextToken, profiles))
}

// getGroup godoc
// @Summary Get a savings group
// @Description Returns a group with its members and rounds. Members only see groups they belong to.
// @Tags groups
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Success 200 {object} dto.GroupResponse
// @Failure 403 {object} handlers.ErrorResponse "Not a member"
// @Failure 404 {object} handlers.ErrorResponse "Group not found"
// @Security BearerAuth
// @Router /groups/{groupID} [get]
func (h *groupHandler) getGroup(c *gin.Context) {
	g, err := h.groupService.GetGroup(c.Request.Context(), c.Param("groupID"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !canView(c, g) {
		respondError(c, apperrors.Wrap(apperrors.KindForbidden, "caller is not a member of this group", apperrors.ErrForbidden))
		return
	}

	profiles := h.groupService.ResolveMembers(c.Request.Context(), g)
	c.JSON(http.StatusOK, dto.ToGroupResponse(g, profiles))
}

// joinGroup godoc
// @Summary Join a savings group
// @Description Joins the open group identified by its join code.
// @Tags groups
// @Accept  json
// @Produce  json
// @Param   join body dto.JoinGroupRequest true "Join code"
// @Success 200 {object} dto.GroupResponse
// @Failure 404 {object} handlers.ErrorResponse "Unknown join code"
// @Failure 409 {object} handlers.ErrorResponse "Group full, not open, or already a member"
// @Security BearerAuth
// @Router /groups/join [post]
func (h *groupHandler) joinGroup(c *gin.Context) {
	var req dto.JoinGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	g, err := h.groupService.JoinGroup(c.Request.Context(), req.JoinCode, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	profiles := h.groupService.ResolveMembers(c.Request.Context(), g)
	c.JSON(http.StatusOK, dto.ToGroupResponse(g, profiles))
}

// leaveGroup godoc
// @Summary Leave a savings group
// @Description Leaves a group before its rotation starts.
// @Tags groups
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Success 200 {object} dto.GroupResponse
// @Failure 404 {object} handlers.ErrorResponse "Group not found or not a member"
// @Failure 409 {object} handlers.ErrorResponse "Rotation already started"
// @Security BearerAuth
// @Router /groups/{groupID}/leave [post]
func (h *groupHandler) leaveGroup(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	g, err := h.groupService.LeaveGroup(c.Request.Context(), c.Param("groupID"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	profiles := h.groupService.ResolveMembers(c.Request.Context(), g)
	c.JSON(http.StatusOK, dto.ToGroupResponse(g, profiles))
}

// contribute godoc
// @Summary Contribute to a round
// @Description Records the caller's contribution. Funding the round triggers its payout.
// @Tags contributions
// @Accept  json
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Param   contribution body dto.ContributeRequest true "Contribution"
// @Success 201 {object} dto.ContributionResultResponse
// @Failure 400 {object} handlers.ErrorResponse "Amount mismatch or invalid input"
// @Failure 409 {object} handlers.ErrorResponse "Round closed, duplicate contribution, or group frozen"
// @Security BearerAuth
// @Router /groups/{groupID}/contributions [post]
func (h *groupHandler) contribute(c *gin.Context) {
	var req dto.ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	res, err := h.groupService.Contribute(c.Request.Context(), c.Param("groupID"), req.RoundNumber, userID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	profiles := h.groupService.ResolveMembers(c.Request.Context(), res.Group)
	round := res.Group.Round(res.RoundNumber)
	c.JSON(http.StatusCreated, dto.ContributionResultResponse{
		Round:           dto.ToRoundResponse(*round, res.Group.CurrencyCode, profiles),
		Group:           dto.ToGroupResponse(res.Group, profiles),
		PayoutTriggered: res.PayoutTriggered,
	})
}

// getRound godoc
// @Summary Get a round
// @Description Returns one round of a group with its contributions.
// @Tags groups
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Param   roundNumber path int true "Round number"
// @Success 200 {object} dto.RoundResponse
// @Failure 403 {object} handlers.ErrorResponse "Not a member"
// @Failure 404 {object} handlers.ErrorResponse "Group or round not found"
// @Security BearerAuth
// @Router /groups/{groupID}/rounds/{roundNumber} [get]
func (h *groupHandler) getRound(c *gin.Context) {
	roundNumber, ok := roundNumberParam(c)
	if !ok {
		return
	}

	r, g, err := h.groupService.GetRound(c.Request.Context(), c.Param("groupID"), roundNumber)
	if err != nil {
		respondError(c, err)
		return
	}
	if !canView(c, g) {
		respondError(c, apperrors.Wrap(apperrors.KindForbidden, "caller is not a member of this group", apperrors.ErrForbidden))
		return
	}

	profiles := h.groupService.ResolveMembers(c.Request.Context(), g)
	c.JSON(http.StatusOK, dto.ToRoundResponse(*r, g.CurrencyCode, profiles))
}

// canView reports whether the caller may read g: admins and anyone who ever held a seat.
func canView(c *gin.Context, g *domain.Group) bool {
	if middleware.GetUserRoleFromContext(c) == utils.RoleAdmin {
		return true
	}
	userID, ok := middleware.GetUserIDFromContext(c)
	return ok && g.Member(userID) != nil
}
