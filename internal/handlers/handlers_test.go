package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/rosca_app/internal/apperrors"
	"github.com/SscSPs/rosca_app/internal/core/domain"
	portssvc "github.com/SscSPs/rosca_app/internal/core/ports/services"
	"github.com/SscSPs/rosca_app/internal/dto"
	"github.com/SscSPs/rosca_app/internal/handlers"
	"github.com/SscSPs/rosca_app/internal/platform/config"
	"github.com/SscSPs/rosca_app/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// --- Mock GroupService ---
type MockGroupService struct {
	mock.Mock
}

func (m *MockGroupService) groupResult(args mock.Arguments) (*domain.Group, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Group), args.Error(1)
}

func (m *MockGroupService) GetGroup(ctx context.Context, groupID string) (*domain.Group, error) {
	return m.groupResult(m.Called(ctx, groupID))
}
func (m *MockGroupService) GetGroupByJoinCode(ctx context.Context, joinCode string) (*domain.Group, error) {
	return m.groupResult(m.Called(ctx, joinCode))
}
func (m *MockGroupService) ListGroups(ctx context.Context, params dto.ListGroupsParams) ([]domain.Group, *string, error) {
	args := m.Called(ctx, params)
	return args.Get(0).([]domain.Group), args.Get(1).(*string), args.Error(2)
}
func (m *MockGroupService) ListUserGroups(ctx context.Context, userID string, params dto.ListGroupsParams) ([]domain.Group, *string, error) {
	args := m.Called(ctx, userID, params)
	return args.Get(0).([]domain.Group), args.Get(1).(*string), args.Error(2)
}
func (m *MockGroupService) GetRound(ctx context.Context, groupID string, roundNumber int) (*domain.Round, *domain.Group, error) {
	args := m.Called(ctx, groupID, roundNumber)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Round), args.Get(1).(*domain.Group), args.Error(2)
}
func (m *MockGroupService) ResolveMembers(ctx context.Context, groups ...*domain.Group) map[string]domain.User {
	args := m.Called(ctx, groups)
	return args.Get(0).(map[string]domain.User)
}
func (m *MockGroupService) CreateGroup(ctx context.Context, req dto.CreateGroupRequest, creatorID string) (*domain.Group, error) {
	return m.groupResult(m.Called(ctx, req, creatorID))
}
func (m *MockGroupService) JoinGroup(ctx context.Context, joinCode string, userID string) (*domain.Group, error) {
	return m.groupResult(m.Called(ctx, joinCode, userID))
}
func (m *MockGroupService) LeaveGroup(ctx context.Context, groupID string, userID string) (*domain.Group, error) {
	return m.groupResult(m.Called(ctx, groupID, userID))
}
func (m *MockGroupService) ActivateGroup(ctx context.Context, groupID string, actorID string) (*domain.Group, error) {
	return m.groupResult(m.Called(ctx, groupID, actorID))
}
func (m *MockGroupService) FreezeGroup(ctx context.Context, groupID string, reason string, actorID string) (*domain.Group, error) {
	return m.groupResult(m.Called(ctx, groupID, reason, actorID))
}
func (m *MockGroupService) UnfreezeGroup(ctx context.Context, groupID string, req dto.UnfreezeGroupRequest, actorID string) (*domain.Group, error) {
	return m.groupResult(m.Called(ctx, groupID, req, actorID))
}
func (m *MockGroupService) RemoveMember(ctx context.Context, groupID, userID, reason, actorID string) (*domain.Group, error) {
	return m.groupResult(m.Called(ctx, groupID, userID, reason, actorID))
}
func (m *MockGroupService) ReinstateMember(ctx context.Context, groupID, userID, actorID string) (*domain.Group, error) {
	return m.groupResult(m.Called(ctx, groupID, userID, actorID))
}
func (m *MockGroupService) Contribute(ctx context.Context, groupID string, roundNumber int, userID string, amount int64) (*portssvc.ContributionResult, error) {
	args := m.Called(ctx, groupID, roundNumber, userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portssvc.ContributionResult), args.Error(1)
}
func (m *MockGroupService) TriggerPayout(ctx context.Context, groupID string, roundNumber int, force bool, actorID string) (*portssvc.PayoutResult, error) {
	args := m.Called(ctx, groupID, roundNumber, force, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portssvc.PayoutResult), args.Error(1)
}
func (m *MockGroupService) FlagOverdueRound(ctx context.Context, groupID string) (bool, error) {
	args := m.Called(ctx, groupID)
	return args.Bool(0), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.GroupSvcFacade = (*MockGroupService)(nil)

// --- Mock AuditService ---
type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) ListGroupAudit(ctx context.Context, groupID string, limit int) ([]domain.AuditEntry, error) {
	args := m.Called(ctx, groupID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuditEntry), args.Error(1)
}

var _ portssvc.AuditSvc = (*MockAuditService)(nil)

// --- Test Suite ---
type HandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	groupService *MockGroupService
	auditService *MockAuditService
	cfg          *config.Config
	memberToken  string
	adminToken   string
}

const (
	testMemberID = "user-alice"
	testAdminID  = "user-ops"
	testGroupID  = "group-1"
)

func (suite *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.groupService = new(MockGroupService)
	suite.auditService = new(MockAuditService)
	suite.cfg = &config.Config{JWTSecret: "test-secret", JWTIssuer: "rosca-test", IsProduction: true}

	var err error
	suite.memberToken, err = utils.GenerateJWT(testMemberID, utils.RoleMember, suite.cfg.JWTSecret, time.Hour, suite.cfg.JWTIssuer)
	suite.Require().NoError(err)
	suite.adminToken, err = utils.GenerateJWT(testAdminID, utils.RoleAdmin, suite.cfg.JWTSecret, time.Hour, suite.cfg.JWTIssuer)
	suite.Require().NoError(err)

	suite.router = gin.New()
	err = handlers.RegisterRoutes(suite.router, suite.cfg, &portssvc.ServiceContainer{
		Group: suite.groupService,
		Audit: suite.auditService,
	}, nil, nil)
	suite.Require().NoError(err)

	suite.groupService.On("ResolveMembers", mock.Anything, mock.Anything).Return(map[string]domain.User{
		testMemberID: {UserID: testMemberID, Name: "Alice", Email: "alice@example.com"},
	}).Maybe()
}

func (suite *HandlerTestSuite) TearDownTest() {
	suite.groupService.AssertExpectations(suite.T())
	suite.auditService.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlerTestSuite) errorCode(w *httptest.ResponseRecorder) string {
	var res handlers.ErrorResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
	return res.Code
}

func testGroup(status domain.GroupStatus) *domain.Group {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	g := domain.NewGroup(domain.NewGroupParams{
		GroupID:            testGroupID,
		Name:               "Family circle",
		CurrencyCode:       "USD",
		ContributionAmount: 10000,
		Frequency:          domain.Monthly,
		MaxMembers:         3,
		MinMembers:         2,
		PayoutOrderRule:    domain.PayoutAsJoined,
		JoinCode:           "ABCD2345",
		CreatedBy:          testMemberID,
	}, now)
	g.Members = []domain.Member{{UserID: testMemberID, PayoutPosition: 1, Status: domain.MemberActive, JoinedAt: now}}
	g.CurrentMembers = 1
	g.Status = status
	g.Version = 1
	return g
}

func (suite *HandlerTestSuite) TestCreateGroup_Success() {
	req := dto.CreateGroupRequest{
		Name:               "Family circle",
		ContributionAmount: 10000,
		Frequency:          domain.Monthly,
		MaxMembers:         3,
	}
	suite.groupService.On("CreateGroup", mock.Anything, req, testMemberID).Return(testGroup(domain.GroupOpen), nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/groups", suite.memberToken, req)

	suite.Equal(http.StatusCreated, w.Code)
	var res dto.GroupResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
	suite.Equal(testGroupID, res.GroupID)
	suite.Equal("100.00", res.ContributionAmountDisplay)
	suite.Require().Len(res.Members, 1)
	suite.Equal("Alice", res.Members[0].Name)
}

func (suite *HandlerTestSuite) TestCreateGroup_ValidationFailure() {
	cases := map[string]map[string]any{
		"missing name":      {"contributionAmount": 100, "frequency": "weekly", "maxMembers": 3},
		"unknown frequency": {"name": "x", "contributionAmount": 100, "frequency": "yearly", "maxMembers": 3},
		"unknown rule":      {"name": "x", "contributionAmount": 100, "frequency": "weekly", "maxMembers": 3, "payoutOrderRule": "lottery"},
		"min above max":     {"name": "x", "contributionAmount": 100, "frequency": "weekly", "maxMembers": 3, "minMembers": 4},
		"zero amount":       {"name": "x", "contributionAmount": 0, "frequency": "weekly", "maxMembers": 3},
	}
	for name, body := range cases {
		suite.Run(name, func() {
			w := suite.do(http.MethodPost, "/api/v1/groups", suite.memberToken, body)
			suite.Equal(http.StatusBadRequest, w.Code)
			suite.Equal(string(apperrors.KindValidation), suite.errorCode(w))
		})
	}
	suite.groupService.AssertNotCalled(suite.T(), "CreateGroup", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestRequiresBearerToken() {
	w := suite.do(http.MethodGet, "/api/v1/groups", "", nil)
	suite.Equal(http.StatusUnauthorized, w.Code)

	forged, err := utils.GenerateJWT(testMemberID, utils.RoleAdmin, "other-secret", time.Hour, suite.cfg.JWTIssuer)
	suite.Require().NoError(err)
	w = suite.do(http.MethodGet, "/api/v1/groups", forged, nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *HandlerTestSuite) TestListGroups_MemberSeesOwnGroups() {
	next := "token-2"
	suite.groupService.On("ListUserGroups", mock.Anything, testMemberID, mock.MatchedBy(func(p dto.ListGroupsParams) bool {
		return p.Limit == 5 && p.Status == "active"
	})).Return([]domain.Group{*testGroup(domain.GroupActive)}, &next, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/groups?limit=5&status=active", suite.memberToken, nil)

	suite.Equal(http.StatusOK, w.Code)
	var res dto.ListGroupsResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
	suite.Len(res.Groups, 1)
	suite.Require().NotNil(res.NextToken)
	suite.Equal(next, *res.NextToken)
}

func (suite *HandlerTestSuite) TestListGroups_AdminListsAll() {
	suite.groupService.On("ListGroups", mock.Anything, mock.MatchedBy(func(p dto.ListGroupsParams) bool {
		return p.MemberID == "user-bob" && p.Limit == 20
	})).Return([]domain.Group{}, (*string)(nil), nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/groups?memberId=user-bob", suite.adminToken, nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"groups":[]}`, w.Body.String())
}

func (suite *HandlerTestSuite) TestListGroups_InvalidStatus() {
	w := suite.do(http.MethodGet, "/api/v1/groups?status=paused", suite.memberToken, nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestGetGroup_NonMemberForbidden() {
	g := testGroup(domain.GroupActive)
	g.Members[0].UserID = "user-bob"
	suite.groupService.On("GetGroup", mock.Anything, testGroupID).Return(g, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/groups/"+testGroupID, suite.memberToken, nil)

	suite.Equal(http.StatusForbidden, w.Code)
	suite.Equal(string(apperrors.KindForbidden), suite.errorCode(w))
}

func (suite *HandlerTestSuite) TestGetGroup_NotFound() {
	suite.groupService.On("GetGroup", mock.Anything, "missing").Return(nil, apperrors.NewNotFoundError("group missing not found")).Once()

	w := suite.do(http.MethodGet, "/api/v1/groups/missing", suite.adminToken, nil)

	suite.Equal(http.StatusNotFound, w.Code)
	suite.Equal(string(apperrors.KindNotFound), suite.errorCode(w))
}

func (suite *HandlerTestSuite) TestJoinGroup_ErrorKinds() {
	cases := []struct {
		err    error
		status int
	}{
		{apperrors.ErrGroupFull, http.StatusConflict},
		{apperrors.ErrAlreadyMember, http.StatusConflict},
		{apperrors.ErrGroupNotOpen, http.StatusConflict},
	}
	for _, tc := range cases {
		suite.Run(string(apperrors.KindOf(tc.err)), func() {
			suite.groupService.On("JoinGroup", mock.Anything, "CODE", testMemberID).Return(nil, tc.err).Once()
			w := suite.do(http.MethodPost, "/api/v1/groups/join", suite.memberToken, dto.JoinGroupRequest{JoinCode: "CODE"})
			suite.Equal(tc.status, w.Code)
			suite.Equal(string(apperrors.KindOf(tc.err)), suite.errorCode(w))
		})
	}
}

func (suite *HandlerTestSuite) TestContribute_TriggersPayout() {
	g := testGroup(domain.GroupActive)
	g.CurrentRound = 1
	g.Rounds = []domain.Round{{RoundNumber: 1, RecipientID: testMemberID, Status: domain.RoundCompleted, ExpectedTotal: 10000, TotalContributed: 10000}}
	suite.groupService.On("Contribute", mock.Anything, testGroupID, 0, testMemberID, int64(10000)).
		Return(&portssvc.ContributionResult{Group: g, RoundNumber: 1, PayoutTriggered: true}, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/groups/"+testGroupID+"/contributions", suite.memberToken, dto.ContributeRequest{Amount: 10000})

	suite.Equal(http.StatusCreated, w.Code)
	var res dto.ContributionResultResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
	suite.True(res.PayoutTriggered)
	suite.Equal(1, res.Round.RoundNumber)
	suite.Equal("Alice", res.Round.RecipientName)
}

func (suite *HandlerTestSuite) TestContribute_Rejections() {
	cases := []struct {
		err    error
		status int
	}{
		{apperrors.ErrAmountMismatch, http.StatusBadRequest},
		{apperrors.ErrDuplicateContribution, http.StatusConflict},
		{apperrors.ErrGroupFrozen, http.StatusConflict},
		{apperrors.ErrRoundClosed, http.StatusConflict},
		{apperrors.ErrGroupBusy, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		suite.Run(string(apperrors.KindOf(tc.err)), func() {
			suite.groupService.On("Contribute", mock.Anything, testGroupID, 2, testMemberID, int64(500)).Return(nil, tc.err).Once()
			w := suite.do(http.MethodPost, "/api/v1/groups/"+testGroupID+"/contributions", suite.memberToken,
				dto.ContributeRequest{RoundNumber: 2, Amount: 500})
			suite.Equal(tc.status, w.Code)
			suite.Equal(string(apperrors.KindOf(tc.err)), suite.errorCode(w))
		})
	}
}

func (suite *HandlerTestSuite) TestGetRound() {
	g := testGroup(domain.GroupActive)
	g.Rounds = []domain.Round{{RoundNumber: 1, RecipientID: testMemberID, Status: domain.RoundInProgress, ExpectedTotal: 10000}}
	suite.groupService.On("GetRound", mock.Anything, testGroupID, 1).Return(&g.Rounds[0], g, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/groups/"+testGroupID+"/rounds/1", suite.memberToken, nil)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/groups/"+testGroupID+"/rounds/zero", suite.memberToken, nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestAdminRoutes_RequireAdminRole() {
	w := suite.do(http.MethodPost, "/api/v1/admin/groups/"+testGroupID+"/activate", suite.memberToken, nil)
	suite.Equal(http.StatusForbidden, w.Code)
	suite.groupService.AssertNotCalled(suite.T(), "ActivateGroup", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestActivateGroup_InsufficientMembers() {
	suite.groupService.On("ActivateGroup", mock.Anything, testGroupID, testAdminID).Return(nil, apperrors.ErrInsufficientMembers).Once()

	w := suite.do(http.MethodPost, "/api/v1/admin/groups/"+testGroupID+"/activate", suite.adminToken, nil)

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
	suite.Equal(string(apperrors.KindInsufficientMembers), suite.errorCode(w))
}

func (suite *HandlerTestSuite) TestFreezeAndUnfreeze() {
	suite.groupService.On("FreezeGroup", mock.Anything, testGroupID, "dispute", testAdminID).Return(testGroup(domain.GroupFrozen), nil).Once()
	w := suite.do(http.MethodPost, "/api/v1/admin/groups/"+testGroupID+"/freeze", suite.adminToken, dto.FreezeGroupRequest{Reason: "dispute"})
	suite.Equal(http.StatusOK, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/admin/groups/"+testGroupID+"/freeze", suite.adminToken, map[string]string{})
	suite.Equal(http.StatusBadRequest, w.Code)

	suite.groupService.On("UnfreezeGroup", mock.Anything, testGroupID, dto.UnfreezeGroupRequest{}, testAdminID).Return(testGroup(domain.GroupActive), nil).Once()
	w = suite.do(http.MethodPost, "/api/v1/admin/groups/"+testGroupID+"/unfreeze", suite.adminToken, nil)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/admin/groups/"+testGroupID+"/unfreeze", suite.adminToken, map[string]string{"targetStatus": "open"})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestRemoveAndReinstateMember() {
	suite.groupService.On("RemoveMember", mock.Anything, testGroupID, "user-bob", "fraud", testAdminID).Return(testGroup(domain.GroupActive), nil).Once()
	w := suite.do(http.MethodPost, "/api/v1/admin/groups/"+testGroupID+"/members/user-bob/remove", suite.adminToken, dto.RemoveMemberRequest{Reason: "fraud"})
	suite.Equal(http.StatusOK, w.Code)

	suite.groupService.On("ReinstateMember", mock.Anything, testGroupID, "user-bob", testAdminID).Return(nil, apperrors.ErrNotRemoved).Once()
	w = suite.do(http.MethodPost, "/api/v1/admin/groups/"+testGroupID+"/members/user-bob/reinstate", suite.adminToken, nil)
	suite.Equal(http.StatusConflict, w.Code)
	suite.Equal(string(apperrors.KindNotRemoved), suite.errorCode(w))
}

func (suite *HandlerTestSuite) TestTriggerPayout() {
	g := testGroup(domain.GroupActive)
	g.Rounds = []domain.Round{{RoundNumber: 1, RecipientID: testMemberID, Status: domain.RoundCompleted, ExpectedTotal: 10000, TotalContributed: 10000, PayoutAmount: 10000}}
	suite.groupService.On("TriggerPayout", mock.Anything, testGroupID, 1, true, testAdminID).
		Return(&portssvc.PayoutResult{Group: g, RoundNumber: 1, AlreadyCompleted: true}, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/admin/groups/"+testGroupID+"/payouts", suite.adminToken, dto.TriggerPayoutRequest{RoundNumber: 1, Force: true})

	suite.Equal(http.StatusOK, w.Code)
	var res dto.PayoutResultResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
	suite.True(res.AlreadyCompleted)
	suite.Equal(int64(10000), res.Round.PayoutAmount)
}

func (suite *HandlerTestSuite) TestTriggerPayout_LedgerFailure() {
	cause := apperrors.Wrap(apperrors.KindLedgerReleaseFailed, "ledger release failed", errors.New("bank timeout"))
	suite.groupService.On("TriggerPayout", mock.Anything, testGroupID, 0, false, testAdminID).Return(nil, cause).Once()

	w := suite.do(http.MethodPost, "/api/v1/admin/groups/"+testGroupID+"/payouts", suite.adminToken, nil)

	suite.Equal(http.StatusBadGateway, w.Code)
	suite.Equal(string(apperrors.KindLedgerReleaseFailed), suite.errorCode(w))
}

func (suite *HandlerTestSuite) TestInternalErrorsAreNotLeaked() {
	suite.groupService.On("GetGroup", mock.Anything, testGroupID).Return(nil, errors.New("pq: connection reset")).Once()

	w := suite.do(http.MethodGet, "/api/v1/groups/"+testGroupID, suite.adminToken, nil)

	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.NotContains(w.Body.String(), "connection reset")
}

func (suite *HandlerTestSuite) TestListAudit() {
	entries := []domain.AuditEntry{{AuditID: "a1", Action: domain.AuditGroupCreated, ActorID: testMemberID, ResourceID: testGroupID}}
	suite.auditService.On("ListGroupAudit", mock.Anything, testGroupID, 10).Return(entries, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/admin/groups/"+testGroupID+"/audit?limit=10", suite.adminToken, nil)
	suite.Equal(http.StatusOK, w.Code)
	var res []domain.AuditEntry
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
	suite.Equal(entries[0].Action, res[0].Action)

	w = suite.do(http.MethodGet, "/api/v1/admin/groups/"+testGroupID+"/audit?limit=-1", suite.adminToken, nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestRateLimitPerUser() {
	router := gin.New()
	rate, err := limiter.NewRateFromFormatted("1-M")
	suite.Require().NoError(err)
	err = handlers.RegisterRoutes(router, suite.cfg, &portssvc.ServiceContainer{
		Group: suite.groupService,
		Audit: suite.auditService,
	}, nil, limiter.New(memory.NewStore(), rate))
	suite.Require().NoError(err)
	suite.router = router

	suite.groupService.On("ListUserGroups", mock.Anything, testMemberID, mock.Anything).Return([]domain.Group{}, (*string)(nil), nil).Once()
	suite.groupService.On("ListGroups", mock.Anything, mock.Anything).Return([]domain.Group{}, (*string)(nil), nil).Once()

	suite.Equal(http.StatusOK, suite.do(http.MethodGet, "/api/v1/groups", suite.memberToken, nil).Code)
	suite.Equal(http.StatusTooManyRequests, suite.do(http.MethodGet, "/api/v1/groups", suite.memberToken, nil).Code)
	// A different caller has its own budget.
	suite.Equal(http.StatusOK, suite.do(http.MethodGet, "/api/v1/groups", suite.adminToken, nil).Code)
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}
