package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-stock-tracker/internal/apperror"
	"go-stock-tracker/internal/middleware"
	"go-stock-tracker/internal/model"
	"go-stock-tracker/internal/repository"
	"go-stock-tracker/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type mockStockRequestService struct {
	mock.Mock
}

func (m *mockStockRequestService) Create(ctx context.Context, in service.CreateStockRequestInput) (*model.StockRequest, error) {
	args := m.Called(ctx, in)
	req, _ := args.Get(0).(*model.StockRequest)
	return req, args.Error(1)
}

func (m *mockStockRequestService) Update(ctx context.Context, id uuid.UUID, in service.UpdateStockRequestInput, caller service.Caller) (*model.StockRequest, error) {
	args := m.Called(ctx, id, in, caller)
	req, _ := args.Get(0).(*model.StockRequest)
	return req, args.Error(1)
}

func (m *mockStockRequestService) Delete(ctx context.Context, id uuid.UUID, caller service.Caller) error {
	return m.Called(ctx, id, caller).Error(0)
}

func (m *mockStockRequestService) Approve(ctx context.Context, id uuid.UUID, caller service.Caller) (*model.StockRequest, error) {
	args := m.Called(ctx, id, caller)
	req, _ := args.Get(0).(*model.StockRequest)
	return req, args.Error(1)
}

func (m *mockStockRequestService) Reject(ctx context.Context, id uuid.UUID, caller service.Caller, reason string) (*model.StockRequest, error) {
	args := m.Called(ctx, id, caller, reason)
	req, _ := args.Get(0).(*model.StockRequest)
	return req, args.Error(1)
}

func (m *mockStockRequestService) List(ctx context.Context, filter repository.StockRequestFilter) ([]model.StockRequest, error) {
	args := m.Called(ctx, filter)
	reqs, _ := args.Get(0).([]model.StockRequest)
	return reqs, args.Error(1)
}

func (m *mockStockRequestService) GetByID(ctx context.Context, id uuid.UUID) (*model.StockRequest, error) {
	args := m.Called(ctx, id)
	req, _ := args.Get(0).(*model.StockRequest)
	return req, args.Error(1)
}

type testIdentity struct {
	id         uuid.UUID
	admin      bool
	privileges []string
}

func fakeAuth(who *testIdentity) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalUserID, who.id)
		c.Locals(middleware.LocalUserName, "Test User")
		c.Locals(middleware.LocalIsAdmin, who.admin)
		c.Locals(middleware.LocalIsPrimaryAdmin, false)
		c.Locals(middleware.LocalPrivileges, who.privileges)
		return c.Next()
	}
}

func newStockRequestApp(t *testing.T, svc service.StockRequestService, who *testIdentity) *fiber.App {
	h := NewStockRequestHandler(svc, zaptest.NewLogger(t))
	app := fiber.New()
	api := app.Group("/api/v1/stock-requests", fakeAuth(who))
	api.Get("", h.GetStockRequests)
	api.Post("", h.CreateStockRequest)
	api.Get("/:id", h.GetStockRequest)
	api.Put("/:id", h.UpdateStockRequest)
	api.Delete("/:id", h.DeleteStockRequest)
	api.Put("/:id/approve", h.ApproveStockRequest)
	api.Put("/:id/reject", h.RejectStockRequest)
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func sampleRequest(requester uuid.UUID) *model.StockRequest {
	req := &model.StockRequest{
		ProductID:     uuid.New(),
		RequestedByID: requester,
		Quantity:      5,
		Priority:      model.PriorityNormal,
		Status:        model.StatusPending,
	}
	req.ID = uuid.New()
	return req
}

var adminIdentity = &testIdentity{id: uuid.New(), admin: true, privileges: []string{model.PrivStockRequestView, model.PrivStockRequestApprove}}

func TestApproveMapsErrorsToStatus(t *testing.T) {
	id := uuid.New()
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", apperror.NotFound("stock request not found"), http.StatusNotFound, "NOT_FOUND"},
		{"already processed", apperror.InvalidState("request already processed"), http.StatusConflict, "INVALID_STATE"},
		{"self approval", apperror.Forbidden("cannot approve your own stock request"), http.StatusForbidden, "FORBIDDEN"},
		{"concurrent change", apperror.Conflict("retry"), http.StatusConflict, "CONFLICT"},
		{"storage failure", apperror.Internal("failed to approve stock request", errors.New("conn reset")), http.StatusInternalServerError, "INTERNAL"},
		{"foreign error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockStockRequestService{}
			svc.On("Approve", mock.Anything, id, mock.Anything).Return(nil, tc.err)

			status, body := do(t, newStockRequestApp(t, svc, adminIdentity), http.MethodPut, "/api/v1/stock-requests/"+id.String()+"/approve", "")
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, body["code"])
			if tc.status == http.StatusInternalServerError {
				assert.Equal(t, "Internal Server Error", body["error"], "internal details must not leak")
			}
		})
	}
}

func TestApproveInsufficientStockBody(t *testing.T) {
	id := uuid.New()
	svc := &mockStockRequestService{}
	svc.On("Approve", mock.Anything, id, mock.Anything).Return(nil, apperror.InsufficientStock(10, 20))

	status, body := do(t, newStockRequestApp(t, svc, adminIdentity), http.MethodPut, "/api/v1/stock-requests/"+id.String()+"/approve", "")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", body["code"])
	assert.Equal(t, float64(10), body["available"])
	assert.Equal(t, float64(20), body["requested"])
}

func TestApprovePassesCaller(t *testing.T) {
	svc := &mockStockRequestService{}
	req := sampleRequest(uuid.New())
	approved := *req
	approved.Status = model.StatusApproved
	svc.On("Approve", mock.Anything, req.ID, service.Caller{ID: adminIdentity.id, Name: "Test User", IsAdmin: true}).Return(&approved, nil)

	status, body := do(t, newStockRequestApp(t, svc, adminIdentity), http.MethodPut, "/api/v1/stock-requests/"+req.ID.String()+"/approve", "")
	assert.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "approved", data["status"])
	svc.AssertExpectations(t)
}

func TestRejectForwardsReason(t *testing.T) {
	svc := &mockStockRequestService{}
	req := sampleRequest(uuid.New())
	svc.On("Reject", mock.Anything, req.ID, mock.Anything, "out of season").Return(req, nil)

	status, _ := do(t, newStockRequestApp(t, svc, adminIdentity), http.MethodPut,
		"/api/v1/stock-requests/"+req.ID.String()+"/reject", `{"reason":"out of season"}`)
	assert.Equal(t, http.StatusOK, status)
	svc.AssertExpectations(t)
}

func TestCreateUsesAuthenticatedRequester(t *testing.T) {
	employee := &testIdentity{id: uuid.New(), privileges: []string{model.PrivStockRequestCreate}}
	productID := uuid.New()
	svc := &mockStockRequestService{}
	svc.On("Create", mock.Anything, mock.MatchedBy(func(in service.CreateStockRequestInput) bool {
		return in.RequestedByID == employee.id && in.ProductID == productID && in.Quantity == 3 && in.Priority == "high"
	})).Return(sampleRequest(employee.id), nil)

	body := `{"product_id":"` + productID.String() + `","quantity":3,"priority":"high","requested_by_id":"` + uuid.NewString() + `"}`
	status, _ := do(t, newStockRequestApp(t, svc, employee), http.MethodPost, "/api/v1/stock-requests", body)
	assert.Equal(t, http.StatusCreated, status)
	svc.AssertExpectations(t)
}

func TestCreateRejectsMalformedBody(t *testing.T) {
	svc := &mockStockRequestService{}
	status, body := do(t, newStockRequestApp(t, svc, adminIdentity), http.MethodPost, "/api/v1/stock-requests", `{"quantity":`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_ARGUMENT", body["code"])
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestInvalidIDIsBadRequest(t *testing.T) {
	svc := &mockStockRequestService{}
	app := newStockRequestApp(t, svc, adminIdentity)

	for _, path := range []string{"/api/v1/stock-requests/nope", "/api/v1/stock-requests/nope/approve"} {
		method := http.MethodGet
		if strings.HasSuffix(path, "approve") {
			method = http.MethodPut
		}
		status, _ := do(t, app, method, path, "")
		assert.Equal(t, http.StatusBadRequest, status, path)
	}
}

func TestListScopesNonReviewersToOwnRequests(t *testing.T) {
	employee := &testIdentity{id: uuid.New(), privileges: []string{model.PrivStockRequestView}}
	svc := &mockStockRequestService{}
	svc.On("List", mock.Anything, mock.MatchedBy(func(f repository.StockRequestFilter) bool {
		return f.RequestedByID != nil && *f.RequestedByID == employee.id && f.Status != nil && *f.Status == model.StatusPending
	})).Return([]model.StockRequest{*sampleRequest(employee.id)}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stock-requests?status=pending", nil)
	resp, err := newStockRequestApp(t, svc, employee).Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var items []model.StockRequestResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
	assert.Len(t, items, 1)
	svc.AssertExpectations(t)
}

func TestListForReviewers(t *testing.T) {
	svc := &mockStockRequestService{}
	svc.On("List", mock.Anything, repository.StockRequestFilter{}).Return([]model.StockRequest{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stock-requests", nil)
	resp, err := newStockRequestApp(t, svc, adminIdentity).Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	svc.AssertExpectations(t)

	status, _ := do(t, newStockRequestApp(t, svc, adminIdentity), http.MethodGet, "/api/v1/stock-requests?status=done", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestDeleteMapsInvalidState(t *testing.T) {
	id := uuid.New()
	svc := &mockStockRequestService{}
	svc.On("Delete", mock.Anything, id, mock.Anything).Return(apperror.InvalidState("only pending requests can be deleted"))

	status, body := do(t, newStockRequestApp(t, svc, adminIdentity), http.MethodDelete, "/api/v1/stock-requests/"+id.String(), "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "only pending requests can be deleted", body["error"])
}
