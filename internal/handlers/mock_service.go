package handlers

import (
	"context"
	"net/http"
	"sync"

	"heatzy_bridge/internal/models"
	"heatzy_bridge/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockSwitches struct {
	mu       sync.Mutex
	list     []service.SwitchView
	getErr   error
	setErr   error
	setCalls int
	lastID   string
	lastOn   bool
}

func (m *mockSwitches) List(ctx context.Context) []service.SwitchView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]service.SwitchView(nil), m.list...)
}

func (m *mockSwitches) Get(ctx context.Context, id string) (service.SwitchView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastID = id
	if m.getErr != nil {
		return service.SwitchView{}, m.getErr
	}
	for _, sv := range m.list {
		if sv.ID == id {
			return sv, nil
		}
	}
	return service.SwitchView{}, service.ErrSwitchNotFound
}

func (m *mockSwitches) Set(ctx context.Context, id string, on bool) (service.SwitchView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	m.lastID = id
	m.lastOn = on
	if m.setErr != nil {
		return service.SwitchView{}, m.setErr
	}
	for i, sv := range m.list {
		if sv.ID == id {
			m.list[i].On = on
			return m.list[i], nil
		}
	}
	return service.SwitchView{}, service.ErrSwitchNotFound
}

type mockDevices struct {
	list      []service.DeviceView
	syncRes   service.SyncResult
	syncErr   error
	syncCalls int
}

func (m *mockDevices) List(ctx context.Context) []service.DeviceView { return m.list }

func (m *mockDevices) Sync(ctx context.Context) (service.SyncResult, error) {
	m.syncCalls++
	return m.syncRes, m.syncErr
}

type mockEventLog struct {
	resp []models.ModeEvent
	err  error
	last service.LogFilter
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.ModeEvent, error) {
	m.last = f
	return m.resp, m.err
}

type mockStatus struct {
	report service.StatusReport
}

func (m *mockStatus) Status(ctx context.Context) service.StatusReport { return m.report }

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func withAuth(req *http.Request, token string) *http.Request {
	for k, vv := range authHeader(token) {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	return req
}
