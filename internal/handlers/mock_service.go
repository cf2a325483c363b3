package handlers

import (
	"context"
	"net/http"
	"sync"

	"petfeeder/internal/device"
	"petfeeder/internal/models"
	"petfeeder/internal/service"

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

func (m *mockAuth) SignUp(ctx context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(ctx context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockSchedules struct {
	schedule models.Schedule
	list     []models.Schedule
	err      error

	lastUserID int
	lastID     string
	lastInput  service.ScheduleInput
	lastUpdate service.ScheduleUpdate
	deleted    int
}

func (m *mockSchedules) Create(ctx context.Context, userID int, in service.ScheduleInput) (models.Schedule, error) {
	m.lastUserID = userID
	m.lastInput = in
	return m.schedule, m.err
}
func (m *mockSchedules) List(ctx context.Context, userID int) ([]models.Schedule, error) {
	m.lastUserID = userID
	return m.list, m.err
}
func (m *mockSchedules) Update(ctx context.Context, userID int, id string, in service.ScheduleUpdate) (models.Schedule, error) {
	m.lastUserID = userID
	m.lastID = id
	m.lastUpdate = in
	return m.schedule, m.err
}
func (m *mockSchedules) Delete(ctx context.Context, userID int, id string) error {
	m.lastUserID = userID
	m.lastID = id
	if m.err == nil {
		m.deleted++
	}
	return m.err
}

type mockFeeding struct {
	result service.FeedResult
	logs   []models.FeedingLog
	status service.FeederStatus
	err    error

	lastUserID     int
	lastPortion    string
	lastScheduleID string
	lastLimit      int
	stopCalled     int
}

func (m *mockFeeding) Activate(ctx context.Context, userID int, portion, scheduleID string) (service.FeedResult, error) {
	m.lastUserID = userID
	m.lastPortion = portion
	m.lastScheduleID = scheduleID
	return m.result, m.err
}
func (m *mockFeeding) Stop(ctx context.Context, userID int) (service.FeedResult, error) {
	m.lastUserID = userID
	m.stopCalled++
	return m.result, m.err
}
func (m *mockFeeding) Logs(ctx context.Context, userID, limit int) ([]models.FeedingLog, error) {
	m.lastUserID = userID
	m.lastLimit = limit
	return m.logs, m.err
}
func (m *mockFeeding) Status(ctx context.Context, userID int) (service.FeederStatus, error) {
	m.lastUserID = userID
	return m.status, m.err
}

type mockDevice struct {
	mu   sync.Mutex
	snap device.Snapshot
}

func (m *mockDevice) Publish(ctx context.Context, cmd models.Command) bool {
	return m.Status().Connected
}
func (m *mockDevice) Status() device.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}
func (m *mockDevice) setConnected(v bool) {
	m.mu.Lock()
	m.snap.Connected = v
	m.mu.Unlock()
}

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
