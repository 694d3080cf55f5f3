package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/handler"
	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/pkg/config"
)

func testConfig(env string) *config.Config {
	return &config.Config{Env: env, APIPrefix: "/api/v1", Auth: config.AuthConfig{DefaultActor: "admin"}}
}

func testHandlers(metrics *service.MetricsService) Handlers {
	return Handlers{
		Teachers:    handler.NewTeacherHandler(nil),
		Rooms:       handler.NewRoomHandler(nil),
		Groups:      handler.NewGroupHandler(nil),
		Constraints: handler.NewConstraintHandler(nil),
		Timetable:   handler.NewTimetableHandler(nil, nil),
		Audit:       handler.NewAuditHandler(nil),
		Ops:         handler.NewMetricsHandler(metrics, nil),
	}
}

func TestSetupRegistersRoutes(t *testing.T) {
	metrics := service.NewMetricsService()
	r := Setup(testConfig(config.EnvDevelopment), testHandlers(metrics), metrics, zap.NewNop())

	registered := make(map[string]bool)
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	for _, want := range []string{
		"GET /health",
		"GET /ready",
		"GET /metrics",
		"GET /docs/*any",
		"GET /api/v1/teachers",
		"PUT /api/v1/rooms/:id",
		"DELETE /api/v1/groups/:id",
		"POST /api/v1/constraints",
		"POST /api/v1/generate",
		"GET /api/v1/timetable",
		"GET /api/v1/timetable/export/:format",
		"GET /api/v1/audit-logs",
	} {
		assert.True(t, registered[want], "missing route %s", want)
	}
}

func TestSetupHidesDocsInProduction(t *testing.T) {
	r := Setup(testConfig(config.EnvProduction), testHandlers(nil), nil, zap.NewNop())

	for _, route := range r.Routes() {
		assert.NotEqual(t, "/docs/*any", route.Path)
	}
}

func TestSetupHealthAndIdentity(t *testing.T) {
	metrics := service.NewMetricsService()
	r := Setup(testConfig(config.EnvDevelopment), testHandlers(metrics), metrics, zap.NewNop())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/teachers", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
