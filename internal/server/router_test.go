package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/limaJavier/timetabler/internal/config"
	"github.com/limaJavier/timetabler/internal/dto"
	reqidmiddleware "github.com/limaJavier/timetabler/internal/middleware/requestid"
	"github.com/limaJavier/timetabler/internal/service"
	"github.com/limaJavier/timetabler/pkg/model"
	"github.com/limaJavier/timetabler/pkg/sat"
)

const testdataDirectory = "../../testdata/"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Schedule: model.DefaultShape()}

	validator, err := model.NewValidator(cfg.Schedule, model.Limits{})
	require.NoError(t, err)
	metrics := service.NewMetricsService()
	generator, err := service.NewGeneratorService(validator, sat.NewGiniSolver(), service.GeneratorConfig{
		TimeBudget:    30 * time.Second,
		MaxConcurrent: 2,
		QueueTimeout:  time.Second,
	}, metrics, zap.NewNop())
	require.NoError(t, err)

	return NewRouter(cfg, zap.NewNop(), generator, metrics)
}

func post(t *testing.T, router *gin.Engine, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGenerateFromFiles(t *testing.T) {
	router := newTestRouter(t)
	files, err := os.ReadDir(filepath.Join(testdataDirectory, "satisfiable"))
	require.NoError(t, err)

	for _, file := range files {
		body, err := os.ReadFile(filepath.Join(testdataDirectory, "satisfiable", file.Name()))
		require.NoError(t, err)

		w := post(t, router, "/generate", body)

		require.Equal(t, http.StatusOK, w.Code, file.Name())
		var response dto.GenerateResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), file.Name())
		assert.Equal(t, dto.StatusSuccess, response.Status, file.Name())

		var request model.Request
		require.NoError(t, json.Unmarshal(body, &request))
		validation, err := mustValidator(t).Validate(request)
		require.NoError(t, err)
		assert.NoError(t, model.VerifyTimetable(response.Timetable, validation.Input), file.Name())
	}
}

func TestGenerateOverloadedTeacher(t *testing.T) {
	router := newTestRouter(t)
	body, err := os.ReadFile(filepath.Join(testdataDirectory, "unsatisfiable", "overloaded-teacher.json"))
	require.NoError(t, err)

	w := post(t, router, "/generate", body)

	g := gomega.NewWithT(t)
	g.Expect(w.Code).To(gomega.Equal(http.StatusUnprocessableEntity))
	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	g.Expect(response).To(gomega.HaveKeyWithValue("status", "error"))
	g.Expect(response).To(gomega.HaveKeyWithValue("details", gomega.HaveKeyWithValue("solver_status", "INFEASIBLE")))
	g.Expect(response).To(gomega.HaveKeyWithValue("details", gomega.HaveKeyWithValue("overloaded_teachers", gomega.ContainElement("Alice"))))
}

func TestGenerateWithoutClassrooms(t *testing.T) {
	router := newTestRouter(t)

	w := post(t, router, "/generate", []byte(`{"subjects": [{"name": "Mathematics", "code": "MATH101", "lectures_per_week": 1}], "teachers": [{"name": "Alice"}], "classrooms": []}`))

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"status": "error", "code": "VALIDATION_ERROR", "message": "No classrooms available. Please add at least one classroom."}`, w.Body.String())
}

func TestAmbientRoutes(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"message": "AI Solver Service is running!"}`, w.Body.String())
	require.NotEmpty(t, w.Header().Get(reqidmiddleware.HeaderKey))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "http_requests_total")

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/generate", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func mustValidator(t *testing.T) *model.Validator {
	t.Helper()
	validator, err := model.NewValidator(model.DefaultShape(), model.Limits{})
	require.NoError(t, err)
	return validator
}
