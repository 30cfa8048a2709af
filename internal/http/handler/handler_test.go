package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"scoutapi/internal/ai"
	"scoutapi/internal/model"
	"scoutapi/internal/ranking"
	"scoutapi/internal/service"
	serviceMocks "scoutapi/internal/service/mocks"
)

func newTestApp(svc service.PaperService) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	RegisterRoutes(app, nil, svc)
	return app
}

func TestHealth(t *testing.T) {
	t.Run("no database configured", func(t *testing.T) {
		app := newTestApp(new(serviceMocks.MockPaperService))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "none", body["database"])
	})

	t.Run("database ping", func(t *testing.T) {
		db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
		RegisterRoutes(app, db, new(serviceMocks.MockPaperService))

		dbMock.ExpectPing().WillReturnError(nil)
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		dbMock.ExpectPing().WillReturnError(errors.New("db down"))
		resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

func TestLiveness(t *testing.T) {
	app := newTestApp(new(serviceMocks.MockPaperService))

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMe(t *testing.T) {
	mockSvc := new(serviceMocks.MockPaperService)
	app := newTestApp(mockSvc)

	mockSvc.On("CurrentUser", mock.Anything).
		Return(service.UserInfo{UserID: "guest_1_1", Mode: "local"}).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body service.UserInfo
	json.NewDecoder(resp.Body).Decode(&body)
	assert.Equal(t, "guest_1_1", body.UserID)
	assert.Equal(t, "local", body.Mode)
}

func TestLogout(t *testing.T) {
	mockSvc := new(serviceMocks.MockPaperService)
	app := newTestApp(mockSvc)

	mockSvc.On("SignOut", mock.Anything).Return(nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/logout", nil))

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	mockSvc.AssertExpectations(t)
}

func TestListPapers(t *testing.T) {
	mockSvc := new(serviceMocks.MockPaperService)
	app := newTestApp(mockSvc)

	t.Run("success", func(t *testing.T) {
		mockSvc.On("List", mock.Anything).
			Return([]model.Paper{{ID: "p-1", Title: "First"}}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/papers", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var papers []model.Paper
		json.NewDecoder(resp.Body).Decode(&papers)
		require.Len(t, papers, 1)
		assert.Equal(t, "p-1", papers[0].ID)
	})

	t.Run("store failure", func(t *testing.T) {
		mockSvc.On("List", mock.Anything).
			Return(nil, errors.New("backend down")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/papers", nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
	})
}

func multipartFile(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)
	fw, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = io.Copy(fw, strings.NewReader(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func TestUploadPaper(t *testing.T) {
	mockSvc := new(serviceMocks.MockPaperService)
	app := newTestApp(mockSvc)

	t.Run("created", func(t *testing.T) {
		body, contentType := multipartFile(t, "file", "paper.txt", "some text")
		mockSvc.On("Upload", mock.Anything, mock.Anything, "paper.txt", mock.Anything, mock.Anything).
			Return(&model.Paper{ID: "p-1", Title: "paper"}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/papers", body)
		req.Header.Set("Content-Type", contentType)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("missing file", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/papers", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var payload errorPayload
		json.NewDecoder(resp.Body).Decode(&payload)
		assert.Equal(t, "FILE_REQUIRED", payload.Error.Code)
	})

	t.Run("analysis failure maps to bad gateway", func(t *testing.T) {
		body, contentType := multipartFile(t, "file", "paper.txt", "some text")
		mockSvc.On("Upload", mock.Anything, mock.Anything, "paper.txt", mock.Anything, mock.Anything).
			Return(nil, ai.ErrServiceFailed).Once()

		req := httptest.NewRequest(http.MethodPost, "/papers", body)
		req.Header.Set("Content-Type", contentType)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})
}

func TestSearchPapers(t *testing.T) {
	mockSvc := new(serviceMocks.MockPaperService)
	app := newTestApp(mockSvc)

	expected := ranking.Filters{
		DateRange:  ranking.DateWeek,
		Complexity: []string{"basic", "expert"},
		Domains:    []string{"machine_learning"},
		SortBy:     ranking.SortDateDesc,
	}
	mockSvc.On("Search", mock.Anything, "neural nets", expected).
		Return([]ranking.Result{{Paper: model.Paper{ID: "p-1"}, Similarity: 0.5}}, nil).Once()

	target := "/papers/search?q=neural+nets&date_range=week&complexity=basic,expert&domains=machine_learning&sort=date_desc"
	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, target, nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var results []ranking.Result
	json.NewDecoder(resp.Body).Decode(&results)
	require.Len(t, results, 1)
	assert.Equal(t, 0.5, results[0].Similarity)
	mockSvc.AssertExpectations(t)
}

func TestGetSummaryRoute(t *testing.T) {
	mockSvc := new(serviceMocks.MockPaperService)
	app := newTestApp(mockSvc)

	t.Run("found", func(t *testing.T) {
		mockSvc.On("GetSummary", mock.Anything, "p-1", 12).
			Return(json.RawMessage(`{"text":"easy words"}`), nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/papers/p-1/summaries/12", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		raw, _ := io.ReadAll(resp.Body)
		assert.JSONEq(t, `{"text":"easy words"}`, string(raw))
	})

	t.Run("absent", func(t *testing.T) {
		mockSvc.On("GetSummary", mock.Anything, "p-1", 25).Return(nil, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/papers/p-1/summaries/25", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("bad age", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/papers/p-1/summaries/adult", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestSummarizeRoute(t *testing.T) {
	mockSvc := new(serviceMocks.MockPaperService)
	app := newTestApp(mockSvc)

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Summarize", mock.Anything, "p-1", 12).
			Return(json.RawMessage(`{"text":"done"}`), nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/papers/p-1/summaries", strings.NewReader(`{"target_age":12}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("unknown paper", func(t *testing.T) {
		mockSvc.On("Summarize", mock.Anything, "ghost", 12).
			Return(nil, service.ErrPaperNotFound).Once()

		req := httptest.NewRequest(http.MethodPost, "/papers/ghost/summaries", strings.NewReader(`{"target_age":12}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("invalid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/papers/p-1/summaries", strings.NewReader(`{"target_age":0}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestGenerateCodeRoute(t *testing.T) {
	mockSvc := new(serviceMocks.MockPaperService)
	app := newTestApp(mockSvc)

	mockSvc.On("GenerateCode", mock.Anything, "p-1", "python", "pytorch").
		Return(&model.CodeGeneration{ID: "c-1", Language: "python"}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/papers/p-1/code", strings.NewReader(`{"language":"python","framework":"pytorch"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	t.Run("language required", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/papers/p-1/code", strings.NewReader(`{"framework":"pytorch"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestVisualizationRoutes(t *testing.T) {
	mockSvc := new(serviceMocks.MockPaperService)
	app := newTestApp(mockSvc)

	mockSvc.On("Visualizations", mock.Anything, "p-1").
		Return([]model.Visualization{{ID: "v-1"}}, nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/papers/p-1/visualizations", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	mockSvc.On("CreateVisualization", mock.Anything, "p-1", "flowchart").
		Return(&model.Visualization{ID: "v-2"}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/papers/p-1/visualizations", strings.NewReader(`{"type":"flowchart"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(req)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	mockSvc.AssertExpectations(t)
}

func TestSimilarPapersRoute(t *testing.T) {
	mockSvc := new(serviceMocks.MockPaperService)
	app := newTestApp(mockSvc)

	mockSvc.On("SimilarPapers", mock.Anything, "p-1", "transformers").
		Return([]model.SimilarPaper{{Title: "Related"}}, nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/papers/p-1/similar?q=transformers", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var papers []model.SimilarPaper
	json.NewDecoder(resp.Body).Decode(&papers)
	require.Len(t, papers, 1)
	assert.Equal(t, "Related", papers[0].Title)
}

func TestNotificationRoutes(t *testing.T) {
	mockSvc := new(serviceMocks.MockPaperService)
	app := newTestApp(mockSvc)

	mockSvc.On("Notifications", mock.Anything).
		Return([]model.Notification{{ID: "n-1"}}, nil).Once()
	mockSvc.On("MarkNotificationRead", mock.Anything, "n-1").Return(nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/notifications", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = app.Test(httptest.NewRequest(http.MethodPost, "/notifications/n-1/read", nil))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	mockSvc.AssertExpectations(t)
}

func TestErrorHandlerShapes(t *testing.T) {
	app := newTestApp(new(serviceMocks.MockPaperService))

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/does-not-exist", nil))

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var payload errorPayload
	json.NewDecoder(resp.Body).Decode(&payload)
	assert.Equal(t, "NOT_FOUND", payload.Error.Code)
}
