package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fitdash/internal/db"
	"github.com/fitdash/internal/fitbit"
	"github.com/fitdash/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

const testDefaultEmail = "user@app.local"

const sampleImport = `{
	"meals": [
		{"Date":"2023-06-01","Day":"Thursday","Meal":"Breakfast","Name":"Oats","Cals":"170","Carbs":"33","Fat":"2.5","Protein":"5"},
		{"Date":"2023-06-01","Day":"Thursday","Meal":"Lunch","Name":"Salad","Cals":"320","Protein":"12"},
		{"Date":"2023-06-04","Day":"Sunday","Meal":"Dinner","Name":"Pasta","Cals":"640"}
	],
	"activities": [{"Date":"2023-06-01","Cals Out":"2100","Steps":"9000"}],
	"water": [{"Date":"2023-06-01","Water":"1500"},{"Date":"2023-06-04","Water":"800"}]
}`

type fakeFetcher struct {
	days []fitbit.Day
	err  error
}

func (f *fakeFetcher) FetchRange(context.Context, string, time.Time, time.Time) ([]fitbit.Day, error) {
	return f.days, f.err
}

type testEnv struct {
	api    *API
	store  *service.FitnessStore
	engine *gin.Engine
}

func setupTestAPI(t *testing.T, fetcher service.FitbitFetcher) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := db.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name), logger.Default.LogMode(logger.Silent))
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	store := service.NewFitnessStore(gdb, testDefaultEmail, nil)
	settings := service.NewSettingService(gdb, service.Settings{})
	clock := func() time.Time { return time.Date(2023, 6, 10, 12, 0, 0, 0, time.UTC) }
	imports := service.NewImportService(store, settings, fetcher, nil, nil, service.ImportOptions{Now: clock})
	api := NewAPI(store, imports, service.NewReportService(store, settings), settings, nil)

	engine := gin.New()
	engine.Use(sessions.Sessions("fitdash_session", cookie.NewStore([]byte("test-secret"))))
	engine.POST("/api/import", api.ImportData)
	engine.POST("/api/import/preview", api.PreviewImport)
	engine.POST("/api/import/file", api.ImportFile)
	engine.POST("/api/import/fitbit", api.SyncFitbit)
	engine.GET("/api/daily", api.GetDaily)
	engine.GET("/api/daily/:date", api.GetDay)
	engine.GET("/api/weekly", api.GetWeekly)
	engine.GET("/api/report", api.GetReport)
	engine.DELETE("/api/data", api.ClearData)
	engine.GET("/api/settings", api.GetSettings)
	engine.PUT("/api/settings", api.UpdateSettings)
	engine.POST("/api/session/user", api.SelectUser)
	engine.GET("/api/session/user", api.GetSessionUser)
	engine.POST("/mcp", api.HandleMCP)

	return &testEnv{api: api, store: store, engine: engine}
}

func (e *testEnv) do(t *testing.T, method, target string, body []byte, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}
