package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fitdash/internal/fitbit"
	"github.com/fitdash/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/import/file", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestImportDataStoresDataset(t *testing.T) {
	env := setupTestAPI(t, nil)

	w := env.do(t, http.MethodPost, "/api/import", []byte(sampleImport))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["importId"])
	saved := body["saved"].(map[string]any)
	assert.Equal(t, 3.0, saved["meals"])

	user, err := env.store.DefaultUser()
	require.NoError(t, err)
	day, err := env.store.LoadDay(user.ID, "2023-06-01")
	require.NoError(t, err)
	assert.Equal(t, 490.0, day.TotalCaloriesIn)
}

func TestImportDataReportsFirstInvalidRecord(t *testing.T) {
	env := setupTestAPI(t, nil)

	payload := `{"meals":[{"Date":"2023-06-01","Day":"Thursday","Meal":"Lunch","Cals":"1"},{"Date":"2023-06-01","Day":"Thursday","Meal":"Lunch"}]}`
	w := env.do(t, http.MethodPost, "/api/import", []byte(payload))
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, 2.0, body["failingIndex"])
	assert.Equal(t, "Cals", body["failingField"])
	assert.NotContains(t, body, "saved")

	w = env.do(t, http.MethodGet, "/api/daily", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeBody(t, w)["dailyData"])
}

func TestImportDataSkipInvalidMode(t *testing.T) {
	env := setupTestAPI(t, nil)

	payload := `{"meals":[{"Date":"2023-06-01","Day":"Thursday","Meal":"Lunch","Cals":"100"},{"Date":"2023-06-01","Day":"Thursday","Meal":"Lunch"}]}`
	w := env.do(t, http.MethodPost, "/api/import?mode=skip_invalid", []byte(payload))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	dataset := decodeBody(t, w)["dataset"].(map[string]any)
	assert.Len(t, dataset["skipped"], 1)
}

func TestImportDataRejectsEmptyBodyAndShapeErrors(t *testing.T) {
	env := setupTestAPI(t, nil)

	w := env.do(t, http.MethodPost, "/api/import", []byte("  "))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "import payload is empty", decodeBody(t, w)["error"])

	w = env.do(t, http.MethodPost, "/api/import", []byte(`{"something":"else"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["message"])
}

func TestPreviewImportDoesNotPersist(t *testing.T) {
	env := setupTestAPI(t, nil)

	w := env.do(t, http.MethodPost, "/api/import/preview", []byte(sampleImport))
	require.Equal(t, http.StatusOK, w.Code)
	dataset := decodeBody(t, w)["dataset"].(map[string]any)
	assert.Len(t, dataset["dailyData"], 2)

	w = env.do(t, http.MethodGet, "/api/daily", nil)
	assert.Empty(t, decodeBody(t, w)["dailyData"])
}

func TestImportFile(t *testing.T) {
	env := setupTestAPI(t, nil)

	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, multipartRequest(t, "export.json", sampleImport))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decodeBody(t, w)["success"])

	w = httptest.NewRecorder()
	env.engine.ServeHTTP(w, multipartRequest(t, "export.csv", "Date,Cals"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/import/file", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func fitbitFixture(date string) fitbit.Day {
	return fitbit.Day{
		Date:    date,
		FoodLog: []byte(`{"foods":[{"loggedFood":{"name":"Bar","mealTypeId":3},"nutritionalValues":{"calories":250}}]}`),
	}
}

func TestSyncFitbit(t *testing.T) {
	env := setupTestAPI(t, &fakeFetcher{days: []fitbit.Day{fitbitFixture("2023-06-01")}})

	w := env.do(t, http.MethodPost, "/api/import/fitbit", []byte(`{"access_token":"t","start":"2023-06-01","end":"2023-06-01"}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, 1.0, body["daysFetched"])

	w = env.do(t, http.MethodPost, "/api/import/fitbit", []byte(`{"start":"2023-06-01","end":"2023-06-01"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/import/fitbit", []byte(`{"access_token":"t","start":"2023-06-05","end":"2023-06-01"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/import/fitbit", []byte(`{"access_token":"t"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSyncFitbitUpstreamErrors(t *testing.T) {
	request := []byte(`{"access_token":"t","start":"2023-06-01","end":"2023-06-02"}`)

	cases := []struct {
		name    string
		fetcher service.FitbitFetcher
		status  int
	}{
		{name: "rate limited before any day", fetcher: &fakeFetcher{err: fitbit.ErrRateLimited}, status: http.StatusTooManyRequests},
		{name: "token rejected", fetcher: &fakeFetcher{err: fitbit.ErrUnauthorized}, status: http.StatusUnauthorized},
		{name: "circuit open", fetcher: &fakeFetcher{err: fitbit.ErrUpstreamUnavailable}, status: http.StatusServiceUnavailable},
		{name: "upstream error", fetcher: &fakeFetcher{err: &fitbit.APIError{Endpoint: "foods", Status: http.StatusInternalServerError}}, status: http.StatusBadGateway},
		{name: "not configured", fetcher: nil, status: http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := setupTestAPI(t, tc.fetcher)
			w := env.do(t, http.MethodPost, "/api/import/fitbit", request)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}
}
