package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/fitdash/internal/fitbit"
	"github.com/fitdash/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type fitbitSyncRequest struct {
	AccessToken string `json:"access_token"`
	Start       string `json:"start" binding:"required"`
	End         string `json:"end" binding:"required"`
	Mode        string `json:"mode"`
	Dedup       string `json:"dedup"`
}

// ImportData 导入请求体中的原始 JSON
func (a *API) ImportData(c *gin.Context) {
	payload, ok := readImportBody(c)
	if !ok {
		return
	}
	a.runImport(c, payload, c.DefaultQuery("source", service.SourceJSON))
}

// PreviewImport 只运行管线并返回结果，不写入存储
func (a *API) PreviewImport(c *gin.Context) {
	payload, ok := readImportBody(c)
	if !ok {
		return
	}
	result := a.imports.Preview(payload, validationMode(c.Query("mode")))
	c.JSON(importStatus(result.Success), result)
}

// ImportFile 导入 multipart 上传的 JSON 文件
func (a *API) ImportFile(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "file field is required")
		return
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), ".json") {
		respondError(c, http.StatusBadRequest, "only .json files are supported")
		return
	}
	if file.Size > service.MaxImportBytes {
		respondError(c, http.StatusRequestEntityTooLarge, service.ErrPayloadTooLarge.Error())
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "failed to read uploaded file")
		return
	}
	defer src.Close()

	payload, err := service.ReadPayload(src)
	if err != nil {
		respondPayloadError(c, err)
		return
	}
	a.runImport(c, payload, service.SourceFile)
}

// SyncFitbit 从 Fitbit 拉取日期区间内的数据并导入
func (a *API) SyncFitbit(c *gin.Context) {
	var req fitbitSyncRequest
	if !bindJSON(c, &req, "start and end dates are required") {
		return
	}
	user, ok := a.requireUser(c)
	if !ok {
		return
	}

	outcome, err := a.imports.SyncFitbit(c.Request.Context(), service.FitbitSyncRequest{
		UserID: user.ID,
		Token:  req.AccessToken,
		Start:  req.Start,
		End:    req.End,
		Mode:   validationMode(req.Mode),
		Dedup:  service.ParseSaveMode(req.Dedup, ""),
	})
	if err != nil {
		var apiErr *fitbit.APIError
		switch {
		case errors.Is(err, service.ErrInvalidDateRange):
			respondError(c, http.StatusBadRequest, "invalid date range")
		case errors.Is(err, fitbit.ErrTokenMissing):
			respondError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, fitbit.ErrUnauthorized):
			respondError(c, http.StatusUnauthorized, err.Error())
		case errors.Is(err, service.ErrFitbitNotConfigured), errors.Is(err, fitbit.ErrUpstreamUnavailable):
			respondError(c, http.StatusServiceUnavailable, err.Error())
		case errors.As(err, &apiErr):
			respondError(c, http.StatusBadGateway, apiErr.Error())
		default:
			a.logger.Error("fitbit sync failed", zap.Uint("user_id", user.ID), zap.Error(err))
			respondError(c, http.StatusInternalServerError, "fitbit sync failed")
		}
		return
	}

	status := importStatus(outcome.Success)
	if !outcome.Success && outcome.RateLimited {
		status = http.StatusTooManyRequests
	}
	c.JSON(status, outcome)
}

func (a *API) runImport(c *gin.Context, payload []byte, source string) {
	user, ok := a.requireUser(c)
	if !ok {
		return
	}

	outcome, err := a.imports.Import(service.ImportRequest{
		UserID:  user.ID,
		Payload: payload,
		Source:  source,
		Mode:    validationMode(c.Query("mode")),
		Dedup:   service.ParseSaveMode(c.Query("dedup"), service.SaveAppend),
	})
	if err != nil {
		a.logger.Error("store import", zap.Uint("user_id", user.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to store imported data")
		return
	}
	c.JSON(importStatus(outcome.Success), outcome)
}

func readImportBody(c *gin.Context) ([]byte, bool) {
	payload, err := service.ReadPayload(c.Request.Body)
	if err != nil {
		respondPayloadError(c, err)
		return nil, false
	}
	return payload, true
}

func respondPayloadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPayloadTooLarge):
		respondError(c, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrEmptyPayload):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		respondError(c, http.StatusBadRequest, "failed to read import payload")
	}
}
