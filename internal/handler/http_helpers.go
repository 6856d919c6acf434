package handler

import (
	"net/http"
	"strings"

	"github.com/fitdash/internal/fitness"
	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

// validationMode 读取 ?mode=，未提供时返回空值以沿用服务端配置
func validationMode(raw string) fitness.ValidationMode {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	return fitness.ParseValidationMode(raw)
}

func importStatus(success bool) int {
	if success {
		return http.StatusOK
	}
	return http.StatusBadRequest
}
