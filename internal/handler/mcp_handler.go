package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/fitdash/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MCP 工具名
const (
	ToolImportFitnessData  = "import_fitness_data"
	ToolGetDailySummary    = "get_daily_summary"
	ToolGetWeeklySummaries = "get_weekly_summaries"
)

const textContentType = "text"

type importToolParams struct {
	Payload json.RawMessage `json:"payload"`
	Mode    string          `json:"mode,omitempty"`
	Dedup   string          `json:"dedup,omitempty"`
}

type dailyToolParams struct {
	Date      string `json:"date,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

type weeklyToolParams struct {
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

var errInvalidToolParams = errors.New("invalid tool parameters")

// HandleMCP 处理 MCP 工具调用。参数错误返回 400；业务错误以 isError 结果返回
func (a *API) HandleMCP(c *gin.Context) {
	var request protocol.CallToolRequest
	if !bindJSON(c, &request, "invalid tool call") {
		return
	}

	user, ok := a.requireUser(c)
	if !ok {
		return
	}

	var (
		result *protocol.CallToolResult
		err    error
	)
	switch request.Name {
	case ToolImportFitnessData:
		result, err = a.toolImport(&request, user.ID)
	case ToolGetDailySummary:
		result, err = a.toolDaily(&request, user.ID)
	case ToolGetWeeklySummaries:
		result, err = a.toolWeekly(&request, user.ID)
	default:
		respondError(c, http.StatusNotFound, fmt.Sprintf("unknown tool: %s", request.Name))
		return
	}

	if err != nil {
		if errors.Is(err, errInvalidToolParams) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		a.logger.Warn("mcp tool failed", zap.String("tool", request.Name), zap.Error(err))
		result = toolError(err.Error())
	}
	c.JSON(http.StatusOK, result)
}

func (a *API) toolImport(req *protocol.CallToolRequest, userID uint) (*protocol.CallToolResult, error) {
	var params importToolParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	payload, err := toolPayload(params.Payload)
	if err != nil {
		return nil, err
	}
	if len(payload) > service.MaxImportBytes {
		return nil, service.ErrPayloadTooLarge
	}

	outcome, err := a.imports.Import(service.ImportRequest{
		UserID:  userID,
		Payload: payload,
		Source:  service.SourceMCP,
		Mode:    validationMode(params.Mode),
		Dedup:   service.ParseSaveMode(params.Dedup, service.SaveAppend),
	})
	if err != nil {
		return nil, err
	}

	result, err := jsonResult(outcome)
	if err != nil {
		return nil, err
	}
	result.IsError = !outcome.Success
	return result, nil
}

func (a *API) toolDaily(req *protocol.CallToolRequest, userID uint) (*protocol.CallToolResult, error) {
	var params dailyToolParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	if params.Date != "" {
		day, err := a.store.LoadDay(userID, params.Date)
		if err != nil {
			return nil, err
		}
		return jsonResult(day)
	}

	stored, err := a.store.LoadRange(userID, params.StartDate, params.EndDate)
	if err != nil {
		return nil, err
	}
	return jsonResult(stored.DailyData)
}

func (a *API) toolWeekly(req *protocol.CallToolRequest, userID uint) (*protocol.CallToolResult, error) {
	var params weeklyToolParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	stored, err := a.store.LoadRange(userID, params.StartDate, params.EndDate)
	if err != nil {
		return nil, err
	}
	return jsonResult(stored.WeeklySummaries)
}

// extractParams 将 Arguments 重新编码后解到目标结构
func extractParams(req *protocol.CallToolRequest, target interface{}) error {
	raw, err := json.Marshal(req.Arguments)
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidToolParams, err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: %v", errInvalidToolParams, err)
	}
	return nil
}

// toolPayload 接受 JSON 对象或包含 JSON 文本的字符串
func toolPayload(raw json.RawMessage) ([]byte, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, fmt.Errorf("%w: payload is required", errInvalidToolParams)
	}
	if strings.HasPrefix(trimmed, `"`) {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidToolParams, err)
		}
		return []byte(text), nil
	}
	return raw, nil
}

func jsonResult(data interface{}) (*protocol.CallToolResult, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return &protocol.CallToolResult{
		Content: []protocol.Content{
			&protocol.TextContent{Type: textContentType, Text: string(body)},
		},
	}, nil
}

func toolError(message string) *protocol.CallToolResult {
	return &protocol.CallToolResult{
		Content: []protocol.Content{
			&protocol.TextContent{Type: textContentType, Text: message},
		},
		IsError: true,
	}
}
