package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fitdash/internal/fitbit"
	"github.com/fitdash/internal/fitness"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxImportBytes 是单次导入允许的最大载荷
const MaxImportBytes = 10 << 20

const (
	// SourceJSON 表示直接提交的 JSON
	SourceJSON = "json"
	// SourceFile 表示上传的文件
	SourceFile = "file"
	// SourceFitbit 表示从 Fitbit 同步
	SourceFitbit = "fitbit"
	// SourceMCP 表示通过 MCP 工具调用导入
	SourceMCP = "mcp"
)

var (
	// ErrPayloadTooLarge 在载荷超过 MaxImportBytes 时返回
	ErrPayloadTooLarge = errors.New("import payload too large")
	// ErrEmptyPayload 在载荷为空时返回
	ErrEmptyPayload = errors.New("import payload is empty")
	// ErrFitbitNotConfigured 在未配置 Fitbit 客户端时返回
	ErrFitbitNotConfigured = errors.New("fitbit sync is not configured")
)

// FitbitFetcher 读取一段日期内的 Fitbit 数据
type FitbitFetcher interface {
	FetchRange(ctx context.Context, token string, start, end time.Time) ([]fitbit.Day, error)
}

// ImportRecorder 记录导入指标
type ImportRecorder interface {
	ObserveImport(source, outcome string, elapsed time.Duration)
	AddRecords(kind string, n int)
}

// ImportOptions 描述导入服务的默认行为
type ImportOptions struct {
	Mode        fitness.ValidationMode
	StrictDates bool
	Now         func() time.Time
}

// ImportService 串联导入管线与持久化。管线失败时不写入任何数据。
type ImportService struct {
	store    *FitnessStore
	settings *SettingService
	fitbit   FitbitFetcher
	recorder ImportRecorder
	logger   *zap.Logger
	opts     ImportOptions
}

// NewImportService 构造 ImportService；fetcher 与 recorder 可为 nil
func NewImportService(store *FitnessStore, settings *SettingService, fetcher FitbitFetcher, recorder ImportRecorder, logger *zap.Logger, opts ImportOptions) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Mode == "" {
		opts.Mode = fitness.FailFast
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ImportService{
		store:    store,
		settings: settings,
		fitbit:   fetcher,
		recorder: recorder,
		logger:   logger,
		opts:     opts,
	}
}

// ImportRequest 描述一次导入
type ImportRequest struct {
	UserID  uint
	Payload []byte
	Source  string
	Mode    fitness.ValidationMode
	Dedup   SaveMode
}

// ImportOutcome 是导入接口的返回结构
type ImportOutcome struct {
	fitness.ImportResult
	ImportID    string      `json:"importId,omitempty"`
	Saved       *SaveResult `json:"saved,omitempty"`
	RateLimited bool        `json:"rateLimited,omitempty"`
	DaysFetched int         `json:"daysFetched,omitempty"`
}

// ReadPayload 读取载荷并限制大小
func ReadPayload(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, MaxImportBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read import payload: %w", err)
	}
	if len(body) > MaxImportBytes {
		return nil, ErrPayloadTooLarge
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, ErrEmptyPayload
	}
	return body, nil
}

func (s *ImportService) pipeline(mode fitness.ValidationMode) *fitness.Pipeline {
	if mode == "" {
		mode = s.opts.Mode
	}
	return fitness.NewPipeline(
		fitness.WithLogger(s.logger),
		fitness.WithClock(s.opts.Now),
		fitness.WithValidationMode(mode),
		fitness.WithStrictDates(s.opts.StrictDates),
	)
}

// Preview 只运行管线，不做持久化
func (s *ImportService) Preview(payload []byte, mode fitness.ValidationMode) fitness.ImportResult {
	return s.pipeline(mode).ProcessImport(payload)
}

// Import 运行管线并在成功时写入存储。管线失败通过 Success=false 返回，
// error 仅表示存储失败。
func (s *ImportService) Import(req ImportRequest) (ImportOutcome, error) {
	started := time.Now()
	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = SourceJSON
	}

	result := s.pipeline(req.Mode).ProcessImport(req.Payload)
	if !result.Success {
		s.observe(source, failureOutcome(result), started)
		s.logger.Info("import rejected",
			zap.String("source", source),
			zap.Uint("user_id", req.UserID),
			zap.String("reason", result.Message))
		return ImportOutcome{ImportResult: result}, nil
	}

	importID := uuid.NewString()
	dedup := req.Dedup
	if dedup == "" {
		dedup = SaveAppend
	}

	saved, err := s.store.SaveDataset(req.UserID, result.Dataset, SaveOptions{Source: source, ImportID: importID, Mode: dedup})
	if err != nil {
		s.observe(source, "storage_error", started)
		return ImportOutcome{}, err
	}

	s.observe(source, "success", started)
	if s.recorder != nil {
		s.recorder.AddRecords(string(fitness.KindMeal), saved.Meals)
		s.recorder.AddRecords(string(fitness.KindActivity), saved.Activities)
		s.recorder.AddRecords(string(fitness.KindWater), saved.Water)
	}
	s.logger.Info("import stored",
		zap.String("source", source),
		zap.String("import_id", importID),
		zap.Uint("user_id", req.UserID),
		zap.Int("days", saved.Days),
		zap.Int("meals", saved.Meals))

	return ImportOutcome{ImportResult: result, ImportID: importID, Saved: &saved}, nil
}

// FitbitSyncRequest 描述一次 Fitbit 同步
type FitbitSyncRequest struct {
	UserID uint
	Token  string
	Start  string
	End    string
	Mode   fitness.ValidationMode
	Dedup  SaveMode
}

// SyncFitbit 读取日期区间内的 Fitbit 数据并导入。遇到限流时停止读取，
// 已读取的天数照常导入并在结果中标记 RateLimited。
func (s *ImportService) SyncFitbit(ctx context.Context, req FitbitSyncRequest) (ImportOutcome, error) {
	if s.fitbit == nil {
		return ImportOutcome{}, ErrFitbitNotConfigured
	}

	start, startOK := fitness.ParseDate(req.Start)
	end, endOK := fitness.ParseDate(req.End)
	if !startOK || !endOK || end.Before(start) {
		return ImportOutcome{}, fmt.Errorf("%w: %q to %q", ErrInvalidDateRange, req.Start, req.End)
	}

	token := strings.TrimSpace(req.Token)
	if token == "" && s.settings != nil {
		settings, err := s.settings.GetSettings()
		if err != nil {
			return ImportOutcome{}, err
		}
		token = settings.FitbitToken
	}
	if token == "" {
		return ImportOutcome{}, fitbit.ErrTokenMissing
	}

	days, err := s.fitbit.FetchRange(ctx, token, start, end)
	rateLimited := errors.Is(err, fitbit.ErrRateLimited)
	if err != nil && !rateLimited {
		s.observe(SourceFitbit, "fetch_error", time.Now())
		return ImportOutcome{}, err
	}
	if rateLimited {
		s.logger.Warn("fitbit sync rate limited",
			zap.Int("days_fetched", len(days)),
			zap.String("start", req.Start),
			zap.String("end", req.End))
		if len(days) == 0 {
			return ImportOutcome{
				ImportResult: fitness.ImportResult{Success: false, Message: "Fitbit rate limit reached before any data was fetched"},
				RateLimited:  true,
			}, nil
		}
	}

	payload, err := fitbit.BuildNutritionLog(days)
	if err != nil {
		return ImportOutcome{}, err
	}

	dedup := req.Dedup
	if dedup == "" {
		dedup = SaveReplace
	}

	outcome, err := s.Import(ImportRequest{
		UserID:  req.UserID,
		Payload: payload,
		Source:  SourceFitbit,
		Mode:    req.Mode,
		Dedup:   dedup,
	})
	if err != nil {
		return ImportOutcome{}, err
	}
	outcome.RateLimited = rateLimited
	outcome.DaysFetched = len(days)
	return outcome, nil
}

func (s *ImportService) observe(source, outcome string, started time.Time) {
	if s.recorder != nil {
		s.recorder.ObserveImport(source, outcome, time.Since(started))
	}
}

func failureOutcome(result fitness.ImportResult) string {
	if result.FailingField != "" {
		return "validation_error"
	}
	return "shape_error"
}
