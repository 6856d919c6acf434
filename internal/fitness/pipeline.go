// Package fitness 实现导入数据的规范化与汇总管线：
// 字段映射 → 校验 → 数值强制转换 → 每日汇总 → 每周汇总。
// 管线不做任何 I/O，每次调用互不影响。
package fitness

import (
	"errors"
	"time"

	"go.uber.org/zap"
)

// Pipeline 组合各阶段并产出 ProcessedDataset
type Pipeline struct {
	logger      *zap.Logger
	now         func() time.Time
	mode        ValidationMode
	strictDates bool
}

// Option 配置 Pipeline
type Option func(*Pipeline)

// WithLogger 设置警告日志输出
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock 设置日期回退使用的当前时间
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithValidationMode 设置校验模式，默认 FailFast
func WithValidationMode(mode ValidationMode) Option {
	return func(p *Pipeline) {
		if mode != "" {
			p.mode = mode
		}
	}
}

// WithStrictDates 使无法解析的日期成为校验错误，而不是回退为当天
func WithStrictDates(strict bool) Option {
	return func(p *Pipeline) {
		p.strictDates = strict
	}
}

// NewPipeline 构造 Pipeline
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		logger: zap.NewNop(),
		now:    time.Now,
		mode:   FailFast,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Mode 返回当前校验模式
func (p *Pipeline) Mode() ValidationMode {
	return p.mode
}

// Process 处理原始 JSON。失败时返回 *ImportError，且不返回任何部分结果。
func (p *Pipeline) Process(raw []byte) (*ProcessedDataset, error) {
	payload := DetectPayload(raw)

	mapped, err := MapPayload(payload)
	if err != nil {
		return nil, err
	}

	valid, issues, err := Validate(mapped, ValidateOptions{Mode: p.mode, StrictDates: p.strictDates})
	if err != nil {
		return nil, err
	}

	records, warnings := Coerce(valid, p.now())
	for _, warning := range warnings {
		p.logger.Warn("import date fallback", zap.String("detail", warning))
	}

	if err := checkCanonical(records); err != nil {
		return nil, err
	}

	daily := AggregateDaily(records)
	weekly, weekWarnings := SummarizeWeeks(daily, p.logger)

	if len(issues) > 0 {
		p.logger.Warn("import skipped invalid records",
			zap.Int("skipped", len(issues)),
			zap.String("summary", summarizeIssues(issues)))
	}

	return &ProcessedDataset{
		Meals:           records.Meals,
		Activities:      records.Activities,
		Water:           records.Water,
		DailyData:       daily,
		WeeklySummaries: weekly,
		Skipped:         issues,
		Warnings:        append(warnings, weekWarnings...),
	}, nil
}

// ImportResult 是导入入口的线上格式
type ImportResult struct {
	Success      bool              `json:"success"`
	Message      string            `json:"message,omitempty"`
	FailingIndex int               `json:"failingIndex,omitempty"`
	FailingField string            `json:"failingField,omitempty"`
	FailingKind  RecordKind        `json:"failingRecord,omitempty"`
	Dataset      *ProcessedDataset `json:"dataset,omitempty"`
}

// ProcessImport 包装 Process，返回成功或结构化失败
func (p *Pipeline) ProcessImport(raw []byte) ImportResult {
	dataset, err := p.Process(raw)
	if err != nil {
		return FailureResult(err)
	}
	return ImportResult{Success: true, Dataset: dataset}
}

// FailureResult 将错误转换为失败结果
func FailureResult(err error) ImportResult {
	var importErr *ImportError
	if errors.As(err, &importErr) {
		return ImportResult{
			Success:      false,
			Message:      importErr.Message,
			FailingIndex: importErr.Index,
			FailingField: importErr.Field,
			FailingKind:  importErr.Record,
		}
	}
	return ImportResult{Success: false, Message: err.Error()}
}
