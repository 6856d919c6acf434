package handler

import (
	"github.com/fitdash/internal/service"
	"go.uber.org/zap"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	store    *service.FitnessStore
	imports  *service.ImportService
	reports  *service.ReportService
	settings *service.SettingService
	logger   *zap.Logger
}

// NewAPI constructs a handler set with shared services.
func NewAPI(store *service.FitnessStore, imports *service.ImportService, reports *service.ReportService, settings *service.SettingService, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		store:    store,
		imports:  imports,
		reports:  reports,
		settings: settings,
		logger:   logger,
	}
}
