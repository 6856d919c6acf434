package main

import (
	"testing"
	"time"

	"github.com/fitdash/internal/db"
	"github.com/fitdash/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestSampleStartDefaultsToPreviousSunday(t *testing.T) {
	now := time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC) // Wednesday

	start, err := sampleStart("", now)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-25", start.Format("2006-01-02"))

	start, err = sampleStart("2023-06-01", now)
	require.NoError(t, err)
	assert.Equal(t, "2023-06-01", start.Format("2006-01-02"))

	_, err = sampleStart("soon", now)
	assert.Error(t, err)
}

func TestSeedSampleDataIsRepeatable(t *testing.T) {
	gdb, err := db.Open("file:sample-seed?mode=memory&cache=shared", logger.Default.LogMode(logger.Silent))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	store := service.NewFitnessStore(gdb, "user@app.local", nil)
	user, err := store.DefaultUser()
	require.NoError(t, err)
	imports := service.NewImportService(store, nil, nil, nil, nil, service.ImportOptions{})

	start := time.Date(2023, 6, 4, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		outcome, err := seedSampleData(imports, user.ID, start)
		require.NoError(t, err)
		require.True(t, outcome.Success)
		assert.Equal(t, 7, outcome.Saved.Days)
	}

	stored, err := store.LoadRange(user.ID, "", "")
	require.NoError(t, err)
	require.Len(t, stored.DailyData, 7)
	require.Len(t, stored.WeeklySummaries, 1)

	week := stored.WeeklySummaries[0]
	assert.Equal(t, "2023-06-04", week.StartDate)
	assert.Equal(t, 7, week.DayCount)

	first := stored.DailyData["2023-06-04"]
	require.NotNil(t, first)
	assert.Equal(t, "Sunday", first.Day)
	assert.Equal(t, 1090.0, first.TotalCaloriesIn)
	assert.Equal(t, 2100.0, first.CaloriesOut)
	assert.Equal(t, 1500.0, first.WaterIntake)
	assert.Len(t, first.Meals, 4)
}
