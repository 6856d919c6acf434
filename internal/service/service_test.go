package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/fitdash/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testDefaultEmail = "user@app.local"

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := db.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name), logger.Default.LogMode(logger.Silent))
	require.NoError(t, err, "failed to open test database")

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func setupStore(t *testing.T) (*FitnessStore, *db.User) {
	t.Helper()
	store := NewFitnessStore(setupServiceDB(t), testDefaultEmail, nil)
	user, err := store.DefaultUser()
	require.NoError(t, err)
	return store, user
}

func fixedClock() time.Time {
	return time.Date(2023, 6, 10, 12, 0, 0, 0, time.UTC)
}

const sampleFlatImport = `{
	"meals": [
		{"Date":"2023-06-01","Day":"Thursday","Meal":"Breakfast","Name":"Oats","Cals":"170","Carbs":"33","Fat":"2.5","Protein":"5"},
		{"Date":"2023-06-01","Day":"Thursday","Meal":"Lunch","Name":"Salad","Cals":"320","Protein":"12"},
		{"Date":"2023-06-04","Day":"Sunday","Meal":"Dinner","Name":"Pasta","Cals":"640"}
	],
	"activities": [{"Date":"2023-06-01","Cals Out":"2100","Steps":"9000"}],
	"water": [{"Date":"2023-06-01","Water":"1500"},{"Date":"2023-06-04","Water":"800"}]
}`
