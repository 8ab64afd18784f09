package db

import (
	"path/filepath"
	"strings"

	"doodlemind/models"
	"doodlemind/utils"
)

// DBClient stores and retrieves prediction history.
type DBClient interface {
	Close() error
	SavePrediction(record *models.PredictionRecord) error
	RecentPredictions(limit int) ([]models.PredictionRecord, error)
	TotalPredictions() (int, error)
}

// NewDBClient builds the storage backend selected by the DB_TYPE environment
// variable ("sqlite" or "mongo"); SQLite is the default.
func NewDBClient() (DBClient, error) {
	dbType := strings.ToLower(utils.GetEnv("DB_TYPE", "sqlite"))

	switch dbType {
	case "mongo", "mongodb":
		return NewMongoClient(utils.GetEnv("MONGO_URI", "mongodb://localhost:27017"))
	default:
		return NewSQLiteClient(utils.GetEnv("SQLITE_DB_PATH", filepath.Join("storage", "doodlemind.db")))
	}
}
