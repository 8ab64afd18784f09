package db

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"doodlemind/models"
	"doodlemind/utils"

	_ "github.com/mattn/go-sqlite3" // SQLite driver registration
)

type SQLiteClient struct {
	db *sql.DB
}

// NewSQLiteClient opens (creating if needed) the prediction history database.
func NewSQLiteClient(dataSourceName string) (*SQLiteClient, error) {
	// Extract the file path before query parameters
	dbPath := dataSourceName
	if idx := strings.Index(dataSourceName, "?"); idx != -1 {
		dbPath = dataSourceName[:idx]
	}

	dbDir := filepath.Dir(dbPath)
	if dbDir != "." && dbDir != "" {
		if err := utils.CreateFolder(dbDir); err != nil {
			return nil, fmt.Errorf("error creating database directory: %s", err)
		}
	}

	// Add busy timeout param to DSN (milliseconds)
	if !strings.Contains(dataSourceName, "_busy_timeout") {
		if strings.Contains(dataSourceName, "?") {
			dataSourceName += "&_busy_timeout=5000"
		} else {
			dataSourceName += "?_busy_timeout=5000"
		}
	}

	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("error connecting to SQLite: %s", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("error creating tables: %s", err)
	}

	return &SQLiteClient{db: db}, nil
}

func createTables(db *sql.DB) error {
	createPredictionsTable := `
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        session_id TEXT,
        label TEXT NOT NULL,
        confidence REAL NOT NULL DEFAULT 0,
        alternatives TEXT,
        stroke_count INTEGER NOT NULL DEFAULT 0,
        point_count INTEGER NOT NULL DEFAULT 0,
        latency_ms REAL NOT NULL DEFAULT 0,
        narration_path TEXT
    );
    CREATE INDEX IF NOT EXISTS idx_predictions_timestamp ON predictions(timestamp);
    CREATE INDEX IF NOT EXISTS idx_predictions_session ON predictions(session_id);
    `

	_, err := db.Exec(createPredictionsTable)
	if err != nil {
		return fmt.Errorf("error creating predictions table: %s", err)
	}

	return nil
}

func (s *SQLiteClient) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteClient) SavePrediction(record *models.PredictionRecord) error {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	result, err := s.db.Exec(
		`INSERT INTO predictions
		 (timestamp, session_id, label, confidence, alternatives, stroke_count, point_count, latency_ms, narration_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.Timestamp,
		record.SessionID,
		record.Label,
		record.Confidence,
		string(record.Alternatives),
		record.StrokeCount,
		record.PointCount,
		record.LatencyMs,
		record.NarrationPath,
	)
	if err != nil {
		return fmt.Errorf("error inserting prediction: %s", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		record.ID = id
	}

	return nil
}

func (s *SQLiteClient) RecentPredictions(limit int) ([]models.PredictionRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(
		`SELECT id, timestamp, session_id, label, confidence, alternatives,
		        stroke_count, point_count, latency_ms, narration_path
		 FROM predictions ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying predictions: %s", err)
	}
	defer rows.Close()

	var records []models.PredictionRecord
	for rows.Next() {
		var record models.PredictionRecord
		var alternatives string
		if err := rows.Scan(
			&record.ID,
			&record.Timestamp,
			&record.SessionID,
			&record.Label,
			&record.Confidence,
			&alternatives,
			&record.StrokeCount,
			&record.PointCount,
			&record.LatencyMs,
			&record.NarrationPath,
		); err != nil {
			return nil, fmt.Errorf("error scanning prediction row: %s", err)
		}
		if alternatives != "" {
			record.Alternatives = []byte(alternatives)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

func (s *SQLiteClient) TotalPredictions() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM predictions").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting predictions: %s", err)
	}
	return count, nil
}
