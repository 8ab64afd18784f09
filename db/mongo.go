package db

import (
	"context"
	"fmt"
	"time"

	"doodlemind/models"
	"doodlemind/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoClient struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoClient connects to MongoDB and verifies the connection.
func NewMongoClient(uri string) (*MongoClient, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("error connecting to MongoDB: %s", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("error pinging MongoDB: %s", err)
	}

	dbName := utils.GetEnv("MONGO_DB_NAME", "doodlemind")
	return &MongoClient{client: client, db: client.Database(dbName)}, nil
}

func (m *MongoClient) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (m *MongoClient) predictions() *mongo.Collection {
	return m.db.Collection("predictions")
}

func (m *MongoClient) SavePrediction(record *models.PredictionRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if record.ID == 0 {
		record.ID = time.Now().UnixNano()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	doc := bson.M{
		"_id":           record.ID,
		"timestamp":     record.Timestamp,
		"sessionId":     record.SessionID,
		"label":         record.Label,
		"confidence":    record.Confidence,
		"alternatives":  string(record.Alternatives),
		"strokeCount":   record.StrokeCount,
		"pointCount":    record.PointCount,
		"latencyMs":     record.LatencyMs,
		"narrationPath": record.NarrationPath,
	}

	if _, err := m.predictions().InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("error inserting prediction: %s", err)
	}

	return nil
}

func (m *MongoClient) RecentPredictions(limit int) ([]models.PredictionRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := m.predictions().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error querying predictions: %s", err)
	}
	defer cursor.Close(ctx)

	var records []models.PredictionRecord
	for cursor.Next(ctx) {
		var doc struct {
			ID            int64     `bson:"_id"`
			Timestamp     time.Time `bson:"timestamp"`
			SessionID     string    `bson:"sessionId"`
			Label         string    `bson:"label"`
			Confidence    float64   `bson:"confidence"`
			Alternatives  string    `bson:"alternatives"`
			StrokeCount   int       `bson:"strokeCount"`
			PointCount    int       `bson:"pointCount"`
			LatencyMs     float64   `bson:"latencyMs"`
			NarrationPath string    `bson:"narrationPath"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("error decoding prediction: %s", err)
		}

		record := models.PredictionRecord{
			ID:            doc.ID,
			Timestamp:     doc.Timestamp,
			SessionID:     doc.SessionID,
			Label:         doc.Label,
			Confidence:    doc.Confidence,
			StrokeCount:   doc.StrokeCount,
			PointCount:    doc.PointCount,
			LatencyMs:     doc.LatencyMs,
			NarrationPath: doc.NarrationPath,
		}
		if doc.Alternatives != "" {
			record.Alternatives = []byte(doc.Alternatives)
		}
		records = append(records, record)
	}

	return records, cursor.Err()
}

func (m *MongoClient) TotalPredictions() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := m.predictions().CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("error counting predictions: %s", err)
	}
	return int(count), nil
}
