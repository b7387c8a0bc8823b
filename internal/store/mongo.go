package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/pkg/config"
	"github.com/wonny/tradelens/backend/pkg/logger"
)

// Mongo stores holdings in a MongoDB collection (legacy and current documents side by side)
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *logger.Logger
	now    func() time.Time
}

// NewMongo connects, pings the primary and returns the store
func NewMongo(ctx context.Context, cfg config.MongoConfig, log *logger.Logger) (*Mongo, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URL).
		SetMinPoolSize(cfg.MinPoolSize).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetConnectTimeout(timeout)

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"database":   cfg.Database,
		"collection": cfg.Collection,
	}).Info("MongoDB connected")

	return &Mongo{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		logger: log,
		now:    time.Now,
	}, nil
}

// FindByUser returns every journal entry for the user, newest first
func (m *Mongo) FindByUser(ctx context.Context, userID string) (contracts.Portfolio, error) {
	return m.find(ctx, bson.M{"userId": userID})
}

// FindActiveByUser returns open positions
func (m *Mongo) FindActiveByUser(ctx context.Context, userID string) (contracts.Portfolio, error) {
	return m.find(ctx, bson.M{"userId": userID, "status": string(contracts.StatusActive)})
}

// FindClosedByUser returns closed positions
func (m *Mongo) FindClosedByUser(ctx context.Context, userID string) (contracts.Portfolio, error) {
	return m.find(ctx, bson.M{"userId": userID, "status": string(contracts.StatusClosed)})
}

func (m *Mongo) find(ctx context.Context, filter bson.M) (contracts.Portfolio, error) {
	cur, err := m.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find holdings: %w", err)
	}
	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("decode holdings: %w", err)
	}

	docs := make([]Document, len(raw))
	for i, r := range raw {
		docs[i] = Document(r)
	}
	return NormalizeAll(docs, m.now()), nil
}

// FindByID returns one of the user's holdings
func (m *Mongo) FindByID(ctx context.Context, userID, id string) (*contracts.Holding, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, contracts.ErrInvalidHoldingID
	}

	var raw bson.M
	err = m.coll.FindOne(ctx, bson.M{"_id": oid, "userId": userID}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, contracts.ErrHoldingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find holding %s: %w", id, err)
	}

	h := NormalizeDocument(Document(raw), m.now())
	return &h, nil
}

// Insert writes a new ACTIVE position and sets h.ID
func (m *Mongo) Insert(ctx context.Context, h *contracts.Holding) error {
	doc := bson.M{
		"userId":      h.UserID,
		"symbol":      h.Symbol,
		"type":        string(h.Type),
		"entryPrice":  h.EntryPrice,
		"quantity":    h.Quantity,
		"exchange":    h.Exchange,
		"reason":      h.Reason,
		"status":      string(h.Status),
		"exitPrice":   nil,
		"entryDate":   h.Date,
		"exitDate":    nil,
		"realizedPnL": nil,
		"createdAt":   h.CreatedAt,
	}

	res, err := m.coll.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert holding: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		h.ID = oid.Hex()
	}
	return nil
}

// MarkClosed closes an ACTIVE position
// pl is written alongside realizedPnL so legacy readers still see the result.
func (m *Mongo) MarkClosed(ctx context.Context, userID, id string, exitPrice, pnl float64, exitDate time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return contracts.ErrInvalidHoldingID
	}

	res, err := m.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "userId": userID, "status": string(contracts.StatusActive)},
		bson.M{"$set": bson.M{
			"status":      string(contracts.StatusClosed),
			"exitPrice":   exitPrice,
			"exitDate":    exitDate,
			"realizedPnL": pnl,
			"pl":          pnl,
		}},
	)
	if err != nil {
		return fmt.Errorf("close holding %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return contracts.ErrHoldingNotActive
	}
	return nil
}

// Ping checks the primary is reachable
func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// Shutdown disconnects the client
func (m *Mongo) Shutdown(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
