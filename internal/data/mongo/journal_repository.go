// Package mongo archives journal outcomes in MongoDB for the read side of the gateway.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/accounting-ledger/internal/domain/journal"
	"github.com/accounting-ledger/internal/domain/shared"
)

const (
	// JournalCollectionName is the name of the journal archive collection in MongoDB
	JournalCollectionName = "journal_entries"
)

// JournalRepository implements the journal.Repository interface for MongoDB
type JournalRepository struct {
	db     *mongo.Database
	logger *slog.Logger
	clock  func() time.Time
}

// NewJournalRepository creates a new MongoDB journal archive repository
func NewJournalRepository(logger *slog.Logger, db *mongo.Database) *JournalRepository {
	return &JournalRepository{
		db:     db,
		logger: logger,
		clock:  time.Now,
	}
}

// EnsureIndexes creates the unique journal id index the duplicate check relies on
func (r *JournalRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(JournalCollectionName)

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "journal_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "ledger_id", Value: 1}, {Key: "submitted_at", Value: -1}},
		},
	})
	if err != nil {
		r.logger.Error("Failed to create journal archive indexes", "error", err)
		return fmt.Errorf("failed to create journal archive indexes: %w", err)
	}
	return nil
}

// Create archives an entry. Returns ErrDuplicateEntry if the journal is already archived.
func (r *JournalRepository) Create(ctx context.Context, entry *journal.Entry) error {
	collection := r.db.Collection(JournalCollectionName)

	_, err := collection.InsertOne(ctx, entry)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return journal.ErrDuplicateEntry{JournalID: entry.JournalID}
		}
		r.logger.Error("Failed to create journal entry",
			"journal_id", entry.JournalID.String(),
			"error", err)
		return fmt.Errorf("failed to create journal entry: %w", err)
	}

	return nil
}

// Replace overwrites the entry of the journal, inserting it when absent
func (r *JournalRepository) Replace(ctx context.Context, entry *journal.Entry) error {
	collection := r.db.Collection(JournalCollectionName)

	filter := bson.M{"journal_id": entry.JournalID}
	_, err := collection.ReplaceOne(ctx, filter, entry, options.Replace().SetUpsert(true))
	if err != nil {
		r.logger.Error("Failed to replace journal entry",
			"journal_id", entry.JournalID.String(),
			"error", err)
		return fmt.Errorf("failed to replace journal entry: %w", err)
	}

	return nil
}

// GetByJournalID retrieves an archived entry.
// Returns ErrEntryNotFound if the journal was never archived.
func (r *JournalRepository) GetByJournalID(ctx context.Context, journalID uuid.UUID) (*journal.Entry, error) {
	collection := r.db.Collection(JournalCollectionName)

	filter := bson.M{"journal_id": journalID}
	var entry journal.Entry
	err := collection.FindOne(ctx, filter).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, journal.ErrEntryNotFound{JournalID: journalID}
		}
		r.logger.Error("Failed to get journal entry",
			"journal_id", journalID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get journal entry: %w", err)
	}

	return &entry, nil
}

// GetByLedgerID retrieves paginated entries of a ledger, newest submission first
func (r *JournalRepository) GetByLedgerID(ctx context.Context, ledgerID int64, limit, offset int) ([]*journal.Entry, error) {
	collection := r.db.Collection(JournalCollectionName)

	filter := bson.M{"ledger_id": ledgerID}
	opts := options.Find().
		SetSort(bson.D{{Key: "submitted_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get journal entries",
			"ledger_id", ledgerID,
			"error", err)
		return nil, fmt.Errorf("failed to get journal entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*journal.Entry
	if err := cursor.All(ctx, &entries); err != nil {
		r.logger.Error("Failed to decode journal entries",
			"ledger_id", ledgerID,
			"error", err)
		return nil, fmt.Errorf("failed to decode journal entries: %w", err)
	}

	return entries, nil
}

// CountByLedgerID counts the archived entries of a ledger
func (r *JournalRepository) CountByLedgerID(ctx context.Context, ledgerID int64) (int64, error) {
	collection := r.db.Collection(JournalCollectionName)

	count, err := collection.CountDocuments(ctx, bson.M{"ledger_id": ledgerID})
	if err != nil {
		r.logger.Error("Failed to count journal entries",
			"ledger_id", ledgerID,
			"error", err)
		return 0, fmt.Errorf("failed to count journal entries: %w", err)
	}

	return count, nil
}

// UpdateStatus sets the entry's status, failure reason and processed timestamp.
// Returns ErrEntryNotFound if the entry doesn't exist.
func (r *JournalRepository) UpdateStatus(ctx context.Context, journalID uuid.UUID, status shared.JournalStatus, reason string) error {
	collection := r.db.Collection(JournalCollectionName)

	filter := bson.M{"journal_id": journalID}
	update := bson.M{
		"$set": bson.M{
			"status":         status,
			"failure_reason": reason,
			"processed_at":   r.clock(),
		},
	}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		r.logger.Error("Failed to update journal entry status",
			"journal_id", journalID.String(),
			"status", string(status),
			"error", err)
		return fmt.Errorf("failed to update journal entry status: %w", err)
	}

	if result.MatchedCount == 0 {
		return journal.ErrEntryNotFound{JournalID: journalID}
	}

	return nil
}
