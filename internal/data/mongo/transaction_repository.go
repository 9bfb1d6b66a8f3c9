// Package mongo provides the MongoDB implementation of the transaction
// record store. Records are the append-only history of every money
// movement; amounts are stored as decimal strings so no precision is
// lost across the wire.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bank-core-ledger/internal/domain/money"
	"github.com/bank-core-ledger/internal/domain/shared"
	"github.com/bank-core-ledger/internal/domain/transaction"
)

const (
	// TransactionCollectionName is the name of the transaction records
	// collection in MongoDB
	TransactionCollectionName = "transaction_records"
)

// transactionDocument is the persisted shape of a transaction record.
// UUIDs and amounts are stored as strings.
type transactionDocument struct {
	TransactionID   string     `bson:"transaction_id"`
	FromAccountID   *string    `bson:"from_account_id,omitempty"`
	ToAccountID     *string    `bson:"to_account_id,omitempty"`
	Type            string     `bson:"type"`
	Amount          string     `bson:"amount"`
	FeeAmount       string     `bson:"fee_amount"`
	ExchangeRate    string     `bson:"exchange_rate"`
	Currency        string     `bson:"currency"`
	Description     string     `bson:"description,omitempty"`
	Status          string     `bson:"status"`
	ReferenceNumber string     `bson:"reference_number,omitempty"`
	IdempotencyKey  string     `bson:"idempotency_key,omitempty"`
	CorrelationID   string     `bson:"correlation_id,omitempty"`
	FailureReason   string     `bson:"failure_reason,omitempty"`
	TransactionDate time.Time  `bson:"transaction_date"`
	ProcessedAt     *time.Time `bson:"processed_at,omitempty"`
	ProcessedBy     *string    `bson:"processed_by,omitempty"`
}

// TransactionRepository implements the transaction.Repository interface
// for MongoDB
type TransactionRepository struct {
	db     *mongo.Database
	logger *slog.Logger
	clock  shared.Clock
}

// NewTransactionRepository creates a new MongoDB transaction repository
func NewTransactionRepository(logger *slog.Logger, db *mongo.Database, clock shared.Clock) transaction.Repository {
	return &TransactionRepository{
		db:     db,
		logger: logger,
		clock:  clock,
	}
}

// Create stores a new transaction record after checking for duplicates.
// Returns ErrDuplicateTransaction if a record with the same ID exists.
func (r *TransactionRepository) Create(ctx context.Context, txn *transaction.Transaction) error {
	collection := r.db.Collection(TransactionCollectionName)

	existing, err := r.GetByID(ctx, txn.ID)
	if err != nil && !errors.Is(err, transaction.ErrTransactionNotFound{}) {
		r.logger.Error("Failed to check for existing transaction record",
			"transaction_id", txn.ID.String(),
			"error", err)
		return fmt.Errorf("failed to check for existing transaction record: %w", err)
	}

	if existing != nil {
		return transaction.ErrDuplicateTransaction{TransactionID: txn.ID}
	}

	_, err = collection.InsertOne(ctx, toDocument(txn))
	if err != nil {
		r.logger.Error("Failed to create transaction record",
			"transaction_id", txn.ID.String(),
			"error", err)
		return fmt.Errorf("failed to create transaction record: %w", err)
	}

	return nil
}

// GetByID retrieves a transaction record by its ID.
// Returns ErrTransactionNotFound if no record exists.
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	collection := r.db.Collection(TransactionCollectionName)

	filter := bson.M{"transaction_id": id.String()}
	var doc transactionDocument
	err := collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, transaction.ErrTransactionNotFound{TransactionID: id}
		}
		r.logger.Error("Failed to get transaction record",
			"transaction_id", id.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get transaction record: %w", err)
	}

	return fromDocument(&doc)
}

// GetByIdempotencyKey retrieves a record using its idempotency key.
// Returns nil if no record exists, enabling idempotent processing.
func (r *TransactionRepository) GetByIdempotencyKey(ctx context.Context, idempotencyKey string) (*transaction.Transaction, error) {
	if idempotencyKey == "" {
		return nil, errors.New("idempotency key cannot be empty")
	}

	collection := r.db.Collection(TransactionCollectionName)

	filter := bson.M{"idempotency_key": idempotencyKey}
	var doc transactionDocument
	err := collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil // No record found with this idempotency key
		}
		r.logger.Error("Failed to get transaction record by idempotency key",
			"idempotency_key", idempotencyKey,
			"error", err)
		return nil, fmt.Errorf("failed to get transaction record by idempotency key: %w", err)
	}

	return fromDocument(&doc)
}

// GetByAccount retrieves paginated records touching the account on
// either side, newest first.
func (r *TransactionRepository) GetByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*transaction.Transaction, error) {
	collection := r.db.Collection(TransactionCollectionName)

	filter := accountFilter(accountID)
	opts := options.Find().
		SetSort(bson.M{"transaction_date": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get transaction records",
			"account_id", accountID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get transaction records: %w", err)
	}
	defer cursor.Close(ctx)

	return r.collectRecords(ctx, cursor)
}

// CountByAccount counts the records touching the account on either side
func (r *TransactionRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	collection := r.db.Collection(TransactionCollectionName)

	count, err := collection.CountDocuments(ctx, accountFilter(accountID))
	if err != nil {
		r.logger.Error("Failed to count transaction records",
			"account_id", accountID.String(),
			"error", err)
		return 0, fmt.Errorf("failed to count transaction records: %w", err)
	}

	return count, nil
}

// UpdateStatus updates the record's status, failure reason, and
// processed timestamp. Returns ErrTransactionNotFound if the record
// doesn't exist.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status shared.TransactionStatus, reason string) error {
	collection := r.db.Collection(TransactionCollectionName)

	filter := bson.M{"transaction_id": id.String()}
	update := bson.M{
		"$set": bson.M{
			"status":         string(status),
			"failure_reason": reason,
			"processed_at":   r.clock.Now(),
		},
	}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		r.logger.Error("Failed to update transaction record status",
			"transaction_id", id.String(),
			"status", string(status),
			"error", err)
		return fmt.Errorf("failed to update transaction record status: %w", err)
	}

	if result.MatchedCount == 0 {
		return transaction.ErrTransactionNotFound{TransactionID: id}
	}

	return nil
}

// GetByTimeRange retrieves paginated records within the time window,
// newest first.
func (r *TransactionRepository) GetByTimeRange(ctx context.Context, startTime, endTime time.Time, limit, offset int) ([]*transaction.Transaction, error) {
	collection := r.db.Collection(TransactionCollectionName)

	filter := bson.M{
		"transaction_date": bson.M{
			"$gte": startTime,
			"$lte": endTime,
		},
	}
	opts := options.Find().
		SetSort(bson.M{"transaction_date": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get transaction records by time range",
			"start_time", startTime,
			"end_time", endTime,
			"error", err)
		return nil, fmt.Errorf("failed to get transaction records by time range: %w", err)
	}
	defer cursor.Close(ctx)

	return r.collectRecords(ctx, cursor)
}

func (r *TransactionRepository) collectRecords(ctx context.Context, cursor *mongo.Cursor) ([]*transaction.Transaction, error) {
	var docs []*transactionDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode transaction records", "error", err)
		return nil, fmt.Errorf("failed to decode transaction records: %w", err)
	}

	records := make([]*transaction.Transaction, 0, len(docs))
	for _, doc := range docs {
		txn, err := fromDocument(doc)
		if err != nil {
			return nil, err
		}
		records = append(records, txn)
	}

	return records, nil
}

func accountFilter(accountID uuid.UUID) bson.M {
	id := accountID.String()
	return bson.M{
		"$or": []bson.M{
			{"from_account_id": id},
			{"to_account_id": id},
		},
	}
}

func toDocument(txn *transaction.Transaction) *transactionDocument {
	return &transactionDocument{
		TransactionID:   txn.ID.String(),
		FromAccountID:   uuidString(txn.FromAccountID),
		ToAccountID:     uuidString(txn.ToAccountID),
		Type:            string(txn.Type),
		Amount:          txn.Amount.String(),
		FeeAmount:       txn.FeeAmount.String(),
		ExchangeRate:    txn.ExchangeRate.String(),
		Currency:        txn.Currency,
		Description:     txn.Description,
		Status:          string(txn.Status),
		ReferenceNumber: txn.ReferenceNumber,
		IdempotencyKey:  txn.IdempotencyKey,
		CorrelationID:   txn.CorrelationID,
		FailureReason:   txn.FailureReason,
		TransactionDate: txn.TransactionDate,
		ProcessedAt:     txn.ProcessedAt,
		ProcessedBy:     uuidString(txn.ProcessedBy),
	}
}

func fromDocument(doc *transactionDocument) (*transaction.Transaction, error) {
	id, err := uuid.Parse(doc.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction id in record: %w", err)
	}

	fromID, err := parseUUIDPtr(doc.FromAccountID)
	if err != nil {
		return nil, fmt.Errorf("invalid from account id in record: %w", err)
	}
	toID, err := parseUUIDPtr(doc.ToAccountID)
	if err != nil {
		return nil, fmt.Errorf("invalid to account id in record: %w", err)
	}
	processedBy, err := parseUUIDPtr(doc.ProcessedBy)
	if err != nil {
		return nil, fmt.Errorf("invalid processor id in record: %w", err)
	}

	amount, err := money.FromString(doc.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount in record: %w", err)
	}
	fee, err := money.FromString(doc.FeeAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid fee amount in record: %w", err)
	}
	rate, err := decimal.NewFromString(doc.ExchangeRate)
	if err != nil {
		return nil, fmt.Errorf("invalid exchange rate in record: %w", err)
	}

	return &transaction.Transaction{
		ID:              id,
		FromAccountID:   fromID,
		ToAccountID:     toID,
		Type:            shared.TransactionType(doc.Type),
		Amount:          amount,
		FeeAmount:       fee,
		ExchangeRate:    rate,
		Currency:        doc.Currency,
		Description:     doc.Description,
		Status:          shared.TransactionStatus(doc.Status),
		ReferenceNumber: doc.ReferenceNumber,
		IdempotencyKey:  doc.IdempotencyKey,
		CorrelationID:   doc.CorrelationID,
		FailureReason:   doc.FailureReason,
		TransactionDate: doc.TransactionDate,
		ProcessedAt:     doc.ProcessedAt,
		ProcessedBy:     processedBy,
	}, nil
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func parseUUIDPtr(s *string) (*uuid.UUID, error) {
	if s == nil {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
