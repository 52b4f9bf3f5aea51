package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// WithTransaction function:
//     Start session từ client
//     session.WithTransaction tự động commit nếu fn return nil,
//     abort nếu fn return error, và retry khi gặp TransientTransactionError
//     fn nhận context đã gắn session → mọi collection call dùng ctx này
//     đều nằm trong transaction

// TxFunc là function type được execute trong transaction.
// ctx truyền vào fn mang theo session, repositories phải dùng đúng ctx này.
type TxFunc func(ctx context.Context) error

// TxManager wraps multi-document mutations in a store transaction.
type TxManager interface {
	WithTransaction(ctx context.Context, fn TxFunc) error
}

// MongoTxManager runs fn inside a MongoDB session transaction.
// Requires a replica set or sharded cluster.
type MongoTxManager struct {
	client *mongo.Client
}

func NewMongoTxManager(client *mongo.Client) *MongoTxManager {
	return &MongoTxManager{client: client}
}

// WithTransaction wraps một function trong transaction
// Auto abort nếu có error, auto commit nếu success
func (m *MongoTxManager) WithTransaction(ctx context.Context, fn TxFunc) error {
	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	if err != nil {
		return err
	}

	return nil
}

// SequentialTxManager runs fn directly. Used when the deployment is a
// standalone mongod without transaction support, and in tests.
type SequentialTxManager struct{}

func (SequentialTxManager) WithTransaction(ctx context.Context, fn TxFunc) error {
	return fn(ctx)
}

// WithTransactionResult wraps function có return value trong transaction
func WithTransactionResult[T any](ctx context.Context, tx TxManager, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T

	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		var fnErr error
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		var zero T
		return zero, err
	}

	return result, nil
}
