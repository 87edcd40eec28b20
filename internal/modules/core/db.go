package core

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

type TransactionOption func(*sql.TxOptions)

func WithIsolationLevel(isolationLevel sql.IsolationLevel) TransactionOption {
	return func(opts *sql.TxOptions) {
		opts.Isolation = isolationLevel
	}
}

func ReadOnly() TransactionOption {
	return func(opts *sql.TxOptions) {
		opts.ReadOnly = true
	}
}

// Tx runs transaction inside a database transaction, rolling back on
// error or panic.
func Tx(
	ctx context.Context,
	db *sql.DB,
	transaction func(context.Context, *sql.Tx) error,
	opts ...TransactionOption,
) (err error) {
	options := sql.TxOptions{}

	for _, opt := range opts {
		opt(&options)
	}

	tx, err := db.BeginTx(ctx, &options)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("transaction panicked with: %v", r)
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				err = errors.Wrap(err, rollbackErr.Error())
			}
		}
	}()

	if err = transaction(ctx, tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return errors.Wrap(err, rollbackErr.Error())
		}
		return err
	}

	return errors.Wrap(tx.Commit(), "commit transaction")
}
