package persistence

import (
	"context"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// psql построитель запросов с плейсхолдерами $1, $2...
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// executor общий интерфейс *sqlx.DB и *sqlx.Tx.
type executor interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

type txKey struct{}

// getExecutor возвращает транзакцию из контекста, если она есть, иначе пул.
func getExecutor(ctx context.Context, db *sqlx.DB) executor {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok && tx != nil {
		return tx
	}
	return db
}

func withTx(ctx context.Context, tx *sqlx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// get выполняет собранный запрос и сканирует одну строку.
func get(ctx context.Context, db *sqlx.DB, dest interface{}, b squirrel.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	return getExecutor(ctx, db).GetContext(ctx, dest, query, args...)
}

func selectAll(ctx context.Context, db *sqlx.DB, dest interface{}, b squirrel.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	return getExecutor(ctx, db).SelectContext(ctx, dest, query, args...)
}

func exec(ctx context.Context, db *sqlx.DB, b squirrel.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	res, err := getExecutor(ctx, db).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// escapeLike экранирует спецсимволы шаблона LIKE.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
