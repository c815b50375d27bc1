// Package repository implements the data access layer: the persistent
// counter store and the cursor-paginated feed query.
package repository

import (
	"errors"
	"strings"

	"network/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// translateError maps storage errors onto the AppError taxonomy. AppErrors
// raised inside a transaction pass through unchanged.
func translateError(err error, resource string, id any) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, gorm.ErrRecordNotFound) || isForeignKeyError(err) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// isForeignKeyError reports a child row written against a parent that no
// longer exists.
func isForeignKeyError(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == foreignKeyViolation
	}
	// SQLite: "FOREIGN KEY constraint failed"
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint")
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	msg := strings.ToLower(err.Error())
	// SQLite: "UNIQUE constraint failed"
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint")
}

// addColumn applies an atomic delta to a counter column. It never reads the
// current value into Go.
func addColumn(tx *gorm.DB, model any, id uint, column string, delta int) error {
	return tx.Model(model).Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta)).Error
}

// subtractColumn decrements a counter without taking it below zero.
func subtractColumn(tx *gorm.DB, model any, id uint, column string) error {
	return tx.Model(model).Where("id = ? AND "+column+" > 0", id).
		UpdateColumn(column, gorm.Expr(column+" - ?", 1)).Error
}

// sharePost checks the post exists and holds a share lock on its row until
// the transaction ends. Concurrent likes and comments share the lock; Delete
// waits for them.
func sharePost(tx *gorm.DB, postID uint) error {
	var post models.Post
	return tx.Clauses(clause.Locking{Strength: "SHARE"}).
		Select("id").Take(&post, postID).Error
}

// bumpPostCounter applies delta to one post counter and advances
// counter_version in the same statement. A decrement never takes the
// counter below zero.
func bumpPostCounter(tx *gorm.DB, postID uint, column string, delta int) error {
	q := tx.Model(&models.Post{}).Where("id = ?", postID)
	if delta < 0 {
		q = q.Where(column + " > 0")
	}
	return q.UpdateColumns(map[string]any{
		column:            gorm.Expr(column+" + ?", delta),
		"counter_version": gorm.Expr("counter_version + 1"),
	}).Error
}

// readCounter reads one post counter column with the version it was
// committed at. A missing row is gorm.ErrRecordNotFound, never a zero count.
func readCounter(tx *gorm.DB, postID uint, column string) (count, version int64, err error) {
	var row struct {
		Counter int64
		Version int64
	}
	err = tx.Model(&models.Post{}).Select(column+" AS counter, counter_version AS version").
		Where("id = ?", postID).Take(&row).Error
	return row.Counter, row.Version, err
}
