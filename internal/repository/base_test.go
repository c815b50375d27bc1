package repository

import (
	"errors"
	"fmt"
	"testing"

	"network/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsUniqueConstraintError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm duplicated key", gorm.ErrDuplicatedKey, true},
		{"postgres unique violation", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), true},
		{"postgres foreign key violation", &pgconn.PgError{Code: "23503", Message: "violates unique-ish naming"}, false},
		{"sqlite", errors.New("UNIQUE constraint failed: users.username"), true},
		{"other", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueConstraintError(tt.err))
		})
	}
}

func TestIsForeignKeyError(t *testing.T) {
	assert.True(t, isForeignKeyError(gorm.ErrForeignKeyViolated))
	assert.True(t, isForeignKeyError(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"})))
	assert.True(t, isForeignKeyError(errors.New("FOREIGN KEY constraint failed")))
	assert.False(t, isForeignKeyError(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isForeignKeyError(errors.New("connection refused")))
}

func TestTranslateError(t *testing.T) {
	assert.NoError(t, translateError(nil, "post", 1))

	notFound := translateError(gorm.ErrRecordNotFound, "post", 7)
	var appErr *models.AppError
	if assert.ErrorAs(t, notFound, &appErr) {
		assert.Equal(t, 404, appErr.Status())
	}

	orphan := translateError(&pgconn.PgError{Code: "23503"}, "Post", 7)
	assert.True(t, models.IsCode(orphan, models.CodeNotFound))

	original := models.NewUnauthorizedError("nope")
	assert.Same(t, original, translateError(fmt.Errorf("tx: %w", original), "post", 1))
}
