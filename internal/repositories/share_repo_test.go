package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

var shareLinkColumns = []string{
	"id", "share_id", "snippet_id", "created_by", "expires_at", "max_plays",
	"current_plays", "last_accessed", "access_key_hash", "is_active", "created_at", "updated_at",
}

const consumePlaySQL = "UPDATE `share_links` SET .*`current_plays`=current_plays \\+ \\?.*WHERE id = \\? AND is_active = \\? AND expires_at > \\? AND current_plays < max_plays"

func TestShareRepository_ConsumePlay(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "play consumed", affected: 1, want: true},
		{name: "link no longer usable", affected: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewShareRepository(db)

			mock.ExpectExec(consumePlaySQL).WillReturnResult(sqlmock.NewResult(0, tt.affected))

			ok, err := repo.ConsumePlay(context.Background(), 7, time.Now())
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestShareRepository_ConsumePlay_DBError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewShareRepository(db)

	mock.ExpectExec(consumePlaySQL).WillReturnError(errors.New("db down"))

	ok, err := repo.ConsumePlay(context.Background(), 7, time.Now())
	assert.False(t, ok)
	assert.ErrorContains(t, err, "db down")
}

func TestShareRepository_FindByShareID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewShareRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows(shareLinkColumns).
		AddRow(3, "deadbeef", 11, 2, now.Add(time.Hour), 5, 1, nil, nil, true, now, now)
	mock.ExpectQuery("SELECT \\* FROM `share_links` WHERE share_id = \\?").
		WillReturnRows(rows)

	link, err := repo.FindByShareID(context.Background(), "deadbeef")
	require.NoError(t, err)
	require.NotNil(t, link)
	assert.Equal(t, uint64(11), link.SnippetID)
	assert.Equal(t, 4, link.PlaysRemaining())
	assert.False(t, link.RequiresKey())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShareRepository_FindByShareID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewShareRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `share_links` WHERE share_id = \\?").
		WillReturnRows(sqlmock.NewRows(shareLinkColumns))

	link, err := repo.FindByShareID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, link)
}

func TestShareRepository_DeleteBySnippetID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewShareRepository(db)

	mock.ExpectExec("DELETE FROM `share_links` WHERE snippet_id = \\?").
		WithArgs(11).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteBySnippetID(db, 11)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShareRepository_Deactivate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewShareRepository(db)

	mock.ExpectExec("UPDATE `share_links` SET `is_active`=\\?.*WHERE id = \\?").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Deactivate(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}
