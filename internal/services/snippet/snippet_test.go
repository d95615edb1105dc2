package snippet

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/3Eeeecho/securevoice/internal/config"
	"github.com/3Eeeecho/securevoice/internal/pkg/search"
	"github.com/3Eeeecho/securevoice/internal/pkg/storage/storagetest"
	"github.com/3Eeeecho/securevoice/internal/pkg/xerr"
	"github.com/3Eeeecho/securevoice/internal/repositories"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var snippetColumns = []string{"id", "owner_id", "blob_key", "file_name", "mime_type", "size", "duration", "title", "is_private", "created_at"}

type fakeIndex struct {
	ids     []uint64
	err     error
	indexed []search.SnippetDocument
	deleted []uint64
}

func (f *fakeIndex) EnsureIndex(ctx context.Context) error { return nil }

func (f *fakeIndex) Index(ctx context.Context, doc search.SnippetDocument) error {
	f.indexed = append(f.indexed, doc)
	return nil
}

func (f *fakeIndex) Delete(ctx context.Context, snippetID uint64) error {
	f.deleted = append(f.deleted, snippetID)
	return nil
}

func (f *fakeIndex) Search(ctx context.Context, ownerID uint64, query string, from, size int) ([]uint64, int64, error) {
	return f.ids, int64(len(f.ids)), f.err
}

type fixture struct {
	svc   SnippetService
	mock  sqlmock.Sqlmock
	store *storagetest.MemoryStorage
	index *fakeIndex
}

func newFixture(t *testing.T, withIndex bool) *fixture {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Upload = config.UploadConfig{MaxFileSize: 25 * 1024 * 1024, MaxAudioDuration: 300}

	f := &fixture{mock: mock, store: storagetest.NewMemoryStorage()}
	var idx search.SnippetIndex
	if withIndex {
		f.index = &fakeIndex{}
		idx = f.index
	}
	f.svc = NewSnippetService(
		repositories.NewSnippetRepository(db),
		repositories.NewShareRepository(db),
		repositories.NewOrphanBlobRepository(db),
		repositories.NewTransactionManager(db),
		f.store,
		idx,
		cfg,
	)
	return f
}

func validUpload() UploadInput {
	body := "fake mp3 payload"
	return UploadInput{
		Reader:      strings.NewReader(body),
		FileName:    "Memo.MP3",
		ContentType: "audio/mpeg",
		Size:        int64(len(body)),
		Title:       "  Morning memo ",
		Duration:    42,
	}
}

func (f *fixture) expectSnippetRow(id, owner uint64, private bool) {
	rows := sqlmock.NewRows(snippetColumns).
		AddRow(id, owner, "snippets/7/1_x.mp3", "memo.mp3", "audio/mpeg", 16, 42, "Morning memo", private, time.Now())
	f.mock.ExpectQuery("SELECT \\* FROM `snippets` WHERE id = \\?").WillReturnRows(rows)
}

func TestUpload_Success(t *testing.T) {
	f := newFixture(t, true)
	f.mock.ExpectExec("INSERT INTO `snippets`").WillReturnResult(sqlmock.NewResult(12, 1))

	got, err := f.svc.Upload(context.Background(), 7, validUpload())
	require.NoError(t, err)

	assert.Equal(t, uint64(12), got.ID)
	assert.Equal(t, "Morning memo", got.Title)
	assert.True(t, got.IsPrivate)
	assert.True(t, strings.HasPrefix(got.BlobKey, "snippets/7/"))
	assert.True(t, strings.HasSuffix(got.BlobKey, ".mp3"))
	assert.True(t, f.store.Has(got.BlobKey))
	require.Len(t, f.index.indexed, 1)
	assert.Equal(t, uint64(12), f.index.indexed[0].ID)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpload_DBFailureRemovesBlob(t *testing.T) {
	f := newFixture(t, false)
	f.mock.ExpectExec("INSERT INTO `snippets`").WillReturnError(errors.New("duplicate"))

	_, err := f.svc.Upload(context.Background(), 7, validUpload())
	assert.ErrorIs(t, err, xerr.ErrDatabaseError)
	assert.Zero(t, f.store.Len())
}

func TestUpload_Validation(t *testing.T) {
	f := newFixture(t, false)

	tests := []struct {
		name   string
		modify func(in *UploadInput)
		code   int
		target error
	}{
		{"short title", func(in *UploadInput) { in.Title = " ab " }, xerr.ValidationFailedCode, xerr.ErrValidationFailed},
		{"long description", func(in *UploadInput) { in.Description = strings.Repeat("d", 501) }, xerr.ValidationFailedCode, xerr.ErrValidationFailed},
		{"missing file", func(in *UploadInput) { in.Size = 0 }, xerr.ValidationFailedCode, xerr.ErrValidationFailed},
		{"too large", func(in *UploadInput) { in.Size = 26 * 1024 * 1024 }, xerr.FileTooLargeCode, xerr.ErrFileTooLarge},
		{"too long", func(in *UploadInput) { in.Duration = 301 }, xerr.AudioTooLongCode, xerr.ErrAudioTooLong},
		{"not audio", func(in *UploadInput) { in.ContentType = "image/png" }, xerr.UnsupportedMediaCode, xerr.ErrUnsupportedMedia},
		{"octet stream unencrypted", func(in *UploadInput) { in.ContentType = "application/octet-stream" }, xerr.UnsupportedMediaCode, xerr.ErrUnsupportedMedia},
		{"placeholder iv", func(in *UploadInput) {
			in.IsEncrypted = true
			in.EncryptionAlgorithm = "AES-256-GCM"
			in.EncryptionIV = "placeholder-iv"
			in.EncryptionAuthTag = strings.Repeat("ab", 16)
		}, xerr.InvalidEncryptionCode, xerr.ErrInvalidEncryption},
		{"cbc rejected", func(in *UploadInput) {
			in.IsEncrypted = true
			in.EncryptionAlgorithm = "AES-256-CBC"
			in.EncryptionIV = strings.Repeat("00", 12)
			in.EncryptionAuthTag = strings.Repeat("ab", 16)
		}, xerr.InvalidEncryptionCode, xerr.ErrInvalidEncryption},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validUpload()
			tt.modify(&in)
			_, err := f.svc.Upload(context.Background(), 7, in)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			assert.Equal(t, tt.code, xerr.CodeOf(err, 0))
		})
	}
	assert.Zero(t, f.store.Len())
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpload_EncryptedOctetStream(t *testing.T) {
	f := newFixture(t, false)
	f.mock.ExpectExec("INSERT INTO `snippets`").WillReturnResult(sqlmock.NewResult(3, 1))

	in := validUpload()
	in.ContentType = "application/octet-stream"
	in.IsEncrypted = true
	in.EncryptionAlgorithm = "aes-256-gcm"
	in.EncryptionIV = strings.Repeat("AB", 12)
	in.EncryptionAuthTag = strings.Repeat("cd", 16)

	got, err := f.svc.Upload(context.Background(), 7, in)
	require.NoError(t, err)
	assert.Equal(t, "AES-256-GCM", got.EncryptionAlgorithm)
	assert.Equal(t, strings.Repeat("ab", 12), got.EncryptionIV)
	require.NotNil(t, got.Encryption())
}

func TestGet_Visibility(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	f.expectSnippetRow(5, 7, true)
	_, err := f.svc.Get(ctx, 8, 5)
	assert.ErrorIs(t, err, xerr.ErrPermissionDenied)

	f.expectSnippetRow(5, 7, false)
	got, err := f.svc.Get(ctx, 8, 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), got.ID)

	f.mock.ExpectQuery("SELECT \\* FROM `snippets` WHERE id = \\?").WillReturnRows(sqlmock.NewRows(snippetColumns))
	_, err = f.svc.Get(ctx, 7, 6)
	assert.ErrorIs(t, err, xerr.ErrSnippetNotFound)
}

func TestDelete_CascadesAndRemovesBlob(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	_, err := f.store.PutObject(ctx, "snippets/7/1_x.mp3", strings.NewReader("abc"), 3, "audio/mpeg", nil)
	require.NoError(t, err)

	f.expectSnippetRow(5, 7, true)
	f.mock.ExpectBegin()
	f.mock.ExpectExec("DELETE FROM `share_links` WHERE snippet_id = \\?").WithArgs(5).WillReturnResult(sqlmock.NewResult(0, 3))
	f.mock.ExpectExec("DELETE FROM `snippets` WHERE id = \\?").WithArgs(5).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	require.NoError(t, f.svc.Delete(ctx, 7, 5))
	assert.False(t, f.store.Has("snippets/7/1_x.mp3"))
	assert.Equal(t, []uint64{5}, f.index.deleted)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestDelete_BlobFailureRecordsOrphan(t *testing.T) {
	f := newFixture(t, false)
	f.store.RemoveErr = errors.New("bucket unreachable")

	f.expectSnippetRow(5, 7, true)
	f.mock.ExpectBegin()
	f.mock.ExpectExec("DELETE FROM `share_links`").WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectExec("DELETE FROM `snippets`").WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()
	f.mock.ExpectExec("INSERT INTO `orphan_blobs`").WillReturnResult(sqlmock.NewResult(1, 1))

	// 对象删除失败仍然算删除成功
	require.NoError(t, f.svc.Delete(context.Background(), 7, 5))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestDelete_RollbackOnError(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	_, err := f.store.PutObject(ctx, "snippets/7/1_x.mp3", strings.NewReader("abc"), 3, "audio/mpeg", nil)
	require.NoError(t, err)

	f.expectSnippetRow(5, 7, true)
	f.mock.ExpectBegin()
	f.mock.ExpectExec("DELETE FROM `share_links`").WillReturnError(errors.New("lock wait timeout"))
	f.mock.ExpectRollback()

	err = f.svc.Delete(ctx, 7, 5)
	assert.ErrorIs(t, err, xerr.ErrDatabaseError)
	assert.True(t, f.store.Has("snippets/7/1_x.mp3"))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestDelete_NotOwner(t *testing.T) {
	f := newFixture(t, false)
	f.expectSnippetRow(5, 7, false)

	err := f.svc.Delete(context.Background(), 8, 5)
	assert.ErrorIs(t, err, xerr.ErrPermissionDenied)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpdate_ValidatesTitle(t *testing.T) {
	f := newFixture(t, false)
	f.expectSnippetRow(5, 7, true)

	short := "no"
	_, err := f.svc.Update(context.Background(), 7, 5, UpdateInput{Title: &short})
	assert.ErrorIs(t, err, xerr.ErrValidationFailed)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSearch_UsesIndexThenFallsBack(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	f.index.ids = []uint64{5}
	f.mock.ExpectQuery("SELECT \\* FROM `snippets` WHERE id IN").
		WillReturnRows(sqlmock.NewRows(snippetColumns).AddRow(5, 7, "k", "a.mp3", "audio/mpeg", 1, 1, "eggs", true, time.Now()))
	got, total, err := f.svc.Search(ctx, 7, "eggs", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, got, 1)

	f.index.err = errors.New("cluster red")
	f.mock.ExpectQuery("SELECT count\\(\\*\\) FROM `snippets`").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	f.mock.ExpectQuery("SELECT \\* FROM `snippets` WHERE owner_id = \\?").WillReturnRows(sqlmock.NewRows(snippetColumns))
	_, total, err = f.svc.Search(ctx, 7, "eggs", 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)

	_, _, err = f.svc.Search(ctx, 7, "   ", 1, 10)
	assert.ErrorIs(t, err, xerr.ErrValidationFailed)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}
