package words

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/lexibot/core/database"
	"github.com/m3rciful/lexibot/migrations"
)

func newSQLiteStore(t *testing.T) *Store {
	t.Helper()
	cfg := database.Config{Driver: database.DriverSQLite, Path: filepath.Join(t.TempDir(), "words.db")}
	require.NoError(t, cfg.Normalize())
	require.NoError(t, database.RunMigrations(cfg, migrations.FS()))

	db, err := database.Connect(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db)
}

func wordsOf(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Word
	}
	return out
}

func TestStoreListAllSortedOrdinal(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	for _, w := range []string{"cherry", "Banana", "apple", "Zebra", "book"} {
		require.NoError(t, s.Insert(ctx, 1, Entry{Word: w, PartOfSpeech: Noun}))
	}

	got, err := s.ListAll(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Banana", "Zebra", "apple", "book", "cherry"}, wordsOf(got))

	empty, err := s.ListAll(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStoreInsertScenario(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, 7, Entry{Word: "book", PartOfSpeech: Noun, Translation: "книга"}))
	require.NoError(t, s.Insert(ctx, 7, Entry{Word: "apple", PartOfSpeech: Noun}))

	got, err := s.ListAll(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Word: "apple", PartOfSpeech: Noun, Translation: ""},
		{Word: "book", PartOfSpeech: Noun, Translation: "книга"},
	}, got)
}

func TestStoreInsertDuplicateIgnoresCase(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, 1, Entry{Word: "Straße", PartOfSpeech: Noun, Translation: "street"}))

	for _, dup := range []string{"Straße", "STRASSE", "  strasse "} {
		err := s.Insert(ctx, 1, Entry{Word: dup, PartOfSpeech: Verb})
		assert.ErrorIs(t, err, ErrDuplicate, dup)
	}

	got, err := s.ListAll(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Entry{Word: "Straße", PartOfSpeech: Noun, Translation: "street"}, got[0])

	// Other users are unaffected.
	require.NoError(t, s.Insert(ctx, 2, Entry{Word: "strasse", PartOfSpeech: Noun}))
}

func TestStoreInsertValidation(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.Insert(ctx, 1, Entry{Word: "  ", PartOfSpeech: Noun}), ErrEmptyWord)
	assert.ErrorIs(t, s.Insert(ctx, 1, Entry{Word: "run", PartOfSpeech: "pronoun"}), ErrInvalidPartOfSpeech)
}

func TestStoreExists(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, 1, Entry{Word: "Apple", PartOfSpeech: Noun}))

	ok, err := s.Exists(ctx, 1, "aPPLE")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists(ctx, 1, "pear")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Exists(ctx, 2, "apple")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreDelete(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, 1, Entry{Word: "apple", PartOfSpeech: Noun}))

	require.NoError(t, s.Delete(ctx, 1, "APPLE"))
	assert.ErrorIs(t, s.Delete(ctx, 1, "apple"), ErrNotFound)

	got, err := s.ListAll(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStoreUpdateSameWordKeepsWordSet(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, 1, Entry{Word: "run", PartOfSpeech: Noun}))
	require.NoError(t, s.Insert(ctx, 1, Entry{Word: "walk", PartOfSpeech: Verb}))

	require.NoError(t, s.Update(ctx, 1, "run", Entry{Word: "run", PartOfSpeech: Verb, Translation: "бежать"}))

	got, err := s.ListAll(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Word: "run", PartOfSpeech: Verb, Translation: "бежать"},
		{Word: "walk", PartOfSpeech: Verb},
	}, got)

	// Clearing the translation stores NULL and reads back empty.
	require.NoError(t, s.Update(ctx, 1, "run", Entry{Word: "run", PartOfSpeech: Verb}))
	got, err = s.ListAll(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, got[0].Translation)
}

func TestStoreUpdateRename(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	for _, w := range []string{"apple", "book", "cherry"} {
		require.NoError(t, s.Insert(ctx, 1, Entry{Word: w, PartOfSpeech: Noun, Translation: w + "!"}))
	}

	require.NoError(t, s.Update(ctx, 1, "book", Entry{Word: "books", PartOfSpeech: Noun, Translation: "book!"}))
	got, err := s.ListAll(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "books", "cherry"}, wordsOf(got))
	assert.Equal(t, "book!", got[1].Translation)

	err = s.Update(ctx, 1, "books", Entry{Word: "Apple", PartOfSpeech: Noun})
	assert.ErrorIs(t, err, ErrDuplicate)
	got, err = s.ListAll(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "books", "cherry"}, wordsOf(got))

	assert.ErrorIs(t, s.Update(ctx, 1, "missing", Entry{Word: "found", PartOfSpeech: Noun}), ErrNotFound)
	assert.ErrorIs(t, s.Update(ctx, 1, "missing", Entry{Word: "missing", PartOfSpeech: Noun}), ErrNotFound)
}

func TestStoreUpdateCaseOnlyRename(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, 1, Entry{Word: "paris", PartOfSpeech: Noun}))

	require.NoError(t, s.Update(ctx, 1, "paris", Entry{Word: "Paris", PartOfSpeech: Noun}))
	got, err := s.ListAll(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Paris"}, wordsOf(got))
}

func TestStoreStats(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, 1, Entry{Word: "a", PartOfSpeech: Noun}))
	require.NoError(t, s.Insert(ctx, 1, Entry{Word: "b", PartOfSpeech: Noun}))
	require.NoError(t, s.Insert(ctx, 2, Entry{Word: "a", PartOfSpeech: Noun}))

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Users: 2, Words: 3}, st)
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(sqlx.NewDb(db, database.DriverSQLite)), mock
}

func TestStoreStorageErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk I/O error")

	tests := []struct {
		name  string
		setup func(mock sqlmock.Sqlmock)
		call  func(s *Store) error
	}{
		{
			name: "list",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT word, part_of_speech, translation FROM words").WillReturnError(boom)
			},
			call: func(s *Store) error {
				_, err := s.ListAll(ctx, 1)
				return err
			},
		},
		{
			name: "insert",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO words").WillReturnError(boom)
			},
			call: func(s *Store) error {
				return s.Insert(ctx, 1, Entry{Word: "x", PartOfSpeech: Noun})
			},
		},
		{
			name: "rename rolls back when insert fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("SELECT 1 FROM words").WillReturnRows(sqlmock.NewRows([]string{"1"}))
				mock.ExpectExec("DELETE FROM words").WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec("INSERT INTO words").WillReturnError(boom)
				mock.ExpectRollback()
			},
			call: func(s *Store) error {
				return s.Update(ctx, 1, "old", Entry{Word: "new", PartOfSpeech: Noun})
			},
		},
		{
			name: "rename commit failure",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("SELECT 1 FROM words").WillReturnRows(sqlmock.NewRows([]string{"1"}))
				mock.ExpectExec("DELETE FROM words").WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec("INSERT INTO words").WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit().WillReturnError(boom)
			},
			call: func(s *Store) error {
				return s.Update(ctx, 1, "old", Entry{Word: "new", PartOfSpeech: Noun})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStore(t)
			tt.setup(mock)

			err := tt.call(s)
			require.Error(t, err)
			assert.ErrorIs(t, err, boom)
			assert.NotErrorIs(t, err, ErrDuplicate)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStoreRenameConflictRollsBack(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM words").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectRollback()

	err := s.Update(context.Background(), 1, "old", Entry{Word: "taken", PartOfSpeech: Noun})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewStorePlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewStore(sqlx.NewDb(db, database.DriverPostgres))
	mock.ExpectQuery(`SELECT 1 FROM words WHERE user_id = \$1 AND word_key = \$2 LIMIT 1`).
		WithArgs(int64(9), "apple").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	ok, err := s.Exists(context.Background(), 9, "Apple")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewStoreQuestionPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewStore(sqlx.NewDb(db, database.DriverSQLite))
	mock.ExpectQuery(`SELECT 1 FROM words WHERE user_id = \? AND word_key = \? LIMIT 1`).
		WithArgs(int64(9), "apple").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	ok, err := s.Exists(context.Background(), 9, "apple")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreRenameConflictSurvivesRollbackFailure(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM words").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectRollback().WillReturnError(errors.New("connection reset"))

	err := s.Update(context.Background(), 1, "old", Entry{Word: "taken", PartOfSpeech: Noun})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}
