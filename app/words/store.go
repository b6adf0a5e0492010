package words

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/m3rciful/lexibot/core/database"
	"github.com/m3rciful/lexibot/core/keyed"
	"github.com/m3rciful/lexibot/core/logger"
)

const table = "words"

type entryRow struct {
	Word         string         `db:"word"`
	PartOfSpeech string         `db:"part_of_speech"`
	Translation  sql.NullString `db:"translation"`
}

func (r entryRow) entry() Entry {
	return Entry{
		Word:         r.Word,
		PartOfSpeech: PartOfSpeech(r.PartOfSpeech),
		Translation:  r.Translation.String,
	}
}

// Stats summarises the whole table.
type Stats struct {
	Users int `db:"users"`
	Words int `db:"words"`
}

// Store keeps every user's dictionary in one table partitioned by user id.
// Writes for a user are serialised; users never contend with each other.
type Store struct {
	db    *sqlx.DB
	sb    sq.StatementBuilderType
	locks *keyed.Mutex[int64]
}

// NewStore wraps an open database. Placeholders follow the driver.
func NewStore(db *sqlx.DB) *Store {
	var ph sq.PlaceholderFormat = sq.Question
	if db.DriverName() == database.DriverPostgres {
		ph = sq.Dollar
	}
	return &Store{
		db:    db,
		sb:    sq.StatementBuilder.PlaceholderFormat(ph),
		locks: keyed.NewMutex[int64](),
	}
}

// ListAll returns the user's entries sorted by word in ordinal order.
// A user without entries gets an empty slice.
func (s *Store) ListAll(ctx context.Context, userID int64) ([]Entry, error) {
	query, args, err := s.sb.
		Select("word", "part_of_speech", "translation").
		From(table).
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("words: build list: %w", err)
	}
	var rows []entryRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, s.fail(ctx, "list", userID, err)
	}
	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.entry())
	}
	slices.SortFunc(out, func(a, b Entry) int { return strings.Compare(a.Word, b.Word) })
	return out, nil
}

// Exists reports whether the user has word, ignoring case.
func (s *Store) Exists(ctx context.Context, userID int64, word string) (bool, error) {
	key := Key(word)
	if key == "" {
		return false, nil
	}
	return s.exists(ctx, s.db, userID, key)
}

// Insert adds a new entry. A case-insensitive duplicate yields ErrDuplicate.
func (s *Store) Insert(ctx context.Context, userID int64, e Entry) error {
	e, err := e.normalized()
	if err != nil {
		return err
	}
	unlock := s.locks.Lock(userID)
	defer unlock()

	if err := s.insert(ctx, s.db, userID, e); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return s.fail(ctx, "insert", userID, err)
	}
	logger.LogEvent(ctx, logger.SVCWords, slog.LevelDebug, "word.inserted",
		slog.Int64("user_id", userID),
		slog.String("word", logger.SanitizeLimit(e.Word, 64)),
		slog.String("pos", string(e.PartOfSpeech)),
	)
	return nil
}

// Delete removes word. ErrNotFound is returned when nothing matched.
func (s *Store) Delete(ctx context.Context, userID int64, word string) error {
	key := Key(word)
	if key == "" {
		return ErrEmptyWord
	}
	unlock := s.locks.Lock(userID)
	defer unlock()

	if err := s.deleteKey(ctx, s.db, userID, key); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return s.fail(ctx, "delete", userID, err)
	}
	return nil
}

// Update replaces the entry stored under oldWord with e. When the word
// itself changes the old row is removed and the new one inserted in a
// single transaction; otherwise the row is updated in place.
func (s *Store) Update(ctx context.Context, userID int64, oldWord string, e Entry) error {
	e, err := e.normalized()
	if err != nil {
		return err
	}
	oldKey := Key(oldWord)
	if oldKey == "" {
		return ErrEmptyWord
	}
	newKey := Key(e.Word)

	unlock := s.locks.Lock(userID)
	defer unlock()

	if oldKey == newKey {
		err = s.updateInPlace(ctx, userID, oldKey, e)
	} else {
		err = database.RunInTx(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
			taken, err := s.exists(ctx, tx, userID, newKey)
			if err != nil {
				return err
			}
			if taken {
				return ErrDuplicate
			}
			if err := s.deleteKey(ctx, tx, userID, oldKey); err != nil {
				return err
			}
			return s.insert(ctx, tx, userID, e)
		})
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrDuplicate), isUniqueViolation(err):
		return ErrDuplicate
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	default:
		return s.fail(ctx, "update", userID, err)
	}
}

// Stats counts users and entries across the table.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	query, args, err := s.sb.
		Select("COUNT(DISTINCT user_id) AS users", "COUNT(*) AS words").
		From(table).
		ToSql()
	if err != nil {
		return Stats{}, fmt.Errorf("words: build stats: %w", err)
	}
	var st Stats
	if err := s.db.GetContext(ctx, &st, query, args...); err != nil {
		return Stats{}, s.fail(ctx, "stats", 0, err)
	}
	return st, nil
}

func (s *Store) exists(ctx context.Context, q sqlx.QueryerContext, userID int64, key string) (bool, error) {
	query, args, err := s.sb.
		Select("1").
		From(table).
		Where(sq.Eq{"user_id": userID, "word_key": key}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("words: build exists: %w", err)
	}
	var one int
	switch err := sqlx.GetContext(ctx, q, &one, query, args...); {
	case err == nil:
		return true, nil
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	default:
		return false, err
	}
}

func (s *Store) insert(ctx context.Context, ex sqlx.ExecerContext, userID int64, e Entry) error {
	query, args, err := s.sb.
		Insert(table).
		Columns("user_id", "word", "word_key", "part_of_speech", "translation").
		Values(userID, e.Word, Key(e.Word), string(e.PartOfSpeech), nullable(e.Translation)).
		ToSql()
	if err != nil {
		return fmt.Errorf("words: build insert: %w", err)
	}
	_, err = ex.ExecContext(ctx, query, args...)
	return err
}

func (s *Store) deleteKey(ctx context.Context, ex sqlx.ExecerContext, userID int64, key string) error {
	query, args, err := s.sb.
		Delete(table).
		Where(sq.Eq{"user_id": userID, "word_key": key}).
		ToSql()
	if err != nil {
		return fmt.Errorf("words: build delete: %w", err)
	}
	res, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) updateInPlace(ctx context.Context, userID int64, key string, e Entry) error {
	query, args, err := s.sb.
		Update(table).
		Set("word", e.Word).
		Set("part_of_speech", string(e.PartOfSpeech)).
		Set("translation", nullable(e.Translation)).
		Where(sq.Eq{"user_id": userID, "word_key": key}).
		ToSql()
	if err != nil {
		return fmt.Errorf("words: build update: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) fail(ctx context.Context, op string, userID int64, err error) error {
	logger.LogEvent(ctx, logger.SVCWords, slog.LevelError, op+".failed",
		slog.String("status", "fail"),
		slog.String("op", op),
		slog.Int64("user_id", userID),
		slog.String("err", err.Error()),
	)
	return fmt.Errorf("words: %s: %w", op, err)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
