package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"healthagent"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	user_id INTEGER PRIMARY KEY,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	city TEXT NOT NULL,
	diet_preference TEXT NOT NULL,
	medical_conditions TEXT,
	physical_limitations TEXT
);

CREATE TABLE IF NOT EXISTS mood_logs (
	log_id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
	mood TEXT NOT NULL,
	FOREIGN KEY (user_id) REFERENCES users(user_id)
);

CREATE TABLE IF NOT EXISTS cgm_logs (
	log_id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
	glucose_reading INTEGER NOT NULL,
	FOREIGN KEY (user_id) REFERENCES users(user_id)
);

CREATE TABLE IF NOT EXISTS food_logs (
	log_id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
	meal_description TEXT NOT NULL,
	nutrients TEXT,
	FOREIGN KEY (user_id) REFERENCES users(user_id)
);

CREATE INDEX IF NOT EXISTS idx_mood_logs_user_ts ON mood_logs(user_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_cgm_logs_user_ts ON cgm_logs(user_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_food_logs_user_ts ON food_logs(user_id, timestamp);
`

// SQLite implements Store on a database/sql pool. Every operation borrows a
// connection for the duration of the call and returns it on all paths.
type SQLite struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewSQLite opens (creating if needed) the database at path. ":memory:" is
// supported and pinned to a single connection so the schema is shared.
func NewSQLite(path string) (*SQLite, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w: %w", healthagent.ErrStoreUnavailable, err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	return &SQLite{db: db, path: path, now: time.Now}, nil
}

// Close closes the database pool.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLite) Path() string {
	return s.path
}

// Migrate creates the four tables if they do not exist.
func (s *SQLite) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return unavailable("migrate", err)
	}
	return nil
}

// Checkpoint folds the WAL into the main database file so the file alone is a complete copy.
func (s *SQLite) Checkpoint(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return unavailable("checkpoint", err)
	}
	return nil
}

// InsertProfiles writes seed profiles in one transaction. Existing IDs are replaced.
func (s *SQLite) InsertProfiles(ctx context.Context, profiles []Profile) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO users
		(user_id, first_name, last_name, city, diet_preference, medical_conditions, physical_limitations)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return unavailable("prepare insert users", err)
	}
	defer stmt.Close()

	for _, p := range profiles {
		if _, err = stmt.ExecContext(ctx, p.UserID, p.FirstName, p.LastName, p.City,
			p.DietPreference, p.MedicalConditions, p.PhysicalLimitations); err != nil {
			return unavailable("insert user", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return unavailable("commit", err)
	}
	return nil
}

// CountProfiles returns the number of seeded users.
func (s *SQLite) CountProfiles(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, unavailable("count users", err)
	}
	return n, nil
}

func (s *SQLite) GetProfile(ctx context.Context, userID int) (Profile, error) {
	p := Profile{UserID: userID}
	var conditions, limitations sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT first_name, last_name, city, diet_preference,
		       medical_conditions, physical_limitations
		FROM users WHERE user_id = ?`, userID).
		Scan(&p.FirstName, &p.LastName, &p.City, &p.DietPreference, &conditions, &limitations)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, fmt.Errorf("user %d: %w", userID, healthagent.ErrNotFound)
	}
	if err != nil {
		return Profile{}, unavailable("get profile", err)
	}
	p.MedicalConditions = orNone(conditions)
	p.PhysicalLimitations = orNone(limitations)
	return p, nil
}

func (s *SQLite) AppendMood(ctx context.Context, userID int, mood string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO mood_logs (user_id, timestamp, mood) VALUES (?, ?, ?)`,
		userID, s.now().UTC(), mood)
	if err != nil {
		return unavailable("append mood", err)
	}
	return nil
}

func (s *SQLite) AppendGlucose(ctx context.Context, userID int, reading int) (GlucoseAck, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cgm_logs (user_id, timestamp, glucose_reading) VALUES (?, ?, ?)`,
		userID, s.now().UTC(), reading)
	if err != nil {
		return GlucoseAck{}, unavailable("append glucose", err)
	}
	return GlucoseAck{Alert: IsAlert(reading)}, nil
}

func (s *SQLite) AppendFood(ctx context.Context, userID int, description string, nutrients *string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO food_logs (user_id, timestamp, meal_description, nutrients) VALUES (?, ?, ?, ?)`,
		userID, s.now().UTC(), description, nutrients)
	if err != nil {
		return 0, unavailable("append food", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, unavailable("append food id", err)
	}
	return id, nil
}

func (s *SQLite) SetFoodNutrients(ctx context.Context, logID int64, nutrients string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE food_logs SET nutrients = ? WHERE log_id = ?`, nutrients, logID)
	if err != nil {
		return unavailable("set nutrients", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("food log %d: %w", logID, healthagent.ErrNotFound)
	}
	return nil
}

func (s *SQLite) RecentMoods(ctx context.Context, userID int, limit int) ([]MoodEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, mood FROM mood_logs
		WHERE user_id = ?
		ORDER BY timestamp DESC, log_id DESC LIMIT ?`, userID, normalizeLimit(limit))
	if err != nil {
		return nil, unavailable("recent moods", err)
	}
	defer rows.Close()

	out := make([]MoodEntry, 0)
	for rows.Next() {
		e := MoodEntry{UserID: userID}
		if err := rows.Scan(&e.Timestamp, &e.Mood); err != nil {
			return nil, unavailable("scan mood", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("recent moods", err)
	}
	return out, nil
}

func (s *SQLite) RecentGlucose(ctx context.Context, userID int, limit int) ([]GlucoseEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, glucose_reading FROM cgm_logs
		WHERE user_id = ?
		ORDER BY timestamp DESC, log_id DESC LIMIT ?`, userID, normalizeLimit(limit))
	if err != nil {
		return nil, unavailable("recent glucose", err)
	}
	defer rows.Close()

	out := make([]GlucoseEntry, 0)
	for rows.Next() {
		e := GlucoseEntry{UserID: userID}
		if err := rows.Scan(&e.Timestamp, &e.Reading); err != nil {
			return nil, unavailable("scan glucose", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("recent glucose", err)
	}
	return out, nil
}

func (s *SQLite) RecentFood(ctx context.Context, userID int, limit int) ([]FoodEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT log_id, timestamp, meal_description, nutrients FROM food_logs
		WHERE user_id = ?
		ORDER BY timestamp DESC, log_id DESC LIMIT ?`, userID, normalizeLimit(limit))
	if err != nil {
		return nil, unavailable("recent food", err)
	}
	defer rows.Close()

	out := make([]FoodEntry, 0)
	for rows.Next() {
		e := FoodEntry{UserID: userID}
		var nutrients sql.NullString
		if err := rows.Scan(&e.LogID, &e.Timestamp, &e.Description, &nutrients); err != nil {
			return nil, unavailable("scan food", err)
		}
		if nutrients.Valid {
			e.Nutrients = &nutrients.String
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("recent food", err)
	}
	return out, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, healthagent.ErrStoreUnavailable, err)
}

func orNone(s sql.NullString) string {
	if !s.Valid || s.String == "" {
		return "None"
	}
	return s.String
}
