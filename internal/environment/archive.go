package environment

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/roundtable/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// Archive persists accepted insights to SQLite so that runs leave a
// durable, queryable trail behind the in-memory store.
type Archive struct {
	db     *sql.DB
	dbPath string
}

// NewArchive creates an Archive instance and initializes the database.
func NewArchive(dbPath string) (*Archive, error) {
	// Handle in-memory database
	if dbPath == ":memory:" {
		return openAndInitArchive(dbPath)
	}

	// Ensure parent directory exists for file-based databases
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}

	return openAndInitArchive(dbPath)
}

// openAndInitArchive opens the database connection and initializes schema.
func openAndInitArchive(dbPath string) (*Archive, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Configure SQLite for concurrent access with retry logic.
	// Set busy_timeout FIRST so subsequent operations wait on locks.
	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := execWithRetry(db, schemaSQL, 5, 10*time.Millisecond); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &Archive{db: db, dbPath: dbPath}, nil
}

// execWithRetry executes a statement, retrying on "database is locked"
// errors with linear backoff. Concurrent initialization of the same
// database file can transiently lock it.
func execWithRetry(db *sql.DB, stmt string, attempts int, backoff time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if _, err = db.Exec(stmt); err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		time.Sleep(backoff * time.Duration(i+1))
	}
	return err
}

// RecordRun registers a run before its insights are archived.
func (a *Archive) RecordRun(runID, taskPrompt string) error {
	_, err := a.db.Exec(
		`INSERT OR IGNORE INTO runs (run_id, task_prompt) VALUES (?, ?)`,
		runID, taskPrompt,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// RecordInsight appends one accepted insight. Insights without entity tags
// are skipped, mirroring the store's insert rule.
func (a *Archive) RecordInsight(runID, subtaskID string, insight models.Insight) error {
	canonical := canonicalTags(insight.EntityRecognition)
	if len(canonical) == 0 {
		return nil
	}

	tagsJSON, err := json.Marshal(canonical)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	_, err = a.db.Exec(
		`INSERT INTO insights (run_id, subtask_id, tag_key, tags, topic, extract_details, contextual_understanding)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID,
		subtaskID,
		strings.Join(canonical, keySeparator),
		string(tagsJSON),
		insight.Topic,
		insight.ExtractDetails,
		insight.ContextualUnderstanding,
	)
	if err != nil {
		return fmt.Errorf("record insight: %w", err)
	}
	return nil
}

// CountForRun returns how many insights have been archived for a run.
func (a *Archive) CountForRun(runID string) (int, error) {
	var count int
	err := a.db.QueryRow(`SELECT COUNT(*) FROM insights WHERE run_id = ?`, runID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count insights: %w", err)
	}
	return count, nil
}

// InsightsForRun returns the archived insights for a run in insertion order.
func (a *Archive) InsightsForRun(runID string) ([]models.Insight, error) {
	rows, err := a.db.Query(
		`SELECT tags, topic, extract_details, contextual_understanding
		 FROM insights WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query insights: %w", err)
	}
	defer rows.Close()

	var insights []models.Insight
	for rows.Next() {
		var tagsJSON string
		var insight models.Insight
		if err := rows.Scan(&tagsJSON, &insight.Topic, &insight.ExtractDetails, &insight.ContextualUnderstanding); err != nil {
			return nil, fmt.Errorf("scan insight: %w", err)
		}
		if err := json.Unmarshal([]byte(tagsJSON), &insight.EntityRecognition); err != nil {
			return nil, fmt.Errorf("unmarshal tags: %w", err)
		}
		insights = append(insights, insight)
	}

	return insights, rows.Err()
}

// Close closes the underlying database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}
