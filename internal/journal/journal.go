// Package journal provides SQLite-based step logging for automation
// sessions. It is an offline analysis aid: the engine never reads it
// back during play.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// Journal handles SQLite database operations for session logging.
type Journal struct {
	db     *sql.DB
	logger *slog.Logger
}

// Session represents one automation run.
type Session struct {
	ID          string     `json:"id"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	TotalSteps  int        `json:"total_steps"`
	FinalMap    int        `json:"final_map"`
	QuestsDone  int        `json:"quests_done"`
	QuestsTotal int        `json:"quests_total"`
}

// Step represents a single engine step record.
type Step struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"session_id"`
	Tick        int       `json:"tick"`
	Timestamp   time.Time `json:"timestamp"`
	Map         int       `json:"map"`
	X           int       `json:"x"`
	Y           int       `json:"y"`
	ActiveQuest string    `json:"active_quest,omitempty"`
	Action      string    `json:"action,omitempty"`
	NavStatus   string    `json:"nav_status,omitempty"`
	Stalls      int       `json:"stalls"`
}

// Open creates or opens the journal database at dbPath.
func Open(dbPath string, logger *slog.Logger) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	j := &Journal{db: db, logger: logger}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return j, nil
}

// migrate creates the database schema if it doesn't exist.
func (j *Journal) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		ended_at DATETIME,
		total_steps INTEGER DEFAULT 0,
		final_map INTEGER DEFAULT 0,
		quests_done INTEGER DEFAULT 0,
		quests_total INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS steps (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		map INTEGER NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		active_quest TEXT,
		action TEXT,
		nav_status TEXT,
		stalls INTEGER DEFAULT 0,
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	);

	CREATE INDEX IF NOT EXISTS idx_steps_session ON steps(session_id);
	CREATE INDEX IF NOT EXISTS idx_steps_session_tick ON steps(session_id, tick);
	`

	_, err := j.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// StartSession creates a new session record.
func (j *Journal) StartSession(ctx context.Context, id string, questsTotal int) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO sessions (id, started_at, quests_total) VALUES (?, ?, ?)`,
		id, time.Now().UTC(), questsTotal,
	)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	return nil
}

// EndSession marks a session as ended with its final standing.
func (j *Journal) EndSession(ctx context.Context, id string, totalSteps, finalMap, questsDone int) error {
	_, err := j.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ?, total_steps = ?, final_map = ?, quests_done = ?
		 WHERE id = ?`,
		time.Now().UTC(), totalSteps, finalMap, questsDone, id,
	)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

// LogStep records one engine step. Failures are logged, not returned:
// journaling must never stall the session it observes.
func (j *Journal) LogStep(ctx context.Context, s *Step) {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO steps (session_id, tick, timestamp, map, x, y, active_quest, action, nav_status, stalls)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.SessionID, s.Tick, time.Now().UTC(), s.Map, s.X, s.Y,
		s.ActiveQuest, s.Action, s.NavStatus, s.Stalls,
	)
	if err != nil {
		j.logger.Warn("Failed to journal step", "tick", s.Tick, "error", err)
	}
}

// Session retrieves a session by id.
func (j *Journal) Session(ctx context.Context, id string) (*Session, error) {
	row := j.db.QueryRowContext(ctx,
		`SELECT id, started_at, ended_at, total_steps, final_map, quests_done, quests_total
		 FROM sessions WHERE id = ?`, id,
	)

	var sess Session
	var endedAt sql.NullTime
	err := row.Scan(&sess.ID, &sess.StartedAt, &endedAt, &sess.TotalSteps,
		&sess.FinalMap, &sess.QuestsDone, &sess.QuestsTotal)
	if err != nil {
		return nil, err
	}
	if endedAt.Valid {
		sess.EndedAt = &endedAt.Time
	}
	return &sess, nil
}

// RecentSessions returns the most recent sessions, newest first.
func (j *Journal) RecentSessions(ctx context.Context, limit int) ([]*Session, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, started_at, ended_at, total_steps, final_map, quests_done, quests_total
		 FROM sessions ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		var sess Session
		var endedAt sql.NullTime
		err := rows.Scan(&sess.ID, &sess.StartedAt, &endedAt, &sess.TotalSteps,
			&sess.FinalMap, &sess.QuestsDone, &sess.QuestsTotal)
		if err != nil {
			return nil, err
		}
		if endedAt.Valid {
			sess.EndedAt = &endedAt.Time
		}
		sessions = append(sessions, &sess)
	}
	return sessions, rows.Err()
}

// Steps retrieves all steps for a session in tick order.
func (j *Journal) Steps(ctx context.Context, sessionID string) ([]*Step, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, session_id, tick, timestamp, map, x, y, active_quest, action, nav_status, stalls
		 FROM steps WHERE session_id = ? ORDER BY tick`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []*Step
	for rows.Next() {
		var s Step
		var quest, action, nav sql.NullString
		err := rows.Scan(&s.ID, &s.SessionID, &s.Tick, &s.Timestamp, &s.Map,
			&s.X, &s.Y, &quest, &action, &nav, &s.Stalls)
		if err != nil {
			return nil, err
		}
		s.ActiveQuest = quest.String
		s.Action = action.String
		s.NavStatus = nav.String
		steps = append(steps, &s)
	}
	return steps, rows.Err()
}

// QuestSummary aggregates the steps spent on one quest.
type QuestSummary struct {
	Quest     string `json:"quest"`
	StartTick int    `json:"start_tick"`
	EndTick   int    `json:"end_tick"`
	Steps     int    `json:"steps"`
	Stalls    int    `json:"stalls"`
}

// QuestSummaries returns per-quest step aggregates for a session.
func (j *Journal) QuestSummaries(ctx context.Context, sessionID string) ([]*QuestSummary, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT active_quest, MIN(tick), MAX(tick), COUNT(*), MAX(stalls)
		 FROM steps WHERE session_id = ? AND active_quest != ''
		 GROUP BY active_quest ORDER BY MIN(tick)`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*QuestSummary
	for rows.Next() {
		var qs QuestSummary
		if err := rows.Scan(&qs.Quest, &qs.StartTick, &qs.EndTick, &qs.Steps, &qs.Stalls); err != nil {
			return nil, err
		}
		summaries = append(summaries, &qs)
	}
	return summaries, rows.Err()
}
