package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/park285/chess-rules/internal/chess"
)

const schema = `
CREATE TABLE IF NOT EXISTS chess_saved_games (
	id          BIGINT PRIMARY KEY,
	played_at   TEXT NOT NULL,
	result      TEXT NOT NULL,
	moves       JSONB NOT NULL,
	pgn         TEXT NOT NULL DEFAULT '',
	archived_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Open connects to PostgreSQL with the pool settings used in production.
func Open(databaseURL string) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

type pgrepo struct {
	db *sql.DB
}

// NewPostgresRepository wraps db and creates the table when missing.
func NewPostgresRepository(ctx context.Context, db *sql.DB) (Repository, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create chess_saved_games: %w", err)
	}
	return &pgrepo{db: db}, nil
}

func (r *pgrepo) Insert(ctx context.Context, g *chess.SavedGame) (int64, error) {
	if g == nil {
		return 0, fmt.Errorf("nil saved game payload")
	}
	moves, err := json.Marshal(g.Moves)
	if err != nil {
		return 0, fmt.Errorf("marshal moves: %w", err)
	}
	pgn, err := BuildPGN(g)
	if err != nil {
		// unreplayable games are still archived, only without PGN
		pgn = ""
	}

	const query = `
		INSERT INTO chess_saved_games (id, played_at, result, moves, pgn)
		VALUES ($1, $2, $3, $4::jsonb, $5)
		ON CONFLICT (id) DO NOTHING
		RETURNING id`

	var id sql.NullInt64
	err = r.db.QueryRowContext(ctx, query, g.ID, g.Date, g.Result, moves, pgn).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !id.Valid) {
		return 0, ErrDuplicateGame
	}
	if err != nil {
		return 0, fmt.Errorf("insert saved game: %w", err)
	}
	return id.Int64, nil
}

func (r *pgrepo) Get(ctx context.Context, id int64) (*chess.SavedGame, error) {
	const query = `SELECT id, played_at, result, moves FROM chess_saved_games WHERE id = $1`
	g, err := scanGame(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select saved game: %w", err)
	}
	return g, nil
}

func (r *pgrepo) List(ctx context.Context, limit int) ([]*chess.SavedGame, error) {
	query := `SELECT id, played_at, result, moves FROM chess_saved_games ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select saved games: %w", err)
	}
	defer rows.Close()

	games := make([]*chess.SavedGame, 0)
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan saved game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

func (r *pgrepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chess_saved_games WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete saved game: %w", err)
	}
	n, err := affected(res, "delete saved game")
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgrepo) Clear(ctx context.Context) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chess_saved_games`)
	if err != nil {
		return 0, fmt.Errorf("clear saved games: %w", err)
	}
	n, err := affected(res, "clear saved games")
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func affected(res sql.Result, op string) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: rows affected: %w", op, err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*chess.SavedGame, error) {
	var (
		g     chess.SavedGame
		moves []byte
	)
	if err := row.Scan(&g.ID, &g.Date, &g.Result, &moves); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(moves, &g.Moves); err != nil {
		return nil, fmt.Errorf("unmarshal moves: %w", err)
	}
	return &g, nil
}
