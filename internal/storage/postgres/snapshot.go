package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/dynasty/internal/game/world"
)

// ErrSnapshotNotFound is returned when a snapshot lookup yields no results.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotRepository persists versioned world snapshots keyed by game id and
// tick. The snapshot body is stored as JSONB.
type SnapshotRepository struct {
	db *pgxpool.Pool
}

// NewSnapshotRepository creates a SnapshotRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewSnapshotRepository(db *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save upserts the snapshot for (gameID, snap.Game.Tick). Saving the same
// tick twice overwrites the earlier row.
//
// Precondition: gameID must be non-empty; snap.Version must be set.
// Postcondition: The snapshot is durably stored, or a non-nil error is returned.
func (r *SnapshotRepository) Save(ctx context.Context, gameID string, snap world.Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO snapshots (game_id, tick, version, state)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (game_id, tick)
		DO UPDATE SET version = EXCLUDED.version, state = EXCLUDED.state, created_at = NOW()`,
		gameID, snap.Game.Tick, snap.Version, body,
	)
	if err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}
	return nil
}

// Load retrieves the snapshot for the given game id and tick.
//
// Precondition: gameID must be non-empty.
// Postcondition: Returns the decoded Snapshot or ErrSnapshotNotFound.
func (r *SnapshotRepository) Load(ctx context.Context, gameID string, tick int) (world.Snapshot, error) {
	var body []byte
	err := r.db.QueryRow(ctx, `
		SELECT state FROM snapshots WHERE game_id = $1 AND tick = $2`,
		gameID, tick,
	).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return world.Snapshot{}, ErrSnapshotNotFound
		}
		return world.Snapshot{}, fmt.Errorf("querying snapshot: %w", err)
	}
	return decodeSnapshot(body)
}

// LoadLatest retrieves the highest-tick snapshot for the given game id.
//
// Postcondition: Returns the decoded Snapshot or ErrSnapshotNotFound.
func (r *SnapshotRepository) LoadLatest(ctx context.Context, gameID string) (world.Snapshot, error) {
	var body []byte
	err := r.db.QueryRow(ctx, `
		SELECT state FROM snapshots WHERE game_id = $1 ORDER BY tick DESC LIMIT 1`,
		gameID,
	).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return world.Snapshot{}, ErrSnapshotNotFound
		}
		return world.Snapshot{}, fmt.Errorf("querying latest snapshot: %w", err)
	}
	return decodeSnapshot(body)
}

// Ticks lists the ticks that have stored snapshots for a game, ascending.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *SnapshotRepository) Ticks(ctx context.Context, gameID string) ([]int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT tick FROM snapshots WHERE game_id = $1 ORDER BY tick ASC`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing snapshot ticks: %w", err)
	}
	defer rows.Close()

	ticks := make([]int, 0)
	for rows.Next() {
		var tick int
		if err := rows.Scan(&tick); err != nil {
			return nil, fmt.Errorf("scanning snapshot tick: %w", err)
		}
		ticks = append(ticks, tick)
	}
	return ticks, rows.Err()
}

// Prune deletes snapshots older than keepAfterTick for the given game.
//
// Postcondition: Returns the number of rows deleted or a non-nil error.
func (r *SnapshotRepository) Prune(ctx context.Context, gameID string, keepAfterTick int) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM snapshots WHERE game_id = $1 AND tick < $2`,
		gameID, keepAfterTick,
	)
	if err != nil {
		return 0, fmt.Errorf("pruning snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}

func decodeSnapshot(body []byte) (world.Snapshot, error) {
	var snap world.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return world.Snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	if snap.Version != world.SnapshotVersion {
		return world.Snapshot{}, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	return snap, nil
}
