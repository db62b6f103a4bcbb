package results

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/eleonora-casoni/VMC-EigenHydrogen/internal/vmc"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TEXT NOT NULL,
	numwalkers INTEGER NOT NULL,
	numsteps INTEGER NOT NULL,
	equilibration_steps INTEGER NOT NULL,
	seed INTEGER NOT NULL,
	initial_alpha REAL NOT NULL,
	learning_rate REAL NOT NULL,
	step_size REAL NOT NULL,
	final_alpha REAL NOT NULL,
	final_energy REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS trajectories (
	run_id INTEGER NOT NULL REFERENCES runs(id),
	step INTEGER NOT NULL,
	alpha REAL NOT NULL,
	energy REAL NOT NULL,
	gradient REAL NOT NULL,
	PRIMARY KEY (run_id, step)
);
`

// Store archives runs in a SQLite database so successive parameter sweeps
// can be compared without re-parsing CSV output.
type Store struct {
	db *sql.DB
}

// TrajectoryPoint is one outer measurement step of an archived run.
type TrajectoryPoint struct {
	Step     int
	Alpha    float64
	Energy   float64
	Gradient float64
}

// OpenStore opens (creating if necessary) the run archive at dbPath.
func OpenStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", dbPath))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "")
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return errors.Wrap(s.db.Close(), "")
}

// SaveRun archives a completed run and its trajectories, returning the run id.
func (s *Store) SaveRun(ctx context.Context, cfg vmc.Config, res *vmc.Result) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "")
	}
	defer tx.Rollback()

	finalEnergy := 0.0
	if n := len(res.EnergyTrajectory); n > 0 {
		finalEnergy = res.EnergyTrajectory[n-1]
	}

	r, err := tx.ExecContext(ctx, `
		INSERT INTO runs (created_at, numwalkers, numsteps, equilibration_steps,
			seed, initial_alpha, learning_rate, step_size, final_alpha, final_energy)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339),
		cfg.NumWalkers, cfg.NumSteps, cfg.EquilibrationSteps,
		int64(cfg.Seed), cfg.Alpha, cfg.LearningRate, cfg.StepSize,
		res.FinalAlpha, finalEnergy,
	)
	if err != nil {
		return 0, errors.Wrap(err, "")
	}
	runID, err := r.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trajectories (run_id, step, alpha, energy, gradient)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, errors.Wrap(err, "")
	}
	defer stmt.Close()
	for j := range res.AlphaTrajectory {
		_, err := stmt.ExecContext(ctx, runID, j,
			res.AlphaTrajectory[j], res.EnergyTrajectory[j], res.GradientTrajectory[j])
		if err != nil {
			return 0, errors.Wrap(err, fmt.Sprintf("step %d", j))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "")
	}
	return runID, nil
}

// Trajectories loads the archived trajectory of a run, ordered by step.
func (s *Store) Trajectories(ctx context.Context, runID int64) ([]TrajectoryPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT step, alpha, energy, gradient FROM trajectories
		WHERE run_id = ? ORDER BY step`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer rows.Close()

	points := make([]TrajectoryPoint, 0)
	for rows.Next() {
		var p TrajectoryPoint
		if err := rows.Scan(&p.Step, &p.Alpha, &p.Energy, &p.Gradient); err != nil {
			return nil, errors.Wrap(err, "")
		}
		points = append(points, p)
	}
	return points, errors.Wrap(rows.Err(), "")
}
