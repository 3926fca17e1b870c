// Package store persists a complete simulation to a single SQLite file and reads it back.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/user/mc_earnings_go/internal/sim"
)

// FileName returns the default file name for a simulation, e.g. "product_earnings.mcsim".
func FileName(simName string) string {
	return simName + DefaultExt
}

func open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Save writes s to path, replacing any file already there.
func Save(path string, s *sim.Sim) (err error) {
	if len(s.Cases) == 0 {
		return fmt.Errorf("save %s: %w", path, sim.ErrNotRun)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create store dir: %w", err)
		}
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("replace %s: %w", path, err)
	}

	db, err := open(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close sqlite: %w", cerr)
		}
	}()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := writeSim(tx, s); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	log.Debug().Str("path", path).Int("cases", len(s.Cases)).Msg("Simulation saved")
	return nil
}

func writeSim(tx *sql.Tx, s *sim.Sim) error {
	if _, err := tx.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, schemaVersion); err != nil {
		return fmt.Errorf("insert schema version: %w", err)
	}

	_, err := tx.Exec(`INSERT INTO sim (id, name, ndraws, seed, first_case_is_median, single_threaded, workers, started_at, run_time_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Name, s.NDraws, int64(s.Seed), boolInt(s.FirstCaseIsMedian), boolInt(s.SingleThreaded), s.Workers,
		s.StartedAt.UTC().Format(time.RFC3339Nano), int64(s.RunTime))
	if err != nil {
		return fmt.Errorf("insert sim: %w", err)
	}

	invalStmt, err := tx.Prepare(`INSERT INTO invals (invar_idx, case_idx, pct, val) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare invals: %w", err)
	}
	defer invalStmt.Close()
	for i, v := range s.InVars {
		params, err := json.Marshal(v.Dist.Params())
		if err != nil {
			return fmt.Errorf("encode params of %q: %w", v.Name, err)
		}
		if _, err := tx.Exec(`INSERT INTO invars (idx, name, kind, params, seed) VALUES (?, ?, ?, ?, ?)`,
			i, v.Name, v.Dist.Kind(), string(params), int64(v.Seed)); err != nil {
			return fmt.Errorf("insert invar %q: %w", v.Name, err)
		}
		for c := range v.Vals {
			if _, err := invalStmt.Exec(i, c, v.Pcts[c], v.Vals[c]); err != nil {
				return fmt.Errorf("insert inval %q case %d: %w", v.Name, c, err)
			}
		}
	}

	caseStmt, err := tx.Prepare(`INSERT INTO cases (case_idx, is_median, run_time_ns) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare cases: %w", err)
	}
	defer caseStmt.Close()
	for _, c := range s.Cases {
		if _, err := caseStmt.Exec(c.Index, boolInt(c.IsMedian), int64(c.RunTime)); err != nil {
			return fmt.Errorf("insert case %d: %w", c.Index, err)
		}
	}

	outvalStmt, err := tx.Prepare(`INSERT INTO outvals (outvar_idx, case_idx, val) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare outvals: %w", err)
	}
	defer outvalStmt.Close()
	for i, o := range s.OutVars {
		if _, err := tx.Exec(`INSERT INTO outvars (idx, name) VALUES (?, ?)`, i, o.Name); err != nil {
			return fmt.Errorf("insert outvar %q: %w", o.Name, err)
		}
		for c, val := range o.Vals {
			if _, err := outvalStmt.Exec(i, c, val); err != nil {
				return fmt.Errorf("insert outval %q case %d: %w", o.Name, c, err)
			}
		}
		for pos, vs := range o.VarStats {
			vals, err := json.Marshal(vs.Vals)
			if err != nil {
				return fmt.Errorf("encode varstat %q: %w", vs.Name, err)
			}
			if _, err := tx.Exec(`INSERT INTO varstats (outvar_idx, pos, kind, name, p, c, bound, vals) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				i, pos, vs.Kind, vs.Name, vs.Params.P, vs.Params.C, vs.Params.Bound, string(vals)); err != nil {
				return fmt.Errorf("insert varstat %q: %w", vs.Name, err)
			}
		}
		for pos, sens := range o.Sensitivities {
			if _, err := tx.Exec(`INSERT INTO sensitivities (outvar_idx, pos, invar, sens_index, ratio) VALUES (?, ?, ?, ?, ?)`,
				i, pos, sens.InVar, sens.Index, sens.Ratio); err != nil {
				return fmt.Errorf("insert sensitivity %q: %w", sens.InVar, err)
			}
		}
	}
	return nil
}
