package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/user/mc_earnings_go/internal/analysis"
	"github.com/user/mc_earnings_go/internal/sampling"
	"github.com/user/mc_earnings_go/internal/sim"
)

// Load reads a simulation written by Save. The returned simulation carries every sample,
// output and statistic but no model functions, so it can be reported on but not rerun.
func Load(path string) (*sim.Sim, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	db, err := open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var version int
	if err := db.QueryRow(`SELECT version FROM schema_version`).Scan(&version); err != nil {
		return nil, fmt.Errorf("load %s: read schema version: %w", path, err)
	}
	if version != schemaVersion {
		return nil, fmt.Errorf("load %s: unsupported schema version %d", path, version)
	}

	s, err := loadSim(db)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return s, nil
}

func loadSim(db *sql.DB) (*sim.Sim, error) {
	var (
		cfg                     sim.Config
		id, startedAt           string
		seed, runTime           int64
		firstMedian, singleThrd int
	)
	err := db.QueryRow(`SELECT id, name, ndraws, seed, first_case_is_median, single_threaded, workers, started_at, run_time_ns FROM sim`).
		Scan(&id, &cfg.Name, &cfg.NDraws, &seed, &firstMedian, &singleThrd, &cfg.Workers, &startedAt, &runTime)
	if err != nil {
		return nil, fmt.Errorf("read sim: %w", err)
	}
	cfg.Seed = uint64(seed)
	cfg.FirstCaseIsMedian = firstMedian == 1
	cfg.SingleThreaded = singleThrd == 1

	s := sim.New(cfg, sim.Fcns{})
	s.ID = id
	s.RunTime = time.Duration(runTime)
	if s.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}

	if err := loadInVars(db, s); err != nil {
		return nil, err
	}
	if err := loadCases(db, s); err != nil {
		return nil, err
	}
	if err := loadOutVars(db, s); err != nil {
		return nil, err
	}
	return s, nil
}

func loadInVars(db *sql.DB, s *sim.Sim) error {
	rows, err := db.Query(`SELECT idx, name, kind, params, seed FROM invars ORDER BY idx`)
	if err != nil {
		return fmt.Errorf("query invars: %w", err)
	}
	defer rows.Close()

	ncases := s.NumCases()
	for rows.Next() {
		var (
			idx              int
			name, kind, pstr string
			seed             int64
		)
		if err := rows.Scan(&idx, &name, &kind, &pstr, &seed); err != nil {
			return fmt.Errorf("scan invar: %w", err)
		}
		var params map[string]float64
		if err := json.Unmarshal([]byte(pstr), &params); err != nil {
			return fmt.Errorf("decode params of %q: %w", name, err)
		}
		dist, err := sampling.NewDistribution(kind, params)
		if err != nil {
			return fmt.Errorf("invar %q: %w", name, err)
		}
		v := sampling.NewInVar(name, dist, uint64(seed))
		v.Pcts = make([]float64, ncases)
		v.Vals = make([]float64, ncases)
		s.InVars = append(s.InVars, v)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate invars: %w", err)
	}

	vrows, err := db.Query(`SELECT invar_idx, case_idx, pct, val FROM invals`)
	if err != nil {
		return fmt.Errorf("query invals: %w", err)
	}
	defer vrows.Close()
	for vrows.Next() {
		var (
			vi, ci   int
			pct, val float64
		)
		if err := vrows.Scan(&vi, &ci, &pct, &val); err != nil {
			return fmt.Errorf("scan inval: %w", err)
		}
		if vi < 0 || vi >= len(s.InVars) || ci < 0 || ci >= ncases {
			return fmt.Errorf("inval (%d, %d) out of range", vi, ci)
		}
		s.InVars[vi].Pcts[ci] = pct
		s.InVars[vi].Vals[ci] = val
	}
	return vrows.Err()
}

func loadCases(db *sql.DB, s *sim.Sim) error {
	rows, err := db.Query(`SELECT case_idx, is_median, run_time_ns FROM cases ORDER BY case_idx`)
	if err != nil {
		return fmt.Errorf("query cases: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var idx, isMedian int
		var runTime int64
		if err := rows.Scan(&idx, &isMedian, &runTime); err != nil {
			return fmt.Errorf("scan case: %w", err)
		}
		if idx != len(s.Cases) {
			return fmt.Errorf("case %d missing", len(s.Cases))
		}
		c := sim.NewCase(idx, isMedian == 1)
		c.RunTime = time.Duration(runTime)
		for _, v := range s.InVars {
			c.InVals[v.Name] = v.Vals[idx]
		}
		s.Cases = append(s.Cases, c)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate cases: %w", err)
	}
	if len(s.Cases) != s.NumCases() {
		return fmt.Errorf("found %d cases, expected %d", len(s.Cases), s.NumCases())
	}
	return nil
}

func loadOutVars(db *sql.DB, s *sim.Sim) error {
	rows, err := db.Query(`SELECT name FROM outvars ORDER BY idx`)
	if err != nil {
		return fmt.Errorf("query outvars: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan outvar: %w", err)
		}
		s.OutVars = append(s.OutVars, sim.NewOutVar(name, make([]float64, len(s.Cases))))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate outvars: %w", err)
	}

	vrows, err := db.Query(`SELECT outvar_idx, case_idx, val FROM outvals`)
	if err != nil {
		return fmt.Errorf("query outvals: %w", err)
	}
	defer vrows.Close()
	for vrows.Next() {
		var oi, ci int
		var val float64
		if err := vrows.Scan(&oi, &ci, &val); err != nil {
			return fmt.Errorf("scan outval: %w", err)
		}
		if oi < 0 || oi >= len(s.OutVars) || ci < 0 || ci >= len(s.Cases) {
			return fmt.Errorf("outval (%d, %d) out of range", oi, ci)
		}
		s.OutVars[oi].Vals[ci] = val
	}
	if err := vrows.Err(); err != nil {
		return fmt.Errorf("iterate outvals: %w", err)
	}

	// per-case outputs, in outvar order
	for _, o := range s.OutVars {
		for i, c := range s.Cases {
			c.AddOutVal(o.Name, o.Vals[i])
		}
	}

	if err := loadVarStats(db, s); err != nil {
		return err
	}
	return loadSensitivities(db, s)
}

func loadVarStats(db *sql.DB, s *sim.Sim) error {
	rows, err := db.Query(`SELECT outvar_idx, kind, name, p, c, bound, vals FROM varstats ORDER BY outvar_idx, pos`)
	if err != nil {
		return fmt.Errorf("query varstats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			oi   int
			vs   analysis.VarStat
			vstr string
		)
		if err := rows.Scan(&oi, &vs.Kind, &vs.Name, &vs.Params.P, &vs.Params.C, &vs.Params.Bound, &vstr); err != nil {
			return fmt.Errorf("scan varstat: %w", err)
		}
		if oi < 0 || oi >= len(s.OutVars) {
			return fmt.Errorf("varstat %q: outvar %d out of range", vs.Name, oi)
		}
		if err := json.Unmarshal([]byte(vstr), &vs.Vals); err != nil {
			return fmt.Errorf("decode varstat %q: %w", vs.Name, err)
		}
		s.OutVars[oi].VarStats = append(s.OutVars[oi].VarStats, vs)
	}
	return rows.Err()
}

func loadSensitivities(db *sql.DB, s *sim.Sim) error {
	rows, err := db.Query(`SELECT outvar_idx, invar, sens_index, ratio FROM sensitivities ORDER BY outvar_idx, pos`)
	if err != nil {
		return fmt.Errorf("query sensitivities: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var oi int
		var sens analysis.Sensitivity
		if err := rows.Scan(&oi, &sens.InVar, &sens.Index, &sens.Ratio); err != nil {
			return fmt.Errorf("scan sensitivity: %w", err)
		}
		if oi < 0 || oi >= len(s.OutVars) {
			return fmt.Errorf("sensitivity %q: outvar %d out of range", sens.InVar, oi)
		}
		s.OutVars[oi].Sensitivities = append(s.OutVars[oi].Sensitivities, sens)
	}
	return rows.Err()
}
