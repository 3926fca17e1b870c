package store

// DefaultExt is the file extension of a persisted simulation.
const DefaultExt = ".mcsim"

const schemaVersion = 1

const schemaSQL = `
CREATE TABLE schema_version (version INTEGER NOT NULL);

CREATE TABLE sim (
	id                   TEXT PRIMARY KEY,
	name                 TEXT NOT NULL,
	ndraws               INTEGER NOT NULL,
	seed                 INTEGER NOT NULL,
	first_case_is_median INTEGER NOT NULL,
	single_threaded      INTEGER NOT NULL,
	workers              INTEGER NOT NULL,
	started_at           TEXT NOT NULL,
	run_time_ns          INTEGER NOT NULL
);

CREATE TABLE invars (
	idx    INTEGER PRIMARY KEY,
	name   TEXT NOT NULL UNIQUE,
	kind   TEXT NOT NULL,
	params TEXT NOT NULL,
	seed   INTEGER NOT NULL
);

CREATE TABLE invals (
	invar_idx INTEGER NOT NULL REFERENCES invars(idx),
	case_idx  INTEGER NOT NULL,
	pct       REAL NOT NULL,
	val       REAL NOT NULL,
	PRIMARY KEY (invar_idx, case_idx)
);

CREATE TABLE cases (
	case_idx    INTEGER PRIMARY KEY,
	is_median   INTEGER NOT NULL,
	run_time_ns INTEGER NOT NULL
);

CREATE TABLE outvars (
	idx  INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE outvals (
	outvar_idx INTEGER NOT NULL REFERENCES outvars(idx),
	case_idx   INTEGER NOT NULL,
	val        REAL NOT NULL,
	PRIMARY KEY (outvar_idx, case_idx)
);

CREATE TABLE varstats (
	outvar_idx INTEGER NOT NULL REFERENCES outvars(idx),
	pos        INTEGER NOT NULL,
	kind       TEXT NOT NULL,
	name       TEXT NOT NULL,
	p          REAL NOT NULL,
	c          REAL NOT NULL,
	bound      TEXT NOT NULL,
	vals       TEXT NOT NULL,
	PRIMARY KEY (outvar_idx, pos)
);

CREATE TABLE sensitivities (
	outvar_idx INTEGER NOT NULL REFERENCES outvars(idx),
	pos        INTEGER NOT NULL,
	invar      TEXT NOT NULL,
	sens_index REAL NOT NULL,
	ratio      REAL NOT NULL,
	PRIMARY KEY (outvar_idx, pos)
);
`
