// Package postgresql implements the reference PostgreSQL Spring: a
// producer that runs one or more cron-scheduled SQL queries and emits
// their result rows as a payload. It is grounded on
// original_source/src/extensions/springs/postgresql.py, ported from
// psycopg2's ThreadedConnectionPool onto database/sql via sqlx and lib/pq,
// the PostgreSQL stack named in SPEC_FULL.md's domain stack.
package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/bittoy/pipeline/config"
	"github.com/bittoy/pipeline/logging"
	"github.com/bittoy/pipeline/nodes/base"
	"github.com/bittoy/pipeline/registry"
	"github.com/bittoy/pipeline/types"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

func init() {
	_ = registry.Default.Register(types.KindSpring, "postgresql", New)
}

type taskConfig struct {
	name    string
	cron    string
	query   string
	outputs []string
	timeout int
}

// Spring queries PostgreSQL on a cron schedule and emits the result set.
type Spring struct {
	base.Base

	dsn   string
	tasks []taskConfig

	db     *sqlx.DB
	logger zerolog.Logger
}

func bodySpec() *config.Spec {
	return &config.Spec{Fields: map[string]*config.FieldSpec{
		"connection": {Required: true, Nested: &config.Spec{Fields: map[string]*config.FieldSpec{
			"dbname":   {Required: true, Kind: config.KindString},
			"user":     {Required: true, Kind: config.KindString},
			"password": {Kind: config.KindString, Default: ""},
			"host":     {Kind: config.KindString, Default: "localhost"},
			"port":     {Kind: config.KindInt, Default: 5432},
			"minconn":  {Kind: config.KindInt, Default: 1},
			"maxconn":  {Kind: config.KindInt, Default: 64},
		}}},
		"tasks": {Required: true, MapOf: &config.Spec{Fields: map[string]*config.FieldSpec{
			"cron":  {Required: true, Kind: config.KindString},
			"query": {Required: true, Kind: config.KindString},
			"outputs": {Required: true, Seq: &config.SeqSpec{
				Elem: &config.FieldSpec{Kind: config.KindString}, MinLen: 1,
			}},
			"timeout": {Kind: config.KindInt, Default: 60},
		}}},
	}}
}

// New validates body against the PostgreSQL Spring's schema and returns
// an unconnected instance; Connect() opens the pool.
func New(name string, body types.Configuration) (types.Node, error) {
	validated, err := config.Validate(bodySpec(), body)
	if err != nil {
		return nil, fmt.Errorf("postgresql spring %q: %w", name, err)
	}

	conn := validated["connection"].(map[string]any)
	dsn := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=disable",
		conn["host"], conn["port"], conn["dbname"], conn["user"], conn["password"],
	)

	rawTasks := validated["tasks"].(map[string]any)
	tasks := make([]taskConfig, 0, len(rawTasks))
	for taskName, v := range rawTasks {
		tc := v.(map[string]any)
		outputs, err := stringSlice(tc["outputs"])
		if err != nil {
			return nil, fmt.Errorf("postgresql spring %q task %q: %w", name, taskName, err)
		}
		tasks = append(tasks, taskConfig{
			name:    taskName,
			cron:    tc["cron"].(string),
			query:   tc["query"].(string),
			outputs: outputs,
			timeout: tc["timeout"].(int),
		})
	}

	return &Spring{
		Base:   base.New(types.KindSpring, name),
		dsn:    dsn,
		tasks:  tasks,
		logger: logging.New("spring.postgresql"),
	}, nil
}

// Connect opens the connection pool.
func (s *Spring) Connect() error {
	s.logger.Info().Str("node", s.Name()).Msg("connecting to PostgreSQL database")
	db, err := sqlx.Connect("postgres", s.dsn)
	if err != nil {
		return fmt.Errorf("postgresql spring %q: %w", s.Name(), err)
	}
	db.SetMaxOpenConns(64)
	s.db = db
	return nil
}

// Shutdown closes the connection pool.
func (s *Spring) Shutdown() error {
	if s.db == nil {
		return nil
	}
	s.logger.Info().Str("node", s.Name()).Msg("closed PostgreSQL connections")
	return s.db.Close()
}

// PeriodicTasks yields one TaskSpec per configured task.
func (s *Spring) PeriodicTasks() []types.TaskSpec {
	out := make([]types.TaskSpec, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, types.TaskSpec{
			Name:      t.name,
			Schedule:  t.cron,
			Args:      []any{t.query, t.timeout},
			OutputIDs: t.outputs,
		})
	}
	return out
}

// LocalFunction runs the query passed as its first argument with a
// statement timeout set from the second, returning the result rows.
func (s *Spring) LocalFunction() types.Function {
	return func(ctx context.Context, args ...any) (types.Payload, error) {
		if len(args) < 2 {
			return nil, fmt.Errorf("postgresql spring %q: expected (query, timeout) arguments", s.Name())
		}
		query, _ := args[0].(string)
		timeoutSeconds, _ := args[1].(int)

		queryCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSeconds)*time.Second)
		defer cancel()

		conn, err := s.db.Connx(queryCtx)
		if err != nil {
			return nil, err
		}
		defer conn.Close()

		if _, err := conn.ExecContext(queryCtx, fmt.Sprintf("SET statement_timeout = %d", timeoutSeconds*1000)); err != nil {
			return nil, err
		}

		rows, err := conn.QueryxContext(queryCtx, query)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var records []types.Record
		for rows.Next() {
			record := types.Record{}
			if err := rows.MapScan(record); err != nil {
				return nil, err
			}
			records = append(records, record)
		}
		return records, rows.Err()
	}
}

func stringSlice(v any) ([]string, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a sequence")
	}
	out := make([]string, len(arr))
	for i, item := range arr {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("element %d: expected a string", i)
		}
		out[i] = s
	}
	return out, nil
}
