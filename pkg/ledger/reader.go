package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"go.uber.org/zap"

	"github.com/redshift-tools/s3recon/pkg/objectkey"
)

// committedKeysQuery selects the filenames of every COPY that reached a
// COMMIT within the window. stl_load_commits records one row per slice and
// per attempt, so the same filename may appear many times; deduplication
// happens after normalization on the Go side.
const committedKeysQuery = `
	select rtrim(l.filename)
	from stl_load_commits l, stl_query q
	where l.query = q.query
	and exists
	(select xid from stl_utilitytext
	 where xid = q.xid and rtrim("text") = 'COMMIT')
	and q.starttime between $1 and $2
	and l.filename like 's3://%'
	order by q.starttime desc`

// Reader queries the warehouse's load-commit record.
//
// Reader is safe for concurrent use; it holds no per-call state beyond the
// underlying connection pool.
type Reader struct {
	db  *sql.DB
	cfg Config
	log *zap.Logger
}

// New opens a connection pool to the warehouse and verifies reachability.
//
// A failed ping is reported as ErrConnection (or ErrAuth when the
// warehouse rejects the credentials).
func New(ctx context.Context, cfg Config) (*Reader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", cfg.dsn())
	if err != nil {
		return nil, &LedgerError{Op: "New", Err: classify(err)}
	}

	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.queryTimeout())
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, &LedgerError{Op: "New", Err: classify(err)}
	}

	return &Reader{db: db, cfg: cfg, log: zap.NewNop()}, nil
}

// NewWithDB wraps an existing database handle.
//
// Used by tests and by callers that manage their own pool.
func NewWithDB(db *sql.DB, cfg Config) *Reader {
	return &Reader{db: db, cfg: cfg, log: zap.NewNop()}
}

// WithLogger sets the logger used for normalization diagnostics.
// Returns the reader for method chaining.
func (r *Reader) WithLogger(log *zap.Logger) *Reader {
	if log != nil {
		r.log = log
	}
	return r
}

// CommittedKeys returns the set of object keys committed to the warehouse
// within [start, end] inclusive.
//
// Raw filenames are normalized into canonical keys before insertion, so
// repeated load attempts of the same object collapse to a single member.
// An inverted window fails with ErrBadDateRange before touching the
// warehouse.
func (r *Reader) CommittedKeys(ctx context.Context, start, end time.Time) (objectkey.Set, error) {
	if end.Before(start) {
		return nil, &LedgerError{
			Op:  "CommittedKeys",
			Err: fmt.Errorf("%w: end %s before start %s", ErrBadDateRange, end.Format(time.DateOnly), start.Format(time.DateOnly)),
		}
	}

	queryCtx, cancel := context.WithTimeout(ctx, r.cfg.queryTimeout())
	defer cancel()

	rows, err := r.db.QueryContext(queryCtx, committedKeysQuery, start, end)
	if err != nil {
		return nil, &LedgerError{Op: "CommittedKeys", Err: classify(err)}
	}
	defer func() { _ = rows.Close() }()

	keys := make(objectkey.Set)
	var collisions int
	for rows.Next() {
		var filename string
		if err := rows.Scan(&filename); err != nil {
			return nil, &LedgerError{Op: "CommittedKeys", Err: classify(err)}
		}

		key, err := objectkey.Normalize(filename)
		if err != nil {
			r.log.Debug("Skipping unparsable commit filename",
				zap.String("filename", filename),
				zap.Error(err))
			continue
		}

		if keys.Contains(key) {
			collisions++
		}
		keys.Add(key)
	}
	if err := rows.Err(); err != nil {
		return nil, &LedgerError{Op: "CommittedKeys", Err: classify(err)}
	}

	if collisions > 0 {
		r.log.Debug("Deduplicated repeated load commits",
			zap.Int("collisions", collisions),
			zap.Int("keys", keys.Len()))
	}

	return keys, nil
}

// Close releases the underlying connection pool.
func (r *Reader) Close() error {
	return r.db.Close()
}
