package history

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mk-ldn/kettle/internal/errdef"
	"github.com/mk-ldn/kettle/internal/exchange"
	"github.com/mk-ldn/kettle/internal/recipe"
)

// DefaultMaxEntries bounds the table when the caller passes no limit.
const DefaultMaxEntries = 200

const schema = `
CREATE TABLE IF NOT EXISTS exchanges (
	id         TEXT PRIMARY KEY,
	recipe_id  TEXT NOT NULL,
	profile_id TEXT NOT NULL DEFAULT '',
	status     INTEGER NOT NULL,
	start_ns   INTEGER NOT NULL,
	end_ns     INTEGER NOT NULL,
	request    BLOB NOT NULL,
	response   BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS exchanges_recipe_start ON exchanges(recipe_id, start_ns DESC);
`

// Store persists completed exchanges in a sqlite database. Request and
// response records are stored as opaque JSON blobs; the columns mirror
// only what list queries need, so summaries never decode the blobs.
// The parsed-body cache is runtime state and is never written.
type Store struct {
	db         *sql.DB
	maxEntries int
}

// Open creates or opens the database at path, creating parent
// directories as needed. maxEntries <= 0 selects DefaultMaxEntries.
func Open(path string, maxEntries int) (*Store, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errdef.Wrap(errdef.CodeFilesystem, err, "create history directory")
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeHistory, err, "open history database")
	}
	// The store is used from one process; a single connection avoids
	// sqlite write contention entirely.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errdef.Wrap(errdef.CodeHistory, err, "apply history schema")
	}
	return &Store{db: db, maxEntries: maxEntries}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Append persists one exchange and evicts the oldest rows beyond the
// configured bound.
func (s *Store) Append(ex *exchange.Exchange) error {
	request, err := json.Marshal(ex.Request)
	if err != nil {
		return errdef.Wrap(errdef.CodeHistory, err, "encode request record")
	}
	response, err := json.Marshal(ex.Response)
	if err != nil {
		return errdef.Wrap(errdef.CodeHistory, err, "encode response record")
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO exchanges
		 (id, recipe_id, profile_id, status, start_ns, end_ns, request, response)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ex.ID.String(),
		string(ex.Request.RecipeID),
		string(ex.Request.ProfileID),
		ex.Response.Status,
		ex.Start.UnixNano(),
		ex.End.UnixNano(),
		request,
		response,
	)
	if err != nil {
		return errdef.Wrap(errdef.CodeHistory, err, "insert exchange")
	}
	_, err = s.db.Exec(
		`DELETE FROM exchanges WHERE id NOT IN
		 (SELECT id FROM exchanges ORDER BY start_ns DESC, id LIMIT ?)`,
		s.maxEntries,
	)
	if err != nil {
		return errdef.Wrap(errdef.CodeHistory, err, "evict old exchanges")
	}
	return nil
}

// Get loads one exchange by identifier. found is false when no row
// exists; that is not an error.
func (s *Store) Get(id exchange.RequestID) (*exchange.Exchange, bool, error) {
	row := s.db.QueryRow(
		`SELECT start_ns, end_ns, request, response FROM exchanges WHERE id = ?`,
		id.String(),
	)
	var startNS, endNS int64
	var requestBlob, responseBlob []byte
	if err := row.Scan(&startNS, &endNS, &requestBlob, &responseBlob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, errdef.Wrap(errdef.CodeHistory, err, "load exchange")
	}

	request := &exchange.RequestRecord{}
	if err := json.Unmarshal(requestBlob, request); err != nil {
		return nil, false, errdef.Wrap(errdef.CodeHistory, err, "decode request record")
	}
	response := &exchange.ResponseRecord{}
	if err := json.Unmarshal(responseBlob, response); err != nil {
		return nil, false, errdef.Wrap(errdef.CodeHistory, err, "decode response record")
	}
	ex := exchange.NewExchange(request, response, time.Unix(0, startNS), time.Unix(0, endNS))
	return ex, true, nil
}

// Summaries lists all stored exchanges newest first, straight from the
// columns without decoding any blob.
func (s *Store) Summaries() ([]exchange.ExchangeSummary, error) {
	return s.summaries(
		`SELECT id, status, start_ns, end_ns FROM exchanges ORDER BY start_ns DESC, id`)
}

// ByRecipe lists stored exchanges for one recipe, newest first.
func (s *Store) ByRecipe(recipeID recipe.RecipeID) ([]exchange.ExchangeSummary, error) {
	return s.summaries(
		`SELECT id, status, start_ns, end_ns FROM exchanges
		 WHERE recipe_id = ? ORDER BY start_ns DESC, id`,
		string(recipeID))
}

func (s *Store) summaries(query string, args ...interface{}) ([]exchange.ExchangeSummary, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeHistory, err, "list exchanges")
	}
	defer rows.Close()

	var out []exchange.ExchangeSummary
	for rows.Next() {
		var idText string
		var status int
		var startNS, endNS int64
		if err := rows.Scan(&idText, &status, &startNS, &endNS); err != nil {
			return nil, errdef.Wrap(errdef.CodeHistory, err, "scan exchange row")
		}
		id, err := exchange.ParseRequestID(idText)
		if err != nil {
			return nil, errdef.Wrap(errdef.CodeHistory, err, "parse stored id")
		}
		out = append(out, exchange.ExchangeSummary{
			ID:     id,
			Status: status,
			Start:  time.Unix(0, startNS),
			End:    time.Unix(0, endNS),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errdef.Wrap(errdef.CodeHistory, err, "iterate exchanges")
	}
	return out, nil
}

// Delete removes one exchange, reporting whether a row existed.
func (s *Store) Delete(id exchange.RequestID) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM exchanges WHERE id = ?`, id.String())
	if err != nil {
		return false, errdef.Wrap(errdef.CodeHistory, err, "delete exchange")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errdef.Wrap(errdef.CodeHistory, err, "delete exchange")
	}
	return n > 0, nil
}
