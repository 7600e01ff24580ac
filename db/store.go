package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/tygra/attrs"
	"github.com/teranos/tygra/errors"
	"github.com/teranos/tygra/ident"
	"github.com/teranos/tygra/logger"
	"github.com/teranos/tygra/model"
	"github.com/teranos/tygra/persist"
)

// Query constants
const (
	graphDeleteQuery = `DELETE FROM graphs WHERE id = ?`

	graphInsertQuery = `
		INSERT INTO graphs (id, version, scope, saved_at)
		VALUES (?, ?, ?, ?)`

	entityInsertQuery = `
		INSERT INTO entities (graph_id, id, seq, kind, from_id, to_id, properties)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	attributeInsertQuery = `
		INSERT INTO attributes (graph_id, entity_id, name, kind, value, default_value, editable, system)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	graphSelectQuery = `SELECT version, scope FROM graphs WHERE id = ?`

	entitySelectQuery = `
		SELECT id, kind, from_id, to_id, properties
		FROM entities WHERE graph_id = ? ORDER BY seq`

	attributeSelectQuery = `
		SELECT entity_id, name, kind, value, default_value, editable, system
		FROM attributes WHERE graph_id = ? ORDER BY entity_id, name`

	graphListQuery = `
		SELECT g.id, g.version, g.scope, g.saved_at, COUNT(e.id)
		FROM graphs g LEFT JOIN entities e ON e.graph_id = g.id
		GROUP BY g.id ORDER BY g.saved_at DESC, g.id`
)

// GraphInfo summarizes a stored graph.
type GraphInfo struct {
	ID       uuid.UUID
	Version  string
	Scope    string
	SavedAt  time.Time
	Entities int
}

// GraphStore keeps graph documents in SQLite, one row per entity and per
// local attribute.
type GraphStore struct {
	db     *sql.DB
	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewGraphStore creates a store on a migrated database.
func NewGraphStore(db *sql.DB, log *zap.SugaredLogger) *GraphStore {
	return &GraphStore{
		db:     db,
		logger: componentLogger(log),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Save stores d, replacing any earlier version of the same document. The
// whole document is written in one transaction.
func (s *GraphStore) Save(ctx context.Context, d *persist.Document) error {
	if d.ID == uuid.Nil {
		return errors.NewInvalidRequestError("document without id")
	}
	gid := d.ID.String()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr(err, "begin save of %s", gid)
	}
	if err := s.save(ctx, tx, gid, d); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return wrapErr(err, "commit save of %s", gid)
	}
	s.logger.Debugw("saved graph",
		logger.FieldDocument, gid,
		logger.FieldCount, len(d.Records))
	return nil
}

func (s *GraphStore) save(ctx context.Context, tx *sql.Tx, gid string, d *persist.Document) error {
	if _, err := tx.ExecContext(ctx, graphDeleteQuery, gid); err != nil {
		return wrapErr(err, "replace graph %s", gid)
	}
	if _, err := tx.ExecContext(ctx, graphInsertQuery, gid, d.Version, d.Scope, s.now()); err != nil {
		return wrapErr(err, "insert graph %s", gid)
	}
	for seq, rec := range d.Records {
		var from, to sql.NullString
		if rec.IsRelation() {
			from = sql.NullString{String: rec.From.String(), Valid: true}
			to = sql.NullString{String: rec.To.String(), Valid: true}
		}
		eid := rec.ID.String()
		if _, err := tx.ExecContext(ctx, entityInsertQuery,
			gid, eid, seq, string(rec.Kind), from, to, int(rec.Properties)); err != nil {
			return wrapErr(err, "insert entity %s", eid)
		}
		for _, a := range rec.Attrs {
			kind := a.Kind
			if kind == "" {
				kind = attrs.KindOf(a.Value)
			}
			value, err := attrs.Format(kind, a.Value)
			if err != nil {
				return errors.Wrapf(err, "attribute %s of %s", a.Name, eid)
			}
			var def sql.NullString
			if a.HasDefault {
				text, err := attrs.Format(kind, a.Default)
				if err != nil {
					return errors.Wrapf(err, "default of attribute %s of %s", a.Name, eid)
				}
				def = sql.NullString{String: text, Valid: true}
			}
			if _, err := tx.ExecContext(ctx, attributeInsertQuery,
				gid, eid, a.Name, string(kind), value, def, a.Editable, a.System); err != nil {
				return wrapErr(err, "insert attribute %s of %s", a.Name, eid)
			}
		}
	}
	return nil
}

// Load reads the document with id back.
func (s *GraphStore) Load(ctx context.Context, id uuid.UUID) (*persist.Document, error) {
	gid := id.String()
	d := &persist.Document{ID: id}
	err := s.db.QueryRowContext(ctx, graphSelectQuery, gid).Scan(&d.Version, &d.Scope)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("graph %s", gid)
	}
	if err != nil {
		return nil, wrapErr(err, "load graph %s", gid)
	}
	if err := persist.CheckVersion(d.Version); err != nil {
		return nil, errors.Wrapf(err, "load graph %s", gid)
	}

	records, index, err := s.loadEntities(ctx, gid)
	if err != nil {
		return nil, err
	}
	if err := s.loadAttributes(ctx, gid, records, index); err != nil {
		return nil, err
	}
	d.Records = records
	return d, nil
}

func (s *GraphStore) loadEntities(ctx context.Context, gid string) ([]model.Record, map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, entitySelectQuery, gid)
	if err != nil {
		return nil, nil, wrapErr(err, "query entities of %s", gid)
	}
	defer rows.Close()

	var records []model.Record
	index := make(map[string]int)
	for rows.Next() {
		var (
			eid, kind string
			from, to  sql.NullString
			props     int
		)
		if err := rows.Scan(&eid, &kind, &from, &to, &props); err != nil {
			return nil, nil, wrapErr(err, "scan entity of %s", gid)
		}
		rec := model.Record{Kind: model.RecordKind(kind), Properties: model.PropertySet(props)}
		if rec.ID, err = ident.Parse(eid); err != nil {
			return nil, nil, errors.Wrapf(err, "entity id %q", eid)
		}
		if from.Valid {
			if rec.From, err = ident.Parse(from.String); err != nil {
				return nil, nil, errors.Wrapf(err, "from id of %s", eid)
			}
		}
		if to.Valid {
			if rec.To, err = ident.Parse(to.String); err != nil {
				return nil, nil, errors.Wrapf(err, "to id of %s", eid)
			}
		}
		index[eid] = len(records)
		records = append(records, rec)
	}
	return records, index, wrapErr(rows.Err(), "iterate entities of %s", gid)
}

func (s *GraphStore) loadAttributes(ctx context.Context, gid string, records []model.Record, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx, attributeSelectQuery, gid)
	if err != nil {
		return wrapErr(err, "query attributes of %s", gid)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			eid, name, kind, value string
			def                    sql.NullString
			editable, system       bool
		)
		if err := rows.Scan(&eid, &name, &kind, &value, &def, &editable, &system); err != nil {
			return wrapErr(err, "scan attribute of %s", gid)
		}
		i, ok := index[eid]
		if !ok {
			s.logger.Warnw("attribute of unknown entity ignored",
				logger.FieldDocument, gid,
				logger.FieldEntity, eid,
				logger.FieldAttr, name)
			continue
		}
		k := attrs.Kind(kind)
		v, err := attrs.Parse(k, value)
		if err != nil {
			return errors.Wrapf(err, "attribute %s of %s", name, eid)
		}
		entry := attrs.Entry{Name: name, Definition: attrs.Definition{Value: v, Kind: k, Editable: editable, System: system}}
		if def.Valid {
			if entry.Default, err = attrs.Parse(k, def.String); err != nil {
				return errors.Wrapf(err, "default of attribute %s of %s", name, eid)
			}
			entry.HasDefault = true
		}
		records[i].Attrs = append(records[i].Attrs, entry)
	}
	return wrapErr(rows.Err(), "iterate attributes of %s", gid)
}

// List returns the stored graphs, most recently saved first.
func (s *GraphStore) List(ctx context.Context) ([]GraphInfo, error) {
	rows, err := s.db.QueryContext(ctx, graphListQuery)
	if err != nil {
		return nil, wrapErr(err, "list graphs")
	}
	defer rows.Close()

	var out []GraphInfo
	for rows.Next() {
		var info GraphInfo
		var gid string
		if err := rows.Scan(&gid, &info.Version, &info.Scope, &info.SavedAt, &info.Entities); err != nil {
			return nil, wrapErr(err, "scan graph")
		}
		if info.ID, err = uuid.Parse(gid); err != nil {
			return nil, errors.Wrapf(err, "graph id %q", gid)
		}
		out = append(out, info)
	}
	return out, wrapErr(rows.Err(), "list graphs")
}

// Latest loads the most recently saved graph.
func (s *GraphStore) Latest(ctx context.Context) (*persist.Document, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, errors.NewNotFoundError("no graphs stored")
	}
	return s.Load(ctx, list[0].ID)
}

// Delete removes a stored graph.
func (s *GraphStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, graphDeleteQuery, id.String())
	if err != nil {
		return wrapErr(err, "delete graph %s", id)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NewNotFoundError("graph %s", id)
	}
	return nil
}
