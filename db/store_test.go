package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/tygra/attrs"
	"github.com/teranos/tygra/db"
	"github.com/teranos/tygra/errors"
	qtest "github.com/teranos/tygra/internal/testing"
	"github.com/teranos/tygra/model"
	"github.com/teranos/tygra/persist"
)

func sampleDocument(t *testing.T) (*model.Graph, *persist.Document) {
	t.Helper()
	g := model.New()
	animal, err := g.NewNode(g.TopNode())
	require.NoError(t, err)
	require.NoError(t, animal.SetAttr("label", "Animal"))
	require.NoError(t, animal.SetAttr("type", true))
	eats, err := g.NewRelation(g.TopNode(), g.TopNode(), g.TransitiveType())
	require.NoError(t, err)
	require.NoError(t, eats.SetAttr("label", "eats"))
	require.NoError(t, eats.SetAttr("type", true))

	fox, err := g.NewNode(animal)
	require.NoError(t, err)
	require.NoError(t, fox.SetAttr("label", "fox"))
	require.NoError(t, fox.SetAttr("weight", 6.5))
	require.NoError(t, fox.SetAttr("habitats", []string{"city", "forest"}))
	hen, err := g.NewNode(animal)
	require.NoError(t, err)
	require.NoError(t, hen.SetAttr("label", "hen"))
	r, err := g.NewRelation(fox, hen, eats)
	require.NoError(t, err)
	require.NoError(t, r.SetProperties(model.Symmetric))
	return g, persist.NewDocument(g)
}

func TestGraphStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := db.NewGraphStore(qtest.CreateMigratedDB(t), zaptest.NewLogger(t).Sugar())
	g, doc := sampleDocument(t)

	require.NoError(t, store.Save(ctx, doc))
	got, err := store.Load(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Version, got.Version)
	assert.Equal(t, doc.Scope, got.Scope)
	assert.Equal(t, doc.Records, got.Records)

	restored, report := got.Graph()
	require.True(t, report.OK(), "%v", report.Err())
	assert.Equal(t, g.Snapshot(), restored.Snapshot())
	fox := restored.FindByLabel("fox")[0]
	assert.Equal(t, 6.5, fox.Attrs().Get("weight"))
}

func TestGraphStoreRoundTrip_CoercedValues(t *testing.T) {
	ctx := context.Background()
	store := db.NewGraphStore(qtest.CreateMigratedDB(t), nil)
	g := model.New()
	box, err := g.NewNode(g.TopNode())
	require.NoError(t, err)
	require.NoError(t, box.SetAttr("label", "box"))
	require.NoError(t, box.SetAttr("minSize", 3.0))
	require.NoError(t, box.SetAttr("aspectRatio", 1))
	assert.True(t, errors.Is(box.SetAttr("minSize", 2.5), errors.ErrTypeMismatch))
	assert.True(t, errors.Is(box.SetAttr("notes", 42), errors.ErrTypeMismatch))

	doc := persist.NewDocument(g)
	require.NoError(t, store.Save(ctx, doc))
	got, err := store.Load(ctx, doc.ID)
	require.NoError(t, err)
	restored, report := got.Graph()
	require.True(t, report.OK(), "%v", report.Err())

	a := restored.FindByLabel("box")[0].Attrs()
	assert.Equal(t, 3, a.Get("minSize"))
	assert.Equal(t, 1.0, a.Get("aspectRatio"))
	d, ok := a.Local("minSize")
	require.True(t, ok)
	assert.Equal(t, attrs.KindInt, d.Kind)
}

func TestGraphStoreSave_RejectsMismatchedValue(t *testing.T) {
	ctx := context.Background()
	store := db.NewGraphStore(qtest.CreateMigratedDB(t), nil)
	_, doc := sampleDocument(t)
	doc.Records[0].Attrs = append(doc.Records[0].Attrs, attrs.Entry{
		Name:       "minSize",
		Definition: attrs.Definition{Value: 2.5, Kind: attrs.KindInt},
	})

	err := store.Save(ctx, doc)
	assert.True(t, errors.Is(err, errors.ErrTypeMismatch), "%v", err)
	_, err = store.Load(ctx, doc.ID)
	assert.True(t, errors.IsNotFoundError(err), "a rejected save leaves nothing behind")
}

func TestGraphStoreReplaceAndList(t *testing.T) {
	ctx := context.Background()
	conn := qtest.CreateMigratedDB(t)
	store := db.NewGraphStore(conn, nil)
	g, doc := sampleDocument(t)
	require.NoError(t, store.Save(ctx, doc))

	_, err := g.NewNode(g.TopNode())
	require.NoError(t, err)
	doc.Update(g)
	require.NoError(t, store.Save(ctx, doc))

	_, other := sampleDocument(t)
	require.NoError(t, store.Save(ctx, other))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	counts := map[uuid.UUID]int{}
	for _, info := range list {
		counts[info.ID] = info.Entities
		assert.False(t, info.SavedAt.IsZero())
		assert.Equal(t, persist.FormatVersion, info.Version)
	}
	assert.Equal(t, len(doc.Records), counts[doc.ID], "a second save replaces the first")
	assert.Equal(t, len(other.Records), counts[other.ID])

	var attrRows int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM attributes WHERE graph_id = ?", doc.ID.String()).Scan(&attrRows))
	expected := 0
	for _, rec := range doc.Records {
		expected += len(rec.Attrs)
	}
	assert.Equal(t, expected, attrRows)

	latest, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Contains(t, []uuid.UUID{doc.ID, other.ID}, latest.ID)

	require.NoError(t, store.Delete(ctx, doc.ID))
	_, err = store.Load(ctx, doc.ID)
	assert.True(t, errors.IsNotFoundError(err))
	assert.True(t, errors.IsNotFoundError(store.Delete(ctx, doc.ID)))
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM attributes WHERE graph_id = ?", doc.ID.String()).Scan(&attrRows))
	assert.Zero(t, attrRows, "attributes are removed with their graph")
}

func TestGraphStoreEmpty(t *testing.T) {
	store := db.NewGraphStore(qtest.CreateMigratedDB(t), nil)

	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = store.Latest(context.Background())
	assert.True(t, errors.IsNotFoundError(err))

	err = store.Save(context.Background(), &persist.Document{Version: persist.FormatVersion})
	assert.True(t, errors.IsInvalidRequestError(err))
}

// --- Sqlmock Tests ---

func TestGraphStoreSave_RollsBackOnFailure(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	_, doc := sampleDocument(t)
	gid := doc.ID.String()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM graphs WHERE id = \?`).
		WithArgs(gid).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO graphs`).
		WithArgs(gid, persist.FormatVersion, model.DefaultScope, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO entities`).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = db.NewGraphStore(conn, nil).Save(context.Background(), doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Contains(t, err.Error(), "insert entity "+doc.Records[0].ID.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGraphStoreLoad_RejectsNewerFormat(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	id := uuid.New()
	mock.ExpectQuery(`SELECT version, scope FROM graphs WHERE id = \?`).
		WithArgs(id.String()).
		WillReturnRows(sqlmock.NewRows([]string{"version", "scope"}).AddRow("2.0.0", "0,1"))

	_, err = db.NewGraphStore(conn, nil).Load(context.Background(), id)
	assert.True(t, errors.Is(err, errors.ErrUnsupportedFormat))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGraphStoreList_ScansRows(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	id := uuid.New()
	saved := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT g.id, g.version, g.scope, g.saved_at, COUNT\(e.id\)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "version", "scope", "saved_at", "count"}).
			AddRow(id.String(), "1.0.0", "0,1", saved, 7))

	list, err := db.NewGraphStore(conn, nil).List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, db.GraphInfo{ID: id, Version: "1.0.0", Scope: "0,1", SavedAt: saved, Entities: 7}, list[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGraphStore_ClosedDatabase(t *testing.T) {
	conn := qtest.CreateMigratedDB(t)
	store := db.NewGraphStore(conn, nil)
	conn.Close()

	_, err := store.List(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, db.ErrDatabaseClosed) || db.IsDatabaseClosed(err))
}
