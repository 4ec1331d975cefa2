// Package sqlitedoc stores a document in a SQLite database file so loads can
// accumulate across runs.
package sqlitedoc

import (
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/geodoc/internal/document"
)

const schema = `
CREATE TABLE IF NOT EXISTS layers (
	idx   INTEGER PRIMARY KEY,
	name  TEXT NOT NULL UNIQUE,
	color TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS objects (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	kind       TEXT NOT NULL,
	layer      INTEGER NOT NULL,
	geometry   TEXT NOT NULL,
	attributes TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS objects_by_layer ON objects (layer);
`

// Document is a document.Document backed by SQLite.
type Document struct {
	db  *sql.DB
	dsn string
}

// Open opens or creates the database at dsn, which may be a file path or a
// go-sqlite3 DSN such as "file::memory:?cache=shared".
func Open(dsn string) (*Document, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite %s", dsn)
	}

	// one writer, and in-memory DSNs must share a single connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create schema")
	}

	log.Debug().Str("dsn", dsn).Msg("SQLite document opened")

	return &Document{db: db, dsn: dsn}, nil
}

var _ document.Document = (*Document)(nil)

// DSN returns the data source the document was opened with.
func (d *Document) DSN() string {
	return d.dsn
}

// Close releases the database.
func (d *Document) Close() error {
	return d.db.Close()
}

// Layers returns the layer table.
func (d *Document) Layers() document.LayerTable { return layers{d.db} }

// Objects returns the object table.
func (d *Document) Objects() document.ObjectTable { return objects{d.db} }

type layers struct{ db *sql.DB }

func (t layers) Find(name string) (int, error) {
	var idx int
	err := t.db.QueryRow(`SELECT idx FROM layers WHERE name = ?`, name).Scan(&idx)
	if errors.Is(err, sql.ErrNoRows) {
		return document.NoLayer, nil
	}
	if err != nil {
		return document.NoLayer, errors.Wrapf(err, "find layer %q", name)
	}
	return idx, nil
}

func (t layers) Add(name string, color document.Color) (int, error) {
	if name == "" {
		return document.NoLayer, document.ErrEmptyLayerName
	}

	tx, err := t.db.Begin()
	if err != nil {
		return document.NoLayer, errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback() }()

	var idx int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM layers`).Scan(&idx); err != nil {
		return document.NoLayer, errors.Wrap(err, "count layers")
	}

	if _, err := tx.Exec(`INSERT INTO layers (idx, name, color) VALUES (?, ?, ?)`, idx, name, color.String()); err != nil {
		return document.NoLayer, errors.Wrapf(err, "add layer %q", name)
	}

	if err := tx.Commit(); err != nil {
		return document.NoLayer, errors.Wrap(err, "commit")
	}

	return idx, nil
}

func (t layers) Get(index int) (document.Layer, error) {
	var name, color string
	err := t.db.QueryRow(`SELECT name, color FROM layers WHERE idx = ?`, index).Scan(&name, &color)
	if errors.Is(err, sql.ErrNoRows) {
		return document.Layer{}, errors.Wrapf(document.ErrLayerNotFound, "index %d", index)
	}
	if err != nil {
		return document.Layer{}, errors.Wrapf(err, "get layer %d", index)
	}
	return scanLayer(index, name, color)
}

func (t layers) SetColor(index int, color document.Color) error {
	res, err := t.db.Exec(`UPDATE layers SET color = ? WHERE idx = ?`, color.String(), index)
	if err != nil {
		return errors.Wrapf(err, "set color of layer %d", index)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(document.ErrLayerNotFound, "index %d", index)
	}
	return nil
}

func (t layers) List() ([]document.Layer, error) {
	rows, err := t.db.Query(`SELECT idx, name, color FROM layers ORDER BY idx`)
	if err != nil {
		return nil, errors.Wrap(err, "list layers")
	}
	defer func() { _ = rows.Close() }()

	var out []document.Layer
	for rows.Next() {
		var idx int
		var name, color string
		if err := rows.Scan(&idx, &name, &color); err != nil {
			return nil, errors.Wrap(err, "scan layer")
		}
		l, err := scanLayer(idx, name, color)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanLayer(idx int, name, color string) (document.Layer, error) {
	var c document.Color
	// stored colors are JSON-compatible strings
	if err := c.UnmarshalJSON([]byte(`"` + color + `"`)); err != nil {
		return document.Layer{}, errors.Wrapf(err, "layer %q", name)
	}
	return document.Layer{Index: idx, Name: name, Color: c}, nil
}

type objects struct{ db *sql.DB }

func (t objects) layerIndex(attrs *document.Attributes) (int, error) {
	if attrs == nil || attrs.LayerIndex == document.NoLayer {
		return document.NoLayer, nil
	}
	if _, err := (layers{t.db}).Get(attrs.LayerIndex); err != nil {
		return document.NoLayer, err
	}
	return attrs.LayerIndex, nil
}

func (t objects) insert(tx *sql.Tx, obj document.Object, layer int) (document.ObjectID, error) {
	var geometry interface{} = obj.Point
	if obj.Kind == document.KindCurve {
		geometry = obj.Curve
	}

	geomJSON, err := json.Marshal(geometry)
	if err != nil {
		return "", errors.Wrap(err, "encode geometry")
	}

	attrs := obj.Attributes
	if attrs == nil {
		attrs = document.NewAttributes()
	}
	attrJSON, err := json.Marshal(attrs)
	if err != nil {
		return "", errors.Wrap(err, "encode attributes")
	}

	id := document.ObjectID(uuid.NewString())
	_, err = tx.Exec(
		`INSERT INTO objects (id, kind, layer, geometry, attributes) VALUES (?, ?, ?, ?, ?)`,
		string(id), string(obj.Kind), layer, string(geomJSON), string(attrJSON))
	if err != nil {
		return "", errors.Wrap(err, "insert object")
	}

	return id, nil
}

func (t objects) addAll(objs []document.Object, attrs *document.Attributes) ([]document.ObjectID, error) {
	layer, err := t.layerIndex(attrs)
	if err != nil {
		return nil, err
	}

	tx, err := t.db.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback() }()

	ids := make([]document.ObjectID, 0, len(objs))
	for _, obj := range objs {
		obj.Attributes = attrs
		id, err := t.insert(tx, obj, layer)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	return ids, nil
}

func (t objects) AddPoint(p document.Point3d, attrs *document.Attributes) (document.ObjectID, error) {
	ids, err := t.AddPoints([]document.Point3d{p}, attrs)
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

func (t objects) AddPoints(points []document.Point3d, attrs *document.Attributes) ([]document.ObjectID, error) {
	objs := make([]document.Object, 0, len(points))
	for i, p := range points {
		if !p.Valid() {
			return nil, errors.Wrapf(document.ErrInvalidPoint, "point %d", i)
		}
		objs = append(objs, document.Object{Kind: document.KindPoint, Point: p})
	}
	return t.addAll(objs, attrs)
}

func (t objects) AddCurve(c *document.Curve, attrs *document.Attributes) (document.ObjectID, error) {
	if c == nil || len(c.Points) < 2 {
		return "", document.ErrDegenerateCurve
	}
	ids, err := t.addAll([]document.Object{{Kind: document.KindCurve, Curve: c}}, attrs)
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

func (t objects) Find(id document.ObjectID) (document.Object, error) {
	row := t.db.QueryRow(`SELECT id, kind, geometry, attributes FROM objects WHERE id = ?`, string(id))
	obj, err := scanObject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return document.Object{}, errors.Wrapf(document.ErrObjectNotFound, "id %s", id)
	}
	return obj, err
}

func (t objects) List() ([]document.Object, error) {
	rows, err := t.db.Query(`SELECT id, kind, geometry, attributes FROM objects ORDER BY seq`)
	if err != nil {
		return nil, errors.Wrap(err, "list objects")
	}
	defer func() { _ = rows.Close() }()

	var out []document.Object
	for rows.Next() {
		obj, err := scanObject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanObject(s scanner) (document.Object, error) {
	var id, kind, geomJSON, attrJSON string
	if err := s.Scan(&id, &kind, &geomJSON, &attrJSON); err != nil {
		return document.Object{}, err
	}

	obj := document.Object{
		ID:         document.ObjectID(id),
		Kind:       document.Kind(kind),
		Attributes: &document.Attributes{},
	}

	switch obj.Kind {
	case document.KindCurve:
		obj.Curve = &document.Curve{}
		if err := json.Unmarshal([]byte(geomJSON), obj.Curve); err != nil {
			return document.Object{}, errors.Wrapf(err, "decode curve %s", id)
		}
	default:
		if err := json.Unmarshal([]byte(geomJSON), &obj.Point); err != nil {
			return document.Object{}, errors.Wrapf(err, "decode point %s", id)
		}
	}

	if err := json.Unmarshal([]byte(attrJSON), obj.Attributes); err != nil {
		return document.Object{}, errors.Wrapf(err, "decode attributes %s", id)
	}

	return obj, nil
}
