package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/geodoc/internal/document"
	"github.com/woozymasta/geodoc/internal/geo"
)

const collection = `{"type":"FeatureCollection","features":[
	{"type":"Feature","geometry":{"type":"Point","coordinates":[102.0,0.5]},"properties":{"prop0":"value0"}},
	{"type":"Feature","geometry":{"type":"LineString","coordinates":[[102,0],[103,1]]},"properties":{"prop1":0.0}}
]}`

func newTestServer(t *testing.T) (*httptest.Server, *document.MemoryDocument) {
	t.Helper()

	doc := document.NewMemoryDocument()
	ctx := NewServerContext(doc, geo.ProjectionNone, nil)
	srv := httptest.NewServer(RequestLogger(ctx.Routes()))
	t.Cleanup(srv.Close)

	return srv, doc
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/geo+json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestLoad(t *testing.T) {
	srv, doc := newTestServer(t)

	resp := post(t, srv.URL+"/api/load?layer=pois&color=%23ff0000", collection)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ids []document.ObjectID
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ids))
	require.Len(t, ids, 2)

	obj, err := doc.Objects().Find(ids[1])
	require.NoError(t, err)
	v, _ := obj.Attributes.UserString("prop1")
	assert.Equal(t, "0.0", v)

	layers, err := doc.Layers().List()
	require.NoError(t, err)
	require.Len(t, layers, 1)
	assert.Equal(t, document.Color{R: 255, A: 255}, layers[0].Color)
}

func TestLoadErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"malformed", "/api/load", `{"type":`, http.StatusUnprocessableEntity},
		{"collection", "/api/load", `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},
			"geometry":{"type":"GeometryCollection","geometries":[]}}]}`, http.StatusUnprocessableEntity},
		{"bad color", "/api/load?layer=a&color=nope", collection, http.StatusBadRequest},
		{"layers not object", "/api/layers", `[]`, http.StatusUnprocessableEntity},
		{"trailing data", "/api/load", collection + ` }x[`, http.StatusUnprocessableEntity},
		{"bare feature", "/api/load", `{"type":"Feature","properties":{},
			"geometry":{"type":"Point","coordinates":[1,2]}}`, http.StatusUnprocessableEntity},
		{"short position", "/api/load", `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},
			"geometry":{"type":"Point","coordinates":[5]}}]}`, http.StatusUnprocessableEntity},
		{"empty layer key", "/api/layers", `{"":` + collection + `}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv.URL+tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}

	resp, err := http.Get(srv.URL + "/api/load")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestLayersAndObjects(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := post(t, srv.URL+"/api/layers", `{"b":`+collection+`,"a":`+collection+`}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var results [][]document.ObjectID
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&results))
	require.Len(t, results, 2)
	assert.Len(t, results[0], 2)

	get := func(path string) *http.Response {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	var layers []document.Layer
	require.NoError(t, json.NewDecoder(get("/api/layers").Body).Decode(&layers))
	require.Len(t, layers, 2)
	assert.Equal(t, "b", layers[0].Name)

	var objects []json.RawMessage
	require.NoError(t, json.NewDecoder(get("/api/objects?layer=a").Body).Decode(&objects))
	assert.Len(t, objects, 2)

	assert.Equal(t, http.StatusNotFound, get("/api/objects?layer=zzz").StatusCode)
}

func TestExports(t *testing.T) {
	srv, _ := newTestServer(t)
	post(t, srv.URL+"/api/load", collection)

	tests := []struct {
		path        string
		contentType string
	}{
		{"/document.geojson", "application/geo+json"},
		{"/document.svg", "image/svg+xml"},
		{"/preview.webp?size=64", "image/webp"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.contentType, resp.Header.Get("Content-Type"))
		})
	}

	for _, size := range []string{"2", "8192", "x"} {
		resp, err := http.Get(srv.URL + "/preview.webp?size=" + size)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, size)
	}
}
