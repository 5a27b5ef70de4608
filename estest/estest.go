// Package estest provides an in-memory fake Elasticsearch server for tests. It implements just
// enough of the REST API (info, field usage stats, mappings, cat indices/master, nodes info,
// index creation and bulk) to exercise the clients in this module.
package estest

import (
	"bufio"
	"bytes"
	"fmt"
	es "github.com/elastic/go-elasticsearch/v7"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// type Document is a single document received by the bulk endpoint.
type Document struct {
	Index string
	ID    string
	Body  []byte
}

// type Fixtures are the canned responses served by a fake server.
type Fixtures struct {
	// Version is the version number reported by the info endpoint. Defaults to 7.17.0.
	Version string
	// FieldUsage is the body returned by `/{index}/_field_usage_stats`, whatever the index.
	FieldUsage string
	// Mappings maps index names to the JSON object of their `mappings.properties`.
	Mappings map[string]string
	// CatIndices is the JSON array returned by `/_cat/indices`.
	CatIndices string
	// NodeID is the id of the node answering requests. Defaults to "local-node".
	NodeID string
	// MasterID is the id of the elected master. Defaults to NodeID.
	MasterID string
	// ExistingIndices are rejected with resource_already_exists_exception on creation.
	ExistingIndices []string
	// FailDocument, if set, fails any bulk item for which it returns true.
	FailDocument func(doc Document) bool
}

// type Server is a fake Elasticsearch server.
type Server struct {
	*httptest.Server
	fixtures *Fixtures
	mu       sync.Mutex
	calls    map[string]int
	created  map[string][]byte
	docs     []Document
	auto_id  int
}

// NewServer starts a new fake Elasticsearch server which is closed when t completes.
func NewServer(t *testing.T, fixtures *Fixtures) *Server {

	if fixtures == nil {
		fixtures = &Fixtures{}
	}

	if fixtures.Version == "" {
		fixtures.Version = "7.17.0"
	}

	if fixtures.NodeID == "" {
		fixtures.NodeID = "local-node"
	}

	if fixtures.MasterID == "" {
		fixtures.MasterID = fixtures.NodeID
	}

	s := &Server{
		fixtures: fixtures,
		calls:    make(map[string]int),
		created:  make(map[string][]byte),
		docs:     make([]Document, 0),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleInfo)
	mux.HandleFunc("GET /{index}/_field_usage_stats", s.handleFieldUsage)
	mux.HandleFunc("GET /{index}/_mapping", s.handleMapping)
	mux.HandleFunc("GET /_cat/indices", s.handleCatIndices)
	mux.HandleFunc("GET /_cat/indices/{index}", s.handleCatIndices)
	mux.HandleFunc("GET /_cat/master", s.handleCatMaster)
	mux.HandleFunc("GET /_nodes/_local", s.handleNodesInfo)
	mux.HandleFunc("PUT /{index}", s.handleCreateIndex)
	mux.HandleFunc("POST /_bulk", s.handleBulk)
	mux.HandleFunc("POST /{index}/_bulk", s.handleBulk)

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Log(r.Method, r.URL.String())

		s.mu.Lock()
		s.calls[r.Method+" "+r.URL.Path]++
		s.mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		mux.ServeHTTP(w, r)
	}))

	t.Cleanup(s.Close)
	return s
}

// NewClient returns a client for s.
func (s *Server) NewClient(t *testing.T) *es.Client {

	client, err := es.NewClient(es.Config{
		Addresses: []string{s.URL},
	})

	require.NoError(t, err)
	return client
}

// Calls returns the number of requests received for method and path.
func (s *Server) Calls(method string, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

// Created returns the body of the create-index request for index, if any.
func (s *Server) Created(index string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.created[index]
	return body, ok
}

// Documents returns every document successfully indexed, in the order received.
func (s *Server) Documents() []Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := make([]Document, len(s.docs))
	copy(docs, s.docs)
	return docs
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {

	body := fmt.Sprintf(`{"name":"%s","cluster_name":"estest","version":{"number":"%s","build_flavor":"default"},"tagline":"You Know, for Search"}`, s.fixtures.NodeID, s.fixtures.Version)
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleFieldUsage(w http.ResponseWriter, r *http.Request) {

	if s.fixtures.FieldUsage == "" {
		writeError(w, http.StatusNotFound, "index_not_found_exception", "no such index ["+r.PathValue("index")+"]")
		return
	}

	writeJSON(w, http.StatusOK, s.fixtures.FieldUsage)
}

func (s *Server) handleMapping(w http.ResponseWriter, r *http.Request) {

	idx := r.PathValue("index")
	props, ok := s.fixtures.Mappings[idx]

	if !ok {
		writeError(w, http.StatusNotFound, "index_not_found_exception", "no such index ["+idx+"]")
		return
	}

	body := fmt.Sprintf(`{%q:{"mappings":{"properties":%s}}}`, idx, props)
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleCatIndices(w http.ResponseWriter, r *http.Request) {

	body := s.fixtures.CatIndices

	if body == "" {
		body = "[]"
	}

	h := r.URL.Query().Get("h")

	if h == "" {
		writeJSON(w, http.StatusOK, body)
		return
	}

	// Only return the requested columns, the way the real API does
	cols := strings.Split(h, ",")
	out := "[]"

	for _, row := range gjson.Parse(body).Array() {

		doc := "{}"

		for _, col := range cols {

			v := row.Get(escapePath(col))

			if !v.Exists() {
				continue
			}

			doc, _ = sjson.SetRaw(doc, escapePath(col), v.Raw)
		}

		out, _ = sjson.SetRaw(out, "-1", doc)
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCatMaster(w http.ResponseWriter, r *http.Request) {
	body := fmt.Sprintf(`[{"id":%q,"host":"127.0.0.1","ip":"127.0.0.1","node":"master"}]`, s.fixtures.MasterID)
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleNodesInfo(w http.ResponseWriter, r *http.Request) {
	body := fmt.Sprintf(`{"_nodes":{"total":1,"successful":1,"failed":0},"cluster_name":"estest","nodes":{%q:{"name":"local"}}}`, s.fixtures.NodeID)
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleCreateIndex(w http.ResponseWriter, r *http.Request) {

	idx := r.PathValue("index")

	body, err := io.ReadAll(r.Body)

	if err != nil {
		writeError(w, http.StatusInternalServerError, "io_exception", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.created[idx]

	for _, name := range s.fixtures.ExistingIndices {

		if name == idx {
			exists = true
		}
	}

	if exists {
		writeError(w, http.StatusBadRequest, "resource_already_exists_exception", "index ["+idx+"] already exists")
		return
	}

	s.created[idx] = body
	writeJSON(w, http.StatusOK, fmt.Sprintf(`{"acknowledged":true,"shards_acknowledged":true,"index":%q}`, idx))
}

func (s *Server) handleBulk(w http.ResponseWriter, r *http.Request) {

	default_index := r.PathValue("index")

	scanner := bufio.NewScanner(r.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	s.mu.Lock()
	defer s.mu.Unlock()

	items := "[]"
	has_errors := false

	for scanner.Scan() {

		meta := bytes.TrimSpace(scanner.Bytes())

		if len(meta) == 0 {
			continue
		}

		action := ""
		var params gjson.Result

		gjson.ParseBytes(meta).ForEach(func(key gjson.Result, value gjson.Result) bool {
			action = key.String()
			params = value
			return false
		})

		if !scanner.Scan() {
			writeError(w, http.StatusBadRequest, "illegal_argument_exception", "missing document body")
			return
		}

		doc := Document{
			Index: params.Get("_index").String(),
			ID:    params.Get("_id").String(),
			Body:  append([]byte(nil), scanner.Bytes()...),
		}

		if doc.Index == "" {
			doc.Index = default_index
		}

		if doc.ID == "" {
			s.auto_id++
			doc.ID = fmt.Sprintf("auto-%d", s.auto_id)
		}

		item := fmt.Sprintf(`{%q:{"_index":%q,"_id":%q,"status":201,"result":"created"}}`, action, doc.Index, doc.ID)

		if s.fixtures.FailDocument != nil && s.fixtures.FailDocument(doc) {
			has_errors = true
			item = fmt.Sprintf(`{%q:{"_index":%q,"_id":%q,"status":400,"error":{"type":"mapper_parsing_exception","reason":"failed to parse"}}}`, action, doc.Index, doc.ID)
		} else {
			s.docs = append(s.docs, doc)
		}

		items, _ = sjson.SetRaw(items, "-1", item)
	}

	if err := scanner.Err(); err != nil {
		writeError(w, http.StatusBadRequest, "parse_exception", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, fmt.Sprintf(`{"took":1,"errors":%t,"items":%s}`, has_errors, items))
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func writeError(w http.ResponseWriter, status int, err_type string, reason string) {
	body := fmt.Sprintf(`{"error":{"root_cause":[{"type":%q,"reason":%q}],"type":%q,"reason":%q},"status":%d}`, err_type, reason, err_type, reason, status)
	writeJSON(w, status, body)
}

var pathReplacer = strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)

// escapePath escapes a literal key for use as a gjson/sjson path.
func escapePath(key string) string {
	return pathReplacer.Replace(key)
}
