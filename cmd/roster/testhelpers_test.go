package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/smileynet/roster/internal/catalog"
	"github.com/smileynet/roster/internal/config"
	"github.com/smileynet/roster/internal/logging"
	"github.com/smileynet/roster/internal/remote"
)

// catalogServer is a small swapi.tech-shaped people catalog: two pages of
// size 2 holding three people on two planets.
type catalogServer struct {
	*httptest.Server

	mu     sync.Mutex
	counts map[string]int
}

type person struct {
	uid, name, gender, planet string
}

var people = []person{
	{"1", "Luke Skywalker", "male", "1"},
	{"2", "C-3PO", "n/a", "1"},
	{"3", "R2-D2", "n/a", "8"},
}

var planets = map[string]string{"1": "Tatooine", "8": "Naboo"}

// newCatalogServer starts the catalog. failures maps a request path to a
// status code returned instead of the normal body.
func newCatalogServer(t *testing.T, failures map[string]int) *catalogServer {
	t.Helper()
	cs := &catalogServer{counts: make(map[string]int)}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs.mu.Lock()
		cs.counts[r.URL.Path]++
		cs.mu.Unlock()

		if code, ok := failures[r.URL.Path]; ok {
			http.Error(w, "boom", code)
			return
		}
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.URL.Path == "/api/people":
			cs.writeList(w, r)
		case strings.HasPrefix(r.URL.Path, "/api/people/"):
			cs.writePerson(w, r, strings.TrimPrefix(r.URL.Path, "/api/people/"))
		case strings.HasPrefix(r.URL.Path, "/api/planets/"):
			name, ok := planets[strings.TrimPrefix(r.URL.Path, "/api/planets/")]
			if !ok {
				http.NotFound(w, r)
				return
			}
			fmt.Fprintf(w, `{"message":"ok","result":{"properties":{"name":%q}}}`, name)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(cs.Close)
	return cs
}

func (cs *catalogServer) writeList(w http.ResponseWriter, r *http.Request) {
	if term := r.URL.Query().Get("name"); term != "" {
		var entries []string
		for _, p := range people {
			if strings.Contains(strings.ToLower(p.name), strings.ToLower(term)) {
				entries = append(entries, fmt.Sprintf(`{"uid":%q,"properties":{"name":%q,"url":"%s/api/people/%s"}}`, p.uid, p.name, cs.URL, p.uid))
			}
		}
		fmt.Fprintf(w, `{"message":"ok","result":[%s]}`, strings.Join(entries, ","))
		return
	}

	start, next, prev := 0, fmt.Sprintf(`"%s/api/people?page=2&limit=2"`, cs.URL), "null"
	if r.URL.Query().Get("page") == "2" {
		start, next, prev = 2, "null", fmt.Sprintf(`"%s/api/people?page=1&limit=2"`, cs.URL)
	}
	var entries []string
	for _, p := range people[start:min(start+2, len(people))] {
		entries = append(entries, fmt.Sprintf(`{"uid":%q,"name":%q,"url":"%s/api/people/%s"}`, p.uid, p.name, cs.URL, p.uid))
	}
	fmt.Fprintf(w, `{"message":"ok","total_records":3,"total_pages":2,"previous":%s,"next":%s,"results":[%s]}`,
		prev, next, strings.Join(entries, ","))
}

func (cs *catalogServer) writePerson(w http.ResponseWriter, r *http.Request, uid string) {
	for _, p := range people {
		if p.uid != uid {
			continue
		}
		fmt.Fprintf(w, `{"message":"ok","result":{"uid":%q,"description":"A person","properties":{`+
			`"name":%q,"height":"172","gender":%q,"eye_color":"blue","films":["a","b"],`+
			`"created":"2025-01-01T00:00:00Z","url":"%s/api/people/%s","homeworld":"%s/api/planets/%s"}}}`,
			p.uid, p.name, p.gender, cs.URL, p.uid, cs.URL, p.planet)
		return
	}
	http.NotFound(w, r)
}

// count returns how many requests hit path.
func (cs *catalogServer) count(path string) int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.counts[path]
}

// testSession wires a session to cs the same way the commands do.
func testSession(t *testing.T, cs *catalogServer) *catalog.Session {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.API.BaseURL = cs.URL + "/api"
	sess := newSession(&cfg, logging.Discard(), remote.WithHTTPClient(cs.Client()))
	t.Cleanup(func() { sess.Close() })
	return sess
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
