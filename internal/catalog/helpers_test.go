package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/smileynet/roster/internal/remote"
)

// fakeSource is an in-memory Source that counts calls per key.
type fakeSource struct {
	mu           sync.Mutex
	entities     map[string]remote.Entity
	entityErrs   map[string]error
	related      map[string]string
	relatedErrs  map[string]error
	list         remote.ListResponse
	listErr      error
	entityCalls  map[string]int
	relatedCalls map[string]int
	listCalls    []remote.ListQuery

	// gate, when non-nil, blocks Entity until it is closed.
	gate chan struct{}
	// started receives the ID of every Entity call before it blocks on gate.
	started chan string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		entities:     make(map[string]remote.Entity),
		entityErrs:   make(map[string]error),
		related:      make(map[string]string),
		relatedErrs:  make(map[string]error),
		entityCalls:  make(map[string]int),
		relatedCalls: make(map[string]int),
	}
}

func (f *fakeSource) addPerson(id, name, homeworld string) {
	f.entities[id] = remote.Entity{
		UID: id,
		Properties: map[string]string{
			"name":      name,
			"height":    "172",
			"gender":    "male",
			"homeworld": homeworld,
		},
	}
}

func (f *fakeSource) List(_ context.Context, q remote.ListQuery) (remote.ListResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls = append(f.listCalls, q)
	return f.list, f.listErr
}

func (f *fakeSource) Entity(_ context.Context, id string) (remote.Entity, error) {
	f.mu.Lock()
	f.entityCalls[id]++
	gate, started := f.gate, f.started
	f.mu.Unlock()

	if started != nil {
		started <- id
	}
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.entityErrs[id]; err != nil {
		return remote.Entity{}, err
	}
	e, ok := f.entities[id]
	if !ok {
		return remote.Entity{}, &remote.FetchError{Kind: remote.NonOkStatus, Code: 404, URL: "/people/" + id}
	}
	return e, nil
}

func (f *fakeSource) RelatedName(_ context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.relatedCalls[url]++
	if err := f.relatedErrs[url]; err != nil {
		return "", err
	}
	name, ok := f.related[url]
	if !ok {
		return "", fmt.Errorf("no related entity %s", url)
	}
	return name, nil
}

func (f *fakeSource) entityCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entityCalls[id]
}

func (f *fakeSource) relatedCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.relatedCalls[url]
}

func (f *fakeSource) totalRelatedCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.relatedCalls {
		n += c
	}
	return n
}

func (f *fakeSource) setEntityErr(id string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.entityErrs, id)
		return
	}
	f.entityErrs[id] = err
}

func planetURL(n int) string {
	return fmt.Sprintf("https://www.swapi.tech/api/planets/%d", n)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
