package toolshed

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// fakeStore is an in-memory ObjectStore for tests.
type fakeStore struct {
	objects   map[string][]byte
	listCalls int
	getCalls  int
	listErr   error
	getErr    error
}

func newFakeStore(objects map[string][]byte) *fakeStore {
	return &fakeStore{objects: objects}
}

func (f *fakeStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	var result []ObjectInfo
	for key, data := range f.objects {
		if prefix == "" || strings.HasPrefix(key, prefix) {
			result = append(result, ObjectInfo{Key: key, Size: int64(len(data))})
		}
	}
	return result, nil
}

func (f *fakeStore) Get(ctx context.Context, key string) ([]byte, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

func TestCatalogList_StripsPrefix(t *testing.T) {
	store := newFakeStore(map[string][]byte{
		"npm/left-pad/1.3.0/tool-codeql.sarif": []byte("{}"),
	})
	catalog := NewCatalog(store, 0)

	blobs := catalog.List(context.Background(), "npm/left-pad/1.3.0")
	if len(blobs) != 1 {
		t.Fatalf("expected 1 blob, got %d", len(blobs))
	}
	if blobs[0].FullPath != "npm/left-pad/1.3.0/tool-codeql.sarif" {
		t.Fatalf("unexpected full path: %q", blobs[0].FullPath)
	}
	if blobs[0].RelativePath != "tool-codeql.sarif" {
		t.Fatalf("unexpected relative path: %q", blobs[0].RelativePath)
	}
}

func TestCatalogList_CacheHit(t *testing.T) {
	store := newFakeStore(map[string][]byte{
		"npm/left-pad/1.3.0/tool-codeql.sarif": []byte("{}"),
	})
	catalog := NewCatalog(store, time.Hour)

	catalog.List(context.Background(), "npm/left-pad/1.3.0")
	catalog.List(context.Background(), "npm/left-pad/1.3.0")

	if store.listCalls != 1 {
		t.Fatalf("expected 1 provider listing, got %d", store.listCalls)
	}
}

func TestCatalogList_TTLExpiry(t *testing.T) {
	store := newFakeStore(map[string][]byte{
		"npm/left-pad/1.3.0/tool-codeql.sarif": []byte("{}"),
	})
	catalog := NewCatalog(store, time.Hour)

	now := time.Now()
	catalog.now = func() time.Time { return now }

	catalog.List(context.Background(), "npm/left-pad/1.3.0")
	catalog.List(context.Background(), "npm/left-pad/1.3.0")
	if store.listCalls != 1 {
		t.Fatalf("expected 1 provider listing before expiry, got %d", store.listCalls)
	}

	now = now.Add(time.Hour + time.Minute)
	catalog.List(context.Background(), "npm/left-pad/1.3.0")
	if store.listCalls != 2 {
		t.Fatalf("expected a fresh provider listing after expiry, got %d", store.listCalls)
	}
}

func TestCatalogList_ScopedPerPrefix(t *testing.T) {
	store := newFakeStore(map[string][]byte{
		"npm/left-pad/1.3.0/tool-codeql.sarif":   []byte("{}"),
		"pypi/requests/2.31.0/tool-bandit.sarif": []byte("{}"),
	})
	catalog := NewCatalog(store, time.Hour)

	catalog.List(context.Background(), "npm/left-pad/1.3.0")
	catalog.List(context.Background(), "pypi/requests/2.31.0")

	if store.listCalls != 2 {
		t.Fatalf("expected one listing per prefix, got %d", store.listCalls)
	}
}

func TestCatalogList_ProviderFailureDegradesToEmpty(t *testing.T) {
	store := newFakeStore(nil)
	store.listErr = errors.New("transport error")
	catalog := NewCatalog(store, time.Hour)

	blobs := catalog.List(context.Background(), "npm/left-pad/1.3.0")
	if len(blobs) != 0 {
		t.Fatalf("expected empty listing on provider failure, got %d blobs", len(blobs))
	}
}

func TestCatalogList_FailureNotCached(t *testing.T) {
	store := newFakeStore(map[string][]byte{
		"npm/left-pad/1.3.0/tool-codeql.sarif": []byte("{}"),
	})
	store.listErr = errors.New("transport error")
	catalog := NewCatalog(store, time.Hour)

	catalog.List(context.Background(), "npm/left-pad/1.3.0")

	store.listErr = nil
	blobs := catalog.List(context.Background(), "npm/left-pad/1.3.0")
	if len(blobs) != 1 {
		t.Fatalf("expected recovery after provider failure, got %d blobs", len(blobs))
	}
}

func TestCatalogContents(t *testing.T) {
	store := newFakeStore(map[string][]byte{
		"npm/left-pad/1.3.0/tool-codeql.sarif": []byte(`{"runs":[]}`),
	})
	catalog := NewCatalog(store, time.Hour)

	data := catalog.Contents(context.Background(), "npm/left-pad/1.3.0/tool-codeql.sarif")
	if string(data) != `{"runs":[]}` {
		t.Fatalf("unexpected contents: %q", data)
	}

	if data := catalog.Contents(context.Background(), "missing"); data != nil {
		t.Fatalf("expected nil for missing object, got %q", data)
	}
}
