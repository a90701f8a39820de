package database

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/foxxcyber/pex/internal/config"
)

func exerciseStateStore(t *testing.T, s StateStore) {
	t.Helper()
	ctx := context.Background()

	got, err := s.Get(ctx, "missing")
	if err != nil || got != nil {
		t.Fatalf("Get(missing) = %q, %v; want nil, nil", got, err)
	}

	if err := s.Set(ctx, "pex_inventory", []byte(`[]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "pex_inventory", []byte(`[{"id":"1"}]`)); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}

	got, err = s.Get(ctx, "pex_inventory")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, []byte(`[{"id":"1"}]`)) {
		t.Errorf("Get = %s", got)
	}
}

func TestBoltStore(t *testing.T) {
	s, err := OpenBolt(filepath.Join(t.TempDir(), "pex.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	exerciseStateStore(t, s)
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pex.db")
	ctx := context.Background()

	s, err := OpenBolt(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = OpenBolt(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	got, err := s.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Errorf("Get after reopen = %q, %v", got, err)
	}
}

func TestBoltStoreCancelledContext(t *testing.T) {
	s, err := OpenBolt(filepath.Join(t.TempDir(), "pex.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Set(ctx, "k", []byte("v")); err == nil {
		t.Error("Set with cancelled context should fail")
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "pex.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	exerciseStateStore(t, s)
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(&config.Config{StorageDriver: "mongo"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestOpenBoltDriver(t *testing.T) {
	s, err := Open(&config.Config{StorageDriver: "bolt", BoltPath: filepath.Join(t.TempDir(), "x.db")})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, ok := s.(*BoltStore); !ok {
		t.Errorf("got %T, want *BoltStore", s)
	}
}
