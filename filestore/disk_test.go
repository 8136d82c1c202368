package filestore

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
)

func TestDiskRoundTrip(t *testing.T) {
	store := NewDiskFileStore(t.TempDir())

	key := "exports/table=orders/city=NYC/f_abc.parquet"
	err := store.WriteFile(context.Background(), key, bytes.NewReader([]byte("hello")))
	if err != nil {
		t.Fatal(err)
	}

	// the partition path lands on disk as directories
	if _, err := os.Stat(store.Path(key)); err != nil {
		t.Fatal(err)
	}

	b, err := store.ReadFile(context.Background(), key)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "hello" {
		t.Fatal("got", string(b))
	}
}

func TestDiskNotFound(t *testing.T) {
	store := NewDiskFileStore(t.TempDir())
	_, err := store.ReadFile(context.Background(), "nope.parquet")
	if !errors.Is(err, ErrNotFound) {
		t.Fatal("expected ErrNotFound, got", err)
	}
}

func TestDiskOverwrite(t *testing.T) {
	store := NewDiskFileStore(t.TempDir())

	if err := store.WriteFile(context.Background(), "f.parquet", bytes.NewReader([]byte("one"))); err != nil {
		t.Fatal(err)
	}
	if err := store.WriteFile(context.Background(), "f.parquet", bytes.NewReader([]byte("two"))); err != nil {
		t.Fatal(err)
	}
	b, err := store.ReadFile(context.Background(), "f.parquet")
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "two" {
		t.Fatal("got", string(b))
	}
}
