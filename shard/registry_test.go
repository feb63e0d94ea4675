package shard_test

import (
	"testing"

	"github.com/zond/wiremesh/shard"
)

func TestRegistryUnknown(t *testing.T) {
	r := shard.NewRegistry()
	if _, err := r.Create("nope"); err == nil {
		t.Fatal("expected RegistryError for unknown shard")
	}
}

func TestRegistryRoundTrip(t *testing.T) {
	r := shard.NewRegistry()
	r.Register("Const", func() shard.Shard { return nil })
	if names := r.Names(); len(names) != 1 || names[0] != "Const" {
		t.Fatalf("unexpected names: %v", names)
	}
	r.Unregister("Const")
	if len(r.Names()) != 0 {
		t.Fatal("expected empty registry after unregister")
	}
}
