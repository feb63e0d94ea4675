package cli

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"golang.org/x/term"

	"github.com/zond/wiremesh/abi"
	"github.com/zond/wiremesh/mesh"
	"github.com/zond/wiremesh/shard"
	"github.com/zond/wiremesh/stdshards"
	"github.com/zond/wiremesh/typeinfo"
	"github.com/zond/wiremesh/value"
	"github.com/zond/wiremesh/wire"
)

// testReadWriter combines a Reader and Writer into an io.ReadWriter, to
// drive a term.Terminal without a real pty.
type testReadWriter struct {
	io.Reader
	io.Writer
}

func testTerminal() (*term.Terminal, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	rw := &testReadWriter{Reader: &bytes.Buffer{}, Writer: buf}
	return term.NewTerminal(rw, ""), buf
}

func TestAdminShardsCommand(t *testing.T) {
	rt := abi.NewRuntime()
	stdshards.Register(rt.Registry)
	srv := NewAdminServer(rt)

	terminal, buf := testTerminal()
	s := &AdminSession{server: srv, term: terminal}

	found, err := srv.commands.attempt(s, "/shards", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("expected /shards to be found")
	}
	if !strings.Contains(buf.String(), "Const") {
		t.Fatalf("expected Const in shard listing, got %q", buf.String())
	}
}

func TestAdminMeshAndWiresCommands(t *testing.T) {
	rt := abi.NewRuntime()
	stdshards.Register(rt.Registry)
	srv := NewAdminServer(rt)

	m := mesh.New(nil)
	constShard, _ := rt.Registry.Create("Const")
	cs := constShard.(*stdshards.Const)
	if err := cs.SetParam(0, value.Int_(1)); err != nil {
		t.Fatal(err)
	}
	w, err := wire.New("w1", []shard.Shard{cs}, wire.Config{Pure: true})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Schedule(w, value.None_(), true, typeinfo.NoneType); err != nil {
		t.Fatal(err)
	}
	srv.RegisterMesh("m1", m)

	terminal, buf := testTerminal()
	s := &AdminSession{server: srv, term: terminal}

	if _, err := srv.commands.attempt(s, "/meshes", nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "m1") {
		t.Fatalf("expected m1 in mesh listing, got %q", buf.String())
	}

	buf.Reset()
	if _, err := srv.commands.attempt(s, "/wires", []string{"m1"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "w1") {
		t.Fatalf("expected w1 in wire listing, got %q", buf.String())
	}
}

func TestAdminUnknownMesh(t *testing.T) {
	rt := abi.NewRuntime()
	srv := NewAdminServer(rt)
	terminal, buf := testTerminal()
	s := &AdminSession{server: srv, term: terminal}

	if _, err := srv.commands.attempt(s, "/tick", []string{"nope"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "no such mesh") {
		t.Fatalf("expected no-such-mesh message, got %q", buf.String())
	}
}
