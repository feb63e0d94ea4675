package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/buildkite/shellwords"
	"github.com/gertd/go-pluralize"
	"github.com/gliderlabs/ssh"
	"github.com/rodaine/table"
	"golang.org/x/term"

	"github.com/zond/wiremesh/abi"
	"github.com/zond/wiremesh/mesh"
	"github.com/zond/wiremesh/typeinfo"
	"github.com/zond/wiremesh/value"
)

// adminCommand and adminCommands form the console's dispatch table: each
// command owns a name set and a handler; attempt tries them in order.
type adminCommand struct {
	names map[string]bool
	help  string
	f     func(a *AdminSession, args []string) error
}

type adminCommands []adminCommand

func (cs adminCommands) attempt(a *AdminSession, name string, args []string) (bool, error) {
	for _, c := range cs {
		if c.names[name] {
			return true, c.f(a, args)
		}
	}
	return false, nil
}

func names(s ...string) map[string]bool {
	res := map[string]bool{}
	for _, p := range s {
		res[p] = true
	}
	return res
}

// AdminServer is the SSH remote console: a term.Terminal over each
// ssh.Session, dispatching admin commands that introspect and operate an
// abi.Runtime and the mesh.Mesh instances it hosts.
type AdminServer struct {
	Runtime  *abi.Runtime
	Meshes   map[string]*mesh.Mesh
	pluralizer *pluralize.Client
	commands adminCommands
}

// NewAdminServer constructs an AdminServer wired to rt; meshes are
// registered by name via RegisterMesh, so a host can expose one mesh per
// logical tenant or session.
func NewAdminServer(rt *abi.Runtime) *AdminServer {
	a := &AdminServer{
		Runtime:    rt,
		Meshes:     map[string]*mesh.Mesh{},
		pluralizer: pluralize.NewClient(),
	}
	a.commands = a.adminCommands()
	return a
}

// RegisterMesh makes m reachable from the console as name.
func (a *AdminServer) RegisterMesh(name string, m *mesh.Mesh) {
	a.Meshes[name] = m
}

// AdminSession is one connected console's state.
type AdminSession struct {
	server *AdminServer
	sess   ssh.Session
	term   *term.Terminal
}

// HandleSession is the gliderlabs/ssh Handler for the admin console:
// wrap the session in a term.Terminal, then loop reading and dispatching
// commands until EOF or "/quit".
func (a *AdminServer) HandleSession(sess ssh.Session) {
	s := &AdminSession{
		server: a,
		sess:   sess,
		term:   term.NewTerminal(sess, "admin> "),
	}
	for {
		line, err := s.term.ReadLine()
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts, err := shellwords.SplitPosix(line)
		if err != nil {
			fmt.Fprintf(s.term, "parse error: %v\n", err)
			continue
		}
		if len(parts) == 0 {
			continue
		}
		if parts[0] == "/quit" {
			return
		}
		found, err := a.commands.attempt(s, parts[0], parts[1:])
		if err != nil {
			fmt.Fprintf(s.term, "error: %v\n", err)
			continue
		}
		if !found {
			fmt.Fprintf(s.term, "unknown command %q; try /help\n", parts[0])
		}
	}
}

// adminCommands builds the console's command table: mesh/wire
// introspection and lifecycle control over a.Runtime and a.Meshes.
func (a *AdminServer) adminCommands() adminCommands {
	return adminCommands{
		{
			names: names("/help"),
			help:  "list available commands",
			f: func(s *AdminSession, args []string) error {
				var cmdNames []string
				for _, c := range s.server.commands {
					for n := range c.names {
						cmdNames = append(cmdNames, n)
					}
				}
				sort.Strings(cmdNames)
				fmt.Fprintln(s.term, strings.Join(cmdNames, " "))
				return nil
			},
		},
		{
			names: names("/shards"),
			help:  "list registered shard names",
			f: func(s *AdminSession, args []string) error {
				t := table.New("Shard").WithWriter(s.term)
				shardNames := s.server.Runtime.Registry.Names()
				sort.Strings(shardNames)
				for _, n := range shardNames {
					t.AddRow(n)
				}
				t.Print()
				fmt.Fprintf(s.term, "%d %s\n", len(shardNames), s.server.pluralizer.Pluralize("shard", len(shardNames), false))
				return nil
			},
		},
		{
			names: names("/meshes"),
			help:  "list registered meshes",
			f: func(s *AdminSession, args []string) error {
				t := table.New("Mesh", "Wires", "Failed").WithWriter(s.term)
				meshNames := make([]string, 0, len(s.server.Meshes))
				for n := range s.server.Meshes {
					meshNames = append(meshNames, n)
				}
				sort.Strings(meshNames)
				for _, n := range meshNames {
					m := s.server.Meshes[n]
					t.AddRow(n, len(m.Wires()), len(m.FailedWires()))
				}
				t.Print()
				return nil
			},
		},
		{
			names: names("/wires"),
			help:  "list wires in a mesh: /wires <mesh>",
			f: func(s *AdminSession, args []string) error {
				if len(args) != 1 {
					fmt.Fprintln(s.term, "usage: /wires <mesh>")
					return nil
				}
				m, ok := s.server.Meshes[args[0]]
				if !ok {
					fmt.Fprintf(s.term, "no such mesh %q\n", args[0])
					return nil
				}
				t := table.New("Wire", "State", "Looped", "Pure").WithWriter(s.term)
				for _, w := range m.Wires() {
					t.AddRow(w.WireName(), w.State().String(), w.Looped, w.Pure)
				}
				t.Print()
				return nil
			},
		},
		{
			names: names("/tick"),
			help:  "tick a mesh once: /tick <mesh>",
			f: func(s *AdminSession, args []string) error {
				if len(args) != 1 {
					fmt.Fprintln(s.term, "usage: /tick <mesh>")
					return nil
				}
				m, ok := s.server.Meshes[args[0]]
				if !ok {
					fmt.Fprintf(s.term, "no such mesh %q\n", args[0])
					return nil
				}
				fmt.Fprintf(s.term, "no failures: %v\n", m.Tick())
				return nil
			},
		},
		{
			names: names("/terminate"),
			help:  "terminate a mesh: /terminate <mesh>",
			f: func(s *AdminSession, args []string) error {
				if len(args) != 1 {
					fmt.Fprintln(s.term, "usage: /terminate <mesh>")
					return nil
				}
				m, ok := s.server.Meshes[args[0]]
				if !ok {
					fmt.Fprintf(s.term, "no such mesh %q\n", args[0])
					return nil
				}
				m.Terminate()
				fmt.Fprintln(s.term, "terminated")
				return nil
			},
		},
		{
			names: names("/load"),
			help:  "load a JSON graph doc and schedule it: /load <mesh> <file>",
			f: func(s *AdminSession, args []string) error {
				if len(args) != 2 {
					fmt.Fprintln(s.term, "usage: /load <mesh> <file>")
					return nil
				}
				m, ok := s.server.Meshes[args[0]]
				if !ok {
					fmt.Fprintf(s.term, "no such mesh %q\n", args[0])
					return nil
				}
				b, err := os.ReadFile(args[1])
				if err != nil {
					return err
				}
				doc, err := ParseGraphDoc(b)
				if err != nil {
					return err
				}
				w, err := doc.Build(s.server.Runtime.Registry)
				if err != nil {
					return err
				}
				diags, err := m.Schedule(w, value.None_(), true, typeinfo.NoneType)
				for _, d := range diags {
					fmt.Fprintf(s.term, "%s: %s\n", d.ShardName, d.Message)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(s.term, "scheduled %q\n", w.WireName())
				return nil
			},
		},
		{
			names: names("/errors"),
			help:  "show failure history for a mesh: /errors <mesh>",
			f: func(s *AdminSession, args []string) error {
				if len(args) != 1 {
					fmt.Fprintln(s.term, "usage: /errors <mesh>")
					return nil
				}
				m, ok := s.server.Meshes[args[0]]
				if !ok {
					fmt.Fprintf(s.term, "no such mesh %q\n", args[0])
					return nil
				}
				t := table.New("Wire", "At", "Error").WithWriter(s.term)
				for _, f := range m.Errors() {
					t.AddRow(f.WireName, f.At.Format("15:04:05"), f.Err)
				}
				t.Print()
				return nil
			},
		},
	}
}
