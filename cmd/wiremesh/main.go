package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/gliderlabs/ssh"
	"github.com/zond/wiremesh/abi"
	"github.com/zond/wiremesh/cli"
	"github.com/zond/wiremesh/diag"
	"github.com/zond/wiremesh/mesh"
	"github.com/zond/wiremesh/stdshards"
)

func main() {
	sshIface := flag.String("ssh", "", "Where to listen to SSH admin-console connections; empty disables the console")
	dir := flag.String("dir", filepath.Join(os.Getenv("HOME"), ".wiremesh"), "Where to save diagnostics and settings")
	evalExpr := flag.String("e", "", "Evaluate one expression, print the result and exit")

	flag.Parse()

	dirFile, err := os.Open(*dir)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(*dir, 0700); err != nil {
			log.Fatal(err)
		}
	} else if err != nil {
		log.Fatal(err)
	} else {
		dirFile.Close()
	}

	logger := diag.New(filepath.Join(*dir, "wiremesh.log"))
	defer logger.Close()

	rt := abi.NewRuntime()
	stdshards.Register(rt.Registry)
	defer rt.Pool.Stop()

	m := mesh.New(context.Background())
	m.Logger = logger

	if *sshIface != "" {
		admin := cli.NewAdminServer(rt)
		admin.RegisterMesh("main", m)
		sshServer := &ssh.Server{
			Addr:    *sshIface,
			Handler: admin.HandleSession,
		}
		log.Printf("Serving admin console on %q", *sshIface)
		go func() {
			log.Fatal(sshServer.ListenAndServe())
		}()
	}

	args := flag.Args()
	if *evalExpr != "" {
		args = append([]string{"-e", *evalExpr}, args...)
	}
	code := cli.Run(args, cli.Config{
		HistoryPath: filepath.Join(*dir, "wiremesh-history.txt"),
	})
	m.Terminate()
	os.Exit(code)
}
