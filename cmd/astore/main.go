// Command astore is a command-line interface to a candlekeep artifact
// store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/candlekeep/astore-go/client"
)

type commonConfig struct {
	Client *client.Client
}

type subcmd func(context.Context, *commonConfig, []string) error

var subcmds = map[string]subcmd{
	"buckets":      Buckets,
	"mkbucket":     MkBucket,
	"rmbucket":     RmBucket,
	"ls":           Ls,
	"upload":       Upload,
	"download":     Download,
	"stat":         Stat,
	"rm":           Rm,
	"cp":           Cp,
	"sign":         Sign,
	"verify":       Verify,
	"signatures":   Signatures,
	"sbom":         SBOM,
	"attest":       Attest,
	"attestations": Attestations,
}

func main() {
	var exit int
	defer func() {
		if exit != 0 {
			os.Exit(exit)
		}
	}()
	ctx, done := context.WithCancel(context.Background())
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
		<-ch
		done()
	}()

	fs := flag.NewFlagSet("main", flag.ExitOnError)
	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "Usage of %s:\n", os.Args[0])
		fs.PrintDefaults()
		fmt.Fprintf(out, "\nSubcommands\n\n")
		fmt.Fprintln(out, "  buckets | mkbucket | rmbucket")
		fmt.Fprintln(out, "  ls | upload | download | stat | rm | cp")
		fmt.Fprintln(out, "  sign | verify | signatures | sbom | attest | attestations")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Run a subcommand with -h for its flags.")
	}
	server := fs.String("server", os.Getenv("ASTORE_SERVER"), "artifact store URL (or ASTORE_SERVER)")
	token := fs.String("token", os.Getenv("ASTORE_TOKEN"), "bearer token (or ASTORE_TOKEN)")
	timeout := fs.Duration("timeout", time.Minute, "per-request timeout")
	insecure := fs.Bool("insecure", false, "skip TLS certificate verification")
	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatal(err)
	}

	cmd, ok := subcmds[fs.Arg(0)]
	switch {
	case fs.Arg(0) == "":
		fs.Usage()
		os.Exit(99)
	case !ok:
		fs.Usage()
		fmt.Fprintf(os.Stderr, "\nunknown subcommand %q\n", fs.Arg(0))
		os.Exit(99)
	}

	c, err := client.New(client.Config{
		BaseURL:            *server,
		Token:              *token,
		Timeout:            *timeout,
		InsecureSkipVerify: *insecure,
	})
	if err != nil {
		log.Print(err)
		exit = 1
		return
	}
	cfg := commonConfig{Client: c}

	if err := cmd(ctx, &cfg, fs.Args()[1:]); err != nil {
		log.Print(err)
		exit = 2
	}
}

// progressTicker writes a cumulative byte count to stderr, for interactive
// upload/download feedback.
func progressTicker(label string) client.ProgressFunc {
	return func(n int64) {
		fmt.Fprintf(os.Stderr, "\r%s: %d bytes", label, n)
	}
}
