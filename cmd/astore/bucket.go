package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
)

// Buckets is the subcommand listing all buckets.
func Buckets(ctx context.Context, cfg *commonConfig, args []string) error {
	fs := flag.NewFlagSet("astore buckets", flag.ExitOnError)
	fs.Parse(args)

	res, err := cfg.Client.ListBuckets(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	for _, b := range res.Buckets {
		fmt.Fprintf(w, "%s\t%s\n", b.Name, b.CreationDate.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

// MkBucket is the subcommand creating a bucket.
func MkBucket(ctx context.Context, cfg *commonConfig, args []string) error {
	fs := flag.NewFlagSet("astore mkbucket", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: astore mkbucket <bucket>")
	}
	return cfg.Client.CreateBucket(ctx, fs.Arg(0))
}

// RmBucket is the subcommand deleting a bucket.
func RmBucket(ctx context.Context, cfg *commonConfig, args []string) error {
	fs := flag.NewFlagSet("astore rmbucket", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: astore rmbucket <bucket>")
	}
	return cfg.Client.DeleteBucket(ctx, fs.Arg(0))
}
