package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/klauspost/compress/gzip"

	"github.com/candlekeep/astore-go/client"
)

// Ls is the subcommand listing objects in a bucket.
func Ls(ctx context.Context, cfg *commonConfig, args []string) error {
	fs := flag.NewFlagSet("astore ls", flag.ExitOnError)
	prefix := fs.String("prefix", "", "key prefix filter")
	maxKeys := fs.Int("max-keys", 1000, "maximum number of keys to return")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: astore ls [flags] <bucket>")
	}

	res, err := cfg.Client.ListObjects(ctx, fs.Arg(0), &client.ListOptions{
		Prefix:  *prefix,
		MaxKeys: *maxKeys,
	})
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	for _, o := range res.Objects {
		fmt.Fprintf(w, "%s\t%d\t%s\n", o.Key, o.Size, o.LastModified.Format("2006-01-02 15:04:05"))
	}
	if res.IsTruncated {
		fmt.Fprintln(w, "(truncated)")
	}
	return w.Flush()
}

// Upload is the subcommand storing a local file.
func Upload(ctx context.Context, cfg *commonConfig, args []string) error {
	fs := flag.NewFlagSet("astore upload", flag.ExitOnError)
	contentType := fs.String("content-type", "", "content type of the artifact")
	meta := fs.String("metadata", "", "comma-separated key=value metadata entries")
	compress := fs.Bool("z", false, "gzip the artifact while uploading")
	quiet := fs.Bool("q", false, "suppress the progress report")
	fs.Parse(args)
	if fs.NArg() != 3 {
		return fmt.Errorf("usage: astore upload [flags] <file> <bucket> <key>")
	}
	file, bucket, key := fs.Arg(0), fs.Arg(1), fs.Arg(2)

	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return err
	}

	opts := client.UploadOptions{
		ContentType: *contentType,
		Metadata:    parseMetadata(*meta),
	}
	if !*quiet {
		opts.Progress = progressTicker("uploaded")
		defer fmt.Fprintln(os.Stderr)
	}

	var body io.Reader = f
	size := fi.Size()
	if *compress {
		// The compressed length is unknown until the stream finishes, so
		// the request goes out without a Content-Length.
		size = 0
		pr, pw := io.Pipe()
		gz := gzip.NewWriter(pw)
		go func() {
			_, err := io.Copy(gz, f)
			if err == nil {
				err = gz.Close()
			}
			pw.CloseWithError(err)
		}()
		body = pr
		if opts.ContentType == "" {
			opts.ContentType = "application/gzip"
		}
	}

	return cfg.Client.Upload(ctx, bucket, key, body, size, &opts)
}

// Download is the subcommand fetching an object into a local file.
func Download(ctx context.Context, cfg *commonConfig, args []string) error {
	fs := flag.NewFlagSet("astore download", flag.ExitOnError)
	byteRange := fs.String("range", "", `byte range, e.g. "bytes=0-1023"`)
	decompress := fs.Bool("z", false, "gunzip the artifact while downloading")
	quiet := fs.Bool("q", false, "suppress the progress report")
	fs.Parse(args)
	if fs.NArg() != 3 {
		return fmt.Errorf("usage: astore download [flags] <bucket> <key> <file>")
	}
	bucket, key, file := fs.Arg(0), fs.Arg(1), fs.Arg(2)

	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer f.Close()

	opts := client.DownloadOptions{Range: *byteRange}
	if !*quiet {
		opts.Progress = progressTicker("downloaded")
		defer fmt.Fprintln(os.Stderr)
	}

	if !*decompress {
		return cfg.Client.Download(ctx, bucket, key, f, &opts)
	}

	pr, pw := io.Pipe()
	errc := make(chan error, 1)
	go func() {
		gz, err := gzip.NewReader(pr)
		if err == nil {
			_, err = io.Copy(f, gz)
		}
		pr.CloseWithError(err)
		errc <- err
	}()
	err = cfg.Client.Download(ctx, bucket, key, pw, &opts)
	pw.CloseWithError(err)
	if gzErr := <-errc; err == nil {
		err = gzErr
	}
	return err
}

// Stat is the subcommand printing object metadata.
func Stat(ctx context.Context, cfg *commonConfig, args []string) error {
	fs := flag.NewFlagSet("astore stat", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: astore stat <bucket> <key>")
	}

	obj, err := cfg.Client.GetObjectMetadata(ctx, fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintf(w, "Key:\t%s\n", obj.Key)
	fmt.Fprintf(w, "Size:\t%d\n", obj.Size)
	fmt.Fprintf(w, "Content-Type:\t%s\n", obj.ContentType)
	fmt.Fprintf(w, "ETag:\t%s\n", obj.ETag)
	fmt.Fprintf(w, "Last-Modified:\t%s\n", obj.LastModified.Format("2006-01-02 15:04:05"))
	for k, v := range obj.Metadata {
		fmt.Fprintf(w, "Meta[%s]:\t%s\n", k, v)
	}
	return w.Flush()
}

// Rm is the subcommand deleting an object.
func Rm(ctx context.Context, cfg *commonConfig, args []string) error {
	fs := flag.NewFlagSet("astore rm", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: astore rm <bucket> <key>")
	}
	return cfg.Client.DeleteObject(ctx, fs.Arg(0), fs.Arg(1))
}

// Cp is the subcommand copying an object server-side.
func Cp(ctx context.Context, cfg *commonConfig, args []string) error {
	fs := flag.NewFlagSet("astore cp", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 4 {
		return fmt.Errorf("usage: astore cp <src-bucket> <src-key> <dst-bucket> <dst-key>")
	}
	return cfg.Client.CopyObject(ctx, fs.Arg(0), fs.Arg(1), fs.Arg(2), fs.Arg(3))
}

func parseMetadata(s string) map[string]string {
	if s == "" {
		return nil
	}
	out := map[string]string{}
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		out[k] = v
	}
	return out
}
