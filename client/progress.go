package client

import "io"

// ProgressFunc receives the cumulative number of bytes transferred so far,
// never the per-chunk delta. It is invoked synchronously on the goroutine
// performing the transfer, once per chunk, and so must not block.
type ProgressFunc func(bytesTransferred int64)

// progressReader decorates an upload body. It does not buffer or otherwise
// alter the underlying transfer.
type progressReader struct {
	r  io.Reader
	fn ProgressFunc
	n  int64
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.n += int64(n)
		pr.fn(pr.n)
	}
	return n, err
}

// progressWriter decorates a download sink.
type progressWriter struct {
	w  io.Writer
	fn ProgressFunc
	n  int64
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.w.Write(p)
	if n > 0 {
		pw.n += int64(n)
		pw.fn(pw.n)
	}
	return n, err
}
