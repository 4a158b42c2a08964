// Package fetch downloads dataset archives from public graph
// repositories and S3-compatible mirrors.
//
// Transfers are resumable: bytes stream into a ".partial" file next to
// the destination, interrupted downloads continue from the partial
// file's size via HTTP Range requests, and the destination only appears
// once the transfer (and optional checksum verification) completed.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	partialSuffix = ".partial"
	copyChunk     = 256 * 1024
)

// Options configure a Client.
type Options struct {
	// HTTPClient used for http/https refs. Defaults to a client with a
	// 30s dial-level timeout left to the transport defaults.
	HTTPClient *http.Client
	// RateLimitBytesPerSec caps transfer throughput. 0 means unlimited.
	RateLimitBytesPerSec float64
	// Retries is how many times a failed transfer is re-attempted
	// (resuming from the partial file). Default 3.
	Retries int
	// UserAgent sent on HTTP requests.
	UserAgent string
	// Logger for transfer progress. Defaults to slog.Default().
	Logger *slog.Logger
}

// Request names one object to download.
type Request struct {
	URL  string
	Dest string
	// SHA256 is an optional hex digest; when set the downloaded file is
	// hashed before the destination is committed.
	SHA256 string
}

// Client downloads dataset files.
type Client struct {
	opts    Options
	limiter *rate.Limiter
	sources map[string]Source
}

// NewClient creates a Client.
func NewClient(optFns ...func(*Options)) *Client {
	opts := Options{
		HTTPClient: &http.Client{},
		Retries:    3,
		UserAgent:  defaultUserAgent,
		Logger:     slog.Default(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	c := &Client{opts: opts, sources: make(map[string]Source)}
	if opts.RateLimitBytesPerSec > 0 {
		burst := int(opts.RateLimitBytesPerSec)
		if burst < copyChunk {
			burst = copyChunk
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimitBytesPerSec), burst)
	}

	httpSrc := &httpSource{client: opts.HTTPClient, userAgent: opts.UserAgent}
	c.sources["http"] = httpSrc
	c.sources["https"] = httpSrc
	return c
}

// RegisterSource installs a Source for a URL scheme, e.g. "s3".
func (c *Client) RegisterSource(scheme string, src Source) {
	c.sources[scheme] = src
}

// Fetch downloads one object. A destination that already exists is
// skipped entirely.
func (c *Client) Fetch(ctx context.Context, req Request) error {
	log := c.opts.Logger.With("url", req.URL, "dest", req.Dest)

	if _, err := os.Stat(req.Dest); err == nil {
		log.InfoContext(ctx, "destination exists, skipping download")
		return nil
	}

	src, ref, err := c.sourceFor(req.URL)
	if err != nil {
		return err
	}

	partial := req.Dest + partialSuffix
	var lastErr error
	for attempt := 0; attempt <= c.opts.Retries; attempt++ {
		if attempt > 0 {
			log.WarnContext(ctx, "retrying download", "attempt", attempt, "error", lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second << uint(attempt-1)):
			}
		}
		lastErr = c.transfer(ctx, src, ref, partial, log)
		if lastErr == nil {
			break
		}
		if errors.Is(lastErr, ErrNotFound) || ctx.Err() != nil {
			return lastErr
		}
	}
	if lastErr != nil {
		return lastErr
	}

	if req.SHA256 != "" {
		if err := verifyChecksum(partial, req.SHA256); err != nil {
			os.Remove(partial)
			return err
		}
	}
	if err := os.Rename(partial, req.Dest); err != nil {
		return err
	}
	log.InfoContext(ctx, "download completed")
	return nil
}

// FetchAll downloads the requests with at most parallelism transfers in
// flight. The first error cancels the remaining transfers.
func (c *Client) FetchAll(ctx context.Context, reqs []Request, parallelism int) error {
	if parallelism < 1 {
		parallelism = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for _, req := range reqs {
		g.Go(func() error {
			return c.Fetch(ctx, req)
		})
	}
	return g.Wait()
}

func (c *Client) sourceFor(rawURL string) (Source, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", err
	}
	src, ok := c.sources[strings.ToLower(u.Scheme)]
	if !ok {
		return nil, "", fmt.Errorf("no source registered for scheme %q", u.Scheme)
	}
	return src, rawURL, nil
}

// transfer appends the remainder of ref to the partial file.
func (c *Client) transfer(ctx context.Context, src Source, ref, partial string, log *slog.Logger) error {
	var offset int64
	if info, err := os.Stat(partial); err == nil {
		offset = info.Size()
	}

	// Fresh unthrottled transfers can use a source's concurrent
	// downloader when it offers one.
	if dl, ok := src.(WriterAtDownloader); ok && offset == 0 && c.limiter == nil {
		f, err := os.OpenFile(partial, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		n, err := dl.Download(ctx, ref, f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err == nil {
			log.InfoContext(ctx, "downloaded via concurrent fast path", "bytes", n)
			return nil
		}
		// Concurrent parts land at arbitrary offsets, so a failed
		// download can leave zero-filled holes below the partial file's
		// size. The partial must not survive into a resume.
		os.Remove(partial)
		if ctx.Err() != nil {
			return err
		}
		log.WarnContext(ctx, "concurrent download failed, falling back to sequential transfer", "error", err)
	}

	obj, err := src.Open(ctx, ref, offset)
	if err != nil {
		return err
	}
	defer obj.Body.Close()

	flags := os.O_WRONLY | os.O_CREATE
	if obj.Offset == 0 {
		flags |= os.O_TRUNC
		if offset > 0 {
			log.InfoContext(ctx, "source does not support resume, restarting")
		}
	} else {
		flags |= os.O_APPEND
		log.InfoContext(ctx, "resuming download", "offset", obj.Offset)
	}

	out, err := os.OpenFile(partial, flags, 0644)
	if err != nil {
		return err
	}

	_, err = c.copy(ctx, out, obj.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}

// copy streams src to dst honoring the rate limiter and context.
func (c *Client) copy(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, copyChunk)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, rerr := src.Read(buf)
		if n > 0 {
			if c.limiter != nil {
				if err := c.limiter.WaitN(ctx, n); err != nil {
					return written, err
				}
			}
			w, werr := dst.Write(buf[:n])
			written += int64(w)
			if werr != nil {
				return written, werr
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

func verifyChecksum(path, wantHex string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return err
	}
	got := hex.EncodeToString(h.Sum(nil))
	if !strings.EqualFold(got, wantHex) {
		return fmt.Errorf("checksum mismatch for %s: got %s, want %s", path, got, wantHex)
	}
	return nil
}
