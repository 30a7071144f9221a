package media

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/kbukum/transcribot/errors"
	"github.com/kbukum/transcribot/httpclient"
	"github.com/kbukum/transcribot/logger"
	"github.com/kbukum/transcribot/storage"
)

// Fetcher streams remote media into scratch storage.
type Fetcher struct {
	client  *httpclient.Client
	storage storage.Storage
	log     *logger.Logger
}

// NewFetcher creates a Fetcher. The client should have no timeout of its own
// (Timeout < 0); large files are bounded by ctx only.
func NewFetcher(client *httpclient.Client, store storage.Storage, log *logger.Logger) *Fetcher {
	if log == nil {
		log = logger.Nop()
	}
	return &Fetcher{client: client, storage: store, log: log.WithComponent("media")}
}

// Fetch downloads rawURL to localPath, creating parent directories. A failed
// transfer leaves no file behind. Errors never contain the URL path, which
// for Bot API file links embeds the bot token.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, localPath string) error {
	start := time.Now()
	host := hostOf(rawURL)
	resp, err := f.client.DoStream(ctx, httpclient.Request{Method: http.MethodGet, Path: rawURL})
	if err != nil {
		return apperrors.DownloadFailed(host, hideURL(err, rawURL))
	}
	defer resp.Close()

	if err := f.storage.Upload(ctx, localPath, resp.Body); err != nil {
		return apperrors.DownloadFailed(host, hideURL(err, rawURL))
	}

	fields := logger.DurationFields("fetch", time.Since(start))
	fields[logger.FieldPath] = localPath
	fields["bytes"] = resp.ContentLength
	f.log.Debug("Media downloaded", fields)
	return nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}

const hiddenPath = "/<hidden>"

// urlHidingError rewrites every spelling of a URL in the wrapped error's
// message. Unwrap keeps classification helpers working.
type urlHidingError struct {
	err      error
	replacer *strings.Replacer
}

func (e *urlHidingError) Error() string { return e.replacer.Replace(e.err.Error()) }

func (e *urlHidingError) Unwrap() error { return e.err }

func hideURL(err error, rawURL string) error {
	pairs := []string{rawURL, "<hidden>"}
	if u, perr := url.Parse(rawURL); perr == nil && u.Host != "" {
		pairs = []string{rawURL, u.Scheme + "://" + u.Host + hiddenPath}
		for _, s := range []string{u.EscapedPath(), u.Path, u.RawQuery} {
			if s != "" && s != "/" {
				pairs = append(pairs, s, hiddenPath)
			}
		}
	}
	// Replacer tries olds in argument order at each position, so the full
	// URL wins over its path.
	return &urlHidingError{err: err, replacer: strings.NewReplacer(pairs...)}
}
