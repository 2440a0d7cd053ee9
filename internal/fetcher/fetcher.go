// Package fetcher opens import files from a local path or a remote
// http(s)/ftp location.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Fetcher downloads a remote file.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// File is an opened import file. Name carries the extension used to pick a
// decoder.
type File struct {
	Name string
	Body io.ReadCloser
}

// ErrTooLarge is returned when a remote file exceeds the Opener's size cap.
var ErrTooLarge = eris.New("fetcher: file exceeds size limit")

// Opener resolves a file location to a readable File.
type Opener struct {
	HTTP Fetcher
	FTP  Fetcher
	// MaxBytes caps the size of remote files. Zero means no cap.
	MaxBytes int64
}

// NewOpener creates an Opener with HTTP and FTP fetchers.
func NewOpener(httpOpts HTTPOptions, ftpOpts FTPOptions) *Opener {
	return &Opener{
		HTTP: NewHTTPFetcher(httpOpts),
		FTP:  NewFTPFetcher(ftpOpts),
	}
}

// Open returns the file at location. Locations without a URL scheme are
// local paths.
func (o *Opener) Open(ctx context.Context, location string) (*File, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, eris.New("fetcher: empty file location")
	}

	scheme := ""
	if i := strings.Index(location, "://"); i > 0 {
		scheme = strings.ToLower(location[:i])
	}

	var f Fetcher
	switch scheme {
	case "":
		body, err := os.Open(location)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: open %s", location)
		}
		return &File{Name: filepath.Base(location), Body: body}, nil
	case "http", "https":
		f = o.HTTP
	case "ftp":
		f = o.FTP
	default:
		return nil, eris.Errorf("fetcher: unsupported scheme %q", scheme)
	}
	if f == nil {
		return nil, eris.Errorf("fetcher: no fetcher configured for %s", scheme)
	}

	body, err := f.Download(ctx, location)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: download %s", location)
	}
	if o.MaxBytes > 0 {
		body = &limitedBody{rc: body, left: o.MaxBytes}
	}
	return &File{Name: remoteName(location), Body: body}, nil
}

// limitedBody fails with ErrTooLarge once more than its budget is read.
type limitedBody struct {
	rc   io.ReadCloser
	left int64
}

func (b *limitedBody) Read(p []byte) (int, error) {
	if b.left < 0 {
		return 0, ErrTooLarge
	}
	// Read one byte past the budget so an exact-size file still ends in EOF.
	if int64(len(p)) > b.left+1 {
		p = p[:b.left+1]
	}
	n, err := b.rc.Read(p)
	b.left -= int64(n)
	if b.left < 0 {
		return n + int(b.left), ErrTooLarge
	}
	return n, err
}

func (b *limitedBody) Close() error { return b.rc.Close() }

// remoteName returns the last path segment of a URL.
func remoteName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return rawURL
	}
	return path.Base(u.Path)
}
