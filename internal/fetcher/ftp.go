package fetcher

import (
	"context"
	"io"
	"net"
	"net/url"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FTPOptions configures the FTP fetcher.
type FTPOptions struct {
	Timeout time.Duration
	// MaxBytes rejects files whose reported size is larger before the
	// transfer starts. Zero disables the check.
	MaxBytes int64
}

// FTPFetcher downloads import files over FTP.
type FTPFetcher struct {
	opts FTPOptions
}

// NewFTPFetcher creates an FTPFetcher; the timeout defaults to 30s.
func NewFTPFetcher(opts FTPOptions) *FTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &FTPFetcher{opts: opts}
}

// ftpTarget is a parsed ftp:// location.
type ftpTarget struct {
	host, path string
	user, pass string
}

// parseFTPURL splits an ftp:// URL into server address, file path and
// login. The port defaults to 21 and the login to anonymous.
func parseFTPURL(rawURL string) (ftpTarget, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ftpTarget{}, eris.Wrap(err, "ftp: parse url")
	}
	if u.Scheme != "ftp" {
		return ftpTarget{}, eris.Errorf("ftp: expected ftp scheme, got %q", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		return ftpTarget{}, eris.New("ftp: url has no file path")
	}

	t := ftpTarget{host: u.Host, path: u.Path, user: "anonymous", pass: "anonymous@"}
	if u.Port() == "" {
		t.host = net.JoinHostPort(u.Hostname(), "21")
	}
	if name := u.User.Username(); name != "" {
		t.user = name
		t.pass, _ = u.User.Password()
	}
	return t, nil
}

// ftpBody streams a retrieved file; closing it ends the session.
type ftpBody struct {
	*ftp.Response
	conn *ftp.ServerConn
}

func (b *ftpBody) Close() error {
	err := b.Response.Close()
	if qerr := b.conn.Quit(); err == nil && qerr != nil {
		return eris.Wrap(qerr, "ftp: quit")
	}
	return eris.Wrap(err, "ftp: close transfer")
}

// Download logs in and starts retrieving the file at ftpURL. The returned
// body holds the connection open until closed.
func (f *FTPFetcher) Download(ctx context.Context, ftpURL string) (io.ReadCloser, error) {
	t, err := parseFTPURL(ftpURL)
	if err != nil {
		return nil, err
	}
	log := zap.L().With(zap.String("host", t.host), zap.String("path", t.path))

	conn, err := ftp.Dial(t.host, ftp.DialWithTimeout(f.opts.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, eris.Wrapf(err, "ftp: dial %s", t.host)
	}
	fail := func(err error, msg string) (io.ReadCloser, error) {
		_ = conn.Quit()
		return nil, eris.Wrap(err, msg)
	}

	if err := conn.Login(t.user, t.pass); err != nil {
		return fail(err, "ftp: login")
	}

	if f.opts.MaxBytes > 0 {
		// Servers without SIZE support are left to the reader-side cap.
		size, err := conn.FileSize(t.path)
		switch {
		case err != nil:
			log.Debug("ftp: size unavailable", zap.Error(err))
		case size > f.opts.MaxBytes:
			return fail(ErrTooLarge, "ftp: "+t.path)
		}
	}

	resp, err := conn.Retr(t.path)
	if err != nil {
		return fail(err, "ftp: retrieve")
	}
	log.Debug("ftp: transfer started")
	return &ftpBody{Response: resp, conn: conn}, nil
}
