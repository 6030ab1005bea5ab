package fetcher

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FTPOptions configures the FTP fetcher.
type FTPOptions struct {
	Timeout time.Duration
}

// FTPFetcher reads archives from FTP mirrors of the disclosure portal.
// Each Download is one session: dial, login, retrieve, quit.
type FTPFetcher struct {
	opts FTPOptions
}

// NewFTPFetcher creates an FTPFetcher. A zero timeout means 10s per dial.
func NewFTPFetcher(opts FTPOptions) *FTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	return &FTPFetcher{opts: opts}
}

type ftpTarget struct {
	host, path string
	user, pass string
}

// parseFTPURL splits an ftp:// URL. Port 21 and anonymous login are the
// defaults when the URL names neither.
func parseFTPURL(rawURL string) (ftpTarget, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ftpTarget{}, eris.Wrap(err, "ftp: parse url")
	}
	if u.Scheme != "ftp" {
		return ftpTarget{}, eris.Errorf("ftp: expected ftp scheme, got %q", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		return ftpTarget{}, eris.New("ftp: empty path in url")
	}

	t := ftpTarget{host: u.Host, path: u.Path, user: "anonymous", pass: "anonymous@"}
	if _, _, err := net.SplitHostPort(t.host); err != nil {
		t.host = net.JoinHostPort(t.host, "21")
	}
	if u.User != nil && u.User.Username() != "" {
		t.user = u.User.Username()
		t.pass, _ = u.User.Password()
	}
	return t, nil
}

// Download retrieves the whole file before returning, so the session never
// outlives ctx. A 550 reply is reported as a *StatusError with 404, the
// same way an unpublished archive looks over HTTP.
func (f *FTPFetcher) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	t, err := parseFTPURL(rawURL)
	if err != nil {
		return nil, err
	}
	log := zap.L().With(zap.String("component", "fetcher.ftp"), zap.String("host", t.host))
	log.Debug("ftp: connecting", zap.String("path", t.path))

	conn, err := ftp.Dial(t.host, ftp.DialWithTimeout(f.opts.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, eris.Wrap(err, "ftp: dial")
	}

	// Closing the control connection aborts a transfer blocked on ctx.
	stop := context.AfterFunc(ctx, func() { _ = conn.Quit() })
	defer stop()

	data, err := retrieve(conn, t)
	if ctx.Err() != nil {
		return nil, eris.Wrap(ctx.Err(), "ftp: retrieve")
	}
	if err != nil {
		_ = conn.Quit()
		var reply *textproto.Error
		if errors.As(err, &reply) && reply.Code == ftp.StatusFileUnavailable {
			return nil, &StatusError{StatusCode: http.StatusNotFound, URL: rawURL}
		}
		return nil, err
	}
	if err := conn.Quit(); err != nil {
		log.Debug("ftp: quit", zap.Error(err))
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func retrieve(conn *ftp.ServerConn, t ftpTarget) ([]byte, error) {
	if err := conn.Login(t.user, t.pass); err != nil {
		return nil, eris.Wrap(err, "ftp: login")
	}
	resp, err := conn.Retr(t.path)
	if err != nil {
		return nil, eris.Wrapf(err, "ftp: retrieve %s", t.path)
	}
	data, readErr := io.ReadAll(resp)
	closeErr := resp.Close()
	if readErr != nil {
		return nil, eris.Wrapf(readErr, "ftp: read %s", t.path)
	}
	if closeErr != nil {
		return nil, eris.Wrapf(closeErr, "ftp: finish %s", t.path)
	}
	return data, nil
}
