// internal/enrich/asn/acquire.go
package asn

import (
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"

	"originx/internal/platform/errors"
	"originx/internal/platform/httpclient"
	"originx/internal/platform/logx"
)

// AcquireOptions configura la obtención del snapshot ip2asn.
type AcquireOptions struct {
	// URL origen del snapshot comprimido (gzip)
	URL string

	// Path destino local del TSV descomprimido
	Path string

	// Refresh fuerza la descarga aunque exista un snapshot local
	Refresh bool
}

// EnsureSnapshot garantiza que el snapshot TSV exista en opts.Path y
// retorna esa ruta. Si ya existe (y no se pide refresh) se reutiliza; si
// no, se descarga con el cliente HTTP, se descomprime en streaming a un
// fichero temporal y se instala con un rename atómico.
func EnsureSnapshot(ctx context.Context, client *httpclient.Client, opts AcquireOptions, logger logx.Logger) (string, error) {
	if logger == nil {
		logger = logx.NewNop()
	}

	if !opts.Refresh {
		if info, err := os.Stat(opts.Path); err == nil && info.Size() > 0 {
			logger.Debug("using cached asn snapshot", "path", opts.Path, "bytes", info.Size())
			return opts.Path, nil
		}
	}

	logger.Info("downloading asn snapshot", "url", opts.URL)

	resp, err := client.Get(ctx, opts.URL, nil)
	if err != nil {
		return "", errors.Wrap(err, "asn snapshot download")
	}
	defer resp.Body.Close()

	if err := httpclient.CheckStatus(resp); err != nil {
		return "", errors.Wrap(err, "asn snapshot download")
	}

	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "asn snapshot decompress")
	}
	defer gz.Close()

	tmp, err := os.CreateTemp(filepath.Dir(opts.Path), ".originx-asn-*")
	if err != nil {
		return "", errors.Wrap(err, "asn snapshot temp file")
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, gz)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", errors.Wrap(err, "asn snapshot write")
	}

	if err := os.Rename(tmp.Name(), opts.Path); err != nil {
		return "", errors.Wrap(err, "asn snapshot install")
	}

	logger.Info("asn snapshot ready", "path", opts.Path, "bytes", written)
	return opts.Path, nil
}
