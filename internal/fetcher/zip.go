package fetcher

import (
	"archive/zip"
	"bytes"

	"github.com/rotisserie/eris"
)

// OpenZIP opens an archive held in memory.
func OpenZIP(data []byte) (*zip.Reader, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, eris.Wrap(err, "zip: open archive")
	}
	return r, nil
}

// ZIPMembers returns the regular files of an archive in archive order,
// skipping directory entries.
func ZIPMembers(r *zip.Reader) []*zip.File {
	files := make([]*zip.File, 0, len(r.File))
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		files = append(files, f)
	}
	return files
}
