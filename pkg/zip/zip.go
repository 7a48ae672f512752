package zip

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"time"
)

// Entry is one file on disk to place in an archive.
type Entry struct {
	Name string
	Path string
}

// WriteArchive streams entries into a zip archive written to w. Files are
// copied from disk one at a time; nothing is buffered whole in memory.
func WriteArchive(w io.Writer, entries []Entry) error {
	zw := zip.NewWriter(w)
	for _, e := range entries {
		if err := addFile(zw, e); err != nil {
			_ = zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("zip: close archive: %w", err)
	}
	return nil
}

func addFile(zw *zip.Writer, e Entry) error {
	f, err := os.Open(e.Path)
	if err != nil {
		return fmt.Errorf("zip: open %s: %w", e.Name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("zip: stat %s: %w", e.Name, err)
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("zip: header %s: %w", e.Name, err)
	}
	hdr.Name = e.Name
	hdr.Method = zip.Deflate
	hdr.Modified = info.ModTime().UTC().Truncate(time.Second)

	fw, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("zip: create %s: %w", e.Name, err)
	}
	if _, err := io.Copy(fw, f); err != nil {
		return fmt.Errorf("zip: write %s: %w", e.Name, err)
	}
	return nil
}
