package pack

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gradreader/readerpack/core"
)

// ModTime is the modification time of all archive entries.
var ModTime = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// ManifestJSON returns the manifest of a pack as indented JSON.
func (p *Pack) ManifestJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p.Manifest); err != nil {
		return nil, core.WrapError(err, core.EINTERNAL, "cannot encode manifest")
	}
	return buf.Bytes(), nil
}

// WriteZip writes the archive of a pack: all files in manifest order, then
// the manifest.
func (p *Pack) WriteZip(w io.Writer) error {
	manifest, err := p.ManifestJSON()
	if err != nil {
		return err
	}
	zw := zip.NewWriter(w)
	for _, f := range p.Files {
		if err := writeEntry(zw, f.Name, f.Data); err != nil {
			return err
		}
	}
	if err := writeEntry(zw, ManifestName, manifest); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return nil
}

// Bytes returns the archive of a pack.
func (p *Pack) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.WriteZip(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	header := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: ModTime,
	}
	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	if _, err = w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// Verify checks an archive: the manifest must be its last entry, every
// other entry must be listed in the manifest, in order, and match its
// hash. Verify returns the manifest of a valid archive.
func Verify(archive []byte) (*Manifest, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, core.WrapError(err, core.EINVALID, "not a zip archive")
	}
	n := len(zr.File)
	if n == 0 || zr.File[n-1].Name != ManifestName {
		return nil, core.Error(core.EINVALID, "%s is not the last entry of the archive", ManifestName)
	}
	data, err := readEntry(zr.File[n-1])
	if err != nil {
		return nil, err
	}
	m := &Manifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, core.WrapError(err, core.EINVALID, "invalid manifest")
	}
	if len(m.Files) != n-1 {
		return nil, core.Error(core.EINVALID, "manifest lists %d files, archive holds %d",
			len(m.Files), n-1)
	}
	for i, f := range zr.File[:n-1] {
		ref := m.Files[i]
		if f.Name != ref.Name {
			return nil, core.Error(core.EINVALID, "entry %d is %s, manifest expects %s", i+1, f.Name, ref.Name)
		}
		h := sha256.New()
		rc, err := f.Open()
		if err != nil {
			return nil, core.WrapError(err, core.EINVALID, "cannot open %s", f.Name)
		}
		_, err = io.Copy(h, rc)
		rc.Close()
		if err != nil {
			return nil, core.WrapError(err, core.EINVALID, "cannot read %s", f.Name)
		}
		if sum := hex.EncodeToString(h.Sum(nil)); sum != ref.SHA256 {
			return nil, core.Error(core.EINVALID, "hash mismatch for %s", f.Name)
		}
	}
	if id := packID(m.Files); id != m.PackID {
		return nil, core.Error(core.EINVALID, "pack ID %s does not match content", m.PackID)
	}
	return m, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, core.WrapError(err, core.EINVALID, "cannot open %s", f.Name)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, core.WrapError(err, core.EINVALID, "cannot read %s", f.Name)
	}
	return data, nil
}
