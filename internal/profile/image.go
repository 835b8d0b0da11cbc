package profile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/aussiebroadwan/profilesync/pkg/profilesdk"
)

// ErrNoImageData is returned by UploadPart when a source has nothing to send.
var ErrNoImageData = errors.New("profile: image has no data")

// ImageSource is a picked image: something that can be previewed before it
// is saved and turned into a file part when it is.
//
// Implementations must be comparable; the gateway compares the staged
// source against the one it uploaded.
type ImageSource interface {
	// PreviewReference returns a reference a renderer can display directly,
	// or "" when the source cannot be previewed.
	PreviewReference() string

	// UploadPart returns the multipart file for this image.
	UploadPart() (profilesdk.FilePart, error)
}

// defaultImageType is assumed when a filename carries no extension.
const defaultImageType = "image/jpeg"

// FileImage is an image on the local filesystem, addressed by a file://
// URI or a plain path.
type FileImage struct {
	URI string
}

var _ ImageSource = FileImage{}

// PreviewReference returns the image as a file:// URI.
func (f FileImage) PreviewReference() string {
	if f.URI == "" {
		return ""
	}
	if strings.HasPrefix(f.URI, "file://") {
		return f.URI
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(f.path())}).String()
}

// UploadPart derives the filename and MIME type from the path and opens the
// file lazily.
func (f FileImage) UploadPart() (profilesdk.FilePart, error) {
	p := f.path()
	if p == "" {
		return profilesdk.FilePart{}, ErrNoImageData
	}

	info, err := os.Stat(p)
	if err != nil {
		return profilesdk.FilePart{}, fmt.Errorf("failed to stat image: %w", err)
	}
	if info.IsDir() {
		return profilesdk.FilePart{}, fmt.Errorf("image %s is a directory", p)
	}

	name, contentType := uploadName(p)
	return profilesdk.FilePart{
		Filename:    name,
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return os.Open(p)
		},
	}, nil
}

// path returns the filesystem path behind the URI.
func (f FileImage) path() string {
	if !strings.HasPrefix(f.URI, "file://") {
		return f.URI
	}

	u, err := url.Parse(f.URI)
	if err != nil {
		return strings.TrimPrefix(f.URI, "file://")
	}
	return filepath.FromSlash(u.Path)
}

// uploadName returns the last path element and image/<ext>. Without an
// extension the name is kept and the type defaults to image/jpeg.
func uploadName(p string) (string, string) {
	name := path.Base(filepath.ToSlash(p))

	// A dotfile such as .hidden has no extension.
	var ext string
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		ext = strings.ToLower(name[i+1:])
	}
	switch ext {
	case "":
		return name, defaultImageType
	case "jpg":
		return name, "image/jpeg"
	default:
		return name, "image/" + ext
	}
}

// BlobImage is an image held in memory, as handed over by a browser-style
// picker together with a displayable blob: URL.
type BlobImage struct {
	Name        string
	ContentType string
	Data        []byte

	// PreviewURL is typically a blob: URL.
	PreviewURL string
}

var _ ImageSource = (*BlobImage)(nil)

// PreviewReference returns PreviewURL.
func (b *BlobImage) PreviewReference() string {
	return b.PreviewURL
}

// UploadPart sends Data, sniffing the content type when none was given.
func (b *BlobImage) UploadPart() (profilesdk.FilePart, error) {
	if len(b.Data) == 0 {
		return profilesdk.FilePart{}, ErrNoImageData
	}

	contentType := b.ContentType
	if contentType == "" {
		contentType = mimetype.Detect(b.Data).String()
	}

	name := b.Name
	if name == "" {
		name = "upload"
		if m := mimetype.Lookup(contentType); m != nil {
			name += m.Extension()
		}
	}

	data := b.Data
	return profilesdk.FilePart{
		Filename:    name,
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}, nil
}
