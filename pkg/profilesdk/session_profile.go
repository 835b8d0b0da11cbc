package profilesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// PictureField is the multipart field name of the uploaded picture.
const PictureField = "profile_picture"

// GetProfile retrieves the authenticated user's profile.
func (s *Session) GetProfile(ctx context.Context) (*ProfileRecord, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, PathProfile, nil, map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		return nil, err
	}

	var rec ProfileRecord
	if err := decodeJSON(resp, &rec); err != nil {
		return nil, err
	}

	return &rec, nil
}

// UpdateProfile sends the editable fields, plus the picture when one is set,
// and returns the profile as the server stored it.
func (s *Session) UpdateProfile(ctx context.Context, update ProfileUpdate) (*ProfileRecord, error) {
	var (
		body        io.Reader
		contentType string
		err         error
	)

	if update.Picture != nil {
		body, contentType, err = encodeMultipart(update)
	} else {
		body, contentType, err = encodeJSON(update)
	}
	if err != nil {
		return nil, err
	}

	resp, err := s.doAuthRequest(ctx, http.MethodPatch, PathProfile, body, map[string]string{
		"Content-Type": contentType,
		"Accept":       "application/json",
	})
	if err != nil {
		return nil, err
	}

	var rec ProfileRecord
	if err := decodeJSON(resp, &rec); err != nil {
		return nil, err
	}

	return &rec, nil
}

func encodeJSON(update ProfileUpdate) (io.Reader, string, error) {
	b, err := json.Marshal(update)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode request: %w", err)
	}
	return bytes.NewReader(b), "application/json", nil
}

// encodeMultipart buffers the whole body so the request has a known length
// and can be replayed on redirects.
func encodeMultipart(update ProfileUpdate) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"username", update.Username},
		{"first_name", update.FirstName},
		{"last_name", update.LastName},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", f.name, err)
		}
	}

	if err := writeFilePart(w, update.Picture); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFilePart(w *multipart.Writer, part *FilePart) error {
	if part.Open == nil {
		return fmt.Errorf("picture %q has no content", part.Filename)
	}

	contentType := part.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	// CreateFormFile always declares application/octet-stream.
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		PictureField, quoteEscaper.Replace(part.Filename)))
	h.Set("Content-Type", contentType)

	dst, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create file part: %w", err)
	}

	src, err := part.Open()
	if err != nil {
		return fmt.Errorf("failed to open picture: %w", err)
	}
	defer src.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy picture: %w", err)
	}

	return nil
}
