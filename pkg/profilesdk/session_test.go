package profilesdk_test

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/profilesync/pkg/profilesdk"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T, h http.HandlerFunc, token string) *profilesdk.Session {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return profilesdk.NewSDKClient(srv.URL).NewSession(profilesdk.StaticToken(token))
}

func jwtExpiring(t *testing.T, exp time.Time) string {
	t.Helper()

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 1,
		"email":   "ada@example.com",
		"exp":     exp.Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return tok
}

func TestGetProfile(t *testing.T) {
	t.Parallel()

	session := newSession(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, profilesdk.PathProfile, r.URL.Path)
		require.Equal(t, "Bearer tok-abc", r.Header.Get("Authorization"))

		// Missing last_name and a null picture.
		_, _ = io.WriteString(w, `{"username":"ada","first_name":"Ada","email":"ada@example.com","profile_picture":null}`)
	}, "tok-abc")

	rec, err := session.GetProfile(context.Background())
	require.NoError(t, err)
	require.Equal(t, profilesdk.ProfileRecord{
		Username:  "ada",
		FirstName: "Ada",
		Email:     "ada@example.com",
	}, *rec)
}

func TestGetProfileUnauthorized(t *testing.T) {
	t.Parallel()

	session := newSession(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid token."})
	}, "tok-abc")

	_, err := session.GetProfile(context.Background())
	require.True(t, profilesdk.IsUnauthorized(err))
	require.ErrorContains(t, err, "Invalid token.")
}

func TestSessionReadsTokenPerRequest(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		seen []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		mu.Unlock()
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	var n atomic.Int32
	source := profilesdk.TokenSourceFunc(func(context.Context) (string, error) {
		return []string{"first", "second"}[n.Add(1)-1], nil
	})

	session := profilesdk.NewSDKClient(srv.URL).NewSession(source)

	_, err := session.GetProfile(context.Background())
	require.NoError(t, err)
	_, err = session.GetProfile(context.Background())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"Bearer first", "Bearer second"}, seen)
}

func TestSessionWithoutTokenSendsNothing(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	session := newSession(t, func(w http.ResponseWriter, r *http.Request) { hits.Add(1) }, "")

	_, err := session.GetProfile(context.Background())
	require.ErrorIs(t, err, profilesdk.ErrNoToken)
	require.Zero(t, hits.Load())
}

func TestSessionRejectsExpiredJWTLocally(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	session := newSession(t, func(w http.ResponseWriter, r *http.Request) { hits.Add(1) },
		jwtExpiring(t, time.Now().Add(-time.Hour)))

	_, err := session.GetProfile(context.Background())
	require.ErrorIs(t, err, profilesdk.ErrTokenExpired)
	require.Zero(t, hits.Load())
}

func TestUpdateProfileJSON(t *testing.T) {
	t.Parallel()

	session := newSession(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, map[string]any{
			"username":   "ada",
			"first_name": "Ada",
			"last_name":  "Lovelace",
		}, body, "email and picture are never sent as JSON")

		writeJSON(w, http.StatusOK, map[string]string{
			"username":        "ada",
			"first_name":      "Ada",
			"last_name":       "Lovelace",
			"email":           "ada@example.com",
			"profile_picture": "/media/profile_pics/ada.png",
		})
	}, "tok-abc")

	rec, err := session.UpdateProfile(context.Background(), profilesdk.ProfileUpdate{
		Username:  "ada",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.NoError(t, err)
	require.Equal(t, "/media/profile_pics/ada.png", rec.ProfilePicture)
}

func TestUpdateProfileMultipart(t *testing.T) {
	t.Parallel()

	session := newSession(t, func(w http.ResponseWriter, r *http.Request) {
		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		require.Equal(t, "multipart/form-data", mediaType)

		fields := map[string]string{}
		var files []*multipart.Part
		var fileBody string

		mr := multipart.NewReader(r.Body, params["boundary"])
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)

			data, err := io.ReadAll(part)
			require.NoError(t, err)

			if part.FileName() != "" {
				files = append(files, part)
				fileBody = string(data)
				continue
			}
			fields[part.FormName()] = string(data)
		}

		require.Equal(t, map[string]string{
			"username":   "ada",
			"first_name": "Ada",
			"last_name":  "Lovelace",
		}, fields)
		require.Len(t, files, 1)
		require.Equal(t, profilesdk.PictureField, files[0].FormName())
		require.Equal(t, "abc.png", files[0].FileName())
		require.Equal(t, "image/png", files[0].Header.Get("Content-Type"))
		require.Equal(t, "PNGDATA", fileBody)

		writeJSON(w, http.StatusOK, map[string]string{"profile_picture": "/media/profile_pics/abc.png"})
	}, "tok-abc")

	rec, err := session.UpdateProfile(context.Background(), profilesdk.ProfileUpdate{
		Username:  "ada",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Picture: &profilesdk.FilePart{
			Filename:    "abc.png",
			ContentType: "image/png",
			Open: func() (io.ReadCloser, error) {
				return io.NopCloser(strings.NewReader("PNGDATA")), nil
			},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "/media/profile_pics/abc.png", rec.ProfilePicture)
}

func TestUpdateProfilePictureOpenFailure(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	session := newSession(t, func(w http.ResponseWriter, r *http.Request) { hits.Add(1) }, "tok-abc")

	_, err := session.UpdateProfile(context.Background(), profilesdk.ProfileUpdate{
		Picture: &profilesdk.FilePart{
			Filename: "gone.png",
			Open:     func() (io.ReadCloser, error) { return nil, io.ErrUnexpectedEOF },
		},
	})
	require.ErrorContains(t, err, "failed to open picture")
	require.Zero(t, hits.Load())
}
