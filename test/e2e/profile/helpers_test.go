package profile_test

import (
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/profilesync/pkg/profilesdk"
)

/*
 * An in-process stand-in for the account API and the helpers the end-to-end
 * tests share. The server follows the real API's wire format: HS256 JWTs,
 * DRF-style error bodies, and multipart or JSON profile updates.
 */

const (
	signingSecret = "e2e-signing-secret"
	testEmail     = "ada@example.com"
	testPassword  = "correct horse"
)

type account struct {
	id        int64
	password  string
	username  string
	firstName string
	lastName  string
	picture   string
}

type accountServer struct {
	mu       sync.Mutex
	accounts map[string]*account // by email
	nextID   int64
	tokenTTL time.Duration

	// uploads lists "<filename> <content-type>" per received picture.
	uploads []string
	// media holds uploaded picture bytes by filename.
	media map[string][]byte
	// patches counts PATCH requests.
	patches int
}

// setupAccountServer starts the fake account API and returns its base URL.
func setupAccountServer(t *testing.T) (*accountServer, string) {
	t.Helper()

	s := &accountServer{
		accounts: make(map[string]*account),
		media:    make(map[string][]byte),
		nextID:   1,
		tokenTTL: time.Hour,
	}

	r := mux.NewRouter()
	r.HandleFunc(profilesdk.PathSignup, s.handleSignup).Methods(http.MethodPost)
	r.HandleFunc(profilesdk.PathLogin, s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc(profilesdk.PathProfile, s.authenticated(s.handleGetProfile)).Methods(http.MethodGet)
	r.HandleFunc(profilesdk.PathProfile, s.authenticated(s.handlePatchProfile)).Methods(http.MethodPatch)
	r.HandleFunc("/media/profile_pics/{name}", s.handleMedia).Methods(http.MethodGet)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return s, srv.URL
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *accountServer) issue(a *account, email string) string {
	now := time.Now()
	tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": a.id,
		"email":   email,
		"iat":     now.Unix(),
		"exp":     now.Add(s.tokenTTL).Unix(),
	}).SignedString([]byte(signingSecret))
	return tok
}

func (s *accountServer) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req profilesdk.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[req.Email]; ok {
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"email": {"user with this email already exists."},
		})
		return
	}

	a := &account{
		id:        s.nextID,
		password:  req.Password,
		username:  req.Username,
		firstName: req.FirstName,
		lastName:  req.LastName,
	}
	s.nextID++
	s.accounts[req.Email] = a

	writeJSON(w, http.StatusCreated, map[string]any{
		"token": s.issue(a, req.Email),
		"user": map[string]any{
			"id":         a.id,
			"email":      req.Email,
			"username":   a.username,
			"first_name": a.firstName,
			"last_name":  a.lastName,
		},
	})
}

func (s *accountServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req profilesdk.LoginRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[req.Email]
	if !ok || a.password != req.Password {
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"non_field_errors": {"Invalid email or password"},
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": s.issue(a, req.Email)})
}

type authedHandler func(w http.ResponseWriter, r *http.Request, email string, a *account)

func (s *accountServer) authenticated(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
			return
		}

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return []byte(signingSecret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid token."})
			return
		}

		email, _ := claims["email"].(string)

		s.mu.Lock()
		defer s.mu.Unlock()

		a, ok := s.accounts[email]
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "User not found."})
			return
		}
		next(w, r, email, a)
	}
}

func profileBody(email string, a *account) map[string]any {
	body := map[string]any{
		"username":        a.username,
		"first_name":      a.firstName,
		"last_name":       a.lastName,
		"email":           email,
		"profile_picture": nil,
	}
	if a.picture != "" {
		body["profile_picture"] = a.picture
	}
	return body
}

func (s *accountServer) handleGetProfile(w http.ResponseWriter, r *http.Request, email string, a *account) {
	writeJSON(w, http.StatusOK, profileBody(email, a))
}

func (s *accountServer) handlePatchProfile(w http.ResponseWriter, r *http.Request, email string, a *account) {
	s.patches++

	mediaType, params, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	fields := map[string]string{}
	switch mediaType {
	case "multipart/form-data":
		mr := multipart.NewReader(r.Body, params["boundary"])
		for {
			part, err := mr.NextPart()
			if err != nil {
				break
			}
			data, _ := io.ReadAll(part)
			if part.FileName() != "" {
				if part.FormName() != profilesdk.PictureField {
					writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "unexpected file " + part.FormName()})
					return
				}
				s.uploads = append(s.uploads, part.FileName()+" "+part.Header.Get("Content-Type"))
				s.media[part.FileName()] = data
				a.picture = "/media/profile_pics/" + part.FileName()
				continue
			}
			fields[part.FormName()] = string(data)
		}
	case "application/json":
		_ = json.NewDecoder(r.Body).Decode(&fields)
	default:
		writeJSON(w, http.StatusUnsupportedMediaType, map[string]string{"detail": "Unsupported media type."})
		return
	}

	if _, ok := fields["email"]; ok {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"email": {"This field is read only."}})
		return
	}
	if v, ok := fields["username"]; ok {
		a.username = v
	}
	if v, ok := fields["first_name"]; ok {
		a.firstName = v
	}
	if v, ok := fields["last_name"]; ok {
		a.lastName = v
	}

	writeJSON(w, http.StatusOK, profileBody(email, a))
}

func (s *accountServer) handleMedia(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	data, ok := s.media[mux.Vars(r)["name"]]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write(data)
}

func (s *accountServer) snapshot() (uploads []string, patches int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.uploads...), s.patches
}

// assertAPIError checks err is an APIError with the given status.
func assertAPIError(t *testing.T, err error, status int, context string) *profilesdk.APIError {
	t.Helper()

	var apiErr *profilesdk.APIError
	require.ErrorAs(t, err, &apiErr, "%s: expected an API error", context)
	require.Equal(t, status, apiErr.StatusCode, "%s: unexpected status", context)
	return apiErr
}
