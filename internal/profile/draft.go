package profile

import (
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/profilesync/pkg/profilesdk"
)

// ErrUnknownField is returned by SetField for names outside the draft.
var ErrUnknownField = errors.New("profile: unknown field")

// Field names an editable text field of the draft.
type Field string

const (
	FieldUsername  Field = "username"
	FieldFirstName Field = "first_name"
	FieldLastName  Field = "last_name"
	FieldEmail     Field = "email"
)

// ParseField maps a wire name to a Field.
func ParseField(name string) (Field, error) {
	switch f := Field(name); f {
	case FieldUsername, FieldFirstName, FieldLastName, FieldEmail:
		return f, nil
	}
	return "", ErrUnknownField
}

// PictureState is one of the three states of the draft's picture.
type PictureState int

const (
	PictureUnset PictureState = iota
	PictureRemote
	PicturePending
)

func (s PictureState) String() string {
	switch s {
	case PictureRemote:
		return "remote"
	case PicturePending:
		return "pending"
	default:
		return "unset"
	}
}

// Picture is the draft's profile picture.
type Picture struct {
	// Remote is the server reference, possibly carrying a freshness query.
	Remote string

	// Pending is the image staged for the next save.
	Pending ImageSource
}

// State reports which of the three states the picture is in. A staged
// image takes precedence over a remote reference.
func (p Picture) State() PictureState {
	switch {
	case p.Pending != nil:
		return PicturePending
	case p.Remote != "":
		return PictureRemote
	default:
		return PictureUnset
	}
}

// Draft is a snapshot of the profile being edited.
type Draft struct {
	Username  string
	FirstName string
	LastName  string

	// Email is shown but never sent on save.
	Email string

	Picture Picture
}

// Holder owns the draft for one open profile view.
type Holder struct {
	mu    sync.Mutex
	draft Draft

	now       func() time.Time
	lastFresh int64
}

// NewHolder returns an initialized Holder.
func NewHolder() *Holder {
	h := &Holder{now: time.Now}
	h.Initialize()
	return h
}

// Initialize resets every field to empty and unsets the picture.
func (h *Holder) Initialize() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.draft = Draft{}
}

// Load replaces the draft with rec. Any staged image is dropped.
func (h *Holder) Load(rec profilesdk.ProfileRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.draft = Draft{
		Username:  rec.Username,
		FirstName: rec.FirstName,
		LastName:  rec.LastName,
		Email:     rec.Email,
		Picture:   Picture{Remote: rec.ProfilePicture},
	}
}

// SetField overwrites one text field.
func (h *Holder) SetField(field Field, value string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch field {
	case FieldUsername:
		h.draft.Username = value
	case FieldFirstName:
		h.draft.FirstName = value
	case FieldLastName:
		h.draft.LastName = value
	case FieldEmail:
		h.draft.Email = value
	default:
		return ErrUnknownField
	}
	return nil
}

// SetPendingImage stages src for upload. A nil src unstages.
func (h *Holder) SetPendingImage(src ImageSource) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.draft.Picture.Pending = src
}

// ConfirmSavedImage records remote as the persisted picture, with a
// freshness token appended, and drops the staged image. An empty remote
// leaves the picture unset.
func (h *Holder) ConfirmSavedImage(remote string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.draft.Picture = Picture{}
	if remote != "" {
		h.draft.Picture.Remote = h.withFreshness(remote)
	}
}

// confirmSaved is ConfirmSavedImage for the gateway: the staged image is
// dropped only when it is still the one that was uploaded, so a picture
// picked while the save was in flight survives.
func (h *Holder) confirmSaved(remote string, sent ImageSource) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if remote != "" {
		h.draft.Picture.Remote = h.withFreshness(remote)
	}
	if sent != nil && h.draft.Picture.Pending == sent {
		h.draft.Picture.Pending = nil
	}
}

// Snapshot returns a copy of the current draft.
func (h *Holder) Snapshot() Draft {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.draft
}

// withFreshness appends t=<unix millis>. Values never go backwards for one
// Holder, even if the wall clock does. Callers hold h.mu.
func (h *Holder) withFreshness(ref string) string {
	ms := h.now().UnixMilli()
	if ms < h.lastFresh {
		ms = h.lastFresh
	}
	h.lastFresh = ms

	sep := "?"
	if strings.Contains(ref, "?") {
		sep = "&"
	}
	return ref + sep + "t=" + strconv.FormatInt(ms, 10)
}
