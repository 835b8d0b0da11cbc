package profile

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/aussiebroadwan/profilesync/pkg/profilesdk"
	"github.com/aussiebroadwan/profilesync/pkg/slogx"
)

// ProfileAPI is the part of *profilesdk.Session the gateway needs.
type ProfileAPI interface {
	GetProfile(ctx context.Context) (*profilesdk.ProfileRecord, error)
	UpdateProfile(ctx context.Context, update profilesdk.ProfileUpdate) (*profilesdk.ProfileRecord, error)
}

var _ ProfileAPI = (*profilesdk.Session)(nil)

// Gateway moves the draft between a Holder and the account API.
type Gateway struct {
	api    ProfileAPI
	holder *Holder
	status *Status
	logger *slog.Logger

	seq atomic.Uint64
}

// NewGateway wires a gateway. A nil logger falls back to the one carried
// by each call's context.
func NewGateway(api ProfileAPI, holder *Holder, status *Status, logger *slog.Logger) *Gateway {
	return &Gateway{
		api:    api,
		holder: holder,
		status: status,
		logger: logger,
	}
}

// Holder returns the draft holder the gateway writes to.
func (g *Gateway) Holder() *Holder { return g.holder }

// Status returns the status the gateway reports saves to.
func (g *Gateway) Status() *Status { return g.status }

// FetchProfile loads the server's profile into the draft. On failure the
// error is logged and returned, and the draft keeps whatever it held.
// Callers that only display the draft may ignore it.
func (g *Gateway) FetchProfile(ctx context.Context) error {
	log := g.log(ctx)

	rec, err := g.api.GetProfile(ctx)
	if err != nil {
		log.WarnContext(ctx, "failed to fetch profile", "error", err)
		return err
	}

	g.holder.Load(*rec)
	log.DebugContext(ctx, "profile fetched", "username", rec.Username)
	return nil
}

// SaveProfile sends the current draft. With a staged image the request is
// multipart and carries the picture; otherwise only the text fields go as
// JSON. The result is reported through the Status and returned.
//
// A response that arrives after a newer save was issued is discarded and
// reported as not applied.
func (g *Gateway) SaveProfile(ctx context.Context) bool {
	seq := g.seq.Add(1)
	log := g.log(ctx).With("save_seq", seq)

	draft := g.holder.Snapshot()
	update := profilesdk.ProfileUpdate{
		Username:  draft.Username,
		FirstName: draft.FirstName,
		LastName:  draft.LastName,
	}

	sent := draft.Picture.Pending
	if sent != nil {
		part, err := sent.UploadPart()
		if err != nil {
			// Saved as text only; the image stays staged for the next try.
			log.WarnContext(ctx, "staged image unavailable, saving without it", "error", err)
			sent = nil
		} else {
			update.Picture = &part
		}
	}

	rec, err := g.api.UpdateProfile(ctx, update)

	if latest := g.seq.Load(); seq != latest {
		log.InfoContext(ctx, "discarding stale save response", "latest_seq", latest)
		return false
	}

	if err != nil {
		log.WarnContext(ctx, "failed to save profile", "error", err)
		g.status.Set(MessageFailed)
		return false
	}

	g.holder.confirmSaved(rec.ProfilePicture, sent)
	g.status.Set(MessageSaved)
	log.InfoContext(ctx, "profile saved", "with_picture", sent != nil)
	return true
}

func (g *Gateway) log(ctx context.Context) *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return slogx.FromContext(ctx)
}
