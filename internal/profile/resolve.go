package profile

import "strings"

// DefaultPlaceholder is shown when the draft has no picture.
const DefaultPlaceholder = "asset://placeholder-avatar.png"

// absolutePrefixes mark references a renderer can use as-is. Schemes are
// matched case-insensitively.
var absolutePrefixes = []string{"http://", "https://", "file://", "blob:"}

// Resolver picks the single reference to display for a draft's picture.
type Resolver struct {
	// Origin is the API base, e.g. http://192.168.1.20:8000. Relative server
	// paths are joined to it.
	Origin string

	// Placeholder defaults to DefaultPlaceholder.
	Placeholder string
}

// Resolve returns, in order of preference: the staged image's preview, the
// remote reference when absolute, the remote reference joined to Origin, or
// the placeholder. It performs no I/O.
func (r Resolver) Resolve(d Draft) string {
	if p := d.Picture.Pending; p != nil {
		if ref := p.PreviewReference(); ref != "" {
			return ref
		}
	}

	remote := d.Picture.Remote
	if remote == "" {
		return r.placeholder()
	}

	if isAbsolute(remote) {
		return remote
	}

	return joinOrigin(r.Origin, remote)
}

func isAbsolute(ref string) bool {
	for _, prefix := range absolutePrefixes {
		if len(ref) >= len(prefix) && strings.EqualFold(ref[:len(prefix)], prefix) {
			return true
		}
	}
	return false
}

func (r Resolver) placeholder() string {
	if r.Placeholder == "" {
		return DefaultPlaceholder
	}
	return r.Placeholder
}

// joinOrigin joins with exactly one slash between origin and path.
func joinOrigin(origin, ref string) string {
	if origin == "" {
		return ref
	}
	return strings.TrimSuffix(origin, "/") + "/" + strings.TrimPrefix(ref, "/")
}
