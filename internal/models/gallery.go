package models

import (
	"net/url"
	"strings"
	"time"
)

const (
	ImagePathPrefix         = "/images/"
	DefaultLegacyHostMarker = "storage.googleapis.com"
)

type ReferenceKind uint8

const (
	ReferenceNone ReferenceKind = iota
	// ReferenceCanonical is an internal blob key such as "images/abc.jpg".
	ReferenceCanonical
	// ReferenceLegacy is an absolute storage URL written by older uploads.
	ReferenceLegacy
)

// Reference points at the stored bytes of a gallery image.
type Reference struct {
	Kind  ReferenceKind
	Value string
}

func CanonicalReference(blobKey string) Reference {
	return Reference{Kind: ReferenceCanonical, Value: blobKey}
}

func LegacyReference(rawURL string) Reference {
	return Reference{Kind: ReferenceLegacy, Value: rawURL}
}

// Filename resolves the reference to the name served under ImagePathPrefix.
// Legacy URLs resolve only when they carry hostMarker and parse cleanly.
func (r Reference) Filename(hostMarker string) (string, bool) {
	switch r.Kind {
	case ReferenceCanonical:
		return lastSegment(r.Value), true
	case ReferenceLegacy:
		if hostMarker == "" || !strings.Contains(r.Value, hostMarker) {
			return "", false
		}
		u, err := url.Parse(r.Value)
		if err != nil {
			return "", false
		}
		return lastSegment(u.Path), true
	default:
		return "", false
	}
}

func lastSegment(p string) string {
	return p[strings.LastIndex(p, "/")+1:]
}

type GalleryRecord struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Reference  Reference `json:"-"`
	Tags       []string  `json:"tags"`
	CreatedAt  time.Time `json:"created_at"`
	OwnerID    string    `json:"user_id,omitempty"`
	UploadedBy string    `json:"uploaded_by"`
	URL        string    `json:"url,omitempty"`
}

// ReconstructURL returns a copy of rec whose URL is derived from its reference.
// It never fails: an unresolvable reference leaves URL empty.
func ReconstructURL(rec GalleryRecord, legacyHostMarker string) GalleryRecord {
	rec.URL = ""
	if name, ok := rec.Reference.Filename(legacyHostMarker); ok {
		rec.URL = ImagePathPrefix + name
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	return rec
}

// MatchesTag reports whether the lower-cased needle is a substring of any tag.
func (rec GalleryRecord) MatchesTag(lowerNeedle string) bool {
	for _, t := range rec.Tags {
		if strings.Contains(strings.ToLower(t), lowerNeedle) {
			return true
		}
	}
	return false
}
