// Package source defines how a track becomes playable and the collaborators
// the playback engine consumes.
package source

import (
	"errors"
	"fmt"
)

// ErrInvalidDescriptor is returned when a descriptor is missing the fields
// its kind requires.
var ErrInvalidDescriptor = errors.New("invalid source descriptor")

// Kind selects the backend that renders a descriptor.
type Kind int

const (
	KindNone Kind = iota
	KindDirect
	KindEmbedded
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindDirect:
		return "direct"
	case KindEmbedded:
		return "embedded"
	default:
		return "unknown"
	}
}

// Descriptor is the resolved, playable form of a track.
// Only the fields matching Kind are meaningful.
type Descriptor struct {
	Kind Kind

	// KindDirect
	URL string

	// KindEmbedded
	ProviderID string
	EmbedRef   string
}

// Direct returns a direct-stream descriptor.
func Direct(url string) Descriptor {
	return Descriptor{Kind: KindDirect, URL: url}
}

// Embedded returns an embedded-provider descriptor.
func Embedded(providerID, embedRef string) Descriptor {
	return Descriptor{Kind: KindEmbedded, ProviderID: providerID, EmbedRef: embedRef}
}

// Validate checks that the descriptor carries what its kind needs.
func (d Descriptor) Validate() error {
	switch d.Kind {
	case KindDirect:
		if d.URL == "" {
			return fmt.Errorf("%w: direct stream without url", ErrInvalidDescriptor)
		}
	case KindEmbedded:
		if d.EmbedRef == "" && d.ProviderID == "" {
			return fmt.Errorf("%w: embedded provider without reference", ErrInvalidDescriptor)
		}
	default:
		return fmt.Errorf("%w: kind %s", ErrInvalidDescriptor, d.Kind)
	}
	return nil
}

// Target returns what the backend should open: the stream URL for direct
// descriptors, the embed reference (or provider ID) for embedded ones.
func (d Descriptor) Target() string {
	if d.Kind == KindDirect {
		return d.URL
	}
	if d.EmbedRef != "" {
		return d.EmbedRef
	}
	return d.ProviderID
}
