package driven

import "context"

// PreferenceKind names a class of learned preference.
type PreferenceKind string

// KindVendorFolder maps (vendor, category) to a destination directory.
const KindVendorFolder PreferenceKind = "vendor_folder"

// PreferenceKey identifies one learned preference.
type PreferenceKey struct {
	// Vendor is the counterparty the preference was learned for.
	Vendor string

	// Category is the document category the preference applies to.
	Category string
}

// LearnedPreference is a preference with its bookkeeping.
type LearnedPreference struct {
	Kind PreferenceKind
	Key  PreferenceKey

	// Value is the stored destination directory.
	Value string

	// Confidence grows with repeated confirmations, in [0,1].
	Confidence float64

	// SampleCount is how many resolutions contributed.
	SampleCount int
}

// PreferenceStore persists folder preferences learned from human
// resolutions. The read path feeds the routing engine's first tier; the
// write path runs off the pipeline's real-time path.
type PreferenceStore interface {
	// Lookup returns the stored value for the key when its confidence is
	// at least minConfidence. ok is false on a miss.
	Lookup(ctx context.Context, kind PreferenceKind, key PreferenceKey, minConfidence float64) (value string, ok bool, err error)

	// Learn records one observed resolution, creating the preference or
	// reinforcing an existing one.
	Learn(ctx context.Context, kind PreferenceKind, key PreferenceKey, value string) error

	// List returns all active preferences of the kind.
	List(ctx context.Context, kind PreferenceKind) ([]LearnedPreference, error)

	// Disable deactivates a preference so Lookup no longer returns it.
	Disable(ctx context.Context, kind PreferenceKind, key PreferenceKey) error
}
