package state

import (
	"errors"
	"fmt"
)

// ErrUnknownAccessibilityKey is returned for a preference key that does not exist.
var ErrUnknownAccessibilityKey = errors.New("unknown accessibility setting")

// Accessibility holds the player's presentation preferences. The engine only
// stores and broadcasts them.
type Accessibility struct {
	ReduceMotion         bool `json:"reduceMotion"`
	HighContrast         bool `json:"highContrast"`
	Subtitles            bool `json:"subtitles"`
	MotionSafe           bool `json:"motionSafe"`
	PhotosensitivitySafe bool `json:"photosensitivitySafe"`
	ShowHints            bool `json:"showHotspotHints"`
}

// DefaultAccessibility is what a new player starts with.
func DefaultAccessibility() Accessibility {
	return Accessibility{
		Subtitles: true,
		ShowHints: true,
	}
}

// Accessibility keys accepted by AccessibilityPatchFor, in display order.
const (
	KeyReduceMotion         = "reduceMotion"
	KeyHighContrast         = "highContrast"
	KeySubtitles            = "subtitles"
	KeyMotionSafe           = "motionSafe"
	KeyPhotosensitivitySafe = "photosensitivitySafe"
	KeyShowHints            = "showHotspotHints"
)

var AccessibilityKeys = []string{
	KeyReduceMotion,
	KeyHighContrast,
	KeySubtitles,
	KeyMotionSafe,
	KeyPhotosensitivitySafe,
	KeyShowHints,
}

// Get returns the value of a preference by key.
func (a Accessibility) Get(key string) (bool, bool) {
	switch key {
	case KeyReduceMotion:
		return a.ReduceMotion, true
	case KeyHighContrast:
		return a.HighContrast, true
	case KeySubtitles:
		return a.Subtitles, true
	case KeyMotionSafe:
		return a.MotionSafe, true
	case KeyPhotosensitivitySafe:
		return a.PhotosensitivitySafe, true
	case KeyShowHints:
		return a.ShowHints, true
	default:
		return false, false
	}
}

// AccessibilityPatch is a partial update; nil fields are left unchanged.
type AccessibilityPatch struct {
	ReduceMotion         *bool `json:"reduceMotion,omitempty"`
	HighContrast         *bool `json:"highContrast,omitempty"`
	Subtitles            *bool `json:"subtitles,omitempty"`
	MotionSafe           *bool `json:"motionSafe,omitempty"`
	PhotosensitivitySafe *bool `json:"photosensitivitySafe,omitempty"`
	ShowHints            *bool `json:"showHotspotHints,omitempty"`
}

// AccessibilityPatchFor builds a single-field patch.
func AccessibilityPatchFor(key string, value bool) (AccessibilityPatch, error) {
	var p AccessibilityPatch
	switch key {
	case KeyReduceMotion:
		p.ReduceMotion = &value
	case KeyHighContrast:
		p.HighContrast = &value
	case KeySubtitles:
		p.Subtitles = &value
	case KeyMotionSafe:
		p.MotionSafe = &value
	case KeyPhotosensitivitySafe:
		p.PhotosensitivitySafe = &value
	case KeyShowHints:
		p.ShowHints = &value
	default:
		return AccessibilityPatch{}, fmt.Errorf("%w %q", ErrUnknownAccessibilityKey, key)
	}
	return p, nil
}

// Apply returns a merged copy of a.
func (p AccessibilityPatch) Apply(a Accessibility) Accessibility {
	if p.ReduceMotion != nil {
		a.ReduceMotion = *p.ReduceMotion
	}
	if p.HighContrast != nil {
		a.HighContrast = *p.HighContrast
	}
	if p.Subtitles != nil {
		a.Subtitles = *p.Subtitles
	}
	if p.MotionSafe != nil {
		a.MotionSafe = *p.MotionSafe
	}
	if p.PhotosensitivitySafe != nil {
		a.PhotosensitivitySafe = *p.PhotosensitivitySafe
	}
	if p.ShowHints != nil {
		a.ShowHints = *p.ShowHints
	}
	return a
}

// IsEmpty reports whether the patch changes nothing.
func (p AccessibilityPatch) IsEmpty() bool {
	return p == AccessibilityPatch{}
}
