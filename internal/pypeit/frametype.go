package pypeit

import (
	"slices"
	"strings"
)

// FrameType classifies a raw exposure.
type FrameType string

const (
	FrameAlign           FrameType = "align"
	FrameArc             FrameType = "arc"
	FrameBias            FrameType = "bias"
	FrameDark            FrameType = "dark"
	FramePinhole         FrameType = "pinhole"
	FramePixelFlat       FrameType = "pixelflat"
	FrameIllumFlat       FrameType = "illumflat"
	FrameLampOffFlats    FrameType = "lampoffflats"
	FrameScattLight      FrameType = "scattlight"
	FrameScience         FrameType = "science"
	FrameStandard        FrameType = "standard"
	FrameSky             FrameType = "sky"
	FrameSlitlessPixFlat FrameType = "slitless_pixflat"
	FrameTilt            FrameType = "tilt"
	FrameTrace           FrameType = "trace"
)

// KnownFrameTypes lists every frame type PypeIt assigns.
var KnownFrameTypes = []FrameType{
	FrameAlign, FrameArc, FrameBias, FrameDark, FramePinhole, FramePixelFlat,
	FrameIllumFlat, FrameLampOffFlats, FrameScattLight, FrameScience,
	FrameStandard, FrameSky, FrameSlitlessPixFlat, FrameTilt, FrameTrace,
}

func (t FrameType) Known() bool {
	return slices.Contains(KnownFrameTypes, t)
}

// IsCalibration reports whether frames of this type calibrate others.
func (t FrameType) IsCalibration() bool {
	switch t {
	case FrameScience, FrameStandard, FrameSky:
		return false
	}
	return t.Known()
}

// ParseFrameTypes splits a comma separated frametype cell. "None" and
// empty cells yield no types.
func ParseFrameTypes(s string) []FrameType {
	s = strings.TrimSpace(s)
	if s == "" || isNone(s) {
		return nil
	}
	var out []FrameType
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, FrameType(part))
	}
	return out
}

func isNone(s string) bool {
	return strings.EqualFold(s, "none")
}
