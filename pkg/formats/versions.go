package formats

import (
	"fmt"
	"strings"

	"github.com/Faultbox/meshcodec/pkg/chunk"
)

// Version selects a mesh format revision for export.
type Version int

const (
	VersionLatest Version = iota // Newest registered format
	Version1_10                  // [MeshSerializer_v1.100]
	Version1_8                   // [MeshSerializer_v1.8]
	Version1_7                   // [MeshSerializer_v1.41]
	Version1_4                   // [MeshSerializer_v1.40]
	Version1_0                   // [MeshSerializer_v1.30]
	VersionLegacy                // [MeshSerializer_v1.20] and older, read only
)

// String returns a human-readable version name.
func (v Version) String() string {
	switch v {
	case VersionLatest:
		return "latest"
	case Version1_10:
		return "1.10"
	case Version1_8:
		return "1.8"
	case Version1_7:
		return "1.7"
	case Version1_4:
		return "1.4"
	case Version1_0:
		return "1.0"
	case VersionLegacy:
		return "legacy"
	default:
		return fmt.Sprintf("Unknown(%d)", int(v))
	}
}

// ParseVersion converts a config string such as "latest", "1.8" or a file
// version tag into a Version.
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "latest":
		return VersionLatest, nil
	case "legacy":
		return VersionLegacy, nil
	}
	for _, f := range registry {
		if s == f.version.String() || s == f.tag {
			return f.version, nil
		}
	}
	return VersionLatest, chunk.Errorf(chunk.ErrInvalidParameters, "ParseVersion", "unknown mesh version %q", s)
}

// revision orders the on-disk layouts. Later revisions compare greater.
type revision int

const (
	rev1_1 revision = iota + 1
	rev1_2
	rev1_3
	rev1_4
	rev1_41
	rev1_8
	rev1_10
)

// atLeast returns true if r is min or newer.
func (r revision) atLeast(min revision) bool {
	return r >= min
}

// format is one registry entry.
type format struct {
	version Version
	rev     revision
	tag     string
}

// writable reports whether meshes can be exported in this format.
func (f format) writable() bool {
	return f.version != VersionLegacy
}

// registry lists every known format, newest first.
var registry = []format{
	{Version1_10, rev1_10, "[MeshSerializer_v1.100]"},
	{Version1_8, rev1_8, "[MeshSerializer_v1.8]"},
	{Version1_7, rev1_41, "[MeshSerializer_v1.41]"},
	{Version1_4, rev1_4, "[MeshSerializer_v1.40]"},
	{Version1_0, rev1_3, "[MeshSerializer_v1.30]"},
	{VersionLegacy, rev1_2, "[MeshSerializer_v1.20]"},
	{VersionLegacy, rev1_1, "[MeshSerializer_v1.10]"},
}

// LatestVersionTag returns the version string written by VersionLatest.
func LatestVersionTag() string {
	return registry[0].tag
}

// formatForExport resolves a requested export version.
func formatForExport(v Version) (format, error) {
	const op = "ExportMesh"
	switch v {
	case VersionLatest:
		return registry[0], nil
	case VersionLegacy:
		return format{}, chunk.Errorf(chunk.ErrInvalidParameters, op, "legacy mesh formats are read only")
	}
	for _, f := range registry {
		if f.version == v {
			return f, nil
		}
	}
	return format{}, chunk.Errorf(chunk.ErrInvalidParameters, op, "unknown mesh version %v", v)
}

// formatForTag finds the format whose version string is exactly tag.
func formatForTag(tag string) (format, bool) {
	for _, f := range registry {
		if f.tag == tag {
			return f, true
		}
	}
	return format{}, false
}

// VersionInfo describes a registered format.
type VersionInfo struct {
	Version  Version
	Tag      string
	Writable bool
}

// Versions lists the registered formats, newest first.
func Versions() []VersionInfo {
	out := make([]VersionInfo, 0, len(registry))
	for _, f := range registry {
		out = append(out, VersionInfo{Version: f.version, Tag: f.tag, Writable: f.writable()})
	}
	return out
}
