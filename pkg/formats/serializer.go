package formats

import (
	"io"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/meshcodec/pkg/chunk"
	"github.com/Faultbox/meshcodec/pkg/mesh"
)

// MeshSerializer reads and writes .mesh files in every registered format.
// It holds no per-call state and may be shared between goroutines as long
// as the configured collaborators allow it.
type MeshSerializer struct {
	opts Options
}

// NewMeshSerializer returns a serializer using opts. Nil collaborators are
// replaced by their defaults.
func NewMeshSerializer(opts Options) *MeshSerializer {
	return &MeshSerializer{opts: opts.withDefaults()}
}

// FileInfo describes a .mesh stream without decoding it.
type FileInfo struct {
	Tag      string
	Version  Version
	Endian   chunk.Endian
	Writable bool
	Latest   bool
}

// ExportMesh writes m to w in format v using the given byte order. Nothing
// is written when m fails validation or v cannot be exported.
func (s *MeshSerializer) ExportMesh(m *mesh.Mesh, w io.Writer, v Version, endian chunk.Endian) error {
	f, err := formatForExport(v)
	if err != nil {
		return err
	}
	cw := chunk.NewWriter(w, endian)
	cw.EnableValidation(s.opts.ValidateChunkSizes)

	e := newEncoder(cw, m, f, s.opts)
	if err := e.validate(); err != nil {
		return err
	}
	return e.exportMesh()
}

// Probe reads the file header of rs and reports its format. The stream is
// left where it started.
func (s *MeshSerializer) Probe(rs io.ReadSeeker) (FileInfo, error) {
	r, err := chunk.NewReader(rs)
	if err != nil {
		return FileInfo{}, err
	}
	info, _, err := probe(r)
	if err != nil {
		return FileInfo{}, err
	}
	return info, r.Seek(0)
}

func probe(r *chunk.Reader) (FileInfo, format, error) {
	const op = "ImportMesh"
	if err := r.DetermineEndianness(chunkHeader); err != nil {
		return FileInfo{}, format{}, err
	}
	start := r.Offset()
	if _, err := r.ReadUint16(); err != nil {
		return FileInfo{}, format{}, err
	}
	tag, err := r.ReadString()
	if err != nil {
		return FileInfo{}, format{}, err
	}
	if err := r.Seek(start); err != nil {
		return FileInfo{}, format{}, err
	}

	f, ok := formatForTag(tag)
	if !ok {
		return FileInfo{}, format{}, chunk.Errorf(chunk.ErrUnsupportedVersion, op,
			"cannot find serializer implementation for mesh version %q", tag)
	}
	return FileInfo{
		Tag:      tag,
		Version:  f.version,
		Endian:   r.Endian(),
		Writable: f.writable(),
		Latest:   tag == LatestVersionTag(),
	}, f, nil
}

// ImportMesh decodes rs into m using whichever registered format the file
// header names. The listener may be nil.
func (s *MeshSerializer) ImportMesh(rs io.ReadSeeker, m *mesh.Mesh, listener Listener) error {
	r, err := chunk.NewReader(rs)
	if err != nil {
		return err
	}
	r.EnableValidation(s.opts.ValidateChunkSizes)

	info, f, err := probe(r)
	if err != nil {
		return err
	}
	if !info.Latest {
		s.opts.Logger.Warn("mesh uses an old format, upgrade it to improve loading",
			zap.String("mesh", m.Name), zap.String("version", info.Tag), zap.String("latest", LatestVersionTag()))
	}

	d := newDecoder(r, m, f, s.opts, listener)
	if err := d.importMesh(); err != nil {
		return errors.WithMessagef(err, "import %s", m.Name)
	}
	if listener != nil {
		listener.ProcessMeshCompleted(m)
	}
	return nil
}
