package main

import (
	"path"

	"go.uber.org/zap"

	"github.com/Faultbox/meshcodec/internal/config"
	"github.com/Faultbox/meshcodec/internal/logger"
	"github.com/Faultbox/meshcodec/pkg/encoding"
	"github.com/Faultbox/meshcodec/pkg/mesh"
)

// nameRewriter applies the import section of the config to the names a
// mesh references.
type nameRewriter struct {
	names          *encoding.NameDecoder
	materialPrefix string
	skeletonDir    string
	log            *zap.Logger
}

func newNameRewriter(cfg config.ImportConfig) (*nameRewriter, error) {
	names, err := encoding.NewNameDecoder(cfg.NameCharset)
	if err != nil {
		return nil, err
	}
	return &nameRewriter{
		names:          names,
		materialPrefix: cfg.MaterialPrefix,
		skeletonDir:    cfg.SkeletonDir,
		log:            logger.Log,
	}, nil
}

func (n *nameRewriter) ProcessMaterialName(m *mesh.Mesh, name string) string {
	if name == "" {
		return name
	}
	return n.materialPrefix + n.names.Decode(name)
}

func (n *nameRewriter) ProcessSkeletonName(m *mesh.Mesh, name string) string {
	name = n.names.Decode(name)
	if n.skeletonDir != "" && name != "" {
		name = path.Join(n.skeletonDir, name)
	}
	return name
}

func (n *nameRewriter) ProcessMeshCompleted(m *mesh.Mesh) {
	n.log.Debug("mesh loaded",
		zap.String("mesh", m.Name),
		zap.Int("submeshes", len(m.SubMeshes)),
		zap.Int("lod_levels", m.NumLodLevels()),
		zap.Int("animations", len(m.Animations)))
}
