package formats

import (
	"go.uber.org/zap"

	"github.com/Faultbox/meshcodec/pkg/chunk"
	"github.com/Faultbox/meshcodec/pkg/mesh"
)

// Listener is notified while a mesh is imported. The name hooks may return
// a replacement name.
type Listener interface {
	ProcessMaterialName(m *mesh.Mesh, name string) string
	ProcessSkeletonName(m *mesh.Mesh, name string) string
	ProcessMeshCompleted(m *mesh.Mesh)
}

// MaterialCatalog reports whether a material name can be resolved.
type MaterialCatalog interface {
	HasMaterial(name string) bool
}

// Options configures a MeshSerializer.
type Options struct {
	// Logger receives codec diagnostics. Nil means no logging.
	Logger *zap.Logger
	// Strategies resolves LOD strategy names. Nil uses DefaultLodStrategies.
	Strategies LodStrategyResolver
	// Materials checks imported material names when set.
	Materials MaterialCatalog
	// Buffers allocates imported buffers. Nil uses mesh.HeapBufferManager.
	Buffers mesh.BufferManager
	// ValidateChunkSizes checks nested chunk lengths on import and export.
	ValidateChunkSizes bool
}

// DefaultOptions returns options with validation set to the build default.
func DefaultOptions() Options {
	return Options{ValidateChunkSizes: chunk.ValidateByDefault}
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Strategies == nil {
		o.Strategies = DefaultLodStrategies()
	}
	if o.Buffers == nil {
		o.Buffers = mesh.HeapBufferManager{}
	}
	return o
}
