package formats

// LOD strategy names.
const (
	StrategyDistanceSphere        = "distance_sphere"
	StrategyDistanceBox           = "distance_box"
	StrategyPixelCount            = "pixel_count"
	StrategyScreenRatioPixelCount = "screen_ratio_pixel_count"
)

// LodStrategyResolver maps a stored LOD strategy name onto a known strategy.
type LodStrategyResolver interface {
	Resolve(name string) (string, bool)
	Default() string
}

// StrategyTable is a LodStrategyResolver backed by a name table.
type StrategyTable struct {
	Known    map[string]bool
	Aliases  map[string]string
	Fallback string
}

// DefaultLodStrategies returns the built-in strategies. The names used by
// older formats resolve as aliases.
func DefaultLodStrategies() *StrategyTable {
	return &StrategyTable{
		Known: map[string]bool{
			StrategyDistanceSphere:        true,
			StrategyDistanceBox:           true,
			StrategyPixelCount:            true,
			StrategyScreenRatioPixelCount: true,
		},
		Aliases: map[string]string{
			"Distance":   StrategyDistanceBox,
			"PixelCount": StrategyPixelCount,
		},
		Fallback: StrategyDistanceSphere,
	}
}

// Resolve implements LodStrategyResolver.
func (t *StrategyTable) Resolve(name string) (string, bool) {
	if t.Known[name] {
		return name, true
	}
	if alias, ok := t.Aliases[name]; ok {
		return alias, true
	}
	return "", false
}

// Default implements LodStrategyResolver.
func (t *StrategyTable) Default() string {
	return t.Fallback
}

// legacyStrategyName maps a strategy onto the names v1.8 and older files use.
func legacyStrategyName(name string) string {
	switch name {
	case StrategyDistanceBox, StrategyDistanceSphere:
		return "Distance"
	case StrategyPixelCount, StrategyScreenRatioPixelCount:
		return "PixelCount"
	default:
		return name
	}
}

// isDistanceStrategy reports whether name is distance based, the only kind
// v1.40 and older files can store.
func isDistanceStrategy(name string) bool {
	switch name {
	case StrategyDistanceBox, StrategyDistanceSphere, "Distance", "":
		return true
	}
	return false
}
