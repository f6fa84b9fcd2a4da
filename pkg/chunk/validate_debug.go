//go:build meshdebug

package chunk

// ValidateByDefault is the chunk-size validation default for new readers and
// writers.
const ValidateByDefault = true
