//go:build !meshdebug

package chunk

// ValidateByDefault is the chunk-size validation default for new readers and
// writers. Build with -tags meshdebug to turn it on.
const ValidateByDefault = false
