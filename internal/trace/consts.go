package trace

const (
	// ============================================================================
	// Trace File Tokens
	// ============================================================================

	// KeywordRequest starts an allocation line: REQUEST <id> <size>
	KeywordRequest = "REQUEST"

	// KeywordFree starts a release line: FREE <id>
	KeywordFree = "FREE"

	// CommentPrefix marks a comment line
	CommentPrefix = "#"

	// ============================================================================
	// Scanner Limits
	// ============================================================================

	// ScannerInitialBufferSize is the initial line buffer of the trace scanner
	ScannerInitialBufferSize = 4096

	// ScannerMaxLineSize bounds a single trace line
	ScannerMaxLineSize = 64 * 1024

	// ============================================================================
	// Generator Defaults
	// ============================================================================

	// DefaultRequests is the number of REQUEST lines generated when unset
	DefaultRequests = 1000

	// DefaultMaxSize is the largest generated request size when unset
	DefaultMaxSize = 8192

	// DefaultFreeRatio is the chance of emitting a FREE while blocks are live
	DefaultFreeRatio = 0.45
)
