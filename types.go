package coerce

// Strictness configures enforcement for duplicate object keys.
type Strictness struct {
	OnDuplicateKey Severity // Ignore (last value wins), Warn or Error.
}

// Severity expresses the severity level for parse findings.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

func (s Severity) String() string {
	switch s {
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "ignore"
	}
}

// ParseOpt bundles document parsing options. Functions taking ...ParseOpt use
// the last one given.
type ParseOpt struct {
	Strictness Strictness
	MaxDepth   int   // Maximum container nesting; 0 means unlimited.
	MaxBytes   int64 // Maximum input size in bytes; 0 means unlimited.
	// OnIssue receives warn-level findings that do not stop parsing.
	OnIssue func(ParseIssue)
}

// ParseIssue is a non-fatal finding reported while parsing a document.
type ParseIssue struct {
	Code    string
	Path    string // JSON Pointer ("/" for the root).
	Message string
}

func lastOpt(opts []ParseOpt) ParseOpt {
	if len(opts) == 0 {
		return ParseOpt{}
	}
	return opts[len(opts)-1]
}
