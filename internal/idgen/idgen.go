// Package idgen generates the lexicographically-sortable identifiers used
// for requests, jobs, and support codes throughout the pipeline.
//
// The pack this module was learned from has no example of a maintained
// ULID library with real call sites to ground an import on (only
// manifest-level mentions in repos whose source wasn't retrieved), so
// identifiers here are built from a millisecond timestamp plus a random
// suffix taken from google/uuid — sortable by creation time without
// depending on an unverified third-party ULID implementation.
package idgen

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// New returns a bare lexicographically-sortable identifier: a
// millisecond timestamp followed by a short random suffix.
func New() string {
	ts := time.Now().UTC().UnixMilli()
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%013d%s", ts, suffix)
}

// WithPrefix returns New() prefixed with "<prefix>-".
func WithPrefix(prefix string) string {
	return prefix + "-" + New()
}

// SupportCode builds an ERR_PIPE_<PHASE>_<ULID> support code for a
// surfaced error, as specified in the error taxonomy.
func SupportCode(phase string) string {
	return fmt.Sprintf("ERR_PIPE_%s_%s", strings.ToUpper(phase), New())
}
