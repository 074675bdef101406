// Package secrets defines the record-fetch contract consumed by the
// notation engine.
//
// The notation resolver is a pure function of (notation string, Fetcher) to
// (value | error). Everything stateful (transport, decryption, caching)
// lives behind the Fetcher interface. The SDK ships an HTTP-backed
// implementation in internal/transport; tests and integrations may supply
// their own.
//
// # Implementing a Fetcher
//
// A Fetcher returns all records visible to the caller's credential. The
// uids argument is a server-side filter hint only: implementations may use
// it to minimize data transfer, but callers never assume strict filtering;
// the resolver re-validates match counts itself. Passing nil or an empty
// slice requests the entire visible set.
//
// Implementations must be safe for concurrent use; the notation engine has
// no shared mutable state and is invoked from arbitrary call sites. The
// engine issues fetches sequentially and never in parallel, including
// during recursive reference inflation, so a Fetcher sees at most one
// in-flight call per resolution.
//
// Timeouts, cancellation, and retries are entirely the Fetcher's concern;
// the notation engine propagates ctx and nothing else.
package secrets

import (
	"context"

	"github.com/systmms/vaultpath/pkg/record"
)

// Fetcher returns decrypted records visible to the client's credential.
type Fetcher interface {
	// Fetch returns all visible records, optionally narrowed by uids.
	// The result may contain duplicate UIDs (shortcut/link aliasing);
	// callers fold those before counting matches.
	Fetch(ctx context.Context, uids []string) ([]*record.Record, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, uids []string) ([]*record.Record, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, uids []string) ([]*record.Record, error) {
	return f(ctx, uids)
}
