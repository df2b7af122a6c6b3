// Package dbcapabilities provides a shared registry describing the capabilities of
// the backends the facade wraps. Callers can import this package to make decisions
// based on uniform metadata (default ports, system databases, locks, TTL support).
//
// Minimal usage example:
//
//	import "github.com/redbco/redb-facade/pkg/dbcapabilities"
//
//	func canLock(db string) bool {
//	    id, ok := dbcapabilities.ParseID(db)
//	    return ok && dbcapabilities.SupportsAdvisoryLocks(id)
//	}
//
// Connection strings can be decomposed with ParseConnectionString:
//
//	details, err := dbcapabilities.ParseConnectionString("mysql://app:secret@db:3306/shop?tls=true")
//
// The package exposes constants for IDs (e.g., dbcapabilities.MySQL) and a
// registry `All` for advanced consumers.
package dbcapabilities
