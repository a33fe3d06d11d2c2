// Package archive provides a layered record-access engine that turns flat
// document tables into a hierarchy-aware metadata store.
//
// Three views build on each other by composition:
//
//   - [Generic] owns atomic single-table CRUD against the document store,
//     stamping creation times and upserting by composite key.
//   - [Relational] adds composite-key identity, read-time expansion of a
//     record with its downstream relation records, and cascading deletion
//     that removes matching downstream records before the record itself.
//   - [Associative] adds a generated opaque link per record, accumulation of
//     links from at most one matching upstream association record per
//     configured upstream subject, and link-based expansion and cascade.
//
// # Identity
//
// Every record carries a composite [Key] tying it to its position in the
// containment hierarchy. Association records additionally carry a [Key]
// under the link field, generated at creation time: their own fresh token
// plus every identifier accumulated from the upstream association chain.
// The two identity systems stay disjoint, so a record can be addressed
// structurally (by key) or by provenance (by link).
//
// # Configuration
//
// Per-subject configuration is static: a [Subject] names the table, its
// identifier field, its transitively flattened downstream relation subjects
// and — for association subjects — its upstream association subjects. A
// [Registry] collects subjects and hands out views. The engine trusts
// relation lists to be flattened; it never computes the closure itself.
//
// # Consistency
//
// Operations touching one table are atomic. Operations spanning tables
// (cascading deletes, link accumulation during create) commit per table: a
// crash or concurrent interleave can leave a partial cascade behind. The
// engine verifies cascade post-conditions and surfaces mismatches as
// [ErrIntegrity] instead of hiding them; re-driving a partial cascade is
// left to the surrounding system.
//
// # Errors
//
//   - [ErrNotFound] - no record under the given key or link
//   - [ErrKeyImmutable], [ErrLinkImmutable] - update touched an identity field
//   - [ErrCardinality] - more than one upstream record matched a key
//   - [ErrIntegrity] - cascade verification failed
//   - [ErrUnknownSubject] - subject name not registered
//
// Document-store failures pass through wrapped, unmodified in meaning.
package archive
