// Package pipeline runs the fetch half of the exporter: one batched request
// to the Turf API per cycle, normalization of every returned user object,
// and one cache write per valid user.
//
// A cycle that fails upstream writes nothing, so the previous snapshots stay
// in place and keep being served. Within a successful cycle each user is
// handled on its own: a malformed user object is rejected in full while the
// others are still written.
//
// Normalization keeps only the fields named in the schema registry.
// Collection fields such as "zones" are reduced to their element count.
package pipeline
