// Package composite implements a bridging daemon: one that connects an
// outer boundary journal to a scoped inner
// execution containing its own daemons and inner journal, running two
// independent pumps (outer -> inner, inner -> outer) that project entries
// across the boundary according to a caller-supplied manifest.
package composite
