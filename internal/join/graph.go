// Package join derives a directed foreign-key graph from column naming
// conventions and answers bounded shortest-path queries between tables.
package join

import (
	"strings"

	"github.com/dwmorris/sqlpilot/internal/lexicon"
	"github.com/dwmorris/sqlpilot/internal/schema"
)

// MaxHops bounds path search. Longer chains are too speculative to
// synthesize from naming conventions alone.
const MaxHops = 2

// Edge is one inferred foreign-key relationship:
// SrcTable.SrcCol references DstTable.DstPK.
type Edge struct {
	SrcTable string
	SrcCol   string
	DstTable string
	DstPK    string
}

// Graph holds the inferred edges, indexed by source table.
type Graph struct {
	edges []Edge
	bySrc map[string][]Edge
	order []string
}

// Infer derives foreign-key edges from every column ending in "_id".
// Destination tables are matched in strict strategy priority: a table whose
// inferred primary key equals the column, then a table-name/singular match
// on the column stem, then substring containment. Within a strategy the
// first table in schema order wins, keeping inference deterministic.
func Infer(m *schema.Model) *Graph {
	g := &Graph{bySrc: map[string][]Edge{}, order: m.TableNames}

	for _, src := range m.TableNames {
		for _, col := range m.Tables[src].Columns {
			if !strings.HasSuffix(col, "_id") {
				continue
			}

			dst := matchDestination(m, src, col)
			if dst == "" {
				continue
			}

			edge := Edge{
				SrcTable: src,
				SrcCol:   col,
				DstTable: dst,
				DstPK:    PrimaryKey(m, dst),
			}

			g.edges = append(g.edges, edge)
			g.bySrc[src] = append(g.bySrc[src], edge)
		}
	}

	return g
}

func matchDestination(m *schema.Model, src, col string) string {
	stem := strings.TrimSuffix(col, "_id")

	// Strategy 1: some other table's inferred primary key is exactly this
	// column (users.org_id -> organizations, whose PK is org_id).
	for _, t := range m.TableNames {
		if t != src && PrimaryKey(m, t) == col {
			return t
		}
	}

	// Strategy 2: table name or its singular matches the column stem.
	for _, t := range m.TableNames {
		if t == src {
			continue
		}

		if t == stem || lexicon.Singular(t) == lexicon.Singular(stem) {
			return t
		}
	}

	// Strategy 3: substring containment.
	for _, t := range m.TableNames {
		if t == src {
			continue
		}

		if strings.Contains(t, stem) || strings.Contains(stem, t) {
			return t
		}
	}

	return ""
}

// PrimaryKey infers a table's primary key: a column literally named "id",
// else "<singular(table)>_id", else the first column ending in "_id", else
// the first column.
func PrimaryKey(m *schema.Model, table string) string {
	info, ok := m.Tables[table]
	if !ok || len(info.Columns) == 0 {
		return ""
	}

	for _, c := range info.Columns {
		if c == "id" {
			return c
		}
	}

	want := lexicon.Singular(table) + "_id"
	for _, c := range info.Columns {
		if c == want {
			return c
		}
	}

	for _, c := range info.Columns {
		if strings.HasSuffix(c, "_id") {
			return c
		}
	}

	return info.Columns[0]
}

// Edges returns all inferred edges.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// EdgesFrom returns the edges whose source is table.
func (g *Graph) EdgesFrom(table string) []Edge {
	return g.bySrc[table]
}

// FindPath returns a directed path of at most MaxHops edges from src to
// dst, or false if none exists. src == dst yields an empty path. Edges are
// held in sorted table order, so the first path found is deterministic for
// a given schema.
func (g *Graph) FindPath(src, dst string) ([]Edge, bool) {
	if src == dst {
		return []Edge{}, true
	}

	for _, e := range g.bySrc[src] {
		if e.DstTable == dst {
			return []Edge{e}, true
		}
	}

	for _, e1 := range g.bySrc[src] {
		for _, e2 := range g.bySrc[e1.DstTable] {
			if e2.DstTable == dst {
				return []Edge{e1, e2}, true
			}
		}
	}

	return nil, false
}
