package dump

import (
	"fmt"
	"strings"

	"github.com/byzantine-generals/go-om/om"
)

// Dot renders the record tree as a Graphviz digraph, one edge per
// relay path from its parent. The top relay round hangs off a synthetic
// "General" node standing in for the source's own input.
func Dot(p *om.Participant) string {
	var b strings.Builder
	b.WriteString("digraph byz {\n")
	b.WriteString("rankdir=LR;\n")
	b.WriteString("nodesep=.0025;\n")
	fmt.Fprintf(&b, "label=%q;\n", fmt.Sprintf("Process %d", p.ID()))
	b.WriteString("node [fontsize=8,width=.005,height=.005,shape=plaintext];\n")
	b.WriteString("edge [fontsize=8,arrowsize=0.25];\n")
	_ = p.Traverse(func(path om.Path, rec om.Record) error {
		if path.Len() == 1 {
			fmt.Fprintf(&b, "General->%q;\n", nodeLabel(path, rec))
			return nil
		}
		parent := path.Parent()
		parentRec, _ := p.Record(parent)
		fmt.Fprintf(&b, "%q->%q;\n", nodeLabel(parent, parentRec), nodeLabel(path, rec))
		return nil
	})
	b.WriteString("};\n")
	return b.String()
}

func nodeLabel(path om.Path, rec om.Record) string {
	return fmt.Sprintf("{%s,%s,%s}", rec.Received, path, rec.Output)
}
