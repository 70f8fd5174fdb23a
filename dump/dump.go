// Package dump renders a participant's record tree for inspection:
// one line per record in post-order as text, or a Graphviz digraph of
// the parent edges. Records never delivered render as the zero Record,
// so a partially driven participant is still printable.
package dump

import (
	"fmt"
	"strings"

	"github.com/byzantine-generals/go-om/om"
)

// Text renders the record tree one node per line, children before
// their parent, each as {received,path,reduced}.
func Text(p *om.Participant) string {
	var b strings.Builder
	_ = p.Traverse(func(path om.Path, rec om.Record) error {
		fmt.Fprintf(&b, "{%s,%s,%s}\n", rec.Received, path, rec.Output)
		return nil
	})
	return b.String()
}
