package om

// majority reduces the outputs of a node's children to the value an
// honest participant adopts for that node.
//
// Only orders carry weight; Unknown and Unset count toward the total
// but never toward either order. With n children, an order held by
// more than n/2 wins outright. When both orders hold exactly n/2
// (integer division, so for odd n the remainder is a non-vote) the
// agreed default breaks the tie; a node with no children degenerates
// to the default the same way. Everything else reduces to Unknown.
func majority(outputs []Value, def Value) Value {
	var ones, zeros int
	for _, v := range outputs {
		switch v {
		case One:
			ones++
		case Zero:
			zeros++
		}
	}
	half := len(outputs) / 2
	switch {
	case ones > half:
		return One
	case zeros > half:
		return Zero
	case ones == zeros && ones == half:
		return def
	default:
		return Unknown
	}
}
