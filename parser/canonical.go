package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// CanonicalKey produces the R1C1-normalized structural key used to
// de-duplicate parsed formulas (spec.md §3's ASTKey, §8.1). It is keyed
// on sheet *index* rather than name so a sheet rename (which only
// changes rendering, see spec.md §8.4 scenario 5) never invalidates an
// existing dedup entry, and on raw offsets rather than absolute
// coordinates so the same structural formula shares an entry wherever
// it's used.
func CanonicalKey(n Node) string {
	var b strings.Builder
	writeCanonical(&b, n)
	return b.String()
}

func writeCanonical(b *strings.Builder, n Node) {
	switch v := n.(type) {
	case *NumberNode:
		b.WriteString(strconv.FormatFloat(v.Value, 'g', -1, 64))
	case *StringNode:
		b.WriteString(`"`)
		b.WriteString(strings.ReplaceAll(v.Value, `"`, `""`))
		b.WriteString(`"`)
	case *BooleanNode:
		if v.Value {
			b.WriteString("TRUE")
		} else {
			b.WriteString("FALSE")
		}
	case *ErrorNode:
		b.WriteString(string(v.Kind))
	case *EmptyArgNode:
		// nothing
	case *ReferenceNode:
		fmt.Fprintf(b, "S%dR%s%sC%s%s", v.SheetIndex, absTag(v.AbsoluteRow), offsetText(v.Row), absTag(v.AbsoluteCol), offsetText(v.Col))
	case *RangeNode:
		writeCanonical(b, &v.Left)
		b.WriteString(":")
		writeCanonical(b, &v.Right)
	case *ArrayNode:
		b.WriteString("{")
		for i, row := range v.Rows {
			if i > 0 {
				b.WriteString(";")
			}
			for j, leaf := range row {
				if j > 0 {
					b.WriteString(",")
				}
				b.WriteString(stringifyLeaf(leaf))
			}
		}
		b.WriteString("}")
	case *UnaryNode:
		fmt.Fprintf(b, "U%d(", v.Op)
		writeCanonical(b, v.Child)
		b.WriteString(")")
	case *BinaryNode:
		b.WriteString("(")
		writeCanonical(b, v.Left)
		fmt.Fprintf(b, ")%d(", v.Op)
		writeCanonical(b, v.Right)
		b.WriteString(")")
	case *FunctionNode:
		b.WriteString(v.Name)
		b.WriteString("(")
		for i, a := range v.Args {
			if i > 0 {
				b.WriteString(",")
			}
			writeCanonical(b, a)
		}
		b.WriteString(")")
	case *InvalidFunctionNode:
		b.WriteString("?")
		b.WriteString(v.Name)
		b.WriteString("(")
		for i, a := range v.Args {
			if i > 0 {
				b.WriteString(",")
			}
			writeCanonical(b, a)
		}
		b.WriteString(")")
	case *DefinedNameNode:
		fmt.Fprintf(b, "N[%d]%s", v.ScopeSheet, v.Name)
	case *ImplicitIntersectionNode:
		if v.Automatic {
			b.WriteString("~(")
		} else {
			b.WriteString("@(")
		}
		writeCanonical(b, v.Child)
		b.WriteString(")")
	case *TableReferenceNode:
		fmt.Fprintf(b, "T:%s:%s:%s", v.Table, v.Specifier, v.ColumnRef)
	default:
		b.WriteString("?")
	}
}

func absTag(abs bool) string {
	if abs {
		return "$"
	}
	return ""
}

func offsetText(n int) string {
	if n < 0 {
		return strconv.Itoa(n)
	}
	return "+" + strconv.Itoa(n)
}
