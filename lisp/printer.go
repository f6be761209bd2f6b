package lisp

import (
	"math"
	"strconv"
	"strings"
)

// Print renders v the way `print` does: strings unquoted, everything else
// exactly as Write would. This is also what the host uses to render a
// value crossing an interlink as log text.
func (h *Heap) Print(v Value) string {
	if IsString(v) {
		return h.AtomName(v)
	}
	return h.Write(v)
}

// Write renders v the way `write` does: a form that, read back through a
// Reader, reproduces an equal value (spec §8 invariant 5), except for the
// heap-identity-only CLOSURE/MACRO/PRIMITIVE forms below.
func (h *Heap) Write(v Value) string {
	var sb strings.Builder
	h.write(&sb, v)
	return sb.String()
}

func (h *Heap) write(sb *strings.Builder, v Value) {
	switch {
	case IsNumber(v):
		sb.WriteString(formatNumber(Float(v)))
	case IsNil(v):
		sb.WriteString("()")
	case IsAtom(v):
		sb.WriteString(h.AtomName(v))
	case IsString(v):
		sb.WriteByte('"')
		writeEscaped(sb, h.AtomName(v))
		sb.WriteByte('"')
	case IsPrimitive(v):
		sb.WriteString("#<primitive ")
		sb.WriteString(strconv.FormatUint(Ord(v), 10))
		sb.WriteByte('>')
	case IsClosure(v):
		sb.WriteByte('{')
		sb.WriteString(strconv.FormatUint(Ord(v), 10))
		sb.WriteByte('}')
	case IsMacro(v):
		sb.WriteByte('[')
		sb.WriteString(strconv.FormatUint(Ord(v), 10))
		sb.WriteByte(']')
	case IsPair(v):
		h.writeList(sb, v)
	default:
		sb.WriteString("#<?>")
	}
}

func (h *Heap) writeList(sb *strings.Builder, v Value) {
	sb.WriteByte('(')
	first := true
	for IsPair(v) {
		if !first {
			sb.WriteByte(' ')
		}
		first = false
		carVal, err := h.First(v)
		if err != nil {
			break
		}
		h.write(sb, carVal)
		next, err := h.Rest(v)
		if err != nil {
			break
		}
		v = next
	}
	if !IsNil(v) {
		sb.WriteString(" . ")
		h.write(sb, v)
	}
	sb.WriteByte(')')
}

func writeEscaped(sb *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		b := s[i]
		if j := strings.IndexByte(escapeCodes, b); j >= 0 {
			sb.WriteByte('\\')
			sb.WriteByte(escapeSource[j])
			continue
		}
		if b == '"' || b == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(b)
	}
}

// formatNumber renders a float64 the way the reference printer does:
// integral values with no fractional part print without a decimal point,
// and the three non-finite tokens the reader also accepts.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
