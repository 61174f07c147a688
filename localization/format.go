package localization

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	defaultFixedDigits    = 2
	defaultExponentDigits = 6

	// maxAlignment bounds the padding width of a placeholder, exclusive.
	maxAlignment = 1_000_000
	// maxPrecision bounds the digits a format specifier may request.
	maxPrecision = 999
)

// FormatError is returned when a template does not fit its arguments.
type FormatError struct {
	Template string
	Offset   int
	Reason   string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid format %q at offset %d: %s", e.Template, e.Offset, e.Reason)
}

// Format substitutes args into a composite format template.
//
// Placeholders have the form {index[,alignment][:format]}; literal braces are written {{ and }}.
// A positive alignment right aligns the value in that many runes, a negative one left aligns it.
// Numeric arguments accept the format letters D, F, N, P, E, X and G optionally followed by a
// precision, e.g. {0:N2}; N and P group digits the way tag does.
func Format(tag language.Tag, template string, args ...any) (string, error) {
	var b strings.Builder
	b.Grow(len(template))

	for i := 0; i < len(template); i++ {
		c := template[i]
		switch c {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}

			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return "", &FormatError{Template: template, Offset: i, Reason: "placeholder is not closed"}
			}

			item, err := formatItem(tag, template[i+1:i+1+end], args)
			if err != nil {
				return "", &FormatError{Template: template, Offset: i, Reason: err.Error()}
			}
			b.WriteString(item)
			i += end + 1

		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", &FormatError{Template: template, Offset: i, Reason: "unexpected closing brace"}

		default:
			b.WriteByte(c)
		}
	}

	return b.String(), nil
}

func formatItem(tag language.Tag, spec string, args []any) (string, error) {
	head, verb, _ := strings.Cut(spec, ":")
	indexText, alignText, hasAlign := strings.Cut(head, ",")

	index, err := strconv.Atoi(strings.TrimSpace(indexText))
	if err != nil || index < 0 {
		return "", fmt.Errorf("invalid argument index %q", indexText)
	}
	if index >= len(args) {
		return "", fmt.Errorf("argument index %d is out of range, %d arguments supplied", index, len(args))
	}

	alignment := 0
	if hasAlign {
		alignment, err = strconv.Atoi(strings.TrimSpace(alignText))
		if err != nil {
			return "", fmt.Errorf("invalid alignment %q", alignText)
		}
		if alignment <= -maxAlignment || alignment >= maxAlignment {
			return "", fmt.Errorf("alignment %d is out of range, must be below %d", alignment, maxAlignment)
		}
	}

	out, err := formatValue(tag, args[index], verb)
	if err != nil {
		return "", err
	}

	return align(out, alignment), nil
}

func align(s string, width int) string {
	pad := width
	if pad < 0 {
		pad = -pad
	}
	pad -= utf8.RuneCountInString(s)
	if pad <= 0 {
		return s
	}
	if width > 0 {
		return strings.Repeat(" ", pad) + s
	}
	return s + strings.Repeat(" ", pad)
}

func formatValue(tag language.Tag, arg any, verb string) (string, error) {
	if verb == "" {
		if arg == nil {
			return "", nil
		}
		return fmt.Sprint(arg), nil
	}

	letter := verb[0]
	precision := -1
	if len(verb) > 1 {
		p, err := strconv.Atoi(verb[1:])
		if err != nil || p < 0 {
			return "", fmt.Errorf("invalid format specifier %q", verb)
		}
		if p > maxPrecision {
			return "", fmt.Errorf("precision %d of format %q is out of range, at most %d", p, verb, maxPrecision)
		}
		precision = p
	}

	switch letter {
	case 'D', 'd', 'X', 'x':
		n, ok := asInteger(arg)
		if !ok {
			return "", fmt.Errorf("format %q requires an integer argument, got %T", verb, arg)
		}
		return formatInteger(n, letter, precision), nil

	case 'F', 'f', 'N', 'n', 'P', 'p', 'E', 'e', 'G', 'g':
		f, ok := asFloat(arg)
		if !ok {
			return "", fmt.Errorf("format %q requires a numeric argument, got %T", verb, arg)
		}
		return formatFloat(tag, f, letter, precision), nil

	default:
		return "", fmt.Errorf("unknown format specifier %q", verb)
	}
}

func formatInteger(n integer, letter byte, precision int) string {
	var digits string
	switch letter {
	case 'X':
		digits = strings.ToUpper(strconv.FormatUint(n.bits, 16))
	case 'x':
		digits = strconv.FormatUint(n.bits, 16)
	default:
		digits = strconv.FormatUint(n.magnitude, 10)
	}

	if pad := precision - len(digits); pad > 0 {
		digits = strings.Repeat("0", pad) + digits
	}
	if n.negative && letter != 'X' && letter != 'x' {
		return "-" + digits
	}
	return digits
}

func formatFloat(tag language.Tag, f float64, letter byte, precision int) string {
	p := message.NewPrinter(tag)

	switch letter {
	case 'F', 'f':
		if precision < 0 {
			precision = defaultFixedDigits
		}
		return p.Sprint(number.Decimal(f, number.NoSeparator(),
			number.MinFractionDigits(precision), number.MaxFractionDigits(precision)))
	case 'N', 'n':
		if precision < 0 {
			precision = defaultFixedDigits
		}
		return p.Sprint(number.Decimal(f,
			number.MinFractionDigits(precision), number.MaxFractionDigits(precision)))
	case 'P', 'p':
		if precision < 0 {
			precision = defaultFixedDigits
		}
		return p.Sprint(number.Percent(f,
			number.MinFractionDigits(precision), number.MaxFractionDigits(precision)))
	case 'E':
		if precision < 0 {
			precision = defaultExponentDigits
		}
		return strconv.FormatFloat(f, 'E', precision, 64)
	case 'e':
		if precision < 0 {
			precision = defaultExponentDigits
		}
		return strconv.FormatFloat(f, 'e', precision, 64)
	default:
		return strconv.FormatFloat(f, 'g', precision, 64)
	}
}

// integer is an integral argument split so that no value of any Go integer type overflows.
// bits holds the two's complement form at the width of the argument's type, used by hex formats.
type integer struct {
	negative  bool
	magnitude uint64
	bits      uint64
}

func signedInteger(v int64, size int) integer {
	n := integer{negative: v < 0, magnitude: uint64(v), bits: uint64(v)}
	if n.negative {
		n.magnitude = uint64(-(v + 1)) + 1
	}
	if size < 64 {
		n.bits &= 1<<size - 1
	}
	return n
}

func unsignedInteger(v uint64) integer {
	return integer{magnitude: v, bits: v}
}

func asInteger(arg any) (integer, bool) {
	switch v := arg.(type) {
	case int:
		return signedInteger(int64(v), strconv.IntSize), true
	case int8:
		return signedInteger(int64(v), 8), true
	case int16:
		return signedInteger(int64(v), 16), true
	case int32:
		return signedInteger(int64(v), 32), true
	case int64:
		return signedInteger(v, 64), true
	case uint:
		return unsignedInteger(uint64(v)), true
	case uint8:
		return unsignedInteger(uint64(v)), true
	case uint16:
		return unsignedInteger(uint64(v)), true
	case uint32:
		return unsignedInteger(uint64(v)), true
	case uint64:
		return unsignedInteger(v), true
	default:
		return integer{}, false
	}
}

func asFloat(arg any) (float64, bool) {
	switch v := arg.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		n, ok := asInteger(arg)
		if n.negative {
			return -float64(n.magnitude), ok
		}
		return float64(n.magnitude), ok
	}
}
