package localization_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/pitabwire/jsonlocale/localization"
)

func TestFormat(t *testing.T) {
	testCases := []struct {
		name     string
		tag      language.Tag
		template string
		args     []any
		expected string
	}{
		{name: "no placeholders", template: "plain text", expected: "plain text"},
		{name: "positional", template: "{1} then {0}", args: []any{"a", "b"}, expected: "b then a"},
		{name: "repeated index", template: "{0}{0}", args: []any{"x"}, expected: "xx"},
		{name: "unused arguments", template: "{0}", args: []any{"x", "y"}, expected: "x"},
		{name: "escaped braces", template: "{{0}} is {0}", args: []any{7}, expected: "{0} is 7"},
		{name: "nil argument", template: "[{0}]", args: []any{nil}, expected: "[]"},
		{name: "right aligned", template: "[{0,5}]", args: []any{"ab"}, expected: "[   ab]"},
		{name: "left aligned", template: "[{0,-5}]", args: []any{"ab"}, expected: "[ab   ]"},
		{name: "alignment counts runes", template: "[{0,4}]", args: []any{"çà"}, expected: "[  çà]"},
		{name: "alignment narrower than value", template: "[{0,1}]", args: []any{"abc"}, expected: "[abc]"},
		{name: "zero padded integer", template: "{0:D4}", args: []any{42}, expected: "0042"},
		{name: "negative zero padded integer", template: "{0:D4}", args: []any{-42}, expected: "-0042"},
		{name: "hex upper", template: "{0:X}", args: []any{255}, expected: "FF"},
		{name: "hex lower padded", template: "{0:x4}", args: []any{uint8(255)}, expected: "00ff"},
		{name: "smallest int64", template: "{0:D}", args: []any{int64(math.MinInt64)}, expected: "-9223372036854775808"},
		{name: "largest uint64", template: "{0:D}", args: []any{uint64(math.MaxUint64)}, expected: "18446744073709551615"},
		{name: "largest uint64 hex", template: "{0:X}", args: []any{uint64(math.MaxUint64)}, expected: "FFFFFFFFFFFFFFFF"},
		{name: "negative hex uses type width", template: "{0:X}", args: []any{int8(-1)}, expected: "FF"},
		{name: "negative int32 hex", template: "{0:x}", args: []any{int32(-2)}, expected: "fffffffe"},
		{name: "largest uint64 as float", template: "{0:E2}", args: []any{uint64(math.MaxUint64)}, expected: "1.84E+19"},
		{name: "widest alignment", template: "{0,999999}", args: []any{"x"}, expected: strings.Repeat(" ", 999998) + "x"},
		{name: "fixed point", tag: language.English, template: "{0:F2}", args: []any{1234.5}, expected: "1234.50"},
		{name: "fixed point default precision", tag: language.English, template: "{0:F}", args: []any{3}, expected: "3.00"},
		{name: "grouped english", tag: language.English, template: "{0:N2}", args: []any{1234.5}, expected: "1,234.50"},
		{name: "grouped german", tag: language.German, template: "{0:N2}", args: []any{1234.5}, expected: "1.234,50"},
		{name: "grouped no fraction", tag: language.English, template: "{0:N0}", args: []any{1234567}, expected: "1,234,567"},
		{name: "percent", tag: language.English, template: "{0:P0}", args: []any{0.5}, expected: "50%"},
		{name: "exponent", template: "{0:E2}", args: []any{1234.5}, expected: "1.23E+03"},
		{name: "general", template: "{0:G}", args: []any{float32(0.25)}, expected: "0.25"},
		{name: "format with alignment", tag: language.English, template: "[{0,8:F1}]", args: []any{2.75}, expected: "[     2.8]"},
		{name: "stringer value", template: "{0}", args: []any{language.Italian}, expected: "it"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := localization.Format(tc.tag, tc.template, tc.args...)
			require.NoError(t, err)
			require.Equal(t, tc.expected, out)
		})
	}
}

func TestFormatErrors(t *testing.T) {
	testCases := []struct {
		name     string
		template string
		args     []any
		offset   int
	}{
		{name: "index out of range", template: "a {1}", args: []any{"x"}, offset: 2},
		{name: "no arguments", template: "{0}", offset: 0},
		{name: "unclosed placeholder", template: "abc {0", args: []any{"x"}, offset: 4},
		{name: "stray closing brace", template: "ab}c", offset: 2},
		{name: "non numeric index", template: "{a}", args: []any{"x"}, offset: 0},
		{name: "negative index", template: "{-1}", args: []any{"x"}, offset: 0},
		{name: "bad alignment", template: "{0,x}", args: []any{"x"}, offset: 0},
		{name: "unknown specifier", template: "{0:Q}", args: []any{1}, offset: 0},
		{name: "bad precision", template: "{0:Dz}", args: []any{1}, offset: 0},
		{name: "integer format on text", template: "{0:D2}", args: []any{"x"}, offset: 0},
		{name: "integer format on float", template: "{0:X}", args: []any{1.5}, offset: 0},
		{name: "numeric format on text", template: "{0:N2}", args: []any{"x"}, offset: 0},
		{name: "smallest int alignment", template: "{0,-9223372036854775808}", args: []any{"x"}, offset: 0},
		{name: "alignment too wide", template: "a{0,2000000000}", args: []any{"x"}, offset: 1},
		{name: "left alignment too wide", template: "{0,-1000000}", args: []any{"x"}, offset: 0},
		{name: "alignment overflows int", template: "{0,99999999999999999999}", args: []any{"x"}, offset: 0},
		{name: "precision too large", template: "{0:F999999999}", args: []any{1.5}, offset: 0},
		{name: "integer precision too large", template: "{0:D1000000000}", args: []any{1}, offset: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := localization.Format(language.English, tc.template, tc.args...)
			require.Error(t, err)

			var formatErr *localization.FormatError
			require.True(t, errors.As(err, &formatErr))
			require.Equal(t, tc.template, formatErr.Template)
			require.Equal(t, tc.offset, formatErr.Offset)
			require.NotEmpty(t, formatErr.Reason)
		})
	}
}
