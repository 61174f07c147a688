package localization

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// maxNestingDepth matches the nesting limit encoding/json applies when decoding.
const maxNestingDepth = 10000

var ErrNotAnObject = errors.New("translation document must be a JSON object")

// Flatten reads a JSON object and returns its leaves keyed by path.
// Nested objects join their keys with delimiter and arrays use the element index,
// so {"a":{"b":"x"},"l":["y"]} becomes a.b=x, l.0=y.
// Numbers keep their literal text, booleans become true/false and null an empty string.
// Empty objects and arrays produce no entries.
//
// The document is read in order, so when two entries flatten to the same key,
// {"a":{"b":"x"},"a.b":"y"} for instance, the later one wins.
func Flatten(r io.Reader, delimiter string) (map[string]string, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, ErrNotAnObject
	}

	f := &flattener{dec: dec, delimiter: delimiter, out: make(map[string]string)}
	err = f.object("", 1)
	if err != nil {
		return nil, err
	}

	_, err = dec.Token()
	if !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after the top level JSON object")
	}

	return f.out, nil
}

type flattener struct {
	dec       *json.Decoder
	delimiter string
	out       map[string]string
}

func (f *flattener) join(prefix, k string) string {
	if prefix == "" {
		return k
	}
	return prefix + f.delimiter + k
}

// object consumes the members of an object whose opening brace was already read.
func (f *flattener) object(prefix string, depth int) error {
	for f.dec.More() {
		tok, err := f.dec.Token()
		if err != nil {
			return unexpectedEOF(err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("object key %v is not a string", tok)
		}

		err = f.value(f.join(prefix, key), depth)
		if err != nil {
			return err
		}
	}
	return f.closing()
}

// array consumes the elements of an array whose opening bracket was already read.
func (f *flattener) array(prefix string, depth int) error {
	for i := 0; f.dec.More(); i++ {
		err := f.value(f.join(prefix, strconv.Itoa(i)), depth)
		if err != nil {
			return err
		}
	}
	return f.closing()
}

func (f *flattener) closing() error {
	_, err := f.dec.Token()
	return unexpectedEOF(err)
}

func (f *flattener) value(path string, depth int) error {
	tok, err := f.dec.Token()
	if err != nil {
		return unexpectedEOF(err)
	}

	switch v := tok.(type) {
	case json.Delim:
		if depth >= maxNestingDepth {
			return fmt.Errorf("translation document is nested deeper than %d levels", maxNestingDepth)
		}
		if v == '{' {
			return f.object(path, depth+1)
		}
		return f.array(path, depth+1)
	case string:
		f.out[path] = v
	case json.Number:
		f.out[path] = v.String()
	case bool:
		f.out[path] = strconv.FormatBool(v)
	case nil:
		f.out[path] = ""
	default:
		f.out[path] = fmt.Sprint(v)
	}
	return nil
}

func unexpectedEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
