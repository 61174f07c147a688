package localization_test

import (
	"context"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/jsonlocale/localization"
	"github.com/pitabwire/jsonlocale/localization/source"
)

const testdataDir = "testdata"

type LocalizerTestSuite struct {
	suite.Suite
}

func TestLocalizerSuite(t *testing.T) {
	suite.Run(t, &LocalizerTestSuite{})
}

func (s *LocalizerTestSuite) store(opts ...localization.BuildOption) *localization.Store {
	ctx := context.Background()
	manifest, err := source.ScanDirectory(ctx, testdataDir, "Strings")
	s.Require().NoError(err)

	store, err := localization.Build(ctx, manifest, opts...)
	s.Require().NoError(err)
	return store
}

func (s *LocalizerTestSuite) TestLookup() {
	l := localization.NewLocalizer(s.store())

	testCases := []struct {
		name     string
		cultures []string
		key      string
		value    string
		notFound bool
		location string
	}{
		{
			name:     "key present in culture",
			cultures: []string{"en"},
			key:      "Hello",
			value:    "Hello",
			location: filepath.Join(testdataDir, "Strings.en.json"),
		},
		{
			name:     "key present in another culture",
			cultures: []string{"it"},
			key:      "Hello",
			value:    "Ciao",
			location: filepath.Join(testdataDir, "Strings.it.json"),
		},
		{
			name:     "nested key",
			cultures: []string{"en"},
			key:      "Menu.File",
			value:    "File",
			location: filepath.Join(testdataDir, "Strings.en.json"),
		},
		{
			name:     "key absent from culture",
			cultures: []string{"it"},
			key:      "Menu.File",
			value:    "Menu.File",
			notFound: true,
			location: filepath.Join(testdataDir, "Strings.it.json"),
		},
		{
			name:     "culture absent",
			cultures: []string{"fr"},
			key:      "Hello",
			value:    "Hello",
			notFound: true,
		},
		{
			name:     "no culture requested",
			cultures: nil,
			key:      "Hello",
			value:    "Hello",
			notFound: true,
		},
		{
			name:     "second requested culture is used when the first is missing",
			cultures: []string{"fr", "it"},
			key:      "Hello",
			value:    "Ciao",
			location: filepath.Join(testdataDir, "Strings.it.json"),
		},
		{
			name:     "keys are case sensitive by default",
			cultures: []string{"en"},
			key:      "HELLO",
			value:    "HELLO",
			notFound: true,
			location: filepath.Join(testdataDir, "Strings.en.json"),
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			ctx := localization.ToContext(context.Background(), tc.cultures)

			res := l.Lookup(ctx, tc.key)
			s.Equal(tc.key, res.Name)
			s.Equal(tc.value, res.Value)
			s.Equal(tc.notFound, res.ResourceNotFound)
			s.Equal(tc.location, res.SearchedLocation)
			s.Equal(tc.value, res.String())
		})
	}
}

func (s *LocalizerTestSuite) TestLookupIn() {
	l := localization.NewLocalizer(s.store())
	ctx := localization.ToContext(context.Background(), []string{"en"})

	res := l.LookupIn(ctx, "sw", "Hello")
	s.False(res.ResourceNotFound)
	s.Equal("Habari", res.Value)
}

func (s *LocalizerTestSuite) TestCaseInsensitiveKeys() {
	l := localization.NewLocalizer(s.store(localization.WithCaseInsensitiveKeys(true)))

	for _, culture := range []string{"en", "EN", "En"} {
		ctx := localization.ToContext(context.Background(), []string{culture})

		expected := l.Lookup(ctx, "Hello")
		s.False(expected.ResourceNotFound)
		s.Equal("Hello", expected.Value)

		for _, key := range []string{"HELLO", "hello", "hElLo"} {
			res := l.Lookup(ctx, key)
			s.Equal(expected.Value, res.Value, "key %s culture %s", key, culture)
			s.Equal(expected.ResourceNotFound, res.ResourceNotFound)
			s.Equal(expected.SearchedLocation, res.SearchedLocation)
		}
	}

	// the original casing of keys is kept for enumeration
	var names []string
	for r := range l.GetAllForCulture("en") {
		names = append(names, r.Name)
	}
	s.Contains(names, "Menu.File")
}

func (s *LocalizerTestSuite) TestLastLoadedSourceWins() {
	ctx := context.Background()
	manifest := source.Manifest{
		source.Bytes("en", "first.json", []byte(`{"Hello":"first","OnlyFirst":"kept"}`)),
		source.Bytes("it", "it.json", []byte(`{"Hello":"Ciao"}`)),
		source.Bytes("en", "second.json", []byte(`{"Hello":"second","OnlySecond":"added"}`)),
	}

	store, err := localization.Build(ctx, manifest)
	s.Require().NoError(err)

	l := localization.NewLocalizer(store)

	res := l.LookupIn(ctx, "en", "Hello")
	s.Equal("second", res.Value)
	s.Equal("second.json", res.SearchedLocation)

	s.Equal("kept", l.LookupIn(ctx, "en", "OnlyFirst").Value)
	s.Equal("added", l.LookupIn(ctx, "en", "OnlySecond").Value)
	s.Equal(3, store.Len("en"))
	s.Equal([]string{"en", "it"}, store.Cultures())
}

func (s *LocalizerTestSuite) TestRoundTrip() {
	ctx := context.Background()
	store := s.store()
	l := localization.NewLocalizer(store)

	for _, culture := range []string{"en", "it", "sw"} {
		f, err := os.Open(filepath.Join(testdataDir, "Strings."+culture+".json"))
		s.Require().NoError(err)

		values, err := localization.Flatten(f, localization.DefaultKeyDelimiter)
		s.Require().NoError(f.Close())
		s.Require().NoError(err)
		s.Require().NotEmpty(values)

		for key, value := range values {
			res := l.LookupIn(ctx, culture, key)
			s.False(res.ResourceNotFound, "culture %s key %s", culture, key)
			s.Equal(value, res.Value, "culture %s key %s", culture, key)
		}
		s.Equal(len(values), store.Len(culture))
	}
}

func (s *LocalizerTestSuite) TestGetAllForCulture() {
	l := localization.NewLocalizer(s.store())

	collect := func(culture string) []localization.LookupResult {
		var out []localization.LookupResult
		for r := range l.GetAllForCulture(culture) {
			out = append(out, r)
		}
		return out
	}

	s.Empty(collect("fr"), "an unknown culture yields nothing")
	s.Empty(collect(""), "an empty culture yields nothing")

	first := collect("it")
	s.Require().Len(first, 3)
	s.Equal(first, collect("it"), "the sequence can be ranged again")

	names := make([]string, len(first))
	for i, r := range first {
		names[i] = r.Name
		s.False(r.ResourceNotFound)
		s.Equal(filepath.Join(testdataDir, "Strings.it.json"), r.SearchedLocation)
	}
	s.True(slices.IsSorted(names))
	s.Equal([]string{"Greeting", "Hello", "Price"}, names)

	// stopping early is honoured
	count := 0
	for range l.GetAllForCulture("en") {
		count++
		if count == 2 {
			break
		}
	}
	s.Equal(2, count)

	ctx := localization.ToContext(context.Background(), []string{"sw"})
	var swKeys []string
	for r := range l.GetAll(ctx) {
		swKeys = append(swKeys, r.Name)
	}
	s.Equal([]string{"Example.one", "Example.other", "Hello"}, swKeys)
}

func (s *LocalizerTestSuite) TestLookupFormatted() {
	l := localization.NewLocalizer(s.store())

	testCases := []struct {
		name     string
		culture  string
		key      string
		args     []any
		value    string
		notFound bool
		wantErr  bool
	}{
		{
			name:    "positional arguments",
			culture: "en",
			key:     "Greeting",
			args:    []any{"Ann", 3},
			value:   "Hello Ann, you have 3 messages",
		},
		{
			name:    "culture aware number format",
			culture: "it",
			key:     "Price",
			args:    []any{1234.5},
			value:   "Totale: 1.234,50",
		},
		{
			name:     "missing key is used as the format",
			culture:  "en",
			key:      "Missing {0}",
			args:     []any{"thing"},
			value:    "Missing thing",
			notFound: true,
		},
		{
			name:     "missing culture is used as the format",
			culture:  "fr",
			key:      "Greeting",
			args:     []any{"Ann"},
			value:    "Greeting",
			notFound: true,
		},
		{
			name:    "malformed template",
			culture: "en",
			key:     "Broken",
			args:    []any{"Ann"},
			value:   "Hello {0",
			wantErr: true,
		},
		{
			name:    "too few arguments",
			culture: "en",
			key:     "Greeting",
			args:    []any{"Ann"},
			value:   "Hello {0}, you have {1} messages",
			wantErr: true,
		},
		{
			name:     "missing key with an unbounded alignment",
			culture:  "en",
			key:      "{0,-9223372036854775808}",
			args:     []any{"x"},
			value:    "{0,-9223372036854775808}",
			notFound: true,
			wantErr:  true,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			ctx := localization.ToContext(context.Background(), []string{tc.culture})

			res, err := l.LookupFormatted(ctx, tc.key, tc.args...)
			if tc.wantErr {
				var formatErr *localization.FormatError
				s.Require().ErrorAs(err, &formatErr)
			} else {
				s.Require().NoError(err)
			}

			s.Equal(tc.value, res.Value)
			s.Equal(tc.notFound, res.ResourceNotFound)
			s.Equal(tc.key, res.Name)

			inRes, inErr := l.LookupFormattedIn(context.Background(), tc.culture, tc.key, tc.args...)
			s.Equal(res, inRes)
			s.Equal(err == nil, inErr == nil)
		})
	}
}

func (s *LocalizerTestSuite) TestCultureFallback() {
	store := s.store()

	testCases := []struct {
		name     string
		opts     []localization.Option
		cultures []string
		value    string
		notFound bool
	}{
		{
			name:     "regional culture without fallback",
			cultures: []string{"it-IT"},
			value:    "Hello",
			notFound: true,
		},
		{
			name:     "regional culture with parent fallback",
			opts:     []localization.Option{localization.WithParentCultureFallback(true)},
			cultures: []string{"it-IT"},
			value:    "Ciao",
		},
		{
			name:     "default culture after requested ones",
			opts:     []localization.Option{localization.WithDefaultCulture("sw")},
			cultures: []string{"fr"},
			value:    "Habari",
		},
		{
			name:     "default culture when nothing is requested",
			opts:     []localization.Option{localization.WithDefaultCulture("it")},
			cultures: nil,
			value:    "Ciao",
		},
		{
			name: "requested culture beats the default",
			opts: []localization.Option{
				localization.WithDefaultCulture("sw"),
				localization.WithParentCultureFallback(true),
			},
			cultures: []string{"it-CH"},
			value:    "Ciao",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			l := localization.NewLocalizer(store, tc.opts...)
			ctx := localization.ToContext(context.Background(), tc.cultures)

			res := l.Lookup(ctx, "Hello")
			s.Equal(tc.value, res.Value)
			s.Equal(tc.notFound, res.ResourceNotFound)
		})
	}
}

func (s *LocalizerTestSuite) TestNilStore() {
	l := localization.NewLocalizer(nil)
	ctx := localization.ToContext(context.Background(), []string{"en"})

	res := l.Lookup(ctx, "Hello")
	s.True(res.ResourceNotFound)
	s.Equal("Hello", res.Value)
	s.Empty(l.Cultures())

	for range l.GetAllForCulture("en") {
		s.Fail("nil store must yield nothing")
	}
}

func (s *LocalizerTestSuite) TestConcurrentLookups() {
	l := localization.NewLocalizer(s.store(), localization.WithParentCultureFallback(true))

	expected := map[string]string{"en": "Hello", "it-IT": "Ciao", "sw": "Habari", "fr": "Hello"}
	cultures := slices.Collect(maps.Keys(expected))

	var wg sync.WaitGroup
	for i := range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			culture := cultures[i%len(cultures)]
			ctx := localization.ToContext(context.Background(), []string{culture})
			for range 50 {
				s.Equal(expected[culture], l.Lookup(ctx, "Hello").Value)
				for range l.GetAllForCulture("it") {
					_ = culture
				}
			}
		}()
	}
	wg.Wait()
}
