package localization_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/jsonlocale/localization"
	"github.com/pitabwire/jsonlocale/localization/source"
)

type FactoryTestSuite struct {
	suite.Suite
}

func TestFactorySuite(t *testing.T) {
	suite.Run(t, &FactoryTestSuite{})
}

func directoryLoader(dir string, calls *atomic.Int32) localization.ManifestLoader {
	return func(ctx context.Context, name string) (source.Manifest, error) {
		calls.Add(1)
		return source.ScanDirectory(ctx, dir, name)
	}
}

func (s *FactoryTestSuite) TestCreateCachesPerName() {
	ctx := context.Background()
	var calls atomic.Int32

	f := localization.NewFactory(directoryLoader(testdataDir, &calls), nil)

	first, err := f.Create(ctx, "Strings")
	s.Require().NoError(err)
	second, err := f.Create(ctx, "Strings")
	s.Require().NoError(err)
	s.Same(first, second)
	s.Equal(int32(1), calls.Load())

	other, err := f.Create(ctx, "Other")
	s.Require().NoError(err)
	s.NotSame(first, other)
	s.Equal(int32(2), calls.Load())

	s.ElementsMatch([]string{"Strings", "Other"}, f.Names())
	s.Equal("Hello", first.LookupIn(ctx, "en", "Hello").Value)
}

func (s *FactoryTestSuite) TestCreateAppliesOptions() {
	ctx := context.Background()
	var calls atomic.Int32

	f := localization.NewFactory(
		directoryLoader(testdataDir, &calls),
		[]localization.BuildOption{localization.WithCaseInsensitiveKeys(true)},
		localization.WithDefaultCulture("en"),
	)

	l, err := f.Create(ctx, "Strings")
	s.Require().NoError(err)

	res := l.LookupIn(ctx, "fr", "HELLO")
	s.False(res.ResourceNotFound)
	s.Equal("Hello", res.Value)
}

func (s *FactoryTestSuite) TestCreateEmptyName() {
	var calls atomic.Int32
	f := localization.NewFactory(directoryLoader(testdataDir, &calls), nil)

	_, err := f.Create(context.Background(), "")
	s.Require().ErrorIs(err, localization.ErrEmptyResourceName)
	s.Zero(calls.Load())
}

func (s *FactoryTestSuite) TestCreateLoaderFailureIsNotCached() {
	ctx := context.Background()
	boom := errors.New("listing failed")
	var calls atomic.Int32

	f := localization.NewFactory(func(_ context.Context, _ string) (source.Manifest, error) {
		calls.Add(1)
		return nil, boom
	}, nil)

	_, err := f.Create(ctx, "Strings")
	s.Require().ErrorIs(err, boom)
	_, err = f.Create(ctx, "Strings")
	s.Require().ErrorIs(err, boom)
	s.Equal(int32(2), calls.Load())
	s.Empty(f.Names())
}

func (s *FactoryTestSuite) TestCreatePartialFailureIsCached() {
	ctx := context.Background()
	var calls atomic.Int32

	f := localization.NewFactory(directoryLoader(filepath.Join(testdataDir, "broken"), &calls), nil)

	l, err := f.Create(ctx, "Strings")
	s.Require().Error(err)
	s.Require().NotNil(l)
	s.Equal([]string{"en"}, l.Cultures())

	again, err := f.Create(ctx, "Strings")
	s.Require().NoError(err)
	s.Same(l, again)
	s.Equal(int32(1), calls.Load())
}

func (s *FactoryTestSuite) TestCreateStrictFailureIsNotCached() {
	ctx := context.Background()
	var calls atomic.Int32

	f := localization.NewFactory(
		directoryLoader(filepath.Join(testdataDir, "broken"), &calls),
		[]localization.BuildOption{localization.WithStrictLoad(true)},
	)

	l, err := f.Create(ctx, "Strings")
	s.Require().Error(err)
	s.Nil(l)
	s.Empty(f.Names())
}
