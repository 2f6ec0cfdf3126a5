//go:build windows
// +build windows

package wmipp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queryOperatingSystem(t *testing.T) (*Session, *QueryResult) {
	t.Helper()
	session, err := Connect()
	require.NoError(t, err)

	result, err := session.ExecuteQuery("SELECT * FROM Win32_OperatingSystem")
	require.NoError(t, err)
	return session, result
}

func TestResultIndexing(t *testing.T) {
	session, result := queryOperatingSystem(t)
	defer session.Close()
	defer result.Close()

	require.Equal(t, 1, result.Count())

	first, err := result.At(0)
	require.NoError(t, err)
	require.NotNil(t, first)

	// Repeated access hands back the same object, not a fresh fetch
	again, err := result.At(0)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	_, err = result.At(result.Count())
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = result.At(-1)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.True(t, errors.Is(err, ErrOutOfRange))
}

func TestResultIterationRestartable(t *testing.T) {
	session, err := Connect()
	require.NoError(t, err)
	defer session.Close()

	result, err := session.ExecuteQuery("SELECT Name FROM Win32_LogicalDisk")
	require.NoError(t, err)
	defer result.Close()

	first := result.Objects()
	second := result.Objects()
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i], second[i])
	}

	// The returned slices are independent copies
	if len(first) > 0 {
		first[0] = nil
		assert.NotNil(t, result.Objects()[0])
	}
}

func TestFindProperty(t *testing.T) {
	session, result := queryOperatingSystem(t)
	defer session.Close()
	defer result.Close()

	caption, ok := FindProperty[string](result, "Caption")
	assert.True(t, ok)
	assert.NotEmpty(t, caption)

	_, ok = FindProperty[string](result, "NoSuchProperty")
	assert.False(t, ok)

	version, ok := FindPropertyAt[string](result, "Version", 0)
	assert.True(t, ok)
	assert.NotEmpty(t, version)

	_, ok = FindPropertyAt[string](result, "Version", result.Count())
	assert.False(t, ok)
	_, ok = FindPropertyAt[string](result, "Version", -1)
	assert.False(t, ok)
}

func TestObjectProperties(t *testing.T) {
	session, result := queryOperatingSystem(t)
	defer session.Close()
	defer result.Close()

	object, err := result.At(0)
	require.NoError(t, err)

	names, err := object.Properties()
	require.NoError(t, err)
	assert.Contains(t, names, "Caption")
	assert.Contains(t, names, "Version")

	kind, err := object.PropertyType("Caption")
	require.NoError(t, err)
	assert.Equal(t, CIM_STRING, kind)
	assert.False(t, kind.IsArray())

	_, err = object.PropertyType("NoSuchProperty")
	assert.Error(t, err)
}

func TestObjectEqual(t *testing.T) {
	session, result := queryOperatingSystem(t)
	defer session.Close()
	defer result.Close()

	object, err := result.At(0)
	require.NoError(t, err)
	assert.True(t, object.Equal(object))
	assert.False(t, object.Equal(nil))

	other, err := session.ExecuteQuery("SELECT * FROM Win32_ComputerSystem")
	require.NoError(t, err)
	defer other.Close()

	if other.Count() > 0 {
		mismatch, err := other.At(0)
		require.NoError(t, err)
		assert.False(t, object.Equal(mismatch))
	}
}

func TestGetPropertyTypedAccess(t *testing.T) {
	session, result := queryOperatingSystem(t)
	defer session.Close()
	defer result.Close()

	object, err := result.At(0)
	require.NoError(t, err)

	caption, ok := GetProperty[string](object, "Caption")
	assert.True(t, ok)
	assert.NotEmpty(t, caption)

	// FreePhysicalMemory is a CIM uint64 carried as text on the wire
	free, ok := GetProperty[uint64](object, "FreePhysicalMemory")
	assert.True(t, ok)
	assert.Greater(t, free, uint64(0))

	// A string cannot become an integer, so the lookup is simply absent
	_, ok = GetProperty[int32](object, "Caption")
	assert.False(t, ok)

	_, ok = GetProperty[string](object, "NoSuchProperty")
	assert.False(t, ok)

	// A property name with an embedded NUL is a failed fetch, not a panic
	_, ok = GetProperty[string](object, "Cap\x00tion")
	assert.False(t, ok)
	_, err = object.Property("Cap\x00tion")
	assert.Error(t, err)
}
