package attribute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOf_SortedAndImmutable(t *testing.T) {
	m := map[string]string{"usage": "runtime", "artifactType": "jar"}
	s := Of(m)
	m["usage"] = "changed"

	assert.Equal(t, "{artifactType=jar, usage=runtime}", s.String())
	v, ok := s.Get("usage")
	require.True(t, ok)
	assert.Equal(t, "runtime", v)

	_, ok = s.Get("missing")
	assert.False(t, ok)

	attrs := s.Attributes()
	attrs[0].Value = "mutated"
	v, _ = s.Get("artifactType")
	assert.Equal(t, "jar", v)
}

func TestParse(t *testing.T) {
	s, err := Parse(" artifactType = jar , minified=true")
	require.NoError(t, err)
	assert.True(t, s.Equal(Of(map[string]string{"artifactType": "jar", "minified": "true"})))

	empty, err := Parse("")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())

	_, err = Parse("novalue")
	assert.Error(t, err)
	_, err = Parse("=x")
	assert.Error(t, err)
	_, err = Parse("a=1,a=2")
	assert.Error(t, err)
}

func TestEqual(t *testing.T) {
	a := Of(map[string]string{"k": "v"})
	assert.True(t, a.Equal(Of(map[string]string{"k": "v"})))
	assert.False(t, a.Equal(Of(map[string]string{"k": "w"})))
	assert.False(t, a.Equal(Empty))
	assert.True(t, Empty.Equal(Of(nil)))
	assert.Equal(t, map[string]string{"k": "v"}, a.Map())
}
