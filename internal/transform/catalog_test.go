package transform

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Register("echo", ImplementationOf[echoAction]()))
	require.NoError(t, c.Register("config", ImplementationOf[configAction]()))

	assert.Error(t, c.Register("", ImplementationOf[echoAction]()))
	assert.Error(t, c.Register("unset", Implementation{}))
	err := c.Register("echo", ImplementationOf[writerAction]())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already bound to xform/internal/transform.echoAction")

	impl, err := c.Lookup("echo")
	require.NoError(t, err)
	assert.Equal(t, "echoAction", impl.DisplayName())

	_, err = c.Lookup("nope")
	assert.True(t, errors.Is(err, ErrUnknownImplementation))

	assert.Equal(t, []string{"config", "echo"}, c.Aliases())
}

func TestCatalog_ConcurrentAccess(t *testing.T) {
	c := NewCatalog()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = c.Register(string(rune('a'+i)), ImplementationOf[echoAction]())
		}(i)
		go func() {
			defer wg.Done()
			_ = c.Aliases()
			_, _ = c.Lookup("a")
		}()
	}
	wg.Wait()
	assert.Len(t, c.Aliases(), 8)
}
