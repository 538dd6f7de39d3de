package registry_test

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billforge/core/registry"
)

type doc struct{ Name string }

func textRenderer(prefix string) registry.RendererFunc[doc] {
	return func(d doc) templ.Component {
		return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
			_, err := io.WriteString(w, prefix+":"+d.Name)
			return err
		})
	}
}

func render(t *testing.T, tpl registry.Template[doc], d doc) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, tpl.Render(d).Render(context.Background(), &buf))
	return buf.String()
}

func TestRegistry_Resolve(t *testing.T) {
	t.Parallel()

	reg := registry.New[doc]()
	reg.Register("fuel", "template1", textRenderer("f1"), registry.WithName("Standard Fuel Bill"))
	reg.Register("rent", "template1", textRenderer("r1"))

	tpl, err := reg.Resolve("fuel", "template1")
	require.NoError(t, err)
	assert.Equal(t, "Standard Fuel Bill", tpl.Name)
	assert.Equal(t, "fuel-template1", tpl.Key())
	assert.Equal(t, "f1:x", render(t, tpl, doc{Name: "x"}))

	tpl, err = reg.Resolve("rent", "template1")
	require.NoError(t, err)
	assert.Equal(t, "template1", tpl.Name)
	assert.Equal(t, "r1:y", render(t, tpl, doc{Name: "y"}))

	_, err = reg.Resolve("fuel", "template9")
	assert.ErrorIs(t, err, registry.ErrTemplateNotFound)

	_, err = reg.Resolve("water", "template1")
	assert.ErrorIs(t, err, registry.ErrTemplateNotFound)
}

func TestRegistry_LastRegistrationWins(t *testing.T) {
	t.Parallel()

	reg := registry.New[doc]()
	reg.Register("fuel", "template1", textRenderer("old"))
	reg.Register("fuel", "template1", textRenderer("new"))

	tpl, err := reg.Resolve("fuel", "template1")
	require.NoError(t, err)
	assert.Equal(t, "new:a", render(t, tpl, doc{Name: "a"}))
	assert.Len(t, reg.Templates("fuel"), 1)
}

func TestRegistry_ResolveOrDefault(t *testing.T) {
	t.Parallel()

	reg := registry.New[doc]()
	reg.Register("fuel", "template1", textRenderer("f1"), registry.AsDefault())
	reg.Register("fuel", "template2", textRenderer("f2"))

	t.Run("known template", func(t *testing.T) {
		t.Parallel()
		tpl, fellBack, err := reg.ResolveOrDefault("fuel", "template2")
		require.NoError(t, err)
		assert.False(t, fellBack)
		assert.Equal(t, "template2", tpl.ID)
	})

	t.Run("unknown template falls back", func(t *testing.T) {
		t.Parallel()
		tpl, fellBack, err := reg.ResolveOrDefault("fuel", "missing")
		require.NoError(t, err)
		assert.True(t, fellBack)
		assert.Equal(t, "template1", tpl.ID)
		assert.True(t, tpl.Default)
	})

	t.Run("empty id falls back", func(t *testing.T) {
		t.Parallel()
		tpl, fellBack, err := reg.ResolveOrDefault("fuel", "")
		require.NoError(t, err)
		assert.True(t, fellBack)
		assert.Equal(t, "template1", tpl.ID)
	})

	t.Run("no default", func(t *testing.T) {
		t.Parallel()
		_, _, err := reg.ResolveOrDefault("rent", "template1")
		assert.ErrorIs(t, err, registry.ErrNoDefault)
	})
}

func TestRegistry_SetDefault(t *testing.T) {
	t.Parallel()

	reg := registry.New[doc]()
	reg.Register("rent", "template1", textRenderer("r1"), registry.AsDefault())
	reg.Register("rent", "template2", textRenderer("r2"))

	require.NoError(t, reg.SetDefault("rent", "template2"))
	tpl, _, err := reg.ResolveOrDefault("rent", "")
	require.NoError(t, err)
	assert.Equal(t, "template2", tpl.ID)

	assert.ErrorIs(t, reg.SetDefault("rent", "nope"), registry.ErrTemplateNotFound)
}

func TestRegistry_Templates(t *testing.T) {
	t.Parallel()

	reg := registry.New[doc]()
	reg.Register("fuel", "template2", textRenderer("f2"), registry.WithDescription("detailed"))
	reg.Register("fuel", "template1", textRenderer("f1"), registry.AsDefault())
	reg.Register("rent", "template1", textRenderer("r1"))

	list := reg.Templates("fuel")
	require.Len(t, list, 2)
	assert.Equal(t, "template1", list[0].ID)
	assert.True(t, list[0].Default)
	assert.Equal(t, "template2", list[1].ID)
	assert.Equal(t, "detailed", list[1].Description)
	assert.False(t, list[1].Default)

	assert.Empty(t, reg.Templates("other"))
}

func TestRegistry_Concurrent(t *testing.T) {
	t.Parallel()

	reg := registry.New[doc]()
	reg.Register("fuel", "template1", textRenderer("f1"), registry.AsDefault())

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%4 == 0 {
				reg.Register("fuel", "template2", textRenderer("f2"))
				return
			}
			_, _, err := reg.ResolveOrDefault("fuel", "template2")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
