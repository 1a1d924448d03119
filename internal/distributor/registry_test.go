package distributor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crawling_observer/internal/domain"
)

func noop(tag string) Handler {
	return HandlerFunc(tag, func(context.Context, string, []domain.Row) error { return nil })
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry(noop(domain.TagNews), noop(domain.TagMacro))

	h, err := r.Lookup(domain.TagMacro)
	require.NoError(t, err)
	assert.Equal(t, domain.TagMacro, h.Tag())

	_, err = r.Lookup("crypto")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Contains(t, err.Error(), `"crypto"`)
}

func TestRegistry_Tags(t *testing.T) {
	r := NewRegistry(noop(domain.TagStock), noop(domain.TagCashFlow), noop(domain.TagMacro))

	assert.Equal(t, []string{"cash_flow", "macro", "stock"}, r.Tags())
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	assert.Panics(t, func() {
		NewRegistry(noop(domain.TagNews), noop(domain.TagNews))
	})
	assert.Panics(t, func() {
		NewRegistry(noop(""))
	})
}
