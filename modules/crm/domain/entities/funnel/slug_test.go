package funnel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlug(t *testing.T) {
	require.Equal(t, "vendas", Slug("Vendas"))
	require.Equal(t, "vendas_novas", Slug("Vendas Novas"))
	require.Equal(t, "vendas_novas", Slug("  Vendas   Novas  "))
	require.Equal(t, "", Slug("   "))
}

func TestNew_DerivesKey(t *testing.T) {
	f := New("Seguro Auto")
	require.Equal(t, "seguro_auto", f.Key)
	require.True(t, f.IsActive)
	require.NotEqual(t, f.ID.String(), "00000000-0000-0000-0000-000000000000")
}

func TestNewStage_DerivesKey(t *testing.T) {
	s := NewStage("vendas", "Proposta Enviada")
	require.Equal(t, "vendas", s.FunnelKey)
	require.Equal(t, "proposta_enviada", s.Key)
}
