package fiscal

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestDesglosar(t *testing.T) {
	cases := []struct {
		name     string
		precio   string
		tasa     string
		base     string
		impuesto string
	}{
		{"igv 18 exacto", "118.00", "18", "100", "18.00"},
		{"igv 18 chico", "23.60", "18", "20", "3.60"},
		{"igv 18 con residuo", "10.00", "18", "8.4746", "1.53"},
		{"tasa cero", "50.00", "0", "50", "0.00"},
		{"tasa 10", "11.00", "10", "10", "1.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Desglosar(dec(tc.precio), dec(tc.tasa))
			assert.True(t, d.Base.Equal(dec(tc.base)), "base: got %s want %s", d.Base, tc.base)
			assert.True(t, d.Impuesto.Equal(dec(tc.impuesto)), "impuesto: got %s want %s", d.Impuesto, tc.impuesto)
			assert.True(t, d.Total.Equal(dec(tc.precio).Round(2)), "total: got %s", d.Total)
		})
	}
}

// The decomposed base must reconstruct the gross within one cent:
// base × (1 + tasa/100) ≈ total.
func TestDesglosarRoundTrip(t *testing.T) {
	tasa := dec("18")
	factor := decimal.NewFromInt(1).Add(tasa.Div(decimal.NewFromInt(100)))
	centavo := dec("0.01")

	for cents := int64(1); cents < 5000; cents += 37 {
		precio := decimal.New(cents, -2)
		d := Desglosar(precio, tasa)
		rederived := d.Base.Mul(factor)
		diff := rederived.Sub(precio).Abs()
		require.True(t, diff.LessThanOrEqual(centavo),
			"precio %s: base %s re-derives %s (diff %s)", precio, d.Base, rederived, diff)
	}
}

func TestAgregar(t *testing.T) {
	tasa := dec("18")
	lineas := []LineaDesglose{
		{Desglose: Desglosar(dec("23.60"), tasa), Cantidad: 50},
		{Desglose: Desglosar(dec("2.36"), tasa), Cantidad: 100},
		{Desglose: Desglosar(dec("35.40"), tasa), Cantidad: 10},
	}
	tot := Agregar(lineas)
	assert.True(t, tot.SubtotalBase.Equal(dec("1500.00")), "subtotal: %s", tot.SubtotalBase)
	assert.True(t, tot.Impuesto.Equal(dec("270.00")), "impuesto: %s", tot.Impuesto)
	assert.True(t, tot.Total.Equal(dec("1770.00")), "total: %s", tot.Total)
}

// Total must always equal SubtotalBase + Impuesto exactly, even when the
// per-line rounding does not line up on its own.
func TestAgregarSinDeriva(t *testing.T) {
	tasa := dec("18")
	precios := []string{"0.10", "1.99", "3.33", "7.77", "10.01", "99.99", "123.45"}

	var lineas []LineaDesglose
	for i, p := range precios {
		lineas = append(lineas, LineaDesglose{Desglose: Desglosar(dec(p), tasa), Cantidad: int64(i%7 + 1)})
	}
	// Bulk line whose residue dwarfs the small ones.
	lineas = append(lineas, LineaDesglose{Desglose: Desglosar(dec("10.00"), tasa), Cantidad: 250})
	tot := Agregar(lineas)
	require.True(t, tot.Total.Equal(tot.SubtotalBase.Add(tot.Impuesto)),
		"total %s != base %s + impuesto %s", tot.Total, tot.SubtotalBase, tot.Impuesto)
}

// A single line with a large cantidad accumulates per-unit rounding residue
// far beyond what a per-line allowance would cover; the reconciliation must
// still absorb it.
func TestAgregarCantidadGrande(t *testing.T) {
	lineas := []LineaDesglose{
		{Desglose: Desglosar(dec("10.00"), dec("18")), Cantidad: 100},
	}
	tot := Agregar(lineas)
	assert.True(t, tot.SubtotalBase.Equal(dec("847.46")), "subtotal: %s", tot.SubtotalBase)
	assert.True(t, tot.Impuesto.Equal(dec("152.54")), "impuesto: %s", tot.Impuesto)
	assert.True(t, tot.Total.Equal(dec("1000.00")), "total: %s", tot.Total)
	require.True(t, tot.Total.Equal(tot.SubtotalBase.Add(tot.Impuesto)),
		"total %s != base %s + impuesto %s", tot.Total, tot.SubtotalBase, tot.Impuesto)
}

func TestAgregarTasaCero(t *testing.T) {
	lineas := []LineaDesglose{
		{Desglose: Desglosar(dec("15.00"), decimal.Zero), Cantidad: 3},
	}
	tot := Agregar(lineas)
	assert.True(t, tot.SubtotalBase.Equal(dec("45.00")))
	assert.True(t, tot.Impuesto.IsZero())
	assert.True(t, tot.Total.Equal(dec("45.00")))
}
