package fiscal

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTasaEfectiva(t *testing.T) {
	estandar := ConfigEmpresa{TasaIGV: dec("18")}
	exonerada := ConfigEmpresa{TasaIGV: dec("18"), ExoneradaRegion: true}

	cases := []struct {
		name       string
		cfg        ConfigEmpresa
		afectacion AfectacionIGV
		want       string
	}{
		{"gravado con tasa estandar", estandar, AfectacionGravado, "18"},
		{"exonerado anula la tasa", estandar, AfectacionExonerado, "0"},
		{"inafecto anula la tasa", estandar, AfectacionInafecto, "0"},
		{"region exonerada anula todo", exonerada, AfectacionGravado, "0"},
		{"region exonerada e item exonerado", exonerada, AfectacionExonerado, "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := TasaEfectiva(tc.cfg, tc.afectacion)
			assert.True(t, got.Equal(dec(tc.want)), "got %s want %s", got, tc.want)
		})
	}
}

// Changing the tenant configuration after a desglose was computed must not
// alter the already-computed snapshot: the snapshot is a value, not a view.
func TestDesgloseEsInmutable(t *testing.T) {
	cfg := ConfigEmpresa{TasaIGV: dec("18")}
	d := Desglosar(dec("118.00"), TasaEfectiva(cfg, AfectacionGravado))

	cfg.TasaIGV = decimal.NewFromInt(21)

	assert.True(t, d.Base.Equal(dec("100")))
	assert.True(t, d.Impuesto.Equal(dec("18.00")))
}

func TestResolverTipoComprobante(t *testing.T) {
	conRUC := &DatosCliente{RUC: "20123456789"}
	conDNILargo := &DatosCliente{NumeroDocumento: "20987654321"}
	conDNI := &DatosCliente{NumeroDocumento: "45678912"}

	cases := []struct {
		name     string
		override TipoComprobante
		cliente  *DatosCliente
		want     TipoComprobante
	}{
		{"override explicito gana", ComprobanteBoleta, conRUC, ComprobanteBoleta},
		{"cliente con RUC", "", conRUC, ComprobanteFactura},
		{"documento de 11 digitos cuenta como RUC", "", conDNILargo, ComprobanteFactura},
		{"cliente con DNI", "", conDNI, ComprobanteBoleta},
		{"venta anonima", "", nil, ComprobanteBoleta},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolverTipoComprobante(tc.override, tc.cliente))
		})
	}
}

func TestRUCEfectivo(t *testing.T) {
	assert.Equal(t, "20123456789", (&DatosCliente{RUC: "20123456789"}).RUCEfectivo())
	assert.Equal(t, "20987654321", (&DatosCliente{NumeroDocumento: "20987654321"}).RUCEfectivo())
	assert.Equal(t, "", (&DatosCliente{NumeroDocumento: "45678912"}).RUCEfectivo())
	var anon *DatosCliente
	assert.Equal(t, "", anon.RUCEfectivo())
	assert.False(t, anon.TieneRUC())
}
