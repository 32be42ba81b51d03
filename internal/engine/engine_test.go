// SPDX-License-Identifier: Apache-2.0

package engine_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/notariaproj/notaria-mcp/internal/common"
	"github.com/notariaproj/notaria-mcp/internal/engine"
	"github.com/notariaproj/notaria-mcp/internal/extraction"
	"github.com/notariaproj/notaria-mcp/internal/mapping"
	"github.com/notariaproj/notaria-mcp/internal/metrics"
	"github.com/notariaproj/notaria-mcp/internal/schema"
	"github.com/notariaproj/notaria-mcp/internal/uif"
	"github.com/notariaproj/notaria-mcp/internal/validation"
)

type fixture struct {
	engine  *engine.Engine
	logs    *observer.ObservedLogs
	metrics *metrics.Metrics
}

func newFixture(t *testing.T, opts ...engine.Option) fixture {
	t.Helper()
	reg, err := schema.LoadDefault()
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	m := metrics.New(prometheus.NewRegistry())
	n := 0
	base := []engine.Option{
		engine.WithLogger(zap.New(core)),
		engine.WithMetrics(m),
		engine.WithRunIDs(func() string {
			n++
			return fmt.Sprintf("run-%d", n)
		}),
	}
	e, err := engine.New(reg, append(base, opts...)...)
	require.NoError(t, err)
	return fixture{engine: e, logs: logs, metrics: m}
}

func TestNew_RequiresRegistry(t *testing.T) {
	_, err := engine.New(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrConfiguration)
}

// ---------------------------------------------------------------------------
// ResolveTemplate
// ---------------------------------------------------------------------------

func TestResolveTemplate(t *testing.T) {
	f := newFixture(t)

	res, err := f.engine.ResolveTemplate(engine.TemplateRequest{
		Placeholders: []string{"Vendedor_Nombre", "Comprador_Nombre", "Precio_Venta", "Fech_Instrumnto", "Clausula_Penal"},
		TemplateName: "compraventa_casa.docx",
	})
	require.NoError(t, err)

	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, schema.Compraventa, res.DocumentType)
	require.NotNil(t, res.Classification)
	assert.GreaterOrEqual(t, res.Classification.Score, 6)

	assert.Equal(t, []string{"vendedor_nombre", "comprador_nombre", "precio_venta", "fecha_instrumento"}, res.CanonicalKeys)
	assert.Equal(t, 4, res.Quality.MappedCount)
	assert.Equal(t, []string{"Clausula_Penal"}, res.Quality.UnmappedList)
	assert.False(t, res.NeedsReview, "one unmapped placeholder in five is under the review ratio")

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Classifications.WithLabelValues("compraventa")))
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.Resolutions.WithLabelValues(string(mapping.ExactAlias))))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Resolutions.WithLabelValues(string(mapping.Fuzzy))))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Resolutions.WithLabelValues(string(mapping.Unmapped))))

	entries := f.logs.FilterMessage("engine.template.resolved").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "run-1", fields["run_id"])
	assert.Equal(t, "compraventa", fields["document_type"])
	assert.Equal(t, int64(4), fields["mapped"])
}

func TestClassify(t *testing.T) {
	f := newFixture(t)

	got := f.engine.Classify([]string{"Testador_Nombre", "Albacea"}, "")
	assert.Equal(t, schema.Testamento, got.Type)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Classifications.WithLabelValues("testamento")))
	assert.Equal(t, 1, f.logs.FilterMessage("engine.template.classified").Len())
}

func TestResolveTemplate_GivenType(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name     string
		docType  string
		wantType schema.DocumentType
	}{
		{name: "known type skips classification", docType: "poder", wantType: schema.Poder},
		{name: "unknown type falls back to default", docType: "arrendamiento", wantType: schema.Default},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.engine.ResolveTemplate(engine.TemplateRequest{
				Placeholders: []string{"Vendedor_Nombre", "Fecha_Escritura"},
				DocumentType: tt.docType,
			})
			require.NoError(t, err)
			assert.Nil(t, res.Classification)
			assert.Equal(t, tt.wantType, res.DocumentType)
			assert.Equal(t, []string{"fecha_instrumento"}, res.CanonicalKeys)
			assert.True(t, res.NeedsReview, "half the placeholders are unmapped")
		})
	}
}

func TestResolveTemplate_ReviewThreshold(t *testing.T) {
	f := newFixture(t, engine.WithReviewThresholds(0, engine.DefaultReviewConfidence))

	res, err := f.engine.ResolveTemplate(engine.TemplateRequest{
		Placeholders: []string{"Vendedor_Nombre", "Clausula_Penal"},
		DocumentType: "compraventa",
	})
	require.NoError(t, err)
	assert.True(t, res.NeedsReview)
}

// ---------------------------------------------------------------------------
// ValidateExtraction
// ---------------------------------------------------------------------------

const source = `Ante mí comparece JUAN PÉREZ LÓPEZ, quien vende el inmueble por la cantidad de
$1,500,000.00 (UN MILLÓN QUINIENTOS MIL PESOS 00/100 M.N.).`

func TestValidateExtraction(t *testing.T) {
	f := newFixture(t)

	out, err := f.engine.ValidateExtraction("compraventa", map[string]string{
		"vendedor_nombre":  "Juan Pérez López",
		"precio_venta":     "1500000",
		"comprador_nombre": "Ana Torres",
	}, source)
	require.NoError(t, err)

	assert.Equal(t, "run-1", out.Report.RunID)
	assert.Equal(t, schema.Compraventa, out.Report.DocumentType)
	assert.Equal(t, validation.StatusCounts{Valid: 2, Suspicious: 1}, out.Report.Counts)
	assert.True(t, out.NeedsReview)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.FieldStatus.WithLabelValues("suspicious", "person-name")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.FieldStatus.WithLabelValues("valid", "currency")))
	assert.Equal(t, 1, testutil.CollectAndCount(f.metrics.ValidateLatency))

	entries := f.logs.FilterMessage("engine.extraction.validated").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ContextMap()["suspicious"])
}

func TestValidateExtractionJSON(t *testing.T) {
	f := newFixture(t)
	keys := []string{"vendedor_nombre", "precio_venta"}

	t.Run("valid reply", func(t *testing.T) {
		out, err := f.engine.ValidateExtractionJSON("compraventa", keys,
			[]byte(`{"vendedor_nombre": "Juan Pérez López", "precio_venta": 1500000.00, "extra": "x"}`), source)
		require.NoError(t, err)
		assert.Equal(t, []string{"extra"}, out.Dropped)
		assert.Equal(t, []string{"precio_venta"}, out.Coerced)
		assert.Equal(t, 2, out.Report.Counts.Valid)
		assert.False(t, out.NeedsReview)
	})

	t.Run("malformed reply", func(t *testing.T) {
		_, err := f.engine.ValidateExtractionJSON("compraventa", keys, []byte(`no es json`), source)
		require.Error(t, err)
		assert.ErrorIs(t, err, extraction.ErrInvalidPayload)
		assert.Equal(t, 1, f.logs.FilterMessage("engine.extraction.rejected").Len())
	})
}

func TestExtractionSchema(t *testing.T) {
	f := newFixture(t)

	got, err := f.engine.ExtractionSchema("donacion", []string{"donante_nombre"})
	require.NoError(t, err)
	props := got["properties"].(map[string]any)
	assert.Len(t, props, 1)
	assert.Contains(t, props, "donante_nombre")
}

// ---------------------------------------------------------------------------
// Concurrency
// ---------------------------------------------------------------------------

func TestEngine_ConcurrentCallsMatchSerial(t *testing.T) {
	reg, err := schema.LoadDefault()
	require.NoError(t, err)
	core, _ := observer.New(zapcore.InfoLevel)
	e, err := engine.New(reg,
		engine.WithLogger(zap.New(core)),
		engine.WithMetrics(metrics.New(prometheus.NewRegistry())),
	)
	require.NoError(t, err)

	req := engine.TemplateRequest{
		Placeholders: []string{"Vendedor_Nombre", "Comprador_Nombre", "Precio_Venta", "Fech_Instrumnto", "Clausula_Penal"},
		TemplateName: "compraventa_casa.docx",
	}
	values := map[string]string{
		"vendedor_nombre":  "Juan Pérez López",
		"precio_venta":     "$1,5OO,000.00",
		"comprador_nombre": "Ana Torres",
		"comprador_rfc":    "",
	}

	// Run ids are unique per call; everything else must not depend on
	// interleaving.
	resolve := func() (engine.TemplateResolution, error) {
		res, err := e.ResolveTemplate(req)
		res.RunID = ""
		return res, err
	}
	validate := func() (engine.ExtractionValidation, error) {
		out, err := e.ValidateExtraction("compraventa", values, source)
		out.Report.RunID = ""
		return out, err
	}

	wantRes, err := resolve()
	require.NoError(t, err)
	wantVal, err := validate()
	require.NoError(t, err)

	const workers = 16
	var (
		wg      sync.WaitGroup
		gotRes  [workers]engine.TemplateResolution
		gotVal  [workers]engine.ExtractionValidation
		errs    [workers]error
		valErrs [workers]error
	)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			gotRes[i], errs[i] = resolve()
			gotVal[i], valErrs[i] = validate()
		}()
	}
	wg.Wait()

	for i := range workers {
		require.NoError(t, errs[i])
		require.NoError(t, valErrs[i])
		assert.Equal(t, wantRes, gotRes[i], "worker %d", i)
		assert.Equal(t, wantVal, gotVal[i], "worker %d", i)
	}
}

// ---------------------------------------------------------------------------
// EvaluateOperation
// ---------------------------------------------------------------------------

func TestEvaluateOperationText(t *testing.T) {
	f := newFixture(t)

	ev, err := f.engine.EvaluateOperationText("compraventa", "$682,399.60 M.N.")
	require.NoError(t, err)
	assert.Equal(t, uif.Medio, ev.RiskLevel)
	assert.True(t, ev.Vulnerable)
	assert.True(t, ev.NoticeRequired)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RiskTiers.WithLabelValues("medio")))

	_, err = f.engine.EvaluateOperationText("compraventa", "seiscientos mil")
	require.Error(t, err)
}
