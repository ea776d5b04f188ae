package server

import (
	"bytes"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/rayen-mansouri/packet-analyzer/pkg/packet"
	"github.com/rayen-mansouri/packet-analyzer/reporting"
	"github.com/rayen-mansouri/packet-analyzer/resources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func portScanBody(t *testing.T) []byte {
	var records []packet.Record
	for i := 0; i < 20; i++ {
		records = append(records, packet.Record{
			Timestamp: float64(i) * 0.25, SrcIP: "10.0.0.5", DstIP: "10.0.0.9",
			SrcPort: 40000, DstPort: 1000 + i, Protocol: packet.TCP, Flags: packet.SYN, Length: 60,
		})
	}
	// one record the aggregator has to skip
	records = append(records, packet.Record{Timestamp: 6, DstIP: "10.0.0.9", Protocol: packet.UDP})

	body, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(records)
	require.Nil(t, err)
	return body
}

func do(t *testing.T, s *Server, method, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := New(resources.InitTestResources(t), nil)

	rec := do(t, s, "GET", "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	assert.Contains(t, rec.Body.String(), `"version":"v0.0.0+testing"`)
}

func TestAnalyze(t *testing.T) {
	s := New(resources.InitTestResources(t), nil)

	rec := do(t, s, "POST", "/api/analyze", portScanBody(t))
	require.Equal(t, http.StatusOK, rec.Code)

	env, err := reporting.ReadEnvelope(rec.Body)
	require.Nil(t, err)
	assert.Equal(t, "api", env.Source)
	assert.NotEmpty(t, env.ID)
	require.Len(t, env.Result.Threats, 1)
	assert.Equal(t, 8, env.Result.RiskScore)
	assert.EqualValues(t, 20, env.Result.Statistics.TotalPackets)
	assert.EqualValues(t, 1, env.Result.Statistics.SkippedPackets)
}

func TestAnalyzeIsStable(t *testing.T) {
	s := New(resources.InitTestResources(t), nil)

	first := do(t, s, "POST", "/api/analyze", portScanBody(t))
	second := do(t, s, "POST", "/api/analyze", portScanBody(t))
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestAnalyzeEmpty(t *testing.T) {
	s := New(resources.InitTestResources(t), nil)

	rec := do(t, s, "POST", "/api/analyze", []byte(`[]`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"threats":[]`)
	assert.Contains(t, rec.Body.String(), `"risk_score":0`)
}

func TestAnalyzeErrors(t *testing.T) {
	res := resources.InitTestResources(t)
	s := New(res, nil)

	rec := do(t, s, "POST", "/api/analyze", []byte(`{"not": "a list"`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, "GET", "/api/analyze", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	res.Config.S.Server.MaxBodyBytes = 16
	rec = do(t, s, "POST", "/api/analyze", portScanBody(t))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	res.Config.S.Server.MaxBodyBytes = 1 << 20
	res.Config.S.PortScan.Threshold = 0
	rec = do(t, s, "POST", "/api/analyze", []byte(`[]`))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "PortScan.Threshold")
}

func TestAnalyzeAppliesInputFilter(t *testing.T) {
	res := resources.InitTestResources(t)
	res.Config.S.Input.NeverInclude = []string{"10.0.0.9"}
	conf, err := res.Config.Prepare()
	require.Nil(t, err)
	res.Config = conf
	s := New(res, nil)

	rec := do(t, s, "POST", "/api/analyze", portScanBody(t))
	require.Equal(t, http.StatusOK, rec.Code)

	env, err := reporting.ReadEnvelope(rec.Body)
	require.Nil(t, err)
	assert.Len(t, env.Result.Threats, 0)
	assert.EqualValues(t, 0, env.Result.Statistics.InputPackets)
}

func TestMetrics(t *testing.T) {
	s := New(resources.InitTestResources(t), nil)
	require.Equal(t, http.StatusOK, do(t, s, "POST", "/api/analyze", portScanBody(t)).Code)

	rec := do(t, s, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := ioutil.ReadAll(rec.Body)
	require.Nil(t, err)

	for _, line := range []string{
		`packet_analyzer_analyses_total 1`,
		`packet_analyzer_findings_total{severity="medium",type="port_scan"} 1`,
		`packet_analyzer_packets_total{status="valid"} 20`,
		`packet_analyzer_packets_total{status="skipped"} 1`,
		`packet_analyzer_analysis_duration_seconds_count 1`,
	} {
		assert.True(t, strings.Contains(string(body), line), line)
	}
}
