package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"llamaconv/api"
	"llamaconv/api/llamaconv/Conversion"
	"llamaconv/pkg/config"
	"llamaconv/pkg/conversion"
	"llamaconv/pkg/placeholder"
	"llamaconv/test"
)

const testExecutable = "/usr/local/bin/llamaconv"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

func newTestServer(t *testing.T, runner *test.FakeRunner) *Server {
	t.Helper()

	conf := config.DefaultConf()
	conf.Placeholder.Delay = 0
	conf.Conversion.InstallBackoff = config.Duration(time.Millisecond)

	s, err := NewServer(Options{Conf: conf, Executable: testExecutable, Runner: runner})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", gin.MIMEJSON)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func waitForState(t *testing.T, s *Server, id, state string) api.ConversionResponse {
	t.Helper()

	var last api.ConversionResponse
	require.Eventually(t, func() bool {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/conversions/"+id, nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusOK || json.Unmarshal(rec.Body.Bytes(), &last) != nil {
			return false
		}
		return last.State == state
	}, 5*time.Second, 10*time.Millisecond)
	return last
}

func TestValidateHandler(t *testing.T) {
	s := newTestServer(t, test.NewFakeRunner())
	dir := test.CreateModelDir(t, 2)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/validate", api.ValidateRequest{Directory: dir})
	require.Equal(t, http.StatusOK, rec.Code)

	response := decodeBody[api.ValidateResponse](t, rec)
	assert.True(t, response.Valid)
	assert.Equal(t, "13B", response.ModelType)
	assert.Len(t, response.Files, 4)
	assert.Empty(t, response.Missing)
}

func TestValidateHandlerMissingFiles(t *testing.T) {
	s := newTestServer(t, test.NewFakeRunner())
	dir := test.CreateModelDir(t, 1)
	require.NoError(t, os.Remove(filepath.Join(dir, conversion.TokenizerFileName)))

	rec := doJSON(t, s, http.MethodPost, "/api/v1/validate", api.ValidateRequest{Directory: dir, ModelType: "7B"})
	require.Equal(t, http.StatusOK, rec.Code)

	response := decodeBody[api.ValidateResponse](t, rec)
	assert.False(t, response.Valid)
	assert.Equal(t, []string{conversion.TokenizerFileName}, response.Missing)
}

func TestValidateHandlerBadRequests(t *testing.T) {
	s := newTestServer(t, test.NewFakeRunner())

	rec := doJSON(t, s, http.MethodPost, "/api/v1/validate", map[string]string{"model_type": "7B"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/v1/validate", api.ValidateRequest{Directory: t.TempDir(), ModelType: "3B"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unknown_model_type", decodeBody[api.Error](t, rec).Code)
}

func TestCreateConversion(t *testing.T) {
	s := newTestServer(t, test.NewFakeRunner())
	dir := test.CreateModelDir(t, 1)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/conversions", api.ConversionRequest{Directory: dir, ModelType: "7B"})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	created := decodeBody[api.ConversionResponse](t, rec)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, dir, created.Directory)

	finished := waitForState(t, s, created.ID, conversion.PipelineFinished.String())
	assert.Equal(t, filepath.Join(dir, conversion.QuantizedFileName), finished.OutputFile)
	assert.Empty(t, finished.Error)
	require.Len(t, finished.Steps, 5)
	for _, step := range finished.Steps {
		assert.Equal(t, conversion.StepFinished.String(), step.State, step.Step)
	}
	assert.FileExists(t, finished.OutputFile)

	// the unquantized model is removed once the conversion finishes
	assert.Eventually(t, func() bool {
		_, err := os.Stat(placeholder.Path(dir))
		return os.IsNotExist(err)
	}, 5*time.Second, 10*time.Millisecond)
}

func TestCreateConversionMissingFiles(t *testing.T) {
	s := newTestServer(t, test.NewFakeRunner())
	dir := test.CreateModelDir(t, 1)
	require.NoError(t, os.Remove(filepath.Join(dir, conversion.ParamsFileName)))

	rec := doJSON(t, s, http.MethodPost, "/api/v1/conversions", api.ConversionRequest{Directory: dir, ModelType: "7B"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	apiErr := decodeBody[api.Error](t, rec)
	assert.Equal(t, "missing_files", apiErr.Code)
	assert.Contains(t, apiErr.Error, conversion.ParamsFileName)
}

func TestConversionFailure(t *testing.T) {
	runner := test.NewFakeRunner()
	runner.WritePlaceholder = false
	s := newTestServer(t, runner)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/conversions", api.ConversionRequest{Directory: test.CreateModelDir(t, 1)})
	require.Equal(t, http.StatusAccepted, rec.Code)

	failed := waitForState(t, s, decodeBody[api.ConversionResponse](t, rec).ID, conversion.PipelineFailed.String())
	assert.Contains(t, failed.Error, string(conversion.StepConvertModel))
	assert.Empty(t, failed.OutputFile)
	assert.Equal(t, conversion.StepSkipped.String(), failed.Steps[4].State)
}

func TestCancelConversion(t *testing.T) {
	runner := test.NewFakeRunner()
	runner.Block = testExecutable + " dummy"
	s := newTestServer(t, runner)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/conversions", api.ConversionRequest{Directory: test.CreateModelDir(t, 1)})
	require.Equal(t, http.StatusAccepted, rec.Code)
	id := decodeBody[api.ConversionResponse](t, rec).ID

	require.Eventually(t, func() bool {
		lines := runner.CommandLines()
		return len(lines) > 0 && strings.HasPrefix(lines[len(lines)-1], runner.Block)
	}, 5*time.Second, 10*time.Millisecond)

	rec = doJSON(t, s, http.MethodDelete, "/api/v1/conversions/"+id, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	cancelled := waitForState(t, s, id, conversion.PipelineCancelled.String())
	assert.Equal(t, conversion.StepSkipped.String(), cancelled.Steps[4].State)
}

func TestConversionNotFound(t *testing.T) {
	s := newTestServer(t, test.NewFakeRunner())

	rec := doJSON(t, s, http.MethodGet, "/api/v1/conversions/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, "/api/v1/conversions/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeBody[api.Error](t, rec).Code)
}

func TestCreateConversionFlatbuffers(t *testing.T) {
	s := newTestServer(t, test.NewFakeRunner())
	dir := test.CreateModelDir(t, 4)

	builder := flatbuffers.NewBuilder(128)
	directory := builder.CreateString(dir)
	modelType := builder.CreateString("auto")
	Conversion.ConversionRequestStart(builder)
	Conversion.ConversionRequestAddDirectory(builder, directory)
	Conversion.ConversionRequestAddModelType(builder, modelType)
	Conversion.FinishConversionRequestBuffer(builder, Conversion.ConversionRequestEnd(builder))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversions", bytes.NewReader(builder.FinishedBytes()))
	req.Header.Set("Content-Type", mimeOctetStream)
	req.Header.Set("Accept", mimeOctetStream)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, mimeOctetStream, rec.Header().Get("Content-Type"))

	status := Conversion.GetRootAsConversionStatus(rec.Body.Bytes(), 0)
	id := string(status.Id())
	require.NotEmpty(t, id)

	finished := waitForState(t, s, id, conversion.PipelineFinished.String())
	assert.Equal(t, "30B", finished.ModelType)
}

func TestCreateConversionMalformedFlatbuffer(t *testing.T) {
	s := newTestServer(t, test.NewFakeRunner())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversions", bytes.NewReader([]byte{0xff, 0xff, 0xff, 0x7f, 0x01}))
	req.Header.Set("Content-Type", mimeOctetStream)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, test.NewFakeRunner())

	rec := doJSON(t, s, http.MethodPost, "/api/v1/conversions", api.ConversionRequest{Directory: test.CreateModelDir(t, 1)})
	require.Equal(t, http.StatusAccepted, rec.Code)
	waitForState(t, s, decodeBody[api.ConversionResponse](t, rec).ID, conversion.PipelineFinished.String())

	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		return rec.Code == http.StatusOK &&
			strings.Contains(rec.Body.String(), `llamaconv_conversions_total{state="finished"} 1`)
	}, 5*time.Second, 10*time.Millisecond)

	body := doJSON(t, s, http.MethodGet, "/metrics", nil).Body.String()
	assert.Contains(t, body, "llamaconv_conversions_running 0")
	assert.Contains(t, body, `llamaconv_step_duration_seconds_count{step="convertModel"} 1`)
}

func TestLogFormatterProducesJSON(t *testing.T) {
	line := logFormatter(gin.LogFormatterParams{
		TimeStamp:    time.Now(),
		StatusCode:   http.StatusAccepted,
		Latency:      2 * time.Minute,
		BodySize:     2048,
		ClientIP:     "127.0.0.1",
		Method:       http.MethodPost,
		Path:         "/api/v1/conversions",
		ErrorMessage: `bad "quote"`,
	})

	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(line), &decoded))
	assert.Equal(t, "2.0 kB", decoded["request_size"])
	assert.Equal(t, `bad "quote"`, decoded["error"])
	assert.Equal(t, "2m0s", decoded["latency"])
}
