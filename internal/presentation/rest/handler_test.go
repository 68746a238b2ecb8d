package rest_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/fraud-detection/internal/application/dto"
	"github.com/bibbank/fraud-detection/internal/infrastructure/csvtable"
	"github.com/bibbank/fraud-detection/internal/presentation/rest"
	"github.com/bibbank/fraud-detection/pkg/testutil"
)

func doJSON(t *testing.T, mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func upload(t *testing.T, mux http.Handler, path, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) rest.ErrorResponse {
	t.Helper()
	var resp rest.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

const fullTransaction = `{"amount": 120.5, "time": 3600, "v1": -1.2, "v2": 0.4, "v3": 2.1}`

func TestBanner(t *testing.T) {
	mux := newMux(providersWith(constant(0), constant(0)), rest.HandlerOptions{})

	rec := doJSON(t, mux, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp rest.BannerResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Fraud Detection API is running", resp.Message)

	rec = doJSON(t, mux, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPredict(t *testing.T) {
	t.Run("classifier flag", func(t *testing.T) {
		mux := newMux(providersWith(constant(0.8), constant(0.2)), rest.HandlerOptions{})

		rec := doJSON(t, mux, http.MethodPost, "/predict", fullTransaction)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp dto.VerdictResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.True(t, resp.IsFraud)
		assert.False(t, resp.RedFlag)
		assert.EqualValues(t, 80, resp.RiskScore)
		assert.EqualValues(t, 0.2, resp.AnomalyScore)
		assert.Equal(t, "Random Forest", resp.FlaggedBy)
		assert.Equal(t, "FRAUD", resp.Status)
		assert.Equal(t, "CRITICAL", resp.RiskLevel)
	})

	t.Run("anomaly only", func(t *testing.T) {
		mux := newMux(providersWith(constant(0.1), constant(-0.25)), rest.HandlerOptions{})

		rec := doJSON(t, mux, http.MethodPost, "/predict", fullTransaction)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp dto.VerdictResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.True(t, resp.IsFraud)
		assert.True(t, resp.RedFlag)
		assert.EqualValues(t, 75, resp.RiskScore)
		assert.Equal(t, "Isolation Forest", resp.FlaggedBy)
		assert.Equal(t, "ANOMALY", resp.Status)
		assert.Equal(t, "HIGH", resp.RiskLevel)
	})

	t.Run("safe", func(t *testing.T) {
		mux := newMux(providersWith(constant(0.12), constant(0.3)), rest.HandlerOptions{})

		rec := doJSON(t, mux, http.MethodPost, "/predict", fullTransaction)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp dto.VerdictResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.False(t, resp.IsFraud)
		assert.Equal(t, "None", resp.FlaggedBy)
		assert.Equal(t, "SAFE", resp.Status)
		assert.Equal(t, "LOW", resp.RiskLevel)
	})

	t.Run("missing fields", func(t *testing.T) {
		mux := newMux(providersWith(constant(0), constant(0)), rest.HandlerOptions{})

		rec := doJSON(t, mux, http.MethodPost, "/predict", `{"amount": 1, "time": 2, "v2": 3}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec).Error, "v1, v3")
	})

	t.Run("malformed body", func(t *testing.T) {
		mux := newMux(providersWith(constant(0), constant(0)), rest.HandlerOptions{})

		rec := doJSON(t, mux, http.MethodPost, "/predict", `{"amount":`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid JSON body", decodeError(t, rec).Error)
	})

	t.Run("providers unavailable is checked first", func(t *testing.T) {
		mux := newMux(&mockProviders{}, rest.HandlerOptions{})

		rec := doJSON(t, mux, http.MethodPost, "/predict", `{}`)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("provider failure", func(t *testing.T) {
		mux := newMux(providersWith(failing(errors.New("model crashed")), constant(0)), rest.HandlerOptions{})

		rec := doJSON(t, mux, http.MethodPost, "/predict", fullTransaction)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "internal error", decodeError(t, rec).Error)
	})

	t.Run("method not allowed", func(t *testing.T) {
		mux := newMux(providersWith(constant(0), constant(0)), rest.HandlerOptions{})

		rec := doJSON(t, mux, http.MethodGet, "/predict", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestUpload(t *testing.T) {
	bigIsFraud := byAmount(func(amount float64) float64 {
		if amount > 100 {
			return 0.9
		}
		return 0.1
	})

	t.Run("json report", func(t *testing.T) {
		mux := newMux(providersWith(bigIsFraud, constant(0.1)), rest.HandlerOptions{})

		rec := upload(t, mux, "/upload", "transactions.csv",
			testutil.TransactionsCSV("10,1,0,0,0", "500,2,0,0,0", "NA,3,0,,0"))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp dto.BatchReportResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "transactions.csv", resp.Filename)
		assert.Equal(t, 3, resp.TotalRows)
		assert.Equal(t, 1, resp.FraudDetected)
		assert.Equal(t, 2, resp.SafeDetected)
		assert.Equal(t, 2, resp.RepairedCells)
		require.Len(t, resp.Transactions, 3)

		for i, tx := range resp.Transactions {
			assert.Equal(t, i+1, tx.RowIndex)
		}
		assert.True(t, resp.Transactions[1].IsFraud)
		assert.Equal(t, "FRAUD", resp.Transactions[1].Status)
		assert.EqualValues(t, 0, resp.Transactions[2].Amount, "missing cells are repaired to zero")
	})

	t.Run("csv export", func(t *testing.T) {
		mux := newMux(providersWith(bigIsFraud, constant(-0.1)), rest.HandlerOptions{})

		rec := upload(t, mux, "/upload?format=csv", "march.CSV", testutil.TransactionsCSV("10,1,0,0,0", "500,2,0,0,0"))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "march_analysed.csv")

		lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, strings.Join(csvtable.ReportHeader, ","), lines[0])
		assert.True(t, strings.HasPrefix(lines[1], "1,10,1,"))
		assert.Contains(t, lines[2], `"Random Forest, Isolation Forest",ANOMALY`)
	})

	errorCases := []struct {
		name      string
		providers *mockProviders
		filename  string
		content   string
		code      int
		contains  string
	}{
		{
			name:      "not a csv file",
			providers: providersWith(constant(0), constant(0)),
			filename:  "report.xlsx",
			content:   "whatever",
			code:      http.StatusBadRequest,
			contains:  "only CSV files are supported",
		},
		{
			name:      "missing column",
			providers: providersWith(constant(0), constant(0)),
			filename:  "tx.csv",
			content:   testutil.CSV("amount,time,v1,v2", "1,2,3,4"),
			code:      http.StatusBadRequest,
			contains:  "v3",
		},
		{
			name:      "header only",
			providers: providersWith(constant(0), constant(0)),
			filename:  "tx.csv",
			content:   testutil.TransactionsCSV(),
			code:      http.StatusBadRequest,
			contains:  "no data rows",
		},
		{
			name:      "ragged row",
			providers: providersWith(constant(0), constant(0)),
			filename:  "tx.csv",
			content:   testutil.TransactionsCSV("1,2,3,4,5,6"),
			code:      http.StatusBadRequest,
			contains:  "line 2",
		},
		{
			name:      "providers unavailable",
			providers: &mockProviders{},
			filename:  "tx.csv",
			content:   testutil.TransactionsCSV("1,2,3,4,5"),
			code:      http.StatusServiceUnavailable,
		},
		{
			name:      "provider failure",
			providers: providersWith(constant(0), failing(errors.New("timeout talking to model"))),
			filename:  "tx.csv",
			content:   testutil.TransactionsCSV("1,2,3,4,5"),
			code:      http.StatusInternalServerError,
			contains:  "internal error",
		},
	}

	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := upload(t, newMux(tc.providers, rest.HandlerOptions{}), "/upload", tc.filename, tc.content)
			require.Equal(t, tc.code, rec.Code, rec.Body.String())
			assert.Contains(t, decodeError(t, rec).Error, tc.contains)
		})
	}

	t.Run("not multipart", func(t *testing.T) {
		mux := newMux(providersWith(constant(0), constant(0)), rest.HandlerOptions{})

		rec := doJSON(t, mux, http.MethodPost, "/upload", `{}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "multipart form expected", decodeError(t, rec).Error)
	})

	t.Run("missing file field", func(t *testing.T) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		require.NoError(t, mw.WriteField("comment", "no file here"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/upload", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		newMux(providersWith(constant(0), constant(0)), rest.HandlerOptions{}).ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec).Error, `"file"`)
	})

	t.Run("upload too large", func(t *testing.T) {
		mux := newMux(providersWith(constant(0), constant(0)), rest.HandlerOptions{MaxUploadBytes: 64})

		rec := upload(t, mux, "/upload", "tx.csv", testutil.TransactionsCSV("1,2,3,4,5", "6,7,8,9,10"))
		require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, "upload exceeds 64 bytes", decodeError(t, rec).Error)
	})
}

func TestHealth(t *testing.T) {
	t.Run("liveness", func(t *testing.T) {
		rec := doJSON(t, newMux(&mockProviders{}, rest.HandlerOptions{}), http.MethodGet, "/healthz", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp rest.HealthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "fraud-detection", resp.Service)
	})

	t.Run("not ready while providers load", func(t *testing.T) {
		rec := doJSON(t, newMux(&mockProviders{}, rest.HandlerOptions{}), http.MethodGet, "/readyz", "")
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var resp rest.ReadinessResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "not ready", resp.Status)
		assert.Equal(t, "loading", resp.Checks["providers"])
	})

	t.Run("ready", func(t *testing.T) {
		rec := doJSON(t, newMux(providersWith(constant(0), constant(0)), rest.HandlerOptions{}), http.MethodGet, "/readyz", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp rest.ReadinessResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "ready", resp.Status)
		assert.Equal(t, "ok", resp.Checks["providers"])
	})
}
