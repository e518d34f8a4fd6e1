package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llnuddill/account-book/internal/auth"
	"github.com/llnuddill/account-book/internal/services"
	"github.com/llnuddill/account-book/internal/sheets/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.New()
	ledger := services.NewLedgerService(store, nil, nil)
	authSvc := auth.NewService(store)
	srv := NewServer(":0", ledger, authSvc, nil)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestCreateAndListTransactions(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/transactions", `{
		"date": "2025-03-10",
		"time": "12:30",
		"kind": "지출",
		"category": "식비",
		"description": "점심",
		"amount": 12000,
		"instrument": "신용카드"
	}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created transactionPayload
	decodeBody(t, resp, &created)
	assert.Equal(t, int64(-12000), created.Amount, "expense sign normalized")
	assert.Equal(t, "KRW", created.Currency)
	assert.Equal(t, "비고정지출", created.Subclass)

	resp, err := http.Get(ts.URL + "/api/transactions?year=2025&month=3")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list struct {
		Year         int                  `json:"year"`
		Month        int                  `json:"month"`
		Transactions []transactionPayload `json:"transactions"`
	}
	decodeBody(t, resp, &list)
	require.Len(t, list.Transactions, 1)
	assert.Equal(t, "점심", list.Transactions[0].Description)
	assert.Equal(t, 0, list.Transactions[0].Row)
}

func TestCreateTransactionRejectsBadInput(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/transactions", `{"date": "not-a-date", "kind": "지출", "category": "식비", "description": "x", "amount": 100}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/transactions", `{"date": "2025-03-10", "kind": "지출", "category": "", "description": "x", "amount": 100}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/transactions", `{not json`)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateAndDeleteTransaction(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/transactions", `{"date": "2025-03-10", "kind": "수입", "category": "월급", "description": "급여", "amount": 3000000}`)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/transactions/0",
		strings.NewReader(`{"date": "2025-03-11", "kind": "수입", "category": "월급", "description": "급여 정정", "amount": 3100000}`))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	var updated transactionPayload
	decodeBody(t, resp, &updated)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "2025-03-11", updated.Date)

	req, err = http.NewRequest(http.MethodDelete, ts.URL+"/api/transactions/0", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Row 0 is gone now.
	req, err = http.NewRequest(http.MethodDelete, ts.URL+"/api/transactions/0", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMonthReport(t *testing.T) {
	ts := newTestServer(t)

	for _, body := range []string{
		`{"date": "2025-03-01", "kind": "수입", "category": "월급", "description": "급여", "amount": 3000000}`,
		`{"date": "2025-03-05", "kind": "지출", "category": "식비", "description": "장보기", "amount": 80000}`,
		`{"date": "2025-03-20", "kind": "저축", "category": "적금", "description": "적금", "amount": 500000}`,
	} {
		resp := postJSON(t, ts.URL+"/api/transactions", body)
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, err := http.Get(ts.URL + "/api/reports/month?year=2025&month=3")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report monthReportPayload
	decodeBody(t, resp, &report)
	assert.Equal(t, int64(3000000), report.Income)
	assert.Equal(t, int64(-80000), report.Expense)
	assert.Equal(t, int64(500000), report.Saving)
	assert.Equal(t, int64(2420000), report.Net)
}

func TestCardReports(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/settings/cards", `{"name": "별카드", "tiers": [{"limit": 300000, "benefit": "통신비 할인"}]}`)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/transactions", `{"date": "2025-03-05", "kind": "지출", "category": "식비", "description": "외식", "amount": 350000, "instrument": "별카드"}`)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err := http.Get(ts.URL + "/api/reports/cards?year=2025&month=3")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Cards []struct {
			Card  string `json:"card"`
			Spend int64  `json:"spend"`
			Tiers []struct {
				Achieved bool `json:"achieved"`
			} `json:"tiers"`
		} `json:"cards"`
	}
	decodeBody(t, resp, &out)
	require.Len(t, out.Cards, 1)
	assert.Equal(t, "별카드", out.Cards[0].Card)
	assert.Equal(t, int64(350000), out.Cards[0].Spend)
	require.Len(t, out.Cards[0].Tiers, 1)
	assert.True(t, out.Cards[0].Tiers[0].Achieved)
}

func TestSettingsMutations(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/settings/categories", `{"kind": "지출", "name": "반려동물"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cfg settingsPayload
	decodeBody(t, resp, &cfg)
	assert.Contains(t, cfg.ExpenseCategories, "반려동물")

	// Duplicates conflict.
	resp = postJSON(t, ts.URL+"/api/settings/categories", `{"kind": "지출", "name": "반려동물"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/settings/categories?kind=지출&name=반려동물", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	decodeBody(t, resp, &cfg)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, cfg.ExpenseCategories, "반려동물")

	req, err = http.NewRequest(http.MethodDelete, ts.URL+"/api/settings/categories?kind=지출&name=없는항목", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAuthRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/auth/register", `{"username": "jiyoung", "password": "secret-pw"}`)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/auth/register", `{"username": "jiyoung", "password": "other"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/auth/login", `{"username": "jiyoung", "password": "secret-pw"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/auth/login", `{"username": "jiyoung", "password": "wrong"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestImportCSV(t *testing.T) {
	ts := newTestServer(t)

	csvBody := "\uFEFF날짜,시간,타입,대분류,소분류,내용,금액,화폐,결제수단,메모,세부구분\n" +
		"2025-03-02,09:00,지출,식비,카페,아메리카노,4500,KRW,체크카드,,비고정지출\n" +
		"2025-03-03,,수입,월급,,3월 급여,3000000,KRW,계좌이체,,-\n"

	resp, err := http.Post(ts.URL+"/api/import", "text/csv", bytes.NewReader([]byte(csvBody)))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Imported int              `json:"imported"`
		Replaced bool             `json:"replaced"`
		Skipped  []map[string]any `json:"skipped"`
	}
	decodeBody(t, resp, &out)
	assert.Equal(t, 2, out.Imported)
	assert.False(t, out.Replaced)
	assert.Empty(t, out.Skipped)

	resp, err = http.Get(ts.URL + "/api/export")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
}

func TestImportCSVRejectsLegacyHeader(t *testing.T) {
	ts := newTestServer(t)

	// Pre-rename exports use 구분 and lack 세부구분; those files go through
	// the migration pipeline, not the import endpoint.
	csvBody := "날짜,시간,구분,대분류,소분류,내용,금액,화폐,결제수단,메모\n" +
		"2025-03-02,09:00,지출,식비,카페,아메리카노,4500,KRW,체크카드,\n"

	resp, err := http.Post(ts.URL+"/api/import", "text/csv", strings.NewReader(csvBody))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestTemplatesRequireSQLite(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/templates")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}
