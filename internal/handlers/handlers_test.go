package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/foxxcyber/pex/internal/inventory"
	"github.com/foxxcyber/pex/internal/models"
	"github.com/foxxcyber/pex/internal/services"
)

type memoryKV struct {
	data map[string][]byte
}

func (m *memoryKV) Get(_ context.Context, key string) ([]byte, error) {
	return m.data[key], nil
}

func (m *memoryKV) Set(_ context.Context, key string, value []byte) error {
	m.data[key] = value
	return nil
}

var testNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Meta    *Meta           `json:"meta"`
}

func newTestApp(t *testing.T, advisor *services.AdvisorService) (*fiber.App, *inventory.Store) {
	t.Helper()
	store := inventory.NewStore(&memoryKV{data: map[string][]byte{}},
		inventory.WithClock(func() time.Time { return testNow }))

	h := New(store, advisor, nil, zerolog.Nop())

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	h.RegisterRoutes(app)
	return app, store
}

func seed(t *testing.T, store *inventory.Store) map[string]models.Product {
	t.Helper()
	out := map[string]models.Product{}
	for name, offset := range map[string]int{"A": 10, "B": -5, "C": 40} {
		n := name
		date := testNow.AddDate(0, 0, offset).Format("2006-01-02")
		p, err := store.Add(context.Background(), models.ProductDraft{Name: &n, ExpiryDate: &date})
		if err != nil {
			t.Fatal(err)
		}
		out[name] = p
	}
	return out
}

func do(t *testing.T, app *fiber.App, method, target string, body io.Reader, contentType string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	defer resp.Body.Close()

	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
	}
	return resp.StatusCode, env
}

func decodeProducts(t *testing.T, raw json.RawMessage) []models.Product {
	t.Helper()
	var products []models.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		t.Fatal(err)
	}
	return products
}

func TestListProductsOrderAndMeta(t *testing.T) {
	app, store := newTestApp(t, nil)
	seed(t, store)

	status, env := do(t, app, http.MethodGet, "/api/products", nil, "")
	if status != http.StatusOK || !env.Success {
		t.Fatalf("status = %d, env = %+v", status, env)
	}
	products := decodeProducts(t, env.Data)
	if len(products) != 3 || products[0].Name != "B" || products[1].Name != "A" || products[2].Name != "C" {
		t.Errorf("order = %+v", products)
	}
	if env.Meta == nil || env.Meta.Total != 3 || env.Meta.Filtered != 3 || env.Meta.ActiveFilters != 0 {
		t.Errorf("meta = %+v", env.Meta)
	}
}

func TestListProductsFilters(t *testing.T) {
	app, store := newTestApp(t, nil)
	seed(t, store)

	_, env := do(t, app, http.MethodGet, "/api/products?status=CRITICAL", nil, "")
	products := decodeProducts(t, env.Data)
	if len(products) != 1 || products[0].Name != "A" {
		t.Errorf("critical = %+v", products)
	}
	if env.Meta.Total != 3 || env.Meta.Filtered != 1 || env.Meta.ActiveFilters != 1 {
		t.Errorf("meta = %+v", env.Meta)
	}

	status, _ := do(t, app, http.MethodGet, "/api/products?status=ROTTEN", nil, "")
	if status != http.StatusBadRequest {
		t.Errorf("unknown status = %d", status)
	}

	status, _ = do(t, app, http.MethodGet, "/api/products?start_date=17-10-2026", nil, "")
	if status != http.StatusBadRequest {
		t.Errorf("bad date = %d", status)
	}
}

func TestStats(t *testing.T) {
	app, store := newTestApp(t, nil)
	seed(t, store)

	_, env := do(t, app, http.MethodGet, "/api/products/stats", nil, "")
	var stats models.InventoryStats
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		t.Fatal(err)
	}
	if stats != (models.InventoryStats{Total: 3, Expired: 1, Critical: 1, Safe: 1}) {
		t.Errorf("stats = %+v", stats)
	}
}

func TestCreateProduct(t *testing.T) {
	app, _ := newTestApp(t, nil)

	body := `{"barcode":"789","name":"Dipirona","quantity":4,"expiryDate":"2026-10-27"}`
	status, env := do(t, app, http.MethodPost, "/api/products", strings.NewReader(body), fiber.MIMEApplicationJSON)
	if status != http.StatusCreated {
		t.Fatalf("status = %d, err = %s", status, env.Error)
	}
	var p models.Product
	if err := json.Unmarshal(env.Data, &p); err != nil {
		t.Fatal(err)
	}
	if p.ID == "" || p.DaysToExpiry != 10 || p.Status != models.StatusCritical {
		t.Errorf("product = %+v", p)
	}

	status, env = do(t, app, http.MethodPost, "/api/products", strings.NewReader(`{"name":"","expiryDate":"2026-10-27"}`), fiber.MIMEApplicationJSON)
	if status != http.StatusBadRequest || env.Success {
		t.Errorf("empty name: status = %d", status)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	app, store := newTestApp(t, nil)
	a := seed(t, store)["A"]

	status, env := do(t, app, http.MethodPut, "/api/products/"+a.ID, strings.NewReader(`{"expiryDate":"2026-12-31"}`), fiber.MIMEApplicationJSON)
	if status != http.StatusOK {
		t.Fatalf("update status = %d (%s)", status, env.Error)
	}
	var p models.Product
	_ = json.Unmarshal(env.Data, &p)
	if p.Status != models.StatusSafe || p.Name != "A" {
		t.Errorf("updated = %+v", p)
	}

	status, _ = do(t, app, http.MethodPut, "/api/products/nope", strings.NewReader(`{"name":"x"}`), fiber.MIMEApplicationJSON)
	if status != http.StatusNotFound {
		t.Errorf("update missing = %d", status)
	}

	status, env = do(t, app, http.MethodDelete, "/api/products/"+a.ID, nil, "")
	if status != http.StatusOK || !strings.Contains(string(env.Data), `"removed":true`) {
		t.Errorf("delete = %d %s", status, env.Data)
	}
	status, env = do(t, app, http.MethodDelete, "/api/products/"+a.ID, nil, "")
	if status != http.StatusOK || !strings.Contains(string(env.Data), `"removed":false`) {
		t.Errorf("second delete = %d %s", status, env.Data)
	}
}

func TestSellProduct(t *testing.T) {
	app, store := newTestApp(t, nil)
	b := seed(t, store)["B"]

	status, env := do(t, app, http.MethodPost, "/api/products/"+b.ID+"/sell", nil, "")
	if status != http.StatusOK || !strings.Contains(string(env.Data), `"sold":true`) {
		t.Errorf("sell = %d %s", status, env.Data)
	}
	if store.Len() != 2 {
		t.Errorf("Len = %d", store.Len())
	}
	status, env = do(t, app, http.MethodPost, "/api/products/"+b.ID+"/sell", nil, "")
	if status != http.StatusOK || !strings.Contains(string(env.Data), `"sold":false`) {
		t.Errorf("sell again = %d %s", status, env.Data)
	}
}

func TestDeleteFiltered(t *testing.T) {
	app, store := newTestApp(t, nil)
	seed(t, store)

	status, _ := do(t, app, http.MethodDelete, "/api/products", nil, "")
	if status != http.StatusBadRequest {
		t.Errorf("unfiltered delete = %d", status)
	}

	status, env := do(t, app, http.MethodDelete, "/api/products?status=EXPIRED", nil, "")
	if status != http.StatusOK || !strings.Contains(string(env.Data), `"removed":1`) {
		t.Errorf("delete expired = %d %s", status, env.Data)
	}
	if store.Len() != 2 {
		t.Errorf("Len = %d", store.Len())
	}

	_, env = do(t, app, http.MethodDelete, "/api/products?all=true", nil, "")
	if !strings.Contains(string(env.Data), `"removed":2`) || store.Len() != 0 {
		t.Errorf("delete all = %s", env.Data)
	}
}

func TestAdviceFallbackWithoutKey(t *testing.T) {
	advisor := services.NewAdvisorService("", "m", "", time.Second, nil, zerolog.Nop())
	app, store := newTestApp(t, advisor)
	b := seed(t, store)["B"]

	status, env := do(t, app, http.MethodGet, "/api/products/"+b.ID+"/advice", nil, "")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	var out struct {
		Advice string        `json:"advice"`
		Status models.Status `json:"status"`
	}
	_ = json.Unmarshal(env.Data, &out)
	if out.Advice != services.FallbackAdvice || out.Status != models.StatusExpired {
		t.Errorf("advice = %+v", out)
	}

	status, _ = do(t, app, http.MethodGet, "/api/products/missing/advice", nil, "")
	if status != http.StatusNotFound {
		t.Errorf("missing = %d", status)
	}
}

func TestExports(t *testing.T) {
	app, store := newTestApp(t, nil)
	seed(t, store)

	tests := []struct {
		path, contentType, prefix string
	}{
		{"/api/reports/pdf", mimePDF, "%PDF-"},
		{"/api/reports/xlsx", mimeXLSX, "PK"},
		{"/api/reports/csv?status=EXPIRED", mimeCSV, "codigo,"},
	}
	for _, tt := range tests {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil), -1)
		if err != nil {
			t.Fatal(err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s status = %d", tt.path, resp.StatusCode)
		}
		if resp.Header.Get("Content-Type") != tt.contentType {
			t.Errorf("%s content type = %q", tt.path, resp.Header.Get("Content-Type"))
		}
		if !strings.Contains(resp.Header.Get("Content-Disposition"), "pex-relatorio-2026-10-17.") {
			t.Errorf("%s disposition = %q", tt.path, resp.Header.Get("Content-Disposition"))
		}
		if !bytes.HasPrefix(body, []byte(tt.prefix)) {
			t.Errorf("%s body starts with %q", tt.path, body[:min(len(body), 10)])
		}
	}
}

func TestArchiveWithoutStorage(t *testing.T) {
	app, _ := newTestApp(t, nil)
	status, _ := do(t, app, http.MethodPost, "/api/reports/pdf/archive", nil, "")
	if status != http.StatusServiceUnavailable {
		t.Errorf("status = %d", status)
	}
}

func TestImportCSVUpload(t *testing.T) {
	app, store := newTestApp(t, nil)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, _ := w.CreateFormFile("file", "estoque.csv")
	io.WriteString(part, "codigo,produto,quantidade,validade\n1,Soro,2,20/10/2026\n2,,1,2026-10-20\n")
	w.Close()

	status, env := do(t, app, http.MethodPost, "/api/import/csv", &body, w.FormDataContentType())
	if status != http.StatusOK {
		t.Fatalf("status = %d (%s)", status, env.Error)
	}
	var summary services.ImportSummary
	if err := json.Unmarshal(env.Data, &summary); err != nil {
		t.Fatal(err)
	}
	if summary.Imported != 1 || len(summary.Failures) != 1 || summary.Failures[0].Line != 3 {
		t.Errorf("summary = %+v", summary)
	}
	if store.Len() != 1 {
		t.Errorf("Len = %d", store.Len())
	}

	status, _ = do(t, app, http.MethodPost, "/api/import/csv", nil, "")
	if status != http.StatusBadRequest {
		t.Errorf("missing file = %d", status)
	}
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t, nil)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
