package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/feastflow/storefront/internal/domain/order"
	"github.com/feastflow/storefront/internal/port/outbound"
)

// fakeAPI serves the subset of the REST API the commands use.
type fakeAPI struct {
	mu     sync.Mutex
	drafts []order.Draft
	role   string
}

func (f *fakeAPI) handler() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/menu", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, []map[string]any{
				{"_id": "m1", "name": "Pizza", "description": "Cheese", "price": 10},
				{"_id": "m2", "name": "Salad", "description": "Green", "price": 5},
			})
		})
		r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["password"] != "secret" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"token": "tok-1", "user": f.user(body["email"])})
		})
		r.Get("/auth/profile", func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Not authorized"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"user": f.user("ana@example.com")})
		})
		r.Post("/orders", func(w http.ResponseWriter, r *http.Request) {
			var d order.Draft
			if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
				return
			}
			f.mu.Lock()
			f.drafts = append(f.drafts, d)
			f.mu.Unlock()
			writeJSON(w, http.StatusCreated, map[string]any{"order": map[string]any{
				"_id":             "ord-1",
				"items":           d.Items,
				"totalPrice":      25,
				"status":          "received",
				"deliveryDetails": d.Delivery,
				"paymentMethod":   d.PaymentMethod,
			}})
		})
	})
	return r
}

func (f *fakeAPI) user(email string) map[string]string {
	role := f.role
	if role == "" {
		role = "customer"
	}
	return map[string]string{"_id": "u1", "name": "Ana", "email": email, "role": role}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// cli runs the root command against a fake API with file storage in a
// temp dir.
type cli struct {
	t      *testing.T
	config string
	api    *fakeAPI
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfg := filepath.Join(dir, "feastflow.yaml")
	content := "api:\n  base_url: " + srv.URL + "/api\n" +
		"storage:\n  driver: file\n  path: " + filepath.Join(dir, "state", "state.json") + "\n" +
		"checkout:\n  payment_delay: 1ms\n" +
		"log_level: error\n"
	if err := os.WriteFile(cfg, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return &cli{t: t, config: cfg, api: api}
}

func (c *cli) run(args ...string) (stdout, stderr string, err error) {
	c.t.Helper()
	viper.Reset()
	outputFormat, verbose, authPassword = "table", false, ""
	checkoutForm.PaymentMethod = string(order.DefaultPaymentMethod)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(append([]string{"--config", c.config, "--env-file", filepath.Join(c.t.TempDir(), "none.env")}, args...))
	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, errOut, err := c.run(args...)
	if err != nil {
		c.t.Fatalf("feastflow %s: %v\nstderr: %s", strings.Join(args, " "), err, errOut)
	}
	return out
}

func TestMenuList_JSON(t *testing.T) {
	c := newCLI(t)
	out := c.mustRun("-o", "json", "menu", "list")

	var items []struct {
		ID    string          `json:"_id"`
		Name  string          `json:"name"`
		Price decimal.Decimal `json:"price"`
	}
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("menu list output is not JSON: %v\n%s", err, out)
	}
	if len(items) != 2 || items[0].Name != "Pizza" || !items[0].Price.Equal(decimal.NewFromInt(10)) {
		t.Errorf("items = %+v", items)
	}
}

func TestCart_PersistsAcrossInvocations(t *testing.T) {
	c := newCLI(t)
	c.mustRun("cart", "add", "m1")
	c.mustRun("cart", "add", "m1")
	c.mustRun("cart", "add", "m2")
	c.mustRun("cart", "dec", "m2")

	var snap struct {
		TotalItems int             `json:"totalItems"`
		TotalPrice decimal.Decimal `json:"totalPrice"`
	}
	out := c.mustRun("-o", "json", "cart", "show")
	if err := json.Unmarshal([]byte(out), &snap); err != nil {
		t.Fatalf("cart show output is not JSON: %v\n%s", err, out)
	}
	if snap.TotalItems != 2 {
		t.Errorf("TotalItems = %d, want 2", snap.TotalItems)
	}
	if !snap.TotalPrice.Equal(decimal.NewFromInt(20)) {
		t.Errorf("TotalPrice = %s, want 20", snap.TotalPrice)
	}
}

func TestCart_AddUnknownItem(t *testing.T) {
	c := newCLI(t)
	if _, _, err := c.run("cart", "add", "nope"); err == nil {
		t.Error("cart add with an unknown id should fail")
	}
}

func TestWhoami_RequiresLogin(t *testing.T) {
	c := newCLI(t)
	_, _, err := c.run("whoami")
	if !errors.Is(err, errNotLoggedIn) {
		t.Errorf("whoami error = %v, want errNotLoggedIn", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	c := newCLI(t)
	_, _, err := c.run("login", "--email", "ana@example.com", "--password", "wrongpass")
	if !errors.Is(err, outbound.ErrAuth) {
		t.Fatalf("login error = %v, want ErrAuth", err)
	}
	if _, _, err := c.run("whoami"); !errors.Is(err, errNotLoggedIn) {
		t.Errorf("whoami after failed login error = %v, want errNotLoggedIn", err)
	}
}

func TestLoginCheckoutFlow(t *testing.T) {
	c := newCLI(t)
	c.mustRun("login", "--email", "ana@example.com", "--password", "secret")

	out := c.mustRun("whoami")
	if !strings.Contains(out, "ana@example.com") {
		t.Errorf("whoami output = %q", out)
	}

	c.mustRun("cart", "add", "m1")
	c.mustRun("cart", "add", "m1")
	c.mustRun("cart", "add", "m2")

	_, stderr, err := c.run("checkout", "--name", "Ana", "--address", "1 Main St", "--phone", "555-0100", "--payment", "gpay")
	if err != nil {
		t.Fatalf("checkout: %v\nstderr: %s", err, stderr)
	}
	if !strings.Contains(stderr, "Payment successful! Order placed.") {
		t.Errorf("checkout stderr = %q, want payment confirmation", stderr)
	}

	c.api.mu.Lock()
	drafts := c.api.drafts
	c.api.mu.Unlock()
	if len(drafts) != 1 {
		t.Fatalf("orders placed = %d, want 1", len(drafts))
	}
	d := drafts[0]
	if d.PaymentMethod != order.PaymentGPay || d.Delivery.Name != "Ana" || len(d.Items) != 2 {
		t.Errorf("draft = %+v", d)
	}
	if d.Items[0].MenuItemID != "m1" || d.Items[0].Quantity != 2 {
		t.Errorf("first draft item = %+v, want m1 x2", d.Items[0])
	}

	out = c.mustRun("cart", "show")
	if !strings.Contains(out, "Your cart is empty") {
		t.Errorf("cart after checkout = %q, want empty", out)
	}
}

func TestCheckout_RequiresLogin(t *testing.T) {
	c := newCLI(t)
	c.mustRun("cart", "add", "m1")
	_, _, err := c.run("checkout", "--name", "Ana", "--address", "1 Main St", "--phone", "555-0100")
	if !errors.Is(err, errNotLoggedIn) {
		t.Errorf("checkout error = %v, want errNotLoggedIn", err)
	}
}

func TestAnalytics_RequiresAdmin(t *testing.T) {
	c := newCLI(t)
	c.mustRun("login", "--email", "ana@example.com", "--password", "secret")
	_, _, err := c.run("analytics")
	if !errors.Is(err, errAdminOnly) {
		t.Errorf("analytics error = %v, want errAdminOnly", err)
	}
}

func TestLogout_ClearsSessionAndCart(t *testing.T) {
	c := newCLI(t)
	c.mustRun("login", "--email", "ana@example.com", "--password", "secret")
	c.mustRun("cart", "add", "m1")

	_, stderr, err := c.run("logout")
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	if !strings.Contains(stderr, "Logged out") {
		t.Errorf("logout stderr = %q", stderr)
	}
	if out := c.mustRun("cart", "show"); !strings.Contains(out, "Your cart is empty") {
		t.Errorf("cart after logout = %q", out)
	}
	if _, _, err := c.run("whoami"); !errors.Is(err, errNotLoggedIn) {
		t.Errorf("whoami after logout error = %v", err)
	}
}
