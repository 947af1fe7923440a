package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"debts/internal/core"
	"debts/internal/repository/memory"
	"debts/internal/services"
)

func newTestServer(t *testing.T) (*Server, *services.DebtService) {
	t.Helper()
	svc := services.NewDebtService(memory.New(), nil)
	srv := NewServer("127.0.0.1:0", svc, nil)
	t.Cleanup(func() { srv.Close() })
	return srv, svc
}

// localRequest builds a request that looks like it came from the window.
func localRequest(method, target string, form url.Values) *http.Request {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.RemoteAddr = "127.0.0.1:40000"
	req.Host = "127.0.0.1:5000"
	return req
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestIndexListsDebts(t *testing.T) {
	srv, svc := newTestServer(t)
	ctx := context.Background()
	_, _, _ = svc.AddDebt(ctx, "Alice", 100)
	bob, _, _ := svc.AddDebt(ctx, "Bob", 20)
	_, _, _ = svc.UpdateDebt(ctx, bob.ID, core.ActionSubtract, 20)

	rr := serve(srv, localRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "ניהול כסף") {
		t.Error("index body missing title")
	}
	alice, bobAt := strings.Index(body, "Alice"), strings.Index(body, "Bob")
	if alice < 0 || bobAt < 0 || alice > bobAt {
		t.Errorf("expected outstanding Alice before settled Bob")
	}
	if !strings.Contains(body, "100.00") {
		t.Error("expected amount rendered with two decimals")
	}
	if rr.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("expected security headers on pages")
	}
}

func TestIndexSearch(t *testing.T) {
	srv, svc := newTestServer(t)
	ctx := context.Background()
	_, _, _ = svc.AddDebt(ctx, "Alice", 1)
	_, _, _ = svc.AddDebt(ctx, "Bob", 1)

	rr := serve(srv, localRequest(http.MethodGet, "/?search=ali", nil))
	body := rr.Body.String()
	if !strings.Contains(body, "Alice") || strings.Contains(body, "Bob") {
		t.Errorf("search did not filter: %s", body)
	}
	if !strings.Contains(body, `value="ali"`) {
		t.Error("search box should keep the query")
	}
}

func TestIndexEscapesNames(t *testing.T) {
	srv, svc := newTestServer(t)
	_, _, _ = svc.AddDebt(context.Background(), "<script>x</script>", 1)

	body := serve(srv, localRequest(http.MethodGet, "/", nil)).Body.String()
	if strings.Contains(body, "<script>x") {
		t.Error("debt name rendered unescaped")
	}
}

func TestAddDebt(t *testing.T) {
	tests := []struct {
		name       string
		form       url.Values
		wantStatus int
	}{
		{"valid", url.Values{"name": {"Bob"}, "amount": {"50"}}, http.StatusFound},
		{"comma decimal", url.Values{"name": {"Bob"}, "amount": {"2,5"}}, http.StatusFound},
		{"malformed amount", url.Values{"name": {"Bob"}, "amount": {"abc"}}, http.StatusBadRequest},
		{"missing amount", url.Values{"name": {"Bob"}}, http.StatusBadRequest},
		{"blank name", url.Values{"name": {"   "}, "amount": {"5"}}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t)
			rr := serve(srv, localRequest(http.MethodPost, "/add", tt.form))
			if rr.Code != tt.wantStatus {
				t.Fatalf("status=%d want %d body=%q", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if tt.wantStatus == http.StatusFound && rr.Header().Get("Location") != "/" {
				t.Errorf("Location=%q want /", rr.Header().Get("Location"))
			}
		})
	}
}

func TestAddMergesByName(t *testing.T) {
	srv, svc := newTestServer(t)

	serve(srv, localRequest(http.MethodPost, "/add", url.Values{"name": {"Bob"}, "amount": {"50"}}))
	serve(srv, localRequest(http.MethodPost, "/add", url.Values{"name": {" Bob "}, "amount": {"30"}}))

	list, err := svc.ListDebts(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].TotalAmount != 80 || list[0].RemainingAmount != 80 {
		t.Fatalf("expected one merged 80/80 debt, got %+v", list)
	}
}

func TestUpdateDebt(t *testing.T) {
	srv, svc := newTestServer(t)
	d, _, _ := svc.AddDebt(context.Background(), "Bob", 80)
	target := "/update/" + itoa(d.ID)

	rr := serve(srv, localRequest(http.MethodPost, target, url.Values{"amount": {"20"}, "action": {"subtract"}}))
	if rr.Code != http.StatusFound {
		t.Fatalf("status=%d", rr.Code)
	}
	list, _ := svc.ListDebts(context.Background(), "")
	if list[0].TotalAmount != 80 || list[0].RemainingAmount != 60 {
		t.Fatalf("expected 80/60, got %+v", list[0])
	}

	// Unknown actions still redirect and leave amounts alone.
	rr = serve(srv, localRequest(http.MethodPost, target, url.Values{"amount": {"5"}, "action": {"double"}}))
	if rr.Code != http.StatusFound {
		t.Fatalf("unknown action status=%d", rr.Code)
	}
	list, _ = svc.ListDebts(context.Background(), "")
	if list[0].RemainingAmount != 60 {
		t.Fatalf("unknown action changed amounts: %+v", list[0])
	}
}

func TestUpdateDebtErrors(t *testing.T) {
	srv, svc := newTestServer(t)
	d, _, _ := svc.AddDebt(context.Background(), "Bob", 80)
	target := "/update/" + itoa(d.ID)

	tests := []struct {
		name       string
		target     string
		form       url.Values
		wantStatus int
	}{
		{"non-integer id", "/update/abc", url.Values{"amount": {"1"}, "action": {"add"}}, http.StatusNotFound},
		{"negative id", "/update/-1", url.Values{"amount": {"1"}, "action": {"add"}}, http.StatusNotFound},
		{"unknown id", "/update/999", url.Values{"amount": {"1"}, "action": {"add"}}, http.StatusFound},
		{"malformed amount", target, url.Values{"amount": {"x"}, "action": {"add"}}, http.StatusBadRequest},
		{"missing action", target, url.Values{"amount": {"1"}}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(srv, localRequest(http.MethodPost, tt.target, tt.form))
			if rr.Code != tt.wantStatus {
				t.Fatalf("status=%d want %d", rr.Code, tt.wantStatus)
			}
		})
	}
}

func TestDeleteDebt(t *testing.T) {
	srv, svc := newTestServer(t)
	d, _, _ := svc.AddDebt(context.Background(), "Bob", 1)

	rr := serve(srv, localRequest(http.MethodPost, "/delete/"+itoa(d.ID), url.Values{}))
	if rr.Code != http.StatusFound {
		t.Fatalf("status=%d", rr.Code)
	}
	if list, _ := svc.ListDebts(context.Background(), ""); len(list) != 0 {
		t.Fatalf("expected empty list, got %+v", list)
	}

	rr = serve(srv, localRequest(http.MethodPost, "/delete/"+itoa(d.ID), url.Values{}))
	if rr.Code != http.StatusFound {
		t.Fatalf("repeat delete status=%d", rr.Code)
	}

	rr = serve(srv, localRequest(http.MethodPost, "/delete/x", url.Values{}))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("non-integer delete status=%d", rr.Code)
	}
}

func TestStatsPageAndInvalidation(t *testing.T) {
	srv, _ := newTestServer(t)

	body := serve(srv, localRequest(http.MethodGet, "/stats", nil)).Body.String()
	if !strings.Contains(body, `<dd id="total-debts">0</dd>`) || !strings.Contains(body, `<dd id="total-repaid">0.00</dd>`) {
		t.Fatalf("unexpected empty stats page: %s", body)
	}

	serve(srv, localRequest(http.MethodPost, "/add", url.Values{"name": {"A"}, "amount": {"100"}}))
	serve(srv, localRequest(http.MethodPost, "/update/1", url.Values{"amount": {"40"}, "action": {"subtract"}}))

	body = serve(srv, localRequest(http.MethodGet, "/stats", nil)).Body.String()
	for _, want := range []string{
		`<dd id="total-debts">1</dd>`,
		`<dd id="total-owed">100.00</dd>`,
		`<dd id="total-remaining">60.00</dd>`,
		`<dd id="total-repaid">40.00</dd>`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("stats page missing %s", want)
		}
	}
}

// slowStats computes stats on the first call, then holds the result until
// released, so a write can land while the read is in flight.
type slowStats struct {
	*services.DebtService
	computed chan struct{}
	release  chan struct{}
	once     sync.Once
}

func (s *slowStats) Stats(ctx context.Context) (core.Stats, error) {
	stats, err := s.DebtService.Stats(ctx)
	s.once.Do(func() {
		close(s.computed)
		<-s.release
	})
	return stats, err
}

func TestStatsComputedBeforeWriteAreNotCached(t *testing.T) {
	svc := &slowStats{
		DebtService: services.NewDebtService(memory.New(), nil),
		computed:    make(chan struct{}),
		release:     make(chan struct{}),
	}
	srv := NewServer("127.0.0.1:0", svc, nil)
	defer srv.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		serve(srv, localRequest(http.MethodGet, "/stats", nil))
	}()

	<-svc.computed
	rr := serve(srv, localRequest(http.MethodPost, "/add", url.Values{"name": {"Bob"}, "amount": {"50"}}))
	if rr.Code != http.StatusFound {
		t.Fatalf("add status=%d", rr.Code)
	}
	close(svc.release)
	<-done

	body := serve(srv, localRequest(http.MethodGet, "/stats", nil)).Body.String()
	if !strings.Contains(body, `<dd id="total-debts">1</dd>`) {
		t.Fatalf("stats page shows stale totals: %s", body)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := serve(srv, localRequest(http.MethodGet, "/add", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /add status=%d", rr.Code)
	}
}

func TestHealthReadyAndStatic(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz", "/static/style.css"} {
		rr := serve(srv, localRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestRejectsNonLocalRequests(t *testing.T) {
	srv, _ := newTestServer(t)
	req := localRequest(http.MethodGet, "/", nil)
	req.Host = "attacker.example"
	if rr := serve(srv, req); rr.Code != http.StatusForbidden {
		t.Fatalf("status=%d want 403", rr.Code)
	}
}

type failingService struct{}

var errStore = errors.New("disk I/O error")

func (failingService) ListDebts(context.Context, string) ([]core.Debt, error) { return nil, errStore }
func (failingService) AddDebt(context.Context, string, float64) (core.Debt, bool, error) {
	return core.Debt{}, false, errStore
}
func (failingService) UpdateDebt(context.Context, int64, core.Action, float64) (core.Debt, bool, error) {
	return core.Debt{}, false, errStore
}
func (failingService) DeleteDebt(context.Context, int64) (bool, error) { return false, errStore }
func (failingService) Stats(context.Context) (core.Stats, error)       { return core.Stats{}, errStore }
func (failingService) Ping(context.Context) error                      { return errStore }

func TestStoreFailuresReturn500(t *testing.T) {
	srv := NewServer("127.0.0.1:0", failingService{}, nil)
	defer srv.Close()

	requests := []*http.Request{
		localRequest(http.MethodGet, "/", nil),
		localRequest(http.MethodGet, "/stats", nil),
		localRequest(http.MethodPost, "/add", url.Values{"name": {"A"}, "amount": {"1"}}),
		localRequest(http.MethodPost, "/update/1", url.Values{"amount": {"1"}, "action": {"add"}}),
		localRequest(http.MethodPost, "/delete/1", url.Values{}),
	}
	for _, req := range requests {
		if rr := serve(srv, req); rr.Code != http.StatusInternalServerError {
			t.Errorf("%s %s status=%d want 500", req.Method, req.URL.Path, rr.Code)
		}
	}

	if rr := serve(srv, localRequest(http.MethodGet, "/readyz", nil)); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz status=%d want 503", rr.Code)
	}
}
