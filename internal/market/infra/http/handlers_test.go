package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/agrimandi/procurement-engine/internal/market/application"
	markethttp "github.com/agrimandi/procurement-engine/internal/market/infra/http"
	"github.com/agrimandi/procurement-engine/internal/market/infra/store/memory"
	"github.com/agrimandi/procurement-engine/internal/notify"
	userdomain "github.com/agrimandi/procurement-engine/internal/user/domain"
	usermemory "github.com/agrimandi/procurement-engine/internal/user/infra/repository/memory"
)

type env struct {
	app    *fiber.App
	store  *memory.Store
	farmer *userdomain.User
	buyer  *userdomain.User
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.NewStore()
	users := usermemory.NewUserRepository()

	farmer := &userdomain.User{ID: uuid.New(), Name: "Ravi", Role: userdomain.RoleFarmer, CreatedAt: time.Now()}
	buyer := &userdomain.User{ID: uuid.New(), Name: "Meena Traders", Role: userdomain.RoleBuyer, CreatedAt: time.Now()}
	for _, u := range []*userdomain.User{farmer, buyer} {
		if err := users.Create(context.Background(), u); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}

	engine := application.NewEngine(store, notify.Nop{})
	listing := application.NewListing(store)
	service := application.NewMarketService(engine, listing)

	app := fiber.New()
	markethttp.NewHandlers(service, users).RegisterRoutes(app)

	return &env{app: app, store: store, farmer: farmer, buyer: buyer}
}

func (e *env) do(t *testing.T, method, path string, body any, asUser *userdomain.User) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if asUser != nil {
		req.Header.Set("X-User-ID", asUser.ID.String())
	}
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func (e *env) createLot(t *testing.T) markethttp.LotResponse {
	t.Helper()
	resp := e.do(t, "POST", "/api/v1/lots", fiber.Map{
		"crop_type":  "wheat",
		"variety":    "lokwan",
		"quantity":   "100",
		"unit":       "quintal",
		"base_price": "5000",
	}, e.farmer)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create lot: status %d", resp.StatusCode)
	}
	return decode[markethttp.LotResponse](t, resp)
}

func (e *env) placeBid(t *testing.T, lotID string, amount string) markethttp.BidResponse {
	t.Helper()
	resp := e.do(t, "POST", "/api/v1/lots/"+lotID+"/bids", fiber.Map{"amount": amount}, e.buyer)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("place bid: status %d", resp.StatusCode)
	}
	return decode[markethttp.BidResponse](t, resp)
}

func TestCreateLot_RequiresActor(t *testing.T) {
	e := newEnv(t)
	resp := e.do(t, "POST", "/api/v1/lots", fiber.Map{"crop_type": "wheat"}, nil)
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}

	stranger := &userdomain.User{ID: uuid.New()}
	resp = e.do(t, "POST", "/api/v1/lots", fiber.Map{"crop_type": "wheat"}, stranger)
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("unknown actor: expected 403, got %d", resp.StatusCode)
	}
}

func TestCreateLot_Validation(t *testing.T) {
	e := newEnv(t)
	resp := e.do(t, "POST", "/api/v1/lots", fiber.Map{
		"crop_type": "wheat", "quantity": "10", "base_price": "100",
		// unit missing
	}, e.farmer)
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	resp = e.do(t, "POST", "/api/v1/lots", fiber.Map{
		"crop_type": "wheat", "quantity": "-5", "unit": "kg", "base_price": "100",
	}, e.farmer)
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("negative quantity: expected 422, got %d", resp.StatusCode)
	}
}

func TestLotLifecycleOverHTTP(t *testing.T) {
	e := newEnv(t)

	lot := e.createLot(t)
	if lot.Status != "open" {
		t.Fatalf("expected open lot, got %s", lot.Status)
	}

	bidA := e.placeBid(t, lot.ID.String(), "5200")
	bidB := e.placeBid(t, lot.ID.String(), "5400")

	// stranger cannot accept
	resp := e.do(t, "POST", "/api/v1/bids/"+bidB.ID.String()+"/accept", nil, e.buyer)
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("buyer accepting: expected 403, got %d", resp.StatusCode)
	}

	resp = e.do(t, "POST", "/api/v1/bids/"+bidB.ID.String()+"/accept", nil, e.farmer)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("accept: expected 200, got %d", resp.StatusCode)
	}
	result := decode[markethttp.AcceptBidResponse](t, resp)
	if result.Lot.Status != "sold" || result.Bid.Status != "accepted" {
		t.Fatalf("accept result lot=%s bid=%s", result.Lot.Status, result.Bid.Status)
	}

	// double accept hits the invariant
	resp = e.do(t, "POST", "/api/v1/bids/"+bidA.ID.String()+"/accept", nil, e.farmer)
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("second accept: expected 409, got %d", resp.StatusCode)
	}

	// withdrawing the rejected bid is a lost race
	resp = e.do(t, "DELETE", "/api/v1/bids/"+bidA.ID.String(), nil, e.buyer)
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("withdraw resolved bid: expected 409, got %d", resp.StatusCode)
	}
}

func TestGetLot_BidVisibility(t *testing.T) {
	e := newEnv(t)
	lot := e.createLot(t)
	e.placeBid(t, lot.ID.String(), "5100")

	// seller sees bids
	resp := e.do(t, "GET", "/api/v1/lots/"+lot.ID.String(), nil, e.farmer)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	detail := decode[markethttp.LotDetailResponse](t, resp)
	if len(detail.Bids) != 1 {
		t.Fatalf("seller should see 1 bid, got %d", len(detail.Bids))
	}

	// a prospective buyer gets the lot only
	resp = e.do(t, "GET", "/api/v1/lots/"+lot.ID.String(), nil, e.buyer)
	detail = decode[markethttp.LotDetailResponse](t, resp)
	if len(detail.Bids) != 0 {
		t.Fatalf("buyer should see no bids, got %d", len(detail.Bids))
	}
}

func TestListLots_Filters(t *testing.T) {
	e := newEnv(t)
	lot := e.createLot(t)

	resp := e.do(t, "GET", "/api/v1/lots?status=open&crop=wheat", nil, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	lots := decode[[]markethttp.LotResponse](t, resp)
	if len(lots) != 1 || lots[0].ID != lot.ID {
		t.Fatalf("filter returned wrong set: %d lots", len(lots))
	}

	resp = e.do(t, "GET", "/api/v1/lots?status=bogus", nil, nil)
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("bogus status: expected 422, got %d", resp.StatusCode)
	}

	resp = e.do(t, "GET", "/api/v1/lots?status=sold", nil, nil)
	if got := decode[[]markethttp.LotResponse](t, resp); len(got) != 0 {
		t.Fatalf("sold filter should be empty, got %d", len(got))
	}
}

func TestWithdrawLotOverHTTP(t *testing.T) {
	e := newEnv(t)
	lot := e.createLot(t)
	bid := e.placeBid(t, lot.ID.String(), "5150")

	resp := e.do(t, "DELETE", "/api/v1/lots/"+lot.ID.String(), nil, e.farmer)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("withdraw lot: expected 200, got %d", resp.StatusCode)
	}
	withdrawn := decode[markethttp.LotResponse](t, resp)
	if withdrawn.Status != "withdrawn" {
		t.Fatalf("expected withdrawn, got %s", withdrawn.Status)
	}

	// cascaded bid must not be acceptable afterwards
	resp = e.do(t, "POST", "/api/v1/bids/"+bid.ID.String()+"/accept", nil, e.farmer)
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("accept after withdraw: expected 409, got %d", resp.StatusCode)
	}
}

func TestUnknownLotIs404(t *testing.T) {
	e := newEnv(t)
	resp := e.do(t, "GET", "/api/v1/lots/"+uuid.NewString(), nil, nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestMyBids(t *testing.T) {
	e := newEnv(t)
	lot := e.createLot(t)
	e.placeBid(t, lot.ID.String(), "5250")

	resp := e.do(t, "GET", "/api/v1/my/bids", nil, e.buyer)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	bids := decode[[]markethttp.BidResponse](t, resp)
	if len(bids) != 1 {
		t.Fatalf("expected 1 bid, got %d", len(bids))
	}

	resp = e.do(t, "GET", "/api/v1/my/bids", nil, e.farmer)
	if got := decode[[]markethttp.BidResponse](t, resp); len(got) != 0 {
		t.Fatalf("farmer placed no bids, got %d", len(got))
	}
}
