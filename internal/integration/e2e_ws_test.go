package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"cups_webapp/internal/config"
	httpserver "cups_webapp/internal/http"
	"cups_webapp/internal/round"
	"cups_webapp/internal/service"
	"cups_webapp/internal/session"
	"cups_webapp/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// fakeRGS answers the wallet endpoints: every play wins at 2x and
// end-round confirms a fixed balance
type fakeRGS struct {
	mu      sync.Mutex
	amounts []int64
	ends    int
}

func (f *fakeRGS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	w.Header().Set("Content-Type", "application/json")

	switch r.URL.Path {
	case "/wallet/authenticate":
		fmt.Fprint(w, `{"balance":{"amount":100000000}}`)
	case "/wallet/play":
		var req struct {
			Amount int64 `json:"amount"`
		}
		_ = json.Unmarshal(body, &req)
		f.mu.Lock()
		f.amounts = append(f.amounts, req.Amount)
		f.mu.Unlock()
		fmt.Fprint(w, `{"balance":{"amount":99000000},"round":{"payoutMultiplier":2,"state":"open"}}`)
	case "/wallet/end-round":
		f.mu.Lock()
		f.ends++
		f.mu.Unlock()
		fmt.Fprint(w, `{"balance":{"amount":101000000}}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"ERR_NF","message":"not found"}`)
	}
}

func TestE2E_WS_Round(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service.InitJWT("test-secret")

	rgs := &fakeRGS{}
	rgsSrv := httptest.NewServer(rgs)
	defer rgsSrv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scfg := session.DefaultConfig()
	scfg.Timings = round.Timings{}
	scfg.CupMove = 0
	scfg.Shuffle = true

	hub := ws.NewHub()
	mgr := session.NewManager(ctx, scfg, hub)

	r := gin.New()
	httpserver.RegisterRoutes(r, &config.Config{
		SessionTTL:      time.Hour,
		APIRateLimit:    100,
		APIRateWindow:   time.Minute,
		RoundRateLimit:  100,
		RoundRateWindow: time.Minute,
	}, httpserver.Deps{Sessions: mgr, Hub: hub, Version: "e2e"})

	srv := httptest.NewServer(r)
	defer srv.Close()

	q := url.Values{}
	q.Set("rgs_url", rgsSrv.URL)
	q.Set("sessionID", "player-1")
	q.Set("currency", "USD")
	res, err := http.Post(srv.URL+"/api/v1/session?"+q.Encode(), "application/json", nil)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	var created struct {
		Token string `json:"token"`
	}
	_ = json.NewDecoder(res.Body).Decode(&created)
	res.Body.Close()
	if res.StatusCode != http.StatusCreated || created.Token == "" {
		t.Fatalf("create session: status %d", res.StatusCode)
	}

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + created.Token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	type event struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	next := func() event {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		var ev event
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("read: %v", err)
		}
		return ev
	}

	if ev := next(); ev.Type != ws.MsgReady {
		t.Fatalf("expected ready, got %s", ev.Type)
	}

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/round", strings.NewReader(`{"bet":"1"}`))
	req.Header.Set("Authorization", "Bearer "+created.Token)
	req.Header.Set("Content-Type", "application/json")
	res, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("start round: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusAccepted {
		t.Fatalf("start round: status %d", res.StatusCode)
	}

	var (
		swaps   int
		picked  bool
		outcome round.Outcome
	)
	for outcome.RoundID == "" {
		ev := next()
		switch ev.Type {
		case ws.MsgSwap:
			if picked {
				t.Fatalf("swap after pick")
			}
			swaps++
		case ws.MsgInteractive:
			var p ws.InteractivePayload
			_ = json.Unmarshal(ev.Payload, &p)
			if p.Enabled {
				picked = true
				if err := conn.WriteJSON(map[string]any{"type": "pick", "cup": 2}); err != nil {
					t.Fatalf("pick: %v", err)
				}
			}
		case ws.MsgRound:
			if err := json.Unmarshal(ev.Payload, &outcome); err != nil {
				t.Fatalf("decode outcome: %v", err)
			}
		case ws.MsgError:
			t.Fatalf("round failed: %s", ev.Payload)
		}
	}

	if swaps < 6 {
		t.Fatalf("expected the shuffle before the pick, saw %d swaps", swaps)
	}
	if !outcome.Win || !outcome.Finalized || outcome.Chosen != 2 || outcome.Revealed != 2 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if outcome.Balance.String() != "101" || outcome.Phase != round.PhaseRest {
		t.Fatalf("unexpected balance/phase: %s %s", outcome.Balance, outcome.Phase)
	}

	rgs.mu.Lock()
	defer rgs.mu.Unlock()
	if len(rgs.amounts) != 1 || rgs.amounts[0] != 1_000_000 {
		t.Fatalf("unexpected play amounts: %v", rgs.amounts)
	}
	if rgs.ends != 1 {
		t.Fatalf("expected one end-round call, got %d", rgs.ends)
	}
}
