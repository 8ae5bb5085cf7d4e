package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"cups_webapp/internal/logger"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
)

// ws_smoke opens a session against a running server, plays one round over
// the API, picks a cup when the renderer channel enables them and prints
// every event until the round ends.
func main() {
	bet := flag.String("bet", "1", "bet amount")
	cup := flag.Int("cup", 0, "cup to pick")
	flag.Parse()

	_ = godotenv.Load()
	rgsURL := os.Getenv("RGS_URL")
	rgsSession := os.Getenv("RGS_SESSION")
	if rgsURL == "" || rgsSession == "" {
		logger.Fatal("RGS_URL and RGS_SESSION must be set")
	}
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	base := "http://127.0.0.1:" + port

	q := url.Values{}
	q.Set("rgs_url", rgsURL)
	q.Set("sessionID", rgsSession)
	q.Set("currency", os.Getenv("RGS_CURRENCY"))

	var created struct {
		Token string `json:"token"`
	}
	if err := call(http.MethodPost, base+"/api/v1/session?"+q.Encode(), "", nil, &created); err != nil {
		logger.Fatal("create session", "error", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://127.0.0.1:%s/ws?token=%s", port, created.Token), nil)
	if err != nil {
		logger.Fatal("dial", "error", err)
	}
	defer conn.Close()

	body, _ := json.Marshal(map[string]string{"bet": *bet})
	if err := call(http.MethodPost, base+"/api/v1/round", created.Token, body, nil); err != nil {
		logger.Fatal("start round", "error", err)
	}

	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		_ = conn.SetReadDeadline(deadline)
		_, msg, err := conn.ReadMessage()
		if err != nil {
			logger.Fatal("read", "error", err)
		}
		fmt.Println(string(msg))

		var ev struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		_ = json.Unmarshal(msg, &ev)

		switch ev.Type {
		case "interactive":
			var p struct {
				Enabled bool `json:"enabled"`
			}
			_ = json.Unmarshal(ev.Payload, &p)
			if p.Enabled {
				pick := fmt.Sprintf(`{"type":"pick","cup":%d}`, *cup)
				if err := conn.WriteMessage(websocket.TextMessage, []byte(pick)); err != nil {
					logger.Fatal("write pick", "error", err)
				}
			}
		case "round", "error":
			logger.Info("smoke test finished")
			return
		}
	}
	logger.Fatal("round did not finish in time")
}

func call(method, u, token string, body []byte, out any) error {
	req, err := http.NewRequest(method, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	data, _ := io.ReadAll(res.Body)
	if res.StatusCode >= 300 {
		return fmt.Errorf("%s %s: %d %s", method, u, res.StatusCode, data)
	}
	if out != nil {
		return json.Unmarshal(data, out)
	}
	return nil
}
