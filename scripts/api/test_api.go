// Minimal end-to-end check against a running Ishan Assistant API.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
)

var (
	baseURL       = getenv("API_URL", "http://localhost:8080/v1")
	adminPassword = os.Getenv("ADMIN_PASSWORD")
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

type sessionState struct {
	ID       string `json:"id"`
	Messages []struct {
		Text   string `json:"text"`
		Sender string `json:"sender"`
	} `json:"messages"`
	PendingOrder *struct {
		TotalAmount int64 `json:"totalAmount"`
	} `json:"pendingOrder"`
}

func main() {
	var st sessionState
	doJSON("POST", "/sessions", nil, &st, http.StatusCreated)
	if st.ID == "" || len(st.Messages) != 1 {
		log.Fatalf("start: unexpected state %+v", st)
	}
	fmt.Printf("session %s: %s\n", st.ID, firstLine(st.Messages[0].Text))

	var sent struct {
		Session sessionState `json:"session"`
		Ignored bool         `json:"ignored"`
	}
	doJSON("POST", "/sessions/"+st.ID+"/messages", map[string]any{"text": "Hi, I'm Priya, 9876543210"}, &sent, http.StatusOK)
	if sent.Ignored || len(sent.Session.Messages) != 3 {
		log.Fatalf("send: unexpected state %+v", sent)
	}
	fmt.Printf("bot: %s\n", firstLine(sent.Session.Messages[2].Text))

	doJSON("POST", "/sessions/"+st.ID+"/messages", map[string]any{"text": "   "}, &sent, http.StatusOK)
	if !sent.Ignored {
		log.Fatal("blank message was not ignored")
	}

	blob := doRaw("GET", "/sessions/"+st.ID+"/backup", "", nil, http.StatusOK)
	doRaw("POST", "/sessions/"+st.ID+"/restore", "", blob, http.StatusOK)
	doRaw("POST", "/sessions/"+st.ID+"/restore", "", []byte(`{"messages":"nope"}`), http.StatusBadRequest)

	if sent.Session.PendingOrder == nil {
		doJSON("POST", "/sessions/"+st.ID+"/order/confirm", nil, nil, http.StatusConflict)
	}

	if adminPassword != "" {
		var login struct{ Token string }
		doJSON("POST", "/admin/login", map[string]any{"password": adminPassword}, &login, http.StatusOK)
		var bc struct{ Text, URL string }
		doReq("POST", "/admin/broadcast", login.Token, map[string]any{"topic": "Weekend pastry offer"}, &bc, http.StatusOK)
		fmt.Printf("broadcast: %s\n", firstLine(bc.Text))
	}

	fmt.Println("✓ all endpoints passed")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func doJSON(method, path string, body, out any, want int) {
	doReq(method, path, "", body, out, want)
}

func doReq(method, path, token string, body, out any, want int) {
	var raw []byte
	if body != nil {
		var err error
		if raw, err = json.Marshal(body); err != nil {
			log.Fatalf("%s %s encode: %v", method, path, err)
		}
	}
	resp := doRaw(method, path, token, raw, want)
	if out != nil {
		if err := json.Unmarshal(resp, out); err != nil {
			log.Fatalf("%s %s decode: %v", method, path, err)
		}
	}
}

func doRaw(method, path, token string, body []byte, want int) []byte {
	req, _ := http.NewRequest(method, baseURL+path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	if err != nil {
		log.Fatalf("%s %s read: %v", method, path, err)
	}
	if res.StatusCode != want {
		log.Fatalf("%s %s: want %d got %d: %s", method, path, want, res.StatusCode, b)
	}
	return b
}
