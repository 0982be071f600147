package ticqtactoe

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Zarux/ticqtactoe/pkg/qlearn"
	"github.com/Zarux/ticqtactoe/pkg/tictactoe"
)

func newTestServer(t *testing.T) (*httptest.Server, *qlearn.Table) {
	t.Helper()
	table := qlearn.New(qlearn.DefaultConfig(), qlearn.NewRand(1))
	srv := httptest.NewServer(HTTPHandler(New(qlearn.NewBot(table)), table))
	t.Cleanup(srv.Close)
	return srv, table
}

func postMove(t *testing.T, srv *httptest.Server, body string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/move", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.StatusCode, out
}

func TestMovePicksBestValue(t *testing.T) {
	srv, table := newTestServer(t)
	table.Update(tictactoe.Key("X...O...X"), 2, 1, "", nil)

	status, out := postMove(t, srv, `{"board":["〇"," "," "," ","×"," "," "," ","〇"],"aiSide":"×"}`)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", status, out)
	}
	if out["move"] != float64(2) || out["game_over"] != false {
		t.Fatalf("unexpected response %v", out)
	}
}

func TestMoveOnFinishedBoard(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, body := range []string{
		`{"board":["X","X","X","O","O"," "," "," "," "],"aiSide":"O"}`,
		`{"board":["X","O","X","X","O","O","O","X","X"],"aiSide":"X"}`,
	} {
		status, out := postMove(t, srv, body)
		if status != http.StatusOK {
			t.Fatalf("expected 200, got %d", status)
		}
		if out["move"] != nil || out["game_over"] != true {
			t.Fatalf("expected game over without move, got %v", out)
		}
	}
}

func TestMoveRejectsBadRequests(t *testing.T) {
	srv, _ := newTestServer(t)

	for name, body := range map[string]string{
		"not json":    `board`,
		"short board": `{"board":["X"],"aiSide":"O"}`,
		"bad symbol":  `{"board":["?"," "," "," "," "," "," "," "," "],"aiSide":"O"}`,
		"bad side":    `{"board":[" "," "," "," "," "," "," "," "," "],"aiSide":"Z"}`,
		"blank side":  `{"board":[" "," "," "," "," "," "," "," "," "],"aiSide":" "}`,
	} {
		status, out := postMove(t, srv, body)
		if status != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, status)
		}
		if _, ok := out["error"]; !ok {
			t.Fatalf("%s: expected error field, got %v", name, out)
		}
	}
}

func TestPingAndBrain(t *testing.T) {
	srv, table := newTestServer(t)
	table.Update(".........", 4, 1, "", nil)

	resp, err := http.Get(srv.URL + "/api/ping")
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("ping failed: %v", err)
	}
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/api/brain")
	if err != nil {
		t.Fatalf("brain: %v", err)
	}
	defer resp.Body.Close()

	var out map[string]int
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["entries"] != 1 {
		t.Fatalf("expected 1 entry, got %v", out)
	}
}

func TestMoveRejectsOversizedBody(t *testing.T) {
	srv, _ := newTestServer(t)

	padding := strings.Repeat(" ", 8<<10)
	body := `{"board":[" "," "," "," "," "," "," "," "," "],"aiSide":"O","pad":"` + padding + `"}`
	status, out := postMove(t, srv, body)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if out["error"] != "invalid payload" {
		t.Fatalf("unexpected response %v", out)
	}
}
