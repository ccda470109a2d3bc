package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"scenemesh.ai/internal/sim/host"
)

type stateResp struct {
	SessionID string       `json:"session_id"`
	Metrics   host.Metrics `json:"metrics"`
	Builds    int          `json:"indexed_builds"`
}

// stateCmd fetches /admin/v1/state from a running server (loopback only).
func stateCmd(args []string) {
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	raw := fs.Bool("raw", false, "print the JSON response as-is")
	_ = fs.Parse(args)

	u := strings.TrimRight(strings.TrimSpace(*baseURL), "/") + "/admin/v1/state"
	cl := &http.Client{Timeout: 5 * time.Second}
	resp, err := cl.Get(u)
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		fmt.Fprintf(os.Stderr, "%s: %s\n", resp.Status, strings.TrimSpace(string(b)))
		os.Exit(1)
	}
	if *raw {
		fmt.Println(string(b))
		return
	}

	var st stateResp
	if err := json.Unmarshal(b, &st); err != nil {
		fmt.Fprintln(os.Stderr, "decode:", err)
		os.Exit(1)
	}
	m := st.Metrics
	state := "idle"
	if m.Busy {
		state = "busy"
	}
	fmt.Printf("session=%s map=%s tick=%s %s\n", st.SessionID, m.MapID, humanize.Comma(int64(m.Tick)), state)
	fmt.Printf("chunks remaining=%d total=%d known=%d built=%s indexed=%s\n",
		m.Remaining, m.Total, m.Known, humanize.Comma(int64(m.ChunksBuilt)), humanize.Comma(int64(st.Builds)))
	fmt.Printf("clients=%d modifiers=%v step=%.3fms\n", m.Clients, m.Modifiers, m.StepMS)
}
