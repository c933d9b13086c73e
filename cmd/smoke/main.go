// Smoke-tests a running server end to end: seeds notes, opens a graph
// session, triggers analysis, searches, and exercises the interaction
// endpoints. Expects the server in demo (memory store) mode.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const baseURL = "http://localhost:8080"

func main() {
	// Wait for server to start
	time.Sleep(2 * time.Second)

	fmt.Println("Starting smoke test...")

	// 1. Seed notes
	fmt.Println("1. Seeding notes...")
	notes := []map[string]interface{}{
		{"text": "Reading about transformer embeddings and vector search.", "tags": []string{"ml"}},
		{"text": "Sketched ideas for the embedding-based note search.", "tags": []string{"ml", "search"}},
		{"text": "Color palette exploration for the dashboard redesign.", "tags": []string{"design"}},
	}
	for _, n := range notes {
		post("/notes", n)
	}

	// 2. Open a session
	fmt.Println("2. Opening session...")
	resp := post("/sessions", map[string]interface{}{})
	var created struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(resp, &created); err != nil || created.SessionID == "" {
		fmt.Println("FAIL: no session id")
		os.Exit(1)
	}
	sid := created.SessionID

	// 3. Graph before analysis: tag edge between the two ml notes
	fmt.Println("3. Fetching graph...")
	get("/sessions/" + sid + "/graph")

	// 4. Trigger analysis (requires a reachable LLM; failure is non-fatal)
	fmt.Println("4. Analyzing connections...")
	post("/sessions/"+sid+"/analyze", map[string]interface{}{})

	// 5. Search
	fmt.Println("5. Searching...")
	post("/sessions/"+sid+"/search", map[string]interface{}{"query": "embeddings"})

	// 6. Interaction round-trip
	fmt.Println("6. Hover/select...")
	post("/sessions/"+sid+"/hover", map[string]interface{}{"node_id": "nonexistent"})
	post("/sessions/"+sid+"/select", map[string]interface{}{})

	// 7. Close
	fmt.Println("7. Closing session...")
	req, _ := http.NewRequest(http.MethodDelete, baseURL+"/sessions/"+sid, nil)
	if _, err := http.DefaultClient.Do(req); err != nil {
		fmt.Printf("FAIL: close: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Smoke test completed.")
}

func post(path string, body interface{}) []byte {
	data, _ := json.Marshal(body)
	resp, err := http.Post(baseURL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("FAIL: POST %s: %v\n", path, err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	fmt.Printf("  POST %s -> %d %s\n", path, resp.StatusCode, truncate(out))
	return out
}

func get(path string) []byte {
	resp, err := http.Get(baseURL + path)
	if err != nil {
		fmt.Printf("FAIL: GET %s: %v\n", path, err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	fmt.Printf("  GET %s -> %d %s\n", path, resp.StatusCode, truncate(out))
	return out
}

func truncate(b []byte) string {
	s := string(b)
	if len(s) > 120 {
		return s[:120] + "..."
	}
	return s
}
