// Package main provides the cuebox client CLI entry point.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
)

var (
	app    = kingpin.New("cuectl", "cuebox client CLI")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").Envar("CUEBOX_SERVER").String()

	// submit command
	submitCmd      = app.Command("submit", "Submit a cue for playback")
	submitKind     = submitCmd.Arg("kind", "Cue kind").Required().String()
	submitPriority = submitCmd.Flag("priority", "Priority (lower plays first)").Int()
	submitLabel    = submitCmd.Flag("label", "Display label").String()

	// queue command
	queueCmd = app.Command("queue", "Show the pending queue")

	// status command
	statusCmd = app.Command("status", "Show scheduler status")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	client := &http.Client{Timeout: 10 * time.Second}

	var err error
	switch command {
	case submitCmd.FullCommand():
		err = submit(client)
	case queueCmd.FullCommand():
		err = queue(client)
	case statusCmd.FullCommand():
		err = status(client)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type requestInfo struct {
	Kind       string    `json:"kind"`
	Priority   int       `json:"priority"`
	Label      string    `json:"label,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

type queueResponse struct {
	Queue []requestInfo `json:"queue"`
}

type statusResponse struct {
	State       string       `json:"state"`
	Current     *requestInfo `json:"current,omitempty"`
	QueueLength int          `json:"queue_length"`
}

func submit(client *http.Client) error {
	payload := map[string]any{"kind": *submitKind}
	if *submitPriority != 0 {
		payload["priority"] = *submitPriority
	}
	if *submitLabel != "" {
		payload["label"] = *submitLabel
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := client.Post(*server+"/api/cues", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return apiError(resp)
	}

	var qr queueResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return err
	}

	fmt.Printf("Submitted %s\n", *submitKind)
	printQueue(qr.Queue)
	return nil
}

func queue(client *http.Client) error {
	resp, err := client.Get(*server + "/api/queue")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}

	var qr queueResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return err
	}

	printQueue(qr.Queue)
	return nil
}

func status(client *http.Client) error {
	resp, err := client.Get(*server + "/api/status")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}

	var sr statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return err
	}

	fmt.Printf("State:  %s\n", sr.State)
	if sr.Current != nil {
		fmt.Printf("Now:    %s (priority %d)\n", displayName(*sr.Current), sr.Current.Priority)
	}
	fmt.Printf("Queued: %d\n", sr.QueueLength)
	return nil
}

func printQueue(queue []requestInfo) {
	if len(queue) == 0 {
		fmt.Println("Queue is empty")
		return
	}
	for i, r := range queue {
		fmt.Printf("  %2d. %-20s priority=%-3d enqueued=%s\n",
			i+1, displayName(r), r.Priority, r.EnqueuedAt.Format("15:04:05"))
	}
}

func displayName(r requestInfo) string {
	if r.Label != "" {
		return r.Label
	}
	return r.Kind
}

func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var msg struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &msg) == nil && msg.Message != "" {
		return fmt.Errorf("%s (%s)", msg.Message, resp.Status)
	}
	return fmt.Errorf("unexpected response: %s", resp.Status)
}
