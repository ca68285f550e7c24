package main

import (
	"fmt"
	"net/http"
	"os"
	"time"
)

// Probes /readyz so a container is only healthy once the corpus is loaded.
func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8090"
	}
	path := "/readyz"
	if len(os.Args) > 1 && os.Args[1] == "-live" {
		path = "/healthz"
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://localhost:%s%s", port, path))
	if err != nil {
		fmt.Fprintf(os.Stderr, "healthcheck failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "healthcheck failed: %s returned status %d\n", path, resp.StatusCode)
		os.Exit(1)
	}

	os.Exit(0)
}
