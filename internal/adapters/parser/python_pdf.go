// Package parser provides document parsing adapters implementing ports.DocumentParser.
// PDF text extraction is delegated to a small Python sidecar service.
package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// PythonPDFParser calls the PDF sidecar over HTTP.
type PythonPDFParser struct {
	serviceURL string
	client     *http.Client
	pythonCmd  *exec.Cmd
}

// NewPythonPDFParser creates a new PDF parser that calls the sidecar at serviceURL.
func NewPythonPDFParser(serviceURL string) *PythonPDFParser {
	if serviceURL == "" {
		serviceURL = "http://localhost:8081"
	}
	return &PythonPDFParser{
		serviceURL: strings.TrimRight(serviceURL, "/"),
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// parseResponse is the sidecar response format.
type parseResponse struct {
	Text    string `json:"text"`
	Pages   int    `json:"pages"`
	Library string `json:"library,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Parse extracts text from PDF bytes.
func (p *PythonPDFParser) Parse(ctx context.Context, data []byte, filename string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.serviceURL+"/parse", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("X-Filename", filename)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling PDF service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var result parseResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decoding response (status %d): %w", resp.StatusCode, err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("PDF parse error: %s", result.Error)
	}
	if strings.TrimSpace(result.Text) == "" {
		return "", fmt.Errorf("no text found in %s", filename)
	}

	return result.Text, nil
}

// SupportedFormats returns formats this parser handles.
func (p *PythonPDFParser) SupportedFormats() []string {
	return []string{"pdf"}
}

// StartService launches scriptPath with python3 and waits until /health answers.
// The returned cleanup stops the process.
func (p *PythonPDFParser) StartService(ctx context.Context, scriptPath string) (func(), error) {
	if _, err := os.Stat(scriptPath); err != nil {
		return nil, fmt.Errorf("PDF service script: %w", err)
	}

	p.pythonCmd = exec.Command("python3", filepath.Clean(scriptPath))
	p.pythonCmd.Stdout = os.Stdout
	p.pythonCmd.Stderr = os.Stderr

	if err := p.pythonCmd.Start(); err != nil {
		return nil, fmt.Errorf("starting Python service: %w", err)
	}

	cleanup := func() {
		if p.pythonCmd != nil && p.pythonCmd.Process != nil {
			p.pythonCmd.Process.Kill()
			p.pythonCmd.Wait()
		}
	}

	deadline := time.Now().Add(10 * time.Second)
	for !p.IsServiceHealthy(ctx) {
		if time.Now().After(deadline) || ctx.Err() != nil {
			cleanup()
			return nil, fmt.Errorf("PDF service at %s did not become healthy", p.serviceURL)
		}
		time.Sleep(200 * time.Millisecond)
	}

	return cleanup, nil
}

// IsServiceHealthy checks if the sidecar is running.
func (p *PythonPDFParser) IsServiceHealthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.serviceURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
