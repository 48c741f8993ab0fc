package parser

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/0xcro3dile/clausesmith/internal/domain/ports"
)

var _ ports.DocumentParser = (*PythonPDFParser)(nil)

func TestPythonPDFParser_Parse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/parse" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("X-Filename") != "msa.pdf" {
			t.Errorf("filename not forwarded: %q", r.Header.Get("X-Filename"))
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"text":  "Master Services Agreement",
			"pages": 1,
		})
	}))
	defer server.Close()

	parser := NewPythonPDFParser(server.URL)
	text, err := parser.Parse(context.Background(), []byte("fake pdf"), "msa.pdf")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if text != "Master Services Agreement" {
		t.Errorf("unexpected text: %s", text)
	}
}

func TestPythonPDFParser_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": "parsing failed",
			"text":  "",
		})
	}))
	defer server.Close()

	parser := NewPythonPDFParser(server.URL)
	if _, err := parser.Parse(context.Background(), []byte("bad"), "test.pdf"); err == nil {
		t.Error("should error on parse failure")
	}
}

func TestPythonPDFParser_EmptyText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"text": "  ", "pages": 3})
	}))
	defer server.Close()

	parser := NewPythonPDFParser(server.URL)
	if _, err := parser.Parse(context.Background(), []byte("scan"), "scan.pdf"); err == nil {
		t.Error("image-only PDF should error")
	}
}

func TestPythonPDFParser_SupportedFormats(t *testing.T) {
	formats := NewPythonPDFParser("").SupportedFormats()
	if len(formats) != 1 || formats[0] != "pdf" {
		t.Error("should support only pdf")
	}
}

func TestPythonPDFParser_DefaultURL(t *testing.T) {
	parser := NewPythonPDFParser("")
	if parser.serviceURL != "http://localhost:8081" {
		t.Error("should default to localhost:8081")
	}
}

func TestPythonPDFParser_IsServiceHealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		}
	}))
	defer server.Close()

	if !NewPythonPDFParser(server.URL).IsServiceHealthy(context.Background()) {
		t.Error("should be healthy")
	}
}

func TestPythonPDFParser_UnhealthyService(t *testing.T) {
	if NewPythonPDFParser("http://localhost:99999").IsServiceHealthy(context.Background()) {
		t.Error("should be unhealthy")
	}
}

func TestPythonPDFParser_StartServiceMissingScript(t *testing.T) {
	parser := NewPythonPDFParser("")
	if _, err := parser.StartService(context.Background(), filepath.Join(t.TempDir(), "missing.py")); err == nil {
		t.Error("missing script should error")
	}
}
