package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestServerCreation(t *testing.T) {
	server := NewServer("1.0.0-test")
	if server == nil {
		t.Fatal("NewServer() returned nil")
	}
	if server.server == nil {
		t.Fatal("NewServer().server is nil")
	}
}

func TestServerCreationEmptyVersion(t *testing.T) {
	server := NewServer("")
	if server == nil {
		t.Fatal("NewServer(\"\") returned nil")
	}
}

func TestToolDescriptions(t *testing.T) {
	descriptions := map[string]func() string{
		"scanRepository":     describeScanRepository,
		"auditHotspots":      describeAuditHotspots,
		"findDuplicateLogic": describeFindDuplicateLogic,
	}

	for name, fn := range descriptions {
		t.Run(name, func(t *testing.T) {
			desc := fn()
			if desc == "" {
				t.Errorf("%s description is empty", name)
			}
			for _, section := range []string{"USE WHEN:", "INTERPRETING RESULTS:", "METRICS RETURNED:"} {
				if !strings.Contains(desc, section) {
					t.Errorf("%s description missing %s section", name, section)
				}
			}
		})
	}
}

func TestGetPath(t *testing.T) {
	if got := getPath(ScanInput{}); got != "." {
		t.Errorf("getPath(empty) = %q, want %q", got, ".")
	}
	if got := getPath(ScanInput{Path: "/repo"}); got != "/repo" {
		t.Errorf("getPath(/repo) = %q", got)
	}
}

func testRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	src := filepath.Join(root, "src")
	if err := os.MkdirAll(src, 0755); err != nil {
		t.Fatal(err)
	}
	content := `export function applyDiscount(order) {
  if (!order) {
    return null;
  }
  let total = 0;
  for (const line of order.lines) {
    if (line.eligible && line.price > 0) {
      total += line.price * 0.9;
    }
  }
  return total;
}
`
	if err := os.WriteFile(filepath.Join(src, "discount.ts"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return root
}

func textContent(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) != 1 {
		t.Fatalf("expected 1 content block, got %d", len(result.Content))
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func TestHandleScanRepository(t *testing.T) {
	root := testRepo(t)

	result, _, err := handleScanRepository(context.Background(), nil, ScanRepositoryInput{
		ScanInput: ScanInput{Path: root},
	})
	if err != nil {
		t.Fatalf("handleScanRepository() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", textContent(t, result))
	}

	text := textContent(t, result)
	if !strings.Contains(text, "applyDiscount") {
		t.Errorf("report missing extracted unit, got:\n%s", text)
	}
	if !strings.Contains(text, "scan_type") {
		t.Errorf("report missing scan_type field")
	}
}

func TestHandleAuditHotspots(t *testing.T) {
	root := testRepo(t)

	result, _, err := handleAuditHotspots(context.Background(), nil, AuditHotspotsInput{
		ScanInput: ScanInput{Path: root, Format: "json"},
	})
	if err != nil {
		t.Fatalf("handleAuditHotspots() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", textContent(t, result))
	}
	if text := textContent(t, result); !strings.Contains(text, "summary") {
		t.Errorf("output missing summary block:\n%s", text)
	}
}

func TestHandleFindDuplicateLogic(t *testing.T) {
	root := testRepo(t)

	result, _, err := handleFindDuplicateLogic(context.Background(), nil, FindDuplicateLogicInput{
		ScanInput: ScanInput{Path: root},
	})
	if err != nil {
		t.Fatalf("handleFindDuplicateLogic() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", textContent(t, result))
	}
	if text := textContent(t, result); !strings.Contains(text, "redundancy_score") {
		t.Errorf("output missing redundancy_score:\n%s", text)
	}
}
