package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/catatan/internal/noteservice"
	"github.com/starford/catatan/internal/testutil"
)

func testServer(t *testing.T, owner string) *Server {
	t.Helper()
	svc := noteservice.NewService(testutil.TestDB(t), testutil.TestImages(t), nil, time.UTC)
	return New(svc, owner)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "search_notes":
		result, err = srv.searchNotes(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "create_note":
		result, err = srv.createNote(ctx, req)
	case "toggle_checklist_item":
		result, err = srv.toggleChecklistItem(ctx, req)
	case "upload_image":
		result, err = srv.uploadImage(ctx, req)
	case "get_note_contract":
		result, err = srv.getNoteContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

const sampleMarkdown = `---
title: Belanja
category: prioritas
---

Beli di pasar.

- [ ] susu
- [ ] telur
`

func createSample(t *testing.T, srv *Server) string {
	t.Helper()
	r := callTool(t, srv, "create_note", map[string]interface{}{"content": sampleMarkdown})
	text := resultText(r)
	if r.IsError || !strings.HasPrefix(text, "created: ") {
		t.Fatalf("create result = %q", text)
	}
	return strings.TrimPrefix(text, "created: ")
}

func TestCreateAndReadNote(t *testing.T) {
	srv := testServer(t, "agent")
	id := createSample(t, srv)

	r := callTool(t, srv, "read_note", map[string]interface{}{"id": id})
	text := resultText(r)
	for _, want := range []string{"title: Belanja", "category: prioritas", "Beli di pasar.", "- [ ] susu\n- [ ] telur"} {
		if !strings.Contains(text, want) {
			t.Errorf("read result missing %q:\n%s", want, text)
		}
	}
}

func TestCreateNote_NoOwner(t *testing.T) {
	srv := testServer(t, "")
	r := callTool(t, srv, "create_note", map[string]interface{}{"content": sampleMarkdown})
	if !r.IsError || !strings.Contains(resultText(r), "saving disabled") {
		t.Errorf("result = %q, want saving disabled error", resultText(r))
	}
}

func TestListNotes(t *testing.T) {
	srv := testServer(t, "agent")
	createSample(t, srv)

	r := callTool(t, srv, "list_notes", map[string]interface{}{"category": "prioritas"})
	var items []noteservice.Summary
	if err := json.Unmarshal([]byte(resultText(r)), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Belanja" {
		t.Errorf("items = %+v", items)
	}

	r = callTool(t, srv, "list_notes", map[string]interface{}{"category": "urgent"})
	if !r.IsError {
		t.Error("expected error for unknown category")
	}
}

func TestSearchNotes(t *testing.T) {
	srv := testServer(t, "agent")
	createSample(t, srv)
	r := callTool(t, srv, "search_notes", map[string]interface{}{"query": "pasar"})
	if r.IsError || !strings.Contains(resultText(r), "Belanja") {
		t.Errorf("search = %q", resultText(r))
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv := testServer(t, "agent")
	r := callTool(t, srv, "read_note", map[string]interface{}{"id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestToggleChecklistItem(t *testing.T) {
	srv := testServer(t, "agent")
	id := createSample(t, srv)

	r := callTool(t, srv, "toggle_checklist_item", map[string]interface{}{"id": id, "item": "telur"})
	if text := resultText(r); text != "telur: checked=true" {
		t.Errorf("toggle = %q", text)
	}
	r = callTool(t, srv, "toggle_checklist_item", map[string]interface{}{"id": id, "item": "roti"})
	if !r.IsError {
		t.Error("expected error for unknown item")
	}
}

func TestUploadImage_DataURI(t *testing.T) {
	srv := testServer(t, "agent")
	id := createSample(t, srv)
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(testutil.PNG)

	r := callTool(t, srv, "upload_image", map[string]interface{}{"url": uri, "note_id": id})
	if r.IsError {
		t.Fatalf("upload error: %s", resultText(r))
	}
	var res uploadResult
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(res.Key, ".png") || res.MarkdownImage != "![]("+res.URL+")" {
		t.Errorf("result = %+v", res)
	}

	read := resultText(callTool(t, srv, "read_note", map[string]interface{}{"id": id}))
	if !strings.Contains(read, res.MarkdownImage) {
		t.Errorf("note does not reference the image:\n%s", read)
	}
}

func TestUploadImage_Rejects(t *testing.T) {
	srv := testServer(t, "agent")
	cases := map[string]string{
		"not base64":   "data:image/png,abc",
		"wrong mime":   "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hi")),
		"not an image": "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("plain text")),
		"bad scheme":   "ftp://example.com/a.png",
		"loopback":     "http://127.0.0.1/a.png",
	}
	for name, uri := range cases {
		r := callTool(t, srv, "upload_image", map[string]interface{}{"url": uri})
		if !r.IsError {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestNoteContract(t *testing.T) {
	srv := testServer(t, "")
	text := resultText(callTool(t, srv, "get_note_contract", map[string]interface{}{}))
	if !strings.Contains(text, "upload_image") {
		t.Error("contract should mention upload_image")
	}
}
