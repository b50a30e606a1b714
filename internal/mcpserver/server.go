// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes catatan notes for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/catatan/internal/markdown"
	"github.com/starford/catatan/internal/models"
	"github.com/starford/catatan/internal/noteservice"
	"github.com/starford/catatan/internal/store"
)

const noteFormatURI = "catatan://note-format"

// Server wraps the MCP server with catatan tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *noteservice.Service
	owner string
}

// New creates a new MCP server with all tools registered. owner is the
// identity notes are created under; without it the server is read-only.
func New(svc *noteservice.Service, owner string) *Server {
	s := &Server{svc: svc, owner: owner}

	s.mcp = server.NewMCPServer(
		"Catatan",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List note summaries, newest first. Optionally filter by category or progress."),
		mcp.WithString("category", mcp.Description("prioritas, medium or santai")),
		mcp.WithString("progress", mcp.Description("belumMulai, sedangDikerjakan or selesai")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through note titles and text."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note as Markdown with a YAML header."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note from Markdown. "+
			"Content MUST follow the note format; read it first via the "+
			"get_note_contract tool or the "+noteFormatURI+" resource."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content following the note format")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("toggle_checklist_item",
		mcp.WithDescription("Flip the first checklist item whose text matches exactly."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("item", mcp.Required(), mcp.Description("Checklist item text")),
	), s.toggleChecklistItem)

	s.mcp.AddTool(mcp.NewTool("upload_image",
		mcp.WithDescription("Store an image from a data URI or http(s) URL. "+
			"Returns a markdownImage field ready to paste into a note body. "+
			"With note_id the image is also appended to that note."),
		mcp.WithString("url", mcp.Required(), mcp.Description("data:image/...;base64,... or http(s) URL")),
		mcp.WithString("note_id", mcp.Description("Optional note to attach the image to")),
	), s.uploadImage)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the note Markdown format. "+
			"Call this before creating notes to ensure correct structure."),
	), s.getNoteContract)

	s.mcp.AddResource(
		mcp.NewResource(noteFormatURI, "Note Format Contract",
			mcp.WithResourceDescription("Markdown shape notes are exported in and imported from."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var f store.Filter
	if v := req.GetString("category", ""); v != "" {
		c, err := models.ParseCategory(v)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		f.Category = c
	}
	if v := req.GetString("progress", ""); v != "" {
		p, err := models.ParseProgress(v)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		f.Progress = p
	}
	items, err := s.svc.Summaries(ctx, f)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(items)
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.FetchByID(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, err := markdown.Export(n, s.svc.Location())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := markdown.Import([]byte(content))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := s.svc.Save(ctx, doc.Session(s.owner, s.svc.Location()), "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", id)), nil
}

func (s *Server) toggleChecklistItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	item, err := req.RequireString("item")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if s.owner == "" {
		return mcp.NewToolResultError("saving disabled: no owner configured"), nil
	}
	n, err := s.svc.ToggleChecklistItem(ctx, id, item)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	for _, u := range n.Content {
		for _, c := range u.ChecklistItems {
			if c.Text == item {
				return mcp.NewToolResultText(fmt.Sprintf("%s: checked=%t", item, c.Checked)), nil
			}
		}
	}
	return mcp.NewToolResultText("toggled"), nil
}

func (s *Server) getNoteContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      noteFormatURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
