package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"chatvault/internal/contextutil"
	"chatvault/internal/service"
	"chatvault/internal/storage"
)

// PagesHandler serves the HTML library and thread pages.
type PagesHandler struct {
	library  service.LibraryService
	parser   goldmark.Markdown
	template *template.Template
}

// libraryPageData holds template data for the library page.
type libraryPageData struct {
	Query   string
	Threads []storage.ThreadSummary
}

// threadPageData holds template data for a rendered thread.
type threadPageData struct {
	Thread   *storage.ThreadDetail
	Messages []renderedMessage
}

type renderedMessage struct {
	Role        string
	Timestamp   string
	Content     template.HTML
	Attachments []storage.AttachmentRecord
}

const pageStyle = `
    :root {
      color-scheme: dark;
    }
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
      margin: 0 auto;
      padding: 2rem;
      max-width: 900px;
      line-height: 1.7;
      background: #050b18;
      color: #e4ecff;
    }
    header {
      margin-bottom: 2rem;
      border-bottom: 1px solid rgba(148, 163, 184, 0.2);
      padding-bottom: 1.5rem;
    }
    h1 {
      margin-top: 0;
      color: #fff;
      font-size: 2rem;
    }
    article {
      background: rgba(12, 19, 35, 0.85);
      border: 1px solid rgba(99, 102, 241, 0.2);
      border-radius: 16px;
      padding: 1.25rem 2rem;
      margin-bottom: 1rem;
    }
    article.user {
      border-color: rgba(96, 165, 250, 0.5);
    }
    pre {
      background: #0f172a;
      padding: 1rem;
      overflow-x: auto;
      border-radius: 10px;
    }
    code {
      font-family: 'SFMono-Regular', Consolas, 'Liberation Mono', Menlo, monospace;
      background: rgba(99, 102, 241, 0.18);
      padding: 2px 5px;
      border-radius: 6px;
    }
    pre code {
      background: transparent;
      padding: 0;
    }
    a {
      color: #60a5fa;
      text-decoration: none;
    }
    a:hover {
      text-decoration: underline;
    }
    input[type=search] {
      width: 70%;
      padding: 0.5rem;
      border-radius: 8px;
      border: 1px solid rgba(99, 102, 241, 0.4);
      background: #0f172a;
      color: #e4ecff;
    }
    .meta {
      color: #94a3b8;
      font-size: 0.95rem;
    }
    @media (max-width: 640px) {
      body {
        padding: 1rem;
      }
    }`

const libraryTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>chatvault</title>
  <style>{{template "style"}}</style>
</head>
<body>
  <header>
    <h1>chatvault</h1>
    <form method="get" action="/">
      <input type="search" name="q" value="{{.Query}}" placeholder="Search conversations">
      <button type="submit">Search</button>
    </form>
  </header>
  {{range .Threads}}
  <article>
    <a href="/threads/{{.ID}}">{{if .Title}}{{.Title}}{{else}}Untitled{{end}}</a>
    <p class="meta">{{.Platform}} &middot; {{.UpdatedAt.Format "2006-01-02 15:04"}} &middot; {{.MessageCount}} messages &middot; {{.TotalTokens}} tokens</p>
    {{if .Preview}}<p>{{.Preview}}</p>{{end}}
  </article>
  {{else}}
  <p class="meta">No conversations found.</p>
  {{end}}
</body>
</html>`

const threadTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Thread.Title}} &middot; {{.Thread.Platform}}</title>
  <style>{{template "style"}}</style>
</head>
<body>
  <header>
    <p class="meta"><a href="/">&larr; Library</a></p>
    <h1>{{if .Thread.Title}}{{.Thread.Title}}{{else}}Untitled{{end}}</h1>
    <p class="meta">{{.Thread.Platform}} &middot; {{.Thread.CreatedAt.Format "2006-01-02 15:04"}} &middot; {{.Thread.MessageCount}} messages &middot; {{.Thread.TotalTokens}} tokens</p>
  </header>
  {{range .Messages}}
  <article class="{{.Role}}">
    <p class="meta">{{.Role}} &middot; {{.Timestamp}}</p>
    {{.Content}}
    {{range .Attachments}}<p class="meta">Attachment: {{.Filename}} ({{.MimeType}}, {{.FileSize}} bytes)</p>{{end}}
  </article>
  {{end}}
</body>
</html>`

// NewPagesHandler creates a new PagesHandler.
func NewPagesHandler(library service.LibraryService) *PagesHandler {
	tmpl := template.Must(template.New("style").Parse(pageStyle))
	template.Must(tmpl.New("library").Parse(libraryTemplate))
	template.Must(tmpl.New("thread").Parse(threadTemplate))

	return &PagesHandler{
		library: library,
		// Raw HTML in message content is omitted by the default renderer.
		parser: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Table,
				extension.Strikethrough,
				extension.Linkify,
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
		template: tmpl,
	}
}

// Library renders the thread list, filtered by ?q=.
func (h *PagesHandler) Library(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	threads, err := h.library.SearchThreads(ctx, query, service.MaxSearchLimit)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load library", "error", err)
		http.Error(w, "failed to load library", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "library", libraryPageData{Query: query, Threads: threads})
}

// Thread renders one thread with its messages as markdown.
func (h *PagesHandler) Thread(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	thread, err := h.library.GetThread(ctx, id)
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrInvalidInput):
		http.Error(w, "thread not found", http.StatusNotFound)
		return
	case err != nil:
		logger.ErrorContext(ctx, "failed to load thread", "thread_id", id, "error", err)
		http.Error(w, "failed to load thread", http.StatusInternalServerError)
		return
	}

	data := threadPageData{Thread: thread}
	for _, m := range thread.Messages {
		content, err := h.renderMarkdown([]byte(m.Content))
		if err != nil {
			logger.ErrorContext(ctx, "failed to render markdown", "message_id", m.ID, "error", err)
			http.Error(w, "failed to render thread", http.StatusInternalServerError)
			return
		}
		data.Messages = append(data.Messages, renderedMessage{
			Role:        m.Role,
			Timestamp:   m.Timestamp.Format("2006-01-02 15:04:05"),
			Content:     template.HTML(content),
			Attachments: m.Attachments,
		})
	}

	h.render(w, r, "thread", data)
}

func (h *PagesHandler) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := h.template.ExecuteTemplate(&buf, name, data); err != nil {
		ctx := r.Context()
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to execute template", "template", name, "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (h *PagesHandler) renderMarkdown(content []byte) (string, error) {
	var buf bytes.Buffer
	if err := h.parser.Convert(content, &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}
