package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"chatvault/internal/contextutil"
	"chatvault/internal/service"
)

// ThreadsHandler serves the thread API.
type ThreadsHandler struct {
	library service.LibraryService
}

// NewThreadsHandler creates a new ThreadsHandler.
func NewThreadsHandler(library service.LibraryService) *ThreadsHandler {
	return &ThreadsHandler{library: library}
}

// List handles thread search.
//
// swagger:route GET /api/threads searchThreads
//
// # Search threads
//
// Case-insensitive substring search over titles and message content, newest
// first. An empty q lists every thread.
//
// ---
// parameters:
//   - name: q
//     in: query
//     type: string
//   - name: limit
//     in: query
//     type: integer
//     description: 1 to 100, default 20
//
// responses:
//
//	'200':
//	  description: Matching threads
//	'400':
//	  description: Invalid limit
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *ThreadsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	threads, err := h.library.SearchThreads(ctx, r.URL.Query().Get("q"), limit)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, summaryResponses(threads))
}

// Get returns one thread with its messages and attachments.
//
// swagger:route GET /api/threads/{id} getThread
//
// responses:
//
//	'200':
//	  schema:
//	    "$ref": "#/definitions/ThreadResponse"
//	'404':
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *ThreadsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	thread, err := h.library.GetThread(ctx, id)
	if err != nil {
		contextutil.LoggerFromContext(ctx).DebugContext(ctx, "thread lookup failed", "thread_id", id, "error", err)
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, threadResponse(thread))
}
