package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"chatvault/internal/service"
	service_mocks "chatvault/internal/service/mocks"
	"chatvault/internal/storage"
)

func TestPagesHandler_Library(t *testing.T) {
	ctrl := gomock.NewController(t)
	library := service_mocks.NewMockLibraryService(ctrl)
	handler := NewPagesHandler(library)

	library.EXPECT().SearchThreads(gomock.Any(), "rust", service.MaxSearchLimit).Return([]storage.ThreadSummary{
		{ID: "t1", Title: "Rust <borrow> checker", Platform: "Claude", UpdatedAt: time.Now(), Preview: "lifetimes"},
	}, nil)

	w := httptest.NewRecorder()
	handler.Library(w, httptest.NewRequest(http.MethodGet, "/?q=rust", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Library() status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `href="/threads/t1"`) {
		t.Errorf("Library() missing thread link: %s", body)
	}
	if !strings.Contains(body, "Rust &lt;borrow&gt; checker") {
		t.Errorf("Library() did not escape title")
	}
	if !strings.Contains(body, `value="rust"`) {
		t.Errorf("Library() did not echo query")
	}
}

func TestPagesHandler_Thread(t *testing.T) {
	ctrl := gomock.NewController(t)
	library := service_mocks.NewMockLibraryService(ctrl)
	handler := NewPagesHandler(library)

	library.EXPECT().GetThread(gomock.Any(), "t1").Return(&storage.ThreadDetail{
		ThreadRecord: storage.ThreadRecord{ID: "t1", Title: "Markdown"},
		Platform:     "ChatGPT",
		Messages: []storage.MessageDetail{
			{MessageRecord: storage.MessageRecord{ID: "m1", Role: "user", Content: "Use **bold** <script>alert(1)</script>"}},
		},
	}, nil)
	library.EXPECT().GetThread(gomock.Any(), "gone").Return(nil, service.ErrNotFound)

	w := httptest.NewRecorder()
	handler.Thread(w, withURLParam(httptest.NewRequest(http.MethodGet, "/threads/t1", nil), "id", "t1"))
	if w.Code != http.StatusOK {
		t.Fatalf("Thread() status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "<strong>bold</strong>") {
		t.Errorf("Thread() did not render markdown: %s", body)
	}
	if strings.Contains(body, "<script>alert(1)</script>") {
		t.Errorf("Thread() rendered raw HTML from message content")
	}

	w = httptest.NewRecorder()
	handler.Thread(w, withURLParam(httptest.NewRequest(http.MethodGet, "/threads/gone", nil), "id", "gone"))
	if w.Code != http.StatusNotFound {
		t.Errorf("Thread() status = %d, want 404", w.Code)
	}
}
