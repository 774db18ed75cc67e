package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"chatvault/internal/service"
	service_mocks "chatvault/internal/service/mocks"
	"chatvault/internal/storage"
)

func TestImportHandler(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		body           string
		defaultPartial bool
		setup          func(*service_mocks.MockImportService)
		expectedStatus int
	}{
		{
			name:           "accepted with explicit strict mode",
			method:         http.MethodPost,
			body:           `{"paths":["/data/export.json"],"platform_hint":"chatgpt","allow_partial":false}`,
			defaultPartial: true,
			setup: func(m *service_mocks.MockImportService) {
				m.EXPECT().StartImport(gomock.Any(), service.ImportRequest{
					Paths:        []string{"/data/export.json"},
					PlatformHint: "chatgpt",
					AllowPartial: false,
				}).Return(&storage.Job{ID: "job-1", Status: storage.JobPending}, nil)
			},
			expectedStatus: http.StatusAccepted,
		},
		{
			name:           "allow_partial defaults from config",
			method:         http.MethodPost,
			body:           `{"paths":["/data"]}`,
			defaultPartial: true,
			setup: func(m *service_mocks.MockImportService) {
				m.EXPECT().StartImport(gomock.Any(), service.ImportRequest{
					Paths:        []string{"/data"},
					AllowPartial: true,
				}).Return(&storage.Job{ID: "job-2", Status: storage.JobPending}, nil)
			},
			expectedStatus: http.StatusAccepted,
		},
		{
			name:   "busy",
			method: http.MethodPost,
			body:   `{"paths":["/data"]}`,
			setup: func(m *service_mocks.MockImportService) {
				m.EXPECT().StartImport(gomock.Any(), gomock.Any()).Return(nil, service.WrapError(service.ErrConflict, "busy"))
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:   "validation error",
			method: http.MethodPost,
			body:   `{"paths":[]}`,
			setup: func(m *service_mocks.MockImportService) {
				m.EXPECT().StartImport(gomock.Any(), gomock.Any()).Return(nil, &service.ValidationError{Field: "paths", Message: "at least one path is required"})
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed body",
			method:         http.MethodPost,
			body:           `{"paths":`,
			setup:          func(*service_mocks.MockImportService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown field",
			method:         http.MethodPost,
			body:           `{"path":"/data"}`,
			setup:          func(*service_mocks.MockImportService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "wrong method",
			method:         http.MethodGet,
			setup:          func(*service_mocks.MockImportService) {},
			expectedStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			imports := service_mocks.NewMockImportService(ctrl)
			tt.setup(imports)
			handler := NewImportHandler(imports, tt.defaultPartial)

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(tt.method, "/api/imports", strings.NewReader(tt.body)))

			if w.Code != tt.expectedStatus {
				t.Fatalf("ServeHTTP() status = %d, want %d (body %s)", w.Code, tt.expectedStatus, w.Body.String())
			}
			if w.Code == http.StatusAccepted {
				var resp ImportResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if resp.JobID == "" || resp.Status != "pending" {
					t.Errorf("ServeHTTP() response = %+v", resp)
				}
			}
		})
	}
}
