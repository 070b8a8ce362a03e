package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"docquery/internal/gateway"
	"docquery/internal/service"
	"docquery/internal/service/mocks"
)

type fakeQuota struct{ status gateway.QuotaStatus }

func (f fakeQuota) QuotaStatus() gateway.QuotaStatus { return f.status }

func TestGenerateHandler(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		mockSetup func(m *mocks.MockGenerateService)
		wantCode  int
		wantText  string
	}{
		{
			name: "success",
			body: `{"prompt":"hello","temperature":0.2,"max_tokens":32,"block":true}`,
			mockSetup: func(m *mocks.MockGenerateService) {
				m.EXPECT().Generate(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ any, req service.GenerateRequest) (service.GenerateResponse, error) {
						if req.Prompt != "hello" || req.Temperature == nil || *req.Temperature != 0.2 ||
							req.MaxTokens != 32 || !req.Block {
							t.Errorf("GenerateRequest = %+v", req)
						}
						return service.GenerateResponse{Text: "hi"}, nil
					})
			},
			wantCode: http.StatusOK,
			wantText: "hi",
		},
		{
			name:      "invalid json",
			body:      `{`,
			mockSetup: func(*mocks.MockGenerateService) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "validation error",
			body: `{"prompt":""}`,
			mockSetup: func(m *mocks.MockGenerateService) {
				m.EXPECT().Generate(gomock.Any(), gomock.Any()).
					Return(service.GenerateResponse{}, &service.ValidationError{Field: "prompt", Message: "cannot be empty"})
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "rate limited",
			body: `{"prompt":"x"}`,
			mockSetup: func(m *mocks.MockGenerateService) {
				m.EXPECT().Generate(gomock.Any(), gomock.Any()).
					Return(service.GenerateResponse{}, service.WrapError(gateway.ErrRateLimitExceeded, "failed to generate"))
			},
			wantCode: http.StatusTooManyRequests,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			m := mocks.NewMockGenerateService(ctrl)
			tt.mockSetup(m)

			rec := httptest.NewRecorder()
			NewGenerateHandler(m).ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/generate", strings.NewReader(tt.body), nil))

			if rec.Code != tt.wantCode {
				t.Fatalf("status code = %d, want %d (%s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantText != "" {
				if resp := decodeBody[GenerateResponse](t, rec); resp.Text != tt.wantText {
					t.Errorf("text = %q, want %q", resp.Text, tt.wantText)
				}
			}
		})
	}
}

func TestQuotaHandler(t *testing.T) {
	q := fakeQuota{status: gateway.QuotaStatus{Model: "gemini-1.5-flash"}}
	q.status.Used = 3
	q.status.Max = 60

	rec := httptest.NewRecorder()
	NewQuotaHandler(q).ServeHTTP(rec, newRequest(http.MethodGet, "/api/v1/quota", nil, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"model":"gemini-1.5-flash"`) || !strings.Contains(body, `"used":3`) {
		t.Errorf("body = %s", body)
	}
}
