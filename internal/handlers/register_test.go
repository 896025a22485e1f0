package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avdeevko/cropguard/internal/services"
)

func TestRegisterHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tests := []struct {
		name       string
		body       string
		setup      func(svc *MockRegisterer)
		wantStatus int
		wantError  string
	}{
		{
			name: "success",
			body: `{"username":"alice","password":"pass1234","email":"alice@example.com"}`,
			setup: func(svc *MockRegisterer) {
				svc.EXPECT().Register(gomock.Any(), "alice", "pass1234", "alice@example.com").Return(nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "invalid json",
			body:       `{"username":`,
			setup:      func(svc *MockRegisterer) {},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
		{
			name: "empty username",
			body: `{"username":"","password":"pass1234"}`,
			setup: func(svc *MockRegisterer) {
				svc.EXPECT().Register(gomock.Any(), "", "pass1234", "").Return(services.ErrInvalidUsername)
			},
			wantStatus: http.StatusBadRequest,
			wantError:  services.ErrInvalidUsername.Error(),
		},
		{
			name: "password too short",
			body: `{"username":"alice","password":"abc"}`,
			setup: func(svc *MockRegisterer) {
				svc.EXPECT().Register(gomock.Any(), "alice", "abc", "").Return(services.ErrPasswordTooShort)
			},
			wantStatus: http.StatusBadRequest,
			wantError:  services.ErrPasswordTooShort.Error(),
		},
		{
			name: "duplicate user",
			body: `{"username":"alice","password":"pass1234"}`,
			setup: func(svc *MockRegisterer) {
				svc.EXPECT().Register(gomock.Any(), "alice", "pass1234", "").Return(services.ErrUserAlreadyExists)
			},
			wantStatus: http.StatusConflict,
			wantError:  "Username already exists",
		},
		{
			name: "internal error",
			body: `{"username":"alice","password":"pass1234"}`,
			setup: func(svc *MockRegisterer) {
				svc.EXPECT().Register(gomock.Any(), "alice", "pass1234", "").Return(errors.New("db down"))
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewMockRegisterer(ctrl)
			tt.setup(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/register", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()

			NewRegisterHandler(svc)(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantError != "" {
				var resp RegisterErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, tt.wantError, resp.Error)
			} else {
				var resp RegisterResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, "User registered successfully", resp.Message)
			}
		})
	}
}
