package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propkit/marketing-kit-api/internal/domain/model"
	"github.com/propkit/marketing-kit-api/internal/service"
)

type generateForm struct {
	fields map[string]string
	photos []string // client-side filenames; content is synthetic
}

func newGenerateRequest(t *testing.T, form generateForm) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range form.fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for i, name := range form.photos {
		part, err := mw.CreateFormFile(photosFieldName, name)
		require.NoError(t, err)
		_, err = io.WriteString(part, strings.Repeat("x", 64+i))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/api/generate", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func newGenerateHandlers(t *testing.T, ent *fakeEntitlement, gen *fakeGenerator) *GenerateHandlers {
	t.Helper()
	return &GenerateHandlers{
		Entitlement: ent,
		Pipeline:    gen,
		UploadRoot:  t.TempDir(),
	}
}

func readyResult(jobID, key string) *service.GenerateResult {
	return &service.GenerateResult{
		Job:         &model.Job{ID: jobID, Status: model.JobStatusReady},
		ArtifactKey: key,
	}
}

func TestGenerateHandlerHappyPath(t *testing.T) {
	ent := &fakeEntitlement{}
	gen := &fakeGenerator{result: readyResult("job-1", "kits/job-1.zip")}
	h := newGenerateHandlers(t, ent, gen)

	w := httptest.NewRecorder()
	h.Generate(w, newGenerateRequest(t, generateForm{
		fields: map[string]string{
			"kind":    "demo",
			"address": "123 Main St",
			"details": "corner lot",
		},
		photos: []string{"front.JPG", "back.jpg", "yard.png"},
	}))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp generateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "job-1", resp.JobID)
	assert.Equal(t, "ready", resp.Status)
	assert.Equal(t, "/download/s3/kits/job-1.zip", resp.Download)

	require.NotNil(t, gen.lastReq)
	assert.Equal(t, "123 Main St", gen.lastReq.Address)
	assert.Equal(t, "corner lot", gen.lastReq.Details)
	assert.Equal(t, model.JobKindDemo, gen.lastReq.Kind)
	require.Len(t, gen.lastReq.PhotoPaths, 3)
	// Staged paths keep input order; client names are reduced to extensions.
	assert.True(t, strings.HasSuffix(gen.lastReq.PhotoPaths[0], "photo-001.jpg"))
	assert.True(t, strings.HasSuffix(gen.lastReq.PhotoPaths[1], "photo-002.jpg"))
	assert.True(t, strings.HasSuffix(gen.lastReq.PhotoPaths[2], "photo-003.png"))

	// Staged uploads are removed once the handler returns.
	for _, p := range gen.lastReq.PhotoPaths {
		_, err := os.Stat(p)
		assert.True(t, os.IsNotExist(err), "expected %s to be cleaned up", p)
	}
}

func TestGenerateHandlerValidation(t *testing.T) {
	tests := []struct {
		name     string
		form     generateForm
		wantCode string
	}{
		{
			name: "unknown kind",
			form: generateForm{
				fields: map[string]string{"kind": "gift", "address": "1 Elm St"},
				photos: []string{"a.jpg"},
			},
			wantCode: "invalid_kind",
		},
		{
			name: "missing address",
			form: generateForm{
				fields: map[string]string{"kind": "demo", "address": "   "},
				photos: []string{"a.jpg"},
			},
			wantCode: "missing_address",
		},
		{
			name: "no photos",
			form: generateForm{
				fields: map[string]string{"kind": "demo", "address": "1 Elm St"},
			},
			wantCode: "missing_photos",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ent := &fakeEntitlement{}
			gen := &fakeGenerator{result: readyResult("j", "k")}
			h := newGenerateHandlers(t, ent, gen)

			w := httptest.NewRecorder()
			h.Generate(w, newGenerateRequest(t, tt.form))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body["error"])
			assert.Zero(t, ent.calls, "validation failures must precede entitlement")
			assert.Zero(t, gen.calls)
		})
	}
}

func TestGenerateHandlerSurvivesClientDisconnect(t *testing.T) {
	ent := &fakeEntitlement{}
	gen := &fakeGenerator{result: readyResult("job-9", "kits/job-9.zip")}
	h := newGenerateHandlers(t, ent, gen)

	// The client drops the connection while the pipeline is running.
	ctx, cancel := context.WithCancel(context.Background())
	gen.onGenerate = cancel

	r := newGenerateRequest(t, generateForm{
		fields: map[string]string{"kind": "demo", "address": "1 Elm St"},
		photos: []string{"a.jpg"},
	}).WithContext(ctx)
	w := httptest.NewRecorder()
	h.Generate(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, gen.lastCtx)
	assert.NoError(t, gen.lastCtx.Err(), "a dropped connection must not abort the pipeline")
}

func TestGenerateHandlerEmailFromCheckoutSession(t *testing.T) {
	ent := &fakeEntitlement{payerEmail: "payer@example.com"}
	gen := &fakeGenerator{result: readyResult("job-2", "kits/job-2.zip")}
	h := newGenerateHandlers(t, ent, gen)

	w := httptest.NewRecorder()
	h.Generate(w, newGenerateRequest(t, generateForm{
		fields: map[string]string{"kind": "one_time", "address": "1 Elm St", "sessionId": "cs_1"},
		photos: []string{"a.jpg"},
	}))

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, gen.lastReq)
	assert.Equal(t, "payer@example.com", gen.lastReq.Email,
		"the checkout email backfills a form that omits one")
}

func TestGenerateHandlerFormEmailWinsOverSession(t *testing.T) {
	ent := &fakeEntitlement{payerEmail: "payer@example.com"}
	gen := &fakeGenerator{result: readyResult("job-3", "kits/job-3.zip")}
	h := newGenerateHandlers(t, ent, gen)

	w := httptest.NewRecorder()
	h.Generate(w, newGenerateRequest(t, generateForm{
		fields: map[string]string{
			"kind": "one_time", "address": "1 Elm St",
			"email": "buyer@example.com", "sessionId": "cs_1",
		},
		photos: []string{"a.jpg"},
	}))

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, gen.lastReq)
	assert.Equal(t, "buyer@example.com", gen.lastReq.Email)
}

func TestGenerateHandlerMissingEmailEverywhere(t *testing.T) {
	ent := &fakeEntitlement{} // authorized, but the session carried no email
	gen := &fakeGenerator{}
	h := newGenerateHandlers(t, ent, gen)

	w := httptest.NewRecorder()
	h.Generate(w, newGenerateRequest(t, generateForm{
		fields: map[string]string{"kind": "one_time", "address": "1 Elm St", "sessionId": "cs_1"},
		photos: []string{"a.jpg"},
	}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "missing_email", body["error"])
	assert.Equal(t, 1, ent.calls)
	assert.Zero(t, gen.calls)
}

func TestGenerateHandlerTooManyPhotos(t *testing.T) {
	ent := &fakeEntitlement{}
	gen := &fakeGenerator{result: readyResult("j", "k")}
	h := newGenerateHandlers(t, ent, gen)
	h.MaxFiles = 2

	w := httptest.NewRecorder()
	h.Generate(w, newGenerateRequest(t, generateForm{
		fields: map[string]string{"kind": "demo", "address": "1 Elm St"},
		photos: []string{"a.jpg", "b.jpg", "c.jpg"},
	}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, gen.calls)
}

func TestGenerateHandlerMissingSession(t *testing.T) {
	ent := &fakeEntitlement{err: service.ErrMissingSession}
	gen := &fakeGenerator{}
	h := newGenerateHandlers(t, ent, gen)

	w := httptest.NewRecorder()
	h.Generate(w, newGenerateRequest(t, generateForm{
		fields: map[string]string{"kind": "one_time", "address": "1 Elm St", "email": "b@e.c"},
		photos: []string{"a.jpg"},
	}))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, gen.calls, "unauthorized requests never reach the pipeline")
}

func TestGenerateHandlerPaymentRequired(t *testing.T) {
	ent := &fakeEntitlement{err: service.ErrPaymentRequired}
	gen := &fakeGenerator{}
	h := newGenerateHandlers(t, ent, gen)

	w := httptest.NewRecorder()
	h.Generate(w, newGenerateRequest(t, generateForm{
		fields: map[string]string{"kind": "one_time", "address": "1 Elm St", "email": "b@e.c", "sessionId": "cs_1"},
		photos: []string{"a.jpg"},
	}))

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Zero(t, gen.calls)
}

func TestGenerateHandlerPipelineFailure(t *testing.T) {
	ent := &fakeEntitlement{}
	gen := &fakeGenerator{err: errors.New("render document: boom with secrets")}
	h := newGenerateHandlers(t, ent, gen)

	w := httptest.NewRecorder()
	h.Generate(w, newGenerateRequest(t, generateForm{
		fields: map[string]string{"kind": "demo", "address": "1 Elm St"},
		photos: []string{"a.jpg"},
	}))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "generation_failed", body["error"])
	assert.NotContains(t, body["message"], "secrets", "failure detail stays server-side")

	// Staged files are cleaned up on the failure path too.
	require.NotNil(t, gen.lastReq)
	for _, p := range gen.lastReq.PhotoPaths {
		_, err := os.Stat(p)
		assert.True(t, os.IsNotExist(err))
	}
}

func TestGenerateHandlerRejectsNonMultipart(t *testing.T) {
	h := newGenerateHandlers(t, &fakeEntitlement{}, &fakeGenerator{})

	r := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{"kind":"demo"}`))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.Generate(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSafeExt(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"front.JPG", ".jpg"},
		{"a.png", ".png"},
		{"noext", ""},
		{"trailing.", ""},
		{"../../etc/passwd", ""},
		{"weird.j p", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, safeExt(tt.in), "safeExt(%q)", tt.in)
	}
}
