package handler

import (
	"bytes"
	"encoding/json"
	"math/rand/v2"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/config"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/middleware"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/service"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testConfig = &config.Config{
	Auth: config.AuthConfig{JWTSecret: "test-secret", TokenExpireHours: 24},
	Users: []config.User{
		{Username: "ouvidoria", Password: "senha", Department: ""},
		{Username: "saude", Password: "senha", Department: "saude"},
	},
}

type testAPI struct {
	router  *gin.Engine
	service *service.ManifestationService
	objects *service.ObjectURLRegistry
}

type apiOption func(*apiOptions)

type apiOptions struct {
	maxBytes  int64
	fabricate bool
}

func withMaxBytes(n int64) apiOption { return func(o *apiOptions) { o.maxBytes = n } }
func withFabrication() apiOption     { return func(o *apiOptions) { o.fabricate = true } }

// newTestAPI wires the routes the way main does, without a durable tier.
func newTestAPI(t *testing.T, opts ...apiOption) *testAPI {
	t.Helper()
	var o apiOptions
	for _, opt := range opts {
		opt(&o)
	}

	now := time.Date(2026, 10, 19, 14, 30, 0, 0, time.Local)
	objects := service.NewObjectURLRegistry()
	iza := service.NewIZA("")
	svc := service.NewManifestationService(
		service.NewManifestationStore(nil, 0),
		service.NewProtocolGeneratorWith(func() time.Time { return now }, rand.New(rand.NewPCG(1, 2))),
		service.NewPreviewBuilder(objects),
		iza,
	).WithDemoFabrication(o.fabricate)
	t.Cleanup(func() { objects.RevokeAll() })

	manifestations := NewManifestationHandler(svc, o.maxBytes)
	uploads := NewUploadHandler(service.NewUploadService(nil, o.maxBytes))
	admin := NewAdminHandler(svc)
	auth := NewAuthHandler(testConfig)

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Recovery())
	api := router.Group("/api")
	api.GET("/health", NewHealthHandler().Health)
	api.POST("/manifestacoes", manifestations.Create)
	api.GET("/manifestacoes/:protocolo", manifestations.Get)
	api.POST("/iza/analyze", NewIZAHandler(iza).Analyze)
	api.POST("/upload", uploads.Upload)
	api.GET("/files/:id", uploads.File)
	api.GET("/blobs/:id", NewBlobHandler(objects).Get)
	api.POST("/auth/login", auth.Login)

	staff := api.Group("/admin", middleware.AuthMiddleware(&testConfig.Auth))
	staff.GET("/me", auth.GetCurrentUser)
	staff.GET("/manifestacoes/:protocolo", admin.Get)
	staff.PATCH("/manifestacoes/:protocolo", admin.Update)

	return &testAPI{router: router, service: svc, objects: objects}
}

func (a *testAPI) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) doJSON(method, path string, body any, token string) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.do(req)
}

type filePart struct {
	field, name, contentType string
	data                     []byte
}

func multipartRequest(t *testing.T, path string, fields map[string]string, files ...filePart) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField failed: %v", err)
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.name+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("CreatePart failed: %v", err)
		}
		part.Write(f.data)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response %q: %v", w.Body.String(), err)
	}
	return body
}
