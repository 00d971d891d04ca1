package integration__test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"
	"time"

	"github.com/geocoder89/photohub/internal/auth"
	"github.com/geocoder89/photohub/internal/cache"
	"github.com/geocoder89/photohub/internal/classifier"
	"github.com/geocoder89/photohub/internal/config"
	"github.com/geocoder89/photohub/internal/db"
	apphttp "github.com/geocoder89/photohub/internal/http"
	"github.com/geocoder89/photohub/internal/observability"
	"github.com/geocoder89/photohub/internal/photostore"
	"github.com/geocoder89/photohub/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

func testConfig(t *testing.T) config.Config {
	return config.Config{
		Env:                "test",
		AppName:            "photo-classification-api",
		AdminEmail:         "admin@example.com",
		AdminPassword:      "admin123",
		JWTSecret:          "test-secret-key",
		JWTAlgorithm:       "HS256",
		JWTExpMinutes:      60,
		StoragePath:        t.TempDir(),
		MaxUploadBytes:     1024,
		CORSAllowedOrigins: []string{"*"},
	}
}

type testApp struct {
	router http.Handler
	pool   *pgxpool.Pool
	cfg    config.Config
}

// setupApp wires the real API against TEST_DB_DSN and a classifier service
// served from httptest.
func setupApp(t *testing.T) testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to create pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if _, err := pool.Exec(ctx, `TRUNCATE audit_logs, submissions, users CASCADE`); err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}

	cfg := testConfig(t)

	if _, err := db.EnsureAdminUser(ctx, pool, cfg); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	classifierSrv := httptest.NewServer(apphttp.NewClassifierRouter(logger, cfg, nil, nil))
	t.Cleanup(classifierSrv.Close)

	jwtManager, err := auth.NewManager(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.JWTTTL())
	if err != nil {
		t.Fatalf("jwt manager: %v", err)
	}

	prom := observability.NewProm(prometheus.NewRegistry(), "test")

	router := apphttp.NewRouter(logger, cfg, apphttp.Deps{
		Users:       postgres.NewUsersRepo(pool, prom),
		Submissions: cache.NewCachingSubmissions(postgres.NewSubmissionsRepo(pool, prom), cache.New(time.Minute), ""),
		Classifier:  classifier.NewClient(classifierSrv.URL, classifierSrv.Client()),
		Photos:      photostore.NewLocalStore(cfg.StoragePath, cfg.MaxUploadBytes),
		JWT:         jwtManager,
		Prom:        prom,
	})

	return testApp{router: router, pool: pool, cfg: cfg}
}

func doJSON(router http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func doMultipart(t *testing.T, router http.Handler, token string, fields map[string]string, photo []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}

	if photo != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="photo"; filename="../../etc/evil.jpg"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(photo); err != nil {
			t.Fatalf("write photo: %v", err)
		}
	}

	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/submissions", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func mustReadJSON[T any](t *testing.T, w *httptest.ResponseRecorder, out *T) {
	t.Helper()
	err := json.Unmarshal(w.Body.Bytes(), out)
	if err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}
}

func register(t *testing.T, router http.Handler, email, password string) string {
	t.Helper()

	w := doJSON(router, http.MethodPost, "/auth/register", `{"email":"`+email+`","password":"`+password+`"}`, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body=%s", email, w.Code, w.Body.String())
	}

	var resp tokenResponse
	mustReadJSON(t, w, &resp)
	return resp.AccessToken
}

func login(t *testing.T, router http.Handler, email, password string) string {
	t.Helper()

	w := doJSON(router, http.MethodPost, "/auth/login", `{"email":"`+email+`","password":"`+password+`"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body=%s", email, w.Code, w.Body.String())
	}

	var resp tokenResponse
	mustReadJSON(t, w, &resp)
	return resp.AccessToken
}

func submissionFields(name, age, gender, place, country string) map[string]string {
	return map[string]string{
		"name":              name,
		"age":               age,
		"gender":            gender,
		"place_of_living":   place,
		"country_of_origin": country,
	}
}
