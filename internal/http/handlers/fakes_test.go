package handlers_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/geocoder89/photohub/internal/domain/submission"
	"github.com/geocoder89/photohub/internal/domain/user"
	"github.com/geocoder89/photohub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUsers struct {
	getByEmailFn func(ctx context.Context, email string) (user.User, error)
	createFn     func(ctx context.Context, u user.User) error
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}
	return user.User{}, nil
}

func (f *fakeUsers) Create(ctx context.Context, u user.User) error {
	if f.createFn != nil {
		return f.createFn(ctx, u)
	}
	return nil
}

type fakeTokens struct{}

func (fakeTokens) GenerateAccessToken(userID string, isAdmin bool) (string, error) {
	if isAdmin {
		return "token-admin-" + userID, nil
	}
	return "token-" + userID, nil
}

type fakeSubmissions struct {
	createFn       func(ctx context.Context, userID string, req submission.CreateSubmissionRequest, photoPath, label string) (submission.Submission, error)
	getFn          func(ctx context.Context, id string) (submission.Submission, error)
	listFilteredFn func(ctx context.Context, f submission.ListFilter) ([]submission.Submission, error)
	listLatestFn   func(ctx context.Context, limit int) ([]submission.Submission, error)
}

func (f *fakeSubmissions) Create(ctx context.Context, userID string, req submission.CreateSubmissionRequest, photoPath, label string) (submission.Submission, error) {
	if f.createFn != nil {
		return f.createFn(ctx, userID, req, photoPath, label)
	}
	return submission.New(userID, req, photoPath, label), nil
}

func (f *fakeSubmissions) GetByID(ctx context.Context, id string) (submission.Submission, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return submission.Submission{}, submission.ErrNotFound
}

func (f *fakeSubmissions) ListFiltered(ctx context.Context, flt submission.ListFilter) ([]submission.Submission, error) {
	if f.listFilteredFn != nil {
		return f.listFilteredFn(ctx, flt)
	}
	return []submission.Submission{}, nil
}

func (f *fakeSubmissions) ListLatest(ctx context.Context, limit int) ([]submission.Submission, error) {
	if f.listLatestFn != nil {
		return f.listLatestFn(ctx, limit)
	}
	return []submission.Submission{}, nil
}

type fakeClassifier struct {
	classifyFn func(ctx context.Context, m submission.Metadata) (string, error)
	calls      int
}

func (f *fakeClassifier) Classify(ctx context.Context, m submission.Metadata) (string, error) {
	f.calls++
	if f.classifyFn != nil {
		return f.classifyFn(ctx, m)
	}
	return "standard", nil
}

type fakePhotos struct {
	saveFn  func(ctx context.Context, content io.Reader, contentType string) (string, error)
	saved   int
	removed []string
}

func (f *fakePhotos) Save(ctx context.Context, content io.Reader, contentType string) (string, error) {
	f.saved++
	if f.saveFn != nil {
		return f.saveFn(ctx, content, contentType)
	}
	return "/data/photos/generated.jpg", nil
}

func (f *fakePhotos) Remove(ctx context.Context, path string) error {
	f.removed = append(f.removed, path)
	return nil
}

// asUser stands in for RequireAuth.
func asUser(u user.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middlewares.CtxUser, u)
		c.Next()
	}
}

func setupRouter(method, path string, h ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, h...)

	return r
}

func multipartBody(t *testing.T, fields map[string]string, photo []byte, contentType string) (*bytes.Buffer, string) {
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
		h.Set("Content-Disposition", `form-data; name="photo"; filename="me.jpg"`)
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
		t.Fatalf("close writer: %v", err)
	}

	return &buf, mw.FormDataContentType()
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
