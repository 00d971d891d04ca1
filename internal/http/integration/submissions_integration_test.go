package integration__test

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/geocoder89/photohub/internal/domain/submission"
)

var jpegBytes = []byte("\xff\xd8\xff\xe0fake-jpeg")

func TestSubmission_MinorOwnerAndStranger(t *testing.T) {
	app := setupApp(t)

	owner := register(t, app.router, "a@x.com", "password1")

	w := doMultipart(t, app.router, owner, submissionFields("Jane", "12", "female", "Berlin", "DE"), jpegBytes, "image/jpeg")
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d body=%s", w.Code, w.Body.String())
	}

	var created submission.Submission
	mustReadJSON(t, w, &created)

	if created.ClassificationResult != "minor" {
		t.Fatalf("expected label minor, got %q", created.ClassificationResult)
	}
	if filepath.Dir(created.PhotoPath) != app.cfg.StoragePath || strings.Contains(created.PhotoPath, "evil") {
		t.Fatalf("photo stored under unexpected path %q", created.PhotoPath)
	}
	if stored, err := os.ReadFile(created.PhotoPath); err != nil || !bytes.Equal(stored, jpegBytes) {
		t.Fatalf("stored photo mismatch: err=%v", err)
	}

	var audits int
	err := app.pool.QueryRow(context.Background(),
		`SELECT count(*) FROM audit_logs WHERE user_id = $1 AND action = 'created_submission'`, created.UserID).Scan(&audits)
	if err != nil || audits != 1 {
		t.Fatalf("expected one audit row, got %d (err=%v)", audits, err)
	}

	w = doJSON(app.router, http.MethodGet, "/submissions/"+created.ID, "", owner)
	if w.Code != http.StatusOK {
		t.Fatalf("owner get: expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	stranger := register(t, app.router, "b@x.com", "password1")
	w = doJSON(app.router, http.MethodGet, "/submissions/"+created.ID, "", stranger)
	if w.Code != http.StatusForbidden {
		t.Fatalf("stranger get: expected 403, got %d body=%s", w.Code, w.Body.String())
	}

	admin := login(t, app.router, app.cfg.AdminEmail, app.cfg.AdminPassword)
	w = doJSON(app.router, http.MethodGet, "/submissions/"+created.ID, "", admin)
	if w.Code != http.StatusOK {
		t.Fatalf("admin get: expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(app.router, http.MethodGet, "/admin/submissions", "", stranger)
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-admin listing: expected 403, got %d", w.Code)
	}
}

func TestSubmission_RejectionsWriteNothing(t *testing.T) {
	app := setupApp(t)
	token := register(t, app.router, "c@x.com", "password1")

	cases := []struct {
		name   string
		fields map[string]string
		photo  []byte
		ctype  string
		status int
	}{
		{"age_out_of_range", submissionFields("Old", "121", "m", "x", "y"), jpegBytes, "image/jpeg", http.StatusBadRequest},
		{"missing_photo", submissionFields("NoPhoto", "30", "m", "x", "y"), nil, "", http.StatusBadRequest},
		{"gif_rejected", submissionFields("Gif", "30", "m", "x", "y"), []byte("GIF89a"), "image/gif", http.StatusBadRequest},
		{"too_large", submissionFields("Big", "30", "m", "x", "y"), bytes.Repeat([]byte("x"), 1025), "image/png", http.StatusRequestEntityTooLarge},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doMultipart(t, app.router, token, tc.fields, tc.photo, tc.ctype)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d body=%s", tc.status, w.Code, w.Body.String())
			}
		})
	}

	var n int
	if err := app.pool.QueryRow(context.Background(), `SELECT count(*) FROM submissions`).Scan(&n); err != nil || n != 0 {
		t.Fatalf("expected no submissions, got %d (err=%v)", n, err)
	}

	entries, err := os.ReadDir(app.cfg.StoragePath)
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("read storage dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no stored photos, got %d", len(entries))
	}
}

func TestSubmission_RequiresToken(t *testing.T) {
	app := setupApp(t)

	w := doMultipart(t, app.router, "", submissionFields("Jane", "30", "f", "x", "y"), jpegBytes, "image/jpeg")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAdmin_FilterAndPanel(t *testing.T) {
	app := setupApp(t)
	user := register(t, app.router, "d@x.com", "password1")

	for _, f := range []map[string]string{
		submissionFields("Kid", "10", "male", "Lisbon", "PT"),
		submissionFields("Ana", "18", "female", "Porto", "PT"),
		submissionFields("Bo", "30", "male", "Berlin", "DE"),
		submissionFields("Cy", "31", "female", "Paris", "FR"),
	} {
		w := doMultipart(t, app.router, user, f, jpegBytes, "image/jpeg")
		if w.Code != http.StatusCreated {
			t.Fatalf("seed submission: %d body=%s", w.Code, w.Body.String())
		}
	}

	admin := login(t, app.router, app.cfg.AdminEmail, app.cfg.AdminPassword)

	w := doJSON(app.router, http.MethodGet, "/admin/submissions?age_min=18&age_max=30", "", admin)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	var inRange []submission.Submission
	mustReadJSON(t, w, &inRange)
	if len(inRange) != 2 || inRange[0].Name != "Bo" || inRange[1].Name != "Ana" {
		t.Fatalf("unexpected age range result: %+v", inRange)
	}

	w = doJSON(app.router, http.MethodGet, "/admin/submissions?country_of_origin=pt&gender=FEM", "", admin)
	var filtered []submission.Submission
	mustReadJSON(t, w, &filtered)
	if len(filtered) != 1 || filtered[0].Name != "Ana" {
		t.Fatalf("unexpected text filter result: %+v", filtered)
	}

	w = doJSON(app.router, http.MethodGet, "/admin/submissions?age_min=abc", "", admin)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric age_min, got %d", w.Code)
	}

	w = doJSON(app.router, http.MethodGet, "/admin", "", admin)
	if w.Code != http.StatusOK {
		t.Fatalf("panel: expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("panel content type %q", ct)
	}
	if !strings.Contains(w.Body.String(), "Cy") || !strings.Contains(w.Body.String(), "Kid") {
		t.Fatalf("panel missing rows: %s", w.Body.String())
	}
}
