package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Ducr/taro-mobile-open/project"
	"github.com/Ducr/taro-mobile-open/version"
)

type fakeBackend struct {
	mu      sync.Mutex
	auth    []string
	project project.Project
	updates int
	upload  string
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.auth = append(b.auth, r.Header.Get("Authorization"))

	reply := func(data any) {
		_ = json.NewEncoder(w).Encode(map[string]any{"code": 200, "msg": "ok", "data": data})
	}
	switch r.URL.Path {
	case "/project/project":
		if r.Method == http.MethodPut {
			b.updates++
			b.project.OpenbidStatus = project.OpenBidInProgress
			reply(nil)
			return
		}
		reply(map[string]any{"rows": []project.Project{b.project}, "total": 1})
	case "/project/detail":
		reply(b.project)
	case "/common/upload":
		f, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		body, _ := io.ReadAll(f)
		b.upload = string(body)
		_, _ = w.Write([]byte(`{"url":"/files/a.txt"}`))
	default:
		http.NotFound(w, r)
	}
}

func (b *fakeBackend) lastAuth() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.auth) == 0 {
		return ""
	}
	return b.auth[len(b.auth)-1]
}

func (b *fakeBackend) snapshot() (updates int, upload string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.updates, b.upload
}

type harness struct {
	backend *fakeBackend
	url     string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	b := &fakeBackend{project: project.Project{ProjectCode: "P-1", ProjectName: "一号楼"}}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	t.Setenv("BIDCTL_STORAGE_DRIVER", "file")
	t.Setenv("BIDCTL_STORAGE_PATH", filepath.Join(t.TempDir(), "store.json"))
	t.Setenv("BIDCTL_LOG_LEVEL", "error")
	return &harness{backend: b, url: srv.URL}
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd(strings.NewReader(stdin), &out, &errOut)
	root.SetArgs(append([]string{"--base-url", h.url}, args...))
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestVersionCmd(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run(t, "", "version", "-o", "json")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	var info version.Info
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("invalid json %q: %v", out, err)
	}
	if info.Platform == "" {
		t.Errorf("platform missing: %+v", info)
	}

	if _, _, err := h.run(t, "", "version", "-o", "yaml"); err == nil {
		t.Errorf("expected error for unknown format")
	}
}

func TestTokenAndList(t *testing.T) {
	h := newHarness(t)

	if _, _, err := h.run(t, "", "token", "set", "abc"); err != nil {
		t.Fatalf("token set: %v", err)
	}
	out, _, err := h.run(t, "", "project", "list")
	if err != nil {
		t.Fatalf("project list: %v", err)
	}
	if got := h.backend.lastAuth(); got != "Bearer abc" {
		t.Errorf("Authorization = %q", got)
	}
	for _, want := range []string{"项目编号", "P-1", "一号楼", "未开标", "共 1 条"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}

	if _, _, err := h.run(t, "", "token", "clear"); err != nil {
		t.Fatalf("token clear: %v", err)
	}
	if _, _, err := h.run(t, "", "project", "show", "P-1"); err != nil {
		t.Fatalf("project show: %v", err)
	}
	if got := h.backend.lastAuth(); got != "" {
		t.Errorf("Authorization after clear = %q", got)
	}
}

func TestTransitionCmd(t *testing.T) {
	h := newHarness(t)

	out, errOut, err := h.run(t, "n\n", "project", "start", "P-1")
	if err != nil || !strings.Contains(out, "已取消") {
		t.Fatalf("declined start: %q %v", out, err)
	}
	if !strings.Contains(errOut, "[开始开标]\n确认要对项目 P-1 执行开始开标吗？") {
		t.Fatalf("confirmation modal not shown: %q", errOut)
	}
	if n, _ := h.backend.snapshot(); n != 0 {
		t.Fatalf("declined start must not update")
	}

	out, _, err = h.run(t, "y\n", "project", "start", "P-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if n, _ := h.backend.snapshot(); n != 1 || !strings.Contains(out, "操作成功") || !strings.Contains(out, "开标中") {
		t.Fatalf("unexpected start result: updates=%d\n%s", n, out)
	}

	_, _, err = h.run(t, "", "project", "finish", "--yes", "P-1")
	if !errors.Is(err, project.ErrTransitionNotAllowed) {
		t.Fatalf("finish before decrypt: %v", err)
	}
}

func TestUploadCmd(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "a.txt")
	if err := os.WriteFile(path, []byte("sealed"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, errOut, err := h.run(t, "", "upload", path, "-f", "projectCode=P-1")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if strings.TrimSpace(out) != `{"url":"/files/a.txt"}` {
		t.Errorf("unexpected output %q", out)
	}
	if !strings.Contains(errOut, "100%") {
		t.Errorf("progress not reported: %q", errOut)
	}
	if _, got := h.backend.snapshot(); got != "sealed" {
		t.Errorf("uploaded %q", got)
	}
}

func TestInvalidPlatform(t *testing.T) {
	h := newHarness(t)
	if _, _, err := h.run(t, "", "--platform", "desktop", "project", "list"); err == nil {
		t.Fatalf("expected error for unknown platform")
	}
}
