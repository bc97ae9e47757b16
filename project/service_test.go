package project

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/Ducr/taro-mobile-open/httpx"
	"github.com/Ducr/taro-mobile-open/storage"
)

// backend is an in-memory stand-in for the bidding API.
type backend struct {
	mu       sync.Mutex
	projects map[string]*Project
	updates  []updateBody
	lastList map[string]string
}

func (b *backend) write(w http.ResponseWriter, code int, msg string, data any) {
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "msg": msg, "data": data})
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == pathList:
		b.lastList = map[string]string{}
		for k := range r.URL.Query() {
			b.lastList[k] = r.URL.Query().Get(k)
		}
		rows := make([]Project, 0, len(b.projects))
		for _, p := range b.projects {
			rows = append(rows, *p)
		}
		b.write(w, 200, "", map[string]any{"rows": rows, "total": 42})
	case r.Method == http.MethodGet && r.URL.Path == pathDetail:
		p, ok := b.projects[r.URL.Query().Get("projectCode")]
		if !ok {
			b.write(w, 500, "项目不存在", nil)
			return
		}
		b.write(w, 200, "", p)
	case r.Method == http.MethodPut && r.URL.Path == pathUpdate:
		var body updateBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		b.updates = append(b.updates, body)
		p := b.projects[body.ProjectCode]
		switch body.UpdateKey {
		case KeyOpenBidStatus:
			p.OpenbidStatus = OpenBidStatus(body.UpdateValue)
		case KeyDecryptStatus:
			p.DecryptStatus = DecryptStatus(body.UpdateValue)
		}
		b.write(w, 200, "操作成功", nil)
	default:
		http.NotFound(w, r)
	}
}

func newTestService(t *testing.T, projects ...Project) (*Service, *backend) {
	t.Helper()
	b := &backend{projects: map[string]*Project{}}
	for i := range projects {
		b.projects[projects[i].ProjectCode] = &projects[i]
	}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	c, err := httpx.New(httpx.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("httpx.New: %v", err)
	}
	return NewService(c, storage.NewMemory()), b
}

func TestStatusLabels(t *testing.T) {
	tests := []struct {
		name  string
		label string
		want  string
	}{
		{"open not started", OpenBidNotStarted.Label(), "未开标"},
		{"open in progress", OpenBidInProgress.Label(), "开标中"},
		{"open finished", OpenBidFinished.Label(), "开标结束"},
		{"open unknown", OpenBidStatus(9).Label(), ""},
		{"decrypt pending", DecryptPending.Label(), "未解密"},
		{"decrypt done", DecryptDone.Label(), "解密完成"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.label != tt.want {
				t.Errorf("Label() = %q, want %q", tt.label, tt.want)
			}
		})
	}
	if OpenBidStatus(9).String() != "unknown(9)" || DecryptDone.String() != "done" {
		t.Errorf("unexpected String(): %s %s", OpenBidStatus(9), DecryptDone)
	}
}

func TestProject_Guards(t *testing.T) {
	tests := []struct {
		open                   OpenBidStatus
		decrypt                DecryptStatus
		start, decrypt2, finish bool
	}{
		{OpenBidNotStarted, DecryptPending, true, false, false},
		{OpenBidInProgress, DecryptPending, false, true, false},
		{OpenBidInProgress, DecryptDone, false, false, true},
		{OpenBidFinished, DecryptDone, false, false, false},
	}
	for _, tt := range tests {
		p := Project{OpenbidStatus: tt.open, DecryptStatus: tt.decrypt}
		if p.CanStartOpenBid() != tt.start || p.CanDecrypt() != tt.decrypt2 || p.CanFinishOpenBid() != tt.finish {
			t.Errorf("guards for %s/%s = %v %v %v", tt.open, tt.decrypt,
				p.CanStartOpenBid(), p.CanDecrypt(), p.CanFinishOpenBid())
		}
	}
}

func TestPage_Unmarshal(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantRows  int
		wantTotal int64
	}{
		{"array", `[{"projectCode":"A"},{"projectCode":"B"}]`, 2, 2},
		{"rows", `{"rows":[{"projectCode":"A"}],"total":30}`, 1, 30},
		{"list", `{"list":[{"projectCode":"A"}]}`, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Page
			if err := json.Unmarshal([]byte(tt.in), &p); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if len(p.Rows) != tt.wantRows || p.Total != tt.wantTotal {
				t.Errorf("got %d rows total %d", len(p.Rows), p.Total)
			}
		})
	}
}

func TestService_List(t *testing.T) {
	svc, b := newTestService(t, Project{ProjectCode: "P-1", ProjectName: "一号楼"})
	status := OpenBidInProgress

	page, err := svc.List(context.Background(), ListQuery{ProjectName: "楼", OpenbidStatus: &status, PageSize: 500})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 42 || len(page.Rows) != 1 || page.Rows[0].ProjectName != "一号楼" {
		t.Fatalf("unexpected page: %+v", page)
	}
	want := map[string]string{"pageNum": "1", "pageSize": "100", "projectName": "楼", "openbidStatus": "1"}
	for k, v := range want {
		if b.lastList[k] != v {
			t.Errorf("query %s = %q, want %q", k, b.lastList[k], v)
		}
	}
	if _, ok := b.lastList["projectCode"]; ok {
		t.Errorf("empty filter should not be sent")
	}
}

func TestService_Detail(t *testing.T) {
	svc, _ := newTestService(t, Project{ID: 7, ProjectCode: "P-1", OpenbidStatus: OpenBidInProgress})

	p, err := svc.Detail(context.Background(), "P-1")
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if p.ID != 7 || p.OpenbidStatus != OpenBidInProgress {
		t.Fatalf("unexpected project: %+v", p)
	}

	_, err = svc.Detail(context.Background(), "missing")
	re, ok := httpx.AsRequestError(err)
	if !ok || re.Kind != httpx.KindBusiness || re.Message != "项目不存在" {
		t.Fatalf("expected business error, got %v", err)
	}

	if _, err := svc.Detail(context.Background(), " "); !errors.Is(err, ErrEmptyCode) {
		t.Fatalf("expected ErrEmptyCode, got %v", err)
	}
}

func TestService_Transitions(t *testing.T) {
	svc, b := newTestService(t, Project{ProjectCode: "P-1"})
	ctx := context.Background()

	if _, err := svc.StartDecrypt(ctx, "P-1"); !errors.Is(err, ErrTransitionNotAllowed) {
		t.Fatalf("decrypt before opening: %v", err)
	}

	p, err := svc.StartOpenBid(ctx, "P-1")
	if err != nil || p.OpenbidStatus != OpenBidInProgress {
		t.Fatalf("StartOpenBid: %+v %v", p, err)
	}
	if _, err := svc.FinishOpenBid(ctx, "P-1"); !errors.Is(err, ErrTransitionNotAllowed) {
		t.Fatalf("finish before decrypt: %v", err)
	}
	if p, err = svc.StartDecrypt(ctx, "P-1"); err != nil || p.DecryptStatus != DecryptDone {
		t.Fatalf("StartDecrypt: %+v %v", p, err)
	}
	if p, err = svc.FinishOpenBid(ctx, "P-1"); err != nil || p.OpenbidStatus != OpenBidFinished {
		t.Fatalf("FinishOpenBid: %+v %v", p, err)
	}

	want := []updateBody{
		{"P-1", KeyOpenBidStatus, 1},
		{"P-1", KeyDecryptStatus, 1},
		{"P-1", KeyOpenBidStatus, 2},
	}
	if len(b.updates) != len(want) {
		t.Fatalf("updates = %+v", b.updates)
	}
	for i := range want {
		if b.updates[i] != want[i] {
			t.Errorf("update %d = %+v, want %+v", i, b.updates[i], want[i])
		}
	}
}

func TestService_UserInfo(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, ok, err := svc.UserInfo(ctx); ok || err != nil {
		t.Fatalf("empty store: %v %v", ok, err)
	}
	if err := svc.SaveUserInfo(ctx, UserInfo{UserID: 1, UserName: "admin", NickName: "管理员"}); err != nil {
		t.Fatalf("SaveUserInfo: %v", err)
	}
	u, ok, err := svc.UserInfo(ctx)
	if err != nil || !ok || u.NickName != "管理员" {
		t.Fatalf("UserInfo = %+v %v %v", u, ok, err)
	}

	if err := NewService(nil, nil).SaveUserInfo(ctx, u); err == nil {
		t.Fatalf("expected error without store")
	}
}
