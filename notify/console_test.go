package notify

import (
	"bytes"
	"strings"
	"testing"
)

func TestConsole_Toast(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, nil)

	c.Toast("denied", VariantError, DefaultToastDuration)
	c.Toast("ok", VariantNone, DefaultToastDuration)

	got := buf.String()
	if !strings.Contains(got, "✖ denied\n") {
		t.Fatalf("missing error toast: %q", got)
	}
	if !strings.Contains(got, "ok\n") {
		t.Fatalf("missing plain toast: %q", got)
	}
}

func TestConsole_LoadingPrintedOnce(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, nil)

	l1 := c.ShowLoading("加载中...")
	l2 := c.ShowLoading("加载中...")
	if n := strings.Count(buf.String(), "加载中..."); n != 1 {
		t.Fatalf("expected one loading line, got %d", n)
	}

	l1.Hide()
	l1.Hide()
	if c.loading != 1 {
		t.Fatalf("expected 1 visible indicator after double hide, got %d", c.loading)
	}
	l2.Hide()
	if c.loading != 0 {
		t.Fatalf("expected no visible indicator, got %d", c.loading)
	}
}

func TestLogNavigator_Redirect(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNavigator(&buf, nil)
	n.Redirect("/pages/login/index")
	n.NavigateTo("/pages/my/index")
	n.Back(1)

	if got := buf.String(); got != "redirected to /pages/login/index\n" {
		t.Fatalf("unexpected output: %q", got)
	}
}
