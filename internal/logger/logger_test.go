package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveLogFilePathDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("get wd failed: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(oldWD)
	})
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}

	got, err := resolveLogFilePath(Options{})
	if err != nil {
		t.Fatalf("resolve default log path failed: %v", err)
	}
	if filepath.Base(got) != defaultLogFilename {
		t.Fatalf("filename want %s got %s", defaultLogFilename, filepath.Base(got))
	}
	if filepath.Base(filepath.Dir(got)) != defaultLogDirName {
		t.Fatalf("dir want %s got %s", defaultLogDirName, filepath.Dir(got))
	}
	if _, err := os.Stat(filepath.Dir(got)); err != nil {
		t.Fatalf("log dir should exist: %v", err)
	}
}

func TestReleaseModeWritesSnakeCaseEvents(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("release", Options{Dir: tmpDir, Filename: "shop.log"})
	log.Sugar().Infow("order_status_updated",
		"order_id", 42,
		"from", "PAID",
		"to", "SHIPPED",
	)
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "shop.log"))
	if err != nil {
		t.Fatalf("read log file failed: %v", err)
	}
	for _, want := range []string{"order_status_updated", "order_id", "SHIPPED"} {
		if !strings.Contains(string(content), want) {
			t.Fatalf("log should contain %q, got %s", want, string(content))
		}
	}
}

func TestDebugModeSkipsLogFile(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("debug", Options{Dir: tmpDir, Filename: "debug.log"})
	log.Sugar().Debugw("stock_recalculated", "product_id", 7)
	_ = log.Sync()

	if _, err := os.Stat(filepath.Join(tmpDir, "debug.log")); !os.IsNotExist(err) {
		t.Fatalf("debug mode should not create a log file")
	}
}

func TestSugarFallbackWhenUninitialized(t *testing.T) {
	saved := L
	L = nil
	t.Cleanup(func() { L = saved })

	if S() == nil {
		t.Fatalf("sugared logger should fall back when global is nil")
	}
	// 未初始化时写日志不应 panic
	Infow("payment_webhook_received", "provider", "payos")
}

func TestNormalizePositiveInt(t *testing.T) {
	if got := normalizePositiveInt(0, 7); got != 7 {
		t.Fatalf("zero should fall back, got %d", got)
	}
	if got := normalizePositiveInt(-3, 7); got != 7 {
		t.Fatalf("negative should fall back, got %d", got)
	}
	if got := normalizePositiveInt(12, 7); got != 12 {
		t.Fatalf("positive should pass through, got %d", got)
	}
}
