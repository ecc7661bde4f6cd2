package platform

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestDetectSuffixes(t *testing.T) {
	cases := []struct {
		goos, goarch string
		wantSuffix   string
	}{
		{"linux", "amd64", "x86_64-unknown-linux-musl"},
		{"linux", "arm64", "aarch64-unknown-linux-musl"},
		{"darwin", "amd64", "x86_64-apple-darwin"},
		{"darwin", "arm64", "aarch64-apple-darwin"},
		{"windows", "amd64", "x86_64-pc-windows-msvc"},
		{"windows", "arm64", "aarch64-pc-windows-msvc"},
	}
	for _, tc := range cases {
		ctx, err := detect(tc.goos, tc.goarch)
		if err != nil {
			t.Fatalf("detect(%s, %s): %v", tc.goos, tc.goarch, err)
		}
		if ctx.Suffix != tc.wantSuffix {
			t.Errorf("detect(%s, %s) suffix = %q, want %q", tc.goos, tc.goarch, ctx.Suffix, tc.wantSuffix)
		}
	}
}

func TestDetectUnsupported(t *testing.T) {
	for _, pair := range [][2]string{{"linux", "riscv64"}, {"plan9", "amd64"}} {
		_, err := detect(pair[0], pair[1])
		var ue *UnsupportedError
		if !errors.As(err, &ue) {
			t.Errorf("detect(%s, %s): expected UnsupportedError, got %v", pair[0], pair[1], err)
		}
	}
}

func TestBinDirOverride(t *testing.T) {
	t.Setenv(BinDirEnv, "/opt/tools")
	ctx, err := detect("linux", "amd64")
	if err != nil {
		t.Fatal(err)
	}
	if ctx.BinDir != "/opt/tools" {
		t.Errorf("BinDir = %q, want /opt/tools", ctx.BinDir)
	}
}

func TestBinPath(t *testing.T) {
	c := &Context{OS: "windows", BinDir: `C:\bin`}
	if got := c.BinPath("zoxide"); got != filepath.Join(`C:\bin`, "zoxide.exe") {
		t.Errorf("BinPath = %q", got)
	}
	c = &Context{OS: "linux", BinDir: "/home/u/.local/bin"}
	if got := c.BinPath("zoxide"); got != filepath.Join("/home/u/.local/bin", "zoxide") {
		t.Errorf("BinPath = %q", got)
	}
}
