package lanzou

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// fakeRar 按 rar 的参数位置写出分卷或解压结果
const fakeRar = `#!/bin/sh
case "$1" in
a)
	printf 1 > "$7.part1.rar"
	printf 2 > "$7.part2.rar"
	;;
e)
	printf "%s" "$3" > "$4extracted.txt"
	;;
*)
	echo "unknown command" >&2
	exit 3
	;;
esac
`

func writeScript(t *testing.T, content string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script archiver is not available on windows")
	}
	path := filepath.Join(t.TempDir(), "rar")
	if err := os.WriteFile(path, []byte(content), 0755); err != nil {
		t.Fatalf("Failed to write script: %v", err)
	}
	return path
}

func TestNewRarArchiverMissing(t *testing.T) {
	if _, err := NewRarArchiver(filepath.Join(t.TempDir(), "rar")); !IsZipError(err) {
		t.Errorf("Expected ZIP_ERROR, got %v", err)
	}

	c := NewClient()
	defer c.Close()
	if err := c.SetRarTool("/nonexistent/rar"); !IsZipError(err) {
		t.Errorf("Expected ZIP_ERROR, got %v", err)
	}
	if c.archiver != nil {
		t.Error("Expected archiver to stay unset")
	}
}

func TestRarArchiverCompressAndExtract(t *testing.T) {
	archiver, err := NewRarArchiver(writeScript(t, fakeRar))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	work := t.TempDir()
	source := writeTempFile(t, work, "movie.mkv", "data")
	staging := t.TempDir()
	writeTempFile(t, staging, "other.rar", "x")

	volumes, err := archiver.Compress(testContext(t), source, filepath.Join(staging, "movie"), 100, 0)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	expected := []string{filepath.Join(staging, "movie.part1.rar"), filepath.Join(staging, "movie.part2.rar")}
	if len(volumes) != 2 || volumes[0] != expected[0] || volumes[1] != expected[1] {
		t.Errorf("Expected %v, got %v", expected, volumes)
	}

	dest := t.TempDir()
	if err := archiver.Extract(testContext(t), []string{volumes[1], volumes[0]}, dest); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dest, "extracted.txt"))
	if err != nil {
		t.Fatalf("Expected extracted file, got %v", err)
	}
	if string(data) != expected[0] {
		t.Errorf("Expected extraction to start from %s, got %s", expected[0], data)
	}
}

func TestRarArchiverFailures(t *testing.T) {
	failing, err := NewRarArchiver(writeScript(t, "#!/bin/sh\necho broken >&2\nexit 2\n"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := failing.Compress(testContext(t), "src", filepath.Join(t.TempDir(), "x"), 100, 0); !IsZipError(err) {
		t.Errorf("Expected ZIP_ERROR from failing rar, got %v", err)
	}
	if err := failing.Extract(testContext(t), nil, t.TempDir()); !IsZipError(err) {
		t.Errorf("Expected ZIP_ERROR without volumes, got %v", err)
	}

	silent, err := NewRarArchiver(writeScript(t, "#!/bin/sh\nexit 0\n"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := silent.Compress(testContext(t), "src", filepath.Join(t.TempDir(), "x"), 100, 0); !IsZipError(err) {
		t.Errorf("Expected ZIP_ERROR when no volume is produced, got %v", err)
	}
}
