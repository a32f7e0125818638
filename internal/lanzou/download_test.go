package lanzou

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"
)

func TestDownFileByURL(t *testing.T) {
	c, site, _ := newShareTestClient(t)
	site.add("iabc123", sharedFile{name: "movie#mkv.dll", content: "hello world"})
	dir := t.TempDir()
	progress := &progressLog{}

	if err := c.DownFileByURL(testContext(t), site.base+"/iabc123", "", dir, progress.report); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "movie.mkv"))
	if err != nil {
		t.Fatalf("Expected movie.mkv to be saved, got %v", err)
	}
	if string(data) != "hello world" {
		t.Errorf("Expected content hello world, got %q", data)
	}
	last, ok := progress.last()
	if !ok || last.name != "movie.mkv" || last.done != 11 || last.total != 11 {
		t.Errorf("Unexpected final progress: %+v", last)
	}
}

func TestDownFileByURLInvalid(t *testing.T) {
	c, site, _ := newShareTestClient(t)
	if err := c.DownFileByURL(testContext(t), site.base+"/b0123456", "", t.TempDir(), nil); !IsURLInvalid(err) {
		t.Errorf("Expected URL_INVALID, got %v", err)
	}
}

func TestDownFileKeepsInsideSaveDir(t *testing.T) {
	c, site, _ := newShareTestClient(t)
	site.add("iesc001", sharedFile{name: "../escaped.txt", content: "x"})
	site.add("idot002", sharedFile{name: "..", content: "x"})
	root := t.TempDir()
	saveDir := filepath.Join(root, "save")

	if err := c.DownFileByURL(testContext(t), site.base+"/iesc001", "", saveDir, nil); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "escaped.txt")); !os.IsNotExist(err) {
		t.Errorf("Expected nothing written outside %s, got %v", saveDir, err)
	}
	if _, err := os.Stat(filepath.Join(saveDir, "..escaped.txt")); err != nil {
		t.Errorf("Expected ..escaped.txt inside save dir, got %v", err)
	}

	if err := c.DownFileByURL(testContext(t), site.base+"/idot002", "", saveDir, nil); CodeOf(err) != PATH_ERROR {
		t.Errorf("Expected PATH_ERROR, got %v", err)
	}
}

func TestLocalName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		ok       bool
	}{
		{"movie.mkv", "movie.mkv", true},
		{"../../etc/passwd", "....etcpasswd", true},
		{`..\windows\a.txt`, "..windowsa.txt", true},
		{"..", "", false},
		{".", "", false},
		{" / ", "", false},
	}
	for _, tt := range tests {
		got, err := localName(tt.input)
		if (err == nil) != tt.ok {
			t.Errorf("localName(%q): expected ok=%v, got err %v", tt.input, tt.ok, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("localName(%q): expected %q, got %q", tt.input, tt.expected, got)
		}
	}
}

func TestDownFileNoContentLength(t *testing.T) {
	c, site, mux := newShareTestClient(t)
	site.add("istream1", sharedFile{name: "live.ts"})
	mux.HandleFunc("/cdn/istream1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "partial")
		w.(http.Flusher).Flush()
		fmt.Fprint(w, " data")
	})

	err := c.DownFileByURL(testContext(t), site.base+"/istream1", "", t.TempDir(), nil)
	if !errors.Is(err, ErrNoContentLength) {
		t.Errorf("Expected ErrNoContentLength, got %v", err)
	}
	if CodeOf(err) != FAILED {
		t.Errorf("Expected FAILED, got %s", CodeOf(err))
	}
}

// serveVolumeFolder 分享文件夹 b0123456 中放两个分卷
func serveVolumeFolder(site *fakeShareSite, mux *http.ServeMux) {
	mux.HandleFunc("/b0123456", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, folderSharePage)
	})
	mux.HandleFunc(PATH_FILEMOREAJAX, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.PostForm.Get("pg") != "1" {
			writeJSON(w, map[string]any{"zt": 2, "info": "没有了", "text": nil})
			return
		}
		writeJSON(w, map[string]any{"zt": 1, "info": "ok", "text": []map[string]any{
			{"id": "ivol002", "name_all": "big.abcde2.rar", "time": "2026-10-01", "size": "100 M"},
			{"id": "ivol001", "name_all": "big.abcde1.rar", "time": "2026-10-01", "size": "100 M"},
		}})
	})
	site.add("ivol001", sharedFile{name: "big.abcde1.rar", content: "volume 1"})
	site.add("ivol002", sharedFile{name: "big.abcde2.rar", content: "volume 2"})
}

func TestDownDirByURLExtractsVolumes(t *testing.T) {
	c, site, mux := newShareTestClient(t)
	serveVolumeFolder(site, mux)
	archiver := &fakeArchiver{}
	c.SetArchiver(archiver)
	dir := t.TempDir()

	result, err := c.DownDirByURL(testContext(t), site.base+"/b0123456", "", dir, nil, true)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Code != SUCCESS || len(result.Failed) != 0 {
		t.Errorf("Expected success, got %+v", result)
	}

	saveDir := filepath.Join(dir, "Docs")
	expected := []string{filepath.Join(saveDir, "big.part1.rar"), filepath.Join(saveDir, "big.part2.rar")}
	if len(archiver.extracted) != 1 {
		t.Fatalf("Expected one extraction, got %d", len(archiver.extracted))
	}
	got := archiver.extracted[0]
	if len(got) != 2 || got[0] != expected[0] || got[1] != expected[1] {
		t.Errorf("Expected volumes %v, got %v", expected, got)
	}
	for _, v := range expected {
		if _, err := os.Stat(v); !os.IsNotExist(err) {
			t.Errorf("Expected %s to be removed after extraction", v)
		}
	}
}

func TestDownDirByURLWithoutArchiver(t *testing.T) {
	c, site, mux := newShareTestClient(t)
	serveVolumeFolder(site, mux)
	dir := t.TempDir()

	result, err := c.DownDirByURL(testContext(t), site.base+"/b0123456", "", dir, nil, false)
	if !IsZipError(err) {
		t.Errorf("Expected ZIP_ERROR, got %v", err)
	}
	if result == nil || result.Code != ZIP_ERROR {
		t.Fatalf("Expected result with ZIP_ERROR, got %+v", result)
	}
	if _, err := os.Stat(filepath.Join(dir, "big.part1.rar")); err != nil {
		t.Errorf("Expected volumes kept, got %v", err)
	}
}

func TestDownDirByURLPartialFailure(t *testing.T) {
	c, site, mux := newShareTestClient(t)
	serveVolumeFolder(site, mux)
	site.mu.Lock()
	delete(site.files, "ivol002")
	site.mu.Unlock()
	archiver := &fakeArchiver{}
	c.SetArchiver(archiver)

	result, err := c.DownDirByURL(testContext(t), site.base+"/b0123456", "", t.TempDir(), nil, false)
	if err != nil {
		t.Fatalf("Expected failures in result, got error %v", err)
	}
	if len(result.Failed) != 1 || result.Failed[0].Name != "big.part2.rar" || result.Failed[0].URL != site.base+"/ivol002" {
		t.Errorf("Unexpected failures: %+v", result.Failed)
	}
	if result.Code == SUCCESS {
		t.Error("Expected non-success code")
	}
	if len(archiver.extracted) != 0 {
		t.Error("Expected no extraction after a failed download")
	}
}

func TestDownDirByID(t *testing.T) {
	c, site, mux := newShareTestClient(t)
	site.add("iabc123", sharedFile{name: "a.txt", content: "aaa"})
	rec := &taskRecorder{}
	handleTasks(mux, rec, map[string]func(url.Values) any{
		"5": func(form url.Values) any {
			if form.Get("folder_id") != "42" || form.Get("pg") != "1" {
				return map[string]any{"zt": 1, "info": 0, "text": []any{}}
			}
			return map[string]any{"zt": 1, "info": 1, "text": []map[string]any{
				{"id": "11", "name_all": "a.txt", "time": "2026-10-01", "size": "3 B", "downs": 0, "onof": 0, "is_des": 0},
			}}
		},
		"22": func(url.Values) any {
			return ztOK(map[string]any{"info": map[string]any{"pwd": "", "onof": "0", "f_id": "iabc123", "is_newd": site.base}})
		},
		"12": func(url.Values) any { return map[string]any{"zt": 1, "info": "", "text": "a.txt"} },
		"18": func(url.Values) any {
			return ztOK(map[string]any{"info": map[string]any{"name": "Docs", "des": "", "pwd": "", "onof": "0", "new_url": site.base + "/b0123456"}})
		},
	})
	dir := t.TempDir()

	result, err := c.DownDirByID(testContext(t), 42, dir, nil, true)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Code != SUCCESS {
		t.Errorf("Expected success, got %+v", result)
	}
	data, err := os.ReadFile(filepath.Join(dir, "Docs", "a.txt"))
	if err != nil || string(data) != "aaa" {
		t.Errorf("Expected Docs/a.txt with content aaa, got %q, %v", data, err)
	}

	if _, err := c.DownDirByID(testContext(t), 7, dir, nil, false); CodeOf(err) != FAILED {
		t.Errorf("Expected FAILED for empty folder, got %v", err)
	}
}
