package lanzou

import (
	"net/http"
	"net/url"
	"testing"
)

func TestGetFileListPaging(t *testing.T) {
	mux := http.NewServeMux()
	rec := &taskRecorder{}
	handleTasks(mux, rec, map[string]func(url.Values) any{
		"5": func(form url.Values) any {
			switch form.Get("pg") {
			case "1":
				return map[string]any{"zt": 1, "info": 1, "text": []map[string]any{
					{"id": "11", "name_all": "a#mkv.dll", "time": "5 分钟前", "size": "1.2 M", "downs": "3", "onof": "1", "is_des": 0},
					{"id": 12, "name_all": "b.zip", "time": "2025-01-01", "size": "3 K", "downs": 0, "onof": "0", "is_des": "1"},
				}}
			case "2":
				return map[string]any{"zt": 1, "info": 1, "text": []map[string]any{
					{"id": "13", "name_all": "c.movie.abcde2.rar", "time": "2025-01-02", "size": "100 M", "downs": 0, "onof": 0, "is_des": 0},
				}}
			}
			return map[string]any{"zt": 1, "info": 0, "text": []any{}}
		},
	})
	c, _ := newTestClient(t, mux)

	files, err := c.GetFileList(testContext(t), 42)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("Expected 3 files, got %d", len(files))
	}
	if files[0].Name != "a.mkv" || files[0].Type != "mkv" || files[0].ID != 11 {
		t.Errorf("Unexpected first file: %+v", files[0])
	}
	if files[0].Time != "2026-10-18" {
		t.Errorf("Expected normalized time 2026-10-18, got %s", files[0].Time)
	}
	if !files[0].HasPwd || files[0].HasDes || files[0].Downs != 3 {
		t.Errorf("Unexpected flags on first file: %+v", files[0])
	}
	if files[1].HasPwd || !files[1].HasDes {
		t.Errorf("Unexpected flags on second file: %+v", files[1])
	}
	if files[2].Name != "c.movie.part2.rar" {
		t.Errorf("Expected c.movie.part2.rar, got %s", files[2].Name)
	}
	if forms := rec.byTask("5"); len(forms) != 3 || forms[0].Get("folder_id") != "42" {
		t.Errorf("Expected 3 paged requests for folder 42, got %v", forms)
	}

	ids, err := c.GetFileIDList(testContext(t), 42)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(ids) != 3 || ids[0].Name != "a.mkv" || ids[2].Name != "c.movie.part2.rar" {
		t.Errorf("Expected sorted name-id list, got %v", ids)
	}
}

func TestGetShareInfoFile(t *testing.T) {
	mux := http.NewServeMux()
	rec := &taskRecorder{}
	handleTasks(mux, rec, map[string]func(url.Values) any{
		"22": func(form url.Values) any {
			return ztOK(map[string]any{"info": map[string]any{
				"pwd": "ab12", "onof": "1", "f_id": "iabc123", "taoc": "", "is_newd": "https://wwa.lanzous.com",
			}})
		},
		"12": func(form url.Values) any {
			return map[string]any{"zt": 1, "info": "一段描述", "text": "movie"}
		},
	})
	c, _ := newTestClient(t, mux)

	info, err := c.GetShareInfo(testContext(t), 100, true)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if info.URL != "https://wwa.lanzous.com/iabc123" {
		t.Errorf("Expected joined share url, got %s", info.URL)
	}
	if info.Pwd != "ab12" || info.Name != "movie" || info.Desc != "一段描述" {
		t.Errorf("Unexpected share info: %+v", info)
	}
}

func TestGetShareInfoFolder(t *testing.T) {
	mux := http.NewServeMux()
	rec := &taskRecorder{}
	handleTasks(mux, rec, map[string]func(url.Values) any{
		"18": func(form url.Values) any {
			return ztOK(map[string]any{"info": map[string]any{
				"name": "Docs", "des": "说明", "pwd": "random", "onof": "0", "new_url": "https://www.lanzous.com/b0123456",
			}})
		},
	})
	c, _ := newTestClient(t, mux)

	info, err := c.GetShareInfo(testContext(t), 7, false)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if info.Pwd != "" {
		t.Errorf("Expected no password when onof=0, got %s", info.Pwd)
	}
	if info.Name != "Docs" || info.Desc != "说明" || info.URL != "https://www.lanzous.com/b0123456" {
		t.Errorf("Unexpected share info: %+v", info)
	}
	if len(rec.byTask("12")) != 0 {
		t.Error("Expected no file info request for a folder")
	}
}

func TestGetShareInfoIDError(t *testing.T) {
	mux := http.NewServeMux()
	rec := &taskRecorder{}
	handleTasks(mux, rec, map[string]func(url.Values) any{
		"22": func(form url.Values) any {
			return ztOK(map[string]any{"info": map[string]any{"pwd": "", "onof": "0", "f_id": "i", "is_newd": ""}})
		},
		"18": func(form url.Values) any {
			return ztOK(map[string]any{"info": map[string]any{"name": "", "des": "", "pwd": "", "onof": "0", "new_url": ""}})
		},
	})
	c, _ := newTestClient(t, mux)

	if _, err := c.GetShareInfo(testContext(t), 1, true); CodeOf(err) != ID_ERROR {
		t.Errorf("Expected ID_ERROR for file, got %v", err)
	}
	if _, err := c.GetShareInfo(testContext(t), 1, false); CodeOf(err) != ID_ERROR {
		t.Errorf("Expected ID_ERROR for folder, got %v", err)
	}
}

func TestFileOperations(t *testing.T) {
	mux := http.NewServeMux()
	rec := &taskRecorder{}
	okTask := func(url.Values) any { return ztOK(nil) }
	handleTasks(mux, rec, map[string]func(url.Values) any{
		"6":  okTask,
		"11": okTask,
		"20": okTask,
		"23": okTask,
		"46": okTask,
		"3":  func(url.Values) any { return map[string]any{"zt": 0, "info": "删除失败"} },
	})
	c, _ := newTestClient(t, mux)
	ctx := testContext(t)

	if err := c.Delete(ctx, 5, true); err != nil {
		t.Errorf("Expected delete to succeed, got %v", err)
	}
	if err := c.Delete(ctx, 6, false); CodeOf(err) != FAILED {
		t.Errorf("Expected FAILED for zt=0, got %v", err)
	}
	if err := c.SetPasswd(ctx, 5, "", true); err != nil {
		t.Errorf("Expected set passwd to succeed, got %v", err)
	}
	if err := c.SetDesc(ctx, 5, "desc", true); err != nil {
		t.Errorf("Expected set desc to succeed, got %v", err)
	}
	if err := c.RenameFile(ctx, 5, "new:name"); err != nil {
		t.Errorf("Expected rename to succeed, got %v", err)
	}
	if err := c.MoveFile(ctx, 5, 9); err != nil {
		t.Errorf("Expected move to succeed, got %v", err)
	}

	if f := rec.byTask("23")[0]; f.Get("shows") != "0" || f.Get("file_id") != "5" {
		t.Errorf("Expected password disabled for file 5, got %v", f)
	}
	if f := rec.byTask("46")[0]; f.Get("file_name") != "newname" || f.Get("type") != "2" {
		t.Errorf("Expected sanitized rename, got %v", f)
	}
	if f := rec.byTask("20")[0]; f.Get("folder_id") != "9" {
		t.Errorf("Expected move to folder 9, got %v", f)
	}
}
