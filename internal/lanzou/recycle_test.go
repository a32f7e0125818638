package lanzou

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"testing"
)

const recycleRootPage = `<form name="recycle">
<input type="hidden" name="formhash" value="fh0001" />
<table>
<tr><td><a href="mydisk.php?item=recycle&action=folder_restore&folder_id=201"><img src="images/folder.gif" />&nbsp;Photos</a></td>
<td class="s">3.0 M</td>
<td class="t">2026-10-02</td></tr>
<tr><td><input name="fl_sel_ids[]" type="checkbox" value="101" /></td><td><a href="#"><img src="images/filetype/txt.gif" align="absmiddle" border="0" /> a.txt</a></td><td class="t">2026-10-01</td></tr>
<tr><td><input name="fl_sel_ids[]" type="checkbox" value="102" /></td><td><a href="#"><img src="images/filetype/txt.gif" align="absmiddle" border="0" /> b.txt</a></td><td class="t">2026-10-03</td></tr>
<tr><td><input name="fl_sel_ids[]" type="checkbox" value="103" /></td><td><a href="#"><img src="images/filetype/dll.gif" align="absmiddle" border="0" /> song#flac.dll</a></td><td class="t">2026-10-04</td></tr>
</table>
</form>`

const recycleFolderPage = `<input type="hidden" name="formhash" value="fh0201" />
<a href="https://www.lanzous.com/101"><img src="images/filetype/txt.gif" />&nbsp;a.txt</a> <font color="#CCCCCC">(1.0 K)</font><br>
<a href="https://www.lanzous.com/104"><img src="images/filetype/txt.gif" />&nbsp;c.txt</a> <font color="#CCCCCC">(2.0 K)</font><br>`

const truncatedRecyclePage = `<table>
<tr><td><input name="fl_sel_ids[]" type="checkbox" value="1" /></td><td><a href="#"><img src="images/filetype/txt.gif" align="absmiddle" border="0" /> a_very_long_report_name_that_was_cu...</a></td><td class="t">2026-10-01</td></tr>
<tr><td><input name="fl_sel_ids[]" type="checkbox" value="2" /></td><td><a href="#"><img src="images/filetype/txt.gif" align="absmiddle" border="0" /> a_very_long_report_name_that_was_cu...</a></td><td class="t">2026-10-01</td></tr>
</table>`

func TestGetRecFileListRoot(t *testing.T) {
	mux := http.NewServeMux()
	serveMydisk(mux, func(q url.Values) string { return recycleRootPage })
	c, _ := newTestClient(t, mux)

	files, err := c.GetRecFileList(testContext(t), -1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("Expected 3 files, got %d", len(files))
	}
	if files[0].ID != 101 || files[0].Name != "a.txt" || files[0].Time != "2026-10-01" {
		t.Errorf("Unexpected first file: %+v", files[0])
	}
	if files[2].Name != "song.flac" || files[2].Type != "flac" {
		t.Errorf("Expected deobfuscated song.flac, got %+v", files[2])
	}
}

func TestGetRecFileListTruncatedNames(t *testing.T) {
	mux := http.NewServeMux()
	serveMydisk(mux, func(q url.Values) string { return truncatedRecyclePage })
	c, _ := newTestClient(t, mux)

	files, err := c.GetRecFileList(testContext(t), -1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("Expected 2 files, got %d", len(files))
	}
	if files[0].Name != "a_very_long_report_name_that_was_cu.txt" {
		t.Errorf("Unexpected first name: %s", files[0].Name)
	}
	if files[1].Name != "a_very_long_report_name_that_was_cu(2).txt" {
		t.Errorf("Unexpected second name: %s", files[1].Name)
	}
}

func TestGetRecFileListEmptyFolder(t *testing.T) {
	mux := http.NewServeMux()
	serveMydisk(mux, func(q url.Values) string { return "<p>此文件夹没有包含文件</p>" })
	c, _ := newTestClient(t, mux)

	files, err := c.GetRecFileList(testContext(t), 201)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(files) != 0 {
		t.Errorf("Expected no files, got %v", files)
	}
}

func TestGetRecAll(t *testing.T) {
	mux := http.NewServeMux()
	serveMydisk(mux, func(q url.Values) string {
		if q.Get("action") == "folder_restore" && q.Get("folder_id") == "201" {
			return recycleFolderPage
		}
		return recycleRootPage
	})
	c, _ := newTestClient(t, mux)

	rootFiles, folders, err := c.GetRecAll(testContext(t))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(rootFiles) != 2 || rootFiles[0].Name != "b.txt" || rootFiles[1].Name != "song.flac" {
		t.Errorf("Expected b.txt and song.flac at root, got %+v", rootFiles)
	}
	if len(folders) != 1 {
		t.Fatalf("Expected 1 folder, got %d", len(folders))
	}
	folder := folders[0]
	if folder.ID != 201 || folder.Name != "Photos" || folder.Size != "3.0 M" || folder.Time != "2026-10-02" {
		t.Errorf("Unexpected folder: %+v", folder)
	}
	if len(folder.Files) != 2 {
		t.Fatalf("Expected 2 files in folder, got %d", len(folder.Files))
	}
	if folder.Files[0].Name != "a.txt" || folder.Files[0].Time != "2026-10-01" || folder.Files[0].Size != "1.0 K" {
		t.Errorf("Expected a.txt with root time, got %+v", folder.Files[0])
	}
	if folder.Files[1].Name != "c.txt" || folder.Files[1].Time != "2026-10-02" {
		t.Errorf("Expected c.txt with folder time, got %+v", folder.Files[1])
	}
}

// recycleActions 记录回收站表单提交
type recycleActions struct {
	mu    sync.Mutex
	posts []url.Values
}

func (r *recycleActions) serve(mux *http.ServeMux, okText string) {
	mux.HandleFunc(PATH_MYDISK, func(w http.ResponseWriter, r2 *http.Request) {
		if r2.Method == http.MethodGet {
			fmt.Fprintf(w, `<input type="hidden" name="formhash" value="fh_%s" />`, r2.URL.Query().Get("action"))
			return
		}
		r2.ParseForm()
		r.mu.Lock()
		r.posts = append(r.posts, r2.PostForm)
		r.mu.Unlock()
		fmt.Fprint(w, okText)
	})
}

func (r *recycleActions) last() url.Values {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.posts) == 0 {
		return nil
	}
	return r.posts[len(r.posts)-1]
}

func TestDeleteRec(t *testing.T) {
	mux := http.NewServeMux()
	actions := &recycleActions{}
	actions.serve(mux, "<p>删除成功</p>")
	c, _ := newTestClient(t, mux)

	if err := c.DeleteRec(testContext(t), 101, true); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	form := actions.last()
	if form.Get("action") != "file_delete_complete" || form.Get("file_id") != "101" || form.Get("formhash") != "fh_file_delete_complete" {
		t.Errorf("Unexpected form: %v", form)
	}

	if err := c.DeleteRec(testContext(t), 201, false); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if form := actions.last(); form.Get("task") != "folder_delete_complete" || form.Get("folder_id") != "201" {
		t.Errorf("Unexpected form: %v", form)
	}
}

func TestRecovery(t *testing.T) {
	mux := http.NewServeMux()
	actions := &recycleActions{}
	actions.serve(mux, "<p>恢复成功</p>")
	c, _ := newTestClient(t, mux)

	if err := c.Recovery(testContext(t), 101, true); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if form := actions.last(); form.Get("action") != "file_restore" || form.Get("formhash") != "fh_file_restore" {
		t.Errorf("Unexpected form: %v", form)
	}
	if err := c.DeleteRec(testContext(t), 101, true); CodeOf(err) != FAILED {
		t.Errorf("Expected FAILED when success text is missing, got %v", err)
	}
}

func TestCleanRec(t *testing.T) {
	mux := http.NewServeMux()
	actions := &recycleActions{}
	actions.serve(mux, "<p>清空回收站成功</p>")
	c, _ := newTestClient(t, mux)

	if err := c.CleanRec(testContext(t)); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if form := actions.last(); form.Get("task") != "delete_all" || form.Get("formhash") != "fh_files" {
		t.Errorf("Unexpected form: %v", form)
	}
}
