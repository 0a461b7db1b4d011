package web

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tabula/internal/frame"
	"github.com/KaramelBytes/tabula/internal/session"
)

const salesCSV = "region,product,units\nnorth,tea,4\nsouth,coffee,\nnorth,coffee,7\neast,tea,2\n"

type harness struct {
	t      *testing.T
	srv    *httptest.Server
	client *http.Client
	store  *session.Store
}

func newHarness(t *testing.T, opt Options) *harness {
	t.Helper()
	store := session.NewStore(time.Hour, nil)
	s, err := New(store, opt, nil)
	require.NoError(t, err)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &harness{t: t, srv: srv, client: &http.Client{Jar: jar}, store: store}
}

func (h *harness) upload(name, body string) (*http.Response, string) {
	h.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("dataset", name)
	require.NoError(h.t, err)
	_, err = io.WriteString(fw, body)
	require.NoError(h.t, err)
	require.NoError(h.t, mw.Close())
	resp, err := h.client.Post(h.srv.URL+"/upload", mw.FormDataContentType(), &buf)
	require.NoError(h.t, err)
	return resp, readBody(h.t, resp)
}

func (h *harness) get(path string) (*http.Response, string) {
	h.t.Helper()
	resp, err := h.client.Get(h.srv.URL + path)
	require.NoError(h.t, err)
	return resp, readBody(h.t, resp)
}

func (h *harness) post(path string, form url.Values) (*http.Response, string) {
	h.t.Helper()
	resp, err := h.client.PostForm(h.srv.URL+path, form)
	require.NoError(h.t, err)
	return resp, readBody(h.t, resp)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestHealthz(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	resp, body := h.get("/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", body)
}

func TestIndexSetsSessionCookie(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	resp, body := h.get("/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="dataset"`)
	assert.Contains(t, body, "<strong>CSV</strong>")

	u, _ := url.Parse(h.srv.URL)
	cookies := h.client.Jar.Cookies(u)
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Equal(t, 1, h.store.Len())

	h.get("/")
	assert.Equal(t, 1, h.store.Len(), "the cookie must be reused")
}

func TestUploadShowsPreviewAndMenu(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	resp, body := h.upload("sales.csv", salesCSV)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "sales.csv")
	assert.Contains(t, body, "4 rows x 3 columns")
	assert.Contains(t, body, `<option value="onehot">One-Hot Encoding</option>`)
	assert.Contains(t, body, "<td>coffee</td>")
}

func TestUploadRejectsBadFiles(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	resp, body := h.upload("empty.csv", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Could not load the file")

	resp, _ = h.upload("notes.pdf", "x")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = h.upload("wide.csv", "a,b\n1,2,3\n")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, body = h.get("/")
	assert.NotContains(t, body, "Operation", "a failed upload leaves the session empty")
}

func TestUploadSizeLimit(t *testing.T) {
	opt := DefaultOptions()
	opt.MaxUploadBytes = 64
	h := newHarness(t, opt)
	resp, _ := h.upload("big.csv", "a\n"+strings.Repeat("1\n", 200))
	assert.GreaterOrEqual(t, resp.StatusCode, 400)
}

func TestExploreFormShowsControls(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.upload("sales.csv", salesCSV)

	_, body := h.get("/explore?op=histogram")
	assert.Contains(t, body, `name="column"`)
	assert.Contains(t, body, `name="hue"`)
	assert.Contains(t, body, `<option value="units">units</option>`)

	_, body = h.get("/explore?op=shape")
	assert.NotContains(t, body, `name="column"`)

	resp, _ := h.get("/explore?op=pivot")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExploreRedirectsWithoutData(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	resp, body := h.post("/explore", url.Values{"op": {"shape"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="dataset"`)
	assert.NotContains(t, body, "[SHAPE]")
}

func TestExploreReports(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.upload("sales.csv", salesCSV)

	_, body := h.post("/explore", url.Values{"op": {"shape"}})
	assert.Contains(t, body, "<td>4</td><td>3</td>")

	_, body = h.post("/explore", url.Values{"op": {"information"}})
	assert.Contains(t, body, "Data columns (total 3 columns):")

	_, body = h.post("/explore", url.Values{"op": {"missing"}})
	assert.Contains(t, body, "Total missing values: 1")
}

func TestBoxplotWarningOnText(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.upload("sales.csv", salesCSV)
	_, body := h.post("/explore", url.Values{"op": {"boxplot"}, "column": {"region"}})
	assert.Contains(t, body, "Selected column &#39;region&#39; is not numeric and cannot be used for Boxplot.")
	assert.NotContains(t, body, "data:image/png;base64,")
}

func TestCountplotEmbedsImage(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.upload("sales.csv", salesCSV)
	_, body := h.post("/explore", url.Values{"op": {"countplot"}, "column": {"product"}, "hue": {"region"}})
	assert.Contains(t, body, `src="data:image/png;base64,`)
	assert.Contains(t, body, "/plot.png?column=product&amp;hue=region&amp;op=countplot")
}

func TestPlotDownload(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.upload("sales.csv", salesCSV)

	resp, body := h.get("/plot.png?op=boxplot&column=units")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	assert.True(t, strings.HasPrefix(body, "\x89PNG"))

	resp, _ = h.get("/plot.png?op=boxplot&column=region")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = h.get("/plot.png?op=shape")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOneHotApplyAndReset(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.upload("sales.csv", salesCSV)

	_, body := h.post("/explore", url.Values{"op": {"onehot"}, "column": {"region"}, "action": {"preview"}})
	assert.Contains(t, body, "<th>region_north</th>")
	_, body = h.get("/")
	assert.Contains(t, body, "4 rows x 3 columns", "preview leaves the working data alone")

	_, body = h.post("/explore", url.Values{"op": {"onehot"}, "column": {"region"}, "action": {"apply"}})
	assert.Contains(t, body, "The working dataset was updated.")
	_, body = h.get("/")
	assert.Contains(t, body, "4 rows x 6 columns, modified")

	_, body = h.post("/explore", url.Values{"op": {"onehot"}, "column": {"region"}, "action": {"apply"}})
	assert.Contains(t, body, "already one-hot encoded")

	_, body = h.post("/reset", nil)
	assert.Contains(t, body, "4 rows x 3 columns")
	assert.NotContains(t, body, "modified")
}

func TestDropMissingApply(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.upload("sales.csv", salesCSV)
	_, body := h.post("/explore", url.Values{"op": {"missing"}, "action": {"apply"}})
	assert.Contains(t, body, "Dropped 1 rows with missing values; 3 rows remain.")
	_, body = h.get("/")
	assert.Contains(t, body, "3 rows x 3 columns")
}

func TestExploreApplyDoesNotOverwriteNewerUpload(t *testing.T) {
	store := session.NewStore(time.Hour, nil)
	srv, err := New(store, DefaultOptions(), nil)
	require.NoError(t, err)

	first, err := frame.Load("sales.csv", strings.NewReader(salesCSV), frame.DefaultLoadOptions())
	require.NoError(t, err)
	sess := store.Create().WithDataset(first)
	require.NoError(t, store.Put(sess))

	// another tab uploads while this request is in flight
	second, err := frame.Load("other.csv", strings.NewReader("a,b\n1,x\n"), frame.DefaultLoadOptions())
	require.NoError(t, err)
	require.NoError(t, store.Put(sess.WithDataset(second)))

	form := url.Values{"op": {"onehot"}, "column": {"region"}, "action": {"apply"}}
	req := httptest.NewRequest(http.MethodPost, "/explore", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = req.WithContext(context.WithValue(req.Context(), sessionKey{}, sess))
	rec := httptest.NewRecorder()
	srv.handleExplore(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "changed in another window")
	stored, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Same(t, second, stored.Current)
	assert.Equal(t, "other.csv", stored.FileName)
}
