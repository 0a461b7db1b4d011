package web

import (
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/KaramelBytes/tabula/internal/explore"
	"github.com/KaramelBytes/tabula/internal/frame"
	"github.com/KaramelBytes/tabula/internal/session"
)

type opOption struct {
	Name     string
	Label    string
	Selected bool
}

type opForm struct {
	Name       string
	Label      string
	Controls   explore.Controls
	Candidates []string
	Hues       []string
	Column     string
	Hue        string
}

type resultView struct {
	Title     string
	Warnings  []string
	Notices   []string
	Tables    []explore.Table
	Report    template.HTML
	Image     template.URL
	ImageLink string
}

type pageView struct {
	Intro    template.HTML
	Error    string
	FileName string
	HasData  bool
	Modified bool
	Shape    string
	Preview  *explore.Table
	Ops      []opOption
	Op       *opForm
	Result   *resultView
}

func (s *Server) baseView(sess session.Session, selected *explore.Operation) pageView {
	v := pageView{FileName: sess.FileName, HasData: sess.HasData(), Modified: sess.Modified()}
	for _, op := range explore.All() {
		v.Ops = append(v.Ops, opOption{
			Name:     op.String(),
			Label:    op.Label(),
			Selected: selected != nil && *selected == op,
		})
	}
	if sess.HasData() {
		rows, cols := sess.Current.Shape()
		v.Shape = fmt.Sprintf("%d rows x %d columns", rows, cols)
		p := explore.PreviewTable(sess.Current, s.opt.PreviewRows)
		v.Preview = &p
	}
	return v
}

func (s *Server) formFor(sess session.Session, op explore.Operation, column, hue string) *opForm {
	ctl := explore.ControlsFor(op)
	f := &opForm{Name: op.String(), Label: op.Label(), Controls: ctl, Column: column, Hue: hue}
	if sess.HasData() {
		f.Candidates = ctl.Candidates(sess.Current)
		if ctl.Hue {
			f.Hues = sess.Current.Names()
		}
	}
	return f
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, s.baseView(sessionFrom(r), nil))
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	r.Body = http.MaxBytesReader(w, r.Body, s.opt.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opt.MaxUploadBytes); err != nil {
		s.uploadError(w, sess, uploadStatus(err), fmt.Errorf("read upload: %w", err))
		return
	}
	file, hdr, err := r.FormFile("dataset")
	if err != nil {
		s.uploadError(w, sess, http.StatusBadRequest, errors.New("choose a file to upload"))
		return
	}
	defer file.Close()
	ds, err := frame.Load(hdr.Filename, file, s.opt.Load)
	if err != nil {
		s.uploadError(w, sess, http.StatusBadRequest, err)
		return
	}
	if err := s.store.Put(sess.WithDataset(ds)); err != nil {
		s.uploadError(w, sess, http.StatusInternalServerError, err)
		return
	}
	rows, cols := ds.Shape()
	s.log.Info("session %s loaded %s (%d x %d)", sess.ID, ds.Name(), rows, cols)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func uploadStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func (s *Server) uploadError(w http.ResponseWriter, sess session.Session, status int, err error) {
	s.log.Warn("upload rejected for %s: %v", sess.ID, err)
	v := s.baseView(sess, nil)
	v.Error = "Could not load the file: " + err.Error()
	s.render(w, status, v)
}

func (s *Server) handleExploreForm(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if !sess.HasData() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	op, err := explore.ParseOperation(r.URL.Query().Get("op"))
	if err != nil {
		v := s.baseView(sess, nil)
		v.Error = err.Error()
		s.render(w, http.StatusBadRequest, v)
		return
	}
	v := s.baseView(sess, &op)
	v.Op = s.formFor(sess, op, "", "")
	s.render(w, http.StatusOK, v)
}

func (s *Server) handleExplore(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if !sess.HasData() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	req, err := s.requestFrom(r.PostForm)
	if err != nil {
		v := s.baseView(sess, nil)
		v.Error = err.Error()
		s.render(w, http.StatusBadRequest, v)
		return
	}
	res, err := s.run(r, sess.Current, req)
	if err != nil {
		s.log.Error("%s on %s: %v", req.Op, sess.FileName, err)
		v := s.baseView(sess, &req.Op)
		v.Op = s.formFor(sess, req.Op, req.Column, req.Hue)
		v.Error = err.Error()
		s.render(w, http.StatusInternalServerError, v)
		return
	}
	if res.Next != nil {
		latest, err := s.store.Advance(sess.ID, sess.Current, res.Next)
		switch {
		case errors.Is(err, session.ErrStale):
			s.log.Warn("%s on %s not applied: dataset changed", req.Op, sess.FileName)
			v := s.baseView(latest, &req.Op)
			v.Op = s.formFor(latest, req.Op, req.Column, req.Hue)
			v.Error = "The dataset was changed in another window; the result was not applied."
			s.render(w, http.StatusConflict, v)
			return
		case err != nil:
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		sess = latest
	}
	v := s.baseView(sess, &req.Op)
	v.Op = s.formFor(sess, req.Op, req.Column, req.Hue)
	v.Result = s.resultView(req, res)
	s.render(w, http.StatusOK, v)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if sess.HasData() {
		if err := s.store.Put(sess.Reset()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handlePlot renders a chart on every request; the image is never cached.
func (s *Server) handlePlot(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if !sess.HasData() {
		http.Error(w, "no dataset loaded", http.StatusNotFound)
		return
	}
	req, err := s.requestFrom(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !isChart(req.Op) {
		http.Error(w, fmt.Sprintf("%s does not produce a plot", req.Op.Label()), http.StatusBadRequest)
		return
	}
	res, err := s.run(r, sess.Current, req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if res.Skipped() || res.Image == nil {
		http.Error(w, strings.Join(res.Warnings, "\n"), http.StatusUnprocessableEntity)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", req.Op.String()+"-"+req.Column+".png"))
	_, _ = w.Write(res.Image.PNG)
}

func isChart(op explore.Operation) bool {
	switch op {
	case explore.OpBoxplot, explore.OpHistogram, explore.OpCountplot:
		return true
	}
	return false
}

func (s *Server) requestFrom(form url.Values) (explore.Request, error) {
	op, err := explore.ParseOperation(form.Get("op"))
	if err != nil {
		return explore.Request{}, err
	}
	action, err := explore.ParseAction(form.Get("action"))
	if err != nil {
		return explore.Request{}, err
	}
	return explore.Request{
		Op:          op,
		Column:      form.Get("column"),
		Hue:         form.Get("hue"),
		Action:      action,
		Chart:       s.opt.Chart,
		PreviewRows: s.opt.PreviewRows,
	}, nil
}

// run executes the request, holding a render slot for chart operations.
func (s *Server) run(r *http.Request, ds *frame.Dataset, req explore.Request) (explore.Result, error) {
	if isChart(req.Op) {
		if err := s.renders.Acquire(r.Context(), 1); err != nil {
			return explore.Result{}, fmt.Errorf("wait for render slot: %w", err)
		}
		defer s.renders.Release(1)
	}
	return explore.Run(ds, req)
}

func (s *Server) resultView(req explore.Request, res explore.Result) *resultView {
	v := &resultView{
		Title:    res.Title,
		Warnings: res.Warnings,
		Notices:  res.Notices,
		Tables:   res.Tables,
	}
	if req.Op == explore.OpInformation && res.Markdown != "" {
		v.Report = renderMarkdown(res.Markdown)
		v.Tables = nil
	}
	if res.Image != nil {
		v.Image = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(res.Image.PNG))
		q := url.Values{"op": {req.Op.String()}, "column": {req.Column}}
		if req.Hue != "" {
			q.Set("hue", req.Hue)
		}
		v.ImageLink = "/plot.png?" + q.Encode()
	}
	return v
}
