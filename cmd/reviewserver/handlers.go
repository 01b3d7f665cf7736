package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"quizimages"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
)

const maxListedRuns = 100

type selectionView struct {
	quizimages.SelectionRecord
	Pending bool
}

func (s *Server) session(r *http.Request) *sessions.Session {
	sess, err := s.store.Get(r, sessionName)
	if err != nil {
		// a cookie signed with an old secret; Get still returns a fresh session
		quizimages.VerboseLog("Session decode failed: %v", err)
	}
	return sess
}

func reviewerName(sess *sessions.Session) string {
	name, _ := sess.Values["reviewer"].(string)
	return name
}

func flashes(w http.ResponseWriter, r *http.Request, sess *sessions.Session) []string {
	var out []string
	for _, f := range sess.Flashes() {
		if msg, ok := f.(string); ok {
			out = append(out, msg)
		}
	}
	if len(out) > 0 {
		if err := sess.Save(r, w); err != nil {
			log.Printf("Failed to save session: %v", err)
		}
	}
	return out
}

func (s *Server) render(w http.ResponseWriter, name string, data map[string]any) {
	err := s.templates[name].ExecuteTemplate(w, "base.html", data)
	if err != nil {
		log.Printf("Template error in %s: %v", name, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.db.ListRuns(r.Context(), maxListedRuns)
	if err != nil {
		log.Printf("Failed to get runs: %v", err)
		http.Error(w, "Failed to get runs", http.StatusInternalServerError)
		return
	}

	sess := s.session(r)
	s.render(w, "runs", map[string]any{
		"Runs":     runs,
		"Reviewer": reviewerName(sess),
		"Flashes":  flashes(w, r, sess),
	})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	run, err := s.db.GetRun(r.Context(), runID)
	if errors.Is(err, quizimages.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		log.Printf("Failed to get run %s: %v", runID, err)
		http.Error(w, "Failed to get run", http.StatusInternalServerError)
		return
	}

	sels, err := s.db.ListSelections(r.Context(), runID)
	if err != nil {
		log.Printf("Failed to get selections for %s: %v", runID, err)
		http.Error(w, "Failed to get selections", http.StatusInternalServerError)
		return
	}

	views := make([]selectionView, 0, len(sels))
	pending := 0
	for _, sel := range sels {
		v := selectionView{SelectionRecord: sel}
		if sel.Result.Success && sel.ReviewStatus == quizimages.ReviewPending {
			v.Pending = true
			pending++
		}
		views = append(views, v)
	}

	sess := s.session(r)
	s.render(w, "run", map[string]any{
		"Run":        run,
		"Selections": views,
		"Pending":    pending,
		"Reviewer":   reviewerName(sess),
		"Flashes":    flashes(w, r, sess),
	})
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	questionID := chi.URLParam(r, "questionID")

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	sess := s.session(r)
	reviewer := reviewerName(sess)
	if reviewer == "" {
		http.Redirect(w, r, "/reviewer?next=/runs/"+runID+"/", http.StatusSeeOther)
		return
	}

	status := strings.TrimSpace(r.FormValue("status"))
	err := s.db.SetReviewStatus(r.Context(), runID, questionID, status, reviewer)
	switch {
	case errors.Is(err, quizimages.ErrNotFound):
		http.NotFound(w, r)
		return
	case err != nil:
		log.Printf("Failed to review %s/%s: %v", runID, questionID, err)
		http.Error(w, "Invalid review", http.StatusBadRequest)
		return
	}

	sess.AddFlash(fmt.Sprintf("Question %s marked %s", questionID, status))
	if err := sess.Save(r, w); err != nil {
		log.Printf("Failed to save session: %v", err)
	}
	http.Redirect(w, r, "/runs/"+runID+"/", http.StatusSeeOther)
}

func (s *Server) handleReviewerForm(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	s.render(w, "reviewer", map[string]any{
		"Reviewer": reviewerName(sess),
		"Next":     r.URL.Query().Get("next"),
	})
}

func (s *Server) handleSetReviewer(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}

	sess := s.session(r)
	sess.Values["reviewer"] = name
	sess.AddFlash("Reviewing as " + name)
	if err := sess.Save(r, w); err != nil {
		log.Printf("Failed to save session: %v", err)
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	next := r.FormValue("next")
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		next = "/"
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (s *Server) handleDocx(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	run, err := s.db.GetRun(r.Context(), runID)
	if errors.Is(err, quizimages.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		log.Printf("Failed to get run %s: %v", runID, err)
		http.Error(w, "Failed to get run", http.StatusInternalServerError)
		return
	}
	sels, err := s.db.ListSelections(r.Context(), runID)
	if err != nil {
		log.Printf("Failed to get selections for %s: %v", runID, err)
		http.Error(w, "Failed to get selections", http.StatusInternalServerError)
		return
	}

	dir, err := os.MkdirTemp("", "quizimages-docx")
	if err != nil {
		log.Printf("Failed to create temp dir: %v", err)
		http.Error(w, "Export failed", http.StatusInternalServerError)
		return
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, runID+".docx")
	if err := quizimages.WriteReviewDocx(path, run.Report(sels)); err != nil {
		log.Printf("Failed to write docx for %s: %v", runID, err)
		http.Error(w, "Export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "review-"+runID+".docx"))
	http.ServeFile(w, r, path)
}
