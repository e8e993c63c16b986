package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"book_creator/delivery"
	"book_creator/document"
	"book_creator/generator"
	"book_creator/session"
)

//go:embed web
var embeddedStatic embed.FS

const sessionCookie = "book_creator_session"

type Server struct {
	runner    *session.Runner
	store     *session.Store
	outputs   *delivery.Store
	logger    *logrus.Logger
	maxUpload int64
	staticFS  http.Handler
}

func New(runner *session.Runner, store *session.Store, outputs *delivery.Store, logger *logrus.Logger, maxUpload int64) (*Server, error) {
	if runner == nil || store == nil || outputs == nil {
		return nil, errors.New("runner, session store and output store required")
	}
	if maxUpload <= 0 {
		return nil, errors.New("max upload size must be positive")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	sub, err := fs.Sub(embeddedStatic, "web")
	if err != nil {
		return nil, err
	}

	return &Server{
		runner:    runner,
		store:     store,
		outputs:   outputs,
		logger:    logger,
		maxUpload: maxUpload,
		staticFS:  http.FileServer(http.FS(sub)),
	}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate", s.handleGenerate)
	mux.HandleFunc("/api/edit", s.handleEdit)
	mux.HandleFunc("/api/session", s.handleSession)
	mux.HandleFunc("/download/", s.handleDownload)
	mux.Handle("/", s.staticHandler())
	return s.logMiddleware(mux)
}

func (s *Server) staticHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		s.staticFS.ServeHTTP(w, r)
	})
}

// --- Handlers ---

type runResp struct {
	SessionID   string          `json:"session_id"`
	State       session.State   `json:"state"`
	Result      *session.Result `json:"result"`
	DownloadURL string          `json:"download_url"`
}

type errorResp struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.parseForm(w, r); err != nil {
		s.writeError(w, err)
		return
	}

	req := generator.GenerationRequest{
		Theme: r.FormValue("theme"),
		Intro: r.FormValue("intro"),
		Genre: r.FormValue("genre"),
	}
	if raw := strings.TrimSpace(r.FormValue("pages")); raw != "" {
		pages, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, &generator.ValidationError{Field: "pages", Message: "number of pages must be a whole number"})
			return
		}
		req.Pages = pages
	}

	sess := s.session(w, r)
	// once started, a run finishes even if the browser goes away
	res, err := s.runner.Generate(context.WithoutCancel(r.Context()), sess, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runResp{
		SessionID:   sess.ID,
		State:       session.StateRendered,
		Result:      res,
		DownloadURL: "/download/" + string(delivery.KindOutline),
	})
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.parseForm(w, r); err != nil {
		s.writeError(w, err)
		return
	}

	req := generator.EditRequest{Instruction: r.FormValue("instruction")}
	file, header, err := r.FormFile("document")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// left empty; Validate reports it
	case err != nil:
		s.writeError(w, err)
		return
	default:
		defer file.Close()
		// The declared Content-Type is not trusted; Validate checks the %PDF- magic.
		data, err := io.ReadAll(file)
		if err != nil {
			s.writeError(w, err)
			return
		}
		req.Document = data
		req.Filename = header.Filename
	}

	sess := s.session(w, r)
	res, err := s.runner.Edit(context.WithoutCancel(r.Context()), sess, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runResp{
		SessionID:   sess.ID,
		State:       session.StateRendered,
		Result:      res,
		DownloadURL: "/download/" + string(delivery.KindEdited),
	})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.session(w, r).Snapshot())
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	kind, err := delivery.ParseKind(strings.TrimPrefix(r.URL.Path, "/download/"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	sess, ok := s.store.Get(c.Value)
	if !ok {
		http.NotFound(w, r)
		return
	}

	f, err := s.outputs.Open(sess.ID, kind)
	if errors.Is(err, delivery.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer f.Close()

	modTime := time.Time{}
	if info, err := f.Stat(); err == nil {
		modTime = info.ModTime()
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+kind.Filename()+`"`)
	http.ServeContent(w, r, kind.Filename(), modTime, f)
}

// --- Helpers ---

// session returns the caller's session, starting one (and setting the
// cookie) when the cookie is missing or the session has expired.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *session.Session {
	id := ""
	if c, err := r.Cookie(sessionCookie); err == nil {
		id = c.Value
	}
	sess, created := s.store.GetOrCreate(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	err := r.ParseMultipartForm(s.maxUpload)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		vErr      *generator.ValidationError
		genErr    *generator.GenerationError
		exErr     *document.ExtractionError
		renderErr *document.RenderError
		sizeErr   *http.MaxBytesError
	)
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusBadRequest, errorResp{Error: vErr.Message, Field: vErr.Field})
	case errors.As(err, &sizeErr):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp{Error: "upload is too large", Field: "document"})
	case errors.As(err, &genErr):
		writeJSON(w, http.StatusBadGateway, errorResp{Error: "The text generation service failed. Please try again."})
	case errors.As(err, &exErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResp{Error: "The uploaded PDF could not be read.", Field: "document"})
	case errors.As(err, &renderErr):
		writeJSON(w, http.StatusInternalServerError, errorResp{Error: renderErr.Error()})
	default:
		s.logger.WithError(err).Error("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResp{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Debug("http request")
	})
}
