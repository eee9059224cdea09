package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/tagviewer/pkg/comment"
	tverrors "github.com/matzehuels/tagviewer/pkg/errors"
	"github.com/matzehuels/tagviewer/pkg/pipeline"
	"github.com/matzehuels/tagviewer/pkg/relations"
	"github.com/matzehuels/tagviewer/pkg/render"
	"github.com/matzehuels/tagviewer/pkg/table"
)

// Response headers carrying translation statistics.
const (
	headerNodes    = "X-Graph-Nodes"
	headerEdges    = "X-Graph-Edges"
	headerSkipped  = "X-Graph-Skipped"
	headerWarnings = "X-Graph-Warnings"
	headerCache    = "X-Cache"
)

// errorResponse mirrors the comment endpoint's response shape so the
// browser shows every failure the same way.
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Style   string `json:"style"`
	Code    string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Message: msg, Style: comment.StyleDanger})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := tverrors.HTTPStatus(err)
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		status = http.StatusRequestEntityTooLarge
	}
	if status >= 500 {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorResponse{
		Message: tverrors.UserMessage(err),
		Style:   comment.StyleDanger,
		Code:    string(tverrors.GetCode(err)),
	})
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) (string, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", tverrors.Wrap(tverrors.ErrCodeInvalidInput, err, "request body exceeds %d bytes", s.opts.MaxBodyBytes)
		}
		return "", tverrors.Wrap(tverrors.ErrCodeInvalidInput, err, "read request body")
	}
	return string(data), nil
}

func boolParam(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}

func setGraphHeaders(h http.Header, st pipeline.Stats) {
	h.Set(headerNodes, strconv.Itoa(st.Nodes))
	h.Set(headerEdges, strconv.Itoa(st.Edges))
	h.Set(headerSkipped, strconv.Itoa(st.Skipped))
	h.Set(headerWarnings, strconv.Itoa(st.Warnings))
}

// handleGraph renders the request body.
//
//	POST /api/graph?input=relations|dot&format=svg|png|pdf|dot&styled=1&strict=1
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	opts := pipeline.Options{
		Input:       body,
		InputFormat: q.Get("input"),
		Formats:     []string{format},
		Styled:      boolParam(r, "styled"),
		Strict:      boolParam(r, "strict"),
		Refresh:     boolParam(r, "refresh"),
	}
	if scale := q.Get("scale"); scale != "" {
		f, err := strconv.ParseFloat(scale, 64)
		if err != nil {
			s.writeError(w, r, tverrors.Wrap(tverrors.ErrCodeInvalidInput, err, "invalid scale %q", scale))
			return
		}
		opts.Scale = f
	}

	res, err := s.opts.Runner.Execute(r.Context(), opts)
	if res != nil {
		setGraphHeaders(w.Header(), res.Stats)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", render.ContentType(format))
	h.Set("ETag", res.ETags[format])
	if res.CacheInfo.RenderHit {
		h.Set(headerCache, "HIT")
	} else {
		h.Set(headerCache, "MISS")
	}
	w.Write(res.Artifacts[format])
}

type translateResponse struct {
	DOT         string                 `json:"dot"`
	Nodes       int                    `json:"nodes"`
	Edges       int                    `json:"edges"`
	Skipped     int                    `json:"skipped"`
	Warnings    int                    `json:"warnings"`
	Diagnostics []relations.Diagnostic `json:"diagnostics"`
}

// handleTranslate returns the description and diagnostics without rendering.
func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res := relations.Translate(body)
	diags := res.Diagnostics
	if diags == nil {
		diags = []relations.Diagnostic{}
	}
	setGraphHeaders(w.Header(), pipeline.Stats{Nodes: res.Nodes, Edges: res.Edges, Skipped: res.Skipped(), Warnings: res.Warnings()})
	writeJSON(w, http.StatusOK, translateResponse{
		DOT:         res.DOT,
		Nodes:       res.Nodes,
		Edges:       res.Edges,
		Skipped:     res.Skipped(),
		Warnings:    res.Warnings(),
		Diagnostics: diags,
	})
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	index, err := table.ListTags(r.Context(), s.opts.Source)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.opts.TableOptions.Descriptor(index))
}

// handleTag returns the widget descriptor of one tag. Descriptors are cached
// per source and tag id.
func (s *Server) handleTag(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := tverrors.ValidateTableName(id); err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	key := s.opts.Keyer.TableKey(s.opts.Source.String(), id)
	if boolParam(r, "refresh") {
		ctx = table.WithRefresh(ctx)
	} else {
		if data, ok, _ := s.opts.Cache.Get(ctx, key); ok {
			w.Header().Set(headerCache, "HIT")
			w.Header().Set("Content-Type", "application/json")
			w.Write(data)
			return
		}
	}

	tag, err := table.LoadTag(ctx, s.opts.Source, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := json.Marshal(tag.Descriptor(s.tagOptions(id)))
	if err != nil {
		s.writeError(w, r, tverrors.Wrap(tverrors.ErrCodeInternal, err, "encode tag %s", id))
		return
	}
	data = append(data, '\n')
	if err := s.opts.Cache.Set(ctx, key, data, s.opts.CacheTTL); err != nil {
		s.logger.Warn("cache write failed", "tag", id, "err", err)
	}

	w.Header().Set(headerCache, "MISS")
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// tagOptions names exports after the tag unless an export name is configured.
func (s *Server) tagOptions(id string) table.Options {
	o := s.opts.TableOptions
	if o.ExportOptions.FileName == "" || o.ExportOptions.FileName == table.DefaultExportName {
		o.ExportOptions.FileName = "tag_" + id
	}
	return o
}

// handleExport downloads a tag table.
//
//	GET /api/tags/001/export?type=csv
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	typ := r.URL.Query().Get("type")
	if typ == "" {
		typ = "csv"
	}
	if !table.ExportTypeSupported(typ) {
		s.writeError(w, r, tverrors.New(tverrors.ErrCodeInvalidFormat, "unsupported export type %q", typ))
		return
	}

	tag, err := table.LoadTag(r.Context(), s.opts.Source, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := table.Export(&buf, tag.Table, typ); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", exportContentTypes[typ])
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", table.ExportFileName(s.tagOptions(id), typ)))
	w.Write(buf.Bytes())
}

var exportContentTypes = map[string]string{
	"csv":   "text/csv; charset=utf-8",
	"txt":   "text/plain; charset=utf-8",
	"json":  "application/json",
	"excel": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"xlsx":  "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// handleCompare loads several tags side by side.
//
//	GET /api/compare?ids=001,002
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	ids := strings.Split(r.URL.Query().Get("ids"), ",")
	tags, err := table.LoadTags(r.Context(), s.opts.Source, ids)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]table.Descriptor, len(tags))
	for i, t := range tags {
		out[i] = t.Descriptor(s.tagOptions(t.ID))
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": out})
}

// handleTagHTML renders a tag as an HTML fragment: description, then table.
func (s *Server) handleTagHTML(w http.ResponseWriter, r *http.Request) {
	tag, err := table.LoadTag(r.Context(), s.opts.Source, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	buf.WriteString(`<div class="tag-meta">`)
	if err := table.WriteMetaHTML(&buf, table.MetaLines(tag.Meta)); err != nil {
		s.writeError(w, r, tverrors.Wrap(tverrors.ErrCodeInternal, err, "render meta"))
		return
	}
	buf.WriteString("</div>\n")
	if err := table.WriteHTML(&buf, tag.Table); err != nil {
		s.writeError(w, r, tverrors.Wrap(tverrors.ErrCodeInternal, err, "render table"))
		return
	}
	buf.WriteString("\n")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// handleComment forwards a comment form to the configured endpoint and
// relays its answer.
func (s *Server) handleComment(w http.ResponseWriter, r *http.Request) {
	if s.opts.Comments == nil {
		writeJSON(w, http.StatusNotImplemented, errorResponse{
			Message: "comments are not configured",
			Style:   comment.StyleWarning,
			Code:    string(tverrors.ErrCodeUnsupported),
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	if err := r.ParseForm(); err != nil {
		s.writeError(w, r, tverrors.Wrap(tverrors.ErrCodeInvalidInput, err, "parse form"))
		return
	}
	sub, err := comment.ParseForm(r.PostForm)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp, err := s.opts.Comments.Post(r.Context(), sub)
	if tverrors.Is(err, tverrors.ErrCodeCommentRejected) && resp != nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
