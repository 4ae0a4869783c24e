package handlers

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/pypeit/pypeitfile/internal/pypeit"
)

// FileSummary is the listing form of a stored file.
type FileSummary struct {
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	Spectrograph string    `json:"spectrograph,omitempty"`
	Frames       int       `json:"frames"`
	Errors       int       `json:"errors"`
	Warnings     int       `json:"warnings"`
	ParseError   string    `json:"parse_error,omitempty"`
	LoadedAt     time.Time `json:"loaded_at"`
}

func (h *Handler) HandleFiles(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		entries := h.store.GetAll()
		list := make([]FileSummary, 0, len(entries))
		for name, e := range entries {
			s := FileSummary{
				Name:       name,
				Path:       e.Path,
				ParseError: e.Err,
				LoadedAt:   e.LoadedAt,
				Errors:     len(e.Report.Errors()),
				Warnings:   len(e.Report.Warnings()),
			}
			if e.File != nil {
				s.Spectrograph = e.File.Spectrograph()
				s.Frames = len(e.File.Frames())
			}
			list = append(list, s)
		}
		sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
		h.writeJSON(w, list)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleFileDetail serves /api/files/{name} and /api/files/{name}/frames,
// where name is the file's path relative to the served root.
// The frames listing accepts ?type= and ?calib= filters.
func (h *Handler) HandleFileDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// names are relative paths and may contain slashes
	name := strings.TrimPrefix(r.URL.Path, "/api/files/")
	sub := ""
	if _, exists := h.store.Get(name); !exists {
		if trimmed, ok := strings.CutSuffix(name, "/frames"); ok {
			name, sub = trimmed, "frames"
		}
	}

	entry, ok := h.getEntryOrError(w, name)
	if !ok {
		return
	}

	switch sub {
	case "":
		h.writeJSON(w, entry)
	case "frames":
		if entry.File == nil {
			h.writeError(w, "File did not parse: "+entry.Err, http.StatusUnprocessableEntity)
			return
		}
		frames := entry.File.Frames()
		if ft := r.URL.Query().Get("type"); ft != "" {
			frames = filterFrames(frames, func(fr pypeit.Frame) bool { return fr.Is(pypeit.FrameType(ft)) })
		}
		if calib := r.URL.Query().Get("calib"); calib != "" {
			g, err := pypeit.ParseID(calib)
			if err != nil {
				h.writeError(w, "Invalid calib: "+calib, http.StatusBadRequest)
				return
			}
			frames = filterFrames(frames, func(fr pypeit.Frame) bool { return fr.InCalib(g) })
		}
		if frames == nil {
			frames = []pypeit.Frame{}
		}
		h.writeJSON(w, frames)
	}
}

func filterFrames(frames []pypeit.Frame, keep func(pypeit.Frame) bool) []pypeit.Frame {
	var out []pypeit.Frame
	for _, fr := range frames {
		if keep(fr) {
			out = append(out, fr)
		}
	}
	return out
}
