package web

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"inventoryrecord/internal/controller"
	"inventoryrecord/pkg/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"label":         domain.Label,
	"confirmDelete": confirmDelete,
}

var pages = map[controller.View]*template.Template{
	controller.ViewList:   parsePage("list.html"),
	controller.ViewForm:   parsePage("form.html"),
	controller.ViewDetail: parsePage("detail.html"),
}

func parsePage(name string) *template.Template {
	return template.Must(template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name))
}

func confirmDelete(name string) string {
	return "Are you absolutely sure? This action cannot be undone. This will permanently delete the entry for " + name + "."
}

// field is one labeled input or value on a page.
type field struct {
	Name  string
	Label string
	Value string
}

type pageData struct {
	BasePath    string
	Title       string
	Description string
	Error       string
	ShowBack    bool
	Editing     bool
	Entries     []domain.Entry
	Entry       domain.Entry
	Fields      []field
}

// headerFields are shown in the detail header rather than the field grid.
var headerFields = map[string]bool{
	domain.FieldName:     true,
	domain.FieldPosition: true,
	domain.FieldCompany:  true,
}

func (h *Handler) pageData(st controller.State) pageData {
	data := pageData{
		BasePath: h.basePath,
		Error:    st.Error,
		ShowBack: st.Navigation.View != controller.ViewList,
	}
	switch st.Navigation.View {
	case controller.ViewForm:
		data.Title = "Add New Entry"
		data.Description = "Fill in the details for the new entry"
		data.Fields = inputs(st.Draft)
	case controller.ViewDetail:
		entry := st.Navigation.Entry
		data.Entry = entry
		data.Editing = st.Navigation.Editing
		data.Title = entry.Name()
		data.Description = entry.Get(domain.FieldPosition) + " at " + entry.Get(domain.FieldCompany)
		if data.Editing {
			values := entry.Fields
			if st.Draft != nil {
				values = st.Draft
			}
			data.Fields = inputs(values)
		} else {
			for _, k := range entry.Fields.Keys() {
				if headerFields[k] {
					continue
				}
				data.Fields = append(data.Fields, field{Name: k, Label: domain.Label(k), Value: entry.Get(k)})
			}
		}
	default:
		data.Title = "Entries"
		data.Description = "Manage and view all your entries"
		data.Entries = st.Entries
	}
	return data
}

func inputs(values domain.EntryFormData) []field {
	names := domain.FieldNames()
	out := make([]field, len(names))
	for i, f := range names {
		out[i] = field{Name: f, Label: domain.Label(f), Value: values.Get(f)}
	}
	return out
}

func (h *Handler) handlePage(w http.ResponseWriter, _ *http.Request) {
	st := h.ctrl.State()
	tmpl, ok := pages[st.Navigation.View]
	if !ok {
		tmpl = pages[controller.ViewList]
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, h.pageData(st)); err != nil {
		h.logger.Error("render page failed", slog.String("view", string(st.Navigation.View)), slog.Any("err", err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
