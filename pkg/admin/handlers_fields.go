package admin

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nilm987521/gofep/internal/events"
	"github.com/nilm987521/gofep/internal/logger"
	"github.com/nilm987521/gofep/internal/protocol/iso8583"
)

// FieldsHandler serves the field definition table endpoints.
type FieldsHandler struct {
	tables *iso8583.TableRegistry
	bus    *events.Bus
}

// NewFieldsHandler creates a new fields handler. bus may be nil.
func NewFieldsHandler(tables *iso8583.TableRegistry, bus *events.Bus) *FieldsHandler {
	return &FieldsHandler{tables: tables, bus: bus}
}

// ProvidersResponse is the body of GET /api/v1/fields.
type ProvidersResponse struct {
	Providers []string `json:"providers"`
}

// TableResponse is the body of GET /api/v1/fields/{provider}.
type TableResponse struct {
	Provider string      `json:"provider"`
	Source   string      `json:"source,omitempty"`
	Fields   []FieldView `json:"fields"`
}

// FieldView is the JSON rendition of one field definition.
type FieldView struct {
	Number         int    `json:"number"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	Type           string `json:"type"`
	LengthType     string `json:"lengthType"`
	Length         int    `json:"length"`
	DataEncoding   string `json:"dataEncoding"`
	LengthEncoding string `json:"lengthEncoding"`
	Sensitive      bool   `json:"sensitive"`
}

// List handles GET /api/v1/fields.
func (h *FieldsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.tables == nil {
		ServiceUnavailable(w, "Field table registry is not available")
		return
	}
	WriteJSONOK(w, ProvidersResponse{Providers: h.tables.Providers()})
}

// Get handles GET /api/v1/fields/{provider}.
func (h *FieldsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.tables == nil {
		ServiceUnavailable(w, "Field table registry is not available")
		return
	}
	provider := chi.URLParam(r, "provider")

	table, err := h.tables.Table(provider)
	if err != nil {
		if errors.Is(err, iso8583.ErrUnknownProvider) {
			NotFound(w, "Unknown field table provider: "+provider)
			return
		}
		UnprocessableEntity(w, "Failed to load field table: "+err.Error())
		return
	}

	resp := TableResponse{
		Provider: table.Provider(),
		Fields:   make([]FieldView, 0, table.Len()),
	}
	if source, ok := h.tables.Source(provider); ok {
		resp.Source = source
	}
	for _, n := range table.Fields() {
		def, _ := table.Get(n)
		resp.Fields = append(resp.Fields, fieldToView(def))
	}

	WriteJSONOK(w, resp)
}

// Reload handles POST /api/v1/fields/{provider}/reload.
//
// On parse failure the previous table stays active and the parse error is
// returned, so a broken file pushed to disk cannot take the processor down.
func (h *FieldsHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if h.tables == nil {
		ServiceUnavailable(w, "Field table registry is not available")
		return
	}
	provider := chi.URLParam(r, "provider")

	if err := h.tables.Reload(provider); err != nil {
		if errors.Is(err, iso8583.ErrUnknownProvider) {
			NotFound(w, "Unknown field table provider: "+provider)
			return
		}
		UnprocessableEntity(w, "Reload failed, previous table kept: "+err.Error())
		return
	}

	table, err := h.tables.Table(provider)
	if err != nil {
		InternalServerError(w, "Reloaded table not readable: "+err.Error())
		return
	}

	logger.Info("field table reloaded via admin API",
		"provider", provider, "fields", table.Len())
	if h.bus != nil {
		h.bus.Emit(events.TypeFieldsReload, "admin", map[string]any{
			"provider": provider,
			"fields":   table.Len(),
		})
	}

	WriteJSONOK(w, map[string]any{
		"provider": provider,
		"fields":   table.Len(),
	})
}

func fieldToView(def *iso8583.FieldDef) FieldView {
	return FieldView{
		Number:         def.Number,
		Name:           def.Name,
		Description:    def.Description,
		Type:           def.Type.String(),
		LengthType:     def.LengthType.String(),
		Length:         def.Length,
		DataEncoding:   def.DataEncoding.String(),
		LengthEncoding: def.LengthEncoding.String(),
		Sensitive:      def.Sensitive,
	}
}
