package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"beneficiary-data/internal/domain"
	"beneficiary-data/internal/mapping"
	"beneficiary-data/internal/service"

	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// BeneficiaryHandler 受益人记录 /api/v1/teams/{teamID}/beneficiaries/...
type BeneficiaryHandler struct {
	records   *service.BeneficiaryService
	maxUpload int64
	logger    *zap.Logger
}

func NewBeneficiaryHandler(records *service.BeneficiaryService, maxUpload int64, logger *zap.Logger) *BeneficiaryHandler {
	if maxUpload <= 0 {
		maxUpload = service.DefaultMaxImport
	}
	return &BeneficiaryHandler{records: records, maxUpload: maxUpload, logger: logger}
}

func (h *BeneficiaryHandler) Serve(w http.ResponseWriter, r *http.Request, sess *domain.Session, teamID string, rest []string) {
	post := r.Method == http.MethodPost
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		h.List(w, r, sess, teamID)
	case len(rest) == 0 && post:
		h.Create(w, r, sess, teamID)
	case len(rest) == 0:
		methodNotAllowed(w)

	case len(rest) == 1 && rest[0] == "bulk-delete" && post:
		h.BulkDelete(w, r, sess, teamID)
	case len(rest) == 1 && rest[0] == "bulk-edit" && post:
		h.BulkEdit(w, r, sess, teamID)
	case len(rest) == 1 && rest[0] == "clear" && post:
		h.Clear(w, r, sess, teamID)
	case len(rest) == 1 && rest[0] == "import" && post:
		h.Import(w, r, sess, teamID)
	case len(rest) == 2 && rest[0] == "import" && rest[1] == "preview" && post:
		h.PreviewImport(w, r, sess, teamID)
	case len(rest) == 1 && rest[0] == "export" && r.Method == http.MethodGet:
		h.Export(w, r, sess, teamID)
	case len(rest) == 1 && rest[0] == "duplicates" && r.Method == http.MethodGet:
		h.Duplicates(w, r, sess, teamID)
	case len(rest) == 2 && rest[0] == "duplicates" && rest[1] == "remove" && post:
		h.RemoveDuplicates(w, r, sess, teamID)

	case len(rest) == 1 && r.Method == http.MethodGet:
		h.Get(w, r, sess, teamID, rest[0])
	case len(rest) == 1 && r.Method == http.MethodPut:
		h.Update(w, r, sess, teamID, rest[0])
	case len(rest) == 1 && r.Method == http.MethodDelete:
		h.Delete(w, r, sess, teamID, rest[0])
	case len(rest) <= 2:
		methodNotAllowed(w)
	default:
		notFound(w)
	}
}

type idsRequest struct {
	IDs []string `json:"ids"`
}

type confirmRequest struct {
	Confirm bool `json:"confirm"`
}

func (h *BeneficiaryHandler) List(w http.ResponseWriter, r *http.Request, sess *domain.Session, teamID string) {
	q := r.URL.Query()
	req := service.ListBeneficiariesRequest{
		Search:           q.Get("search"),
		TypeOfAssistance: q.Get("type_of_assistance"),
		SortBy:           q.Get("sort_by"),
		Desc:             parseBool(q.Get("desc")),
		Page:             parseInt(q.Get("page"), 1),
		Size:             parseInt(q.Get("size"), service.DefaultPageSize),
	}
	resp, err := h.records.List(r.Context(), sess, teamID, req)
	if err != nil {
		writeError(w, h.logger, "list beneficiaries", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *BeneficiaryHandler) Get(w http.ResponseWriter, r *http.Request, sess *domain.Session, teamID, id string) {
	b, err := h.records.Get(r.Context(), sess, teamID, id)
	if err != nil {
		writeError(w, h.logger, "get beneficiary", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, Ok(b))
}

// Create takes a JSON object of field key -> value.
func (h *BeneficiaryHandler) Create(w http.ResponseWriter, r *http.Request, sess *domain.Session, teamID string) {
	var fields map[string]string
	if err := readBodyJSON(r, maxJSONBody, &fields); err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	b, err := h.records.Create(r.Context(), sess, teamID, fields)
	if err != nil {
		writeError(w, h.logger, "create beneficiary", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, Ok(b))
}

// Update takes the changed fields only.
func (h *BeneficiaryHandler) Update(w http.ResponseWriter, r *http.Request, sess *domain.Session, teamID, id string) {
	var fields map[string]string
	if err := readBodyJSON(r, maxJSONBody, &fields); err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	b, err := h.records.Update(r.Context(), sess, teamID, id, fields)
	if err != nil {
		writeError(w, h.logger, "update beneficiary", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, Ok(b))
}

func (h *BeneficiaryHandler) Delete(w http.ResponseWriter, r *http.Request, sess *domain.Session, teamID, id string) {
	if err := h.records.Delete(r.Context(), sess, teamID, id); err != nil {
		writeError(w, h.logger, "delete beneficiary", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *BeneficiaryHandler) BulkDelete(w http.ResponseWriter, r *http.Request, sess *domain.Session, teamID string) {
	var req idsRequest
	if err := readBodyJSON(r, maxJSONBody*8, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	out, err := h.records.BulkDelete(r.Context(), sess, teamID, req.IDs)
	if err != nil {
		writeError(w, h.logger, "bulk delete", err, out)
		return
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

func (h *BeneficiaryHandler) BulkEdit(w http.ResponseWriter, r *http.Request, sess *domain.Session, teamID string) {
	var req service.BulkEditRequest
	if err := readBodyJSON(r, maxJSONBody*8, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	out, err := h.records.BulkEdit(r.Context(), sess, teamID, req)
	if err != nil {
		writeError(w, h.logger, "bulk edit", err, out)
		return
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

func (h *BeneficiaryHandler) Clear(w http.ResponseWriter, r *http.Request, sess *domain.Session, teamID string) {
	var req confirmRequest
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	n, err := h.records.Clear(r.Context(), sess, teamID, req.Confirm)
	if err != nil {
		writeError(w, h.logger, "clear beneficiaries", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]int{"deleted": n}))
}

// upload reads the "file" part of a multipart request.
func (h *BeneficiaryHandler) upload(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+maxJSONBody)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, fmt.Errorf("%w: file is larger than %d bytes", service.ErrInvalidInput, h.maxUpload)
		}
		return nil, nil, fmt.Errorf("%w: expected a multipart upload", service.ErrInvalidInput)
	}
	f, fh, err := r.FormFile("file")
	if err != nil {
		return nil, nil, fmt.Errorf("%w: choose a spreadsheet to upload", service.ErrInvalidInput)
	}
	return f, fh, nil
}

func (h *BeneficiaryHandler) PreviewImport(w http.ResponseWriter, r *http.Request, sess *domain.Session, teamID string) {
	f, fh, err := h.upload(w, r)
	if err != nil {
		writeError(w, h.logger, "preview import", err, nil)
		return
	}
	defer f.Close()
	p, err := h.records.PreviewImport(r.Context(), sess, teamID, f, fh.Filename, r.FormValue("sheet"))
	if err != nil {
		writeError(w, h.logger, "preview import", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, Ok(p))
}

// Import expects the upload plus a "mapping" form field holding a JSON
// object of header -> field key.
func (h *BeneficiaryHandler) Import(w http.ResponseWriter, r *http.Request, sess *domain.Session, teamID string) {
	f, fh, err := h.upload(w, r)
	if err != nil {
		writeError(w, h.logger, "import", err, nil)
		return
	}
	defer f.Close()

	m := mapping.New()
	if raw := r.FormValue("mapping"); raw != "" {
		if err := json.Unmarshal([]byte(raw), m); err != nil {
			writeJSON(w, http.StatusOK, Fail("invalid mapping: "+err.Error()))
			return
		}
	}
	res, err := h.records.Import(r.Context(), sess, teamID, f, fh.Filename, r.FormValue("sheet"), m)
	if err != nil {
		writeError(w, h.logger, "import", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

func (h *BeneficiaryHandler) Export(w http.ResponseWriter, r *http.Request, sess *domain.Session, teamID string) {
	data, err := h.records.Export(r.Context(), sess, teamID)
	if err != nil {
		writeError(w, h.logger, "export", err, nil)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.records.ExportFilename()))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("failed to write export", zap.String("team_id", teamID), zap.Error(err))
	}
}

func (h *BeneficiaryHandler) Duplicates(w http.ResponseWriter, r *http.Request, sess *domain.Session, teamID string) {
	report, err := h.records.FindDuplicates(r.Context(), sess, teamID)
	if err != nil {
		writeError(w, h.logger, "find duplicates", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, Ok(report))
}

func (h *BeneficiaryHandler) RemoveDuplicates(w http.ResponseWriter, r *http.Request, sess *domain.Session, teamID string) {
	var req confirmRequest
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	out, err := h.records.RemoveDuplicates(r.Context(), sess, teamID, req.Confirm)
	if err != nil {
		writeError(w, h.logger, "remove duplicates", err, out)
		return
	}
	writeJSON(w, http.StatusOK, Ok(out))
}
