package http

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"lendledger/internal/adapter/middleware"
	"lendledger/internal/domain/collateral"
	ucCollateral "lendledger/internal/usecase/collateral"
)

type CollateralHandler struct {
	uc       *ucCollateral.Usecase
	maxImage int64
}

func NewCollateralHandler(uc *ucCollateral.Usecase, maxImageSize int64) *CollateralHandler {
	return &CollateralHandler{uc: uc, maxImage: maxImageSize}
}

type submitCollateralReq struct {
	UserID      string            `json:"user_id"     validate:"omitempty,hex32"`
	Name        string            `json:"name"        validate:"required,max=255"`
	Description string            `json:"description"`
	Images      []string          `json:"images"      validate:"max=10"`
	Metadata    map[string]string `json:"metadata"`
}

// Submit stores the item and runs the valuation. A gateway failure answers
// 502 with the pending item's id so the client can retry /evaluate.
func (h *CollateralHandler) Submit(c echo.Context) error {
	var req submitCollateralReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	userID := ownerOr(c, req.UserID)
	if userID == "" {
		return missingField(c, "user_id")
	}
	if err := requireSelf(c, userID); err != nil {
		return respondError(c, err)
	}
	for i, ref := range req.Images {
		if h.tooLarge(int64(len(ref)) * 3 / 4) {
			return respondError(c, fmt.Errorf("image %d: %w", i, collateral.ErrInvalidImage))
		}
	}
	dto, err := h.uc.Submit(c.Request().Context(), ucCollateral.SubmitInput{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Images:      req.Images,
		Annotations: req.Metadata,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

type quoteCollateralReq struct {
	UserID      string   `json:"user_id"     validate:"omitempty,hex32"`
	Name        string   `json:"name"        validate:"required,max=255"`
	Description string   `json:"description"`
	Images      []string `json:"images"      validate:"max=10"`
}

// Quote values an item and returns the policy decision without storing it.
func (h *CollateralHandler) Quote(c echo.Context) error {
	var req quoteCollateralReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	userID := ownerOr(c, req.UserID)
	if userID == "" {
		return missingField(c, "user_id")
	}
	if err := requireSelf(c, userID); err != nil {
		return respondError(c, err)
	}
	for i, ref := range req.Images {
		if h.tooLarge(int64(len(ref)) * 3 / 4) {
			return respondError(c, fmt.Errorf("image %d: %w", i, collateral.ErrInvalidImage))
		}
	}
	dto, err := h.uc.Quote(c.Request().Context(), ucCollateral.QuoteInput{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Images:      req.Images,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// Upload is Submit for multipart forms with photo files.
func (h *CollateralHandler) Upload(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return badBody(c)
	}
	value := func(k string) string {
		if v := form.Value[k]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}
	userID := ownerOr(c, value("user_id"))
	if userID == "" {
		return missingField(c, "user_id")
	}
	if value("name") == "" {
		return missingField(c, "name")
	}
	if err := requireSelf(c, userID); err != nil {
		return respondError(c, err)
	}

	files := form.File["photos"]
	if len(files) > 10 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: []FieldError{{Field: "photos", Message: "must be at most 10 files"}}})
	}
	uploads := make([]collateral.Image, 0, len(files))
	for _, fh := range files {
		if h.tooLarge(fh.Size) {
			return respondError(c, fmt.Errorf("photo %q: %w", fh.Filename, collateral.ErrInvalidImage))
		}
		f, err := fh.Open()
		if err != nil {
			return badBody(c)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return badBody(c)
		}
		uploads = append(uploads, collateral.Image{Name: fh.Filename, ContentType: fh.Header.Get(echo.HeaderContentType), Data: data})
	}

	dto, err := h.uc.Submit(c.Request().Context(), ucCollateral.SubmitInput{
		UserID:      userID,
		Name:        value("name"),
		Description: value("description"),
		Images:      form.Value["images"],
		Uploads:     uploads,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *CollateralHandler) tooLarge(n int64) bool { return h.maxImage > 0 && n > h.maxImage }

func (h *CollateralHandler) owned(c echo.Context, collateralID string) (*ucCollateral.CollateralDTO, error) {
	dto, err := h.uc.Get(c.Request().Context(), collateralID)
	if err != nil {
		return nil, err
	}
	if err := requireSelf(c, dto.UserID); err != nil {
		return nil, err
	}
	return dto, nil
}

func (h *CollateralHandler) Get(c echo.Context) error {
	dto, err := h.owned(c, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type listCollateralsQuery struct {
	pageQuery
	UserID string `query:"user_id"`
	Status string `query:"status"`
}

func (h *CollateralHandler) List(c echo.Context) error {
	var q listCollateralsQuery
	if err := bindQuery(c, &q); err != nil {
		return respondError(c, err)
	}
	// non-staff callers only see their own items
	if requireStaff(c) != nil {
		p, err := caller(c)
		if err != nil {
			return respondError(c, err)
		}
		if q.UserID != "" && q.UserID != p.UserID {
			return respondError(c, ErrForbidden)
		}
		q.UserID = p.UserID
	}
	res, err := h.uc.List(c.Request().Context(), ucCollateral.ListInput{
		UserID: q.UserID,
		Status: collateral.Status(q.Status),
		Page:   q.request(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

type updateCollateralReq struct {
	Name        *string  `json:"name"        validate:"omitempty,max=255"`
	Description *string  `json:"description"`
	Images      []string `json:"images"      validate:"omitempty,max=10"`
}

func (h *CollateralHandler) Update(c echo.Context) error {
	collateralID := c.Param("id")
	if _, err := h.owned(c, collateralID); err != nil {
		return respondError(c, err)
	}
	var req updateCollateralReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Update(c.Request().Context(), ucCollateral.UpdateInput{
		CollateralID: collateralID,
		Name:         req.Name,
		Description:  req.Description,
		Images:       req.Images,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *CollateralHandler) Evaluate(c echo.Context) error {
	collateralID := c.Param("id")
	if _, err := h.owned(c, collateralID); err != nil {
		return respondError(c, err)
	}
	dto, err := h.uc.Evaluate(c.Request().Context(), collateralID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type approveCollateralReq struct {
	LoanLimit decimal.Decimal `json:"loan_limit" validate:"required,gt=0,dec2"`
	Interest  decimal.Decimal `json:"interest"   validate:"gte=0"`
	DueDate   string          `json:"due_date"   validate:"required"`
	Note      string          `json:"note"       validate:"max=500"`
}

func (h *CollateralHandler) Approve(c echo.Context) error {
	if err := requireStaff(c); err != nil {
		return respondError(c, err)
	}
	var req approveCollateralReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	due, err := parseDate(req.DueDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: []FieldError{{Field: "due_date", Message: "must be YYYY-MM-DD or RFC3339"}}})
	}
	dto, err := h.uc.Approve(c.Request().Context(), ucCollateral.ApproveInput{
		CollateralID: c.Param("id"),
		ReviewerID:   reviewer(c),
		LoanLimit:    req.LoanLimit,
		Interest:     req.Interest,
		DueDate:      due,
		Note:         req.Note,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type rejectCollateralReq struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func (h *CollateralHandler) Reject(c echo.Context) error {
	if err := requireStaff(c); err != nil {
		return respondError(c, err)
	}
	var req rejectCollateralReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Reject(c.Request().Context(), ucCollateral.RejectInput{
		CollateralID: c.Param("id"),
		ReviewerID:   reviewer(c),
		Reason:       req.Reason,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *CollateralHandler) Sweep(c echo.Context) error {
	if err := requireStaff(c); err != nil {
		return respondError(c, err)
	}
	batch, _ := strconv.Atoi(c.QueryParam("batch"))
	res, err := h.uc.SweepOverdue(c.Request().Context(), batch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *CollateralHandler) Image(c echo.Context) error {
	collateralID := c.Param("id")
	if _, err := h.owned(c, collateralID); err != nil {
		return respondError(c, err)
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return respondError(c, collateral.ErrImageNotFound)
	}
	img, err := h.uc.Image(c.Request().Context(), collateralID, index)
	if err != nil {
		return respondError(c, err)
	}
	return c.Blob(http.StatusOK, img.ContentType, img.Data)
}

func reviewer(c echo.Context) string {
	p, _ := middleware.PrincipalFrom(c)
	return p.UserID
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	return t.UTC(), err
}
