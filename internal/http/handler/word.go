package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/gofiber/fiber/v2"

	"wordapi/internal/fetch"
	"wordapi/internal/merge"
	"wordapi/internal/model"
	"wordapi/internal/service"
	"wordapi/internal/store"
)

// Request bodies for the tool endpoints. Validation rules live next to the
// types so the handlers stay thin.

type createDocumentRequest struct {
	Filename string `json:"filename"`
	Title    string `json:"title"`
	Author   string `json:"author"`
}

func (r createDocumentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Filename, validation.Required),
	)
}

type loadFromURLRequest struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

func (r loadFromURLRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.URL, validation.Required, is.URL),
	)
}

type documentRequest struct {
	Filename string `json:"filename"`
}

func (r documentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Filename, validation.Required),
	)
}

type copyDocumentRequest struct {
	SourceFilename      string `json:"source_filename"`
	DestinationFilename string `json:"destination_filename"`
}

func (r copyDocumentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SourceFilename, validation.Required),
	)
}

type mergeDocumentsRequest struct {
	TargetFilename  string   `json:"target_filename"`
	SourceFilenames []string `json:"source_filenames"`
	AddPageBreaks   bool     `json:"add_page_breaks"`
}

func (r mergeDocumentsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.TargetFilename, validation.Required),
		validation.Field(&r.SourceFilenames, validation.Required, validation.Length(1, 0)),
	)
}

type convertToPDFRequest struct {
	Filename   string `json:"filename"`
	OutputPath string `json:"output_path"`
}

func (r convertToPDFRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Filename, validation.Required),
	)
}

type publishDocumentRequest struct {
	FileID string `json:"file_id"`
}

func (r publishDocumentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FileID, validation.Required, is.UUID),
	)
}

// requestError is a rejected request body: a decode failure or a failed
// validation rule. Both map to a 400.
type requestError struct {
	code    string
	message string
}

// parseBody decodes and validates a JSON request body.
func parseBody(c *fiber.Ctx, req interface{ Validate() error }) *requestError {
	if err := c.BodyParser(req); err != nil {
		return &requestError{code: "INVALID_BODY", message: "request body must be valid JSON"}
	}
	if err := req.Validate(); err != nil {
		return &requestError{code: "VALIDATION_ERROR", message: err.Error()}
	}
	return nil
}

// toolError translates service and collaborator failures into the error
// envelope. Validation-class failures carry their message; everything else is
// reported without internal detail.
func toolError(c *fiber.Ctx, err error) error {
	var transportErr *fetch.TransportError
	var mergeValidation *merge.ValidationError
	var assemblyErr *merge.AssemblyError

	switch {
	case errors.Is(err, service.ErrFilenameRequired),
		errors.Is(err, service.ErrURLRequired),
		errors.Is(err, service.ErrNoSources):
		return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, fetch.ErrNotWordDocument):
		return writeError(c, fiber.StatusUnprocessableEntity, "NOT_WORD_DOCUMENT", err.Error())
	case errors.Is(err, fetch.ErrDocumentTooLarge):
		return writeError(c, fiber.StatusRequestEntityTooLarge, "DOCUMENT_TOO_LARGE", err.Error())
	case errors.As(err, &transportErr):
		return writeError(c, fiber.StatusBadGateway, "UPSTREAM_ERROR",
			fmt.Sprintf("could not retrieve document from %s", transportErr.URL))
	case errors.As(err, &mergeValidation):
		return writeError(c, fiber.StatusBadRequest, "MERGE_VALIDATION", err.Error())
	case errors.As(err, &assemblyErr):
		return writeError(c, fiber.StatusInternalServerError, "MERGE_FAILED", "merge assembly failed")
	case errors.Is(err, service.ErrDocumentNotFound), errors.Is(err, store.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
	case errors.Is(err, service.ErrPublishDisabled), errors.Is(err, service.ErrAuditDisabled):
		return writeError(c, fiber.StatusServiceUnavailable, "NOT_CONFIGURED", err.Error())
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// HealthCheck reports dependency health. With no database configured there is
// nothing to probe and the process is healthy by definition.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
			}
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a bare liveness endpoint.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// CreateDocument writes a new empty document to the working directory.
func CreateDocument(svc service.WordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createDocumentRequest
		if rerr := parseBody(c, &req); rerr != nil {
			return writeError(c, fiber.StatusBadRequest, rerr.code, rerr.message)
		}
		path, err := svc.CreateDocument(c.UserContext(), req.Filename, req.Title, req.Author)
		if err != nil {
			return toolError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"path": path})
	}
}

// CreateDocumentTemp builds a document in the temporary store and returns a
// download link.
func CreateDocumentTemp(svc service.WordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createDocumentRequest
		if rerr := parseBody(c, &req); rerr != nil {
			return writeError(c, fiber.StatusBadRequest, rerr.code, rerr.message)
		}
		info, err := svc.CreateDocumentTemp(c.UserContext(), req.Filename, req.Title, req.Author)
		if err != nil {
			return toolError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(info)
	}
}

// LoadDocumentFromURL fetches a remote document into the temporary store.
func LoadDocumentFromURL(svc service.WordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loadFromURLRequest
		if rerr := parseBody(c, &req); rerr != nil {
			return writeError(c, fiber.StatusBadRequest, rerr.code, rerr.message)
		}
		info, err := svc.LoadFromURL(c.UserContext(), req.URL, req.Filename)
		if err != nil {
			return toolError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(info)
	}
}

// GetDocumentInfo returns core properties and statistics of a document.
func GetDocumentInfo(svc service.WordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req documentRequest
		if rerr := parseBody(c, &req); rerr != nil {
			return writeError(c, fiber.StatusBadRequest, rerr.code, rerr.message)
		}
		info, err := svc.GetInfo(c.UserContext(), req.Filename)
		if err != nil {
			return toolError(c, err)
		}
		return c.JSON(info)
	}
}

// GetDocumentText returns the plain text of a document.
func GetDocumentText(svc service.WordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req documentRequest
		if rerr := parseBody(c, &req); rerr != nil {
			return writeError(c, fiber.StatusBadRequest, rerr.code, rerr.message)
		}
		text, err := svc.GetText(c.UserContext(), req.Filename)
		if err != nil {
			return toolError(c, err)
		}
		return c.JSON(fiber.Map{"text": text})
	}
}

// GetDocumentOutline returns the paragraph and table structure of a document.
func GetDocumentOutline(svc service.WordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req documentRequest
		if rerr := parseBody(c, &req); rerr != nil {
			return writeError(c, fiber.StatusBadRequest, rerr.code, rerr.message)
		}
		outline, err := svc.GetOutline(c.UserContext(), req.Filename)
		if err != nil {
			return toolError(c, err)
		}
		return c.JSON(outline)
	}
}

// GetDocumentXML returns the raw word/document.xml of a document.
func GetDocumentXML(svc service.WordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req documentRequest
		if rerr := parseBody(c, &req); rerr != nil {
			return writeError(c, fiber.StatusBadRequest, rerr.code, rerr.message)
		}
		xml, err := svc.GetXML(c.UserContext(), req.Filename)
		if err != nil {
			return toolError(c, err)
		}
		return c.JSON(fiber.Map{"xml": xml})
	}
}

// ListAvailableDocuments lists the .docx files in the working directory.
func ListAvailableDocuments(svc service.WordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		entries, err := svc.ListDocuments(c.UserContext())
		if err != nil {
			return toolError(c, err)
		}
		return c.JSON(fiber.Map{"documents": entries})
	}
}

// CopyDocument duplicates a document on disk.
func CopyDocument(svc service.WordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req copyDocumentRequest
		if rerr := parseBody(c, &req); rerr != nil {
			return writeError(c, fiber.StatusBadRequest, rerr.code, rerr.message)
		}
		dst, err := svc.CopyDocument(c.UserContext(), req.SourceFilename, req.DestinationFilename)
		if err != nil {
			return toolError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"destination": dst})
	}
}

// MergeDocuments combines source documents into a target.
func MergeDocuments(svc service.WordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req mergeDocumentsRequest
		if rerr := parseBody(c, &req); rerr != nil {
			return writeError(c, fiber.StatusBadRequest, rerr.code, rerr.message)
		}
		sum, err := svc.Merge(c.UserContext(), req.TargetFilename, req.SourceFilenames, req.AddPageBreaks)
		if err != nil {
			return toolError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message":      sum.String(),
			"source_count": sum.SourceCount,
			"target":       sum.Target,
		})
	}
}

// ConvertToPDF converts a document using the external converter.
func ConvertToPDF(svc service.WordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req convertToPDFRequest
		if rerr := parseBody(c, &req); rerr != nil {
			return writeError(c, fiber.StatusBadRequest, rerr.code, rerr.message)
		}
		out, err := svc.ConvertToPDF(c.UserContext(), req.Filename, req.OutputPath)
		if err != nil {
			return toolError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"pdf_path": out})
	}
}

// PublishDocument uploads a stored payload to object storage and returns a
// presigned URL.
func PublishDocument(svc service.WordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req publishDocumentRequest
		if rerr := parseBody(c, &req); rerr != nil {
			return writeError(c, fiber.StatusBadRequest, rerr.code, rerr.message)
		}
		res, err := svc.PublishDocument(c.UserContext(), req.FileID)
		if err != nil {
			return toolError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// DownloadDocument serves a stored payload by its link identifier.
func DownloadDocument(svc service.WordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := svc.Download(c.UserContext(), c.Params("id"))
		if err != nil {
			return toolError(c, err)
		}
		c.Set(fiber.HeaderContentType, model.WordMIME)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.Filename))
		return c.Send(doc.Payload)
	}
}

// ListIngestions returns audit records with limit & offset.
func ListIngestions(svc service.WordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}
		res, err := svc.ListIngestions(c.UserContext(), limit, offset)
		if err != nil {
			return toolError(c, err)
		}
		return c.JSON(res)
	}
}
