package handler

import (
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"pdfreview/internal/service"
)

// UploadDocument godoc
// @Summary Upload a PDF
// @Description Multipart upload: field "file" holds the PDF, field "date" its period (YYYY-MM-DD).
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "PDF file"
// @Param date formData string true "Period date"
// @Success 201 {object} map[string]string
// @Failure 400 {object} errorPayload
// @Failure 401 {object} errorPayload
// @Failure 503 {object} errorPayload
// @Router /api/pdfs [post]
func UploadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, err := callerID(c)
		if err != nil {
			return err
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		rawDate := c.FormValue("date")
		if rawDate == "" {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "missing 'date'")
		}
		period, perr := optionalDate(rawDate, "date")
		if perr != nil {
			return perr.write(c)
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		doc, err := svc.Upload(c.UserContext(), uid, fileInput(fh, f), *period)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": doc.ID})
	}
}

// ListMyDocuments godoc
// @Summary List the caller's documents
// @Tags documents
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size"
// @Param month query int false "Month 1-12 (without year matches any year)"
// @Param year query int false "Year"
// @Param from query string false "Period from (YYYY-MM-DD)"
// @Param to query string false "Period to (YYYY-MM-DD)"
// @Param valid query bool false "Only valid or only soft-deleted documents"
// @Success 200 {object} service.DocumentListResult
// @Failure 400 {object} errorPayload
// @Router /api/pdfs [get]
func ListMyDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, err := callerID(c)
		if err != nil {
			return err
		}
		return listDocuments(c, svc, uid)
	}
}

// ListAllDocuments godoc
// @Summary List documents of every user
// @Tags documents
// @Produce json
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size"
// @Param month query int false "Month 1-12 (without year matches any year)"
// @Param year query int false "Year"
// @Param from query string false "Period from (YYYY-MM-DD)"
// @Param to query string false "Period to (YYYY-MM-DD)"
// @Param valid query bool false "Only valid or only soft-deleted documents"
// @Success 200 {object} service.DocumentListResult
// @Failure 400 {object} errorPayload
// @Router /api/pdfs/all [get]
// @Router /api/pdfs/allPdf [get]
func ListAllDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return listDocuments(c, svc, "")
	}
}

func listDocuments(c *fiber.Ctx, svc service.DocumentService, ownerID string) error {
	q := service.DocumentQuery{OwnerID: ownerID}
	var perr *paramError

	if q.Page, perr = queryInt(c, "page"); perr != nil {
		return perr.write(c)
	}
	if q.Limit, perr = queryInt(c, "limit"); perr != nil {
		return perr.write(c)
	}
	if q.Month, perr = queryInt(c, "month"); perr != nil {
		return perr.write(c)
	}
	if q.Year, perr = queryInt(c, "year"); perr != nil {
		return perr.write(c)
	}
	if q.From, perr = optionalDate(c.Query("from"), "from"); perr != nil {
		return perr.write(c)
	}
	if q.To, perr = optionalDate(c.Query("to"), "to"); perr != nil {
		return perr.write(c)
	}
	if q.Valid, perr = queryBool(c, "valid"); perr != nil {
		return perr.write(c)
	}

	res, err := svc.List(c.UserContext(), q)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(res)
}

// GetDocument godoc
// @Summary Get a document
// @Description Includes the owner name and a short-lived download URL.
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} model.Document
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /api/pdfs/{id} [get]
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// DownloadDocument godoc
// @Summary Download the current file of a document
// @Tags documents
// @Produce application/pdf
// @Param id path string true "Document ID"
// @Success 200 {file} file
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 503 {object} errorPayload
// @Router /api/pdfs/{id}/file [get]
func DownloadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		f, err := svc.Download(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		c.Set(fiber.HeaderContentType, f.ContentType)
		c.Set(fiber.HeaderContentDisposition, `inline; filename="`+f.Filename+`"`)
		// fasthttp closes the body once it has been written out.
		return c.SendStream(f.Body, int(f.Size))
	}
}

// UpdateDocument godoc
// @Summary Edit an owned document
// @Description Replaces the file, the period, or both. The replaced object is purged.
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Param file formData file false "Replacement PDF"
// @Param date formData string false "New period date"
// @Success 200 {object} model.Document
// @Failure 400 {object} errorPayload
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /api/pdfs/{id} [patch]
func UpdateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, err := callerID(c)
		if err != nil {
			return err
		}
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		var patch service.DocumentPatch
		var perr *paramError
		if patch.NewPeriod, perr = optionalDate(c.FormValue("date"), "date"); perr != nil {
			return perr.write(c)
		}
		if fh, err := c.FormFile("file"); err == nil {
			f, err := fh.Open()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			defer f.Close()
			in := fileInput(fh, f)
			patch.File = &in
		}

		doc, err := svc.Update(c.UserContext(), uid, id, patch)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// DeleteDocument godoc
// @Summary Hard-delete an owned document
// @Description Only available when direct deletion is enabled; otherwise submit a DELETE request.
// @Tags documents
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Success 204
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /api/pdfs/{id} [delete]
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, err := callerID(c)
		if err != nil {
			return err
		}
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), uid, id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func fileInput(fh *multipart.FileHeader, f multipart.File) service.FileInput {
	return service.FileInput{
		Reader:      f,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
	}
}
