package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"pdfreview/internal/model"
	"pdfreview/internal/service"
)

type deleteRequestBody struct {
	PdfID string `json:"pdfId"`
}

type resolveRequestBody struct {
	Status model.RequestStatus `json:"status"`
}

type createdRequestResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

type resolvedRequestResponse struct {
	Message  string              `json:"message"`
	Request  model.ChangeRequest `json:"request"`
	Document *model.Document     `json:"pdf,omitempty"`
}

// CreateDeleteRequest godoc
// @Summary Request deletion of an owned document
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body deleteRequestBody true "Target document"
// @Success 201 {object} createdRequestResponse
// @Failure 400 {object} errorPayload
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Router /api/requests [post]
func CreateDeleteRequest(mod service.ModerationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, err := callerID(c)
		if err != nil {
			return err
		}
		var body deleteRequestBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		req, err := mod.CreateChangeRequest(c.UserContext(), uid, strings.TrimSpace(body.PdfID), service.DeletePayload{})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(createdRequestResponse{
			ID:      req.ID,
			Message: "Request created successfully",
		})
	}
}

// CreateEditRequest godoc
// @Summary Request an edit of an owned document
// @Description Multipart: "pdfId", optional "newDate", optional "newFile". At least one of the two must be present.
// @Tags requests
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param pdfId formData string true "Target document"
// @Param newDate formData string false "Proposed period date"
// @Param newFile formData file false "Proposed replacement PDF"
// @Success 201 {object} createdRequestResponse
// @Failure 400 {object} errorPayload
// @Failure 403 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Router /api/requests/edit [post]
func CreateEditRequest(docs service.DocumentService, mod service.ModerationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, err := callerID(c)
		if err != nil {
			return err
		}

		pdfID := strings.TrimSpace(c.FormValue("pdfId"))
		if pdfID == "" {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "missing 'pdfId'")
		}
		if _, err := uuid.Parse(pdfID); err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "invalid 'pdfId' format")
		}

		var payload service.EditPayload
		var perr *paramError
		if payload.NewPeriod, perr = optionalDate(c.FormValue("newDate"), "newDate"); perr != nil {
			return perr.write(c)
		}

		// The proposed file is stored up front; the request only carries its locator.
		if fh, err := c.FormFile("newFile"); err == nil {
			f, err := fh.Open()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			defer f.Close()

			locator, err := docs.StoreFile(c.UserContext(), uid, fileInput(fh, f))
			if err != nil {
				return writeServiceError(c, err)
			}
			payload.NewLocator = &locator
		}

		req, err := mod.CreateChangeRequest(c.UserContext(), uid, pdfID, payload)
		if err != nil {
			if payload.NewLocator != nil {
				docs.DiscardFile(c.UserContext(), *payload.NewLocator)
			}
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(createdRequestResponse{
			ID:      req.ID,
			Message: "Edit request created successfully",
		})
	}
}

// ListRequests godoc
// @Summary List change requests
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size"
// @Success 200 {object} service.RequestListResult
// @Failure 401 {object} errorPayload
// @Failure 403 {object} errorPayload
// @Router /api/requests [get]
func ListRequests(mod service.ModerationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, perr := queryInt(c, "page")
		if perr != nil {
			return perr.write(c)
		}
		limit, perr := queryInt(c, "limit")
		if perr != nil {
			return perr.write(c)
		}

		res, err := mod.ListRequests(c.UserContext(), page, limit)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// GetRequest godoc
// @Summary Get a change request
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} model.ChangeRequest
// @Failure 404 {object} errorPayload
// @Router /api/requests/{id} [get]
func GetRequest(mod service.ModerationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		req, err := mod.GetRequest(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(req)
	}
}

// ResolveRequest godoc
// @Summary Approve or cancel a pending change request
// @Description APPROVED applies the change to the document; CANCELLED leaves it untouched.
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param body body resolveRequestBody true "Decision"
// @Success 200 {object} resolvedRequestResponse
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Router /api/requests/{id}/status [put]
func ResolveRequest(mod service.ModerationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var body resolveRequestBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		decision := model.RequestStatus(strings.ToUpper(strings.TrimSpace(string(body.Status))))

		res, err := mod.ResolveChangeRequest(c.UserContext(), id, decision)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(resolvedRequestResponse{
			Message:  "Request " + strings.ToLower(string(decision)) + " successfully.",
			Request:  res.Request,
			Document: res.Document,
		})
	}
}
