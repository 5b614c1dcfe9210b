package handler

import (
	"mime"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/model"
	"docvault/internal/service"
)

const (
	msgUploaded      = "File uploaded successfully"
	msgDeleted       = "Document deleted successfully"
	msgDeletePartial = "Document deleted from database, but file removal failed"
)

// parseID reads the :id route parameter. Only positive integers are valid ids.
func parseID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// contentDisposition builds an attachment header carrying the original filename.
// Non-ASCII names are encoded per RFC 2231.
func contentDisposition(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "attachment"
}

// ListDocuments godoc
// @Summary      List documents
// @Description  All uploaded documents, newest first.
// @Tags         documents
// @Produce      json
// @Success      200  {object}  Response{data=[]model.Document}
// @Failure      500  {object}  ErrorResponse
// @Router       /api/documents [get]
func ListDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docs, err := docSvc.List(c.UserContext())
		if err != nil {
			return writeServiceError(c, err, "Error fetching documents")
		}
		if docs == nil {
			docs = []model.Document{}
		}
		return writeOK(c, fiber.StatusOK, Response{Data: docs})
	}
}

// UploadDocument godoc
// @Summary      Upload a PDF
// @Description  Multipart upload; the part must be sent as application/pdf.
// @Tags         documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "PDF document"
// @Success      201  {object}  Response{data=model.Document}
// @Failure      400  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /api/documents/upload [post]
func UploadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeServiceError(c, service.ErrNoFileProvided, "")
		}

		f, err := fh.Open()
		if err != nil {
			return writeServiceError(c, err, "Error uploading file")
		}
		defer f.Close()

		doc, err := docSvc.Upload(c.UserContext(), f, fh.Filename, fh.Header.Get(fiber.HeaderContentType), fh.Size)
		if err != nil {
			return writeServiceError(c, err, "Error uploading file")
		}
		return writeOK(c, fiber.StatusCreated, Response{Message: msgUploaded, Data: doc})
	}
}

// DownloadDocument godoc
// @Summary      Download a document
// @Description  Streams the PDF back under its original filename.
// @Tags         documents
// @Produce      application/pdf
// @Param        id   path      int  true  "Document ID"
// @Success      200  {file}    file
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /api/documents/{id} [get]
func DownloadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		dl, err := docSvc.Open(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err, "Error fetching document")
		}

		c.Set(fiber.HeaderContentType, service.PDFContentType)
		c.Set(fiber.HeaderContentDisposition, contentDisposition(dl.Document.OriginalName))
		// fasthttp closes the body once it has been written.
		return c.Status(fiber.StatusOK).SendStream(dl.Body, int(dl.Size))
	}
}

// DeleteDocument godoc
// @Summary      Delete a document
// @Description  Removes the record, then the file. A file that cannot be removed is reported as a warning.
// @Tags         documents
// @Produce      json
// @Param        id   path      int  true  "Document ID"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /api/documents/{id} [delete]
func DeleteDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		res, err := docSvc.Delete(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err, "Error deleting document from database")
		}
		if res.Warning != "" {
			return writeOK(c, fiber.StatusOK, Response{Message: msgDeletePartial, Warning: res.Warning})
		}
		return writeOK(c, fiber.StatusOK, Response{Message: msgDeleted})
	}
}

// DocumentLimits godoc
// @Summary      Upload limits
// @Description  Size ceiling and MIME type enforced on upload.
// @Tags         documents
// @Produce      json
// @Success      200  {object}  Response{data=service.Limits}
// @Router       /api/documents/limits [get]
func DocumentLimits(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return writeOK(c, fiber.StatusOK, Response{Data: docSvc.Limits()})
	}
}
