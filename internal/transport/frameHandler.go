package transport

import (
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"github.com/ds124wfegd/mirai-frame/internal/entity"
	"github.com/gin-gonic/gin"
)

const (
	uploadField = "icon_image"

	formatHTML = "html"
	formatPNG  = "png"

	// multipartSlack covers boundaries and part headers around the file.
	multipartSlack = 64 << 10
)

// Frame accepts a multipart upload and responds with the framed image,
// either raw or embedded in an HTML fragment. shape=both renders the square
// and the circle side by side and is only valid for HTML.
//
// format is read from the form, so it is lost when the body is cut off at
// the size limit; send it in the query string, or send Accept:
// application/json, to get JSON errors in that case.
func (h *FrameHandler) Frame(c *gin.Context) {
	limit := h.service.MaxUploadBytes()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartSlack)

	file, err := c.FormFile(uploadField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.respondError(c, entity.ErrPayloadTooLarge)
			return
		}
		h.respondErrorMessage(c, http.StatusBadRequest, "No file uploaded")
		return
	}

	if file.Size > limit {
		h.respondError(c, entity.ErrPayloadTooLarge)
		return
	}

	shape, err := entity.ParseShape(formValue(c, "shape"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	png := responseFormat(c) == formatPNG
	if png && shape == entity.ShapeBoth {
		h.respondError(c, fmt.Errorf("%w: format png returns a single shape", entity.ErrInvalidInput))
		return
	}

	src, err := file.Open()
	if err != nil {
		h.respondErrorMessage(c, http.StatusBadRequest, "Uploaded file is unreadable")
		return
	}
	defer src.Close()

	upload, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		h.respondErrorMessage(c, http.StatusBadRequest, "Uploaded file is unreadable")
		return
	}

	var items []gin.H
	for _, s := range shape.Expand() {
		result, err := h.service.Frame(c.Request.Context(), upload, s)
		if err != nil {
			h.respondError(c, err)
			return
		}

		if png {
			c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
			c.Data(http.StatusOK, result.ContentType, result.Image)
			return
		}

		dataURI := "data:" + result.ContentType + ";base64," + base64.StdEncoding.EncodeToString(result.Image)
		items = append(items, gin.H{
			"DataURI":  template.URL(dataURI),
			"Filename": result.Filename,
			"Shape":    string(result.Shape),
			"Width":    result.Width,
			"Height":   result.Height,
		})
	}

	c.HTML(http.StatusOK, "result.html", gin.H{"Results": items})
}

func (h *FrameHandler) MethodNotAllowed(c *gin.Context) {
	c.String(http.StatusMethodNotAllowed, "Method Not Allowed")
}

func (h *FrameHandler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Image processing failed"
	}
	h.respondErrorMessage(c, status, message)
}

func (h *FrameHandler) respondErrorMessage(c *gin.Context, status int, message string) {
	if responseFormat(c) == formatPNG || prefersJSON(c) {
		c.JSON(status, entity.ErrorResponse{Error: message})
		return
	}
	c.HTML(status, "error.html", gin.H{
		"Status":  status,
		"Message": message,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, entity.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrInvalidImage):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// formValue prefers the multipart form over the query string.
func formValue(c *gin.Context, key string) string {
	if v, ok := c.GetPostForm(key); ok {
		return v
	}
	return c.Query(key)
}

func prefersJSON(c *gin.Context) bool {
	return c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON
}

func responseFormat(c *gin.Context) string {
	if formValue(c, "format") == formatPNG {
		return formatPNG
	}
	return formatHTML
}
