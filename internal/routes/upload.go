package routes

import (
	"errors"
	"io"
	"log"

	"shelfadmin/external/github"
	"shelfadmin/internal/auth"
	"shelfadmin/internal/core"

	"github.com/gin-gonic/gin"
)

const AdminTokenHeader = "x-admin-token"

func AdminTokenMiddleware(codec auth.Codec) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !codec.Verify(c.GetHeader(AdminTokenHeader)) {
			c.AbortWithStatusJSON(401, ErrorResponse{Error: "Invalid admin token"})
			return
		}
		c.Next()
	}
}

type uploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func UploadRoutes(r *gin.Engine, server *core.AdminServer, codec auth.Codec) {
	r.POST("/upload", AdminTokenMiddleware(codec), func(c *gin.Context) {
		req := core.UploadRequest{
			Title:  c.PostForm("title"),
			Author: c.PostForm("author"),
		}

		fileHeader, err := c.FormFile("pdf")
		if err == nil {
			file, err := fileHeader.Open()
			if err != nil {
				log.Printf("fileHeader.Open() %+v", err)
				c.JSON(500, ErrorResponse{Error: "Upload failed. Check logs."})
				return
			}
			defer file.Close()

			req.Pdf, err = io.ReadAll(file)
			if err != nil {
				log.Printf("io.ReadAll(file) %+v", err)
				c.JSON(500, ErrorResponse{Error: "Upload failed. Check logs."})
				return
			}
		}

		_, err = server.UploadBook(c.Request.Context(), req)
		if err != nil {
			writeUploadError(c, err)
			return
		}

		c.JSON(200, uploadResponse{
			Success: true,
			Message: "PDF uploaded and books.json updated successfully.",
		})
	})
}

// writeUploadError maps coordinator failures onto the wire: validation
// is 400, a partial commit that left an orphan gets its own code,
// remote store errors pass through with the store's status and
// message, the rest collapse to a generic 500. A compensated partial
// commit left the store consistent again, so only the underlying
// store error is reported and the operator can simply resubmit.
func writeUploadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrMissingTitle):
		c.JSON(400, ErrorResponse{Error: "Missing title"})
	case errors.Is(err, core.ErrMissingPdf):
		c.JSON(400, ErrorResponse{Error: "Missing pdf file"})
	default:
		var partial *core.PartialCommitError
		if errors.As(err, &partial) && !partial.Compensated {
			log.Printf("server.UploadBook() partial commit %+v", err)
			c.JSON(502, ErrorResponse{
				Error: "Catalog update failed after the PDF was stored",
				Code:  "partial_commit",
				Pdf:   partial.PdfPath,
			})
			return
		}

		var apiErr *github.APIError
		if errors.As(err, &apiErr) {
			c.JSON(apiErr.Status, ErrorResponse{Error: apiErr.Message})
			return
		}

		log.Printf("server.UploadBook() %+v", err)
		c.JSON(500, ErrorResponse{Error: "Upload failed. Check logs."})
	}
}
