package response

import (
	"errors"
	"mime/multipart"
	"net/http"

	commonDto "anoa.com/campusadmin/pkg/dto"
	"github.com/gin-gonic/gin"
)

const msgTooLarge = "Fichier trop volumineux"

// LimitBody caps the request body; call it before any ShouldBind on a
// multipart form.
func LimitBody(c *gin.Context, maxBytes int64) {
	if maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	}
}

// FormFiles returns the files posted under field. A body over the limit set
// by LimitBody answers 413.
func FormFiles(c *gin.Context, field string) ([]*multipart.FileHeader, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": msgTooLarge})
			return nil, false
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, true
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Formulaire invalide"})
		return nil, false
	}
	return form.File[field], true
}

// OpenFiles opens every header. The returned func closes them.
func OpenFiles(headers []*multipart.FileHeader) ([]commonDto.UploadedFile, func(), error) {
	var closers []multipart.File
	closeAll := func() {
		for _, f := range closers {
			f.Close()
		}
	}

	files := make([]commonDto.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		closers = append(closers, f)
		files = append(files, commonDto.UploadedFile{Reader: f, FileName: fh.Filename, Size: fh.Size})
	}
	return files, closeAll, nil
}
