package handler

import (
	"io"
	"mime"
	"net/http"
	"path"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/suteetoe/tenantstarter/internal/storage"
	"github.com/suteetoe/tenantstarter/pkg/logger"
)

const maxUploadSize = 10 << 20

// UploadMedia stores a multipart "file" in the current tenant's bucket
func (h *Handler) UploadMedia(c echo.Context) error {
	log := logger.FromEcho(c)
	if h.media == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "Storage is not configured"})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "A file is required"})
	}
	if file.Size > maxUploadSize {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "File is too large"})
	}
	src, err := file.Open()
	if err != nil {
		return respondError(c, "Failed to read upload", err)
	}
	defer src.Close()

	contentType := file.Header.Get(echo.HeaderContentType)
	key, err := h.media.Save(c.Request().Context(), file.Filename, src, file.Size, contentType)
	if err != nil {
		return respondError(c, "Failed to store file", err)
	}

	log.Info("Media uploaded", zap.String("key", key), zap.Int64("size", file.Size))
	return c.JSON(http.StatusCreated, echo.Map{
		"key": key,
		"url": "/media/" + path.Base(key),
	})
}

// GetMedia streams a media object of the current tenant
func (h *Handler) GetMedia(c echo.Context) error {
	if h.media == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "Storage is not configured"})
	}
	name := path.Base(c.Param("name"))
	rc, err := h.media.Open(c.Request().Context(), string(storage.LocationMedia)+"/"+name)
	if err != nil {
		return respondError(c, "File not found", err)
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	c.Response().Header().Set(echo.HeaderContentType, contentType)
	c.Response().WriteHeader(http.StatusOK)
	_, err = io.Copy(c.Response(), rc)
	return err
}
