package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"secure-drive/internal/auth"
	"secure-drive/internal/domain/file"
	"secure-drive/internal/drive"
	apperrors "secure-drive/pkg/errors"

	"github.com/labstack/echo/v4"
)

const (
	paramContentID  = "contentId"
	formFieldFile   = "file"
	formFieldFolder = "folderId"
	formFieldName   = "folderName"
	queryUsePublic  = "usePublic"

	contentTypeOctetStream = "application/octet-stream"
	headerCacheControl     = "Cache-Control"
	viewCacheControl       = "public, max-age=31536000"
	dispositionAttachment  = "attachment"
	dispositionInline      = "inline"

	msgNoFileUploaded          = "no file uploaded"
	msgInvalidMultipart        = "invalid multipart form"
	msgMissingSignatureHeaders = "signature and message headers are required"
	msgInvalidRequestBody      = "invalid request body"
	msgFolderNameRequired      = "folder name is required"
	msgRetrieveFailed          = "failed to retrieve file"
	msgStoreConnected          = "content store is reachable"
	msgStoreDisconnected       = "content store is not reachable"

	jsonKeyGatewayURL = "gatewayUrl"
)

type FileHandler struct {
	uploader  Uploader
	retriever Retriever
}

func NewFileHandler(uploader Uploader, retriever Retriever) *FileHandler {
	return &FileHandler{
		uploader:  uploader,
		retriever: retriever,
	}
}

type createFolderRequest struct {
	FolderName string `json:"folderName"`
}

func (h *FileHandler) Upload(c echo.Context) error {
	wallet, err := auth.GetWalletAddress(c)
	if err != nil {
		return err
	}

	name, mimeType, data, err := readMultipartFile(c)
	if err != nil {
		return err
	}

	signed, err := signedRequest(c, wallet)
	if err != nil {
		return err
	}

	res, err := h.uploader.Upload(c.Request().Context(), drive.UploadInput{
		Data:     data,
		FileName: name,
		FileType: mimeType,
		FolderID: c.FormValue(formFieldFolder),
		Request:  signed,
	})
	if err != nil {
		return err
	}

	return respondSuccess(c, http.StatusOK, res)
}

func (h *FileHandler) CreateFolder(c echo.Context) error {
	wallet, err := auth.GetWalletAddress(c)
	if err != nil {
		return err
	}

	var req createFolderRequest
	if isJSON(c) {
		if err := bindStrictJSON(c, &req); err != nil {
			return err
		}
	} else {
		req.FolderName = c.FormValue(formFieldName)
	}
	if req.FolderName == "" {
		return apperrors.Validation(msgFolderNameRequired)
	}

	signed, err := signedRequest(c, wallet)
	if err != nil {
		return err
	}

	res, err := h.uploader.CreateFolder(c.Request().Context(), drive.FolderInput{
		FolderName: req.FolderName,
		Request:    signed,
	})
	if err != nil {
		return err
	}

	return respondSuccess(c, http.StatusOK, res)
}

func (h *FileHandler) ListFiles(c echo.Context) error {
	wallet, err := auth.GetWalletAddress(c)
	if err != nil {
		return err
	}

	files, err := h.retriever.ListFiles(c.Request().Context(), wallet)
	if err != nil {
		return err
	}

	return respondSuccess(c, http.StatusOK, map[string]any{"files": files})
}

func (h *FileHandler) ListFolders(c echo.Context) error {
	wallet, err := auth.GetWalletAddress(c)
	if err != nil {
		return err
	}

	folders, err := h.retriever.ListFolders(c.Request().Context(), wallet)
	if err != nil {
		return err
	}

	return respondSuccess(c, http.StatusOK, map[string]any{"folders": folders})
}

func (h *FileHandler) Download(c echo.Context) error {
	wallet, err := auth.GetWalletAddress(c)
	if err != nil {
		return err
	}

	res, err := h.retriever.Retrieve(c.Request().Context(), c.Param(paramContentID), wallet, file.ModeDownload)
	if err != nil {
		return err
	}

	return writeContent(c, res, dispositionAttachment)
}

// View serves content inline. When the store cannot deliver, the failure body
// carries the public gateway URL so the client can fetch it directly.
func (h *FileHandler) View(c echo.Context) error {
	wallet, err := auth.GetWalletAddress(c)
	if err != nil {
		return err
	}

	contentID := c.Param(paramContentID)
	res, err := h.retriever.Retrieve(c.Request().Context(), contentID, wallet, file.ModeView)
	if err != nil {
		if errors.Is(err, apperrors.ErrDependencyUnavailable) {
			c.Logger().Errorf("view %s: %v", contentID, err)
			return respondFail(c, http.StatusInternalServerError, msgRetrieveFailed, map[string]any{
				jsonKeyGatewayURL: h.retriever.PublicURL(contentID),
			})
		}
		return err
	}

	c.Response().Header().Set(headerCacheControl, viewCacheControl)
	return writeContent(c, res, dispositionInline)
}

func (h *FileHandler) Gateway(c echo.Context) error {
	wallet, err := auth.GetWalletAddress(c)
	if err != nil {
		return err
	}

	usePublic, _ := strconv.ParseBool(c.QueryParam(queryUsePublic))

	info, err := h.retriever.Gateway(c.Request().Context(), c.Param(paramContentID), wallet, usePublic)
	if err != nil {
		return err
	}

	return respondSuccess(c, http.StatusOK, info)
}

// ContentHealth always answers 200; the body says whether the store is up.
func (h *FileHandler) ContentHealth(c echo.Context) error {
	err := h.retriever.ContentHealth(c.Request().Context())

	message := msgStoreConnected
	if err != nil {
		c.Logger().Warnf("content store health check failed: %v", err)
		message = msgStoreDisconnected
	}

	return respondSuccess(c, http.StatusOK, map[string]any{
		"connected": err == nil,
		"message":   message,
	})
}

func writeContent(c echo.Context, res *drive.Retrieval, disposition string) error {
	contentType := res.File.FileType
	if contentType == "" {
		contentType = contentTypeOctetStream
	}

	header := c.Response().Header()
	header.Set(echo.HeaderContentDisposition, fmt.Sprintf("%s; filename=%q", disposition, url.PathEscape(res.File.FileName)))
	header.Set(echo.HeaderContentLength, strconv.Itoa(len(res.Data)))

	return c.Blob(http.StatusOK, contentType, res.Data)
}
