package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"secure-drive/internal/auth"
	"secure-drive/internal/domain/file"
	apperrors "secure-drive/pkg/errors"

	"github.com/labstack/echo/v4"
)

const (
	contentTypeJSON          = "application/json"
	maxStrictBodyBytes int64 = 1 << 20

	headerSignature = "signature"
	headerMessage   = "message"
)

func bindStrictJSON(c echo.Context, dst any) error {
	body := io.LimitReader(c.Request().Body, maxStrictBodyBytes)
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return apperrors.Validation(msgInvalidRequestBody)
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return apperrors.Validation(msgInvalidRequestBody)
	}

	return nil
}

func isJSON(c echo.Context) bool {
	return strings.HasPrefix(strings.ToLower(c.Request().Header.Get(echo.HeaderContentType)), contentTypeJSON)
}

// signedRequest reads the signature headers and binds them to the session
// wallet. A signature that does not decode is passed through as raw bytes
// and fails verification.
func signedRequest(c echo.Context, wallet string) (file.SignedRequest, error) {
	rawSig := strings.TrimSpace(c.Request().Header.Get(headerSignature))
	message := c.Request().Header.Get(headerMessage)
	if rawSig == "" || message == "" {
		return file.SignedRequest{}, apperrors.Validation(msgMissingSignatureHeaders)
	}

	sig, err := auth.ParseSignature(rawSig)
	if err != nil {
		sig = []byte(rawSig)
	}

	return file.SignedRequest{
		Message:        message,
		Signature:      sig,
		ClaimedAddress: wallet,
	}, nil
}

func readMultipartFile(c echo.Context) (string, string, []byte, error) {
	fh, err := c.FormFile(formFieldFile)
	if err != nil {
		if err == http.ErrMissingFile {
			return "", "", nil, apperrors.Validation(msgNoFileUploaded)
		}
		return "", "", nil, apperrors.Validation(msgInvalidMultipart)
	}

	src, err := fh.Open()
	if err != nil {
		return "", "", nil, apperrors.Validation(msgInvalidMultipart)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return "", "", nil, apperrors.Validation(msgInvalidMultipart)
	}

	return fh.Filename, fh.Header.Get(echo.HeaderContentType), data, nil
}
