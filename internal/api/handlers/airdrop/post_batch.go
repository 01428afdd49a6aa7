package airdrop

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github/chapool/go-airdrop/internal/api"
	"github/chapool/go-airdrop/internal/api/httperrors"
	"github/chapool/go-airdrop/internal/util"
)

const (
	batchFormField    = "file"
	maxBatchBodyBytes = 4 << 20
)

func PostBatchRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.POST("/batch", postBatchHandler(s))
}

// postBatchHandler accepts the recipient table either as a multipart upload
// in the "file" field or as the raw request body (pasted text).
func postBatchHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		data, err := readBatchInput(c)
		if err != nil {
			return err
		}

		if len(data) == 0 {
			return httperrors.ErrBadRequestZeroFileSize
		}

		mime := mimetype.Detect(data)
		if !isText(mime) {
			log.Debug().Str("mime", mime.String()).Msg("Rejected batch upload")
			return httperrors.ErrUnsupportedMediaType
		}

		summary, err := s.Engine.Upload(ctx, bytes.NewReader(data))
		if err != nil {
			log.Debug().Err(err).Msg("Batch rejected")
			return err
		}

		return c.JSON(http.StatusOK, summary)
	}
}

func readBatchInput(c echo.Context) ([]byte, error) {
	req := c.Request()

	if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := c.FormFile(batchFormField)
		if err != nil {
			return nil, httperrors.ErrBadRequestInvalidPayload
		}

		f, err := fh.Open()
		if err != nil {
			return nil, errors.Wrap(err, "failed to open uploaded file")
		}
		defer f.Close()

		return readLimited(f)
	}

	return readLimited(req.Body)
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBatchBodyBytes+1))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read batch input")
	}
	if len(data) > maxBatchBodyBytes {
		return nil, echo.ErrStatusRequestEntityTooLarge
	}
	return data, nil
}

func isText(mime *mimetype.MIME) bool {
	for m := mime; m != nil; m = m.Parent() {
		if m.Is("text/plain") || m.Is("text/csv") {
			return true
		}
	}
	return false
}
