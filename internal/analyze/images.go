package analyze

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"codm-backend/internal/llm"
)

// Upload is one screenshot with the name it was submitted under.
type Upload struct {
	llm.Image
	FileName string
}

// DecodeBase64 builds the index-th Upload from a base64 payload, optionally
// wrapped in a data URL. The declared MIME type wins over the data URL's, and
// the content is sniffed when neither is present.
func DecodeBase64(payload, declaredType string, index int) (Upload, error) {
	fileName := fmt.Sprintf("image%d", index+1)
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return Upload{}, fmt.Errorf("%w: %s is empty", ErrInvalidInput, fileName)
	}

	var urlType string
	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 {
			return Upload{}, fmt.Errorf("%w: %s has a malformed data URL", ErrInvalidInput, fileName)
		}
		meta := payload[len("data:"):comma]
		urlType = strings.TrimSuffix(meta, ";base64")
		payload = payload[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return Upload{}, fmt.Errorf("%w: %s is not valid base64", ErrInvalidInput, fileName)
		}
	}

	declared := declaredType
	if strings.TrimSpace(declared) == "" {
		declared = urlType
	}
	upload, err := NewUpload(data, declared, fileName)
	if err != nil {
		return Upload{}, err
	}
	upload.FileName = fileName + extension(upload.MIMEType)
	return upload, nil
}

// NewUpload validates raw bytes and resolves their MIME type.
func NewUpload(data []byte, declaredType, fileName string) (Upload, error) {
	if len(data) == 0 {
		return Upload{}, fmt.Errorf("%w: %s is empty", ErrInvalidInput, fileName)
	}
	mimeType := resolveMIME(declaredType, data)
	if !strings.HasPrefix(mimeType, "image/") {
		return Upload{}, fmt.Errorf("%w: %s is %s, not an image", ErrInvalidInput, fileName, mimeType)
	}
	return Upload{
		Image:    llm.Image{MIMEType: mimeType, Data: data},
		FileName: fileName,
	}, nil
}

func resolveMIME(declared string, data []byte) string {
	if mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(declared)); err == nil {
		mediaType = strings.ToLower(mediaType)
		if mediaType != "application/octet-stream" {
			return mediaType
		}
	}
	mediaType, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return mediaType
}

func extension(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "image/heic":
		return ".heic"
	default:
		return ".img"
	}
}
