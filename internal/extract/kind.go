package extract

import (
	"archive/zip"
	"bytes"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Kind is the extraction family of an upload.
type Kind string

const (
	KindUnknown Kind = ""
	KindPDF     Kind = "pdf"
	KindDOCX    Kind = "docx"
	KindImage   Kind = "image"
)

// DetectKind resolves the family from the declared mime type, then the file
// extension, then the payload itself. Generic declarations such as
// application/octet-stream or application/zip defer to sniffing.
func DetectKind(mimeType, fileName string, data []byte) Kind {
	clean := normalizeMimeType(mimeType, fileName, data)
	if k := kindForMime(clean); k != KindUnknown {
		return k
	}
	if k := kindForExt(filepath.Ext(fileName)); k != KindUnknown && isGeneric(clean) {
		return k
	}
	if isGeneric(clean) && len(data) > 0 {
		sniffed := mimetype.Detect(data)
		if sniffed.Is("application/zip") {
			if mapped := mapOOXMLFromZip(data); mapped != "" {
				return kindForMime(mapped)
			}
		}
		return kindForMime(sniffed.String())
	}
	return KindUnknown
}

// Accepted reports whether the upload is one of pdf, docx, jpg, jpeg or png.
func Accepted(mimeType, fileName string, data []byte) bool {
	switch DetectKind(mimeType, fileName, data) {
	case KindPDF, KindDOCX:
		return true
	case KindImage:
		ext := strings.ToLower(filepath.Ext(fileName))
		clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
		switch {
		case ext == ".jpg" || ext == ".jpeg" || ext == ".png":
			return true
		case clean == "image/jpeg" || clean == "image/png" || clean == "image/jpg":
			return true
		case len(data) > 0:
			m := mimetype.Detect(data)
			return m.Is("image/jpeg") || m.Is("image/png")
		}
	}
	return false
}

func kindForMime(m string) Kind {
	switch {
	case m == mimePDF || m == "application/x-pdf":
		return KindPDF
	case m == mimeDOCX:
		return KindDOCX
	case strings.HasPrefix(m, "image/"):
		return KindImage
	default:
		return KindUnknown
	}
}

func kindForExt(ext string) Kind {
	switch strings.ToLower(ext) {
	case ".pdf":
		return KindPDF
	case ".docx":
		return KindDOCX
	case ".jpg", ".jpeg", ".png":
		return KindImage
	default:
		return KindUnknown
	}
}

func isGeneric(m string) bool {
	switch m {
	case "", "application/octet-stream", "application/zip", "binary/octet-stream":
		return true
	default:
		return false
	}
}

func normalizeMimeType(mimeType string, fileName string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	if clean != "application/zip" {
		return clean
	}
	if mapped := mapOOXMLFromZip(data); mapped != "" {
		return mapped
	}
	if strings.EqualFold(filepath.Ext(fileName), ".docx") {
		return mimeDOCX
	}
	return clean
}

func mapOOXMLFromZip(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			return mimeDOCX
		}
	}
	return ""
}
