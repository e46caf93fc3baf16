// Package extractor turns source files into plain text for the pipeline.
// Extension decides the decoder: PDF and XLSX get real decoding, anything
// else must already be valid UTF-8 text.
package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"github.com/Likith-Athreya/doc-intake/internal/core/domain"
	"github.com/Likith-Athreya/doc-intake/internal/core/ports"
)

type Reader struct {
	storage ports.ObjectStorage
}

func NewReader(storage ports.ObjectStorage) *Reader {
	return &Reader{storage: storage}
}

func (r *Reader) ReadFile(_ context.Context, path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read source file: %w", err)
	}
	return decode(path, raw)
}

func (r *Reader) ReadStored(ctx context.Context, doc *domain.Document) (string, error) {
	rc, err := r.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open stored document: %w", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read stored document: %w", err)
	}
	return decode(doc.Filename, raw)
}

func decode(name string, raw []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return decodePDF(raw)
	case ".xlsx":
		return decodeXLSX(raw)
	default:
		if !utf8.Valid(raw) {
			return "", domain.WrapError(domain.ErrParse, "decode document", fmt.Errorf("unsupported binary format: %s", filepath.Base(name)))
		}
		return string(raw), nil
	}
}

func decodePDF(raw []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", domain.WrapError(domain.ErrParse, "open pdf", err)
	}

	var text strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the document.
			continue
		}
		text.WriteString(pageText)
		text.WriteString("\n")
	}
	return text.String(), nil
}

func decodeXLSX(raw []byte) (string, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return "", domain.WrapError(domain.ErrParse, "open xlsx", err)
	}
	defer workbook.Close()

	var text strings.Builder
	for _, sheet := range workbook.GetSheetList() {
		rows, err := workbook.GetRows(sheet)
		if err != nil {
			return "", domain.WrapError(domain.ErrParse, "read xlsx rows", err)
		}
		for _, row := range rows {
			text.WriteString(strings.Join(row, "\t"))
			text.WriteString("\n")
		}
	}
	return text.String(), nil
}
