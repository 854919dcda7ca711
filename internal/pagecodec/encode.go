// Package pagecodec turns printer frames into PDF pages and turns scanned
// pages back into page numbers and payload bytes.
package pagecodec

import (
	"bytes"
	"encoding/ascii85"
	"encoding/base64"
	"fmt"
	"image/png"

	"codeberg.org/go-pdf/fpdf"
	"github.com/boombuler/barcode/datamatrix"

	"github.com/ipops/ipops/internal/config"
)

// maxPrintWidth caps an embedded Data-Matrix symbol's width in PDF units;
// smaller symbols render at their natural size.
const maxPrintWidth = 550.0

// Encode renders frame as a PDF according to settings.PDFDataFormat,
// returning the PDF bytes and the number of pages written. In
// DATA_MATRIX mode the embedded sequence byte wraps silently at 256
// pages (abs_page mod 256) — a batch spanning more than 256 pages is not
// guarded against. The scanner side takes the decoded byte (0–255) as the
// page number, so pages 256 apart carry the same number.
func Encode(frame []byte, startingPage int, settings config.Settings) ([]byte, int, error) {
	if settings.PDFDataFormat == config.FormatText {
		return encodeText(frame, startingPage)
	}
	return encodeDataMatrix(frame, startingPage, settings.MaxBufferSize)
}

func newDoc(startingPage int) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Courier", "", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("%d", startingPage+pdf.PageNo()-1), "", 0, "C", false, 0, "")
	})
	return pdf
}

// encodeText renders the frame as base64 text wrapped across as many pages
// as fpdf's auto page break needs. It carries no sequence byte: TEXT mode is
// a human/OCR-readable fallback, not a path the scanner decodes.
func encodeText(frame []byte, startingPage int) ([]byte, int, error) {
	pdf := newDoc(startingPage)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetFont("Courier", "", 10)
	pdf.AddPage()
	pdf.MultiCell(0, 5, base64.StdEncoding.EncodeToString(frame), "", "L", false)

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, 0, fmt.Errorf("render text pdf: %w", err)
	}
	return out.Bytes(), pdf.PageNo(), nil
}

// encodeDataMatrix splits frame into maxBufferSize-byte chunks and renders
// one Data-Matrix page per chunk.
func encodeDataMatrix(frame []byte, startingPage, maxBufferSize int) ([]byte, int, error) {
	if maxBufferSize <= 0 {
		return nil, 0, fmt.Errorf("invalid max buffer size %d", maxBufferSize)
	}

	chunks := chunkBytes(frame, maxBufferSize)
	if len(chunks) == 0 {
		return nil, 0, nil
	}

	pdf := newDoc(startingPage)

	for i, c := range chunks {
		absPage := startingPage + i
		payload := buildPayload(absPage, c)

		bc, err := datamatrix.Encode(string(payload))
		if err != nil {
			return nil, 0, fmt.Errorf("encode data matrix page %d: %w", absPage, err)
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, bc); err != nil {
			return nil, 0, fmt.Errorf("render symbol png page %d: %w", absPage, err)
		}

		pdf.AddPage()
		name := fmt.Sprintf("page%d", i)
		pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, &buf)

		width := float64(bc.Bounds().Dx())
		if width < maxPrintWidth {
			width = 0 // natural size
		} else {
			width = maxPrintWidth
		}
		pdf.ImageOptions(name, 10, 10, width, 0, false, fpdf.ImageOptions{}, 0, "")
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, 0, fmt.Errorf("render data matrix pdf: %w", err)
	}
	return out.Bytes(), len(chunks), nil
}

// buildPayload forms seq_byte || base85(chunk), where seq_byte is the
// page's absolute number truncated to one byte.
func buildPayload(absPage int, chunk []byte) []byte {
	encoded := make([]byte, ascii85.MaxEncodedLen(len(chunk)))
	n := ascii85.Encode(encoded, chunk)
	payload := make([]byte, 0, 1+n)
	payload = append(payload, byte(absPage%256))
	payload = append(payload, encoded[:n]...)
	return payload
}

func chunkBytes(data []byte, size int) [][]byte {
	if len(data) == 0 {
		return nil
	}
	var out [][]byte
	for len(data) > 0 {
		n := size
		if n > len(data) {
			n = len(data)
		}
		out = append(out, data[:n])
		data = data[n:]
	}
	return out
}
