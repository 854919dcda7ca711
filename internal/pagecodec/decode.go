package pagecodec

import (
	"fmt"
	"image"
	"unicode/utf8"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/datamatrix"
	"github.com/makiuchi-d/gozxing/multi"

	"github.com/ipops/ipops/internal/ipops"
)

// Decode extracts the page number and raw payload bytes from a scanned
// image. It fails if the image does not contain exactly one Data-Matrix
// symbol. The returned payload is the literal post-sequence-byte bytes
// found in the symbol — still base85-encoded, not decoded back to
// original frame bytes.
func Decode(img image.Image) (int, []byte, error) {
	src := gozxing.NewLuminanceSourceFromImage(img)
	bitmap, err := gozxing.NewBinaryBitmap(gozxing.NewHybridBinarizer(src))
	if err != nil {
		return 0, nil, &ipops.DecodeError{Msg: fmt.Sprintf("binarize image: %v", err)}
	}

	reader := multi.NewGenericMultipleBarcodeReader(datamatrix.NewDataMatrixReader())
	results, err := reader.DecodeMultiple(bitmap, nil)
	if err != nil || len(results) == 0 {
		return 0, nil, &ipops.DecodeError{Msg: fmt.Sprintf("no data matrix symbol found: %v", err)}
	}
	if len(results) > 1 {
		return 0, nil, &ipops.DecodeError{Msg: fmt.Sprintf("found %d data matrix symbols, want exactly 1", len(results))}
	}

	// GetText holds the decoded symbol content; GetRawBytes would be the
	// symbol's encoded codewords. Bytes above 0x7F may come back as Latin-1
	// code points, so a valid UTF-8 text is mapped back rune by rune.
	text := results[0].GetText()
	var payload []byte
	if utf8.ValidString(text) {
		for _, r := range text {
			payload = append(payload, byte(r))
		}
	} else {
		payload = []byte(text)
	}
	if len(payload) < 2 {
		return 0, nil, &ipops.DecodeError{Msg: "payload shorter than 2 bytes"}
	}
	return int(payload[0]), payload[1:], nil
}
