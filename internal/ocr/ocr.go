// Package ocr is the text extraction boundary. Scanned documents arrive as
// files; an Extractor turns one into plain text. The default implementation
// reads pre-extracted text files, which is what an upstream OCR pipeline
// drops off. Swapping in a real OCR engine only means implementing Extractor.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
)

// Extractor produces the text content of a document file.
type Extractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

const maxBinaryCheckBytes = 512

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var charReplacementMap = map[string]string{
	"‘": "'", "’": "'", "“": "\"",
	"”": "\"", "–": "-", "—": "--", "…": "...",
	" ": " ", "": "-", "": "--", "": "'",
	"": "'", "": "\"", "": "\"",
}

// PlainText reads documents that are already text, cleaning up encoding
// artifacts left by OCR exports.
type PlainText struct{}

func (PlainText) ExtractText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	binary, err := isLikelyBinary(path)
	if err != nil {
		return "", fmt.Errorf("failed to inspect %s: %w", path, err)
	}
	if binary {
		return "", fmt.Errorf("%s looks binary; expected extracted text", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return cleanContent(data, path)
}

func isLikelyBinary(path string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	buffer := make([]byte, maxBinaryCheckBytes)
	n, err := file.Read(buffer)
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return bytes.Contains(buffer[:n], []byte{0}), nil
}

func cleanContent(data []byte, src string) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	if !utf8.Valid(data) {
		log.Warnf("%s contains invalid UTF-8, replacing invalid chars", src)
		data = bytes.ToValidUTF8(data, []byte(string(utf8.RuneError)))
	}

	str := string(data)
	for bad, good := range charReplacementMap {
		str = strings.ReplaceAll(str, bad, good)
	}
	return str, nil
}
