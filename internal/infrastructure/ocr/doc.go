// Package ocr распознаёт текст через Tesseract (gosseract/v2).
//
// Собирается с тегом tesseract, нужны libtesseract и языковые данные:
//
//	apt-get install tesseract-ocr libtesseract-dev tesseract-ocr-rus
//
// Без тега пакет отдаёт заглушку, которая всегда возвращает ErrUnavailable.
package ocr

import "errors"

// ErrUnavailable сборка без тега tesseract.
var ErrUnavailable = errors.New("tesseract build tag is not enabled")
