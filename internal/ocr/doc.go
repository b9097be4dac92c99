// Package ocr adapts character classifiers to the segmentation pipeline.
//
// A Classifier receives the character slices of a page in reading order and
// returns one upper-case letter per slice. Two adapters are provided:
//
//   - ModelClassifier feeds fixed-size normalised tensors to a trained model
//     in batches and maps the argmax of each prediction through IndexToLetter
//   - TesseractClassifier runs Tesseract (via gosseract/v2) in
//     single-character mode with an A-Z whitelist
//
// # Prerequisites
//
// TesseractClassifier needs the Tesseract library and language data:
//   - Ubuntu/Debian: apt-get install libtesseract-dev tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// # Error Handling
//
// Classifier failures are reported as segerr.KindClassifierFailed. They are
// never retried by the pipeline.
package ocr
