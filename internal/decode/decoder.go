package decode

import (
	"errors"
	"fmt"

	"github.com/saintfish/chardet"
)

var DefaultEncodings = []string{"utf-8", "iso-8859-1", "windows-1252", "utf-16", "ascii"}

// Detector guesses the charset of raw bytes. An empty name means no guess.
type Detector interface {
	Detect(b []byte) (string, error)
}

type chardetDetector struct {
	detector *chardet.Detector
}

func NewChardetDetector() Detector {
	return &chardetDetector{detector: chardet.NewTextDetector()}
}

func (d *chardetDetector) Detect(b []byte) (string, error) {
	if len(b) == 0 {
		return "", nil
	}
	result, err := d.detector.DetectBest(b)
	if err != nil {
		if errors.Is(err, chardet.NotDetectedError) {
			return "", nil
		}
		return "", err
	}
	return result.Charset, nil
}

// Method records which resolution step produced the text.
type Method string

const (
	MethodStrict   Method = "strict"
	MethodDetected Method = "detected"
	MethodFallback Method = "fallback"
)

type Result struct {
	Text     string
	Encoding string
	Method   Method
}

// Decoder resolves the encoding of a resource: strict decoding against each codec in
// priority order, then a lossy decode with the detected charset, then lossy UTF-8.
type Decoder struct {
	strict   []Codec
	detector Detector
}

// New builds a Decoder for the given priority list. A nil detector uses chardet.
func New(names []string, detector Detector) (*Decoder, error) {
	codecs := make([]Codec, 0, len(names))
	for _, name := range names {
		c, err := Lookup(name)
		if err != nil {
			return nil, fmt.Errorf("encoding priority list: %w", err)
		}
		codecs = append(codecs, c)
	}
	if detector == nil {
		detector = NewChardetDetector()
	}
	return &Decoder{strict: codecs, detector: detector}, nil
}

// Encodings returns the canonical names of the strict priority list.
func (d *Decoder) Encodings() []string {
	names := make([]string, len(d.strict))
	for i, c := range d.strict {
		names[i] = c.Name()
	}
	return names
}

// Decode never fails.
func (d *Decoder) Decode(b []byte) Result {
	for _, c := range d.strict {
		if text, ok := c.Strict(b); ok {
			return Result{Text: text, Encoding: c.Name(), Method: MethodStrict}
		}
	}

	if name, err := d.detector.Detect(b); err == nil && name != "" {
		if c, err := Lookup(name); err == nil {
			return Result{Text: c.Lossy(b), Encoding: c.Name(), Method: MethodDetected}
		}
	}

	fallback := utf8Codec{}
	return Result{Text: fallback.Lossy(b), Encoding: fallback.Name(), Method: MethodFallback}
}
