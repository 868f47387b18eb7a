package metadata

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/cases"
)

// ErrMalformedMetadata reports a sidecar that lacks a usable required field.
var ErrMalformedMetadata = errors.New("malformed metadata")

const (
	tagBits         = "nbits"
	tagChannels     = "nchannels"
	tagSamplingRate = "samplingrate"
)

// Metadata is the acquisition description carried by a sidecar.
type Metadata struct {
	DType        DType
	ChannelCount int
	SamplingRate float64
}

// BitDepth returns the sample width in bits.
func (m Metadata) BitDepth() int {
	return m.DType.Bits()
}

// SidecarPath returns <folder>/<basename>.xml.
func SidecarPath(folder string) string {
	return SessionPath(folder, ".xml")
}

// SessionPath returns <folder>/<basename><ext>, the naming every Neuroscope
// session file follows.
func SessionPath(folder, ext string) string {
	clean := filepath.Clean(folder)
	return filepath.Join(clean, filepath.Base(clean)+ext)
}

// Load parses the complete acquisition triple from the sidecar at path.
func Load(path string) (Metadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: open %s: %w", ErrMalformedMetadata, path, err)
	}
	defer file.Close()

	md, err := Parse(file)
	if err != nil {
		return Metadata{}, fmt.Errorf("%s: %w", path, err)
	}
	return md, nil
}

// LoadSamplingRate reads only the sampling rate from the sidecar at path.
func LoadSamplingRate(path string) (float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: open %s: %w", ErrMalformedMetadata, path, err)
	}
	defer file.Close()

	rate, err := ParseSamplingRate(file)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return rate, nil
}

// Parse extracts nbits, nchannels and samplingrate. All three are required.
func Parse(r io.Reader) (Metadata, error) {
	values, err := scanTags(r, tagBits, tagChannels, tagSamplingRate)
	if err != nil {
		return Metadata{}, err
	}

	bits, err := parsePositiveInt(values, tagBits)
	if err != nil {
		return Metadata{}, err
	}
	dtype, err := FromBits(bits)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %w", ErrMalformedMetadata, err)
	}
	channels, err := parsePositiveInt(values, tagChannels)
	if err != nil {
		return Metadata{}, err
	}
	rate, err := parseRate(values)
	if err != nil {
		return Metadata{}, err
	}
	return Metadata{DType: dtype, ChannelCount: channels, SamplingRate: rate}, nil
}

// ParseSamplingRate extracts only samplingrate, as sorting sidecars carry nothing else.
func ParseSamplingRate(r io.Reader) (float64, error) {
	values, err := scanTags(r, tagSamplingRate)
	if err != nil {
		return 0, err
	}
	return parseRate(values)
}

// Write creates a sidecar at path holding the non-zero fields of md.
// It reports false without touching the file when one already exists.
func Write(path string, md Metadata) (bool, error) {
	doc := sidecar{}
	if md.DType != 0 {
		if !md.DType.Valid() {
			return false, fmt.Errorf("write sidecar: %w: %s", ErrUnsupportedDType, md.DType)
		}
		doc.Bits = strconv.Itoa(md.DType.Bits())
	}
	if md.ChannelCount > 0 {
		doc.Channels = strconv.Itoa(md.ChannelCount)
	}
	if md.SamplingRate > 0 {
		doc.SamplingRate = strconv.FormatFloat(md.SamplingRate, 'f', -1, 64)
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return false, fmt.Errorf("encode sidecar: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("create sidecar: %w", err)
	}
	defer file.Close()

	if _, err := io.WriteString(file, xml.Header); err != nil {
		return false, err
	}
	if _, err := file.Write(append(body, '\n')); err != nil {
		return false, err
	}
	return true, file.Close()
}

type sidecar struct {
	XMLName      xml.Name `xml:"parameters"`
	Bits         string   `xml:"nbits,omitempty"`
	Channels     string   `xml:"nchannels,omitempty"`
	SamplingRate string   `xml:"samplingrate,omitempty"`
}

// scanTags returns the text of the first element matching each wanted name.
func scanTags(r io.Reader, wanted ...string) (map[string]string, error) {
	fold := cases.Fold()
	want := make(map[string]struct{}, len(wanted))
	for _, name := range wanted {
		want[name] = struct{}{}
	}

	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.CharsetReader = charset.NewReaderLabel

	found := make(map[string]string, len(wanted))
	var (
		current string
		depth   int
		text    strings.Builder
	)
	for len(found) < len(want) {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedMetadata, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if current != "" {
				depth++
				continue
			}
			name := fold.String(t.Name.Local)
			if _, ok := want[name]; !ok {
				continue
			}
			if _, done := found[name]; done {
				continue
			}
			current = name
			depth = 0
			text.Reset()
		case xml.CharData:
			if current != "" && depth == 0 {
				text.Write(t)
			}
		case xml.EndElement:
			if current == "" {
				continue
			}
			if depth > 0 {
				depth--
				continue
			}
			found[current] = strings.TrimSpace(text.String())
			current = ""
		}
	}
	return found, nil
}

func parsePositiveInt(values map[string]string, tag string) (int, error) {
	raw, ok := values[tag]
	if !ok {
		return 0, fmt.Errorf("%w: missing <%s>", ErrMalformedMetadata, tag)
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: <%s> %q is not an integer", ErrMalformedMetadata, tag, raw)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%w: <%s> must be positive, got %d", ErrMalformedMetadata, tag, value)
	}
	return value, nil
}

func parseRate(values map[string]string) (float64, error) {
	raw, ok := values[tagSamplingRate]
	if !ok {
		return 0, fmt.Errorf("%w: missing <%s>", ErrMalformedMetadata, tagSamplingRate)
	}
	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: <%s> %q is not a number", ErrMalformedMetadata, tagSamplingRate, raw)
	}
	if rate <= 0 || math.IsInf(rate, 0) || math.IsNaN(rate) {
		return 0, fmt.Errorf("%w: <%s> must be positive, got %v", ErrMalformedMetadata, tagSamplingRate, raw)
	}
	return rate, nil
}
