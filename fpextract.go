// Package fpextract turns fingerprint images into minutiae templates.
//
// The pipeline decodes the image, estimates the block-wise ridge field,
// enhances ridges with a contextual Gabor filter, thins them to a skeleton,
// locates endings and bifurcations and encodes the result. Every stage is a
// pure function of its inputs and the configuration, so equal inputs always
// yield byte-identical templates.
package fpextract

import (
	"github.com/high-horse/fpextract/config"
	"github.com/high-horse/fpextract/enhance"
	"github.com/high-horse/fpextract/fault"
	"github.com/high-horse/fpextract/imaging"
	"github.com/high-horse/fpextract/minutiae"
	"github.com/high-horse/fpextract/ridge"
	"github.com/high-horse/fpextract/template"
	"github.com/high-horse/fpextract/transparency"
)

// ImageOptions carries per-image choices such as a resolution override.
type ImageOptions = imaging.Options

// Error kinds, for use with errors.Is.
var (
	ErrInvalidConfiguration = fault.ErrInvalidConfiguration
	ErrDecode               = fault.ErrDecode
	ErrEncoding             = fault.ErrEncoding
)

// Extractor runs the pipeline with a fixed configuration. It holds no
// per-image state and may be shared between goroutines as long as its
// transparency logger is.
type Extractor struct {
	cfg       *config.Config
	decoder   *imaging.Decoder
	estimator *ridge.Estimator
	enhancer  *enhance.Enhancer
	detector  *minutiae.Detector
	logger    transparency.Logger
}

// NewExtractor validates cfg and prepares the stages. A nil cfg means
// config.Default(); a nil logger means transparency.Discard.
func NewExtractor(cfg *config.Config, logger transparency.Logger) (*Extractor, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = transparency.Discard
	}
	return &Extractor{
		cfg:       cfg,
		decoder:   imaging.NewDecoder(cfg),
		estimator: ridge.NewEstimator(cfg),
		enhancer:  enhance.NewEnhancer(cfg),
		detector:  minutiae.NewDetector(cfg),
		logger:    logger,
	}, nil
}

// Extract runs every stage up to the template.
func (e *Extractor) Extract(imageBytes []byte, opts ImageOptions) (*template.Template, error) {
	grid, err := e.decoder.Decode(imageBytes, opts)
	if err != nil {
		return nil, err
	}
	if err := transparency.Offer(e.logger, transparency.DecodedImage, func() interface{} {
		return transparency.SnapshotImage(grid)
	}); err != nil {
		return nil, err
	}

	field, err := e.estimator.Estimate(grid)
	if err != nil {
		return nil, err
	}
	if err := transparency.Offer(e.logger, transparency.RidgeField, func() interface{} {
		return transparency.SnapshotField(field)
	}); err != nil {
		return nil, err
	}

	skeleton, err := e.enhancer.Enhance(grid, field)
	if err != nil {
		return nil, err
	}
	if err := transparency.Offer(e.logger, transparency.Skeleton, func() interface{} {
		return transparency.SnapshotSkeleton(skeleton)
	}); err != nil {
		return nil, err
	}

	found := e.detector.Detect(skeleton)
	if err := transparency.Offer(e.logger, transparency.Minutiae, func() interface{} {
		return transparency.SnapshotMinutiae(found)
	}); err != nil {
		return nil, err
	}

	return template.New(grid.Width(), grid.Height(), grid.Resolution(), found), nil
}

// ExtractBytes is Extract followed by binary encoding.
func (e *Extractor) ExtractBytes(imageBytes []byte, opts ImageOptions) ([]byte, error) {
	return e.ExtractFormat(imageBytes, opts, template.Binary)
}

// ExtractFormat is Extract followed by encoding in the given format.
func (e *Extractor) ExtractFormat(imageBytes []byte, opts ImageOptions, f template.Format) ([]byte, error) {
	t, err := e.Extract(imageBytes, opts)
	if err != nil {
		return nil, err
	}
	b, err := template.Marshal(t, f)
	if err != nil {
		return nil, err
	}
	mime := transparency.MimeBinary
	if f == template.CBOR {
		mime = transparency.MimeCBOR
	}
	if err := transparency.OfferBytes(e.logger, transparency.Template, mime, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ExtractTemplate extracts a binary template with the default configuration.
func ExtractTemplate(imageBytes []byte, opts ImageOptions) ([]byte, error) {
	e, err := NewExtractor(nil, nil)
	if err != nil {
		return nil, err
	}
	return e.ExtractBytes(imageBytes, opts)
}
