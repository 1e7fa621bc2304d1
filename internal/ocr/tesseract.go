package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"

	"github.com/amitayks/visara-docpipe/internal/common"
)

// TesseractConfig holds tesseract-specific knobs.
type TesseractConfig struct {
	Languages   []string // default ["eng"]
	TessdataDir string
	PSM         int // 0 = engine default
}

// TesseractProvider implements Provider on top of the gosseract client.
type TesseractProvider struct {
	cfg           TesseractConfig
	logger        *slog.Logger
	clientFactory func() *gosseract.Client
}

// NewTesseractProvider constructs a tesseract-backed OCR provider.
func NewTesseractProvider(cfg TesseractConfig, logger *slog.Logger) *TesseractProvider {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"eng"}
	}
	return &TesseractProvider{cfg: cfg, logger: logger, clientFactory: gosseract.NewClient}
}

func (p *TesseractProvider) Name() string { return "tesseract" }

// Init verifies a client can be constructed and the language data resolves.
func (p *TesseractProvider) Init(ctx context.Context) error {
	c := p.clientFactory()
	defer c.Close()
	if err := c.SetLanguage(p.cfg.Languages...); err != nil {
		return fmt.Errorf("tesseract init: %w", err)
	}
	return nil
}

// ExtractText runs recognition on the image at imageRef and returns the full
// text plus per-word blocks with bounding boxes and confidences.
func (p *TesseractProvider) ExtractText(ctx context.Context, imageRef string) (Result, error) {
	start := time.Now()

	data, err := os.ReadFile(imageRef)
	if err != nil {
		return Result{EngineID: p.Name()}, common.NewAppError("OCR_INPUT", "read image", err)
	}

	c := p.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(data); err != nil {
		return Result{EngineID: p.Name()}, fmt.Errorf("set image: %w", err)
	}
	if err := c.SetLanguage(p.cfg.Languages...); err != nil {
		return Result{EngineID: p.Name()}, fmt.Errorf("set languages: %w", err)
	}
	if p.cfg.TessdataDir != "" {
		if err := c.SetTessdataPrefix(p.cfg.TessdataDir); err != nil {
			return Result{EngineID: p.Name()}, fmt.Errorf("set tessdata dir: %w", err)
		}
	}
	if p.cfg.PSM > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("tessedit_pageseg_mode"), strconv.Itoa(p.cfg.PSM)); err != nil {
			return Result{EngineID: p.Name()}, fmt.Errorf("set psm: %w", err)
		}
	}

	text, err := c.Text()
	if err != nil {
		return Result{EngineID: p.Name()}, common.NewAppError("OCR_ENGINE", "tesseract recognize", err)
	}
	text = strings.TrimSpace(text)

	blocks, engineConf := p.extractBlocks(c)

	// Blend: weight the engine's own word confidence higher when present.
	heurConf := HeuristicConfidence(text)
	conf := heurConf
	if engineConf > 0 {
		conf = 0.7*engineConf + 0.3*heurConf
	}
	if conf > 1.0 {
		conf = 1.0
	}

	res := Result{
		Text:       text,
		Blocks:     blocks,
		Confidence: conf,
		Duration:   time.Since(start),
		Languages:  p.cfg.Languages,
		EngineID:   p.Name(),
	}
	p.logger.Debug("ocr.tesseract.ok",
		"image", imageRef,
		"bytes", len(text),
		"blocks", len(blocks),
		"confidence", conf,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// extractBlocks pulls word-level boxes and returns them with the mean word
// confidence in 0..1.
func (p *TesseractProvider) extractBlocks(c *gosseract.Client) ([]TextBlock, float64) {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return nil, 0
	}
	blocks := make([]TextBlock, 0, len(boxes))
	var sum float64
	lang := ""
	if len(p.cfg.Languages) > 0 {
		lang = p.cfg.Languages[0]
	}
	for _, b := range boxes {
		conf := b.Confidence / 100.0
		sum += conf
		blocks = append(blocks, TextBlock{
			Text:       b.Word,
			Confidence: conf,
			Box: BoundingBox{
				X:      float64(b.Box.Min.X),
				Y:      float64(b.Box.Min.Y),
				Width:  float64(b.Box.Dx()),
				Height: float64(b.Box.Dy()),
			},
			Language: lang,
		})
	}
	return blocks, sum / float64(len(blocks))
}
