package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"sync"
	"time"

	"github.com/okian/levelcard/internal/adapters/vector"
	"github.com/okian/levelcard/internal/assets"
	"github.com/okian/levelcard/internal/domain/card"
	"github.com/okian/levelcard/pkg/metrics"
)

// pipeline is the synchronous fill, parse, rasterize, encode sequence. It
// only reads shared state, so one value serves every worker.
type pipeline struct {
	assets    *assets.Registry
	templates *card.Store
	resolver  vector.Resolver
	encoder   png.Encoder
}

func newPipeline(reg *assets.Registry, templates *card.Store) *pipeline {
	return &pipeline{
		assets:    reg,
		templates: templates,
		resolver:  vector.Chain{vector.DataURI, vector.ResolverFunc(reg.SpriteByFilename)},
		encoder:   png.Encoder{CompressionLevel: png.BestSpeed, BufferPool: &encoderPool{}},
	}
}

// Render runs the whole pipeline for one context.
func (p *pipeline) Render(_ context.Context, c card.Context) ([]byte, error) {
	total := time.Now()

	stage := time.Now()
	doc, err := p.templates.Fill(c)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTemplate, err)
	}
	metrics.RecordRenderStage(metrics.StageFill, time.Since(stage))

	stage = time.Now()
	scene, err := vector.Parse(doc, p.resolver)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVector, err)
	}
	metrics.RecordRenderStage(metrics.StageParse, time.Since(stage))

	stage = time.Now()
	img, err := vector.Rasterize(scene, p.assets)
	if err != nil {
		if errors.Is(err, vector.ErrAllocation) {
			return nil, fmt.Errorf("%w: %w", ErrBufferAllocation, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrVector, err)
	}
	metrics.RecordRenderStage(metrics.StageRaster, time.Since(stage))

	stage = time.Now()
	var buf bytes.Buffer
	if err := p.encoder.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	metrics.RecordRenderStage(metrics.StageEncode, time.Since(stage))

	metrics.RecordRenderStage(metrics.StageTotal, time.Since(total))
	metrics.RecordRenderBytes(buf.Len())
	return buf.Bytes(), nil
}

// encoderPool lets concurrent encodes reuse png scratch buffers.
type encoderPool struct {
	pool sync.Pool
}

func (e *encoderPool) Get() *png.EncoderBuffer {
	b, _ := e.pool.Get().(*png.EncoderBuffer)
	return b
}

func (e *encoderPool) Put(b *png.EncoderBuffer) {
	e.pool.Put(b)
}
