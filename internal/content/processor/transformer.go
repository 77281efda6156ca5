package processor

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/romariotrain/content-pipeline/internal/content/models"
	"github.com/romariotrain/content-pipeline/internal/content/service"
)

// LocalTransformer — базовая трансформация: раскладывает артефакты рядом
// с оригиналом в outputBase по типу контента. Реальные перекодировщики
// подключаются тем же интерфейсом.
type LocalTransformer struct {
	outputBase string
}

func NewLocalTransformer(outputBase string) (*LocalTransformer, error) {
	if outputBase == "" {
		return nil, fmt.Errorf("output base is empty")
	}
	return &LocalTransformer{outputBase: strings.TrimRight(outputBase, "/")}, nil
}

func (t *LocalTransformer) Transform(ctx context.Context, c *models.Content) ([]service.DerivativeSpec, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.Source == "" {
		return nil, fmt.Errorf("content %s has empty source", c.ID)
	}

	kinds, ok := derivativeKinds[c.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported content type: %s", c.Type)
	}

	base := path.Base(c.Source)
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	specs := make([]service.DerivativeSpec, 0, len(kinds))
	for _, k := range kinds {
		specs = append(specs, service.DerivativeSpec{
			Kind:     k.kind,
			Location: fmt.Sprintf("%s/%s/%s.%s", t.outputBase, c.ID, stem+"_"+k.kind, k.ext),
		})
	}
	return specs, nil
}

type kindSpec struct {
	kind string
	ext  string
}

var derivativeKinds = map[models.ContentType][]kindSpec{
	models.Video: {
		{kind: "thumbnail", ext: "jpg"},
		{kind: "preview", ext: "mp4"},
		{kind: "transcode", ext: "mp4"},
	},
	models.Audio: {
		{kind: "waveform", ext: "png"},
		{kind: "transcode", ext: "mp3"},
	},
	models.Image: {
		{kind: "thumbnail", ext: "jpg"},
		{kind: "optimized", ext: "webp"},
	},
	models.File: {
		{kind: "archive", ext: "zip"},
	},
}
