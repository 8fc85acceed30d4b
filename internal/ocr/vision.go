package ocr

import (
	"context"
	"fmt"
	"os"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
)

// annotator is the part of the Cloud Vision client the vision engine uses.
type annotator interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
	Close() error
}

// Vision recognizes text with Google Cloud Vision document text detection.
//
// It reports one line per detected paragraph and returns the older
// {"texts", "scores", "dt_polys"} mapping shape. Paragraphs without a
// confidence carry a nil score and are kept regardless of threshold.
type Vision struct {
	client annotator
}

// NewVision creates a Cloud Vision client. Inline credentials
// (cfg.CredentialsJSON) win over a credentials file; with neither, the
// default credential chain is tried.
func NewVision(ctx context.Context, cfg Config) (Engine, error) {
	var opts []option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		if len(opts) == 0 {
			return nil, engineError("vision", "NewImageAnnotatorClient", fmt.Errorf("%w: %v", ErrMissingCredentials, err))
		}
		return nil, engineError("vision", "NewImageAnnotatorClient", err)
	}
	return NewVisionWithClient(client), nil
}

// NewVisionWithClient wraps an existing client. Used by tests with a fake.
func NewVisionWithClient(client annotator) *Vision {
	return &Vision{client: client}
}

// Name returns "vision".
func (v *Vision) Name() string { return "vision" }

// Info reports the engine as available; credentials are only checked on use.
func (v *Vision) Info() Info {
	return Info{Engine: v.Name(), Available: v.client != nil}
}

// Predict sends the image to Cloud Vision and returns a map with "texts",
// "scores" and "dt_polys" lists.
func (v *Vision) Predict(ctx context.Context, in Input) (any, error) {
	const op = "BatchAnnotateImages"

	var content []byte
	switch {
	case in.Path != "":
		data, err := os.ReadFile(in.Path)
		if err != nil {
			return nil, engineError("vision", "ReadFile", err)
		}
		content = data
	case in.Image != nil:
		data, err := in.Image.PNG()
		if err != nil {
			return nil, engineError("vision", "EncodePNG", err)
		}
		content = data
	default:
		return nil, ErrNoInput
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: content},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := v.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, engineError("vision", op, err)
	}
	if len(resp.GetResponses()) == 0 {
		return nil, nil
	}

	page := resp.GetResponses()[0]
	if page.GetError() != nil {
		return nil, engineError("vision", op, fmt.Errorf("vision API error: %s", page.GetError().GetMessage()))
	}

	return paragraphs(page.GetFullTextAnnotation()), nil
}

// paragraphs flattens a full text annotation into parallel lists.
func paragraphs(doc *visionpb.TextAnnotation) map[string]any {
	texts := []any{}
	scores := []any{}
	polys := []any{}

	for _, page := range doc.GetPages() {
		for _, block := range page.GetBlocks() {
			for _, para := range block.GetParagraphs() {
				words := make([]string, 0, len(para.GetWords()))
				for _, word := range para.GetWords() {
					var sb strings.Builder
					for _, symbol := range word.GetSymbols() {
						sb.WriteString(symbol.GetText())
					}
					words = append(words, sb.String())
				}
				texts = append(texts, strings.Join(words, " "))

				if c := para.GetConfidence(); c > 0 {
					scores = append(scores, c)
				} else {
					scores = append(scores, nil)
				}

				var poly []any
				for _, vertex := range para.GetBoundingBox().GetVertices() {
					poly = append(poly, []any{vertex.GetX(), vertex.GetY()})
				}
				polys = append(polys, poly)
			}
		}
	}

	return map[string]any{
		"texts":    texts,
		"scores":   scores,
		"dt_polys": polys,
	}
}

// Close closes the Cloud Vision client.
func (v *Vision) Close() error {
	if v.client != nil {
		return v.client.Close()
	}
	return nil
}
