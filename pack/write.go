package pack

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/whesense/attnlens/blobstore"
	"github.com/whesense/attnlens/codec"
	"github.com/whesense/attnlens/resource"
	"github.com/whesense/attnlens/scene"
	"github.com/whesense/attnlens/tensor"
)

// Compression selects the transport compression for payload and scale
// side-cars. Compressed files get the matching filename suffix, which is
// how decode recognizes them.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionZstd
	CompressionLZ4
)

func (c Compression) suffix() string {
	switch c {
	case CompressionZstd:
		return ".zst"
	case CompressionLZ4:
		return ".lz4"
	default:
		return ""
	}
}

// SceneInput describes one scene to publish.
type SceneInput struct {
	// Tensor is the fp32 attention tensor to quantize and write.
	Tensor *tensor.Tensor

	// ImageNames lists camera names in exporter order.
	ImageNames []string

	// ImageFiles / OriginalImageFiles are blob names of the patch-aligned
	// and full-resolution camera images, parallel to ImageNames.
	ImageFiles         []string
	OriginalImageFiles []string

	// ImageSizes / OriginalImageSizes are [width, height] pairs. Recording
	// them spares loaders an image probe.
	ImageSizes         [][2]int
	OriginalImageSizes [][2]int

	// LidarPointsFile is an optional side-car reference carried into the
	// manifest verbatim.
	LidarPointsFile string

	GridSize  int
	PatchSize int
	BEVRange  [4]float64

	HasCLSTokens bool

	// DefaultPrecision is the variant key recommended for auto resolution.
	// Defaults to the int4 variant.
	DefaultPrecision string

	VizCameraOrder []string
}

// Options configures WriteScene.
type Options struct {
	// Compression applies to payload and scale side-cars, not the manifest.
	Compression Compression

	// Codec encodes the manifest. Defaults to codec.Default.
	Codec codec.Codec

	// SkipFP32 omits the raw fp32 variant. The full-precision payload
	// dominates pack size, so bandwidth-constrained deployments publish
	// only the quantized variants.
	SkipFP32 bool

	// Controller, when set, paces side-car uploads through its IO limit.
	Controller *resource.Controller
}

// Option mutates Options.
type Option func(*Options)

// WithCompression sets the side-car transport compression.
func WithCompression(c Compression) Option {
	return func(o *Options) { o.Compression = c }
}

// WithCodec sets the manifest codec.
func WithCodec(c codec.Codec) Option {
	return func(o *Options) { o.Codec = c }
}

// WithoutFP32 omits the raw fp32 variant from the pack.
func WithoutFP32() Option {
	return func(o *Options) { o.SkipFP32 = true }
}

// WithController attaches a resource controller whose IO limit paces the
// published side-cars.
func WithController(rc *resource.Controller) Option {
	return func(o *Options) { o.Controller = rc }
}

// putBlob writes one blob, streaming through the IO limiter when a
// controller is attached.
func putBlob(ctx context.Context, store blobstore.Store, rc *resource.Controller, name string, data []byte) error {
	if rc == nil {
		return store.Put(ctx, name, data)
	}
	wb, err := store.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := resource.NewRateLimitedWriter(ctx, wb, rc).Write(data); err != nil {
		_ = wb.Close()
		return err
	}
	return wb.Close()
}

// WriteScene quantizes the input tensor, writes the scene pack (payloads,
// scale arrays, manifest) under dir, and returns the manifest's blob name.
func WriteScene(ctx context.Context, store blobstore.Store, dir string, in SceneInput, optFns ...Option) (string, error) {
	opts := Options{Codec: codec.Default}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}

	if in.Tensor == nil {
		return "", fmt.Errorf("pack: no tensor to write")
	}
	shape := in.Tensor.Shape()
	if err := shape.Validate(); err != nil {
		return "", err
	}
	if len(in.ImageNames) == 0 {
		return "", fmt.Errorf("pack: scene declares no cameras")
	}

	gridSize := in.GridSize
	if gridSize <= 0 {
		gridSize = scene.DefaultGridSize
	}
	patchSize := in.PatchSize
	if patchSize <= 0 {
		patchSize = scene.DefaultPatchSize
	}
	bevRange := in.BEVRange
	if bevRange == ([4]float64{}) {
		bevRange = scene.DefaultBEVRange
	}
	if q := gridSize * gridSize; shape.Queries != q {
		return "", fmt.Errorf("pack: query dimension %d does not match grid %dx%d", shape.Queries, gridSize, gridSize)
	}

	suffix := opts.Compression.suffix()
	variants := make(map[string]*scene.Variant)

	write := func(name string, data []byte) (string, error) {
		compressed, err := compress(opts.Compression, data)
		if err != nil {
			return "", err
		}
		name += suffix
		if err := putBlob(ctx, store, opts.Controller, path.Join(dir, name), compressed); err != nil {
			return "", fmt.Errorf("pack: writing %s: %w", name, err)
		}
		return name, nil
	}

	if !opts.SkipFP32 {
		name, err := write("attn_fp32.bin", FP32Bytes(in.Tensor))
		if err != nil {
			return "", err
		}
		variants[scene.KeyFP32] = &scene.Variant{
			DType: "float32",
			File:  name,
		}
	}

	int8Payload, int8Scales := Int8PerHead(in.Tensor)
	payloadName, err := write("attn_int8.bin", int8Payload)
	if err != nil {
		return "", err
	}
	scaleName, err := write("attn_int8_scales.bin", ScaleBytes(int8Scales))
	if err != nil {
		return "", err
	}
	variants[scene.KeyInt8] = &scene.Variant{
		DType:     "int8",
		Encoding:  scene.EncodingInt8PerHead,
		File:      payloadName,
		ScaleFile: scaleName,
	}

	int4Payload, int4Scales := Int4PerHeadQuery(in.Tensor)
	payloadName, err = write("attn_int4.bin", int4Payload)
	if err != nil {
		return "", err
	}
	scaleName, err = write("attn_int4_scales.bin", ScaleBytes(int4Scales))
	if err != nil {
		return "", err
	}
	variants[scene.KeyInt4] = &scene.Variant{
		DType:     "int4",
		Encoding:  scene.EncodingInt4Packed,
		File:      payloadName,
		ScaleFile: scaleName,
	}

	defaultPrecision := in.DefaultPrecision
	if defaultPrecision == "" {
		defaultPrecision = scene.KeyInt4
	}
	if _, ok := variants[defaultPrecision]; !ok {
		return "", fmt.Errorf("pack: default precision %q names no written variant", defaultPrecision)
	}

	manifest := &scene.Manifest{
		AttnWeightsShape:   []int{shape.Batch, shape.Heads, shape.Queries, shape.Keys},
		AttnVariants:       variants,
		ImageNames:         in.ImageNames,
		ImageFiles:         in.ImageFiles,
		OriginalImageFiles: in.OriginalImageFiles,
		ImageSizes:         in.ImageSizes,
		OriginalImageSizes: in.OriginalImageSizes,
		LidarPointsFile:    in.LidarPointsFile,
		Metadata: scene.Metadata{
			GridSize:             gridSize,
			PatchSize:            patchSize,
			BEVRange:             bevRange,
			HasCLSTokens:         in.HasCLSTokens,
			AttnPrecisionDefault: defaultPrecision,
			VizCameraOrder:       in.VizCameraOrder,
		},
	}
	if err := manifest.Validate(); err != nil {
		return "", err
	}

	doc, err := opts.Codec.Marshal(manifest)
	if err != nil {
		return "", fmt.Errorf("pack: encoding manifest: %w", err)
	}

	manifestName := path.Join(dir, "manifest.json")
	if err := putBlob(ctx, store, opts.Controller, manifestName, doc); err != nil {
		return "", fmt.Errorf("pack: writing manifest: %w", err)
	}
	return manifestName, nil
}

func compress(c Compression, data []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionZstd:
		var buf bytes.Buffer
		w, err := zstd.NewWriter(&buf)
		if err != nil {
			return nil, fmt.Errorf("pack: zstd writer: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("pack: zstd compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("pack: zstd close: %w", err)
		}
		return buf.Bytes(), nil
	case CompressionLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("pack: lz4 compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("pack: lz4 close: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("pack: unknown compression %d", c)
	}
}
