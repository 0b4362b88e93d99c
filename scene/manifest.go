package scene

import (
	"fmt"

	"github.com/whesense/attnlens/codec"
	"github.com/whesense/attnlens/tensor"
)

// Canonical variant keys as they appear in the manifest's attn_variants map.
const (
	KeyFP32 = "fp32"
	KeyInt8 = "int8_phs_v1"
	KeyInt4 = "int4_phq_v1"
)

// Encoding names carried in variant descriptors.
const (
	EncodingFP32        = "" // raw float32 payloads carry no encoding tag
	EncodingInt8PerHead = "symmetric_per_head"
	EncodingInt4Packed  = "symmetric_per_head_query_packed_int4"
)

// Default metadata values applied at parse time.
const (
	DefaultGridSize  = 32
	DefaultPatchSize = 14
)

// DefaultBEVRange is the default BEV extent in meters: [xmin, xmax, ymin, ymax].
var DefaultBEVRange = [4]float64{-40, 40, -40, 40}

// Variant describes one encoded form of the attention tensor. The encoding
// is decided once at parse time; decode switches on Key, never on runtime
// payload inspection.
type Variant struct {
	// Key is the canonical variant name (KeyFP32, KeyInt8, KeyInt4).
	Key string `json:"-"`

	// DType is the manifest-declared element type ("float32", "int8", "int4").
	DType string `json:"dtype,omitempty"`

	// Encoding names the quantization scheme. Empty for fp32.
	Encoding string `json:"encoding,omitempty"`

	// File is the payload blob name, relative to the manifest.
	File string `json:"file"`

	// ScaleFile is the float32 scale-array blob name. Empty for fp32.
	ScaleFile string `json:"scale_file,omitempty"`
}

// Metadata carries scene-level knobs with defaults applied at parse time.
type Metadata struct {
	GridSize  int        `json:"grid_size"`
	PatchSize int        `json:"patch_size"`
	BEVRange  [4]float64 `json:"bev_range"`

	// HasCLSTokens reports whether every camera contributes a CLS token
	// before its patch tokens in the key dimension.
	HasCLSTokens bool `json:"has_cls_tokens"`

	// AttnPrecisionDefault is the variant key the exporter recommends for
	// auto resolution. Optional.
	AttnPrecisionDefault string `json:"attn_precision_default,omitempty"`

	// VizCameraOrder is the display order for camera strips. It is a
	// rendering concern only: token-layout math always uses lexicographic
	// camera-name order, never this field.
	VizCameraOrder []string `json:"viz_camera_order,omitempty"`

	ImageFormat string `json:"image_format,omitempty"`
}

// Manifest is the parsed scene manifest.
type Manifest struct {
	// AttnWeightsShape is [batch, heads, queries, keys]; batch must be 1.
	AttnWeightsShape []int `json:"attn_weights_shape"`

	// AttnVariants maps canonical variant keys to descriptors. Optional;
	// legacy manifests carry only AttnWeightsFile.
	AttnVariants map[string]*Variant `json:"attn_variants,omitempty"`

	// AttnWeightsFile is the legacy single-file fp32 payload reference.
	AttnWeightsFile string `json:"attn_weights_file,omitempty"`

	// ImageNames lists camera names. Order here is exporter order; token
	// layout re-sorts lexicographically.
	ImageNames []string `json:"image_names"`

	// ImageFiles are the patch-aligned (network input) camera images.
	ImageFiles []string `json:"image_files,omitempty"`

	// OriginalImageFiles are the full-resolution camera images.
	OriginalImageFiles []string `json:"original_image_files,omitempty"`

	// ImageSizes / OriginalImageSizes are optional [width, height] pairs
	// per camera. When absent, loaders probe the encoded images instead.
	ImageSizes         [][2]int `json:"image_sizes,omitempty"`
	OriginalImageSizes [][2]int `json:"original_image_sizes,omitempty"`

	// LidarPointsFile is an optional side-car reference, carried through
	// for point-cloud overlays but not interpreted here. The wire key is
	// the exporter's legacy "lidar_pts_file" spelling.
	LidarPointsFile string `json:"lidar_pts_file,omitempty"`

	Metadata Metadata `json:"metadata"`
}

// manifestJSON mirrors Manifest with pointer metadata fields so absent keys
// can be told apart from explicit zero values.
type manifestJSON struct {
	AttnWeightsShape   []int               `json:"attn_weights_shape"`
	AttnVariants       map[string]*Variant `json:"attn_variants"`
	AttnWeightsFile    string              `json:"attn_weights_file"`
	ImageNames         []string            `json:"image_names"`
	ImageFiles         []string            `json:"image_files"`
	OriginalImageFiles []string            `json:"original_image_files"`
	ImageSizes         [][2]int            `json:"image_sizes"`
	OriginalImageSizes [][2]int            `json:"original_image_sizes"`
	LidarPointsFile    string              `json:"lidar_pts_file"`
	Metadata           *metadataJSON       `json:"metadata"`
}

type metadataJSON struct {
	GridSize             *int        `json:"grid_size"`
	PatchSize            *int        `json:"patch_size"`
	BEVRange             *[4]float64 `json:"bev_range"`
	HasCLSTokens         *bool       `json:"has_cls_tokens"`
	AttnPrecisionDefault string      `json:"attn_precision_default"`
	VizCameraOrder       []string    `json:"viz_camera_order"`
	ImageFormat          string      `json:"image_format"`
}

// Parse decodes a manifest document, applies metadata defaults, and
// validates it. If c is nil, codec.Default is used.
func Parse(data []byte, c codec.Codec) (*Manifest, error) {
	if c == nil {
		c = codec.Default
	}

	var raw manifestJSON
	if err := c.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("scene: malformed manifest: %w", err)
	}

	m := &Manifest{
		AttnWeightsShape:   raw.AttnWeightsShape,
		AttnVariants:       raw.AttnVariants,
		AttnWeightsFile:    raw.AttnWeightsFile,
		ImageNames:         raw.ImageNames,
		ImageFiles:         raw.ImageFiles,
		OriginalImageFiles: raw.OriginalImageFiles,
		ImageSizes:         raw.ImageSizes,
		OriginalImageSizes: raw.OriginalImageSizes,
		LidarPointsFile:    raw.LidarPointsFile,
		Metadata: Metadata{
			GridSize:     DefaultGridSize,
			PatchSize:    DefaultPatchSize,
			BEVRange:     DefaultBEVRange,
			HasCLSTokens: true,
		},
	}

	if md := raw.Metadata; md != nil {
		if md.GridSize != nil {
			m.Metadata.GridSize = *md.GridSize
		}
		if md.PatchSize != nil {
			m.Metadata.PatchSize = *md.PatchSize
		}
		if md.BEVRange != nil {
			m.Metadata.BEVRange = *md.BEVRange
		}
		if md.HasCLSTokens != nil {
			m.Metadata.HasCLSTokens = *md.HasCLSTokens
		}
		m.Metadata.AttnPrecisionDefault = md.AttnPrecisionDefault
		m.Metadata.VizCameraOrder = md.VizCameraOrder
		m.Metadata.ImageFormat = md.ImageFormat
	}

	// Stamp canonical keys onto the variant descriptors.
	for key, v := range m.AttnVariants {
		if v != nil {
			v.Key = key
		}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the manifest's structural invariants.
func (m *Manifest) Validate() error {
	shape, err := m.Shape()
	if err != nil {
		return err
	}
	if err := shape.Validate(); err != nil {
		return err
	}

	if len(m.ImageNames) == 0 {
		return fmt.Errorf("scene: manifest declares no cameras")
	}
	if len(m.ImageFiles) > 0 && len(m.ImageFiles) != len(m.ImageNames) {
		return fmt.Errorf("scene: %d image files for %d cameras", len(m.ImageFiles), len(m.ImageNames))
	}
	if len(m.OriginalImageFiles) > 0 && len(m.OriginalImageFiles) != len(m.ImageNames) {
		return fmt.Errorf("scene: %d original image files for %d cameras", len(m.OriginalImageFiles), len(m.ImageNames))
	}
	if len(m.ImageSizes) > 0 && len(m.ImageSizes) != len(m.ImageNames) {
		return fmt.Errorf("scene: %d image sizes for %d cameras", len(m.ImageSizes), len(m.ImageNames))
	}
	if len(m.OriginalImageSizes) > 0 && len(m.OriginalImageSizes) != len(m.ImageNames) {
		return fmt.Errorf("scene: %d original image sizes for %d cameras", len(m.OriginalImageSizes), len(m.ImageNames))
	}

	if m.Metadata.GridSize <= 0 {
		return fmt.Errorf("scene: grid_size must be positive, got %d", m.Metadata.GridSize)
	}
	if m.Metadata.PatchSize <= 0 {
		return fmt.Errorf("scene: patch_size must be positive, got %d", m.Metadata.PatchSize)
	}
	if q := m.Metadata.GridSize * m.Metadata.GridSize; shape.Queries != q {
		return fmt.Errorf("scene: query dimension %d does not match grid %dx%d", shape.Queries, m.Metadata.GridSize, m.Metadata.GridSize)
	}

	for key, v := range m.AttnVariants {
		if v == nil {
			return fmt.Errorf("scene: variant %q has no descriptor", key)
		}
		if v.File == "" {
			return fmt.Errorf("scene: variant %q missing payload file", key)
		}
		switch key {
		case KeyFP32:
			// No scale file.
		case KeyInt8:
			if v.Encoding != EncodingInt8PerHead {
				return fmt.Errorf("scene: variant %q has encoding %q, want %q", key, v.Encoding, EncodingInt8PerHead)
			}
			if v.ScaleFile == "" {
				return fmt.Errorf("scene: variant %q missing scale file", key)
			}
		case KeyInt4:
			if v.Encoding != EncodingInt4Packed {
				return fmt.Errorf("scene: variant %q has encoding %q, want %q", key, v.Encoding, EncodingInt4Packed)
			}
			if v.ScaleFile == "" {
				return fmt.Errorf("scene: variant %q missing scale file", key)
			}
		default:
			return fmt.Errorf("scene: unknown variant key %q", key)
		}
	}

	return nil
}

// Shape returns the declared tensor shape.
func (m *Manifest) Shape() (tensor.Shape, error) {
	return tensor.ShapeOf(m.AttnWeightsShape)
}
