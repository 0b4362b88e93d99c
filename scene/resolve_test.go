package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func manifestWith(variants map[string]*Variant, def string, legacy string) *Manifest {
	for key, v := range variants {
		v.Key = key
	}
	return &Manifest{
		AttnWeightsShape: []int{1, 8, 1024, 1542},
		AttnVariants:     variants,
		AttnWeightsFile:  legacy,
		ImageNames:       []string{"CAM_FRONT"},
		Metadata: Metadata{
			GridSize:             32,
			PatchSize:            14,
			BEVRange:             DefaultBEVRange,
			HasCLSTokens:         true,
			AttnPrecisionDefault: def,
		},
	}
}

func fp32Variant() *Variant {
	return &Variant{DType: "float32", File: "attn.bin"}
}

func int8Variant() *Variant {
	return &Variant{DType: "int8", Encoding: EncodingInt8PerHead, File: "attn_int8.bin", ScaleFile: "attn_int8_scales.bin"}
}

func int4Variant() *Variant {
	return &Variant{DType: "int4", Encoding: EncodingInt4Packed, File: "attn_int4.bin", ScaleFile: "attn_int4_scales.bin"}
}

func TestResolveExplicitPresent(t *testing.T) {
	m := manifestWith(map[string]*Variant{
		KeyFP32: fp32Variant(),
		KeyInt8: int8Variant(),
		KeyInt4: int4Variant(),
	}, "", "")

	for _, tt := range []struct {
		req Precision
		key string
	}{
		{PrecisionFP32, KeyFP32},
		{PrecisionInt8, KeyInt8},
		{PrecisionInt4, KeyInt4},
	} {
		res, err := ResolveVariant(m, tt.req)
		require.NoError(t, err, tt.req)
		assert.Equal(t, tt.key, res.Key)
		assert.False(t, res.FallbackUsed)
		assert.Equal(t, tt.req, res.Requested)
	}
}

func TestResolveExplicitAbsentIsHardFailure(t *testing.T) {
	m := manifestWith(map[string]*Variant{KeyFP32: fp32Variant()}, "", "")

	for _, req := range []Precision{PrecisionInt8, PrecisionInt4} {
		_, err := ResolveVariant(m, req)
		require.Error(t, err, req)
		require.ErrorIs(t, err, ErrPrecisionUnavailable)

		var pe *PrecisionError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, req, pe.Requested)
	}
}

func TestResolveAutoPrefersDeclaredDefault(t *testing.T) {
	m := manifestWith(map[string]*Variant{
		KeyFP32: fp32Variant(),
		KeyInt8: int8Variant(),
		KeyInt4: int4Variant(),
	}, KeyInt8, "")

	res, err := ResolveVariant(m, PrecisionAuto)
	require.NoError(t, err)
	assert.Equal(t, KeyInt8, res.Key)
	assert.False(t, res.FallbackUsed)
}

func TestResolveAutoDefaultAbsentFallsBack(t *testing.T) {
	m := manifestWith(map[string]*Variant{
		KeyFP32: fp32Variant(),
		KeyInt8: int8Variant(),
	}, KeyInt4, "")

	res, err := ResolveVariant(m, PrecisionAuto)
	require.NoError(t, err)
	assert.Equal(t, KeyInt8, res.Key)
	assert.True(t, res.FallbackUsed)
}

func TestResolveAutoPriorityOrder(t *testing.T) {
	// int4 > int8 > fp32 among whatever is present.
	m := manifestWith(map[string]*Variant{
		KeyFP32: fp32Variant(),
		KeyInt8: int8Variant(),
		KeyInt4: int4Variant(),
	}, "", "")

	res, err := ResolveVariant(m, PrecisionAuto)
	require.NoError(t, err)
	assert.Equal(t, KeyInt4, res.Key)

	delete(m.AttnVariants, KeyInt4)
	res, err = ResolveVariant(m, PrecisionAuto)
	require.NoError(t, err)
	assert.Equal(t, KeyInt8, res.Key)

	delete(m.AttnVariants, KeyInt8)
	res, err = ResolveVariant(m, PrecisionAuto)
	require.NoError(t, err)
	assert.Equal(t, KeyFP32, res.Key)
	assert.False(t, res.FallbackUsed)
}

func TestResolveLegacyManifest(t *testing.T) {
	m := manifestWith(nil, "", "frame_attn.bin")

	res, err := ResolveVariant(m, PrecisionAuto)
	require.NoError(t, err)
	assert.Equal(t, KeyFP32, res.Key)
	assert.Equal(t, "frame_attn.bin", res.Variant.File)
	assert.True(t, res.FallbackUsed)

	// Explicit fp32 against the legacy file is a literal match.
	res, err = ResolveVariant(m, PrecisionFP32)
	require.NoError(t, err)
	assert.Equal(t, KeyFP32, res.Key)
	assert.False(t, res.FallbackUsed)

	// Explicit quantized requests cannot be served.
	_, err = ResolveVariant(m, PrecisionInt8)
	require.ErrorIs(t, err, ErrPrecisionUnavailable)
	_, err = ResolveVariant(m, PrecisionInt4)
	require.ErrorIs(t, err, ErrPrecisionUnavailable)
}

func TestResolveNothingAvailable(t *testing.T) {
	m := manifestWith(nil, "", "")

	_, err := ResolveVariant(m, PrecisionAuto)
	require.ErrorIs(t, err, ErrNoVariants)

	_, err = ResolveVariant(m, PrecisionInt4)
	require.ErrorIs(t, err, ErrPrecisionUnavailable)
}

func TestParsePrecision(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want Precision
	}{
		{"auto", PrecisionAuto},
		{"", PrecisionAuto},
		{"FP32", PrecisionFP32},
		{"float32", PrecisionFP32},
		{"Int8", PrecisionInt8},
		{" int4 ", PrecisionInt4},
	} {
		got, err := ParsePrecision(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParsePrecision("int2")
	require.Error(t, err)
}
