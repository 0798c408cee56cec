package cache

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/zstd"

	"github.com/penwyp/go-trend-sift/internal/data/aggregator"
)

// codec serializes entries as zstd compressed JSON.
type codec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// newCodec maps level 1-4 onto the zstd speed presets; other values use
// the default preset.
func newCodec(level int) (*codec, error) {
	encLevel := zstd.SpeedDefault
	switch level {
	case 1:
		encLevel = zstd.SpeedFastest
	case 2:
		encLevel = zstd.SpeedDefault
	case 3:
		encLevel = zstd.SpeedBetterCompression
	case 4:
		encLevel = zstd.SpeedBestCompression
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(encLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	return &codec{encoder: encoder, decoder: decoder}, nil
}

// encode and decode may run concurrently; zstd EncodeAll/DecodeAll allow it.
func (c *codec) encode(e *aggregator.AggregatedData) ([]byte, error) {
	raw, err := sonic.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal entry: %w", err)
	}
	return c.encoder.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

func (c *codec) decode(data []byte) (*aggregator.AggregatedData, error) {
	raw, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompression failed: %w", err)
	}
	var e aggregator.AggregatedData
	if err := sonic.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("unmarshal entry: %w", err)
	}
	return &e, nil
}

func (c *codec) close() {
	c.encoder.Close()
	c.decoder.Close()
}
