package sync

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// DeltaCompressor кодирует/декодирует пакет изменений (Change).
type DeltaCompressor interface {
	Compress(changes []Change) ([]byte, error)
	Decompress(payload []byte) ([]Change, error)
}

type passthroughCompressor struct{}

// NewPassthroughCompressor - без сжатия: [len uint32][json change]...
func NewPassthroughCompressor() DeltaCompressor { return &passthroughCompressor{} }

func (p *passthroughCompressor) Compress(changes []Change) ([]byte, error) {
	buf := make([]byte, 0, 64*len(changes))
	for i := range changes {
		data, err := json.Marshal(&changes[i])
		if err != nil {
			return nil, fmt.Errorf("change %d: %w", i, err)
		}
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(data)))
		buf = append(buf, data...)
	}
	return buf, nil
}

func (p *passthroughCompressor) Decompress(payload []byte) ([]Change, error) {
	var res []Change
	i := 0
	for i < len(payload) {
		if i+4 > len(payload) {
			return res, fmt.Errorf("обрезанный заголовок на смещении %d", i)
		}
		n := int(binary.BigEndian.Uint32(payload[i:]))
		i += 4
		if i+n > len(payload) {
			return res, fmt.Errorf("обрезанное изменение на смещении %d", i)
		}
		var ch Change
		if err := json.Unmarshal(payload[i:i+n], &ch); err != nil {
			return res, fmt.Errorf("decode change: %w", err)
		}
		res = append(res, ch)
		i += n
	}
	return res, nil
}

// zstdCompressor сжимает сериализованный пакет через zstd
type zstdCompressor struct {
	raw passthroughCompressor
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewZstdCompressor создаёт компрессор; кодер и декодер переиспользуются.
func NewZstdCompressor() (DeltaCompressor, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &zstdCompressor{enc: enc, dec: dec}, nil
}

func (z *zstdCompressor) Compress(changes []Change) ([]byte, error) {
	raw, err := z.raw.Compress(changes)
	if err != nil {
		return nil, err
	}
	return z.enc.EncodeAll(raw, nil), nil
}

func (z *zstdCompressor) Decompress(payload []byte) ([]Change, error) {
	raw, err := z.dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	return z.raw.Decompress(raw)
}
