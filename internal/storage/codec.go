package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/docvault/docvault-mcp/pkg/types"
)

// Encoding identifies how an embedding vector is persisted
type Encoding string

const (
	// EncodingFloat32LE stores vectors as packed little-endian float32 (default)
	EncodingFloat32LE Encoding = "float32le"
	// EncodingJSON stores vectors as a JSON number array
	EncodingJSON Encoding = "json"
)

// EncodeVector serializes a vector using the given encoding
func EncodeVector(vector []float32, enc Encoding) ([]byte, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty vector", types.ErrMalformedEmbedding)
	}

	switch enc {
	case EncodingFloat32LE, "":
		blob := make([]byte, len(vector)*4)
		for i, v := range vector {
			binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
		}
		return blob, nil
	case EncodingJSON:
		return json.Marshal(vector)
	default:
		return nil, fmt.Errorf("unsupported embedding encoding %q", enc)
	}
}

// DecodeVector deserializes a stored vector. Decode happens exactly once at
// the store boundary; ranking code never sees raw blobs. Failures wrap
// types.ErrMalformedEmbedding.
func DecodeVector(blob []byte, enc Encoding) ([]float32, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("%w: empty blob", types.ErrMalformedEmbedding)
	}

	switch enc {
	case EncodingFloat32LE, "":
		if len(blob)%4 != 0 {
			return nil, fmt.Errorf("%w: blob length %d is not a multiple of 4", types.ErrMalformedEmbedding, len(blob))
		}
		vector := make([]float32, len(blob)/4)
		for i := range vector {
			vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
		}
		return vector, nil
	case EncodingJSON:
		var vector []float32
		if err := json.Unmarshal(blob, &vector); err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrMalformedEmbedding, err)
		}
		if len(vector) == 0 {
			return nil, fmt.Errorf("%w: decoded vector is empty", types.ErrMalformedEmbedding)
		}
		return vector, nil
	default:
		return nil, fmt.Errorf("%w: unknown encoding %q", types.ErrMalformedEmbedding, enc)
	}
}
