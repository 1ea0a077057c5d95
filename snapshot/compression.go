package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the block codec.
type Compression uint8

const (
	// CompressionNone stores blocks as is.
	CompressionNone Compression = 0
	// CompressionLZ4 favors speed.
	CompressionLZ4 Compression = 1
	// CompressionZSTD favors ratio.
	CompressionZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

func (c Compression) valid() bool { return c <= CompressionZSTD }

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Block header: [uncompressed u32][compressed u32]. A compressed size of 0
// marks a stored block; a header of two zeros ends the stream.
const blockHeaderSize = 8

// DefaultBlockSize is the uncompressed block size.
const DefaultBlockSize = 256 * 1024

var errCorruptBlock = errors.New("snapshot: corrupt block")

func compress(data []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return nil, err
		}
		return dst[:n], nil
	case CompressionZSTD:
		enc := getZstdEncoder()
		defer zstdEncoderPool.Put(enc)
		return enc.EncodeAll(data, nil), nil
	default:
		return nil, nil
	}
}

func decompress(src []byte, size uint32, c Compression) ([]byte, error) {
	dst := make([]byte, size)
	switch c {
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(src, dst)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errCorruptBlock, err)
		}
		dst = dst[:n]
	case CompressionZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		var err error
		if dst, err = dec.DecodeAll(src, dst[:0]); err != nil {
			return nil, fmt.Errorf("%w: %w", errCorruptBlock, err)
		}
	default:
		return nil, fmt.Errorf("%w: compressed block in %s stream", errCorruptBlock, c)
	}
	if uint32(len(dst)) != size {
		return nil, fmt.Errorf("%w: decompressed %d bytes, want %d", errCorruptBlock, len(dst), size)
	}
	return dst, nil
}

// blockWriter buffers a byte stream into compressed blocks.
type blockWriter struct {
	w           io.Writer
	compression Compression
	blockSize   int
	buf         bytes.Buffer
	header      [blockHeaderSize]byte
}

func newBlockWriter(w io.Writer, c Compression, blockSize int) *blockWriter {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	bw := &blockWriter{w: w, compression: c, blockSize: blockSize}
	bw.buf.Grow(blockSize)
	return bw
}

func (b *blockWriter) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		space := b.blockSize - b.buf.Len()
		if space == 0 {
			if err := b.flush(); err != nil {
				return total, err
			}
			space = b.blockSize
		}
		n, _ := b.buf.Write(p[:min(space, len(p))])
		total += n
		p = p[n:]
	}
	return total, nil
}

func (b *blockWriter) flush() error {
	if b.buf.Len() == 0 {
		return nil
	}
	data := b.buf.Bytes()

	compressed, err := compress(data, b.compression)
	if err != nil {
		return err
	}
	// Keep the block stored when compression does not pay off.
	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		compressed = nil
	}

	binary.LittleEndian.PutUint32(b.header[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(b.header[4:], uint32(len(compressed)))
	if _, err := b.w.Write(b.header[:]); err != nil {
		return err
	}
	payload := compressed
	if payload == nil {
		payload = data
	}
	if _, err := b.w.Write(payload); err != nil {
		return err
	}
	b.buf.Reset()
	return nil
}

// Close flushes the last block and writes the end marker.
func (b *blockWriter) Close() error {
	if err := b.flush(); err != nil {
		return err
	}
	clear(b.header[:])
	_, err := b.w.Write(b.header[:])
	return err
}

// blockReader decodes a block stream written by blockWriter.
type blockReader struct {
	r           io.Reader
	compression Compression
	block       []byte
	done        bool
}

func newBlockReader(r io.Reader, c Compression) *blockReader {
	return &blockReader{r: r, compression: c}
}

func (b *blockReader) Read(p []byte) (int, error) {
	for len(b.block) == 0 {
		if b.done {
			return 0, io.EOF
		}
		if err := b.next(); err != nil {
			return 0, err
		}
	}
	n := copy(p, b.block)
	b.block = b.block[n:]
	return n, nil
}

func (b *blockReader) next() error {
	var header [blockHeaderSize]byte
	if _, err := io.ReadFull(b.r, header[:]); err != nil {
		return fmt.Errorf("%w: header: %w", errCorruptBlock, unexpected(err))
	}
	size := binary.LittleEndian.Uint32(header[0:])
	stored := binary.LittleEndian.Uint32(header[4:])

	if size == 0 {
		if stored != 0 {
			return fmt.Errorf("%w: empty block with %d payload bytes", errCorruptBlock, stored)
		}
		b.done = true
		return nil
	}

	n := size
	if stored != 0 {
		n = stored
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(b.r, payload); err != nil {
		return fmt.Errorf("%w: payload: %w", errCorruptBlock, unexpected(err))
	}

	if stored == 0 {
		b.block = payload
		return nil
	}
	block, err := decompress(payload, size, b.compression)
	if err != nil {
		return err
	}
	b.block = block
	return nil
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
