// Package wav wraps raw mono 16-bit PCM in a RIFF/WAVE container and reads it back.
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	DefaultSampleRate = 24000

	HeaderSize    = 44
	Channels      = 1
	BitsPerSample = 16
	MimeType      = "audio/wav"

	formatPCM = 1
)

var ErrInvalidContainer = errors.New("wav: invalid container")

// Encode returns a complete WAV file holding pcm. A non-positive sampleRate
// selects DefaultSampleRate. An odd-length pcm gets a zero pad byte after the
// data chunk; the data chunk size still reports len(pcm).
func Encode(pcm []byte, sampleRate int) []byte {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	blockAlign := Channels * BitsPerSample / 8
	byteRate := sampleRate * blockAlign
	dataLen := len(pcm)
	pad := dataLen % 2

	out := make([]byte, HeaderSize+dataLen+pad)
	le := binary.LittleEndian

	copy(out[0:4], "RIFF")
	le.PutUint32(out[4:8], uint32(36+dataLen+pad))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	le.PutUint32(out[16:20], 16)
	le.PutUint16(out[20:22], formatPCM)
	le.PutUint16(out[22:24], Channels)
	le.PutUint32(out[24:28], uint32(sampleRate))
	le.PutUint32(out[28:32], uint32(byteRate))
	le.PutUint16(out[32:34], uint16(blockAlign))
	le.PutUint16(out[34:36], BitsPerSample)

	copy(out[36:40], "data")
	le.PutUint32(out[40:44], uint32(dataLen))
	copy(out[HeaderSize:], pcm)
	return out
}

// Decode walks the RIFF chunks of data and returns the PCM payload and sample rate.
// Only uncompressed PCM is accepted.
func Decode(data []byte) ([]byte, int, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, ErrInvalidContainer
	}
	le := binary.LittleEndian

	sampleRate := 0
	haveFmt := false
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(le.Uint32(data[off+4 : off+8]))
		body := off + 8
		if size < 0 || body+size > len(data) {
			return nil, 0, fmt.Errorf("%w: chunk %q overruns buffer", ErrInvalidContainer, id)
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, fmt.Errorf("%w: short fmt chunk", ErrInvalidContainer)
			}
			if le.Uint16(data[body:body+2]) != formatPCM {
				return nil, 0, fmt.Errorf("%w: not PCM", ErrInvalidContainer)
			}
			sampleRate = int(le.Uint32(data[body+4 : body+8]))
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, 0, fmt.Errorf("%w: data before fmt", ErrInvalidContainer)
			}
			pcm := make([]byte, size)
			copy(pcm, data[body:body+size])
			return pcm, sampleRate, nil
		}
		// Chunks are word aligned.
		off = body + size + size%2
	}
	return nil, 0, fmt.Errorf("%w: missing data chunk", ErrInvalidContainer)
}

// Duration returns the playback length in seconds of pcmLen bytes at sampleRate.
func Duration(pcmLen, sampleRate int) float64 {
	if pcmLen <= 0 || sampleRate <= 0 {
		return 0
	}
	return float64(pcmLen) / float64(sampleRate*Channels*BitsPerSample/8)
}
