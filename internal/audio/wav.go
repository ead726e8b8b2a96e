package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// EncodeWAV wraps mono 16-bit 16kHz PCM in a canonical 44-byte RIFF/WAVE
// header, with no extra chunks.
func EncodeWAV(pcm []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))

	dataSize := uint32(len(pcm))
	totalSize := 36 + dataSize

	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, totalSize)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16)) // fmt chunk size
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))  // PCM format
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))  // mono
	_ = binary.Write(&buf, binary.LittleEndian, uint32(SampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(SampleRate*BytesPerSample)) // byte rate
	_ = binary.Write(&buf, binary.LittleEndian, uint16(BytesPerSample))           // block align
	_ = binary.Write(&buf, binary.LittleEndian, uint16(16))                       // bits per sample

	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, dataSize)
	buf.Write(pcm)

	return buf.Bytes()
}

// DecodeWAV reads a canonical mono 16-bit PCM WAV file and returns the raw
// PCM payload plus the sample rate recorded in the fmt chunk. It tolerates
// any chunk ordering after "fmt ", scanning for "data" by chunk id.
func DecodeWAV(wav []byte) (pcm []byte, sampleRate uint32, err error) {
	r := bytes.NewReader(wav)

	var riffID [4]byte
	if _, err := io.ReadFull(r, riffID[:]); err != nil || string(riffID[:]) != "RIFF" {
		return nil, 0, fmt.Errorf("decode wav: missing RIFF header")
	}
	var riffSize uint32
	if err := binary.Read(r, binary.LittleEndian, &riffSize); err != nil {
		return nil, 0, fmt.Errorf("decode wav: read riff size: %w", err)
	}
	var waveID [4]byte
	if _, err := io.ReadFull(r, waveID[:]); err != nil || string(waveID[:]) != "WAVE" {
		return nil, 0, fmt.Errorf("decode wav: missing WAVE id")
	}

	for {
		var chunkID [4]byte
		if _, err := io.ReadFull(r, chunkID[:]); err != nil {
			return nil, 0, fmt.Errorf("decode wav: missing data chunk")
		}
		var chunkSize uint32
		if err := binary.Read(r, binary.LittleEndian, &chunkSize); err != nil {
			return nil, 0, fmt.Errorf("decode wav: read chunk size: %w", err)
		}

		switch string(chunkID[:]) {
		case "fmt ":
			body := make([]byte, chunkSize)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, 0, fmt.Errorf("decode wav: read fmt chunk: %w", err)
			}
			if len(body) >= 8 {
				sampleRate = binary.LittleEndian.Uint32(body[4:8])
			}
		case "data":
			body := make([]byte, chunkSize)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, 0, fmt.Errorf("decode wav: read data chunk: %w", err)
			}
			return body, sampleRate, nil
		default:
			if _, err := r.Seek(int64(chunkSize), io.SeekCurrent); err != nil {
				return nil, 0, fmt.Errorf("decode wav: skip chunk %q: %w", chunkID, err)
			}
		}
	}
}
