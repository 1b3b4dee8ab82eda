package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// wavHeaderSize is the byte length of a canonical PCM WAV header.
const wavHeaderSize = 44

// WriteWAV encodes mono float32 samples as a 16-bit PCM WAV file at path.
// The file is created with 0o644 permissions and truncated if it exists.
func WriteWAV(path string, samples []float32, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audio: create wav file: %w", err)
	}
	defer f.Close()

	if err := EncodeWAV(f, samples, sampleRate); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("audio: close wav file: %w", err)
	}
	return nil
}

// EncodeWAV writes mono float32 samples to w as 16-bit PCM WAV.
func EncodeWAV(w io.Writer, samples []float32, sampleRate int) error {
	pcm := Float32ToPCM16(samples)

	header := make([]byte, wavHeaderSize)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+len(pcm)))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16) // PCM chunk size
	binary.LittleEndian.PutUint16(header[20:22], 1)  // PCM format
	binary.LittleEndian.PutUint16(header[22:24], 1)  // mono
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(sampleRate*2)) // byte rate
	binary.LittleEndian.PutUint16(header[32:34], 2)                    // block align
	binary.LittleEndian.PutUint16(header[34:36], 16)                   // bits per sample
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(len(pcm)))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("audio: write wav header: %w", err)
	}
	if _, err := w.Write(pcm); err != nil {
		return fmt.Errorf("audio: write wav data: %w", err)
	}
	return nil
}

// ReadWAV decodes a 16-bit PCM WAV file into mono float32 samples and the
// sample rate declared in the header. Stereo files are downmixed to mono.
func ReadWAV(path string) ([]float32, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("audio: read wav file: %w", err)
	}
	return DecodeWAV(data)
}

// DecodeWAV decodes 16-bit PCM WAV bytes into mono float32 samples and the
// sample rate declared in the header. Stereo input is downmixed to mono.
// Chunks other than "fmt " and "data" are skipped.
func DecodeWAV(data []byte) ([]float32, int, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("audio: not a RIFF/WAVE file")
	}

	var (
		sampleRate int
		channels   int
		format     int
		pcm        []byte
	)

	// Walk the chunk list after the 12-byte RIFF header.
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if body+size > len(data) {
			size = len(data) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, fmt.Errorf("audio: truncated fmt chunk (%d bytes)", size)
			}
			format = int(binary.LittleEndian.Uint16(data[body : body+2]))
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
		case "data":
			pcm = data[body : body+size]
		}

		// Chunks are word-aligned.
		off = body + size
		if size%2 == 1 {
			off++
		}
	}

	if format != 1 {
		return nil, 0, fmt.Errorf("audio: unsupported wav format code %d (want PCM)", format)
	}
	if channels < 1 || channels > 2 {
		return nil, 0, fmt.Errorf("audio: unsupported channel count %d", channels)
	}
	if sampleRate <= 0 {
		return nil, 0, fmt.Errorf("audio: missing fmt chunk")
	}

	samples := PCM16ToFloat32(pcm)
	if channels == 2 {
		samples = StereoToMono(samples)
	}
	return samples, sampleRate, nil
}
