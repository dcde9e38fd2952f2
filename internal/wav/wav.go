// Package wav encodes PCM16 audio as RIFF/WAVE files.
package wav

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/miditone/miditone/synth"
)

const headerSize = 44

// Encode writes audio to w as a 16-bit PCM WAVE file.
func Encode(w io.Writer, a *synth.Audio) error {
	if a == nil || a.SampleRate <= 0 || a.Channels <= 0 {
		return fmt.Errorf("invalid audio parameters")
	}

	dataLen := len(a.Samples) * 2
	byteRate := a.SampleRate * a.Channels * 2
	blockAlign := a.Channels * 2

	header := make([]byte, 0, headerSize)
	header = append(header, "RIFF"...)
	header = binary.LittleEndian.AppendUint32(header, uint32(headerSize-8+dataLen))
	header = append(header, "WAVE"...)
	header = append(header, "fmt "...)
	header = binary.LittleEndian.AppendUint32(header, 16) // fmt chunk size
	header = binary.LittleEndian.AppendUint16(header, 1)  // PCM
	header = binary.LittleEndian.AppendUint16(header, uint16(a.Channels))
	header = binary.LittleEndian.AppendUint32(header, uint32(a.SampleRate))
	header = binary.LittleEndian.AppendUint32(header, uint32(byteRate))
	header = binary.LittleEndian.AppendUint16(header, uint16(blockAlign))
	header = binary.LittleEndian.AppendUint16(header, 16) // bits per sample
	header = append(header, "data"...)
	header = binary.LittleEndian.AppendUint32(header, uint32(dataLen))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	data := make([]byte, dataLen)
	for i, s := range a.Samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write samples: %w", err)
	}
	return nil
}
