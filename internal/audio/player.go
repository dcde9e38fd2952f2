// Package audio provides blocking PCM playback for the CLI.
package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/miditone/miditone/synth"
)

// Play plays the audio through the default output device and blocks until
// playback finishes or ctx is canceled.
func Play(ctx context.Context, a *synth.Audio) error {
	op := &oto.NewContextOptions{
		SampleRate:   a.SampleRate,
		ChannelCount: a.Channels,
		Format:       oto.FormatSignedInt16LE,
	}
	octx, ready, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("initialize audio context: %w", err)
	}
	select {
	case <-ready:
	case <-ctx.Done():
		return ctx.Err()
	}

	player := octx.NewPlayer(bytes.NewReader(pcmBytes(a.Samples)))
	player.Play()
	defer player.Close() //nolint:errcheck

	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
	return nil
}

// pcmBytes converts samples to little-endian bytes for the player.
func pcmBytes(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return data
}
