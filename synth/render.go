package synth

import "fmt"

// chunkSamples is the fixed capacity of one render step, in samples.
const chunkSamples = 16384

// render streams chunks from the engine until drained and assembles them
// into one contiguous buffer sized to the exact sum of valid sample counts.
//
// The handle is released on every exit path, including a chunk error raised
// mid-stream.
func (c *Converter) render(s *score) (_ []int16, err error) {
	defer s.release()

	c.session.StartRender(s.handle)
	s.machine.Transition(StateStarted)

	var held [][]int16
	total := 0
	for {
		s.machine.Transition(StateRendering)
		n, samples, cerr := c.session.RenderChunk(s.handle, c.opts.ChunkSize)
		if cerr != nil {
			return nil, fmt.Errorf("render chunk: %w", cerr)
		}
		if n == 0 {
			break
		}
		// The engine may reuse its chunk buffer; keep a copy of the
		// valid prefix only.
		chunk := make([]int16, n)
		copy(chunk, samples[:n])
		held = append(held, chunk)
		total += n
	}
	s.machine.Transition(StateDrained)

	out := make([]int16, 0, total)
	for _, chunk := range held {
		out = append(out, chunk...)
	}
	return out, nil
}
