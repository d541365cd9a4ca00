// Package wavsource adapts a WAV file's PCM payload into a
// bufferedstream.Source, so a Stream's producer can pull fixed-size chunks
// out of pre-recorded audio the same way it would from a live device.
package wavsource

import (
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/corvid-audio/bufferedstream/pkg/utils"
)

// Source decodes a WAV stream's PCM samples into little-endian bytes on
// demand. It never blocks beyond the cost of the underlying Read.
type Source struct {
	dec      *wav.Decoder
	closer   io.Closer
	format   *audio.Format
	bitDepth int

	intBuf *audio.IntBuffer
	pend   []byte // undelivered bytes from the last decoded chunk
}

// chunkFrames is how many frames are decoded per underlying PCMBuffer call.
const chunkFrames = 1024

// New wraps r as a Source. r must contain a valid WAV header; New returns an
// error if the header can't be parsed. If r also implements io.Closer, Close
// on the Source closes it too.
func New(r io.Reader) (*Source, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("wavsource: not a valid WAV stream")
	}
	dec.ReadInfo()
	if dec.Err() != nil {
		return nil, fmt.Errorf("wavsource: reading header: %w", dec.Err())
	}

	format := &audio.Format{
		NumChannels: int(dec.NumChans),
		SampleRate:  int(dec.SampleRate),
	}

	s := &Source{
		dec:      dec,
		format:   format,
		bitDepth: int(dec.BitDepth),
		intBuf: &audio.IntBuffer{
			Format:         format,
			SourceBitDepth: int(dec.BitDepth),
			Data:           make([]int, chunkFrames*int(dec.NumChans)),
		},
	}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s, nil
}

// SampleRate reports the decoded stream's sample rate.
func (s *Source) SampleRate() int { return s.format.SampleRate }

// NumChannels reports the decoded stream's channel count.
func (s *Source) NumChannels() int { return s.format.NumChannels }

// BitDepth reports the decoded stream's bits per sample.
func (s *Source) BitDepth() int { return s.bitDepth }

// Read decodes as many PCM bytes as fit in dst, pulling a fresh chunk from
// the decoder whenever the previous one is exhausted. Returns 0 once the
// WAV's data chunk is exhausted.
func (s *Source) Read(dst []byte) int {
	if len(s.pend) == 0 {
		if !s.fill() {
			return 0
		}
	}
	n := copy(dst, s.pend)
	s.pend = s.pend[n:]
	return n
}

// fill decodes the next chunk into s.pend. Returns false at end of stream.
func (s *Source) fill() bool {
	n, err := s.dec.PCMBuffer(s.intBuf)
	if err != nil || n == 0 {
		return false
	}

	bytesPerSample := (s.bitDepth + 7) / 8
	buf := make([]byte, n*bytesPerSample)
	for i := 0; i < n; i++ {
		putLittleEndian(buf[i*bytesPerSample:], s.intBuf.Data[i], bytesPerSample)
	}
	s.pend = buf
	return true
}

func putLittleEndian(dst []byte, v, width int) {
	uv := uint32(int32(v))
	for i := 0; i < width; i++ {
		dst[i] = byte(uv >> (8 * i))
	}
}

// Close releases the underlying reader, if it was closable.
func (s *Source) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// Size returns the total PCM payload size in bytes, if the decoder was able
// to determine it from the WAV header; otherwise 0.
func (s *Source) Size() int64 {
	dur, err := s.dec.Duration()
	if err != nil || dur == 0 {
		return 0
	}
	bytesPerSample := (s.bitDepth + 7) / 8
	return int64(dur.Seconds()*float64(s.format.SampleRate)) * int64(s.format.NumChannels) * int64(bytesPerSample)
}

// Sink writes little-endian PCM bytes out to a WAV file as they're
// delivered, so a session read from any Source can be captured to disk for
// later inspection.
type Sink struct {
	enc        *wav.Encoder
	numChans   int
	bitDepth   int
	sampleRate int
}

// NewSink opens a WAV encoder over ws with the given format. Write accepts
// raw little-endian PCM bytes; Close flushes the WAV header and trailer.
func NewSink(ws io.WriteSeeker, sampleRate, bitDepth, numChans int) *Sink {
	return &Sink{
		enc:        wav.NewEncoder(ws, sampleRate, bitDepth, numChans, 1),
		numChans:   numChans,
		bitDepth:   bitDepth,
		sampleRate: sampleRate,
	}
}

// Write decodes raw as little-endian 16-bit PCM samples, whatever the
// sink's bitDepth, and appends them to the WAV file; a trailing odd byte is
// dropped. len(raw) need not be a whole number of frames across calls. The
// returned count is the number of decoded samples times bitDepth/8.
func (k *Sink) Write(raw []byte) (int, error) {
	bytesPerSample := (k.bitDepth + 7) / 8
	if bytesPerSample == 0 {
		bytesPerSample = 2
	}
	samples := utils.BytesToInt16LE(raw)
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: k.numChans,
			SampleRate:  k.sampleRate,
		},
		SourceBitDepth: k.bitDepth,
		Data:           data,
	}
	if err := k.enc.Write(buf); err != nil {
		return 0, fmt.Errorf("wavsource: encoding chunk: %w", err)
	}
	return len(samples) * bytesPerSample, nil
}

// Close flushes and finalizes the WAV file.
func (k *Sink) Close() error {
	return k.enc.Close()
}
