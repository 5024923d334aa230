/*
 * This file is part of Voxrec (https://github.com/voxlabs/voxrec).
 * Copyright (C) 2025 Vox Labs
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// chunkFrames bounds the number of frames decoded at once so arbitrarily
// large files never load into memory in one piece.
const chunkFrames = 4096

// Linear16SampleRate is the sample rate required by providers that take raw
// LINEAR16 payloads.
const Linear16SampleRate = 16000

// FileInfo describes an opened WAV artifact
type FileInfo struct {
	SampleRate  int
	NumChannels int
	BitDepth    int
	TotalFrames int64
}

// Duration returns the audio length in seconds
func (fi FileInfo) Duration() float64 {
	if fi.SampleRate == 0 {
		return 0
	}
	return float64(fi.TotalFrames) / float64(fi.SampleRate)
}

// Codec reads and writes PCM WAV artifacts and converts between formats.
// Methods are stateless and safe for concurrent use on distinct files.
type Codec struct{}

// NewCodec creates a codec adapter
func NewCodec() *Codec {
	return &Codec{}
}

// Open reads the artifact header and returns its format description
func (c *Codec) Open(path string) (*FileInfo, error) {
	f, dec, err := openDecoder(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return decoderInfo(dec)
}

// ReadWindow decodes frameCount frames starting at startFrame into a single
// buffer. Decoding streams in bounded chunks; only the requested window is
// held in memory.
func (c *Codec) ReadWindow(path string, startFrame, frameCount int64) (*gaudio.IntBuffer, error) {
	f, dec, err := openDecoder(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := decoderInfo(dec)
	if err != nil {
		return nil, err
	}
	if startFrame < 0 || frameCount <= 0 {
		return nil, fmt.Errorf("invalid window: start=%d count=%d", startFrame, frameCount)
	}
	if startFrame >= info.TotalFrames {
		return nil, fmt.Errorf("window start %d beyond end of file (%d frames)", startFrame, info.TotalFrames)
	}
	if startFrame+frameCount > info.TotalFrames {
		frameCount = info.TotalFrames - startFrame
	}

	out := &gaudio.IntBuffer{
		Format: &gaudio.Format{
			NumChannels: info.NumChannels,
			SampleRate:  info.SampleRate,
		},
		Data:           make([]int, 0, frameCount*int64(info.NumChannels)),
		SourceBitDepth: info.BitDepth,
	}

	chunk := &gaudio.IntBuffer{
		Format: out.Format,
		Data:   make([]int, chunkFrames*info.NumChannels),
	}

	var framesSeen int64
	wanted := frameCount
	for wanted > 0 {
		n, err := dec.PCMBuffer(chunk)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		if n == 0 {
			break
		}
		frames := int64(n / info.NumChannels)

		// Skip until the window start, then take what remains of the window
		from := int64(0)
		if framesSeen < startFrame {
			from = startFrame - framesSeen
			if from > frames {
				from = frames
			}
		}
		take := frames - from
		if take > wanted {
			take = wanted
		}
		if take > 0 {
			lo := from * int64(info.NumChannels)
			hi := (from + take) * int64(info.NumChannels)
			out.Data = append(out.Data, chunk.Data[lo:hi]...)
			wanted -= take
		}
		framesSeen += frames
	}

	return out, nil
}

// Write encodes the PCM buffer to a WAV artifact at path
func (c *Codec) Write(buf *gaudio.IntBuffer, path string) error {
	if buf == nil || buf.Format == nil {
		return fmt.Errorf("cannot write nil buffer")
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}

	enc := wav.NewEncoder(f, buf.Format.SampleRate, bitDepth, buf.Format.NumChannels, 1)
	if err := enc.Write(buf); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to finalize %s: %w", path, err)
	}
	return f.Close()
}

// ExtractWindow streams one window from src into a standalone artifact at
// dst, chunk by chunk, without buffering the whole window.
func (c *Codec) ExtractWindow(src, dst string, startFrame, frameCount int64) error {
	buf, err := c.ReadWindow(src, startFrame, frameCount)
	if err != nil {
		return err
	}
	return c.Write(buf, dst)
}

// ConvertToLinear16 re-encodes the artifact as mono 16-bit little-endian PCM
// at 16 kHz, the shape required for raw-content uploads. Conversion streams
// in bounded chunks: downmix to mono, then linear-interpolation resample.
func (c *Codec) ConvertToLinear16(path string) ([]byte, error) {
	f, dec, err := openDecoder(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := decoderInfo(dec)
	if err != nil {
		return nil, err
	}

	conv := newLinear16Converter(info.SampleRate, info.BitDepth)
	chunk := &gaudio.IntBuffer{
		Format: &gaudio.Format{NumChannels: info.NumChannels, SampleRate: info.SampleRate},
		Data:   make([]int, chunkFrames*info.NumChannels),
	}

	for {
		n, err := dec.PCMBuffer(chunk)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		if n == 0 {
			break
		}
		conv.feed(chunk.Data[:n], info.NumChannels)
	}

	return conv.bytes(), nil
}

// linear16Converter accumulates mono 16 kHz int16 samples across chunks.
// Fractional read position and the chunk-boundary sample carry over so the
// interpolation is seamless.
type linear16Converter struct {
	step    float64
	scale   float64
	pos     float64
	pending []float64
	out     bytes.Buffer
}

func newLinear16Converter(srcRate, srcBitDepth int) *linear16Converter {
	scale := 1.0
	if srcBitDepth > 16 {
		scale = 1.0 / float64(int64(1)<<uint(srcBitDepth-16))
	} else if srcBitDepth < 16 {
		scale = float64(int64(1) << uint(16-srcBitDepth))
	}
	return &linear16Converter{
		step:  float64(srcRate) / float64(Linear16SampleRate),
		scale: scale,
	}
}

func (cv *linear16Converter) feed(data []int, numChannels int) {
	// Downmix to mono by averaging channels
	frames := len(data) / numChannels
	for i := 0; i < frames; i++ {
		sum := 0
		for ch := 0; ch < numChannels; ch++ {
			sum += data[i*numChannels+ch]
		}
		cv.pending = append(cv.pending, float64(sum)/float64(numChannels))
	}

	// Resample everything we can; keep the tail for the next chunk
	for int(cv.pos)+1 < len(cv.pending) {
		i := int(cv.pos)
		frac := cv.pos - float64(i)
		sample := cv.pending[i]*(1-frac) + cv.pending[i+1]*frac
		cv.write(sample)
		cv.pos += cv.step
	}
	if drop := int(cv.pos); drop > 0 && drop <= len(cv.pending) {
		cv.pending = cv.pending[drop:]
		cv.pos -= float64(drop)
	}
}

func (cv *linear16Converter) write(sample float64) {
	scaled := sample * cv.scale
	if scaled > 32767 {
		scaled = 32767
	} else if scaled < -32768 {
		scaled = -32768
	}
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(int16(scaled)))
	cv.out.Write(b[:])
}

func (cv *linear16Converter) bytes() []byte {
	// Flush the final sample, which has no right neighbor to interpolate with
	if len(cv.pending) > 0 && int(cv.pos) < len(cv.pending) {
		cv.write(cv.pending[len(cv.pending)-1])
	}
	return cv.out.Bytes()
}

// openDecoder opens the artifact and validates the WAV header
func openDecoder(path string) (*os.File, *wav.Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		_ = f.Close()
		return nil, nil, fmt.Errorf("%s is not a valid WAV file", path)
	}
	return f, dec, nil
}

// decoderInfo builds a FileInfo from a decoder with its header read
func decoderInfo(dec *wav.Decoder) (*FileInfo, error) {
	if dec.SampleRate == 0 || dec.NumChans == 0 || dec.BitDepth == 0 {
		return nil, fmt.Errorf("incomplete WAV header")
	}

	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("failed to locate PCM data: %w", err)
	}

	blockAlign := int64(dec.NumChans) * int64(dec.BitDepth) / 8
	info := &FileInfo{
		SampleRate:  int(dec.SampleRate),
		NumChannels: int(dec.NumChans),
		BitDepth:    int(dec.BitDepth),
		TotalFrames: int64(dec.PCMSize) / blockAlign,
	}
	return info, nil
}
