package player

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gopxl/beep/v2"
	"github.com/jfreymuth/vorbis"
	"github.com/jj11hh/opus"
)

const (
	opusSampleRate = 48000
	// maxOpusFrame is the largest Opus frame in samples per channel (120 ms).
	maxOpusFrame = 5760
	oggHeaderLen = 27
)

var (
	errOggCapture      = errors.New("ogg: missing capture pattern")
	errOggTruncated    = errors.New("ogg: truncated page")
	errOggEmpty        = errors.New("ogg: no packets")
	errUnknownOggCodec = errors.New("ogg: unknown codec (not Opus or Vorbis)")
	errOggHeaders      = errors.New("ogg: incomplete codec headers")
	errBadOpusHead     = errors.New("opus: invalid OpusHead")
	errBadVorbisHead   = errors.New("vorbis: invalid identification header")
)

// oggPacket is one complete packet of the first logical stream. granule
// is the page granule position when the packet is the last one completed
// on its page, -1 otherwise.
type oggPacket struct {
	data    []byte
	granule int64
}

// demuxOgg splits an in-memory Ogg file into the packets of its first
// logical stream. Pages of other streams are skipped.
func demuxOgg(data []byte) ([]oggPacket, error) {
	var (
		packets []oggPacket
		partial []byte
		serial  uint32
		started bool
	)
	for len(data) > 0 {
		if len(data) < oggHeaderLen {
			return nil, errOggTruncated
		}
		if string(data[:4]) != "OggS" {
			return nil, errOggCapture
		}
		granule := int64(binary.LittleEndian.Uint64(data[6:14]))
		pageSerial := binary.LittleEndian.Uint32(data[14:18])
		nsegs := int(data[26])
		if len(data) < oggHeaderLen+nsegs {
			return nil, errOggTruncated
		}
		lacing := data[oggHeaderLen : oggHeaderLen+nsegs]
		bodyLen := 0
		for _, l := range lacing {
			bodyLen += int(l)
		}
		start := oggHeaderLen + nsegs
		if len(data) < start+bodyLen {
			return nil, errOggTruncated
		}
		body := data[start : start+bodyLen]
		data = data[start+bodyLen:]

		if !started {
			serial, started = pageSerial, true
		}
		if pageSerial != serial {
			continue
		}

		last := -1
		off := 0
		for _, l := range lacing {
			partial = append(partial, body[off:off+int(l)]...)
			off += int(l)
			if l < 255 {
				packets = append(packets, oggPacket{data: partial, granule: -1})
				partial = nil
				last = len(packets) - 1
			}
		}
		if last >= 0 {
			packets[last].granule = granule
		}
	}
	if len(packets) == 0 {
		return nil, errOggEmpty
	}
	return packets, nil
}

// oggCodec decodes the packets of one Ogg-encapsulated codec.
type oggCodec interface {
	sampleRate() int
	channels() int
	preSkip() int
	// header consumes a header packet and reports whether more are needed.
	header(pkt []byte) (more bool, err error)
	// decode writes interleaved samples to pcm and returns samples per channel.
	decode(pkt []byte, pcm []float32) (int, error)
	// maxFrame is the largest decode output in samples per channel.
	maxFrame() int
	reset()
}

func newOggCodec(first []byte) (oggCodec, error) {
	switch {
	case len(first) >= 8 && string(first[:8]) == "OpusHead":
		return newOpusCodec(first)
	case len(first) >= 7 && first[0] == 0x01 && string(first[1:7]) == "vorbis":
		return newVorbisCodec(first)
	}
	return nil, errUnknownOggCodec
}

type opusCodec struct {
	dec   *opus.Decoder
	chans int
	skip  int
}

func newOpusCodec(head []byte) (*opusCodec, error) {
	if len(head) < 19 || head[8] != 1 {
		return nil, errBadOpusHead
	}
	chans := int(head[9])
	dec, err := opus.NewDecoder(opusSampleRate, chans)
	if err != nil {
		return nil, fmt.Errorf("opus: %w", err)
	}
	return &opusCodec{
		dec:   dec,
		chans: chans,
		skip:  int(binary.LittleEndian.Uint16(head[10:12])),
	}, nil
}

func (c *opusCodec) sampleRate() int { return opusSampleRate }
func (c *opusCodec) channels() int   { return c.chans }
func (c *opusCodec) preSkip() int    { return c.skip }
func (c *opusCodec) maxFrame() int   { return maxOpusFrame }
func (c *opusCodec) reset()          {}

// header skips the OpusTags packet that follows OpusHead.
func (c *opusCodec) header(_ []byte) (bool, error) {
	return false, nil
}

func (c *opusCodec) decode(pkt []byte, pcm []float32) (int, error) {
	return c.dec.DecodeFloat32(pkt, pcm)
}

type vorbisCodec struct {
	dec   vorbis.Decoder
	chans int
	rate  int
	count int
}

func newVorbisCodec(ident []byte) (*vorbisCodec, error) {
	if len(ident) < 16 || binary.LittleEndian.Uint32(ident[7:11]) != 0 {
		return nil, errBadVorbisHead
	}
	c := &vorbisCodec{
		chans: int(ident[11]),
		rate:  int(binary.LittleEndian.Uint32(ident[12:16])),
	}
	if err := c.dec.ReadHeader(ident); err != nil {
		return nil, fmt.Errorf("vorbis: %w", err)
	}
	c.count = 1
	return c, nil
}

func (c *vorbisCodec) sampleRate() int { return c.rate }
func (c *vorbisCodec) channels() int   { return c.chans }
func (c *vorbisCodec) preSkip() int    { return 0 }
func (c *vorbisCodec) maxFrame() int   { return 8192 }
func (c *vorbisCodec) reset()          { c.dec.Clear() }

// header reads the comment and setup headers.
func (c *vorbisCodec) header(pkt []byte) (bool, error) {
	if err := c.dec.ReadHeader(pkt); err != nil {
		return false, fmt.Errorf("vorbis: %w", err)
	}
	c.count++
	return c.count < 3, nil
}

func (c *vorbisCodec) decode(pkt []byte, pcm []float32) (int, error) {
	out, err := c.dec.Decode(pkt)
	if err != nil {
		return 0, err
	}
	n := copy(pcm, out)
	return n / c.chans, nil
}

// decodeOgg opens an Ogg Opus or Ogg Vorbis file held in memory.
func decodeOgg(data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	packets, err := demuxOgg(data)
	if err != nil {
		return nil, beep.Format{}, err
	}
	codec, err := newOggCodec(packets[0].data)
	if err != nil {
		return nil, beep.Format{}, err
	}
	return newOggStream(codec, packets[1:])
}

func newOggStream(codec oggCodec, rest []oggPacket) (*oggStream, beep.Format, error) {
	more := true
	for more {
		if len(rest) == 0 {
			return nil, beep.Format{}, errOggHeaders
		}
		var err error
		if more, err = codec.header(rest[0].data); err != nil {
			return nil, beep.Format{}, err
		}
		rest = rest[1:]
	}
	if codec.channels() < 1 {
		return nil, beep.Format{}, errOggHeaders
	}

	s := &oggStream{
		codec:   codec,
		packets: rest,
		pcm:     make([]float32, codec.maxFrame()*codec.channels()),
		skip:    codec.preSkip(),
	}
	for i := len(rest) - 1; i >= 0; i-- {
		if rest[i].granule >= 0 {
			s.total = max(int(rest[i].granule)-codec.preSkip(), 0)
			break
		}
	}
	format := beep.Format{
		SampleRate:  beep.SampleRate(codec.sampleRate()),
		NumChannels: min(codec.channels(), 2),
		Precision:   2,
	}
	return s, format, nil
}

// oggStream is a beep.StreamSeekCloser over demuxed audio packets.
type oggStream struct {
	codec   oggCodec
	packets []oggPacket
	next    int // next packet to decode
	total   int // samples per channel, after pre-skip

	pcm    []float32
	frames int // decoded frames in pcm
	at     int // next frame to emit from pcm
	skip   int // frames still to drop after a reset
	pos    int
	err    error
}

func (s *oggStream) Stream(samples [][2]float64) (n int, ok bool) {
	chans := s.codec.channels()
	for n < len(samples) {
		if s.at >= s.frames {
			if s.next >= len(s.packets) {
				return n, n > 0
			}
			frames, err := s.codec.decode(s.packets[s.next].data, s.pcm)
			s.next++
			if err != nil {
				continue
			}
			s.frames, s.at = frames, 0
			if s.skip > 0 {
				drop := min(s.skip, frames)
				s.at = drop
				s.skip -= drop
			}
			continue
		}
		i := s.at * chans
		samples[n][0] = float64(s.pcm[i])
		if chans > 1 {
			samples[n][1] = float64(s.pcm[i+1])
		} else {
			samples[n][1] = samples[n][0]
		}
		s.at++
		s.pos++
		n++
	}
	return n, true
}

func (s *oggStream) Err() error    { return s.err }
func (s *oggStream) Len() int      { return s.total }
func (s *oggStream) Position() int { return s.pos }
func (s *oggStream) Close() error  { return nil }

// Seek restarts decoding at the page boundary preceding p and drops the
// samples between that boundary and p.
func (s *oggStream) Seek(p int) error {
	p = min(max(p, 0), s.total)
	target := int64(p + s.codec.preSkip())

	from, base := 0, int64(0)
	for i, pkt := range s.packets {
		if pkt.granule < 0 {
			continue
		}
		if pkt.granule >= target {
			break
		}
		from, base = i+1, pkt.granule
	}

	s.codec.reset()
	s.next = from
	s.frames, s.at = 0, 0
	s.skip = int(target - base)
	s.pos = p
	return nil
}
