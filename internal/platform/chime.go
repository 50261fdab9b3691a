package platform

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"takearest/internal/logger"

	"github.com/ebitengine/oto/v3"
)

const (
	chimeSampleRate   = 44100
	chimeChannelCount = 1
)

// chimeNotes is a soft two-note descending chime.
var chimeNotes = []tone{
	{Frequency: 880, Duration: 180 * time.Millisecond},
	{Frequency: 660, Duration: 320 * time.Millisecond},
}

type tone struct {
	Frequency float64
	Duration  time.Duration
}

// Chime plays a short generated tone through the system audio device.
type Chime struct {
	ctx *oto.Context
	log *logger.Logger
	pcm []byte
	mu  sync.Mutex
}

// NewChime opens the audio device. oto allows one context per process, so
// create a single Chime and share it.
func NewChime(log *logger.Logger) (*Chime, error) {
	options := &oto.NewContextOptions{
		SampleRate:   chimeSampleRate,
		ChannelCount: chimeChannelCount,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, readyChan, err := oto.NewContext(options)
	if err != nil {
		return nil, fmt.Errorf("open audio context: %w", err)
	}
	<-readyChan

	log.Debug("audio initialized (rate=%d, channels=%d)", chimeSampleRate, chimeChannelCount)
	return &Chime{ctx: ctx, log: log, pcm: renderTones(chimeSampleRate, chimeNotes)}, nil
}

// Play blocks until the chime finished. Concurrent calls queue up.
func (chime *Chime) Play() error {
	chime.mu.Lock()
	defer chime.mu.Unlock()

	player := chime.ctx.NewPlayer(bytes.NewReader(chime.pcm))
	player.Play()
	for player.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}
	if err := player.Close(); err != nil {
		return fmt.Errorf("close audio player: %w", err)
	}
	return nil
}

// PlayAsync plays in the background and logs failures. A nil Chime is
// silent.
func (chime *Chime) PlayAsync() {
	if chime == nil {
		return
	}
	go func() {
		if err := chime.Play(); err != nil {
			chime.log.Warn("play chime: %v", err)
		}
	}()
}

// renderTones produces mono signed 16-bit little-endian PCM. Each note
// fades in and out to avoid clicks.
func renderTones(sampleRate int, notes []tone) []byte {
	var buffer bytes.Buffer
	for _, note := range notes {
		samples := int(float64(sampleRate) * note.Duration.Seconds())
		fade := sampleRate / 100
		if fade*2 > samples {
			fade = samples / 2
		}
		for i := 0; i < samples; i++ {
			envelope := 0.35
			switch {
			case fade > 0 && i < fade:
				envelope *= float64(i) / float64(fade)
			case fade > 0 && i >= samples-fade:
				envelope *= float64(samples-1-i) / float64(fade)
			}
			value := envelope * math.Sin(2*math.Pi*note.Frequency*float64(i)/float64(sampleRate))
			_ = binary.Write(&buffer, binary.LittleEndian, int16(value*math.MaxInt16))
		}
	}
	return buffer.Bytes()
}
