package platform

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"

	"lautenbacher.net/neostrip/config"
	"lautenbacher.net/neostrip/strip"
)

// ws281x bits are sent as three SPI bits each, so the bus runs at three
// times the strip frequency.
const ws281xSymbolBits = 3

// Low time after a frame that latches the data, with some margin over
// the 50us of the datasheet.
const ws281xResetMicros = 80

type RaspberryPiPlatform struct {
	*AbstractPlatform
	ledDriver ledDriver
	spiMutex  sync.Mutex
}

func NewRaspberryPiPlatform(conf *config.Config) *RaspberryPiPlatform {
	inst := &RaspberryPiPlatform{}
	inst.AbstractPlatform = newAbstractPlatform(conf, nil)
	return inst
}

func (s *RaspberryPiPlatform) Start() error {
	hw := s.config.Strip
	order, err := strip.ParseChannelOrder(hw.ChannelOrder)
	if err != nil {
		return err
	}
	driver, speed, err := newLedDriver(hw, order)
	if err != nil {
		return err
	}

	slog.Info("Initialise GPIO and Spi...", "type", hw.LEDType, "speed", speed, "gpio", hw.GPIOPin, "dma", hw.DMAChannel)
	if err := rpio.Open(); err != nil {
		return fmt.Errorf("failed to open rpio: %w", err)
	}
	if err := rpio.SpiBegin(rpio.Spi0); err != nil {
		rpio.Close()
		return fmt.Errorf("failed to begin spi: %w", err)
	}
	rpio.SpiSpeed(speed)
	rpio.SpiChipSelect(0)

	s.ledDriver = driver
	s.markReady()
	return nil
}

func (s *RaspberryPiPlatform) Stop() {
	s.setInShutdown()

	s.spiMutex.Lock()
	defer s.spiMutex.Unlock()
	if s.ledDriver == nil {
		return
	}
	s.ledDriver = nil
	rpio.SpiEnd(rpio.Spi0)
	if err := rpio.Close(); err != nil {
		slog.Error("Error closing rpio", "error", err)
	}
}

// Display writes the frame synchronously so that bus errors reach the
// caller.
func (s *RaspberryPiPlatform) Display(pixels []strip.Pixel) error {
	if s.inShutdown() {
		return ErrStopped
	}
	s.spiMutex.Lock()
	defer s.spiMutex.Unlock()
	if s.ledDriver == nil {
		return ErrStopped
	}
	return s.ledDriver.write(pixels, spiExchange)
}

func spiExchange(data []byte) {
	rpio.SpiExchange(data)
}

// newLedDriver picks the chip driver and the SPI clock it needs.
func newLedDriver(hw config.StripConfig, order strip.ChannelOrder) (ledDriver, int, error) {
	switch strings.ToUpper(hw.LEDType) {
	case "WS281X":
		return newWs281xDriver(hw.LedsTotal, order, hw.SPIFrequency, hw.Invert), hw.SPIFrequency * ws281xSymbolBits, nil
	case "WS2801":
		return newWs2801Driver(hw.LedsTotal), hw.SPIFrequency, nil
	case "APA102":
		return newApa102Driver(hw.LedsTotal), hw.SPIFrequency, nil
	default:
		return nil, 0, fmt.Errorf("unknown LED type: %s", hw.LEDType)
	}
}

// ledDriver encodes one frame for a chip type and hands it to exchange.
// exchange may overwrite the buffer with the bytes read back.
type ledDriver interface {
	write(pixels []strip.Pixel, exchange func([]byte)) error
}

type ws281xDriver struct {
	order      strip.ChannelOrder
	invert     bool
	resetBytes int
	buffer     []byte
	pixel      []byte
}

func newWs281xDriver(ledsTotal int, order strip.ChannelOrder, frequency int, invert bool) *ws281xDriver {
	spiHz := frequency * ws281xSymbolBits
	resetBytes := (spiHz*ws281xResetMicros/1_000_000 + 7) / 8
	return &ws281xDriver{
		order:      order,
		invert:     invert,
		resetBytes: resetBytes,
		buffer:     make([]byte, ledsTotal*order.BytesPerPixel()*ws281xSymbolBits+resetBytes),
		pixel:      make([]byte, order.BytesPerPixel()),
	}
}

func (d *ws281xDriver) write(pixels []strip.Pixel, exchange func([]byte)) error {
	size := len(pixels)*len(d.pixel)*ws281xSymbolBits + d.resetBytes
	if size > len(d.buffer) {
		return fmt.Errorf("frame of %d pixels exceeds the configured strip length", len(pixels))
	}
	frame := d.buffer[:size]

	offset := 0
	for _, p := range pixels {
		d.order.Put(d.pixel, p)
		for _, b := range d.pixel {
			encodeWs281xByte(frame[offset:offset+ws281xSymbolBits], b)
			offset += ws281xSymbolBits
		}
	}
	clear(frame[offset:])

	if d.invert {
		for i := range frame {
			frame[i] ^= 0xFF
		}
	}
	exchange(frame)
	return nil
}

// encodeWs281xByte writes the eight bits of v as 1 -> 110 and 0 -> 100,
// most significant bit first, into three bytes.
func encodeWs281xByte(dst []byte, v byte) {
	var bits uint32
	for i := 7; i >= 0; i-- {
		bits <<= ws281xSymbolBits
		if v&(1<<i) != 0 {
			bits |= 0b110
		} else {
			bits |= 0b100
		}
	}
	dst[0] = byte(bits >> 16)
	dst[1] = byte(bits >> 8)
	dst[2] = byte(bits)
}

type ws2801Driver struct {
	buffer []byte
}

func newWs2801Driver(ledsTotal int) *ws2801Driver {
	return &ws2801Driver{buffer: make([]byte, 3*ledsTotal)}
}

func (d *ws2801Driver) write(pixels []strip.Pixel, exchange func([]byte)) error {
	if 3*len(pixels) > len(d.buffer) {
		return fmt.Errorf("frame of %d pixels exceeds the configured strip length", len(pixels))
	}
	frame := d.buffer[:3*len(pixels)]
	for idx, p := range pixels {
		strip.RGB.Put(frame[3*idx:], p)
	}
	exchange(frame)
	return nil
}

type apa102Driver struct {
	buffer []byte
}

func newApa102Driver(ledsTotal int) *apa102Driver {
	return &apa102Driver{buffer: make([]byte, apa102FrameSize(ledsTotal))}
}

func apa102FrameSize(leds int) int {
	return 4 + 4*leds + leds/16 + 1
}

func (d *apa102Driver) write(pixels []strip.Pixel, exchange func([]byte)) error {
	size := apa102FrameSize(len(pixels))
	if size > len(d.buffer) {
		return fmt.Errorf("frame of %d pixels exceeds the configured strip length", len(pixels))
	}
	frame := d.buffer[:size]

	// start frame
	copy(frame[0:4], []byte{0x00, 0x00, 0x00, 0x00})

	// full global brightness, the strip scales the colours
	const brightness = 0xE0 | 31
	offset := 4
	for _, p := range pixels {
		frame[offset] = brightness
		frame[offset+1] = p.Blue
		frame[offset+2] = p.Green
		frame[offset+3] = p.Red
		offset += 4
	}

	// end frame
	for i := offset; i < size; i++ {
		frame[i] = 0xFF
	}
	exchange(frame)
	return nil
}
