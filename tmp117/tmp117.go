// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tmp117

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// Bus addresses selected by the ADD0 pin strap.
const (
	AddrGnd   uint16 = 0x48 // ADD0 tied to GND (default)
	AddrVPlus uint16 = 0x49 // ADD0 tied to V+
	AddrSda   uint16 = 0x4a // ADD0 tied to SDA
	AddrScl   uint16 = 0x4b // ADD0 tied to SCL

	// DefaultAddress is the address with ADD0 grounded.
	DefaultAddress = AddrGnd
)

// ResetSettleTime is how long the sensor takes to reload its EEPROM after a
// soft reset. Callers must not issue transactions until it has elapsed;
// Reset does not wait internally.
const ResetSettleTime = 2 * time.Millisecond

// UnsupportedDeviceError is returned by NewI2C when the device ID register
// does not identify a TMP117. The raw register value is surfaced unmodified.
type UnsupportedDeviceError struct {
	ID DeviceID
}

func (e *UnsupportedDeviceError) Error() string {
	return fmt.Sprintf("tmp117: unsupported device id 0x%04x", uint16(e.ID))
}

// Opts holds the configuration options for the device handle.
type Opts struct {
	// SkipIdentityCheck disables the device ID verification NewI2C
	// performs before returning the handle.
	SkipIdentityCheck bool
}

// Dev represents a TMP117 sensor.
//
// A Dev owns its bus address exclusively for its lifetime and caches no
// register state. Dropping the handle has no sensor-side effect; in
// particular it does not shut the sensor down.
type Dev struct {
	d        *i2c.Dev
	mu       sync.Mutex
	shutdown chan struct{}
}

// NewI2C returns a new TMP117 sensor using the specified bus and address.
// Unless opts disables it, the device ID register is read and verified, and
// a mismatch fails with an UnsupportedDeviceError. No other register is
// touched: the sensor keeps whatever configuration it is running with.
func NewI2C(b i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{}
	}
	dev := &Dev{d: &i2c.Dev{Bus: b, Addr: addr}}
	if !opts.SkipIdentityCheck {
		id, err := dev.DeviceID()
		if err != nil {
			return nil, err
		}
		if id.ID() != tmp117ID {
			return nil, &UnsupportedDeviceError{ID: id}
		}
	}
	return dev, nil
}

// readRegister performs one pointer write followed by a 16 bit read.
func (dev *Dev) readRegister(reg byte) (uint16, error) {
	r := make([]byte, 2)
	if err := dev.d.Tx([]byte{reg}, r); err != nil {
		return 0, fmt.Errorf("tmp117: read register 0x%02x: %w", reg, err)
	}
	return uint16(r[0])<<8 | uint16(r[1]), nil
}

// writeRegister performs one 3 byte write: pointer, MSB, LSB.
func (dev *Dev) writeRegister(reg byte, value uint16) error {
	if err := dev.d.Tx([]byte{reg, byte(value >> 8), byte(value)}, nil); err != nil {
		return fmt.Errorf("tmp117: write register 0x%02x: %w", reg, err)
	}
	return nil
}

// ReadTemperature reads the result register and returns the converted
// temperature. It does not check DataReady; in one-shot mode poll
// ReadConfiguration first.
func (dev *Dev) ReadTemperature() (physic.Temperature, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	raw, err := dev.readRegister(regTempResult)
	if err != nil {
		return 0, err
	}
	return codeToTemperature(raw), nil
}

// ReadConfiguration reads and decodes the configuration register, including
// the current flag bits. In ModeInterrupt this read clears latched alert
// flags, per the datasheet.
func (dev *Dev) ReadConfiguration() (Config, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	raw, err := dev.readRegister(regConfiguration)
	if err != nil {
		return Config{}, err
	}
	return decodeConfig(raw), nil
}

// SetConfiguration writes the fully specified field set in exactly one
// register write. There is no read-modify-write: callers that want to keep
// part of the running configuration must read it first and mutate the
// returned value. Start from DefaultConfig for power-on defaults. The soft
// reset and flag bit positions are always written as zero.
func (dev *Dev) SetConfiguration(c Config) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.writeRegister(regConfiguration, encodeConfig(c))
}

// SetMode reads the running configuration, replaces the conversion mode
// field and writes the result back. The other fields are preserved.
func (dev *Dev) SetMode(mode ConversionMode) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	raw, err := dev.readRegister(regConfiguration)
	if err != nil {
		return err
	}
	c := decodeConfig(raw)
	c.Mode = mode
	return dev.writeRegister(regConfiguration, encodeConfig(c))
}

// TriggerOneShot starts a single conversion. The sensor enters shutdown once
// it completes. The driver does not wait: poll ReadConfiguration until
// DataReady is set, or sleep the ConversionPeriod of the running
// configuration, before calling ReadTemperature.
func (dev *Dev) TriggerOneShot() error {
	return dev.SetMode(OneShot)
}

// Reset writes a configuration word with the soft reset bit set and every
// other field at its power-on default. The caller must allow ResetSettleTime
// before issuing further transactions.
func (dev *Dev) Reset() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.writeRegister(regConfiguration, cfgReset.put(encodeConfig(DefaultConfig()), 1))
}

// SetHighLimit sets the temperature above which the high alert flag sets.
func (dev *Dev) SetHighLimit(t physic.Temperature) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.writeRegister(regHighLimit, temperatureToCode(t))
}

// SetLowLimit sets the temperature below which the low alert flag sets.
// The driver does not enforce an ordering between the limits; neither does
// the sensor.
func (dev *Dev) SetLowLimit(t physic.Temperature) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.writeRegister(regLowLimit, temperatureToCode(t))
}

// HighLimit reads the high alert limit.
func (dev *Dev) HighLimit() (physic.Temperature, error) {
	return dev.readLimit(regHighLimit)
}

// LowLimit reads the low alert limit.
func (dev *Dev) LowLimit() (physic.Temperature, error) {
	return dev.readLimit(regLowLimit)
}

func (dev *Dev) readLimit(reg byte) (physic.Temperature, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	raw, err := dev.readRegister(reg)
	if err != nil {
		return 0, err
	}
	return codeToTemperature(raw), nil
}

// SetOffset writes the temperature offset the sensor adds to every
// conversion result.
func (dev *Dev) SetOffset(offset physic.Temperature) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.writeRegister(regTempOffset, deltaToCode(offset))
}

// Offset reads the temperature offset register.
func (dev *Dev) Offset() (physic.Temperature, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	raw, err := dev.readRegister(regTempOffset)
	if err != nil {
		return 0, err
	}
	return codeToDelta(raw), nil
}

// DeviceID reads the device ID register. The raw value is returned as-is;
// interpreting a mismatch is the caller's concern (NewI2C performs the
// typical check).
func (dev *Dev) DeviceID() (DeviceID, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	raw, err := dev.readRegister(regDeviceID)
	if err != nil {
		return 0, err
	}
	return DeviceID(raw), nil
}

// UnlockEEPROM sets the EEPROM unlock bit, making subsequent writes to the
// EEPROM-backed registers program the non-volatile cells. The programming
// lifecycle itself is out of scope for this driver; lock again with
// LockEEPROM once done.
func (dev *Dev) UnlockEEPROM() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.writeRegister(regEEPROMUnlock, eepromUnlock.put(0, 1))
}

// LockEEPROM clears the EEPROM unlock bit.
func (dev *Dev) LockEEPROM() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.writeRegister(regEEPROMUnlock, 0)
}

// Sense reads the temperature from the device and writes the value to the
// specified env variable. Implements physic.SenseEnv.
func (dev *Dev) Sense(env *physic.Env) error {
	t, err := dev.ReadTemperature()
	if err != nil {
		return err
	}
	env.Temperature = t
	env.Pressure = 0
	env.Humidity = 0
	return nil
}

// SenseContinuous polls the device at the given interval and writes each
// reading to the returned channel. Implements physic.SenseEnv. To terminate
// the continuous read, call Halt. The interval must be at least the 15.5ms
// a single conversion takes.
func (dev *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	if interval < cyclePeriods[Cycle15ms] {
		return nil, errors.New("tmp117: interval is shorter than a single conversion")
	}
	dev.mu.Lock()
	if dev.shutdown != nil {
		dev.mu.Unlock()
		return nil, errors.New("tmp117: SenseContinuous already running")
	}
	dev.shutdown = make(chan struct{})
	shutdown := dev.shutdown
	dev.mu.Unlock()

	channel := make(chan physic.Env, 16)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		defer close(channel)
		for {
			select {
			case <-shutdown:
				return
			case <-ticker.C:
				env := physic.Env{}
				if err := dev.Sense(&env); err != nil {
					continue
				}
				select {
				case <-shutdown:
					return
				default:
				}
				// A full buffer must never block the send, or Halt
				// would not be observed. Drop the reading instead.
				if len(channel) < cap(channel) {
					channel <- env
				}
			}
		}
	}()
	return channel, nil
}

// Halt stops a SenseContinuous operation if one is running. It issues no bus
// transaction and leaves the sensor in whatever mode it is converting in.
// Implements conn.Resource.
func (dev *Dev) Halt() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.shutdown != nil {
		close(dev.shutdown)
		dev.shutdown = nil
	}
	return nil
}

// Precision returns the sensor's precision, or minimum value between steps
// the device can make. The specified precision is 0.0078125°C. Note that the
// accuracy of the device is +/- 0.1°C.
func (dev *Dev) Precision(env *physic.Env) {
	env.Temperature = resolution
	env.Pressure = 0
	env.Humidity = 0
}

func (dev *Dev) String() string {
	return fmt.Sprintf("tmp117: %s", dev.d.String())
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
