// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tmp117

import (
	"math"
	"time"

	"periph.io/x/conn/v3/physic"
)

// Register pointer values. Each transaction addresses one of these, followed
// by 16 bits of data, MSB first.
const (
	regTempResult    byte = 0x00
	regConfiguration byte = 0x01
	regHighLimit     byte = 0x02
	regLowLimit      byte = 0x03
	regEEPROMUnlock  byte = 0x04
	regEEPROM1       byte = 0x05
	regEEPROM2       byte = 0x06
	regTempOffset    byte = 0x07
	regEEPROM3       byte = 0x08
	regDeviceID      byte = 0x0f
)

// resolution is the temperature change represented by one LSB of the result,
// limit and offset registers: 7.8125 m°C, exact in physic units.
const resolution physic.Temperature = 7_812_500 * physic.NanoKelvin

// ConversionMode selects how the sensor acquires samples. Values match the
// MOD field encoding of the configuration register.
type ConversionMode uint16

const (
	// Continuous performs back to back conversions (power-on default).
	Continuous ConversionMode = 0x0
	// Shutdown aborts the current conversion and enters low-power standby.
	Shutdown ConversionMode = 0x1
	// OneShot performs a single conversion and then enters shutdown. Poll
	// the DataReady flag to detect completion.
	OneShot ConversionMode = 0x3

	// The MOD field has a second continuous encoding; the sensor reads it
	// back as Continuous and so does the decoder.
	continuousAlias ConversionMode = 0x2
)

// Averaging selects how many samples are accumulated per reported conversion.
type Averaging uint16

const (
	AverageNone Averaging = iota
	Average8
	Average32
	Average64
)

// ConversionCycle selects the nominal time between conversions in continuous
// mode. The effective period is never shorter than the active conversion
// time implied by the Averaging setting; see Config.ConversionPeriod.
type ConversionCycle uint16

const (
	Cycle15ms ConversionCycle = iota
	Cycle125ms
	Cycle250ms
	Cycle500ms
	Cycle1s
	Cycle4s
	Cycle8s
	Cycle16s
)

// AlertMode selects how the limit comparison drives the alert flags and pin.
type AlertMode uint16

const (
	// ModeInterrupt latches the high/low alert flags until the
	// configuration register is read (datasheet alert mode, default).
	ModeInterrupt AlertMode = 0
	// ModeComparator clears the alert condition as soon as the temperature
	// re-crosses the corresponding limit (datasheet therm mode).
	ModeComparator AlertMode = 1
)

// Polarity selects the active level of the alert pin.
type Polarity uint16

const (
	ActiveLow  Polarity = 0
	ActiveHigh Polarity = 1
)

// AlertDrive selects the output stage of the alert pin.
type AlertDrive uint16

const (
	OpenDrain AlertDrive = 0
	PushPull  AlertDrive = 1
)

// Config is the full field set of the configuration register.
//
// The flag fields are read-only: they are populated when the register is
// decoded and ignored when it is encoded, so writing back a previously read
// Config can never re-trigger a reset or misreport an alert.
type Config struct {
	Mode      ConversionMode
	Cycle     ConversionCycle
	Average   Averaging
	AlertMode AlertMode
	Polarity  Polarity
	Drive     AlertDrive

	// HighAlert and LowAlert latch when the result crosses the respective
	// limit; in ModeInterrupt they persist until the configuration
	// register is read.
	HighAlert bool
	LowAlert  bool
	// DataReady indicates the result register holds a fresh conversion.
	DataReady bool
	// EEPROMBusy indicates a programming cycle or reset load in progress.
	EEPROMBusy bool

	// Reserved bit, carried verbatim from decode to encode.
	reserved uint16
}

// bitfield describes one field of a 16 bit register. The same entry drives
// both decode and encode so the layout lives in exactly one place.
type bitfield struct {
	shift uint16
	mask  uint16
}

func (f bitfield) get(raw uint16) uint16 {
	return (raw >> f.shift) & f.mask
}

func (f bitfield) put(raw, v uint16) uint16 {
	return raw&^(f.mask<<f.shift) | (v&f.mask)<<f.shift
}

// Configuration register layout, MSB first.
var (
	cfgHighAlert  = bitfield{15, 0x1}
	cfgLowAlert   = bitfield{14, 0x1}
	cfgDataReady  = bitfield{13, 0x1}
	cfgEEPROMBusy = bitfield{12, 0x1}
	cfgMode       = bitfield{10, 0x3}
	cfgCycle      = bitfield{7, 0x7}
	cfgAverage    = bitfield{5, 0x3}
	cfgAlertMode  = bitfield{4, 0x1}
	cfgPolarity   = bitfield{3, 0x1}
	cfgDrive      = bitfield{2, 0x1}
	cfgReset      = bitfield{1, 0x1}
	cfgReserved   = bitfield{0, 0x1}
)

// EEPROM unlock register layout.
var eepromUnlock = bitfield{15, 0x1}

// decodeConfig maps a raw configuration word to its field set. Total: every
// bit pattern is legal.
func decodeConfig(raw uint16) Config {
	mode := ConversionMode(cfgMode.get(raw))
	if mode == continuousAlias {
		mode = Continuous
	}
	return Config{
		Mode:       mode,
		Cycle:      ConversionCycle(cfgCycle.get(raw)),
		Average:    Averaging(cfgAverage.get(raw)),
		AlertMode:  AlertMode(cfgAlertMode.get(raw)),
		Polarity:   Polarity(cfgPolarity.get(raw)),
		Drive:      AlertDrive(cfgDrive.get(raw)),
		HighAlert:  cfgHighAlert.get(raw) != 0,
		LowAlert:   cfgLowAlert.get(raw) != 0,
		DataReady:  cfgDataReady.get(raw) != 0,
		EEPROMBusy: cfgEEPROMBusy.get(raw) != 0,
		reserved:   cfgReserved.get(raw),
	}
}

// encodeConfig maps a field set to a raw configuration word. The soft reset
// bit and the four read-only flag bits are not legitimate write targets and
// stay zero no matter what a prior decode produced.
func encodeConfig(c Config) uint16 {
	var raw uint16
	raw = cfgMode.put(raw, uint16(c.Mode))
	raw = cfgCycle.put(raw, uint16(c.Cycle))
	raw = cfgAverage.put(raw, uint16(c.Average))
	raw = cfgAlertMode.put(raw, uint16(c.AlertMode))
	raw = cfgPolarity.put(raw, uint16(c.Polarity))
	raw = cfgDrive.put(raw, uint16(c.Drive))
	raw = cfgReserved.put(raw, c.reserved)
	return raw
}

// DefaultConfig returns the configuration the sensor powers on with:
// continuous conversion, 1 s cycle time, 8 sample averaging, interrupt-style
// alerts on an active-low open-drain pin.
func DefaultConfig() Config {
	return Config{Mode: Continuous, Cycle: Cycle1s, Average: Average8}
}

// Active conversion time per Averaging setting (one sample takes 15.5ms).
var activeTimes = [4]time.Duration{
	15500 * time.Microsecond,
	124 * time.Millisecond,
	496 * time.Millisecond,
	992 * time.Millisecond,
}

// Nominal cycle period per ConversionCycle setting at AverageNone.
var cyclePeriods = [8]time.Duration{
	15500 * time.Microsecond,
	125 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
	time.Second,
	4 * time.Second,
	8 * time.Second,
	16 * time.Second,
}

// ConversionPeriod returns the nominal time between conversions for this
// configuration. In one-shot mode the cycle setting does not apply and the
// result is the active conversion time until DataReady sets. The driver
// never sleeps on it; it is provided so callers can pace their polls.
func (c Config) ConversionPeriod() time.Duration {
	a := activeTimes[c.Average&0x3]
	if c.Mode == OneShot {
		return a
	}
	p := cyclePeriods[c.Cycle&0x7]
	if a > p {
		return a
	}
	return p
}

// codeToDelta converts a raw two's-complement register code to a temperature
// difference. Total for all 65536 codes.
func codeToDelta(code uint16) physic.Temperature {
	return physic.Temperature(int16(code)) * resolution
}

// deltaToCode is the exact inverse of codeToDelta, rounding to the nearest
// representable code with ties away from zero, and saturating at the 16 bit
// two's-complement range.
func deltaToCode(d physic.Temperature) uint16 {
	n := int64(d)
	half := int64(resolution) / 2
	if n >= 0 {
		n = (n + half) / int64(resolution)
	} else {
		n = (n - half) / int64(resolution)
	}
	if n > math.MaxInt16 {
		n = math.MaxInt16
	} else if n < math.MinInt16 {
		n = math.MinInt16
	}
	return uint16(int16(n))
}

// codeToTemperature converts a raw result or limit register code to an
// absolute temperature.
func codeToTemperature(code uint16) physic.Temperature {
	return physic.ZeroCelsius + codeToDelta(code)
}

// temperatureToCode converts an absolute temperature to the register code.
func temperatureToCode(t physic.Temperature) uint16 {
	return deltaToCode(t - physic.ZeroCelsius)
}

// DeviceID is the raw contents of the device ID register.
type DeviceID uint16

// tmp117ID is the value of the ID field for a TMP117.
const tmp117ID = 0x117

// ID returns the 12 bit device identifier, 0x117 for a TMP117.
func (id DeviceID) ID() uint16 {
	return uint16(id) & 0x0fff
}

// Revision returns the 4 bit die revision.
func (id DeviceID) Revision() uint8 {
	return uint8(id >> 12)
}
