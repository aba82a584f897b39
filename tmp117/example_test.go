// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tmp117_test

import (
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/hwsensors/devices/tmp117"
)

func Example() {
	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}
	// Open default I²C bus.
	bus, err := i2creg.Open("")
	if err != nil {
		log.Fatalf("failed to open I²C: %v", err)
	}
	defer bus.Close()

	// Create the sensor. NewI2C verifies the device ID register.
	sensor, err := tmp117.NewI2C(bus, tmp117.DefaultAddress, nil)
	if err != nil {
		log.Fatal(err)
	}
	// Take a reading.
	env := physic.Env{}
	if err := sensor.Sense(&env); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Sensor Output: %s\n", env.Temperature)
}

func Example_oneShot() {
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}
	bus, err := i2creg.Open("")
	if err != nil {
		log.Fatalf("failed to open I²C: %v", err)
	}
	defer bus.Close()

	sensor, err := tmp117.NewI2C(bus, tmp117.DefaultAddress, nil)
	if err != nil {
		log.Fatal(err)
	}
	// Trigger a single conversion and poll for completion. The driver
	// never waits internally; pacing is up to the caller.
	if err := sensor.TriggerOneShot(); err != nil {
		log.Fatal(err)
	}
	for {
		cfg, err := sensor.ReadConfiguration()
		if err != nil {
			log.Fatal(err)
		}
		if cfg.DataReady {
			break
		}
		time.Sleep(cfg.ConversionPeriod())
	}
	t, err := sensor.ReadTemperature()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Sensor Output: %s\n", t)
}
