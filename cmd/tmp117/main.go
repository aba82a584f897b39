// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// tmp117 reads a TMP117 temperature sensor over I²C and prints the
// temperature, once or continuously.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/hwsensors/devices/tmp117"
)

var (
	busName  = flag.String("bus", "", "I²C bus name, empty for the first available")
	addr     = flag.Uint("addr", uint(tmp117.DefaultAddress), "sensor I²C address")
	oneShot  = flag.Bool("oneshot", false, "trigger a one-shot conversion and wait for it instead of reading the running result")
	interval = flag.Duration("interval", 0, "poll continuously at this interval, e.g. 1s")
)

func main() {
	flag.Parse()
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}
	bus, err := i2creg.Open(*busName)
	if err != nil {
		log.Fatalf("failed to open I²C: %v", err)
	}
	defer bus.Close()

	dev, err := tmp117.NewI2C(bus, uint16(*addr), nil)
	if err != nil {
		log.Fatal(err)
	}

	if *interval > 0 {
		ch, err := dev.SenseContinuous(*interval)
		if err != nil {
			log.Fatal(err)
		}
		defer dev.Halt()
		for env := range ch {
			fmt.Println(env.Temperature)
		}
		return
	}

	if *oneShot {
		if err := dev.TriggerOneShot(); err != nil {
			log.Fatal(err)
		}
		for {
			cfg, err := dev.ReadConfiguration()
			if err != nil {
				log.Fatal(err)
			}
			if cfg.DataReady {
				break
			}
			time.Sleep(cfg.ConversionPeriod())
		}
	}

	t, err := dev.ReadTemperature()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(t)
}
