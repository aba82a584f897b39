// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.
//
// tmp117 provides a package for interfacing a Texas Instruments TMP117
// high-accuracy I2C temperature sensor. This driver is also compatible
// with the TMP119.
//
// Range: -55°C - 150°C
//
// Accuracy: +/- 0.1°C from -20°C to 50°C
//
// Resolution: 0.0078125°C
//
// The driver performs no register caching: every operation that depends on
// device state re-reads it over the bus, so externally driven register
// changes (alert flags, one-shot completion) are always observed fresh.
//
// For detailed information, refer to the [datasheet].
//
// [datasheet]: https://www.ti.com/lit/ds/symlink/tmp117.pdf
package tmp117
