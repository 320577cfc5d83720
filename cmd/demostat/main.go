// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package main

import (
	"github.com/hax0r31337/demoinfocs2-lite/demostat"
)

func main() {
	demostat.Main()
}
