// Copyright 2025 Tuff Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tuff-sh/tuffhub/internal/bootstrap"
)

var confFile = flag.String("conf", "conf.d/config.toml", "configuration file path")

func main() {
	flag.Parse()

	app, err := bootstrap.NewApp(*confFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tuffhub: %v\n", err)
		os.Exit(1)
	}
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "tuffhub: %v\n", err)
		os.Exit(1)
	}
}
