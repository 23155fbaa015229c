/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Command reactonet runs one reactor-driven HTTP server from a TOML config
// file, with a handful of flags to override the bind address without
// editing the file.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	toml "github.com/pelletier/go-toml/v2"
	spfcbr "github.com/spf13/cobra"

	libsrv "github.com/nabbar/reactonet/httpserver"
	liblog "github.com/nabbar/reactonet/logger"
	loglvl "github.com/nabbar/reactonet/logger/level"
)

func main() {
	var (
		cfgPath string
		listen  string
	)

	root := &spfcbr.Command{
		Use:   "reactonet",
		Short: "run a reactor-driven HTTP server",
		RunE: func(cmd *spfcbr.Command, args []string) error {
			return run(cfgPath, listen)
		},
	}

	root.Flags().StringVarP(&cfgPath, "config", "c", "", "path to a TOML config file")
	root.Flags().StringVarP(&listen, "listen", "l", "", "override the configured bind address")

	root.AddCommand(&spfcbr.Command{
		Use:   "config-default",
		Short: "print a default TOML config to stdout",
		RunE: func(cmd *spfcbr.Command, args []string) error {
			enc := toml.NewEncoder(os.Stdout)
			return enc.Encode(libsrv.Config{Listen: "127.0.0.1:8080"})
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfgPath, listenOverride string) error {
	cfg := libsrv.Config{Listen: "127.0.0.1:8080"}

	if cfgPath != "" {
		b, err := os.ReadFile(cfgPath)
		if err != nil {
			return fmt.Errorf("reading config %s: %w", cfgPath, err)
		}
		if err = toml.Unmarshal(b, &cfg); err != nil {
			return fmt.Errorf("parsing config %s: %w", cfgPath, err)
		}
	}
	if listenOverride != "" {
		cfg.Listen = listenOverride
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	log := liblog.New(context.Background())
	log.SetLevel(loglvl.InfoLevel)

	srv, err := libsrv.NewServer(cfg, log)
	if err != nil {
		return err
	}

	srv.Handler(defaultRouter())

	if startErr := srv.Start(); startErr != nil {
		return startErr
	}

	log.Entry(loglvl.InfoLevel, "listening on %s", srv.Addr()).Log()
	srv.WaitNotify()
	return nil
}

// defaultRouter is the handler installed when nothing else is wired in: a
// gin.Engine with a single health endpoint, proving Handler can host an
// ordinary net/http.Handler unchanged.
func defaultRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.GET("/healthz", func(c *gin.Context) {
		c.String(200, "ok")
	})
	return r
}
