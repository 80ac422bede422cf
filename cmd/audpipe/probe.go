// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"net/http"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/decoder"
	"github.com/ik5/audpipe/internal/logger"
	"github.com/jeffallen/seekinghttp"
	"github.com/spf13/cobra"
)

// probeCmd reports what the decoder makes of a file
var probeCmd = &cobra.Command{
	Use:   "probe <file>",
	Short: "Show the detected format of a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	name := args[0]
	d := decoder.New(nil, decoder.WithLogger(logger.WithComponent("decoder")))

	var (
		src    audio.Source
		format string
		err    error
	)
	if isURL(name) {
		r := seekinghttp.New(name)
		r.Client = http.DefaultClient
		src, format, err = d.DecodeFormat(r)
	} else {
		src, format, err = probeFile(d, name)
	}
	if err != nil {
		return fmt.Errorf("probing %s: %w", name, err)
	}
	defer src.Close()

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "File:        %s\n", name)
	fmt.Fprintf(w, "Format:      %s\n", format)
	fmt.Fprintf(w, "Channels:    %d\n", src.Channels())
	fmt.Fprintf(w, "Sample rate: %d Hz\n", src.SampleRate())
	if dur, ok := audio.TotalDuration(src); ok {
		fmt.Fprintf(w, "Duration:    %s\n", dur)
	} else {
		fmt.Fprintf(w, "Duration:    unknown\n")
	}
	_, seekable := src.(audio.Seeker)
	fmt.Fprintf(w, "Seekable:    %t\n", seekable)
	return nil
}
