// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"os"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/decoder"
)

type fileSource struct {
	audio.Source
	f *os.File
}

func (s fileSource) Close() error {
	err := s.Source.Close()
	if cerr := s.f.Close(); err == nil {
		err = cerr
	}
	return err
}

func probeFile(d *decoder.Dispatcher, path string) (audio.Source, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	src, format, err := d.DecodeFormat(f)
	if err != nil {
		_ = f.Close()
		return nil, "", fmt.Errorf("decoding: %w", err)
	}
	return fileSource{Source: src, f: f}, format, nil
}
