// SPDX-License-Identifier: EPL-2.0

// Command audpipe decodes, mixes and plays audio files.
package main

func main() {
	Execute()
}
