// gen-clip renders small synthetic test clips with ffmpeg: a testsrc2
// pattern plus a sine tone, at a few frame rates and durations. The clips
// exercise the player end to end, including the fractional-second tail
// that playback floors away.
//
// Usage:
//
//	go run ./test/tools/gen-clip [output-dir]
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

type clipConfig struct {
	Name     string
	Duration float64
	FPS      int
	Width    int
	Height   int
	Tone     int
}

var clips = []clipConfig{
	{Name: "short_24fps", Duration: 5, FPS: 24, Width: 1280, Height: 720, Tone: 440},
	{Name: "short_30fps", Duration: 5, FPS: 30, Width: 1280, Height: 720, Tone: 660},
	{Name: "fractional", Duration: 3.7, FPS: 25, Width: 640, Height: 360, Tone: 330},
	{Name: "tiny", Duration: 1.2, FPS: 10, Width: 320, Height: 180, Tone: 880},
}

func main() {
	outDir := "testdata/clips"
	if len(os.Args) > 1 {
		outDir = os.Args[1]
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fatalf("create %s: %v", outDir, err)
	}

	fmt.Printf("Generating %d test clips in %s\n", len(clips), outDir)
	for _, c := range clips {
		out := filepath.Join(outDir, c.Name+".mp4")
		if _, err := os.Stat(out); err == nil {
			fmt.Printf("  %s: already exists, skipping\n", c.Name)
			continue
		}
		fmt.Printf("  %s: %gs at %d fps, %dx%d, %d Hz tone\n",
			c.Name, c.Duration, c.FPS, c.Width, c.Height, c.Tone)
		if err := encode(c, out); err != nil {
			fatalf("encode %s: %v", c.Name, err)
		}
	}
	fmt.Println("Done")
}

func encode(c clipConfig, out string) error {
	dur := strconv.FormatFloat(c.Duration, 'f', -1, 64)
	cmd := exec.Command("ffmpeg",
		"-v", "error",
		"-f", "lavfi",
		"-i", fmt.Sprintf("testsrc2=size=%dx%d:rate=%d", c.Width, c.Height, c.FPS),
		"-f", "lavfi",
		"-i", fmt.Sprintf("sine=frequency=%d:sample_rate=44100", c.Tone),
		"-t", dur,
		"-c:v", "libx264", "-preset", "ultrafast", "-pix_fmt", "yuv420p",
		"-c:a", "aac", "-ac", "2",
		"-y", out,
	)
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
